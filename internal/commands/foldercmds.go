package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/colin/cli-mail/pkg/types"
)

var cmdFolders = &Command{
	Name:        "folders",
	Aliases:     []string{"f"},
	Description: "List folders with message counts",
	Usage:       "/folders",
	Run: func(a *App, args []string) error {
		folders, err := a.session.ListFolders()
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(a.out)
		table.SetHeader([]string{"Folder", "Total", "Unread"})
		table.SetBorder(false)
		table.SetColumnSeparator(" ")
		for _, f := range folders {
			table.Append([]string{f.Name, strconv.Itoa(f.Total), strconv.Itoa(f.Unread)})
		}
		table.Render()
		return nil
	},
}

var cmdSwitch = &Command{
	Name:        "switch",
	Aliases:     []string{"s", "cd"},
	Description: "Switch to another folder",
	Usage:       "/switch <folder>",
	Run: func(a *App, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("usage: %s", "/switch <folder>")
		}
		name := strings.Join(args, " ")

		folders, err := a.session.ListFolders()
		if err != nil {
			return err
		}
		target, ok := resolveFolder(name, folderNames(folders), folderDisplayNames(folders))
		if !ok {
			return fmt.Errorf("no folder named %q", name)
		}
		return a.selectAndList(target)
	},
}

// resolveFolder matches a user-typed folder name against the server's
// folders: exact name first, then last hierarchy segment, then a
// case-insensitive pass over both.
func resolveFolder(name string, names, displays []string) (string, bool) {
	for _, full := range names {
		if full == name {
			return full, true
		}
	}
	for i, display := range displays {
		if display == name {
			return names[i], true
		}
	}
	lower := strings.ToLower(name)
	for i, full := range names {
		if strings.ToLower(full) == lower || strings.ToLower(displays[i]) == lower {
			return full, true
		}
	}
	return "", false
}

func folderNames(folders []types.Folder) []string {
	names := make([]string, len(folders))
	for i, f := range folders {
		names[i] = f.Name
	}
	return names
}

func folderDisplayNames(folders []types.Folder) []string {
	names := make([]string, len(folders))
	for i, f := range folders {
		names[i] = f.DisplayName()
	}
	return names
}
