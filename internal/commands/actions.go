package commands

import (
	"fmt"

	"github.com/colin/cli-mail/pkg/types"
)

var cmdStar = &Command{
	Name:        "star",
	Aliases:     []string{"flag"},
	Description: "Toggle the flagged marker on a message",
	Usage:       "/star <n>",
	Run: func(a *App, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("usage: %s", "/star <n>")
		}
		header, err := a.headerAt(args[0])
		if err != nil {
			return err
		}

		if header.IsFlagged() {
			if err := a.session.RemoveFlag(a.folder, header.UID, types.FlagFlagged); err != nil {
				return err
			}
			delete(header.Flags, types.FlagFlagged)
			fmt.Fprintln(a.out, "unstarred")
			return nil
		}

		if err := a.session.SetFlag(a.folder, header.UID, types.FlagFlagged); err != nil {
			return err
		}
		if header.Flags == nil {
			header.Flags = types.NewFlagSet()
		}
		header.Flags[types.FlagFlagged] = struct{}{}
		fmt.Fprintln(a.out, "starred")
		return nil
	},
}

var cmdDelete = &Command{
	Name:        "delete",
	Aliases:     []string{"d", "rm"},
	Description: "Delete a message",
	Usage:       "/delete <n>",
	Run: func(a *App, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("usage: %s", "/delete <n>")
		}
		header, err := a.headerAt(args[0])
		if err != nil {
			return err
		}

		if err := a.session.DeleteEmail(a.folder, header.UID); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "deleted")
		return a.selectAndList(a.folder)
	},
}

var cmdArchive = &Command{
	Name:        "archive",
	Aliases:     []string{"a"},
	Description: "Move a message to the archive folder",
	Usage:       "/archive <n>",
	Run: func(a *App, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("usage: %s", "/archive <n>")
		}
		header, err := a.headerAt(args[0])
		if err != nil {
			return err
		}

		for _, dest := range a.cfg.ArchiveFolders {
			moved, err := a.session.MoveEmail(a.folder, header.UID, dest)
			if err != nil {
				return err
			}
			if moved {
				fmt.Fprintf(a.out, "archived to %s\n", dest)
				return a.selectAndList(a.folder)
			}
		}
		return fmt.Errorf("no archive folder accepted the message (tried %d)", len(a.cfg.ArchiveFolders))
	},
}
