package commands

import (
	"fmt"
	"strings"
)

var cmdSearch = &Command{
	Name:        "search",
	Description: "Search the selected folder by subject or sender",
	Usage:       "/search <query>",
	Run: func(a *App, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("usage: %s", "/search <query>")
		}
		query := strings.Join(args, " ")

		headers, err := a.session.Search(a.folder, query)
		if err != nil {
			return err
		}
		a.listing = headers

		if len(headers) == 0 {
			fmt.Fprintf(a.out, "no matches for %q\n", query)
			return nil
		}
		fmt.Fprintf(a.out, "%d matches for %q:\n", len(headers), query)
		printListing(a.out, headers)
		return nil
	},
}
