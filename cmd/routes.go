package main

import (
	"strings"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes [term]",
	Short: "Lists routes, optionally matching a search term",
	Args:  cobra.MaximumNArgs(1),
	RunE:  routes,
}

func init() {
	rootCmd.AddCommand(routesCmd)
}

func routes(cmd *cobra.Command, args []string) error {
	term := ""
	if len(args) == 1 {
		term = args[0]
	}

	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tt, err := a.timetable()
	if err != nil {
		return err
	}

	favorites := a.manager.Favorites()

	tbl := table.New("", "ID", "№", "Маршрут", "Напрямки").WithWriter(cmd.OutOrStdout())
	for _, route := range tt.SearchRoutes(term) {
		star := ""
		if favorites.IsFavorite(route.ID) {
			star = "★"
		}

		directions := make([]string, 0, len(route.Directions))
		for _, d := range route.Directions {
			directions = append(directions, d.NameUk)
		}

		tbl.AddRow(star, route.ID, route.Number, route.NameUk, strings.Join(directions, ", "))
	}
	tbl.Print()

	return nil
}
