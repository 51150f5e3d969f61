package main

import (
	"fmt"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"smilabus.dev/schedule"
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Manages favorite routes",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists favorite routes with their upcoming departure",
	Args:  cobra.NoArgs,
	RunE:  favoritesList,
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <route_id>",
	Short: "Adds a route to the favorites",
	Args:  cobra.ExactArgs(1),
	RunE:  favoritesAdd,
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <route_id>",
	Short: "Removes a route from the favorites",
	Args:  cobra.ExactArgs(1),
	RunE:  favoritesRemove,
}

func init() {
	favoritesCmd.AddCommand(favoritesListCmd, favoritesAddCmd, favoritesRemoveCmd)
	rootCmd.AddCommand(favoritesCmd)
}

func favoritesList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	provider := a.provider()
	if provider == nil {
		tt, err := a.timetable()
		if err != nil {
			return err
		}
		provider = &schedule.TimetableProvider{Timetable: tt, Clock: a.clock}
	}

	favorites := a.manager.Favorites()
	statuses := schedule.Summarize(favorites.List(), provider)

	if len(statuses) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Немає обраних маршрутів")
		return nil
	}

	tbl := table.New("ID", "№", "Маршрут", "Додано о", "Наступний").WithWriter(cmd.OutOrStdout())
	for _, s := range statuses {
		tbl.AddRow(s.ID, s.Number, s.Name, s.NextDeparture, s.Upcoming)
	}
	tbl.Print()

	warnIfVolatile(cmd, a)

	return nil
}

func favoritesAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tt, err := a.timetable()
	if err != nil {
		return err
	}

	entry, err := tt.FavoriteFor(args[0], a.clock.HHMM())
	if err != nil {
		return err
	}

	err = a.manager.Favorites().Add(entry)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "★ %s %s\n", entry.Number, entry.Name)
	warnIfVolatile(cmd, a)

	return nil
}

func favoritesRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	favorites := a.manager.Favorites()
	if !favorites.IsFavorite(args[0]) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is not a favorite\n", args[0])
		return nil
	}

	err = favorites.Remove(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "☆ %s\n", args[0])
	warnIfVolatile(cmd, a)

	return nil
}

// Favorites kept only in memory are gone when the command exits.
func warnIfVolatile(cmd *cobra.Command, a *app) {
	if a.storageFailed {
		// Already warned at startup
		return
	}
	if a.manager.Favorites().Persistent() && persistentStorage(a.cfg) {
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "warning: favorites are not persisted, set --data-dir or use postgres storage")
}
