package main

import (
	"fmt"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"smilabus.dev/schedule/model"
)

var nextCmd = &cobra.Command{
	Use:   "next <route_id>",
	Short: "Shows the next departure in each direction of a route",
	Args:  cobra.ExactArgs(1),
	RunE:  next,
}

var at string

func init() {
	nextCmd.Flags().StringVarP(&at, "at", "", "", "Time of day as HH:MM (default: now)")
	rootCmd.AddCommand(nextCmd)
}

func next(cmd *cobra.Command, args []string) error {
	routeID := args[0]

	if at != "" && !model.ValidClock(at) {
		return fmt.Errorf("invalid --at %q, want HH:MM", at)
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

	now := at
	if now == "" {
		now = a.clock.HHMM()
	}

	departures, err := tt.NextDepartures(routeID, now)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", now, a.clock.Weekday())

	tbl := table.New("Напрямок", "Відправлення", "Примітка").WithWriter(cmd.OutOrStdout())
	for _, d := range departures {
		note := d.Annotation
		if d.Wrapped {
			note = joinNote(note, "наступного дня")
		}
		tbl.AddRow(d.Direction, d.Departure, note)
	}
	tbl.Print()

	return nil
}

func joinNote(a string, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}
