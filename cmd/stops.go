package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"smilabus.dev/schedule"
	"smilabus.dev/schedule/model"
)

var stopsCmd = &cobra.Command{
	Use:   "stops [lat lng] [limit]",
	Short: "Lists stops, nearest first if a location is given",
	Args:  cobra.RangeArgs(0, 3),
	RunE:  stops,
}

func init() {
	rootCmd.AddCommand(stopsCmd)
}

func stops(cmd *cobra.Command, args []string) error {
	var lat, lng float64
	var limit int
	var err error

	gotLocation := false
	if len(args) == 1 {
		return fmt.Errorf("missing lng")
	}
	if len(args) >= 2 {
		gotLocation = true
		lat, err = strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid lat: %w", err)
		}
		lng, err = strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid lng: %w", err)
		}
	}
	if len(args) == 3 {
		limit, err = strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid limit: %w", err)
		}
		if limit < 0 {
			return fmt.Errorf("limit must be >= 0")
		}
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

	var stops []*model.Stop
	if gotLocation {
		stops = tt.NearbyStops(lat, lng, limit)
	} else {
		stops = tt.Stops()
		sort.SliceStable(stops, func(i, j int) bool {
			return stops[i].NameUk < stops[j].NameUk
		})
	}

	header := []interface{}{"ID", "Зупинка", "Маршрути"}
	if gotLocation {
		header = append(header, "Км")
	}

	tbl := table.New(header...).WithWriter(cmd.OutOrStdout())
	for _, stop := range stops {
		served, err := tt.RoutesForStop(stop.ID)
		if err != nil {
			return err
		}
		numbers := ""
		for i, route := range served {
			if i > 0 {
				numbers += ", "
			}
			numbers += route.Number
		}

		row := []interface{}{stop.ID, stop.NameUk, numbers}
		if gotLocation {
			row = append(row, fmt.Sprintf("%.2f", schedule.HaversineDistance(lat, lng, stop.Lat, stop.Lon)))
		}
		tbl.AddRow(row...)
	}
	tbl.Print()

	return nil
}
