package parse

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"

	"smilabus.dev/schedule/model"
)

// Parses a feed packed as a zip of CSV files.
func ParseZip(buf []byte) (*model.Feed, error) {
	r, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("unzipping: %w", err)
	}
	return ParseFeed(r)
}

// Parses a feed from the CSV files in fsys. Files may sit in a
// subdirectory; only the base name is considered.
func ParseFeed(fsys fs.FS) (*model.Feed, error) {
	// These are the files making up a feed. notes.csv and
	// route_stops.csv are optional.
	file := map[string]string{
		"routes.csv":      "",
		"directions.csv":  "",
		"departures.csv":  "",
		"notes.csv":       "",
		"stops.csv":       "",
		"route_stops.csv": "",
	}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := path.Base(p)
		if prev, found := file[name]; found && prev == "" {
			file[name] = p
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing feed files: %w", err)
	}

	for _, required := range []string{"routes.csv", "directions.csv", "departures.csv", "stops.csv"} {
		if file[required] == "" {
			return nil, fmt.Errorf("missing %s", required)
		}
	}

	// LazyCSVReader required (at least) to survive sloppy use of
	// quotes. The BOM reader strips unicode BOMs if present.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})

	open := func(name string, parse func(io.Reader) error) error {
		if file[name] == "" {
			return nil
		}
		rc, err := fsys.Open(file[name])
		if err != nil {
			return fmt.Errorf("opening %s: %w", name, err)
		}
		defer rc.Close()
		if err := parse(rc); err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		return nil
	}

	var stops []*model.Stop
	var stopIDs map[string]bool
	err = open("stops.csv", func(r io.Reader) error {
		stops, stopIDs, err = ParseStops(r)
		return err
	})
	if err != nil {
		return nil, err
	}

	var routes []*model.Route
	err = open("routes.csv", func(r io.Reader) error {
		routes, err = ParseRoutes(r)
		return err
	})
	if err != nil {
		return nil, err
	}

	routeByID := map[string]*model.Route{}
	for _, route := range routes {
		routeByID[route.ID] = route
	}

	err = open("directions.csv", func(r io.Reader) error {
		return ParseDirections(r, routeByID)
	})
	if err != nil {
		return nil, err
	}

	err = open("departures.csv", func(r io.Reader) error {
		return ParseDepartures(r, routeByID)
	})
	if err != nil {
		return nil, err
	}

	err = open("notes.csv", func(r io.Reader) error {
		return ParseNotes(r, routeByID)
	})
	if err != nil {
		return nil, err
	}

	err = open("route_stops.csv", func(r io.Reader) error {
		return ParseRouteStops(r, routeByID, stopIDs)
	})
	if err != nil {
		return nil, err
	}

	// Every direction needs a time table, or there's no next
	// departure to compute.
	for _, route := range routes {
		for _, direction := range route.Directions {
			if len(direction.Times) == 0 {
				return nil, fmt.Errorf("route_id '%s' direction '%s' has no departures", route.ID, direction.Key)
			}
		}
	}

	return &model.Feed{
		Routes: routes,
		Stops:  stops,
	}, nil
}
