// Package data embeds the Smila bus feed: routes, directions,
// departures, notes, stops and the stops served by each route.
package data

import (
	"embed"
)

//go:embed *.csv
var FS embed.FS
