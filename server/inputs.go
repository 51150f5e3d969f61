package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultNearbyLimit = 5
	maxNearbyLimit     = 50
)

type SearchQuery struct {
	Term string
}

func ParseSearchQuery(values url.Values) SearchQuery {
	return SearchQuery{Term: strings.TrimSpace(values.Get("q"))}
}

type NearbyQuery struct {
	Lat   float64
	Lon   float64
	Limit int
}

func ParseNearbyQuery(values url.Values) (NearbyQuery, error) {
	lat, err := strconv.ParseFloat(values.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return NearbyQuery{}, fmt.Errorf("lat must be a number between -90 and 90")
	}

	lon, err := strconv.ParseFloat(values.Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		return NearbyQuery{}, fmt.Errorf("lon must be a number between -180 and 180")
	}

	limit := defaultNearbyLimit
	if s := values.Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 1 {
			return NearbyQuery{}, fmt.Errorf("limit must be a positive integer")
		}
	}
	if limit > maxNearbyLimit {
		limit = maxNearbyLimit
	}

	return NearbyQuery{Lat: lat, Lon: lon, Limit: limit}, nil
}
