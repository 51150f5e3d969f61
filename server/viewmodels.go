package server

// JSON bodies of the API.

type RouteSummaryJSON struct {
	ID       string `json:"id"`
	Number   string `json:"number"`
	Name     string `json:"name"`
	NameUk   string `json:"nameUk"`
	Favorite bool   `json:"favorite"`
}

type DirectionJSON struct {
	Key    string   `json:"key"`
	Name   string   `json:"name"`
	NameUk string   `json:"nameUk"`
	Times  []string `json:"times"`
	Notes  []string `json:"notes,omitempty"`
}

type RouteJSON struct {
	RouteSummaryJSON
	Description   string          `json:"description,omitempty"`
	OperatingDays string          `json:"operatingDays,omitempty"`
	MapURL        string          `json:"mapUrl,omitempty"`
	TrackingURL   string          `json:"trackingUrl,omitempty"`
	FareInfo      string          `json:"fareInfo,omitempty"`
	Directions    []DirectionJSON `json:"directions"`
	StopIDs       []string        `json:"stopIds"`
}

type DepartureJSON struct {
	DirectionKey string `json:"directionKey"`
	Direction    string `json:"direction"`
	Departure    string `json:"departure"`
	Annotation   string `json:"annotation,omitempty"`
	Wrapped      bool   `json:"wrapped"`
}

type NextJSON struct {
	Route      string          `json:"route"`
	Now        string          `json:"now"`
	Weekday    string          `json:"weekday"`
	Departures []DepartureJSON `json:"departures"`
}

type StopJSON struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	NameUk     string   `json:"nameUk"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	Facilities []string `json:"facilities"`
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

type FavoriteJSON struct {
	ID            string `json:"id"`
	Number        string `json:"number"`
	Name          string `json:"name"`
	NextDeparture string `json:"nextDeparture,omitempty"`
	Upcoming      string `json:"upcoming,omitempty"`
}

type ToggleJSON struct {
	ID       string `json:"id"`
	Favorite bool   `json:"favorite"`
}

type HealthJSON struct {
	Status     string `json:"status"`
	Routes     int    `json:"routes"`
	Source     string `json:"source"`
	Persistent bool   `json:"persistent"`
}

type ErrorJSON struct {
	Error string `json:"error"`
}

// The HTML schedule page.

type SchedulePageVM struct {
	Now        string
	Weekday    string
	Query      string
	Persistent bool
	Favorites  []FavoriteVM
	Routes     []RouteCardVM
}

type FavoriteVM struct {
	ID       string
	Number   string
	Name     string
	Upcoming string
}

type RouteCardVM struct {
	ID            string
	Number        string
	Name          string
	Description   string
	OperatingDays string
	FareInfo      string
	MapURL        string
	TrackingURL   string
	Favorite      bool
	Directions    []DirectionVM
}

type DirectionVM struct {
	Name       string
	Next       string
	Annotation string
	Wrapped    bool
	Times      []string
	Notes      []string
}
