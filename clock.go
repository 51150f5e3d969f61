package schedule

import (
	"time"
	_ "time/tzdata"
)

const DefaultTimezone = "Europe/Kyiv"

// Ukrainian weekday abbreviations, Monday first.
var weekdayAbbreviations = [7]string{"ПН", "ВТ", "СР", "ЧТ", "ПТ", "СБ", "НД"}

// Supplies the current local wall-clock time. No timezone conversion
// happens past this point: everything downstream works on "HH:MM".
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

// Creates a Clock for the named IANA timezone. An empty name uses
// DefaultTimezone.
func NewClock(timezone string) (*Clock, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &Clock{Location: location, Now: time.Now}, nil
}

func (c *Clock) Time() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	location := c.Location
	if location == nil {
		location = time.Local
	}
	return now().In(location)
}

// Current time as zero-padded 24 hour "HH:MM".
func (c *Clock) HHMM() string {
	return c.Time().Format("15:04")
}

// Current weekday as a Ukrainian abbreviation (ПН..НД).
func (c *Clock) Weekday() string {
	return WeekdayAbbreviation(c.Time().Weekday())
}

func WeekdayAbbreviation(day time.Weekday) string {
	return weekdayAbbreviations[(int(day)+6)%7]
}
