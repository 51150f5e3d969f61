package schedule

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"smilabus.dev/schedule/model"
)

// Supplies the upcoming departure shown next to a favorite.
type DepartureProvider interface {
	UpcomingDeparture(entry model.FavoriteEntry) (string, error)
}

// Live departures computed from the timetable and the clock.
type TimetableProvider struct {
	Timetable *Timetable
	Clock     *Clock
}

func (p *TimetableProvider) UpcomingDeparture(entry model.FavoriteEntry) (string, error) {
	fav, err := p.Timetable.FavoriteFor(entry.ID, p.Clock.HHMM())
	if err != nil {
		return "", err
	}
	return fav.NextDeparture, nil
}

// SIMULATED DATA. Returns a random time within the next 30 minutes,
// regardless of the route. Only meant for demos without a timetable.
type SimulatedProvider struct {
	Clock *Clock

	mutex sync.Mutex
	rand  *rand.Rand
}

func NewSimulatedProvider(clock *Clock, seed int64) *SimulatedProvider {
	return &SimulatedProvider{
		Clock: clock,
		rand:  rand.New(rand.NewSource(seed)),
	}
}

func (p *SimulatedProvider) UpcomingDeparture(entry model.FavoriteEntry) (string, error) {
	p.mutex.Lock()
	offset := time.Duration(p.rand.Int63n(int64(30 * time.Minute)))
	p.mutex.Unlock()

	return p.Clock.Time().Add(offset).Format("15:04"), nil
}

// A favorite together with its upcoming departure.
type FavoriteStatus struct {
	model.FavoriteEntry
	Upcoming string
}

// Resolves the upcoming departure for each favorite. When the
// provider fails for a favorite, the snapshot taken when it was added
// is shown instead.
func Summarize(entries []model.FavoriteEntry, provider DepartureProvider) []FavoriteStatus {
	statuses := make([]FavoriteStatus, 0, len(entries))
	for _, entry := range entries {
		status := FavoriteStatus{FavoriteEntry: entry, Upcoming: entry.NextDeparture}
		if provider != nil {
			upcoming, err := provider.UpcomingDeparture(entry)
			if err != nil {
				log.Printf("favorites: %v", fmt.Errorf("upcoming departure for %q: %w", entry.ID, err))
			} else {
				status.Upcoming = upcoming
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}
