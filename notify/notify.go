package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"smilabus.dev/schedule/model"
)

const (
	DefaultPrefix = "smilabus.favorites"

	KindAdded   = "added"
	KindRemoved = "removed"
)

// Published on <prefix>.<kind>.<route id> whenever the favorites
// change.
type FavoriteEvent struct {
	ID       string               `json:"id"`
	Kind     string               `json:"kind"`
	Route    string               `json:"route"`
	Favorite *model.FavoriteEntry `json:"favorite,omitempty"`
	At       time.Time            `json:"at"`
}

type Metrics interface {
	NotificationPublished()
	NotificationFailed()
	NATSConnected(connected bool)
}

// The part of *nats.Conn used for publishing.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publishes favorite changes to NATS. Publishing is fire and forget:
// failures are logged and counted, never returned to the caller.
type NATS struct {
	Prefix  string
	TimeNow func() time.Time

	conn    Conn
	nc      *nats.Conn
	metrics Metrics
}

// Connects to the NATS server at url. Reconnects are handled by the
// client library.
func Connect(url string, prefix string, m Metrics) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("smilabus"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSConnected(false)
			}
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	if m != nil {
		m.NATSConnected(true)
	}

	p := New(nc, prefix, m)
	p.nc = nc
	return p, nil
}

// Publishes on an existing connection.
func New(conn Conn, prefix string, m Metrics) *NATS {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &NATS{
		Prefix:  strings.TrimSuffix(prefix, "."),
		TimeNow: time.Now,
		conn:    conn,
		metrics: m,
	}
}

func (p *NATS) FavoriteAdded(entry model.FavoriteEntry) {
	p.publish(FavoriteEvent{
		Kind:     KindAdded,
		Route:    entry.ID,
		Favorite: &entry,
	})
}

func (p *NATS) FavoriteRemoved(id string) {
	p.publish(FavoriteEvent{
		Kind:  KindRemoved,
		Route: id,
	})
}

func (p *NATS) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

func (p *NATS) publish(event FavoriteEvent) {
	event.ID = uuid.NewString()
	event.At = p.TimeNow().UTC()

	err := p.send(event)
	if err != nil {
		log.Printf("notify: %v", err)
		if p.metrics != nil {
			p.metrics.NotificationFailed()
		}
		return
	}
	if p.metrics != nil {
		p.metrics.NotificationPublished()
	}
}

func (p *NATS) send(event FavoriteEvent) error {
	buf, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", event.Kind, err)
	}

	subject := Subject(p.Prefix, event.Kind, event.Route)
	err = p.conn.Publish(subject, buf)
	if err != nil {
		return fmt.Errorf("publishing %s: %w", subject, err)
	}

	return nil
}

// Subject for an event of the given kind about a route.
func Subject(prefix string, kind string, routeID string) string {
	return fmt.Sprintf("%s.%s.%s", prefix, kind, subjectToken(routeID))
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS tokens can't hold whitespace, wildcards or dots
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}

// Discards all notifications.
type Nop struct{}

func (Nop) FavoriteAdded(model.FavoriteEntry) {}
func (Nop) FavoriteRemoved(string) {}
