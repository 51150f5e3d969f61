package schedule

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"smilabus.dev/schedule/model"
	"smilabus.dev/schedule/storage"
)

// Storage slot holding the serialized favorites.
const FavoritesKey = "favoriteBusRoutes"

// Receives committed favorites mutations.
type ChangeNotifier interface {
	FavoriteAdded(entry model.FavoriteEntry)
	FavoriteRemoved(id string)
}

type FavoritesMetrics interface {
	FavoriteMutation(kind string)
	FavoritesCount(n int)
	StorageError(op string)
}

// The set of favorited routes, persisted in a single storage slot.
//
// One Favorites should be shared by everything in the process. It
// caches the collection in memory and rewrites the whole slot on
// every mutation, so a second instance over the same storage won't
// see changes until it calls Reload.
//
// If the storage fails, the set keeps working in memory only for the
// rest of the process. See Persistent.
type Favorites struct {
	// Optional. Set these before the Favorites is shared.
	Notifier ChangeNotifier
	Metrics  FavoritesMetrics

	mutex      sync.Mutex
	storage    storage.Storage
	entries    []model.FavoriteEntry
	persistent bool
}

// Creates a Favorites on top of the given storage and loads the
// current collection. Unreadable or unavailable storage is logged and
// results in an empty set. A nil storage gives an in-memory set.
func NewFavorites(s storage.Storage) *Favorites {
	f := &Favorites{
		storage:    s,
		entries:    []model.FavoriteEntry{},
		persistent: s != nil,
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()
	_ = f.load()

	return f
}

// Re-reads the collection from storage, discarding the cached copy.
// Does nothing if the set has fallen back to memory.
func (f *Favorites) Reload() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.load()
}

// All favorites, in the order they were added.
func (f *Favorites) List() []model.FavoriteEntry {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]model.FavoriteEntry{}, f.entries...)
}

func (f *Favorites) IsFavorite(id string) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.indexOf(id) >= 0
}

// Adds a favorite. If an entry with the same ID exists it is replaced
// in place, keeping its position. Only new favorites are announced to
// the Notifier.
func (f *Favorites) Add(entry model.FavoriteEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("favorite without id: %w", ErrInvalidInput)
	}

	f.mutex.Lock()
	replaced := f.add(entry)
	f.mutex.Unlock()

	f.announceAdd(entry, replaced)

	return nil
}

// Removes the favorite with the given ID. Removing a route that isn't
// a favorite is not an error.
func (f *Favorites) Remove(id string) error {
	f.mutex.Lock()
	removed := f.remove(id)
	f.mutex.Unlock()

	if removed {
		f.announceRemove(id)
	}

	return nil
}

// Flips the favorite state of entry.ID. Returns true if the route is
// a favorite afterwards.
func (f *Favorites) Toggle(entry model.FavoriteEntry) (bool, error) {
	if entry.ID == "" {
		return false, fmt.Errorf("favorite without id: %w", ErrInvalidInput)
	}

	f.mutex.Lock()
	if f.indexOf(entry.ID) >= 0 {
		f.remove(entry.ID)
		f.mutex.Unlock()
		f.announceRemove(entry.ID)
		return false, nil
	}
	f.add(entry)
	f.mutex.Unlock()

	f.announceAdd(entry, false)

	return true, nil
}

// Must hold mutex. Reports whether an existing entry was replaced.
func (f *Favorites) add(entry model.FavoriteEntry) bool {
	entries := append([]model.FavoriteEntry{}, f.entries...)
	i := f.indexOf(entry.ID)
	if i >= 0 {
		entries[i] = entry
	} else {
		entries = append(entries, entry)
	}
	f.commit(entries)
	return i >= 0
}

// Must hold mutex. The collection is persisted even if id wasn't
// present. Reports whether an entry was removed.
func (f *Favorites) remove(id string) bool {
	entries := make([]model.FavoriteEntry, 0, len(f.entries))
	removed := false
	for _, e := range f.entries {
		if e.ID == id {
			removed = true
			continue
		}
		entries = append(entries, e)
	}
	f.commit(entries)
	return removed
}

func (f *Favorites) announceAdd(entry model.FavoriteEntry, replaced bool) {
	if replaced {
		if f.Metrics != nil {
			f.Metrics.FavoriteMutation("replaced")
		}
		return
	}

	if f.Metrics != nil {
		f.Metrics.FavoriteMutation("added")
	}
	if f.Notifier != nil {
		f.Notifier.FavoriteAdded(entry)
	}
}

func (f *Favorites) announceRemove(id string) {
	if f.Metrics != nil {
		f.Metrics.FavoriteMutation("removed")
	}
	if f.Notifier != nil {
		f.Notifier.FavoriteRemoved(id)
	}
}

// Reports whether mutations still reach storage.
func (f *Favorites) Persistent() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.persistent
}

func (f *Favorites) indexOf(id string) int {
	for i, e := range f.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Must hold mutex.
func (f *Favorites) load() error {
	if !f.persistent {
		return nil
	}

	buf, found, err := f.storage.Get(FavoritesKey)
	if err != nil {
		f.degrade("get", err)
		f.entries = []model.FavoriteEntry{}
		return fmt.Errorf("loading favorites: %w", err)
	}

	if !found {
		f.entries = []model.FavoriteEntry{}
		f.reportCount()
		return nil
	}

	entries, err := DecodeFavorites(buf)
	if err != nil {
		log.Printf("favorites: discarding unreadable %s: %v", FavoritesKey, err)
		f.entries = []model.FavoriteEntry{}
		f.reportCount()
		return err
	}

	f.entries = entries
	f.reportCount()
	return nil
}

// Writes the full collection and makes it current. Must hold mutex.
func (f *Favorites) commit(entries []model.FavoriteEntry) {
	f.entries = entries
	f.reportCount()

	if !f.persistent {
		return
	}

	buf, err := EncodeFavorites(entries)
	if err != nil {
		log.Printf("favorites: %v", err)
		return
	}

	err = f.storage.Set(FavoritesKey, buf)
	if err != nil {
		f.degrade("set", err)
	}
}

// Must hold mutex.
func (f *Favorites) degrade(op string, err error) {
	log.Printf("favorites: storage unavailable, keeping favorites in memory only: %v", err)
	f.persistent = false
	if f.Metrics != nil {
		f.Metrics.StorageError(op)
	}
}

func (f *Favorites) reportCount() {
	if f.Metrics != nil {
		f.Metrics.FavoritesCount(len(f.entries))
	}
}

// Serializes favorites the way they are persisted: a JSON array of
// {id, number, name, nextDeparture}.
func EncodeFavorites(entries []model.FavoriteEntry) ([]byte, error) {
	if entries == nil {
		entries = []model.FavoriteEntry{}
	}
	buf, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encoding favorites: %w: %w", ErrSerialization, err)
	}
	return buf, nil
}

// Parses persisted favorites. Entries without an ID are dropped, and
// for repeated IDs only the first entry is kept.
func DecodeFavorites(buf []byte) ([]model.FavoriteEntry, error) {
	raw := []model.FavoriteEntry{}
	err := json.Unmarshal(buf, &raw)
	if err != nil {
		return nil, fmt.Errorf("decoding favorites: %w: %w", ErrSerialization, err)
	}

	seen := map[string]bool{}
	entries := make([]model.FavoriteEntry, 0, len(raw))
	for _, e := range raw {
		if e.ID == "" || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		entries = append(entries, e)
	}

	return entries, nil
}
