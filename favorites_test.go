package schedule_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smilabus.dev/schedule"
	"smilabus.dev/schedule/model"
	"smilabus.dev/schedule/storage"
	"smilabus.dev/schedule/testutil"
)

var backends = []string{"memory", "sqlite", "filesystem"}

type recordingNotifier struct {
	mutex   sync.Mutex
	added   []string
	removed []string
}

func (n *recordingNotifier) FavoriteAdded(entry model.FavoriteEntry) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.added = append(n.added, entry.ID)
}

func (n *recordingNotifier) FavoriteRemoved(id string) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.removed = append(n.removed, id)
}

type recordingMetrics struct {
	mutations     []string
	count         int
	storageErrors []string
}

func (m *recordingMetrics) FavoriteMutation(kind string) { m.mutations = append(m.mutations, kind) }
func (m *recordingMetrics) FavoritesCount(n int) { m.count = n }
func (m *recordingMetrics) StorageError(op string) { m.storageErrors = append(m.storageErrors, op) }

// Storage that reads fine but refuses writes.
type readOnlyStorage struct {
	storage.Storage
}

func (readOnlyStorage) Set(key string, value []byte) error {
	return fmt.Errorf("read only: %w", storage.ErrUnavailable)
}

func TestFavoritesAddRemove(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			f := schedule.NewFavorites(testutil.BuildStorage(t, backend))
			assert.True(t, f.Persistent())
			assert.Equal(t, []model.FavoriteEntry{}, f.List())
			assert.False(t, f.IsFavorite("3"))

			require.NoError(t, f.Add(model.FavoriteEntry{ID: "3", Number: "3", Name: "АС-2", NextDeparture: "10:10"}))
			assert.True(t, f.IsFavorite("3"))

			list := f.List()
			require.Equal(t, 1, len(list))
			assert.Equal(t, model.FavoriteEntry{ID: "3", Number: "3", Name: "АС-2", NextDeparture: "10:10"}, list[0])

			require.NoError(t, f.Remove("3"))
			assert.False(t, f.IsFavorite("3"))
			assert.Equal(t, []model.FavoriteEntry{}, f.List())
		})
	}
}

func TestFavoritesRoundTrip(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			s := testutil.BuildStorage(t, backend)

			f := schedule.NewFavorites(s)
			require.NoError(t, f.Add(model.FavoriteEntry{ID: "302", Number: "302", Name: "Ст.Шевченка — м.Черкаси", NextDeparture: "07:00"}))
			require.NoError(t, f.Add(model.FavoriteEntry{ID: "3", Number: "3", Name: "АС-2", NextDeparture: "10:10"}))
			require.NoError(t, f.Add(model.FavoriteEntry{ID: "17", Number: "17", Name: "Ст.Шевченка — АС-1"}))

			reloaded := schedule.NewFavorites(s)
			assert.True(t, reloaded.Persistent())
			assert.Equal(t, f.List(), reloaded.List())
			assert.Equal(t, []string{"302", "3", "17"}, ids(reloaded.List()))
		})
	}
}

func TestFavoritesPersistedFormat(t *testing.T) {
	s := storage.NewMemoryStorage()
	f := schedule.NewFavorites(s)

	require.NoError(t, f.Add(model.FavoriteEntry{ID: "3", Number: "3", Name: "АС-2", NextDeparture: "10:10"}))
	require.NoError(t, f.Add(model.FavoriteEntry{ID: "4", Number: "4", Name: "Тимурівець"}))

	buf, found, err := s.Get(schedule.FavoritesKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `[
		{"id":"3","number":"3","name":"АС-2","nextDeparture":"10:10"},
		{"id":"4","number":"4","name":"Тимурівець"}
	]`, string(buf))
}

func TestFavoritesAddIsIdempotent(t *testing.T) {
	f := schedule.NewFavorites(storage.NewMemoryStorage())

	require.NoError(t, f.Add(model.FavoriteEntry{ID: "3", Number: "3", Name: "АС-2", NextDeparture: "08:20"}))
	require.NoError(t, f.Add(model.FavoriteEntry{ID: "4", Number: "4", Name: "Тимурівець"}))
	require.NoError(t, f.Add(model.FavoriteEntry{ID: "3", Number: "3", Name: "АС-2", NextDeparture: "10:10"}))

	list := f.List()
	require.Equal(t, 2, len(list))
	assert.Equal(t, []string{"3", "4"}, ids(list))
	assert.Equal(t, "10:10", list[0].NextDeparture)
}

func TestFavoritesAddWithoutID(t *testing.T) {
	f := schedule.NewFavorites(storage.NewMemoryStorage())
	err := f.Add(model.FavoriteEntry{Number: "3"})
	assert.ErrorIs(t, err, schedule.ErrInvalidInput)
	assert.Equal(t, 0, len(f.List()))
}

func TestFavoritesRemoveMissing(t *testing.T) {
	s := storage.NewMemoryStorage()
	f := schedule.NewFavorites(s)
	require.NoError(t, f.Add(model.FavoriteEntry{ID: "3", Number: "3"}))

	require.NoError(t, f.Remove("5"))
	assert.Equal(t, []string{"3"}, ids(f.List()))

	// Slot is still written out.
	fresh := storage.NewMemoryStorage()
	g := schedule.NewFavorites(fresh)
	require.NoError(t, g.Remove("5"))
	buf, found, err := fresh.Get(schedule.FavoritesKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", string(buf))
}

func TestFavoritesListIsCopy(t *testing.T) {
	f := schedule.NewFavorites(nil)
	require.NoError(t, f.Add(model.FavoriteEntry{ID: "3", Number: "3"}))

	list := f.List()
	list[0].ID = "mutated"
	assert.True(t, f.IsFavorite("3"))
	assert.False(t, f.IsFavorite("mutated"))
}

func TestFavoritesToggle(t *testing.T) {
	f := schedule.NewFavorites(storage.NewMemoryStorage())
	entry := model.FavoriteEntry{ID: "5", Number: "5", Name: "БК СЕМЗ – вул. Федорова"}

	on, err := f.Toggle(entry)
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, f.IsFavorite("5"))

	on, err = f.Toggle(entry)
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, f.IsFavorite("5"))

	_, err = f.Toggle(model.FavoriteEntry{})
	assert.ErrorIs(t, err, schedule.ErrInvalidInput)
}

func TestFavoritesCorruptStorage(t *testing.T) {
	for _, payload := range []string{"not json", `{"id":"3"}`, `[{"id":3}]`} {
		t.Run(payload, func(t *testing.T) {
			s := storage.NewMemoryStorage()
			require.NoError(t, s.Set(schedule.FavoritesKey, []byte(payload)))

			f := schedule.NewFavorites(s)
			assert.Equal(t, []model.FavoriteEntry{}, f.List())
			assert.True(t, f.Persistent())

			err := f.Reload()
			assert.ErrorIs(t, err, schedule.ErrSerialization)

			// The next mutation overwrites the broken payload.
			require.NoError(t, f.Add(model.FavoriteEntry{ID: "3", Number: "3"}))
			g := schedule.NewFavorites(s)
			assert.Equal(t, []string{"3"}, ids(g.List()))
		})
	}
}

func TestFavoritesUnavailableStorage(t *testing.T) {
	s := storage.NewMemoryStorage()
	require.NoError(t, s.Close())

	f := schedule.NewFavorites(s)
	assert.False(t, f.Persistent())
	assert.Equal(t, []model.FavoriteEntry{}, f.List())

	require.NoError(t, f.Add(model.FavoriteEntry{ID: "3", Number: "3"}))
	assert.True(t, f.IsFavorite("3"))

	// Memory only from here on: reload keeps what's cached.
	require.NoError(t, f.Reload())
	assert.Equal(t, []string{"3"}, ids(f.List()))
}

func TestFavoritesWriteFailureDegrades(t *testing.T) {
	s := storage.NewMemoryStorage()
	require.NoError(t, s.Set(schedule.FavoritesKey, []byte(`[{"id":"3","number":"3","name":"АС-2"}]`)))

	metrics := &recordingMetrics{}
	f := schedule.NewFavorites(readOnlyStorage{s})
	f.Metrics = metrics
	assert.True(t, f.Persistent())
	assert.Equal(t, []string{"3"}, ids(f.List()))

	require.NoError(t, f.Add(model.FavoriteEntry{ID: "4", Number: "4"}))
	assert.False(t, f.Persistent())
	assert.Equal(t, []string{"3", "4"}, ids(f.List()))
	assert.Equal(t, []string{"set"}, metrics.storageErrors)

	// Nothing reached the underlying storage.
	buf, _, err := s.Get(schedule.FavoritesKey)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"3","number":"3","name":"АС-2"}]`, string(buf))
}

func TestFavoritesReloadSeesOtherInstance(t *testing.T) {
	s := storage.NewMemoryStorage()
	a := schedule.NewFavorites(s)
	b := schedule.NewFavorites(s)

	require.NoError(t, a.Add(model.FavoriteEntry{ID: "3", Number: "3"}))
	assert.False(t, b.IsFavorite("3"))

	require.NoError(t, b.Reload())
	assert.True(t, b.IsFavorite("3"))
}

func TestFavoritesNotifierAndMetrics(t *testing.T) {
	notifier := &recordingNotifier{}
	metrics := &recordingMetrics{}

	f := schedule.NewFavorites(storage.NewMemoryStorage())
	f.Notifier = notifier
	f.Metrics = metrics

	require.NoError(t, f.Add(model.FavoriteEntry{ID: "3", Number: "3"}))
	require.NoError(t, f.Add(model.FavoriteEntry{ID: "4", Number: "4"}))
	require.NoError(t, f.Remove("3"))
	require.NoError(t, f.Remove("nope"))

	// Re-adding only refreshes the snapshot
	require.NoError(t, f.Add(model.FavoriteEntry{ID: "4", Number: "4", NextDeparture: "12:55"}))

	assert.Equal(t, []string{"3", "4"}, notifier.added)
	assert.Equal(t, []string{"3"}, notifier.removed)
	assert.Equal(t, []string{"added", "added", "removed", "replaced"}, metrics.mutations)
	assert.Equal(t, "12:55", f.List()[0].NextDeparture)
	assert.Equal(t, 1, metrics.count)
	assert.Nil(t, metrics.storageErrors)
}

func TestFavoritesConcurrent(t *testing.T) {
	f := schedule.NewFavorites(storage.NewMemoryStorage())

	wg := sync.WaitGroup{}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("%d", i)
			assert.NoError(t, f.Add(model.FavoriteEntry{ID: id, Number: id}))
			f.List()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, len(f.List()))
}

func TestFavoritesConcurrentToggle(t *testing.T) {
	f := schedule.NewFavorites(storage.NewMemoryStorage())
	entry := model.FavoriteEntry{ID: "302", Number: "302"}

	mutex := sync.Mutex{}
	on := 0

	wg := sync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			favorite, err := f.Toggle(entry)
			assert.NoError(t, err)
			if favorite {
				mutex.Lock()
				on++
				mutex.Unlock()
			}
		}()
	}
	wg.Wait()

	// Every toggle flipped the state exactly once.
	assert.Equal(t, 25, on)
	assert.False(t, f.IsFavorite("302"))
	assert.Equal(t, []model.FavoriteEntry{}, f.List())
}

func TestDecodeFavorites(t *testing.T) {
	entries, err := schedule.DecodeFavorites([]byte(`[
		{"id":"3","number":"3","name":"АС-2","nextDeparture":"10:10"},
		{"id":"","number":"x"},
		{"id":"3","number":"3","name":"duplicate"},
		{"id":"17","number":"17","name":"АС-1"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, []model.FavoriteEntry{
		{ID: "3", Number: "3", Name: "АС-2", NextDeparture: "10:10"},
		{ID: "17", Number: "17", Name: "АС-1"},
	}, entries)

	_, err = schedule.DecodeFavorites([]byte("{"))
	assert.ErrorIs(t, err, schedule.ErrSerialization)
}

func TestEncodeFavoritesEmpty(t *testing.T) {
	buf, err := schedule.EncodeFavorites(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(buf))
}

func ids(entries []model.FavoriteEntry) []string {
	out := []string{}
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}
