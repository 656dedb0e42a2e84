package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/trivial-pomodoro/internal/model"
	"github.com/Tiliavir/trivial-pomodoro/internal/storage"
)

var base = time.Date(2026, 2, 27, 8, 0, 0, 0, time.UTC)

func record(i int) model.CompletionRecord {
	start := base.Add(time.Duration(i) * 30 * time.Minute)
	return model.CompletionRecord{
		Description: fmt.Sprintf("task %d", i),
		Tags:        []string{},
		StartTime:   start,
		EndTime:     start.Add(25 * time.Minute),
	}
}

func openFile(t *testing.T) (*Journal, storage.Store) {
	t.Helper()
	s, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	j, err := Open(s)
	require.NoError(t, err)
	return j, s
}

func TestAppendEvictsOldestBeyondCapacity(t *testing.T) {
	j, _ := openFile(t)
	before := testutil.ToFloat64(evictionsCounter)

	for i := 0; i < 101; i++ {
		require.NoError(t, j.Append(record(i)))
	}

	require.Equal(t, 100, j.Len())
	list := j.List()
	require.Len(t, list, 100)
	// Most recent first; record 0 was evicted.
	assert.Equal(t, "task 100", list[0].Description)
	assert.Equal(t, "task 1", list[99].Description)
	for i := 1; i < len(list); i++ {
		assert.True(t, list[i-1].EndTime.After(list[i].EndTime))
	}
	assert.Equal(t, before+1, testutil.ToFloat64(evictionsCounter))
}

func TestListSortsByEndTimeNotInsertion(t *testing.T) {
	j, _ := openFile(t)
	require.NoError(t, j.Append(record(5)))
	require.NoError(t, j.Append(record(1)))
	require.NoError(t, j.Append(record(3)))

	var got []string
	for _, r := range j.List() {
		got = append(got, r.Description)
	}
	assert.Equal(t, []string{"task 5", "task 3", "task 1"}, got)
}

func TestListReturnsCopies(t *testing.T) {
	j, _ := openFile(t)
	r := record(0)
	r.Tags = []string{"a"}
	require.NoError(t, j.Append(r))

	r.Tags[0] = "mutated"
	list := j.List()
	list[0].Tags[0] = "also mutated"

	assert.Equal(t, []string{"a"}, j.List()[0].Tags)
}

func TestPersistedFormat(t *testing.T) {
	j, s := openFile(t)
	require.NoError(t, j.Append(model.CompletionRecord{
		Description: "",
		StartTime:   base,
		EndTime:     base.Add(25 * time.Minute),
	}))

	data, ok, err := s.Get(DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"description":"","tags":[],"start_time":"2026-02-27T08:00:00Z","end_time":"2026-02-27T08:25:00Z"}]`, string(data))
}

func TestReopenRestoresEntries(t *testing.T) {
	j, s := openFile(t)
	require.NoError(t, j.Append(record(0)))
	require.NoError(t, j.Append(record(1)))

	again, err := Open(s)
	require.NoError(t, err)
	assert.Equal(t, j.List(), again.List())
}

func TestOpenTrimsOversizedValue(t *testing.T) {
	s, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	var many []model.CompletionRecord
	for i := 0; i < 10; i++ {
		many = append(many, record(i))
	}
	data, err := json.Marshal(many)
	require.NoError(t, err)
	require.NoError(t, s.Set(DefaultKey, data))

	j, err := Open(s, WithCapacity(3))
	require.NoError(t, err)
	require.Equal(t, 3, j.Len())
	assert.Equal(t, "task 9", j.List()[0].Description)
	assert.Equal(t, "task 7", j.List()[2].Description)
}

func TestOpenCorruptValueIsBackedUp(t *testing.T) {
	s, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Set(DefaultKey, []byte("{bad json")))

	j, err := Open(s)
	require.NoError(t, err)
	assert.Equal(t, 0, j.Len())

	backup, ok, err := s.Get(DefaultKey + ".corrupt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "{bad json", string(backup))
}

type failingStore struct {
	storage.Store
	fail bool
}

func (f *failingStore) Set(key string, value []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Store.Set(key, value)
}

func TestAppendStorageErrorKeepsState(t *testing.T) {
	inner, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	fs := &failingStore{Store: inner}
	j, err := Open(fs)
	require.NoError(t, err)

	require.NoError(t, j.Append(record(0)))
	fs.fail = true
	require.Error(t, j.Append(record(1)))
	assert.Equal(t, 1, j.Len())
}

func TestConcurrentAppend(t *testing.T) {
	s, err := storage.OpenSQLite(t.TempDir())
	require.NoError(t, err)
	defer s.Close()
	j, err := Open(s)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, j.Append(record(i)))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, j.Len())
	again, err := Open(s)
	require.NoError(t, err)
	assert.Equal(t, 20, again.Len())
}
