// Package journal is the bounded local backstop for completion records.
package journal

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/Tiliavir/trivial-pomodoro/internal/model"
	"github.com/Tiliavir/trivial-pomodoro/internal/storage"
)

const (
	// DefaultKey is the storage key the record list lives under.
	DefaultKey = "completions"
	// DefaultCapacity is the number of most recent records retained.
	DefaultCapacity = 100
)

// Option configures a Journal.
type Option func(*Journal)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(j *Journal) {
		j.key = key
	}
}

// WithCapacity overrides the retention bound.
func WithCapacity(n int) Option {
	return func(j *Journal) {
		if n > 0 {
			j.capacity = n
		}
	}
}

// Journal is an append-only, capacity-bounded list of completion records
// persisted as one JSON array. It is safe for concurrent use.
type Journal struct {
	mu       sync.Mutex
	store    storage.Store
	key      string
	capacity int
	entries  []model.CompletionRecord
}

// Open loads the journal from store. A value that cannot be decoded is
// preserved under <key>.corrupt and the journal starts empty.
func Open(store storage.Store, opts ...Option) (*Journal, error) {
	j := &Journal{
		store:    store,
		key:      DefaultKey,
		capacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(j)
	}

	data, ok, err := store.Get(j.key)
	if err != nil {
		return nil, fmt.Errorf("loading journal: %w", err)
	}
	if !ok {
		entriesGauge.Set(0)
		return j, nil
	}

	var entries []model.CompletionRecord
	if err := json.Unmarshal(data, &entries); err != nil {
		backupKey := j.key + ".corrupt"
		if backupErr := store.Set(backupKey, data); backupErr != nil {
			return nil, fmt.Errorf("corrupt journal %q could not be backed up: %w", j.key, backupErr)
		}
		entries = nil
	}
	j.entries = trim(entries, j.capacity)
	entriesGauge.Set(float64(len(j.entries)))
	return j, nil
}

// trim drops records from the front until at most capacity remain.
func trim(entries []model.CompletionRecord, capacity int) []model.CompletionRecord {
	if len(entries) <= capacity {
		return entries
	}
	return append([]model.CompletionRecord(nil), entries[len(entries)-capacity:]...)
}

// Append adds record at the end, evicting the oldest records beyond capacity,
// and persists the result. On a storage error the in-memory list is left
// unchanged.
func (j *Journal) Append(record model.CompletionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	next := make([]model.CompletionRecord, 0, len(j.entries)+1)
	next = append(next, j.entries...)
	next = append(next, record.Clone())
	evicted := len(next) - j.capacity
	next = trim(next, j.capacity)

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encoding journal: %w", err)
	}
	if err := j.store.Set(j.key, data); err != nil {
		return fmt.Errorf("saving journal: %w", err)
	}

	j.entries = next
	appendsCounter.Inc()
	if evicted > 0 {
		evictionsCounter.Add(float64(evicted))
	}
	entriesGauge.Set(float64(len(j.entries)))
	return nil
}

// List returns a copy of all records, most recent end time first. Records
// with equal end times keep their reverse insertion order.
func (j *Journal) List() []model.CompletionRecord {
	j.mu.Lock()
	out := make([]model.CompletionRecord, 0, len(j.entries))
	for i := len(j.entries) - 1; i >= 0; i-- {
		out = append(out, j.entries[i].Clone())
	}
	j.mu.Unlock()

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].EndTime.After(out[b].EndTime)
	})
	return out
}

// Len returns the number of retained records.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}
