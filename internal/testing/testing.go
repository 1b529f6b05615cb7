// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/chorusfm/chorus/internal/models"
	"github.com/chorusfm/chorus/internal/store"
)

// MemStore is an in-memory test double for [store.Store]. Rows are keyed
// by table and id, and subscribers are notified synchronously.
type MemStore struct {
	mu     sync.Mutex
	tables map[string]map[string]store.Row
	subs   []memSub

	// UpsertErr, UpdateErr, and SelectErr force the next matching call
	// to fail when set.
	UpsertErr error
	UpdateErr error
	SelectErr error
}

type memSub struct {
	table   string
	filter  store.Filter
	handler func(store.Event)
}

func NewMemStore() *MemStore {
	return &MemStore{tables: map[string]map[string]store.Row{}}
}

func (m *MemStore) Upsert(ctx context.Context, table string, row store.Row) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.mu.Lock()
	id, _ := row["id"].(string)
	if m.tables[table] == nil {
		m.tables[table] = map[string]store.Row{}
	}
	stored := cloneRow(row)
	m.tables[table][id] = stored
	m.mu.Unlock()
	m.notify(table, stored)
	return nil
}

func (m *MemStore) Update(ctx context.Context, table string, filter store.Filter, patch store.Row) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	var changed []store.Row
	for _, row := range m.tables[table] {
		if !rowMatches(row, filter) {
			continue
		}
		for k, v := range patch {
			row[k] = v
		}
		changed = append(changed, cloneRow(row))
	}
	m.mu.Unlock()
	for _, row := range changed {
		m.notify(table, row)
	}
	return nil
}

func (m *MemStore) Select(ctx context.Context, table string, filter store.Filter) ([]store.Row, error) {
	if m.SelectErr != nil {
		return nil, m.SelectErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Row
	for _, row := range m.tables[table] {
		if rowMatches(row, filter) {
			out = append(out, cloneRow(row))
		}
	}
	return out, nil
}

func (m *MemStore) Subscribe(ctx context.Context, table string, filter store.Filter, handler func(store.Event)) (store.Unsubscribe, error) {
	m.mu.Lock()
	m.subs = append(m.subs, memSub{table: table, filter: filter, handler: handler})
	idx := len(m.subs) - 1
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if idx < len(m.subs) {
			m.subs[idx].handler = nil
		}
	}, nil
}

// Get returns the stored row for a table and id, if present.
func (m *MemStore) Get(table, id string) (store.Row, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.tables[table][id]
	if !ok {
		return nil, false
	}
	return cloneRow(row), true
}

func (m *MemStore) notify(table string, row store.Row) {
	m.mu.Lock()
	subs := make([]memSub, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()
	for _, s := range subs {
		if s.handler == nil || s.table != table || !rowMatches(row, s.filter) {
			continue
		}
		s.handler(store.Event{Table: table, Row: cloneRow(row)})
	}
}

func cloneRow(row store.Row) store.Row {
	out := store.Row{}
	for k, v := range row {
		out[k] = v
	}
	return out
}

func rowMatches(row store.Row, filter store.Filter) bool {
	for k, want := range filter {
		got, ok := row[k]
		if !ok {
			return false
		}
		if got != want {
			return false
		}
	}
	return true
}

// MockResolver is a test double for the playback resolver. Calls counts
// invocations; Err fails every call when set.
type MockResolver struct {
	mu         sync.Mutex
	Calls      int
	Err        error
	Descriptor models.StreamDescriptor
}

func (m *MockResolver) Resolve(ctx context.Context, catalogID string, quality models.Quality) (*models.StreamDescriptor, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	desc := m.Descriptor
	if desc.AudioURL == "" {
		desc = models.StreamDescriptor{AudioURL: "https://cdn.example/" + catalogID, Provenance: "tier1"}
	}
	return &desc, nil
}

// CallCount reports resolver invocations under the mutex.
func (m *MockResolver) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
