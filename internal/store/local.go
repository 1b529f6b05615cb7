package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/chorusfm/chorus/internal/shared"
)

var localSchema = []string{
	`CREATE TABLE IF NOT EXISTS rows (
		tbl TEXT NOT NULL,
		id TEXT NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (tbl, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rows_tbl ON rows (tbl)`,
}

type localSubscriber struct {
	table  string
	filter Filter
	fn     func(Event)
}

// LocalStore is the sqlite-backed row store used when no sync backend is
// configured and as the test backend. Change notification is in-process:
// every write notifies matching subscribers on the same store instance.
type LocalStore struct {
	db     *sql.DB
	logger *log.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]*localSubscriber
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore opens (creating if needed) the local row store at the
// given sqlite path.
func NewLocalStore(path string, logger *log.Logger) (*LocalStore, error) {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}
	if err := shared.RunMigrations(db, localSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &LocalStore{db: db, logger: logger, subs: make(map[int]*localSubscriber)}, nil
}

// Close closes the underlying database.
func (s *LocalStore) Close() error { return s.db.Close() }

// Upsert inserts or replaces the row identified by row["id"].
func (s *LocalStore) Upsert(ctx context.Context, table string, row Row) error {
	id := RowID(row)
	if id == "" {
		return fmt.Errorf("row id: %w", shared.ErrMissingArgument)
	}

	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}

	query := `INSERT INTO rows (tbl, id, data) VALUES (?, ?, ?)
		ON CONFLICT (tbl, id) DO UPDATE SET data = excluded.data`
	if _, err := s.db.ExecContext(ctx, query, table, id, string(data)); err != nil {
		return fmt.Errorf("failed to upsert row: %w", err)
	}

	s.notify(table, row)
	return nil
}

// Update applies patch to every row matching filter. Patching a missing
// row is not an error; zero rows simply match.
func (s *LocalStore) Update(ctx context.Context, table string, filter Filter, patch Row) error {
	rows, err := s.Select(ctx, table, filter)
	if err != nil {
		return err
	}

	for _, row := range rows {
		for key, val := range patch {
			row[key] = val
		}

		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to encode row: %w", err)
		}

		query := `UPDATE rows SET data = ? WHERE tbl = ? AND id = ?`
		if _, err := s.db.ExecContext(ctx, query, string(data), table, RowID(row)); err != nil {
			return fmt.Errorf("failed to update row: %w", err)
		}

		s.notify(table, row)
	}
	return nil
}

// Select returns all rows matching filter.
func (s *LocalStore) Select(ctx context.Context, table string, filter Filter) ([]Row, error) {
	query := `SELECT data FROM rows WHERE tbl = ?`
	dbRows, err := s.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer dbRows.Close()

	var out []Row
	for dbRows.Next() {
		var data string
		if err := dbRows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var row Row
		if err := json.Unmarshal([]byte(data), &row); err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}
		if matches(row, filter) {
			out = append(out, row)
		}
	}
	if err := dbRows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return out, nil
}

// Subscribe registers an in-process subscriber for matching changes.
func (s *LocalStore) Subscribe(ctx context.Context, table string, filter Filter, fn func(Event)) (Unsubscribe, error) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = &localSubscriber{table: table, filter: filter, fn: fn}
	s.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}

	go func() {
		<-ctx.Done()
		unsub()
	}()
	return unsub, nil
}

func (s *LocalStore) notify(table string, row Row) {
	s.mu.Lock()
	subs := make([]*localSubscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.table == table && matches(row, sub.filter) {
			subs = append(subs, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(Event{Table: table, Row: row})
	}
}
