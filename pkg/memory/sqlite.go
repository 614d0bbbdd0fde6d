package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/storycraft/storycraft/pkg/models"
)

// SQLiteStore backs the memory store with a local SQLite file. Runs and
// payloads are stored as JSON documents; schema churn stays in the data
// column.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		namespace TEXT NOT NULL,
		agent TEXT NOT NULL,
		payload TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (namespace, agent)
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		degraded INTEGER NOT NULL DEFAULT 0,
		data TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(state);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Put(namespace, agent string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	_, err := s.db.Exec(`
		INSERT INTO memories (namespace, agent, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, agent) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, namespace, agent, string(payload), now)
	if err != nil {
		return fmt.Errorf("upsert memory: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(namespace, agent string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	var updatedAt time.Time
	err := s.db.QueryRow(
		"SELECT payload, updated_at FROM memories WHERE namespace = ? AND agent = ?",
		namespace, agent,
	).Scan(&payload, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query memory: %w", err)
	}
	return &Record{
		Namespace: namespace,
		Agent:     agent,
		Payload:   json.RawMessage(payload),
		UpdatedAt: updatedAt,
	}, nil
}

func (s *SQLiteStore) SaveRun(run *models.PipelineRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	degraded := 0
	if run.Degraded {
		degraded = 1
	}
	now := time.Now().UTC()
	_, err = s.db.Exec(`
		INSERT INTO runs (id, state, degraded, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			degraded = excluded.degraded,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, run.ID, string(run.State), degraded, string(data), run.CreatedAt.UTC(), now)
	if err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRun(id string) (*models.PipelineRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRow("SELECT data FROM runs WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	var run models.PipelineRun
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, fmt.Errorf("unmarshal run: %w", err)
	}
	return &run, nil
}

func (s *SQLiteStore) ListRuns(limit int) ([]*models.PipelineRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT data FROM runs ORDER BY created_at DESC"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var results []*models.PipelineRun
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var run models.PipelineRun
		if err := json.Unmarshal([]byte(data), &run); err != nil {
			return nil, err
		}
		results = append(results, &run)
	}
	return results, rows.Err()
}
