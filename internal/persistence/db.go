// Package persistence provides SQLite-backed storage for trust histories and
// run events. Every run is an episode; trust snapshots from earlier episodes
// seed the agents of the next one.
package persistence

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/cochaviz/collaborative-agent/internal/engine"
	"github.com/cochaviz/collaborative-agent/internal/trust"
)

// DB wraps a SQLite connection. It implements trust.Store.
type DB struct {
	conn    *sqlx.DB
	episode string
}

var _ trust.Store = (*DB)(nil)

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS episodes (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trust_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		episode TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		recorded_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trust_scores (
		snapshot_id INTEGER NOT NULL REFERENCES trust_snapshots(id),
		teammate TEXT NOT NULL,
		score REAL NOT NULL,
		PRIMARY KEY (snapshot_id, teammate)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		episode TEXT NOT NULL,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_agent ON trust_snapshots(agent_id, id);
	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(episode, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// BeginEpisode starts a new episode and returns its ID. Snapshots and events
// written afterwards belong to it.
func (db *DB) BeginEpisode(seed int64) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO episodes (id, seed, started_at) VALUES (?, ?, ?)",
		id, seed, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("begin episode: %w", err)
	}
	db.episode = id
	if err := db.SaveMeta("last_episode", id); err != nil {
		return "", fmt.Errorf("begin episode: %w", err)
	}
	slog.Info("episode started", "episode", id, "seed", seed)
	return id, nil
}

// Episode returns the current episode ID, or "" before BeginEpisode.
func (db *DB) Episode() string {
	return db.episode
}

// Load implements trust.Store. It returns the agent's most recent snapshot
// from any episode.
func (db *DB) Load(agentID string) (map[string]float64, bool, error) {
	var ids []int64
	err := db.conn.Select(&ids,
		"SELECT id FROM trust_snapshots WHERE agent_id = ? ORDER BY id DESC LIMIT 1",
		agentID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("load trust %s: %w", agentID, err)
	}
	if len(ids) == 0 {
		return nil, false, nil
	}

	scores, err := db.scores(ids[0])
	if err != nil {
		return nil, false, fmt.Errorf("load trust %s: %w", agentID, err)
	}
	return scores, true, nil
}

// AppendSnapshot implements trust.Store.
func (db *DB) AppendSnapshot(agentID string, tick uint64, scores map[string]float64) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO trust_snapshots (episode, agent_id, tick, recorded_at) VALUES (?, ?, ?, ?)",
		db.episode, agentID, tick, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot %s@%d: %w", agentID, tick, err)
	}
	snapID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.Preparex("INSERT INTO trust_scores (snapshot_id, teammate, score) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for teammate, score := range scores {
		if _, err := stmt.Exec(snapID, teammate, score); err != nil {
			return fmt.Errorf("insert score %s→%s: %w", agentID, teammate, err)
		}
	}

	return tx.Commit()
}

type scoreRow struct {
	SnapshotID int64   `db:"snapshot_id"`
	Teammate   string  `db:"teammate"`
	Score      float64 `db:"score"`
}

func (db *DB) scores(snapshotID int64) (map[string]float64, error) {
	var rows []scoreRow
	err := db.conn.Select(&rows,
		"SELECT snapshot_id, teammate, score FROM trust_scores WHERE snapshot_id = ?",
		snapshotID,
	)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		out[r.Teammate] = r.Score
	}
	return out, nil
}

// TrustSnapshot is one persisted snapshot with its scores.
type TrustSnapshot struct {
	ID         int64              `db:"id" json:"id"`
	Episode    string             `db:"episode" json:"episode"`
	AgentID    string             `db:"agent_id" json:"agent_id"`
	Tick       uint64             `db:"tick" json:"tick"`
	RecordedAt string             `db:"recorded_at" json:"recorded_at"`
	Scores     map[string]float64 `db:"-" json:"scores"`
}

// Recorded parses RecordedAt.
func (s TrustSnapshot) Recorded() time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s.RecordedAt)
	return t
}

// History returns the most recent snapshots of an agent, oldest first.
// A limit of 0 returns everything.
func (db *DB) History(agentID string, limit int) ([]TrustSnapshot, error) {
	q := "SELECT id, episode, agent_id, tick, recorded_at FROM trust_snapshots WHERE agent_id = ? ORDER BY id DESC"
	args := []any{agentID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	var snaps []TrustSnapshot
	if err := db.conn.Select(&snaps, q, args...); err != nil {
		return nil, fmt.Errorf("trust history %s: %w", agentID, err)
	}
	for i, j := 0, len(snaps)-1; i < j; i, j = i+1, j-1 {
		snaps[i], snaps[j] = snaps[j], snaps[i]
	}

	for i := range snaps {
		scores, err := db.scores(snaps[i].ID)
		if err != nil {
			return nil, fmt.Errorf("trust history %s: %w", agentID, err)
		}
		snaps[i].Scores = scores
	}
	return snaps, nil
}

// Agents returns every agent ID with persisted trust.
func (db *DB) Agents() ([]string, error) {
	var ids []string
	err := db.conn.Select(&ids, "SELECT DISTINCT agent_id FROM trust_snapshots ORDER BY agent_id")
	return ids, err
}

// Episode is one recorded run.
type Episode struct {
	ID        string `db:"id" json:"id"`
	Seed      int64  `db:"seed" json:"seed"`
	StartedAt string `db:"started_at" json:"started_at"`
}

// Episodes returns all episodes, newest first.
func (db *DB) Episodes() ([]Episode, error) {
	var eps []Episode
	err := db.conn.Select(&eps, "SELECT id, seed, started_at FROM episodes ORDER BY started_at DESC, rowid DESC")
	return eps, err
}

// SaveEvents appends events to the current episode.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (episode, tick, description, category) VALUES (?, ?, ?, ?)",
			db.episode, e.Tick, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events of the current episode.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events WHERE episode = ? ORDER BY id DESC LIMIT ?",
		db.episode, limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}

// SaveRun records the end state of a run: pending events and the last tick.
func (db *DB) SaveRun(sim *engine.Simulation) error {
	events := sim.DrainEvents()
	slog.Info("saving run", "episode", db.episode, "events", len(events), "tick", sim.CurrentTick())

	if err := db.SaveEvents(events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta("last_tick", strconv.FormatUint(sim.CurrentTick(), 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return nil
}
