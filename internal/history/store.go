// Package history persists match events and 1 Hz player snapshots to SQLite.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charleschow/humanoid-referee/internal/events"
	"github.com/charleschow/humanoid-referee/internal/telemetry"

	_ "modernc.org/sqlite"
)

const (
	maxStoreBytes  int64   = 1 << 30 // 1 GiB
	evictPct       float64 = 0.10    // evict oldest 10% of snapshot rows
	vacuumInterval         = 10      // incremental vacuum every N evictions
)

// Store keeps the match history in a SQLite database capped at ~1 GiB.
// Player snapshots are the bulk of the data; the oldest 10% of them are
// evicted when the budget is exceeded. Match events are never evicted.
type Store struct {
	db           *sql.DB
	mu           sync.Mutex
	cachedSize   int64
	rowCount     int64
	evictCounter int
}

func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	var avMode int
	if err := db.QueryRow(`PRAGMA auto_vacuum`).Scan(&avMode); err != nil {
		db.Close()
		return nil, fmt.Errorf("read auto_vacuum: %w", err)
	}
	if avMode != 2 {
		if _, err := db.Exec(`PRAGMA auto_vacuum = INCREMENTAL`); err != nil {
			db.Close()
			return nil, fmt.Errorf("set auto_vacuum: %w", err)
		}
		if _, err := db.Exec(`VACUUM`); err != nil {
			telemetry.Warnf("history store: VACUUM to enable auto_vacuum failed: %v", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}

	var size int64
	db.QueryRow(`SELECT COALESCE(page_count * page_size, 0) FROM pragma_page_count(), pragma_page_size()`).Scan(&size)
	var rowCount int64
	db.QueryRow(`SELECT COUNT(*) FROM player_snapshots`).Scan(&rowCount)

	telemetry.Plainf("history store: opened %s  size=%d  snapshots=%d", path, size, rowCount)
	return &Store{db: db, cachedSize: size, rowCount: rowCount}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS matches (
	match_id   TEXT PRIMARY KEY,
	game_type  TEXT NOT NULL,
	red_team   TEXT NOT NULL,
	red_id     INTEGER NOT NULL,
	blue_team  TEXT NOT NULL,
	blue_id    INTEGER NOT NULL,
	started_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS match_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	match_id   TEXT    NOT NULL,
	event_id   TEXT    NOT NULL,
	event_type TEXT    NOT NULL,
	time_ms    INTEGER NOT NULL,
	ts         TEXT    NOT NULL,
	payload    TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_match_events_match ON match_events(match_id, id);

CREATE TABLE IF NOT EXISTS player_snapshots (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	match_id             TEXT    NOT NULL,
	time_ms              INTEGER NOT NULL,
	color                TEXT    NOT NULL,
	number               INTEGER NOT NULL,
	x                    REAL    NOT NULL,
	y                    REAL    NOT NULL,
	z                    REAL    NOT NULL,
	asleep               INTEGER NOT NULL,
	fallen               INTEGER NOT NULL,
	penalized            TEXT    NOT NULL DEFAULT '',
	inside_field         INTEGER NOT NULL,
	outside_field        INTEGER NOT NULL,
	on_outer_line        INTEGER NOT NULL,
	outside_circle       INTEGER NOT NULL,
	inside_own_side      INTEGER NOT NULL,
	outside_goal_area    INTEGER NOT NULL,
	outside_penalty_area INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_player_snapshots_player ON player_snapshots(match_id, color, number, time_ms);
`

// Match is the header row written once per referee run.
type Match struct {
	ID        string
	GameType  string
	RedTeam   string
	RedID     int
	BlueTeam  string
	BlueID    int
	StartedAt time.Time
}

func (s *Store) InsertMatch(m Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO matches (match_id, game_type, red_team, red_id, blue_team, blue_id, started_at)
		 VALUES (?,?,?,?,?,?,?)`,
		m.ID, m.GameType, m.RedTeam, m.RedID, m.BlueTeam, m.BlueID,
		m.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// InsertEvent stores a bus event with its payload encoded as JSON.
func (s *Store) InsertEvent(evt events.Event) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", evt.Type, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT INTO match_events (match_id, event_id, event_type, time_ms, ts, payload) VALUES (?,?,?,?,?,?)`,
		evt.MatchID, evt.ID, string(evt.Type), evt.TimeMs,
		evt.Timestamp.UTC().Format(time.RFC3339Nano), string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert %s event: %w", evt.Type, err)
	}
	return nil
}

func (s *Store) InsertSnapshot(matchID string, timeMs int, p events.PlayerSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO player_snapshots (
			match_id, time_ms, color, number, x, y, z, asleep, fallen, penalized,
			inside_field, outside_field, on_outer_line, outside_circle,
			inside_own_side, outside_goal_area, outside_penalty_area
		) VALUES (?,?,?,?,?,?,?,?,?,?, ?,?,?,?, ?,?,?)`,
		matchID, timeMs, p.Color, p.Number, p.Position[0], p.Position[1], p.Position[2],
		p.Asleep, p.Fallen, p.Penalized,
		p.InsideField, p.OutsideField, p.OnOuterLine, p.OutsideCircle,
		p.InsideOwnSide, p.OutsideGoalArea, p.OutsidePenaltyArea,
	)
	if err != nil {
		return fmt.Errorf("insert player snapshot: %w", err)
	}

	s.rowCount++
	s.refreshSize()
	if s.cachedSize > maxStoreBytes {
		s.evict()
	}
	return nil
}

// EventRow is one stored match event; Payload is the raw JSON.
type EventRow struct {
	ID        int64
	EventID   string
	Type      events.EventType
	TimeMs    int
	Timestamp time.Time
	Payload   json.RawMessage
}

// Events returns the events of a match in insertion order, optionally
// restricted to the given types.
func (s *Store) Events(matchID string, types ...events.EventType) ([]EventRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, event_id, event_type, time_ms, ts, payload FROM match_events WHERE match_id = ? ORDER BY id`,
		matchID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	want := make(map[events.EventType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}

	var out []EventRow
	for rows.Next() {
		var (
			r       EventRow
			typ, ts string
			payload string
		)
		if err := rows.Scan(&r.ID, &r.EventID, &typ, &r.TimeMs, &ts, &payload); err != nil {
			return nil, err
		}
		r.Type = events.EventType(typ)
		if len(want) > 0 && !want[r.Type] {
			continue
		}
		r.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		r.Payload = json.RawMessage(payload)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SnapshotRow is one stored 1 Hz player sample.
type SnapshotRow struct {
	TimeMs int
	events.PlayerSnapshot
}

// Snapshots returns the samples of one player ordered by simulated time.
func (s *Store) Snapshots(matchID, color string, number int) ([]SnapshotRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT time_ms, color, number, x, y, z, asleep, fallen, penalized,
			inside_field, outside_field, on_outer_line, outside_circle,
			inside_own_side, outside_goal_area, outside_penalty_area
		 FROM player_snapshots WHERE match_id = ? AND color = ? AND number = ? ORDER BY time_ms`,
		matchID, color, number)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		var r SnapshotRow
		p := &r.PlayerSnapshot
		if err := rows.Scan(&r.TimeMs, &p.Color, &p.Number,
			&p.Position[0], &p.Position[1], &p.Position[2],
			&p.Asleep, &p.Fallen, &p.Penalized,
			&p.InsideField, &p.OutsideField, &p.OnOuterLine, &p.OutsideCircle,
			&p.InsideOwnSide, &p.OutsideGoalArea, &p.OutsidePenaltyArea,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// refreshSize re-reads the database file size from SQLite pragmas.
// Must be called with s.mu held.
func (s *Store) refreshSize() {
	var size int64
	row := s.db.QueryRow(`SELECT COALESCE(page_count * page_size, 0) FROM pragma_page_count(), pragma_page_size()`)
	if err := row.Scan(&size); err == nil {
		s.cachedSize = size
	}
}

// evict deletes the oldest 10% of player snapshots by count.
// Must be called with s.mu held.
func (s *Store) evict() {
	toDelete := int64(float64(s.rowCount) * evictPct)
	if toDelete < 1 {
		toDelete = 1
	}

	res, err := s.db.Exec(
		`DELETE FROM player_snapshots WHERE id IN (
			SELECT id FROM player_snapshots ORDER BY id ASC LIMIT ?
		)`, toDelete,
	)
	if err != nil {
		telemetry.Warnf("history store evict: %v", err)
		return
	}

	deleted, _ := res.RowsAffected()
	s.rowCount -= deleted
	s.evictCounter++

	telemetry.Infof("history store: evicted %d snapshots (target %d)", deleted, toDelete)

	if s.evictCounter%vacuumInterval == 0 {
		s.db.Exec(`PRAGMA incremental_vacuum`)
	}

	s.refreshSize()
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
