// Package memory persists conversation history, tiered memories, learned
// knowledge, and tool execution records in sqlite.
package memory

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tsaristov/boop-final-prototype/internal/logging"
)

// Memory tiers, most to least granular.
const (
	TierShort = "short"
	TierMid   = "mid"
	TierLong  = "long"
)

type Message struct {
	ID        int64
	UserID    string
	Role      string
	Content   string
	CreatedAt time.Time
}

type Memory struct {
	ID        int64
	UserID    string
	Tier      string
	Content   string
	CreatedAt time.Time
}

type Execution struct {
	ID          int64
	Tool        string
	Function    string
	Instruction string
	Result      string
	OK          bool
	CreatedAt   time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS memories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	tier TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS knowledge (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	fact TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS tool_executions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tool TEXT NOT NULL,
	function TEXT NOT NULL,
	instruction TEXT NOT NULL,
	result TEXT NOT NULL,
	ok INTEGER NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id);
CREATE INDEX IF NOT EXISTS idx_memories_user_tier ON memories(user_id, tier);
`

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the memory database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create memory schema: %w", err)
	}
	logging.Memory("opened database at %s", path)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// AddMessage appends one conversation message for a user.
func (s *Store) AddMessage(userID, role, content string) error {
	_, err := s.db.Exec(
		"INSERT INTO messages (user_id, role, content) VALUES (?, ?, ?)",
		userID, role, content)
	return err
}

// RecentMessages returns up to limit messages for a user, oldest first.
func (s *Store) RecentMessages(userID string, limit int) ([]Message, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, role, content, created_at FROM (
			SELECT * FROM messages WHERE user_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MessageCount returns the number of stored messages for a user.
func (s *Store) MessageCount(userID string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM messages WHERE user_id = ?", userID).Scan(&n)
	return n, err
}

// DeleteMessages removes every stored message for a user, after they have
// been condensed into a memory.
func (s *Store) DeleteMessages(userID string) error {
	_, err := s.db.Exec("DELETE FROM messages WHERE user_id = ?", userID)
	return err
}

// Users returns every user id with stored messages or memories.
func (s *Store) Users() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT user_id FROM messages
		UNION
		SELECT user_id FROM memories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// AddMemory stores one condensed memory at a tier.
func (s *Store) AddMemory(userID, tier, content string) error {
	_, err := s.db.Exec(
		"INSERT INTO memories (user_id, tier, content) VALUES (?, ?, ?)",
		userID, tier, content)
	return err
}

// MemoriesByTier returns a user's memories at one tier, oldest first.
func (s *Store) MemoriesByTier(userID, tier string) ([]Memory, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, tier, content, created_at FROM memories WHERE user_id = ? AND tier = ? ORDER BY id ASC",
		userID, tier)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Memory
	for rows.Next() {
		var m Memory
		if err := rows.Scan(&m.ID, &m.UserID, &m.Tier, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteMemories removes memories by id after condensation into a higher
// tier.
func (s *Store) DeleteMemories(ids []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := tx.Exec("DELETE FROM memories WHERE id = ?", id); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// AddKnowledge stores one learned fact about a user.
func (s *Store) AddKnowledge(userID, fact string) error {
	_, err := s.db.Exec("INSERT INTO knowledge (user_id, fact) VALUES (?, ?)", userID, fact)
	return err
}

// Knowledge returns every stored fact for a user.
func (s *Store) Knowledge(userID string) ([]string, error) {
	rows, err := s.db.Query("SELECT fact FROM knowledge WHERE user_id = ? ORDER BY id ASC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var fact string
		if err := rows.Scan(&fact); err != nil {
			return nil, err
		}
		out = append(out, fact)
	}
	return out, rows.Err()
}

// RecordExecution satisfies the runner's execution recorder.
func (s *Store) RecordExecution(toolName, function, instruction, result string, ok bool) {
	_, err := s.db.Exec(
		"INSERT INTO tool_executions (tool, function, instruction, result, ok) VALUES (?, ?, ?, ?, ?)",
		toolName, function, instruction, result, ok)
	if err != nil {
		logging.Memory("failed to record execution of %s.%s: %v", toolName, function, err)
	}
}

// RecentExecutions returns up to limit execution records, newest first.
func (s *Store) RecentExecutions(limit int) ([]Execution, error) {
	rows, err := s.db.Query(
		"SELECT id, tool, function, instruction, result, ok, created_at FROM tool_executions ORDER BY id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Execution
	for rows.Next() {
		var e Execution
		if err := rows.Scan(&e.ID, &e.Tool, &e.Function, &e.Instruction, &e.Result, &e.OK, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
