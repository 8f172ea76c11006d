package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding tasks, team members and suggestions.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database in dataDir and applies pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "coverageiq.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Concurrent pipeline runs wait briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// --- Tasks ---

func (s *Store) UpsertTask(t *Task) error {
	_, err := s.db.Exec(`
		INSERT INTO tasks (id, title, priority, status, project_name, assignee_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			priority = excluded.priority,
			status = excluded.status,
			project_name = excluded.project_name,
			assignee_id = excluded.assignee_id`,
		t.ID, t.Title, t.Priority, t.Status, t.ProjectName, t.AssigneeID)
	return err
}

func (s *Store) GetTask(id string) (*Task, error) {
	var t Task
	err := s.db.QueryRow(`
		SELECT id, title, priority, status, project_name, assignee_id
		FROM tasks WHERE id = ?`, id).
		Scan(&t.ID, &t.Title, &t.Priority, &t.Status, &t.ProjectName, &t.AssigneeID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// --- Team members ---

func (s *Store) UpsertMember(m *TeamMember) error {
	skills, err := json.Marshal(m.Skills)
	if err != nil {
		return fmt.Errorf("encoding skills: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO team_members (id, name, role, skills, leave_status, calendar_pct, task_load_hours, manager_notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			skills = excluded.skills,
			leave_status = excluded.leave_status,
			calendar_pct = excluded.calendar_pct,
			task_load_hours = excluded.task_load_hours,
			manager_notes = excluded.manager_notes`,
		m.ID, m.Name, m.Role, string(skills), m.LeaveStatus, m.CalendarPct, m.TaskLoadHours, m.ManagerNotes)
	return err
}

func (s *Store) ListMembers() ([]*TeamMember, error) {
	rows, err := s.db.Query(`
		SELECT id, name, role, skills, leave_status, calendar_pct, task_load_hours, manager_notes
		FROM team_members ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*TeamMember
	for rows.Next() {
		var m TeamMember
		var skills string
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &skills, &m.LeaveStatus, &m.CalendarPct, &m.TaskLoadHours, &m.ManagerNotes); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(skills), &m.Skills); err != nil {
			return nil, fmt.Errorf("decoding skills for %s: %w", m.ID, err)
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

// --- Suggestions ---

// ReplaceSuggestions wipes every suggestion for the task and inserts the new
// set inside a single transaction, so a run is either fully applied or not
// at all. Repeat invocations for the same task never accumulate rows.
func (s *Store) ReplaceSuggestions(taskID string, suggestions []*Suggestion) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM suggestions WHERE task_id = ?", taskID); err != nil {
		tx.Rollback()
		return fmt.Errorf("deleting suggestions for %s: %w", taskID, err)
	}

	for _, sg := range suggestions {
		id := sg.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := tx.Exec(`
			INSERT INTO suggestions (id, task_id, member_id, skill_match_pct, workload_pct, context_reason, rank)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, taskID, sg.MemberID, sg.SkillMatchPct, sg.WorkloadPct, sg.ContextReason, sg.Rank); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting suggestion %s/%s: %w", taskID, sg.MemberID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing suggestions for %s: %w", taskID, err)
	}

	return nil
}

// ListSuggestions returns the task's suggestions ordered by rank.
func (s *Store) ListSuggestions(taskID string) ([]*Suggestion, error) {
	rows, err := s.db.Query(`
		SELECT id, task_id, member_id, skill_match_pct, workload_pct, context_reason, rank
		FROM suggestions WHERE task_id = ? ORDER BY rank ASC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suggestions []*Suggestion
	for rows.Next() {
		var sg Suggestion
		if err := rows.Scan(&sg.ID, &sg.TaskID, &sg.MemberID, &sg.SkillMatchPct, &sg.WorkloadPct, &sg.ContextReason, &sg.Rank); err != nil {
			return nil, err
		}
		suggestions = append(suggestions, &sg)
	}
	return suggestions, rows.Err()
}
