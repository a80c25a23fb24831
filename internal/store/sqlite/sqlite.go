package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/telecare/session-server/internal/encounter"
	"github.com/telecare/session-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS subjects (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS encounters (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	patient_id INTEGER NOT NULL REFERENCES subjects(id),
	doctor_id  INTEGER NOT NULL REFERENCES subjects(id),
	stage      TEXT NOT NULL DEFAULT 'WAITING',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSubject inserts a new subject with the given role.
func (s *SQLiteStore) CreateSubject(ctx context.Context, username, passwordHash, role string) (*store.Subject, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO subjects (username, password_hash, role) VALUES (?, ?, ?)`,
		username, passwordHash, role)
	if err != nil {
		return nil, fmt.Errorf("insert subject: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetSubjectByID(ctx, id)
}

// GetSubjectByID returns the subject with the given ID.
func (s *SQLiteStore) GetSubjectByID(ctx context.Context, id int64) (*store.Subject, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at FROM subjects WHERE id = ?`, id)
	return scanSubject(row)
}

// GetSubjectByUsername returns the subject with the given username.
func (s *SQLiteStore) GetSubjectByUsername(ctx context.Context, username string) (*store.Subject, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at FROM subjects WHERE username = ?`, username)
	return scanSubject(row)
}

func scanSubject(row *sql.Row) (*store.Subject, error) {
	var sub store.Subject
	err := row.Scan(&sub.ID, &sub.Username, &sub.PasswordHash, &sub.Role, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan subject: %w", err)
	}
	return &sub, nil
}

// CreateEncounter inserts a new encounter in the WAITING stage.
func (s *SQLiteStore) CreateEncounter(ctx context.Context, patientID, doctorID int64) (*store.Encounter, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO encounters (patient_id, doctor_id, stage) VALUES (?, ?, ?)`,
		patientID, doctorID, string(encounter.StageWaiting))
	if err != nil {
		return nil, fmt.Errorf("insert encounter: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetEncounterByID(ctx, id)
}

// GetEncounterByID returns the encounter with the given ID.
func (s *SQLiteStore) GetEncounterByID(ctx context.Context, id int64) (*store.Encounter, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, patient_id, doctor_id, stage, created_at, updated_at FROM encounters WHERE id = ?`, id)

	var enc store.Encounter
	var stageCode string
	err := row.Scan(&enc.ID, &enc.PatientID, &enc.DoctorID, &stageCode, &enc.CreatedAt, &enc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan encounter: %w", err)
	}

	stage, ok := encounter.FromCode(stageCode)
	if !ok {
		return nil, fmt.Errorf("encounter %d has unknown stage %q", id, stageCode)
	}
	enc.Stage = stage
	return &enc, nil
}

// UpdateEncounterStage applies a lifecycle transition after checking it
// against the stage transition table.
func (s *SQLiteStore) UpdateEncounterStage(ctx context.Context, id int64, target encounter.Stage) error {
	enc, err := s.GetEncounterByID(ctx, id)
	if err != nil {
		return err
	}
	if !enc.Stage.CanTransitionTo(target) {
		return fmt.Errorf("invalid stage transition %s -> %s", enc.Stage, target)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE encounters SET stage = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(target), id)
	if err != nil {
		return fmt.Errorf("update encounter stage: %w", err)
	}
	return nil
}

// Ensure SQLiteStore implements store.Store.
var _ store.Store = (*SQLiteStore)(nil)
