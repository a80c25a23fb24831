package store

import (
	"context"
	"errors"
	"time"

	"github.com/telecare/session-server/internal/encounter"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Subject is an authenticated principal: a patient, a doctor, a pharmacist
// or an administrator.
type Subject struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Roles known to the session layer.
const (
	RolePatient       = "PATIENT"
	RoleDoctorPrimary = "DOCTOR_PRIMARY"
	RoleDoctorExpert  = "DOCTOR_EXPERT"
	RolePharmacist    = "PHARMACIST"
	RoleAdmin         = "ADMIN"
)

// Encounter is the persisted encounter record backing the Directory
// collaborator. The wider business rules around encounters live elsewhere;
// the session layer only reads participants and lifecycle stage.
type Encounter struct {
	ID        int64
	PatientID int64
	DoctorID  int64
	Stage     encounter.Stage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SubjectStore provides subject persistence.
type SubjectStore interface {
	CreateSubject(ctx context.Context, username, passwordHash, role string) (*Subject, error)
	GetSubjectByID(ctx context.Context, id int64) (*Subject, error)
	GetSubjectByUsername(ctx context.Context, username string) (*Subject, error)
}

// EncounterStore provides encounter persistence.
type EncounterStore interface {
	CreateEncounter(ctx context.Context, patientID, doctorID int64) (*Encounter, error)
	GetEncounterByID(ctx context.Context, id int64) (*Encounter, error)
	// UpdateEncounterStage applies a lifecycle transition. Transitions not
	// present in the stage table are rejected.
	UpdateEncounterStage(ctx context.Context, id int64, target encounter.Stage) error
}

// Store is the full persistence interface.
type Store interface {
	SubjectStore
	EncounterStore
	Close() error
}
