package encounter

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Directory lookups for unknown encounters.
var ErrNotFound = errors.New("encounter not found")

// Encounter is the session layer's view of an encounter record.
// Persistence and business rules live with the owning subsystem.
type Encounter struct {
	ID        int64
	PatientID int64
	DoctorID  int64
	Stage     Stage
}

// Participant reports whether the subject is one of the encounter's
// two designated participants.
func (e *Encounter) Participant(subjectID int64) bool {
	return e.PatientID == subjectID || e.DoctorID == subjectID
}

// Directory resolves encounters from externally owned business state.
type Directory interface {
	LookupEncounter(ctx context.Context, encounterID int64) (*Encounter, error)
}

// AdminChecker answers whether a subject holds the administrative override role.
type AdminChecker interface {
	IsAdministrator(ctx context.Context, subjectID int64) (bool, error)
}
