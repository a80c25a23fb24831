package store

import (
	"context"
	"errors"

	"github.com/telecare/session-server/internal/encounter"
)

// Directory adapts a Store to the encounter lookup and administrator
// collaborator interfaces consumed by the admission gate.
type Directory struct {
	store Store
}

// NewDirectory creates a directory over the given store.
func NewDirectory(st Store) *Directory {
	return &Directory{store: st}
}

// LookupEncounter resolves the encounter's participants and lifecycle stage.
func (d *Directory) LookupEncounter(ctx context.Context, encounterID int64) (*encounter.Encounter, error) {
	enc, err := d.store.GetEncounterByID(ctx, encounterID)
	if errors.Is(err, ErrNotFound) {
		return nil, encounter.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &encounter.Encounter{
		ID:        enc.ID,
		PatientID: enc.PatientID,
		DoctorID:  enc.DoctorID,
		Stage:     enc.Stage,
	}, nil
}

// IsAdministrator reports whether the subject holds the ADMIN role.
func (d *Directory) IsAdministrator(ctx context.Context, subjectID int64) (bool, error) {
	sub, err := d.store.GetSubjectByID(ctx, subjectID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sub.Role == RoleAdmin, nil
}

// Ensure Directory implements the collaborator interfaces.
var (
	_ encounter.Directory    = (*Directory)(nil)
	_ encounter.AdminChecker = (*Directory)(nil)
)
