package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/telecare/session-server/internal/encounter"
	"github.com/telecare/session-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSubjectRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateSubject(ctx, "alice", "hash", store.RolePatient)
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}

	byID, err := s.GetSubjectByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Username != "alice" || byID.Role != store.RolePatient {
		t.Fatalf("unexpected subject: %+v", byID)
	}

	byName, err := s.GetSubjectByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.ID != created.ID {
		t.Fatalf("expected id %d, got %d", created.ID, byName.ID)
	}
}

func TestDuplicateUsernameRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateSubject(ctx, "alice", "hash", store.RolePatient); err != nil {
		t.Fatalf("create subject: %v", err)
	}
	if _, err := s.CreateSubject(ctx, "alice", "hash2", store.RoleDoctorPrimary); err == nil {
		t.Fatal("expected unique constraint error")
	}
}

func TestGetSubjectNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetSubjectByID(context.Background(), 999)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEncounterLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	patient, err := s.CreateSubject(ctx, "alice", "hash", store.RolePatient)
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	doctor, err := s.CreateSubject(ctx, "bob", "hash", store.RoleDoctorPrimary)
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}

	enc, err := s.CreateEncounter(ctx, patient.ID, doctor.ID)
	if err != nil {
		t.Fatalf("create encounter: %v", err)
	}
	if enc.Stage != encounter.StageWaiting {
		t.Fatalf("expected WAITING, got %s", enc.Stage)
	}

	if err := s.UpdateEncounterStage(ctx, enc.ID, encounter.StageInProgress); err != nil {
		t.Fatalf("transition to IN_PROGRESS: %v", err)
	}
	if err := s.UpdateEncounterStage(ctx, enc.ID, encounter.StageFinished); err != nil {
		t.Fatalf("transition to FINISHED: %v", err)
	}

	// FINISHED is terminal.
	if err := s.UpdateEncounterStage(ctx, enc.ID, encounter.StageInProgress); err == nil {
		t.Fatal("expected terminal stage to reject transition")
	}

	got, err := s.GetEncounterByID(ctx, enc.ID)
	if err != nil {
		t.Fatalf("get encounter: %v", err)
	}
	if got.Stage != encounter.StageFinished {
		t.Fatalf("expected FINISHED, got %s", got.Stage)
	}
}

func TestInvalidTransitionRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	patient, _ := s.CreateSubject(ctx, "alice", "hash", store.RolePatient)
	doctor, _ := s.CreateSubject(ctx, "bob", "hash", store.RoleDoctorPrimary)
	enc, err := s.CreateEncounter(ctx, patient.ID, doctor.ID)
	if err != nil {
		t.Fatalf("create encounter: %v", err)
	}

	// WAITING cannot jump straight to FINISHED.
	if err := s.UpdateEncounterStage(ctx, enc.ID, encounter.StageFinished); err == nil {
		t.Fatal("expected WAITING -> FINISHED to be rejected")
	}
}
