package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/telecare/session-server/internal/encounter"
	"github.com/telecare/session-server/internal/gate"
	"github.com/telecare/session-server/internal/store"
)

func TestHealthEndpoint(t *testing.T) {
	env := startTestServer(t)

	resp, err := env.ts.Client().Get(env.ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestGetTokenForParticipant(t *testing.T) {
	env := startTestServer(t)
	ctx := context.Background()

	patientToken, patient := env.registerSubject(t, "alice", store.RolePatient)
	_, doctor := env.registerSubject(t, "bob", store.RoleDoctorPrimary)

	enc, err := env.store.CreateEncounter(ctx, patient.ID, doctor.ID)
	if err != nil {
		t.Fatalf("create encounter: %v", err)
	}

	resp := env.doAuthed(t, http.MethodGet, "/api/rtc/token/1", patientToken)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var adm gate.Admission
	if err := json.NewDecoder(resp.Body).Decode(&adm); err != nil {
		t.Fatalf("decode admission: %v", err)
	}
	if adm.Token.RoomID != "room_1" || adm.Token.SubjectID != patient.ID {
		t.Fatalf("unexpected admission: %+v", adm.Token)
	}
	_ = enc
}

func TestGetTokenDenials(t *testing.T) {
	env := startTestServer(t)
	ctx := context.Background()

	patientToken, patient := env.registerSubject(t, "alice", store.RolePatient)
	_, doctor := env.registerSubject(t, "bob", store.RoleDoctorPrimary)
	strangerToken, _ := env.registerSubject(t, "carol", store.RoleDoctorExpert)

	if _, err := env.store.CreateEncounter(ctx, patient.ID, doctor.ID); err != nil {
		t.Fatalf("create encounter: %v", err)
	}

	// Unknown encounter.
	resp := env.doAuthed(t, http.MethodGet, "/api/rtc/token/99", patientToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown encounter: expected 404, got %d", resp.StatusCode)
	}

	// Not a participant.
	resp = env.doAuthed(t, http.MethodGet, "/api/rtc/token/1", strangerToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("stranger: expected 403, got %d", resp.StatusCode)
	}

	// Terminal stage forecloses admission.
	if err := env.store.UpdateEncounterStage(ctx, 1, encounter.StageCanceled); err != nil {
		t.Fatalf("cancel encounter: %v", err)
	}
	resp = env.doAuthed(t, http.MethodGet, "/api/rtc/token/1", patientToken)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("canceled encounter: expected 409, got %d", resp.StatusCode)
	}
	var denial struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&denial); err != nil {
		t.Fatalf("decode denial: %v", err)
	}
	if denial.Code != gate.CodeNotJoinable {
		t.Fatalf("expected not_joinable code, got %q", denial.Code)
	}
}

func TestGetTokenAdminOverride(t *testing.T) {
	env := startTestServer(t)
	ctx := context.Background()

	_, patient := env.registerSubject(t, "alice", store.RolePatient)
	_, doctor := env.registerSubject(t, "bob", store.RoleDoctorPrimary)
	adminToken, _ := env.registerSubject(t, "root", store.RoleAdmin)

	if _, err := env.store.CreateEncounter(ctx, patient.ID, doctor.ID); err != nil {
		t.Fatalf("create encounter: %v", err)
	}

	resp := env.doAuthed(t, http.MethodGet, "/api/rtc/token/1", adminToken)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected admin override, got %d", resp.StatusCode)
	}
}

func TestRequireRoleBlocksPharmacist(t *testing.T) {
	env := startTestServer(t)

	pharmacistToken, _ := env.registerSubject(t, "pharm", store.RolePharmacist)

	resp := env.doAuthed(t, http.MethodGet, "/api/rtc/token/1", pharmacistToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for pharmacist, got %d", resp.StatusCode)
	}
}

func TestGetTokenRequiresCredential(t *testing.T) {
	env := startTestServer(t)

	resp, err := env.ts.Client().Get(env.ts.URL + "/api/rtc/token/1")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credential, got %d", resp.StatusCode)
	}
}

func TestOnlineRequiresAdmin(t *testing.T) {
	env := startTestServer(t)

	patientToken, _ := env.registerSubject(t, "alice", store.RolePatient)
	adminToken, _ := env.registerSubject(t, "root", store.RoleAdmin)

	resp := env.doAuthed(t, http.MethodGet, "/api/rtc/online", patientToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for patient, got %d", resp.StatusCode)
	}

	resp = env.doAuthed(t, http.MethodGet, "/api/rtc/online", adminToken)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", resp.StatusCode)
	}
	var body struct {
		Online int `json:"online"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode online: %v", err)
	}
	if body.Online != 0 {
		t.Fatalf("expected 0 online, got %d", body.Online)
	}
}
