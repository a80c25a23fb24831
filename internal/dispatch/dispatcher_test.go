package dispatch

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/telecare/session-server/internal/proto"
	"github.com/telecare/session-server/internal/session"
)

func newTestDispatcher() (*Dispatcher, *session.Registry, *session.Rooms) {
	rooms := session.NewRooms()
	reg := session.NewRegistry(rooms)
	logger := zerolog.New(nil)
	return New(reg, rooms, &logger), reg, rooms
}

func drain(t *testing.T, c *session.Client) *proto.Envelope {
	t.Helper()
	select {
	case env := <-c.Events:
		return env
	default:
		t.Fatal("expected a queued envelope")
		return nil
	}
}

func TestSendToSubjectOfflineIsSilentNoop(t *testing.T) {
	d, _, _ := newTestDispatcher()

	if delivered := d.SendToSubject(100, proto.NewEnvelope(proto.KindSystemNotify, nil)); delivered {
		t.Fatal("expected no delivery for offline subject")
	}
}

func TestSendToSubjectDelivers(t *testing.T) {
	d, reg, _ := newTestDispatcher()

	c := session.NewClient(100, "PATIENT")
	reg.Register(c)

	if !d.SendToSubject(100, proto.NewEnvelope(proto.KindSystemNotify, nil)) {
		t.Fatal("expected delivery to online subject")
	}
	env := drain(t, c)
	if env.Type != proto.KindSystemNotify {
		t.Fatalf("unexpected envelope type: %s", env.Type)
	}
	if env.Timestamp.IsZero() {
		t.Fatal("envelope missing timestamp")
	}
}

func TestSendToClosedSubjectIsSkipped(t *testing.T) {
	d, reg, _ := newTestDispatcher()

	c := session.NewClient(100, "PATIENT")
	reg.Register(c)
	c.Close()

	if d.SendToSubject(100, proto.NewEnvelope(proto.KindSystemNotify, nil)) {
		t.Fatal("expected no delivery to closed connection")
	}
}

func TestSendToRoomScope(t *testing.T) {
	d, reg, rooms := newTestDispatcher()

	inside := session.NewClient(1, "PATIENT")
	alsoInside := session.NewClient(2, "DOCTOR_PRIMARY")
	outside := session.NewClient(3, "DOCTOR_EXPERT")
	for _, c := range []*session.Client{inside, alsoInside, outside} {
		reg.Register(c)
	}
	rooms.Join(10, 1)
	rooms.Join(10, 2)
	rooms.Join(11, 3)

	n := d.SendToRoom(10, proto.NewEnvelope(proto.KindChatMessage, nil))
	if n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}

	drain(t, inside)
	drain(t, alsoInside)
	select {
	case env := <-outside.Events:
		t.Fatalf("subject outside the room received %v", env)
	default:
	}
}

func TestSendToRoomSkipsOfflineMembersButDeliversRest(t *testing.T) {
	d, reg, rooms := newTestDispatcher()

	online := session.NewClient(1, "PATIENT")
	reg.Register(online)
	rooms.Join(10, 1)
	rooms.Join(10, 2) // never registered

	if n := d.SendToRoom(10, proto.NewEnvelope(proto.KindChatMessage, nil)); n != 1 {
		t.Fatalf("expected 1 delivery, got %d", n)
	}
	drain(t, online)
}

func TestSlowMemberDoesNotBlockRoomBroadcast(t *testing.T) {
	d, reg, rooms := newTestDispatcher()

	slow := session.NewClient(1, "PATIENT")
	fast := session.NewClient(2, "DOCTOR_PRIMARY")
	reg.Register(slow)
	reg.Register(fast)
	rooms.Join(10, 1)
	rooms.Join(10, 2)

	// Fill the slow client's buffer; subsequent sends to it must drop
	// without delaying the other member.
	for d.SendToSubject(1, proto.NewEnvelope(proto.KindSystemNotify, nil)) {
	}

	if n := d.SendToRoom(10, proto.NewEnvelope(proto.KindChatMessage, nil)); n != 1 {
		t.Fatalf("expected 1 delivery past the stalled member, got %d", n)
	}
}

func TestPushConsultationStatusTargetsBothParticipants(t *testing.T) {
	d, reg, _ := newTestDispatcher()

	patient := session.NewClient(1, "PATIENT")
	doctor := session.NewClient(2, "DOCTOR_PRIMARY")
	reg.Register(patient)
	reg.Register(doctor)

	d.PushConsultationStatus(10, 1, 2, "IN_PROGRESS", "consultation started")

	for _, c := range []*session.Client{patient, doctor} {
		env := drain(t, c)
		if env.Type != proto.KindConsultationStatus {
			t.Fatalf("unexpected envelope type: %s", env.Type)
		}
		data := env.Data.(map[string]any)
		if data["status"] != "IN_PROGRESS" {
			t.Fatalf("unexpected status payload: %v", data)
		}
	}
}

func TestPushChatMessageIsRoomScoped(t *testing.T) {
	d, reg, rooms := newTestDispatcher()

	member := session.NewClient(1, "PATIENT")
	stranger := session.NewClient(2, "DOCTOR_PRIMARY")
	reg.Register(member)
	reg.Register(stranger)
	rooms.Join(10, 1)

	d.PushChatMessage(10, 1, "alice", "hello", "text")

	env := drain(t, member)
	if env.Type != proto.KindChatMessage {
		t.Fatalf("unexpected envelope type: %s", env.Type)
	}
	select {
	case <-stranger.Events:
		t.Fatal("non-member received room-scoped chat message")
	default:
	}
}
