package dispatch

import (
	"github.com/rs/zerolog"

	"github.com/telecare/session-server/internal/proto"
	"github.com/telecare/session-server/internal/session"
)

// Dispatcher routes typed event envelopes to subjects or room members.
// Delivery is best-effort and at-most-once: an offline target is a silent
// no-op, never an error, and nothing is queued or retried.
type Dispatcher struct {
	reg   *session.Registry
	rooms *session.Rooms
	log   *zerolog.Logger
}

// New creates a dispatcher over the given registry and room index.
func New(reg *session.Registry, rooms *session.Rooms, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{reg: reg, rooms: rooms, log: logger}
}

// SendToSubject pushes the envelope to the subject's live connection.
// Returns true only if the envelope was queued for delivery.
func (d *Dispatcher) SendToSubject(subjectID int64, env *proto.Envelope) bool {
	c, ok := d.reg.Get(subjectID)
	if !ok || !c.Open() {
		d.log.Debug().Int64("subject_id", subjectID).Str("type", string(env.Type)).Msg("delivery skipped: subject offline")
		return false
	}
	if !c.Send(env) {
		d.log.Warn().Int64("subject_id", subjectID).Str("type", string(env.Type)).Msg("delivery dropped: client buffer full")
		return false
	}
	return true
}

// SendToRoom pushes the envelope to every current member of the room and
// returns the number of deliveries. A failed send to one member never
// prevents attempts to the others.
func (d *Dispatcher) SendToRoom(roomID int64, env *proto.Envelope) int {
	delivered := 0
	for _, subjectID := range d.rooms.MembersOf(roomID) {
		if d.SendToSubject(subjectID, env) {
			delivered++
		}
	}
	return delivered
}

// PushConsultationStatus notifies both encounter participants of a
// lifecycle stage change.
func (d *Dispatcher) PushConsultationStatus(consultationID, patientID, doctorID int64, status, message string) {
	env := proto.NewEnvelope(proto.KindConsultationStatus, map[string]any{
		"consultationId": consultationID,
		"status":         status,
		"message":        message,
	})
	d.SendToSubject(patientID, env)
	d.SendToSubject(doctorID, env)
}

// PushConsultationInvite notifies a doctor of a new consultation request.
func (d *Dispatcher) PushConsultationInvite(doctorID, consultationID int64, patientName string) {
	d.SendToSubject(doctorID, proto.NewEnvelope(proto.KindConsultationInvite, map[string]any{
		"consultationId": consultationID,
		"patientName":    patientName,
	}))
}

// PushPrescriptionSubmitted notifies a pharmacist of a prescription
// awaiting review.
func (d *Dispatcher) PushPrescriptionSubmitted(pharmacistID, prescriptionID int64, prescriptionNo string) {
	d.SendToSubject(pharmacistID, proto.NewEnvelope(proto.KindPrescriptionSubmitted, map[string]any{
		"prescriptionId": prescriptionID,
		"prescriptionNo": prescriptionNo,
	}))
}

// PushPrescriptionReviewed notifies the prescribing doctor and the patient
// of a review outcome.
func (d *Dispatcher) PushPrescriptionReviewed(doctorID, patientID, prescriptionID int64, status, message string) {
	env := proto.NewEnvelope(proto.KindPrescriptionReviewed, map[string]any{
		"prescriptionId": prescriptionID,
		"status":         status,
		"message":        message,
	})
	d.SendToSubject(doctorID, env)
	d.SendToSubject(patientID, env)
}

// PushReferralInvite notifies the receiving doctor of a referral request.
func (d *Dispatcher) PushReferralInvite(toDoctorID, referralID int64, patientName, fromDoctorName, reason string) {
	d.SendToSubject(toDoctorID, proto.NewEnvelope(proto.KindReferralInvite, map[string]any{
		"referralId":     referralID,
		"patientName":    patientName,
		"fromDoctorName": fromDoctorName,
		"reason":         reason,
	}))
}

// PushMDTInvite notifies a doctor of a multi-disciplinary team invitation.
func (d *Dispatcher) PushMDTInvite(doctorID, mdtCaseID int64, patientName, initiatorName, topic string) {
	d.SendToSubject(doctorID, proto.NewEnvelope(proto.KindMDTInvite, map[string]any{
		"mdtCaseId":     mdtCaseID,
		"patientName":   patientName,
		"initiatorName": initiatorName,
		"topic":         topic,
	}))
}

// PushFollowupReminder reminds a patient of a pending followup task.
func (d *Dispatcher) PushFollowupReminder(patientID, followupPlanID int64, doctorName, content string) {
	d.SendToSubject(patientID, proto.NewEnvelope(proto.KindFollowupReminder, map[string]any{
		"followupPlanId": followupPlanID,
		"doctorName":     doctorName,
		"content":        content,
	}))
}

// PushFollowupSubmitted notifies a doctor that a followup record came in.
func (d *Dispatcher) PushFollowupSubmitted(doctorID, followupRecordID int64, patientName string) {
	d.SendToSubject(doctorID, proto.NewEnvelope(proto.KindFollowupSubmitted, map[string]any{
		"followupRecordId": followupRecordID,
		"patientName":      patientName,
	}))
}

// PushChatMessage delivers a chat message to everyone currently in the
// consultation's room.
func (d *Dispatcher) PushChatMessage(consultationID, senderID int64, senderName, content, contentType string) {
	d.SendToRoom(consultationID, proto.NewEnvelope(proto.KindChatMessage, map[string]any{
		"consultationId": consultationID,
		"senderId":       senderID,
		"senderName":     senderName,
		"content":        content,
		"contentType":    contentType,
	}))
}

// PushSystemNotify sends a free-form system notification to one subject.
func (d *Dispatcher) PushSystemNotify(subjectID int64, message string) {
	d.SendToSubject(subjectID, proto.NewEnvelope(proto.KindSystemNotify, map[string]any{
		"message": message,
	}))
}
