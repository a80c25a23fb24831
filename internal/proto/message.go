package proto

import "time"

// Kind enumerates the envelope types pushed to clients.
type Kind string

const (
	// System messages.
	KindPing Kind = "PING"
	KindPong Kind = "PONG"

	// Consultation messages.
	KindConsultationStatus Kind = "CONSULTATION_STATUS"
	KindConsultationInvite Kind = "CONSULTATION_INVITE"

	// Prescription messages.
	KindPrescriptionSubmitted Kind = "PRESCRIPTION_SUBMITTED"
	KindPrescriptionReviewed  Kind = "PRESCRIPTION_REVIEWED"

	// Referral and MDT messages.
	KindReferralInvite Kind = "REFERRAL_INVITE"
	KindMDTInvite      Kind = "MDT_INVITE"

	// Followup messages.
	KindFollowupReminder  Kind = "FOLLOWUP_REMINDER"
	KindFollowupSubmitted Kind = "FOLLOWUP_SUBMITTED"

	// Chat.
	KindChatMessage Kind = "CHAT_MESSAGE"

	// System notification.
	KindSystemNotify Kind = "SYSTEM_NOTIFY"
)

// Envelope is the outbound wire format for all pushed notifications.
type Envelope struct {
	Type      Kind      `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEnvelope builds an envelope of the given kind stamped with the current time.
func NewEnvelope(kind Kind, data any) *Envelope {
	return &Envelope{
		Type:      kind,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Inbound message types accepted from clients.
const (
	InboundTypePing              = "PING"
	InboundTypeJoinConsultation  = "JOIN_CONSULTATION"
	InboundTypeLeaveConsultation = "LEAVE_CONSULTATION"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type           string `json:"type"`
	ConsultationID int64  `json:"consultationId,omitempty"`
}
