package gate

// Denial codes for classified admission failures.
const (
	CodeEncounterNotFound = "encounter_not_found"
	CodeNotParticipant    = "not_a_participant"
	CodeNotJoinable       = "not_joinable"
)

// Error is a classified admission denial. Denials are returned to the
// caller, never thrown across the dispatch/registry boundary; the caller
// decides whether the client should retry later (stage not yet live) or
// stop (terminal stage, not a participant).
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	// ErrEncounterNotFound means no such encounter exists.
	ErrEncounterNotFound = &Error{Code: CodeEncounterNotFound, Message: "encounter not found"}
	// ErrNotParticipant means the subject is not one of the encounter's
	// designated participants and holds no administrative override.
	ErrNotParticipant = &Error{Code: CodeNotParticipant, Message: "subject is not a participant of this encounter"}
	// ErrNotJoinable means the encounter's lifecycle stage does not admit
	// new entries; terminal stages foreclose admission permanently.
	ErrNotJoinable = &Error{Code: CodeNotJoinable, Message: "encounter stage does not allow joining"}
)
