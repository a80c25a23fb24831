package encounter

// Stage is the lifecycle position of an encounter.
type Stage string

const (
	// StageWaiting means the encounter is created but not yet started.
	StageWaiting Stage = "WAITING"
	// StageInProgress means the encounter is actively running.
	StageInProgress Stage = "IN_PROGRESS"
	// StageFinished is a terminal stage: the encounter completed normally.
	StageFinished Stage = "FINISHED"
	// StageCanceled is a terminal stage: the encounter was aborted.
	StageCanceled Stage = "CANCELED"
)

// transitions is the closed table of allowed stage changes.
// Terminal stages have no successors.
var transitions = map[Stage][]Stage{
	StageWaiting:    {StageInProgress, StageCanceled},
	StageInProgress: {StageFinished, StageCanceled},
	StageFinished:   {},
	StageCanceled:   {},
}

// FromCode parses a stored stage code. Returns false for unknown codes.
func FromCode(code string) (Stage, bool) {
	s := Stage(code)
	_, ok := transitions[s]
	return s, ok
}

// AllowedNext returns the stages this stage may transition to.
func (s Stage) AllowedNext() []Stage {
	return transitions[s]
}

// CanTransitionTo reports whether the transition s -> target is allowed.
func (s Stage) CanTransitionTo(target Stage) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the stage permits no further transitions.
func (s Stage) IsTerminal() bool {
	return s == StageFinished || s == StageCanceled
}

// Joinable reports whether new admissions to the encounter's room are allowed.
// Only the two live stages admit; terminal stages foreclose admission permanently.
func (s Stage) Joinable() bool {
	return s == StageWaiting || s == StageInProgress
}
