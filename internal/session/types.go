package session

import "errors"

// Phase is the lifecycle state of a match session.
type Phase string

const (
	PhaseWaiting       Phase = "WAITING"
	PhaseCaptainMethod Phase = "CAPTAIN_METHOD_CHOICE"
	PhaseCaptainSelect Phase = "CAPTAIN_SELECTION"
	PhaseDraftChoice   Phase = "DRAFT_CHOICE"
	PhaseSelection     Phase = "SELECTION"
	PhaseKitSelect     Phase = "COLOR_SELECTION"
	PhaseInGame        Phase = "IN_GAME"
	PhaseScoring       Phase = "SCORING"
	PhaseVoting        Phase = "VOTING"
)

// Team identifies one of the two drafted sides.
type Team int

const (
	TeamA Team = iota
	TeamB
)

func (t Team) String() string {
	if t == TeamA {
		return "A"
	}
	return "B"
}

// DraftMethod is the captain turn-order pattern during SELECTION.
type DraftMethod string

const (
	// DraftAlternating is the strict A,B,A,B,... order.
	DraftAlternating DraftMethod = "abab"
	// DraftSnake repeats A,B,B,A per four picks.
	DraftSnake DraftMethod = "abba"
)

// ParseDraftMethod maps user input to a draft method.
func ParseDraftMethod(s string) (DraftMethod, bool) {
	switch s {
	case "abab", "alternating":
		return DraftAlternating, true
	case "abba", "snake":
		return DraftSnake, true
	}
	return "", false
}

// Participant is a roster member for the duration of one session.
// Registered users carry their positive platform id; externals and
// test stubs carry session-local negative ids and are never persisted.
type Participant struct {
	ID          int64
	DisplayName string
}

// External reports whether the participant has no durable identity.
func (p Participant) External() bool { return p.ID < 0 }

var (
	ErrWrongPhase        = errors.New("operation not allowed in current phase")
	ErrRosterFull        = errors.New("roster is full")
	ErrAlreadyJoined     = errors.New("participant already joined")
	ErrNotJoined         = errors.New("participant has not joined")
	ErrDuplicateName     = errors.New("display name already taken")
	ErrUnknownPlayer     = errors.New("participant not in session")
	ErrNotEnoughCaptains = errors.New("not enough registered participants for captains")
	ErrNotYourTurn       = errors.New("not this captain's turn to pick")
	ErrAlreadyAssigned   = errors.New("participant already drafted")
	ErrCaptainRequired   = errors.New("only a captain may do this")
	ErrExternalCaptain   = errors.New("external participants cannot be captains")
	ErrBadScore          = errors.New("score must be two non-negative integers")
	ErrAlreadyVoted      = errors.New("voter already cast a ballot")
	ErrNotEligible       = errors.New("voter is not eligible in this ballot")
)
