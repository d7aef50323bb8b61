package session

import (
	"math/rand"

	"github.com/google/uuid"
)

const defaultMaxPlayers = 10

// Session is one organized match tied to a chat, from roster formation
// through MVP voting. It is a plain state machine: callers own
// serialization (one event at a time per session) and all side effects.
type Session struct {
	ChatID int64
	UUID   string
	Phase  Phase
	Max    int
	Draft  DraftMethod

	// GameID is the durable game row id, set once the record is saved.
	GameID int64
	// KitB is the shirt color chosen by the Team B captain.
	KitB string

	participants []Participant
	captains     []Participant
	teams        [2][]Participant
	picker       Team
	scoreA       int
	scoreB       int
	scored       bool
	votes        map[int64]int64
	eligible     []Participant
	externalSeq  int
	kitChoice    bool
}

// New creates a WAITING session. maxPlayers must be an even number of
// at least four; anything else falls back to the default of ten.
func New(chatID int64, maxPlayers int, kitChoice bool) *Session {
	if maxPlayers < 4 || maxPlayers%2 != 0 {
		maxPlayers = defaultMaxPlayers
	}
	return &Session{
		ChatID:    chatID,
		UUID:      uuid.NewString(),
		Phase:     PhaseWaiting,
		Max:       maxPlayers,
		votes:     make(map[int64]int64),
		kitChoice: kitChoice,
	}
}

// Participants returns the roster in join order.
func (s *Session) Participants() []Participant {
	return append([]Participant(nil), s.participants...)
}

// Registered returns the roster members with durable identities.
func (s *Session) Registered() []Participant {
	out := make([]Participant, 0, len(s.participants))
	for _, p := range s.participants {
		if !p.External() {
			out = append(out, p)
		}
	}
	return out
}

// Find returns the roster member with the given id.
func (s *Session) Find(id int64) (Participant, bool) {
	for _, p := range s.participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

func (s *Session) IsFull() bool { return len(s.participants) >= s.Max }

// Join adds a registered participant. It reports whether the roster
// just reached capacity, which is the caller's cue to begin captain
// selection.
func (s *Session) Join(p Participant) (full bool, err error) {
	if s.Phase != PhaseWaiting {
		return false, ErrWrongPhase
	}
	if _, ok := s.Find(p.ID); ok {
		return false, ErrAlreadyJoined
	}
	if s.IsFull() {
		return false, ErrRosterFull
	}
	s.participants = append(s.participants, p)
	return s.IsFull(), nil
}

// Leave removes a participant. Only valid while the roster is open.
func (s *Session) Leave(id int64) error {
	if s.Phase != PhaseWaiting {
		return ErrWrongPhase
	}
	for i, p := range s.participants {
		if p.ID == id {
			s.participants = append(s.participants[:i], s.participants[i+1:]...)
			return nil
		}
	}
	return ErrNotJoined
}

// AddExternal adds a roster member without a platform identity. Each
// gets the next session-local negative id.
func (s *Session) AddExternal(name string) (Participant, error) {
	if s.Phase != PhaseWaiting {
		return Participant{}, ErrWrongPhase
	}
	if s.IsFull() {
		return Participant{}, ErrRosterFull
	}
	for _, p := range s.participants {
		if p.DisplayName == name {
			return Participant{}, ErrDuplicateName
		}
	}
	s.externalSeq++
	p := Participant{ID: -int64(s.externalSeq), DisplayName: name}
	s.participants = append(s.participants, p)
	return p, nil
}

// RemoveExternal removes an external participant by display name.
func (s *Session) RemoveExternal(name string) (Participant, error) {
	if s.Phase != PhaseWaiting {
		return Participant{}, ErrWrongPhase
	}
	for i, p := range s.participants {
		if p.External() && p.DisplayName == name {
			s.participants = append(s.participants[:i], s.participants[i+1:]...)
			return p, nil
		}
	}
	return Participant{}, ErrUnknownPlayer
}

// BeginCaptainPhase closes the roster and moves to captain method
// choice. Fails with ErrNotEnoughCaptains when fewer than two
// registered participants are present; the caller should tear the
// session down in that case rather than leave it stuck.
func (s *Session) BeginCaptainPhase() error {
	if s.Phase != PhaseWaiting {
		return ErrWrongPhase
	}
	if len(s.Registered()) < 2 {
		return ErrNotEnoughCaptains
	}
	s.Phase = PhaseCaptainMethod
	return nil
}

// ChooseRandomCaptains samples two distinct registered participants
// uniformly and advances to draft method choice.
func (s *Session) ChooseRandomCaptains(rng *rand.Rand) error {
	if s.Phase != PhaseCaptainMethod {
		return ErrWrongPhase
	}
	pool := s.Registered()
	if len(pool) < 2 {
		return ErrNotEnoughCaptains
	}
	i := rng.Intn(len(pool))
	j := rng.Intn(len(pool) - 1)
	if j >= i {
		j++
	}
	s.captains = []Participant{pool[i], pool[j]}
	s.Phase = PhaseDraftChoice
	return nil
}

// BeginManualCaptains switches to sequential captain picking: Team A
// captain first, then Team B.
func (s *Session) BeginManualCaptains() error {
	if s.Phase != PhaseCaptainMethod {
		return ErrWrongPhase
	}
	s.Phase = PhaseCaptainSelect
	return nil
}

// PickCaptain assigns the next captain slot. Reports done once both
// captains are chosen.
func (s *Session) PickCaptain(id int64) (done bool, err error) {
	if s.Phase != PhaseCaptainSelect {
		return false, ErrWrongPhase
	}
	p, ok := s.Find(id)
	if !ok {
		return false, ErrUnknownPlayer
	}
	if p.External() {
		return false, ErrExternalCaptain
	}
	for _, c := range s.captains {
		if c.ID == id {
			return false, ErrAlreadyAssigned
		}
	}
	s.captains = append(s.captains, p)
	if len(s.captains) == 2 {
		s.Phase = PhaseDraftChoice
		return true, nil
	}
	return false, nil
}

// Captains returns the Team A and Team B captains once both are set.
func (s *Session) Captains() (a, b Participant, ok bool) {
	if len(s.captains) != 2 {
		return Participant{}, Participant{}, false
	}
	return s.captains[0], s.captains[1], true
}

// ChooseDraft fixes the turn-order pattern and opens the draft with
// the Team A captain on the clock.
func (s *Session) ChooseDraft(m DraftMethod) error {
	if s.Phase != PhaseDraftChoice {
		return ErrWrongPhase
	}
	s.Draft = m
	s.Phase = PhaseSelection
	s.picker = TeamA
	return nil
}

// CurrentPicker returns the captain whose turn it is to draft.
func (s *Session) CurrentPicker() (Participant, bool) {
	if s.Phase != PhaseSelection || len(s.captains) != 2 {
		return Participant{}, false
	}
	return s.captains[s.picker], true
}

func (s *Session) perTeam() int { return (s.Max - 2) / 2 }

func (s *Session) totalPicked() int { return len(s.teams[TeamA]) + len(s.teams[TeamB]) }

// pickerForCount derives whose turn a given pick number is. The turn
// is a pure function of picks made so far, so replaying a draft always
// lands on the same order.
func (s *Session) pickerForCount(n int) Team {
	if s.Draft == DraftSnake {
		switch n % 4 {
		case 0, 3:
			return TeamA
		default:
			return TeamB
		}
	}
	return Team(n % 2)
}

// Pick drafts target onto the current picker's team and advances the
// turn. done reports that both teams are complete; the phase then
// moves to COLOR_SELECTION or IN_GAME.
func (s *Session) Pick(pickerID, targetID int64) (done bool, err error) {
	if s.Phase != PhaseSelection {
		return false, ErrWrongPhase
	}
	cur := s.captains[s.picker]
	if cur.ID != pickerID {
		return false, ErrNotYourTurn
	}
	target, ok := s.Find(targetID)
	if !ok {
		return false, ErrUnknownPlayer
	}
	for _, c := range s.captains {
		if c.ID == targetID {
			return false, ErrAlreadyAssigned
		}
	}
	for _, team := range s.teams {
		for _, p := range team {
			if p.ID == targetID {
				return false, ErrAlreadyAssigned
			}
		}
	}
	s.teams[s.picker] = append(s.teams[s.picker], target)

	if len(s.teams[TeamA]) == s.perTeam() && len(s.teams[TeamB]) == s.perTeam() {
		if s.kitChoice {
			s.Phase = PhaseKitSelect
		} else {
			s.Phase = PhaseInGame
		}
		return true, nil
	}
	s.picker = s.pickerForCount(s.totalPicked())
	return false, nil
}

// Pool returns participants not yet drafted and not captains.
func (s *Session) Pool() []Participant {
	var out []Participant
	for _, p := range s.participants {
		if s.assigned(p.ID) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *Session) assigned(id int64) bool {
	for _, c := range s.captains {
		if c.ID == id {
			return true
		}
	}
	for _, team := range s.teams {
		for _, p := range team {
			if p.ID == id {
				return true
			}
		}
	}
	return false
}

// TeamRoster returns a team with its captain first.
func (s *Session) TeamRoster(t Team) []Participant {
	var out []Participant
	if len(s.captains) == 2 {
		out = append(out, s.captains[t])
	}
	return append(out, s.teams[t]...)
}

// ChooseKit records the Team B captain's single shirt color choice and
// starts the game.
func (s *Session) ChooseKit(actorID int64, kit string) error {
	if s.Phase != PhaseKitSelect {
		return ErrWrongPhase
	}
	if len(s.captains) != 2 || s.captains[TeamB].ID != actorID {
		return ErrCaptainRequired
	}
	s.KitB = kit
	s.Phase = PhaseInGame
	return nil
}

// Close ends play and opens score entry.
func (s *Session) Close() error {
	if s.Phase != PhaseInGame {
		return ErrWrongPhase
	}
	s.Phase = PhaseScoring
	return nil
}

// SetScore records the final score. The phase stays at SCORING until
// the caller opens voting, so a failed downstream step can retry.
func (s *Session) SetScore(a, b int) error {
	if s.Phase != PhaseScoring {
		return ErrWrongPhase
	}
	if a < 0 || b < 0 {
		return ErrBadScore
	}
	s.scoreA, s.scoreB = a, b
	s.scored = true
	return nil
}

// Score returns the recorded final score.
func (s *Session) Score() (a, b int, ok bool) {
	return s.scoreA, s.scoreB, s.scored
}

// OpenVoting starts the MVP ballot for the participants that could be
// reached. Eligibility is fixed for the rest of the session.
func (s *Session) OpenVoting(eligible []Participant) error {
	if s.Phase != PhaseScoring || !s.scored {
		return ErrWrongPhase
	}
	s.Phase = PhaseVoting
	s.votes = make(map[int64]int64)
	s.eligible = append([]Participant(nil), eligible...)
	return nil
}

// EligibleVoters returns the fixed ballot membership.
func (s *Session) EligibleVoters() []Participant {
	return append([]Participant(nil), s.eligible...)
}

// HasVoted reports whether the voter already cast a ballot.
func (s *Session) HasVoted(voterID int64) bool {
	_, ok := s.votes[voterID]
	return ok
}

// CastVote records one (voter, target) pair. A duplicate vote is a
// rejected no-op; done reports that every eligible voter has voted.
func (s *Session) CastVote(voterID, targetID int64) (done bool, err error) {
	if s.Phase != PhaseVoting {
		return false, ErrWrongPhase
	}
	eligible := false
	for _, p := range s.eligible {
		if p.ID == voterID {
			eligible = true
			break
		}
	}
	if !eligible {
		return false, ErrNotEligible
	}
	if _, ok := s.votes[voterID]; ok {
		return false, ErrAlreadyVoted
	}
	if _, ok := s.Find(targetID); !ok {
		return false, ErrUnknownPlayer
	}
	s.votes[voterID] = targetID
	return s.VotingComplete(), nil
}

// VotingComplete reports that every eligible voter has cast a ballot.
// With zero eligible voters the ballot is trivially complete.
func (s *Session) VotingComplete() bool {
	return s.Phase == PhaseVoting && len(s.votes) == len(s.eligible)
}

// Tally counts ballots. Every participant tied at the maximum vote
// count is a joint MVP; an empty ballot yields no MVPs.
func (s *Session) Tally() (mvps []Participant, votes int) {
	count := make(map[int64]int)
	for _, target := range s.votes {
		count[target]++
	}
	for _, n := range count {
		if n > votes {
			votes = n
		}
	}
	if votes == 0 {
		return nil, 0
	}
	for _, p := range s.participants {
		if count[p.ID] == votes {
			mvps = append(mvps, p)
		}
	}
	return mvps, votes
}
