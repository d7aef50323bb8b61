package session

import (
	"errors"
	"math/rand"
	"testing"
)

func reg(id int64, name string) Participant {
	return Participant{ID: id, DisplayName: name}
}

func fillWaiting(t *testing.T, s *Session, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := s.Join(reg(int64(i+1), names[i])); err != nil {
			t.Fatalf("join %d: %v", i+1, err)
		}
	}
}

var names = []string{
	"Ana", "Bruno", "Carla", "Diego", "Elena", "Fabio", "Gui",
	"Helena", "Igor", "Julia", "Kaua", "Livia", "Marcos", "Nina",
}

func TestNewFallsBackOnBadCapacity(t *testing.T) {
	for _, max := range []int{0, 3, 7, -2} {
		s := New(1, max, false)
		if s.Max != 10 {
			t.Fatalf("max=%d: got %d, want fallback 10", max, s.Max)
		}
	}
	if s := New(1, 14, false); s.Max != 14 {
		t.Fatalf("valid capacity overridden: %d", s.Max)
	}
}

func TestJoinUntilFull(t *testing.T) {
	s := New(1, 4, false)
	for i := 0; i < 3; i++ {
		full, err := s.Join(reg(int64(i+1), names[i]))
		if err != nil {
			t.Fatalf("join: %v", err)
		}
		if full {
			t.Fatalf("full reported at %d/4", i+1)
		}
	}
	full, err := s.Join(reg(4, names[3]))
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !full {
		t.Fatal("full not reported at capacity")
	}
	if _, err := s.Join(reg(5, names[4])); !errors.Is(err, ErrRosterFull) {
		t.Fatalf("join past capacity: %v", err)
	}
}

func TestJoinDuplicateRejected(t *testing.T) {
	s := New(1, 4, false)
	if _, err := s.Join(reg(1, "Ana")); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := s.Join(reg(1, "Ana")); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("duplicate join: %v", err)
	}
}

func TestLeaveOnlyWhileWaiting(t *testing.T) {
	s := New(1, 4, false)
	fillWaiting(t, s, 2)
	if err := s.Leave(2); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := s.Leave(99); !errors.Is(err, ErrNotJoined) {
		t.Fatalf("leave stranger: %v", err)
	}
	fillWaiting2 := []Participant{reg(2, "Bruno"), reg(3, "Carla"), reg(4, "Diego")}
	for _, p := range fillWaiting2 {
		if _, err := s.Join(p); err != nil {
			t.Fatalf("refill: %v", err)
		}
	}
	if err := s.BeginCaptainPhase(); err != nil {
		t.Fatalf("begin captains: %v", err)
	}
	if err := s.Leave(1); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("leave after roster close: %v", err)
	}
}

func TestExternalsGetSequentialNegativeIDs(t *testing.T) {
	s := New(1, 6, false)
	p1, err := s.AddExternal("Zico")
	if err != nil {
		t.Fatalf("add external: %v", err)
	}
	p2, err := s.AddExternal("Sócrates")
	if err != nil {
		t.Fatalf("add external: %v", err)
	}
	if p1.ID != -1 || p2.ID != -2 {
		t.Fatalf("ids = %d, %d; want -1, -2", p1.ID, p2.ID)
	}
	if !p1.External() || !p2.External() {
		t.Fatal("external flag not set")
	}
	if _, err := s.AddExternal("Zico"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("duplicate external name: %v", err)
	}
	if _, err := s.RemoveExternal("Zico"); err != nil {
		t.Fatalf("remove external: %v", err)
	}
	if _, err := s.RemoveExternal("Zico"); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("remove missing external: %v", err)
	}
	p3, err := s.AddExternal("Romário")
	if err != nil {
		t.Fatalf("re-add external: %v", err)
	}
	if p3.ID != -3 {
		t.Fatalf("freed id reused: got %d, want -3", p3.ID)
	}
}

func TestCaptainPhaseNeedsTwoRegistered(t *testing.T) {
	s := New(1, 4, false)
	fillWaiting(t, s, 1)
	for _, name := range []string{"g1", "g2", "g3"} {
		if _, err := s.AddExternal(name); err != nil {
			t.Fatalf("add external: %v", err)
		}
	}
	if err := s.BeginCaptainPhase(); !errors.Is(err, ErrNotEnoughCaptains) {
		t.Fatalf("begin captains with 1 registered: %v", err)
	}
}

func TestRandomCaptainsAreDistinctAndRegistered(t *testing.T) {
	s := New(1, 6, false)
	fillWaiting(t, s, 4)
	if _, err := s.AddExternal("g1"); err != nil {
		t.Fatalf("external: %v", err)
	}
	if _, err := s.AddExternal("g2"); err != nil {
		t.Fatalf("external: %v", err)
	}
	if err := s.BeginCaptainPhase(); err != nil {
		t.Fatalf("begin captains: %v", err)
	}
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		clone := New(1, 6, false)
		clone.participants = s.Participants()
		clone.Phase = PhaseCaptainMethod
		if err := clone.ChooseRandomCaptains(rng); err != nil {
			t.Fatalf("random captains: %v", err)
		}
		a, b, ok := clone.Captains()
		if !ok {
			t.Fatal("captains not set")
		}
		if a.ID == b.ID {
			t.Fatalf("trial %d: same captain twice", trial)
		}
		if a.External() || b.External() {
			t.Fatalf("trial %d: external captain", trial)
		}
	}
}

func TestManualCaptainSelection(t *testing.T) {
	s := New(1, 4, false)
	fillWaiting(t, s, 4)
	if err := s.BeginCaptainPhase(); err != nil {
		t.Fatalf("begin captains: %v", err)
	}
	if err := s.BeginManualCaptains(); err != nil {
		t.Fatalf("manual captains: %v", err)
	}
	done, err := s.PickCaptain(2)
	if err != nil || done {
		t.Fatalf("first captain: done=%v err=%v", done, err)
	}
	if _, err := s.PickCaptain(2); !errors.Is(err, ErrAlreadyAssigned) {
		t.Fatalf("same captain twice: %v", err)
	}
	done, err = s.PickCaptain(4)
	if err != nil || !done {
		t.Fatalf("second captain: done=%v err=%v", done, err)
	}
	a, b, _ := s.Captains()
	if a.ID != 2 || b.ID != 4 {
		t.Fatalf("captains = %d, %d; want 2, 4", a.ID, b.ID)
	}
	if s.Phase != PhaseDraftChoice {
		t.Fatalf("phase = %s", s.Phase)
	}
}

func TestExternalCannotCaptain(t *testing.T) {
	s := New(1, 4, false)
	fillWaiting(t, s, 3)
	if _, err := s.AddExternal("guest"); err != nil {
		t.Fatalf("external: %v", err)
	}
	if err := s.BeginCaptainPhase(); err != nil {
		t.Fatalf("begin captains: %v", err)
	}
	if err := s.BeginManualCaptains(); err != nil {
		t.Fatalf("manual: %v", err)
	}
	if _, err := s.PickCaptain(-1); !errors.Is(err, ErrExternalCaptain) {
		t.Fatalf("external captain: %v", err)
	}
}

// runDraft picks the first pool player every turn and returns the
// picker team of each pick in order.
func runDraft(t *testing.T, s *Session) []Team {
	t.Helper()
	var order []Team
	for s.Phase == PhaseSelection {
		picker, ok := s.CurrentPicker()
		if !ok {
			t.Fatal("no current picker during selection")
		}
		if picker.ID == s.captains[TeamA].ID {
			order = append(order, TeamA)
		} else {
			order = append(order, TeamB)
		}
		pool := s.Pool()
		if len(pool) == 0 {
			t.Fatal("pool drained before teams complete")
		}
		if _, err := s.Pick(picker.ID, pool[0].ID); err != nil {
			t.Fatalf("pick: %v", err)
		}
	}
	return order
}

func setupDraft(t *testing.T, max int, method DraftMethod) *Session {
	t.Helper()
	s := New(1, max, false)
	fillWaiting(t, s, max)
	if err := s.BeginCaptainPhase(); err != nil {
		t.Fatalf("begin captains: %v", err)
	}
	if err := s.BeginManualCaptains(); err != nil {
		t.Fatalf("manual: %v", err)
	}
	if _, err := s.PickCaptain(1); err != nil {
		t.Fatalf("captain a: %v", err)
	}
	if _, err := s.PickCaptain(2); err != nil {
		t.Fatalf("captain b: %v", err)
	}
	if err := s.ChooseDraft(method); err != nil {
		t.Fatalf("choose draft: %v", err)
	}
	return s
}

func TestAlternatingDraftOrder(t *testing.T) {
	s := setupDraft(t, 8, DraftAlternating)
	order := runDraft(t, s)
	want := []Team{TeamA, TeamB, TeamA, TeamB, TeamA, TeamB}
	if len(order) != len(want) {
		t.Fatalf("pick count = %d, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("pick %d by team %s, want %s", i+1, order[i], want[i])
		}
	}
}

func TestSnakeDraftOrder(t *testing.T) {
	s := setupDraft(t, 14, DraftSnake)
	order := runDraft(t, s)
	want := []Team{
		TeamA, TeamB, TeamB, TeamA,
		TeamA, TeamB, TeamB, TeamA,
		TeamA, TeamB, TeamB, TeamA,
	}
	if len(order) != len(want) {
		t.Fatalf("pick count = %d, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("pick %d by team %s, want %s", i+1, order[i], want[i])
		}
	}
}

func TestDraftedTeamsAreBalanced(t *testing.T) {
	s := setupDraft(t, 10, DraftSnake)
	runDraft(t, s)
	a := s.TeamRoster(TeamA)
	b := s.TeamRoster(TeamB)
	if len(a) != 5 || len(b) != 5 {
		t.Fatalf("team sizes %d/%d, want 5/5", len(a), len(b))
	}
	if a[0].ID != 1 || b[0].ID != 2 {
		t.Fatal("captains not first in team rosters")
	}
	if s.Phase != PhaseInGame {
		t.Fatalf("phase = %s", s.Phase)
	}
}

func TestPickRejectsOutOfTurnAndTaken(t *testing.T) {
	s := setupDraft(t, 8, DraftAlternating)
	pool := s.Pool()
	if _, err := s.Pick(2, pool[0].ID); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("out-of-turn pick: %v", err)
	}
	if _, err := s.Pick(1, pool[0].ID); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if _, err := s.Pick(2, pool[0].ID); !errors.Is(err, ErrAlreadyAssigned) {
		t.Fatalf("repick taken player: %v", err)
	}
	if _, err := s.Pick(2, 2); !errors.Is(err, ErrAlreadyAssigned) {
		t.Fatalf("pick a captain: %v", err)
	}
}

func TestKitSelection(t *testing.T) {
	s := New(1, 4, true)
	fillWaiting(t, s, 4)
	if err := s.BeginCaptainPhase(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := s.BeginManualCaptains(); err != nil {
		t.Fatalf("manual: %v", err)
	}
	s.PickCaptain(1)
	s.PickCaptain(2)
	if err := s.ChooseDraft(DraftAlternating); err != nil {
		t.Fatalf("draft: %v", err)
	}
	runDraft(t, s)
	if s.Phase != PhaseKitSelect {
		t.Fatalf("phase = %s, want %s", s.Phase, PhaseKitSelect)
	}
	if err := s.ChooseKit(1, "red"); !errors.Is(err, ErrCaptainRequired) {
		t.Fatalf("team A captain chose kit: %v", err)
	}
	if err := s.ChooseKit(2, "red"); err != nil {
		t.Fatalf("kit: %v", err)
	}
	if s.KitB != "red" || s.Phase != PhaseInGame {
		t.Fatalf("kit=%q phase=%s", s.KitB, s.Phase)
	}
}

func playToScoring(t *testing.T, max int) *Session {
	t.Helper()
	s := setupDraft(t, max, DraftAlternating)
	runDraft(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return s
}

func TestScoreValidation(t *testing.T) {
	s := playToScoring(t, 4)
	if err := s.SetScore(-1, 2); !errors.Is(err, ErrBadScore) {
		t.Fatalf("negative score: %v", err)
	}
	if err := s.SetScore(3, 1); err != nil {
		t.Fatalf("set score: %v", err)
	}
	a, b, ok := s.Score()
	if !ok || a != 3 || b != 1 {
		t.Fatalf("score = %d-%d ok=%v", a, b, ok)
	}
	if s.Phase != PhaseScoring {
		t.Fatalf("phase advanced early: %s", s.Phase)
	}
}

func TestVotingCompletesExactlyWhenAllBallotsIn(t *testing.T) {
	s := playToScoring(t, 4)
	if err := s.OpenVoting(s.Registered()); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("voting before score: %v", err)
	}
	if err := s.SetScore(2, 2); err != nil {
		t.Fatalf("score: %v", err)
	}
	if err := s.OpenVoting(s.Registered()); err != nil {
		t.Fatalf("open voting: %v", err)
	}
	voters := s.EligibleVoters()
	for i, v := range voters {
		done, err := s.CastVote(v.ID, 1)
		if err != nil {
			t.Fatalf("vote: %v", err)
		}
		wantDone := i == len(voters)-1
		if done != wantDone {
			t.Fatalf("voter %d: done=%v want %v", i, done, wantDone)
		}
	}
}

func TestDuplicateAndIneligibleVotesRejected(t *testing.T) {
	s := playToScoring(t, 4)
	s.SetScore(1, 0)
	eligible := s.Registered()[:2]
	if err := s.OpenVoting(eligible); err != nil {
		t.Fatalf("open voting: %v", err)
	}
	if _, err := s.CastVote(eligible[0].ID, 2); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := s.CastVote(eligible[0].ID, 3); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("duplicate vote: %v", err)
	}
	if _, err := s.CastVote(3, 1); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("ineligible vote: %v", err)
	}
	if _, err := s.CastVote(eligible[1].ID, 999); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("vote for stranger: %v", err)
	}
}

func TestZeroEligibleVotersIsTriviallyComplete(t *testing.T) {
	s := playToScoring(t, 4)
	s.SetScore(1, 0)
	if err := s.OpenVoting(nil); err != nil {
		t.Fatalf("open voting: %v", err)
	}
	if !s.VotingComplete() {
		t.Fatal("empty ballot not complete")
	}
	mvps, votes := s.Tally()
	if mvps != nil || votes != 0 {
		t.Fatalf("tally = %v, %d; want none", mvps, votes)
	}
}

func TestTallyJointMVPsOnTie(t *testing.T) {
	s := playToScoring(t, 4)
	s.SetScore(1, 0)
	if err := s.OpenVoting(s.Registered()); err != nil {
		t.Fatalf("open voting: %v", err)
	}
	s.CastVote(1, 3)
	s.CastVote(2, 3)
	s.CastVote(3, 4)
	s.CastVote(4, 4)
	mvps, votes := s.Tally()
	if votes != 2 || len(mvps) != 2 {
		t.Fatalf("tally = %d mvps with %d votes", len(mvps), votes)
	}
	if mvps[0].ID != 3 || mvps[1].ID != 4 {
		t.Fatalf("mvps = %d, %d; want 3, 4", mvps[0].ID, mvps[1].ID)
	}
}

func TestStubFillPadsRoster(t *testing.T) {
	s := New(1, 10, false)
	fillWaiting(t, s, 2)
	if err := s.StubFill(10); err != nil {
		t.Fatalf("stub fill: %v", err)
	}
	if !s.IsFull() {
		t.Fatal("roster not full after stub fill")
	}
	stubs := 0
	for _, p := range s.Participants() {
		if p.External() {
			stubs++
		}
	}
	if stubs != 8 {
		t.Fatalf("stubs = %d, want 8", stubs)
	}
	if err := s.BeginCaptainPhase(); err != nil {
		t.Fatalf("begin captains: %v", err)
	}
}

func TestRestoreRebuildsWaitingSession(t *testing.T) {
	players := []Participant{reg(1, "Ana"), reg(2, "Bruno"), {ID: -2, DisplayName: "guest"}}
	s := Restore(42, "abc-123", 8, false, players)
	if s.ChatID != 42 || s.UUID != "abc-123" || s.Max != 8 {
		t.Fatalf("restored header: chat=%d uuid=%q max=%d", s.ChatID, s.UUID, s.Max)
	}
	if s.Phase != PhaseWaiting {
		t.Fatalf("phase = %s", s.Phase)
	}
	if len(s.Participants()) != 3 {
		t.Fatalf("participants = %d", len(s.Participants()))
	}
	p, err := s.AddExternal("another")
	if err != nil {
		t.Fatalf("add external after restore: %v", err)
	}
	if p.ID != -3 {
		t.Fatalf("external seq not restored: got %d, want -3", p.ID)
	}
}
