package match

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fiegsi/peladinha-bot/internal/domain"
	"github.com/fiegsi/peladinha-bot/internal/obslog"
	"github.com/fiegsi/peladinha-bot/internal/playerstore"
	"github.com/fiegsi/peladinha-bot/internal/present"
	"github.com/fiegsi/peladinha-bot/internal/rating"
	"github.com/fiegsi/peladinha-bot/internal/session"
)

const (
	minDisplayName = 3
	maxDisplayName = 20
)

// Options tunes match organization per deployment.
type Options struct {
	MaxPlayers int
	KitChoice  bool
	LeaderMin  int
	AdminIDs   []int64
}

// Manager owns every live session and drives the full match flow:
// roster, captains, draft, score, MVP vote, ratings. One mutex
// serializes all session events; persistence and notification failures
// are logged and swallowed so a flaky collaborator never wedges a
// running match.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*session.Session

	repo   playerstore.Repository
	roster RosterStore
	notify Notifier
	text   *present.Formatter
	rng    *rand.Rand
	now    func() time.Time
	opts   Options
}

func NewManager(repo playerstore.Repository, roster RosterStore, notify Notifier, text *present.Formatter, rng *rand.Rand, opts Options) *Manager {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Manager{
		sessions: make(map[int64]*session.Session),
		repo:     repo,
		roster:   roster,
		notify:   notify,
		text:     text,
		rng:      rng,
		now:      time.Now,
		opts:     opts,
	}
}

// Recover rebuilds WAITING sessions from persisted rosters after a
// restart. Sessions past roster formation are not recoverable and were
// never stored.
func (m *Manager) Recover(ctx context.Context) error {
	snaps, err := m.roster.LoadAll(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, snap := range snaps {
		players := make([]session.Participant, 0, len(snap.Players))
		for _, p := range snap.Players {
			players = append(players, session.Participant{ID: p.ID, DisplayName: p.Name})
		}
		s := session.Restore(snap.ChatID, snap.SessionID, snap.Max, snap.KitChoice, players)
		m.sessions[snap.ChatID] = s
		obslog.L().Info("roster_recovered",
			zap.Int64("chat_id", snap.ChatID),
			zap.String("session", s.UUID),
			zap.Int("players", len(players)))
	}
	return nil
}

// StartMatch opens a new roster in the chat.
func (m *Manager) StartMatch(ctx context.Context, chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[chatID]; ok {
		m.announce(ctx, chatID, m.text.Msg("match.already_active"))
		return
	}
	s := session.New(chatID, m.opts.MaxPlayers, m.opts.KitChoice)
	m.sessions[chatID] = s
	obslog.L().Info("match_started", zap.Int64("chat_id", chatID), zap.String("session", s.UUID))
	m.announce(ctx, chatID, m.text.Started(s.Max))
	m.saveRoster(ctx, s)
}

// CancelMatch tears the session down without recording anything.
func (m *Manager) CancelMatch(ctx context.Context, chatID, actorID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		m.announce(ctx, chatID, m.text.Msg("match.none_active"))
		return
	}
	if !m.isAdmin(actorID) {
		m.announce(ctx, chatID, m.text.Msg("match.admin_only"))
		return
	}
	m.announce(ctx, chatID, m.text.Msg("match.cancelled"))
	m.teardown(ctx, s)
}

// ShowRoster posts the current sign-up list.
func (m *Manager) ShowRoster(ctx context.Context, chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		m.announce(ctx, chatID, m.text.Msg("match.none_active"))
		return
	}
	m.announce(ctx, chatID, m.text.Roster(s))
}

// ShowTeams posts the drafted teams, or the roster if the draft has
// not started yet.
func (m *Manager) ShowTeams(ctx context.Context, chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		m.announce(ctx, chatID, m.text.Msg("match.none_active"))
		return
	}
	switch s.Phase {
	case session.PhaseSelection:
		m.announce(ctx, chatID, m.text.DraftTurn(s))
	case session.PhaseKitSelect, session.PhaseInGame, session.PhaseScoring, session.PhaseVoting:
		m.announce(ctx, chatID, m.text.TeamsComplete(s))
	default:
		m.announce(ctx, chatID, m.text.Roster(s))
	}
}

// Join signs a registered user onto the roster. A full roster moves
// straight into captain selection.
func (m *Manager) Join(ctx context.Context, chatID, userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		m.announce(ctx, chatID, m.text.Msg("match.none_active"))
		return
	}
	rec, err := m.repo.Lookup(ctx, userID)
	if err != nil {
		obslog.L().Warn("player_lookup_failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	if rec == nil {
		m.announce(ctx, chatID, m.text.Msg("match.must_register"))
		return
	}
	full, err := s.Join(session.Participant{ID: userID, DisplayName: rec.DisplayName})
	switch {
	case errors.Is(err, session.ErrWrongPhase):
		m.announce(ctx, chatID, m.text.Msg("match.roster_closed"))
		return
	case errors.Is(err, session.ErrAlreadyJoined):
		m.announce(ctx, chatID, m.text.Msg("match.already_joined"))
		return
	case errors.Is(err, session.ErrRosterFull):
		m.announce(ctx, chatID, m.text.Msg("match.full"))
		return
	case err != nil:
		obslog.L().Error("join_failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	m.announce(ctx, chatID, m.text.Roster(s))
	m.saveRoster(ctx, s)
	if full {
		m.rosterComplete(ctx, s)
	}
}

// Leave removes a user from an open roster.
func (m *Manager) Leave(ctx context.Context, chatID, userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		m.announce(ctx, chatID, m.text.Msg("match.none_active"))
		return
	}
	err := s.Leave(userID)
	switch {
	case errors.Is(err, session.ErrWrongPhase):
		m.announce(ctx, chatID, m.text.Msg("match.roster_closed"))
		return
	case errors.Is(err, session.ErrNotJoined):
		m.announce(ctx, chatID, m.text.Msg("match.not_joined"))
		return
	}
	m.announce(ctx, chatID, m.text.Msg("match.leave_ok"))
	m.announce(ctx, chatID, m.text.Roster(s))
	m.saveRoster(ctx, s)
}

// AddExternal adds a guest player without a registered account.
func (m *Manager) AddExternal(ctx context.Context, chatID int64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		m.announce(ctx, chatID, m.text.Msg("match.none_active"))
		return
	}
	p, err := s.AddExternal(name)
	switch {
	case errors.Is(err, session.ErrWrongPhase):
		m.announce(ctx, chatID, m.text.Msg("match.roster_closed"))
		return
	case errors.Is(err, session.ErrRosterFull):
		m.announce(ctx, chatID, m.text.Msg("match.full"))
		return
	case errors.Is(err, session.ErrDuplicateName):
		m.announce(ctx, chatID, m.text.ExternalDuplicate(name))
		return
	}
	m.announce(ctx, chatID, m.text.ExternalAdded(p.DisplayName))
	m.announce(ctx, chatID, m.text.Roster(s))
	m.saveRoster(ctx, s)
	if s.IsFull() {
		m.rosterComplete(ctx, s)
	}
}

// RemoveExternal removes a guest player by display name.
func (m *Manager) RemoveExternal(ctx context.Context, chatID int64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		m.announce(ctx, chatID, m.text.Msg("match.none_active"))
		return
	}
	p, err := s.RemoveExternal(name)
	switch {
	case errors.Is(err, session.ErrWrongPhase):
		m.announce(ctx, chatID, m.text.Msg("match.roster_closed"))
		return
	case errors.Is(err, session.ErrUnknownPlayer):
		m.announce(ctx, chatID, m.text.ExternalNotFound(name))
		return
	}
	m.announce(ctx, chatID, m.text.ExternalRemoved(p.DisplayName))
	m.announce(ctx, chatID, m.text.Roster(s))
	m.saveRoster(ctx, s)
}

// StubFill pads the roster with synthetic players so operators can
// rehearse a draft. Admin only.
func (m *Manager) StubFill(ctx context.Context, chatID, actorID int64, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		m.announce(ctx, chatID, m.text.Msg("match.none_active"))
		return
	}
	if !m.isAdmin(actorID) {
		m.announce(ctx, chatID, m.text.Msg("match.admin_only"))
		return
	}
	if err := s.StubFill(n); err != nil {
		m.announce(ctx, chatID, m.text.Msg("match.roster_closed"))
		return
	}
	m.announce(ctx, chatID, m.text.Roster(s))
	m.saveRoster(ctx, s)
	if s.IsFull() {
		m.rosterComplete(ctx, s)
	}
}

// rosterComplete fires when the roster hits capacity. A roster with
// fewer than two registered players cannot produce captains, so the
// match is torn down on the spot.
func (m *Manager) rosterComplete(ctx context.Context, s *session.Session) {
	if err := s.BeginCaptainPhase(); err != nil {
		obslog.L().Warn("captain_phase_aborted", zap.Int64("chat_id", s.ChatID), zap.Error(err))
		m.announce(ctx, s.ChatID, m.text.Msg("match.not_enough_captains"))
		m.teardown(ctx, s)
		return
	}
	obslog.L().Info("roster_complete", zap.Int64("chat_id", s.ChatID), zap.String("session", s.UUID))
	m.announce(ctx, s.ChatID, m.text.CaptainMethodPrompt(len(s.Participants())))
}

// CaptainMethod picks random or manual captain selection. Admin only.
func (m *Manager) CaptainMethod(ctx context.Context, chatID, actorID int64, method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		m.announce(ctx, chatID, m.text.Msg("match.none_active"))
		return
	}
	if !m.isAdmin(actorID) {
		m.announce(ctx, chatID, m.text.Msg("match.admin_only"))
		return
	}
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "random":
		if err := s.ChooseRandomCaptains(m.rng); err != nil {
			obslog.L().Warn("captain_choice_rejected", zap.Int64("chat_id", chatID), zap.Error(err))
			return
		}
		a, b, _ := s.Captains()
		obslog.L().Info("captains_chosen",
			zap.Int64("chat_id", chatID),
			zap.Int64("captain_a", a.ID),
			zap.Int64("captain_b", b.ID))
		m.announce(ctx, chatID, m.text.CaptainsChosen(a, b))
	case "manual":
		if err := s.BeginManualCaptains(); err != nil {
			obslog.L().Warn("captain_choice_rejected", zap.Int64("chat_id", chatID), zap.Error(err))
			return
		}
		m.announce(ctx, chatID, m.text.Roster(s))
		m.announce(ctx, chatID, m.text.CaptainPickPrompt(session.TeamA))
	}
}

// PickCaptain assigns captain slots by roster number, Team A first.
// Admin only.
func (m *Manager) PickCaptain(ctx context.Context, chatID, actorID int64, number int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		m.announce(ctx, chatID, m.text.Msg("match.none_active"))
		return
	}
	if !m.isAdmin(actorID) {
		m.announce(ctx, chatID, m.text.Msg("match.admin_only"))
		return
	}
	players := s.Participants()
	if number < 1 || number > len(players) {
		m.announce(ctx, chatID, m.text.Msg("match.bad_number"))
		return
	}
	done, err := s.PickCaptain(players[number-1].ID)
	switch {
	case errors.Is(err, session.ErrExternalCaptain):
		m.announce(ctx, chatID, m.text.Msg("match.external_captain"))
		return
	case errors.Is(err, session.ErrAlreadyAssigned):
		m.announce(ctx, chatID, m.text.Msg("match.bad_number"))
		return
	case err != nil:
		obslog.L().Warn("captain_pick_rejected", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	if !done {
		m.announce(ctx, chatID, m.text.CaptainPickPrompt(session.TeamB))
		return
	}
	a, b, _ := s.Captains()
	m.announce(ctx, chatID, m.text.CaptainsChosen(a, b))
}

// DraftChoice fixes the pick order. Only a captain may choose.
func (m *Manager) DraftChoice(ctx context.Context, chatID, actorID int64, method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		m.announce(ctx, chatID, m.text.Msg("match.none_active"))
		return
	}
	a, b, have := s.Captains()
	if !have || (a.ID != actorID && b.ID != actorID) {
		obslog.L().Debug("draft_choice_ignored", zap.Int64("chat_id", chatID), zap.Int64("actor", actorID))
		return
	}
	dm, ok2 := session.ParseDraftMethod(strings.ToLower(strings.TrimSpace(method)))
	if !ok2 {
		return
	}
	if err := s.ChooseDraft(dm); err != nil {
		obslog.L().Warn("draft_choice_rejected", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	obslog.L().Info("draft_started", zap.Int64("chat_id", chatID), zap.String("method", string(dm)))
	m.announce(ctx, chatID, m.text.DraftStarted(s))
}

// Pick drafts a pool player, numbered as shown in the turn prompt.
func (m *Manager) Pick(ctx context.Context, chatID, actorID int64, number int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		m.announce(ctx, chatID, m.text.Msg("match.none_active"))
		return
	}
	pool := s.Pool()
	if number < 1 || number > len(pool) {
		m.announce(ctx, chatID, m.text.Msg("match.bad_number"))
		return
	}
	done, err := s.Pick(actorID, pool[number-1].ID)
	switch {
	case errors.Is(err, session.ErrNotYourTurn):
		m.announce(ctx, chatID, m.text.Msg("match.not_your_turn"))
		return
	case err != nil:
		obslog.L().Warn("pick_rejected", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	if !done {
		m.announce(ctx, chatID, m.text.DraftTurn(s))
		return
	}
	obslog.L().Info("teams_complete", zap.Int64("chat_id", chatID), zap.String("session", s.UUID))
	m.announce(ctx, chatID, m.text.TeamsComplete(s))
	if s.Phase == session.PhaseKitSelect {
		_, captainB, _ := s.Captains()
		m.announce(ctx, chatID, m.text.KitPrompt(captainB))
	}
}

// ChooseKit records the Team B captain's shirt color and kicks off.
func (m *Manager) ChooseKit(ctx context.Context, chatID, actorID int64, kit string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		m.announce(ctx, chatID, m.text.Msg("match.none_active"))
		return
	}
	if err := s.ChooseKit(actorID, strings.TrimSpace(kit)); err != nil {
		obslog.L().Debug("kit_choice_rejected", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	m.announce(ctx, chatID, m.text.KitDone(s.KitB))
}

// EndMatch closes play and asks for the final score. The game row is
// written now so a later score or vote failure still leaves a record.
func (m *Manager) EndMatch(ctx context.Context, chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		m.announce(ctx, chatID, m.text.Msg("match.none_active"))
		return
	}
	if err := s.Close(); err != nil {
		obslog.L().Debug("end_rejected", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	g := buildGameRecord(s, m.now())
	id, err := m.repo.SaveGame(ctx, g)
	if err != nil {
		obslog.L().Warn("save_game_failed", zap.Int64("chat_id", chatID), zap.Error(err))
	} else {
		s.GameID = id
	}
	obslog.L().Info("match_ended", zap.Int64("chat_id", chatID), zap.Int64("game_id", s.GameID))
	m.announce(ctx, chatID, m.text.Msg("match.score_prompt"))
}

// Score records the final score, applies ratings, and opens the MVP
// vote. Rating writes happen here; win/loss stats wait for the vote so
// MVP and captaincy land in the same update.
func (m *Manager) Score(ctx context.Context, chatID int64, scoreA, scoreB int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		m.announce(ctx, chatID, m.text.Msg("match.none_active"))
		return
	}
	if err := s.SetScore(scoreA, scoreB); err != nil {
		m.announce(ctx, chatID, m.text.Msg("match.score_invalid"))
		return
	}
	m.announce(ctx, chatID, m.text.FinalScore(scoreA, scoreB))
	if s.GameID != 0 {
		if err := m.repo.UpdateScore(ctx, s.GameID, scoreA, scoreB); err != nil {
			obslog.L().Warn("update_score_failed", zap.Int64("game_id", s.GameID), zap.Error(err))
		}
	}
	m.applyRatings(ctx, s)
	m.openVoting(ctx, s)
}

func (m *Manager) applyRatings(ctx context.Context, s *session.Session) {
	sum := s.Snapshot()
	g := rating.Game{ScoreA: sum.ScoreA, ScoreB: sum.ScoreB}
	for _, mb := range sum.TeamA {
		g.TeamA = append(g.TeamA, rating.Player{ID: mb.ID, External: mb.External})
	}
	for _, mb := range sum.TeamB {
		g.TeamB = append(g.TeamB, rating.Player{ID: mb.ID, External: mb.External})
	}

	ratings := make(map[int64]int)
	played := make(map[int64]int)
	recs := make(map[int64]*domain.PlayerRecord)
	for _, p := range s.Participants() {
		if p.External() {
			continue
		}
		rec, err := m.repo.Lookup(ctx, p.ID)
		if err != nil {
			obslog.L().Warn("player_lookup_failed", zap.Int64("user_id", p.ID), zap.Error(err))
			continue
		}
		if rec == nil {
			continue
		}
		recs[p.ID] = rec
		ratings[p.ID] = rec.Rating
		played[p.ID] = rec.GamesPlayed
	}

	for id, r := range rating.NewRatings(g, ratings, played) {
		rec := recs[id]
		if rec == nil {
			continue
		}
		old := rec.Rating
		rec.Rating = r
		if err := m.repo.Upsert(ctx, rec); err != nil {
			obslog.L().Warn("rating_write_failed", zap.Int64("user_id", id), zap.Error(err))
			continue
		}
		obslog.L().Info("rating_updated",
			zap.Int64("user_id", id),
			zap.Int("old", old),
			zap.Int("new", r))
	}
}

// openVoting sends private ballots. Voters who could not be reached
// are excluded from the ballot for good; with nobody reachable the
// vote completes immediately with no MVP.
func (m *Manager) openVoting(ctx context.Context, s *session.Session) {
	ballot := m.text.Ballot(s)
	var eligible []session.Participant
	var failed []string
	for _, p := range s.Participants() {
		if p.External() {
			continue
		}
		if err := m.notify.Direct(ctx, p.ID, ballot); err != nil {
			obslog.L().Warn("ballot_delivery_failed", zap.Int64("user_id", p.ID), zap.Error(err))
			failed = append(failed, p.DisplayName)
			continue
		}
		eligible = append(eligible, p)
	}
	m.announce(ctx, s.ChatID, m.text.Msg("vote.started"))
	if len(failed) > 0 {
		m.announce(ctx, s.ChatID, m.text.FailedRecipients(failed))
	}
	if err := s.OpenVoting(eligible); err != nil {
		obslog.L().Error("open_voting_failed", zap.Int64("chat_id", s.ChatID), zap.Error(err))
		return
	}
	obslog.L().Info("voting_opened", zap.Int64("chat_id", s.ChatID), zap.Int("eligible", len(eligible)))
	if s.VotingComplete() {
		m.finalize(ctx, s)
	}
}

// Vote casts a private MVP ballot. The session is found by the voter,
// not the chat, because ballots arrive in private messages.
func (m *Manager) Vote(ctx context.Context, userID int64, number int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sessionForVoter(userID)
	if s == nil {
		m.direct(ctx, userID, m.text.Msg("vote.not_eligible"))
		return
	}
	players := s.Participants()
	if number < 1 || number > len(players) {
		m.direct(ctx, userID, m.text.Msg("match.bad_number"))
		return
	}
	target := players[number-1]
	done, err := s.CastVote(userID, target.ID)
	switch {
	case errors.Is(err, session.ErrAlreadyVoted):
		m.direct(ctx, userID, m.text.Msg("vote.already"))
		return
	case err != nil:
		m.direct(ctx, userID, m.text.Msg("vote.not_eligible"))
		return
	}
	m.direct(ctx, userID, m.text.VoteConfirm(target.DisplayName))
	if done {
		m.finalize(ctx, s)
	}
}

func (m *Manager) sessionForVoter(userID int64) *session.Session {
	for _, s := range m.sessions {
		if s.Phase != session.PhaseVoting {
			continue
		}
		for _, p := range s.EligibleVoters() {
			if p.ID == userID {
				return s
			}
		}
	}
	return nil
}

// finalize tallies the vote, announces MVPs, folds the game into each
// registered player's stats, and tears the session down. Every write
// is best effort.
func (m *Manager) finalize(ctx context.Context, s *session.Session) {
	mvps, votes := s.Tally()
	mvpIDs := make(map[int64]bool, len(mvps))
	for _, p := range mvps {
		mvpIDs[p.ID] = true
	}
	if len(mvps) > 0 {
		m.announce(ctx, s.ChatID, m.text.MVPAnnouncement(mvps, votes))
	}

	sum := s.Snapshot()
	playedAt := m.now()
	for _, side := range []struct {
		members   []session.Member
		teamScore int
		oppScore  int
	}{
		{sum.TeamA, sum.ScoreA, sum.ScoreB},
		{sum.TeamB, sum.ScoreB, sum.ScoreA},
	} {
		for _, mb := range side.members {
			if mb.External {
				continue
			}
			rec, err := m.repo.Lookup(ctx, mb.ID)
			if err != nil {
				obslog.L().Warn("player_lookup_failed", zap.Int64("user_id", mb.ID), zap.Error(err))
				continue
			}
			if rec == nil {
				continue
			}
			rating.ApplyOutcome(rec, rating.OutcomeFor(side.teamScore, side.oppScore), mb.Captain, mvpIDs[mb.ID], playedAt)
			if err := m.repo.Upsert(ctx, rec); err != nil {
				obslog.L().Warn("stats_write_failed", zap.Int64("user_id", mb.ID), zap.Error(err))
			}
		}
	}

	if s.GameID != 0 && len(mvps) > 0 {
		ids := make([]int64, 0, len(mvps))
		for _, p := range mvps {
			if !p.External() {
				ids = append(ids, p.ID)
			}
		}
		if len(ids) > 0 {
			if err := m.repo.MarkMVP(ctx, s.GameID, ids); err != nil {
				obslog.L().Warn("mark_mvp_failed", zap.Int64("game_id", s.GameID), zap.Error(err))
			}
		}
	}

	for _, p := range s.EligibleVoters() {
		m.direct(ctx, p.ID, m.text.Msg("vote.complete_direct"))
	}
	obslog.L().Info("match_finalized",
		zap.Int64("chat_id", s.ChatID),
		zap.String("session", s.UUID),
		zap.Int("mvps", len(mvps)))
	m.teardown(ctx, s)
}

// Stats posts a player's card in the chat.
func (m *Manager) Stats(ctx context.Context, chatID, userID int64) {
	rec, err := m.repo.Lookup(ctx, userID)
	if err != nil {
		obslog.L().Warn("player_lookup_failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if rec == nil || rec.GamesPlayed == 0 {
		m.announce(ctx, chatID, m.text.Msg("stats.none"))
		return
	}
	m.announce(ctx, chatID, m.text.Stats(rec))
}

// Leaderboard posts the top rated players.
func (m *Manager) Leaderboard(ctx context.Context, chatID int64) {
	recs, err := m.repo.Leaderboard(ctx, m.opts.LeaderMin)
	if err != nil {
		obslog.L().Warn("leaderboard_failed", zap.Error(err))
		return
	}
	m.announce(ctx, chatID, m.text.Leaderboard(recs, m.opts.LeaderMin))
}

// Register creates or greets a durable player record. Replies go to
// the user's private chat.
func (m *Manager) Register(ctx context.Context, userID int64, name string) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < minDisplayName || n > maxDisplayName {
		m.direct(ctx, userID, m.text.Msg("register.invalid_name"))
		return
	}
	rec, err := m.repo.Lookup(ctx, userID)
	if err != nil {
		obslog.L().Warn("player_lookup_failed", zap.Int64("user_id", userID), zap.Error(err))
		m.direct(ctx, userID, m.text.Msg("register.failed"))
		return
	}
	if rec != nil {
		m.direct(ctx, userID, m.text.RegisterExists(rec.DisplayName))
		return
	}
	rec = domain.NewPlayerRecord(userID, name)
	if err := m.repo.Upsert(ctx, rec); err != nil {
		obslog.L().Error("register_failed", zap.Int64("user_id", userID), zap.Error(err))
		m.direct(ctx, userID, m.text.Msg("register.failed"))
		return
	}
	obslog.L().Info("player_registered", zap.Int64("user_id", userID), zap.String("name", name))
	m.direct(ctx, userID, m.text.RegisterOK(name))
}

func (m *Manager) isAdmin(userID int64) bool {
	if len(m.opts.AdminIDs) == 0 {
		return true
	}
	for _, id := range m.opts.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (m *Manager) announce(ctx context.Context, chatID int64, text string) {
	if err := m.notify.Announce(ctx, chatID, text); err != nil {
		obslog.L().Warn("announce_failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (m *Manager) direct(ctx context.Context, userID int64, text string) {
	if err := m.notify.Direct(ctx, userID, text); err != nil {
		obslog.L().Warn("direct_failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (m *Manager) saveRoster(ctx context.Context, s *session.Session) {
	if s.Phase != session.PhaseWaiting {
		return
	}
	snap := &RosterSnapshot{
		ChatID:    s.ChatID,
		SessionID: s.UUID,
		Max:       s.Max,
		KitChoice: m.opts.KitChoice,
	}
	for _, p := range s.Participants() {
		snap.Players = append(snap.Players, RosterPlayer{ID: p.ID, Name: p.DisplayName})
	}
	if err := m.roster.Save(ctx, snap); err != nil {
		obslog.L().Warn("roster_save_failed", zap.Int64("chat_id", s.ChatID), zap.Error(err))
	}
}

func (m *Manager) teardown(ctx context.Context, s *session.Session) {
	if err := m.roster.Clear(ctx, s.ChatID); err != nil {
		obslog.L().Warn("roster_clear_failed", zap.Int64("chat_id", s.ChatID), zap.Error(err))
	}
	delete(m.sessions, s.ChatID)
	obslog.L().Info("session_closed", zap.Int64("chat_id", s.ChatID), zap.String("session", s.UUID))
}

// buildGameRecord snapshots teams and guest counts for the durable
// game row. Externals are counted, never listed.
func buildGameRecord(s *session.Session, playedAt time.Time) *domain.GameRecord {
	sum := s.Snapshot()
	g := &domain.GameRecord{
		ChatID:         s.ChatID,
		SessionUUID:    s.UUID,
		TeamAExternals: session.Externals(sum.TeamA),
		TeamBExternals: session.Externals(sum.TeamB),
		PlayedAt:       playedAt,
	}
	for _, side := range []struct {
		members []session.Member
		team    session.Team
	}{
		{sum.TeamA, session.TeamA},
		{sum.TeamB, session.TeamB},
	} {
		for _, mb := range side.members {
			if mb.External {
				continue
			}
			g.Players = append(g.Players, domain.GamePlayer{
				PlayerID:   mb.ID,
				Team:       side.team.String(),
				WasCaptain: mb.Captain,
			})
		}
	}
	return g
}
