package present

import (
	"fmt"
	"strings"

	"github.com/fiegsi/peladinha-bot/internal/domain"
	"github.com/fiegsi/peladinha-bot/internal/msgcat"
	"github.com/fiegsi/peladinha-bot/internal/session"
)

// Formatter renders sessions and player records into chat text blocks
// through the message catalog.
type Formatter struct {
	cat *msgcat.Catalog
}

func NewFormatter(cat *msgcat.Catalog) *Formatter {
	return &Formatter{cat: cat}
}

func (f *Formatter) Msg(key string) string {
	return f.cat.MustRender(key, nil)
}

func (f *Formatter) Started(max int) string {
	return f.cat.MustRender("match.started", map[string]any{"Max": max})
}

func (f *Formatter) Roster(s *session.Session) string {
	players := s.Participants()
	lines := make([]string, 0, len(players))
	for i, p := range players {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, p.DisplayName))
	}
	return f.cat.MustRender("match.roster", map[string]any{
		"Players": strings.Join(lines, "\n"),
		"Count":   len(players),
		"Max":     s.Max,
	})
}

func (f *Formatter) CaptainMethodPrompt(count int) string {
	return f.cat.MustRender("match.captain_method", map[string]any{"Count": count})
}

func (f *Formatter) CaptainsChosen(a, b session.Participant) string {
	return f.cat.MustRender("match.captains_chosen", map[string]any{
		"CaptainA": a.DisplayName,
		"CaptainB": b.DisplayName,
	})
}

func (f *Formatter) CaptainPickPrompt(t session.Team) string {
	return f.cat.MustRender("match.captain_pick_prompt", map[string]any{"Team": t.String()})
}

func (f *Formatter) DraftStarted(s *session.Session) string {
	picker, _ := s.CurrentPicker()
	return f.cat.MustRender("match.draft_started", map[string]any{
		"Method": draftName(s.Draft),
		"Picker": picker.DisplayName,
		"Pool":   numbered(s.Pool()),
	})
}

func (f *Formatter) DraftTurn(s *session.Session) string {
	picker, _ := s.CurrentPicker()
	return f.cat.MustRender("match.draft_turn", map[string]any{
		"TeamA":  names(s.TeamRoster(session.TeamA)),
		"TeamB":  names(s.TeamRoster(session.TeamB)),
		"Picker": picker.DisplayName,
		"Pool":   numbered(s.Pool()),
	})
}

func (f *Formatter) TeamsComplete(s *session.Session) string {
	a, b, _ := s.Captains()
	return f.cat.MustRender("match.teams_complete", map[string]any{
		"CaptainA": a.DisplayName,
		"CaptainB": b.DisplayName,
		"TeamA":    names(s.TeamRoster(session.TeamA)),
		"TeamB":    names(s.TeamRoster(session.TeamB)),
	})
}

func (f *Formatter) KitPrompt(captain session.Participant) string {
	return f.cat.MustRender("match.kit_prompt", map[string]any{"Captain": captain.DisplayName})
}

func (f *Formatter) KitDone(kit string) string {
	return f.cat.MustRender("match.kit_done", map[string]any{"Kit": kit})
}

func (f *Formatter) FinalScore(scoreA, scoreB int) string {
	return f.cat.MustRender("match.final_score", map[string]any{"ScoreA": scoreA, "ScoreB": scoreB})
}

func (f *Formatter) ExternalAdded(name string) string {
	return f.cat.MustRender("match.external_added", map[string]any{"Name": name})
}

func (f *Formatter) ExternalRemoved(name string) string {
	return f.cat.MustRender("match.external_removed", map[string]any{"Name": name})
}

func (f *Formatter) ExternalDuplicate(name string) string {
	return f.cat.MustRender("match.external_duplicate", map[string]any{"Name": name})
}

func (f *Formatter) ExternalNotFound(name string) string {
	return f.cat.MustRender("match.external_not_found", map[string]any{"Name": name})
}

// Ballot is the private MVP vote message. Choices are the roster in
// join order, voted on by number.
func (f *Formatter) Ballot(s *session.Session) string {
	scoreA, scoreB, _ := s.Score()
	return f.cat.MustRender("vote.ballot", map[string]any{
		"ScoreA":  scoreA,
		"ScoreB":  scoreB,
		"Choices": numbered(s.Participants()),
	})
}

func (f *Formatter) FailedRecipients(names []string) string {
	return f.cat.MustRender("vote.failed_recipients", map[string]any{
		"Names": strings.Join(names, ", "),
	})
}

func (f *Formatter) VoteConfirm(name string) string {
	return f.cat.MustRender("vote.confirm", map[string]any{"Name": name})
}

func (f *Formatter) MVPAnnouncement(mvps []session.Participant, votes int) string {
	if len(mvps) == 1 {
		return f.cat.MustRender("vote.mvp_single", map[string]any{
			"Name":  mvps[0].DisplayName,
			"Votes": votes,
		})
	}
	parts := make([]string, 0, len(mvps))
	for _, p := range mvps {
		parts = append(parts, p.DisplayName)
	}
	return f.cat.MustRender("vote.mvp_tie", map[string]any{
		"Names": strings.Join(parts, ", "),
		"Votes": votes,
	})
}

func (f *Formatter) Stats(rec *domain.PlayerRecord) string {
	winRate := 0.0
	if rec.GamesPlayed > 0 {
		winRate = float64(rec.GamesWon) / float64(rec.GamesPlayed) * 100
	}
	return f.cat.MustRender("stats.card", map[string]any{
		"Name":          rec.DisplayName,
		"Rating":        rec.Rating,
		"WinRate":       fmt.Sprintf("%.1f", winRate),
		"BestStreak":    rec.BestStreak,
		"CurrentStreak": rec.CurrentStreak,
		"Wins":          rec.GamesWon,
		"Losses":        rec.GamesLost,
		"Draws":         rec.GamesDrawn,
		"Played":        rec.GamesPlayed,
		"MVP":           rec.TimesMVP,
		"Captain":       rec.TimesCaptain,
	})
}

func (f *Formatter) Leaderboard(recs []*domain.PlayerRecord, minGames int) string {
	if len(recs) == 0 {
		return f.cat.MustRender("leaderboard.empty", map[string]any{"MinGames": minGames})
	}
	lines := make([]string, 0, len(recs))
	for i, rec := range recs {
		lines = append(lines, fmt.Sprintf("%d. %s — %d (%dW %dL %dD)",
			i+1, rec.DisplayName, rec.Rating, rec.GamesWon, rec.GamesLost, rec.GamesDrawn))
	}
	return f.cat.MustRender("leaderboard.board", map[string]any{
		"Rows": strings.Join(lines, "\n"),
	})
}

func (f *Formatter) RegisterOK(name string) string {
	return f.cat.MustRender("register.ok", map[string]any{"Name": name})
}

func (f *Formatter) RegisterExists(name string) string {
	return f.cat.MustRender("register.exists", map[string]any{"Name": name})
}

func draftName(m session.DraftMethod) string {
	if m == session.DraftSnake {
		return "Snake draft (ABBA)"
	}
	return "Alternating (ABAB)"
}

func names(players []session.Participant) string {
	parts := make([]string, 0, len(players))
	for _, p := range players {
		parts = append(parts, p.DisplayName)
	}
	return strings.Join(parts, "\n")
}

func numbered(players []session.Participant) string {
	parts := make([]string, 0, len(players))
	for i, p := range players {
		parts = append(parts, fmt.Sprintf("%d. %s", i+1, p.DisplayName))
	}
	return strings.Join(parts, "\n")
}
