package session

// Member is one participant in a finished-game summary.
type Member struct {
	ID       int64
	Name     string
	External bool
	Captain  bool
}

// Summary is the flat roster/score view handed to the rating engine
// and the persistence layer once a game is scored. Captains are
// included as ordinary team members with the Captain flag set.
type Summary struct {
	ScoreA int
	ScoreB int
	TeamA  []Member
	TeamB  []Member
}

// Snapshot captures team rosters, captain flags and the final score.
// Valid once the draft is complete; the score fields are zero until
// SetScore has been accepted.
func (s *Session) Snapshot() Summary {
	sum := Summary{ScoreA: s.scoreA, ScoreB: s.scoreB}
	for t, dst := range []*[]Member{&sum.TeamA, &sum.TeamB} {
		for i, p := range s.TeamRoster(Team(t)) {
			*dst = append(*dst, Member{
				ID:       p.ID,
				Name:     p.DisplayName,
				External: p.External(),
				Captain:  i == 0 && len(s.captains) == 2,
			})
		}
	}
	return sum
}

// Externals counts the members of one summary team without durable
// identities.
func Externals(team []Member) int {
	n := 0
	for _, m := range team {
		if m.External {
			n++
		}
	}
	return n
}
