package session

// Restore rebuilds a WAITING session from a persisted roster snapshot.
// Only open rosters are ever persisted, so recovery always lands back
// in WAITING with the same session id and membership.
func Restore(chatID int64, id string, maxPlayers int, kitChoice bool, participants []Participant) *Session {
	s := New(chatID, maxPlayers, kitChoice)
	if id != "" {
		s.UUID = id
	}
	s.participants = append([]Participant(nil), participants...)
	for _, p := range participants {
		if p.ID < 0 && p.ID > stubIDBase && int(-p.ID) > s.externalSeq {
			s.externalSeq = int(-p.ID)
		}
	}
	return s
}
