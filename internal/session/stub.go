package session

import "fmt"

// stub ids live far below the external-player range so the two kinds
// of synthetic identities never collide.
const stubIDBase = -1000

// StubParticipant builds the i-th synthetic dry-run participant.
func StubParticipant(i int) Participant {
	return Participant{
		ID:          int64(stubIDBase - i),
		DisplayName: fmt.Sprintf("Test Player %d", i+1),
	}
}

// StubFill pads the roster with stub participants until it holds n
// members. Used by operators to rehearse a draft without real players.
func (s *Session) StubFill(n int) error {
	if s.Phase != PhaseWaiting {
		return ErrWrongPhase
	}
	if n > s.Max {
		n = s.Max
	}
	for i := 0; len(s.participants) < n; i++ {
		p := StubParticipant(i)
		if _, ok := s.Find(p.ID); ok {
			continue
		}
		s.participants = append(s.participants, p)
	}
	return nil
}
