package relay

import (
	"sync"

	"github.com/Harshkesharwani789/talk-space/model"
)

// Session is the relay-side handle for one live transport connection.
// It starts anonymous, becomes identified after the first announce, and
// is closed exactly once when the transport goes away.
type Session struct {
	id   string
	wire model.Wire

	mx        sync.Mutex
	userID    string
	closeOnce sync.Once
}

func NewSession(id string, wire model.Wire) *Session {
	return &Session{
		id:   id,
		wire: wire,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Wire() model.Wire {
	return s.wire
}

// UserID returns the announced identity, empty while anonymous.
func (s *Session) UserID() string {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.userID
}

func (s *Session) setUserID(userID string) {
	s.mx.Lock()
	s.userID = userID
	s.mx.Unlock()
}
