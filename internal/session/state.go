package session

import "sync"

// State is the in-memory authentication state shared by every view.
//
// It holds the current access token; a non-empty token means authenticated.
type State struct {
	mu        sync.RWMutex
	token     string
	listeners []func(token string)
}

func NewState(token string) *State {
	return &State{token: token}
}

func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *State) Authenticated() bool {
	return s.Token() != ""
}

// SetToken replaces the token and notifies subscribers when it changed.
func (s *State) SetToken(token string) {
	s.mu.Lock()
	if s.token == token {
		s.mu.Unlock()
		return
	}
	s.token = token
	listeners := append([]func(string){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(token)
	}
}

// Subscribe registers fn to run after every token change.
func (s *State) Subscribe(fn func(token string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
