package auth

import (
	"errors"
	"sync"
)

// Phase is the authentication state a session moves through.
type Phase int

const (
	// PhaseUnknown is the initial state, before the identity resolves.
	// Protected views render a neutral loading state and must not query the
	// store while here.
	PhaseUnknown Phase = iota
	PhaseAuthenticated
	PhaseUnauthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// ErrGateClosed is returned when a transition would re-authenticate a gate
// that already resolved to unauthenticated. A fresh sign-in means a fresh
// gate; there is no way back.
var ErrGateClosed = errors.New("session gate closed")

// Gate tracks the authentication phase of one session. Allowed transitions:
//
//	unknown -> authenticated
//	unknown -> unauthenticated
//	authenticated -> unauthenticated  (sign-out or token expiry)
type Gate struct {
	mu       sync.Mutex
	phase    Phase
	identity string
}

func NewGate() *Gate {
	return &Gate{phase: PhaseUnknown}
}

// Resolve moves the gate from unknown to authenticated for the given
// identity.
func (g *Gate) Resolve(identity string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if identity == "" {
		return errors.New("empty identity")
	}
	switch g.phase {
	case PhaseUnknown:
		g.phase = PhaseAuthenticated
		g.identity = identity
		return nil
	case PhaseAuthenticated:
		if g.identity == identity {
			return nil
		}
		return errors.New("gate already bound to another identity")
	default:
		return ErrGateClosed
	}
}

// Deny moves the gate to unauthenticated, from unknown (identity never
// resolved) or from authenticated (sign-out, expiry).
func (g *Gate) Deny() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.phase = PhaseUnauthenticated
	g.identity = ""
}

// Phase returns the current phase.
func (g *Gate) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Identity returns the resolved identity. ok is false unless the gate is in
// the authenticated phase, which is the only state in which store queries
// may be issued.
func (g *Gate) Identity() (identity string, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseAuthenticated {
		return "", false
	}
	return g.identity, true
}
