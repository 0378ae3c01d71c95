// Package session models the role-gated portal session: resolving the
// current principal, reacting to auth-boundary changes and deciding, per
// route, whether to render or redirect.
package session

import (
	"context"
	"sync"

	"github.com/trezcool/mahudhurio/core/user"
)

// State is the resolution state of the portal session.
type State int

const (
	// StateResolving is the initial state while the first resolution is in
	// flight. No navigation decision is made in this state.
	StateResolving State = iota
	StateAnonymous
	StateTeacher
	StateStudent
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateAnonymous:
		return "anonymous"
	case StateTeacher:
		return "teacher"
	case StateStudent:
		return "student"
	}
	return "unknown"
}

// Portal routes
const (
	LoginPath       = "/login"
	TeacherHomePath = "/teacher"
	StudentHomePath = "/student"
)

const accessDeniedNotice = "access denied"

// Route is a protected or public route and the role it requires
// (empty Role means public).
type Route struct {
	Path string
	Role string
}

type Action int

const (
	ActionWait Action = iota // still resolving, render a neutral loading state
	ActionRender
	ActionRedirect
)

// Decision is the gate's verdict for one route access.
type Decision struct {
	Action   Action
	Location string // redirect target, set when Action == ActionRedirect
	Notice   string // user-visible notice accompanying a redirect
}

// StateFor maps a resolved principal to a session state.
// A nil principal or an unknown role is Anonymous.
func StateFor(principal *user.User) State {
	if principal == nil {
		return StateAnonymous
	}
	switch principal.Role {
	case user.RoleTeacher:
		return StateTeacher
	case user.RoleStudent:
		return StateStudent
	}
	return StateAnonymous
}

// HomePath returns the home route for a state.
func HomePath(s State) string {
	switch s {
	case StateTeacher:
		return TeacherHomePath
	case StateStudent:
		return StudentHomePath
	}
	return LoginPath
}

// Decide runs the gating state machine for one route access:
//   - Resolving: wait, no navigation decision yet.
//   - Anonymous: protected routes redirect to the login surface.
//   - Teacher/Student: only matching-role routes render; a mismatched-role
//     route redirects to the requester's own home with an access denied
//     notice (never rendered, never an error).
func Decide(s State, route Route) Decision {
	if route.Role == "" {
		return Decision{Action: ActionRender}
	}
	switch s {
	case StateResolving:
		return Decision{Action: ActionWait}
	case StateAnonymous:
		return Decision{Action: ActionRedirect, Location: LoginPath}
	case StateTeacher:
		if route.Role == user.RoleTeacher {
			return Decision{Action: ActionRender}
		}
		return Decision{Action: ActionRedirect, Location: TeacherHomePath, Notice: accessDeniedNotice}
	case StateStudent:
		if route.Role == user.RoleStudent {
			return Decision{Action: ActionRender}
		}
		return Decision{Action: ActionRedirect, Location: StudentHomePath, Notice: accessDeniedNotice}
	}
	return Decision{Action: ActionRedirect, Location: LoginPath}
}

// Resolver is the auth boundary: it resolves the current principal and
// pushes a notification whenever the underlying session changes
// (login, logout, token refresh).
type Resolver interface {
	// Resolve returns the current principal, or (nil, nil) when no session
	// exists or the session's backing row is gone. A missing session is not
	// an error.
	Resolve(ctx context.Context) (*user.User, error)
	// Subscribe registers fn for session change notifications and returns
	// an unsubscribe func. fn may be called from any goroutine.
	Subscribe(fn func(principal *user.User)) (unsubscribe func())
}

// Gate tracks the session state of one portal session, driven solely by
// Resolver notifications. Racing notifications and in-flight resolutions
// are settled last-write-wins: results keyed to a stale principal are
// discarded.
type Gate struct {
	resolver Resolver

	mu       sync.Mutex
	state    State
	seq      uint64 // ticket of the latest issued resolution/notification
	applied  uint64 // ticket of the latest applied one
	onChange []func(State)
}

func NewGate(resolver Resolver) *Gate {
	return &Gate{
		resolver: resolver,
		state:    StateResolving,
	}
}

// Start kicks off the initial resolution and subscribes to session
// changes. It returns a stop func that unsubscribes.
func (g *Gate) Start(ctx context.Context) (stop func()) {
	unsubscribe := g.resolver.Subscribe(func(principal *user.User) {
		g.apply(principal, g.nextTicket())
	})

	ticket := g.nextTicket()
	go func() {
		principal, err := g.resolver.Resolve(ctx)
		if err != nil {
			// an auth resolution failure is Anonymous, not an error
			principal = nil
		}
		g.apply(principal, ticket)
	}()

	return unsubscribe
}

// State returns the current session state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Decide gates one route access against the current state.
func (g *Gate) Decide(route Route) Decision {
	return Decide(g.State(), route)
}

// OnChange registers fn to run after every applied state transition.
func (g *Gate) OnChange(fn func(State)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onChange = append(g.onChange, fn)
}

func (g *Gate) nextTicket() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return g.seq
}

// apply transitions the state unless a more recent notification has
// already been applied.
func (g *Gate) apply(principal *user.User, ticket uint64) {
	g.mu.Lock()
	if ticket < g.applied {
		g.mu.Unlock()
		return // stale result, a newer notification won
	}
	g.applied = ticket
	g.state = StateFor(principal)
	state := g.state
	fns := make([]func(State), len(g.onChange))
	copy(fns, g.onChange)
	g.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
