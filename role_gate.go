package pathwise

import (
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// GateState is the state of a role gate guarding a protected area.
type GateState string

const (
	// GateResolving means the session status is not yet known. No redirect
	// may be emitted in this state; callers render a loading placeholder.
	GateResolving GateState = "resolving"
	// GateUnauthenticated means the session resolved to "absent".
	GateUnauthenticated GateState = "unauthenticated"
	// GateWrongRole means a session exists but lacks the required role.
	GateWrongRole GateState = "authorized_wrong_role"
	// GateAuthorized means the guarded content may render.
	GateAuthorized GateState = "authorized"
)

// ErrGateResolved is returned when a gate receives a second resolution.
var ErrGateResolved = goerrors.New("role gate already resolved", goerrors.CategoryConflict).
	WithTextCode("GATE_ALREADY_RESOLVED").
	WithCode(goerrors.CodeConflict)

// GateDecision is the outcome of a resolution event. Redirect is non-empty
// only on the call that performed the transition, so the side effect fires
// exactly once per resolution.
type GateDecision struct {
	State    GateState `json:"state"`
	Redirect string    `json:"redirect,omitempty"`
}

// GateOption customizes gate construction.
type GateOption func(*RoleGate)

// WithLoginRoute overrides the redirect target for unauthenticated visitors.
func WithLoginRoute(route string) GateOption {
	return func(g *RoleGate) {
		if route != "" {
			g.loginRoute = route
		}
	}
}

// WithDashboardRoute overrides the landing area for authenticated visitors
// that lack the required role.
func WithDashboardRoute(route string) GateOption {
	return func(g *RoleGate) {
		if route != "" {
			g.dashboardRoute = route
		}
	}
}

// RoleGate is a single-shot finite-state guard for one protected area and
// one session-resolution event. It starts in GateResolving and transitions
// exactly once when the session resolves; re-creating the gate is how a new
// resolution cycle begins.
type RoleGate struct {
	mu             sync.Mutex
	required       UserRole
	loginRoute     string
	dashboardRoute string
	state          GateState
	decision       GateDecision
	transitions    map[GateState]map[GateState]struct{}
}

// NewRoleGate builds a gate requiring at least the given role.
func NewRoleGate(required UserRole, opts ...GateOption) *RoleGate {
	g := &RoleGate{
		required:       required,
		loginRoute:     "/login",
		dashboardRoute: "/dashboard",
		state:          GateResolving,
		transitions: map[GateState]map[GateState]struct{}{
			GateResolving: {
				GateUnauthenticated: {},
				GateWrongRole:       {},
				GateAuthorized:      {},
			},
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// State returns the current gate state.
func (g *RoleGate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Pending reports the decision while the session is unresolved: remain in
// Resolving, never redirect.
func (g *RoleGate) Pending() GateDecision {
	return GateDecision{State: GateResolving}
}

// Resolve feeds the resolved session into the gate. A nil session means
// "absent". The first call transitions the gate and returns the decision
// carrying the redirect side effect; subsequent calls return the stored
// decision with the redirect stripped, plus ErrGateResolved.
func (g *RoleGate) Resolve(session *SessionObject) (GateDecision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != GateResolving {
		repeat := g.decision
		repeat.Redirect = ""
		return repeat, ErrGateResolved
	}

	target := GateAuthorized
	redirect := ""

	switch {
	case session == nil:
		target = GateUnauthenticated
		redirect = g.loginRoute
	case !session.IsAtLeast(g.required):
		target = GateWrongRole
		redirect = g.dashboardRoute
	}

	if !g.canTransition(g.state, target) {
		return g.Pending(), goerrors.New("invalid gate transition", goerrors.CategoryInternal).
			WithMetadata(map[string]any{"from": g.state, "to": target})
	}

	g.state = target
	g.decision = GateDecision{State: target, Redirect: redirect}
	return g.decision, nil
}

// Authorized reports whether guarded content may render.
func (g *RoleGate) Authorized() bool {
	return g.State() == GateAuthorized
}

func (g *RoleGate) canTransition(from, to GateState) bool {
	if allowed, ok := g.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}
