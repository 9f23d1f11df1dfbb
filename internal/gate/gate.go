// Package gate decides which top-level screen the app shows.
//
// Four inputs drive it: asset readiness, session resolution, the persisted
// first-launch flag and onboarding completion. Inputs are pushed in through
// methods; after each one the gate re-evaluates and notifies subscribers if
// the state changed.
//
// States, first match wins:
//
//	FontsLoading     assets not ready                         → Blank
//	AuthLoading      session or launch check still pending    → Splash
//	FirstLaunch      flag was absent, onboarding not finished → Onboarding
//	Unauthenticated  no session                               → Auth
//	Ready                                                     → Main
package gate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sakif/found/internal/auth"
	"github.com/sakif/found/internal/localstore"
)

// State is a gate state.
type State int

const (
	FontsLoading State = iota
	AuthLoading
	FirstLaunch
	Unauthenticated
	Ready
)

func (s State) String() string {
	switch s {
	case FontsLoading:
		return "FontsLoading"
	case AuthLoading:
		return "AuthLoading"
	case FirstLaunch:
		return "FirstLaunch"
	case Unauthenticated:
		return "Unauthenticated"
	case Ready:
		return "Ready"
	}
	return "Unknown"
}

// Screen is what the user sees.
type Screen string

const (
	ScreenBlank      Screen = "Blank"
	ScreenSplash     Screen = "Splash"
	ScreenOnboarding Screen = "Onboarding"
	ScreenAuth       Screen = "Auth"
	ScreenMain       Screen = "Main"
)

// Screen maps a state to the screen rendered for it.
func (s State) Screen() Screen {
	switch s {
	case FontsLoading:
		return ScreenBlank
	case AuthLoading:
		return ScreenSplash
	case FirstLaunch:
		return ScreenOnboarding
	case Unauthenticated:
		return ScreenAuth
	}
	return ScreenMain
}

// LaunchStore is the device storage holding the first-launch flag.
// *localstore.Store satisfies it.
type LaunchStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// TransitionFunc is called after every state change.
type TransitionFunc func(from, to State)

// Gate is the bootstrap state machine. It is safe for concurrent use;
// callbacks run on the goroutine that pushed the input, after the gate's
// lock is released, so they may call back into the gate.
type Gate struct {
	store  LaunchStore
	logger *slog.Logger

	mu              sync.Mutex
	state           State
	assetsLoaded    bool
	sessionResolved bool
	session         *auth.Session
	launchChecked   bool
	firstLaunch     bool
	onboardingDone  bool

	listeners map[int]TransitionFunc
	nextID    int
}

// New returns a gate in FontsLoading.
func New(store LaunchStore, logger *slog.Logger) *Gate {
	return &Gate{
		store:     store,
		logger:    logger,
		state:     FontsLoading,
		listeners: make(map[int]TransitionFunc),
	}
}

// CurrentState returns the state as of the last input.
func (g *Gate) CurrentState() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Session returns the resolved session, nil when signed out or unresolved.
func (g *Gate) Session() *auth.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// OnTransition subscribes fn to state changes. The returned function
// unsubscribes; calling it more than once is harmless.
func (g *Gate) OnTransition(fn TransitionFunc) (unsubscribe func()) {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

// AssetsLoaded records that fonts and icons are ready.
func (g *Gate) AssetsLoaded() {
	g.update(func() { g.assetsLoaded = true })
}

// SessionResolved records the outcome of session resolution. sess is nil
// when nobody is signed in. Calling it again (a sign-in from the Auth
// screen) moves Unauthenticated to Ready.
func (g *Gate) SessionResolved(sess *auth.Session) {
	g.update(func() {
		g.sessionResolved = true
		g.session = sess
	})
}

// SignedOut clears the session.
func (g *Gate) SignedOut() {
	g.update(func() {
		g.sessionResolved = true
		g.session = nil
	})
}

// CompleteOnboarding leaves the onboarding screen for good.
func (g *Gate) CompleteOnboarding() {
	g.update(func() { g.onboardingDone = true })
}

// CheckFirstLaunch reads the hasLaunched flag and, when it is absent,
// writes "true" before reporting a first launch. The flag is therefore
// persisted before onboarding is shown: quitting mid-onboarding skips it on
// the next launch.
//
// A storage failure is logged and treated as "not a first launch"; it never
// blocks the app.
func (g *Gate) CheckFirstLaunch(ctx context.Context) {
	first := g.readFirstLaunch(ctx)
	g.update(func() {
		g.launchChecked = true
		g.firstLaunch = first
	})
}

func (g *Gate) readFirstLaunch(ctx context.Context) bool {
	_, launched, err := g.store.Get(ctx, localstore.KeyHasLaunched)
	if err != nil {
		g.logger.Error("checking first launch", slog.String("error", err.Error()))
		return false
	}
	if launched {
		return false
	}
	if err := g.store.Set(ctx, localstore.KeyHasLaunched, "true"); err != nil {
		g.logger.Error("checking first launch", slog.String("error", err.Error()))
		return false
	}
	return true
}

// update applies an input, re-evaluates and notifies listeners outside the
// lock.
func (g *Gate) update(apply func()) {
	g.mu.Lock()
	apply()
	from := g.state
	to := g.evaluate()
	g.state = to
	var notify []TransitionFunc
	if from != to {
		notify = make([]TransitionFunc, 0, len(g.listeners))
		for _, fn := range g.listeners {
			notify = append(notify, fn)
		}
	}
	g.mu.Unlock()

	if from != to {
		g.logger.Debug("gate transition", slog.String("from", from.String()), slog.String("to", to.String()))
	}
	for _, fn := range notify {
		fn(from, to)
	}
}

// evaluate must be called with g.mu held.
func (g *Gate) evaluate() State {
	switch {
	case !g.assetsLoaded:
		return FontsLoading
	case !g.sessionResolved || !g.launchChecked:
		return AuthLoading
	case g.firstLaunch && !g.onboardingDone:
		return FirstLaunch
	case g.session == nil:
		return Unauthenticated
	}
	return Ready
}
