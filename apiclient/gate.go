package apiclient

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
	"github.com/jrsteele09/livee-admin-console/internal/metrics"
	"github.com/jrsteele09/livee-admin-console/session"
	"github.com/rs/zerolog"
)

// Sessions is the part of the session manager the gate needs.
type Sessions interface {
	Session() session.Session
	Login(user session.User, accessToken, refreshToken string)
	Logout()
}

// Renewer exchanges a refresh token for a new pair. Implementations must not go
// through a Client, otherwise a 401 from the refresh endpoint would recurse.
type Renewer interface {
	Renew(ctx context.Context, refreshToken string) (session.TokenPair, error)
}

// Navigator sends the user back to the login screen after the session is lost.
type Navigator interface {
	RedirectToLogin()
}

type NavigatorFunc func()

func (f NavigatorFunc) RedirectToLogin() { f() }

type refreshState int

const (
	stateIdle refreshState = iota
	stateRefreshInFlight
)

func (s refreshState) String() string {
	if s == stateRefreshInFlight {
		return "refresh_in_flight"
	}
	return "idle"
}

type refreshOutcome struct {
	accessToken string
	err         error
}

// pendingRequest is a request parked behind the in-flight refresh.
type pendingRequest struct {
	seq     uint64
	label   string
	release func(refreshOutcome)
}

// Gate is the refresh state machine shared by every Client of a process. At most
// one refresh runs at a time; requests that hit a 401 meanwhile wait in FIFO
// order for the shared outcome.
type Gate struct {
	sessions Sessions
	renewer  Renewer
	nav      Navigator
	log      zerolog.Logger
	metrics  *metrics.Collectors

	mu    sync.Mutex
	state refreshState
	queue []pendingRequest
	seq   uint64
}

type GateOption func(*Gate)

func WithGateLogger(logger zerolog.Logger) GateOption {
	return func(g *Gate) {
		g.log = logger.With().Str("component", "refresh_gate").Logger()
	}
}

func WithGateMetrics(c *metrics.Collectors) GateOption {
	return func(g *Gate) {
		if c != nil {
			g.metrics = c
		}
	}
}

func NewGate(sessions Sessions, renewer Renewer, nav Navigator, opts ...GateOption) *Gate {
	if nav == nil {
		nav = NavigatorFunc(func() {})
	}
	g := &Gate{
		sessions: sessions,
		renewer:  renewer,
		nav:      nav,
		log:      zerolog.Nop(),
		metrics:  metrics.New(nil),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Recover is called after a request sent with sentAccessToken was rejected with
// 401. It either starts a refresh or waits for the one already running, and
// returns the access token the request should be replayed with. When the session
// already holds a different token, a refresh finished after the request went out
// and that token is returned as is.
func (g *Gate) Recover(ctx context.Context, label, sentAccessToken string) (string, error) {
	g.mu.Lock()
	if g.state == stateIdle {
		if current := g.sessions.Session().AccessToken(); current != "" && current != sentAccessToken {
			g.mu.Unlock()
			g.log.Debug().Str("request", label).Msg("session already refreshed, replaying with current token")
			return current, nil
		}
	}
	if g.state == stateRefreshInFlight {
		wait := g.enqueue(label)
		g.mu.Unlock()
		g.metrics.QueuedRequests.Inc()

		select {
		case outcome := <-wait:
			return outcome.accessToken, outcome.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	g.state = stateRefreshInFlight
	g.mu.Unlock()

	g.log.Debug().Str("request", label).Msg("access token rejected, refreshing")

	// the refresh outlives the initiator so that queued requests are not failed by
	// one caller giving up
	accessToken, err := g.refresh(context.WithoutCancel(ctx))

	g.mu.Lock()
	queue := g.queue
	g.queue = nil
	g.state = stateIdle
	g.mu.Unlock()

	outcome := refreshOutcome{accessToken: accessToken, err: err}
	for _, p := range queue {
		p.release(outcome)
		g.log.Trace().Uint64("seq", p.seq).Str("request", p.label).Msg("released queued request")
	}

	if err != nil {
		g.metrics.Refreshes.WithLabelValues(metrics.OutcomeFailure).Inc()
		g.log.Warn().Err(err).Int("queued", len(queue)).Msg("token refresh failed, logging out")
		g.sessions.Logout()
		g.nav.RedirectToLogin()
		return "", err
	}

	g.metrics.Refreshes.WithLabelValues(metrics.OutcomeSuccess).Inc()
	g.log.Debug().Int("queued", len(queue)).Msg("token refreshed")
	return accessToken, nil
}

// enqueue must be called with mu held. The channel is buffered so the drain never
// blocks on a waiter that has already gone away.
func (g *Gate) enqueue(label string) <-chan refreshOutcome {
	wait := make(chan refreshOutcome, 1)
	g.seq++
	g.queue = append(g.queue, pendingRequest{
		seq:   g.seq,
		label: label,
		release: func(o refreshOutcome) {
			wait <- o
		},
	})
	return wait
}

func (g *Gate) refresh(ctx context.Context) (string, error) {
	refreshToken := g.sessions.Session().RefreshToken()
	if refreshToken == "" {
		return "", fmt.Errorf("%w: %w", apperrors.ErrSessionExpired, apperrors.ErrNoRefreshToken)
	}

	pair, err := g.renewer.Renew(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrSessionExpired, err)
	}

	// the user is read again: only a session that still exists is updated
	if user := g.sessions.Session().User; user != nil {
		g.sessions.Login(*user, pair.AccessToken, pair.RefreshToken)
	}
	return pair.AccessToken, nil
}

// pending reports the number of parked requests.
func (g *Gate) pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}
