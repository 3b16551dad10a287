package apiclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
	"github.com/jrsteele09/livee-admin-console/internal/metrics"
	"github.com/jrsteele09/livee-admin-console/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	staleAccess   = "stale-access"
	freshAccess   = "fresh-access"
	storedRefresh = "refresh-1"
)

var admin = session.User{ID: "u-1", Email: "admin@example.com", IsAdmin: true}

// backend accepts only the fresh access token.
type backend struct {
	*httptest.Server
	hits       atomic.Int32
	freshHits  atomic.Int32
	alwaysDeny bool
}

func newBackend(t *testing.T) *backend {
	b := &backend{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		if b.alwaysDeny || r.Header.Get("Authorization") != "Bearer "+freshAccess {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"statusCode":401,"message":"token expired"}`))
			return
		}
		b.freshHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"path": r.URL.Path})
	}))
	t.Cleanup(b.Close)
	return b
}

type fakeRenewer struct {
	calls   atomic.Int32
	release chan struct{}
	pair    session.TokenPair
	err     error
	ctxErr  error
}

func (f *fakeRenewer) Renew(ctx context.Context, refreshToken string) (session.TokenPair, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	f.ctxErr = ctx.Err()
	if f.err != nil {
		return session.TokenPair{}, f.err
	}
	return f.pair, nil
}

type countingNavigator struct{ calls atomic.Int32 }

func (n *countingNavigator) RedirectToLogin() { n.calls.Add(1) }

// syncBuffer lets several goroutines share one log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) lines() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(s.buf.Bytes()))
	for scanner.Scan() {
		var line map[string]any
		if json.Unmarshal(scanner.Bytes(), &line) == nil {
			out = append(out, line)
		}
	}
	return out
}

type fixture struct {
	sessions  *session.Manager
	renewer   *fakeRenewer
	navigator *countingNavigator
	gate      *Gate
	client    *Client
	backend   *backend
	metrics   *metrics.Collectors
	logs      *syncBuffer
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		sessions:  session.New(),
		renewer:   &fakeRenewer{pair: session.TokenPair{AccessToken: freshAccess, RefreshToken: "refresh-2"}},
		navigator: &countingNavigator{},
		backend:   newBackend(t),
		metrics:   metrics.New(prometheus.NewRegistry()),
		logs:      &syncBuffer{},
	}
	logger := zerolog.New(f.logs).Level(zerolog.TraceLevel)
	f.sessions.Login(admin, staleAccess, storedRefresh)
	f.gate = NewGate(f.sessions, f.renewer, f.navigator, WithGateLogger(logger), WithGateMetrics(f.metrics))
	f.client = New(f.backend.URL, f.gate, WithName("admin"), WithLogger(logger), WithMetrics(f.metrics))
	return f
}

// startBlocked arms the renewer so the first refresh waits for release.
func (f *fixture) startBlocked() chan struct{} {
	release := make(chan struct{})
	f.renewer.release = release
	return release
}

func TestClient_SingleFlightRefresh(t *testing.T) {
	f := newFixture(t)
	release := f.startBlocked()

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	results := make([]map[string]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.client.Get(context.Background(), fmt.Sprintf("/items/%d", i), nil, &results[i])
		}(i)
	}

	require.Eventually(t, func() bool { return f.gate.pending() == n-1 }, 5*time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, fmt.Sprintf("/items/%d", i), results[i]["path"])
	}
	require.EqualValues(t, 1, f.renewer.calls.Load())
	require.EqualValues(t, n, f.backend.freshHits.Load())
	require.EqualValues(t, 2*n, f.backend.hits.Load())
	require.Zero(t, f.gate.pending())

	s := f.sessions.Session()
	require.Equal(t, freshAccess, s.AccessToken())
	require.Equal(t, "refresh-2", s.RefreshToken())
	require.Equal(t, admin.ID, s.User.ID)

	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Refreshes.WithLabelValues(metrics.OutcomeSuccess)))
	require.Equal(t, float64(n-1), testutil.ToFloat64(f.metrics.QueuedRequests))
	require.Equal(t, float64(n), testutil.ToFloat64(f.metrics.Requests.WithLabelValues("admin", "4xx")))
	require.Equal(t, float64(n), testutil.ToFloat64(f.metrics.Requests.WithLabelValues("admin", "2xx")))
}

func TestClient_QueueReleasedInArrivalOrder(t *testing.T) {
	f := newFixture(t)
	release := f.startBlocked()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		require.NoError(t, f.client.Get(context.Background(), "/initiator", nil, nil))
	}()
	require.Eventually(t, func() bool { return f.renewer.calls.Load() == 1 }, 5*time.Second, time.Millisecond)

	const queued = 6
	for i := 1; i <= queued; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			require.NoError(t, f.client.Get(context.Background(), fmt.Sprintf("/queued/%d", i), nil, nil))
		}(i)
		require.Eventually(t, func() bool { return f.gate.pending() == i }, 5*time.Second, time.Millisecond)
	}

	close(release)
	wg.Wait()

	var released []string
	for _, line := range f.logs.lines() {
		if line["message"] == "released queued request" {
			released = append(released, line["request"].(string))
		}
	}
	require.Equal(t, []string{
		"GET /queued/1", "GET /queued/2", "GET /queued/3",
		"GET /queued/4", "GET /queued/5", "GET /queued/6",
	}, released)
}

func TestClient_RefreshFailureRejectsEveryone(t *testing.T) {
	f := newFixture(t)
	renewErr := errors.New("refresh rejected")
	f.renewer.err = renewErr
	release := f.startBlocked()

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.client.Get(context.Background(), "/items", nil, nil)
		}(i)
	}
	require.Eventually(t, func() bool { return f.gate.pending() == n-1 }, 5*time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		require.ErrorIs(t, err, apperrors.ErrSessionExpired)
		require.ErrorIs(t, err, renewErr)
	}
	require.EqualValues(t, 1, f.renewer.calls.Load())
	require.EqualValues(t, 1, f.navigator.calls.Load())
	require.False(t, f.sessions.IsAuthenticated())
	require.Nil(t, f.sessions.User())
	require.EqualValues(t, n, f.backend.hits.Load(), "nothing is replayed after a failed refresh")
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Refreshes.WithLabelValues(metrics.OutcomeFailure)))
}

func TestClient_MissingRefreshToken(t *testing.T) {
	f := newFixture(t)
	f.sessions.Login(admin, staleAccess, "")

	err := f.client.Get(context.Background(), "/items", nil, nil)
	require.ErrorIs(t, err, apperrors.ErrNoRefreshToken)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)
	require.Zero(t, f.renewer.calls.Load())
	require.EqualValues(t, 1, f.navigator.calls.Load())
	require.False(t, f.sessions.IsAuthenticated())
}

func TestClient_ReplaysAtMostOnce(t *testing.T) {
	f := newFixture(t)
	f.backend.alwaysDeny = true

	err := f.client.Get(context.Background(), "/items", nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.IsAuthError())
	require.Equal(t, "token expired", apiErr.Message)
	require.EqualValues(t, 1, f.renewer.calls.Load())
	require.EqualValues(t, 2, f.backend.hits.Load())
	require.Zero(t, f.navigator.calls.Load())
}

func TestClient_NonAuthErrorsPassThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/invalid":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"statusCode":422,"message":"validation failed","errors":{"status":["must be one of Pending, Approved, Rejected"]},"timestamp":"2024-01-01T00:00:00Z"}`))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		}
	}))
	defer srv.Close()

	f := newFixture(t)
	client := New(srv.URL, f.gate)

	err := client.Patch(context.Background(), "/invalid", map[string]string{"status": "Nope"}, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.IsValidationError())
	require.True(t, IsValidationError(err))
	require.Equal(t, []string{"must be one of Pending, Approved, Rejected"}, apiErr.Errors["status"])
	require.Equal(t, "2024-01-01T00:00:00Z", apiErr.Timestamp)
	require.Equal(t, http.MethodPatch, apiErr.Method)

	err = client.Delete(context.Background(), "/missing")
	require.True(t, IsNotFound(err))
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Not Found", apiErr.Message)

	err = client.Get(context.Background(), "/gateway", nil, nil)
	require.True(t, IsServerError(err))

	require.Zero(t, f.renewer.calls.Load())
}

func TestClient_TransportError(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(url, f.gate)
	err := client.Get(context.Background(), "/items", nil, nil)
	require.Error(t, err)
	require.Zero(t, StatusCode(err))
	require.Zero(t, f.renewer.calls.Load())
}

func TestClient_AnonymousRequests(t *testing.T) {
	var sawAuth atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			sawAuth.Store(true)
		}
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"statusCode":401,"message":"invalid credentials"}`))
	}))
	defer srv.Close()

	f := newFixture(t)
	client := New(srv.URL, f.gate)

	_, err := client.Do(context.Background(), &Request{
		Method:    http.MethodPost,
		Path:      "/auth/login",
		Body:      map[string]string{"email": "a@b.c", "password": "wrong"},
		Anonymous: true,
	})
	require.True(t, IsAuthError(err))
	require.False(t, sawAuth.Load())
	require.Zero(t, f.renewer.calls.Load())
	require.True(t, f.sessions.IsAuthenticated(), "a failed login leaves the session alone")
}

func TestClient_NoBearerWhenLoggedOut(t *testing.T) {
	var header atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	f := newFixture(t)
	f.sessions.Logout()
	client := New(srv.URL+"/", f.gate)

	require.NoError(t, client.Delete(context.Background(), "/admin/branches/b-1"))
	require.Equal(t, "", header.Load())
}

func TestClient_WaiterContextCancelled(t *testing.T) {
	f := newFixture(t)
	release := f.startBlocked()

	initiatorDone := make(chan error, 1)
	go func() {
		initiatorDone <- f.client.Get(context.Background(), "/initiator", nil, nil)
	}()
	require.Eventually(t, func() bool { return f.renewer.calls.Load() == 1 }, 5*time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	waiterDone := make(chan error, 1)
	go func() {
		waiterDone <- f.client.Get(ctx, "/waiter", nil, nil)
	}()
	require.Eventually(t, func() bool { return f.gate.pending() == 1 }, 5*time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-waiterDone, context.Canceled)

	close(release)
	require.NoError(t, <-initiatorDone)
	require.Zero(t, f.gate.pending())
}

func TestClient_RefreshOutlivesInitiator(t *testing.T) {
	f := newFixture(t)
	release := f.startBlocked()

	ctx, cancel := context.WithCancel(context.Background())
	initiatorDone := make(chan error, 1)
	go func() {
		initiatorDone <- f.client.Get(ctx, "/initiator", nil, nil)
	}()
	require.Eventually(t, func() bool { return f.renewer.calls.Load() == 1 }, 5*time.Second, time.Millisecond)

	waiterDone := make(chan error, 1)
	go func() {
		waiterDone <- f.client.Get(context.Background(), "/waiter", nil, nil)
	}()
	require.Eventually(t, func() bool { return f.gate.pending() == 1 }, 5*time.Second, time.Millisecond)

	cancel()
	close(release)

	require.ErrorIs(t, <-initiatorDone, context.Canceled)
	require.NoError(t, <-waiterDone)
	require.NoError(t, f.renewer.ctxErr)
	require.Equal(t, freshAccess, f.sessions.Session().AccessToken())
}

func TestClient_SharedGateAcrossClients(t *testing.T) {
	f := newFixture(t)
	other := New(f.backend.URL, f.gate, WithName("auth"))
	release := f.startBlocked()

	done := make(chan error, 2)
	go func() { done <- f.client.Get(context.Background(), "/a", nil, nil) }()
	require.Eventually(t, func() bool { return f.renewer.calls.Load() == 1 }, 5*time.Second, time.Millisecond)
	go func() { done <- other.Get(context.Background(), "/b", nil, nil) }()
	require.Eventually(t, func() bool { return f.gate.pending() == 1 }, 5*time.Second, time.Millisecond)

	close(release)
	require.NoError(t, <-done)
	require.NoError(t, <-done)
	require.EqualValues(t, 1, f.renewer.calls.Load())
}

func TestClient_LateRejectionReusesRefreshedToken(t *testing.T) {
	f := newFixture(t)

	// the session moves on while the request carrying the stale token is in flight
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+freshAccess {
			f.sessions.Login(admin, freshAccess, "refresh-2")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"path": r.URL.Path})
	}))
	t.Cleanup(srv.Close)
	client := New(srv.URL, f.gate, WithName("admin"))

	var out map[string]string
	require.NoError(t, client.Get(context.Background(), "/late", nil, &out))
	require.Equal(t, "/late", out["path"])
	require.EqualValues(t, 2, hits.Load())
	require.Zero(t, f.renewer.calls.Load())
	require.Equal(t, "refresh-2", f.sessions.Session().RefreshToken())
}

func TestGate_RecoverRotatesOncePerToken(t *testing.T) {
	f := newFixture(t)

	token, err := f.gate.Recover(context.Background(), "GET /x", staleAccess)
	require.NoError(t, err)
	require.Equal(t, freshAccess, token)
	require.EqualValues(t, 1, f.renewer.calls.Load())

	// a second late rejection of the stale token does not rotate the pair again
	token, err = f.gate.Recover(context.Background(), "GET /y", staleAccess)
	require.NoError(t, err)
	require.Equal(t, freshAccess, token)
	require.EqualValues(t, 1, f.renewer.calls.Load())
}
