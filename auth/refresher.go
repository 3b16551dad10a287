package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/livee-admin-console/apiclient"
	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
	"github.com/jrsteele09/livee-admin-console/session"
)

// Refresher calls the refresh endpoint directly on the auth base URL. It does not
// go through an apiclient.Client, so a rejected refresh never re-enters the gate.
type Refresher struct {
	baseURL    string
	httpClient *http.Client
}

func NewRefresher(authBaseURL string, httpClient *http.Client) *Refresher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Refresher{baseURL: strings.TrimSuffix(authBaseURL, "/"), httpClient: httpClient}
}

func (r *Refresher) Renew(ctx context.Context, refreshToken string) (session.TokenPair, error) {
	payload, err := json.Marshal(RefreshTokenBody{RefreshToken: refreshToken})
	if err != nil {
		return session.TokenPair{}, fmt.Errorf("[auth.Renew] encode: %w", err)
	}

	target := r.baseURL + RouteRefresh
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return session.TokenPair{}, fmt.Errorf("[auth.Renew] build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return session.TokenPair{}, fmt.Errorf("[auth.Renew] %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return session.TokenPair{}, fmt.Errorf("[auth.Renew] read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return session.TokenPair{}, apiclient.NewAPIError(http.MethodPost, target, resp.StatusCode, data)
	}

	var pair session.TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return session.TokenPair{}, fmt.Errorf("[auth.Renew] decode response: %w", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return session.TokenPair{}, apperrors.Wrapf(apperrors.ErrInvalidRefreshToken, "[auth.Renew] response is missing tokens")
	}
	return pair, nil
}
