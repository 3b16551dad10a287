package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	authAPIURLVar      = "AUTH_API_URL"
	adminAPIURLVar     = "ADMIN_API_URL"
	pageLimitVar       = "PAGE_LIMIT"
	dashboardLimitVar  = "DASHBOARD_PAGE_LIMIT"
	staleTimeVar       = "STALE_TIME"
	deletionGraceVar   = "BRANCH_DELETION_GRACE"
	consoleEmailVar    = "CONSOLE_EMAIL"
	consolePasswordVar = "CONSOLE_PASSWORD"
)

// ClientConfig holds the settings the console needs to talk to the platform APIs.
type ClientConfig interface {
	GetAuthAPIURL() string
	GetAdminAPIURL() string
	GetPageLimit() int
	GetDashboardPageLimit() int
	GetStaleTime() time.Duration
	GetDeletionGracePeriod() time.Duration
	GetConsoleEmail() string
	GetConsolePassword() string
}

type Client struct{}

var _ ClientConfig = Client{}

func (Client) GetAuthAPIURL() string {
	return strings.TrimRight(GetEnv(authAPIURLVar, ""), "/")
}

func (Client) GetAdminAPIURL() string {
	return strings.TrimRight(GetEnv(adminAPIURLVar, ""), "/")
}

func (Client) GetPageLimit() int {
	return GetEnvInt(pageLimitVar, 10)
}

// GetDashboardPageLimit is the page size used when the dashboard aggregates over every business.
func (Client) GetDashboardPageLimit() int {
	return GetEnvInt(dashboardLimitVar, 500)
}

func (Client) GetStaleTime() time.Duration {
	return GetEnvDuration(staleTimeVar, 5*time.Minute)
}

func (Client) GetDeletionGracePeriod() time.Duration {
	return GetEnvDuration(deletionGraceVar, 30*24*time.Hour)
}

func (Client) GetConsoleEmail() string {
	return GetEnv(consoleEmailVar, "")
}

func (Client) GetConsolePassword() string {
	return GetEnv(consolePasswordVar, "")
}

// ValidateClient reports every missing or malformed API base URL in one error.
func ValidateClient(c ClientConfig) error {
	var problems []string
	for name, value := range map[string]string{
		authAPIURLVar:  c.GetAuthAPIURL(),
		adminAPIURLVar: c.GetAdminAPIURL(),
	} {
		if value == "" {
			problems = append(problems, "missing required environment variable: "+name)
			continue
		}
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("invalid URL in %s: %q", name, value))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("config: %s", strings.Join(problems, "; "))
}
