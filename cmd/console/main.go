// Command console is a terminal front end for the Livee admin console core.
//
//	console [-email e] [-password p] list [-page n] [-limit n]
//	console approve|reject <businessId> <branchId>
//	console delete-branch <branchId>
//	console delete-business <businessId>
//	console stats
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/livee-admin-console/apiclient"
	"github.com/jrsteele09/livee-admin-console/auth"
	"github.com/jrsteele09/livee-admin-console/business"
	"github.com/jrsteele09/livee-admin-console/internal/config"
	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
	"github.com/jrsteele09/livee-admin-console/internal/logging"
	"github.com/jrsteele09/livee-admin-console/internal/metrics"
	"github.com/jrsteele09/livee-admin-console/querycache"
	"github.com/jrsteele09/livee-admin-console/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var errUsage = errors.New("usage")

func main() {
	c := config.New()
	log.Logger = logging.New(c.GetLogLevel(), c.GetEnv(), os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, c, os.Args[1:], os.Stdout, log.Logger); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		log.Error().Err(err).Msg("console")
		os.Exit(1)
	}
}

// console is the wired core: one session, one refresh gate shared by the auth
// and admin clients, and the business service over a query cache.
type console struct {
	cfg        config.ClientConfig
	sessions   *session.Manager
	auth       *auth.Service
	businesses *business.Service
	grace      business.GracePolicy
	out        io.Writer
}

func newConsole(cfg config.ClientConfig, out io.Writer, logger zerolog.Logger) *console {
	m := metrics.New(prometheus.NewRegistry())
	sessions := session.New(session.WithLogger(logger))

	gate := apiclient.NewGate(sessions, auth.NewRefresher(cfg.GetAuthAPIURL(), nil), apiclient.NavigatorFunc(func() {
		fmt.Fprintln(out, "Session expired. Please log in again.")
	}), apiclient.WithGateLogger(logger), apiclient.WithGateMetrics(m))

	authClient := apiclient.New(cfg.GetAuthAPIURL(), gate, apiclient.WithName("auth"), apiclient.WithLogger(logger), apiclient.WithMetrics(m))
	adminClient := apiclient.New(cfg.GetAdminAPIURL(), gate, apiclient.WithName("admin"), apiclient.WithLogger(logger), apiclient.WithMetrics(m))

	cache := querycache.New[business.Page](
		querycache.WithStaleTime(cfg.GetStaleTime()),
		querycache.WithLogger(logger),
		querycache.WithMetrics(m),
	)

	return &console{
		cfg:      cfg,
		sessions: sessions,
		auth:     auth.NewService(authClient, sessions, auth.WithLogger(logger)),
		businesses: business.NewService(adminClient, cache,
			business.WithLogger(logger),
			business.WithMetrics(m),
			business.WithPageLimit(cfg.GetPageLimit()),
			business.WithDashboardLimit(cfg.GetDashboardPageLimit()),
		),
		grace: business.GracePolicy{Period: cfg.GetDeletionGracePeriod()},
		out:   out,
	}
}

func run(ctx context.Context, cfg config.Config, args []string, out io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("console", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", cfg.GetConsoleEmail(), "administrator email (CONSOLE_EMAIL)")
	password := fs.String("password", cfg.GetConsolePassword(), "administrator password (CONSOLE_PASSWORD)")
	quiet := fs.Bool("q", false, "do not print the banner")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	if err := config.ValidateClient(cfg); err != nil {
		return err
	}
	if !*quiet {
		figure.NewFigure(cfg.GetAppName()+" admin", "cybermedium", true).Print()
		fmt.Fprintln(out)
	}

	c := newConsole(cfg, out, logger)
	if err := c.login(ctx, *email, *password); err != nil {
		return err
	}
	defer c.auth.Logout()

	command, rest := fs.Arg(0), fs.Args()[1:]
	switch command {
	case "list":
		return c.list(ctx, rest)
	case "approve":
		return c.setStatus(ctx, rest, business.StatusApproved)
	case "reject":
		return c.setStatus(ctx, rest, business.StatusRejected)
	case "delete-branch":
		return c.deleteBranch(ctx, rest)
	case "delete-business":
		return c.deleteBusiness(ctx, rest)
	case "stats":
		return c.stats(ctx)
	default:
		fmt.Fprintf(out, "unknown command %q\n", command)
		return errUsage
	}
}

// login refuses to continue for anyone but an administrator.
func (c *console) login(ctx context.Context, email, password string) error {
	user, err := c.auth.Login(ctx, auth.LoginBody{Email: email, Password: password})
	if err != nil {
		return err
	}
	if !user.IsAdmin {
		c.auth.Logout()
		return fmt.Errorf("%s: %w", user.Email, apperrors.ErrNotAdmin)
	}
	fmt.Fprintf(c.out, "Logged in as %s\n", displayName(user))
	return nil
}

func displayName(u *session.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}
