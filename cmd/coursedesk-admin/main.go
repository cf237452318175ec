// Command coursedesk-admin manages the local administrative session:
// log in with platform credentials, inspect or renew the session, and
// log out. The session persists under the state directory so repeated
// invocations stay authenticated for eight hours of activity.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/coursedesk/coursedesk/pkg/admin"
	"github.com/coursedesk/coursedesk/pkg/adminsession"
	"github.com/coursedesk/coursedesk/pkg/adminstore"
	"github.com/coursedesk/coursedesk/pkg/config"
	"github.com/coursedesk/coursedesk/pkg/courses"
	"github.com/coursedesk/coursedesk/pkg/identity"
	"github.com/coursedesk/coursedesk/pkg/observability"
)

var (
	stateDir = flag.String("state-dir", defaultStateDir(), "Directory for the persisted session")
	logLevel = flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	logger := setupLogger(*logLevel)

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	if err := runCommand(flag.Arg(0), logger); err != nil {
		logger.Fatalf("%v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: coursedesk-admin [flags] <command>

Commands:
  login    Verify credentials and start an admin session
  status   Show the current session
  renew    Extend the session by the full lifetime
  logout   End the session
  courses  List the course catalog, drafts included (requires a session)`)
	flag.PrintDefaults()
}

func runCommand(command string, logger *logrus.Logger) error {
	sessionLogger := observability.NewLogger(observability.WarnLevel, os.Stderr)
	storage := adminsession.NewFileStorage(*stateDir)

	switch command {
	case "login":
		verifier, cleanup, err := buildVerifier(sessionLogger)
		if err != nil {
			return err
		}
		defer cleanup()

		manager := adminsession.NewManager(verifier, storage, nil, sessionLogger)
		return login(manager, logger)

	case "status":
		manager := adminsession.NewManager(nil, storage, nil, sessionLogger)
		return status(manager)

	case "renew":
		manager := adminsession.NewManager(nil, storage, nil, sessionLogger)
		if !manager.IsAuthenticated() {
			return errors.New("no active session; run login first")
		}
		manager.Renew()
		logger.Infof("session renewed until %s", manager.Current().ExpiresAt.Format(time.RFC3339))
		return nil

	case "logout":
		manager := adminsession.NewManager(nil, storage, nil, sessionLogger)
		manager.Logout()
		logger.Info("logged out")
		return nil

	case "courses":
		manager := adminsession.NewManager(nil, storage, nil, sessionLogger)
		if !manager.IsAuthenticated() {
			return errors.New("no active session; run login first")
		}
		// Catalog access counts as activity, so the session slides.
		manager.Renew()
		return listCourses()

	default:
		usage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func login(manager *adminsession.Manager, logger *logrus.Logger) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Fprint(os.Stderr, "Email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = manager.Login(ctx, strings.TrimSpace(email), strings.TrimSpace(password))
	switch {
	case errors.Is(err, admin.ErrInvalidCredentials):
		return errors.New("invalid email or password")
	case errors.Is(err, admin.ErrNotAuthorized):
		return errors.New("this account has no administrative access")
	case err != nil:
		return err
	}

	session := manager.Current()
	logger.WithFields(logrus.Fields{
		"email":   session.Email,
		"expires": session.ExpiresAt.Format(time.RFC3339),
	}).Info("logged in")
	return nil
}

func status(manager *adminsession.Manager) error {
	session := manager.Current()
	if session == nil {
		fmt.Println("not authenticated")
		return nil
	}
	fmt.Printf("email:   %s\n", session.Email)
	fmt.Printf("expires: %s (%s from now)\n",
		session.ExpiresAt.Format(time.RFC3339),
		time.Until(session.ExpiresAt).Round(time.Second))
	return nil
}

func listCourses() error {
	redisURL := os.Getenv("COURSEDESK_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	store, err := adminstore.NewRedisStore(adminstore.RedisConfig{URL: redisURL})
	if err != nil {
		return fmt.Errorf("failed to connect to document store: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	catalog, err := courses.NewRedisStore(store.Client()).List(ctx)
	if err != nil {
		return err
	}

	for _, course := range catalog {
		state := "published"
		if !course.Published {
			state = "draft"
		}
		fmt.Printf("%s  %-9s  %s\n", course.ID, state, course.Title)
	}
	fmt.Printf("%d course(s)\n", len(catalog))
	return nil
}

// buildVerifier wires the ephemeral credential verifier against the
// configured identity provider and document store.
func buildVerifier(logger *observability.Logger) (*identity.Verifier, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	store, err := adminstore.NewRedisStore(cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to document store: %w", err)
	}
	cleanup := func() { store.Close() }

	var factory identity.ClientFactory
	if cfg.Identity.Provider == "static" {
		factory = identity.NewStaticFactory(
			identity.NewStaticProvider(cfg.Identity.StaticUsers, adminsession.SessionTTL))
	} else {
		factory = identity.NewOIDCFactory(cfg.Identity.OIDC)
	}

	return identity.NewVerifier(factory, store, logger, nil), cleanup, nil
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".coursedesk"
	}
	return filepath.Join(home, ".coursedesk")
}

func setupLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.WarnLevel
	}
	logger.SetLevel(parsed)
	return logger
}
