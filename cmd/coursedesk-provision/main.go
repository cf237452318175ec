// Command coursedesk-provision manages authorization records directly
// in the document store. It is the bootstrap path: the first
// administrator has to be provisioned from here, since the HTTP API
// requires an existing admin with manage_admins.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/coursedesk/coursedesk/pkg/admin"
	"github.com/coursedesk/coursedesk/pkg/adminstore"
)

var (
	redisURL    = flag.String("redis-url", getEnv("COURSEDESK_REDIS_URL", "redis://localhost:6379"), "Document store connection URL")
	email       = flag.String("email", "", "Administrator email address")
	role        = flag.String("role", admin.RoleEditor, "Role label (owner, editor, support)")
	permissions = flag.String("permissions", "", "Comma-separated permissions to grant")
	logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if parsed, err := logrus.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(parsed)
	}

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), logger); err != nil {
		logger.Fatalf("%v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: coursedesk-provision [flags] <command>

Commands:
  grant       Create or replace the record for -email with -role and -permissions
  revoke      Deactivate the record for -email
  reactivate  Reactivate the record for -email
  show        Print the record for -email
  list        Print all authorization records`)
	flag.PrintDefaults()
}

func run(command string, logger *logrus.Logger) error {
	store, err := adminstore.NewRedisStore(adminstore.RedisConfig{URL: *redisURL})
	if err != nil {
		return fmt.Errorf("failed to connect to document store: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch command {
	case "grant":
		return grant(ctx, store, logger)
	case "revoke":
		return setActive(ctx, store, logger, false)
	case "reactivate":
		return setActive(ctx, store, logger, true)
	case "show":
		return show(ctx, store)
	case "list":
		return list(ctx, store)
	default:
		usage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func requireEmail() error {
	if strings.TrimSpace(*email) == "" {
		return errors.New("-email is required")
	}
	return nil
}

func grant(ctx context.Context, store adminstore.Store, logger *logrus.Logger) error {
	if err := requireEmail(); err != nil {
		return err
	}

	perms := make(map[string]bool)
	for _, p := range strings.Split(*permissions, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			perms[trimmed] = true
		}
	}

	record := &admin.Record{
		Email:       strings.TrimSpace(*email),
		Active:      true,
		Role:        *role,
		Permissions: perms,
	}
	if err := store.Put(ctx, record); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"email": record.Email,
		"key":   record.Key,
		"role":  record.Role,
	}).Info("authorization record written")
	return nil
}

func setActive(ctx context.Context, store adminstore.Store, logger *logrus.Logger, active bool) error {
	if err := requireEmail(); err != nil {
		return err
	}

	err := store.SetActive(ctx, strings.TrimSpace(*email), active)
	if errors.Is(err, adminstore.ErrNotFound) {
		return fmt.Errorf("no authorization record for %s", *email)
	} else if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"email":  *email,
		"active": active,
	}).Info("authorization record updated")
	return nil
}

func show(ctx context.Context, store adminstore.Store) error {
	if err := requireEmail(); err != nil {
		return err
	}

	record, err := store.Get(ctx, strings.TrimSpace(*email))
	if errors.Is(err, adminstore.ErrNotFound) {
		return fmt.Errorf("no authorization record for %s", *email)
	} else if err != nil {
		return err
	}

	printRecord(record)
	return nil
}

func list(ctx context.Context, store adminstore.Store) error {
	records, err := store.List(ctx)
	if err != nil {
		return err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Email < records[j].Email })

	for _, record := range records {
		printRecord(record)
		fmt.Println()
	}
	fmt.Printf("%d record(s)\n", len(records))
	return nil
}

func printRecord(record *admin.Record) {
	fmt.Printf("email:       %s\n", record.Email)
	fmt.Printf("key:         %s\n", record.Key)
	fmt.Printf("active:      %t\n", record.Active)
	fmt.Printf("role:        %s\n", record.Role)

	granted := make([]string, 0, len(record.Permissions))
	for name, ok := range record.Permissions {
		if ok {
			granted = append(granted, name)
		}
	}
	sort.Strings(granted)
	fmt.Printf("permissions: %s\n", strings.Join(granted, ", "))
}
