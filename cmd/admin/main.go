// Package main provides the storebot operator administration tool.
//
// Usage:
//
//	admin store-add -name "Corner Shop" -slug corner
//	admin operator-add -store 1 -name Dana -phone 972501234567 -lang he
//	admin token -operator 1 -ttl 24h
//	admin snapshot
//	admin restore [-force]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/garyellow/storebot/internal/catalog"
	"github.com/garyellow/storebot/internal/config"
	"github.com/garyellow/storebot/internal/i18n"
	"github.com/garyellow/storebot/internal/logger"
	"github.com/garyellow/storebot/internal/r2client"
	"github.com/garyellow/storebot/internal/simulator"
	"github.com/garyellow/storebot/internal/snapshot"
	"github.com/garyellow/storebot/internal/storage"
)

const usage = `usage: admin <command> [flags]

commands:
  store-add      create a store
  operator-add   register an operator for a store
  token          issue a simulator token for an operator
  snapshot       upload a database snapshot to R2 now
  restore        restore the newest R2 snapshot into the data directory`

func main() {
	if len(os.Args) < 2 {
		_, _ = fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	// Channel credentials are not required for administration.
	cfg, err := config.LoadForMode(config.AdminMode)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		stop()
		os.Exit(1)
	}
}

// run dispatches one subcommand. Results are written to out.
func run(ctx context.Context, cfg *config.Config, log *logger.Logger, command string, args []string, out io.Writer) error {
	switch command {
	case "store-add":
		return storeAdd(ctx, cfg, args, out)
	case "operator-add":
		return operatorAdd(ctx, cfg, args, out)
	case "token":
		return issueToken(ctx, cfg, args, out)
	case "snapshot":
		return uploadSnapshot(ctx, cfg, log, out)
	case "restore":
		return restoreSnapshot(ctx, cfg, log, args, out)
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

func storeAdd(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("store-add", flag.ContinueOnError)
	fs.SetOutput(out)
	name := fs.String("name", "", "Store display name")
	slug := fs.String("slug", "", "Unique store slug (default: derived from name)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*name) == "" {
		return errors.New("-name is required")
	}
	if *slug == "" {
		*slug = slugify(*name)
	}
	if *slug == "" {
		return errors.New("-slug is required when the name has no latin letters or digits")
	}

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	store, err := db.CreateStore(ctx, strings.TrimSpace(*name), *slug)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "store %d created (slug %s)\n", store.ID, store.Slug)
	return nil
}

func operatorAdd(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("operator-add", flag.ContinueOnError)
	fs.SetOutput(out)
	storeID := fs.Int64("store", 0, "Store id")
	name := fs.String("name", "", "Operator name")
	phone := fs.String("phone", "", "WhatsApp phone number")
	lineUser := fs.String("line", "", "LINE user id")
	lang := fs.String("lang", cfg.Bot.DefaultLanguage, "Conversation language")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *storeID <= 0 {
		return errors.New("-store is required")
	}
	if storage.NormalizePhone(*phone) == "" && *lineUser == "" {
		return errors.New("at least one of -phone or -line is required")
	}
	cat := i18n.New()
	if !cat.Supported(*lang) {
		return fmt.Errorf("unsupported language %q", *lang)
	}

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	store, err := db.FindStore(ctx, *storeID)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("store %d not found", *storeID)
	}

	op, err := db.CreateOperator(ctx, &catalog.Operator{
		StoreID:    store.ID,
		Name:       strings.TrimSpace(*name),
		Phone:      *phone,
		LineUserID: *lineUser,
		Language:   *lang,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "operator %d created for store %s\n", op.ID, store.Slug)
	return nil
}

func issueToken(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(out)
	operatorID := fs.Int64("operator", 0, "Operator id")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cfg.Simulator.JWTSecret == "" {
		return fmt.Errorf("%s is not set", config.EnvSimulatorJWTSecret)
	}
	if *operatorID <= 0 {
		return errors.New("-operator is required")
	}
	if *ttl <= 0 {
		return errors.New("-ttl must be positive")
	}

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	op, err := db.FindOperator(ctx, *operatorID)
	if err != nil {
		return err
	}
	if op == nil {
		return fmt.Errorf("operator %d not found", *operatorID)
	}

	token, err := simulator.IssueToken(cfg.Simulator.JWTSecret, op.ID, *ttl)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, token)
	return nil
}

func uploadSnapshot(ctx context.Context, cfg *config.Config, log *logger.Logger, out io.Writer) error {
	manager, err := newSnapshotManager(ctx, cfg, log)
	if err != nil {
		return err
	}

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	uploadCtx, cancel := context.WithTimeout(ctx, config.SnapshotUpload)
	defer cancel()

	key, err := manager.Upload(uploadCtx, db)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "snapshot uploaded: %s\n", key)
	return nil
}

func restoreSnapshot(ctx context.Context, cfg *config.Config, log *logger.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	fs.SetOutput(out)
	force := fs.Bool("force", false, "Overwrite an existing database file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := cfg.SQLitePath()
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s exists; pass -force to overwrite it", path)
	}

	manager, err := newSnapshotManager(ctx, cfg, log)
	if err != nil {
		return err
	}

	restoreCtx, cancel := context.WithTimeout(ctx, config.SnapshotUpload)
	defer cancel()

	key, err := manager.Restore(restoreCtx, path)
	if err != nil {
		return err
	}
	// Stale WAL files would be replayed over the restored copy.
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
	_, _ = fmt.Fprintf(out, "restored %s into %s\n", key, path)
	return nil
}

func newSnapshotManager(ctx context.Context, cfg *config.Config, log *logger.Logger) (*snapshot.Manager, error) {
	if !cfg.R2Enabled() {
		return nil, errors.New("R2 is not configured")
	}
	client, err := r2client.New(ctx, r2client.Config{
		AccountID:       cfg.R2.AccountID,
		AccessKeyID:     cfg.R2.AccessKeyID,
		SecretAccessKey: cfg.R2.SecretAccessKey,
		BucketName:      cfg.R2.BucketName,
		PublicBaseURL:   cfg.R2.PublicBaseURL,
	})
	if err != nil {
		return nil, err
	}
	return snapshot.New(client, snapshot.Config{Prefix: cfg.R2.SnapshotPrefix}, nil, log), nil
}

// slugify lowercases name and joins its latin letters and digits with dashes.
func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
	}
	return b.String()
}
