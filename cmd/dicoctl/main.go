// Command dicoctl works on text dictionaries offline.
//
// Flags (exactly one mode):
//
//	-check  PATH  parse and build PATH, print its statistics
//	-import PATH  build PATH and save it to the database as a new revision
//	-export PATH  write the stored dictionary to PATH ("-" for stdout)
//	-config PATH  YAML config file, defaults to $CONFIG_PATH
//
// Exit codes: 0 = success, 1 = error, 2 = usage.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heartmarshall/synonyms-backend/internal/adapter/postgres"
	"github.com/heartmarshall/synonyms-backend/internal/adapter/postgres/snapshot"
	"github.com/heartmarshall/synonyms-backend/internal/app"
	"github.com/heartmarshall/synonyms-backend/internal/config"
	"github.com/heartmarshall/synonyms-backend/internal/dico"
	"github.com/heartmarshall/synonyms-backend/internal/dicofile"
	"github.com/heartmarshall/synonyms-backend/internal/domain"
)

var errUsage = errors.New("usage")

type options struct {
	check, importPath, exportPath, configPath string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		slog.Error("dicoctl failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dicoctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.check, "check", "", "parse and build a text dictionary without touching the database")
	fs.StringVar(&opts.importPath, "import", "", "save a text dictionary to the database")
	fs.StringVar(&opts.exportPath, "export", "", `write the stored dictionary to a file ("-" for stdout)`)
	fs.StringVar(&opts.configPath, "config", "", "YAML config file (default $CONFIG_PATH)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	modes := 0
	for _, v := range []string{opts.check, opts.importPath, opts.exportPath} {
		if v != "" {
			modes++
		}
	}
	if modes != 1 {
		fmt.Fprintln(stderr, "dicoctl: exactly one of -check, -import or -export is required")
		fs.Usage()
		return errUsage
	}

	if opts.check != "" {
		return check(stdout, opts.check)
	}

	path := opts.configPath
	if path == "" {
		path = os.Getenv(config.EnvConfigPath)
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg.Log)

	if !cfg.Database.Enabled() {
		return errors.New("database.dsn is required for -import and -export")
	}
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrations, err := postgres.Migrations(cfg.Database.MigrationsDir)
	if err != nil {
		return err
	}
	if err := postgres.Migrate(ctx, pool, migrations, logger); err != nil {
		return err
	}

	repo := snapshot.New(pool, postgres.NewTxManager(pool))
	if opts.importPath != "" {
		return importFile(ctx, repo, opts.importPath, stdout)
	}
	return exportFile(ctx, repo, opts.exportPath, stdout)
}

type checkReport struct {
	Parse      dicofile.Stats         `json:"parse"`
	Dictionary domain.DictionaryStats `json:"dictionary"`
}

func check(stdout io.Writer, path string) error {
	d, res, err := dicofile.LoadFile(path)
	if err != nil {
		return err
	}
	return printJSON(stdout, checkReport{Parse: res.Stats, Dictionary: d.Stats()})
}

func importFile(ctx context.Context, repo *snapshot.Repo, path string, stdout io.Writer) error {
	d, _, err := dicofile.LoadFile(path)
	if err != nil {
		return err
	}
	rev, err := repo.Save(ctx, d.Snapshot())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return printJSON(stdout, map[string]any{
		"revision":   rev.ID.String(),
		"radicals":   rev.Radicals,
		"groups":     rev.Groups,
		"created_at": rev.CreatedAt,
	})
}

func exportFile(ctx context.Context, repo *snapshot.Repo, path string, stdout io.Writer) (err error) {
	snap, err := repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	// Validates the stored rows before anything is written.
	d, err := dico.FromSnapshot(snap)
	if err != nil {
		return err
	}

	w := stdout
	if path != "-" {
		f, ferr := os.Create(path)
		if ferr != nil {
			return fmt.Errorf("create %s: %w", path, ferr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	return dicofile.Write(w, d.Snapshot())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
