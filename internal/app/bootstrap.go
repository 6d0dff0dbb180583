package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/heartmarshall/synonyms-backend/internal/config"
	"github.com/heartmarshall/synonyms-backend/internal/domain"
	"github.com/heartmarshall/synonyms-backend/internal/service/dictionary"
)

// bootstrap fills the dictionary at startup: from the last saved revision
// when there is one, otherwise from the seed file. Starting empty is fine.
func bootstrap(ctx context.Context, svc *dictionary.Service, cfg config.DictionaryConfig, logger *slog.Logger) error {
	if svc.Persistent() {
		_, err := svc.Restore(ctx)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, domain.ErrNotFound):
			logger.Info("no saved dictionary, falling back to seed")
		default:
			return fmt.Errorf("restore dictionary: %w", err)
		}
	}

	if cfg.SeedPath == "" {
		logger.Info("starting with an empty dictionary")
		return nil
	}

	f, err := os.Open(cfg.SeedPath)
	if err != nil {
		return fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	if _, err := svc.Import(ctx, f); err != nil {
		return fmt.Errorf("seed %s: %w", cfg.SeedPath, err)
	}
	return nil
}
