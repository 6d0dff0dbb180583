package dictionary

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/synonyms-backend/internal/dico"
)

// AddRadical indexes a new radical.
func (s *Service) AddRadical(ctx context.Context, radical string) error {
	radical, err := normalizeWord("radical", radical, s.cfg.MaxWordLength)
	if err != nil {
		return err
	}

	return s.write(ctx, "add_radical", func(d *dico.Dictionary) error {
		return d.AddRadical(radical)
	}, slog.String("radical", radical))
}

// RemoveRadical deletes a radical and its synonym-group memberships.
func (s *Service) RemoveRadical(ctx context.Context, radical string) error {
	radical, err := normalizeWord("radical", radical, s.cfg.MaxWordLength)
	if err != nil {
		return err
	}

	return s.write(ctx, "remove_radical", func(d *dico.Dictionary) error {
		return d.RemoveRadical(radical)
	}, slog.String("radical", radical))
}

// AddFlexion attaches an inflected form to a radical.
func (s *Service) AddFlexion(ctx context.Context, radical, flexion string) error {
	radical, err := normalizeWord("radical", radical, s.cfg.MaxWordLength)
	if err != nil {
		return err
	}
	flexion, err = normalizeWord("flexion", flexion, s.cfg.MaxWordLength)
	if err != nil {
		return err
	}

	return s.write(ctx, "add_flexion", func(d *dico.Dictionary) error {
		return d.AddFlexion(radical, flexion)
	}, slog.String("radical", radical), slog.String("flexion", flexion))
}

// RemoveFlexion detaches an inflected form from a radical.
func (s *Service) RemoveFlexion(ctx context.Context, radical, flexion string) error {
	radical, err := normalizeWord("radical", radical, s.cfg.MaxWordLength)
	if err != nil {
		return err
	}
	flexion, err = normalizeWord("flexion", flexion, s.cfg.MaxWordLength)
	if err != nil {
		return err
	}

	return s.write(ctx, "remove_flexion", func(d *dico.Dictionary) error {
		return d.RemoveFlexion(radical, flexion)
	}, slog.String("radical", radical), slog.String("flexion", flexion))
}
