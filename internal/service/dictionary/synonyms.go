package dictionary

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/synonyms-backend/internal/dico"
	"github.com/heartmarshall/synonyms-backend/internal/domain"
)

// AddSynonym adds a synonym to one of the radical's synonym groups and
// returns the group id, which is new when input.Group is nil.
func (s *Service) AddSynonym(ctx context.Context, input AddSynonymInput) (domain.GroupID, error) {
	if err := input.Validate(s.cfg.MaxWordLength); err != nil {
		return domain.NewGroup, err
	}

	var group domain.GroupID
	err := s.write(ctx, "add_synonym", func(d *dico.Dictionary) error {
		g, err := d.AddSynonym(input.Radical, input.Synonym, input.group())
		group = g
		return err
	}, slog.String("radical", input.Radical), slog.String("synonym", input.Synonym))
	if err != nil {
		return domain.NewGroup, err
	}
	return group, nil
}

// RemoveSynonym removes a synonym from a group the radical takes part in.
// An emptied group is erased and later group ids shift down by one.
func (s *Service) RemoveSynonym(ctx context.Context, input RemoveSynonymInput) error {
	if err := input.Validate(s.cfg.MaxWordLength); err != nil {
		return err
	}

	return s.write(ctx, "remove_synonym", func(d *dico.Dictionary) error {
		return d.RemoveSynonym(input.Radical, input.Synonym, domain.GroupID(input.Group))
	},
		slog.String("radical", input.Radical),
		slog.String("synonym", input.Synonym),
		slog.Int("group", input.Group),
	)
}
