package dictionary

import (
	"context"

	"github.com/heartmarshall/synonyms-backend/internal/dico"
	"github.com/heartmarshall/synonyms-backend/internal/domain"
)

// ResolveRadical returns the radical that word is an inflected form of.
func (s *Service) ResolveRadical(_ context.Context, word string) (string, error) {
	word, err := normalizeWord("word", word, s.cfg.MaxWordLength)
	if err != nil {
		return "", err
	}

	var radical string
	err = s.read("resolve_radical", func(d *dico.Dictionary) error {
		var err error
		radical, err = d.ResolveRadical(word)
		return err
	})
	return radical, err
}

// Radicals returns every radical in key order.
func (s *Service) Radicals(_ context.Context) []string {
	var keys []string
	_ = s.read("list_radicals", func(d *dico.Dictionary) error {
		keys = d.Radicals()
		return nil
	})
	return keys
}

// Radical returns one radical with its flexions and group ids.
func (s *Service) Radical(_ context.Context, radical string) (domain.Radical, error) {
	radical, err := normalizeWord("radical", radical, s.cfg.MaxWordLength)
	if err != nil {
		return domain.Radical{}, err
	}

	var r domain.Radical
	err = s.read("get_radical", func(d *dico.Dictionary) error {
		var err error
		r, err = d.Radical(radical)
		return err
	})
	return r, err
}

// Flexions returns the inflected forms of a radical.
func (s *Service) Flexions(_ context.Context, radical string) ([]string, error) {
	radical, err := normalizeWord("radical", radical, s.cfg.MaxWordLength)
	if err != nil {
		return nil, err
	}

	var flexions []string
	err = s.read("list_flexions", func(d *dico.Dictionary) error {
		var err error
		flexions, err = d.Flexions(radical)
		return err
	})
	return flexions, err
}

// SenseCount returns the number of senses of a radical.
func (s *Service) SenseCount(_ context.Context, radical string) (int, error) {
	radical, err := normalizeWord("radical", radical, s.cfg.MaxWordLength)
	if err != nil {
		return 0, err
	}

	var n int
	err = s.read("sense_count", func(d *dico.Dictionary) error {
		var err error
		n, err = d.SenseCount(radical)
		return err
	})
	return n, err
}

// Senses returns every sense of a radical with its members.
func (s *Service) Senses(_ context.Context, radical string) ([]domain.Sense, error) {
	radical, err := normalizeWord("radical", radical, s.cfg.MaxWordLength)
	if err != nil {
		return nil, err
	}

	var senses []domain.Sense
	err = s.read("list_senses", func(d *dico.Dictionary) error {
		var err error
		senses, err = d.Senses(radical)
		return err
	})
	return senses, err
}

// Sense returns the first member of the synonym group at position.
func (s *Service) Sense(_ context.Context, radical string, position int) (string, error) {
	radical, err := normalizeWord("radical", radical, s.cfg.MaxWordLength)
	if err != nil {
		return "", err
	}
	if err := validatePosition(position); err != nil {
		return "", err
	}

	var word string
	err = s.read("get_sense", func(d *dico.Dictionary) error {
		var err error
		word, err = d.Sense(radical, position)
		return err
	})
	return word, err
}

// Synonyms returns every member of the synonym group at position.
func (s *Service) Synonyms(_ context.Context, radical string, position int) ([]string, error) {
	radical, err := normalizeWord("radical", radical, s.cfg.MaxWordLength)
	if err != nil {
		return nil, err
	}
	if err := validatePosition(position); err != nil {
		return nil, err
	}

	var members []string
	err = s.read("list_synonyms", func(d *dico.Dictionary) error {
		var err error
		members, err = d.Synonyms(radical, position)
		return err
	})
	return members, err
}

// Stats summarises the dictionary, including a full balance check.
func (s *Service) Stats(_ context.Context) domain.DictionaryStats {
	var st domain.DictionaryStats
	_ = s.read("stats", func(d *dico.Dictionary) error {
		st = d.Stats()
		return nil
	})
	return st
}
