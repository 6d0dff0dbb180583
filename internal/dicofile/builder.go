package dicofile

import (
	"fmt"
	"io"

	"github.com/heartmarshall/synonyms-backend/internal/dico"
	"github.com/heartmarshall/synonyms-backend/internal/domain"
)

// Build replays parsed records into a fresh dictionary. Each synonym line
// starts a new group; the remaining words of the line join it. On failure
// no dictionary is returned and the error wraps domain.ErrConstruction.
func Build(res ParseResult) (*dico.Dictionary, error) {
	d := dico.New()

	for _, e := range res.Entries {
		if err := d.AddRadical(e.Radical); err != nil {
			return nil, constructionError(e.Line, err)
		}
		for _, f := range e.Flexions {
			if err := d.AddFlexion(e.Radical, f); err != nil {
				return nil, constructionError(e.Line, fmt.Errorf("flexion %q: %w", f, err))
			}
		}
	}

	for _, s := range res.Synonyms {
		group := domain.NewGroup
		for _, syn := range s.Synonyms {
			g, err := d.AddSynonym(s.Radical, syn, group)
			if err != nil {
				return nil, constructionError(s.Line, fmt.Errorf("synonym %q of %q: %w", syn, s.Radical, err))
			}
			group = g
		}
	}

	return d, nil
}

// Load parses r and builds the dictionary it describes.
func Load(r io.Reader) (*dico.Dictionary, ParseResult, error) {
	res, err := Parse(r)
	if err != nil {
		return nil, ParseResult{}, fmt.Errorf("%w: %w", domain.ErrConstruction, err)
	}
	d, err := Build(res)
	if err != nil {
		return nil, res, err
	}
	return d, res, nil
}

// LoadFile is Load over the file at path.
func LoadFile(path string) (*dico.Dictionary, ParseResult, error) {
	res, err := ParseFile(path)
	if err != nil {
		return nil, ParseResult{}, fmt.Errorf("%w: %w", domain.ErrConstruction, err)
	}
	d, err := Build(res)
	if err != nil {
		return nil, res, err
	}
	return d, res, nil
}

func constructionError(line int, err error) error {
	return fmt.Errorf("%w: line %d: %w", domain.ErrConstruction, line, err)
}
