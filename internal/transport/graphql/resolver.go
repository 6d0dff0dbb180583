package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/heartmarshall/synonyms-backend/internal/domain"
	"github.com/heartmarshall/synonyms-backend/internal/service/dictionary"
)

// dictionaryService defines what the resolver needs from the dictionary service.
type dictionaryService interface {
	AddRadical(ctx context.Context, radical string) error
	RemoveRadical(ctx context.Context, radical string) error
	AddFlexion(ctx context.Context, radical, flexion string) error
	RemoveFlexion(ctx context.Context, radical, flexion string) error
	AddSynonym(ctx context.Context, input dictionary.AddSynonymInput) (domain.GroupID, error)
	RemoveSynonym(ctx context.Context, input dictionary.RemoveSynonymInput) error

	ResolveRadical(ctx context.Context, word string) (string, error)
	Radicals(ctx context.Context) []string
	Radical(ctx context.Context, radical string) (domain.Radical, error)
	SenseCount(ctx context.Context, radical string) (int, error)
	Senses(ctx context.Context, radical string) ([]domain.Sense, error)
	Sense(ctx context.Context, radical string, position int) (string, error)
	Stats(ctx context.Context) domain.DictionaryStats
}

// sense is a Sense object: a synonym group seen from one radical.
type sense struct {
	Radical string
	domain.Sense
}

// fieldFunc resolves one field of an object. obj is the parent value and
// args the coerced field arguments. A nil result with a nil error is a
// GraphQL null.
type fieldFunc func(ctx context.Context, obj any, args map[string]any) (any, error)

// Resolver is the root resolver over the dictionary service.
type Resolver struct {
	dictionary dictionaryService
	log        *slog.Logger

	types map[string]map[string]fieldFunc
}

// NewResolver creates a Resolver.
func NewResolver(log *slog.Logger, dictionary dictionaryService) *Resolver {
	r := &Resolver{dictionary: dictionary, log: log.With("component", "graphql")}
	r.types = map[string]map[string]fieldFunc{
		"Query": {
			"radicals": r.queryRadicals,
			"radical":  r.queryRadical,
			"resolve":  r.queryResolve,
			"stats": func(ctx context.Context, _ any, _ map[string]any) (any, error) {
				return r.dictionary.Stats(ctx), nil
			},
		},
		"Mutation": {
			"addRadical":    r.mutAddRadical,
			"removeRadical": r.mutRemoveRadical,
			"addFlexion":    r.mutAddFlexion,
			"removeFlexion": r.mutRemoveFlexion,
			"addSynonym":    r.mutAddSynonym,
			"removeSynonym": r.mutRemoveSynonym,
		},
		"Radical": {
			"key":        radicalField(func(rad domain.Radical) any { return rad.Key }),
			"flexions":   radicalField(func(rad domain.Radical) any { return wordList(rad.Flexions) }),
			"senseCount": r.radicalSenseCount,
			"senses":     r.radicalSenses,
			"sense":      r.radicalSense,
		},
		"Sense": {
			"radical":  senseField(func(s sense) any { return s.Radical }),
			"position": senseField(func(s sense) any { return s.Position }),
			"group":    senseField(func(s sense) any { return int(s.Group) }),
			"words":    senseField(func(s sense) any { return wordList(s.Members) }),
			"first":    r.senseFirst,
			"members":  r.senseMembers,
		},
		"Stats": {
			"radicals": statsField(func(s domain.DictionaryStats) any { return s.Radicals }),
			"groups":   statsField(func(s domain.DictionaryStats) any { return s.Groups }),
			"height":   statsField(func(s domain.DictionaryStats) any { return s.Height }),
			"balanced": statsField(func(s domain.DictionaryStats) any { return s.Balanced }),
		},
	}
	return r
}

// field returns the resolver of typeName.fieldName.
func (r *Resolver) field(typeName, fieldName string) (fieldFunc, bool) {
	f, ok := r.types[typeName][fieldName]
	return f, ok
}

// ---------------------------------------------------------------------------
// Query
// ---------------------------------------------------------------------------

func (r *Resolver) queryRadicals(ctx context.Context, _ any, _ map[string]any) (any, error) {
	keys := r.dictionary.Radicals(ctx)
	out := make([]any, 0, len(keys))
	for _, key := range keys {
		rad, err := r.dictionary.Radical(ctx, key)
		if errors.Is(err, domain.ErrNotFound) {
			// Removed since the key list was read.
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rad)
	}
	return out, nil
}

func (r *Resolver) queryRadical(ctx context.Context, _ any, args map[string]any) (any, error) {
	return r.radicalOrNull(ctx, stringArg(args, "key"))
}

func (r *Resolver) queryResolve(ctx context.Context, _ any, args map[string]any) (any, error) {
	key, err := r.dictionary.ResolveRadical(ctx, stringArg(args, "word"))
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrEmptyTree) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.radicalOrNull(ctx, key)
}

func (r *Resolver) radicalOrNull(ctx context.Context, key string) (any, error) {
	rad, err := r.dictionary.Radical(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rad, nil
}

// ---------------------------------------------------------------------------
// Mutation
// ---------------------------------------------------------------------------

func (r *Resolver) mutAddRadical(ctx context.Context, _ any, args map[string]any) (any, error) {
	key := stringArg(args, "key")
	if err := r.dictionary.AddRadical(ctx, key); err != nil {
		return nil, err
	}
	return r.dictionary.Radical(ctx, key)
}

func (r *Resolver) mutRemoveRadical(ctx context.Context, _ any, args map[string]any) (any, error) {
	if err := r.dictionary.RemoveRadical(ctx, stringArg(args, "key")); err != nil {
		return nil, err
	}
	return true, nil
}

func (r *Resolver) mutAddFlexion(ctx context.Context, _ any, args map[string]any) (any, error) {
	radical := stringArg(args, "radical")
	if err := r.dictionary.AddFlexion(ctx, radical, stringArg(args, "flexion")); err != nil {
		return nil, err
	}
	return r.dictionary.Radical(ctx, radical)
}

func (r *Resolver) mutRemoveFlexion(ctx context.Context, _ any, args map[string]any) (any, error) {
	radical := stringArg(args, "radical")
	if err := r.dictionary.RemoveFlexion(ctx, radical, stringArg(args, "flexion")); err != nil {
		return nil, err
	}
	return r.dictionary.Radical(ctx, radical)
}

func (r *Resolver) mutAddSynonym(ctx context.Context, _ any, args map[string]any) (any, error) {
	input := dictionary.AddSynonymInput{
		Radical: stringArg(args, "radical"),
		Synonym: stringArg(args, "synonym"),
	}
	group, set, err := intArg(args, "group")
	if err != nil {
		return nil, err
	}
	if set {
		input.Group = &group
	}

	id, err := r.dictionary.AddSynonym(ctx, input)
	if err != nil {
		return nil, err
	}

	radical := domain.NormalizeWord(input.Radical)
	senses, err := r.dictionary.Senses(ctx, radical)
	if err != nil {
		return nil, err
	}
	for _, s := range senses {
		if s.Group == id {
			return sense{Radical: radical, Sense: s}, nil
		}
	}
	return nil, fmt.Errorf("group %d of %q: %w", id, radical, domain.ErrInvalidGroupID)
}

func (r *Resolver) mutRemoveSynonym(ctx context.Context, _ any, args map[string]any) (any, error) {
	group, _, err := intArg(args, "group")
	if err != nil {
		return nil, err
	}
	err = r.dictionary.RemoveSynonym(ctx, dictionary.RemoveSynonymInput{
		Radical: stringArg(args, "radical"),
		Synonym: stringArg(args, "synonym"),
		Group:   group,
	})
	if err != nil {
		return nil, err
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// Radical and Sense
// ---------------------------------------------------------------------------

func (r *Resolver) radicalSenseCount(ctx context.Context, obj any, _ map[string]any) (any, error) {
	n, err := r.dictionary.SenseCount(ctx, obj.(domain.Radical).Key)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *Resolver) radicalSenses(ctx context.Context, obj any, _ map[string]any) (any, error) {
	key := obj.(domain.Radical).Key
	senses, err := r.dictionary.Senses(ctx, key)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(senses))
	for i, s := range senses {
		out[i] = sense{Radical: key, Sense: s}
	}
	return out, nil
}

func (r *Resolver) radicalSense(ctx context.Context, obj any, args map[string]any) (any, error) {
	position, _, err := intArg(args, "position")
	if err != nil {
		return nil, err
	}
	key := obj.(domain.Radical).Key
	senses, err := r.dictionary.Senses(ctx, key)
	if err != nil {
		return nil, err
	}
	if position < 0 || position >= len(senses) {
		return nil, nil
	}
	return sense{Radical: key, Sense: senses[position]}, nil
}

func (r *Resolver) senseFirst(ctx context.Context, obj any, _ map[string]any) (any, error) {
	s := obj.(sense)
	word, err := r.dictionary.Sense(ctx, s.Radical, s.Position)
	if err != nil {
		return nil, err
	}
	return word, nil
}

func (r *Resolver) senseMembers(ctx context.Context, obj any, _ map[string]any) (any, error) {
	s := obj.(sense)
	out := make([]any, 0, len(s.Members))
	for _, m := range s.Members {
		rad, err := r.dictionary.Radical(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", m, err)
		}
		out = append(out, rad)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func radicalField(get func(domain.Radical) any) fieldFunc {
	return func(_ context.Context, obj any, _ map[string]any) (any, error) {
		return get(obj.(domain.Radical)), nil
	}
}

func senseField(get func(sense) any) fieldFunc {
	return func(_ context.Context, obj any, _ map[string]any) (any, error) {
		return get(obj.(sense)), nil
	}
}

func statsField(get func(domain.DictionaryStats) any) fieldFunc {
	return func(_ context.Context, obj any, _ map[string]any) (any, error) {
		return get(obj.(domain.DictionaryStats)), nil
	}
}

// wordList converts words to list values.
func wordList(words []string) []any {
	out := make([]any, len(words))
	for i, w := range words {
		out[i] = w
	}
	return out
}

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

// intArg reads an Int argument. Literals arrive as int64, variables as
// json.Number or float64 depending on how the request was decoded.
func intArg(args map[string]any, name string) (int, bool, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, false, nil
	}
	var n int64
	switch v := v.(type) {
	case int:
		return v, true, nil
	case int64:
		n = v
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, false, domain.NewValidationError(name, "must be an integer")
		}
		n = i
	case float64:
		if v != math.Trunc(v) {
			return 0, false, domain.NewValidationError(name, "must be an integer")
		}
		n = int64(v)
	default:
		return 0, false, domain.NewValidationError(name, "must be an integer")
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false, domain.NewValidationError(name, "out of range")
	}
	return int(n), true, nil
}
