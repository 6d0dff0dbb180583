package dico

import (
	"slices"

	"github.com/heartmarshall/synonyms-backend/internal/domain"
	"github.com/heartmarshall/synonyms-backend/internal/index"
	"github.com/heartmarshall/synonyms-backend/internal/similarity"
)

// ResolveRadical returns the radical that word is an inflected form of.
//
// Every radical is scanned: flexions are not sort keys, so the index cannot
// be descended on them. When several radicals list word, the one whose key
// scores highest against word wins; ties keep the first in key order.
func (d *Dictionary) ResolveRadical(word string) (string, error) {
	if d.radicals.IsEmpty() {
		return "", domain.ErrEmptyTree
	}

	var (
		best      *index.Node
		bestScore float64
	)
	d.radicals.Walk(func(n *index.Node) bool {
		if !n.HasFlexion(word) {
			return true
		}
		if s := similarity.Score(n.Key, word); best == nil || s > bestScore {
			best, bestScore = n, s
		}
		return true
	})

	if best == nil {
		return "", domain.ErrFlexionNotFound
	}
	return best.Key, nil
}

// Find returns the radical reached by descending the index for word,
// matching either a key or a flexion of a node on the search path.
func (d *Dictionary) Find(word string) (domain.Radical, error) {
	n, ok := d.radicals.Find(word)
	if !ok {
		return domain.Radical{}, domain.ErrKeyNotFound
	}
	return n.Radical(), nil
}

// Radical returns a copy of the radical stored under key.
func (d *Dictionary) Radical(key string) (domain.Radical, error) {
	n, ok := d.radicals.Get(key)
	if !ok {
		return domain.Radical{}, domain.ErrKeyNotFound
	}
	return n.Radical(), nil
}

// Radicals returns every radical key in order.
func (d *Dictionary) Radicals() []string {
	keys := make([]string, 0, d.radicals.Len())
	d.radicals.Walk(func(n *index.Node) bool {
		keys = append(keys, n.Key)
		return true
	})
	return keys
}

// Flexions returns the flexions of radical in insertion order.
func (d *Dictionary) Flexions(radical string) ([]string, error) {
	n, ok := d.radicals.Get(radical)
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return slices.Clone(n.Flexions), nil
}

// SenseCount returns the number of synonym groups radical participates in.
func (d *Dictionary) SenseCount(radical string) (int, error) {
	n, ok := d.radicals.Get(radical)
	if !ok {
		return 0, domain.ErrKeyNotFound
	}
	return len(n.Groups), nil
}

// Sense returns the first member of the group at sense position of radical.
func (d *Dictionary) Sense(radical string, position int) (string, error) {
	group, err := d.senseGroup(radical, position)
	if err != nil {
		return "", err
	}
	return d.groups.First(group)
}

// Synonyms returns every member of the group at sense position of radical.
func (d *Dictionary) Synonyms(radical string, position int) ([]string, error) {
	group, err := d.senseGroup(radical, position)
	if err != nil {
		return nil, err
	}
	return d.groups.Members(group)
}

// Senses returns every sense of radical with its members.
func (d *Dictionary) Senses(radical string) ([]domain.Sense, error) {
	n, ok := d.radicals.Get(radical)
	if !ok {
		return nil, domain.ErrKeyNotFound
	}

	senses := make([]domain.Sense, 0, len(n.Groups))
	for pos, g := range n.Groups {
		members, err := d.groups.Members(g)
		if err != nil {
			return nil, err
		}
		senses = append(senses, domain.Sense{Position: pos, Group: g, Members: members})
	}
	return senses, nil
}

func (d *Dictionary) senseGroup(radical string, position int) (domain.GroupID, error) {
	n, ok := d.radicals.Get(radical)
	if !ok {
		return 0, domain.ErrKeyNotFound
	}
	if position < 0 || position >= len(n.Groups) {
		return 0, domain.ErrInvalidPosition
	}
	group := n.Groups[position]
	if !d.groups.Valid(group) {
		return 0, domain.ErrInvalidGroupID
	}
	return group, nil
}
