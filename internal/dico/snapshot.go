package dico

import (
	"fmt"
	"slices"

	"github.com/heartmarshall/synonyms-backend/internal/domain"
	"github.com/heartmarshall/synonyms-backend/internal/index"
)

// Snapshot returns a detached copy of the full dictionary state. Radicals are
// in key order and group ids are preserved exactly.
func (d *Dictionary) Snapshot() domain.Snapshot {
	radicals := make([]domain.Radical, 0, d.radicals.Len())
	d.radicals.Walk(func(n *index.Node) bool {
		radicals = append(radicals, n.Radical())
		return true
	})
	return domain.Snapshot{
		Radicals: radicals,
		Groups:   d.groups.Groups(),
	}
}

// FromSnapshot rebuilds a dictionary from s. The snapshot is checked first:
// keys must be unique and non-empty, every sense must reference an existing
// group and every group member must be an indexed radical. Failures wrap
// domain.ErrConstruction and no dictionary is returned.
func FromSnapshot(s domain.Snapshot) (*Dictionary, error) {
	keys := make(map[string]struct{}, len(s.Radicals))
	for _, r := range s.Radicals {
		if r.Key == "" {
			return nil, fmt.Errorf("%w: empty radical key", domain.ErrConstruction)
		}
		if _, dup := keys[r.Key]; dup {
			return nil, fmt.Errorf("%w: radical %q listed twice", domain.ErrConstruction, r.Key)
		}
		keys[r.Key] = struct{}{}

		for _, g := range r.Groups {
			if g < 0 || int(g) >= len(s.Groups) {
				return nil, fmt.Errorf("%w: radical %q references group %d of %d",
					domain.ErrConstruction, r.Key, g, len(s.Groups))
			}
		}
	}
	for id, members := range s.Groups {
		for _, m := range members {
			if _, ok := keys[m]; !ok {
				return nil, fmt.Errorf("%w: group %d lists unknown radical %q",
					domain.ErrConstruction, id, m)
			}
		}
	}

	d := New()
	for _, r := range s.Radicals {
		n, err := d.radicals.Insert(r.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConstruction, err)
		}
		n.Flexions = slices.Clone(r.Flexions)
		n.Groups = slices.Clone(r.Groups)
	}
	d.groups.Restore(s.Groups)
	return d, nil
}
