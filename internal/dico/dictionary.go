// Package dico is the synonym dictionary: a radical index whose nodes carry
// flexions and synonym-group memberships, plus the synonym group table.
//
// Every operation validates its preconditions before mutating anything, so a
// returned error always leaves the dictionary unchanged. A Dictionary is not
// safe for concurrent use.
package dico

import (
	"slices"

	"github.com/heartmarshall/synonyms-backend/internal/domain"
	"github.com/heartmarshall/synonyms-backend/internal/index"
	"github.com/heartmarshall/synonyms-backend/internal/synonym"
)

// Dictionary combines the radical index and the synonym group table.
type Dictionary struct {
	radicals *index.Index
	groups   *synonym.Table
}

// New creates an empty dictionary.
func New() *Dictionary {
	radicals := index.New()
	return &Dictionary{
		radicals: radicals,
		groups:   synonym.NewTable(radicals),
	}
}

// AddRadical indexes a new radical.
func (d *Dictionary) AddRadical(radical string) error {
	_, err := d.radicals.Insert(radical)
	return err
}

// AddFlexion appends flexion to the flexions of radical.
func (d *Dictionary) AddFlexion(radical, flexion string) error {
	node, ok := d.radicals.Get(radical)
	if !ok {
		return domain.ErrKeyNotFound
	}
	if node.HasFlexion(flexion) {
		return domain.ErrDuplicateFlexion
	}
	node.Flexions = append(node.Flexions, flexion)
	return nil
}

// AddSynonym adds synonym to a synonym group of radical and returns the id of
// that group. With domain.NewGroup a new group is created; otherwise group
// must be an existing id. The synonym is indexed as a radical if needed.
func (d *Dictionary) AddSynonym(radical, synonym string, group domain.GroupID) (domain.GroupID, error) {
	if radical == synonym {
		return group, domain.NewValidationError("synonym", "must differ from the radical")
	}
	node, ok := d.radicals.Get(radical)
	if !ok {
		return group, domain.ErrKeyNotFound
	}
	if group != domain.NewGroup && !d.groups.Valid(group) {
		return group, domain.ErrInvalidGroupID
	}
	if d.groups.Contains(group, synonym) {
		return group, domain.ErrDuplicateSynonym
	}
	for _, g := range node.Groups {
		if d.groups.Contains(g, synonym) {
			return group, domain.ErrDuplicateSynonym
		}
	}

	if _, ok := d.radicals.Get(synonym); !ok {
		if _, err := d.radicals.Insert(synonym); err != nil {
			return group, err
		}
	}

	if group == domain.NewGroup {
		group = d.groups.Create()
	}
	if err := d.groups.Add(group, synonym); err != nil {
		return group, err
	}
	if !slices.Contains(node.Groups, group) {
		node.Groups = append(node.Groups, group)
	}
	return group, nil
}

// RemoveRadical deletes radical from the index and from every synonym group
// listing it. Groups left empty, and groups no remaining radical uses as a
// sense, are erased and ids compacted.
func (d *Dictionary) RemoveRadical(radical string) error {
	if d.radicals.IsEmpty() {
		return domain.ErrEmptyTree
	}
	if _, ok := d.radicals.Get(radical); !ok {
		return domain.ErrKeyNotFound
	}

	d.groups.RemoveEverywhere(radical)
	if err := d.radicals.Remove(radical); err != nil {
		return err
	}
	d.pruneUnreferencedGroups()
	return nil
}

// pruneUnreferencedGroups erases every group that is no radical's sense.
// Ids are visited from the top so that compaction never shifts an id still
// to be checked.
func (d *Dictionary) pruneUnreferencedGroups() {
	used := make([]bool, d.groups.Len())
	d.radicals.Walk(func(n *index.Node) bool {
		for _, g := range n.Groups {
			if int(g) < len(used) {
				used[g] = true
			}
		}
		return true
	})
	for id := len(used) - 1; id >= 0; id-- {
		if !used[id] {
			_ = d.groups.Erase(domain.GroupID(id))
		}
	}
}

// RemoveFlexion deletes flexion from the flexions of radical.
func (d *Dictionary) RemoveFlexion(radical, flexion string) error {
	if d.radicals.IsEmpty() {
		return domain.ErrEmptyTree
	}
	node, ok := d.radicals.Get(radical)
	if !ok {
		return domain.ErrKeyNotFound
	}
	i := slices.Index(node.Flexions, flexion)
	if i < 0 {
		return domain.ErrFlexionNotFound
	}
	node.Flexions = slices.Delete(node.Flexions, i, i+1)
	return nil
}

// RemoveSynonym deletes synonym from group, which must be one of the senses
// of radical. A group left empty is erased: radicals referencing it lose that
// sense and every greater group id shifts down by one.
func (d *Dictionary) RemoveSynonym(radical, synonym string, group domain.GroupID) error {
	node, ok := d.radicals.Get(radical)
	if !ok {
		return domain.ErrKeyNotFound
	}
	if !d.groups.Valid(group) || !slices.Contains(node.Groups, group) {
		return domain.ErrInvalidGroupID
	}

	_, err := d.groups.Remove(group, synonym)
	return err
}

// IsEmpty reports whether the dictionary holds no radical.
func (d *Dictionary) IsEmpty() bool { return d.radicals.IsEmpty() }

// Len returns the number of radicals.
func (d *Dictionary) Len() int { return d.radicals.Len() }

// GroupCount returns the number of synonym groups.
func (d *Dictionary) GroupCount() int { return d.groups.Len() }

// IsBalanced reports whether the radical index satisfies the AVL property.
func (d *Dictionary) IsBalanced() bool { return d.radicals.IsHeightBalanced() }

// Height returns the height of the radical index, -1 when empty.
func (d *Dictionary) Height() int { return d.radicals.Height() }

// Stats summarises the dictionary.
func (d *Dictionary) Stats() domain.DictionaryStats {
	return domain.DictionaryStats{
		Radicals: d.Len(),
		Groups:   d.GroupCount(),
		Height:   d.Height(),
		Balanced: d.IsBalanced(),
	}
}
