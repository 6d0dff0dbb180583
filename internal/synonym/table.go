// Package synonym holds the synonym group table: a dense, ordered sequence of
// groups, each group being the ordered list of radicals sharing one sense.
package synonym

import (
	"slices"

	"github.com/heartmarshall/synonyms-backend/internal/domain"
)

// Renumberer is notified when a group is erased so that stored group ids can
// be compacted wherever they are referenced.
type Renumberer interface {
	CompactGroup(id domain.GroupID)
}

// Table is the synonym group table. Group ids are positions in the table and
// stay contiguous in [0, Len()).
type Table struct {
	groups [][]string
	refs   Renumberer
}

// NewTable creates an empty table. refs may be nil when nothing outside the
// table stores group ids.
func NewTable(refs Renumberer) *Table {
	return &Table{refs: refs}
}

// Len returns the number of groups.
func (t *Table) Len() int { return len(t.groups) }

// Valid reports whether id addresses an existing group.
func (t *Table) Valid(id domain.GroupID) bool {
	return id >= 0 && int(id) < len(t.groups)
}

// Create appends an empty group and returns its id.
func (t *Table) Create() domain.GroupID {
	t.groups = append(t.groups, nil)
	return domain.GroupID(len(t.groups) - 1)
}

// Add appends key to group id.
func (t *Table) Add(id domain.GroupID, key string) error {
	if !t.Valid(id) {
		return domain.ErrInvalidGroupID
	}
	t.groups[id] = append(t.groups[id], key)
	return nil
}

// Contains reports whether group id lists key.
func (t *Table) Contains(id domain.GroupID, key string) bool {
	return t.Valid(id) && slices.Contains(t.groups[id], key)
}

// Members returns a copy of group id.
func (t *Table) Members(id domain.GroupID) ([]string, error) {
	if !t.Valid(id) {
		return nil, domain.ErrInvalidGroupID
	}
	return slices.Clone(t.groups[id]), nil
}

// First returns the first member of group id.
func (t *Table) First(id domain.GroupID) (string, error) {
	if !t.Valid(id) {
		return "", domain.ErrInvalidGroupID
	}
	if len(t.groups[id]) == 0 {
		return "", domain.ErrEmptyGroup
	}
	return t.groups[id][0], nil
}

// Remove deletes the first occurrence of key from group id. When the group
// becomes empty it is erased, every greater id shifts down by one and the
// Renumberer is told about the erased id; emptied is true in that case.
func (t *Table) Remove(id domain.GroupID, key string) (emptied bool, err error) {
	if !t.Valid(id) {
		return false, domain.ErrInvalidGroupID
	}

	i := slices.Index(t.groups[id], key)
	if i < 0 {
		return false, domain.ErrSynonymNotFound
	}
	t.groups[id] = slices.Delete(t.groups[id], i, i+1)

	if len(t.groups[id]) > 0 {
		return false, nil
	}
	t.erase(id)
	return true, nil
}

// RemoveEverywhere deletes every occurrence of key from every group,
// erasing and compacting groups that become empty. It returns the number of
// groups erased.
func (t *Table) RemoveEverywhere(key string) int {
	erased := 0
	for id := 0; id < len(t.groups); {
		before := len(t.groups[id])
		members := slices.DeleteFunc(t.groups[id], func(m string) bool { return m == key })
		t.groups[id] = members
		if len(members) == 0 && before > 0 {
			t.erase(domain.GroupID(id))
			erased++
			continue
		}
		id++
	}
	return erased
}

// Erase deletes group id whatever its members, shifting every greater id
// down by one.
func (t *Table) Erase(id domain.GroupID) error {
	if !t.Valid(id) {
		return domain.ErrInvalidGroupID
	}
	t.erase(id)
	return nil
}

func (t *Table) erase(id domain.GroupID) {
	t.groups = slices.Delete(t.groups, int(id), int(id)+1)
	if t.refs != nil {
		t.refs.CompactGroup(id)
	}
}

// Groups returns a deep copy of the table, indexed by group id.
func (t *Table) Groups() [][]string {
	out := make([][]string, len(t.groups))
	for i, g := range t.groups {
		out[i] = slices.Clone(g)
	}
	return out
}

// Restore replaces the table contents with groups, which must already be
// dense. Stored ids elsewhere are left untouched.
func (t *Table) Restore(groups [][]string) {
	t.groups = make([][]string, len(groups))
	for i, g := range groups {
		t.groups[i] = slices.Clone(g)
	}
}
