package domain

import (
	"time"

	"github.com/google/uuid"
)

// GroupID is a dense index into the synonym group table. Ids stay contiguous:
// when a group is erased every greater id shifts down by one.
type GroupID int

// NewGroup asks AddSynonym to start a new synonym group.
const NewGroup GroupID = -1

// Radical is a read-only view of one indexed lemma.
type Radical struct {
	Key      string
	Flexions []string
	// Groups lists the synonym groups the radical participates in, in sense order.
	Groups []GroupID
}

// Sense is one meaning of a radical: the group it points to and its members.
type Sense struct {
	Position int
	Group    GroupID
	Members  []string
}

// Snapshot is the complete state of a dictionary. Group ids in Radicals
// index into Groups.
type Snapshot struct {
	Radicals []Radical
	Groups   [][]string
}

// Revision describes one persisted snapshot.
type Revision struct {
	ID        uuid.UUID
	Radicals  int
	Groups    int
	CreatedAt time.Time
}

// DictionaryStats summarises the shape of a dictionary.
type DictionaryStats struct {
	Radicals int  `json:"radicals"`
	Groups   int  `json:"groups"`
	Height   int  `json:"height"`
	Balanced bool `json:"balanced"`
}
