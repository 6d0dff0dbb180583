// Package index implements the radical index: a height-balanced (AVL) binary
// search tree keyed by radical. Each node also carries the radical's flexions
// and the ids of the synonym groups it participates in.
//
// The tree is not safe for concurrent use.
package index

import (
	"slices"

	"github.com/heartmarshall/synonyms-backend/internal/domain"
)

// Node is one radical of the index. Key must not be modified once the node
// is in the tree; Flexions and Groups belong to the caller.
type Node struct {
	Key      string
	Flexions []string
	Groups   []domain.GroupID

	left   *Node
	right  *Node
	height int
}

// Height returns the height of the subtree rooted at n: 0 for a leaf and -1
// for a nil node.
func (n *Node) Height() int {
	if n == nil {
		return -1
	}
	return n.height
}

// HasFlexion reports whether word is listed among the node's flexions.
func (n *Node) HasFlexion(word string) bool {
	return slices.Contains(n.Flexions, word)
}

// Radical returns a detached copy of the node's contents.
func (n *Node) Radical() domain.Radical {
	return domain.Radical{
		Key:      n.Key,
		Flexions: slices.Clone(n.Flexions),
		Groups:   slices.Clone(n.Groups),
	}
}

// Index is an AVL tree of radicals.
type Index struct {
	root *Node
	size int
}

// New creates an empty index.
func New() *Index {
	return &Index{}
}

// Len returns the number of radicals in the index.
func (idx *Index) Len() int { return idx.size }

// IsEmpty reports whether the index holds no radical.
func (idx *Index) IsEmpty() bool { return idx.size == 0 }

// Height returns the height of the tree, -1 when empty.
func (idx *Index) Height() int { return idx.root.Height() }

// Insert adds a new radical and rebalances every ancestor of the new leaf.
// Returns domain.ErrDuplicateKey if key is already a radical; a word that is
// only a flexion of another radical does not count.
func (idx *Index) Insert(key string) (*Node, error) {
	if _, ok := idx.Get(key); ok {
		return nil, domain.ErrDuplicateKey
	}

	node := &Node{Key: key}
	idx.root = insert(idx.root, node)
	idx.size++
	return node, nil
}

func insert(n, node *Node) *Node {
	if n == nil {
		return node
	}
	if node.Key < n.Key {
		n.left = insert(n.left, node)
	} else {
		n.right = insert(n.right, node)
	}
	return rebalance(n)
}

// Remove deletes the radical stored under key.
//
// A node with two children takes over the contents of its in-order
// successor, whose own slot is then removed; the *Node previously returned
// for the successor key is therefore stale after such a removal.
func (idx *Index) Remove(key string) error {
	if idx.root == nil {
		return domain.ErrEmptyTree
	}
	if _, ok := idx.Get(key); !ok {
		return domain.ErrKeyNotFound
	}

	idx.root = remove(idx.root, key)
	idx.size--
	return nil
}

func remove(n *Node, key string) *Node {
	if n == nil {
		return nil
	}

	switch {
	case key < n.Key:
		n.left = remove(n.left, key)
	case n.Key < key:
		n.right = remove(n.right, key)
	default:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}

		succ := n.right
		for succ.left != nil {
			succ = succ.left
		}
		n.Key, n.Flexions, n.Groups = succ.Key, succ.Flexions, succ.Groups
		n.right = remove(n.right, succ.Key)
	}

	return rebalance(n)
}

// Get returns the node whose key is exactly key.
func (idx *Index) Get(key string) (*Node, bool) {
	n := idx.root
	for n != nil {
		switch {
		case key < n.Key:
			n = n.left
		case n.Key < key:
			n = n.right
		default:
			return n, true
		}
	}
	return nil, false
}

// Find returns the first node on the search path for word whose key equals
// word or whose flexions contain it. The descent is driven by the key order,
// so a flexion is only found when its radical lies on that path; callers that
// need every radical listing a flexion must scan with Walk.
func (idx *Index) Find(word string) (*Node, bool) {
	n := idx.root
	for n != nil {
		if n.Key == word || n.HasFlexion(word) {
			return n, true
		}
		if word < n.Key {
			n = n.left
		} else {
			n = n.right
		}
	}
	return nil, false
}

// Traverse returns every node in key order.
func (idx *Index) Traverse() []*Node {
	nodes := make([]*Node, 0, idx.size)
	idx.Walk(func(n *Node) bool {
		nodes = append(nodes, n)
		return true
	})
	return nodes
}

// Walk calls fn for every node in key order until fn returns false.
func (idx *Index) Walk(fn func(*Node) bool) {
	walk(idx.root, fn)
}

func walk(n *Node, fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	return walk(n.left, fn) && fn(n) && walk(n.right, fn)
}

// IsHeightBalanced checks breadth-first that no node has subtrees whose
// heights differ by more than one. An empty tree is balanced.
func (idx *Index) IsHeightBalanced() bool {
	if idx.root == nil {
		return true
	}

	queue := []*Node{idx.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if abs(balanceFactor(n)) > 1 {
			return false
		}
		if n.left != nil {
			queue = append(queue, n.left)
		}
		if n.right != nil {
			queue = append(queue, n.right)
		}
	}
	return true
}

// CompactGroup forgets synonym group id: references to it are dropped from
// every node and references to greater ids are decremented.
func (idx *Index) CompactGroup(id domain.GroupID) {
	idx.Walk(func(n *Node) bool {
		if len(n.Groups) == 0 {
			return true
		}
		kept := n.Groups[:0]
		for _, g := range n.Groups {
			switch {
			case g == id:
				continue
			case g > id:
				kept = append(kept, g-1)
			default:
				kept = append(kept, g)
			}
		}
		n.Groups = kept
		return true
	})
}
