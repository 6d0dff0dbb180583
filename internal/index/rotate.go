package index

// updateHeight recomputes n's height from its children.
func updateHeight(n *Node) {
	n.height = 1 + max(n.left.Height(), n.right.Height())
}

// balanceFactor is height(left) - height(right).
func balanceFactor(n *Node) int {
	return n.left.Height() - n.right.Height()
}

// rebalance refreshes n's height and restores the AVL property at n,
// returning the new root of the subtree.
func rebalance(n *Node) *Node {
	updateHeight(n)

	switch bf := balanceFactor(n); {
	case bf >= 2:
		// zig-zag: the left child leans right.
		if n.left.right.Height() > n.left.left.Height() {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	case bf <= -2:
		// zig-zag: the right child leans left.
		if n.right.left.Height() > n.right.right.Height() {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	}
	return n
}

// rotateRight lifts n's left child into n's place.
func rotateRight(n *Node) *Node {
	l := n.left
	n.left = l.right
	l.right = n
	updateHeight(n)
	updateHeight(l)
	return l
}

// rotateLeft lifts n's right child into n's place.
func rotateLeft(n *Node) *Node {
	r := n.right
	n.right = r.left
	r.left = n
	updateHeight(n)
	updateHeight(r)
	return r
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
