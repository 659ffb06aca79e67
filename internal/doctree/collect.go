package doctree

// Leaf pairs a string leaf's location with its original text.
type Leaf struct {
	Path Path
	Text string
}

// CollectLeaves gathers every string leaf in a deterministic depth-first
// order: object properties in stored key order, array elements by ascending
// index. This ordering is the canonical ordering the whole pipeline relies
// on for associating translated results with their source leaves.
//
// A document without string leaves yields an empty slice.
func CollectLeaves(root *Node) []Leaf {
	var leaves []Leaf
	collect(root, nil, &leaves)
	return leaves
}

func collect(n *Node, prefix Path, out *[]Leaf) {
	switch n.kind {
	case KindString:
		p := make(Path, len(prefix))
		copy(p, prefix)
		*out = append(*out, Leaf{Path: p, Text: n.str})

	case KindObject:
		for _, key := range n.keys {
			collect(n.fields[key], append(prefix, KeySegment(key)), out)
		}

	case KindArray:
		for i, item := range n.items {
			collect(item, append(prefix, IndexSegment(i)), out)
		}
	}
	// KindScalar: never collected, never mutated.
}
