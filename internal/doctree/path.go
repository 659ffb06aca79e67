package doctree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound reports that a path does not resolve against the tree it is
// applied to. During write-back this means the tree changed shape between
// leaf collection and write, which callers treat as fatal.
var ErrNotFound = errors.New("path not found")

// Segment is one step of a Path: an object key or an array index.
type Segment struct {
	Key   string
	Index int
	IsKey bool
}

// KeySegment builds an object-key segment.
func KeySegment(key string) Segment { return Segment{Key: key, IsKey: true} }

// IndexSegment builds an array-index segment.
func IndexSegment(i int) Segment { return Segment{Index: i} }

// Path locates one leaf from the root. A Path is only valid against the
// tree revision that produced it.
type Path []Segment

// String renders the path in dotted form with bracketed indices, e.g.
// a.b[2].c. The empty path (the root itself) renders as "$".
func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}

	var sb strings.Builder
	for i, seg := range p {
		if seg.IsKey {
			if i > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(seg.Key)
		} else {
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(seg.Index))
			sb.WriteByte(']')
		}
	}
	return sb.String()
}

// Resolve walks the path from root and returns the addressed node.
func Resolve(root *Node, p Path) (*Node, error) {
	n := root
	for i, seg := range p {
		if seg.IsKey {
			if n.kind != KindObject {
				return nil, fmt.Errorf("%w: segment %d (%s): key %q on non-object", ErrNotFound, i, p, seg.Key)
			}
			child, ok := n.fields[seg.Key]
			if !ok {
				return nil, fmt.Errorf("%w: segment %d (%s): missing key %q", ErrNotFound, i, p, seg.Key)
			}
			n = child
			continue
		}

		if n.kind != KindArray {
			return nil, fmt.Errorf("%w: segment %d (%s): index %d on non-array", ErrNotFound, i, p, seg.Index)
		}
		if seg.Index < 0 || seg.Index >= len(n.items) {
			return nil, fmt.Errorf("%w: segment %d (%s): index %d out of range (len %d)", ErrNotFound, i, p, seg.Index, len(n.items))
		}
		n = n.items[seg.Index]
	}
	return n, nil
}

// WriteString replaces the text of the string leaf at p. It is the only
// mutation entry point into an output tree during write-back.
func WriteString(root *Node, p Path, text string) error {
	n, err := Resolve(root, p)
	if err != nil {
		return err
	}
	if n.kind != KindString {
		return fmt.Errorf("%w: %s does not address a string leaf", ErrNotFound, p)
	}
	n.str = text
	return nil
}
