// Package doctree models a JSON document as an explicit tagged tree that
// preserves object key order, and provides path-addressed read/write access
// to its string leaves.
//
// Non-string scalars (numbers, booleans, null) are kept as their exact
// source literals and pass through parse/serialize untouched, so a value
// written as 1.50 stays 1.50.
package doctree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Kind discriminates the node variants.
type Kind int

const (
	KindObject Kind = iota
	KindArray
	KindString
	KindScalar
)

// Node is one value in the document tree. Exactly one variant is populated,
// selected by kind.
type Node struct {
	kind Kind

	// Object: keys in source order, fields by key.
	keys   []string
	fields map[string]*Node

	// Array.
	items []*Node

	// String leaf.
	str string

	// Scalar: the exact source literal (number, true, false, null).
	raw string
}

// Kind reports which variant this node holds.
func (n *Node) Kind() Kind { return n.kind }

// Text returns the string value of a KindString node ("" otherwise).
func (n *Node) Text() string { return n.str }

// NewString builds a string leaf node.
func NewString(s string) *Node {
	return &Node{kind: KindString, str: s}
}

// Parse decodes a JSON document into a tree, preserving object key order.
func Parse(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	root, err := parseValue(dec)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("parse document: trailing data after top-level value")
	}

	return root, nil
}

func parseValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", v.String())
	case string:
		return &Node{kind: KindString, str: v}, nil
	case json.Number:
		return &Node{kind: KindScalar, raw: v.String()}, nil
	case bool:
		if v {
			return &Node{kind: KindScalar, raw: "true"}, nil
		}
		return &Node{kind: KindScalar, raw: "false"}, nil
	case nil:
		return &Node{kind: KindScalar, raw: "null"}, nil
	}

	return nil, fmt.Errorf("unexpected token %v", tok)
}

func parseObject(dec *json.Decoder) (*Node, error) {
	n := &Node{kind: KindObject, fields: make(map[string]*Node)}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}

		val, err := parseValue(dec)
		if err != nil {
			return nil, fmt.Errorf("value of key %q: %w", key, err)
		}

		if _, dup := n.fields[key]; !dup {
			n.keys = append(n.keys, key)
		}
		n.fields[key] = val
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return n, nil
}

func parseArray(dec *json.Decoder) (*Node, error) {
	n := &Node{kind: KindArray}

	for dec.More() {
		val, err := parseValue(dec)
		if err != nil {
			return nil, fmt.Errorf("array element %d: %w", len(n.items), err)
		}
		n.items = append(n.items, val)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return n, nil
}

// Clone returns a deep copy of the tree. Key order is preserved.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	out := &Node{kind: n.kind, str: n.str, raw: n.raw}

	switch n.kind {
	case KindObject:
		out.keys = append([]string(nil), n.keys...)
		out.fields = make(map[string]*Node, len(n.fields))
		for k, v := range n.fields {
			out.fields[k] = v.Clone()
		}
	case KindArray:
		out.items = make([]*Node, len(n.items))
		for i, v := range n.items {
			out.items[i] = v.Clone()
		}
	}

	return out
}

// Marshal serializes the tree as two-space-indented JSON with a trailing
// newline, emitting object keys in their original order and scalars as
// their original literals.
func (n *Node) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, n, 0); err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, n *Node, depth int) error {
	switch n.kind {
	case KindString:
		if err := writeQuoted(buf, n.str); err != nil {
			return err
		}

	case KindScalar:
		buf.WriteString(n.raw)

	case KindObject:
		if len(n.keys) == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteString("{\n")
		for i, key := range n.keys {
			writeIndent(buf, depth+1)
			if err := writeQuoted(buf, key); err != nil {
				return err
			}
			buf.WriteString(": ")
			if err := encode(buf, n.fields[key], depth+1); err != nil {
				return err
			}
			if i < len(n.keys)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, depth)
		buf.WriteByte('}')

	case KindArray:
		if len(n.items) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteString("[\n")
		for i, item := range n.items {
			writeIndent(buf, depth+1)
			if err := encode(buf, item, depth+1); err != nil {
				return err
			}
			if i < len(n.items)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, depth)
		buf.WriteByte(']')

	default:
		return fmt.Errorf("unknown node kind %d", n.kind)
	}

	return nil
}

func writeIndent(buf *bytes.Buffer, depth int) {
	buf.WriteString(strings.Repeat("  ", depth))
}

// writeQuoted emits s as a JSON string without HTML escaping, so protected
// markup like <b> survives byte-for-byte.
func writeQuoted(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
