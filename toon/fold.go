package toon

import (
	"strconv"
	"strings"
)

// ============================================================
// Replacer pass
// ============================================================

// applyReplacer returns a rewritten copy of v. The replacer sees each node
// before its children, and the children visited are those of the value it
// returned. The input tree is not modified.
func applyReplacer(v *Value, r Replacer) *Value {
	if r == nil {
		return v
	}
	root := r("", v, nil)
	switch root {
	case Omit:
		root = v
	case nil:
		root = Null()
	}
	return replaceChildren(root, r, nil)
}

func replaceChildren(v *Value, r Replacer, path []string) *Value {
	switch v.Kind() {
	case KindObject:
		out := make([]Member, 0, len(v.members))
		for _, m := range v.members {
			p := childPath(path, m.Key)
			nv := r(m.Key, m.Value, p)
			if nv == Omit {
				continue
			}
			if nv == nil {
				nv = Null()
			}
			out = append(out, Member{Key: m.Key, Value: replaceChildren(nv, r, p)})
		}
		return Object(out...)
	case KindArray:
		out := make([]*Value, 0, len(v.items))
		for i, item := range v.items {
			key := strconv.Itoa(i)
			p := childPath(path, key)
			nv := r(key, item, p)
			if nv == Omit {
				continue
			}
			if nv == nil {
				nv = Null()
			}
			out = append(out, replaceChildren(nv, r, p))
		}
		return Array(out...)
	}
	return v
}

func childPath(path []string, key string) []string {
	p := make([]string, len(path)+1)
	copy(p, path)
	p[len(path)] = key
	return p
}

// ============================================================
// Key folding
// ============================================================

// foldKey collapses the chain of single-key objects that starts at key into
// one dotted key. It returns the key text to write and the value found at
// the end of the chain. With folding off, or when no chain of two or more
// segments exists, the literal key and v are returned unchanged.
func foldKey(key string, v *Value, mode KeyFolding, maxDepth int) (string, *Value) {
	if mode == KeyFoldingOff || !foldable(key, mode) {
		return formatKey(key), v
	}
	segs := []string{key}
	leaf := v
	for leaf.Kind() == KindObject && len(leaf.members) == 1 {
		if maxDepth > 0 && len(segs) >= maxDepth {
			break
		}
		m := leaf.members[0]
		if !foldable(m.Key, mode) {
			break
		}
		segs = append(segs, m.Key)
		leaf = m.Value
	}
	if len(segs) < 2 {
		return formatKey(key), v
	}
	return strings.Join(segs, "."), leaf
}

// foldable reports whether k may take part in a folded path. Safe mode
// only admits plain identifiers; aggressive mode also admits keys that
// already contain dots, which then decode as deeper nesting.
func foldable(k string, mode KeyFolding) bool {
	if isIdentifier(k) {
		return true
	}
	return mode == KeyFoldingAggressive && isDottedIdentifier(k)
}

func isDottedIdentifier(k string) bool {
	for _, seg := range strings.Split(k, ".") {
		if !isIdentifier(seg) {
			return false
		}
	}
	return true
}
