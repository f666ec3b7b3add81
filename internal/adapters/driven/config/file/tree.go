package file

import (
	"sort"
	"strings"
)

// flatten turns nested TOML tables into dot keys: {"a": {"b": 1}} is
// {"a.b": 1}. A nil tree gives an empty map.
func flatten(tree map[string]any) map[string]any {
	out := make(map[string]any)
	var walk func(prefix string, node map[string]any)
	walk = func(prefix string, node map[string]any) {
		for k, v := range node {
			if prefix != "" {
				k = prefix + "." + k
			}
			if child, ok := v.(map[string]any); ok {
				walk(k, child)
				continue
			}
			out[k] = v
		}
	}
	walk("", tree)
	return out
}

// nest is the inverse of flatten. Keys are placed in sorted order; one
// whose path runs through a scalar, or whose leaf is already a table,
// stays flat and TOML writes it quoted.
func nest(flat map[string]any) map[string]any {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := make(map[string]any)
	for _, k := range keys {
		if table, leaf, ok := descend(root, k); ok {
			table[leaf] = flat[k]
			continue
		}
		root[k] = flat[k]
	}
	return root
}

// descend finds or creates the table that should hold the last segment
// of key. ok is false when a segment is taken by a scalar or the leaf is
// already set.
func descend(root map[string]any, key string) (table map[string]any, leaf string, ok bool) {
	parts := strings.Split(key, ".")
	table = root
	for _, part := range parts[:len(parts)-1] {
		switch next := table[part].(type) {
		case map[string]any:
			table = next
		case nil:
			if _, exists := table[part]; exists {
				return nil, "", false
			}
			child := make(map[string]any)
			table[part] = child
			table = child
		default:
			return nil, "", false
		}
	}
	leaf = parts[len(parts)-1]
	if _, taken := table[leaf]; taken {
		return nil, "", false
	}
	return table, leaf, true
}
