package document

import (
	"strconv"
	"strings"

	"github.com/cyw0ng95/flint/internal/SF/errors"
)

// segment is one step of a path: an object key or an array index. Negative
// indexes count from the end ("#-1" is the last element); appendIndex is
// "#", one past the end.
type segment struct {
	key    string
	index  int
	isKey  bool
	append bool
}

// Path is a parsed JSON1-style path such as $.a.b[0] or $.list[#-1].
type Path []segment

// ParsePath parses a path. "$" alone addresses the root.
func ParsePath(path string) (Path, error) {
	bad := func(why string) (Path, error) {
		return nil, errors.New(errors.FLINT_EXEC, "bad JSON path %q: %s", path, why)
	}
	if !strings.HasPrefix(path, "$") {
		return bad("must start with $")
	}
	rest := path[1:]
	segs := Path{}
	for rest != "" {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			var key string
			if strings.HasPrefix(rest, `"`) {
				end := strings.Index(rest[1:], `"`)
				if end < 0 {
					return bad("unterminated quoted key")
				}
				key, rest = rest[1:end+1], rest[end+2:]
			} else {
				end := strings.IndexAny(rest, ".[")
				if end < 0 {
					end = len(rest)
				}
				key, rest = rest[:end], rest[end:]
				if key == "" {
					return bad("empty key")
				}
			}
			segs = append(segs, segment{key: key, isKey: true})
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return bad("unterminated index")
			}
			idx := rest[1:end]
			rest = rest[end+1:]
			switch {
			case idx == "#":
				segs = append(segs, segment{append: true})
			case strings.HasPrefix(idx, "#-"):
				n, err := strconv.Atoi(idx[2:])
				if err != nil || n <= 0 {
					return bad("invalid index " + idx)
				}
				segs = append(segs, segment{index: -n})
			default:
				n, err := strconv.Atoi(idx)
				if err != nil || n < 0 {
					return bad("invalid index " + idx)
				}
				segs = append(segs, segment{index: n})
			}
		default:
			return bad("unexpected " + strconv.QuoteRune(rune(rest[0])))
		}
	}
	return segs, nil
}

// resolve maps an array segment to a concrete position in a list of n.
// ok is false when the position is out of range.
func (s segment) resolve(n int) (int, bool) {
	if s.append {
		return n, false
	}
	i := s.index
	if i < 0 {
		i += n
	}
	return i, i >= 0 && i < n
}

// Get returns the node at p, or false when the path does not exist.
func (p Path) Get(root any) (any, bool) {
	node := root
	for _, s := range p {
		switch x := node.(type) {
		case map[string]any:
			if !s.isKey {
				return nil, false
			}
			child, ok := x[s.key]
			if !ok {
				return nil, false
			}
			node = child
		case []any:
			if s.isKey {
				return nil, false
			}
			i, ok := s.resolve(len(x))
			if !ok {
				return nil, false
			}
			node = x[i]
		default:
			return nil, false
		}
	}
	return node, true
}

type setMode int

const (
	modeSet     setMode = iota // create or overwrite
	modeInsert                 // create only
	modeReplace                // overwrite only
)

// set returns a copy of root with val written at p according to mode.
// Only the last step may create; missing parents leave root unchanged.
func (p Path) set(root any, val any, mode setMode) any {
	if len(p) == 0 {
		if mode == modeInsert {
			return root
		}
		return val
	}
	s, rest := p[0], p[1:]
	switch x := root.(type) {
	case map[string]any:
		if !s.isKey {
			return root
		}
		child, exists := x[s.key]
		if len(rest) == 0 {
			if (exists && mode == modeInsert) || (!exists && mode == modeReplace) {
				return root
			}
			return withKey(x, s.key, val)
		}
		if !exists {
			return root
		}
		return withKey(x, s.key, rest.set(child, val, mode))
	case []any:
		if s.isKey {
			return root
		}
		i, exists := s.resolve(len(x))
		if len(rest) == 0 {
			switch {
			case exists && mode != modeInsert:
				out := append([]any(nil), x...)
				out[i] = val
				return out
			case !exists && i == len(x) && mode != modeReplace:
				return append(append(make([]any, 0, len(x)+1), x...), val)
			}
			return root
		}
		if !exists {
			return root
		}
		out := append([]any(nil), x...)
		out[i] = rest.set(x[i], val, mode)
		return out
	}
	return root
}

// remove returns a copy of root without the node at p.
func (p Path) remove(root any) any {
	if len(p) == 0 {
		return root
	}
	s, rest := p[0], p[1:]
	switch x := root.(type) {
	case map[string]any:
		child, exists := x[s.key]
		if !s.isKey || !exists {
			return root
		}
		if len(rest) == 0 {
			out := make(map[string]any, len(x))
			for k, v := range x {
				if k != s.key {
					out[k] = v
				}
			}
			return out
		}
		return withKey(x, s.key, rest.remove(child))
	case []any:
		i, exists := s.resolve(len(x))
		if s.isKey || !exists {
			return root
		}
		if len(rest) == 0 {
			out := make([]any, 0, len(x)-1)
			out = append(out, x[:i]...)
			return append(out, x[i+1:]...)
		}
		out := append([]any(nil), x...)
		out[i] = rest.remove(x[i])
		return out
	}
	return root
}

func withKey(m map[string]any, key string, val any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = val
	return out
}
