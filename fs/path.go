// Package fs implements the simulated world's in-memory filesystem
// (spec.md §4.5): a path-addressable tree of files with UNIX-style
// permission metadata, backed entirely by host memory — there is no
// persistence across runs, per spec.md §1's Non-goals.
//
// Unlike the rest of this module, fs reports failure as a tagged result
// code rather than a Go error, mirroring spec.md §7's "tagged result
// enum" reporting style and the teacher's own preference for explicit
// path-joining/validation helpers in linux/rootfs.go (SecureJoin-style
// canonicalisation, applied here to an in-memory tree instead of a real
// mount namespace).
package fs

import "strings"

// FilePath is a canonical forward-slash path. The canonical form is
// either "/" (root) or "/seg1/.../segN" with no trailing slash and no
// empty segments.
type FilePath string

// Canonical returns p with its trailing slash stripped and the empty
// path normalized to "/". It does not resolve "." or ".." segments —
// callers are expected to supply already-resolved paths, matching
// spec.md §4.5's "trailing slash stripped; empty path ≡ /" rule.
func (p FilePath) Canonical() FilePath {
	s := string(p)
	if s == "" {
		return "/"
	}
	if s != "/" {
		s = strings.TrimRight(s, "/")
		if s == "" {
			return "/"
		}
	}
	return FilePath(s)
}

// IsAbsolute reports whether p has a leading "/".
func (p FilePath) IsAbsolute() bool {
	return strings.HasPrefix(string(p), "/")
}

// segments splits the canonical path into its non-empty components.
func (p FilePath) segments() []string {
	c := string(p.Canonical())
	if c == "/" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(c, "/"), "/")
	out := parts[:0:0]
	for _, seg := range parts {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// Parent returns the canonical parent path. The parent of "/" is "/".
func (p FilePath) Parent() FilePath {
	segs := p.segments()
	if len(segs) == 0 {
		return "/"
	}
	if len(segs) == 1 {
		return "/"
	}
	return FilePath("/" + strings.Join(segs[:len(segs)-1], "/"))
}

// Name returns the final path component, or "/" for the root path.
func (p FilePath) Name() string {
	segs := p.segments()
	if len(segs) == 0 {
		return "/"
	}
	return segs[len(segs)-1]
}

// Append joins child onto p, producing a new canonical path.
func (p FilePath) Append(child string) FilePath {
	child = strings.Trim(child, "/")
	if child == "" {
		return p.Canonical()
	}
	base := string(p.Canonical())
	if base == "/" {
		return FilePath("/" + child)
	}
	return FilePath(base + "/" + child)
}

// Prepend joins p onto the end of prefix, producing a new canonical path.
func (p FilePath) Prepend(prefix FilePath) FilePath {
	return prefix.Append(string(p))
}

// Substitute rewrites a leading occurrence of from with to — used e.g.
// to collapse a home directory to "~" for display, per spec.md §3.
func (p FilePath) Substitute(from FilePath, to string) FilePath {
	s := string(p.Canonical())
	f := string(from.Canonical())
	if s == f {
		return FilePath(to)
	}
	if strings.HasPrefix(s, f+"/") {
		return FilePath(to + s[len(f):])
	}
	return p
}
