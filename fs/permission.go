package fs

// Perm is a bitmask subset of {Read, Write, Execute}.
type Perm uint8

const (
	Read Perm = 1 << iota
	Write
	Execute
)

// Has reports whether perm grants every bit in mode.
func (perm Perm) Has(mode Perm) bool {
	return perm&mode == mode
}

// Extra holds bits outside the basic read/write/execute triads.
type Extra uint8

const (
	Setuid Extra = 1 << iota
	Setgid
)

// Session is the (uid, gid, groups) identity permission checks evaluate
// against, per spec.md §3. Groups is a set, not a list: supplementary
// group membership has no ordering and no duplicates.
type Session struct {
	SID    int
	UID    int
	GID    int
	Groups map[int]struct{}
}

// NewSession builds a Session with supplementary groups deduplicated
// into a set.
func NewSession(sid, uid, gid int, groups []int) Session {
	s := Session{SID: sid, UID: uid, GID: gid}
	if len(groups) > 0 {
		s.Groups = make(map[int]struct{}, len(groups))
		for _, g := range groups {
			s.Groups[g] = struct{}{}
		}
	}
	return s
}

// inGroup reports whether gid is s's primary group or one of its
// supplementary groups.
func (s Session) inGroup(gid int) bool {
	if s.GID == gid {
		return true
	}
	_, ok := s.Groups[gid]
	return ok
}

// Check implements spec.md §4.5's permission check: classic UNIX
// semantics, category determined once (owner, group, or others) and
// then every requested bit tested against that category's triad. This
// is the documented contract spec.md §9 asks implementers to follow,
// not the source's "OR all three triads together" variant flagged there
// as a likely bug — see DESIGN.md's Open Question decision.
func (meta FileMeta) Check(s Session, mode Perm) bool {
	var category Perm
	switch {
	case s.UID == meta.OwnerUID:
		category = meta.Owner
	case s.inGroup(meta.OwnerGID):
		category = meta.Group
	default:
		category = meta.Others
	}
	return category.Has(mode)
}
