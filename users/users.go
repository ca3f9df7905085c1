// Package users implements the simulated world's users & groups store
// (spec.md §4.6): in-memory passwd/shadow/group maps, each a projection
// of a canonical colon-separated text file living under /etc/ in the
// simulated filesystem — there is no host-disk persistence, per spec.md
// §1's Non-goals.
//
// The uid/gid assignment is grounded on the teacher's
// container/create.go setUser/setGroups, retargeted here from real
// setuid(2)/setgid(2) calls to in-memory record mutation. AddUser
// allocates the uid first, then the gid, each from its own counter.
package users

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	simerrors "simnet/errors"
	"simnet/fs"
)

const (
	passwdPath = fs.FilePath("/etc/passwd")
	shadowPath = fs.FilePath("/etc/shadow")
	groupPath  = fs.FilePath("/etc/group")

	firstUID = 1000
	firstGID = 1000
)

// PasswdEntry is one /etc/passwd record.
type PasswdEntry struct {
	Name     string
	Password string // "x" once a shadow entry holds the real hash
	UID      int
	GID      int
	Gecos    string
	Home     string
	Shell    string
}

// ShadowEntry is one /etc/shadow record.
type ShadowEntry struct {
	Name        string
	Hash        string
	LastChange  int
	MinAge      int
	MaxAge      int
	Warning     int
	Inactivity  int
	Expiration  int
}

// GroupEntry is one /etc/group record.
type GroupEntry struct {
	Name     string
	Password string
	GID      int
	Members  []string
}

// AddUserParams configures add_user's optional behaviour, per spec.md
// §4.6.
type AddUserParams struct {
	UID        int // -1 to auto-allocate
	GID        int // -1 to auto-allocate
	Gecos      string
	Home       string // defaults to /home/<name>
	Shell      string
	Groups     []string // supplementary group names to join
	CreateHome bool
	AutoCommit bool
}

// Store is the passwd/shadow/group in-memory store, backed by the three
// canonical files under /etc/ in fsys.
type Store struct {
	fsys *fs.Filesystem

	passwd map[string]PasswdEntry
	shadow map[string]ShadowEntry
	group  map[string]GroupEntry

	passwdLoadedAt time.Time
	shadowLoadedAt time.Time
	groupLoadedAt  time.Time

	nextUID int
	nextGID int
}

// New returns a store backed by fsys, with empty maps until Prepare is
// first called.
func New(fsys *fs.Filesystem) *Store {
	return &Store{
		fsys:    fsys,
		passwd:  make(map[string]PasswdEntry),
		shadow:  make(map[string]ShadowEntry),
		group:   make(map[string]GroupEntry),
		nextUID: firstUID,
		nextGID: firstGID,
	}
}

// hashPassword applies the store's one-way password transform. spec.md
// §4.6 names SHA-256 explicitly as the algorithm in use, so it is not
// treated as a pluggable choice here.
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Prepare refreshes any of the three in-memory maps whose backing file's
// modification timestamp has changed since it was last loaded — each
// file is checked independently, per spec.md §4.6.
func (s *Store) Prepare() error {
	if err := s.reloadIfChanged(passwdPath, &s.passwdLoadedAt, s.loadPasswd); err != nil {
		return err
	}
	if err := s.reloadIfChanged(shadowPath, &s.shadowLoadedAt, s.loadShadow); err != nil {
		return err
	}
	if err := s.reloadIfChanged(groupPath, &s.groupLoadedAt, s.loadGroup); err != nil {
		return err
	}
	return nil
}

func (s *Store) reloadIfChanged(path fs.FilePath, loadedAt *time.Time, load func([]byte)) error {
	fid, f, code := s.fsys.Open(path, false)
	if code == fs.FileNotFound {
		return nil
	}
	if !code.OK() {
		return simerrors.New(simerrors.ErrResource, "prepare", code.String())
	}
	meta, ok := s.fsys.Meta(fid)
	if !ok {
		return simerrors.New(simerrors.ErrResource, "prepare", "missing metadata")
	}
	if !meta.ModTime.After(*loadedAt) && !loadedAt.IsZero() {
		return nil
	}
	load(f.Content)
	*loadedAt = meta.ModTime
	return nil
}

func (s *Store) loadPasswd(data []byte) {
	s.passwd = make(map[string]PasswdEntry)
	for _, line := range splitLines(data) {
		fields := strings.Split(line, ":")
		if len(fields) != 7 {
			continue
		}
		uid, err1 := strconv.Atoi(fields[2])
		gid, err2 := strconv.Atoi(fields[3])
		if err1 != nil || err2 != nil {
			continue
		}
		s.passwd[fields[0]] = PasswdEntry{
			Name: fields[0], Password: fields[1], UID: uid, GID: gid,
			Gecos: fields[4], Home: fields[5], Shell: fields[6],
		}
	}
}

func (s *Store) loadShadow(data []byte) {
	s.shadow = make(map[string]ShadowEntry)
	for _, line := range splitLines(data) {
		fields := strings.Split(line, ":")
		if len(fields) != 9 {
			continue
		}
		s.shadow[fields[0]] = ShadowEntry{
			Name:       fields[0],
			Hash:       fields[1],
			LastChange: atoiOr(fields[2], 0),
			MinAge:     atoiOr(fields[3], 0),
			MaxAge:     atoiOr(fields[4], 0),
			Warning:    atoiOr(fields[5], 0),
			Inactivity: atoiOr(fields[6], 0),
			Expiration: atoiOr(fields[7], 0),
		}
	}
}

func (s *Store) loadGroup(data []byte) {
	s.group = make(map[string]GroupEntry)
	for _, line := range splitLines(data) {
		fields := strings.Split(line, ":")
		if len(fields) != 4 {
			continue
		}
		gid, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		var members []string
		if fields[3] != "" {
			members = strings.Split(fields[3], ",")
		}
		s.group[fields[0]] = GroupEntry{Name: fields[0], Password: fields[1], GID: gid, Members: members}
	}
}

func splitLines(data []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// Commit rewrites all three backing files in full.
func (s *Store) Commit() error {
	if err := s.writeFile(passwdPath, s.renderPasswd()); err != nil {
		return err
	}
	if err := s.writeFile(shadowPath, s.renderShadow()); err != nil {
		return err
	}
	if err := s.writeFile(groupPath, s.renderGroup()); err != nil {
		return err
	}
	return nil
}

func (s *Store) writeFile(path fs.FilePath, content []byte) error {
	fid, f, code := s.fsys.Open(path, true)
	if code == fs.FileNotFound {
		var createCode fs.Code
		fid, f, createCode = s.fsys.CreateFile(path, fs.CreateParams{
			OwnerUID: 0, OwnerGID: 0,
			Owner: fs.Read | fs.Write, Group: fs.Read, Others: 0,
			Recurse: true,
		})
		if !createCode.OK() {
			return simerrors.New(simerrors.ErrResource, "commit", createCode.String())
		}
	} else if !code.OK() {
		return simerrors.New(simerrors.ErrResource, "commit", code.String())
	}
	f.Content = content
	meta, _ := s.fsys.Meta(fid)
	meta.ModTime = time.Now()
	s.fsys.SetMeta(fid, meta)
	if path == passwdPath {
		s.passwdLoadedAt = meta.ModTime
	} else if path == shadowPath {
		s.shadowLoadedAt = meta.ModTime
	} else if path == groupPath {
		s.groupLoadedAt = meta.ModTime
	}
	return nil
}

func (s *Store) renderPasswd() []byte {
	names := sortedKeys(s.passwd)
	var b strings.Builder
	for _, name := range names {
		e := s.passwd[name]
		fmt.Fprintf(&b, "%s:%s:%d:%d:%s:%s:%s\n", e.Name, e.Password, e.UID, e.GID, e.Gecos, e.Home, e.Shell)
	}
	return []byte(b.String())
}

func (s *Store) renderShadow() []byte {
	names := sortedKeys(s.shadow)
	var b strings.Builder
	for _, name := range names {
		e := s.shadow[name]
		fmt.Fprintf(&b, "%s:%s:%d:%d:%d:%d:%d:%d:\n",
			e.Name, e.Hash, e.LastChange, e.MinAge, e.MaxAge, e.Warning, e.Inactivity, e.Expiration)
	}
	return []byte(b.String())
}

func (s *Store) renderGroup() []byte {
	names := sortedKeys(s.group)
	var b strings.Builder
	for _, name := range names {
		e := s.group[name]
		fmt.Fprintf(&b, "%s:%s:%d:%s\n", e.Name, e.Password, e.GID, strings.Join(e.Members, ","))
	}
	return []byte(b.String())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AddUser creates name's passwd/shadow record (and joins it to any
// requested supplementary groups), per spec.md §4.6's numbered steps.
func (s *Store) AddUser(name, password string, params AddUserParams) error {
	if _, exists := s.passwd[name]; exists {
		return simerrors.ErrUserExists
	}

	uid := params.UID
	if uid == -1 {
		uid = s.nextUID
		s.nextUID++
	}
	gid := params.GID
	if gid == -1 {
		gid = s.nextGID
		s.nextGID++
	}

	home := params.Home
	if home == "" {
		home = "/home/" + name
	}

	s.passwd[name] = PasswdEntry{
		Name: name, Password: "x", UID: uid, GID: gid,
		Gecos: params.Gecos, Home: home, Shell: params.Shell,
	}
	s.shadow[name] = ShadowEntry{Name: name, Hash: hashPassword(password)}

	for _, groupName := range params.Groups {
		g, ok := s.group[groupName]
		if !ok {
			continue
		}
		g.Members = append(g.Members, name)
		s.group[groupName] = g
	}

	if params.CreateHome {
		_, _, code := s.fsys.CreateDirectory(fs.FilePath(home), fs.CreateParams{
			OwnerUID: uid, OwnerGID: gid,
			Owner: fs.Read | fs.Write | fs.Execute, Group: 0, Others: 0,
			Recurse: true,
		})
		if !code.OK() && code != fs.FileExists {
			return simerrors.New(simerrors.ErrResource, "add_user", code.String())
		}
	}

	if params.AutoCommit {
		return s.Commit()
	}
	return nil
}

// effectiveHash resolves the hash to compare against: shadow's entry if
// passwd's password field is "x", otherwise the passwd record's inline
// hash — matching spec.md §4.6.
func (s *Store) effectiveHash(name string) (string, bool) {
	p, ok := s.passwd[name]
	if !ok {
		return "", false
	}
	if p.Password == "x" {
		sh, ok := s.shadow[name]
		if !ok {
			return "", false
		}
		return sh.Hash, true
	}
	return p.Password, true
}

// Authenticate returns name's passwd record if password matches, or
// ErrAuthFailed/ErrUserNotFound otherwise.
func (s *Store) Authenticate(name, password string) (*PasswdEntry, error) {
	hash, ok := s.effectiveHash(name)
	if !ok {
		return nil, simerrors.ErrUserNotFound
	}
	if hash != hashPassword(password) {
		return nil, simerrors.ErrAuthFailed
	}
	p := s.passwd[name]
	return &p, nil
}

// GetPasswordHash returns name's effective password hash without
// comparing it to anything.
func (s *Store) GetPasswordHash(name string) (string, error) {
	hash, ok := s.effectiveHash(name)
	if !ok {
		return "", simerrors.ErrUserNotFound
	}
	return hash, nil
}

// Lookup returns name's passwd record.
func (s *Store) Lookup(name string) (PasswdEntry, bool) {
	p, ok := s.passwd[name]
	return p, ok
}

// LookupGroup returns name's group record.
func (s *Store) LookupGroup(name string) (GroupEntry, bool) {
	g, ok := s.group[name]
	return g, ok
}
