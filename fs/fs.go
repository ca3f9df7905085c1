package fs

import (
	"sync"
	"time"
)

// Filesystem is the single mutable aggregate described in spec.md §3: a
// FileId-keyed tree with a bijective id↔path mapping, metadata, parent
// links, and a parent→child multimap. Every non-root FileId has exactly
// one parent entry and appears exactly once in its parent's child set;
// only a recursive removal (Remove with recurse, or RemoveWithDecision
// authorising FolderNotEmpty) may remove a directory with children.
type Filesystem struct {
	mu       sync.Mutex
	nextId   FileId
	pathToId map[FilePath]FileId
	idToPath map[FileId]FilePath
	files    map[FileId]*File
	meta     map[FileId]FileMeta
	parent   map[FileId]FileId
	children map[FileId]map[FileId]struct{}

	now func() time.Time
}

// New returns an empty filesystem seeded with just the root directory.
func New() *Filesystem {
	fsys := &Filesystem{
		nextId:   firstAllocatedId,
		pathToId: make(map[FilePath]FileId),
		idToPath: make(map[FileId]FilePath),
		files:    make(map[FileId]*File),
		meta:     make(map[FileId]FileMeta),
		parent:   make(map[FileId]FileId),
		children: make(map[FileId]map[FileId]struct{}),
		now:      time.Now,
	}
	fsys.pathToId["/"] = Root
	fsys.idToPath[Root] = "/"
	fsys.files[Root] = &File{}
	fsys.meta[Root] = FileMeta{
		IsDirectory: true,
		Owner:       Read | Write | Execute,
		Group:       Read | Execute,
		Others:      Read | Execute,
		ModTime:     fsys.now(),
	}
	fsys.children[Root] = make(map[FileId]struct{})
	return fsys
}

// Fid resolves a path to its FileId, or None if no such path is tracked.
// The empty path and "/" both resolve to Root, per spec.md §4.5.
func (fsys *Filesystem) Fid(path FilePath) FileId {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	return fsys.fidLocked(path)
}

func (fsys *Filesystem) fidLocked(path FilePath) FileId {
	c := path.Canonical()
	if c == "/" {
		return Root
	}
	if id, ok := fsys.pathToId[c]; ok {
		return id
	}
	return None
}

// Path reverse-looks-up the canonical path for fid, or "" if fid is not
// a tracked file.
func (fsys *Filesystem) Path(fid FileId) (FilePath, bool) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	p, ok := fsys.idToPath[fid]
	return p, ok
}

// Meta returns fid's metadata.
func (fsys *Filesystem) Meta(fid FileId) (FileMeta, bool) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	m, ok := fsys.meta[fid]
	return m, ok
}

// SetMeta replaces fid's metadata wholesale (e.g. for chmod/chown).
func (fsys *Filesystem) SetMeta(fid FileId, meta FileMeta) bool {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	if _, ok := fsys.meta[fid]; !ok {
		return false
	}
	fsys.meta[fid] = meta
	return true
}

// File returns the file content/entry record for fid.
func (fsys *Filesystem) File(fid FileId) (*File, bool) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	f, ok := fsys.files[fid]
	return f, ok
}

// Check evaluates the permission check for fid against session s.
func (fsys *Filesystem) Check(s Session, fid FileId, mode Perm) bool {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	m, ok := fsys.meta[fid]
	if !ok {
		return false
	}
	return m.Check(s, mode)
}

// CreateFile creates a plain file at path, per spec.md §4.5. If
// params.Recurse is true, missing intermediate directories are created
// with params' triads before the leaf is created.
func (fsys *Filesystem) CreateFile(path FilePath, params CreateParams) (FileId, *File, Code) {
	return fsys.create(path, params, false)
}

// CreateDirectory creates a directory at path; equivalent to CreateFile
// followed by marking the node as a directory, per spec.md §4.5.
func (fsys *Filesystem) CreateDirectory(path FilePath, params CreateParams) (FileId, *File, Code) {
	return fsys.create(path, params, true)
}

func (fsys *Filesystem) create(path FilePath, params CreateParams, isDir bool) (FileId, *File, Code) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	return fsys.createLocked(path, params, isDir)
}

func (fsys *Filesystem) createLocked(path FilePath, params CreateParams, isDir bool) (FileId, *File, Code) {
	c := path.Canonical()
	if id := fsys.fidLocked(c); id != None {
		return None, nil, FileExists
	}

	parentPath := c.Parent()
	parentId := fsys.fidLocked(parentPath)
	if parentId == None {
		if !params.Recurse || parentPath == c {
			return None, nil, FileNotFound
		}
		dirParams := params
		dirParams.IsDirectory = true
		var code Code
		parentId, _, code = fsys.createLocked(parentPath, dirParams, true)
		if !code.OK() {
			return None, nil, code
		}
	}

	id := fsys.nextId
	fsys.nextId++

	f := &File{}
	fsys.files[id] = f
	fsys.meta[id] = params.meta(isDir, fsys.now())
	fsys.pathToId[c] = id
	fsys.idToPath[id] = c
	fsys.parent[id] = parentId
	if fsys.children[parentId] == nil {
		fsys.children[parentId] = make(map[FileId]struct{})
	}
	fsys.children[parentId][id] = struct{}{}
	if isDir {
		fsys.children[id] = make(map[FileId]struct{})
	}

	return id, f, Success
}

// Open returns the existing node at path, or FileNotFound. Opening a
// directory with wantWrite set fails with InvalidFlags, per spec.md §4.5.
func (fsys *Filesystem) Open(path FilePath, wantWrite bool) (FileId, *File, Code) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	id := fsys.fidLocked(path)
	if id == None {
		return None, nil, FileNotFound
	}
	if wantWrite && fsys.meta[id].IsDirectory {
		return None, nil, InvalidFlags
	}
	return id, fsys.files[id], Success
}

// DecideFunc is consulted during Remove for each condition encountered,
// per spec.md §4.5: it returns true to authorise continuation, false to
// abort the removal at that point.
type DecideFunc func(fsys *Filesystem, path FilePath, code Code) bool

// DefaultDecide aborts on PreserveRoot and FolderNotEmpty, and reports
// FileNotFound/Success without itself causing an abort (both are terminal
// outcomes, not decision points).
func DefaultDecide(_ *Filesystem, _ FilePath, code Code) bool {
	switch code {
	case PreserveRoot, FolderNotEmpty:
		return false
	default:
		return true
	}
}

// AcceptAllDecide authorises every condition, including removing "/"
// itself.
func AcceptAllDecide(_ *Filesystem, _ FilePath, _ Code) bool {
	return true
}

// Remove removes the node at path. If it is a non-empty directory and
// recurse is false, it fails with FolderNotEmpty; if recurse is true, it
// removes depth-first.
func (fsys *Filesystem) Remove(path FilePath, recurse bool) Code {
	decide := DefaultDecide
	if recurse {
		decide = AcceptAllDecide
	}
	return fsys.RemoveWithDecision(path, decide)
}

// RemoveWithDecision removes the node at path, consulting decide at each
// condition spec.md §4.5 enumerates: PreserveRoot at "/", FolderNotEmpty
// before recursing into a non-empty directory, FileNotFound, and a final
// Success once the node (and, if authorised, its descendants) are gone.
func (fsys *Filesystem) RemoveWithDecision(path FilePath, decide DecideFunc) Code {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	return fsys.removeLocked(path, decide)
}

func (fsys *Filesystem) removeLocked(path FilePath, decide DecideFunc) Code {
	c := path.Canonical()
	if c == "/" {
		if !decide(fsys, c, PreserveRoot) {
			return PreserveRoot
		}
	}

	id := fsys.fidLocked(c)
	if id == None {
		decide(fsys, c, FileNotFound)
		return FileNotFound
	}

	if fsys.meta[id].IsDirectory && len(fsys.children[id]) > 0 {
		if !decide(fsys, c, FolderNotEmpty) {
			return FolderNotEmpty
		}
		for child := range fsys.children[id] {
			childPath := fsys.idToPath[child]
			if code := fsys.removeLocked(childPath, decide); !code.OK() {
				return code
			}
		}
	}

	fsys.unlink(id, c)
	decide(fsys, c, Success)
	return Success
}

func (fsys *Filesystem) unlink(id FileId, path FilePath) {
	if pid, ok := fsys.parent[id]; ok {
		delete(fsys.children[pid], id)
	}
	delete(fsys.parent, id)
	delete(fsys.children, id)
	delete(fsys.files, id)
	delete(fsys.meta, id)
	delete(fsys.pathToId, path)
	delete(fsys.idToPath, id)
}
