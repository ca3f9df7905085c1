package fs

import "time"

// FileId is a 64-bit opaque identifier. Id 0 ("None") never refers to an
// allocated file; Root is the fixed sentinel id of the root directory.
type FileId uint64

const (
	// None is the sentinel value meaning "no file".
	None FileId = 0
	// Root is the fixed id of the root directory, allocated below the
	// counter's starting value so user-created files never collide with it.
	Root FileId = 1

	firstAllocatedId FileId = 1000
)

// ExecContext is the minimal view of a running process an executable
// entry point needs. It is declared here, rather than importing the
// process package directly, to keep fs from depending on process/task —
// process.Proc satisfies this interface.
type ExecContext interface {
	Argv() []string
	Putln(line string)
}

// Entry is an executable file's entry point: given a process context and
// an argument vector, it runs to completion and returns an exit code.
// Built-in command programs that would populate this are out of scope
// (spec.md §1); the type exists so File can model an executable node.
type Entry func(ctx ExecContext, argv []string) int

// File owns its content bytes and, optionally, an executable entry point.
type File struct {
	Content []byte
	Entry   Entry
}

// Executable reports whether the file carries an entry point.
func (f *File) Executable() bool {
	return f != nil && f.Entry != nil
}

// FileMeta is a file's permission and bookkeeping metadata.
type FileMeta struct {
	IsDirectory bool
	OwnerUID    int
	OwnerGID    int
	Owner       Perm
	Group       Perm
	Others      Perm
	ExtraBits   Extra
	ModTime     time.Time
}

// CreateParams describes the metadata to apply to a newly created file.
type CreateParams struct {
	IsDirectory bool
	OwnerUID    int
	OwnerGID    int
	Owner       Perm
	Group       Perm
	Others      Perm
	ExtraBits   Extra
	Recurse     bool
}

func (p CreateParams) meta(isDir bool, now time.Time) FileMeta {
	return FileMeta{
		IsDirectory: isDir,
		OwnerUID:    p.OwnerUID,
		OwnerGID:    p.OwnerGID,
		Owner:       p.Owner,
		Group:       p.Group,
		Others:      p.Others,
		ExtraBits:   p.ExtraBits,
		ModTime:     now,
	}
}
