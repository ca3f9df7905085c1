package fs

// SeedStandardLayout creates the directory skeleton spec.md §6 describes
// as present "at OS construction": a conventional UNIX-ish tree of
// directories with the usual root-owned, widely-readable permissions.
// Callers (package users, package kernel) are responsible for populating
// /etc/passwd, /etc/shadow, /etc/group, /etc/sudoers and the executables
// under /bin, /sbin, /usr/bin, since those have domain-specific content
// this package does not know about.
func SeedStandardLayout(fsys *Filesystem) Code {
	dirs := []string{
		"/dev", "/bin", "/usr/bin", "/usr/lib", "/usr/local", "/usr/share",
		"/etc", "/home", "/lib", "/sbin", "/tmp",
		"/var/log", "/var/lock", "/var/tmp",
	}
	dirParams := CreateParams{
		IsDirectory: true,
		OwnerUID:    0,
		OwnerGID:    0,
		Owner:       Read | Write | Execute,
		Group:       Read | Execute,
		Others:      Read | Execute,
		Recurse:     true,
	}
	for _, d := range dirs {
		if _, _, code := fsys.CreateDirectory(FilePath(d), dirParams); !code.OK() && code != FileExists {
			return code
		}
	}
	return Success
}
