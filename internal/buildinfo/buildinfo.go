// Package buildinfo carries the identifiers stamped in by the linker.
package buildinfo

import "strings"

// Set with -ldflags "-X rtsampler/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func known(s string) bool { return s != "" && s != "dev" && s != "unknown" }

// Short is the most specific identifier available: the version, else the
// commit, else "dev".
func Short() string {
	switch {
	case known(Version):
		return Version
	case known(Commit):
		if len(Commit) > 12 {
			return Commit[:12]
		}
		return Commit
	default:
		return "dev"
	}
}

// String lists every known identifier, e.g. "v1.2.0 commit=abc date=2026-01-02".
func String() string {
	parts := []string{Short()}
	if known(Version) && known(Commit) {
		parts = append(parts, "commit="+Commit)
	}
	if known(Date) {
		parts = append(parts, "date="+Date)
	}
	return strings.Join(parts, " ")
}
