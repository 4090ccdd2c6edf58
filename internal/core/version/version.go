// Package version reports the build identity of the timejar binaries.
package version

import "runtime/debug"

// BuildInfo holds version information about one binary.
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information for service. Release builds stamp it with
// -ldflags "-X 'timejar/internal/core/version.version=v0.1.0' -X 'timejar/internal/core/version.commit=abcd'".
// Unstamped builds fall back to the VCS data the go tool embeds
func Info(service string) BuildInfo {
	b := BuildInfo{Service: service, Version: version, Commit: commit, Date: date}
	if commit != "none" {
		return b
	}
	bi, ok := readBuildInfo()
	if !ok || bi == nil {
		return b
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			b.Commit = s.Value
			if len(b.Commit) > 12 {
				b.Commit = b.Commit[:12]
			}
		case "vcs.time":
			b.Date = s.Value
		case "vcs.modified":
			if s.Value == "true" {
				b.Version += "+dirty"
			}
		}
	}
	return b
}

// String renders "service version (commit, date)"
func (b BuildInfo) String() string {
	return b.Service + " " + b.Version + " (" + b.Commit + ", " + b.Date + ")"
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	readBuildInfo = debug.ReadBuildInfo
)
