package goadsym

import (
	"fmt"
	"runtime/debug"
)

const (
	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0

	// VersionPrerelease is the pre-release version string (e.g., "alpha", "rc.1").
	// Empty string for stable releases.
	VersionPrerelease = ""
)

// Version returns the semantic version string of the library.
func Version() string {
	return formatVersion(VersionMajor, VersionMinor, VersionPatch, VersionPrerelease)
}

func formatVersion(major, minor, patch int, prerelease string) string {
	v := fmt.Sprintf("%d.%d.%d", major, minor, patch)
	if prerelease != "" {
		v += "-" + prerelease
	}
	return v
}

// BuildInfo contains version and build information.
type BuildInfo struct {
	Version   string
	Module    string
	GitCommit string
	BuildTime string
	GoVersion string
	Dirty     bool
}

// GetBuildInfo returns the library version together with the VCS details
// embedded by the Go toolchain, when present.
func GetBuildInfo() BuildInfo {
	info := BuildInfo{Version: Version()}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	info.GoVersion = buildInfo.GoVersion
	info.Module = buildInfo.Main.Path
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.GitCommit = setting.Value
			if len(info.GitCommit) > 7 {
				info.GitCommit = info.GitCommit[:7]
			}
		case "vcs.time":
			info.BuildTime = setting.Value
		case "vcs.modified":
			info.Dirty = setting.Value == "true"
		}
	}
	return info
}

// String returns a human-readable string representation of BuildInfo.
func (b BuildInfo) String() string {
	s := "goadsym " + b.Version
	if b.GitCommit != "" {
		s += " (commit: " + b.GitCommit
		if b.Dirty {
			s += "-dirty"
		}
		s += ")"
	}
	if b.GoVersion != "" {
		s += " - " + b.GoVersion
	}
	return s
}
