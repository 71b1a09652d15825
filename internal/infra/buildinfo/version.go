package buildinfo

import (
	"runtime"
	"runtime/debug"
)

const unknown = "unknown"

// Build-time variables (set via ldflags).
var (
	Version   = "dev"
	Commit    = unknown
	BuildTime = unknown
	GoVersion = unknown
)

// Info contains build information.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Modified  bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
}

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Get returns the build information.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
	}
	if info.GoVersion == unknown {
		info.GoVersion = runtime.Version()
	}

	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == unknown {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == unknown {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String returns a formatted version string.
func (i Info) String() string {
	commit := i.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if i.Modified {
		commit += "-dirty"
	}
	return i.Version + " (" + commit + ") built at " + i.BuildTime + " with " + i.GoVersion
}

// String returns the formatted version of Get.
func String() string {
	return Get().String()
}
