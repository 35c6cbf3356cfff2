// Package version identifies the running Stellar Listen build.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Overridden with -ldflags "-X .../internal/version.Version=...".
var (
	Name      = "Stellar Listen"
	Version   = "0.1.0"
	BuildTime = ""
	GitCommit = ""
)

// Info is served on /api/v1/version and printed in the startup banner.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	BuildTime string `json:"buildTime,omitempty"`
	GitCommit string `json:"gitCommit,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"goVersion"`
}

// GetInfo returns the linker-set values, falling back to the VCS stamps the
// Go toolchain embeds when the binary was built without -ldflags.
func GetInfo() Info {
	info := Info{
		Name:      Name,
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		applyBuildSettings(&info, bi.Settings)
	}
	return info
}

func applyBuildSettings(info *Info, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
}

// String renders e.g. "Stellar Listen v0.1.0 (abc1234-dirty) built 2026-01-02".
func (i Info) String() string {
	s := fmt.Sprintf("%s v%s", i.Name, i.Version)
	if i.GitCommit != "" {
		commit := i.GitCommit[:min(7, len(i.GitCommit))]
		if i.Modified {
			commit += "-dirty"
		}
		s += fmt.Sprintf(" (%s)", commit)
	}
	if i.BuildTime != "" {
		s += " built " + i.BuildTime
	}
	return s
}
