// Package compileinfo reports which commit an ldsccts binary was built from,
// so that logs of long LDSC sweeps can be traced back to the code that
// produced them.
package compileinfo

import (
	"fmt"
	"log"
	"runtime/debug"
)

type CompileInfo struct {
	Binary     string `json:"binary"`
	Module     string `json:"module"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Commit     string `json:"commit"`
	CommitTime string `json:"commit_time"`
	Modified   bool   `json:"modified"`
}

// ShortCommit is the 12 character abbreviation of Commit.
func (c CompileInfo) ShortCommit() string {
	if len(c.Commit) > 12 {
		return c.Commit[:12]
	}
	return c.Commit
}

func (c CompileInfo) String() string {
	if c.Commit == "" {
		return fmt.Sprintf("%s (%s %s) was built with %s without VCS information.", c.Binary, c.Module, c.Version, c.GoVersion)
	}

	dirty := ""
	if c.Modified {
		dirty = " (with uncommitted changes)"
	}

	return fmt.Sprintf("%s was built with %s from commit %s%s of %s, committed %s.", c.Binary, c.GoVersion, c.ShortCommit(), dirty, c.Module, c.CommitTime)
}

// FromBuildInfo extracts the fields we care about from the linker's build
// information.
func FromBuildInfo(bi *debug.BuildInfo) CompileInfo {
	out := CompileInfo{}
	if bi == nil {
		return out
	}

	out.GoVersion = bi.GoVersion
	out.Binary = bi.Path
	out.Module = bi.Main.Path
	out.Version = bi.Main.Version
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

func Get() CompileInfo {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return CompileInfo{}
	}

	return FromBuildInfo(bi)
}

// Log writes the build provenance through the standard logger.
func Log() {
	log.Println(Get())
}
