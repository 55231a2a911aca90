package compileinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		GoVersion: "go1.18",
		Path:      "github.com/carbocation/ldsccts/cmd/ldsccts",
		Main:      debug.Module{Path: "github.com/carbocation/ldsccts", Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2019-02-01T10:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	c := FromBuildInfo(bi)
	if c.Binary != bi.Path || c.Module != "github.com/carbocation/ldsccts" || !c.Modified {
		t.Errorf("Unexpected compile info %+v", c)
	}
	if c.ShortCommit() != "0123456789ab" {
		t.Errorf("Unexpected short commit %s", c.ShortCommit())
	}
	if s := c.String(); !strings.Contains(s, "0123456789ab") || !strings.Contains(s, "uncommitted") {
		t.Errorf("Unexpected description %s", s)
	}
}

func TestNoVCS(t *testing.T) {
	c := FromBuildInfo(&debug.BuildInfo{GoVersion: "go1.18", Path: "x"})
	if !strings.Contains(c.String(), "without VCS information") {
		t.Errorf("Unexpected description %s", c)
	}

	if (FromBuildInfo(nil) != CompileInfo{}) {
		t.Error("Expected the zero value for missing build info")
	}
}
