// Package version reports the build version of the wifireconnect binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is set at link time with
//
//	-ldflags "-X github.com/wifireconnect/wifireconnect-go/pkg/version.Version=v1.2.3"
var Version = "dev"

// Info describes the running binary.
type Info struct {
	Version   string `yaml:"version"`
	Revision  string `yaml:"revision,omitempty"`
	Modified  bool   `yaml:"modified,omitempty"`
	GoVersion string `yaml:"go"`
}

// Get returns the version plus whatever VCS details the toolchain embedded.
func Get() Info {
	info := Info{Version: Version}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String returns "<version> (<short revision>[+dirty])".
func (i Info) String() string {
	if i.Revision == "" {
		return i.Version
	}
	rev := i.Revision
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if i.Modified {
		rev += "+dirty"
	}
	return fmt.Sprintf("%s (%s)", i.Version, rev)
}
