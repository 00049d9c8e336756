// Package version reports which build of the service is running.
//
// Version, Commit and BuildTime may be set with ldflags:
//
//	go build -ldflags "-X github.com/rickgao/forzza-swarm/internal/version.Version=1.0.0 \
//	                   -X github.com/rickgao/forzza-swarm/internal/version.Commit=$(git rev-parse --short HEAD)"
//
// Anything left unset is filled from the VCS stamp the go command embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Name is the product name reported to remote services.
const Name = "forzza-swarm"

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info describes the running build.
type Info struct {
	Version   string
	Commit    string
	BuildTime string
	GoVersion string
}

// Get returns the build info of the running binary.
func Get() Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(bi)
}

// resolve merges ldflags values with bi. bi may be nil.
func resolve(bi *debug.BuildInfo) Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
	if bi == nil {
		return info
	}

	if bi.GoVersion != "" {
		info.GoVersion = bi.GoVersion
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = shortRevision(s.Value)
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

func (i Info) String() string {
	return fmt.Sprintf("%s (%s) built %s with %s", i.Version, i.Commit, i.BuildTime, i.GoVersion)
}

// String returns a formatted version string.
func String() string {
	return Get().String()
}

// UserAgent returns the User-Agent header sent on the websocket handshake.
func UserAgent() string {
	i := Get()
	return Name + "/" + i.Version + " (" + i.Commit + ")"
}
