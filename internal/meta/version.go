// Package meta holds the build information of fcpctl.
package meta

import (
	"fmt"
	"runtime"
	"strings"
)

// Info describes the build of an fcpctl binary. Most of it is set at build
// time by the Go linker, see the vars below.
type Info struct {
	Version   string `json:"version"`
	Build     string `json:"build"`
	Branch    string `json:"branch"`
	BuildTime string `json:"buildTime"`
	Platform  string `json:"platform"`
	GoVersion string `json:"goVersion"`
	GoTag     string `json:"goTag,omitempty"`
}

// Filled in with -ldflags "-X github.com/luma/fcp/internal/meta.Version=..."
var (
	Version = "dev"

	// Build is the git sha being built
	Build string

	Branch string

	// BuildTimeUTC as year/month/day hour:min:sec
	BuildTimeUTC string

	// GoTag lists the build tags
	GoTag string

	platform = fmt.Sprintf("%s %s", runtime.GOOS, runtime.GOARCH)
)

func GetInfo() Info {
	return Info{
		GoVersion: runtime.Version(),
		Version:   Version,
		Build:     Build,
		Branch:    Branch,
		BuildTime: BuildTimeUTC,
		GoTag:     GoTag,
		Platform:  platform,
	}
}

// String renders the info on one line, leaving out unknown parts.
func (i Info) String() string {
	parts := []string{"fcpctl " + i.Version}

	if i.Build != "" {
		build := i.Build
		if i.Branch != "" {
			build = i.Branch + "@" + build
		}

		parts = append(parts, build)
	}

	if i.BuildTime != "" {
		parts = append(parts, "built "+i.BuildTime)
	}

	parts = append(parts, i.GoVersion, i.Platform)
	return strings.Join(parts, ", ")
}
