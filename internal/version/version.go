// Package version reports the entql build and compares it against
// version constraints.
package version

import (
	"fmt"
	"runtime"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/satishbabariya/entql/internal/core/query/dialect"
)

// Set with -ldflags "-X github.com/satishbabariya/entql/internal/version.Version=..."
var (
	Version   = "0.3.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string   `json:"version"`
	BuildDate string   `json:"build_date"`
	GitCommit string   `json:"git_commit"`
	GoVersion string   `json:"go_version"`
	Platform  string   `json:"platform"`
	Dialects  []string `json:"dialects"`
}

// Get returns version information
func Get() Info {
	return Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Dialects:  dialect.Names(),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("entql %s (%s, %s)", i.Version, i.Platform, i.GoVersion)
}

// FullString lists every field on its own line.
func (i Info) FullString() string {
	var b strings.Builder
	for _, kv := range [][2]string{
		{"version", i.Version},
		{"commit", i.GitCommit},
		{"built", i.BuildDate},
		{"go", i.GoVersion},
		{"platform", i.Platform},
		{"dialects", strings.Join(i.Dialects, ", ")},
	} {
		fmt.Fprintf(&b, "%-9s %s\n", kv[0]+":", kv[1])
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Check reports whether current satisfies constraint, e.g. ">= 0.2, < 1.0".
func Check(current, constraint string) (bool, error) {
	v, err := goversion.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", current, err)
	}
	c, err := goversion.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("invalid constraint %q: %w", constraint, err)
	}
	return c.Check(v), nil
}
