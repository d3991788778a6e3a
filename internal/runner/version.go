package runner

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// versionPattern finds the first dotted version in --version output, e.g.
// "git version 2.43.0" or "Docker version 24.0.7, build afdd53b".
var versionPattern = regexp.MustCompile(`v?\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z.-]+)?`)

// ParseVersion extracts and parses the first version found in s. A leading
// "v" is tolerated.
func ParseVersion(s string) (*semver.Version, error) {
	match := versionPattern.FindString(s)
	if match == "" {
		return nil, fmt.Errorf("no version found in %q", strings.TrimSpace(s))
	}
	return semver.NewVersion(strings.TrimPrefix(match, "v"))
}

// ToolVersion runs "<name> --version" and parses the reported version.
func ToolVersion(ctx context.Context, r Runner, name string) (*semver.Version, error) {
	res, err := RunChecked(ctx, r, name, []string{"--version"}, Opts{})
	if err != nil {
		return nil, err
	}
	v, err := ParseVersion(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("%s --version: %w", name, err)
	}
	return v, nil
}

// Satisfies reports whether v meets constraint, e.g. ">= 2.28".
func Satisfies(v *semver.Version, constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("parsing constraint %q: %w", constraint, err)
	}
	return c.Check(v), nil
}
