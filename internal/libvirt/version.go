package libvirt

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// VersionString renders libvirt's packed major*1000000+minor*1000+release
// form as a semantic version such as "v10.0.0".
func VersionString(v uint64) string {
	return fmt.Sprintf("v%d.%d.%d", v/1000000, (v/1000)%1000, v%1000)
}

// ParseVersion packs a version string. The leading "v" and missing minor or
// patch components are optional.
func ParseVersion(s string) (uint64, error) {
	if !strings.HasPrefix(s, "v") {
		s = "v" + s
	}
	if !semver.IsValid(s) {
		return 0, fmt.Errorf("invalid version %q", s)
	}
	parts := strings.SplitN(strings.TrimPrefix(semver.Canonical(s), "v"), ".", 3)
	// Canonical keeps any prerelease suffix on the patch component.
	parts[2], _, _ = strings.Cut(parts[2], "-")

	var out uint64
	for i, scale := range []uint64{1000000, 1000, 1} {
		n, err := strconv.ParseUint(parts[i], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid version %q: %w", s, err)
		}
		if i > 0 && n >= 1000 {
			return 0, fmt.Errorf("invalid version %q: component %d out of range", s, n)
		}
		out += n * scale
	}
	return out, nil
}

// VersionAtLeast reports whether the packed version v is min or newer.
func VersionAtLeast(v uint64, min string) (bool, error) {
	if !strings.HasPrefix(min, "v") {
		min = "v" + min
	}
	if !semver.IsValid(min) {
		return false, fmt.Errorf("invalid version %q", min)
	}
	return semver.Compare(VersionString(v), min) >= 0, nil
}

// LibVersionAtLeast gates a feature on the connected libvirt's version.
func (c *Connect) LibVersionAtLeast(min string) (bool, error) {
	v, err := c.LibVersion()
	if err != nil {
		return false, err
	}
	return VersionAtLeast(v, min)
}
