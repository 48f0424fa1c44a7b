package artifact

import (
	"fmt"
	"strings"
)

// Wheel is a parsed wheel filename:
// {distribution}-{version}(-{build})?-{python}-{abi}-{platform}.whl
type Wheel struct {
	Filename     string
	Distribution string
	Version      string
	Build        string
	Python       string
	ABI          string
	Platform     string
}

// ParseWheelFilename splits a wheel filename into its tags.
func ParseWheelFilename(filename string) (Wheel, error) {
	if !strings.HasSuffix(strings.ToLower(filename), WheelSuffix) {
		return Wheel{}, fmt.Errorf("%q is not a wheel", filename)
	}
	stem := filename[:len(filename)-len(WheelSuffix)]
	parts := strings.Split(stem, "-")
	wheel := Wheel{Filename: filename}
	switch len(parts) {
	case 5:
		wheel.Distribution, wheel.Version = parts[0], parts[1]
		wheel.Python, wheel.ABI, wheel.Platform = parts[2], parts[3], parts[4]
	case 6:
		wheel.Distribution, wheel.Version, wheel.Build = parts[0], parts[1], parts[2]
		wheel.Python, wheel.ABI, wheel.Platform = parts[3], parts[4], parts[5]
	default:
		return Wheel{}, fmt.Errorf("%q: expected 5 or 6 dash-separated fields, got %d", filename, len(parts))
	}
	if wheel.Distribution == "" || wheel.Version == "" {
		return Wheel{}, fmt.Errorf("%q: missing distribution or version", filename)
	}
	return wheel, nil
}

// CanonicalName returns the PEP 503 normalized distribution name.
func (w Wheel) CanonicalName() string {
	return CanonicalName(w.Distribution)
}

// PublicVersion strips the local version label ("2.0.0+cu118" -> "2.0.0").
func (w Wheel) PublicVersion() string {
	version := strings.ToLower(w.Version)
	if idx := strings.Index(version, "+"); idx >= 0 {
		return version[:idx]
	}
	return version
}

// LocalLabel returns the local version label, if any ("cu118").
func (w Wheel) LocalLabel() string {
	if idx := strings.Index(w.Version, "+"); idx >= 0 {
		return w.Version[idx+1:]
	}
	return ""
}
