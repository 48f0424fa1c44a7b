package artifact

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// WheelSuffix is the binary distribution suffix of cache entries.
const WheelSuffix = ".whl"

// ErrNoCacheName reports a requirement whose specifier cannot be mapped to a
// single cached wheel (ranges, URLs, wildcard pins).
var ErrNoCacheName = errors.New("requirement has no derived cache filename")

var (
	nameRun      = regexp.MustCompile(`[-_.]+`)
	requirement  = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)\s*(\[[^\]]*\])?\s*(.*)$`)
	exactPinExpr = regexp.MustCompile(`^==\s*([A-Za-z0-9.+!_-]+)$`)
)

// Artifact is a named, optionally pinned installable package.
type Artifact struct {
	// Requirement is the requirement string handed to pip.
	Requirement string
	// Name is the project name as written.
	Name string
	// Extras lists requested extras without brackets.
	Extras []string
	// Version is set only for exact "==" pins.
	Version string
	// Specifier is any version constraint that is not an exact pin.
	Specifier string
	// IndexURL optionally overrides the package index for this artifact.
	IndexURL string
}

// Parse converts a requirement string such as "torch==2.1.2" or
// "ruamel.yaml" into an Artifact. Environment markers are dropped.
func Parse(raw string) (Artifact, error) {
	trimmed := strings.TrimSpace(raw)
	if idx := strings.Index(trimmed, ";"); idx >= 0 {
		trimmed = strings.TrimSpace(trimmed[:idx])
	}
	if trimmed == "" {
		return Artifact{}, errors.New("empty requirement")
	}
	match := requirement.FindStringSubmatch(trimmed)
	if match == nil {
		return Artifact{}, fmt.Errorf("invalid requirement %q", raw)
	}

	art := Artifact{Requirement: trimmed, Name: match[1]}
	if extras := strings.Trim(match[2], "[]"); extras != "" {
		for _, extra := range strings.Split(extras, ",") {
			if extra = strings.TrimSpace(extra); extra != "" {
				art.Extras = append(art.Extras, extra)
			}
		}
	}

	spec := strings.TrimSpace(match[3])
	if spec == "" {
		return art, nil
	}
	if pin := exactPinExpr.FindStringSubmatch(spec); pin != nil && !strings.Contains(pin[1], "*") {
		art.Version = pin[1]
		return art, nil
	}
	if !strings.ContainsAny(spec[:1], "=<>!~@") {
		return Artifact{}, fmt.Errorf("invalid requirement %q: unexpected %q after name", raw, spec)
	}
	art.Specifier = spec
	return art, nil
}

// MustParse is Parse for static requirement lists.
func MustParse(raw string) Artifact {
	art, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return art
}

// String returns the requirement string.
func (a Artifact) String() string {
	return a.Requirement
}

// Pinned reports whether the artifact carries an exact version.
func (a Artifact) Pinned() bool {
	return a.Version != ""
}

// HasCacheName reports whether a cached wheel can satisfy the artifact.
func (a Artifact) HasCacheName() bool {
	return a.Specifier == ""
}

// CanonicalName returns the PEP 503 normalized project name.
func (a Artifact) CanonicalName() string {
	return CanonicalName(a.Name)
}

// CacheName returns the derived cache filename pattern, e.g.
// "torch-2.1.2-*.whl" or "ruamel_yaml-*.whl".
func (a Artifact) CacheName() (string, error) {
	if !a.HasCacheName() {
		return "", fmt.Errorf("%s: %w", a.Requirement, ErrNoCacheName)
	}
	prefix := EscapeName(a.Name)
	if a.Pinned() {
		prefix += "-" + a.Version
	}
	return prefix + "-*" + WheelSuffix, nil
}

// MatchesWheel reports whether the wheel filename satisfies the artifact.
// Exact pins without a local label match any local build ("+cu118").
func (a Artifact) MatchesWheel(filename string) bool {
	if !a.HasCacheName() {
		return false
	}
	wheel, err := ParseWheelFilename(filename)
	if err != nil {
		return false
	}
	if wheel.CanonicalName() != a.CanonicalName() {
		return false
	}
	if !a.Pinned() {
		return true
	}
	want := strings.ToLower(a.Version)
	got := strings.ToLower(wheel.Version)
	if strings.Contains(want, "+") {
		return got == want
	}
	return wheel.PublicVersion() == want
}

// WithIndex returns a copy of the artifact bound to the given index URL.
func (a Artifact) WithIndex(indexURL string) Artifact {
	a.IndexURL = strings.TrimSpace(indexURL)
	return a
}

// CanonicalName normalizes a project name per PEP 503.
func CanonicalName(name string) string {
	return strings.ToLower(nameRun.ReplaceAllString(strings.TrimSpace(name), "-"))
}

// EscapeName escapes a project name the way wheel filenames do (PEP 427).
func EscapeName(name string) string {
	return strings.ToLower(nameRun.ReplaceAllString(strings.TrimSpace(name), "_"))
}
