package source

import "github.com/qxxt/pkgup/internal/version"

// Kind distinguishes how a package is tracked.
type Kind int

const (
	// Registry packages come from a versioned package index and are
	// upgraded by version comparison.
	Registry Kind = iota
	// VersionControlled packages are built from a source-control checkout
	// (a HEAD install) and are upgraded by pulling latest, never by
	// version comparison.
	VersionControlled
)

func (k Kind) String() string {
	if k == VersionControlled {
		return "vc"
	}
	return "registry"
}

// Descriptor identifies one package at one version. Immutable once built.
type Descriptor struct {
	Name    string
	Version version.Version
	Kind    Kind
}
