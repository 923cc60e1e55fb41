// Package source defines the package-index provider consumed by the upgrade
// pipeline, plus the Homebrew-backed implementation.
package source

import "time"

// Source is a package index provider. Operations are blocking, synchronous,
// and non-reentrant per package name; the pipeline never issues two
// operations for the same package concurrently.
type Source interface {
	// ListInstalled enumerates installed packages in discovery order.
	// That order is significant: it is the order candidates are shown in.
	ListInstalled() ([]Descriptor, error)

	// ListAvailable returns the current index snapshot keyed by package
	// name. Only registry packages appear here.
	ListAvailable() (map[string]Descriptor, error)

	// SupportsVersionControl reports whether the source can track and
	// upgrade version-controlled (HEAD) installs.
	SupportsVersionControl() bool

	// RefreshIndex re-fetches the remote package index.
	RefreshIndex() error

	// IndexLastModified returns when the index was last refreshed, or the
	// zero time when no snapshot exists yet.
	IndexLastModified() (time.Time, error)

	// Install installs the exact package the descriptor names without
	// recording it as a user-requested selection.
	Install(d Descriptor) error

	// Delete removes the installed descriptor's version. With force, the
	// removal proceeds even if other packages nominally depend on it.
	Delete(d Descriptor, force bool) error

	// VCUpgrade upgrades a version-controlled package in place.
	VCUpgrade(d Descriptor) error

	// Archives returns the configured remote index names. An empty list
	// means no sources are configured at all.
	Archives() []string
}
