// Package upgrade computes which installed packages are stale and carries
// out the install/verify/delete transition for the ones the user selects.
package upgrade

import (
	"errors"
	"fmt"

	"github.com/qxxt/pkgup/internal/source"
)

// ErrVCUnsupported means version-controlled packages were requested from a
// source that cannot track them.
var ErrVCUnsupported = errors.New("source does not support version-controlled packages")

// Candidate pairs an installed package with its available upgrade.
// Available is nil exactly when the installed package is version-controlled:
// VC packages are flagged unconditionally, never version-compared.
type Candidate struct {
	Installed source.Descriptor
	Available *source.Descriptor
}

// VC reports whether this candidate upgrades a version-controlled package.
func (c Candidate) VC() bool {
	return c.Installed.Kind == source.VersionControlled
}

// String renders the candidate in the selection-line format:
// "name (1.0) => (1.1)" for registry packages, "name (2.0) (vc)" for
// version-controlled ones.
func (c Candidate) String() string {
	if c.VC() || c.Available == nil {
		return fmt.Sprintf("%s (%s) (vc)", c.Installed.Name, c.Installed.Version)
	}
	return fmt.Sprintf("%s (%s) => (%s)", c.Installed.Name, c.Installed.Version, c.Available.Version)
}

// CandidateSet is an ordered sequence of candidates. Order equals the
// installed-package discovery order and is significant: the selection
// surface maps line position to candidate index.
type CandidateSet []Candidate

// Names returns the candidate package names in set order.
func (cs CandidateSet) Names() []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Installed.Name
	}
	return names
}

// Differ computes upgrade candidates from a source. The VC capability is
// resolved once at construction rather than re-queried per call.
type Differ struct {
	src         source.Source
	vcSupported bool
}

// NewDiffer creates a Differ over src.
func NewDiffer(src source.Source) *Differ {
	return &Differ{src: src, vcSupported: src.SupportsVersionControl()}
}

// ComputeCandidates walks the installed packages in discovery order and
// emits a candidate for every version-controlled package (when includeVC is
// set) and for every registry package whose available version is strictly
// greater than the installed one. Packages with no available counterpart
// are silently omitted; that is an expected outcome, not an error.
func (d *Differ) ComputeCandidates(includeVC bool) (CandidateSet, error) {
	if includeVC && !d.vcSupported {
		return nil, ErrVCUnsupported
	}

	installed, err := d.src.ListInstalled()
	if err != nil {
		return nil, fmt.Errorf("failed to list installed packages: %w", err)
	}
	available, err := d.src.ListAvailable()
	if err != nil {
		return nil, fmt.Errorf("failed to list available packages: %w", err)
	}

	var candidates CandidateSet
	for _, pkg := range installed {
		if pkg.Kind == source.VersionControlled {
			if includeVC {
				candidates = append(candidates, Candidate{Installed: pkg})
			}
			continue
		}

		avail, ok := available[pkg.Name]
		if !ok {
			continue
		}
		if pkg.Version.Less(avail.Version) {
			avail := avail
			candidates = append(candidates, Candidate{Installed: pkg, Available: &avail})
		}
	}
	return candidates, nil
}
