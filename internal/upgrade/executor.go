package upgrade

import (
	"fmt"

	"github.com/qxxt/pkgup/internal/source"
)

// Stage names the step of an upgrade that failed. A failure at StageDelete
// means the new version installed and verified; only the old keg survived.
type Stage string

const (
	StageInstall   Stage = "install"
	StageVerify    Stage = "verify"
	StageDelete    Stage = "delete"
	StageVCUpgrade Stage = "vc-upgrade"
)

// UpgradeError is a per-candidate failure. Failures never abort sibling
// candidates; the pipeline collects them into the run report.
type UpgradeError struct {
	Package string
	Stage   Stage
	Err     error
}

func (e *UpgradeError) Error() string {
	return fmt.Sprintf("upgrade %s: %s failed: %v", e.Package, e.Stage, e.Err)
}

func (e *UpgradeError) Unwrap() error {
	return e.Err
}

// Installed reports whether the new version ended up installed despite the
// failure (true for delete-stage failures: the install already verified).
func (e *UpgradeError) Installed() bool {
	return e.Stage == StageDelete
}

// Executor performs the upgrade transition for one candidate at a time.
type Executor struct {
	src source.Source
}

// NewExecutor creates an Executor over src.
func NewExecutor(src source.Source) *Executor {
	return &Executor{src: src}
}

// Upgrade applies one candidate. Version-controlled packages delegate to
// the source's in-place VC upgrade. Registry packages install the available
// version, verify it is present, and only then force-delete the old one, so
// there is never a state where both old and new are absent. A delete
// failure is reported but does not roll back the install.
func (e *Executor) Upgrade(c Candidate) error {
	name := c.Installed.Name

	if c.VC() {
		if err := e.src.VCUpgrade(c.Installed); err != nil {
			return &UpgradeError{Package: name, Stage: StageVCUpgrade, Err: err}
		}
		return nil
	}

	if c.Available == nil {
		return &UpgradeError{Package: name, Stage: StageInstall,
			Err: fmt.Errorf("registry candidate has no available descriptor")}
	}

	if err := e.src.Install(*c.Available); err != nil {
		return &UpgradeError{Package: name, Stage: StageInstall, Err: err}
	}

	if err := e.verifyInstalled(*c.Available); err != nil {
		return &UpgradeError{Package: name, Stage: StageVerify, Err: err}
	}

	if err := e.src.Delete(c.Installed, true); err != nil {
		return &UpgradeError{Package: name, Stage: StageDelete, Err: err}
	}
	return nil
}

// verifyInstalled presence-checks the descriptor against the source's
// installed list.
func (e *Executor) verifyInstalled(want source.Descriptor) error {
	installed, err := e.src.ListInstalled()
	if err != nil {
		return fmt.Errorf("failed to re-list installed packages: %w", err)
	}
	for _, pkg := range installed {
		if pkg.Name == want.Name && pkg.Version.Compare(want.Version) == 0 {
			return nil
		}
	}
	return fmt.Errorf("%s %s not present after install", want.Name, want.Version)
}
