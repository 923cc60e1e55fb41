package source

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/qxxt/pkgup/internal/version"
)

// brewInfoOutput represents the structure of `brew info --json=v2 --installed` output.
type brewInfoOutput struct {
	Formulae []brewFormula `json:"formulae"`
}

// brewFormula represents a Homebrew formula in JSON output.
type brewFormula struct {
	Name      string                 `json:"name"`
	FullName  string                 `json:"full_name"`
	Tap       string                 `json:"tap"`
	Version   string                 `json:"version"`
	Installed []brewInstalledVersion `json:"installed"`
}

// brewInstalledVersion represents one installed keg.
type brewInstalledVersion struct {
	Version string `json:"version"`
}

// Brew is a Source backed by the Homebrew CLI. Versioned kegs are Registry
// packages; HEAD installs are VersionControlled.
type Brew struct {
	taps []string
}

// NewBrew creates a brew-backed source for the given configured taps.
func NewBrew(taps []string) *Brew {
	return &Brew{taps: taps}
}

// ListInstalled returns all installed formulae in brew's enumeration order.
func (b *Brew) ListInstalled() ([]Descriptor, error) {
	output, err := runBrew("info", "--json=v2", "--installed")
	if err != nil {
		return nil, err
	}
	return parseInstalled(output)
}

// parseInstalled extracts installed descriptors from brew info JSON.
func parseInstalled(data []byte) ([]Descriptor, error) {
	var info brewInfoOutput
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse brew info output: %w", err)
	}

	var installed []Descriptor
	for _, formula := range info.Formulae {
		if len(formula.Installed) == 0 {
			continue
		}
		raw := formula.Installed[0].Version

		if strings.HasPrefix(raw, "HEAD") {
			installed = append(installed, Descriptor{
				Name:    formula.Name,
				Version: headVersion(raw),
				Kind:    VersionControlled,
			})
			continue
		}

		v, err := version.Parse(raw)
		if err != nil {
			// A keg whose version brew itself cannot order is not
			// something we can compare either; skip it.
			continue
		}
		installed = append(installed, Descriptor{
			Name:    formula.Name,
			Version: v,
			Kind:    Registry,
		})
	}
	return installed, nil
}

// ListAvailable returns the latest stable version per formula from the
// current index snapshot.
func (b *Brew) ListAvailable() (map[string]Descriptor, error) {
	output, err := runBrew("info", "--json=v2", "--installed")
	if err != nil {
		return nil, err
	}
	return parseAvailable(output)
}

// parseAvailable extracts the upstream stable descriptors from brew info JSON.
func parseAvailable(data []byte) (map[string]Descriptor, error) {
	var info brewInfoOutput
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse brew info output: %w", err)
	}

	available := make(map[string]Descriptor, len(info.Formulae))
	for _, formula := range info.Formulae {
		v, err := version.Parse(formula.Version)
		if err != nil {
			continue
		}
		available[formula.Name] = Descriptor{
			Name:    formula.Name,
			Version: v,
			Kind:    Registry,
		}
	}
	return available, nil
}

// SupportsVersionControl reports HEAD-install support (always available
// with brew).
func (b *Brew) SupportsVersionControl() bool {
	return true
}

// RefreshIndex runs brew update to re-fetch all taps.
func (b *Brew) RefreshIndex() error {
	if _, err := runBrew("update", "--quiet"); err != nil {
		return fmt.Errorf("index refresh: %w", err)
	}
	return nil
}

// IndexLastModified returns the mtime of brew's FETCH_HEAD, i.e. when the
// index was last synced. Zero time when no fetch ever happened.
func (b *Brew) IndexLastModified() (time.Time, error) {
	repo, err := runBrew("--repository")
	if err != nil {
		return time.Time{}, err
	}
	fetchHead := filepath.Join(strings.TrimSpace(string(repo)), ".git", "FETCH_HEAD")
	fi, err := os.Stat(fetchHead)
	if os.IsNotExist(err) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat %s: %w", fetchHead, err)
	}
	return fi.ModTime(), nil
}

// Install installs the formula the descriptor names.
func (b *Brew) Install(d Descriptor) error {
	if _, err := runBrew("install", "--quiet", d.Name); err != nil {
		return err
	}
	return nil
}

// Delete prunes the superseded keg for d. Homebrew removes outdated kegs
// per formula regardless of nominal dependents; force additionally scrubs
// the download cache.
func (b *Brew) Delete(d Descriptor, force bool) error {
	args := []string{"cleanup"}
	if force {
		args = append(args, "--prune=all")
	}
	args = append(args, d.Name)
	if _, err := runBrew(args...); err != nil {
		return err
	}
	return nil
}

// VCUpgrade rebuilds a HEAD install from the latest upstream commit.
func (b *Brew) VCUpgrade(d Descriptor) error {
	if _, err := runBrew("upgrade", "--fetch-HEAD", d.Name); err != nil {
		return err
	}
	return nil
}

// Archives returns the configured tap list.
func (b *Brew) Archives() []string {
	taps := make([]string, len(b.taps))
	copy(taps, b.taps)
	return taps
}

// runBrew executes a brew command and returns stdout, wrapping failures
// with captured stderr.
func runBrew(args ...string) ([]byte, error) {
	cmd := exec.Command("brew", args...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("brew %s failed: %w (stderr: %s)", args[0], err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("brew %s failed: %w", args[0], err)
	}
	return output, nil
}

// headVersion derives a display version for a HEAD keg like "HEAD-5c21f0b".
// The commit hash carries no order, so unparseable ones collapse to a
// placeholder; VC packages are never version-compared anyway.
func headVersion(raw string) version.Version {
	if v, err := version.Parse(strings.TrimPrefix(raw, "HEAD-")); err == nil {
		return v
	}
	return version.Version{0}
}
