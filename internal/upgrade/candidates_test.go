package upgrade

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/qxxt/pkgup/internal/source"
	"github.com/qxxt/pkgup/internal/version"
)

// fakeSource is an in-memory Source with failure injection.
type fakeSource struct {
	installed   []source.Descriptor
	available   map[string]source.Descriptor
	vcSupported bool
	archives    []string
	indexMtime  time.Time

	refreshErr error
	refreshes  int

	installErr    map[string]error
	installNoOp   map[string]bool // Install returns nil but has no effect
	deleteErr     map[string]error
	vcUpgradeErr  map[string]error
	installCalls  []string
	deleteCalls   []string
	vcCalls       []string
	deletedForced bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		available:    map[string]source.Descriptor{},
		vcSupported:  true,
		archives:     []string{"homebrew/core"},
		installErr:   map[string]error{},
		installNoOp:  map[string]bool{},
		deleteErr:    map[string]error{},
		vcUpgradeErr: map[string]error{},
	}
}

func (f *fakeSource) ListInstalled() ([]source.Descriptor, error) {
	out := make([]source.Descriptor, len(f.installed))
	copy(out, f.installed)
	return out, nil
}

func (f *fakeSource) ListAvailable() (map[string]source.Descriptor, error) {
	return f.available, nil
}

func (f *fakeSource) SupportsVersionControl() bool { return f.vcSupported }

func (f *fakeSource) RefreshIndex() error {
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.refreshes++
	return nil
}

func (f *fakeSource) IndexLastModified() (time.Time, error) { return f.indexMtime, nil }

func (f *fakeSource) Install(d source.Descriptor) error {
	f.installCalls = append(f.installCalls, d.Name)
	if err := f.installErr[d.Name]; err != nil {
		return err
	}
	if !f.installNoOp[d.Name] {
		f.installed = append(f.installed, d)
	}
	return nil
}

func (f *fakeSource) Delete(d source.Descriptor, force bool) error {
	f.deleteCalls = append(f.deleteCalls, d.Name)
	f.deletedForced = force
	if err := f.deleteErr[d.Name]; err != nil {
		return err
	}
	for i, pkg := range f.installed {
		if pkg.Name == d.Name && pkg.Version.Compare(d.Version) == 0 {
			f.installed = append(f.installed[:i], f.installed[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeSource) VCUpgrade(d source.Descriptor) error {
	f.vcCalls = append(f.vcCalls, d.Name)
	return f.vcUpgradeErr[d.Name]
}

func (f *fakeSource) Archives() []string { return f.archives }

// has reports whether name@v is currently installed in the fake.
func (f *fakeSource) has(name string, v version.Version) bool {
	for _, pkg := range f.installed {
		if pkg.Name == name && pkg.Version.Compare(v) == 0 {
			return true
		}
	}
	return false
}

func registryPkg(name, v string) source.Descriptor {
	return source.Descriptor{Name: name, Version: version.MustParse(v), Kind: source.Registry}
}

func vcPkg(name, v string) source.Descriptor {
	return source.Descriptor{Name: name, Version: version.MustParse(v), Kind: source.VersionControlled}
}

func TestComputeCandidates(t *testing.T) {
	src := newFakeSource()
	src.installed = []source.Descriptor{
		registryPkg("alpha", "1.0"),   // upgrade available
		registryPkg("beta", "2.0"),    // up to date
		registryPkg("gamma", "3.5"),   // index has older version
		registryPkg("delta", "1.0"),   // no available counterpart
		vcPkg("epsilon", "2.0"),       // version-controlled
	}
	src.available = map[string]source.Descriptor{
		"alpha":   registryPkg("alpha", "1.1"),
		"beta":    registryPkg("beta", "2.0"),
		"gamma":   registryPkg("gamma", "3.4"),
		"epsilon": registryPkg("epsilon", "9.9"), // must be ignored for VC installs
	}

	cs, err := NewDiffer(src).ComputeCandidates(true)
	if err != nil {
		t.Fatalf("ComputeCandidates failed: %v", err)
	}

	wantNames := []string{"alpha", "epsilon"}
	gotNames := cs.Names()
	if len(gotNames) != len(wantNames) {
		t.Fatalf("candidates = %v, want %v", gotNames, wantNames)
	}
	for i := range wantNames {
		if gotNames[i] != wantNames[i] {
			t.Errorf("candidates[%d] = %q, want %q", i, gotNames[i], wantNames[i])
		}
	}

	if cs[0].Available == nil || cs[0].Available.Version.Compare(version.MustParse("1.1")) != 0 {
		t.Errorf("alpha candidate should carry available 1.1, got %v", cs[0].Available)
	}
	if cs[1].Available != nil {
		t.Errorf("version-controlled candidate must not carry an available descriptor, got %v", cs[1].Available)
	}
}

func TestComputeCandidatesExcludesVC(t *testing.T) {
	src := newFakeSource()
	src.installed = []source.Descriptor{vcPkg("epsilon", "2.0")}

	cs, err := NewDiffer(src).ComputeCandidates(false)
	if err != nil {
		t.Fatalf("ComputeCandidates failed: %v", err)
	}
	if len(cs) != 0 {
		t.Errorf("VC packages must be skipped when includeVC=false, got %v", cs.Names())
	}
}

func TestComputeCandidatesVCUnsupported(t *testing.T) {
	src := newFakeSource()
	src.vcSupported = false

	_, err := NewDiffer(src).ComputeCandidates(true)
	if !errors.Is(err, ErrVCUnsupported) {
		t.Errorf("expected ErrVCUnsupported, got %v", err)
	}

	// Without the VC request the same source is fine.
	if _, err := NewDiffer(src).ComputeCandidates(false); err != nil {
		t.Errorf("ComputeCandidates(false) failed: %v", err)
	}
}

func TestComputeCandidatesNeverEmitsEqualOrLower(t *testing.T) {
	versions := []string{"1.0", "1.0.0", "2.3", "2.3.1"}
	for _, inst := range versions {
		for _, avail := range versions {
			src := newFakeSource()
			src.installed = []source.Descriptor{registryPkg("pkg", inst)}
			src.available = map[string]source.Descriptor{"pkg": registryPkg("pkg", avail)}

			cs, err := NewDiffer(src).ComputeCandidates(false)
			if err != nil {
				t.Fatalf("ComputeCandidates failed: %v", err)
			}
			iv, av := version.MustParse(inst), version.MustParse(avail)
			wantCandidate := iv.Less(av)
			if (len(cs) == 1) != wantCandidate {
				t.Errorf("installed=%s available=%s: candidate emitted=%v, want %v",
					inst, avail, len(cs) == 1, wantCandidate)
			}
		}
	}
}

func TestCandidateString(t *testing.T) {
	reg := Candidate{Installed: registryPkg("alpha", "1.0")}
	avail := registryPkg("alpha", "1.1")
	reg.Available = &avail
	if got, want := reg.String(), "alpha (1.0) => (1.1)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	vc := Candidate{Installed: vcPkg("epsilon", "2.0")}
	if got, want := vc.String(), "epsilon (2.0) (vc)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func ExampleCandidate_String() {
	avail := source.Descriptor{Name: "node", Version: version.MustParse("20.11.0"), Kind: source.Registry}
	c := Candidate{
		Installed: source.Descriptor{Name: "node", Version: version.MustParse("20.10.0"), Kind: source.Registry},
		Available: &avail,
	}
	fmt.Println(c)
	// Output: node (20.10.0) => (20.11.0)
}
