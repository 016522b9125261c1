package pyext

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInstallCopiesModulesToDest(t *testing.T) {
	projectDir := t.TempDir()
	destDir := t.TempDir()

	modDir := filepath.Join(projectDir, "pkg")
	if err := os.MkdirAll(modDir, 0o755); err != nil {
		t.Fatalf("failed to create module directory: %v", err)
	}

	built := filepath.Join(modDir, "fast.cpython-312-darwin.so")
	if err := os.WriteFile(built, []byte("binary"), 0o600); err != nil {
		t.Fatalf("failed to write module: %v", err)
	}
	if err := os.Chmod(built, 0o755); err != nil {
		t.Fatalf("failed to chmod module: %v", err)
	}

	config := &BuildConfig{ProjectDir: projectDir, DestPath: destDir}
	pkg := &Package{Name: "fast-pkg", ZipSafe: false}
	results := []*BuildResult{
		{Extension: "pkg.fast", Success: true, Extensions: []string{"pkg/fast.cpython-312-darwin.so"}},
		{Extension: "pkg.broken", Success: false, Extensions: []string{"pkg/broken.so"}},
	}

	installed, err := Install(config, pkg, results)
	if err != nil {
		t.Fatalf("Install returned error: %v", err)
	}

	expected := "pkg/fast.cpython-312-darwin.so"
	if len(installed) != 1 || installed[0] != expected {
		t.Fatalf("expected installed paths [%s], got %v", expected, installed)
	}

	info, err := os.Stat(filepath.Join(destDir, "pkg", "fast.cpython-312-darwin.so"))
	if err != nil {
		t.Fatalf("expected module copied to dest: %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("expected mode to be preserved, got %v", info.Mode().Perm())
	}

	marker := filepath.Join(destDir, "fast_pkg.egg-info", "not-zip-safe")
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("expected not-zip-safe marker at %s: %v", marker, err)
	}
}

func TestInstallZipSafeWritesNoMarker(t *testing.T) {
	projectDir := t.TempDir()
	destDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(projectDir, "sample.so"), []byte("binary"), 0o600); err != nil {
		t.Fatalf("failed to write module: %v", err)
	}

	config := &BuildConfig{ProjectDir: projectDir, DestPath: destDir}
	pkg := &Package{Name: "sample", ZipSafe: true}
	results := []*BuildResult{{Extension: "sample", Success: true, Extensions: []string{"sample.so"}}}

	if _, err := Install(config, pkg, results); err != nil {
		t.Fatalf("Install returned error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(destDir, "sample.egg-info")); !os.IsNotExist(err) {
		t.Errorf("expected no egg-info for zip-safe package, stat err: %v", err)
	}
}

func TestInstallWithoutDestReturnsInPlaceOutputs(t *testing.T) {
	projectDir := t.TempDir()

	config := &BuildConfig{ProjectDir: projectDir}
	pkg := &Package{Name: "sample"}
	results := []*BuildResult{
		{Success: true, Extensions: []string{"sample.so"}},
		{Success: true, Extensions: []string{"sample.so"}},
	}

	installed, err := Install(config, pkg, results)
	if err != nil {
		t.Fatalf("Install returned error: %v", err)
	}
	if len(installed) != 1 || installed[0] != "sample.so" {
		t.Fatalf("expected [sample.so], got %v", installed)
	}

	if _, err := os.Stat(filepath.Join(projectDir, "sample.egg-info")); !os.IsNotExist(err) {
		t.Errorf("in-place build must not write egg-info, stat err: %v", err)
	}
}

func TestSafeRelativePath(t *testing.T) {
	testCases := map[string]string{
		"pkg/fast.so":       filepath.Join("pkg", "fast.so"),
		"../escape/fast.so": "fast.so",
		"/abs/fast.so":      "fast.so",
	}

	for in, want := range testCases {
		if got := safeRelativePath(filepath.FromSlash(in)); got != want {
			t.Errorf("safeRelativePath(%q) = %q, want %q", in, got, want)
		}
	}
}
