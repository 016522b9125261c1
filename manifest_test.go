package pyext

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingResolver struct {
	dir   string
	err   error
	calls int
}

func (r *countingResolver) Resolve(context.Context) (string, error) {
	r.calls++
	return r.dir, r.err
}

func TestLoadManifestFormatsAgree(t *testing.T) {
	hclManifest, err := LoadManifest(filepath.Join("testdata", "sample", "pyext.hcl"))
	require.NoError(t, err)

	yamlManifest, err := LoadManifest(filepath.Join("testdata", "sample", "pyext.yaml"))
	require.NoError(t, err)

	if diff := cmp.Diff(hclManifest, yamlManifest); diff != "" {
		t.Errorf("HCL and YAML manifests differ (-hcl +yaml):\n%s", diff)
	}

	assert.Equal(t, "sample", hclManifest.Name)
	require.NotNil(t, hclManifest.ZipSafe)
	assert.False(t, *hclManifest.ZipSafe)
	require.Len(t, hclManifest.Extensions, 1)
	assert.True(t, hclManifest.NeedsNumpy())
}

func TestFindManifestPrefersHCL(t *testing.T) {
	path, err := FindManifest(filepath.Join("testdata", "sample"))
	require.NoError(t, err)
	assert.Equal(t, "pyext.hcl", filepath.Base(path))

	_, err = FindManifest(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadManifestErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "pyext.hcl")
	require.NoError(t, os.WriteFile(bad, []byte(`package "x" { sources = `), 0o600))
	_, err := LoadManifest(bad)
	assert.Error(t, err)

	_, err = LoadManifest(filepath.Join(dir, "setup.cfg"))
	assert.ErrorContains(t, err, "unsupported manifest format")
}

func TestLoadManifestRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()

	misspelled := map[string]string{
		"pyext.yaml": "name: sample\nextensions:\n  - name: sample\n    sources: [sample.pyx]\n    include_dir: [\".\"]\n",
		"pyext.hcl":  "package \"sample\" {\n  extension \"sample\" {\n    sources     = [\"sample.pyx\"]\n    include_dir = [\".\"]\n  }\n}\n",
	}

	for name, body := range misspelled {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

			_, err := LoadManifest(path)
			assert.ErrorContains(t, err, "include_dir")
		})
	}
}

func TestResolvePackageFromManifest(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "sample.pyx")

	m, err := LoadManifest(filepath.Join("testdata", "sample", "pyext.hcl"))
	require.NoError(t, err)

	resolver := &countingResolver{dir: "/opt/numpy/include"}
	pkg, err := ResolvePackage(context.Background(), m, dir, resolver)
	require.NoError(t, err)

	assert.Equal(t, 1, resolver.calls)
	assert.False(t, pkg.ZipSafe)
	require.Len(t, pkg.Extensions, 1)
	assert.Equal(t, []string{".", "/opt/numpy/include"}, pkg.Extensions[0].IncludeDirs)
}

func TestResolvePackageDependencyFailureStopsEarly(t *testing.T) {
	m := &PackageManifest{
		Name: "sample",
		Extensions: []ExtensionManifest{
			{Name: "sample", Sources: []string{"missing.pyx"}, Numpy: true},
		},
	}

	resolver := &countingResolver{err: errors.Join(errors.New("no numpy"), ErrDependencyNotFound)}
	_, err := ResolvePackage(context.Background(), m, t.TempDir(), resolver)
	require.ErrorIs(t, err, ErrDependencyNotFound)
	assert.NotErrorIs(t, err, ErrMissingSource)

	_, err = ResolvePackage(context.Background(), m, t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrDependencyNotFound)
}

func TestResolvePackageSkipsResolverWithoutNumpy(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "fast.c")

	zipSafe := true
	m := &PackageManifest{
		Name:    "fast",
		ZipSafe: &zipSafe,
		Extensions: []ExtensionManifest{{
			Name:         "fast",
			Sources:      []string{"fast.c"},
			DefineMacros: map[string]string{"B": "2", "A": ""},
		}},
	}

	resolver := &countingResolver{}
	pkg, err := ResolvePackage(context.Background(), m, dir, resolver)
	require.NoError(t, err)
	assert.Zero(t, resolver.calls)
	assert.True(t, pkg.ZipSafe)
	assert.Equal(t, []Macro{{Name: "A"}, {Name: "B", Value: "2"}}, pkg.Extensions[0].Macros)
}
