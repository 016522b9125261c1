package pyext

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPython(t *testing.T, fn func(python, script string) ([]byte, error)) {
	t.Helper()
	orig := runPython
	t.Cleanup(func() { runPython = orig })
	runPython = func(_ context.Context, python, script string) ([]byte, error) {
		return fn(python, script)
	}
}

func TestNumpyResolverReturnsIncludeDir(t *testing.T) {
	include := t.TempDir()
	var gotPython, gotScript string
	stubPython(t, func(python, script string) ([]byte, error) {
		gotPython, gotScript = python, script
		return []byte(include + "\n"), nil
	})

	dir, err := (&NumpyResolver{Python: "/opt/py/bin/python"}).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, include, dir)
	assert.Equal(t, "/opt/py/bin/python", gotPython)
	assert.Equal(t, numpyIncludeScript, gotScript)
}

func TestNumpyResolverDefaultsToPython3(t *testing.T) {
	include := t.TempDir()
	var gotPython string
	stubPython(t, func(python, _ string) ([]byte, error) {
		gotPython = python
		return []byte(include), nil
	})

	_, err := (&NumpyResolver{}).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "python3", gotPython)
}

func TestNumpyResolverFailures(t *testing.T) {
	testCases := []struct {
		name string
		out  string
		err  error
	}{
		{"import error", "", errors.New("ModuleNotFoundError: No module named 'numpy'")},
		{"empty output", "  \n", nil},
		{"not a directory", "/nonexistent/numpy/include", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stubPython(t, func(string, string) ([]byte, error) {
				return []byte(tc.out), tc.err
			})

			_, err := (&NumpyResolver{}).Resolve(context.Background())
			assert.ErrorIs(t, err, ErrDependencyNotFound)
		})
	}
}

func TestStaticInclude(t *testing.T) {
	dir, err := StaticInclude("/opt/numpy/include").Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/opt/numpy/include", dir)

	_, err = StaticInclude("").Resolve(context.Background())
	assert.ErrorIs(t, err, ErrDependencyNotFound)
}

func TestInspectPython(t *testing.T) {
	stubPython(t, func(_ string, script string) ([]byte, error) {
		assert.Equal(t, inspectScript, script)
		return []byte(`{"version": "3.12", "include": "/usr/include/python3.12", "ext_suffix": ".cpython-312-x86_64-linux-gnu.so", "platform": "linux-x86_64"}`), nil
	})

	info, err := InspectPython(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, &PythonInfo{
		Version:    "3.12",
		IncludeDir: "/usr/include/python3.12",
		ExtSuffix:  ".cpython-312-x86_64-linux-gnu.so",
		Platform:   "linux-x86_64",
	}, info)

	config := &BuildConfig{ExtSuffix: ".so"}
	config.ApplyPythonInfo(info)
	assert.Equal(t, "/usr/include/python3.12", config.PythonInclude)
	assert.Equal(t, ".so", config.ExtSuffix, "explicit suffix is kept")
}

func TestInspectPythonFailures(t *testing.T) {
	stubPython(t, func(string, string) ([]byte, error) {
		return nil, errors.New("exec: \"python3\": executable file not found in $PATH")
	})
	_, err := InspectPython(context.Background(), "")
	assert.ErrorIs(t, err, ErrDependencyNotFound)

	stubPython(t, func(string, string) ([]byte, error) {
		return []byte("not json"), nil
	})
	_, err = InspectPython(context.Background(), "")
	assert.ErrorIs(t, err, ErrDependencyNotFound)

	stubPython(t, func(string, string) ([]byte, error) {
		return []byte(`{"version": "3.12"}`), nil
	})
	_, err = InspectPython(context.Background(), "")
	assert.ErrorIs(t, err, ErrDependencyNotFound)
}
