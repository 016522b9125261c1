package pyext

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// runPython executes a short inline script and returns its stdout.
// Swapped out in tests.
var runPython = func(ctx context.Context, python, script string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, python, "-c", script)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, lastLine(msg))
		}
		return nil, err
	}
	return out, nil
}

// IncludeResolver resolves a header directory needed by an extension.
//
// Resolution is the only place where the installed environment is queried;
// the resulting path is passed to NewExtension explicitly.
type IncludeResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// StaticInclude is an IncludeResolver that returns a fixed directory.
type StaticInclude string

// Resolve returns the directory, or ErrDependencyNotFound when empty.
func (s StaticInclude) Resolve(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", fmt.Errorf("numpy include directory not set: %w", ErrDependencyNotFound)
	}
	return string(s), nil
}

const numpyIncludeScript = "import numpy; print(numpy.get_include())"

// NumpyResolver asks the installed numpy for its header directory.
type NumpyResolver struct {
	// Python is the interpreter to query. Defaults to python3.
	Python string
}

// Resolve runs the interpreter and returns numpy's include directory.
// Any failure, including an interpreter without numpy, wraps
// ErrDependencyNotFound.
func (r *NumpyResolver) Resolve(ctx context.Context) (string, error) {
	python := r.Python
	if python == "" {
		python = defaultPython
	}

	out, err := runPython(ctx, python, numpyIncludeScript)
	if err != nil {
		return "", fmt.Errorf("numpy via %s: %v: %w", python, err, ErrDependencyNotFound)
	}

	dir := strings.TrimSpace(string(out))
	if dir == "" {
		return "", fmt.Errorf("numpy via %s: empty include path: %w", python, ErrDependencyNotFound)
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("numpy include %s is not a directory: %w", dir, ErrDependencyNotFound)
	}

	return dir, nil
}

const defaultPython = "python3"

// PythonInfo holds the interpreter facts needed to compile an extension.
type PythonInfo struct {
	Version    string `json:"version"`
	IncludeDir string `json:"include"`
	ExtSuffix  string `json:"ext_suffix"`
	Platform   string `json:"platform"`
}

const inspectScript = `import json, sys, sysconfig
print(json.dumps({
    "version": "%d.%d" % sys.version_info[:2],
    "include": sysconfig.get_paths()["include"],
    "ext_suffix": sysconfig.get_config_var("EXT_SUFFIX") or ".so",
    "platform": sysconfig.get_platform(),
}))`

// InspectPython queries the interpreter's sysconfig. Failures wrap
// ErrDependencyNotFound.
func InspectPython(ctx context.Context, python string) (*PythonInfo, error) {
	if python == "" {
		python = defaultPython
	}

	out, err := runPython(ctx, python, inspectScript)
	if err != nil {
		return nil, fmt.Errorf("python interpreter %s: %v: %w", python, err, ErrDependencyNotFound)
	}

	var info PythonInfo
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(out))), &info); err != nil {
		return nil, fmt.Errorf("python interpreter %s: unreadable sysconfig: %v: %w", python, err, ErrDependencyNotFound)
	}
	if info.IncludeDir == "" {
		return nil, fmt.Errorf("python interpreter %s: no include directory: %w", python, ErrDependencyNotFound)
	}
	if info.ExtSuffix == "" {
		info.ExtSuffix = ".so"
	}

	return &info, nil
}

// ApplyPythonInfo fills unset interpreter fields of the config.
func (c *BuildConfig) ApplyPythonInfo(info *PythonInfo) {
	if info == nil {
		return
	}
	if c.PythonInclude == "" {
		c.PythonInclude = info.IncludeDir
	}
	if c.ExtSuffix == "" {
		c.ExtSuffix = info.ExtSuffix
	}
}

func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
