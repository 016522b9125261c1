package pyext

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// runCommonBuild executes the standard 3-step build process.
//
// Python extension builds follow the same shape regardless of the source
// language:
//  1. Translate: Cython sources become C/C++ units (C sources pass through)
//  2. Compile: Each unit is compiled to an object and the objects are
//     linked into one loadable module
//  3. Find: The built module is located in the project dir
//
// Before step 1 every declared source is checked again: the tree may have
// changed since the descriptor was built, and a missing source must fail
// the build with ErrMissingSource before any tool runs.
//
// # Error Handling
//
// If any step returns an error:
//   - result.Error is set to the error
//   - result.Success remains false
//   - The BuildResult and error are returned
//   - Subsequent steps are not executed
func runCommonBuild(ctx context.Context, config *BuildConfig, ext *Extension, steps CommonBuildSteps) (*BuildResult, error) {
	result := &BuildResult{
		Extension: ext.Name,
		Success:   false,
		Output:    []string{},
	}
	log := config.logger().With(zap.String("extension", ext.Name))

	for _, src := range ext.Sources {
		if err := checkSource(config.ProjectDir, src); err != nil {
			result.Error = err
			return result, err
		}
	}

	// Step 1: Translate sources into compilable units
	log.Debug("translating sources", zap.Strings("sources", ext.Sources))
	units, err := steps.TranslateFunc(ctx, config, ext, result)
	if err != nil {
		result.Error = err
		return result, err
	}

	// Step 2: Compile and link
	log.Debug("compiling units", zap.Strings("units", units))
	if err := steps.CompileFunc(ctx, config, ext, units, result); err != nil {
		result.Error = err
		return result, err
	}

	// Step 3: Find the built module files
	extensions, err := steps.FindFunc(config, ext)
	if err != nil {
		result.Error = err
		return result, err
	}

	result.Extensions = extensions
	result.Success = true
	log.Info("extension built", zap.Strings("outputs", extensions))
	return result, nil
}

// buildTempDir returns the per-extension scratch directory.
func buildTempDir(config *BuildConfig, ext *Extension) string {
	base := config.BuildDir
	if base == "" {
		base = filepath.Join(config.ProjectDir, "build")
	} else if !filepath.IsAbs(base) && config.ProjectDir != "" {
		base = filepath.Join(config.ProjectDir, base)
	}
	return filepath.Join(base, "temp", ext.Name)
}

// moduleOutputPath returns where the linked module is written.
func moduleOutputPath(config *BuildConfig, ext *Extension) string {
	return filepath.Join(config.ProjectDir, ext.ModulePath()+extSuffix(config))
}

func extSuffix(config *BuildConfig) string {
	if config.ExtSuffix != "" {
		return config.ExtSuffix
	}
	return ".so"
}

// resolvePath makes a project-relative path absolute.
func resolvePath(config *BuildConfig, path string) string {
	if filepath.IsAbs(path) || config.ProjectDir == "" {
		return path
	}
	return filepath.Join(config.ProjectDir, path)
}

// findBuiltModule reports the linked module relative to the project dir.
func findBuiltModule(config *BuildConfig, ext *Extension) ([]string, error) {
	out := moduleOutputPath(config, ext)
	if _, err := os.Stat(out); err != nil {
		return nil, BuildError("Link", nil, err)
	}

	rel, err := filepath.Rel(config.ProjectDir, out)
	if err != nil {
		return []string{filepath.ToSlash(out)}, nil
	}
	return []string{filepath.ToSlash(rel)}, nil
}

// buildEnv returns the process environment with config.Env applied.
func buildEnv(config *BuildConfig) []string {
	env := os.Environ()
	for key, value := range config.Env {
		env = append(env, key+"="+value)
	}
	return env
}

func splitOutput(output []byte) []string {
	text := strings.TrimRight(string(output), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
