package pyext

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// runCommand runs a build tool and returns its combined output.
// Swapped out in tests.
var runCommand = func(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env
	return cmd.CombinedOutput()
}

// targetOS selects platform link flags.
var targetOS = runtime.GOOS

// compileAndLink compiles every unit to an object file and links the
// objects into the extension module.
//
// Units compile concurrently, at most config.Parallel at a time. Output of
// each compiler invocation is appended to result in unit order.
func compileAndLink(ctx context.Context, config *BuildConfig, ext *Extension, units []string, result *BuildResult) error {
	if len(units) == 0 {
		return BuildError("Compile", result.Output, fmt.Errorf("extension %s has no C/C++ units", ext.Name))
	}

	objDir := filepath.Join(buildTempDir(config, ext), "obj")
	if err := os.MkdirAll(objDir, 0o755); err != nil {
		return err
	}

	compiler := compilerFor(config, ext.Language)
	env := buildEnv(config)
	log := config.logger().With(zap.String("extension", ext.Name))

	objects := objectPaths(objDir, units)
	outputs := make([][]string, len(units))

	g, gctx := errgroup.WithContext(ctx)
	if config.Parallel > 0 {
		g.SetLimit(config.Parallel)
	}

	for i, unit := range units {
		args := compileArgs(config, ext, unit, objects[i])
		g.Go(func() error {
			log.Debug("compile", zap.String("cmd", compiler), zap.Strings("args", args))
			output, err := runCommand(gctx, config.ProjectDir, env, compiler, args...)
			outputs[i] = splitOutput(output)
			if config.Verbose {
				outputs[i] = append(outputs[i], fmt.Sprintf("Running: %s %s", compiler, strings.Join(args, " ")))
			}
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(unit), err)
			}
			return nil
		})
	}

	err := g.Wait()
	for _, lines := range outputs {
		result.Output = append(result.Output, lines...)
	}
	if err != nil {
		return BuildError("Compile", result.Output, err)
	}

	out := moduleOutputPath(config, ext)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}

	args := linkArgs(config, ext, objects, out)
	log.Debug("link", zap.String("cmd", compiler), zap.Strings("args", args))
	output, err := runCommand(ctx, config.ProjectDir, env, compiler, args...)
	result.Output = append(result.Output, splitOutput(output)...)

	if config.Verbose {
		result.Output = append(result.Output,
			fmt.Sprintf("Running: %s %s", compiler, strings.Join(args, " ")),
			fmt.Sprintf("Working directory: %s", config.ProjectDir))
	}

	if err != nil {
		return BuildError("Link", result.Output, err)
	}

	return nil
}

func compileArgs(config *BuildConfig, ext *Extension, unit, object string) []string {
	args := []string{"-fPIC", "-O2"}

	for _, dir := range ext.IncludeDirs {
		args = append(args, "-I"+resolvePath(config, dir))
	}
	if config.PythonInclude != "" {
		args = append(args, "-I"+config.PythonInclude)
	}

	for _, m := range ext.Macros {
		if m.Value == "" {
			args = append(args, "-D"+m.Name)
		} else {
			args = append(args, fmt.Sprintf("-D%s=%s", m.Name, m.Value))
		}
	}

	args = append(args, ext.ExtraCompileArgs...)
	args = append(args, config.BuildArgs...)
	return append(args, "-c", unit, "-o", object)
}

func linkArgs(config *BuildConfig, ext *Extension, objects []string, out string) []string {
	var args []string
	if targetOS == platformDarwin {
		args = append(args, "-bundle", "-undefined", "dynamic_lookup")
	} else {
		args = append(args, "-shared")
	}

	args = append(args, objects...)

	for _, dir := range ext.LibraryDirs {
		args = append(args, "-L"+resolvePath(config, dir))
	}
	for _, lib := range ext.Libraries {
		args = append(args, "-l"+lib)
	}

	args = append(args, ext.ExtraLinkArgs...)
	return append(args, "-o", out)
}

// objectPaths maps units to object files, disambiguating equal stems.
func objectPaths(objDir string, units []string) []string {
	seen := make(map[string]int, len(units))
	objects := make([]string, len(units))

	for i, unit := range units {
		stem := strings.TrimSuffix(filepath.Base(unit), filepath.Ext(unit))
		name := stem
		if n := seen[stem]; n > 0 {
			name = fmt.Sprintf("%s_%d", stem, n)
		}
		seen[stem]++
		objects[i] = filepath.Join(objDir, name+".o")
	}

	return objects
}

// compilerFor picks the compiler: config, then $CC/$CXX, then PATH.
func compilerFor(config *BuildConfig, language string) string {
	if language == LanguageCXX {
		if config.CXX != "" {
			return config.CXX
		}
		if cxx := os.Getenv("CXX"); cxx != "" {
			return cxx
		}
		if path, ok := FindTool(compilerRequirement(LanguageCXX)); ok {
			return path
		}
		return "c++"
	}

	if config.CC != "" {
		return config.CC
	}
	if cc := os.Getenv("CC"); cc != "" {
		return cc
	}
	if path, ok := FindTool(compilerRequirement(LanguageC)); ok {
		return path
	}
	return "cc"
}

// cleanExtension removes the scratch dir and the linked module.
func cleanExtension(config *BuildConfig, ext *Extension) error {
	if err := os.RemoveAll(buildTempDir(config, ext)); err != nil {
		return err
	}
	if err := os.Remove(moduleOutputPath(config, ext)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

const platformDarwin = "darwin"
