package pyext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// CythonBuilder handles .pyx and .py sources - the cythonize workflow
type CythonBuilder struct{}

// Name returns the builder name
func (b *CythonBuilder) Name() string {
	return "Cython"
}

// RequiredTools returns the tools needed for Cython builds
func (b *CythonBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:    "cython",
			Purpose: "Cython translator (python -m cython is used as a fallback)",
		},
		pythonRequirement(),
		compilerRequirement(LanguageC),
	}
}

// CheckTools verifies that the Cython translator and a C compiler are available
func (b *CythonBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild checks if this builder can handle the source file
func (b *CythonBuilder) CanBuild(sourceFile string) bool {
	return isCythonSource(sourceFile)
}

// Build translates the Cython sources and compiles the generated C
func (b *CythonBuilder) Build(ctx context.Context, config *BuildConfig, ext *Extension) (*BuildResult, error) {
	if config.CleanFirst {
		if err := cleanExtension(config, ext); err != nil {
			return &BuildResult{Extension: ext.Name, Error: err}, err
		}
	}

	return runCommonBuild(ctx, config, ext, CommonBuildSteps{
		TranslateFunc: b.translate,
		CompileFunc:   compileAndLink,
		FindFunc:      findBuiltModule,
	})
}

// Clean removes generated C files, objects and the built module
func (b *CythonBuilder) Clean(_ context.Context, config *BuildConfig, ext *Extension) error {
	return cleanExtension(config, ext)
}

// translate runs cython on every .pyx/.py source. Other sources are passed
// through to the compile step unchanged.
func (b *CythonBuilder) translate(ctx context.Context, config *BuildConfig, ext *Extension, result *BuildResult) ([]string, error) {
	srcDir := filepath.Join(buildTempDir(config, ext), "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return nil, err
	}

	if err := checkCythonSources(ext.Name, ext.Sources); err != nil {
		return nil, err
	}

	env := buildEnv(config)
	log := config.logger().With(zap.String("extension", ext.Name))

	var units []string
	for _, src := range ext.Sources {
		srcPath := resolvePath(config, src)

		if !b.CanBuild(src) {
			if isCompilable(src) {
				units = append(units, srcPath)
			}
			continue
		}

		out := filepath.Join(srcDir, generatedName(src, ext.Language))
		args := b.cythonArgs(config, ext, srcPath, out)
		cmd, cmdArgs := b.determineCythonCommand(config, args)

		log.Debug("cython", zap.String("cmd", cmd), zap.Strings("args", cmdArgs))
		output, err := runCommand(ctx, config.ProjectDir, env, cmd, cmdArgs...)
		result.Output = append(result.Output, splitOutput(output)...)

		if config.Verbose {
			result.Output = append(result.Output,
				fmt.Sprintf("Running: %s %s", cmd, strings.Join(cmdArgs, " ")),
				fmt.Sprintf("Working directory: %s", config.ProjectDir))
		}

		if err != nil {
			return nil, BuildError("Cython", result.Output, err)
		}

		if _, err := os.Stat(out); os.IsNotExist(err) {
			return nil, BuildError("Cython", result.Output, fmt.Errorf("%s not generated", filepath.Base(out)))
		}

		units = append(units, out)
	}

	return units, nil
}

// cythonArgs mirrors what cythonize passes for an Extension: language
// level 3, C++ mode for c++ extensions, and the extension's include dirs
// as the .pxd search path. The module name is always ext.Name so the
// generated init symbol matches the import path.
func (b *CythonBuilder) cythonArgs(config *BuildConfig, ext *Extension, src, out string) []string {
	args := []string{"-3"}
	if ext.Language == LanguageCXX {
		args = append(args, "--cplus")
	}

	for _, dir := range ext.IncludeDirs {
		args = append(args, "-I", resolvePath(config, dir))
	}

	args = append(args, "--module-name", ext.Name)

	return append(args, "-o", out, src)
}

// determineCythonCommand prefers an explicit CythonPath, then a cython
// binary in PATH, then `python -m cython`.
func (b *CythonBuilder) determineCythonCommand(config *BuildConfig, args []string) (string, []string) {
	if config.CythonPath != "" {
		return config.CythonPath, append([]string{}, args...)
	}

	if path, err := execLookPath("cython"); err == nil {
		return path, append([]string{}, args...)
	}

	python := config.PythonPath
	if python == "" {
		python = defaultPython
	}

	return python, append([]string{"-m", "cython"}, args...)
}

func generatedName(src, language string) string {
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	if language == LanguageCXX {
		return stem + ".cpp"
	}
	return stem + ".c"
}

func isCompilable(src string) bool {
	return MatchesExtension(src, ".c", ".cc", ".cpp", ".cxx")
}
