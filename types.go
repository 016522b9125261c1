package pyext

import (
	"context"

	"go.uber.org/zap"
)

// BuildResult contains the output and status of a build operation.
//
// After a build completes, this structure provides:
//   - Success status indicating if the build completed without errors
//   - Output lines captured from the build tools (stdout/stderr)
//   - Extensions list of compiled modules, relative to the project dir
//   - Error information if the build failed
type BuildResult struct {
	Extension           string   // Dotted name of the extension that was built
	Success             bool     // True if build completed successfully
	Output              []string // Lines of output from the build tools
	Extensions          []string // Paths to built extension modules
	Error               error    // Error if build failed, nil otherwise
	MissingDependencies []string // Names of build-time dependencies that were missing
}

// BuildConfig contains configuration for the build process.
//
// Source paths:
//   - ProjectDir: Root directory holding the extension sources
//   - BuildDir: Scratch directory for translated C files and objects
//     (default ProjectDir/build)
//   - DestPath: Optional install directory for built modules
//
// Toolchain:
//   - PythonPath, CythonPath, CC, CXX: tool overrides
//   - PythonInclude, ExtSuffix: interpreter facts, usually filled from
//     InspectPython before building
//
// Build behavior:
//   - Parallel: Maximum concurrent compile jobs (0 = one per source)
//   - CleanFirst: Remove previous build artifacts first
//   - StopOnFailure: Stop after the first failed extension
type BuildConfig struct {
	// Source paths
	ProjectDir string // Root directory of the project
	BuildDir   string // Directory for intermediate files
	DestPath   string // Destination for installed modules

	// Build arguments
	BuildArgs []string          // Additional compiler arguments
	Env       map[string]string // Environment variables for build tools

	// Python toolchain
	PythonPath    string // Path to the Python interpreter
	CythonPath    string // Path to the cython executable
	PythonInclude string // Python.h directory
	ExtSuffix     string // Module suffix, e.g. ".cpython-312-x86_64-linux-gnu.so"

	// C toolchain
	CC  string // C compiler
	CXX string // C++ compiler

	// Build options
	Verbose    bool // Enable verbose output
	CleanFirst bool // Run clean before build
	Parallel   int  // Number of parallel compile jobs

	// Failure handling
	StopOnFailure bool // Stop after the first failed extension build

	Logger *zap.Logger
}

func (c *BuildConfig) logger() *zap.Logger {
	if c == nil || c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// CommonBuildSteps defines the standard 3-step build pattern used by the builders.
//
//  1. Translate: Produce C/C++ units from the sources (cython); may be a no-op
//  2. Compile: Compile the units and link the extension module
//  3. Find: Locate the built module files
//
// Example usage in a builder:
//
//	return runCommonBuild(ctx, config, ext, CommonBuildSteps{
//	    TranslateFunc: b.translate,
//	    CompileFunc:   b.compile,
//	    FindFunc:      findBuiltModule,
//	})
type CommonBuildSteps struct {
	// TranslateFunc converts the extension sources into C/C++ units and
	// returns their paths.
	TranslateFunc func(ctx context.Context, config *BuildConfig, ext *Extension, result *BuildResult) ([]string, error)

	// CompileFunc compiles the units and links the module.
	CompileFunc func(ctx context.Context, config *BuildConfig, ext *Extension, units []string, result *BuildResult) error

	// FindFunc locates the compiled module files after build completes.
	FindFunc func(config *BuildConfig, ext *Extension) ([]string, error)
}
