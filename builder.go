package pyext

import "context"

// Builder defines the interface that all extension builders must implement.
//
// Each builder handles one family of sources (Cython, plain C/C++) and must
// implement these methods to integrate with the BuilderFactory.
//
// # Builder Lifecycle
//
//  1. CanBuild() - Factory calls this with the extension's primary source
//  2. Build() - Factory calls this to compile the extension
//  3. Clean() - Optional cleanup of build artifacts
//
// # Example Implementation
//
//	type MyBuilder struct{}
//
//	func (b *MyBuilder) Name() string {
//	    return "Zig"
//	}
//
//	func (b *MyBuilder) CanBuild(sourceFile string) bool {
//	    return MatchesExtension(sourceFile, ".zig")
//	}
//
//	func (b *MyBuilder) Build(ctx context.Context, config *BuildConfig, ext *Extension) (*BuildResult, error) {
//	    return runCommonBuild(ctx, config, ext, CommonBuildSteps{...})
//	}
//
//	func (b *MyBuilder) Clean(ctx context.Context, config *BuildConfig, ext *Extension) error {
//	    return nil
//	}
//
// # Thread Safety
//
// Builder implementations should be stateless and thread-safe.
type Builder interface {
	// Name returns the human-readable name of this builder.
	// Examples: "Cython", "C"
	Name() string

	// CanBuild checks if this builder can handle the given source file.
	//
	// The sourceFile parameter is a filename (e.g., "sample.pyx") or a
	// relative path (e.g., "src/sample.pyx").
	CanBuild(sourceFile string) bool

	// Build compiles the extension and returns the result.
	//
	// Sources in ext are relative to config.ProjectDir.
	//
	// Returns:
	//   - BuildResult with Success=true and Extensions list on success
	//   - BuildResult with Success=false and Error on failure
	Build(ctx context.Context, config *BuildConfig, ext *Extension) (*BuildResult, error)

	// Clean removes build artifacts for ext.
	// Returns nil when there is nothing to clean.
	Clean(ctx context.Context, config *BuildConfig, ext *Extension) error
}
