package pyext

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// BuilderFactory manages the registration and selection of extension builders.
//
// Create a factory with all standard builders:
//
//	factory := pyext.NewBuilderFactory()
//
// Or create an empty factory and register custom builders:
//
//	factory := &pyext.BuilderFactory{}
//	factory.Register(&MyCustomBuilder{})
//
// # Builder Selection
//
// The factory passes the base name of the extension's first source to
// CanBuild() on each registered builder in order and uses the first match.
//
// # Thread Safety
//
// Register all builders before concurrent use. After registration,
// BuilderFor and BuildAll are safe.
type BuilderFactory struct {
	builders []Builder
}

// NewBuilderFactory creates a factory with all standard builders registered.
//
//  1. CythonBuilder - .pyx and .py sources
//  2. CBuilder - .c, .cc, .cpp and .cxx sources
func NewBuilderFactory() *BuilderFactory {
	factory := &BuilderFactory{}

	factory.Register(&CythonBuilder{})
	factory.Register(&CBuilder{})

	return factory
}

// Register adds a new builder to the factory.
//
// Builders are checked in the order they are registered.
// Not thread-safe.
func (f *BuilderFactory) Register(builder Builder) {
	f.builders = append(f.builders, builder)
}

// BuilderFor returns the builder for the given source file.
func (f *BuilderFactory) BuilderFor(sourceFile string) (Builder, error) {
	filename := filepath.Base(sourceFile)

	for _, builder := range f.builders {
		if builder.CanBuild(filename) {
			return builder, nil
		}
	}

	return nil, fmt.Errorf("no builder found for source file: %s", filename)
}

// BuilderForExtension returns the builder for the extension's primary source.
func (f *BuilderFactory) BuilderForExtension(ext *Extension) (Builder, error) {
	if ext == nil || ext.PrimarySource() == "" {
		return nil, fmt.Errorf("%w: extension has no sources", ErrInvalidExtension)
	}
	return f.BuilderFor(ext.PrimarySource())
}

// ListBuilders returns a copy of all registered builders.
func (f *BuilderFactory) ListBuilders() []Builder {
	return append([]Builder{}, f.builders...)
}

// BuildAll builds every extension of pkg in declaration order.
//
// Returns one BuildResult per extension processed and the first error
// encountered. With config.StopOnFailure, processing stops after the first
// failure; otherwise all extensions are attempted. Context cancellation
// stops processing immediately and records a failed result carrying the
// context error.
func (f *BuilderFactory) BuildAll(ctx context.Context, config *BuildConfig, pkg *Package) ([]*BuildResult, error) {
	if pkg == nil || len(pkg.Extensions) == 0 {
		return nil, nil
	}

	log := config.logger().With(zap.String("package", pkg.Name))

	var results []*BuildResult
	var firstError error

	for _, ext := range pkg.Extensions {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if firstError == nil {
				firstError = ctxErr
			}
			results = append(results, &BuildResult{
				Extension: ext.Name,
				Success:   false,
				Error:     ctxErr,
			})
			break
		}

		builder, err := f.BuilderForExtension(ext)
		if err != nil {
			if firstError == nil {
				firstError = err
			}
			results = append(results, &BuildResult{
				Extension: ext.Name,
				Success:   false,
				Error:     err,
			})
			if config.StopOnFailure {
				break
			}
			continue
		}

		log.Info("building extension", zap.String("extension", ext.Name), zap.String("builder", builder.Name()))

		result, err := builder.Build(ctx, config, ext)
		if result == nil {
			result = &BuildResult{Extension: ext.Name, Success: false, Error: err}
		}
		if checker, ok := builder.(ToolChecker); ok && !result.Success {
			result.MissingDependencies = MissingTools(checker.RequiredTools())
		}
		if err != nil {
			if firstError == nil {
				firstError = err
			}
			log.Warn("extension failed", zap.String("extension", ext.Name), zap.Error(err))
		}

		results = append(results, result)

		if !result.Success && config.StopOnFailure {
			break
		}
	}

	return results, firstError
}

// CleanAll runs Clean for every extension of pkg and returns the first error.
func (f *BuilderFactory) CleanAll(ctx context.Context, config *BuildConfig, pkg *Package) error {
	var firstError error

	for _, ext := range pkg.Extensions {
		builder, err := f.BuilderForExtension(ext)
		if err == nil {
			err = builder.Clean(ctx, config, ext)
		}
		if err != nil && firstError == nil {
			firstError = err
		}
	}

	return firstError
}
