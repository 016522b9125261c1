// Package pyext provides native extension compilation support for Python packages.
//
// This package is the Go equivalent of a setuptools build script that
// declares compiled extension modules and hands them to cythonize: it
// builds the extension descriptors, resolves the header locations they
// depend on, and drives the translate/compile/link steps that turn
// Cython or C sources into a loadable module.
//
// # Build Descriptors
//
// An Extension declares one native compilation target:
//
//	numpyInclude, err := (&pyext.NumpyResolver{Python: "python3"}).Resolve(ctx)
//	if err != nil {
//	    return err // wraps pyext.ErrDependencyNotFound
//	}
//
//	ext, err := pyext.NewExtension(pyext.ExtensionOptions{
//	    Name:         "sample",
//	    Sources:      []string{"sample.pyx"},
//	    IncludeDirs:  []string{"."},
//	    Numpy:        true,
//	    NumpyInclude: numpyInclude,
//	    BaseDir:      "/path/to/project",
//	})
//
// The numeric library's include directory is never looked up implicitly;
// it is resolved by an IncludeResolver and passed in, so descriptor
// construction stays deterministic.
//
// Descriptors can also be declared in a pyext.hcl or pyext.yaml manifest
// and turned into a Package with ResolvePackage.
//
// # Building
//
//	factory := pyext.NewBuilderFactory()
//
//	config := &pyext.BuildConfig{
//	    ProjectDir: "/path/to/project",
//	    DestPath:   "/path/to/site-packages",
//	    PythonPath: "/usr/bin/python3",
//	    Logger:     logger,
//	}
//
//	results, err := factory.BuildAll(ctx, config, pkg)
//
// # Architecture
//
//	BuilderFactory
//	├── CythonBuilder (.pyx, .py)
//	└── CBuilder (.c, .cc, .cpp, .cxx)
//
// Each builder implements the Builder interface and can:
//   - Detect if it can handle an extension's primary source
//   - Build the extension with proper error handling
//   - Clean build artifacts
//
// # Platform Support
//
// Linux and macOS with a GCC or Clang toolchain. Windows (MSVC) is not
// supported.
package pyext
