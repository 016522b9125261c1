package pyext

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrMissingSource is returned when a declared source unit does not exist.
	ErrMissingSource = errors.New("missing source")

	// ErrDependencyNotFound is returned when a required header location
	// (numpy, the Python interpreter) cannot be resolved.
	ErrDependencyNotFound = errors.New("dependency not found")

	// ErrInvalidExtension is returned for malformed descriptors.
	ErrInvalidExtension = errors.New("invalid extension")
)

// Language values accepted by Extension.Language.
const (
	LanguageC   = "c"
	LanguageCXX = "c++"
)

var moduleNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Macro is a preprocessor definition passed as -DName or -DName=Value.
type Macro struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value,omitempty"`
}

// Extension is the build descriptor for one compiled extension module.
//
// It records what to compile and which include directories the compiler
// must search. An Extension is built once per build invocation by
// NewExtension and then handed to a Builder.
type Extension struct {
	Name             string   `yaml:"name"`
	Sources          []string `yaml:"sources"`
	IncludeDirs      []string `yaml:"include_dirs"`
	Language         string   `yaml:"language"`
	Macros           []Macro  `yaml:"macros,omitempty"`
	Libraries        []string `yaml:"libraries,omitempty"`
	LibraryDirs      []string `yaml:"library_dirs,omitempty"`
	ExtraCompileArgs []string `yaml:"extra_compile_args,omitempty"`
	ExtraLinkArgs    []string `yaml:"extra_link_args,omitempty"`
}

// ExtensionOptions is the input to NewExtension.
//
// NumpyInclude is the already-resolved numpy header directory. It is only
// consulted when Numpy is true; use an IncludeResolver to obtain it.
type ExtensionOptions struct {
	Name        string
	Sources     []string
	IncludeDirs []string
	Language    string

	// Numpy marks the extension as compiled against numpy headers.
	Numpy        bool
	NumpyInclude string

	// BaseDir is the directory relative sources are checked against.
	BaseDir string

	Macros           []Macro
	Libraries        []string
	LibraryDirs      []string
	ExtraCompileArgs []string
	ExtraLinkArgs    []string
}

// NewExtension validates opts and returns the extension descriptor.
//
// The numpy include is checked before any filesystem access, so a missing
// dependency is reported without touching the sources. Include directories
// keep their declared order, followed by the numpy include; duplicates are
// preserved.
func NewExtension(opts ExtensionOptions) (*Extension, error) {
	if opts.Numpy && strings.TrimSpace(opts.NumpyInclude) == "" {
		return nil, fmt.Errorf("extension %q: numpy include directory: %w", opts.Name, ErrDependencyNotFound)
	}

	if !moduleNamePattern.MatchString(opts.Name) {
		return nil, fmt.Errorf("%w: bad module name %q", ErrInvalidExtension, opts.Name)
	}

	if len(opts.Sources) == 0 {
		return nil, fmt.Errorf("%w: extension %q declares no sources", ErrInvalidExtension, opts.Name)
	}

	language := opts.Language
	switch language {
	case "":
		language = LanguageC
	case LanguageC, LanguageCXX:
	default:
		return nil, fmt.Errorf("%w: extension %q: unsupported language %q", ErrInvalidExtension, opts.Name, language)
	}

	if err := checkCythonSources(opts.Name, opts.Sources); err != nil {
		return nil, err
	}

	for _, src := range opts.Sources {
		if err := checkSource(opts.BaseDir, src); err != nil {
			return nil, err
		}
	}

	includeDirs := make([]string, 0, len(opts.IncludeDirs)+1)
	includeDirs = append(includeDirs, opts.IncludeDirs...)
	if opts.Numpy {
		includeDirs = append(includeDirs, opts.NumpyInclude)
	}

	return &Extension{
		Name:             opts.Name,
		Sources:          cloneStrings(opts.Sources),
		IncludeDirs:      includeDirs,
		Language:         language,
		Macros:           append([]Macro(nil), opts.Macros...),
		Libraries:        cloneStrings(opts.Libraries),
		LibraryDirs:      cloneStrings(opts.LibraryDirs),
		ExtraCompileArgs: cloneStrings(opts.ExtraCompileArgs),
		ExtraLinkArgs:    cloneStrings(opts.ExtraLinkArgs),
	}, nil
}

// checkCythonSources rejects more than one .pyx/.py source. Each Cython
// source becomes its own module, so an extension can hold only one.
func checkCythonSources(name string, sources []string) error {
	var cython []string
	for _, src := range sources {
		if isCythonSource(src) {
			cython = append(cython, src)
		}
	}
	if len(cython) > 1 {
		return fmt.Errorf("%w: extension %q: one Cython source per extension, got %v", ErrInvalidExtension, name, cython)
	}
	return nil
}

func isCythonSource(src string) bool {
	return MatchesExtension(src, ".pyx", ".py")
}

// ModulePath returns the extension's output path without the platform
// suffix, e.g. "pkg/fast" for "pkg.fast".
func (e *Extension) ModulePath() string {
	return filepath.Join(strings.Split(e.Name, ".")...)
}

// BaseName returns the last component of the dotted module name.
func (e *Extension) BaseName() string {
	parts := strings.Split(e.Name, ".")
	return parts[len(parts)-1]
}

// PrimarySource returns the first declared source.
func (e *Extension) PrimarySource() string {
	if len(e.Sources) == 0 {
		return ""
	}
	return e.Sources[0]
}

// Package groups the extensions of one distribution.
type Package struct {
	Name       string       `yaml:"name"`
	Extensions []*Extension `yaml:"extensions"`

	// ZipSafe reports whether installed artifacts may be zipped or
	// treated as read-only by downstream installers.
	ZipSafe bool `yaml:"zip_safe"`
}

// NewPackage returns a package descriptor. Extension names must be unique.
func NewPackage(name string, zipSafe bool, extensions ...*Extension) (*Package, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: package name is empty", ErrInvalidExtension)
	}

	seen := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		if ext == nil {
			return nil, fmt.Errorf("%w: nil extension in package %q", ErrInvalidExtension, name)
		}
		if _, dup := seen[ext.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate extension %q in package %q", ErrInvalidExtension, ext.Name, name)
		}
		seen[ext.Name] = struct{}{}
	}

	return &Package{
		Name:       name,
		Extensions: append([]*Extension(nil), extensions...),
		ZipSafe:    zipSafe,
	}, nil
}

// Extension returns the named extension or nil.
func (p *Package) Extension(name string) *Extension {
	for _, ext := range p.Extensions {
		if ext.Name == name {
			return ext
		}
	}
	return nil
}

func checkSource(baseDir, src string) error {
	path := src
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrMissingSource, path)
		}
		return fmt.Errorf("%w: %s: %v", ErrMissingSource, path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrMissingSource, path)
	}

	return nil
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string{}, values...)
}
