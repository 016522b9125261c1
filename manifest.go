package pyext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"gopkg.in/yaml.v3"
)

// Manifest file names, in lookup order.
var ManifestNames = []string{"pyext.hcl", "pyext.yaml", "pyext.yml"}

// PackageManifest is the declarative form of a package and its extensions.
//
// In HCL:
//
//	package "sample" {
//	  zip_safe = false
//	  extension "sample" {
//	    sources      = ["sample.pyx"]
//	    include_dirs = ["."]
//	    numpy        = true
//	  }
//	}
//
// In YAML the package block is the document root:
//
//	name: sample
//	zip_safe: false
//	extensions:
//	  - name: sample
//	    sources: [sample.pyx]
//	    include_dirs: ["."]
//	    numpy: true
type PackageManifest struct {
	Name       string              `hcl:"name,label" yaml:"name"`
	ZipSafe    *bool               `hcl:"zip_safe,optional" yaml:"zip_safe"`
	Extensions []ExtensionManifest `hcl:"extension,block" yaml:"extensions"`
}

// ExtensionManifest declares one extension module.
type ExtensionManifest struct {
	Name             string            `hcl:"name,label" yaml:"name"`
	Sources          []string          `hcl:"sources" yaml:"sources"`
	IncludeDirs      []string          `hcl:"include_dirs,optional" yaml:"include_dirs"`
	Language         string            `hcl:"language,optional" yaml:"language"`
	Numpy            bool              `hcl:"numpy,optional" yaml:"numpy"`
	DefineMacros     map[string]string `hcl:"define_macros,optional" yaml:"define_macros"`
	Libraries        []string          `hcl:"libraries,optional" yaml:"libraries"`
	LibraryDirs      []string          `hcl:"library_dirs,optional" yaml:"library_dirs"`
	ExtraCompileArgs []string          `hcl:"extra_compile_args,optional" yaml:"extra_compile_args"`
	ExtraLinkArgs    []string          `hcl:"extra_link_args,optional" yaml:"extra_link_args"`
}

type hclManifest struct {
	Package PackageManifest `hcl:"package,block"`
}

// FindManifest returns the first manifest file present in dir.
func FindManifest(dir string) (string, error) {
	for _, name := range ManifestNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", fmt.Errorf("no manifest (%s) in %s: %w", strings.Join(ManifestNames, ", "), dir, os.ErrNotExist)
}

// LoadManifest decodes a .hcl, .json (HCL JSON syntax), .yaml or .yml manifest.
func LoadManifest(path string) (*PackageManifest, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl", ".json":
		var m hclManifest
		if err := hclsimple.DecodeFile(path, nil, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return &m.Package, nil

	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		// Unknown keys are errors, as they are in HCL.
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		var m PackageManifest
		if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return &m, nil

	default:
		return nil, fmt.Errorf("unsupported manifest format: %s", filepath.Base(path))
	}
}

// NeedsNumpy reports whether any extension compiles against numpy.
func (m *PackageManifest) NeedsNumpy() bool {
	for _, ext := range m.Extensions {
		if ext.Numpy {
			return true
		}
	}
	return false
}

// ResolvePackage turns a manifest into a Package.
//
// The numpy include is resolved at most once, and only when an extension
// asks for it. A resolution failure aborts before any source is checked.
func ResolvePackage(ctx context.Context, m *PackageManifest, baseDir string, resolver IncludeResolver) (*Package, error) {
	var numpyInclude string
	if m.NeedsNumpy() {
		if resolver == nil {
			return nil, fmt.Errorf("package %q: no numpy resolver: %w", m.Name, ErrDependencyNotFound)
		}
		dir, err := resolver.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		numpyInclude = dir
	}

	extensions := make([]*Extension, 0, len(m.Extensions))
	for _, em := range m.Extensions {
		ext, err := NewExtension(ExtensionOptions{
			Name:             em.Name,
			Sources:          em.Sources,
			IncludeDirs:      em.IncludeDirs,
			Language:         em.Language,
			Numpy:            em.Numpy,
			NumpyInclude:     numpyInclude,
			BaseDir:          baseDir,
			Macros:           sortedMacros(em.DefineMacros),
			Libraries:        em.Libraries,
			LibraryDirs:      em.LibraryDirs,
			ExtraCompileArgs: em.ExtraCompileArgs,
			ExtraLinkArgs:    em.ExtraLinkArgs,
		})
		if err != nil {
			return nil, err
		}
		extensions = append(extensions, ext)
	}

	zipSafe := false
	if m.ZipSafe != nil {
		zipSafe = *m.ZipSafe
	}

	return NewPackage(m.Name, zipSafe, extensions...)
}

func sortedMacros(defs map[string]string) []Macro {
	if len(defs) == 0 {
		return nil
	}
	macros := make([]Macro, 0, len(defs))
	for _, name := range slices.Sorted(maps.Keys(defs)) {
		macros = append(macros, Macro{Name: name, Value: defs[name]})
	}
	return macros
}
