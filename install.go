package pyext

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var nativeLibraryExtensions = map[string]struct{}{
	".so":    {},
	".pyd":   {},
	".dylib": {},
}

// notZipSafeMarker is the file setuptools drops into egg-info for packages
// declared with zip_safe=False.
const notZipSafeMarker = "not-zip-safe"

// Install copies the built modules of successful results into
// config.DestPath, keeping their package-relative layout, and returns the
// installed paths relative to DestPath. Without a DestPath the in-place
// build outputs are returned unchanged.
//
// Packages that are not zip-safe get an egg-info/not-zip-safe marker.
func Install(config *BuildConfig, pkg *Package, results []*BuildResult) ([]string, error) {
	var built []string
	for _, result := range results {
		if result == nil || !result.Success {
			continue
		}
		built = append(built, result.Extensions...)
	}
	built = uniqueStrings(built)

	dest := installTarget(config)
	if dest == "" {
		return built, nil
	}

	var installed []string
	for _, rel := range built {
		if !isNativeLibrary(rel) {
			continue
		}

		srcPath := filepath.Join(config.ProjectDir, filepath.FromSlash(rel))
		if info, err := os.Stat(srcPath); err != nil || !info.Mode().IsRegular() {
			continue
		}

		relDest := safeRelativePath(filepath.FromSlash(rel))
		if err := copyFile(srcPath, filepath.Join(dest, relDest)); err != nil {
			return nil, err
		}
		installed = append(installed, filepath.ToSlash(relDest))
	}

	if pkg != nil && !pkg.ZipSafe {
		if err := writeNotZipSafe(dest, pkg.Name); err != nil {
			return nil, err
		}
	}

	return installed, nil
}

func installTarget(config *BuildConfig) string {
	dest := config.DestPath
	if dest == "" {
		return ""
	}
	if !filepath.IsAbs(dest) && config.ProjectDir != "" {
		dest = filepath.Join(config.ProjectDir, dest)
	}
	return filepath.Clean(dest)
}

// eggInfoDir returns the egg-info directory name setuptools would use.
func eggInfoDir(name string) string {
	return strings.ReplaceAll(name, "-", "_") + ".egg-info"
}

func writeNotZipSafe(dest, name string) error {
	dir := filepath.Join(dest, eggInfoDir(name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, notZipSafeMarker), []byte("\n"), 0o644); err != nil {
		return fmt.Errorf("write %s marker: %w", notZipSafeMarker, err)
	}
	return nil
}

func isNativeLibrary(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := nativeLibraryExtensions[ext]
	return ok
}

func copyFile(srcPath, destPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(destPath)
	if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
		return mkErr
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

func safeRelativePath(path string) string {
	clean := filepath.Clean(path)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return filepath.Base(path)
	}
	return clean
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{})
	var result []string

	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}

	return result
}
