package pyext

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// MatchesPattern checks if a filename matches any of the given regex patterns.
//
// Invalid patterns are skipped.
//
//	if MatchesPattern(filename, `\.pyx$`, `\.py$`) {
//	    // Handle Cython sources
//	}
func MatchesPattern(filename string, patterns ...string) bool {
	for _, pattern := range patterns {
		if matched, _ := regexp.MatchString(pattern, filename); matched {
			return true
		}
	}
	return false
}

// MatchesExtension checks if a filename has any of the given extensions.
//
// The check is case-insensitive and works with or without the leading dot:
//
//	if MatchesExtension(filename, ".c", "cpp") {
//	    // C or C++ source
//	}
func MatchesExtension(filename string, extensions ...string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return false
	}
	for _, want := range extensions {
		want = strings.ToLower(want)
		if !strings.HasPrefix(want, ".") {
			want = "." + want
		}
		if ext == want {
			return true
		}
	}
	return false
}

// BuildError creates a standardized build error with output context.
//
// With error and output:
//
//	Compile build failed: exit status 1
//
//	Build output:
//	sample.c:12:10: fatal error: numpy/arrayobject.h: No such file or directory
//
// With error but no output:
//
//	Compile build failed: exit status 1
//
// With output but no error:
//
//	Compile build failed
//
//	Build output:
//	... output lines ...
func BuildError(builder string, output []string, err error) error {
	outputStr := strings.Join(output, "\n")

	var prefix string
	if err != nil {
		prefix = fmt.Sprintf("%s build failed: %v", builder, err)
	} else {
		prefix = fmt.Sprintf("%s build failed", builder)
	}

	if outputStr != "" {
		return &buildError{msg: fmt.Sprintf("%s\n\nBuild output:\n%s", prefix, outputStr), err: err}
	}

	return &buildError{msg: prefix, err: err}
}

// buildError keeps the underlying error reachable through errors.Is.
type buildError struct {
	msg string
	err error
}

func (e *buildError) Error() string { return e.msg }

func (e *buildError) Unwrap() error { return e.err }
