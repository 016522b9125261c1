package pyext

import (
	"fmt"
	"os/exec"
	"strings"
)

// execLookPath is swapped out in tests.
var execLookPath = exec.LookPath

// ToolChecker is an optional interface for builders that require external tools.
//
// Builders implement it to declare their tool dependencies and verify they
// are available before attempting to build. Builders that don't implement
// it are built without a pre-flight check.
//
// # Consumer Usage
//
//	if checker, ok := builder.(ToolChecker); ok {
//	    if err := checker.CheckTools(); err != nil {
//	        return fmt.Errorf("build tools missing: %w", err)
//	    }
//	}
type ToolChecker interface {
	// RequiredTools returns the list of tools this builder needs.
	RequiredTools() []ToolRequirement

	// CheckTools returns nil if all required tools are found, or an error
	// naming the missing ones. Optional tools never cause an error.
	CheckTools() error
}

// ToolRequirement describes a build tool dependency.
//
// Tool with alternatives:
//
//	ToolRequirement{
//	    Name:         "gcc",
//	    Alternatives: []string{"clang", "cc"},
//	    Purpose:      "C compiler",
//	}
type ToolRequirement struct {
	// Name is the primary tool binary name (e.g., "cython", "gcc").
	Name string

	// Alternatives can satisfy the requirement when Name is not found.
	Alternatives []string

	// Optional tools are reported but never fail the check.
	Optional bool

	// Purpose is a human-readable description of why this tool is needed.
	Purpose string
}

// CheckToolAvailable checks if a tool is available in the system PATH.
func CheckToolAvailable(tool string) error {
	if _, err := execLookPath(tool); err != nil {
		return fmt.Errorf("%s not found in PATH", tool)
	}
	return nil
}

// FindTool returns the first of req.Name and req.Alternatives found in PATH.
func FindTool(req ToolRequirement) (string, bool) {
	for _, name := range append([]string{req.Name}, req.Alternatives...) {
		if path, err := execLookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}

// MissingTools lists the required tools that cannot be found, formatted as
// "name (purpose)".
func MissingTools(requirements []ToolRequirement) []string {
	var missing []string

	for _, req := range requirements {
		if req.Optional {
			continue
		}
		if _, found := FindTool(req); found {
			continue
		}
		if req.Purpose != "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", req.Name, req.Purpose))
		} else {
			missing = append(missing, req.Name)
		}
	}

	return missing
}

// CheckRequiredTools verifies all required tools are available.
//
// Single missing tool:
//
//	cython (Cython translator) not found in PATH
//
// Multiple missing tools:
//
//	missing required tools: cython (Cython translator), gcc (C compiler)
func CheckRequiredTools(requirements []ToolRequirement) error {
	missing := MissingTools(requirements)

	switch len(missing) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%s not found in PATH", missing[0])
	default:
		return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
	}
}

func compilerRequirement(language string) ToolRequirement {
	if language == LanguageCXX {
		return ToolRequirement{
			Name:         "g++",
			Alternatives: []string{"clang++", "c++"},
			Purpose:      "C++ compiler for native extensions",
		}
	}
	return ToolRequirement{
		Name:         "gcc",
		Alternatives: []string{"clang", "cc"},
		Purpose:      "C compiler for native extensions",
	}
}

func pythonRequirement() ToolRequirement {
	return ToolRequirement{
		Name:         "python3",
		Alternatives: []string{"python"},
		Purpose:      "Python interpreter",
	}
}
