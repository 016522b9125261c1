package pyext

import (
	"context"
	"fmt"
)

// CBuilder handles extensions written directly in C or C++.
//
// There is no translation step: the declared .c/.cpp sources are compiled
// and linked as they are. Header files listed as sources are ignored.
type CBuilder struct{}

// Name returns the builder name
func (b *CBuilder) Name() string {
	return "C"
}

// RequiredTools returns the tools needed for C builds
func (b *CBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		compilerRequirement(LanguageC),
		{
			Name:         "g++",
			Alternatives: []string{"clang++", "c++"},
			Optional:     true,
			Purpose:      "C++ compiler for c++ extensions",
		},
	}
}

// CheckTools verifies that a C compiler is available
func (b *CBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild checks if this builder can handle the source file
func (b *CBuilder) CanBuild(sourceFile string) bool {
	return isCompilable(sourceFile)
}

// Build compiles the sources and links the module
func (b *CBuilder) Build(ctx context.Context, config *BuildConfig, ext *Extension) (*BuildResult, error) {
	if config.CleanFirst {
		if err := cleanExtension(config, ext); err != nil {
			return &BuildResult{Extension: ext.Name, Error: err}, err
		}
	}

	return runCommonBuild(ctx, config, ext, CommonBuildSteps{
		TranslateFunc: b.collectUnits,
		CompileFunc:   compileAndLink,
		FindFunc:      findBuiltModule,
	})
}

// Clean removes objects and the built module
func (b *CBuilder) Clean(_ context.Context, config *BuildConfig, ext *Extension) error {
	return cleanExtension(config, ext)
}

// collectUnits is the translate step: it only selects compilable sources
func (b *CBuilder) collectUnits(_ context.Context, config *BuildConfig, ext *Extension, result *BuildResult) ([]string, error) {
	var units []string
	for _, src := range ext.Sources {
		if isCompilable(src) {
			units = append(units, resolvePath(config, src))
		}
	}

	if config.Verbose {
		result.Output = append(result.Output, fmt.Sprintf("%s builder, no translation needed", b.Name()))
	}

	return units, nil
}
