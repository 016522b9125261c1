package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	pyext "github.com/contriboss/python-extension-go"
)

var (
	destPath      string
	jobs          int
	keepGoing     bool
	cleanFirst    bool
	pythonInclude string
	extSuffix     string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build all extensions declared in the manifest",
	Long: `Builds every extension in declaration order:
  1. Translate Cython sources to C/C++
  2. Compile units (in parallel with --jobs) and link the module
  3. Install modules into --dest, if given

Without --dest, modules are left next to their sources (in-place build).`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&destPath, "dest", "d", "", "Install directory for built modules")
	buildCmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Parallel compile jobs (env PYEXT_JOBS, 0 = one per source)")
	buildCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "Continue with remaining extensions after a failure")
	buildCmd.Flags().BoolVar(&cleanFirst, "clean-first", false, "Remove previous build artifacts first")
	buildCmd.Flags().StringVar(&pythonInclude, "python-include", "", "Python.h directory (default: from the interpreter)")
	buildCmd.Flags().StringVar(&extSuffix, "ext-suffix", "", "Module file suffix (default: from the interpreter)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	p, err := loadProject(ctx)
	if err != nil {
		return err
	}

	return buildProject(ctx, cmd.OutOrStdout(), p, buildFlagsConfig(cmd, p))
}

// buildFlagsConfig returns the config for p with the build flags applied.
// Used by build and watch, which share one flag set.
func buildFlagsConfig(cmd *cobra.Command, p *project) *pyext.BuildConfig {
	config := p.buildConfig()
	config.DestPath = destPath
	config.CleanFirst = cleanFirst
	config.StopOnFailure = !keepGoing
	config.PythonInclude = pythonInclude
	config.ExtSuffix = extSuffix
	if cmd.Flags().Changed("jobs") {
		config.Parallel = jobs
	}
	return config
}

// buildProject builds, installs and reports. Shared with watch.
func buildProject(ctx context.Context, out io.Writer, p *project, config *pyext.BuildConfig) error {
	if config.PythonInclude == "" || config.ExtSuffix == "" {
		info, err := pyext.InspectPython(ctx, config.PythonPath)
		if err != nil {
			return err
		}
		logger.Debug("python interpreter",
			zap.String("version", info.Version),
			zap.String("platform", info.Platform),
			zap.String("ext_suffix", info.ExtSuffix))
		config.ApplyPythonInfo(info)
	}

	factory := pyext.NewBuilderFactory()
	results, buildErr := factory.BuildAll(ctx, config, p.Package)

	installed, err := pyext.Install(config, p.Package, results)
	if err != nil {
		return fmt.Errorf("install: %w", err)
	}

	for _, result := range results {
		if result.Success {
			fmt.Fprintf(out, "built %s\n", result.Extension)
			continue
		}
		fmt.Fprintf(out, "FAILED %s: %v\n", result.Extension, result.Error)
		for _, dep := range result.MissingDependencies {
			fmt.Fprintf(out, "  missing: %s\n", dep)
		}
	}
	for _, path := range installed {
		fmt.Fprintf(out, "  -> %s\n", path)
	}

	if buildErr != nil {
		return buildErr
	}
	logger.Info("build complete", zap.String("package", p.Package.Name), zap.Int("modules", len(installed)))
	return nil
}
