// Command pyext builds native Python extension modules declared in a
// pyext.hcl or pyext.yaml manifest.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose      bool
	projectDir   string
	manifestPath string
	pythonPath   string
	numpyInclude string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pyext",
	Short: "Build native Python extension modules",
	Long: `pyext declares and builds compiled Python extension modules.

Extensions are declared in pyext.hcl (or pyext.yaml) next to their
sources. Cython sources are translated to C, compiled against the
interpreter and numpy headers, and linked into an importable module.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging and tool command echo")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "Project directory")
	rootCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "f", "", "Manifest file (default: pyext.hcl, pyext.yaml or pyext.yml in --dir)")
	rootCmd.PersistentFlags().StringVar(&pythonPath, "python", "", "Python interpreter (env PYEXT_PYTHON)")
	rootCmd.PersistentFlags().StringVar(&numpyInclude, "numpy-include", "", "numpy include directory; skips querying the interpreter (env PYEXT_NUMPY_INCLUDE)")

	rootCmd.AddCommand(describeCmd, buildCmd, cleanCmd, toolsCmd, watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
