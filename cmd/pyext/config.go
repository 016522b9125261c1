package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	pyext "github.com/contriboss/python-extension-go"
)

// Config holds toolchain settings read from the environment.
type Config struct {
	Python       string
	Cython       string
	CC           string
	CXX          string
	NumpyInclude string
	Jobs         int
}

// loadConfig reads settings from the environment, seeded from dir/.env
// when present. Variables already set in the environment win.
func loadConfig(dir string) (*Config, error) {
	envFile := filepath.Join(dir, ".env")
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	} else {
		logger.Debug("loaded environment file", zap.String("path", envFile))
	}

	jobs, err := getEnvAsInt("PYEXT_JOBS", 0)
	if err != nil {
		return nil, err
	}

	return &Config{
		Python:       getEnv("PYEXT_PYTHON", "python3"),
		Cython:       getEnv("PYEXT_CYTHON", ""),
		CC:           getEnv("CC", ""),
		CXX:          getEnv("CXX", ""),
		NumpyInclude: getEnv("PYEXT_NUMPY_INCLUDE", ""),
		Jobs:         jobs,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, value)
	}
	return n, nil
}

// project is a resolved manifest plus the settings used to build it.
type project struct {
	Dir          string
	ManifestPath string
	Config       *Config
	Package      *pyext.Package
}

// loadProject finds and resolves the manifest. Flags override environment.
func loadProject(ctx context.Context) (*project, error) {
	dir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(dir)
	if err != nil {
		return nil, err
	}
	if pythonPath != "" {
		cfg.Python = pythonPath
	}
	if numpyInclude != "" {
		cfg.NumpyInclude = numpyInclude
	}

	path := manifestPath
	if path == "" {
		if path, err = pyext.FindManifest(dir); err != nil {
			return nil, err
		}
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	manifest, err := pyext.LoadManifest(path)
	if err != nil {
		return nil, err
	}

	var resolver pyext.IncludeResolver = &pyext.NumpyResolver{Python: cfg.Python}
	if cfg.NumpyInclude != "" {
		resolver = pyext.StaticInclude(cfg.NumpyInclude)
	}

	pkg, err := pyext.ResolvePackage(ctx, manifest, dir, resolver)
	if err != nil {
		return nil, err
	}

	logger.Debug("resolved package",
		zap.String("manifest", path),
		zap.String("package", pkg.Name),
		zap.Int("extensions", len(pkg.Extensions)))

	return &project{Dir: dir, ManifestPath: path, Config: cfg, Package: pkg}, nil
}

// buildConfig returns the library config for p.
func (p *project) buildConfig() *pyext.BuildConfig {
	return &pyext.BuildConfig{
		ProjectDir:    p.Dir,
		PythonPath:    p.Config.Python,
		CythonPath:    p.Config.Cython,
		CC:            p.Config.CC,
		CXX:           p.Config.CXX,
		Parallel:      p.Config.Jobs,
		Verbose:       verbose,
		StopOnFailure: true,
		Logger:        logger,
	}
}
