package config

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
)

// ValidateDeep performs comprehensive validation of the configuration
// including executable lookup, directory accessibility, and glob syntax.
// The configPath argument specifies the config file location to validate
// (empty string skips the config file check).
// This calls Validate() first for basic structural validation, then adds
// I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("project_root", c.ProjectRoot, isExistingDirectory),
		c.validateGitPath(),
		c.validateProtectedPaths(),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

func (c *Config) validateGitPath() error {
	if !c.GitEnabled() {
		return nil
	}
	return criterio.Run("git.path", c.Git.Path, gitExecutableExists)
}

// gitExecutableExists validates that the git path is executable.
func gitExecutableExists(path string) error {
	if path == "" {
		return nil
	}
	if _, err := exec.LookPath(path); err != nil {
		return fmt.Errorf("executable not found: %s", path)
	}
	return nil
}

// isExistingDirectory validates that a path exists and is a directory.
func isExistingDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

// validateProtectedPaths checks that protected path globs are valid
// doublestar patterns.
func (c *Config) validateProtectedPaths() error {
	var errs criterio.FieldErrorsBuilder
	for i, pattern := range c.ProtectedPaths {
		if !doublestar.ValidatePattern(pattern) {
			errs = errs.Append(fmt.Sprintf("protected_paths[%d]", i), fmt.Errorf("invalid glob pattern %q", pattern))
		}
	}
	return errs.ToError()
}
