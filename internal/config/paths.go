package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/errors"
)

// GlobalConfigDir returns the path to the global docflow directory.
// This is typically ~/.docflow on Unix systems.
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.DocflowHome), nil
}

// ProjectConfigDir returns the relative path to the project configuration directory.
func ProjectConfigDir() string {
	return constants.DocflowHome
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, constants.GlobalConfigName), nil
}

// ProjectConfigPath returns the relative path to the project configuration file.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), constants.GlobalConfigName)
}

// ResolvePaths fills empty storage.data_dir and blob.root with their
// locations under the global docflow directory.
func ResolvePaths(cfg *Config) error {
	if cfg.Storage.DataDir != "" && cfg.Blob.Root != "" {
		return nil
	}
	dir, err := GlobalConfigDir()
	if err != nil {
		return err
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = filepath.Join(dir, constants.DataDir)
	}
	if cfg.Blob.Root == "" {
		cfg.Blob.Root = filepath.Join(dir, constants.BlobDir)
	}
	return nil
}
