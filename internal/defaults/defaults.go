// Package defaults resolves where walletlink keeps its files and ships the default
// configuration.
//
// Everything lives under the working directory unless WALLETLINK_DATA_DIR is set:
//
//	<workdir>/walletlink.yaml      configuration
//	<workdir>/tonKeeper/<engine>   extension artifacts
//	<workdir>/user-data            session profiles
package defaults

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed dotwalletlink/*
var defaultFiles embed.FS

const (
	// EnvDataDir overrides the working directory.
	EnvDataDir = "WALLETLINK_DATA_DIR"

	// ConfigFile is the configuration file name inside the working directory.
	ConfigFile = "walletlink.yaml"

	extensionsDir = "tonKeeper"
	profilesDir   = "user-data"
)

// DataDir returns the directory walletlink works in.
//
// Set WALLETLINK_DATA_DIR to override.
func DataDir() (string, error) {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cannot determine working directory: %w", err)
	}
	return dir, nil
}

// ProfileRoot returns the parent of all session profile directories.
func ProfileRoot() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, profilesDir), nil
}

// ExtensionDir returns where the extension artifact for engine is expected.
func ExtensionDir(engine string) (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, extensionsDir, engine), nil
}

// ConfigPath returns the configuration file path.
func ConfigPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFile), nil
}

// EnsureDataDir creates the data directory if it doesn't exist
// and copies default files if they're missing.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := copyDefaults(dir, false); err != nil {
		return "", err
	}
	return dir, nil
}

// Reset replaces the configuration files in dir with the defaults.
func Reset(dir string) error {
	return copyDefaults(dir, true)
}

// copyDefaults copies embedded default files to dir.
// If overwrite is true, existing files are replaced.
func copyDefaults(dir string, overwrite bool) error {
	return fs.WalkDir(defaultFiles, "dotwalletlink", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "dotwalletlink" {
			return nil
		}

		// embed.FS always uses forward slashes.
		relPath := strings.TrimPrefix(path, "dotwalletlink/")
		destPath := filepath.Join(dir, relPath)

		if d.IsDir() {
			return os.MkdirAll(destPath, 0755)
		}

		if !overwrite {
			if _, err := os.Stat(destPath); err == nil {
				return nil
			}
		}

		data, err := defaultFiles.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read embedded %s: %w", path, err)
		}
		if err := os.WriteFile(destPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", destPath, err)
		}
		return nil
	})
}

// GetDefault returns the content of a default file by name.
// Example: GetDefault("walletlink.yaml")
func GetDefault(name string) ([]byte, error) {
	return defaultFiles.ReadFile("dotwalletlink/" + name)
}

// ListDefaults returns the names of all default files.
func ListDefaults() ([]string, error) {
	var files []string
	err := fs.WalkDir(defaultFiles, "dotwalletlink", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && path != "dotwalletlink" {
			files = append(files, strings.TrimPrefix(path, "dotwalletlink/"))
		}
		return nil
	})
	return files, err
}
