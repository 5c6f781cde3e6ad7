// Package settings persists the reader's configuration as JSON under the
// user config directory. The pipeline itself never reads settings; the CLI
// loads them and passes plain parameters down.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"kripton-qr-reader/internal/pipeline"
)

const (
	appDirName = "kripton-qr-reader"
	fileName   = "settings.json"
)

// Settings is the persisted configuration. Zero values for the pipeline
// tuning fields mean "use the pipeline defaults".
type Settings struct {
	ScanDirectory       string    `json:"scan_directory,omitempty"`
	AutoCopyToClipboard bool      `json:"auto_copy_to_clipboard"`
	BlockSize           int       `json:"block_size,omitempty"`
	Bias                int       `json:"bias,omitempty"`
	ScaleFactors        []float64 `json:"scale_factors,omitempty"`
	Exhaustive          bool      `json:"exhaustive"`
}

// Default returns the settings used when no file exists yet.
func Default() Settings {
	return Settings{}
}

// Path returns the settings file location, creating the application directory
// (0700) when missing.
func Path() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config directory not found: %w", err)
	}
	dir := filepath.Join(base, appDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("could not create settings directory %s: %w", dir, err)
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the settings file, returning defaults when it does not exist.
func Load() (Settings, error) {
	path, err := Path()
	if err != nil {
		return Default(), err
	}
	return LoadFrom(path)
}

// LoadFrom reads settings from an explicit path.
func LoadFrom(path string) (Settings, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("could not read settings file %s: %w", path, err)
	}

	var s Settings
	if err := json.Unmarshal(content, &s); err != nil {
		return Default(), fmt.Errorf("settings file format is invalid: %w", err)
	}
	return s, nil
}

// Save writes the settings to the default location with 0600 permissions.
func (s Settings) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return s.SaveTo(path)
}

// SaveTo writes the settings to an explicit path with 0600 permissions.
func (s Settings) SaveTo(path string) error {
	content, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode settings: %w", err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("could not write settings to %s: %w", path, err)
	}
	return nil
}

// PipelineParams maps the persisted tuning onto pipeline parameters, filling
// unset fields from the pipeline defaults.
func (s Settings) PipelineParams() pipeline.Params {
	params := pipeline.DefaultParams()
	if s.BlockSize > 0 {
		params.BlockSize = s.BlockSize
	}
	if s.Bias != 0 {
		params.Bias = s.Bias
	}
	if len(s.ScaleFactors) > 0 {
		params.ScaleFactors = s.ScaleFactors
	}
	params.Exhaustive = s.Exhaustive
	return params
}
