// Package config loads the scenario pipeline settings from JSON and
// resolves the simulator tool root.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/scenario.report/internal/geometry"
	"github.com/banshee-data/scenario.report/internal/scenario"
)

// DefaultConfigPath is where the CLI looks for a config when none is given.
const DefaultConfigPath = "config/pipeline.json"

// ToolRootEnv names the environment variable holding the simulator install.
const ToolRootEnv = "SUMO_HOME"

// Defaults applied by the Get* methods.
const (
	DefaultWorkDir      = "."
	DefaultDatabasePath = "scenario-history.db"
	DefaultListenAddr   = ":8090"
)

// ErrToolRootNotFound is returned when no candidate tool root exists.
var ErrToolRootNotFound = errors.New("simulator tool root not found")

// PipelineConfig is the on-disk configuration. Fields omitted from the JSON
// fall back to the Get* defaults, so partial configs are safe.
type PipelineConfig struct {
	// ToolRoot, when set, bypasses the environment and fallback search.
	ToolRoot          *string  `json:"tool_root,omitempty"`
	FallbackToolRoots []string `json:"fallback_tool_roots,omitempty"`

	WorkDir    *string  `json:"work_dir,omitempty"`
	PythonBin  *string  `json:"python_bin,omitempty"`
	Padding    *float64 `json:"padding,omitempty"`
	TopN       *int     `json:"top_n,omitempty"`
	MinMapSize *int64   `json:"min_map_size,omitempty"`
	EdgeChart  *bool    `json:"edge_chart,omitempty"`

	DatabasePath *string `json:"database_path,omitempty"`
	ListenAddr   *string `json:"listen_addr,omitempty"`
}

// EmptyPipelineConfig returns a PipelineConfig with all fields unset.
func EmptyPipelineConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPipelineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *PipelineConfig) Validate() error {
	if c.Padding != nil && *c.Padding < 0 {
		return fmt.Errorf("padding must be non-negative, got %f", *c.Padding)
	}
	if c.TopN != nil && *c.TopN < 1 {
		return fmt.Errorf("top_n must be at least 1, got %d", *c.TopN)
	}
	if c.MinMapSize != nil && *c.MinMapSize < 0 {
		return fmt.Errorf("min_map_size must be non-negative, got %d", *c.MinMapSize)
	}
	if c.WorkDir != nil && *c.WorkDir == "" {
		return errors.New("work_dir must not be empty when set")
	}
	for i, root := range c.FallbackToolRoots {
		if root == "" {
			return fmt.Errorf("fallback_tool_roots[%d] is empty", i)
		}
	}
	return nil
}

// GetWorkDir returns the work_dir value or the default.
func (c *PipelineConfig) GetWorkDir() string {
	if c.WorkDir == nil {
		return DefaultWorkDir
	}
	return *c.WorkDir
}

// GetPythonBin returns the python_bin value or the default.
func (c *PipelineConfig) GetPythonBin() string {
	if c.PythonBin == nil || *c.PythonBin == "" {
		return scenario.DefaultPythonBin
	}
	return *c.PythonBin
}

// GetPadding returns the padding value or the default.
func (c *PipelineConfig) GetPadding() float64 {
	if c.Padding == nil {
		return geometry.DefaultPadding
	}
	return *c.Padding
}

// GetTopN returns the top_n value or the default.
func (c *PipelineConfig) GetTopN() int {
	if c.TopN == nil {
		return scenario.DefaultTopN
	}
	return *c.TopN
}

// GetMinMapSize returns the min_map_size value or the default.
func (c *PipelineConfig) GetMinMapSize() int64 {
	if c.MinMapSize == nil {
		return scenario.MinMapFileSize
	}
	return *c.MinMapSize
}

// GetEdgeChart reports whether the edge usage chart is rendered. Default on.
func (c *PipelineConfig) GetEdgeChart() bool {
	if c.EdgeChart == nil {
		return true
	}
	return *c.EdgeChart
}

// GetDatabasePath returns the database_path value or the default.
func (c *PipelineConfig) GetDatabasePath() string {
	if c.DatabasePath == nil || *c.DatabasePath == "" {
		return DefaultDatabasePath
	}
	return *c.DatabasePath
}

// GetListenAddr returns the listen_addr value or the default.
func (c *PipelineConfig) GetListenAddr() string {
	if c.ListenAddr == nil || *c.ListenAddr == "" {
		return DefaultListenAddr
	}
	return *c.ListenAddr
}

// ScenarioOptions builds pipeline options for the resolved tool root.
// EdgeChart is left for the caller to wire.
func (c *PipelineConfig) ScenarioOptions(toolRoot string) scenario.Options {
	return scenario.Options{
		WorkDir:    c.GetWorkDir(),
		ToolRoot:   toolRoot,
		PythonBin:  c.GetPythonBin(),
		Padding:    c.GetPadding(),
		TopN:       c.GetTopN(),
		MinMapSize: c.GetMinMapSize(),
	}
}
