package voxelmesh

import (
	"os"
	"strings"
	"unicode"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"go.viam.com/voxelmesh/logging"
	"go.viam.com/voxelmesh/mesh"
	"go.viam.com/voxelmesh/octree"
	"go.viam.com/voxelmesh/utils"
)

// MaterialConfig describes the material of generated meshes. Unset fields keep the values of
// mesh.DefaultMaterial.
type MaterialConfig struct {
	Name         string   `json:"name,omitempty"`
	Color        string   `json:"color,omitempty"`
	Opacity      *float64 `json:"opacity,omitempty"`
	VertexColors *bool    `json:"vertex_colors,omitempty"`
	FlatShading  bool     `json:"flat_shading,omitempty"`
}

// Config is the JSON configuration of a Generator. Unset fields keep the generator defaults.
type Config struct {
	VoxelSize *float64        `json:"voxel_size,omitempty"`
	MaxPoints *int            `json:"max_points,omitempty"`
	MaxDepth  *int            `json:"max_depth,omitempty"`
	Material  *MaterialConfig `json:"material,omitempty"`
	LogLevel  string          `json:"log_level,omitempty"`
}

// ReadConfig reads and validates the configuration file at path. The file is JSON5, so comments
// and unquoted keys are allowed.
func ReadConfig(path string) (*Config, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read config")
	}
	var cfg Config
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %s", path)
	}
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures every set field is usable. Errors are *InvalidConfigurationError naming the
// field below path.
func (cfg *Config) Validate(path string) error {
	if cfg.VoxelSize != nil && !utils.IsFinitePositive(*cfg.VoxelSize) {
		return newInvalidConfigurationError(path, "voxel_size", *cfg.VoxelSize, "must be a finite positive number")
	}
	if cfg.MaxPoints != nil && *cfg.MaxPoints < 1 {
		return newInvalidConfigurationError(path, "max_points", *cfg.MaxPoints, "must be at least 1")
	}
	if cfg.MaxDepth != nil && *cfg.MaxDepth < 0 {
		return newInvalidConfigurationError(path, "max_depth", *cfg.MaxDepth, "must not be negative")
	}
	if cfg.LogLevel != "" {
		if _, err := logging.LevelFromString(cfg.LogLevel); err != nil {
			return newInvalidConfigurationError(path, "log_level", cfg.LogLevel, err.Error())
		}
	}
	if cfg.Material != nil {
		materialPath := "material"
		if path != "" {
			materialPath = path + ".material"
		}
		if _, err := cfg.Material.material(materialPath); err != nil {
			return err
		}
	}
	return nil
}

// LOD returns the configured level of detail, filling unset fields from octree.DefaultLOD.
func (cfg *Config) LOD() octree.LOD {
	lod := octree.DefaultLOD()
	if cfg.MaxPoints != nil {
		lod.MaxPoints = *cfg.MaxPoints
	}
	if cfg.MaxDepth != nil {
		lod.MaxDepth = *cfg.MaxDepth
	}
	return lod
}

// Material returns the configured material.
func (mc *MaterialConfig) Material() (*mesh.Material, error) {
	return mc.material("material")
}

func (mc *MaterialConfig) material(path string) (*mesh.Material, error) {
	m := mesh.DefaultMaterial()
	if mc.Name != "" {
		if strings.IndexFunc(mc.Name, unicode.IsControl) >= 0 {
			return nil, newInvalidConfigurationError(path, "name", mc.Name, "must not contain control characters")
		}
		m.Name = mc.Name
	}
	if mc.Color != "" {
		c, err := colorful.Hex(mc.Color)
		if err != nil {
			return nil, newInvalidConfigurationError(path, "color", mc.Color, "must be a hex color like #ff8800")
		}
		m.Color = c
	}
	if mc.Opacity != nil {
		if *mc.Opacity < 0 || *mc.Opacity > 1 {
			return nil, newInvalidConfigurationError(path, "opacity", *mc.Opacity, "must be between 0 and 1")
		}
		m.Opacity = *mc.Opacity
	}
	if mc.VertexColors != nil {
		m.VertexColors = *mc.VertexColors
	}
	m.FlatShading = mc.FlatShading
	return m, nil
}

// NewGeneratorFromConfig returns a Generator using every setting of cfg. A configured log level is
// applied to logger.
func NewGeneratorFromConfig(cfg *Config, logger logging.Logger) (*Generator, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	if cfg.LogLevel != "" {
		level, err := logging.LevelFromString(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		logger.SetLevel(level)
	}

	g := NewGenerator(logger)
	if cfg.VoxelSize != nil {
		if err := g.SetVoxelSize(*cfg.VoxelSize); err != nil {
			return nil, err
		}
	}
	if err := g.SetLOD(cfg.LOD()); err != nil {
		return nil, err
	}
	if cfg.Material != nil {
		m, err := cfg.Material.Material()
		if err != nil {
			return nil, err
		}
		g.SetVoxelMaterial(m)
	}
	return g, nil
}
