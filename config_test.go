package voxelmesh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/voxelmesh/logging"
	"go.viam.com/voxelmesh/mesh"
	"go.viam.com/voxelmesh/octree"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voxelmesh.json")
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}

func TestReadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"voxel_size": 0.05,
		"max_points": 4,
		"max_depth": 0,
		"material": {"name": "scan", "color": "#ff8800", "opacity": 0.75, "vertex_colors": false, "flat_shading": true},
		"log_level": "warn"
	}`)
	cfg, err := ReadConfig(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *cfg.VoxelSize, test.ShouldEqual, 0.05)
	test.That(t, cfg.LOD(), test.ShouldResemble, octree.LOD{MaxPoints: 4, MaxDepth: 0})

	logger := logging.NewTestLogger(t)
	gen, err := NewGeneratorFromConfig(cfg, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logger.GetLevel(), test.ShouldEqual, logging.WARN)
	test.That(t, gen.VoxelSize(), test.ShouldEqual, 0.05)
	test.That(t, gen.LOD(), test.ShouldResemble, octree.LOD{MaxPoints: 4, MaxDepth: 0})

	m := gen.Material()
	test.That(t, m.Name, test.ShouldEqual, "scan")
	test.That(t, m.Color.Hex(), test.ShouldEqual, "#ff8800")
	test.That(t, m.Opacity, test.ShouldEqual, 0.75)
	test.That(t, m.VertexColors, test.ShouldBeFalse)
	test.That(t, m.FlatShading, test.ShouldBeTrue)

	t.Run("empty config keeps defaults", func(t *testing.T) {
		cfg, err := ReadConfig(writeConfig(t, `{}`))
		test.That(t, err, test.ShouldBeNil)
		gen, err := NewGeneratorFromConfig(cfg, logging.NewTestLogger(t))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, gen.VoxelSize(), test.ShouldEqual, DefaultVoxelSize)
		test.That(t, gen.LOD(), test.ShouldResemble, octree.DefaultLOD())
		test.That(t, gen.Material(), test.ShouldResemble, mesh.DefaultMaterial())
	})

	t.Run("partial material", func(t *testing.T) {
		cfg, err := ReadConfig(writeConfig(t, `{"material": {"color": "#00f"}}`))
		test.That(t, err, test.ShouldBeNil)
		m, err := cfg.Material.Material()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, m.Name, test.ShouldEqual, "voxel")
		test.That(t, m.Color.Hex(), test.ShouldEqual, "#0000ff")
		test.That(t, m.Opacity, test.ShouldEqual, 1.)
		test.That(t, m.VertexColors, test.ShouldBeTrue)
	})

	t.Run("comments and unquoted keys", func(t *testing.T) {
		cfg, err := ReadConfig(writeConfig(t, `{
			// one voxel per point
			max_points: 1,
			voxel_size: 0.25
		}`))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, *cfg.VoxelSize, test.ShouldEqual, 0.25)
		test.That(t, cfg.LOD().MaxPoints, test.ShouldEqual, 1)
	})

	t.Run("unreadable", func(t *testing.T) {
		_, err := ReadConfig(filepath.Join(t.TempDir(), "missing.json"))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "cannot read config")

		_, err = ReadConfig(writeConfig(t, `{"voxel_size": "big"}`))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "cannot parse config")
	})
}

func TestConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		name  string
		json  string
		field string
	}{
		{"zero voxel size", `{"voxel_size": 0}`, "voxel_size"},
		{"negative voxel size", `{"voxel_size": -0.5}`, "voxel_size"},
		{"negative max points", `{"max_points": -1}`, "max_points"},
		{"zero max points", `{"max_points": 0}`, "max_points"},
		{"negative max depth", `{"max_depth": -2}`, "max_depth"},
		{"bad log level", `{"log_level": "loud"}`, "log_level"},
		{"bad color", `{"material": {"color": "orange"}}`, "material.color"},
		{"bad opacity", `{"material": {"opacity": 2}}`, "material.opacity"},
		{"control character in name", `{"material": {"name": "a\nb"}}`, "material.name"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadConfig(writeConfig(t, tc.json))
			var configErr *InvalidConfigurationError
			test.That(t, errors.As(err, &configErr), test.ShouldBeTrue)
			test.That(t, configErr.Field, test.ShouldEqual, tc.field)
		})
	}

	t.Run("nested path", func(t *testing.T) {
		size := 0.
		cfg := &Config{VoxelSize: &size}
		err := cfg.Validate("generator")
		test.That(t, err, test.ShouldBeError, "invalid generator.voxel_size 0: must be a finite positive number")

		cfg = &Config{Material: &MaterialConfig{Color: "#12"}}
		var configErr *InvalidConfigurationError
		test.That(t, errors.As(cfg.Validate("generator"), &configErr), test.ShouldBeTrue)
		test.That(t, configErr.Field, test.ShouldEqual, "generator.material.color")

		_, err = NewGeneratorFromConfig(cfg, logging.NewTestLogger(t))
		test.That(t, errors.As(err, &configErr), test.ShouldBeTrue)
	})
}
