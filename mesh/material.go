package mesh

import (
	"image/color"
	"strings"
	"unicode"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// Material describes how a whole mesh is shaded. It is shared by every voxel of a mesh rather
// than duplicated per box.
type Material struct {
	Name  string
	Color colorful.Color
	// Opacity is in [0, 1]; anything below 1 is drawn transparent.
	Opacity float64
	// VertexColors multiplies Color by the geometry's per vertex colors when set.
	VertexColors bool
	FlatShading  bool
}

// DefaultMaterial returns an opaque white material that shows vertex colors.
func DefaultMaterial() *Material {
	return &Material{
		Name:         "voxel",
		Color:        White,
		Opacity:      1,
		VertexColors: true,
	}
}

// NewMaterialFromHex returns a material of the given hex color ("#rrggbb").
func NewMaterialFromHex(name, hex string, opacity float64, vertexColors bool) (*Material, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, errors.Wrapf(err, "material %q color", name)
	}
	m := &Material{Name: name, Color: c, Opacity: opacity, VertexColors: vertexColors}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMaterialFromColor returns an opaque material of the given color.
func NewMaterialFromColor(name string, c color.Color) (*Material, error) {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return nil, errors.Errorf("material %q color is fully transparent", name)
	}
	return &Material{Name: name, Color: cf, Opacity: 1}, nil
}

// Validate ensures the material can be drawn.
func (m *Material) Validate() error {
	if strings.IndexFunc(m.Name, unicode.IsControl) >= 0 {
		return errors.Errorf("material name %q contains control characters", m.Name)
	}
	if m.Opacity < 0 || m.Opacity > 1 {
		return errors.Errorf("material %q opacity %v is outside [0,1]", m.Name, m.Opacity)
	}
	if !m.Color.IsValid() {
		return errors.Errorf("material %q color %v is outside the RGB gamut", m.Name, m.Color)
	}
	return nil
}

// Transparent reports whether the material is drawn with blending.
func (m *Material) Transparent() bool {
	return m.Opacity < 1
}

// Clone returns a copy of the material.
func (m *Material) Clone() *Material {
	clone := *m
	return &clone
}
