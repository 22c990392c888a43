package mesh

import (
	"github.com/pkg/errors"
)

// Mesh pairs a geometry with the material it is shaded with.
type Mesh struct {
	Geometry *Geometry
	Material *Material
}

// New returns a mesh of the given geometry and material. A nil material is replaced by
// DefaultMaterial.
func New(geometry *Geometry, material *Material) *Mesh {
	if material == nil {
		material = DefaultMaterial()
	}
	return &Mesh{Geometry: geometry, Material: material}
}

// Validate checks both the geometry and the material.
func (m *Mesh) Validate() error {
	if m.Geometry == nil {
		return errors.New("mesh has no geometry")
	}
	if err := m.Geometry.Validate(); err != nil {
		return err
	}
	if m.Material != nil {
		return m.Material.Validate()
	}
	return nil
}
