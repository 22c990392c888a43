package mesh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// WritePLY writes the mesh as an ASCII PLY file. Positions and normals are written as doubles,
// colors as 8 bit channels and every triangle as a face with three vertex indices. The material is
// recorded in comment lines.
func WritePLY(w io.Writer, m *Mesh) error {
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "cannot write invalid mesh")
	}
	g := m.Geometry
	hasNormals := g.HasNormals()

	bw := bufio.NewWriter(w)
	header := []string{"ply", "format ascii 1.0"}
	if m.Material != nil {
		header = append(header,
			"comment material "+m.Material.Name,
			fmt.Sprintf("comment material color %s opacity %s", m.Material.Color.Hex(), formatFloat(m.Material.Opacity)),
		)
	}
	header = append(header,
		fmt.Sprintf("element vertex %d", g.VertexCount()),
		"property double x", "property double y", "property double z",
	)
	if hasNormals {
		header = append(header, "property double nx", "property double ny", "property double nz")
	}
	if g.HasColors() {
		header = append(header, "property uchar red", "property uchar green", "property uchar blue")
	}
	header = append(header,
		fmt.Sprintf("element face %d", g.TriangleCount()),
		"property list uchar int vertex_indices",
		"end_header",
	)
	for _, line := range header {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}

	for i, p := range g.Positions {
		line := formatFloat(p.X) + " " + formatFloat(p.Y) + " " + formatFloat(p.Z)
		if hasNormals {
			n := g.Normals[i]
			line += " " + formatFloat(n.X) + " " + formatFloat(n.Y) + " " + formatFloat(n.Z)
		}
		if g.HasColors() {
			r, gr, b := g.Colors[i].Clamped().RGB255()
			line += fmt.Sprintf(" %d %d %d", r, gr, b)
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	for i := 0; i < g.TriangleCount(); i++ {
		if _, err := fmt.Fprintf(bw, "3 %d %d %d\n", g.Indices[3*i], g.Indices[3*i+1], g.Indices[3*i+2]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
