package voxelmesh

import (
	"github.com/lucasb-eyer/go-colorful"

	pc "go.viam.com/voxelmesh/pointcloud"
)

// ColorAttribute returns the color a leaf's voxel is drawn with. Only the first attribute record of
// the leaf is consulted; if it has no color the voxel is uncolored and false is returned.
func ColorAttribute(data []pc.Data) (colorful.Color, bool) {
	if len(data) == 0 || data[0] == nil || !data[0].HasColor() {
		return colorful.Color{}, false
	}
	r, g, b := data[0].RGB255()
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}, true
}
