package pointcloud

import (
	"image/color"
	"io"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ReadPLY reads the vertex element of an ascii PLY stream as a point cloud. Vertices carrying
// red/green/blue properties are colored and a label property becomes the point's value.
func ReadPLY(in io.Reader) (pc PointCloud, err error) {
	var ply *goply.Ply
	func() {
		// goply reports malformed input by panicking.
		defer func() {
			if r := recover(); r != nil {
				err = errors.Errorf("invalid ply data: %v", r)
			}
		}()
		ply = goply.New(in)
	}()
	if err != nil {
		return nil, err
	}

	vertices := ply.Elements("vertex")
	pc = NewWithPrealloc(len(vertices))
	for i, vertex := range vertices {
		pos, err := plyPosition(vertex)
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %d", i)
		}
		data := NewBasicData()
		if c, ok := plyColor(vertex); ok {
			data.SetColor(c)
		}
		if v, ok := vertex["label"]; ok {
			f, err := plyNumber(v)
			if err != nil {
				return nil, errors.Wrapf(err, "vertex %d label", i)
			}
			data.SetValue(int(f))
		}
		if err := pc.Set(pos, data); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

func plyPosition(vertex goply.PlyElement) (r3.Vector, error) {
	var coords [3]float64
	for i, name := range []string{"x", "y", "z"} {
		v, ok := vertex[name]
		if !ok {
			return r3.Vector{}, errors.Errorf("missing %s property", name)
		}
		f, err := plyNumber(v)
		if err != nil {
			return r3.Vector{}, errors.Wrapf(err, "property %s", name)
		}
		coords[i] = f
	}
	return r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

func plyColor(vertex goply.PlyElement) (color.NRGBA, bool) {
	for _, prefix := range []string{"", "diffuse_"} {
		r, rok := vertex[prefix+"red"]
		g, gok := vertex[prefix+"green"]
		b, bok := vertex[prefix+"blue"]
		if !rok || !gok || !bok {
			continue
		}
		rf, rerr := plyNumber(r)
		gf, gerr := plyNumber(g)
		bf, berr := plyNumber(b)
		if rerr != nil || gerr != nil || berr != nil {
			return color.NRGBA{}, false
		}
		return color.NRGBA{plyChannel(rf, r), plyChannel(gf, g), plyChannel(bf, b), 255}, true
	}
	return color.NRGBA{}, false
}

// plyChannel maps a channel to 0-255, treating float channels as normalized.
func plyChannel(f float64, raw interface{}) uint8 {
	switch raw.(type) {
	case float32, float64:
		f *= 255
	}
	if f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	return uint8(f + 0.5)
}

func plyNumber(v interface{}) (float64, error) {
	switch n := v.(type) {
	case int8:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, errors.Errorf("unsupported ply value of type %T", v)
	}
}
