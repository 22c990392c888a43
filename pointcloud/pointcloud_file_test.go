package pointcloud

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/voxelmesh/logging"
)

func makeTestCloud(t *testing.T, withColor, withValue bool) PointCloud {
	t.Helper()
	cloud := New()
	points := []r3.Vector{
		NewVector(-1, -2, 5),
		NewVector(582, 12, 0),
		NewVector(0.5, 1.25, -3),
	}
	colors := []color.NRGBA{{255, 0, 0, 255}, {0, 128, 0, 255}, {10, 20, 30, 255}}
	for i, p := range points {
		d := NewBasicData()
		if withColor {
			d.SetColor(colors[i])
		}
		if withValue {
			d.SetValue(i + 1)
		}
		test.That(t, cloud.Set(p, d), test.ShouldBeNil)
	}
	return cloud
}

func TestPCDRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name      string
		layout    PCDType
		withColor bool
		withValue bool
	}{
		{"ascii", PCDAscii, false, false},
		{"ascii color", PCDAscii, true, false},
		{"ascii color and label", PCDAscii, true, true},
		{"binary", PCDBinary, false, false},
		{"binary color", PCDBinary, true, false},
		{"binary color and label", PCDBinary, true, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cloud := makeTestCloud(t, tc.withColor, tc.withValue)
			var buf bytes.Buffer
			test.That(t, ToPCD(cloud, &buf, tc.layout), test.ShouldBeNil)

			read, err := ReadPCD(&buf)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, read.Size(), test.ShouldEqual, cloud.Size())
			test.That(t, read.MetaData().HasColor, test.ShouldEqual, tc.withColor)
			test.That(t, read.MetaData().HasValue, test.ShouldEqual, tc.withValue)

			cloud.Iterate(0, 0, func(p r3.Vector, d Data) bool {
				got, ok := read.At(p.X, p.Y, p.Z)
				test.That(t, ok, test.ShouldBeTrue)
				test.That(t, got, test.ShouldResemble, d)
				return true
			})
		})
	}

	t.Run("compressed is unsupported", func(t *testing.T) {
		var buf bytes.Buffer
		err := ToPCD(makeTestCloud(t, false, false), &buf, PCDCompressed)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "not yet implemented")
	})
}

func TestReadPCDPackedFloatColor(t *testing.T) {
	packed := math.Float32frombits(0x00FF8040)

	t.Run("binary", func(t *testing.T) {
		var buf bytes.Buffer
		buf.WriteString("VERSION .7\nFIELDS x y z rgb\nSIZE 4 4 4 4\nTYPE F F F F\nCOUNT 1 1 1 1\n" +
			"WIDTH 1\nHEIGHT 1\nVIEWPOINT 0 0 0 1 0 0 0\nPOINTS 1\nDATA binary\n")
		for _, f := range []float32{1, 2, 3, packed} {
			test.That(t, binary.Write(&buf, binary.LittleEndian, f), test.ShouldBeNil)
		}
		pc, err := ReadPCD(&buf)
		test.That(t, err, test.ShouldBeNil)
		d, ok := pc.At(1, 2, 3)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, d.HasColor(), test.ShouldBeTrue)
		r, g, b := d.RGB255()
		test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{0xFF, 0x80, 0x40})
	})

	t.Run("ascii with comments and extra fields", func(t *testing.T) {
		in := "# .PCD v0.7 - Point Cloud Data file format\n" +
			"VERSION 0.7\nFIELDS intensity x y z\nSIZE 4 4 4 4\nTYPE F F F F\nCOUNT 1 1 1 1\n" +
			"WIDTH 2\nHEIGHT 1\nVIEWPOINT 0 0 0 1 0 0 0\nPOINTS 2\nDATA ascii\n" +
			"0.5 1 2 3\n0.25 4 5 6"
		pc, err := ReadPCD(strings.NewReader(in))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, pc.Size(), test.ShouldEqual, 2)
		test.That(t, CloudContains(pc, 1, 2, 3), test.ShouldBeTrue)
		test.That(t, CloudContains(pc, 4, 5, 6), test.ShouldBeTrue)
		test.That(t, pc.MetaData().HasColor, test.ShouldBeFalse)
	})
}

func TestReadPCDErrors(t *testing.T) {
	header := func(fields, size, typ, count string, points int, data string) string {
		return "VERSION .7\nFIELDS " + fields + "\nSIZE " + size + "\nTYPE " + typ + "\nCOUNT " + count +
			"\nWIDTH " + strconv.Itoa(points) + "\nHEIGHT 1\nVIEWPOINT 0 0 0 1 0 0 0\nPOINTS " + strconv.Itoa(points) + "\nDATA " + data + "\n"
	}
	for _, tc := range []struct {
		name   string
		in     string
		errMsg string
	}{
		{"empty", "", "error reading header line 0"},
		{"bad version", "VERSION .6\n", "unsupported pcd version"},
		{"out of order", "FIELDS x y z\n", "supposed to start with VERSION"},
		{"missing z", header("x y", "4 4", "F F", "1 1", 1, "ascii"), "must include x y z"},
		{"size mismatch", header("x y z", "4 4", "F F F", "1 1 1", 1, "ascii"), "SIZE"},
		{"bad type", header("x y z", "4 4 4", "F F Q", "1 1 1", 1, "ascii"), "invalid TYPE"},
		{"compressed", header("x y z", "4 4 4", "F F F", "1 1 1", 1, "binary_compressed"), "compressed"},
		{"truncated ascii", header("x y z", "4 4 4", "F F F", "1 1 1", 2, "ascii") + "1 2 3\n", "point 1"},
		{"short ascii row", header("x y z", "4 4 4", "F F F", "1 1 1", 1, "ascii") + "1 2\n", "unexpected number of fields"},
		{"truncated binary", header("x y z", "4 4 4", "F F F", "1 1 1", 1, "binary") + "abcd", "point 0"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadPCD(strings.NewReader(tc.in))
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errMsg)
		})
	}
}

const testPLY = `ply
format ascii 1.0
comment three colored voxels
element vertex 3
property float x
property float y
property float z
property uchar red
property uchar green
property uchar blue
property int label
element face 1
property list uchar int vertex_indices
end_header
0 0 0 255 0 0 4
1 2 3 0 255 0 5
-1.5 0.5 2 0 0 255 6
3 0 1 2
`

func TestReadPLY(t *testing.T) {
	pc, err := ReadPLY(strings.NewReader(testPLY))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 3)
	test.That(t, pc.MetaData().HasColor, test.ShouldBeTrue)
	test.That(t, pc.MetaData().HasValue, test.ShouldBeTrue)

	d, ok := pc.At(1, 2, 3)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d, test.ShouldResemble, NewColoredData(color.NRGBA{0, 255, 0, 255}).SetValue(5))

	d, ok = pc.At(-1.5, 0.5, 2)
	test.That(t, ok, test.ShouldBeTrue)
	r, g, b := d.RGB255()
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{0, 0, 255})

	t.Run("float colors are normalized", func(t *testing.T) {
		in := "ply\nformat ascii 1.0\nelement vertex 1\nproperty double x\nproperty double y\nproperty double z\n" +
			"property float red\nproperty float green\nproperty float blue\nend_header\n1 1 1 1.0 0.5 0\n"
		pc, err := ReadPLY(strings.NewReader(in))
		test.That(t, err, test.ShouldBeNil)
		d, ok := pc.At(1, 1, 1)
		test.That(t, ok, test.ShouldBeTrue)
		r, g, b := d.RGB255()
		test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{255, 128, 0})
	})

	t.Run("uncolored", func(t *testing.T) {
		in := "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nproperty float z\nend_header\n1 2 3\n"
		pc, err := ReadPLY(strings.NewReader(in))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, pc.MetaData().HasColor, test.ShouldBeFalse)
	})

	for _, tc := range []struct {
		name string
		in   string
	}{
		{"not ply", "hello\nworld\n"},
		{"binary", "ply\nformat binary_little_endian 1.0\nend_header\n"},
		{"bad value", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nproperty float z\nend_header\n1 two 3\n"},
		{"missing rows", "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nend_header\n1 2 3\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadPLY(strings.NewReader(tc.in))
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, "invalid ply data")
		})
	}

	t.Run("missing coordinate", func(t *testing.T) {
		in := "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nend_header\n1 2\n"
		_, err := ReadPLY(strings.NewReader(in))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "missing z property")
	})
}

func TestLASRoundTrip(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, tc := range []struct {
		name      string
		withColor bool
		withValue bool
	}{
		{"plain", false, false},
		{"color", true, false},
		{"color and value", true, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cloud := makeTestCloud(t, tc.withColor, tc.withValue)
			fn := filepath.Join(t.TempDir(), "cloud.las")
			test.That(t, WriteToLASFile(cloud, fn), test.ShouldBeNil)

			read, err := NewFromFile(fn, logger)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, read.Size(), test.ShouldEqual, cloud.Size())
			test.That(t, read.MetaData().HasColor, test.ShouldEqual, tc.withColor)

			var expected, actual []PointAndData
			cloud.Iterate(0, 0, func(p r3.Vector, d Data) bool {
				expected = append(expected, PointAndData{p, d})
				return true
			})
			read.Iterate(0, 0, func(p r3.Vector, d Data) bool {
				actual = append(actual, PointAndData{p, d})
				return true
			})
			for i := range expected {
				test.That(t, actual[i].P.X, test.ShouldAlmostEqual, expected[i].P.X, 0.01)
				test.That(t, actual[i].P.Y, test.ShouldAlmostEqual, expected[i].P.Y, 0.01)
				test.That(t, actual[i].P.Z, test.ShouldAlmostEqual, expected[i].P.Z, 0.01)
				if tc.withColor {
					test.That(t, actual[i].D.Color(), test.ShouldResemble, expected[i].D.Color())
				}
				if tc.withValue {
					test.That(t, actual[i].D.Value(), test.ShouldEqual, expected[i].D.Value())
				}
			}
		})
	}
}

func TestNewFromFile(t *testing.T) {
	logger := logging.NewTestLogger(t)
	dir := t.TempDir()

	cloud := makeTestCloud(t, true, false)
	pcdPath := filepath.Join(dir, "cloud.PCD")
	f, err := os.Create(pcdPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ToPCD(cloud, f, PCDBinary), test.ShouldBeNil)
	test.That(t, f.Close(), test.ShouldBeNil)

	read, err := NewFromFile(pcdPath, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read.Size(), test.ShouldEqual, 3)

	plyPath := filepath.Join(dir, "cloud.ply")
	test.That(t, os.WriteFile(plyPath, []byte(testPLY), 0o600), test.ShouldBeNil)
	read, err = NewFromFile(plyPath, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read.Size(), test.ShouldEqual, 3)

	_, err = NewFromFile(filepath.Join(dir, "cloud.xyz"), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "do not know how to read")

	_, err = NewFromFile(filepath.Join(dir, "missing.pcd"), logger)
	test.That(t, err, test.ShouldNotBeNil)
}
