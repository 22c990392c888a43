package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/voxelmesh/logging"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
	// PCDCompressed binary format for pcd.
	PCDCompressed PCDType = 2
)

// NewFromFile returns a pointcloud read in from the given file. The format is chosen from the
// file extension.
func NewFromFile(fn string, logger logging.Logger) (PointCloud, error) {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".las":
		return NewFromLASFile(fn, logger)
	case ".pcd":
		//nolint:gosec
		f, err := os.Open(fn)
		if err != nil {
			return nil, err
		}
		defer utils.UncheckedErrorFunc(f.Close)
		return ReadPCD(f)
	case ".ply":
		//nolint:gosec
		f, err := os.Open(fn)
		if err != nil {
			return nil, err
		}
		defer utils.UncheckedErrorFunc(f.Close)
		return ReadPLY(f)
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
}

func colorToPCDInt(pt Data) uint32 {
	if pt == nil || !pt.HasColor() {
		return 0xFFFFFF
	}

	r, g, b := pt.RGB255()
	var x uint32
	x |= uint32(r) << 16
	x |= uint32(g) << 8
	x |= uint32(b)
	return x
}

func pcdIntToColor(c uint32) color.NRGBA {
	r := uint8(0xFF & (c >> 16))
	g := uint8(0xFF & (c >> 8))
	b := uint8(0xFF & c)
	return color.NRGBA{r, g, b, 255}
}

// ToPCD writes out a point cloud to a PCD file of the given layout.
func ToPCD(cloud PointCloud, out io.Writer, outputType PCDType) error {
	meta := cloud.MetaData()

	fields := []string{"x", "y", "z"}
	sizes := []string{"4", "4", "4"}
	types := []string{"F", "F", "F"}
	if meta.HasColor {
		fields = append(fields, "rgb")
		sizes = append(sizes, "4")
		types = append(types, "U")
	}
	if meta.HasValue {
		fields = append(fields, "label")
		sizes = append(sizes, "4")
		types = append(types, "I")
	}
	counts := make([]string, len(fields))
	for i := range counts {
		counts[i] = "1"
	}

	if _, err := fmt.Fprintf(out, "VERSION .7\n"+
		"FIELDS %s\n"+
		"SIZE %s\n"+
		"TYPE %s\n"+
		"COUNT %s\n"+
		"WIDTH %d\n"+
		"HEIGHT 1\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n",
		strings.Join(fields, " "),
		strings.Join(sizes, " "),
		strings.Join(types, " "),
		strings.Join(counts, " "),
		cloud.Size(),
		cloud.Size(),
	); err != nil {
		return err
	}

	switch outputType {
	case PCDBinary:
		if _, err := fmt.Fprintf(out, "DATA binary\n"); err != nil {
			return err
		}
	case PCDAscii:
		if _, err := fmt.Fprintf(out, "DATA ascii\n"); err != nil {
			return err
		}
	case PCDCompressed:
		return errors.New("compressed PCD not yet implemented")
	default:
		return errors.Errorf("unknown PCD output type %d", outputType)
	}
	return writePCDData(cloud, out, outputType)
}

func writePCDData(cloud PointCloud, out io.Writer, pcdtype PCDType) error {
	meta := cloud.MetaData()
	var err error
	cloud.Iterate(0, 0, func(pos r3.Vector, d Data) bool {
		switch pcdtype {
		case PCDBinary:
			buf := make([]byte, 0, 20)
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(pos.X)))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(pos.Y)))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(pos.Z)))
			if meta.HasColor {
				buf = binary.LittleEndian.AppendUint32(buf, colorToPCDInt(d))
			}
			if meta.HasValue {
				buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(valueOf(d))))
			}
			_, err = out.Write(buf)
		default:
			line := fmt.Sprintf("%f %f %f", pos.X, pos.Y, pos.Z)
			if meta.HasColor {
				line += fmt.Sprintf(" %d", colorToPCDInt(d))
			}
			if meta.HasValue {
				line += fmt.Sprintf(" %d", valueOf(d))
			}
			_, err = fmt.Fprintln(out, line)
		}
		return err == nil
	})
	return err
}

func valueOf(d Data) int {
	if d == nil || !d.HasValue() {
		return 0
	}
	return d.Value()
}

type pcdValType string

const (
	pcdValFloat pcdValType = "F"
	pcdValInt   pcdValType = "I"
	pcdValUInt  pcdValType = "U"
)

type pcdHeader struct {
	fields []string
	size   []uint64
	typ    []pcdValType
	count  []uint64
	width  uint64
	height uint64
	points uint64
	data   PCDType

	xIdx, yIdx, zIdx int
	colorIdx         int
	valueIdx         int
}

const pcdCommentChar = "#"

var pcdHeaderFields = []string{"VERSION", "FIELDS", "SIZE", "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT", "POINTS", "DATA"}

func (h *pcdHeader) indexFields() error {
	h.xIdx, h.yIdx, h.zIdx, h.colorIdx, h.valueIdx = -1, -1, -1, -1, -1
	for i, f := range h.fields {
		switch f {
		case "x":
			h.xIdx = i
		case "y":
			h.yIdx = i
		case "z":
			h.zIdx = i
		case "rgb", "rgba":
			h.colorIdx = i
		case "label":
			h.valueIdx = i
		}
	}
	if h.xIdx < 0 || h.yIdx < 0 || h.zIdx < 0 {
		return errors.Errorf("pcd fields %q must include x y z", strings.Join(h.fields, " "))
	}
	return nil
}

func parsePCDHeaderLine(line string, index int, header *pcdHeader) error {
	var err error
	name := pcdHeaderFields[index]
	field, value, _ := strings.Cut(line, " ")
	value = strings.TrimSpace(value)
	tokens := strings.Fields(value)
	if field != name {
		return errors.Errorf("line is supposed to start with %s but is %s", name, line)
	}

	checkLen := func() error {
		if len(tokens) != len(header.fields) {
			return errors.Errorf("unexpected number of fields in %s line", name)
		}
		return nil
	}

	switch name {
	case "VERSION":
		if value != ".7" && value != "0.7" {
			return errors.Errorf("unsupported pcd version %s", value)
		}
	case "FIELDS":
		header.fields = tokens
		if err := header.indexFields(); err != nil {
			return err
		}
	case "SIZE":
		if err := checkLen(); err != nil {
			return err
		}
		header.size = make([]uint64, len(tokens))
		for i, token := range tokens {
			header.size[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil {
				return errors.Errorf("invalid SIZE field %s", token)
			}
			if header.size[i] != 1 && header.size[i] != 2 && header.size[i] != 4 && header.size[i] != 8 {
				return errors.Errorf("unsupported SIZE field %s", token)
			}
		}
	case "TYPE":
		if err := checkLen(); err != nil {
			return err
		}
		header.typ = make([]pcdValType, len(tokens))
		for i, token := range tokens {
			switch t := pcdValType(token); t {
			case pcdValFloat, pcdValInt, pcdValUInt:
				header.typ[i] = t
			default:
				return errors.Errorf("invalid TYPE field %s", token)
			}
		}
	case "COUNT":
		if err := checkLen(); err != nil {
			return err
		}
		header.count = make([]uint64, len(tokens))
		for i, token := range tokens {
			header.count[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid COUNT field %s", token)
			}
			if header.count[i] != 1 {
				return errors.Errorf("unsupported COUNT field %s", token)
			}
		}
	case "WIDTH":
		header.width, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid WIDTH field %s", value)
		}
	case "HEIGHT":
		header.height, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid HEIGHT field %s", value)
		}
	case "VIEWPOINT":
		if len(tokens) != 7 {
			return errors.Errorf("unexpected number of fields in VIEWPOINT line. Expected 7, got %d", len(tokens))
		}
		for _, token := range tokens {
			if _, err := strconv.ParseFloat(token, 64); err != nil {
				return errors.Wrapf(err, "invalid VIEWPOINT field %s", token)
			}
		}
	case "POINTS":
		var points uint64
		points, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid POINTS field %s", value)
		}
		if points != header.width*header.height {
			return errors.Errorf("POINTS field %d does not match WIDTH*HEIGHT %d", points, header.width*header.height)
		}
		header.points = points
	case "DATA":
		switch value {
		case "ascii":
			header.data = PCDAscii
		case "binary":
			header.data = PCDBinary
		case "binary_compressed":
			header.data = PCDCompressed
		default:
			return errors.Errorf("unsupported pcd data type %q", value)
		}
	}

	return nil
}

// ReadPCD reads a PCD stream in either the ascii or binary layout.
func ReadPCD(inRaw io.Reader) (PointCloud, error) {
	header := pcdHeader{}
	in := bufio.NewReader(inRaw)
	headerLineCount := 0
	for headerLineCount < len(pcdHeaderFields) {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrapf(err, "error reading header line %d", headerLineCount)
		}
		line, _, _ = strings.Cut(line, pcdCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parsePCDHeaderLine(line, headerLineCount, &header); err != nil {
			return nil, err
		}
		headerLineCount++
	}
	switch header.data {
	case PCDAscii:
		return readPCDAscii(in, header)
	case PCDBinary:
		return readPCDBinary(in, header)
	case PCDCompressed:
		return nil, errors.New("compressed pcd not yet supported")
	default:
		return nil, errors.Errorf("unsupported pcd data type %v", header.data)
	}
}

func readPCDAscii(in *bufio.Reader, header pcdHeader) (PointCloud, error) {
	pc := NewWithPrealloc(int(header.points))
	for i := 0; i < int(header.points); i++ {
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, errors.Wrapf(err, "reading point %d", i)
		}
		tokens := strings.Fields(line)
		if len(tokens) != len(header.fields) {
			return nil, errors.Errorf("unexpected number of fields in point %d", i)
		}
		point := make([]float64, len(tokens))
		for j, token := range tokens {
			switch {
			case j == header.colorIdx && header.typ[j] == pcdValFloat:
				// packed rgb stored in the bits of a float32
				var f float64
				f, err = strconv.ParseFloat(token, 32)
				point[j] = float64(math.Float32bits(float32(f)))
			case header.typ[j] == pcdValFloat:
				point[j], err = strconv.ParseFloat(token, 64)
			default:
				var n int64
				n, err = strconv.ParseInt(token, 10, 64)
				point[j] = float64(n)
			}
			if err != nil {
				return nil, errors.Wrapf(err, "invalid point %d field %s", i, token)
			}
		}
		if err := setPCDPoint(pc, point, header); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

func readPCDBinary(in *bufio.Reader, header pcdHeader) (PointCloud, error) {
	pc := NewWithPrealloc(int(header.points))
	for i := 0; i < int(header.points); i++ {
		point := make([]float64, len(header.fields))
		for j := range header.fields {
			buf := make([]byte, header.size[j])
			if _, err := io.ReadFull(in, buf); err != nil {
				return nil, errors.Wrapf(err, "reading point %d", i)
			}
			if j == header.colorIdx && header.size[j] == 4 {
				point[j] = float64(binary.LittleEndian.Uint32(buf))
				continue
			}
			v, err := decodePCDBinaryField(buf, header.typ[j])
			if err != nil {
				return nil, err
			}
			point[j] = v
		}
		if err := setPCDPoint(pc, point, header); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

func decodePCDBinaryField(buf []byte, typ pcdValType) (float64, error) {
	switch typ {
	case pcdValFloat:
		switch len(buf) {
		case 4:
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf))), nil
		case 8:
			return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
		}
	case pcdValInt:
		switch len(buf) {
		case 1:
			return float64(int8(buf[0])), nil
		case 2:
			return float64(int16(binary.LittleEndian.Uint16(buf))), nil
		case 4:
			return float64(int32(binary.LittleEndian.Uint32(buf))), nil
		case 8:
			return float64(int64(binary.LittleEndian.Uint64(buf))), nil
		}
	case pcdValUInt:
		switch len(buf) {
		case 1:
			return float64(buf[0]), nil
		case 2:
			return float64(binary.LittleEndian.Uint16(buf)), nil
		case 4:
			return float64(binary.LittleEndian.Uint32(buf)), nil
		case 8:
			return float64(binary.LittleEndian.Uint64(buf)), nil
		}
	}
	return 0, errors.Errorf("unsupported pcd field of type %s and size %d", typ, len(buf))
}

func setPCDPoint(pc PointCloud, slice []float64, header pcdHeader) error {
	pos := r3.Vector{X: slice[header.xIdx], Y: slice[header.yIdx], Z: slice[header.zIdx]}
	data := NewBasicData()
	if header.colorIdx >= 0 {
		data.SetColor(pcdIntToColor(uint32(int64(slice[header.colorIdx]))))
	}
	if header.valueIdx >= 0 {
		data.SetValue(int(slice[header.valueIdx]))
	}
	return pc.Set(pos, data)
}
