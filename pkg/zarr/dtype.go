package zarr

import (
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// Default range used when a dtype cannot be interpreted.
const (
	DefaultDtypeMin       = 0
	DefaultDtypeMax       = 65535
	DefaultDtypeByteWidth = 4
)

// DtypeKind classifies how a dtype descriptor was understood.
type DtypeKind int

const (
	DtypeUnknown DtypeKind = iota
	DtypeSigned
	DtypeUnsigned
	DtypeFloat
)

func (k DtypeKind) String() string {
	switch k {
	case DtypeSigned:
		return "signed"
	case DtypeUnsigned:
		return "unsigned"
	case DtypeFloat:
		return "float"
	default:
		return "unknown"
	}
}

// DtypeInfo is the result of inspecting a dtype descriptor.
//
// HasRange is false for floating point and unrecognized dtypes. Min and Max
// then hold the default fallback range and must not be read as the value
// range of the data.
type DtypeInfo struct {
	Min       float64
	Max       float64
	ByteWidth int
	HasRange  bool
	Kind      DtypeKind
}

var (
	explicitDtype = regexp.MustCompile(`^[<>|]([iuf])(\d+)$`)
	digitRun      = regexp.MustCompile(`\d+`)
)

// InspectDtype parses a numpy-style dtype descriptor ("uint16", "int8",
// "<i4", ">u2", "|f8", "float32") into a value range and byte width.
//
// It never fails: descriptors it cannot interpret yield the default range
// [0, 65535] with a byte width of 4, and a warning is logged. logger may be nil.
func InspectDtype(dtype string, logger *log.Logger) DtypeInfo {
	if strings.Contains(dtype, "int") {
		if bits, ok := firstDigits(dtype); ok && bits > 0 {
			return integerRange(bits, strings.Contains(dtype, "uint"))
		}
	}

	if m := explicitDtype.FindStringSubmatch(dtype); m != nil {
		bytes, _ := strconv.Atoi(m[2])
		switch m[1] {
		case "i":
			return integerRange(bytes*8, false)
		case "u":
			return integerRange(bytes*8, true)
		case "f":
			return floatInfo(bytes)
		}
	}

	if strings.Contains(dtype, "float") {
		if bits, ok := firstDigits(dtype); ok && bits > 0 {
			return floatInfo(bits / 8)
		}
	}

	if logger != nil {
		logger.Warn("unrecognized dtype, using default range", "dtype", dtype,
			"min", DefaultDtypeMin, "max", DefaultDtypeMax)
	}
	return DtypeInfo{
		Min:       DefaultDtypeMin,
		Max:       DefaultDtypeMax,
		ByteWidth: DefaultDtypeByteWidth,
	}
}

func firstDigits(s string) (int, bool) {
	d := digitRun.FindString(s)
	if d == "" {
		return 0, false
	}
	n, err := strconv.Atoi(d)
	return n, err == nil
}

func integerRange(bits int, unsigned bool) DtypeInfo {
	info := DtypeInfo{ByteWidth: (bits + 7) / 8, HasRange: true}
	if unsigned {
		info.Kind = DtypeUnsigned
		info.Min = 0
		info.Max = math.Exp2(float64(bits)) - 1
	} else {
		info.Kind = DtypeSigned
		info.Min = -math.Exp2(float64(bits - 1))
		info.Max = math.Exp2(float64(bits-1)) - 1
	}
	return info
}

func floatInfo(bytes int) DtypeInfo {
	return DtypeInfo{
		Min:       DefaultDtypeMin,
		Max:       DefaultDtypeMax,
		ByteWidth: bytes,
		Kind:      DtypeFloat,
	}
}

// Typestr is a fully decoded element type, as needed to read chunk bytes.
// It follows the numpy array protocol typestr: byte order, basic type and
// size in bytes.
type Typestr struct {
	ByteOrder binary.ByteOrder
	Kind      byte // 'b', 'i', 'u' or 'f'
	Size      int
}

var v3DataTypes = map[string]Typestr{
	"bool":    {Kind: 'b', Size: 1},
	"int8":    {Kind: 'i', Size: 1},
	"int16":   {Kind: 'i', Size: 2},
	"int32":   {Kind: 'i', Size: 4},
	"int64":   {Kind: 'i', Size: 8},
	"uint8":   {Kind: 'u', Size: 1},
	"uint16":  {Kind: 'u', Size: 2},
	"uint32":  {Kind: 'u', Size: 4},
	"uint64":  {Kind: 'u', Size: 8},
	"float32": {Kind: 'f', Size: 4},
	"float64": {Kind: 'f', Size: 8},
}

// ParseTypestr decodes a v2 typestr ("<u2", "|u1", ">f4") or a v3 data type
// name ("uint16"). V3 names carry no byte order; the order comes from the
// "bytes" codec and defaults to little endian.
func ParseTypestr(s string) (Typestr, error) {
	// some writers HTML-escape the byte order marker
	s = strings.Replace(s, "&lt;", "<", 1)
	s = strings.Replace(s, "&gt;", ">", 1)

	if t, ok := v3DataTypes[s]; ok {
		t.ByteOrder = binary.LittleEndian
		return t, nil
	}
	if len(s) < 3 {
		return Typestr{}, fmt.Errorf("invalid dtype %q: too short", s)
	}

	var t Typestr
	switch s[0] {
	case '<', '|':
		t.ByteOrder = binary.LittleEndian
	case '>':
		t.ByteOrder = binary.BigEndian
	default:
		return Typestr{}, fmt.Errorf("invalid dtype %q: unsupported byte order %q", s, s[0])
	}

	switch s[1] {
	case 'b', 'i', 'u', 'f':
		t.Kind = s[1]
	default:
		return Typestr{}, fmt.Errorf("invalid dtype %q: unsupported type %q", s, s[1])
	}

	size, err := strconv.Atoi(s[2:])
	if err != nil {
		return Typestr{}, fmt.Errorf("invalid dtype %q: %w", s, err)
	}
	switch {
	case t.Kind == 'f' && size != 4 && size != 8:
		return Typestr{}, fmt.Errorf("invalid dtype %q: unsupported float size %d", s, size)
	case size != 1 && size != 2 && size != 4 && size != 8:
		return Typestr{}, fmt.Errorf("invalid dtype %q: unsupported size %d", s, size)
	}
	t.Size = size
	return t, nil
}

// Value decodes the element at the start of b as a float64.
// b must hold at least Size bytes.
func (t Typestr) Value(b []byte) float64 {
	switch t.Size {
	case 1:
		if t.Kind == 'i' {
			return float64(int8(b[0]))
		}
		return float64(b[0])
	case 2:
		v := t.ByteOrder.Uint16(b)
		if t.Kind == 'i' {
			return float64(int16(v))
		}
		return float64(v)
	case 4:
		v := t.ByteOrder.Uint32(b)
		switch t.Kind {
		case 'i':
			return float64(int32(v))
		case 'f':
			return float64(math.Float32frombits(v))
		}
		return float64(v)
	default:
		v := t.ByteOrder.Uint64(b)
		switch t.Kind {
		case 'i':
			return float64(int64(v))
		case 'f':
			return math.Float64frombits(v)
		}
		return float64(v)
	}
}
