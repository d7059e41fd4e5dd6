package zarr

import (
	"encoding/binary"
	"fmt"
	"math"
	"testing"
)

func TestInspectDtypeIntegerNames(t *testing.T) {
	for _, bits := range []int{8, 16, 32} {
		for _, unsigned := range []bool{true, false} {
			name := fmt.Sprintf("int%d", bits)
			if unsigned {
				name = "u" + name
			}
			t.Run(name, func(t *testing.T) {
				info := InspectDtype(name, nil)
				if !info.HasRange {
					t.Fatalf("HasRange = false")
				}
				if width := info.Max - info.Min + 1; width != math.Exp2(float64(bits)) {
					t.Errorf("range width = %v, want 2^%d", width, bits)
				}
				wantMin := 0.0
				if !unsigned {
					wantMin = -math.Exp2(float64(bits - 1))
				}
				if info.Min != wantMin {
					t.Errorf("Min = %v, want %v", info.Min, wantMin)
				}
				if info.ByteWidth != bits/8 {
					t.Errorf("ByteWidth = %d, want %d", info.ByteWidth, bits/8)
				}
			})
		}
	}
}

func TestInspectDtype(t *testing.T) {
	tests := []struct {
		dtype     string
		min, max  float64
		byteWidth int
		hasRange  bool
		kind      DtypeKind
	}{
		{"uint16", 0, 65535, 2, true, DtypeUnsigned},
		{"int8", -128, 127, 1, true, DtypeSigned},
		{"<i4", -2147483648, 2147483647, 4, true, DtypeSigned},
		{">u2", 0, 65535, 2, true, DtypeUnsigned},
		{"|u1", 0, 255, 1, true, DtypeUnsigned},
		{"|f8", DefaultDtypeMin, DefaultDtypeMax, 8, false, DtypeFloat},
		{"float32", DefaultDtypeMin, DefaultDtypeMax, 4, false, DtypeFloat},
		{"complex128", DefaultDtypeMin, DefaultDtypeMax, DefaultDtypeByteWidth, false, DtypeUnknown},
		{"", DefaultDtypeMin, DefaultDtypeMax, DefaultDtypeByteWidth, false, DtypeUnknown},
		{"|b1", DefaultDtypeMin, DefaultDtypeMax, DefaultDtypeByteWidth, false, DtypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.dtype, func(t *testing.T) {
			got := InspectDtype(tt.dtype, nil)
			want := DtypeInfo{Min: tt.min, Max: tt.max, ByteWidth: tt.byteWidth, HasRange: tt.hasRange, Kind: tt.kind}
			if got != want {
				t.Errorf("InspectDtype(%q) = %+v, want %+v", tt.dtype, got, want)
			}
		})
	}
}

func TestParseTypestr(t *testing.T) {
	tests := []struct {
		in      string
		order   binary.ByteOrder
		kind    byte
		size    int
		wantErr bool
	}{
		{in: "<u2", order: binary.LittleEndian, kind: 'u', size: 2},
		{in: ">i4", order: binary.BigEndian, kind: 'i', size: 4},
		{in: "|u1", order: binary.LittleEndian, kind: 'u', size: 1},
		{in: "&lt;f4", order: binary.LittleEndian, kind: 'f', size: 4},
		{in: "uint16", order: binary.LittleEndian, kind: 'u', size: 2},
		{in: "float64", order: binary.LittleEndian, kind: 'f', size: 8},
		{in: "<U8", wantErr: true},
		{in: "<f2", wantErr: true},
		{in: "<u3", wantErr: true},
		{in: "u2", wantErr: true},
		{in: "=u2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTypestr(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTypestr(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.ByteOrder != tt.order || got.Kind != tt.kind || got.Size != tt.size {
				t.Errorf("ParseTypestr(%q) = {%v %c %d}, want {%v %c %d}",
					tt.in, got.ByteOrder, got.Kind, got.Size, tt.order, tt.kind, tt.size)
			}
		})
	}
}

func TestTypestrValue(t *testing.T) {
	le, _ := ParseTypestr("<i2")
	if got := le.Value([]byte{0xff, 0xff}); got != -1 {
		t.Errorf("<i2 Value = %v, want -1", got)
	}

	be, _ := ParseTypestr(">u2")
	if got := be.Value([]byte{0x01, 0x00}); got != 256 {
		t.Errorf(">u2 Value = %v, want 256", got)
	}

	f, _ := ParseTypestr("<f4")
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(1.5))
	if got := f.Value(b); got != 1.5 {
		t.Errorf("<f4 Value = %v, want 1.5", got)
	}
}
