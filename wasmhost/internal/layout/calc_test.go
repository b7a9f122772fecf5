package layout

import (
	"testing"

	"go.bytecodealliance.org/wit"
)

func TestCalculatePrimitives(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		typ   wit.Type
		name  string
		size  uint32
		align uint32
	}{
		{wit.U8{}, "u8", 1, 1},
		{wit.U32{}, "u32", 4, 4},
		{wit.S64{}, "s64", 8, 8},
		{wit.F32{}, "f32", 4, 4},
		{wit.String{}, "string", 8, 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := c.Calculate(tc.typ)
			if info.Size != tc.size {
				t.Errorf("size: got %d, want %d", info.Size, tc.size)
			}
			if info.Align != tc.align {
				t.Errorf("align: got %d, want %d", info.Align, tc.align)
			}
		})
	}
}

func TestCalculateRecord(t *testing.T) {
	c := NewCalculator()

	record := &wit.Record{
		Fields: []wit.Field{
			{Name: "a", Type: wit.U8{}},
			{Name: "b", Type: wit.U32{}},
			{Name: "c", Type: &wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}},
			{Name: "d", Type: wit.U8{}},
		},
	}
	info := c.Calculate(&wit.TypeDef{Kind: record})

	want := map[string]uint32{"a": 0, "b": 4, "c": 8, "d": 16}
	for name, off := range want {
		if info.FieldOffs[name] != off {
			t.Errorf("field %s offset: got %d, want %d", name, info.FieldOffs[name], off)
		}
	}
	if info.Size != 20 {
		t.Errorf("size: got %d, want 20", info.Size)
	}
	if info.Align != 4 {
		t.Errorf("align: got %d, want 4", info.Align)
	}
}

func TestCalculateEnum(t *testing.T) {
	c := NewCalculator()
	enum := &wit.TypeDef{Kind: &wit.Enum{Cases: []wit.EnumCase{{Name: "a"}, {Name: "b"}}}}
	info := c.Calculate(enum)
	if info.Size != 1 || info.Align != 1 {
		t.Errorf("got size %d align %d, want 1 and 1", info.Size, info.Align)
	}
}

func TestCalculateCaches(t *testing.T) {
	c := NewCalculator()
	list := &wit.TypeDef{Kind: &wit.List{Type: wit.U32{}}}
	c.Calculate(list)
	if _, ok := c.cache[list]; !ok {
		t.Error("typedef layout not cached")
	}
}

func TestAlignTo(t *testing.T) {
	tests := []struct{ off, align, want uint32 }{
		{0, 4, 0},
		{1, 4, 4},
		{8, 8, 8},
		{9, 8, 16},
		{5, 0, 5},
	}
	for _, tt := range tests {
		if got := AlignTo(tt.off, tt.align); got != tt.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tt.off, tt.align, got, tt.want)
		}
	}
}
