package zarr

import "testing"

func TestTranslateUnit(t *testing.T) {
	tests := map[string]string{
		"micrometer":  "um",
		"micron":      "um",
		"nanometer":   "nm",
		"millimeter":  "mm",
		"second":      "s",
		"millisecond": "ms",
		"um":          "um",
		"parsecs":     "parsecs",
		"":            "",
	}
	for in, want := range tests {
		if got := TranslateUnit(in); got != want {
			t.Errorf("TranslateUnit(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTranslateUnitIdempotent(t *testing.T) {
	inputs := []string{"", "furlong", "µm", "NANOMETER"}
	for long := range unitAbbreviations {
		inputs = append(inputs, long)
	}
	for _, u := range inputs {
		once := TranslateUnit(u)
		if twice := TranslateUnit(once); twice != once {
			t.Errorf("TranslateUnit(TranslateUnit(%q)) = %q, want %q", u, twice, once)
		}
	}
}
