package zarr

// unitAbbreviations maps long-form physical unit names, as they appear in
// OME-Zarr axis metadata, to the short forms understood by viewers.
var unitAbbreviations = map[string]string{
	// length
	"angstrom":   "Å",
	"attometer":  "am",
	"centimeter": "cm",
	"decameter":  "dam",
	"decimeter":  "dm",
	"exameter":   "Em",
	"femtometer": "fm",
	"foot":       "ft",
	"gigameter":  "Gm",
	"hectometer": "hm",
	"inch":       "in",
	"kilometer":  "km",
	"megameter":  "Mm",
	"meter":      "m",
	"micrometer": "um",
	"micron":     "um",
	"mile":       "mi",
	"millimeter": "mm",
	"nanometer":  "nm",
	"parsec":     "pc",
	"petameter":  "Pm",
	"picometer":  "pm",
	"terameter":  "Tm",
	"yard":       "yd",
	"yoctometer": "ym",
	"yottameter": "Ym",
	"zeptometer": "zm",
	"zettameter": "Zm",

	// time
	"attosecond":  "as",
	"centisecond": "cs",
	"day":         "d",
	"decasecond":  "das",
	"decisecond":  "ds",
	"exasecond":   "Es",
	"femtosecond": "fs",
	"gigasecond":  "Gs",
	"hectosecond": "hs",
	"hour":        "h",
	"kilosecond":  "ks",
	"megasecond":  "Ms",
	"microsecond": "us",
	"millisecond": "ms",
	"minute":      "min",
	"nanosecond":  "ns",
	"petasecond":  "Ps",
	"picosecond":  "ps",
	"second":      "s",
	"terasecond":  "Ts",
	"yoctosecond": "ys",
	"yottasecond": "Ys",
	"zeptosecond": "zs",
	"zettasecond": "Zs",
}

// TranslateUnit returns the canonical short form of a physical unit name.
// Unknown units, including ones already in short form, are returned unchanged,
// so TranslateUnit is idempotent. The empty string stands for "no unit".
func TranslateUnit(unit string) string {
	if short, ok := unitAbbreviations[unit]; ok {
		return short
	}
	return unit
}
