package dataset

// naValues are the cell contents read as a missing value.
var naValues = map[string]struct{}{
	"":         {},
	"nan":      {},
	"NaN":      {},
	"-NaN":     {},
	"-nan":     {},
	"NA":       {},
	"N/A":      {},
	"n/a":      {},
	"<NA>":     {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"NULL":     {},
	"null":     {},
	"None":     {},
}

// IsNA reports whether cell is one of the recognized missing-value markers.
func IsNA(cell string) bool {
	_, ok := naValues[cell]
	return ok
}
