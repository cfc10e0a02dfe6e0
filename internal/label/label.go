package label

import (
	"fmt"
	"strings"
)

// Unknown is the label assigned to segments whose source has no entry in the label table.
const Unknown = "unknown"

// dialectNames maps the ADI17 country codes to human-readable dialect names.
// Labels outside this map are still accepted; they only lack a display name.
var dialectNames = map[string]string{
	"ALG": "Algerian",
	"EGY": "Egyptian",
	"IRA": "Iraqi",
	"JOR": "Jordanian",
	"KSA": "Saudi",
	"KUW": "Kuwaiti",
	"LEB": "Lebanese",
	"LIB": "Libyan",
	"MAU": "Mauritanian",
	"MOR": "Moroccan",
	"OMA": "Omani",
	"PAL": "Palestinian",
	"QAT": "Qatari",
	"SUD": "Sudanese",
	"SYR": "Syrian",
	"UAE": "Emirati",
	"YEM": "Yemeni",
}

// Normalize trims surrounding whitespace. Case is preserved because the label
// becomes part of the clip file name verbatim.
func Normalize(l string) string {
	return strings.TrimSpace(l)
}

// Validate checks that a label can be used as part of a clip file name.
// Any token is accepted (underscores and non-ASCII letters included) except
// an empty one, "." and "..", and tokens carrying a path separator or NUL.
func Validate(l string) error {
	if l == "" {
		return fmt.Errorf("empty label: %w", ErrInvalid)
	}
	if l == "." || l == ".." {
		return fmt.Errorf("label %q: %w", l, ErrInvalid)
	}
	if i := strings.IndexAny(l, "/\\\x00"); i >= 0 {
		return fmt.Errorf("label %q contains %q: %w", l, l[i], ErrInvalid)
	}
	return nil
}

// DisplayName returns a human-readable dialect name for ADI17 codes.
// Falls back to the label itself.
func DisplayName(l string) string {
	if name, ok := dialectNames[strings.ToUpper(Normalize(l))]; ok {
		return name
	}
	return l
}
