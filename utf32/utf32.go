// Package utf32 converts between UTF-8 strings (used at every external
// boundary: data files, the public API) and []rune (Cube's internal
// character-string representation). The original engine carried its own
// char_32* plumbing everywhere; a Go rewrite collapses that into plain
// []rune conversions done once on entry.
package utf32

import "strings"

// FromUTF8 decodes a UTF-8 string into its code points.
func FromUTF8(s string) []rune {
	return []rune(s)
}

// ToUTF8 encodes code points back into a UTF-8 string.
func ToUTF8(r []rune) string {
	return string(r)
}

// IsCaseInvariant reports whether str is either all one case, or
// capitalized (first rune upper case, remaining runes lower case). This
// mirrors CubeUtils::IsCaseInvariant, used by CharBigrams and WordUnigrams
// to decide whether to also try the all-lower/all-upper variants.
func IsCaseInvariant(str []rune) bool {
	if len(str) == 0 {
		return true
	}
	allUpper, allLower, capitalized := true, true, true
	for i, r := range str {
		upper := r >= 'A' && r <= 'Z'
		lower := r >= 'a' && r <= 'z'
		if !upper {
			allUpper = false
		}
		if !lower {
			allLower = false
		}
		if i == 0 {
			if !upper {
				capitalized = false
			}
		} else if !lower {
			capitalized = false
		}
	}
	return allUpper || allLower || capitalized
}

// ToLower returns the all-lowercase variant of str.
func ToLower(str []rune) []rune {
	return []rune(strings.ToLower(string(str)))
}

// ToUpper returns the all-uppercase variant of str.
func ToUpper(str []rune) []rune {
	return []rune(strings.ToUpper(string(str)))
}
