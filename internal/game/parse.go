package game

import "musicwordle/internal/models"

// ParseYear reads the year from the first four characters of a year or
// release-date string. Missing or unparsable input yields 0.
func ParseYear(year string) int {
	r := []rune(year)
	if len(r) > 4 {
		r = r[:4]
	}
	return models.ParseInt(string(r))
}

// Decade floors year to its decade, e.g. 1978 -> 1970.
func Decade(year int) int {
	d := year / 10
	if year%10 != 0 && year < 0 {
		d--
	}
	return d * 10
}
