package skills

import "github.com/hbollon/go-edlib"

// Ratio returns the normalized Indel similarity of a and b in [0, 100]:
// 100 * 2*LCS(a, b) / (len(a) + len(b)), counted in runes.
// Two empty strings are identical.
func Ratio(a, b string) float64 {
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 100
	}
	return 100 * float64(2*edlib.LCS(a, b)) / float64(total)
}
