// Package counting implements the validation state machine at the heart of
// the counting game: strict parsing, the accept/reject decision, and the
// resync algorithm that re-derives state from channel history.
package counting

// ParseCount parses a strict count: the entire body must be decimal digits,
// with no sign, no whitespace, and no redundant leading zero ("0" is the
// only permitted zero-leading form). Returns (0, false) for anything else.
func ParseCount(body string) (int64, bool) {
	if body == "" {
		return 0, false
	}
	if len(body) > 1 && body[0] == '0' {
		return 0, false
	}
	// Digits only, accumulating with overflow detection. Bodies that would
	// exceed int64 are not counts.
	var n int64
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := int64(c - '0')
		if n > (1<<63-1-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	return n, true
}
