package classify

import "strings"

// NaturalKey is an ordering key for filenames containing numbers. The name is
// split into alternating alphabetic and numeric runs; numeric runs compare by
// magnitude, alphabetic runs case-insensitively. This makes Fig2 < Fig2b < Fig10,
// where plain string comparison would put Fig10 before Fig2.
type NaturalKey []naturalPart

type naturalPart struct {
	text    string
	number  uint64
	numeric bool
}

// NewNaturalKey derives the natural sort key for a filename.
func NewNaturalKey(name string) NaturalKey {
	var key NaturalKey
	runStart := 0
	runNumeric := false

	flush := func(end int) {
		if end == runStart {
			return
		}
		run := name[runStart:end]
		if runNumeric {
			key = append(key, naturalPart{number: parseDigits(run), numeric: true})
		} else {
			key = append(key, naturalPart{text: strings.ToLower(run)})
		}
	}

	for i := 0; i < len(name); i++ {
		isDigit := name[i] >= '0' && name[i] <= '9'
		if i == runStart {
			runNumeric = isDigit
			continue
		}
		if isDigit != runNumeric {
			flush(i)
			runStart = i
			runNumeric = isDigit
		}
	}
	flush(len(name))
	return key
}

// parseDigits converts a digit run to a number, saturating on overflow so
// absurdly long runs still compare as "very large" instead of wrapping.
func parseDigits(s string) uint64 {
	var n uint64
	for i := 0; i < len(s); i++ {
		d := uint64(s[i] - '0')
		if n > (^uint64(0)-d)/10 {
			return ^uint64(0)
		}
		n = n*10 + d
	}
	return n
}

// Compare returns -1, 0, or 1 ordering k relative to other.
func (k NaturalKey) Compare(other NaturalKey) int {
	for i := 0; i < len(k) && i < len(other); i++ {
		a, b := k[i], other[i]
		switch {
		case a.numeric && b.numeric:
			if a.number != b.number {
				if a.number < b.number {
					return -1
				}
				return 1
			}
		case !a.numeric && !b.numeric:
			if c := strings.Compare(a.text, b.text); c != 0 {
				return c
			}
		case a.numeric:
			// Numeric run sorts before an alphabetic run at the same position.
			return -1
		default:
			return 1
		}
	}
	switch {
	case len(k) < len(other):
		return -1
	case len(k) > len(other):
		return 1
	}
	return 0
}

// Less reports whether k orders before other.
func (k NaturalKey) Less(other NaturalKey) bool {
	return k.Compare(other) < 0
}

// String renders the key in its canonical lowercase form, used as the logical
// slot identity for figures.
func (k NaturalKey) String() string {
	var b strings.Builder
	for _, p := range k {
		if p.numeric {
			writeUint(&b, p.number)
		} else {
			b.WriteString(p.text)
		}
	}
	return b.String()
}

func writeUint(b *strings.Builder, n uint64) {
	if n >= 10 {
		writeUint(b, n/10)
	}
	b.WriteByte(byte('0' + n%10))
}
