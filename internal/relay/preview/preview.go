// Package preview renders raw relay chunks as short printable strings for trace logs.
package preview

import (
	"strconv"
	"strings"
)

// DefaultWidth - preview width limit, including the opening quote.
const DefaultWidth = 40

// Bytes - lazy fmt.Stringer over a chunk, so the preview is built only when a log entry
// is really written (use with zap.Stringer).
type Bytes []byte

func (b Bytes) String() string {
	return Format(b)
}

// Format - quotes data with DefaultWidth limit.
func Format(data []byte) string {
	return FormatWidth(data, DefaultWidth)
}

// FormatWidth - quotes data escaping control bytes below space and non-ASCII bytes, DEL is kept as is.
// Output stops as soon as it reaches width, in that case "..." is appended after the closing quote.
func FormatWidth(data []byte, width int) string {
	b := strings.Builder{}
	b.WriteByte('"')
	overflow := false
	for _, c := range data {
		if b.Len() >= width {
			overflow = true
			break
		}
		switch {
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\\':
			b.WriteString(`\\`)
		case c >= ' ' && c <= 0x7f:
			b.WriteByte(c)
		default:
			b.WriteString(`\x`)
			if c < 0x10 {
				b.WriteByte('0')
			}
			b.WriteString(strconv.FormatUint(uint64(c), 16))
		}
	}
	b.WriteByte('"')
	if overflow {
		b.WriteString("...")
	}
	return b.String()
}
