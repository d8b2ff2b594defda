package extract

import (
	"strings"
	"unicode/utf16"
)

// DecodeText scrapes the text-showing operators (Tj, TJ, ' and ") out of a
// decoded PDF content stream. Positioning operators that start a new line
// (Td, TD, T*) become newlines. This handles simple single-byte and
// UTF-16BE encodings; exotic font encodings fall through as raw bytes and
// are cleaned up downstream by normalization.
func DecodeText(stream []byte) string {
	var out strings.Builder
	var pending []string

	i := 0
	n := len(stream)
	for i < n {
		c := stream[i]
		switch {
		case c == '%':
			// Comment runs to end of line.
			for i < n && stream[i] != '\n' && stream[i] != '\r' {
				i++
			}
		case c == '(':
			s, next := readLiteralString(stream, i)
			pending = append(pending, s)
			i = next
		case c == '<' && i+1 < n && stream[i+1] != '<':
			s, next := readHexString(stream, i)
			pending = append(pending, s)
			i = next
		case c == '<': // dictionary open
			i += 2
		case isRegular(c):
			start := i
			for i < n && isRegular(stream[i]) {
				i++
			}
			op := string(stream[start:i])
			switch op {
			case "Tj", "TJ":
				for _, s := range pending {
					out.WriteString(s)
				}
				pending = pending[:0]
			case "'", "\"":
				newline(&out)
				for _, s := range pending {
					out.WriteString(s)
				}
				pending = pending[:0]
			case "Td", "TD", "T*", "ET":
				newline(&out)
				pending = pending[:0]
			}
		default:
			i++
		}
	}
	return out.String()
}

func newline(out *strings.Builder) {
	s := out.String()
	if len(s) > 0 && !strings.HasSuffix(s, "\n") {
		out.WriteByte('\n')
	}
}

// isRegular reports whether c can appear in an operator or name token.
func isRegular(c byte) bool {
	switch c {
	case 0, 9, 10, 12, 13, 32: // whitespace
		return false
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return false
	}
	return true
}

// readLiteralString consumes a (...) string starting at the opening paren.
// Returns the decoded string and the index just past the closing paren.
func readLiteralString(stream []byte, start int) (string, int) {
	var b []byte
	depth := 0
	i := start
	n := len(stream)
	for i < n {
		c := stream[i]
		switch c {
		case '\\':
			if i+1 >= n {
				return decodeBytes(b), i + 1
			}
			i++
			switch e := stream[i]; e {
			case 'n':
				b = append(b, '\n')
			case 'r':
				b = append(b, '\r')
			case 't':
				b = append(b, '\t')
			case 'b':
				b = append(b, '\b')
			case 'f':
				b = append(b, '\f')
			case '(', ')', '\\':
				b = append(b, e)
			case '\n':
				// Line continuation, emits nothing.
			case '\r':
				if i+1 < n && stream[i+1] == '\n' {
					i++
				}
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for k := 0; k < 2 && i+1 < n && stream[i+1] >= '0' && stream[i+1] <= '7'; k++ {
						i++
						v = v*8 + int(stream[i]-'0')
					}
					b = append(b, byte(v))
				} else {
					b = append(b, e)
				}
			}
			i++
		case '(':
			if depth > 0 || i != start {
				b = append(b, c)
			}
			depth++
			i++
		case ')':
			depth--
			if depth == 0 {
				return decodeBytes(b), i + 1
			}
			b = append(b, c)
			i++
		default:
			b = append(b, c)
			i++
		}
	}
	return decodeBytes(b), i
}

// readHexString consumes a <...> string starting at the opening bracket.
func readHexString(stream []byte, start int) (string, int) {
	var nibbles []byte
	i := start + 1
	n := len(stream)
	for i < n && stream[i] != '>' {
		c := stream[i]
		if hexVal(c) >= 0 {
			nibbles = append(nibbles, c)
		}
		i++
	}
	if i < n {
		i++ // consume '>'
	}
	// Odd nibble count implies a trailing zero.
	if len(nibbles)%2 == 1 {
		nibbles = append(nibbles, '0')
	}
	b := make([]byte, 0, len(nibbles)/2)
	for k := 0; k+1 < len(nibbles); k += 2 {
		b = append(b, byte(hexVal(nibbles[k])<<4|hexVal(nibbles[k+1])))
	}
	return decodeBytes(b), i
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

// decodeBytes interprets string bytes as UTF-16BE when BOM-prefixed,
// otherwise as Latin-1.
func decodeBytes(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		u := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(u))
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}
