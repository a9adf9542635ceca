package engine

import "strings"

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites model script source into something zygomys
// reads:
//
//   - :keyword becomes the string "__kw_keyword", so keywords never clash
//     with user variables of the same name;
//   - kebab-case identifiers become snake_case (box-cutter -> box_cutter),
//     since zygomys reads a hyphen as subtraction;
//   - ; line comments become // comments.
//
// String literals ("..." and `...`) pass through untouched.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/4)
	b := []byte(source)

	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == '"' || c == '`':
			i = copyLiteral(&out, b, i)
		case c == ';':
			i = convertComment(&out, b, i)
		case c == ':' && i+1 < len(b) && b[i+1] == '=':
			out.WriteString(":=")
			i += 2
		case c == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out.WriteString(`"` + kwPrefix + string(b[i+1:j]) + `"`)
			i = j
		case c == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out.WriteByte('_')
			i++
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// copyLiteral copies the string literal starting at b[i] and returns the
// index after it. Backslash escapes apply inside double quotes only.
func copyLiteral(out *strings.Builder, b []byte, i int) int {
	quote := b[i]
	out.WriteByte(quote)
	i++
	for i < len(b) && b[i] != quote {
		if quote == '"' && b[i] == '\\' && i+1 < len(b) {
			out.Write(b[i : i+2])
			i += 2
			continue
		}
		out.WriteByte(b[i])
		i++
	}
	if i < len(b) {
		out.WriteByte(quote)
		i++
	}
	return i
}

// convertComment rewrites a run of ; as // and copies the rest of the line.
func convertComment(out *strings.Builder, b []byte, i int) int {
	out.WriteString("//")
	for i < len(b) && b[i] == ';' {
		i++
	}
	for i < len(b) && b[i] != '\n' {
		out.WriteByte(b[i])
		i++
	}
	return i
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}
