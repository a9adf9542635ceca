package step

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteTo writes the complete exchange structure.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	h := f.Header
	desc := make([]any, len(h.Description))
	for i, d := range h.Description {
		desc[i] = d
	}
	fmt.Fprintln(bw, "ISO-10303-21;")
	fmt.Fprintln(bw, "HEADER;")
	fmt.Fprintf(bw, "FILE_DESCRIPTION(%s,'2;1');\n", Format(desc))
	fmt.Fprintf(bw, "FILE_NAME(%s,%s,(%s),(%s),%s,%s,'');\n",
		Format(h.Name), Format(h.TimeStamp.Format("2006-01-02T15:04:05")),
		Format(h.Author), Format(h.Organization),
		Format(h.Preprocessor), Format(h.Originating))
	fmt.Fprintf(bw, "FILE_SCHEMA((%s));\n", Format(h.Schema))
	fmt.Fprintln(bw, "ENDSEC;")
	fmt.Fprintln(bw, "DATA;")
	for _, r := range f.records {
		fmt.Fprintf(bw, "%s=%s(%s);\n", r.id, r.entity, formatArgs(r.args))
	}
	fmt.Fprintln(bw, "ENDSEC;")
	fmt.Fprintln(bw, "END-ISO-10303-21;")

	if err := bw.Flush(); err != nil {
		return cw.n, fmt.Errorf("step: write: %w", err)
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func formatArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = Format(a)
	}
	return strings.Join(parts, ",")
}

// Format encodes one attribute value:
//
//	nil, null Handle    $
//	Handle              #n
//	string              'text' with quotes doubled, non-ASCII as \X2\...\X0\
//	float64             real, always with a decimal point
//	int                 integer
//	bool                .T. / .F.
//	Enum                .VALUE.
//	Typed               TYPE(value)
//	Derived             *
//	slices              (a,b,...)
func Format(v any) string {
	switch v := v.(type) {
	case nil:
		return "$"
	case Handle:
		return v.String()
	case string:
		return quote(v)
	case float64:
		return formatReal(v)
	case int:
		return strconv.Itoa(v)
	case bool:
		if v {
			return ".T."
		}
		return ".F."
	case Enum:
		return "." + string(v) + "."
	case Typed:
		return v.Type + "(" + Format(v.Value) + ")"
	case Derived:
		return "*"
	case []any:
		return "(" + formatArgs(v) + ")"
	case []Handle:
		parts := make([]string, len(v))
		for i, h := range v {
			parts[i] = h.String()
		}
		return "(" + strings.Join(parts, ",") + ")"
	case []float64:
		parts := make([]string, len(v))
		for i, f := range v {
			parts[i] = formatReal(f)
		}
		return "(" + strings.Join(parts, ",") + ")"
	case []string:
		parts := make([]string, len(v))
		for i, s := range v {
			parts[i] = quote(s)
		}
		return "(" + strings.Join(parts, ",") + ")"
	}
	panic(fmt.Sprintf("step: cannot encode %T", v))
}

func formatReal(v float64) string {
	if v == 0 {
		return "0."
	}
	s := strconv.FormatFloat(v, 'G', 15, 64)
	if strings.ContainsRune(s, '.') {
		return s
	}
	if i := strings.IndexByte(s, 'E'); i >= 0 {
		return s[:i] + "." + s[i:]
	}
	return s + "."
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch {
		case r == '\'':
			b.WriteString("''")
		case r == '\\':
			b.WriteString(`\\`)
		case r < 0x20 || r > 0x7e:
			if r > 0xffff {
				fmt.Fprintf(&b, `\X4\%08X\X0\`, r)
			} else {
				fmt.Fprintf(&b, `\X2\%04X\X0\`, r)
			}
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
