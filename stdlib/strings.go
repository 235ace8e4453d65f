package stdlib

import (
	"regexp"
	"strings"

	"github.com/nuavm/nua/object"
)

// StringLibrary returns a new "string" library table. Strings index into
// this table, so s:upper() calls string.upper(s).
func StringLibrary() *object.Table {
	return object.NewTableFromMap(map[string]object.Value{
		"byte":    object.NewNativeFunction("byte", Byte),
		"char":    object.NewNativeFunction("char", Char),
		"gsub":    object.NewNativeFunction("gsub", GSub),
		"len":     object.NewNativeFunction("len", Len),
		"lower":   object.NewNativeFunction("lower", Lower),
		"rep":     object.NewNativeFunction("rep", Rep),
		"reverse": object.NewNativeFunction("reverse", Reverse),
		"sub":     object.NewNativeFunction("sub", Sub),
		"upper":   object.NewNativeFunction("upper", Upper),
	})
}

// bounds converts the 1-based, possibly negative, inclusive positions i and
// j into a byte range of a string of length n.
func bounds(i, j, n int) (int, int) {
	if i < 0 {
		i = n + i + 1
	}
	if i < 1 {
		i = 1
	}
	if j < 0 {
		j = n + j + 1
	}
	if j > n {
		j = n
	}
	return i, j
}

func Sub(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	s, err := checkString(args, 0, "sub")
	if err != nil {
		return nil, err
	}
	i, err := checkInt(args, 1, "sub")
	if err != nil {
		return nil, err
	}
	j, err := optInt(args, 2, "sub", -1)
	if err != nil {
		return nil, err
	}
	i, j = bounds(i, j, len(s))
	if i > j {
		return []object.Value{object.String("")}, nil
	}
	return []object.Value{object.String(s[i-1 : j])}, nil
}

func Byte(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	s, err := checkString(args, 0, "byte")
	if err != nil {
		return nil, err
	}
	i, err := optInt(args, 1, "byte", 1)
	if err != nil {
		return nil, err
	}
	j, err := optInt(args, 2, "byte", i)
	if err != nil {
		return nil, err
	}
	i, j = bounds(i, j, len(s))
	var results []object.Value
	for k := i; k <= j; k++ {
		results = append(results, object.Number(s[k-1]))
	}
	return results, nil
}

func Char(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	buf := make([]byte, len(args))
	for i := range args {
		c, err := checkInt(args, i, "char")
		if err != nil {
			return nil, err
		}
		if c < 0 || c > 255 {
			return nil, argError(i+1, "char", "value out of range")
		}
		buf[i] = byte(c)
	}
	return []object.Value{object.String(buf)}, nil
}

const maxRepSize = 1 << 28

func Rep(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	s, err := checkString(args, 0, "rep")
	if err != nil {
		return nil, err
	}
	n, err := checkInt(args, 1, "rep")
	if err != nil {
		return nil, err
	}
	sep := ""
	if !object.IsNil(arg(args, 2)) {
		if sep, err = checkString(args, 2, "rep"); err != nil {
			return nil, err
		}
	}
	if n <= 0 || len(s)+len(sep) == 0 {
		return []object.Value{object.String("")}, nil
	}
	if n > maxRepSize/(len(s)+len(sep)) {
		return nil, object.Errorf("resulting string too large")
	}
	if sep == "" {
		return []object.Value{object.String(strings.Repeat(s, n))}, nil
	}
	var b strings.Builder
	b.Grow(n*(len(s)+len(sep)) - len(sep))
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(s)
	}
	return []object.Value{object.String(b.String())}, nil
}

func Len(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	s, err := checkString(args, 0, "len")
	if err != nil {
		return nil, err
	}
	return []object.Value{object.Number(len(s))}, nil
}

func Upper(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	s, err := checkString(args, 0, "upper")
	if err != nil {
		return nil, err
	}
	return []object.Value{object.String(mapASCII(s, 'a', 'z', 'A'-'a'))}, nil
}

func Lower(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	s, err := checkString(args, 0, "lower")
	if err != nil {
		return nil, err
	}
	return []object.Value{object.String(mapASCII(s, 'A', 'Z', 'a'-'A'))}, nil
}

// mapASCII shifts the bytes in [lo, hi] by delta. Other bytes, including
// those of multi-byte sequences, are left alone.
func mapASCII(s string, lo, hi byte, delta int) string {
	buf := []byte(s)
	for i, c := range buf {
		if c >= lo && c <= hi {
			buf[i] = byte(int(c) + delta)
		}
	}
	return string(buf)
}

func Reverse(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	s, err := checkString(args, 0, "reverse")
	if err != nil {
		return nil, err
	}
	buf := []byte(s)
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return []object.Value{object.String(buf)}, nil
}

// GSub replaces the matches of a regular expression. The replacement may be
// a string (with %0-%9 referring to captures and %% to a percent sign), a
// table looked up by the first capture, or a function called with the
// captures. A nil or false lookup result keeps the match. GSub returns the
// new string and the number of matches.
func GSub(ctx object.CallContext, args []object.Value) ([]object.Value, error) {
	s, err := checkString(args, 0, "gsub")
	if err != nil {
		return nil, err
	}
	pattern, err := checkString(args, 1, "gsub")
	if err != nil {
		return nil, err
	}
	re, compileErr := regexp.Compile(pattern)
	if compileErr != nil {
		return nil, argError(2, "gsub", "invalid pattern")
	}
	repl := arg(args, 2)
	switch repl.(type) {
	case object.String, object.Number, *object.Table, *object.Function:
	default:
		return nil, expected(args, 2, "gsub", "string/function/table")
	}
	limit, err := optInt(args, 3, "gsub", -1)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	last := 0
	matches := re.FindAllStringSubmatchIndex(s, limit)
	for _, m := range matches {
		captures := make([]object.Value, 0, len(m)/2)
		for k := 0; k < len(m); k += 2 {
			if m[k] < 0 {
				captures = append(captures, object.String(""))
				continue
			}
			captures = append(captures, object.String(s[m[k]:m[k+1]]))
		}
		replacement, err := replace(ctx, repl, captures)
		if err != nil {
			return nil, err
		}
		sb.WriteString(s[last:m[0]])
		sb.WriteString(replacement)
		last = m[1]
	}
	sb.WriteString(s[last:])
	return []object.Value{object.String(sb.String()), object.Number(len(matches))}, nil
}

// replace computes the replacement text for one match. captures[0] is the
// whole match.
func replace(ctx object.CallContext, repl object.Value, captures []object.Value) (string, error) {
	whole := string(captures[0].(object.String))
	key := captures[0]
	if len(captures) > 1 {
		key = captures[1]
	}
	var result object.Value
	switch r := repl.(type) {
	case *object.Table:
		v, err := r.Get(ctx, key)
		if err != nil {
			return "", err
		}
		result = v
	case *object.Function:
		callArgs := captures[:1]
		if len(captures) > 1 {
			callArgs = captures[1:]
		}
		results, err := ctx.Call(r, callArgs...)
		if err != nil {
			return "", err
		}
		result = arg(results, 0)
	default:
		template, _ := object.ToString(r)
		return expand(string(template), captures)
	}
	if !object.IsTruthy(result) {
		return whole, nil
	}
	s, ok := object.ToString(result)
	if !ok {
		return "", object.Errorf("invalid replacement value (a %s)", object.TypeOf(result))
	}
	return string(s), nil
}

func expand(template string, captures []object.Value) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '%' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(template) {
			return "", object.Errorf("invalid use of '%%' in replacement string")
		}
		c = template[i]
		switch {
		case c == '%':
			sb.WriteByte('%')
		case c >= '0' && c <= '9':
			n := int(c - '0')
			if n >= len(captures) {
				return "", object.Errorf("invalid capture index %%%d", n)
			}
			sb.WriteString(string(captures[n].(object.String)))
		default:
			return "", object.Errorf("invalid use of '%%' in replacement string")
		}
	}
	return sb.String(), nil
}
