package dvar

import "strings"

// formatSignature translates the single complete type at the front of
// format — the nested format string between a '<' and its matching
// '>' — into the D-Bus signature text it denotes, returning the
// unconsumed remainder. A nested variant always contributes "v" to its
// enclosing signature regardless of what it itself contains, since the
// wire only ever records the generic variant code at that position.
func formatSignature(format string) (string, string, error) {
	if len(format) == 0 {
		return "", "", newError(KindNotRecoverable, "empty variant format")
	}

	switch c := format[0]; c {
	case 'y', 'b', 'n', 'q', 'i', 'u', 'x', 't', 'h', 'd', 's', 'o', 'g':
		return string(c), format[1:], nil

	case '[':
		elem, rest, err := formatSignature(format[1:])
		if err != nil {
			return "", "", err
		}
		if len(rest) == 0 || rest[0] != ']' {
			return "", "", newError(KindNotRecoverable, "unterminated array in variant format")
		}
		return "a" + elem, rest[1:], nil

	case '(':
		var sb strings.Builder
		sb.WriteByte('(')
		rest := format[1:]
		for len(rest) > 0 && rest[0] != ')' {
			var part string
			var err error
			part, rest, err = formatSignature(rest)
			if err != nil {
				return "", "", err
			}
			sb.WriteString(part)
		}
		if len(rest) == 0 {
			return "", "", newError(KindNotRecoverable, "unterminated struct in variant format")
		}
		sb.WriteByte(')')
		return sb.String(), rest[1:], nil

	case '{':
		key, rest, err := formatSignature(format[1:])
		if err != nil {
			return "", "", err
		}
		val, rest, err := formatSignature(rest)
		if err != nil {
			return "", "", err
		}
		if len(rest) == 0 || rest[0] != '}' {
			return "", "", newError(KindNotRecoverable, "unterminated dict-entry in variant format")
		}
		return "{" + key + val + "}", rest[1:], nil

	case '<':
		_, rest, err := formatSignature(format[1:])
		if err != nil {
			return "", "", err
		}
		if len(rest) == 0 || rest[0] != '>' {
			return "", "", newError(KindNotRecoverable, "unterminated variant in variant format")
		}
		return "v", rest[1:], nil

	default:
		return "", "", newError(KindNotRecoverable, "unknown format character '"+string(c)+"' in variant format")
	}
}
