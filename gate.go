package dvar

// realElement maps a format character to the element code it must
// agree with: the open/close pairs collapse to the container code they
// open, everything else stands for itself.
func realElement(c byte) byte {
	switch c {
	case '[', ']':
		return 'a'
	case '<', '>':
		return 'v'
	case ')':
		return '('
	case '}':
		return '{'
	default:
		return c
	}
}

// gate checks format character c against the current frame and type
// position before Read/Skip/Write dispatch on it, per the
// format-vs-type gate: closing forms must match the open container and
// (array excepted) leave no type behind at this level; bare 'a'/'v' are
// rejected since callers must spell out '['/'<'; opening forms must
// additionally stay within the depth limit; everything else must match
// the descriptor at the cursor.
func (d *Dvar) gate(c byte) error {
	real := realElement(c)
	f := &d.frames[d.level]

	switch c {
	case ']', '>', ')', '}':
		if f.container != real {
			return newError(KindNotRecoverable, "format character does not match the open container")
		}
		if c != ']' && f.iType != len(f.parentTypes) {
			return newError(KindNotRecoverable, "container closed with types still unread")
		}
		return nil

	case 'a', 'v':
		return newError(KindNotRecoverable, "bare container code in format string")

	case '[', '<', '(', '{':
		if d.level >= maxDepth {
			return newError(KindDepthOverflow, "container depth exceeds limit")
		}
		if f.iType >= len(f.parentTypes) || f.parentTypes[f.iType].Element != real {
			return newError(KindNotRecoverable, "format character does not match type")
		}
		return nil

	default:
		if f.iType >= len(f.parentTypes) || f.parentTypes[f.iType].Element != real {
			return newError(KindNotRecoverable, "format character does not match type")
		}
		return nil
	}
}
