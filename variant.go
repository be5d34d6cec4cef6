package dvar

// maxDepth is declared in types.go; frames holds one more slot than
// maxDepth for the root.

// frame is one entry on a Dvar's container stack: the window into the
// descriptor array this level is reading/writing against, plus the
// bookkeeping a reader or writer needs to pop back out cleanly.
type frame struct {
	parentTypes []Type
	iType       int
	container   byte // 0 (root), 'a', '(', '{', 'v'
	allocated   bool // this frame's parentTypes was compiled for a '<' on the wire, not borrowed from the caller

	// reader-only
	bound int // absolute offset ceiling while this frame (and its descendants) is active

	// shared by array frames, read and write
	arrayStart int // absolute offset where the array body begins

	// writer-only
	lenOffset int // absolute offset of the array's 4-byte length placeholder
}

// Dvar is the D-Bus variant engine: a single-threaded, sequential state
// machine pairing a compiled type with a byte buffer, driven one format
// character at a time. A *Dvar is not safe for concurrent use; disjoint
// Dvars need no synchronization between them.
type Dvar struct {
	data []byte // read: borrowed; write: owned, grown on demand
	pos  int    // absolute cursor, read or write

	ro        bool
	bigEndian bool
	active    bool

	rootTypes []Type

	poison error

	frames [maxDepth + 1]frame
	level  int
}

// New returns a freshly initialized Dvar, ready for BeginRead or
// BeginWrite.
func New() *Dvar {
	return &Dvar{}
}

// Reset returns d to its pristine, just-constructed state, discarding
// any in-progress session and its poison.
func (d *Dvar) Reset() {
	*d = Dvar{}
}

// Poison returns the sticky error latched by the first failing
// Read/Skip/Write call in the current session, or nil if none has
// occurred yet.
func (d *Dvar) Poison() error {
	return d.poison
}

// IsBigEndian reports the endianness chosen for the current session.
func (d *Dvar) IsBigEndian() bool {
	return d.bigEndian
}

// Data returns the session's buffer: the caller-supplied slice on a
// read session, or the buffer built so far on a write session. The
// returned slice aliases Dvar's internal storage and must not be
// retained past EndWrite.
func (d *Dvar) Data() []byte {
	return d.data
}

// RootTypes returns the descriptor array the session was started with.
func (d *Dvar) RootTypes() []Type {
	return d.rootTypes
}

// ParentTypes returns the type window of the currently open frame: the
// descriptors a format character at this depth is validated against.
func (d *Dvar) ParentTypes() []Type {
	return d.frames[d.level].parentTypes
}

// More reports whether the current frame has another complete type
// left to process: another root type, another field of an open
// struct/dict-entry, or (for an open array) another element's worth of
// bytes remaining.
func (d *Dvar) More() bool {
	if !d.active || d.poison != nil {
		return false
	}
	f := &d.frames[d.level]
	if f.container == 'a' {
		if !d.ro {
			return false
		}
		return d.pos < f.bound
	}
	return f.iType < len(f.parentTypes)
}

// BeginRead starts a read session over data against types. data need
// not be specially aligned: every multi-byte value is decoded through
// encoding/binary one byte at a time, so there is no hardware alignment
// hazard the way there is for a C implementation reading raw machine
// words off the pointer. See DESIGN.md for why this drops the
// original's buffer-alignment precondition entirely rather than
// promoting it to a returned error.
func (d *Dvar) BeginRead(bigEndian bool, types []Type, data []byte) error {
	if d.active {
		return newError(KindNotRecoverable, "BeginRead called on an active session")
	}
	d.data = data
	d.pos = 0
	d.ro = true
	d.bigEndian = bigEndian
	d.rootTypes = types
	d.poison = nil
	d.level = 0
	d.frames[0] = frame{parentTypes: types, bound: len(data)}
	d.active = true
	return nil
}

// BeginWrite starts a write session against types, with an empty
// buffer grown lazily as Write is called.
func (d *Dvar) BeginWrite(bigEndian bool, types []Type) error {
	if d.active {
		return newError(KindNotRecoverable, "BeginWrite called on an active session")
	}
	d.data = nil
	d.pos = 0
	d.ro = false
	d.bigEndian = bigEndian
	d.rootTypes = types
	d.poison = nil
	d.level = 0
	d.frames[0] = frame{parentTypes: types}
	d.active = true
	return nil
}

// EndRead requires the cursor to be back at the root frame with every
// root type consumed and no bytes left over, then resets the session to
// its pristine state, returning any poison latched along the way.
func (d *Dvar) EndRead() error {
	var result error
	if d.poison != nil {
		result = d.poison
	} else if !d.active {
		result = newError(KindNotRecoverable, "EndRead called without an active session")
	} else if d.level != 0 {
		result = newError(KindNotRecoverable, "EndRead called with containers still open")
	} else if d.frames[0].iType != len(d.rootTypes) {
		result = newError(KindNotRecoverable, "EndRead called before all root types were read")
	} else if d.pos != len(d.data) {
		result = newError(KindCorruptData, "trailing bytes after all root types were read")
	}
	d.Reset()
	return result
}

// EndWrite requires the cursor to be back at the root frame with every
// root type written, then hands the finished buffer to the caller and
// resets the session. On failure the partial buffer is discarded.
func (d *Dvar) EndWrite() ([]byte, error) {
	if d.poison != nil {
		err := d.poison
		d.Reset()
		return nil, err
	}
	if !d.active {
		d.Reset()
		return nil, newError(KindNotRecoverable, "EndWrite called without an active session")
	}
	if d.level != 0 {
		d.Reset()
		return nil, newError(KindNotRecoverable, "EndWrite called with containers still open")
	}
	if d.frames[0].iType != len(d.rootTypes) {
		d.Reset()
		return nil, newError(KindNotRecoverable, "EndWrite called before all root types were written")
	}
	buf := d.data
	d.Reset()
	return buf, nil
}

// poisonAnd latches err (if non-nil and not already latched) and
// returns it, so call sites can write "return d.poisonAnd(err)".
func (d *Dvar) poisonAnd(err error) error {
	if err != nil && d.poison == nil {
		d.poison = err
	}
	return err
}

// advance accounts for a terminal type (a basic value, a variant, or a
// just-closed container) completing at the current frame: if the frame
// is not an array, move its type cursor past the terminal so the next
// format character is checked against the following sibling. Arrays
// never advance — they repeat the same element type for every value.
func (d *Dvar) advance(length int) {
	f := &d.frames[d.level]
	if f.container != 'a' {
		f.iType += length
	}
}

// pushContainer enters a struct or dict-entry at the descriptor
// currently under the cursor: its window is the interior descriptors,
// excluding both the opening and closing bracket.
func (d *Dvar) pushContainer(element byte) {
	f := &d.frames[d.level]
	desc := f.parentTypes[f.iType]
	children := f.parentTypes[f.iType+1 : f.iType+int(desc.Length)-1]
	d.level++
	d.frames[d.level] = frame{parentTypes: children, container: element, bound: f.bound}
}

// arrayElementTypes returns the window of a single element type for
// the array descriptor currently under the cursor. Reader and writer
// each push their own array frame from this window, since read and
// write track different bookkeeping (bound vs. length placeholder).
func (d *Dvar) arrayElementTypes() []Type {
	f := &d.frames[d.level]
	desc := f.parentTypes[f.iType]
	return f.parentTypes[f.iType+1 : f.iType+int(desc.Length)]
}

// popContainer leaves the current frame and advances the parent's
// cursor past the terminal (the container descriptor itself) that just
// closed.
func (d *Dvar) popContainer() {
	d.level--
	parent := &d.frames[d.level]
	term := parent.parentTypes[parent.iType]
	d.advance(int(term.Length))
}
