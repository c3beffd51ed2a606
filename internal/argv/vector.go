package argv

import (
	"bytes"
	"strings"
)

// Vector is an argument vector. Its length is argc.
type Vector []string

// Argc returns the number of arguments.
func (v Vector) Argc() int {
	return len(v)
}

// Clone returns a copy that shares no backing storage with v.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Terminated returns the C view of the vector: Argc()+1 entries, each
// pointing at a NUL-terminated copy of the argument, the last one nil.
func (v Vector) Terminated() []*byte {
	out := make([]*byte, len(v)+1)
	for i, arg := range v {
		b := make([]byte, len(arg)+1)
		copy(b, arg)
		out[i] = &b[0]
	}
	return out
}

// String joins the arguments with single spaces.
func (v Vector) String() string {
	return strings.Join(v, " ")
}

// Split parses a NUL-separated command line buffer.
// An empty buffer yields an empty, non-nil vector.
func Split(buf []byte) Vector {
	n := 0
	for p := 0; p < len(buf); n++ {
		p += argLen(buf[p:]) + 1
	}

	v := make(Vector, 0, n)
	for p := 0; p < len(buf); {
		end := argLen(buf[p:])
		v = append(v, string(buf[p:p+end]))
		p += end + 1
	}

	return v
}

// argLen returns the length of the argument starting at buf[0]. The end of
// the buffer terminates an argument that has no trailing NUL.
func argLen(buf []byte) int {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return i
	}
	return len(buf)
}
