package ifc

import "github.com/google/uuid"

const guidChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_$"

// NewGlobalID returns a fresh 22-character IFC GlobalId.
func NewGlobalID() string {
	return CompressGUID(uuid.New())
}

// CompressGUID encodes a UUID in the 22-character base-64 form IFC uses
// for GlobalId: the first byte as two characters, then five groups of
// three bytes as four characters each.
func CompressGUID(u uuid.UUID) string {
	out := make([]byte, 0, 22)
	out = appendBase64(out, uint32(u[0]), 2)
	for i := 1; i < 16; i += 3 {
		v := uint32(u[i])<<16 | uint32(u[i+1])<<8 | uint32(u[i+2])
		out = appendBase64(out, v, 4)
	}
	return string(out)
}

func appendBase64(out []byte, v uint32, n int) []byte {
	buf := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		buf[i] = guidChars[v%64]
		v /= 64
	}
	return append(out, buf...)
}
