package encode

import (
	"encoding/binary"

	. "github.com/weberc2/mono/jfs/pkg/types"
)

func putIno(b []byte, start Byte, ino Ino) {
	putU32(b, start, uint32(ino))
}

func getIno(b []byte, start Byte) Ino {
	return Ino(getU32(b, start))
}

func putBlock(b []byte, start Byte, block Block) {
	putU32(b, start, uint32(block))
}

func getBlock(b []byte, start Byte) Block {
	return Block(getU32(b, start))
}

func putU32(b []byte, start Byte, u uint32) {
	binary.BigEndian.PutUint32(b[start:start+4], u)
}

func getU32(b []byte, start Byte) uint32 {
	return binary.BigEndian.Uint32(b[start : start+4])
}

// putU24 writes the low 24 bits of `u` as a high byte followed by a 16-bit
// word.
func putU24(b []byte, start Byte, u uint32) {
	putU8(b, start, uint8(u>>16))
	putU16(b, start+1, uint16(u))
}

func getU24(b []byte, start Byte) uint32 {
	return uint32(getU8(b, start))<<16 | uint32(getU16(b, start+1))
}

func putU16(b []byte, start Byte, u uint16) {
	binary.BigEndian.PutUint16(b[start:start+2], u)
}

func getU16(b []byte, start Byte) uint16 {
	return binary.BigEndian.Uint16(b[start : start+2])
}

func putU8(b []byte, start Byte, u uint8) {
	b[start] = u
}

func getU8(b []byte, start Byte) uint8 {
	return b[start]
}
