package testutil

import "encoding/binary"

// GLB wraps a glTF JSON document, and an optional binary chunk, in a GLB
// container.
func GLB(doc string, bin []byte) []byte {
	total := 12 + 8 + len(doc)
	if bin != nil {
		total += 8 + len(bin)
	}
	out := make([]byte, 0, total)
	out = binary.LittleEndian.AppendUint32(out, 0x46546C67)
	out = binary.LittleEndian.AppendUint32(out, 2)
	out = binary.LittleEndian.AppendUint32(out, uint32(total))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(doc)))
	out = binary.LittleEndian.AppendUint32(out, 0x4E4F534A)
	out = append(out, doc...)
	if bin != nil {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(bin)))
		out = binary.LittleEndian.AppendUint32(out, 0x004E4942)
		out = append(out, bin...)
	}
	return out
}
