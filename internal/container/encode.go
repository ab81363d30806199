package container

import (
	"bytes"
	"encoding/binary"

	"pcmdec/internal/core/domain"
)

// Marshal writes h in container header layout. The preamble, the unknown
// field pad and the reserved bytes are zero filled. It produces fixtures and
// does not validate h.
func Marshal(h *domain.ContainerHeader, unknown, tail []byte) []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, PreambleSize))

	writeInt32(&buf, int32(len(h.VideoID)))
	buf.WriteString(h.VideoID)

	writeInt32(&buf, int32(len(unknown)))
	buf.Write(unknown)
	buf.Write(make([]byte, UnknownFieldPad))

	writeInt64(&buf, h.Start)
	writeInt64(&buf, h.End)
	writeInt64(&buf, h.SourceFileSize)
	buf.Write(make([]byte, ReservedSize))

	writeInt32(&buf, int32(len(h.SegmentLengths)))
	for _, n := range h.SegmentLengths {
		writeInt64(&buf, n)
	}

	writeInt32(&buf, int32(len(tail)))
	buf.Write(tail)
	return buf.Bytes()
}

func writeInt32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func writeInt64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}
