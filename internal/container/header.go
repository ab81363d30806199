// Package container decodes the binary header of .pcm container files.
package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"pcmdec/internal/core/domain"
)

const (
	PreambleSize     = 7
	UnknownFieldPad  = 4
	ReservedSize     = 4
	segmentEntrySize = 8
)

// reader tracks the position within a source of known size so that every
// read and skip can be checked against the bytes that remain.
type reader struct {
	r    io.Reader
	pos  int64
	size int64
}

func (r *reader) remaining() int64 {
	return r.size - r.pos
}

func (r *reader) require(field string, n int64) error {
	if n < 0 {
		return &domain.FormatError{Field: field, Offset: r.pos, Reason: fmt.Sprintf("invalid length %d", n)}
	}
	if n > r.remaining() {
		return &domain.FormatError{Field: field, Offset: r.pos, Need: n, Remaining: r.remaining()}
	}
	return nil
}

func (r *reader) skip(field string, n int64) error {
	if err := r.require(field, n); err != nil {
		return err
	}
	if s, ok := r.r.(io.Seeker); ok {
		if _, err := s.Seek(n, io.SeekCurrent); err != nil {
			return fmt.Errorf("%w: skip %s: %v", domain.ErrIO, field, err)
		}
	} else if _, err := io.CopyN(io.Discard, r.r, n); err != nil {
		return r.readErr(field, err)
	}
	r.pos += n
	return nil
}

func (r *reader) bytes(field string, n int64) ([]byte, error) {
	if err := r.require(field, n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, r.readErr(field, err)
	}
	r.pos += n
	return buf, nil
}

func (r *reader) int32(field string) (int32, error) {
	b, err := r.bytes(field, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (r *reader) int64(field string) (int64, error) {
	b, err := r.bytes(field, 8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// readErr reports a source that ended before its declared size.
func (r *reader) readErr(field string, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return &domain.FormatError{Field: field, Offset: r.pos, Reason: "unexpected end of input"}
	}
	return fmt.Errorf("%w: read %s: %v", domain.ErrIO, field, err)
}

// Parse decodes a container header from r, which must be positioned at the
// start of a source holding size bytes. On success r is positioned at the
// first encrypted segment.
func Parse(src io.Reader, size int64) (*domain.ContainerHeader, error) {
	if size <= 0 {
		return nil, &domain.FormatError{Field: "file", Offset: 0, Reason: "empty container"}
	}
	r := &reader{r: src, size: size}
	h := &domain.ContainerHeader{}

	if err := r.skip("preamble", PreambleSize); err != nil {
		return nil, err
	}

	idLen, err := r.int32("video id length")
	if err != nil {
		return nil, err
	}
	id, err := r.bytes("video id", int64(idLen))
	if err != nil {
		return nil, err
	}
	h.VideoID = strings.ToValidUTF8(string(id), "\uFFFD")
	if h.VideoID == "" {
		return nil, &domain.FormatError{Field: "video id", Offset: r.pos, Reason: "empty video id"}
	}

	unknownLen, err := r.int32("unknown field length")
	if err != nil {
		return nil, err
	}
	if err := r.skip("unknown field", int64(unknownLen)+UnknownFieldPad); err != nil {
		return nil, err
	}

	if h.Start, err = r.int64("start"); err != nil {
		return nil, err
	}
	if h.End, err = r.int64("end"); err != nil {
		return nil, err
	}
	if h.SourceFileSize, err = r.int64("source file size"); err != nil {
		return nil, err
	}
	h.End = h.SourceFileSize

	if err := r.skip("reserved", ReservedSize); err != nil {
		return nil, err
	}

	count, err := r.int32("segment count")
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, &domain.FormatError{Field: "segment count", Offset: r.pos - 4, Reason: fmt.Sprintf("invalid segment count %d", count)}
	}
	if err := r.require("segment lengths", int64(count)*segmentEntrySize); err != nil {
		return nil, err
	}

	h.SegmentLengths = make([]int64, count)
	for i := range h.SegmentLengths {
		n, err := r.int64(fmt.Sprintf("segment length %d", i))
		if err != nil {
			return nil, err
		}
		if n < 0 {
			h.Warnings = append(h.Warnings, fmt.Sprintf("segment %d has negative length %d, treated as 0", i, n))
			n = 0
		}
		h.SegmentLengths[i] = n
	}

	tailLen, err := r.int32("tail length")
	if err != nil {
		return nil, err
	}
	if err := r.skip("tail", int64(tailLen)); err != nil {
		return nil, err
	}

	return h, nil
}

// ParseBytes decodes a header held entirely in memory.
func ParseBytes(data []byte) (*domain.ContainerHeader, error) {
	return Parse(bytes.NewReader(data), int64(len(data)))
}
