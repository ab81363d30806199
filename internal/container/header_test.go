package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"pcmdec/internal/core/domain"
)

func TestParseScenarioHeader(t *testing.T) {
	h := &domain.ContainerHeader{
		VideoID:        "abc",
		SourceFileSize: 20,
		SegmentLengths: []int64{10},
	}
	data := Marshal(h, nil, nil)
	if len(data) != 66 {
		t.Fatalf("header length = %d, want 66", len(data))
	}

	got, err := ParseBytes(data)
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if got.VideoID != "abc" {
		t.Errorf("VideoID = %q, want abc", got.VideoID)
	}
	if got.SourceFileSize != 20 || got.End != 20 {
		t.Errorf("SourceFileSize = %d, End = %d, want 20/20", got.SourceFileSize, got.End)
	}
	if !reflect.DeepEqual(got.SegmentLengths, []int64{10}) {
		t.Errorf("SegmentLengths = %v", got.SegmentLengths)
	}
	if len(got.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", got.Warnings)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	data := Marshal(&domain.ContainerHeader{
		VideoID:        "video-42",
		Start:          7,
		End:            99,
		SourceFileSize: 4096,
		SegmentLengths: []int64{1024, 0, 2048},
	}, []byte("opaque"), []byte("tail bytes"))

	first, err := ParseBytes(data)
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	second, err := ParseBytes(data)
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("parses differ:\n%+v\n%+v", first, second)
	}
	if first.Start != 7 {
		t.Errorf("Start = %d, want 7", first.Start)
	}
	if first.End != 4096 {
		t.Errorf("End = %d, want SourceFileSize 4096", first.End)
	}
}

func TestParseLeavesReaderAtFirstSegment(t *testing.T) {
	header := Marshal(&domain.ContainerHeader{
		VideoID:        "abc",
		SourceFileSize: 4,
		SegmentLengths: []int64{4},
	}, []byte{9, 9}, []byte{7, 7, 7})
	data := append(header, []byte("DATA")...)

	r := bytes.NewReader(data)
	if _, err := Parse(r, int64(len(data))); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	rest := make([]byte, 4)
	if _, err := r.Read(rest); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(rest) != "DATA" {
		t.Errorf("reader positioned at %q, want DATA", rest)
	}
}

func TestParseNegativeSegmentLength(t *testing.T) {
	data := Marshal(&domain.ContainerHeader{
		VideoID:        "abc",
		SourceFileSize: 8,
		SegmentLengths: []int64{-5, 8, -1},
	}, nil, nil)

	h, err := ParseBytes(data)
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if !reflect.DeepEqual(h.SegmentLengths, []int64{0, 8, 0}) {
		t.Errorf("SegmentLengths = %v, want [0 8 0]", h.SegmentLengths)
	}
	if len(h.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", h.Warnings)
	}
}

func TestParseInvalid(t *testing.T) {
	valid := Marshal(&domain.ContainerHeader{
		VideoID:        "abc",
		SourceFileSize: 20,
		SegmentLengths: []int64{10},
	}, nil, nil)

	// offsets into the layout above
	const (
		idLenOffset   = PreambleSize
		unknownOffset = idLenOffset + 4 + 3
		countOffset   = unknownOffset + 4 + UnknownFieldPad + 24 + ReservedSize
		tailLenOffset = countOffset + 4 + 8
	)

	patch := func(offset int, v int32) []byte {
		out := append([]byte(nil), valid...)
		binary.BigEndian.PutUint32(out[offset:], uint32(v))
		return out
	}

	tests := []struct {
		name      string
		input     []byte
		wantField string
	}{
		{
			name:      "Empty file",
			input:     []byte{},
			wantField: "file",
		},
		{
			name:      "Shorter than preamble",
			input:     []byte{1, 2, 3},
			wantField: "preamble",
		},
		{
			name:      "Video id length larger than file",
			input:     patch(idLenOffset, 1<<20),
			wantField: "video id",
		},
		{
			name:      "Negative video id length",
			input:     patch(idLenOffset, -1),
			wantField: "video id",
		},
		{
			name:      "Empty video id",
			input:     Marshal(&domain.ContainerHeader{SegmentLengths: []int64{1}}, nil, nil),
			wantField: "video id",
		},
		{
			name:      "Unknown field overruns file",
			input:     patch(unknownOffset, 1000),
			wantField: "unknown field",
		},
		{
			name:      "Unknown field negative total",
			input:     patch(unknownOffset, -10),
			wantField: "unknown field",
		},
		{
			name:      "Zero segment count",
			input:     patch(countOffset, 0),
			wantField: "segment count",
		},
		{
			name:      "Negative segment count",
			input:     patch(countOffset, -3),
			wantField: "segment count",
		},
		{
			name:      "Segment count larger than file",
			input:     patch(countOffset, 1<<30),
			wantField: "segment lengths",
		},
		{
			name:      "Tail overruns file",
			input:     patch(tailLenOffset, 5),
			wantField: "tail",
		},
		{
			name:      "Negative tail length",
			input:     patch(tailLenOffset, -1),
			wantField: "tail",
		},
		{
			name:      "Truncated before tail length",
			input:     valid[:tailLenOffset+2],
			wantField: "tail length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes(tt.input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, domain.ErrFormat) {
				t.Errorf("expected ErrFormat, got %v", err)
			}
			var fe *domain.FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FormatError, got %T", err)
			}
			if fe.Field != tt.wantField {
				t.Errorf("Field = %q, want %q (%v)", fe.Field, tt.wantField, err)
			}
		})
	}
}

type onlyReader struct{ r *bytes.Reader }

func (o onlyReader) Read(p []byte) (int, error) { return o.r.Read(p) }

func TestParseWithoutSeeker(t *testing.T) {
	data := Marshal(&domain.ContainerHeader{
		VideoID:        "no-seek",
		SourceFileSize: 1,
		SegmentLengths: []int64{8},
	}, []byte("skip me"), []byte("tail"))

	h, err := Parse(onlyReader{bytes.NewReader(data)}, int64(len(data)))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if h.VideoID != "no-seek" {
		t.Errorf("VideoID = %q", h.VideoID)
	}
}

func TestParseDeclaredSizeBeyondData(t *testing.T) {
	data := Marshal(&domain.ContainerHeader{
		VideoID:        "abc",
		SourceFileSize: 1,
		SegmentLengths: []int64{8},
	}, nil, nil)

	// a size larger than the stream makes the reader run dry mid-field
	_, err := Parse(onlyReader{bytes.NewReader(data[:20])}, int64(len(data)))
	if !errors.Is(err, domain.ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
}
