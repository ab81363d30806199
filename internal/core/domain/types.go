// pcmdec/internal/core/domain/types.go
package domain

import (
    "fmt"
    "math"
)

// ContainerHeader is the decoded header of a .pcm container file.
type ContainerHeader struct {
    VideoID        string
    Start          int64
    End            int64 // overwritten with SourceFileSize once parsed
    SourceFileSize int64
    SegmentLengths []int64
    Warnings       []string
}

// Summary returns a one-line description of the header for logs.
func (h *ContainerHeader) Summary() string {
    return fmt.Sprintf("ContainerHeader{videoId=%q, fileSize=%d, segments=%d, segmentSizes=%v}",
        h.VideoID, h.SourceFileSize, len(h.SegmentLengths), h.SegmentLengths)
}

// EncryptedBytes is the sum of all positive segment lengths, saturating at
// math.MaxInt64.
func (h *ContainerHeader) EncryptedBytes() int64 {
    var total int64
    for _, n := range h.SegmentLengths {
        if n <= 0 {
            continue
        }
        if total > math.MaxInt64-n {
            return math.MaxInt64
        }
        total += n
    }
    return total
}

// Job is a single unit of work handed to the decryption pipeline.
type Job struct {
    InputPath  string
    OutputPath string
    VideoID    string
}

// Result describes one successfully decrypted file.
type Result struct {
    InputPath      string
    OutputPath     string
    VideoID        string
    Segments       int
    DecryptedBytes int64
    TailBytes      int64
}

// Written is the total number of bytes produced in the output.
func (r Result) Written() int64 {
    return r.DecryptedBytes + r.TailBytes
}
