package media

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrNoDuration is returned when no movie header is found.
var ErrNoDuration = errors.New("media: no movie header")

// ProbeDuration reads the duration in seconds from the movie header
// (moov/mvhd) of an ISO base media file such as MP4 or QuickTime.
func ProbeDuration(r io.ReadSeeker) (float64, error) {
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	moov, err := findBox(r, 0, end, "moov")
	if err != nil {
		return 0, err
	}
	mvhd, err := findBox(r, moov.body, moov.end, "mvhd")
	if err != nil {
		return 0, err
	}
	if _, err := r.Seek(mvhd.body, io.SeekStart); err != nil {
		return 0, err
	}

	var version [4]byte // version + 24-bit flags
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return 0, err
	}
	var timescale uint32
	var duration uint64
	if version[0] == 1 {
		var hdr struct {
			Created, Modified uint64
			Timescale         uint32
			Duration          uint64
		}
		if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
			return 0, err
		}
		timescale, duration = hdr.Timescale, hdr.Duration
	} else {
		var hdr struct {
			Created, Modified uint32
			Timescale         uint32
			Duration          uint32
		}
		if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
			return 0, err
		}
		timescale, duration = hdr.Timescale, uint64(hdr.Duration)
	}
	if timescale == 0 {
		return 0, ErrNoDuration
	}
	return float64(duration) / float64(timescale), nil
}

type box struct {
	body int64 // offset of the first byte after the header
	end  int64 // offset one past the last byte
}

// findBox scans sibling boxes in [start, limit) for the first of type typ.
func findBox(r io.ReadSeeker, start, limit int64, typ string) (box, error) {
	off := start
	for off+8 <= limit {
		if _, err := r.Seek(off, io.SeekStart); err != nil {
			return box{}, err
		}
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return box{}, err
		}
		size := int64(binary.BigEndian.Uint32(hdr[:4]))
		headerLen := int64(8)
		switch size {
		case 0:
			size = limit - off
		case 1:
			var large [8]byte
			if _, err := io.ReadFull(r, large[:]); err != nil {
				return box{}, err
			}
			size = int64(binary.BigEndian.Uint64(large[:]))
			headerLen = 16
		}
		if size < headerLen || off+size > limit {
			return box{}, ErrNoDuration
		}
		if string(hdr[4:8]) == typ {
			return box{body: off + headerLen, end: off + size}, nil
		}
		off += size
	}
	return box{}, ErrNoDuration
}
