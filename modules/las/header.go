// Package las provides the builtin LAS reader and writer. The codec covers
// uncompressed LAS 1.2 point formats 0 and 1, which is the common ground
// of the fixture data the engine works with; compressed LAZ input is
// rejected up front.
package las

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	headerSize         = 227
	formatXYZ          = 0
	formatXYZTime      = 1
	recordLenXYZ       = 20
	recordLenXYZTime   = 28
	defaultScale       = 0.0001
	signature          = "LASF"
	versionMajor  byte = 1
	versionMinor  byte = 2
)

// header is the fixed LAS 1.2 public header block.
type header struct {
	Signature        [4]byte
	FileSourceID     uint16
	GlobalEncoding   uint16
	GUID             [16]byte
	VersionMajor     byte
	VersionMinor     byte
	SystemID         [32]byte
	Software         [32]byte
	CreationDay      uint16
	CreationYear     uint16
	HeaderSize       uint16
	PointOffset      uint32
	VLRCount         uint32
	PointFormat      byte
	RecordLength     uint16
	PointCount       uint32
	PointsByReturn   [5]uint32
	ScaleX, ScaleY   float64
	ScaleZ           float64
	OffsetX, OffsetY float64
	OffsetZ          float64
	MaxX, MinX       float64
	MaxY, MinY       float64
	MaxZ, MinZ       float64
}

func readHeader(r io.Reader) (*header, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("failed to read LAS header: %w", err)
	}
	if string(h.Signature[:]) != signature {
		return nil, fmt.Errorf("not a LAS file: bad signature %q", h.Signature)
	}
	if h.PointFormat != formatXYZ && h.PointFormat != formatXYZTime {
		return nil, fmt.Errorf("unsupported LAS point format %d", h.PointFormat)
	}
	return &h, nil
}

func (h *header) write(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, h)
}

// record0 is a point data record, format 0. Format 1 appends GpsTime.
type record0 struct {
	X, Y, Z        int32
	Intensity      uint16
	Flags          byte
	Classification byte
	ScanAngle      int8
	UserData       byte
	PointSourceID  uint16
}
