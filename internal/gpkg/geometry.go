package gpkg

import (
	"encoding/binary"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// GeoPackage geometry blob header (GPB), per OGC GeoPackage §2.1.3:
//
//	magic   (2 bytes)  - 0x47 0x50 ("GP")
//	version (1 byte)   - 0 for version 1
//	flags   (1 byte)   - bit 0: header byte order (1 = little endian)
//	                     bits 1-3: envelope indicator
//	                     bit 4: empty geometry flag
//	                     bit 5: extended type flag
//	srs_id  (4 bytes)  - int32 in header byte order
//	envelope (0/32/48/48/64 bytes, per indicator)
//	payload  (variable) - standard WKB
const gpbMinHeaderLen = 8

// envelopeSize maps the 3-bit envelope indicator to the envelope byte count.
// Indicators 5-7 are invalid per the GeoPackage spec.
var envelopeSize = [8]int{0, 32, 48, 48, 64, -1, -1, -1}

// DecodeGeometry decodes a GeoPackage geometry blob into an orb geometry
// and the srs_id recorded in the header.
//
// An empty geometry (empty flag set) returns a nil geometry and no error.
func DecodeGeometry(blob []byte) (orb.Geometry, int32, error) {
	if len(blob) < gpbMinHeaderLen {
		return nil, 0, &ErrInvalidGeometryBlob{Reason: "truncated header"}
	}
	if blob[0] != 'G' || blob[1] != 'P' {
		return nil, 0, &ErrInvalidGeometryBlob{Reason: "bad magic"}
	}

	flags := blob[3]

	var order binary.ByteOrder = binary.BigEndian
	if flags&0x01 != 0 {
		order = binary.LittleEndian
	}
	srsID := int32(order.Uint32(blob[4:8]))

	envSize := envelopeSize[(flags>>1)&0x07]
	if envSize < 0 {
		return nil, srsID, &ErrInvalidGeometryBlob{Reason: "invalid envelope indicator"}
	}
	offset := gpbMinHeaderLen + envSize
	if len(blob) < offset {
		return nil, srsID, &ErrInvalidGeometryBlob{Reason: "truncated envelope"}
	}

	if flags&0x10 != 0 {
		// Empty geometry: header only, or header plus an empty WKB body.
		return nil, srsID, nil
	}

	g, err := wkb.Unmarshal(blob[offset:])
	if err != nil {
		return nil, srsID, &ErrInvalidGeometryBlob{Reason: err.Error()}
	}
	return g, srsID, nil
}
