package gpkg

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

func encodeBlob(t *testing.T, g orb.Geometry, srsID int32, flags byte, envelope []byte) []byte {
	t.Helper()
	payload, err := wkb.Marshal(g, binary.LittleEndian)
	if err != nil {
		t.Fatalf("marshal wkb: %v", err)
	}
	header := make([]byte, 8)
	header[0] = 'G'
	header[1] = 'P'
	header[2] = 0
	header[3] = flags
	binary.LittleEndian.PutUint32(header[4:], uint32(srsID))
	blob := append(header, envelope...)
	return append(blob, payload...)
}

func TestDecodeGeometryPoint(t *testing.T) {
	want := orb.Point{10.5, 59.9}
	blob := encodeBlob(t, want, 4326, 0x01, nil)

	g, srsID, err := DecodeGeometry(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if srsID != 4326 {
		t.Errorf("srs_id = %d, want 4326", srsID)
	}
	got, ok := g.(orb.Point)
	if !ok {
		t.Fatalf("geometry type = %T, want orb.Point", g)
	}
	if got != want {
		t.Errorf("point = %v, want %v", got, want)
	}
}

func TestDecodeGeometryWithEnvelope(t *testing.T) {
	// Envelope indicator 1: 32 bytes of min/max x/y.
	env := make([]byte, 32)
	for i, v := range []float64{1, 2, 3, 4} {
		binary.LittleEndian.PutUint64(env[i*8:], math.Float64bits(v))
	}
	line := orb.LineString{{1, 3}, {2, 4}}
	blob := encodeBlob(t, line, 25833, 0x01|(1<<1), env)

	g, srsID, err := DecodeGeometry(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if srsID != 25833 {
		t.Errorf("srs_id = %d, want 25833", srsID)
	}
	if _, ok := g.(orb.LineString); !ok {
		t.Fatalf("geometry type = %T, want orb.LineString", g)
	}
}

func TestDecodeGeometryEmptyFlag(t *testing.T) {
	blob := encodeBlob(t, orb.Point{}, 4326, 0x01|0x10, nil)
	g, _, err := DecodeGeometry(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if g != nil {
		t.Errorf("empty geometry = %v, want nil", g)
	}
}

func TestDecodeGeometryBadBlobs(t *testing.T) {
	cases := []struct {
		name string
		blob []byte
	}{
		{"nil", nil},
		{"truncated header", []byte{'G', 'P', 0}},
		{"bad magic", []byte{'X', 'Y', 0, 0x01, 0, 0, 0, 0}},
		{"invalid envelope indicator", []byte{'G', 'P', 0, 0x01 | (5 << 1), 0, 0, 0, 0}},
		{"truncated envelope", []byte{'G', 'P', 0, 0x01 | (1 << 1), 0, 0, 0, 0, 1, 2}},
		{"garbage wkb", []byte{'G', 'P', 0, 0x01, 0, 0, 0, 0, 0xff, 0xff}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := DecodeGeometry(tc.blob)
			var blobErr *ErrInvalidGeometryBlob
			if !errors.As(err, &blobErr) {
				t.Errorf("err = %v, want *ErrInvalidGeometryBlob", err)
			}
		})
	}
}
