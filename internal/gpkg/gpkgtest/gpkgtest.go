// Package gpkgtest builds small GeoPackage files for tests.
//
// Fixtures are created through the real sqlite driver so reader tests
// exercise the same code path as production. Only the GeoPackage system
// tables needed by the profiler are created.
package gpkgtest

import (
	"database/sql"
	"encoding/binary"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	_ "modernc.org/sqlite"
)

// Builder creates one GeoPackage fixture file.
type Builder struct {
	tb   testing.TB
	db   *sql.DB
	Path string
}

// New creates the fixture database with empty GeoPackage system tables.
func New(tb testing.TB, path string) *Builder {
	tb.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		tb.Fatalf("open fixture db: %v", err)
	}

	b := &Builder{tb: tb, db: db, Path: path}
	b.Exec(`CREATE TABLE gpkg_spatial_ref_sys (
		srs_name TEXT NOT NULL,
		srs_id INTEGER PRIMARY KEY,
		organization TEXT NOT NULL,
		organization_coordsys_id INTEGER NOT NULL,
		definition TEXT NOT NULL
	)`)
	b.Exec(`CREATE TABLE gpkg_contents (
		table_name TEXT PRIMARY KEY,
		data_type TEXT NOT NULL,
		identifier TEXT,
		description TEXT,
		srs_id INTEGER
	)`)
	b.Exec(`CREATE TABLE gpkg_geometry_columns (
		table_name TEXT PRIMARY KEY,
		column_name TEXT NOT NULL,
		geometry_type_name TEXT NOT NULL,
		srs_id INTEGER NOT NULL,
		z TINYINT NOT NULL DEFAULT 0,
		m TINYINT NOT NULL DEFAULT 0
	)`)
	b.AddSRS(4326, "WGS 84")
	return b
}

// Close closes the underlying database handle.
func (b *Builder) Close() {
	if err := b.db.Close(); err != nil {
		b.tb.Fatalf("close fixture db: %v", err)
	}
}

// Exec runs one statement, failing the test on error.
func (b *Builder) Exec(query string, args ...any) {
	b.tb.Helper()
	if _, err := b.db.Exec(query, args...); err != nil {
		b.tb.Fatalf("fixture exec %q: %v", query, err)
	}
}

// AddSRS registers a spatial reference system id.
func (b *Builder) AddSRS(id int, name string) {
	b.Exec(`INSERT OR IGNORE INTO gpkg_spatial_ref_sys VALUES (?, ?, 'EPSG', ?, '')`,
		name, id, id)
}

// RegisterAttributes registers an attribute-only layer in gpkg_contents.
func (b *Builder) RegisterAttributes(table string) {
	b.Exec(`INSERT INTO gpkg_contents (table_name, data_type) VALUES (?, 'attributes')`, table)
}

// RegisterFeatures registers a spatial layer with its geometry column.
func (b *Builder) RegisterFeatures(table, geomColumn, geomType string, srsID int) {
	b.AddSRS(srsID, "fixture srs")
	b.Exec(`INSERT INTO gpkg_contents (table_name, data_type, srs_id) VALUES (?, 'features', ?)`,
		table, srsID)
	b.Exec(`INSERT INTO gpkg_geometry_columns (table_name, column_name, geometry_type_name, srs_id)
		VALUES (?, ?, ?, ?)`, table, geomColumn, geomType, srsID)
}

// InsertGeometries inserts one row per geometry into a single-geometry
// table created as (fid INTEGER PRIMARY KEY, geom <type>), encoding each
// geometry as a GeoPackage blob.
func (b *Builder) InsertGeometries(table string, srsID int32, geoms ...orb.Geometry) {
	b.tb.Helper()
	tx, err := b.db.Begin()
	if err != nil {
		b.tb.Fatalf("begin: %v", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO "` + table + `" (geom) VALUES (?)`)
	if err != nil {
		b.tb.Fatalf("prepare: %v", err)
	}
	for _, g := range geoms {
		if _, err := stmt.Exec(EncodeGeometry(b.tb, g, srsID)); err != nil {
			b.tb.Fatalf("insert geometry: %v", err)
		}
	}
	if err := stmt.Close(); err != nil {
		b.tb.Fatalf("close stmt: %v", err)
	}
	if err := tx.Commit(); err != nil {
		b.tb.Fatalf("commit: %v", err)
	}
}

// EncodeGeometry encodes an orb geometry as a GeoPackage geometry blob
// (GP header, little-endian, no envelope, followed by WKB).
func EncodeGeometry(tb testing.TB, g orb.Geometry, srsID int32) []byte {
	tb.Helper()

	payload, err := wkb.Marshal(g, binary.LittleEndian)
	if err != nil {
		tb.Fatalf("marshal wkb: %v", err)
	}

	header := make([]byte, 8)
	header[0] = 'G'
	header[1] = 'P'
	header[2] = 0    // version 1
	header[3] = 0x01 // little-endian header, no envelope
	binary.LittleEndian.PutUint32(header[4:], uint32(srsID))
	return append(header, payload...)
}
