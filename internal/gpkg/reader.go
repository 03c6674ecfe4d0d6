// Package gpkg reads GeoPackage containers.
//
// A GeoPackage is a SQLite database with a mandated set of system tables
// (gpkg_contents, gpkg_geometry_columns, gpkg_spatial_ref_sys) describing
// the user layers it contains. This package exposes read-only access to
// that catalog plus the per-column queries the profiling pipeline needs:
// samples, statistics, distinct values, code rows and decoded geometries.
//
// Nothing here writes to the container.
package gpkg

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"

	_ "modernc.org/sqlite"
)

// Dataset is an open read-only handle to one GeoPackage file.
type Dataset struct {
	db     *sql.DB
	path   string
	name   string
	layers []LayerInfo
}

// Open opens a GeoPackage and loads its layer catalog.
//
// Layers are returned in gpkg_contents registration order, which is the
// order the profiling output preserves. A file that cannot be opened or
// that lacks gpkg_contents yields *ErrDatasetUnreadable.
func Open(ctx context.Context, path string) (*Dataset, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, &ErrDatasetUnreadable{Path: path, Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ErrDatasetUnreadable{Path: path, Err: err}
	}

	d := &Dataset{
		db:   db,
		path: path,
		name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}
	if err := d.loadContents(ctx); err != nil {
		_ = db.Close()
		return nil, &ErrDatasetUnreadable{Path: path, Err: err}
	}
	return d, nil
}

func (d *Dataset) loadContents(ctx context.Context) error {
	const q = `
		SELECT c.table_name, c.data_type,
		       COALESCE(g.column_name, ''),
		       COALESCE(g.geometry_type_name, ''),
		       COALESCE(g.srs_id, 0)
		FROM gpkg_contents c
		LEFT JOIN gpkg_geometry_columns g ON g.table_name = c.table_name
		WHERE c.data_type IN ('features', 'attributes')
		ORDER BY c.rowid`

	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("read gpkg_contents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l LayerInfo
		if err := rows.Scan(&l.Name, &l.DataType, &l.GeometryColumn, &l.GeometryType, &l.SRSID); err != nil {
			return fmt.Errorf("scan gpkg_contents: %w", err)
		}
		d.layers = append(d.layers, l)
	}
	return rows.Err()
}

// Close releases the underlying database handle.
func (d *Dataset) Close() error { return d.db.Close() }

// Name returns the dataset name: the file base name without extension.
func (d *Dataset) Name() string { return d.name }

// Path returns the path the dataset was opened from.
func (d *Dataset) Path() string { return d.path }

// Layers returns the layer catalog in registration order.
func (d *Dataset) Layers() []LayerInfo { return d.layers }

// Columns returns the columns of a layer in declaration order.
func (d *Dataset) Columns(ctx context.Context, table string) ([]ColumnInfo, error) {
	rows, err := d.db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(table)+")")
	if err != nil {
		return nil, &ErrLayerUnreadable{Layer: table, Err: err}
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var (
			cid     int
			c       ColumnInfo
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &c.Name, &c.DeclaredType, &notNull, &dflt, &pk); err != nil {
			return nil, &ErrLayerUnreadable{Layer: table, Err: err}
		}
		c.NotNull = notNull != 0
		c.PrimaryKey = pk != 0
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &ErrLayerUnreadable{Layer: table, Err: err}
	}
	return cols, nil
}

// RowCount returns the number of rows in a layer.
func (d *Dataset) RowCount(ctx context.Context, table string) (int64, error) {
	var n int64
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(table)).Scan(&n)
	if err != nil {
		return 0, &ErrLayerUnreadable{Layer: table, Err: err}
	}
	return n, nil
}

// SampleValues returns the first k non-null values of a column in rowid
// order. Values are raw driver values; conversion to the semantic value
// model happens at the schema boundary.
func (d *Dataset) SampleValues(ctx context.Context, table, column string, k int) ([]any, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL ORDER BY rowid LIMIT %d",
		quoteIdent(column), quoteIdent(table), quoteIdent(column), k)

	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []any
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ColumnStats computes non-null count, distinct count and maximum value
// length over the whole column.
func (d *Dataset) ColumnStats(ctx context.Context, table, column string) (ColumnStats, error) {
	col := quoteIdent(column)
	q := fmt.Sprintf(
		"SELECT COUNT(%s), COUNT(DISTINCT %s), COALESCE(MAX(LENGTH(%s)), 0) FROM %s",
		col, col, col, quoteIdent(table))

	var s ColumnStats
	if err := d.db.QueryRowContext(ctx, q).Scan(&s.NonNull, &s.Distinct, &s.MaxLength); err != nil {
		return ColumnStats{}, err
	}
	return s, nil
}

// DistinctValues returns up to limit distinct non-null values of a text
// column, sorted, as strings.
func (d *Dataset) DistinctValues(ctx context.Context, table, column string, limit int) ([]string, error) {
	q := fmt.Sprintf(
		"SELECT DISTINCT CAST(%s AS TEXT) FROM %s WHERE %s IS NOT NULL ORDER BY 1 LIMIT %d",
		quoteIdent(column), quoteIdent(table), quoteIdent(column), limit)

	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CodeRows reads the first two columns of a code table as (code, label)
// pairs in rowid order. A single-column table yields pairs with empty
// labels. Null codes are skipped.
func (d *Dataset) CodeRows(ctx context.Context, table string) ([]CodePair, error) {
	cols, err := d.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, nil
	}

	codeCol := quoteIdent(cols[0].Name)
	sel := "SELECT CAST(" + codeCol + " AS TEXT), ''"
	if len(cols) > 1 {
		sel = "SELECT CAST(" + codeCol + " AS TEXT), COALESCE(CAST(" + quoteIdent(cols[1].Name) + " AS TEXT), '')"
	}
	q := sel + " FROM " + quoteIdent(table) + " WHERE " + codeCol + " IS NOT NULL ORDER BY rowid"

	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CodePair
	for rows.Next() {
		var p CodePair
		if err := rows.Scan(&p.Code, &p.Label); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Geometries reads the geometries of a spatial layer, decoded from GPB
// blobs, capped to at most limit features.
//
// When the layer exceeds the limit, an evenly-strided subset in rowid order
// is returned (stride = ceil(total/limit)); the selection is reproducible
// across runs on the same file. total is the true non-null geometry count
// and decodeErrs counts blobs that could not be decoded.
func (d *Dataset) Geometries(ctx context.Context, table, column string, limit int) (geoms []orb.Geometry, total int64, decodeErrs int, err error) {
	col := quoteIdent(column)
	tbl := quoteIdent(table)

	err = d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tbl+" WHERE "+col+" IS NOT NULL").Scan(&total)
	if err != nil {
		return nil, 0, 0, &ErrLayerUnreadable{Layer: table, Err: err}
	}

	stride := int64(1)
	if limit > 0 && total > int64(limit) {
		stride = (total + int64(limit) - 1) / int64(limit)
	}

	rows, err := d.db.QueryContext(ctx,
		"SELECT "+col+" FROM "+tbl+" WHERE "+col+" IS NOT NULL ORDER BY rowid")
	if err != nil {
		return nil, 0, 0, &ErrLayerUnreadable{Layer: table, Err: err}
	}
	defer rows.Close()

	var i int64
	for rows.Next() {
		take := i%stride == 0 && (limit <= 0 || len(geoms) < limit)
		i++
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, 0, 0, &ErrLayerUnreadable{Layer: table, Err: err}
		}
		if !take {
			continue
		}
		g, _, derr := DecodeGeometry(blob)
		if derr != nil {
			decodeErrs++
			continue
		}
		if g != nil {
			geoms = append(geoms, g)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, &ErrLayerUnreadable{Layer: table, Err: err}
	}
	return geoms, total, decodeErrs, nil
}

// quoteIdent quotes a SQL identifier so layer and column names taken from
// the container cannot break out of their position in a statement.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
