package gpkg

// LayerInfo describes one entry of gpkg_contents, joined with
// gpkg_geometry_columns when the layer carries geometry.
type LayerInfo struct {
	Name           string
	DataType       string // "features" or "attributes"
	GeometryColumn string // empty for attribute-only layers
	GeometryType   string // declared type name, e.g. "POINT", "MULTIPOLYGON"
	SRSID          int    // spatial reference system id, 0 when undefined
}

// Spatial reports whether the layer has a registered geometry column.
func (l LayerInfo) Spatial() bool { return l.GeometryColumn != "" }

// ColumnInfo describes one column as reported by PRAGMA table_info.
type ColumnInfo struct {
	Name         string
	DeclaredType string
	NotNull      bool
	PrimaryKey   bool
}

// ColumnStats holds full-column statistics used by the code list resolver's
// statistical tier. Computed in SQL over all non-null values, not over the
// display sample.
type ColumnStats struct {
	NonNull   int64
	Distinct  int64
	MaxLength int64
}

// CodePair is one (code, label) row of a code table.
type CodePair struct {
	Code  string
	Label string
}
