package schema

import (
	"strings"

	"github.com/beetlebugorg/gpkgprof/internal/gpkg"
)

// FieldType is the semantic type inferred for a field.
type FieldType int

const (
	TypeText FieldType = iota
	TypeInteger
	TypeReal
	TypeBoolean
	TypeDateTime
	TypeBinary
	TypeGeometry
)

func (t FieldType) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeReal:
		return "real"
	case TypeBoolean:
		return "boolean"
	case TypeDateTime:
		return "datetime"
	case TypeBinary:
		return "binary"
	case TypeGeometry:
		return "geometry"
	default:
		return "text"
	}
}

// geometryTypeNames are the declared column types that mark a geometry
// column, per GeoPackage Annex G plus the generic GEOMETRY type.
var geometryTypeNames = map[string]bool{
	"GEOMETRY":           true,
	"POINT":              true,
	"LINESTRING":         true,
	"POLYGON":            true,
	"MULTIPOINT":         true,
	"MULTILINESTRING":    true,
	"MULTIPOLYGON":       true,
	"GEOMETRYCOLLECTION": true,
	"CIRCULARSTRING":     true,
	"COMPOUNDCURVE":      true,
	"CURVEPOLYGON":       true,
	"SURFACE":            true,
	"CURVE":              true,
}

// InferFieldType maps a declared SQLite/GeoPackage column type to the
// semantic type enum. Unknown declared types fall back to text.
func InferFieldType(declared string) FieldType {
	d := strings.ToUpper(strings.TrimSpace(declared))
	// Strip a length suffix such as TEXT(40) or VARCHAR(255).
	if i := strings.IndexByte(d, '('); i >= 0 {
		d = d[:i]
	}

	switch {
	case geometryTypeNames[d]:
		return TypeGeometry
	case strings.Contains(d, "BOOL"):
		return TypeBoolean
	case d == "DATE" || d == "DATETIME" || d == "TIMESTAMP":
		return TypeDateTime
	case strings.Contains(d, "INT"):
		return TypeInteger
	case d == "REAL" || d == "FLOAT" || d == "DOUBLE" || d == "DOUBLE PRECISION":
		return TypeReal
	case d == "BLOB":
		return TypeBinary
	case strings.Contains(d, "CHAR") || strings.Contains(d, "CLOB") || d == "TEXT" || d == "STRING":
		return TypeText
	default:
		return TypeText
	}
}

// LayerKind distinguishes spatial layers from attribute-only layers.
type LayerKind int

const (
	KindAttribute LayerKind = iota
	KindSpatial
)

func (k LayerKind) String() string {
	if k == KindSpatial {
		return "spatial"
	}
	return "attribute-only"
}

// Field is one column of a layer with its inferred type and samples.
type Field struct {
	Name     string
	Type     FieldType
	Nullable bool
	Samples  []Value

	// Stats is populated for text fields and feeds the code list
	// resolver's statistical tier. Nil when unavailable.
	Stats *gpkg.ColumnStats
}

// Layer is one table of the dataset with its ordered fields.
type Layer struct {
	Name           string
	Kind           LayerKind
	SRSID          int
	GeometryColumn string
	GeometryType   string
	RowCount       int64
	Fields         []Field
}

// Catalog is the extractor's output for one dataset: the ordered layers
// plus the warnings accumulated while reading them.
type Catalog struct {
	Dataset       string
	Path          string
	Layers        []Layer
	LayersSkipped int
	Warnings      []string
}
