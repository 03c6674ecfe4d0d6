package gpkg

import (
	"fmt"
)

// ErrDatasetUnreadable indicates the GeoPackage container could not be opened
// or is missing the mandatory gpkg_contents table.
type ErrDatasetUnreadable struct {
	Path string
	Err  error
}

func (e *ErrDatasetUnreadable) Error() string {
	return fmt.Sprintf("dataset unreadable: %s: %v", e.Path, e.Err)
}

func (e *ErrDatasetUnreadable) Unwrap() error { return e.Err }

// ErrLayerUnreadable indicates a single layer could not be read.
// The enclosing dataset is still processed.
type ErrLayerUnreadable struct {
	Layer string
	Err   error
}

func (e *ErrLayerUnreadable) Error() string {
	return fmt.Sprintf("layer unreadable: %s: %v", e.Layer, e.Err)
}

func (e *ErrLayerUnreadable) Unwrap() error { return e.Err }

// ErrInvalidGeometryBlob indicates a GeoPackage geometry blob that does not
// follow the GPB binary format (bad magic, truncated header, bad envelope).
type ErrInvalidGeometryBlob struct {
	Reason string
}

func (e *ErrInvalidGeometryBlob) Error() string {
	return fmt.Sprintf("invalid geometry blob: %s", e.Reason)
}
