package profile

import (
	"go.uber.org/zap"
)

// Options configures profiling behavior. Thresholds are explicit
// configuration rather than constants so detection behavior is
// reproducible and testable independent of the dataset.
type Options struct {
	// CodeTablePrefix marks layers that hold controlled vocabularies.
	CodeTablePrefix string

	// MaxTextLength, MaxCardinalityRatio and MaxDistinctValues are the
	// statistical-fallback thresholds: a text field qualifies as an
	// inferred code list when its longest value is at most MaxTextLength
	// characters, its distinct/non-null ratio is at most
	// MaxCardinalityRatio, and it has at most MaxDistinctValues distinct
	// values.
	MaxTextLength       int
	MaxCardinalityRatio float64
	MaxDistinctValues   int

	// SampleCount is the number of non-null values retained per field.
	SampleCount int

	// SimplifyToleranceFraction sets the preview simplification tolerance
	// as a fraction of the layer extent's diagonal.
	SimplifyToleranceFraction float64

	// FeatureCap bounds the number of features per layer preview. When a
	// layer exceeds it, an evenly-strided subset is used; the true count
	// is still recorded. 0 disables capping.
	FeatureCap int

	// Metadata supplies descriptive key/value pairs per dataset name.
	// Nil behaves like a provider with no entries.
	Metadata MetadataProvider

	// Logger receives warnings for recoverable conditions. Nil disables
	// logging.
	Logger *zap.SugaredLogger
}

// DefaultOptions returns the documented default configuration.
func DefaultOptions() Options {
	return Options{
		CodeTablePrefix:           "code_",
		MaxTextLength:             40,
		MaxCardinalityRatio:       0.2,
		MaxDistinctValues:         25,
		SampleCount:               5,
		SimplifyToleranceFraction: 0.001,
		FeatureCap:                2500,
	}
}

func (o Options) logger() *zap.SugaredLogger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop().Sugar()
}
