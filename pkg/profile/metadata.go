package profile

// MetaEntry is one descriptive key/value pair.
type MetaEntry struct {
	Key   string
	Value string
}

// Metadata is an ordered mapping of descriptive keys to values. Order is
// preserved from the metadata source and is part of the document contract.
type Metadata []MetaEntry

// Get returns the value for a key and whether it was present.
func (m Metadata) Get(key string) (string, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// MetadataProvider supplies descriptive metadata keyed by dataset name.
// A missing entry is not an error; Lookup returns an empty mapping.
type MetadataProvider interface {
	Lookup(dataset string) Metadata
}

// StaticMetadata is a map-backed MetadataProvider.
type StaticMetadata map[string]Metadata

// Lookup implements MetadataProvider.
func (s StaticMetadata) Lookup(dataset string) Metadata {
	return s[dataset]
}
