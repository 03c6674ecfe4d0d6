package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/beetlebugorg/gpkgprof/pkg/profile"
)

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Rivers of Testland", "Rivers of Testland"},
		{"road_network (2024)", "road_network (2024)"},
		{"a/b\\c:d", "a_b_c_d"},
		{"naïve café", "na_ve caf_"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := safeFilename(tt.in); got != tt.want {
			t.Errorf("safeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOutputTitle(t *testing.T) {
	doc := &profile.Document{Name: "rivers"}
	if got := outputTitle(doc); got != "rivers" {
		t.Errorf("title = %q", got)
	}
	doc.Metadata = profile.Metadata{{Key: "title", Value: "Rivers of Testland"}}
	if got := outputTitle(doc); got != "Rivers of Testland" {
		t.Errorf("title = %q", got)
	}
}

func TestLoadMetadataCSV(t *testing.T) {
	const src = `dataset,title,licence,contact
rivers,Rivers of Testland,CC0,
roads,Road Network,,gis@example.org
`
	meta, err := loadMetadataCSV(strings.NewReader(src))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	rivers := meta.Lookup("rivers")
	if len(rivers) != 2 {
		t.Fatalf("rivers = %+v", rivers)
	}
	if rivers[0].Key != "title" || rivers[0].Value != "Rivers of Testland" {
		t.Errorf("rivers[0] = %+v", rivers[0])
	}
	// Empty cells are omitted, order of the rest is preserved.
	if rivers[1].Key != "licence" || rivers[1].Value != "CC0" {
		t.Errorf("rivers[1] = %+v", rivers[1])
	}

	roads := meta.Lookup("roads")
	if len(roads) != 2 || roads[1].Key != "contact" || roads[1].Value != "gis@example.org" {
		t.Errorf("roads = %+v", roads)
	}

	if got := meta.Lookup("unknown"); len(got) != 0 {
		t.Errorf("unknown dataset = %+v", got)
	}
}

func TestLoadMetadataCSVBadHeader(t *testing.T) {
	_, err := loadMetadataCSV(strings.NewReader("name,title\nrivers,Rivers\n"))
	if err == nil {
		t.Fatal("expected error for wrong first column")
	}
}

func TestWriteDocument(t *testing.T) {
	doc := &profile.Document{
		Name:       "rivers",
		SourceFile: "/data/rivers.gpkg",
		Metadata:   profile.Metadata{{Key: "title", Value: "Rivers"}},
		Layers: []profile.Layer{{
			Name:         "rivers",
			Kind:         "spatial",
			SRSID:        4326,
			FeatureCount: 2,
			Fields:       []profile.Field{{Name: "name", Type: "text", Nullable: true}},
			Preview: &profile.GeometryPreview{
				Geometries: orb.Collection{orb.LineString{{0, 0}, {1, 1}}},
				Extent:     profile.Extent{MaxLon: 1, MaxLat: 1},
				Shown:      1,
			},
		}},
	}

	path := filepath.Join(t.TempDir(), "rivers.json")
	if err := writeDocument(doc, path); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	var out struct {
		Name   string `json:"name"`
		Layers []struct {
			Preview *struct {
				Shown    int `json:"shown"`
				Features struct {
					Type     string `json:"type"`
					Features []struct {
						Geometry struct {
							Type string `json:"type"`
						} `json:"geometry"`
					} `json:"features"`
				} `json:"features"`
			} `json:"preview"`
		} `json:"layers"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Name != "rivers" {
		t.Errorf("name = %q", out.Name)
	}
	pv := out.Layers[0].Preview
	if pv == nil || pv.Shown != 1 {
		t.Fatalf("preview = %+v", pv)
	}
	if pv.Features.Type != "FeatureCollection" || pv.Features.Features[0].Geometry.Type != "LineString" {
		t.Errorf("geojson = %+v", pv.Features)
	}
}
