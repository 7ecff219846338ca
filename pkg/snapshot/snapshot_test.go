package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/placetree/pkg/errors"
	"github.com/matzehuels/placetree/pkg/hierarchy"
)

func sample() []hierarchy.Node {
	return []hierarchy.Node{
		{ID: "property", Name: "Property", ExplicitRoot: true, Meta: hierarchy.Metadata{}},
		{ID: "ground", Name: "Ground floor", ParentID: "property", Meta: hierarchy.Metadata{"type": "floor"}},
		{ID: "kitchen", Name: "Kitchen", ParentID: "ground", Meta: hierarchy.Metadata{"type": "area", "icon": "mdi:stove"}, EntityIDs: []string{"light.kitchen"}},
		{ID: "shed", Name: "Shed", Meta: hierarchy.Metadata{"type": "room"}},
	}
}

func TestReadJSON(t *testing.T) {
	input := `{
	  "locations": [
	    {"id": "house", "name": "House", "parent_id": null, "meta": {"type": "building"}},
	    {"id": "ground", "name": "Ground", "parent_id": "house", "meta": {"type": "floor"}},
	    {"id": "loose"}
	  ]
	}`

	nodes, err := Read(strings.NewReader(input), FormatJSON)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("len = %d, want 3", len(nodes))
	}
	if nodes[0].ParentID != "" || nodes[1].ParentID != "house" {
		t.Errorf("parents = %q, %q", nodes[0].ParentID, nodes[1].ParentID)
	}
	if nodes[0].Kind() != hierarchy.KindBuilding || nodes[2].Kind() != hierarchy.KindArea {
		t.Errorf("kinds = %s, %s", nodes[0].Kind(), nodes[2].Kind())
	}
}

func TestWriteJSONNullParent(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sample(), FormatJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"parent_id": null`) {
		t.Errorf("top-level node should encode parent_id as null:\n%s", buf.String())
	}
}

func TestRoundTrip(t *testing.T) {
	for _, f := range Formats() {
		t.Run(string(f), func(t *testing.T) {
			data, err := Marshal(sample(), f)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}
			got, err := Unmarshal(data, f)
			if err != nil {
				t.Fatalf("Unmarshal() error: %v\n%s", err, data)
			}

			want := sample()
			if len(got) != len(want) {
				t.Fatalf("len = %d, want %d", len(got), len(want))
			}
			for i := range want {
				g, w := got[i], want[i]
				if g.ID != w.ID || g.Name != w.Name || g.ParentID != w.ParentID || g.ExplicitRoot != w.ExplicitRoot {
					t.Errorf("node %d = %+v, want %+v", i, g, w)
				}
				if g.Kind() != w.Kind() {
					t.Errorf("node %d kind = %s, want %s", i, g.Kind(), w.Kind())
				}
				if !reflect.DeepEqual(g.EntityIDs, w.EntityIDs) {
					t.Errorf("node %d entity ids = %v, want %v", i, g.EntityIDs, w.EntityIDs)
				}
			}
			if got[2].Icon() != "mdi:stove" {
				t.Errorf("icon override lost: %q", got[2].Icon())
			}
		})
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		format   Format
		wantCode errors.Code
	}{
		{"malformed json", `{"locations": [`, FormatJSON, errors.ErrCodeInvalidFormat},
		{"malformed toml", `[[locations]`, FormatTOML, errors.ErrCodeInvalidFormat},
		{"duplicate id", `{"locations":[{"id":"a"},{"id":"a"}]}`, FormatJSON, errors.ErrCodeDuplicateID},
		{"cycle", `{"locations":[{"id":"a","parent_id":"b"},{"id":"b","parent_id":"a"}]}`, FormatJSON, errors.ErrCodeInvalidSnapshot},
		{"unknown format", `{}`, Format("yaml"), errors.ErrCodeUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.data), tt.format)
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("Unmarshal() code = %q (%v), want %q", got, err, tt.wantCode)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"home.json", FormatJSON, false},
		{"/etc/placetree/home.TOML", FormatTOML, false},
		{"home.yaml", "", true},
		{"home", "", true},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, %v", tt.path, got, err)
		}
	}
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"home.json", "nested/home.toml"} {
		path := filepath.Join(dir, name)
		if err := WriteFile(path, sample()); err != nil {
			t.Fatalf("WriteFile(%s) error: %v", name, err)
		}
		got, err := ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile(%s) error: %v", name, err)
		}
		if len(got) != len(sample()) {
			t.Errorf("ReadFile(%s) len = %d", name, len(got))
		}
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".placetree-") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("ReadFile(missing) should fail")
	}
}
