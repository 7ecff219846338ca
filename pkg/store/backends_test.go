package store

import (
	"slices"
	"testing"

	"github.com/matzehuels/placetree/pkg/errors"
	"github.com/matzehuels/placetree/pkg/hierarchy"
)

func TestPositionChanges(t *testing.T) {
	before := sample()
	after, err := hierarchy.ApplyMove(before, "garden", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, c := range positionChanges(before, after) {
		got = append(got, c.id)
		if after[c.position].ID != c.id {
			t.Errorf("%s recorded at position %d, holds %s", c.id, c.position, after[c.position].ID)
		}
	}
	// garden jumps to the front, everything else shifts down by one.
	if want := ids(after); !slices.Equal(got, want) {
		t.Errorf("changed = %v, want %v", got, want)
	}

	if changes := positionChanges(before, before); len(changes) != 0 {
		t.Errorf("unchanged snapshot reported %d changes", len(changes))
	}
}

func TestPositionChangesReorderInsideParent(t *testing.T) {
	before := sample()
	after, err := hierarchy.ApplyMove(before, "living-room", "main-floor", 0)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, c := range positionChanges(before, after) {
		got = append(got, c.id)
	}
	if want := []string{"living-room", "kitchen", "pantry"}; !slices.Equal(got, want) {
		t.Errorf("changed = %v, want %v", got, want)
	}
}

func TestColumnsEmptyPayloadIsNull(t *testing.T) {
	meta, entity, modules, err := encodeColumns(toRecord(hierarchy.Node{ID: "bare"}))
	if err != nil {
		t.Fatal(err)
	}
	if meta != nil || entity != nil || modules != nil {
		t.Errorf("empty payloads encoded as %q %q %q", meta, entity, modules)
	}

	n := loc("pantry", "kitchen", "subarea")
	n.EntityIDs = []string{"shelf-1"}
	meta, entity, modules, err = encodeColumns(toRecord(n))
	if err != nil {
		t.Fatal(err)
	}
	var r record
	if err := decodeColumns(&r, meta, entity, modules); err != nil {
		t.Fatal(err)
	}
	if r.Meta["type"] != "subarea" || !slices.Equal(r.EntityIDs, n.EntityIDs) || r.Modules != nil {
		t.Errorf("decoded %+v", r)
	}

	if err := decodeColumns(&r, []byte("{"), nil, nil); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("corrupt column: %v, want INVALID_FORMAT", err)
	}
}

func TestNullString(t *testing.T) {
	if ns := nullString(""); ns.Valid {
		t.Error("empty parent should be NULL")
	}
	if ns := nullString("kitchen"); !ns.Valid || ns.String != "kitchen" {
		t.Errorf("nullString(kitchen) = %+v", ns)
	}
}

func TestMongoSnapshotNodes(t *testing.T) {
	empty, err := mongoSnapshot{ID: DefaultMongoKey}.nodes()
	if err != nil || empty != nil {
		t.Errorf("empty document = %v, %v", empty, err)
	}

	doc := mongoSnapshot{Locations: toRecords(sample())}
	nodes, err := doc.nodes()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids(nodes), ids(sample())) {
		t.Errorf("order = %v", ids(nodes))
	}

	doc.Locations = append(doc.Locations, doc.Locations[0])
	if _, err := doc.nodes(); !errors.Is(err, errors.ErrCodeDuplicateID) {
		t.Errorf("duplicate ids: %v, want DUPLICATE_ID", err)
	}
}
