// Package snapshot reads and writes location hierarchies on disk.
//
// # Format
//
// A snapshot is a single ordered list of locations. Order is significant: it
// is the sibling order within every parent.
//
//	{
//	  "locations": [
//	    {"id": "house", "name": "House", "parent_id": null, "meta": {"type": "building"}},
//	    {"id": "ground", "name": "Ground floor", "parent_id": "house", "meta": {"type": "floor"}}
//	  ]
//	}
//
// The same records can be written as TOML using an array of tables:
//
//	[[locations]]
//	id = "house"
//	name = "House"
//	meta = { type = "building" }
//
// TOML has no null, so a missing parent_id means top level.
//
// # Fields
//
// Required:
//   - id: unique, non-empty identifier
//
// Optional:
//   - name: display name
//   - parent_id: parent id, null or absent for top level
//   - is_explicit_root: marks the whole-property root (at most one)
//   - meta: free-form object; "type" selects the kind and "icon" overrides
//     the default icon
//   - entity_ids, modules: carried through untouched
//
// [Read] and [ReadFile] run [hierarchy.Validate] on the result, so a decoded
// snapshot is free of duplicate ids and parent cycles.
package snapshot
