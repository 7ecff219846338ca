// Package pkg provides the core libraries for Placetree location hierarchies.
//
// # Overview
//
// Placetree keeps the locations of a property (buildings, floors, areas,
// subareas and grounds) in one ordered tree and decides where a dragged
// location lands and whether it may go there. The pkg directory is organized
// into three areas:
//
//  1. [hierarchy] and [drag] - Domain logic (kind policy, move validation,
//     flattening, drop resolution, the drag session)
//  2. [store], [snapshot], [cache] and [viewstate] - Persistence of snapshots
//     and per-client tree views
//  3. [relocate] - Orchestration (serialized intent submission with logging
//     and hooks)
//
// Supporting packages: [errors] for coded errors, [observability] for hooks,
// [render/dot] for Graphviz export and [buildinfo] for version data.
//
// # Architecture
//
// The typical data flow of a drag and drop:
//
//	Store snapshot
//	      ↓
//	 [hierarchy.Flatten] (visible rows for the current expansion)
//	      ↓
//	 [drag.Session] (gesture → target → verdict)
//	      ↓
//	 [relocate.Service.Submit] (intent, one move per location at a time)
//	      ↓
//	 [store.Store.Move] (re-check against the live snapshot and persist)
//
// # Quick Start
//
// Move a location in a snapshot file:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/placetree/pkg/relocate"
//	    "github.com/matzehuels/placetree/pkg/store"
//	)
//
//	st, _ := store.Open(ctx, store.BackendFile, "locations.json")
//	defer st.Close()
//
//	svc := relocate.NewService(st, nil)
//	res, err := svc.Move(ctx, "pantry", "living-room", 0)
//	if err != nil {
//	    fmt.Println(hierarchy.Reason(err))
//	}
//	_ = res.Nodes // refreshed snapshot
//
// # Package Organization
//
//   - [hierarchy]: nodes, kinds, policy, validation, flattening, resolution
//   - [drag]: drag session state machine
//   - [relocate]: relocation service
//   - [store]: memory, file, diskv, postgres and mongo backends
//   - [snapshot]: JSON and TOML snapshot formats
//   - [cache]: file, redis and null caches
//   - [viewstate]: persisted expansion sets
//   - [render/dot]: DOT and SVG export
//   - [errors]: structured error codes
//   - [observability]: move, cache and HTTP hooks
//   - [buildinfo]: version information
package pkg
