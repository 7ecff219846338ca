package store

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/peterbourgon/diskv/v3"

	"github.com/matzehuels/placetree/pkg/errors"
	"github.com/matzehuels/placetree/pkg/hierarchy"
)

const (
	nodePrefix = "node"
	orderKey   = "meta-order"
)

// record is the stored form of one location, shared by the diskv, postgres
// and mongo backends.
type record struct {
	ID           string             `json:"id" bson:"id"`
	Name         string             `json:"name,omitempty" bson:"name,omitempty"`
	ParentID     string             `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	ExplicitRoot bool               `json:"is_explicit_root,omitempty" bson:"is_explicit_root,omitempty"`
	Meta         hierarchy.Metadata `json:"meta,omitempty" bson:"meta,omitempty"`
	EntityIDs    []string           `json:"entity_ids,omitempty" bson:"entity_ids,omitempty"`
	Modules      hierarchy.Metadata `json:"modules,omitempty" bson:"modules,omitempty"`
}

func toRecord(n hierarchy.Node) record {
	return record{
		ID:           n.ID,
		Name:         n.Name,
		ParentID:     n.ParentID,
		ExplicitRoot: n.ExplicitRoot,
		Meta:         n.Meta,
		EntityIDs:    n.EntityIDs,
		Modules:      n.Modules,
	}
}

func (r record) node() hierarchy.Node {
	return hierarchy.Node{
		ID:           r.ID,
		Name:         r.Name,
		ParentID:     r.ParentID,
		ExplicitRoot: r.ExplicitRoot,
		Meta:         r.Meta,
		EntityIDs:    r.EntityIDs,
		Modules:      r.Modules,
	}
}

// DiskvStore keeps one record per location under BasePath/node/ and the
// sibling order as a list of ids in BasePath/meta/order.
type DiskvStore struct {
	mu       sync.RWMutex
	d        *diskv.Diskv
	basePath string
}

// NewDiskvStore opens (or creates) a diskv store rooted at basePath.
func NewDiskvStore(basePath string) (*DiskvStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("diskv store: empty base path")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", basePath, err)
	}
	return &DiskvStore{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			CacheSizeMax:      1024 * 1024, // 1MB
		}),
		basePath: basePath,
	}, nil
}

// BasePath returns the store directory.
func (s *DiskvStore) BasePath() string { return s.basePath }

func (s *DiskvStore) Snapshot(ctx context.Context) ([]hierarchy.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read()
}

func (s *DiskvStore) Move(ctx context.Context, intent hierarchy.Intent) ([]hierarchy.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes, err := s.read()
	if err != nil {
		return nil, err
	}
	out, err := apply(ctx, nodes, intent)
	if err != nil {
		return nil, err
	}

	// Only the moved node's record changes; descendants keep their parent.
	for _, n := range out {
		if n.ID == intent.LocationID {
			if err := s.writeNode(n); err != nil {
				return nil, err
			}
			break
		}
	}
	if err := s.writeOrder(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DiskvStore) Replace(ctx context.Context, nodes []hierarchy.Node) error {
	if err := hierarchy.Validate(nodes); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.d.EraseAll(); err != nil {
		return fmt.Errorf("diskv erase: %w", err)
	}
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", s.basePath, err)
	}
	for _, n := range nodes {
		if err := s.writeNode(n); err != nil {
			return err
		}
	}
	return s.writeOrder(nodes)
}

func (s *DiskvStore) Close() error { return nil }

func (s *DiskvStore) read() ([]hierarchy.Node, error) {
	if !s.d.Has(orderKey) {
		return nil, nil
	}
	data, err := s.d.Read(orderKey)
	if err != nil {
		return nil, fmt.Errorf("diskv read order: %w", err)
	}
	var order []string
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode order index")
	}

	nodes := make([]hierarchy.Node, 0, len(order))
	for _, id := range order {
		val, err := s.d.Read(nodeKey(id))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "order index names %q but its record is missing", id)
		}
		var r record
		if err := json.Unmarshal(val, &r); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode location %q", id)
		}
		nodes = append(nodes, r.node())
	}
	if err := hierarchy.Validate(nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (s *DiskvStore) writeNode(n hierarchy.Node) error {
	data, err := json.Marshal(toRecord(n))
	if err != nil {
		return fmt.Errorf("encode location %q: %w", n.ID, err)
	}
	if err := s.d.Write(nodeKey(n.ID), data); err != nil {
		return fmt.Errorf("diskv write %q: %w", n.ID, err)
	}
	return nil
}

func (s *DiskvStore) writeOrder(nodes []hierarchy.Node) error {
	order := make([]string, len(nodes))
	for i, n := range nodes {
		order[i] = n.ID
	}
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode order index: %w", err)
	}
	if err := s.d.Write(orderKey, data); err != nil {
		return fmt.Errorf("diskv write order: %w", err)
	}
	return nil
}

// nodeKey hex-encodes the id so any location id maps to a safe file name.
func nodeKey(id string) string {
	return nodePrefix + "-" + hex.EncodeToString([]byte(id))
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "-")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}

var _ Store = (*DiskvStore)(nil)
