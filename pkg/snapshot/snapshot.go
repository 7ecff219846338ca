package snapshot

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/matzehuels/placetree/pkg/errors"
	"github.com/matzehuels/placetree/pkg/hierarchy"
)

// Format is an on-disk encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// Formats returns the supported encodings.
func Formats() []Format { return []Format{FormatJSON, FormatTOML} }

// ParseFormat maps a user-supplied name onto a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatTOML:
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported snapshot format %q (want json or toml)", s)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", errors.New(errors.ErrCodeUnsupported, "cannot infer snapshot format from %q", path)
	}
	return ParseFormat(ext)
}

type document struct {
	Locations []location `json:"locations" toml:"locations"`
}

type location struct {
	ID             string         `json:"id" toml:"id"`
	Name           string         `json:"name,omitempty" toml:"name,omitempty"`
	ParentID       *string        `json:"parent_id" toml:"parent_id,omitempty"`
	IsExplicitRoot bool           `json:"is_explicit_root,omitempty" toml:"is_explicit_root,omitempty"`
	Meta           map[string]any `json:"meta,omitempty" toml:"meta,omitempty"`
	EntityIDs      []string       `json:"entity_ids,omitempty" toml:"entity_ids,omitempty"`
	Modules        map[string]any `json:"modules,omitempty" toml:"modules,omitempty"`
}

func fromNodes(nodes []hierarchy.Node) document {
	doc := document{Locations: make([]location, len(nodes))}
	for i, n := range nodes {
		loc := location{
			ID:             n.ID,
			Name:           n.Name,
			IsExplicitRoot: n.ExplicitRoot,
			Meta:           n.Meta,
			EntityIDs:      n.EntityIDs,
			Modules:        n.Modules,
		}
		if n.ParentID != "" {
			parent := n.ParentID
			loc.ParentID = &parent
		}
		doc.Locations[i] = loc
	}
	return doc
}

func (d document) toNodes() []hierarchy.Node {
	nodes := make([]hierarchy.Node, len(d.Locations))
	for i, loc := range d.Locations {
		n := hierarchy.Node{
			ID:           loc.ID,
			Name:         loc.Name,
			ExplicitRoot: loc.IsExplicitRoot,
			Meta:         loc.Meta,
			EntityIDs:    loc.EntityIDs,
			Modules:      loc.Modules,
		}
		if loc.ParentID != nil {
			n.ParentID = *loc.ParentID
		}
		nodes[i] = n
	}
	return nodes
}

// Marshal encodes nodes in the given format.
func Marshal(nodes []hierarchy.Node, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return marshalJSON(fromNodes(nodes))
	case FormatTOML:
		return marshalTOML(fromNodes(nodes))
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported snapshot format %q", f)
}

// Unmarshal decodes and validates a snapshot.
func Unmarshal(data []byte, f Format) ([]hierarchy.Node, error) {
	var (
		doc document
		err error
	)
	switch f {
	case FormatJSON:
		doc, err = unmarshalJSON(data)
	case FormatTOML:
		doc, err = unmarshalTOML(data)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported snapshot format %q", f)
	}
	if err != nil {
		return nil, err
	}
	nodes := doc.toNodes()
	if err := hierarchy.Validate(nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Read decodes a snapshot from r. Read does not close r.
func Read(r io.Reader, f Format) ([]hierarchy.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read snapshot")
	}
	return Unmarshal(data, f)
}

// Write encodes nodes to w.
func Write(w io.Writer, nodes []hierarchy.Node, f Format) error {
	data, err := Marshal(nodes, f)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write snapshot")
	}
	return nil
}
