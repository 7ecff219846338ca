package snapshot

import (
	"bytes"
	"encoding/json"

	"github.com/matzehuels/placetree/pkg/errors"
)

func marshalJSON(doc document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode json")
	}
	return buf.Bytes(), nil
}

func unmarshalJSON(data []byte) (document, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
	}
	return doc, nil
}
