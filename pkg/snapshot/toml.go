package snapshot

import (
	"bytes"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/placetree/pkg/errors"
)

func marshalTOML(doc document) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode toml")
	}
	return buf.Bytes(), nil
}

func unmarshalTOML(data []byte) (document, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml")
	}
	return doc, nil
}
