// Package json implements the context engine for the JSON format.
//
// Importing this package is enough to serialize and deserialize the
// messages of the module, as it statically registers their JSON formats.
package json

import (
	"encoding/json"

	// Static registration of the JSON formats. By having them here, it
	// ensures that an import of the JSON context engine will import the
	// definitions.
	_ "go.dedis.ch/dht/json"
	"go.dedis.ch/dht/serde"
)

// jsonEngine is a context engine to marshal and unmarshal in JSON format.
//
// - implements serde.ContextEngine
type jsonEngine struct{}

// NewContext returns a JSON context.
func NewContext() serde.Context {
	return serde.NewContext(jsonEngine{})
}

// GetFormat implements serde.ContextEngine. It returns the JSON format
// name.
func (ctx jsonEngine) GetFormat() serde.Format {
	return serde.FormatJSON
}

// Marshal implements serde.ContextEngine. It returns the bytes of the
// message marshaled in JSON format.
func (ctx jsonEngine) Marshal(m interface{}) ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal implements serde.ContextEngine. It populates the message using
// the JSON format definition.
func (ctx jsonEngine) Unmarshal(data []byte, m interface{}) error {
	return json.Unmarshal(data, m)
}
