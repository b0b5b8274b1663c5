// Package serde defines the primitives to serialize and deserialize (serde)
// the messages of the module.
//
// A data model implements the Message interface and delegates the encoding
// to a format engine looked up in a registry with the format of the context.
// The format engines live in dedicated packages, one per format, so that a
// message never depends on a specific encoding.
package serde

import "io"

// Message is the interface a data model should implement to be serialized.
type Message interface {
	// Serialize returns the byte representation of the message using the
	// format of the context.
	Serialize(ctx Context) ([]byte, error)
}

// Factory is the interface to implement to instantiate a message from its
// byte representation.
type Factory interface {
	// Deserialize returns the message instantiated from the data using the
	// format of the context.
	Deserialize(ctx Context, data []byte) (Message, error)
}

// Fingerprinter is the interface to implement to expose a deterministic
// binary representation of a value, for instance to compute its content
// address. Two equal values always produce the same fingerprint.
type Fingerprinter interface {
	// Fingerprint writes the deterministic binary representation of the
	// value into the writer.
	Fingerprint(writer io.Writer) error
}

// Format is the identifier of a supported encoding.
type Format string

// FormatJSON is the JSON format.
const FormatJSON Format = "JSON"

// FormatEngine is the interface to implement to encode and decode the
// messages of a registry for a given format.
type FormatEngine interface {
	// Encode returns the serialized data of the message according to the
	// format.
	Encode(ctx Context, message Message) ([]byte, error)

	// Decode returns the message instantiated from the data according to
	// the format.
	Decode(ctx Context, data []byte) (Message, error)
}
