// Package registry defines the format registry mechanism.
//
// A registry associates a format with its engine for one kind of message.
// The default implementation always returns an engine: an unknown format
// resolves to an empty engine that fails with a meaningful error, so that
// the callers do not need to check the format existence.
package registry

import (
	"go.dedis.ch/dht/serde"
)

// Registry is an interface to register and look up the format engines of a
// kind of message.
type Registry interface {
	// Register associates the format with the engine.
	Register(serde.Format, serde.FormatEngine)

	// Get returns the engine associated with the format.
	Get(serde.Format) serde.FormatEngine
}
