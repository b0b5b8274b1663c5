// Package dht defines the network representation of the facts a node of a
// content-addressed, gossip-based data store can hold about a single entry:
// its content, the links attached to it, the updates superseding it and its
// deletion. The data model lives in the types package and its wire formats
// in the json package, following the serde mechanism of the serde package.
//
// The transport moving the serialized facts between nodes, the validation
// rules deciding their admissibility and the storage persisting them are
// deliberately not part of this module.
package dht

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// EnvLogLevel is the name of the environment variable to change the logging
// level.
const EnvLogLevel = "LLVL"

const defaultLevel = zerolog.WarnLevel

func init() {
	switch os.Getenv(EnvLogLevel) {
	case "error":
		Logger = Logger.Level(zerolog.ErrorLevel)
	case "warn":
		Logger = Logger.Level(zerolog.WarnLevel)
	case "info":
		Logger = Logger.Level(zerolog.InfoLevel)
	case "debug":
		Logger = Logger.Level(zerolog.DebugLevel)
	case "trace":
		Logger = Logger.Level(zerolog.TraceLevel)
	case "":
		Logger = Logger.Level(defaultLevel)
	default:
		Logger = Logger.Level(zerolog.TraceLevel)
	}
}

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance. By default it only prints
// warnings and above, see EnvLogLevel.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	With().Caller().Logger()
