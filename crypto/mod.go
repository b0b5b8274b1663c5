// Package crypto defines the primitive to compute the content address of a
// value from its deterministic binary representation.
package crypto

import "hash"

// HashFactory is an interface to produce a hash digest.
type HashFactory interface {
	New() hash.Hash
}
