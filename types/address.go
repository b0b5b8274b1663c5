// Package types implements the data model of the facts a node can hold
// about a content-addressed entry.
//
// An entry of the store is identified by the address of its content. What
// the nodes gossip about an entry are aspects: one aspect for the entry
// content itself, one per link attached to it, one per link removal, and at
// most one update or deletion superseding it. Every aspect embeds the chain
// header proving its provenance, and resolves to the single canonical
// address it must be stored at.
//
// The package also defines the collaborator types an aspect is made of: the
// address, the entry payloads, the chain header and the link data.
//
// Documentation Last Review: 13.08.2026
package types

import (
	"encoding/binary"
	"encoding/hex"
	"io"

	"golang.org/x/xerrors"
)

// Address is the content address of a record of the store. It is the
// hex-encoded digest of the record, so that it is comparable and usable
// directly as a map key.
type Address string

// NoAddress is the zero address. It marks the absence of a reference.
const NoAddress Address = ""

// NewAddress returns the address of the given digest.
func NewAddress(digest []byte) Address {
	return Address(hex.EncodeToString(digest))
}

// Equal returns true when both addresses point at the same record.
func (a Address) Equal(other Address) bool {
	return a == other
}

// String implements fmt.Stringer. It returns the text of the address.
func (a Address) String() string {
	return string(a)
}

// Fingerprint implements serde.Fingerprinter. It writes a deterministic
// binary representation of the address into the writer.
func (a Address) Fingerprint(w io.Writer) error {
	err := writeString(w, string(a))
	if err != nil {
		return xerrors.Errorf("couldn't write address: %v", err)
	}

	return nil
}

// writeString writes the value prefixed by its length so that the
// concatenation of several fields stays unambiguous.
func writeString(w io.Writer, value string) error {
	buffer := make([]byte, 4+len(value))
	binary.LittleEndian.PutUint32(buffer, uint32(len(value)))
	copy(buffer[4:], value)

	_, err := w.Write(buffer)

	return err
}
