// This file contains the implementation of the chain header, the provenance
// record attached to every fact gossiped about an entry.

package types

import (
	"io"

	"go.dedis.ch/dht/crypto"
	"go.dedis.ch/dht/serde"
	"go.dedis.ch/dht/serde/registry"
	"golang.org/x/xerrors"
)

var headerFormats = registry.NewSimpleRegistry()

// RegisterHeaderFormat registers the engine for the provided format.
func RegisterHeaderFormat(c serde.Format, f serde.FormatEngine) {
	headerFormats.Register(c, f)
}

// EntryType is the tag qualifying the payload of an entry. The set is
// limited to the types the aspects care about; applications define their
// own semantics on top of the app type.
type EntryType string

// The entry types referenced by the chain headers.
const (
	EntryTypeApp        EntryType = "app"
	EntryTypeLinkAdd    EntryType = "link_add"
	EntryTypeLinkRemove EntryType = "link_remove"
	EntryTypeDeletion   EntryType = "deletion"
)

// ChainHeader is the provenance record of an entry: which entry it headers,
// where it sits in the author's chain, and which entry it supersedes when
// the entry is an update or a deletion. Its own address is the digest of
// its fingerprint, computed once at construction.
//
// - implements serde.Message
// - implements serde.Fingerprinter
type ChainHeader struct {
	entryType EntryType
	entryAddr Address
	previous  Address
	supersede Address
	addr      Address
}

type chainHeaderTemplate struct {
	ChainHeader
	factory crypto.HashFactory
}

// ChainHeaderOption is an option to set a header value when creating one.
type ChainHeaderOption func(*chainHeaderTemplate)

// WithPrevious is an option to set the address of the previous header of
// the author's chain.
func WithPrevious(addr Address) ChainHeaderOption {
	return func(tmpl *chainHeaderTemplate) {
		tmpl.previous = addr
	}
}

// WithSupersede is an option to set the address of the entry that the new
// entry updates or deletes.
func WithSupersede(addr Address) ChainHeaderOption {
	return func(tmpl *chainHeaderTemplate) {
		tmpl.supersede = addr
	}
}

// WithHashFactory is an option to use a different hash factory than the
// default SHA-256 one.
func WithHashFactory(f crypto.HashFactory) ChainHeaderOption {
	return func(tmpl *chainHeaderTemplate) {
		tmpl.factory = f
	}
}

// NewChainHeader creates the header of the entry at the given address,
// using the options to set particular values.
func NewChainHeader(t EntryType, entry Address, opts ...ChainHeaderOption) (ChainHeader, error) {
	tmpl := &chainHeaderTemplate{
		ChainHeader: ChainHeader{
			entryType: t,
			entryAddr: entry,
		},
		factory: crypto.NewSha256Factory(),
	}

	for _, opt := range opts {
		opt(tmpl)
	}

	h := tmpl.factory.New()
	err := tmpl.Fingerprint(h)
	if err != nil {
		return ChainHeader{}, xerrors.Errorf("couldn't fingerprint: %v", err)
	}

	tmpl.addr = NewAddress(h.Sum(nil))

	return tmpl.ChainHeader, nil
}

// GetEntryType returns the type of the entry the header is about.
func (ch ChainHeader) GetEntryType() EntryType {
	return ch.entryType
}

// GetEntryAddress returns the address of the entry the header is about.
func (ch ChainHeader) GetEntryAddress() Address {
	return ch.entryAddr
}

// GetPrevious returns the address of the previous header of the author's
// chain, or false for the first header.
func (ch ChainHeader) GetPrevious() (Address, bool) {
	return ch.previous, ch.previous != NoAddress
}

// GetSupersede returns the address of the entry this header's entry updates
// or deletes, or false when the entry supersedes nothing.
func (ch ChainHeader) GetSupersede() (Address, bool) {
	return ch.supersede, ch.supersede != NoAddress
}

// GetAddress returns the address of the header itself.
func (ch ChainHeader) GetAddress() Address {
	return ch.addr
}

// Equal returns true when both headers have exactly the same fields.
func (ch ChainHeader) Equal(other ChainHeader) bool {
	return ch == other
}

// Fingerprint implements serde.Fingerprinter. It writes a deterministic
// binary representation of the header into the writer. The own address is
// excluded as it is derived from the other fields.
func (ch ChainHeader) Fingerprint(w io.Writer) error {
	err := writeString(w, string(ch.entryType))
	if err != nil {
		return xerrors.Errorf("couldn't write entry type: %v", err)
	}

	err = writeString(w, string(ch.entryAddr))
	if err != nil {
		return xerrors.Errorf("couldn't write entry address: %v", err)
	}

	err = writeString(w, string(ch.previous))
	if err != nil {
		return xerrors.Errorf("couldn't write previous: %v", err)
	}

	err = writeString(w, string(ch.supersede))
	if err != nil {
		return xerrors.Errorf("couldn't write supersede: %v", err)
	}

	return nil
}

// Serialize implements serde.Message. It returns the serialized data of the
// header.
func (ch ChainHeader) Serialize(ctx serde.Context) ([]byte, error) {
	format := headerFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, ch)
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode header: %v", err)
	}

	return data, nil
}

// HeaderKey is the key of the header factory.
type HeaderKey struct{}

// HeaderFactory is a factory to deserialize chain headers.
//
// - implements serde.Factory
type HeaderFactory struct{}

// Deserialize implements serde.Factory. It returns the header of the data
// if appropriate, otherwise it returns an error.
func (f HeaderFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	return f.HeaderOf(ctx, data)
}

// HeaderOf returns the header of the data if appropriate, otherwise it
// returns an error.
func (f HeaderFactory) HeaderOf(ctx serde.Context, data []byte) (ChainHeader, error) {
	format := headerFormats.Get(ctx.GetFormat())

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return ChainHeader{}, xerrors.Errorf("couldn't decode header: %v", err)
	}

	header, ok := msg.(ChainHeader)
	if !ok {
		return ChainHeader{}, xerrors.Errorf("invalid header of type '%T'", msg)
	}

	return header, nil
}
