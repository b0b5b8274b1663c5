// This file contains the implementation of the entry payloads. An entry is
// what is stored at a content address; its address is the digest of its
// fingerprint, computed once at construction.

package types

import (
	"bytes"
	"io"

	"go.dedis.ch/dht/crypto"
	"go.dedis.ch/dht/serde"
	"go.dedis.ch/dht/serde/registry"
	"golang.org/x/xerrors"
)

var entryFormats = registry.NewSimpleRegistry()

// RegisterEntryFormat registers the engine for the provided format.
func RegisterEntryFormat(c serde.Format, f serde.FormatEngine) {
	entryFormats.Register(c, f)
}

// Entry is the payload stored at a content address. The implementations
// cover the payloads the chain headers reference: an application-defined
// value, a link addition, a link removal and a deletion.
type Entry interface {
	serde.Message
	serde.Fingerprinter

	// GetType returns the type tag of the entry.
	GetType() EntryType

	// GetAddress returns the content address of the entry.
	GetAddress() Address

	// Equal returns true when both entries have the same content.
	Equal(other Entry) bool
}

// newEntryAddress returns the content address of the value, the SHA-256
// digest of its fingerprint.
func newEntryAddress(value serde.Fingerprinter) (Address, error) {
	h := crypto.NewSha256Factory().New()

	err := value.Fingerprint(h)
	if err != nil {
		return NoAddress, err
	}

	return NewAddress(h.Sum(nil)), nil
}

// AppEntry is an application-defined payload.
//
// - implements types.Entry
type AppEntry struct {
	value []byte
	addr  Address
}

// NewAppEntry creates a new application entry from the value.
func NewAppEntry(value []byte) (AppEntry, error) {
	entry := AppEntry{value: append([]byte{}, value...)}

	addr, err := newEntryAddress(entry)
	if err != nil {
		return AppEntry{}, xerrors.Errorf("couldn't fingerprint: %v", err)
	}

	entry.addr = addr

	return entry, nil
}

// GetValue returns the value of the entry.
func (e AppEntry) GetValue() []byte {
	return append([]byte{}, e.value...)
}

// GetType implements types.Entry. It returns the app type tag.
func (e AppEntry) GetType() EntryType {
	return EntryTypeApp
}

// GetAddress implements types.Entry. It returns the content address of the
// entry.
func (e AppEntry) GetAddress() Address {
	return e.addr
}

// Equal implements types.Entry. It returns true when the other entry is an
// application entry with the same value.
func (e AppEntry) Equal(other Entry) bool {
	entry, ok := other.(AppEntry)
	return ok && bytes.Equal(e.value, entry.value)
}

// Fingerprint implements serde.Fingerprinter. It writes a deterministic
// binary representation of the entry into the writer.
func (e AppEntry) Fingerprint(w io.Writer) error {
	err := writeString(w, string(EntryTypeApp))
	if err != nil {
		return xerrors.Errorf("couldn't write type: %v", err)
	}

	err = writeString(w, string(e.value))
	if err != nil {
		return xerrors.Errorf("couldn't write value: %v", err)
	}

	return nil
}

// Serialize implements serde.Message. It returns the serialized data of the
// entry.
func (e AppEntry) Serialize(ctx serde.Context) ([]byte, error) {
	return serializeEntry(ctx, e)
}

// LinkAddEntry is the payload of a link creation. It wraps the link data so
// that the entry the header describes is rebuilt from the link fact by
// construction.
//
// - implements types.Entry
type LinkAddEntry struct {
	link LinkData
	addr Address
}

// NewLinkAddEntry creates a new link creation entry from the link data.
func NewLinkAddEntry(link LinkData) (LinkAddEntry, error) {
	entry := LinkAddEntry{link: link}

	addr, err := newEntryAddress(entry)
	if err != nil {
		return LinkAddEntry{}, xerrors.Errorf("couldn't fingerprint: %v", err)
	}

	entry.addr = addr

	return entry, nil
}

// GetLinkData returns the link data of the entry.
func (e LinkAddEntry) GetLinkData() LinkData {
	return e.link
}

// GetType implements types.Entry. It returns the link addition type tag.
func (e LinkAddEntry) GetType() EntryType {
	return EntryTypeLinkAdd
}

// GetAddress implements types.Entry. It returns the content address of the
// entry.
func (e LinkAddEntry) GetAddress() Address {
	return e.addr
}

// Equal implements types.Entry. It returns true when the other entry is a
// link creation with the same link data.
func (e LinkAddEntry) Equal(other Entry) bool {
	entry, ok := other.(LinkAddEntry)
	return ok && e.link == entry.link
}

// Fingerprint implements serde.Fingerprinter. It writes a deterministic
// binary representation of the entry into the writer.
func (e LinkAddEntry) Fingerprint(w io.Writer) error {
	err := writeString(w, string(EntryTypeLinkAdd))
	if err != nil {
		return xerrors.Errorf("couldn't write type: %v", err)
	}

	err = e.link.Fingerprint(w)
	if err != nil {
		return xerrors.Errorf("couldn't write link: %v", err)
	}

	return nil
}

// Serialize implements serde.Message. It returns the serialized data of the
// entry.
func (e LinkAddEntry) Serialize(ctx serde.Context) ([]byte, error) {
	return serializeEntry(ctx, e)
}

// LinkRemoveEntry is the payload of a link removal. It carries the original
// link data and the addresses of the chain entries that removed it.
//
// - implements types.Entry
type LinkRemoveEntry struct {
	link     LinkData
	removals []Address
	addr     Address
}

// NewLinkRemoveEntry creates a new link removal entry from the link data
// and the removal addresses.
func NewLinkRemoveEntry(link LinkData, removals []Address) (LinkRemoveEntry, error) {
	entry := LinkRemoveEntry{
		link:     link,
		removals: append([]Address{}, removals...),
	}

	addr, err := newEntryAddress(entry)
	if err != nil {
		return LinkRemoveEntry{}, xerrors.Errorf("couldn't fingerprint: %v", err)
	}

	entry.addr = addr

	return entry, nil
}

// GetLinkData returns the link data of the entry.
func (e LinkRemoveEntry) GetLinkData() LinkData {
	return e.link
}

// GetRemovals returns the addresses of the chain entries that removed the
// link.
func (e LinkRemoveEntry) GetRemovals() []Address {
	return append([]Address{}, e.removals...)
}

// GetType implements types.Entry. It returns the link removal type tag.
func (e LinkRemoveEntry) GetType() EntryType {
	return EntryTypeLinkRemove
}

// GetAddress implements types.Entry. It returns the content address of the
// entry.
func (e LinkRemoveEntry) GetAddress() Address {
	return e.addr
}

// Equal implements types.Entry. It returns true when the other entry is a
// link removal with the same link data and removal addresses.
func (e LinkRemoveEntry) Equal(other Entry) bool {
	entry, ok := other.(LinkRemoveEntry)
	if !ok || e.link != entry.link {
		return false
	}

	if len(e.removals) != len(entry.removals) {
		return false
	}

	for i, addr := range e.removals {
		if addr != entry.removals[i] {
			return false
		}
	}

	return true
}

// Fingerprint implements serde.Fingerprinter. It writes a deterministic
// binary representation of the entry into the writer.
func (e LinkRemoveEntry) Fingerprint(w io.Writer) error {
	err := writeString(w, string(EntryTypeLinkRemove))
	if err != nil {
		return xerrors.Errorf("couldn't write type: %v", err)
	}

	err = e.link.Fingerprint(w)
	if err != nil {
		return xerrors.Errorf("couldn't write link: %v", err)
	}

	for _, addr := range e.removals {
		err = addr.Fingerprint(w)
		if err != nil {
			return xerrors.Errorf("couldn't write removal: %v", err)
		}
	}

	return nil
}

// Serialize implements serde.Message. It returns the serialized data of the
// entry.
func (e LinkRemoveEntry) Serialize(ctx serde.Context) ([]byte, error) {
	return serializeEntry(ctx, e)
}

// DeletionEntry is the payload of an entry deletion. It carries the address
// of the deleted entry.
//
// - implements types.Entry
type DeletionEntry struct {
	deletes Address
	addr    Address
}

// NewDeletionEntry creates a new deletion entry for the entry at the given
// address.
func NewDeletionEntry(deletes Address) (DeletionEntry, error) {
	entry := DeletionEntry{deletes: deletes}

	addr, err := newEntryAddress(entry)
	if err != nil {
		return DeletionEntry{}, xerrors.Errorf("couldn't fingerprint: %v", err)
	}

	entry.addr = addr

	return entry, nil
}

// GetDeletedAddress returns the address of the deleted entry.
func (e DeletionEntry) GetDeletedAddress() Address {
	return e.deletes
}

// GetType implements types.Entry. It returns the deletion type tag.
func (e DeletionEntry) GetType() EntryType {
	return EntryTypeDeletion
}

// GetAddress implements types.Entry. It returns the content address of the
// entry.
func (e DeletionEntry) GetAddress() Address {
	return e.addr
}

// Equal implements types.Entry. It returns true when the other entry is a
// deletion of the same address.
func (e DeletionEntry) Equal(other Entry) bool {
	entry, ok := other.(DeletionEntry)
	return ok && e.deletes == entry.deletes
}

// Fingerprint implements serde.Fingerprinter. It writes a deterministic
// binary representation of the entry into the writer.
func (e DeletionEntry) Fingerprint(w io.Writer) error {
	err := writeString(w, string(EntryTypeDeletion))
	if err != nil {
		return xerrors.Errorf("couldn't write type: %v", err)
	}

	err = e.deletes.Fingerprint(w)
	if err != nil {
		return xerrors.Errorf("couldn't write deleted address: %v", err)
	}

	return nil
}

// Serialize implements serde.Message. It returns the serialized data of the
// entry.
func (e DeletionEntry) Serialize(ctx serde.Context) ([]byte, error) {
	return serializeEntry(ctx, e)
}

func serializeEntry(ctx serde.Context, entry Entry) ([]byte, error) {
	format := entryFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, entry)
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode entry: %v", err)
	}

	return data, nil
}

// EntryKey is the key of the entry factory.
type EntryKey struct{}

// EntryFactory is a factory to deserialize entries.
//
// - implements serde.Factory
type EntryFactory struct{}

// Deserialize implements serde.Factory. It returns the entry of the data if
// appropriate, otherwise it returns an error.
func (f EntryFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	return f.EntryOf(ctx, data)
}

// EntryOf returns the entry of the data if appropriate, otherwise it
// returns an error.
func (f EntryFactory) EntryOf(ctx serde.Context, data []byte) (Entry, error) {
	format := entryFormats.Get(ctx.GetFormat())

	ctx = serde.WithFactory(ctx, LinkKey{}, LinkDataFactory{})

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode entry: %v", err)
	}

	entry, ok := msg.(Entry)
	if !ok {
		return nil, xerrors.Errorf("invalid entry of type '%T'", msg)
	}

	return entry, nil
}
