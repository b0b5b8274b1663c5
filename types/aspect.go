// This file contains the implementation of the entry aspects, the facts a
// node can hold and gossip about a single entry of the store.

package types

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.dedis.ch/dht/serde"
	"go.dedis.ch/dht/serde/registry"
	"golang.org/x/xerrors"
)

var aspectFormats = registry.NewSimpleRegistry()

// RegisterAspectFormat registers the engine for the provided format.
func RegisterAspectFormat(c serde.Format, f serde.FormatEngine) {
	aspectFormats.Register(c, f)
}

// EntryAspect is one discrete fact a node holds about an entry: its
// content, a link attached to it, an update superseding it, or its
// deletion. The set of implementations is closed, one structured payload
// per kind of fact, and every operation is defined on each of them so that
// a new kind of fact must define them all.
//
// Aspects are immutable values. They are safe to read from several
// goroutines and to use as deduplication keys in a shared collection: equal
// aspects always have equal hashes, so inserting a duplicate is idempotent
// whatever the arrival order.
type EntryAspect interface {
	serde.Message
	fmt.Stringer

	// GetTypeHint returns the tag discriminating the kind of fact.
	GetTypeHint() string

	// GetHeader returns the header proving the provenance of the fact.
	GetHeader() ChainHeader

	// GetEntryAddress returns the canonical address of the entry the fact
	// is about, which is where the aspect lives in the store. It is the
	// exact inverse of NewAspect: an aspect built from an entry resolves to
	// the address the entry was published at.
	GetEntryAddress() (Address, error)

	// Equal returns true when both aspects carry exactly the same payload
	// and header.
	Equal(other EntryAspect) bool

	// Hash returns a digest of the header and the type hint only. The
	// payload is deliberately left out: equal aspects still hash equal, as
	// the header and the hint are among the compared fields, and aspects
	// differing only in their payload collide so that the key stays cheap.
	Hash() uint64
}

// NoSupersedeError is the error returned when resolving the address of an
// update or deletion fact whose header does not reference the superseded
// entry. There is no safe address to substitute, the caller has to treat
// the aspect as corrupt.
type NoSupersedeError struct {
	header ChainHeader
}

// GetHeader returns the header missing the supersede reference.
func (e NoSupersedeError) GetHeader() ChainHeader {
	return e.header
}

// Error implements error. It returns a message with the offending header.
func (e NoSupersedeError) Error() string {
	return fmt.Sprintf("no supersede reference in header %s", formatHeader(e.header))
}

func formatHeader(header ChainHeader) string {
	supersede := "none"
	if addr, ok := header.GetSupersede(); ok {
		supersede = addr.String()
	}

	return fmt.Sprintf("Header[type: %s, supersede: %s]", header.GetEntryType(), supersede)
}

func resolveSupersede(header ChainHeader) (Address, error) {
	addr, ok := header.GetSupersede()
	if !ok {
		return NoAddress, NoSupersedeError{header: header}
	}

	return addr, nil
}

func aspectHash(aspect EntryAspect) uint64 {
	h := xxhash.New()

	// Writes to a xxhash digest cannot fail. The header address is the
	// digest of every header field, so equal headers contribute equally.
	h.WriteString(string(aspect.GetHeader().GetAddress()))
	h.WriteString(aspect.GetTypeHint())

	return h.Sum64()
}

func serializeAspect(ctx serde.Context, aspect EntryAspect) ([]byte, error) {
	format := aspectFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, aspect)
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode aspect: %v", err)
	}

	return data, nil
}

// NewAspect returns the aspect publishing the given entry, dispatched on
// the kind of payload: a link creation becomes a link fact, a deletion a
// deletion fact, and an application entry becomes an update when its header
// supersedes another entry, plain content otherwise. GetEntryAddress on the
// result returns the address the entry is published at.
func NewAspect(entry Entry, header ChainHeader) (EntryAspect, error) {
	switch e := entry.(type) {
	case AppEntry:
		if _, ok := header.GetSupersede(); ok {
			return NewUpdateAspect(e, header), nil
		}

		return NewContentAspect(e, header), nil
	case LinkAddEntry:
		return NewLinkAddAspect(e.GetLinkData(), header), nil
	case LinkRemoveEntry:
		return NewLinkRemoveAspect(e.GetLinkData(), e.GetRemovals(), header), nil
	case DeletionEntry:
		return NewDeletionAspect(header), nil
	default:
		return nil, xerrors.Errorf("unsupported entry '%T'", entry)
	}
}

// ContentAspect carries the full content of an entry with its originating
// header. Content alone is never gossiped: the receiving node needs the
// provenance to validate it.
//
// - implements types.EntryAspect
type ContentAspect struct {
	entry  Entry
	header ChainHeader
}

// NewContentAspect creates a new content fact from the entry and its
// header.
func NewContentAspect(entry Entry, header ChainHeader) ContentAspect {
	return ContentAspect{
		entry:  entry,
		header: header,
	}
}

// GetEntry returns the entry of the fact.
func (a ContentAspect) GetEntry() Entry {
	return a.entry
}

// GetTypeHint implements types.EntryAspect. It returns the content tag.
func (a ContentAspect) GetTypeHint() string {
	return "content"
}

// GetHeader implements types.EntryAspect. It returns the header of the
// fact.
func (a ContentAspect) GetHeader() ChainHeader {
	return a.header
}

// GetEntryAddress implements types.EntryAspect. It returns the entry
// address recorded in the header. The header is trusted: the address is
// never recomputed from the content.
func (a ContentAspect) GetEntryAddress() (Address, error) {
	return a.header.GetEntryAddress(), nil
}

// Equal implements types.EntryAspect. It returns true when the other
// aspect is a content fact with the same entry and header.
func (a ContentAspect) Equal(other EntryAspect) bool {
	aspect, ok := other.(ContentAspect)
	return ok && a.header == aspect.header && a.entry.Equal(aspect.entry)
}

// Hash implements types.EntryAspect. It returns the hash of the header and
// the type hint.
func (a ContentAspect) Hash() uint64 {
	return aspectHash(a)
}

// Serialize implements serde.Message. It returns the serialized data of the
// aspect.
func (a ContentAspect) Serialize(ctx serde.Context) ([]byte, error) {
	return serializeAspect(ctx, a)
}

// String implements fmt.Stringer. It returns a summary of the fact.
func (a ContentAspect) String() string {
	return fmt.Sprintf("Content(%s, %s)", a.entry.GetAddress(), formatHeader(a.header))
}

// HeaderAspect carries a header alone, for instance to remember that an
// entry existed after its content was deleted. No producer constructs it
// yet, but the case stays defined so that the wire format does not change
// the day one does.
//
// - implements types.EntryAspect
type HeaderAspect struct {
	header ChainHeader
}

// NewHeaderAspect creates a new header-only fact.
func NewHeaderAspect(header ChainHeader) HeaderAspect {
	return HeaderAspect{header: header}
}

// GetTypeHint implements types.EntryAspect. It returns the header tag.
func (a HeaderAspect) GetTypeHint() string {
	return "header"
}

// GetHeader implements types.EntryAspect. It returns the header of the
// fact.
func (a HeaderAspect) GetHeader() ChainHeader {
	return a.header
}

// GetEntryAddress implements types.EntryAspect. It returns the address of
// the header itself.
func (a HeaderAspect) GetEntryAddress() (Address, error) {
	return a.header.GetAddress(), nil
}

// Equal implements types.EntryAspect. It returns true when the other
// aspect is a header fact with the same header.
func (a HeaderAspect) Equal(other EntryAspect) bool {
	aspect, ok := other.(HeaderAspect)
	return ok && a.header == aspect.header
}

// Hash implements types.EntryAspect. It returns the hash of the header and
// the type hint.
func (a HeaderAspect) Hash() uint64 {
	return aspectHash(a)
}

// Serialize implements serde.Message. It returns the serialized data of the
// aspect.
func (a HeaderAspect) Serialize(ctx serde.Context) ([]byte, error) {
	return serializeAspect(ctx, a)
}

// String implements fmt.Stringer. It returns a summary of the fact.
func (a HeaderAspect) String() string {
	return fmt.Sprintf("Header(%s)", formatHeader(a.header))
}

// LinkAddAspect carries a link creation fact. The header validates the link
// statement.
//
// - implements types.EntryAspect
type LinkAddAspect struct {
	link   LinkData
	header ChainHeader
}

// NewLinkAddAspect creates a new link creation fact from the link data and
// the header of the link entry.
func NewLinkAddAspect(link LinkData, header ChainHeader) LinkAddAspect {
	return LinkAddAspect{
		link:   link,
		header: header,
	}
}

// GetLinkData returns the link data of the fact.
func (a LinkAddAspect) GetLinkData() LinkData {
	return a.link
}

// GetTypeHint implements types.EntryAspect. It returns the link addition
// tag.
func (a LinkAddAspect) GetTypeHint() string {
	return "link_add"
}

// GetHeader implements types.EntryAspect. It returns the header of the
// fact.
func (a LinkAddAspect) GetHeader() ChainHeader {
	return a.header
}

// GetEntryAddress implements types.EntryAspect. It returns the base address
// of the link, the entry the link is about, never the address of the link
// statement itself.
func (a LinkAddAspect) GetEntryAddress() (Address, error) {
	return a.link.GetLink().GetBase(), nil
}

// Equal implements types.EntryAspect. It returns true when the other
// aspect is a link creation with the same link data and header.
func (a LinkAddAspect) Equal(other EntryAspect) bool {
	aspect, ok := other.(LinkAddAspect)
	return ok && a.header == aspect.header && a.link == aspect.link
}

// Hash implements types.EntryAspect. It returns the hash of the header and
// the type hint.
func (a LinkAddAspect) Hash() uint64 {
	return aspectHash(a)
}

// Serialize implements serde.Message. It returns the serialized data of the
// aspect.
func (a LinkAddAspect) Serialize(ctx serde.Context) ([]byte, error) {
	return serializeAspect(ctx, a)
}

// String implements fmt.Stringer. It returns a summary of the fact.
func (a LinkAddAspect) String() string {
	link := a.link.GetLink()

	return fmt.Sprintf("LinkAdd(%s -> %s [tag: %s, type: %s], %s)",
		link.GetBase(), link.GetTarget(), link.GetTag(), link.GetLinkType(),
		formatHeader(a.header))
}

// LinkRemoveAspect carries a link removal fact: the original link data and
// the addresses of the chain entries that removed it.
//
// - implements types.EntryAspect
type LinkRemoveAspect struct {
	link     LinkData
	removals []Address
	header   ChainHeader
}

// NewLinkRemoveAspect creates a new link removal fact from the original
// link data, the removal addresses and the header of the removal entry.
func NewLinkRemoveAspect(link LinkData, removals []Address, header ChainHeader) LinkRemoveAspect {
	return LinkRemoveAspect{
		link:     link,
		removals: append([]Address{}, removals...),
		header:   header,
	}
}

// GetLinkData returns the link data of the fact.
func (a LinkRemoveAspect) GetLinkData() LinkData {
	return a.link
}

// GetRemovals returns the addresses of the chain entries that removed the
// link.
func (a LinkRemoveAspect) GetRemovals() []Address {
	return append([]Address{}, a.removals...)
}

// GetTypeHint implements types.EntryAspect. It returns the link removal
// tag.
func (a LinkRemoveAspect) GetTypeHint() string {
	return "link_remove"
}

// GetHeader implements types.EntryAspect. It returns the header of the
// fact.
func (a LinkRemoveAspect) GetHeader() ChainHeader {
	return a.header
}

// GetEntryAddress implements types.EntryAspect. It returns the base address
// of the link, the entry the link is about.
func (a LinkRemoveAspect) GetEntryAddress() (Address, error) {
	return a.link.GetLink().GetBase(), nil
}

// Equal implements types.EntryAspect. It returns true when the other
// aspect is a link removal with the same link data, removals and header.
func (a LinkRemoveAspect) Equal(other EntryAspect) bool {
	aspect, ok := other.(LinkRemoveAspect)
	if !ok || a.header != aspect.header || a.link != aspect.link {
		return false
	}

	if len(a.removals) != len(aspect.removals) {
		return false
	}

	for i, addr := range a.removals {
		if addr != aspect.removals[i] {
			return false
		}
	}

	return true
}

// Hash implements types.EntryAspect. It returns the hash of the header and
// the type hint.
func (a LinkRemoveAspect) Hash() uint64 {
	return aspectHash(a)
}

// Serialize implements serde.Message. It returns the serialized data of the
// aspect.
func (a LinkRemoveAspect) Serialize(ctx serde.Context) ([]byte, error) {
	return serializeAspect(ctx, a)
}

// String implements fmt.Stringer. It returns a summary of the fact,
// including the header of the chain tip the link was created under.
func (a LinkRemoveAspect) String() string {
	link := a.link.GetLink()

	return fmt.Sprintf("LinkRemove(%s -> %s [tag: %s, type: %s], top: %s, removed by: %s)",
		link.GetBase(), link.GetTarget(), link.GetTag(), link.GetLinkType(),
		formatHeader(a.link.GetTopHeader()), formatHeader(a.header))
}

// UpdateAspect carries the new version of an entry with the header of that
// new version. The header must supersede the original entry.
//
// - implements types.EntryAspect
type UpdateAspect struct {
	entry  Entry
	header ChainHeader
}

// NewUpdateAspect creates a new update fact from the new entry and its
// header.
func NewUpdateAspect(entry Entry, header ChainHeader) UpdateAspect {
	return UpdateAspect{
		entry:  entry,
		header: header,
	}
}

// GetEntry returns the new version of the entry.
func (a UpdateAspect) GetEntry() Entry {
	return a.entry
}

// GetTypeHint implements types.EntryAspect. It returns the update tag.
func (a UpdateAspect) GetTypeHint() string {
	return "update"
}

// GetHeader implements types.EntryAspect. It returns the header of the
// fact.
func (a UpdateAspect) GetHeader() ChainHeader {
	return a.header
}

// GetEntryAddress implements types.EntryAspect. It returns the address of
// the superseded entry, or an error when the header carries no supersede
// reference.
func (a UpdateAspect) GetEntryAddress() (Address, error) {
	return resolveSupersede(a.header)
}

// Equal implements types.EntryAspect. It returns true when the other
// aspect is an update with the same entry and header.
func (a UpdateAspect) Equal(other EntryAspect) bool {
	aspect, ok := other.(UpdateAspect)
	return ok && a.header == aspect.header && a.entry.Equal(aspect.entry)
}

// Hash implements types.EntryAspect. It returns the hash of the header and
// the type hint.
func (a UpdateAspect) Hash() uint64 {
	return aspectHash(a)
}

// Serialize implements serde.Message. It returns the serialized data of the
// aspect.
func (a UpdateAspect) Serialize(ctx serde.Context) ([]byte, error) {
	return serializeAspect(ctx, a)
}

// String implements fmt.Stringer. It returns a summary of the fact.
func (a UpdateAspect) String() string {
	return fmt.Sprintf("Update(%s, %s)", a.entry.GetAddress(), formatHeader(a.header))
}

// DeletionAspect carries a deletion fact. The address of the deleted entry
// is only recoverable through the supersede reference of the header.
//
// - implements types.EntryAspect
type DeletionAspect struct {
	header ChainHeader
}

// NewDeletionAspect creates a new deletion fact from the header of the
// deletion entry.
func NewDeletionAspect(header ChainHeader) DeletionAspect {
	return DeletionAspect{header: header}
}

// GetTypeHint implements types.EntryAspect. It returns the deletion tag.
func (a DeletionAspect) GetTypeHint() string {
	return "deletion"
}

// GetHeader implements types.EntryAspect. It returns the header of the
// fact.
func (a DeletionAspect) GetHeader() ChainHeader {
	return a.header
}

// GetEntryAddress implements types.EntryAspect. It returns the address of
// the deleted entry, or an error when the header carries no supersede
// reference.
func (a DeletionAspect) GetEntryAddress() (Address, error) {
	return resolveSupersede(a.header)
}

// Equal implements types.EntryAspect. It returns true when the other
// aspect is a deletion with the same header.
func (a DeletionAspect) Equal(other EntryAspect) bool {
	aspect, ok := other.(DeletionAspect)
	return ok && a.header == aspect.header
}

// Hash implements types.EntryAspect. It returns the hash of the header and
// the type hint.
func (a DeletionAspect) Hash() uint64 {
	return aspectHash(a)
}

// Serialize implements serde.Message. It returns the serialized data of the
// aspect.
func (a DeletionAspect) Serialize(ctx serde.Context) ([]byte, error) {
	return serializeAspect(ctx, a)
}

// String implements fmt.Stringer. It returns a summary of the fact.
func (a DeletionAspect) String() string {
	return fmt.Sprintf("Deletion(%s)", formatHeader(a.header))
}

// AspectFactory is a factory to deserialize entry aspects.
//
// - implements serde.Factory
type AspectFactory struct {
	entryFactory  serde.Factory
	headerFactory serde.Factory
	linkFactory   serde.Factory
}

// NewAspectFactory creates a new factory.
func NewAspectFactory() AspectFactory {
	return AspectFactory{
		entryFactory:  EntryFactory{},
		headerFactory: HeaderFactory{},
		linkFactory:   LinkDataFactory{},
	}
}

// Deserialize implements serde.Factory. It returns the aspect of the data
// if appropriate, otherwise it returns an error.
func (f AspectFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	return f.AspectOf(ctx, data)
}

// AspectOf returns the aspect of the data if appropriate, otherwise it
// returns an error.
func (f AspectFactory) AspectOf(ctx serde.Context, data []byte) (EntryAspect, error) {
	format := aspectFormats.Get(ctx.GetFormat())

	ctx = serde.WithFactory(ctx, EntryKey{}, f.entryFactory)
	ctx = serde.WithFactory(ctx, HeaderKey{}, f.headerFactory)
	ctx = serde.WithFactory(ctx, LinkKey{}, f.linkFactory)

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode aspect: %v", err)
	}

	aspect, ok := msg.(EntryAspect)
	if !ok {
		return nil, xerrors.Errorf("invalid aspect of type '%T'", msg)
	}

	return aspect, nil
}
