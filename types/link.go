// This file contains the implementation of the link statements: a directed,
// tagged relation between two entries of the store.

package types

import (
	"io"

	"go.dedis.ch/dht/serde"
	"go.dedis.ch/dht/serde/registry"
	"golang.org/x/xerrors"
)

var linkFormats = registry.NewSimpleRegistry()

// RegisterLinkFormat registers the engine for the provided format.
func RegisterLinkFormat(c serde.Format, f serde.FormatEngine) {
	linkFormats.Register(c, f)
}

// Link is a directed relation from a base entry to a target entry,
// qualified by a link type and a free-form tag.
type Link struct {
	base     Address
	target   Address
	linkType string
	tag      string
}

// NewLink creates a new link between the base and the target.
func NewLink(base, target Address, linkType, tag string) Link {
	return Link{
		base:     base,
		target:   target,
		linkType: linkType,
		tag:      tag,
	}
}

// GetBase returns the address of the entry the link is attached to.
func (l Link) GetBase() Address {
	return l.base
}

// GetTarget returns the address of the entry the link points at.
func (l Link) GetTarget() Address {
	return l.target
}

// GetLinkType returns the type of the link.
func (l Link) GetLinkType() string {
	return l.linkType
}

// GetTag returns the tag of the link.
func (l Link) GetTag() string {
	return l.tag
}

// Equal returns true when both links have exactly the same fields.
func (l Link) Equal(other Link) bool {
	return l == other
}

// Fingerprint implements serde.Fingerprinter. It writes a deterministic
// binary representation of the link into the writer.
func (l Link) Fingerprint(w io.Writer) error {
	err := writeString(w, string(l.base))
	if err != nil {
		return xerrors.Errorf("couldn't write base: %v", err)
	}

	err = writeString(w, string(l.target))
	if err != nil {
		return xerrors.Errorf("couldn't write target: %v", err)
	}

	err = writeString(w, l.linkType)
	if err != nil {
		return xerrors.Errorf("couldn't write link type: %v", err)
	}

	err = writeString(w, l.tag)
	if err != nil {
		return xerrors.Errorf("couldn't write tag: %v", err)
	}

	return nil
}

// LinkData pairs a link with the header of the author's chain tip at the
// time the link was created. Wrapping a LinkData into a link entry rebuilds
// the exact entry that header describes, so a link fact cannot drift from
// its provenance.
//
// - implements serde.Message
// - implements serde.Fingerprinter
type LinkData struct {
	link Link
	top  ChainHeader
}

// NewLinkData creates a new link data from the link and the top chain
// header.
func NewLinkData(link Link, top ChainHeader) LinkData {
	return LinkData{
		link: link,
		top:  top,
	}
}

// GetLink returns the link.
func (ld LinkData) GetLink() Link {
	return ld.link
}

// GetTopHeader returns the header of the chain tip at creation time.
func (ld LinkData) GetTopHeader() ChainHeader {
	return ld.top
}

// Equal returns true when both link data have exactly the same fields.
func (ld LinkData) Equal(other LinkData) bool {
	return ld == other
}

// Fingerprint implements serde.Fingerprinter. It writes a deterministic
// binary representation of the link data into the writer.
func (ld LinkData) Fingerprint(w io.Writer) error {
	err := ld.link.Fingerprint(w)
	if err != nil {
		return xerrors.Errorf("couldn't write link: %v", err)
	}

	err = ld.top.Fingerprint(w)
	if err != nil {
		return xerrors.Errorf("couldn't write top header: %v", err)
	}

	return nil
}

// Serialize implements serde.Message. It returns the serialized data of the
// link data.
func (ld LinkData) Serialize(ctx serde.Context) ([]byte, error) {
	format := linkFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, ld)
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode link data: %v", err)
	}

	return data, nil
}

// LinkKey is the key of the link data factory.
type LinkKey struct{}

// LinkDataFactory is a factory to deserialize link data.
//
// - implements serde.Factory
type LinkDataFactory struct{}

// Deserialize implements serde.Factory. It returns the link data of the
// data if appropriate, otherwise it returns an error.
func (f LinkDataFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	return f.LinkDataOf(ctx, data)
}

// LinkDataOf returns the link data of the data if appropriate, otherwise it
// returns an error.
func (f LinkDataFactory) LinkDataOf(ctx serde.Context, data []byte) (LinkData, error) {
	format := linkFormats.Get(ctx.GetFormat())

	ctx = serde.WithFactory(ctx, HeaderKey{}, HeaderFactory{})

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return LinkData{}, xerrors.Errorf("couldn't decode link data: %v", err)
	}

	linkData, ok := msg.(LinkData)
	if !ok {
		return LinkData{}, xerrors.Errorf("invalid link data of type '%T'", msg)
	}

	return linkData, nil
}
