// Package json defines the JSON format engines for the messages of the
// module: the entry aspects, the entries, the chain headers and the link
// data. The formats are registered when the package is imported.
package json

import (
	"encoding/json"

	"go.dedis.ch/dht/serde"
	"go.dedis.ch/dht/types"
	"golang.org/x/xerrors"
)

func init() {
	types.RegisterAspectFormat(serde.FormatJSON, aspectFormat{})
	types.RegisterEntryFormat(serde.FormatJSON, entryFormat{})
	types.RegisterHeaderFormat(serde.FormatJSON, headerFormat{})
	types.RegisterLinkFormat(serde.FormatJSON, linkFormat{})
}

// HeaderJSON is the JSON message for a chain header. The own address of the
// header does not travel: it is recomputed from the other fields.
type HeaderJSON struct {
	EntryType    string
	EntryAddress string
	Previous     string `json:",omitempty"`
	Supersede    string `json:",omitempty"`
}

// LinkDataJSON is the JSON message for a link and the chain tip header it
// was created under.
type LinkDataJSON struct {
	Base      string
	Target    string
	LinkType  string
	Tag       string
	TopHeader json.RawMessage
}

// EntryJSON is the JSON message for an entry. Kind discriminates the
// payload.
type EntryJSON struct {
	Kind     string
	Value    []byte          `json:",omitempty"`
	Link     json.RawMessage `json:",omitempty"`
	Removals []string        `json:",omitempty"`
	Deletes  string          `json:",omitempty"`
}

// AspectJSON is the JSON message for an entry aspect. Kind discriminates
// the variant and matches the type hint.
type AspectJSON struct {
	Kind     string
	Entry    json.RawMessage `json:",omitempty"`
	Link     json.RawMessage `json:",omitempty"`
	Removals []string        `json:",omitempty"`
	Header   json.RawMessage
}

// headerFormat is the engine to encode and decode chain headers in JSON
// format.
//
// - implements serde.FormatEngine
type headerFormat struct{}

// Encode implements serde.FormatEngine. It returns the serialized data of
// the header if appropriate, otherwise it returns an error.
func (f headerFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	header, ok := msg.(types.ChainHeader)
	if !ok {
		return nil, xerrors.Errorf("unsupported message '%T'", msg)
	}

	m := HeaderJSON{
		EntryType:    string(header.GetEntryType()),
		EntryAddress: header.GetEntryAddress().String(),
	}

	if prev, ok := header.GetPrevious(); ok {
		m.Previous = prev.String()
	}

	if ref, ok := header.GetSupersede(); ok {
		m.Supersede = ref.String()
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal header: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It populates the header if
// appropriate, otherwise it returns an error.
func (f headerFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := HeaderJSON{}

	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't unmarshal header: %v", err)
	}

	opts := []types.ChainHeaderOption{}

	if m.Previous != "" {
		opts = append(opts, types.WithPrevious(types.Address(m.Previous)))
	}

	if m.Supersede != "" {
		opts = append(opts, types.WithSupersede(types.Address(m.Supersede)))
	}

	header, err := types.NewChainHeader(types.EntryType(m.EntryType),
		types.Address(m.EntryAddress), opts...)
	if err != nil {
		return nil, xerrors.Errorf("couldn't create header: %v", err)
	}

	return header, nil
}

// linkFormat is the engine to encode and decode link data in JSON format.
//
// - implements serde.FormatEngine
type linkFormat struct{}

// Encode implements serde.FormatEngine. It returns the serialized data of
// the link data if appropriate, otherwise it returns an error.
func (f linkFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	linkData, ok := msg.(types.LinkData)
	if !ok {
		return nil, xerrors.Errorf("unsupported message '%T'", msg)
	}

	top, err := linkData.GetTopHeader().Serialize(ctx)
	if err != nil {
		return nil, xerrors.Errorf("couldn't serialize top header: %v", err)
	}

	link := linkData.GetLink()

	m := LinkDataJSON{
		Base:      link.GetBase().String(),
		Target:    link.GetTarget().String(),
		LinkType:  link.GetLinkType(),
		Tag:       link.GetTag(),
		TopHeader: top,
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal link data: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It populates the link data if
// appropriate, otherwise it returns an error.
func (f linkFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := LinkDataJSON{}

	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't unmarshal link data: %v", err)
	}

	top, err := decodeHeader(ctx, m.TopHeader)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode top header: %v", err)
	}

	link := types.NewLink(types.Address(m.Base), types.Address(m.Target),
		m.LinkType, m.Tag)

	return types.NewLinkData(link, top), nil
}

// entryFormat is the engine to encode and decode entries in JSON format.
//
// - implements serde.FormatEngine
type entryFormat struct{}

// Encode implements serde.FormatEngine. It returns the serialized data of
// the entry if appropriate, otherwise it returns an error.
func (f entryFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	m := EntryJSON{}

	switch entry := msg.(type) {
	case types.AppEntry:
		m.Kind = string(types.EntryTypeApp)
		m.Value = entry.GetValue()
	case types.LinkAddEntry:
		link, err := entry.GetLinkData().Serialize(ctx)
		if err != nil {
			return nil, xerrors.Errorf("couldn't serialize link data: %v", err)
		}

		m.Kind = string(types.EntryTypeLinkAdd)
		m.Link = link
	case types.LinkRemoveEntry:
		link, err := entry.GetLinkData().Serialize(ctx)
		if err != nil {
			return nil, xerrors.Errorf("couldn't serialize link data: %v", err)
		}

		m.Kind = string(types.EntryTypeLinkRemove)
		m.Link = link
		m.Removals = addrsToText(entry.GetRemovals())
	case types.DeletionEntry:
		m.Kind = string(types.EntryTypeDeletion)
		m.Deletes = entry.GetDeletedAddress().String()
	default:
		return nil, xerrors.Errorf("unsupported message '%T'", msg)
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal entry: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It populates the entry if
// appropriate, otherwise it returns an error.
func (f entryFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := EntryJSON{}

	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't unmarshal entry: %v", err)
	}

	switch m.Kind {
	case string(types.EntryTypeApp):
		entry, err := types.NewAppEntry(m.Value)
		if err != nil {
			return nil, xerrors.Errorf("couldn't create entry: %v", err)
		}

		return entry, nil
	case string(types.EntryTypeLinkAdd):
		link, err := decodeLink(ctx, m.Link)
		if err != nil {
			return nil, xerrors.Errorf("couldn't decode link data: %v", err)
		}

		entry, err := types.NewLinkAddEntry(link)
		if err != nil {
			return nil, xerrors.Errorf("couldn't create entry: %v", err)
		}

		return entry, nil
	case string(types.EntryTypeLinkRemove):
		link, err := decodeLink(ctx, m.Link)
		if err != nil {
			return nil, xerrors.Errorf("couldn't decode link data: %v", err)
		}

		entry, err := types.NewLinkRemoveEntry(link, addrsFromText(m.Removals))
		if err != nil {
			return nil, xerrors.Errorf("couldn't create entry: %v", err)
		}

		return entry, nil
	case string(types.EntryTypeDeletion):
		entry, err := types.NewDeletionEntry(types.Address(m.Deletes))
		if err != nil {
			return nil, xerrors.Errorf("couldn't create entry: %v", err)
		}

		return entry, nil
	default:
		return nil, xerrors.Errorf("unsupported entry kind '%s'", m.Kind)
	}
}

// aspectFormat is the engine to encode and decode entry aspects in JSON
// format.
//
// - implements serde.FormatEngine
type aspectFormat struct{}

// Encode implements serde.FormatEngine. It returns the serialized data of
// the aspect if appropriate, otherwise it returns an error.
func (f aspectFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	aspect, ok := msg.(types.EntryAspect)
	if !ok {
		return nil, xerrors.Errorf("unsupported message '%T'", msg)
	}

	header, err := aspect.GetHeader().Serialize(ctx)
	if err != nil {
		return nil, xerrors.Errorf("couldn't serialize header: %v", err)
	}

	m := AspectJSON{
		Kind:   aspect.GetTypeHint(),
		Header: header,
	}

	switch a := aspect.(type) {
	case types.ContentAspect:
		m.Entry, err = a.GetEntry().Serialize(ctx)
		if err != nil {
			return nil, xerrors.Errorf("couldn't serialize entry: %v", err)
		}
	case types.UpdateAspect:
		m.Entry, err = a.GetEntry().Serialize(ctx)
		if err != nil {
			return nil, xerrors.Errorf("couldn't serialize entry: %v", err)
		}
	case types.LinkAddAspect:
		m.Link, err = a.GetLinkData().Serialize(ctx)
		if err != nil {
			return nil, xerrors.Errorf("couldn't serialize link data: %v", err)
		}
	case types.LinkRemoveAspect:
		m.Link, err = a.GetLinkData().Serialize(ctx)
		if err != nil {
			return nil, xerrors.Errorf("couldn't serialize link data: %v", err)
		}

		m.Removals = addrsToText(a.GetRemovals())
	case types.HeaderAspect, types.DeletionAspect:
		// Header-only facts, nothing else travels.
	default:
		return nil, xerrors.Errorf("unsupported message '%T'", msg)
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal aspect: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It populates the aspect if
// appropriate, otherwise it returns an error.
func (f aspectFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := AspectJSON{}

	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't unmarshal aspect: %v", err)
	}

	header, err := decodeHeader(ctx, m.Header)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode header: %v", err)
	}

	switch m.Kind {
	case "content":
		entry, err := decodeEntry(ctx, m.Entry)
		if err != nil {
			return nil, xerrors.Errorf("couldn't decode entry: %v", err)
		}

		return types.NewContentAspect(entry, header), nil
	case "header":
		return types.NewHeaderAspect(header), nil
	case "link_add":
		link, err := decodeLink(ctx, m.Link)
		if err != nil {
			return nil, xerrors.Errorf("couldn't decode link data: %v", err)
		}

		return types.NewLinkAddAspect(link, header), nil
	case "link_remove":
		link, err := decodeLink(ctx, m.Link)
		if err != nil {
			return nil, xerrors.Errorf("couldn't decode link data: %v", err)
		}

		return types.NewLinkRemoveAspect(link, addrsFromText(m.Removals), header), nil
	case "update":
		entry, err := decodeEntry(ctx, m.Entry)
		if err != nil {
			return nil, xerrors.Errorf("couldn't decode entry: %v", err)
		}

		return types.NewUpdateAspect(entry, header), nil
	case "deletion":
		return types.NewDeletionAspect(header), nil
	default:
		return nil, xerrors.Errorf("unsupported aspect kind '%s'", m.Kind)
	}
}

func decodeHeader(ctx serde.Context, data []byte) (types.ChainHeader, error) {
	factory := ctx.GetFactory(types.HeaderKey{})

	fac, ok := factory.(types.HeaderFactory)
	if !ok {
		return types.ChainHeader{}, xerrors.Errorf("invalid header factory '%T'", factory)
	}

	return fac.HeaderOf(ctx, data)
}

func decodeLink(ctx serde.Context, data []byte) (types.LinkData, error) {
	factory := ctx.GetFactory(types.LinkKey{})

	fac, ok := factory.(types.LinkDataFactory)
	if !ok {
		return types.LinkData{}, xerrors.Errorf("invalid link data factory '%T'", factory)
	}

	return fac.LinkDataOf(ctx, data)
}

func decodeEntry(ctx serde.Context, data []byte) (types.Entry, error) {
	factory := ctx.GetFactory(types.EntryKey{})

	fac, ok := factory.(types.EntryFactory)
	if !ok {
		return nil, xerrors.Errorf("invalid entry factory '%T'", factory)
	}

	return fac.EntryOf(ctx, data)
}

func addrsToText(addrs []types.Address) []string {
	text := make([]string, len(addrs))
	for i, addr := range addrs {
		text[i] = addr.String()
	}

	return text
}

func addrsFromText(text []string) []types.Address {
	addrs := make([]types.Address, len(text))
	for i, value := range text {
		addrs[i] = types.Address(value)
	}

	return addrs
}
