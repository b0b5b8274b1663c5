package json

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/dht/internal/testing/fake"
	"go.dedis.ch/dht/serde"
	"go.dedis.ch/dht/types"
)

func TestHeaderFormat_Encode(t *testing.T) {
	format := headerFormat{}

	ctx := fake.NewContext()

	header, err := types.NewChainHeader(types.EntryTypeApp, types.Address("aa"),
		types.WithPrevious(types.Address("bb")),
		types.WithSupersede(types.Address("cc")))
	require.NoError(t, err)

	data, err := format.Encode(ctx, header)
	require.NoError(t, err)
	require.Equal(t,
		`{"EntryType":"app","EntryAddress":"aa","Previous":"bb","Supersede":"cc"}`,
		string(data))

	bare, err := types.NewChainHeader(types.EntryTypeApp, types.Address("aa"))
	require.NoError(t, err)

	data, err = format.Encode(ctx, bare)
	require.NoError(t, err)
	require.Equal(t, `{"EntryType":"app","EntryAddress":"aa"}`, string(data))

	_, err = format.Encode(ctx, fake.Message{})
	require.EqualError(t, err, "unsupported message 'fake.Message'")

	_, err = format.Encode(fake.NewBadContext(), header)
	require.EqualError(t, err, fake.Err("couldn't marshal header"))
}

func TestHeaderFormat_Decode(t *testing.T) {
	format := headerFormat{}

	ctx := fake.NewContext()

	expected, err := types.NewChainHeader(types.EntryTypeApp, types.Address("aa"),
		types.WithSupersede(types.Address("cc")))
	require.NoError(t, err)

	msg, err := format.Decode(ctx,
		[]byte(`{"EntryType":"app","EntryAddress":"aa","Supersede":"cc"}`))
	require.NoError(t, err)
	require.Equal(t, expected, msg)

	_, err = format.Decode(fake.NewBadContext(), nil)
	require.EqualError(t, err, fake.Err("couldn't unmarshal header"))
}

func TestLinkFormat_Encode(t *testing.T) {
	format := linkFormat{}

	ctx := fake.NewContextWithFormat(serde.FormatJSON)

	data, err := format.Encode(ctx, makeLinkData(t))
	require.NoError(t, err)
	require.Equal(t,
		`{"Base":"aa","Target":"bb","LinkType":"follows","Tag":"friend",`+
			`"TopHeader":{"EntryType":"app","EntryAddress":"aa"}}`,
		string(data))

	_, err = format.Encode(ctx, fake.Message{})
	require.EqualError(t, err, "unsupported message 'fake.Message'")

	_, err = format.Encode(fake.NewBadContext(), makeLinkData(t))
	require.EqualError(t, err, "couldn't serialize top header: "+
		"couldn't encode header: format 'BAD_FORMAT' is not implemented")
}

func TestLinkFormat_Decode(t *testing.T) {
	format := linkFormat{}

	ctx := fake.NewContextWithFormat(serde.FormatJSON)
	ctx = serde.WithFactory(ctx, types.HeaderKey{}, types.HeaderFactory{})

	data := []byte(`{"Base":"aa","Target":"bb","LinkType":"follows","Tag":"friend",` +
		`"TopHeader":{"EntryType":"app","EntryAddress":"aa"}}`)

	msg, err := format.Decode(ctx, data)
	require.NoError(t, err)
	require.Equal(t, makeLinkData(t), msg)

	_, err = format.Decode(fake.NewBadContext(), nil)
	require.EqualError(t, err, fake.Err("couldn't unmarshal link data"))

	noFactory := fake.NewContextWithFormat(serde.FormatJSON)
	_, err = format.Decode(noFactory, data)
	require.EqualError(t, err,
		"couldn't decode top header: invalid header factory '<nil>'")
}

func TestEntryFormat_Encode(t *testing.T) {
	format := entryFormat{}

	ctx := fake.NewContextWithFormat(serde.FormatJSON)

	app, err := types.NewAppEntry([]byte("hello"))
	require.NoError(t, err)

	data, err := format.Encode(ctx, app)
	require.NoError(t, err)
	require.Equal(t, `{"Kind":"app","Value":"aGVsbG8="}`, string(data))

	deletion, err := types.NewDeletionEntry(types.Address("cc"))
	require.NoError(t, err)

	data, err = format.Encode(ctx, deletion)
	require.NoError(t, err)
	require.Equal(t, `{"Kind":"deletion","Deletes":"cc"}`, string(data))

	linkAdd, err := types.NewLinkAddEntry(makeLinkData(t))
	require.NoError(t, err)

	data, err = format.Encode(ctx, linkAdd)
	require.NoError(t, err)
	require.Contains(t, string(data), `"Kind":"link_add"`)
	require.Contains(t, string(data), `"Base":"aa"`)

	linkRemove, err := types.NewLinkRemoveEntry(makeLinkData(t), []types.Address{"dd"})
	require.NoError(t, err)

	data, err = format.Encode(ctx, linkRemove)
	require.NoError(t, err)
	require.Contains(t, string(data), `"Kind":"link_remove"`)
	require.Contains(t, string(data), `"Removals":["dd"]`)

	_, err = format.Encode(ctx, fake.Message{})
	require.EqualError(t, err, "unsupported message 'fake.Message'")

	_, err = format.Encode(fake.NewBadContext(), app)
	require.EqualError(t, err, fake.Err("couldn't marshal entry"))

	_, err = format.Encode(fake.NewBadContext(), linkAdd)
	require.EqualError(t, err, "couldn't serialize link data: "+
		"couldn't encode link data: format 'BAD_FORMAT' is not implemented")
}

func TestEntryFormat_Decode(t *testing.T) {
	format := entryFormat{}

	ctx := fake.NewContextWithFormat(serde.FormatJSON)
	ctx = serde.WithFactory(ctx, types.LinkKey{}, types.LinkDataFactory{})

	app, err := types.NewAppEntry([]byte("hello"))
	require.NoError(t, err)

	msg, err := format.Decode(ctx, []byte(`{"Kind":"app","Value":"aGVsbG8="}`))
	require.NoError(t, err)
	require.Equal(t, app, msg)

	deletion, err := types.NewDeletionEntry(types.Address("cc"))
	require.NoError(t, err)

	msg, err = format.Decode(ctx, []byte(`{"Kind":"deletion","Deletes":"cc"}`))
	require.NoError(t, err)
	require.Equal(t, deletion, msg)

	linkJSON := `{"Base":"aa","Target":"bb","LinkType":"follows","Tag":"friend",` +
		`"TopHeader":{"EntryType":"app","EntryAddress":"aa"}}`

	linkAdd, err := types.NewLinkAddEntry(makeLinkData(t))
	require.NoError(t, err)

	msg, err = format.Decode(ctx, []byte(`{"Kind":"link_add","Link":`+linkJSON+`}`))
	require.NoError(t, err)
	require.Equal(t, linkAdd, msg)

	linkRemove, err := types.NewLinkRemoveEntry(makeLinkData(t), []types.Address{"dd"})
	require.NoError(t, err)

	msg, err = format.Decode(ctx,
		[]byte(`{"Kind":"link_remove","Link":`+linkJSON+`,"Removals":["dd"]}`))
	require.NoError(t, err)
	require.Equal(t, linkRemove, msg)

	_, err = format.Decode(ctx, []byte(`{"Kind":"oops"}`))
	require.EqualError(t, err, "unsupported entry kind 'oops'")

	_, err = format.Decode(fake.NewBadContext(), nil)
	require.EqualError(t, err, fake.Err("couldn't unmarshal entry"))

	noFactory := fake.NewContextWithFormat(serde.FormatJSON)
	_, err = format.Decode(noFactory, []byte(`{"Kind":"link_add","Link":`+linkJSON+`}`))
	require.EqualError(t, err,
		"couldn't decode link data: invalid link data factory '<nil>'")
}

func TestAspectFormat_Encode(t *testing.T) {
	format := aspectFormat{}

	ctx := fake.NewContextWithFormat(serde.FormatJSON)

	header, err := types.NewChainHeader(types.EntryTypeApp, types.Address("aa"))
	require.NoError(t, err)

	data, err := format.Encode(ctx, types.NewHeaderAspect(header))
	require.NoError(t, err)
	require.Equal(t,
		`{"Kind":"header","Header":{"EntryType":"app","EntryAddress":"aa"}}`,
		string(data))

	data, err = format.Encode(ctx, types.NewDeletionAspect(header))
	require.NoError(t, err)
	require.Equal(t,
		`{"Kind":"deletion","Header":{"EntryType":"app","EntryAddress":"aa"}}`,
		string(data))

	app, err := types.NewAppEntry([]byte("hello"))
	require.NoError(t, err)

	data, err = format.Encode(ctx, types.NewContentAspect(app, header))
	require.NoError(t, err)
	require.Contains(t, string(data), `"Kind":"content"`)
	require.Contains(t, string(data), `"Value":"aGVsbG8="`)

	data, err = format.Encode(ctx, types.NewUpdateAspect(app, header))
	require.NoError(t, err)
	require.Contains(t, string(data), `"Kind":"update"`)

	data, err = format.Encode(ctx, types.NewLinkAddAspect(makeLinkData(t), header))
	require.NoError(t, err)
	require.Contains(t, string(data), `"Kind":"link_add"`)
	require.Contains(t, string(data), `"Target":"bb"`)

	aspect := types.NewLinkRemoveAspect(makeLinkData(t), []types.Address{"dd"}, header)
	data, err = format.Encode(ctx, aspect)
	require.NoError(t, err)
	require.Contains(t, string(data), `"Kind":"link_remove"`)
	require.Contains(t, string(data), `"Removals":["dd"]`)

	_, err = format.Encode(ctx, fake.Message{})
	require.EqualError(t, err, "unsupported message 'fake.Message'")

	_, err = format.Encode(ctx, fakeAspect{})
	require.EqualError(t, err, "unsupported message 'json.fakeAspect'")

	_, err = format.Encode(fake.NewBadContext(), types.NewHeaderAspect(header))
	require.EqualError(t, err, "couldn't serialize header: "+
		"couldn't encode header: format 'BAD_FORMAT' is not implemented")
}

func TestAspectFormat_Decode(t *testing.T) {
	format := aspectFormat{}

	ctx := fake.NewContextWithFormat(serde.FormatJSON)
	ctx = serde.WithFactory(ctx, types.HeaderKey{}, types.HeaderFactory{})
	ctx = serde.WithFactory(ctx, types.EntryKey{}, types.EntryFactory{})
	ctx = serde.WithFactory(ctx, types.LinkKey{}, types.LinkDataFactory{})

	header, err := types.NewChainHeader(types.EntryTypeApp, types.Address("aa"))
	require.NoError(t, err)

	headerJSON := `{"EntryType":"app","EntryAddress":"aa"}`

	msg, err := format.Decode(ctx, []byte(`{"Kind":"header","Header":`+headerJSON+`}`))
	require.NoError(t, err)
	require.Equal(t, types.NewHeaderAspect(header), msg)

	msg, err = format.Decode(ctx, []byte(`{"Kind":"deletion","Header":`+headerJSON+`}`))
	require.NoError(t, err)
	require.Equal(t, types.NewDeletionAspect(header), msg)

	app, err := types.NewAppEntry([]byte("hello"))
	require.NoError(t, err)

	entryJSON := `{"Kind":"app","Value":"aGVsbG8="}`

	msg, err = format.Decode(ctx,
		[]byte(`{"Kind":"content","Entry":`+entryJSON+`,"Header":`+headerJSON+`}`))
	require.NoError(t, err)
	require.Equal(t, types.NewContentAspect(app, header), msg)

	msg, err = format.Decode(ctx,
		[]byte(`{"Kind":"update","Entry":`+entryJSON+`,"Header":`+headerJSON+`}`))
	require.NoError(t, err)
	require.Equal(t, types.NewUpdateAspect(app, header), msg)

	linkJSON := `{"Base":"aa","Target":"bb","LinkType":"follows","Tag":"friend",` +
		`"TopHeader":{"EntryType":"app","EntryAddress":"aa"}}`

	msg, err = format.Decode(ctx,
		[]byte(`{"Kind":"link_add","Link":`+linkJSON+`,"Header":`+headerJSON+`}`))
	require.NoError(t, err)
	require.Equal(t, types.NewLinkAddAspect(makeLinkData(t), header), msg)

	msg, err = format.Decode(ctx, []byte(`{"Kind":"link_remove","Link":`+linkJSON+
		`,"Removals":["dd"],"Header":`+headerJSON+`}`))
	require.NoError(t, err)
	require.Equal(t,
		types.NewLinkRemoveAspect(makeLinkData(t), []types.Address{"dd"}, header), msg)

	_, err = format.Decode(ctx, []byte(`{"Kind":"oops","Header":`+headerJSON+`}`))
	require.EqualError(t, err, "unsupported aspect kind 'oops'")

	_, err = format.Decode(fake.NewBadContext(), nil)
	require.EqualError(t, err, fake.Err("couldn't unmarshal aspect"))

	noFactory := fake.NewContextWithFormat(serde.FormatJSON)
	_, err = format.Decode(noFactory, []byte(`{"Kind":"header","Header":`+headerJSON+`}`))
	require.EqualError(t, err,
		"couldn't decode header: invalid header factory '<nil>'")
}

// -----------------------------------------------------------------------------
// Utility functions

// fakeAspect is an aspect of a variant unknown to the format.
type fakeAspect struct {
	types.EntryAspect
}

func (a fakeAspect) GetTypeHint() string {
	return "oops"
}

func (a fakeAspect) GetHeader() types.ChainHeader {
	return types.ChainHeader{}
}

func makeLinkData(t *testing.T) types.LinkData {
	top, err := types.NewChainHeader(types.EntryTypeApp, types.Address("aa"))
	require.NoError(t, err)

	link := types.NewLink(types.Address("aa"), types.Address("bb"), "follows", "friend")

	return types.NewLinkData(link, top)
}
