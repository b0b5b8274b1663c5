package json

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/dht/serde"
	"go.dedis.ch/dht/types"
)

func TestJsonEngine_GetFormat(t *testing.T) {
	ctx := NewContext()

	require.Equal(t, serde.FormatJSON, ctx.GetFormat())
}

func TestJsonEngine_Marshal(t *testing.T) {
	ctx := NewContext()

	data, err := ctx.Marshal(struct{ Value string }{Value: "hello"})
	require.NoError(t, err)
	require.Equal(t, `{"Value":"hello"}`, string(data))

	_, err = ctx.Marshal(func() {})
	require.Error(t, err)
}

func TestJsonEngine_Unmarshal(t *testing.T) {
	ctx := NewContext()

	m := struct{ Value string }{}

	err := ctx.Unmarshal([]byte(`{"Value":"hello"}`), &m)
	require.NoError(t, err)
	require.Equal(t, "hello", m.Value)

	err = ctx.Unmarshal([]byte(`oops`), &m)
	require.Error(t, err)
}

// Every aspect variant must come back equal after a trip through the wire
// format.
func TestJsonEngine_AspectRoundTrip(t *testing.T) {
	ctx := NewContext()
	factory := types.NewAspectFactory()

	for _, aspect := range makeAspects(t) {
		data, err := aspect.Serialize(ctx)
		require.NoError(t, err)

		decoded, err := factory.AspectOf(ctx, data)
		require.NoError(t, err)

		require.True(t, aspect.Equal(decoded), aspect.String())
		require.Equal(t, aspect.GetTypeHint(), decoded.GetTypeHint())
		require.Equal(t, aspect.Hash(), decoded.Hash())
	}
}

// Equal aspects must serialize to identical bytes, so that the wire form
// can be compared or hashed directly.
func TestJsonEngine_AspectDeterminism(t *testing.T) {
	ctx := NewContext()

	aspects := makeAspects(t)
	rebuilt := makeAspects(t)

	for i, aspect := range aspects {
		left, err := aspect.Serialize(ctx)
		require.NoError(t, err)

		right, err := rebuilt[i].Serialize(ctx)
		require.NoError(t, err)

		require.Equal(t, left, right)
	}
}

// -----------------------------------------------------------------------------
// Utility functions

func makeAspects(t *testing.T) []types.EntryAspect {
	entry, err := types.NewAppEntry([]byte("hello"))
	require.NoError(t, err)

	top, err := types.NewChainHeader(types.EntryTypeApp, types.Address("aa"))
	require.NoError(t, err)

	link := types.NewLink(types.Address("aa"), types.Address("bb"), "follows", "friend")
	linkData := types.NewLinkData(link, top)

	header := func(typ types.EntryType, addr types.Address,
		opts ...types.ChainHeaderOption) types.ChainHeader {

		h, err := types.NewChainHeader(typ, addr, opts...)
		require.NoError(t, err)

		return h
	}

	return []types.EntryAspect{
		types.NewContentAspect(entry,
			header(types.EntryTypeApp, entry.GetAddress())),
		types.NewHeaderAspect(
			header(types.EntryTypeApp, entry.GetAddress(),
				types.WithPrevious(types.Address("bb")))),
		types.NewLinkAddAspect(linkData,
			header(types.EntryTypeLinkAdd, types.Address("ff"))),
		types.NewLinkRemoveAspect(linkData, []types.Address{"dd"},
			header(types.EntryTypeLinkRemove, types.Address("ff"))),
		types.NewUpdateAspect(entry,
			header(types.EntryTypeApp, entry.GetAddress(),
				types.WithSupersede(types.Address("cc")))),
		types.NewDeletionAspect(
			header(types.EntryTypeDeletion, types.Address("ee"),
				types.WithSupersede(types.Address("cc")))),
	}
}
