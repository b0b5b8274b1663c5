package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSha256Factory_New(t *testing.T) {
	factory := NewSha256Factory()

	h := factory.New()
	require.NotNil(t, h)
	require.Equal(t, 32, h.Size())

	h.Write([]byte("deadbeef"))
	sum := h.Sum(nil)
	require.Len(t, sum, 32)

	h2 := factory.New()
	h2.Write([]byte("deadbeef"))
	require.Equal(t, sum, h2.Sum(nil))
}
