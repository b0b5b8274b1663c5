// Package fake provides fake implementations for the interfaces commonly
// used in the module. The implementations can be configured to return
// errors when the unit test needs it, and some of them record the calls of
// their functions.
package fake

import (
	"encoding/json"
	"hash"
	"io"

	"go.dedis.ch/dht/serde"
	"golang.org/x/xerrors"
)

var fakeErr = xerrors.New("fake error")

// Err appends the fake error to the message, in the same shape as an
// xerrors wrapping, so that the tests can assert full error chains.
func Err(msg string) string {
	return msg + ": fake error"
}

// Call is a tool to keep track of function calls.
type Call struct {
	calls [][]interface{}
}

// Get returns the ith parameter of the nth call.
func (c *Call) Get(n, i int) interface{} {
	return c.calls[n][i]
}

// Len returns the number of calls.
func (c *Call) Len() int {
	return len(c.calls)
}

// Add adds a call to the list.
func (c *Call) Add(args ...interface{}) {
	c.calls = append(c.calls, args)
}

// Hash is a fake implementation of hash.Hash. Its writes fail after the
// configured delay.
//
// - implements hash.Hash
type Hash struct {
	hash.Hash
	delay int
	err   error
}

// NewBadHash returns a hash that fails on the first write.
func NewBadHash() *Hash {
	return &Hash{err: fakeErr}
}

// NewBadHashWithDelay returns a hash that fails after delay writes.
func NewBadHashWithDelay(delay int) *Hash {
	return &Hash{err: fakeErr, delay: delay}
}

// Write implements io.Writer.
func (h *Hash) Write(in []byte) (int, error) {
	if h.err != nil {
		if h.delay == 0 {
			return 0, h.err
		}

		h.delay--
	}

	return len(in), nil
}

// Sum implements hash.Hash.
func (h *Hash) Sum(b []byte) []byte {
	return append(b, 0xde, 0xad, 0xbe, 0xef)
}

// Size implements hash.Hash.
func (h *Hash) Size() int {
	return 4
}

// HashFactory is a fake implementation of crypto.HashFactory.
type HashFactory struct {
	hash *Hash
}

// NewHashFactory returns a factory always producing the given hash.
func NewHashFactory(h *Hash) HashFactory {
	return HashFactory{hash: h}
}

// New implements crypto.HashFactory.
func (f HashFactory) New() hash.Hash {
	return f.hash
}

// GoodFormat is the name of the format always successful.
const GoodFormat = serde.Format("FakeFormat")

// BadFormat is the name of the format always failing.
const BadFormat = serde.Format("BAD_FORMAT")

// Message is a fake implementation of serde.Message.
type Message struct {
	Digest []byte
}

// Serialize implements serde.Message.
func (m Message) Serialize(serde.Context) ([]byte, error) {
	return []byte("fake format"), nil
}

// Fingerprint implements serde.Fingerprinter.
func (m Message) Fingerprint(writer io.Writer) error {
	_, err := writer.Write(m.Digest)
	return err
}

// MessageFactory is a fake implementation of serde.Factory.
type MessageFactory struct {
	err error
}

// NewBadMessageFactory returns a factory that always fails.
func NewBadMessageFactory() MessageFactory {
	return MessageFactory{err: fakeErr}
}

// Deserialize implements serde.Factory.
func (f MessageFactory) Deserialize(serde.Context, []byte) (serde.Message, error) {
	return Message{}, f.err
}

// Format is a fake implementation of serde.FormatEngine. Encode always
// returns the same data and Decode always returns the configured message.
//
// - implements serde.FormatEngine
type Format struct {
	err  error
	Msg  serde.Message
	Call *Call
}

// NewBadFormat returns a format engine that always fails.
func NewBadFormat() Format {
	return Format{err: fakeErr}
}

// Encode implements serde.FormatEngine.
func (f Format) Encode(ctx serde.Context, m serde.Message) ([]byte, error) {
	if f.Call != nil {
		f.Call.Add(ctx, m)
	}

	return []byte("fake format"), f.err
}

// Decode implements serde.FormatEngine.
func (f Format) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	if f.Call != nil {
		f.Call.Add(ctx, data)
	}

	return f.Msg, f.err
}

// ContextEngine is a fake implementation of serde.ContextEngine. It
// marshals in plain JSON whatever the announced format is, so that the
// format engines can be tested against a real codec.
//
// - implements serde.ContextEngine
type ContextEngine struct {
	format serde.Format
	err    error
}

// NewContext returns a context for the good fake format.
func NewContext() serde.Context {
	return serde.NewContext(ContextEngine{format: GoodFormat})
}

// NewContextWithFormat returns a context that announces the given format.
func NewContextWithFormat(f serde.Format) serde.Context {
	return serde.NewContext(ContextEngine{format: f})
}

// NewBadContext returns a context that always fails to marshal and
// unmarshal, and announces the bad fake format.
func NewBadContext() serde.Context {
	return serde.NewContext(ContextEngine{format: BadFormat, err: fakeErr})
}

// GetFormat implements serde.ContextEngine.
func (ctx ContextEngine) GetFormat() serde.Format {
	return ctx.format
}

// Marshal implements serde.ContextEngine.
func (ctx ContextEngine) Marshal(m interface{}) ([]byte, error) {
	if ctx.err != nil {
		return nil, ctx.err
	}

	return json.Marshal(m)
}

// Unmarshal implements serde.ContextEngine.
func (ctx ContextEngine) Unmarshal(data []byte, m interface{}) error {
	if ctx.err != nil {
		return ctx.err
	}

	return json.Unmarshal(data, m)
}
