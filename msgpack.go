package tarantool

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// encoder and decoder alias the MessagePack library's types so the rest of
// the package can refer to them without importing msgpack directly.
type encoder = msgpack.Encoder
type decoder = msgpack.Decoder

// rawMessage is pre-encoded MessagePack that the encoder writes verbatim,
// used to splice the legacy msgpack.v2-encoded key/update-operation helpers
// (client_tools.go) into a msgpack/v5-encoded request body.
type rawMessage = msgpack.RawMessage

func newEncoder(w io.Writer) *encoder {
	return msgpack.NewEncoder(w)
}

func newDecoder(r io.Reader) *decoder {
	dec := msgpack.NewDecoder(r)
	dec.SetMapDecoder(func(dec *msgpack.Decoder) (interface{}, error) {
		return dec.DecodeUntypedMap()
	})
	dec.UseLooseInterfaceDecoding(true)
	return dec
}

func encodeUint(e *encoder, v uint64) error {
	return e.EncodeUint(v)
}

// normalizeKey widens the assorted integer types the decoder may produce for
// a map key (int8, uint64, int64, ...) into a single int64 for comparison
// against the package's integer key constants.
func normalizeKey(k interface{}) (int64, bool) {
	switch v := k.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case int:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint:
		return int64(v), true
	default:
		return 0, false
	}
}

// toUint64 widens a decoded numeric value of unknown concrete integer type
// into a uint64.
func toUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case int64:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case int32:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case int16:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case int8:
		return uint64(n), true
	case int:
		return uint64(n), true
	case uint:
		return uint64(n), true
	default:
		return 0, false
	}
}

// bodyLookup fetches a body map entry by integer key, tolerant of whatever
// concrete integer type the decoder produced for the key.
func bodyLookup(body map[interface{}]interface{}, key int) (interface{}, bool) {
	for k, v := range body {
		if nk, ok := normalizeKey(k); ok && nk == int64(key) {
			return v, true
		}
	}
	return nil, false
}
