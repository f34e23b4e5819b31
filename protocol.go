package tarantool

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// frameLengthBytes is the width of the fixed-form MessagePack uint32 that
// prefixes every frame: a 0xce tag byte followed by 4 big-endian length
// bytes. Tarantool always emits (and expects) this fixed-width form rather
// than the shortest msgpack encoding of the length, so a reader can peel it
// off with a constant-size read before touching the decoder.
const frameLengthBytes = 5

// Header is a decoded frame header.
type Header struct {
	// Code is the request command code, or the response status (0 for
	// success, with ErrorCodeBit set and the low 15 bits holding a server
	// error code otherwise).
	Code uint32
	// Sync correlates a response with the request that produced it.
	Sync uint64
	// SchemaID is the server's schema version. The core ignores it.
	SchemaID uint32
}

// bodyEncoder fills the body map of a request frame.
type bodyEncoder func(enc *encoder) error

// encodeFrame serializes a (code, sync, body) triple into a complete wire
// frame: a fixed-width length prefix followed by the MessagePack header map
// and the MessagePack body map.
func encodeFrame(code uint32, sync uint64, body bodyEncoder) ([]byte, error) {
	var payload bytes.Buffer
	enc := newEncoder(&payload)

	if err := enc.EncodeMapLen(2); err != nil {
		return nil, err
	}
	if err := encodeUint(enc, KeyCode); err != nil {
		return nil, err
	}
	if err := enc.EncodeUint(uint64(code)); err != nil {
		return nil, err
	}
	if err := encodeUint(enc, KeySync); err != nil {
		return nil, err
	}
	if err := enc.EncodeUint(sync); err != nil {
		return nil, err
	}

	if body != nil {
		if err := body(enc); err != nil {
			return nil, err
		}
	} else if err := enc.EncodeMapLen(0); err != nil {
		return nil, err
	}

	if payload.Len() > int(^uint32(0)) {
		return nil, fmt.Errorf("tarantool: frame payload too large: %d bytes", payload.Len())
	}

	frame := make([]byte, frameLengthBytes+payload.Len())
	frame[0] = 0xce
	binary.BigEndian.PutUint32(frame[1:frameLengthBytes], uint32(payload.Len()))
	copy(frame[frameLengthBytes:], payload.Bytes())
	return frame, nil
}

// readFrame reads one complete frame's payload (header||body, length prefix
// stripped) off r.
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [frameLengthBytes]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	if lenBuf[0] != 0xce {
		return nil, ClientError{Code: ErrWire, Msg: "frame length prefix is not a fixed-width msgpack uint32"}
	}
	length := binary.BigEndian.Uint32(lenBuf[1:])
	if length == 0 {
		return nil, ClientError{Code: ErrWire, Msg: "frame length must not be zero"}
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// decodeFrame decodes a frame payload (as returned by readFrame) into its
// header and body maps. Body may be absent: if the header consumes the
// whole payload, body decodes as the empty map. Trailing bytes after both
// values are decoded is a WireError.
func decodeFrame(payload []byte) (Header, map[interface{}]interface{}, error) {
	buf := bytes.NewReader(payload)
	dec := newDecoder(buf)

	header, err := decodeHeader(dec)
	if err != nil {
		return Header{}, nil, ClientError{Code: ErrWire, Msg: "decode frame header: " + err.Error()}
	}

	body := map[interface{}]interface{}{}
	if buf.Len() > 0 {
		raw, err := dec.DecodeInterface()
		if err != nil {
			return Header{}, nil, ClientError{Code: ErrWire, Msg: "decode frame body: " + err.Error()}
		}
		decoded, ok := raw.(map[interface{}]interface{})
		if !ok {
			return Header{}, nil, ClientError{Code: ErrWire, Msg: "frame body is not a map"}
		}
		body = decoded
	}

	if buf.Len() != 0 {
		return Header{}, nil, ClientError{Code: ErrWire, Msg: "trailing bytes after frame body"}
	}

	return header, body, nil
}

func decodeHeader(dec *decoder) (Header, error) {
	l, err := dec.DecodeMapLen()
	if err != nil {
		return Header{}, err
	}
	var header Header
	for ; l > 0; l-- {
		key, err := dec.DecodeInt()
		if err != nil {
			return Header{}, err
		}
		switch key {
		case KeyCode:
			v, err := dec.DecodeUint64()
			if err != nil {
				return Header{}, err
			}
			header.Code = uint32(v)
		case KeySync:
			v, err := dec.DecodeUint64()
			if err != nil {
				return Header{}, err
			}
			header.Sync = v
		case KeySchemaID:
			v, err := dec.DecodeUint64()
			if err != nil {
				return Header{}, err
			}
			header.SchemaID = uint32(v)
		default:
			if err := dec.Skip(); err != nil {
				return Header{}, err
			}
		}
	}
	return header, nil
}
