package tarantool

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	body := func(enc *encoder) error {
		if err := enc.EncodeMapLen(1); err != nil {
			return err
		}
		if err := encodeUint(enc, KeySpaceID); err != nil {
			return err
		}
		return enc.EncodeUint(999)
	}

	frame, err := encodeFrame(SelectRequest, 42, body)
	require.NoError(t, err)

	require.Equal(t, byte(0xce), frame[0])
	length := binary.BigEndian.Uint32(frame[1:frameLengthBytes])
	require.EqualValues(t, len(frame)-frameLengthBytes, length)

	payload, err := readFrame(bytes.NewReader(frame))
	require.NoError(t, err)
	require.Equal(t, frame[frameLengthBytes:], payload)

	header, decodedBody, err := decodeFrame(payload)
	require.NoError(t, err)
	require.Equal(t, uint32(SelectRequest), header.Code)
	require.Equal(t, uint64(42), header.Sync)

	v, ok := bodyLookup(decodedBody, KeySpaceID)
	require.True(t, ok)
	n, ok := toUint64(v)
	require.True(t, ok)
	require.EqualValues(t, 999, n)
}

func TestFrameEmptyBodyTieBreak(t *testing.T) {
	frame, err := encodeFrame(PingRequest, 7, nil)
	require.NoError(t, err)

	payload, err := readFrame(bytes.NewReader(frame))
	require.NoError(t, err)

	header, body, err := decodeFrame(payload)
	require.NoError(t, err)
	require.Equal(t, uint32(PingRequest), header.Code)
	require.Equal(t, uint64(7), header.Sync)
	require.Empty(t, body)
}

func TestReadFrameRejectsNonFixedLengthPrefix(t *testing.T) {
	buf := []byte{0x01, 0, 0, 0, 1, 0xc0}
	_, err := readFrame(bytes.NewReader(buf))
	require.Error(t, err)
	cerr, ok := err.(ClientError)
	require.True(t, ok)
	require.Equal(t, ErrWire, cerr.Code)
}

func TestReadFrameRejectsZeroLength(t *testing.T) {
	buf := []byte{0xce, 0, 0, 0, 0}
	_, err := readFrame(bytes.NewReader(buf))
	require.Error(t, err)
	cerr, ok := err.(ClientError)
	require.True(t, ok)
	require.Equal(t, ErrWire, cerr.Code)
}

func TestDecodeFrameRejectsTrailingBytes(t *testing.T) {
	frame, err := encodeFrame(PingRequest, 1, nil)
	require.NoError(t, err)
	payload := frame[frameLengthBytes:]
	payload = append(payload, 0x01)

	_, _, err = decodeFrame(payload)
	require.Error(t, err)
}
