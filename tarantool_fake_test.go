package tarantool

import (
	"context"
	"encoding/base64"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeHandler decides how the fake server answers one decoded request
// frame: the response status code and a bodyEncoder for its body.
type fakeHandler func(t *testing.T, header Header, body map[interface{}]interface{}) (uint32, bodyEncoder)

// fakeSalt32 is a fixed, non-random 32-byte greeting salt: Tarantool's
// real greeting base64-encodes 32 bytes even though only the first 20 feed
// the CHAP-SHA1 scramble.
func fakeSalt32() [32]byte {
	var salt [32]byte
	for i := range salt {
		salt[i] = byte(i + 1)
	}
	return salt
}

func fakeGreeting(salt [32]byte) []byte {
	buf := make([]byte, greetingSize)
	copy(buf[0:64], []byte("Tarantool 2.11.0 (Binary) fake-test-instance"))
	b64 := base64.StdEncoding.EncodeToString(salt[:])
	copy(buf[64:64+len(b64)], []byte(b64))
	return buf
}

// runFakeServer accepts exactly one connection on ln, writes the greeting,
// then answers every request frame by calling handler, replying
// concurrently (one goroutine per request, writes serialized by a mutex)
// so tests can observe out-of-order delivery. It returns once the
// connection is closed by either side.
func runFakeServer(t *testing.T, ln net.Listener, handler fakeHandler) {
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	if _, err := conn.Write(fakeGreeting(fakeSalt32())); err != nil {
		return
	}

	var writeMu sync.Mutex
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		payload, err := readFrame(conn)
		if err != nil {
			return
		}
		header, body, err := decodeFrame(payload)
		if err != nil {
			return
		}

		wg.Add(1)
		go func(header Header, body map[interface{}]interface{}) {
			defer wg.Done()
			code, respBody := handler(t, header, body)
			frame, err := encodeFrame(code, header.Sync, respBody)
			if err != nil {
				return
			}
			writeMu.Lock()
			defer writeMu.Unlock()
			conn.Write(frame)
		}(header, body)
	}
}

// okEcho is a fakeHandler that answers every request with an empty
// successful body.
func okEcho(t *testing.T, header Header, body map[interface{}]interface{}) (uint32, bodyEncoder) {
	return OkCode, nil
}

func dialFake(t *testing.T, ln net.Listener, opts Opts) *Connection {
	opts.SkipSchema = true
	c, err := Connect(context.Background(), ln.Addr().String(), opts)
	require.NoError(t, err)
	return c
}
