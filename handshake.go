package tarantool

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// greetingSize is the fixed size of Tarantool's initial greeting: a 64-byte
// version banner followed by a 64-byte block holding the base64-encoded
// salt.
const greetingSize = 128
const greetingSaltBase64Len = 44

// Greeting is the server's initial, unframed handshake message.
type Greeting struct {
	// Version is the human-readable banner from bytes 0..63. It is not
	// parsed further; it exists for logging.
	Version string
	// salt is the 20-byte server salt used in the CHAP-SHA1 scramble.
	salt [sha1.Size]byte
}

// readGreeting reads and parses the 128-byte greeting Tarantool sends
// immediately after a TCP connection is accepted.
func readGreeting(r io.Reader) (Greeting, error) {
	var buf [greetingSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Greeting{}, ClientError{
			Code: ErrHandshakeFailed,
			Msg:  fmt.Sprintf("short greeting: %s", err),
		}
	}

	version := strings.TrimRight(string(buf[0:64]), "\x00 \t\r\n")

	saltLine := buf[64:128]
	if len(saltLine) < greetingSaltBase64Len {
		return Greeting{}, ClientError{Code: ErrHandshakeFailed, Msg: "greeting salt block too short"}
	}
	saltB64 := saltLine[:greetingSaltBase64Len]

	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(saltB64)))
	n, err := base64.StdEncoding.Decode(decoded, saltB64)
	if err != nil {
		return Greeting{}, ClientError{
			Code: ErrHandshakeFailed,
			Msg:  fmt.Sprintf("greeting salt is not valid base64: %s", err),
		}
	}
	if n < sha1.Size {
		return Greeting{}, ClientError{Code: ErrHandshakeFailed, Msg: "decoded greeting salt is too short"}
	}

	g := Greeting{Version: version}
	copy(g.salt[:], decoded[:sha1.Size])
	return g, nil
}

// scramble computes the 20-byte CHAP-SHA1 authenticator from the server
// salt and the user's password:
//
//	scramble = SHA1(password) XOR SHA1(salt || SHA1(SHA1(password)))
func scramble(salt [sha1.Size]byte, password string) [sha1.Size]byte {
	step1 := sha1.Sum([]byte(password))
	step2 := sha1.Sum(step1[:])

	h := sha1.New()
	h.Write(salt[:])
	h.Write(step2[:])
	step3 := h.Sum(nil)

	var out [sha1.Size]byte
	for i := range out {
		out[i] = step1[i] ^ step3[i]
	}
	return out
}

// skipAuth reports whether authentication should be skipped: no user
// configured, or user is "guest" with an empty password.
func skipAuth(user, password string) bool {
	if user == "" {
		return true
	}
	return user == "guest" && password == ""
}
