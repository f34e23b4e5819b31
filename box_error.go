package tarantool

import "fmt"

// MP_ERROR stack frame keys, per the box.error wire extension.
const (
	keyErrorStack   = 0x00
	keyErrorType    = 0x00
	keyErrorFile    = 0x01
	keyErrorLine    = 0x02
	keyErrorMessage = 0x03
	keyErrorErrno   = 0x04
	keyErrorErrcode = 0x05
	keyErrorFields  = 0x06
)

// BoxError is a single frame of a decoded box.error stack: the richer error
// representation servers may attach to a response alongside the plain
// numeric code and message, via the KeyErrorExtended body key.
type BoxError struct {
	Type   string
	File   string
	Line   uint64
	Msg    string
	Errno  uint64
	Code   uint64
	Fields map[string]interface{}
	// Prev is the next older frame in the stack, or nil at the bottom.
	Prev *BoxError
}

func (e *BoxError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s (0x%x): %s", e.Type, e.Code, e.Msg)
}

// Depth reports how many frames this stack carries, walking Prev links.
func (e *BoxError) Depth() int {
	n := 0
	for cur := e; cur != nil; cur = cur.Prev {
		n++
	}
	return n
}

// decodeBoxError builds a BoxError stack from the already-decoded generic
// value found under KeyErrorExtended: a map with a "stack" entry holding an
// array of per-frame maps, oldest frame last.
func decodeBoxError(raw interface{}) (*BoxError, error) {
	top, ok := raw.(map[interface{}]interface{})
	if !ok {
		return nil, ClientError{Code: ErrWire, Msg: "extended error is not a map"}
	}

	var stack []interface{}
	for k, v := range top {
		if nk, ok := normalizeKey(k); ok && nk == keyErrorStack {
			arr, ok := v.([]interface{})
			if !ok {
				return nil, ClientError{Code: ErrWire, Msg: "extended error stack is not an array"}
			}
			stack = arr
		}
	}
	if len(stack) == 0 {
		return nil, ClientError{Code: ErrWire, Msg: "extended error carries no stack frames"}
	}

	var head *BoxError
	for i := len(stack) - 1; i >= 0; i-- {
		frame, ok := stack[i].(map[interface{}]interface{})
		if !ok {
			return nil, ClientError{Code: ErrWire, Msg: "extended error frame is not a map"}
		}
		be := &BoxError{Prev: head}
		for k, v := range frame {
			nk, ok := normalizeKey(k)
			if !ok {
				continue
			}
			switch nk {
			case keyErrorType:
				be.Type, _ = v.(string)
			case keyErrorFile:
				be.File, _ = v.(string)
			case keyErrorLine:
				be.Line, _ = toUint64(v)
			case keyErrorMessage:
				be.Msg, _ = v.(string)
			case keyErrorErrno:
				be.Errno, _ = toUint64(v)
			case keyErrorErrcode:
				be.Code, _ = toUint64(v)
			case keyErrorFields:
				if fm, ok := v.(map[interface{}]interface{}); ok {
					be.Fields = make(map[string]interface{}, len(fm))
					for fk, fv := range fm {
						if s, ok := fk.(string); ok {
							be.Fields[s] = fv
						}
					}
				}
			}
		}
		head = be
	}
	return head, nil
}
