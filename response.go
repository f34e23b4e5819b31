package tarantool

// Response is the parsed form of a reply frame: the decoded header plus
// whatever the body carried (`{header: {code, sync, schema_id}, body:
// {data?, error?}}`).
type Response struct {
	Header Header
	// Data holds the tuples returned by Select/Insert/Replace/Update/
	// Delete/Call/Eval/Upsert/Get, decoded from the body's Data key. It is
	// nil when the body carried no Data key.
	Data []interface{}
}

// newResponse builds a Response from a decoded frame header and body.
// Status code 0 denotes success. Any other code denotes a server error: the
// returned error is an Error carrying the low 15 bits of the header code,
// the body's human-readable Error message, and, when the server sent one,
// the decoded BoxError stack from KeyErrorExtended.
func newResponse(header Header, body map[interface{}]interface{}) (*Response, error) {
	resp := &Response{Header: header}

	if v, ok := bodyLookup(body, KeyData); ok {
		data, ok := v.([]interface{})
		if !ok {
			return nil, ClientError{Code: ErrWire, Msg: "response Data is not an array"}
		}
		resp.Data = data
	}

	if header.Code == OkCode {
		return resp, nil
	}

	serverErr := Error{Code: header.Code &^ ErrorCodeBit}
	if v, ok := bodyLookup(body, KeyError); ok {
		serverErr.Msg, _ = v.(string)
	}
	if v, ok := bodyLookup(body, KeyErrorExtended); ok {
		ext, err := decodeBoxError(v)
		if err != nil {
			return nil, err
		}
		serverErr.Extended = ext
	}
	return resp, serverErr
}
