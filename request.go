package tarantool

import (
	"context"
	"time"
)

// encodeValue writes v as one MessagePack value. A v2Encoded value (the
// client_tools.go key/operation helpers) is first marshaled with the
// legacy msgpack.v2 encoder and spliced in as a rawMessage; everything else
// goes through the v5 encoder's own reflection-based Encode. A nil value
// encodes as an empty array, the wire form of "no key".
func encodeValue(enc *encoder, v interface{}) error {
	if v == nil {
		return enc.EncodeArrayLen(0)
	}
	if v2, ok := v.(v2Encoded); ok {
		raw, err := v2.marshalV2()
		if err != nil {
			return err
		}
		return enc.Encode(raw)
	}
	return enc.Encode(v)
}

func encodeMapEntry(enc *encoder, key int, v interface{}) error {
	if err := encodeUint(enc, uint64(key)); err != nil {
		return err
	}
	return encodeValue(enc, v)
}

// Ping measures the round-trip time of an empty-body PING request,
// returning the elapsed duration rather than a Response.
func (c *Connection) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if _, err := c.submit(ctx, PingRequest, nil); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// authenticate runs the CHAP-SHA1 handshake. It is invoked once by
// Connect, before any other request is accepted.
func (c *Connection) authenticate(ctx context.Context, user, password string) error {
	if skipAuth(user, password) {
		return nil
	}
	scrambled := scramble(c.salt, password)
	body := func(enc *encoder) error {
		if err := enc.EncodeMapLen(2); err != nil {
			return err
		}
		if err := encodeMapEntry(enc, KeyUserName, user); err != nil {
			return err
		}
		return encodeMapEntry(enc, KeyTuple, []interface{}{"chap-sha1", scrambled[:]})
	}
	_, err := c.submit(ctx, AuthRequest, body)
	if err != nil {
		if se, ok := err.(Error); ok {
			return ClientError{Code: ErrHandshakeFailed, Msg: se.Error()}
		}
		return err
	}
	return nil
}

func (c *Connection) resolveSpace(ref SpaceRef) (uint32, error) {
	return c.schema.ResolveSpace(ref)
}

func (c *Connection) resolveIndex(space SpaceRef, index IndexRef) (uint32, error) {
	return c.schema.ResolveIndex(space, index)
}

// Select fetches tuples from space/index matching key under iterator,
// skipping offset matches and returning at most limit.
func (c *Connection) Select(ctx context.Context, space SpaceRef, index IndexRef, iterator interface{}, offset, limit uint32, key interface{}) (*Response, error) {
	spaceID, err := c.resolveSpace(space)
	if err != nil {
		return nil, err
	}
	indexID, err := c.resolveIndex(space, index)
	if err != nil {
		return nil, err
	}
	iterKind, err := ResolveIterator(iterator)
	if err != nil {
		return nil, err
	}

	body := func(enc *encoder) error {
		if err := enc.EncodeMapLen(6); err != nil {
			return err
		}
		if err := encodeMapEntry(enc, KeySpaceID, spaceID); err != nil {
			return err
		}
		if err := encodeMapEntry(enc, KeyIndexID, indexID); err != nil {
			return err
		}
		if err := encodeMapEntry(enc, KeyLimit, limit); err != nil {
			return err
		}
		if err := encodeMapEntry(enc, KeyOffset, offset); err != nil {
			return err
		}
		if err := encodeMapEntry(enc, KeyIterator, uint32(iterKind)); err != nil {
			return err
		}
		return encodeMapEntry(enc, KeyKey, key)
	}
	return c.submit(ctx, SelectRequest, body)
}

// Get is Select with the defaults for point lookups: primary index,
// limit 1, offset 0, exact-match iterator.
func (c *Connection) Get(ctx context.Context, space SpaceRef, key interface{}) (*Response, error) {
	return c.Select(ctx, space, IndexID(0), DefaultSelectIterator, DefaultSelectOffset, 1, key)
}

func (c *Connection) spaceTupleRequest(ctx context.Context, code uint32, space SpaceRef, tuple interface{}) (*Response, error) {
	spaceID, err := c.resolveSpace(space)
	if err != nil {
		return nil, err
	}
	body := func(enc *encoder) error {
		if err := enc.EncodeMapLen(2); err != nil {
			return err
		}
		if err := encodeMapEntry(enc, KeySpaceID, spaceID); err != nil {
			return err
		}
		return encodeMapEntry(enc, KeyTuple, tuple)
	}
	return c.submit(ctx, code, body)
}

// Insert adds tuple to space, failing with a TupleFound server error if its
// primary key already exists.
func (c *Connection) Insert(ctx context.Context, space SpaceRef, tuple interface{}) (*Response, error) {
	return c.spaceTupleRequest(ctx, InsertRequest, space, tuple)
}

// Replace adds tuple to space, overwriting any existing tuple sharing its
// primary key.
func (c *Connection) Replace(ctx context.Context, space SpaceRef, tuple interface{}) (*Response, error) {
	return c.spaceTupleRequest(ctx, ReplaceRequest, space, tuple)
}

// Update applies ops to the tuple identified by key in space/index.
func (c *Connection) Update(ctx context.Context, space SpaceRef, index IndexRef, key interface{}, ops *Operations) (*Response, error) {
	spaceID, err := c.resolveSpace(space)
	if err != nil {
		return nil, err
	}
	indexID, err := c.resolveIndex(space, index)
	if err != nil {
		return nil, err
	}
	body := func(enc *encoder) error {
		if err := enc.EncodeMapLen(4); err != nil {
			return err
		}
		if err := encodeMapEntry(enc, KeySpaceID, spaceID); err != nil {
			return err
		}
		if err := encodeMapEntry(enc, KeyIndexID, indexID); err != nil {
			return err
		}
		if err := encodeMapEntry(enc, KeyKey, key); err != nil {
			return err
		}
		return encodeMapEntry(enc, KeyTuple, ops)
	}
	return c.submit(ctx, UpdateRequest, body)
}

// Delete removes the tuple identified by key in space/index.
func (c *Connection) Delete(ctx context.Context, space SpaceRef, index IndexRef, key interface{}) (*Response, error) {
	spaceID, err := c.resolveSpace(space)
	if err != nil {
		return nil, err
	}
	indexID, err := c.resolveIndex(space, index)
	if err != nil {
		return nil, err
	}
	body := func(enc *encoder) error {
		if err := enc.EncodeMapLen(3); err != nil {
			return err
		}
		if err := encodeMapEntry(enc, KeySpaceID, spaceID); err != nil {
			return err
		}
		if err := encodeMapEntry(enc, KeyIndexID, indexID); err != nil {
			return err
		}
		return encodeMapEntry(enc, KeyKey, key)
	}
	return c.submit(ctx, DeleteRequest, body)
}

// Upsert applies ops to the tuple matching tuple's primary key, or inserts
// tuple if no such tuple exists.
func (c *Connection) Upsert(ctx context.Context, space SpaceRef, tuple interface{}, ops *Operations) (*Response, error) {
	spaceID, err := c.resolveSpace(space)
	if err != nil {
		return nil, err
	}
	body := func(enc *encoder) error {
		if err := enc.EncodeMapLen(3); err != nil {
			return err
		}
		if err := encodeMapEntry(enc, KeySpaceID, spaceID); err != nil {
			return err
		}
		if err := encodeMapEntry(enc, KeyTuple, tuple); err != nil {
			return err
		}
		return encodeMapEntry(enc, KeyOps, ops)
	}
	return c.submit(ctx, UpsertRequest, body)
}

// Call invokes the stored Lua function named function with args.
func (c *Connection) Call(ctx context.Context, function string, args interface{}) (*Response, error) {
	if args == nil {
		args = []interface{}{}
	}
	body := func(enc *encoder) error {
		if err := enc.EncodeMapLen(2); err != nil {
			return err
		}
		if err := encodeMapEntry(enc, KeyFunctionName, function); err != nil {
			return err
		}
		return encodeMapEntry(enc, KeyTuple, args)
	}
	return c.submit(ctx, CallRequest, body)
}

// Eval evaluates the Lua chunk expr with args bound to `...`.
func (c *Connection) Eval(ctx context.Context, expr string, args interface{}) (*Response, error) {
	return c.evalRaw(ctx, expr, args)
}

// evalRaw builds and submits the EVAL request behind Eval. The schema loader
// (schema.go) calls it directly with nil args, which are sent as an empty
// array.
func (c *Connection) evalRaw(ctx context.Context, expr string, args interface{}) (*Response, error) {
	if args == nil {
		args = []interface{}{}
	}
	body := func(enc *encoder) error {
		if err := enc.EncodeMapLen(2); err != nil {
			return err
		}
		if err := encodeMapEntry(enc, KeyExpression, expr); err != nil {
			return err
		}
		return encodeMapEntry(enc, KeyTuple, args)
	}
	return c.submit(ctx, EvalRequest, body)
}
