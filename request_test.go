package tarantool

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSelectEncodesSixKeyBody(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	captured := make(chan map[interface{}]interface{}, 1)
	go runFakeServer(t, ln, func(t *testing.T, header Header, body map[interface{}]interface{}) (uint32, bodyEncoder) {
		if header.Code == SelectRequest {
			captured <- body
		}
		return OkCode, nil
	})

	c := dialFake(t, ln, Opts{})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = c.Select(ctx, SpaceID(512), IndexID(0), IterEqual, 0, 1, []interface{}{int64(1)})
	require.NoError(t, err)

	select {
	case body := <-captured:
		require.Len(t, body, 6)
		v, ok := bodyLookup(body, KeySpaceID)
		require.True(t, ok)
		n, _ := toUint64(v)
		require.EqualValues(t, 512, n)

		v, ok = bodyLookup(body, KeyIterator)
		require.True(t, ok)
		n, _ = toUint64(v)
		require.EqualValues(t, IterEqual, n)
	case <-time.After(2 * time.Second):
		t.Fatal("request never reached the fake server")
	}
}

func TestGetUsesPrimaryIndexAndExactMatch(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	captured := make(chan map[interface{}]interface{}, 1)
	go runFakeServer(t, ln, func(t *testing.T, header Header, body map[interface{}]interface{}) (uint32, bodyEncoder) {
		captured <- body
		return OkCode, nil
	})

	c := dialFake(t, ln, Opts{})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = c.Get(ctx, SpaceID(512), []interface{}{int64(7)})
	require.NoError(t, err)

	body := <-captured
	v, _ := bodyLookup(body, KeyIndexID)
	n, _ := toUint64(v)
	require.EqualValues(t, 0, n)

	v, _ = bodyLookup(body, KeyLimit)
	n, _ = toUint64(v)
	require.EqualValues(t, 1, n)

	v, _ = bodyLookup(body, KeyIterator)
	n, _ = toUint64(v)
	require.EqualValues(t, IterEqual, n)
}

func TestUpdateSplicesOperationsUnderTupleKey(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	captured := make(chan map[interface{}]interface{}, 1)
	go runFakeServer(t, ln, func(t *testing.T, header Header, body map[interface{}]interface{}) (uint32, bodyEncoder) {
		if header.Code == UpdateRequest {
			captured <- body
		}
		return OkCode, nil
	})

	c := dialFake(t, ln, Opts{})
	defer c.Close()

	ops := NewOperations().Assign(1, "renamed")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = c.Update(ctx, SpaceID(512), IndexID(0), []interface{}{int64(1)}, ops)
	require.NoError(t, err)

	body := <-captured
	require.Len(t, body, 4)

	v, ok := bodyLookup(body, KeyTuple)
	require.True(t, ok)
	opsArr, ok := v.([]interface{})
	require.True(t, ok)
	require.Len(t, opsArr, 1)

	one, ok := opsArr[0].([]interface{})
	require.True(t, ok)
	require.Equal(t, "=", one[0])
	n, _ := toUint64(one[1])
	require.EqualValues(t, 1, n)
	require.Equal(t, "renamed", one[2])
}

func TestUpsertSplicesOperationsUnderOpsKeyAndTupleUnderTupleKey(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	captured := make(chan map[interface{}]interface{}, 1)
	go runFakeServer(t, ln, func(t *testing.T, header Header, body map[interface{}]interface{}) (uint32, bodyEncoder) {
		if header.Code == UpsertRequest {
			captured <- body
		}
		return OkCode, nil
	})

	c := dialFake(t, ln, Opts{})
	defer c.Close()

	ops := NewOperations().Add(2, int64(5))
	tuple := []interface{}{int64(1), "vlad", int64(0)}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = c.Upsert(ctx, SpaceID(512), tuple, ops)
	require.NoError(t, err)

	body := <-captured
	require.Len(t, body, 3)

	v, ok := bodyLookup(body, KeyTuple)
	require.True(t, ok)
	tupleArr, ok := v.([]interface{})
	require.True(t, ok)
	require.Len(t, tupleArr, 3)
	require.Equal(t, "vlad", tupleArr[1])

	v, ok = bodyLookup(body, KeyOps)
	require.True(t, ok)
	opsArr, ok := v.([]interface{})
	require.True(t, ok)
	require.Len(t, opsArr, 1)
	one, ok := opsArr[0].([]interface{})
	require.True(t, ok)
	require.Equal(t, "+", one[0])
}

func TestCallEncodesFunctionNameAndArgs(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	captured := make(chan map[interface{}]interface{}, 1)
	go runFakeServer(t, ln, func(t *testing.T, header Header, body map[interface{}]interface{}) (uint32, bodyEncoder) {
		captured <- body
		return OkCode, nil
	})

	c := dialFake(t, ln, Opts{})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = c.Call(ctx, "box.info", nil)
	require.NoError(t, err)

	body := <-captured
	v, ok := bodyLookup(body, KeyFunctionName)
	require.True(t, ok)
	require.Equal(t, "box.info", v)

	v, ok = bodyLookup(body, KeyTuple)
	require.True(t, ok)
	args, ok := v.([]interface{})
	require.True(t, ok)
	require.Empty(t, args)
}

func TestEvalEncodesExpressionAndArgs(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	captured := make(chan map[interface{}]interface{}, 1)
	go runFakeServer(t, ln, func(t *testing.T, header Header, body map[interface{}]interface{}) (uint32, bodyEncoder) {
		captured <- body
		return OkCode, nil
	})

	c := dialFake(t, ln, Opts{})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = c.Eval(ctx, "return 1+1", []interface{}{int64(1)})
	require.NoError(t, err)

	body := <-captured
	v, ok := bodyLookup(body, KeyExpression)
	require.True(t, ok)
	require.Equal(t, "return 1+1", v)
}

func TestPingMeasuresRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go runFakeServer(t, ln, okEcho)

	c := dialFake(t, ln, Opts{})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	d, err := c.Ping(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, d, time.Duration(0))
}
