package tarantool

import (
	msgpackv2 "gopkg.in/vmihailenco/msgpack.v2"
)

// v2Encoded is implemented by the key and update-operation helper types
// below: each marshals itself with the legacy msgpack.v2 encoder, and the
// request builders in request.go splice the result into the msgpack/v5
// request body as a rawMessage.
type v2Encoded interface {
	marshalV2() (rawMessage, error)
}

func marshalV2(v interface{}) (rawMessage, error) {
	b, err := msgpackv2.Marshal(v)
	if err != nil {
		return nil, err
	}
	return rawMessage(b), nil
}

// IntKey passes a single signed-integer key to Select, Update and Delete.
// It serializes to an array holding that one element.
type IntKey struct {
	I int
}

func (k IntKey) EncodeMsgpack(enc *msgpackv2.Encoder) error {
	enc.EncodeArrayLen(1)
	enc.EncodeInt(k.I)
	return nil
}

func (k IntKey) marshalV2() (rawMessage, error) { return marshalV2(k) }

// UintKey passes a single unsigned-integer key to Select, Update and Delete.
type UintKey struct {
	I uint
}

func (k UintKey) EncodeMsgpack(enc *msgpackv2.Encoder) error {
	enc.EncodeArrayLen(1)
	enc.EncodeUint(k.I)
	return nil
}

func (k UintKey) marshalV2() (rawMessage, error) { return marshalV2(k) }

// StringKey passes a single string key to Select, Update and Delete.
type StringKey struct {
	S string
}

func (k StringKey) EncodeMsgpack(enc *msgpackv2.Encoder) error {
	enc.EncodeArrayLen(1)
	enc.EncodeString(k.S)
	return nil
}

func (k StringKey) marshalV2() (rawMessage, error) { return marshalV2(k) }

// IntIntKey passes a two-part signed-integer key, for indexes defined over
// two integer fields.
type IntIntKey struct {
	I1, I2 int
}

func (k IntIntKey) EncodeMsgpack(enc *msgpackv2.Encoder) error {
	enc.EncodeArrayLen(2)
	enc.EncodeInt(k.I1)
	enc.EncodeInt(k.I2)
	return nil
}

func (k IntIntKey) marshalV2() (rawMessage, error) { return marshalV2(k) }

// Op is a single Update/Upsert operation: an operator, the field it applies
// to, and its argument.
type Op struct {
	Op    string
	Field int
	Arg   interface{}
}

func (o Op) EncodeMsgpack(enc *msgpackv2.Encoder) error {
	enc.EncodeArrayLen(3)
	enc.EncodeString(o.Op)
	enc.EncodeInt(o.Field)
	return enc.Encode(o.Arg)
}

const (
	appendOperator      = "+"
	subtractionOperator = "-"
	bitwiseAndOperator  = "&"
	bitwiseOrOperator   = "|"
	bitwiseXorOperator  = "^"
	spliceOperator      = ":"
	insertOperator      = "!"
	deleteOperator      = "#"
	assignOperator      = "="
)

// Operations is an ordered collection of Update/Upsert operations.
type Operations struct {
	ops []Op
}

// NewOperations returns a new, empty collection of update operations.
func NewOperations() *Operations {
	return &Operations{}
}

func (ops *Operations) append(op string, field int, arg interface{}) *Operations {
	ops.ops = append(ops.ops, Op{op, field, arg})
	return ops
}

// Add appends a numeric addition operation.
func (ops *Operations) Add(field int, arg interface{}) *Operations {
	return ops.append(appendOperator, field, arg)
}

// Subtract appends a numeric subtraction operation.
func (ops *Operations) Subtract(field int, arg interface{}) *Operations {
	return ops.append(subtractionOperator, field, arg)
}

// BitwiseAnd appends a bitwise AND operation.
func (ops *Operations) BitwiseAnd(field int, arg interface{}) *Operations {
	return ops.append(bitwiseAndOperator, field, arg)
}

// BitwiseOr appends a bitwise OR operation.
func (ops *Operations) BitwiseOr(field int, arg interface{}) *Operations {
	return ops.append(bitwiseOrOperator, field, arg)
}

// BitwiseXor appends a bitwise XOR operation.
func (ops *Operations) BitwiseXor(field int, arg interface{}) *Operations {
	return ops.append(bitwiseXorOperator, field, arg)
}

// Splice appends a string splice operation; arg must be an OpSplice.
func (ops *Operations) Splice(field int, arg interface{}) *Operations {
	return ops.append(spliceOperator, field, arg)
}

// Insert appends a field-insert operation.
func (ops *Operations) Insert(field int, arg interface{}) *Operations {
	return ops.append(insertOperator, field, arg)
}

// Delete appends a field-delete operation.
func (ops *Operations) Delete(field int, arg interface{}) *Operations {
	return ops.append(deleteOperator, field, arg)
}

// Assign appends a field-assign operation.
func (ops *Operations) Assign(field int, arg interface{}) *Operations {
	return ops.append(assignOperator, field, arg)
}

func (ops *Operations) EncodeMsgpack(enc *msgpackv2.Encoder) error {
	enc.EncodeArrayLen(len(ops.ops))
	for _, op := range ops.ops {
		if err := op.EncodeMsgpack(enc); err != nil {
			return err
		}
	}
	return nil
}

func (ops *Operations) marshalV2() (rawMessage, error) { return marshalV2(ops) }

// OpSplice is the five-element argument form of a Splice operation: the
// operator and field, then the string position, cut length and
// replacement.
type OpSplice struct {
	Op      string
	Field   int
	Pos     int
	Len     int
	Replace string
}

func (o OpSplice) EncodeMsgpack(enc *msgpackv2.Encoder) error {
	enc.EncodeArrayLen(5)
	enc.EncodeString(o.Op)
	enc.EncodeInt(o.Field)
	enc.EncodeInt(o.Pos)
	enc.EncodeInt(o.Len)
	enc.EncodeString(o.Replace)
	return nil
}
