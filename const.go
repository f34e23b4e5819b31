package tarantool

// Command codes. Request codes per Tarantool's IPROTO wire protocol;
// OkCode is the response status that denotes success.
const (
	SelectRequest  = uint32(1)
	InsertRequest  = uint32(2)
	ReplaceRequest = uint32(3)
	UpdateRequest  = uint32(4)
	DeleteRequest  = uint32(5)
	AuthRequest    = uint32(7)
	EvalRequest    = uint32(8)
	UpsertRequest  = uint32(9)
	CallRequest    = uint32(10)
	PingRequest    = uint32(64)

	OkCode = uint32(0)
	// ErrorCodeBit is set in a response's Code when the request failed;
	// the low 15 bits hold the server error code.
	ErrorCodeBit = uint32(0x8000)
)

// Header and body integer keys, per spec.
const (
	KeyCode     = 0x00
	KeySync     = 0x01
	KeySchemaID = 0x05

	KeySpaceID      = 0x10
	KeyIndexID      = 0x11
	KeyLimit        = 0x12
	KeyOffset       = 0x13
	KeyIterator     = 0x14
	KeyKey          = 0x20
	KeyTuple        = 0x21
	KeyFunctionName = 0x22
	KeyUserName     = 0x23
	KeyExpression   = 0x27
	KeyOps          = 0x28
	KeyData         = 0x30
	KeyError        = 0x31
	// KeyErrorExtended carries an encoded BoxError stack (MP_ERROR), sent
	// by servers new enough to support the error extension feature.
	KeyErrorExtended = 0x52
)

// DefaultSelectLimit, DefaultSelectOffset and DefaultSelectIterator are the
// values to pass to Select when a caller has no reason to deviate from them:
// no offset, no limit worth naming (2^30), exact-match iteration. Select
// itself fills in no defaults. Get passes the offset and iterator defaults
// explicitly, with a limit of 1; callers building their own Select call can
// pass these instead of repeating the literals.
const (
	DefaultSelectLimit    = uint32(1 << 30)
	DefaultSelectOffset   = uint32(0)
	DefaultSelectIterator = IterEqual
)
