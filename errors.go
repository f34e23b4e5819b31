package tarantool

import "fmt"

// ClientErrorCode identifies a client-side (non-server-reported) failure.
type ClientErrorCode uint32

// Client error codes.
const (
	ErrHandshakeFailed ClientErrorCode = 0x4000 + iota
	ErrConnectionClosed
	ErrConnectionNotReady
	ErrTimeout
	ErrWire
	ErrUnknownSpace
	ErrUnknownIndex
	ErrSchemaNotLoaded
	ErrUnknownIterator
)

func (c ClientErrorCode) String() string {
	switch c {
	case ErrHandshakeFailed:
		return "HandshakeFailed"
	case ErrConnectionClosed:
		return "ConnectionClosed"
	case ErrConnectionNotReady:
		return "ConnectionNotReady"
	case ErrTimeout:
		return "Timeout"
	case ErrWire:
		return "WireError"
	case ErrUnknownSpace:
		return "UnknownSpace"
	case ErrUnknownIndex:
		return "UnknownIndex"
	case ErrSchemaNotLoaded:
		return "SchemaNotLoaded"
	case ErrUnknownIterator:
		return "UnknownIterator"
	default:
		return fmt.Sprintf("ClientErrorCode(%d)", uint32(c))
	}
}

// ClientError is an error raised by the client itself rather than reported
// by the Tarantool server: a handshake failure, a closed connection, a
// request timeout, a wire-format violation, or a request-surface
// validation failure (unknown space/index/iterator, schema not loaded).
type ClientError struct {
	Code ClientErrorCode
	Msg  string
}

func (e ClientError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Fatal reports whether this error, when observed by the dispatcher's
// reader, should close the connection: HandshakeFailed, ConnectionClosed
// and WireError are fatal; Timeout and the request-surface validation
// errors are not.
func (e ClientError) Fatal() bool {
	switch e.Code {
	case ErrHandshakeFailed, ErrConnectionClosed, ErrWire:
		return true
	default:
		return false
	}
}

// Error is a response carrying a non-zero status code from the Tarantool
// server: Code is the low 15 bits of the response header's Code field, Msg
// is the human-readable message from the response body's Error key.
type Error struct {
	Code uint32
	Msg  string
	// Extended holds the decoded box.error stack, when the server sent one.
	Extended *BoxError
}

func (e Error) Error() string {
	if e.Extended != nil {
		return e.Extended.Error()
	}
	return fmt.Sprintf("%s (0x%x)", e.Msg, e.Code)
}

// Tarantool server error codes (IPROTO response codes with ErrorCodeBit
// stripped), from the box.error reference.
const (
	ErrUnknown                       = 0
	ErrIllegalParams                 = 1
	ErrMemoryIssue                   = 2
	ErrTupleFound                    = 3
	ErrTupleNotFound                 = 4
	ErrUnsupported                   = 5
	ErrNonmaster                     = 6
	ErrReadonly                      = 7
	ErrInjection                     = 8
	ErrCreateSpace                   = 9
	ErrSpaceExists                   = 10
	ErrDropSpace                     = 11
	ErrAlterSpace                    = 12
	ErrIndexType                     = 13
	ErrModifyIndex                   = 14
	ErrLastDrop                      = 15
	ErrTupleFormatLimit              = 16
	ErrDropPrimaryKey                = 17
	ErrKeyPartType                   = 18
	ErrExactMatch                    = 19
	ErrInvalidMsgpack                = 20
	ErrProcRet                       = 21
	ErrTupleNotArray                 = 22
	ErrFieldType                     = 23
	ErrFieldTypeMismatch             = 24
	ErrSplice                        = 25
	ErrArgType                       = 26
	ErrTupleIsTooLong                = 27
	ErrUnknownUpdateOp               = 28
	ErrUpdateField                   = 29
	ErrFiberStack                    = 30
	ErrKeyPartCount                  = 31
	ErrProcLua                       = 32
	ErrNoSuchProc                    = 33
	ErrNoSuchTrigger                 = 34
	ErrNoSuchIndex                   = 35
	ErrNoSuchSpace                   = 36
	ErrNoSuchField                   = 37
	ErrSpaceFieldCount               = 38
	ErrIndexFieldCount               = 39
	ErrWalIo                         = 40
	ErrMoreThanOneTuple              = 41
	ErrAccessDenied                  = 42
	ErrCreateUser                    = 43
	ErrDropUser                      = 44
	ErrNoSuchUser                    = 45
	ErrUserExists                    = 46
	ErrPasswordMismatch              = 47
	ErrUnknownRequestType            = 48
	ErrUnknownSchemaObject           = 49
	ErrCreateFunction                = 50
	ErrNoSuchFunction                = 51
	ErrFunctionExists                = 52
	ErrFunctionAccessDenied          = 53
	ErrFunctionMax                   = 54
	ErrSpaceAccessDenied             = 55
	ErrUserMax                       = 56
	ErrNoSuchEngine                  = 57
	ErrReloadCfg                     = 58
	ErrCfg                           = 59
	ErrLocalServerIsNotActive        = 61
	ErrUnknownServer                 = 62
	ErrClusterIdMismatch             = 63
	ErrInvalidUUID                   = 64
	ErrClusterIdIsRo                 = 65
	ErrServerIdIsReserved            = 67
	ErrInvalidOrder                  = 68
	ErrMissingRequestField           = 69
	ErrIdentifier                    = 70
	ErrDropFunction                  = 71
	ErrIteratorType                  = 72
	ErrReplicaMax                    = 73
	ErrInvalidXlog                   = 74
	ErrInvalidXlogName               = 75
	ErrInvalidXlogOrder              = 76
	ErrNoConnection                  = 77
	ErrTimeoutServer                 = 78
	ErrActiveTransaction             = 79
	ErrNoActiveTransaction           = 80
	ErrCrossEngineTransaction        = 81
	ErrNoSuchRole                    = 82
	ErrRoleExists                    = 83
	ErrCreateRole                    = 84
	ErrIndexExists                   = 85
	ErrTupleRefOverflow              = 86
	ErrRoleLoop                      = 87
	ErrGrant                         = 88
	ErrPrivGranted                   = 89
	ErrRoleGranted                   = 90
	ErrPrivNotGranted                = 91
	ErrRoleNotGranted                = 92
	ErrMissingSnapshot               = 93
	ErrCantUpdatePrimaryKey          = 94
	ErrUpdateIntegerOverflow         = 95
	ErrGuestUserPassword             = 96
	ErrTransactionConflict           = 97
	ErrUnsupportedRolePriv           = 98
	ErrLoadFunction                  = 99
	ErrFunctionLanguage              = 100
	ErrRtreeRect                     = 101
	ErrProcC                         = 102
	ErrUnknownRtreeIndexDistanceType = 103
	ErrProtocol                      = 104
	ErrUpsertUniqueSecondaryKey      = 105
	ErrWrongIndexRecord              = 106
	ErrWrongIndexParts               = 107
	ErrWrongIndexOptions             = 108
	ErrWrongSchemaVersion            = 109
	ErrSlabAllocMax                  = 110
)
