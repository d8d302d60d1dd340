// Package fault provides the closed error taxonomy shared by every component.
//
// Each failure carries a stable numeric code and a kind. Codes are assigned
// where the failure originates and are never rewritten as the error moves up
// the stack; callers that need to react to a specific failure match on the
// code with As.
package fault

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Code identifies a failure class. Codes are stable across releases.
type Code int

// Failure codes.
const (
	CodeConfigMissing          Code = 1001
	CodeConfigInvalid          Code = 1002
	CodeGraphConnect           Code = 2001
	CodeGraphAuth              Code = 2002
	CodeGraphIndexMissing      Code = 2003
	CodeGraphQuery             Code = 2004
	CodeGraphResultShape       Code = 2005
	CodeEmbedModelLoad         Code = 3001
	CodeEmbedEncode            Code = 3002
	CodeEmbedDimensionMismatch Code = 3003
	CodeToolRegister           Code = 4001
	CodeToolParams             Code = 4002
	CodeServerShutdown         Code = 4003
	CodePanic                  Code = 4099
	CodeEmptyQuery             Code = 5001
	CodeExpansionFailed        Code = 5002
)

// Kind is the symbolic name of a failure class.
type Kind string

// Failure kinds, one per code.
const (
	KindConfigMissing          Kind = "ConfigMissing"
	KindConfigInvalid          Kind = "ConfigInvalid"
	KindGraphConnect           Kind = "GraphConnect"
	KindGraphAuth              Kind = "GraphAuth"
	KindGraphIndexMissing      Kind = "GraphIndexMissing"
	KindGraphQuery             Kind = "GraphQuery"
	KindGraphResultShape       Kind = "GraphResultShape"
	KindEmbedModelLoad         Kind = "EmbedModelLoad"
	KindEmbedEncode            Kind = "EmbedEncode"
	KindEmbedDimensionMismatch Kind = "EmbedDimensionMismatch"
	KindToolRegister           Kind = "ToolRegister"
	KindToolParams             Kind = "ToolParams"
	KindServerShutdown         Kind = "ServerShutdown"
	KindPanic                  Kind = "Panic"
	KindEmptyQuery             Kind = "EmptyQuery"
	KindExpansionFailed        Kind = "ExpansionFailed"
)

// kinds maps each code to its kind.
var kinds = map[Code]Kind{
	CodeConfigMissing:          KindConfigMissing,
	CodeConfigInvalid:          KindConfigInvalid,
	CodeGraphConnect:           KindGraphConnect,
	CodeGraphAuth:              KindGraphAuth,
	CodeGraphIndexMissing:      KindGraphIndexMissing,
	CodeGraphQuery:             KindGraphQuery,
	CodeGraphResultShape:       KindGraphResultShape,
	CodeEmbedModelLoad:         KindEmbedModelLoad,
	CodeEmbedEncode:            KindEmbedEncode,
	CodeEmbedDimensionMismatch: KindEmbedDimensionMismatch,
	CodeToolRegister:           KindToolRegister,
	CodeToolParams:             KindToolParams,
	CodeServerShutdown:         KindServerShutdown,
	CodePanic:                  KindPanic,
	CodeEmptyQuery:             KindEmptyQuery,
	CodeExpansionFailed:        KindExpansionFailed,
}

// KindOf returns the kind for a code, or an empty Kind for unknown codes.
func KindOf(code Code) Kind {
	return kinds[code]
}

// MaxPanicMessageLen bounds the panic text carried in details.
const MaxPanicMessageLen = 256

// Error is a classified failure. The zero value is not valid; construct
// with New.
type Error struct {
	code    Code
	message string
	details map[string]string
	cause   error
}

// Option configures an Error at construction time.
type Option func(*Error)

// WithDetail attaches a key/value pair to the error details.
func WithDetail(key, value string) Option {
	return func(e *Error) {
		if e.details == nil {
			e.details = make(map[string]string)
		}
		e.details[key] = value
	}
}

// WithCause records the underlying error for Unwrap. The cause never
// changes the code.
func WithCause(err error) Option {
	return func(e *Error) { e.cause = err }
}

// New creates a classified failure.
func New(code Code, message string, opts ...Option) *Error {
	e := &Error{
		code:    code,
		message: message,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Newf creates a classified failure with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Code returns the numeric failure code.
func (e *Error) Code() Code { return e.code }

// Kind returns the symbolic failure kind.
func (e *Error) Kind() Kind { return KindOf(e.code) }

// Message returns the human-readable failure message.
func (e *Error) Message() string { return e.message }

// Details returns a copy of the details map. Never nil.
func (e *Error) Details() map[string]string {
	details := make(map[string]string, len(e.details))
	for k, v := range e.details {
		details[k] = v
	}
	return details
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%d %s] %s: %v", e.code, e.Kind(), e.message, e.cause)
	}
	return fmt.Sprintf("[%d %s] %s", e.code, e.Kind(), e.message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// As extracts a *Error from an error chain. Returns nil and false if the
// chain contains no classified failure.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// FromPanic converts a recovered panic value into a 4099 failure. The panic
// text is truncated to MaxPanicMessageLen and carried in details.panic.
func FromPanic(recovered any) *Error {
	text := fmt.Sprint(recovered)
	if len(text) > MaxPanicMessageLen {
		text = text[:MaxPanicMessageLen]
	}
	return New(CodePanic, "internal error", WithDetail("panic", text))
}

// Envelope is the JSON failure shape returned to tool callers and printed
// by the CLI. Field names are part of the wire contract.
type Envelope struct {
	Error     bool              `json:"error"`
	ErrorCode int               `json:"error_code"`
	Message   string            `json:"error_message"`
	Details   map[string]string `json:"error_details"`
	RequestID string            `json:"request_id"`
}

// ToEnvelope builds the failure envelope for an error. Errors outside the
// taxonomy are reported as a 4099 internal failure so the wire contract
// stays closed.
func ToEnvelope(err error, requestID string) Envelope {
	fe, ok := As(err)
	if !ok {
		fe = FromPanic(err)
	}
	return Envelope{
		Error:     true,
		ErrorCode: int(fe.Code()),
		Message:   fe.Message(),
		Details:   fe.Details(),
		RequestID: requestID,
	}
}

// MarshalEnvelope serializes the failure envelope for an error.
func MarshalEnvelope(err error, requestID string) ([]byte, error) {
	return json.Marshal(ToEnvelope(err, requestID))
}
