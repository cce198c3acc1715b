package bridge

import (
	"errors"
	"fmt"
)

// Kind classifies a bridge failure.
type Kind string

const (
	// KindStructural is malformed model text.
	KindStructural Kind = "STRUCTURAL"

	// KindConfiguration is an unusable mapping or setup: an unknown
	// category/property pair, a stale mapping, short exchange arrays.
	KindConfiguration Kind = "CONFIGURATION"

	// KindNotFound is a mapped element missing from the live model.
	KindNotFound Kind = "NOT_FOUND"

	// KindSequencing is an operation called in the wrong lifecycle state.
	KindSequencing Kind = "SEQUENCING"

	// KindEngineFault is a failing engine call.
	KindEngineFault Kind = "ENGINE_FAULT"

	// KindParse is an unreadable mapping artifact.
	KindParse Kind = "PARSE"
)

// Stage names the lifecycle step an error came from.
type Stage string

const (
	StageOpen      Stage = "open"
	StageStart     Stage = "start"
	StageMapping   Stage = "mapping"
	StageVerify    Stage = "verify"
	StageResolve   Stage = "resolve"
	StageCalculate Stage = "calculate"
	StageStep      Stage = "step"
	StageCleanup   Stage = "cleanup"
)

// Error is a classified bridge failure. Error() returns Message unchanged,
// since it is relayed to the Orchestrator verbatim.
type Error struct {
	Kind  Kind
	Stage Stage

	// Message names the offending element, category or property.
	Message string

	Element  string
	Category string
	Property string

	// Code is the engine result code for KindEngineFault.
	Code int

	Err error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of a bridge error, or "" for any other error.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsSequencing reports whether err is a Sequencing error.
func IsSequencing(err error) bool { return KindOf(err) == KindSequencing }

// IsEngineFault reports whether err is an EngineFault error.
func IsEngineFault(err error) bool { return KindOf(err) == KindEngineFault }

// IsConfiguration reports whether err is a Configuration error.
func IsConfiguration(err error) bool { return KindOf(err) == KindConfiguration }

// IsParse reports whether err is a Parse error.
func IsParse(err error) bool { return KindOf(err) == KindParse }

func sequencingError(stage Stage, format string, args ...any) *Error {
	return &Error{Kind: KindSequencing, Stage: stage, Message: fmt.Sprintf(format, args...)}
}

func configurationError(stage Stage, format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Stage: stage, Message: fmt.Sprintf(format, args...)}
}
