package core

import (
	"errors"
	"fmt"
	"os"
)

// General error codes
const (
	NOERROR   int = 0
	EMISSING  int = 122 // resource does not exist
	EINVALID  int = 123 // validation failed
	EINTERNAL int = 125 // internal error
	EFORMAT   int = 126 // malformed glyph source data
	EPARSE    int = 127 // unparsable path instruction stream
	EVERSION  int = 128 // persisted data from an incompatible version
	EREQUIRED int = 129 // glyph edited after a required tool ran
)

func errorText(ecode int) string {
	switch ecode {
	case NOERROR:
		return "OK"
	case EMISSING:
		return "not found"
	case EINVALID:
		return "invalid"
	case EINTERNAL:
		return "internal error"
	case EFORMAT:
		return "format error"
	case EPARSE:
		return "parse error"
	case EVERSION:
		return "version mismatch"
	case EREQUIRED:
		return "required tool"
	}
	return "undefined error"
}

// AppError is an error with an associated error code and a user-message.
type AppError interface {
	error
	ErrorCode() int
	UserMessage() string
}

type coreError struct {
	error
	code int
	msg  string
}

func (e coreError) Unwrap() error {
	return e.error
}

func (e coreError) Error() string {
	if e.msg == "" || e.msg == e.error.Error() {
		return fmt.Sprintf("[%d] %v", e.code, e.error)
	}
	return fmt.Sprintf("[%d] %v: %s", e.code, e.error, e.msg)
}

func (e coreError) ErrorCode() int {
	return e.code
}

func (e coreError) UserMessage() string {
	return e.msg
}

var _ AppError = coreError{}

// WrapError wraps an error in a core error, featuring an error code and
// a user message.
// If err is nil, an error denoting NOERROR is returned.
func WrapError(err error, code int, format string, v ...interface{}) error {
	if err == nil {
		err = errors.New(errorText(code))
	}
	msg := fmt.Sprintf(format, v...)
	return coreError{err, code, msg}
}

// Code returns the status code associated with an error.
// If no status code is found, it returns EINTERNAL.
// If err is nil, NOERROR is returned.
func Code(err error) (code int) {
	if err == nil {
		return NOERROR
	}
	if e := AppError(nil); errors.As(err, &e) {
		return e.ErrorCode()
	}
	return EINTERNAL
}

// UserMessage returns the user message associated with an error.
// If no message is found, it checks StatusCode and returns that message.
// If err is nil, it returns "".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if e := AppError(nil); errors.As(err, &e) {
		return e.UserMessage()
	}
	return errorText(Code(err))
}

// Error creates an error with an error code and a user-message.
func Error(code int, format string, v ...interface{}) error {
	return coreError{
		errors.New(errorText(code)),
		code,
		fmt.Sprintf(format, v...),
	}
}

// UserError prints an error for the user to stderr, prefixed by the name of
// the glyph it is attributed to, if any.
func UserError(err error) {
	prefix := ""
	if glyph := GlyphName(err); glyph != "" {
		prefix = "glyph '" + glyph + "': "
	}
	if e := AppError(nil); errors.As(err, &e) {
		fmt.Fprintf(os.Stderr, "[%d] %s%s\n", e.ErrorCode(), prefix, e.UserMessage())
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
}

// --- Glyph attribution -----------------------------------------------------

type glyphError struct {
	glyph string
	err   error
}

func (e glyphError) Error() string {
	return fmt.Sprintf("glyph '%s': %v", e.glyph, e.err)
}

func (e glyphError) Unwrap() error {
	return e.err
}

// ForGlyph attributes err to a glyph. Error codes and user messages of err
// remain accessible through Code and UserMessage.
// If err is nil, ForGlyph returns nil.
func ForGlyph(glyphName string, err error) error {
	if err == nil {
		return nil
	}
	var ge glyphError
	if errors.As(err, &ge) && ge.glyph == glyphName {
		return err
	}
	return glyphError{glyph: glyphName, err: err}
}

// GlyphName returns the name of the glyph an error has been attributed to,
// or "" if there is none.
func GlyphName(err error) string {
	var ge glyphError
	if errors.As(err, &ge) {
		return ge.glyph
	}
	return ""
}
