// Package failure pairs an internal error with the HTTP status and the
// public message sent back to the caller.
package failure

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var ErrMissingUploadFields = New(
	errors.New("upload-url request without fileName or contentType"),
	http.StatusBadRequest,
	"Missing fileName or contentType",
)

// MissingField is returned when a required report field is empty.
func MissingField(field string) *RequestFailure {
	return New(
		errors.Errorf("report request missing %s", field),
		http.StatusBadRequest,
		"Missing field: "+field,
	)
}

type RequestFailure struct {
	err  error  // developer level error for logging
	Code int    // http status
	Msg  string // public facing message to send
}

func New(err error, statusCode int, userMsg string) *RequestFailure {
	if userMsg == "" {
		userMsg = http.StatusText(statusCode)
	}
	return &RequestFailure{
		err:  err,
		Code: statusCode,
		Msg:  userMsg,
	}
}

// Wrap turns err into an internal server failure. err is kept for logs only;
// the caller sees the generic status text.
func Wrap(err error, context string) *RequestFailure {
	return New(errors.Wrap(err, context), http.StatusInternalServerError, "")
}

func (rf *RequestFailure) Error() string {
	return fmt.Sprintf("%v - %v", http.StatusText(rf.Code), rf.Msg)
}

func (rf *RequestFailure) Unwrap() error {
	return rf.err
}

// Cause is the developer level error, for logs.
func (rf *RequestFailure) Cause() error {
	return rf.err
}
