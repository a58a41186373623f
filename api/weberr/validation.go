package weberr

import (
	"net/http"

	"github.com/dvelichkov/storefront/validate"
)

// ValidationResponse lists every failed field in the order they were
// checked. The top-level message repeats the first failure, which is the
// field clients should focus first.
type ValidationResponse struct {
	Error  string                 `json:"error"`
	Fields []validate.FieldError `json:"fields"`
}

func Validation(err error, fields []validate.FieldError, opts ...Opt) error {
	msg := "validation failed"
	if len(fields) > 0 && fields[0].Message != "" {
		msg = fields[0].Message
	}

	e := &RequestError{Err: err}
	opts = append(opts, WithResponse(
		&ValidationResponse{Error: msg, Fields: fields},
		http.StatusUnprocessableEntity,
	))

	return Wrap(e, opts...)
}
