package http

import (
	"errors"

	"github.com/nockspace/murmur/pkg/tokenx"
)

// isTokenError reports whether err is a verification failure rather
// than an infrastructure problem. Both kinds map to the same generic
// 401 body so callers cannot distinguish expired from forged.
func isTokenError(err error) bool {
	return errors.Is(err, tokenx.ErrExpired) || errors.Is(err, tokenx.ErrMalformed)
}
