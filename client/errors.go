package client

import (
	"errors"
	"fmt"

	"github.com/MorozVladislav/Engine/protocol"
)

var (
	ErrNotConnected    = errors.New("connection is not established")
	ErrHostMissing     = errors.New("host is missing")
	ErrPortMissing     = errors.New("port is missing")
	ErrUsernameMissing = errors.New("username is missing")
)

// BadServerResponse reports a non-OK status returned by the server together
// with the error message decoded from the response body.
type BadServerResponse struct {
	Status  protocol.Status
	Message string
}

func (e *BadServerResponse) Error() string {
	if e.Message == "" {
		return e.Status.String()
	}
	return fmt.Sprintf("%s %s", e.Status, e.Message)
}
