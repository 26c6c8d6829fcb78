package exception

import "github.com/yanun0323/errors"

// Session and hub state errors
var (
	ErrNotLoggedIn      = errors.New("session: user is not logged in")
	ErrNotConnected     = errors.New("hub: connection is not open")
	ErrNotAssigned      = errors.New("hub: connection or hub is not assigned")
	ErrAlreadyConnected = errors.New("hub: connection is already open")
	ErrNilTransport     = errors.New("hub: nil transport")
)
