package exception

import "errors"

var (
	ErrServer          = errors.New("market data: server reported failure")
	ErrMalformedRecord = errors.New("market data: malformed record")
	ErrCallbackPanic   = errors.New("market data: callback panicked")
	ErrPipelineRunning = errors.New("market data: pipeline already running")
)
