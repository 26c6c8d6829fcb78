package exception

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is the root of every validation failure detected before a network call.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	ErrInvalidBoard          = fmt.Errorf("%w: invalid board name", ErrInvalidArgument)
	ErrInvalidSettlement     = fmt.Errorf("%w: invalid settlement", ErrInvalidArgument)
	ErrBoardNotAssigned      = fmt.Errorf("%w: board is not assigned", ErrInvalidArgument)
	ErrSettlementNotAssigned = fmt.Errorf("%w: settlement is not assigned", ErrInvalidArgument)
	ErrSymbolNotAssigned     = fmt.Errorf("%w: symbol is not assigned", ErrInvalidArgument)
)

// ErrInvalidConfig is returned when the loaded configuration cannot build a session.
var ErrInvalidConfig = errors.New("invalid config")
