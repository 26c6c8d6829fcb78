package enum

import "strings"

// Board is a named panel of securities used to scope a subscription or a snapshot query.
type Board uint8

const (
	_board_beg Board = iota
	BoardBluechips
	BoardGeneral
	BoardCedears
	BoardGovernmentBonds
	BoardShortTermGovernmentBonds
	BoardCorporateBonds
	_board_end
)

var (
	_boardNames = [...]string{
		BoardBluechips:                "bluechips",
		BoardGeneral:                  "general_board",
		BoardCedears:                  "cedears",
		BoardGovernmentBonds:          "government_bonds",
		BoardShortTermGovernmentBonds: "short_term_government_bonds",
		BoardCorporateBonds:           "corporate_bonds",
	}

	_boardCodes = [...]string{
		BoardBluechips:                "accionesLideres",
		BoardGeneral:                  "panelGeneral",
		BoardCedears:                  "cedears",
		BoardGovernmentBonds:          "rentaFija",
		BoardShortTermGovernmentBonds: "letes",
		BoardCorporateBonds:           "obligaciones",
	}
)

func (b Board) IsAvailable() bool {
	return b > _board_beg && b < _board_end
}

// Name returns the human facing board name, empty for unavailable boards.
func (b Board) Name() string {
	if !b.IsAvailable() {
		return ""
	}
	return _boardNames[b]
}

// Code returns the wire panel code, empty for unavailable boards.
func (b Board) Code() string {
	if !b.IsAvailable() {
		return ""
	}
	return _boardCodes[b]
}

func (b Board) String() string {
	return b.Name()
}

// Boards lists every available board in declaration order.
func Boards() []Board {
	boards := make([]Board, 0, int(_board_end)-1)
	for b := _board_beg + 1; b < _board_end; b++ {
		boards = append(boards, b)
	}
	return boards
}

// ParseBoardName matches a human facing board name, case-insensitive.
func ParseBoardName(name string) (Board, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for b := _board_beg + 1; b < _board_end; b++ {
		if _boardNames[b] == name {
			return b, true
		}
	}
	return 0, false
}

// ParseBoardCode matches a wire panel code exactly.
func ParseBoardCode(code string) (Board, bool) {
	for b := _board_beg + 1; b < _board_end; b++ {
		if _boardCodes[b] == code {
			return b, true
		}
	}
	return 0, false
}
