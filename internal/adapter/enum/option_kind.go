package enum

// OptionKind call or put. The zero value marks a row that is not an option.
type OptionKind uint8

const (
	OptionNone OptionKind = iota
	OptionCall
	OptionPut
	_option_kind_end
)

func (k OptionKind) IsAvailable() bool {
	return k < _option_kind_end
}

func (k OptionKind) String() string {
	switch k {
	case OptionCall:
		return "CALL"
	case OptionPut:
		return "PUT"
	default:
		return ""
	}
}

// ParseOptionCode maps the feed put/call code. Unknown codes yield OptionNone.
func ParseOptionCode(code string) OptionKind {
	switch code {
	case "1":
		return OptionCall
	case "2":
		return OptionPut
	default:
		return OptionNone
	}
}
