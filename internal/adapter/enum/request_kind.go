package enum

// RequestKind tells how a symbol's settlement must be read and written.
type RequestKind uint8

const (
	_request_kind_beg RequestKind = iota
	// RequestAsset settles spot, 24hs or 48hs.
	RequestAsset
	// RequestOption has no settlement.
	RequestOption
	// RequestRepo settles on a YYYYMMDD date.
	RequestRepo
	_request_kind_end
)

func (k RequestKind) IsAvailable() bool {
	return k > _request_kind_beg && k < _request_kind_end
}

func (k RequestKind) String() string {
	switch k {
	case RequestAsset:
		return "asset"
	case RequestOption:
		return "option"
	case RequestRepo:
		return "repo"
	default:
		return "unknown"
	}
}
