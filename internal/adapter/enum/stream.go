package enum

// Stream identifies one inbound queue of the ingestion pipeline.
type Stream uint8

const (
	_stream_beg Stream = iota
	StreamPortfolio
	StreamBoard
	StreamOrderBook
	_stream_end
)

func (s Stream) IsAvailable() bool {
	return s > _stream_beg && s < _stream_end
}

func (s Stream) String() string {
	switch s {
	case StreamPortfolio:
		return "portfolio"
	case StreamBoard:
		return "board"
	case StreamOrderBook:
		return "order_book"
	default:
		return "unknown"
	}
}
