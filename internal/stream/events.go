package stream

import "encoding/json"

// Event is one wire frame on the market stream. Seq is monotonic per hub
// so clients can discard frames that arrive out of order after a reconnect.
type Event struct {
	Type string          `json:"type"`
	Seq  uint64          `json:"seq"`
	Data json.RawMessage `json:"data"`
}

const (
	EventStatus   = "status"
	EventSnapshot = "snapshot"
)

func encodeEvent(typ string, seq uint64, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Type: typ, Seq: seq, Data: raw})
}
