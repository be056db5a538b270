package chat

// Status is the delivery state of a message. It is a closed enumeration:
// illegal transitions are rejected at the store boundary instead of being
// silently written.
type Status string

const (
	StatusSending   Status = "sending"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

// rank orders the forward chain sending -> delivered -> read.
var rank = map[Status]int{
	StatusSending:   0,
	StatusDelivered: 1,
	StatusRead:      2,
}

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusSending, StatusDelivered, StatusRead, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether a message may move from `from` to `to`.
// Status only moves forward along sending -> delivered -> read (skipping a
// step is allowed), or from sending/delivered to failed. A read message is
// never reverted, and failed is terminal.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() || from == to {
		return false
	}
	if from == StatusFailed {
		return false
	}
	if to == StatusFailed {
		return from == StatusSending || from == StatusDelivered
	}
	return rank[to] > rank[from]
}
