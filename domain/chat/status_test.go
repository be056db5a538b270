package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatus_Valid(t *testing.T) {
	req := require.New(t)

	req.True(StatusSending.Valid())
	req.True(StatusDelivered.Valid())
	req.True(StatusRead.Valid())
	req.True(StatusFailed.Valid())
	req.False(Status("archived").Valid())
	req.False(Status("").Valid())
}

func TestStatus_CanTransition(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"sending to delivered", StatusSending, StatusDelivered, true},
		{"sending to read skips a step", StatusSending, StatusRead, true},
		{"sending to failed", StatusSending, StatusFailed, true},
		{"delivered to read", StatusDelivered, StatusRead, true},
		{"delivered to failed", StatusDelivered, StatusFailed, true},
		{"delivered back to sending", StatusDelivered, StatusSending, false},
		{"read is terminal", StatusRead, StatusDelivered, false},
		{"read to failed", StatusRead, StatusFailed, false},
		{"failed is terminal", StatusFailed, StatusSending, false},
		{"failed to delivered", StatusFailed, StatusDelivered, false},
		{"same status", StatusDelivered, StatusDelivered, false},
		{"unknown source", Status("archived"), StatusRead, false},
		{"unknown target", StatusSending, Status("archived"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req.Equal(tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

// A message can never move backwards: once any path of legal transitions
// reaches a state, no legal transition leads back to an earlier one.
func TestStatus_NeverMovesBackwards(t *testing.T) {
	req := require.New(t)
	forward := map[Status]int{StatusSending: 0, StatusDelivered: 1, StatusRead: 2}

	for from, fromRank := range forward {
		for to, toRank := range forward {
			if toRank < fromRank {
				req.False(CanTransition(from, to), "%s -> %s should be rejected", from, to)
			}
		}
	}
}
