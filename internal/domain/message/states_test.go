package message

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Status_Only_Moves_Forward(t *testing.T) {
	req := require.New(t)

	cases := []struct {
		from, to string
		ok       bool
	}{
		{StatusSent, StatusDelivered, true},
		{StatusSent, StatusRead, true},
		{StatusDelivered, StatusRead, true},
		{StatusSent, StatusSent, true},
		{StatusRead, StatusRead, true},
		{StatusRead, StatusDelivered, false},
		{StatusDelivered, StatusSent, false},
		{StatusRead, StatusSent, false},
		{"BOGUS", StatusRead, false},
		{StatusSent, "BOGUS", false},
	}
	for _, tc := range cases {
		req.Equal(tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func Test_Valid_Type_And_Priority(t *testing.T) {
	req := require.New(t)

	req.True(ValidType(TypePrescription))
	req.False(ValidType("GIF"))
	req.True(ValidPriority(PriorityUrgent))
	req.False(ValidPriority("WHENEVER"))
}
