package names

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"red_potion", "Red Potion"},
		{"", "unknown"},
		{"   ", "unknown"},
		{"unknown", "unknown"},
		{"GOBLIN_TINKERER", "Goblin Tinkerer"},
		{"  lesser healing potion ", "Lesser Healing Potion"},
		{"item 2x", "Item 2X"},
		{"Andrew", "Andrew"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

