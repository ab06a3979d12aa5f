package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Run("Valid amount", func(t *testing.T) {
		m, err := New(5000, NPR)
		assert.NoError(t, err)
		assert.Equal(t, Money{Amount: 5000, Currency: NPR}, m)
	})

	t.Run("Zero amount", func(t *testing.T) {
		_, err := New(0, USD)
		assert.NoError(t, err)
	})

	t.Run("Negative amount", func(t *testing.T) {
		_, err := New(-1, NPR)
		assert.Error(t, err)
	})

	t.Run("Unsupported currency", func(t *testing.T) {
		_, err := New(10, Currency("EUR"))
		assert.Error(t, err)
	})
}

func TestToUSD(t *testing.T) {
	t.Run("Converts at the fixed published rate", func(t *testing.T) {
		m := Money{Amount: 6850, Currency: NPR}
		usd := m.ToUSD()
		assert.Equal(t, USD, usd.Currency)
		assert.InDelta(t, 50.00, usd.Amount, 0.0001)
	})

	t.Run("USD is the identity", func(t *testing.T) {
		m := Money{Amount: 50, Currency: USD}
		assert.Equal(t, m, m.ToUSD())
	})

	t.Run("Is idempotent and does not mutate the receiver", func(t *testing.T) {
		m := Money{Amount: 6850, Currency: NPR}
		first := m.ToUSD()
		second := m.ToUSD()
		assert.Equal(t, first, second)
		assert.Equal(t, Money{Amount: 6850, Currency: NPR}, m)
	})
}

func TestMinorUnits(t *testing.T) {
	testCases := []struct {
		name string
		in   Money
		want int64
	}{
		{
			name: "NPR to paisa",
			in:   Money{Amount: 1000, Currency: NPR},
			want: 100000,
		},
		{
			name: "USD to cents",
			in:   Money{Amount: 50.00, Currency: USD},
			want: 5000,
		},
		{
			name: "Rounds fractional minor units",
			in:   Money{Amount: 0.305, Currency: NPR},
			want: 31,
		},
		{
			name: "Tiny NPR amount converted to USD yields zero cents",
			in:   Money{Amount: 0.30, Currency: NPR}.ToUSD(),
			want: 0,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.MinorUnits())
			// idempotent
			assert.Equal(t, tc.want, tc.in.MinorUnits())
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "NPR 5000.00", Money{Amount: 5000, Currency: NPR}.String())
}
