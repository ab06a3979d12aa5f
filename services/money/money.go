package money

import (
	"fmt"
	"math"

	"github.com/hamrostay/checkoutservice/lib/myerrors"
)

type Currency string

const (
	NPR Currency = "NPR"
	USD Currency = "USD"
)

// Fixed published conversion rate. This subsystem deliberately does no live
// FX lookups; the booking backend settles in NPR.
const nprPerUSD = 137.0

type Money struct {
	Amount   float64
	Currency Currency
}

func New(amount float64, currency Currency) (Money, error) {
	if amount < 0 {
		return Money{}, myerrors.NewInvalidInputError(fmt.Errorf("amount must not be negative, got %f", amount))
	}
	if currency != NPR && currency != USD {
		return Money{}, myerrors.NewInvalidInputError(fmt.Errorf("unsupported currency %s", currency))
	}

	return Money{
		Amount:   amount,
		Currency: currency,
	}, nil
}

// ToUSD converts at the fixed published rate. Calling it on an USD value is
// the identity; the receiver is never mutated.
func (m Money) ToUSD() Money {
	if m.Currency == USD {
		return m
	}

	return Money{
		Amount:   m.Amount / nprPerUSD,
		Currency: USD,
	}
}

// MinorUnits returns the amount in the smallest denomination of the
// currency: cents for USD, paisa for NPR.
func (m Money) MinorUnits() int64 {
	return int64(math.Round(m.Amount * 100))
}

func (m Money) String() string {
	return fmt.Sprintf("%s %.2f", m.Currency, m.Amount)
}
