package sim

import "math"

// Budget is the player's money. It satisfies network.Wallet and is only
// touched by the simulation goroutine.
type Budget struct {
	balance float64
	carry   float64
}

// NewBudget starts with the given balance.
func NewBudget(start float64) *Budget { return &Budget{balance: start} }

func (b *Budget) Balance() float64 { return b.balance }

// Spend deducts amount. Callers check affordability first.
func (b *Budget) Spend(amount float64) { b.balance -= amount }

// Credit adds amount; a negative amount is a debit.
func (b *Budget) Credit(amount float64) { b.balance += amount }

// Accrue pays rate for every whole second in elapsed, carrying fractions
// over to the next call. It returns the amount paid.
func (b *Budget) Accrue(elapsedSeconds, rate float64) float64 {
	if elapsedSeconds <= 0 || rate <= 0 {
		return 0
	}
	b.carry += elapsedSeconds
	whole := math.Floor(b.carry)
	if whole < 1 {
		return 0
	}
	b.carry -= whole
	paid := whole * rate
	b.balance += paid
	return paid
}
