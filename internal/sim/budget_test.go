package sim

import "testing"

func TestBudgetAccrueCarriesFractions(t *testing.T) {
	b := NewBudget(100)
	if paid := b.Accrue(0.4, 5); paid != 0 {
		t.Fatalf("paid %v for less than a second", paid)
	}
	if paid := b.Accrue(0.7, 5); paid != 5 {
		t.Fatalf("paid %v, want 5 once the carry passes a second", paid)
	}
	if paid := b.Accrue(2, 5); paid != 10 {
		t.Fatalf("paid %v, want 10", paid)
	}
	if b.Balance() != 115 {
		t.Fatalf("balance = %v, want 115", b.Balance())
	}
	if paid := b.Accrue(-1, 5); paid != 0 {
		t.Fatalf("negative elapsed paid %v", paid)
	}
}

func TestBudgetSpendCredit(t *testing.T) {
	b := NewBudget(50)
	b.Spend(20)
	b.Credit(-10)
	b.Credit(5)
	if b.Balance() != 25 {
		t.Fatalf("balance = %v, want 25", b.Balance())
	}
}
