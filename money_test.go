package folio

import "testing"

func TestMoneyString(t *testing.T) {
	if got, want := M(100, "USD").String(), "$100.00"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := M(1234.5, "USD").String(), "$1,234.50"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestMoneyMul(t *testing.T) {
	// 21 shares at 126.25 each.
	got := M(126.25, "USD").Mul(Q(21))
	if got.String() != "$2,651.25" {
		t.Errorf("Mul() = %q, want $2,651.25", got)
	}
}

func TestMoneyWeakCurrency(t *testing.T) {
	// The empty currency is weak: it takes the other operand's currency.
	got := M(10, "").Add(M(5, "USD"))
	if got.Currency() != "USD" || !got.Equal(M(15, "USD")) {
		t.Errorf("Add() = %v %s", got.Amount(), got.Currency())
	}

	defer func() {
		if recover() == nil {
			t.Error("mixing two strong currencies did not panic")
		}
	}()
	M(1, "USD").Add(M(1, "EUR"))
}

func TestMoneySignedString(t *testing.T) {
	if got := M(0, "USD").SignedString(); got != "-" {
		t.Errorf("zero = %q, want -", got)
	}
	if got := M(5, "USD").SignedString(); got != "+$5.00" {
		t.Errorf("positive = %q, want +$5.00", got)
	}
}
