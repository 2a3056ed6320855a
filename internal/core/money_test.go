package core

import "testing"

func TestParseCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"0.01", 1, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{"12.346", 1235, true},
		{" 2.50 ", 250, true},
		{".5", 50, true},
		{"150000", 15000000, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1,2,3", 0, false},
		{".", 0, false},
		{"", 0, false},
		{"1e3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseDecimalToCentsRejectsZero(t *testing.T) {
	cases := []string{"0", "0.00", "0,00"}
	for _, in := range cases {
		if _, err := ParseDecimalToCents(in); err == nil {
			t.Fatalf("%q expected error", in)
		}
	}
	if got, err := ParseDecimalToCents("3,50"); err != nil || got != 350 {
		t.Fatalf("expected 350, got %d (err=%v)", got, err)
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		out   string
	}{
		{1234, "$12.34"},
		{100, "$1.00"},
		{5, "$0.05"},
		{0, "$0.00"},
		{-1234, "-$12.34"},
		{15000000, "$150000.00"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.out {
			t.Fatalf("%d expected %q, got %q", tc.cents, tc.out, got)
		}
	}
}

func TestMoneySignedString(t *testing.T) {
	m := Money{Cents: 1234}
	if got := m.SignedString(Income); got != "+$12.34" {
		t.Fatalf("income: got %q", got)
	}
	if got := m.SignedString(Expense); got != "-$12.34" {
		t.Fatalf("expense: got %q", got)
	}
	if got := m.SignedString(GoalContribution); got != "$12.34" {
		t.Fatalf("goal: got %q", got)
	}
}
