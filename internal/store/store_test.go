package store

import (
	"errors"
	"testing"

	"cash/internal/core"
)

func TestCollectionFor(t *testing.T) {
	cases := []struct {
		c   core.Category
		col Collection
		ok  bool
	}{
		{core.Income, Incomes, true},
		{core.Expense, Expenses, true},
		{core.GoalContribution, "", false},
		{core.Category("bogus"), "", false},
	}
	for i, tc := range cases {
		col, err := CollectionFor(tc.c)
		if tc.ok {
			if err != nil || col != tc.col {
				t.Fatalf("case %d: expected %q, got %q (err=%v)", i, tc.col, col, err)
			}
		} else if !errors.Is(err, ErrUnknownCollection) {
			t.Fatalf("case %d: expected ErrUnknownCollection, got %v", i, err)
		}
	}
}

func TestCollectionCategory(t *testing.T) {
	if Incomes.Category() != core.Income || Expenses.Category() != core.Expense {
		t.Fatalf("record collections map to their categories")
	}
	if Goals.Category() != core.GoalContribution {
		t.Fatalf("goals collection maps to the contribution category")
	}
}
