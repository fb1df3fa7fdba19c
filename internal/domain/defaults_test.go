package domain

import "testing"

func TestMergeDefaults(t *testing.T) {
	stored := State{
		Categories: []Category{
			{ID: "cat_food", Name: "Comida renomeada", Type: CategoryTypeExpense, IsDefault: true},
			{ID: "mine", Name: "Pets", Type: CategoryTypeExpense},
		},
		Accounts: []Account{{ID: "acc_picpay", Name: "Picpay", Balance: 1}},
	}

	got := MergeDefaults(stored, true)

	if len(got.Categories) != len(DefaultCategories())+1 {
		t.Errorf("categories = %d, want %d", len(got.Categories), len(DefaultCategories())+1)
	}
	if c, _ := got.FindCategory("cat_food"); c.Name != "Comida renomeada" {
		t.Errorf("stored default was overwritten: %+v", c)
	}
	if _, ok := got.FindCategory("mine"); !ok {
		t.Errorf("user category dropped")
	}
	if len(got.Accounts) != len(DefaultAccounts()) {
		t.Errorf("accounts = %d, want %d", len(got.Accounts), len(DefaultAccounts()))
	}
	if a, _ := got.FindAccount("acc_picpay"); a.Balance != 1 {
		t.Errorf("stored account balance replaced: %v", a.Balance)
	}
	if got.Settings.DefaultCurrency != DefaultCurrency || got.Transactions == nil {
		t.Errorf("merge did not normalize: %+v", got.Settings)
	}
	if len(stored.Categories) != 2 {
		t.Errorf("input mutated")
	}
}

func TestMergeDefaults_WithoutAccounts(t *testing.T) {
	got := MergeDefaults(State{}, false)
	if len(got.Accounts) != 0 {
		t.Errorf("accounts seeded: %d", len(got.Accounts))
	}
	if len(got.Categories) != len(DefaultCategories()) {
		t.Errorf("categories = %d", len(got.Categories))
	}
}

func TestDefaultCategories_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range DefaultCategories() {
		if seen[c.ID] || !c.IsDefault {
			t.Errorf("bad default category %+v", c)
		}
		seen[c.ID] = true
	}
	for _, id := range []string{"cat_other_income", "cat_other_expense"} {
		if c, ok := InitialState().FindCategory(id); !ok || c.Name != "Outros" {
			t.Errorf("fallback category %s missing", id)
		}
	}
}
