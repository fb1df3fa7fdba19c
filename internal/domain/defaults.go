package domain

// DefaultCategories are seeded on first load and re-added by id whenever a
// stored state is missing one of them.
func DefaultCategories() []Category {
	return []Category{
		{ID: "cat_salary", Name: "Salário", Icon: "Banknote", Color: "#10B981", Type: CategoryTypeIncome, IsDefault: true},
		{ID: "cat_freelance", Name: "Freelance", Icon: "Laptop", Color: "#14B8A6", Type: CategoryTypeIncome, IsDefault: true},
		{ID: "cat_investments", Name: "Investimentos", Icon: "TrendingUp", Color: "#22C55E", Type: CategoryTypeIncome, IsDefault: true},
		{ID: "cat_gifts_in", Name: "Presentes", Icon: "Gift", Color: "#84CC16", Type: CategoryTypeIncome, IsDefault: true},
		{ID: "cat_refunds", Name: "Reembolsos", Icon: "RotateCcw", Color: "#06B6D4", Type: CategoryTypeIncome, IsDefault: true},
		{ID: "cat_other_income", Name: "Outros", Icon: "Plus", Color: "#8B5CF6", Type: CategoryTypeIncome, IsDefault: true},

		{ID: "cat_food", Name: "Alimentação", Icon: "UtensilsCrossed", Color: "#F97316", Type: CategoryTypeExpense, IsDefault: true},
		{ID: "cat_transport", Name: "Transporte", Icon: "Car", Color: "#3B82F6", Type: CategoryTypeExpense, IsDefault: true},
		{ID: "cat_housing", Name: "Moradia", Icon: "Home", Color: "#8B5CF6", Type: CategoryTypeExpense, IsDefault: true},
		{ID: "cat_utilities", Name: "Contas", Icon: "Zap", Color: "#FBBF24", Type: CategoryTypeExpense, IsDefault: true},
		{ID: "cat_health", Name: "Saúde", Icon: "Heart", Color: "#EF4444", Type: CategoryTypeExpense, IsDefault: true},
		{ID: "cat_education", Name: "Educação", Icon: "GraduationCap", Color: "#6366F1", Type: CategoryTypeExpense, IsDefault: true},
		{ID: "cat_entertainment", Name: "Lazer", Icon: "Gamepad2", Color: "#EC4899", Type: CategoryTypeExpense, IsDefault: true},
		{ID: "cat_shopping", Name: "Compras", Icon: "ShoppingBag", Color: "#F472B6", Type: CategoryTypeExpense, IsDefault: true},
		{ID: "cat_travel", Name: "Viagens", Icon: "Plane", Color: "#0EA5E9", Type: CategoryTypeExpense, IsDefault: true},
		{ID: "cat_subscriptions", Name: "Assinaturas", Icon: "CreditCard", Color: "#A855F7", Type: CategoryTypeExpense, IsDefault: true},
		{ID: "cat_pets", Name: "Pets", Icon: "PawPrint", Color: "#F59E0B", Type: CategoryTypeExpense, IsDefault: true},
		{ID: "cat_gifts_out", Name: "Presentes", Icon: "Gift", Color: "#FB7185", Type: CategoryTypeExpense, IsDefault: true},
		{ID: "cat_other_expense", Name: "Outros", Icon: "MoreHorizontal", Color: "#94A3B8", Type: CategoryTypeExpense, IsDefault: true},
	}
}

// DefaultAccounts are the accounts a fresh install starts with.
func DefaultAccounts() []Account {
	return []Account{
		{ID: "acc_picpay", Name: "Picpay", Type: AccountTypeBank, Balance: 3937.61, Currency: DefaultCurrency, Color: "#21C25E", Icon: "Building2"},
		{ID: "acc_99pay", Name: "99Pay", Type: AccountTypeBank, Balance: 2273.92, Currency: DefaultCurrency, Color: "#F5A623", Icon: "Wallet"},
		{ID: "acc_mercadopago", Name: "Mercado Pago", Type: AccountTypeBank, Balance: -1648.82, Currency: DefaultCurrency, Color: "#009EE3", Icon: "Building2"},
		{ID: "acc_nupj", Name: "NuPj", Type: AccountTypeBank, Balance: 4972.61, Currency: DefaultCurrency, Color: "#8A05BE", Icon: "Building2"},
		{ID: "acc_bity", Name: "Bity", Type: AccountTypeBank, Balance: 4669.00, Currency: DefaultCurrency, Color: "#F59E0B", Icon: "Building2"},
		{ID: "acc_clear", Name: "Clear", Type: AccountTypeInvestment, Balance: 13601.10, Currency: DefaultCurrency, Color: "#06B6D4", Icon: "TrendingUp"},
		{ID: "acc_cmcapital", Name: "CM Capital", Type: AccountTypeInvestment, Balance: 1600.00, Currency: DefaultCurrency, Color: "#6366F1", Icon: "TrendingUp"},
		{ID: "acc_nubank", Name: "NuBank", Type: AccountTypeBank, Balance: 6.73, Currency: DefaultCurrency, Color: "#9B59B6", Icon: "CreditCard"},
	}
}

// DefaultSettings is the settings value of a fresh state.
func DefaultSettings() Settings {
	return Settings{
		DefaultCurrency: DefaultCurrency,
		Theme:           "system",
		Language:        "pt-BR",
	}
}

// InitialState returns the state used when nothing has been persisted yet.
func InitialState() State {
	return State{
		Transactions:   []Transaction{},
		Accounts:       DefaultAccounts(),
		Categories:     DefaultCategories(),
		Budgets:        []Budget{},
		RecurringRules: []RecurringRule{},
		Settings:       DefaultSettings(),
		ChatHistory:    []ChatMessage{},
	}
}

// MergeDefaults re-adds any default category missing from s by id, and the
// default accounts too when withAccounts is set. User-added entries are kept
// as they are.
func MergeDefaults(s State, withAccounts bool) State {
	out := s.Clone()
	for _, c := range DefaultCategories() {
		if _, ok := out.FindCategory(c.ID); !ok {
			out.Categories = append(out.Categories, c)
		}
	}
	if withAccounts {
		for _, a := range DefaultAccounts() {
			if _, ok := out.FindAccount(a.ID); !ok {
				out.Accounts = append(out.Accounts, a)
			}
		}
	}
	if out.Settings.DefaultCurrency == "" {
		out.Settings.DefaultCurrency = DefaultCurrency
	}
	return out
}
