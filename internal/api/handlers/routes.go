package handlers

import "net/http"

// Register mounts every endpoint on mux. feed may be nil.
func Register(mux *http.ServeMux, s *StateHandler, c *ChatHandler, t *TransferHandler, feed *ChangeFeed) {
	mux.HandleFunc("GET /api/state", s.GetState)
	mux.HandleFunc("POST /api/actions", s.Dispatch)

	// Transactions endpoints
	mux.HandleFunc("GET /api/transactions", s.ListTransactions)
	mux.HandleFunc("POST /api/transactions", s.CreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.UpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.DeleteTransaction)

	// Accounts endpoints
	mux.HandleFunc("GET /api/accounts", s.ListAccounts)
	mux.HandleFunc("POST /api/accounts", s.CreateAccount)
	mux.HandleFunc("PUT /api/accounts/{id}", s.UpdateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.DeleteAccount)

	// Categories endpoints
	mux.HandleFunc("GET /api/categories", s.ListCategories)
	mux.HandleFunc("POST /api/categories", s.CreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.UpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.DeleteCategory)

	// Recurring rules endpoints
	mux.HandleFunc("GET /api/rules", s.ListRules)
	mux.HandleFunc("POST /api/rules", s.CreateRule)
	mux.HandleFunc("POST /api/rules/check", s.CheckRules)
	mux.HandleFunc("PUT /api/rules/{id}", s.UpdateRule)
	mux.HandleFunc("DELETE /api/rules/{id}", s.DeleteRule)

	mux.HandleFunc("GET /api/settings", s.GetSettings)
	mux.HandleFunc("PUT /api/settings", s.UpdateSettings)
	mux.HandleFunc("GET /api/summary", s.Summary)

	// Assistant endpoints
	mux.HandleFunc("POST /api/chat", c.SendMessage)
	mux.HandleFunc("GET /api/chat", c.History)
	mux.HandleFunc("DELETE /api/chat", c.Clear)
	mux.HandleFunc("POST /api/classify", c.Classify)

	// Spreadsheet and jobs endpoints
	mux.HandleFunc("GET /api/export/csv", t.ExportCSV)
	mux.HandleFunc("GET /api/export/template", t.ExportTemplate)
	mux.HandleFunc("POST /api/import", t.Import)
	mux.HandleFunc("POST /api/import/statement", t.ImportStatement)
	mux.HandleFunc("GET /api/jobs", t.ListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", t.GetJob)

	if feed != nil {
		mux.HandleFunc("GET /ws", feed.HandleWS)
	}
	mux.HandleFunc("GET /health", Health)
}
