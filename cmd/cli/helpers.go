package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/dvloznov/financeiro/internal/app"
	"github.com/dvloznov/financeiro/internal/llm"
	"github.com/dvloznov/financeiro/internal/recurring"
	"github.com/dvloznov/financeiro/internal/statement"
)

// loadImage reads path as a data URL. An empty path yields "".
func loadImage(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	img := llm.Image{MIMEType: http.DetectContentType(data), Data: data}
	return img.DataURL(), nil
}

func loadDocument(path string) (llm.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return llm.Image{}, err
	}
	return statement.NewDocument(data)
}

func printDue(a *app.App) {
	due := recurring.Due(a.Session.Snapshot(), a.Ledger.Now())
	if len(due) == 0 {
		fmt.Println("No recurring rules are due.")
		return
	}
	for _, r := range due {
		fmt.Printf("  %s  %-10s %-30s R$ %.2f\n", r.NextDate.Format("2006-01-02"), r.Frequency, r.Description, r.Amount)
	}
}
