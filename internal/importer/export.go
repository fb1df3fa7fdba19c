package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/resolver"
)

// Header is the column layout shared by export, template and CSV import.
var Header = []string{"Data", "Tipo", "Descrição", "Valor", "Categoria", "Conta", "Moeda", "Notas"}

const dateLayout = "2006-01-02"

// TypeLabel renders a transaction type the way the sheet shows it.
func TypeLabel(t domain.TransactionType) string {
	switch t {
	case domain.TransactionTypeIncome:
		return "Receita"
	case domain.TransactionTypeExpense:
		return "Despesa"
	default:
		return "Transferência"
	}
}

// ParseTypeLabel accepts the sheet labels and the raw type names.
func ParseTypeLabel(s string) (domain.TransactionType, bool) {
	switch resolver.Fold(s) {
	case "receita", "income", "entrada":
		return domain.TransactionTypeIncome, true
	case "despesa", "expense", "saida", "gasto":
		return domain.TransactionTypeExpense, true
	case "transferencia", "transfer":
		return domain.TransactionTypeTransfer, true
	}
	return "", false
}

// ExportRows renders every transaction as a row of Header columns.
func ExportRows(state domain.State) [][]string {
	rows := make([][]string, 0, len(state.Transactions))
	for _, t := range state.Transactions {
		var catName, accName string
		if c, ok := state.FindCategory(t.CategoryID); ok {
			catName = c.Name
		}
		if a, ok := state.FindAccount(t.AccountID); ok {
			accName = a.Name
		}
		rows = append(rows, []string{
			t.Date.Format(dateLayout),
			TypeLabel(t.Type),
			t.Description,
			strconv.FormatFloat(t.Amount, 'f', -1, 64),
			catName,
			accName,
			t.Currency,
			t.Notes,
		})
	}
	return rows
}

// WriteCSV writes the header and every transaction to w.
func WriteCSV(w io.Writer, state domain.State) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("WriteCSV: header: %w", err)
	}
	if err := cw.WriteAll(ExportRows(state)); err != nil {
		return fmt.Errorf("WriteCSV: rows: %w", err)
	}
	return nil
}

// WriteTemplate writes the header plus two example rows.
func WriteTemplate(w io.Writer, state domain.State, now time.Time) error {
	first, second := "Carteira", "Conta Corrente"
	if len(state.Accounts) > 0 {
		first = state.Accounts[0].Name
		second = first
	}
	if len(state.Accounts) > 1 {
		second = state.Accounts[1].Name
	}
	day := now.Format(dateLayout)
	cw := csv.NewWriter(w)
	err := cw.WriteAll([][]string{
		Header,
		{day, "Despesa", "Supermercado Extra", "150.5", "Alimentação", first, "BRL", "Compras da semana"},
		{day, "Receita", "Salário", "3500", "Salário", second, "BRL", ""},
	})
	if err != nil {
		return fmt.Errorf("WriteTemplate: %w", err)
	}
	return nil
}

// ReadCSV reads a sheet in Header layout into rows. Ids are filled in when
// the account or category name matches an existing entity exactly; otherwise
// the label is kept so Apply can create it. Rows with an invalid date,
// amount or type are returned as errors keyed by their 1-based data row.
func ReadCSV(r io.Reader, state domain.State) ([]Row, map[int]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("ReadCSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("ReadCSV: empty sheet")
	}

	col := map[string]int{}
	for i, h := range records[0] {
		col[resolver.Fold(h)] = i
	}
	get := func(rec []string, name string) string {
		i, ok := col[resolver.Fold(name)]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []Row
	errs := map[int]string{}
	for n, rec := range records[1:] {
		rowNum := n + 1
		var problems []string

		date, err := parseDate(get(rec, "Data"))
		if err != nil {
			problems = append(problems, fmt.Sprintf("Data inválida: %q", get(rec, "Data")))
		}
		typ, ok := ParseTypeLabel(get(rec, "Tipo"))
		if !ok {
			problems = append(problems, fmt.Sprintf("Tipo inválido: %q", get(rec, "Tipo")))
		}
		amount, err := strconv.ParseFloat(strings.ReplaceAll(get(rec, "Valor"), ",", "."), 64)
		if err != nil || amount <= 0 {
			problems = append(problems, fmt.Sprintf("Valor inválido: %q", get(rec, "Valor")))
		}
		desc := get(rec, "Descrição")
		if desc == "" {
			problems = append(problems, "Descrição em branco")
		}
		if len(problems) > 0 {
			errs[rowNum] = strings.Join(problems, "; ")
			continue
		}

		row := Row{
			Row:           rowNum,
			Description:   desc,
			Amount:        amount,
			Type:          typ,
			Date:          date,
			Currency:      get(rec, "Moeda"),
			Notes:         get(rec, "Notas"),
			CategoryLabel: get(rec, "Categoria"),
			AccountLabel:  get(rec, "Conta"),
			Warnings:      []string{},
		}
		if c, ok := resolver.FindCategoryExact(state.Categories, row.CategoryLabel, domain.CategoryTypeFor(typ)); ok {
			row.CategoryID = c.ID
		} else {
			row.Warnings = append(row.Warnings, fmt.Sprintf("Categoria %q não encontrada", row.CategoryLabel))
		}
		if a, ok := resolver.FindAccountExact(state.Accounts, row.AccountLabel); ok {
			row.AccountID = a.ID
		} else {
			row.Warnings = append(row.Warnings, fmt.Sprintf("Conta %q não encontrada", row.AccountLabel))
		}
		rows = append(rows, row)
	}
	return rows, errs, nil
}

// parseDate accepts YYYY-MM-DD and DD/MM/YYYY, anchored at noon UTC so the
// calendar day survives time zone conversion.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{dateLayout, "02/01/2006"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Add(12 * time.Hour), nil
		}
	}
	return time.Time{}, fmt.Errorf("parseDate: unsupported date %q", s)
}
