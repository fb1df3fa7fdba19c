package statement

import (
	"strings"

	"github.com/dvloznov/financeiro/internal/domain"
)

const systemPrompt = "Você extrai transações de extratos bancários, faturas de cartão e recibos. " +
	"Responda somente com JSON válido, sem texto adicional."

// BuildPrompt lists the categories and accounts the model must choose from
// and describes the expected output.
func BuildPrompt(state domain.State) string {
	var b strings.Builder
	b.WriteString("Extraia TODAS as transações do documento anexo.\n\n")
	b.WriteString("Responda com um array JSON. Cada objeto deve ter os campos:\n")
	b.WriteString("- \"date\": data no formato \"YYYY-MM-DD\"\n")
	b.WriteString("- \"description\": descrição curta\n")
	b.WriteString("- \"amount\": número, positivo para entradas e negativo para saídas\n")
	b.WriteString("- \"currency\": código da moeda (ex.: \"" + state.Settings.DefaultCurrency + "\")\n")
	b.WriteString("- \"category\": uma das categorias abaixo\n")
	b.WriteString("- \"account\": uma das contas abaixo, ou o nome que aparece no documento\n")
	b.WriteString("- \"notes\": observações, ou \"\"\n\n")

	writeList(&b, "Categorias de despesa", categoryNames(state.Categories, domain.CategoryTypeExpense))
	writeList(&b, "Categorias de receita", categoryNames(state.Categories, domain.CategoryTypeIncome))

	accounts := make([]string, len(state.Accounts))
	for i, a := range state.Accounts {
		accounts[i] = a.Name
	}
	writeList(&b, "Contas", accounts)

	b.WriteString("Regras:\n")
	b.WriteString("- Se houver colunas separadas de débito e crédito, converta para um único \"amount\" com sinal.\n")
	b.WriteString("- Ignore saldos, totais e pagamentos de fatura que não sejam transações.\n")
	b.WriteString("- Não use blocos de código Markdown. A resposta deve começar com \"[\" e terminar com \"]\".\n")
	return b.String()
}

func categoryNames(categories []domain.Category, t domain.CategoryType) []string {
	var names []string
	for _, c := range categories {
		if c.Type == t {
			names = append(names, c.Name)
		}
	}
	return names
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(title + ":\n")
	for _, it := range items {
		b.WriteString("- " + it + "\n")
	}
	b.WriteString("\n")
}
