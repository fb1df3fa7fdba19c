package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/ledger"
)

// SystemInstruction frames every chat exchange.
const SystemInstruction = `Você é o Assistente Financeiro do aplicativo "Financeiro AI".
Sua função é ajudar o usuário a gerenciar suas finanças: lançar transações, analisar gastos, dar dicas de economia e responder perguntas sobre dinheiro.

## Suas Capacidades:
1. **Lançar transações**: Quando o usuário pedir para registrar/lançar/anotar um gasto ou receita, use a ferramenta add_transaction.
2. **Lançar múltiplas transações**: Quando o usuário listar vários gastos/receitas, use add_multiple_transactions.
3. **Analisar imagens**: Você pode receber fotos de recibos, comprovantes, notas fiscais ou faturas. Analise os dados da imagem (valor, descrição, data) e sugira o lançamento da transação.
4. **Gerenciar Contas**: Você pode criar novas contas usando create_account e atualizar o saldo de contas existentes usando update_account_balance.
5. **Analisar finanças**: Use os dados do contexto financeiro para fornecer análises detalhadas.
6. **Classificar e organizar**: Classifique automaticamente as transações nas categorias corretas.

## Regras Importantes:
- Responda SEMPRE em português brasileiro
- Ao receber uma imagem, descreva brevemente o que identificou (ex: "Vi que você gastou R$ 45,90 no Starbucks") e peça confirmação antes de lançar, OU use as ferramentas diretamente se o usuário pedir explicitamente para "lançar esta foto".
- Ao lançar transações, use as categorias e contas que EXISTEM no contexto.
- Ao atualizar o saldo de uma conta, confirme o novo valor para o usuário.
- Se o usuário não especificar a conta em uma transação, use a primeira conta disponível.
- Se o usuário não especificar a data, use a data atual do contexto.
- Use formatação Markdown.
- Seja direto, amigável e profissional.`

const classifierInstruction = "Você é um classificador de transações financeiras."

// User-facing texts.
const (
	MsgNotConfigured   = "Chave da API do assistente não encontrada. Configure a chave de API nas configurações do servidor."
	MsgGenericError    = "Desculpe, ocorreu um erro ao processar sua mensagem. Tente novamente."
	MsgNoReply         = "Desculpe, não consegui gerar uma resposta."
	MsgToolsApplied    = "Transação registrada com sucesso!"
	MsgFollowUpFailed  = "Transações processadas, mas houve um erro ao gerar a resposta final."
	MsgRoundCapReached = "Pronto! Transação registrada com sucesso. ✅"
	MsgImageOnly       = "Analise este comprovante para mim."
)

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

func monthYear(t time.Time) string {
	return fmt.Sprintf("%s de %d", monthNames[t.Month()-1], t.Year())
}

func longDate(t time.Time) string {
	return fmt.Sprintf("%02d de %s", t.Day(), monthYear(t))
}

func money(v float64) string {
	return fmt.Sprintf("R$ %.2f", v)
}

// BuildFinancialContext renders the snapshot prepended to every user
// message: balances, categories, month totals, top expenses and the most
// recent transactions.
func BuildFinancialContext(state domain.State, now time.Time) string {
	month := ledger.MonthTransactions(state, now)
	totals := ledger.Summarize(month)

	categoryName := func(id, missing string) string {
		if c, ok := state.FindCategory(id); ok {
			return c.Name
		}
		return missing
	}

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}
	list := func(items []string, empty string) {
		if len(items) == 0 {
			line("  %s", empty)
			return
		}
		for _, it := range items {
			line("  - %s", it)
		}
	}

	line("=== CONTEXTO FINANCEIRO DO USUÁRIO ===")
	line("Data atual: %s (%s)", now.Format(dateLayout), longDate(now))
	line("Saldo total: %s", money(ledger.TotalBalance(state)))
	line("")

	line("Contas disponíveis:")
	accounts := make([]string, 0, len(state.Accounts))
	for _, a := range state.Accounts {
		accounts = append(accounts, fmt.Sprintf("%s (id: %s): %s", a.Name, a.ID, money(a.Balance)))
	}
	list(accounts, "(nenhuma conta)")
	line("")

	line("Categorias disponíveis:")
	categories := make([]string, 0, len(state.Categories))
	for _, c := range state.Categories {
		categories = append(categories, fmt.Sprintf("%s (id: %s, tipo: %s)", c.Name, c.ID, c.Type))
	}
	list(categories, "(nenhuma categoria)")
	line("")

	line("Resumo do mês (%s):", monthYear(now))
	line("  - Receitas: %s", money(totals.Income))
	line("  - Despesas: %s", money(totals.Expenses))
	line("  - Balanço: %s", money(totals.Net))
	line("")

	line("Maiores despesas do mês:")
	var top []string
	for _, t := range ledger.TopExpenses(month, 5) {
		top = append(top, fmt.Sprintf("%s (%s): %s", t.Description, categoryName(t.CategoryID, "Sem categoria"), money(t.Amount)))
	}
	list(top, "(nenhuma)")
	line("")

	line("Últimas transações (até 20):")
	var recent []string
	for _, t := range ledger.Recent(state.Transactions, 20) {
		sign := "➖"
		if t.Type == domain.TransactionTypeIncome {
			sign = "➕"
		}
		accName := "?"
		if a, ok := state.FindAccount(t.AccountID); ok {
			accName = a.Name
		}
		recent = append(recent, fmt.Sprintf("[%s] %s %s: %s (%s, %s)",
			t.Date.Format(dateLayout), sign, t.Description, money(t.Amount), categoryName(t.CategoryID, "?"), accName))
	}
	list(recent, "(nenhuma transação)")
	line("")

	line("Total de transações: %d", len(state.Transactions))
	b.WriteString("======================================")
	return b.String()
}

func classifierPrompt(description string, categories []string) string {
	return fmt.Sprintf(`Classifique a seguinte descrição de transação financeira em UMA das categorias abaixo.

Categorias disponíveis:
- %s

Descrição: %q

Responda APENAS com o nome exato de uma das categorias listadas. Sem explicações.`, strings.Join(categories, "\n- "), description)
}
