package assistant

import "github.com/dvloznov/financeiro/internal/llm"

// Tool names are part of the wire contract with the model.
const (
	ToolAddTransaction       = "add_transaction"
	ToolAddMultiple          = "add_multiple_transactions"
	ToolCreateAccount        = "create_account"
	ToolUpdateAccountBalance = "update_account_balance"
)

func str(desc string) *llm.Schema { return &llm.Schema{Type: "string", Description: desc} }
func num(desc string) *llm.Schema { return &llm.Schema{Type: "number", Description: desc} }

func transactionItemSchema() *llm.Schema {
	return &llm.Schema{
		Type: "object",
		Properties: map[string]*llm.Schema{
			"description":   str("Descrição da transação"),
			"amount":        num("Valor em reais (sempre positivo)"),
			"type":          {Type: "string", Enum: []string{"income", "expense"}, Description: "Tipo: expense ou income"},
			"category_name": str("Nome da categoria"),
			"account_name":  str("Nome da conta"),
			"date":          str("Data ISO YYYY-MM-DD"),
			"notes":         str("Observações opcionais"),
		},
		Required: []string{"description", "amount", "type", "category_name", "account_name", "date"},
	}
}

// Tools returns the fixed tool schema offered to the model.
func Tools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        ToolAddTransaction,
			Description: "Adiciona uma nova transação financeira (receita ou despesa) no sistema do usuário. Use esta ferramenta quando o usuário pedir para lançar, registrar, adicionar ou anotar um gasto, despesa, receita ou pagamento.",
			Parameters: &llm.Schema{
				Type: "object",
				Properties: map[string]*llm.Schema{
					"description":   str(`Descrição curta da transação (ex: "Supermercado Pão de Açúcar", "Aluguel março", "Salário")`),
					"amount":        num("Valor da transação em reais (ex: 150.50). Sempre positivo."),
					"type":          {Type: "string", Enum: []string{"income", "expense"}, Description: `Tipo da transação: "expense" para despesas/gastos, "income" para receitas/entradas.`},
					"category_name": str(`Nome da categoria para classificar (ex: "Alimentação", "Transporte", "Salário"). Deve corresponder a uma categoria existente no sistema.`),
					"account_name":  str(`Nome da conta de onde sai ou entra o dinheiro (ex: "Carteira", "Conta Corrente", "Nubank"). Deve corresponder a uma conta existente.`),
					"date":          str("Data da transação no formato ISO (YYYY-MM-DD). Use a data atual se o usuário não especificar."),
					"notes":         str("Observações adicionais opcionais."),
				},
				Required: []string{"description", "amount", "type", "category_name", "account_name", "date"},
			},
		},
		{
			Name:        ToolAddMultiple,
			Description: "Adiciona múltiplas transações de uma vez. Use quando o usuário listar vários gastos ou receitas na mesma mensagem.",
			Parameters: &llm.Schema{
				Type: "object",
				Properties: map[string]*llm.Schema{
					"transactions": {Type: "array", Description: "Lista de transações para adicionar.", Items: transactionItemSchema()},
				},
				Required: []string{"transactions"},
			},
		},
		{
			Name:        ToolCreateAccount,
			Description: "Cria uma nova conta bancária ou carteira no sistema.",
			Parameters: &llm.Schema{
				Type: "object",
				Properties: map[string]*llm.Schema{
					"name":     str(`Nome da conta (ex: "Nubank", "Banco do Brasil", "Dinheiro em Espécie")`),
					"type":     {Type: "string", Enum: []string{"bank", "cash", "credit", "investment"}, Description: "Tipo da conta: bank (banco), cash (dinheiro), credit (crédito), investment (investimento)"},
					"balance":  num("Saldo inicial da conta"),
					"currency": {Type: "string", Enum: []string{"BRL", "USD", "EUR"}, Default: "BRL"},
					"color":    str("Cor em HSL ou HEX para a conta (opcional)"),
				},
				Required: []string{"name", "type", "balance"},
			},
		},
		{
			Name:        ToolUpdateAccountBalance,
			Description: "Atualiza manualmente o saldo de uma conta existente. Use quando o usuário disser que o saldo atual mudou ou está incorreto.",
			Parameters: &llm.Schema{
				Type: "object",
				Properties: map[string]*llm.Schema{
					"account_name": str("Nome da conta para atualizar"),
					"new_balance":  num("Novo saldo total da conta"),
				},
				Required: []string{"account_name", "new_balance"},
			},
		},
	}
}
