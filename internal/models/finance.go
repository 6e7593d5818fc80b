package models

// TransactionType is the kind of a transaction, and the sign convention of a budget.
type TransactionType string

const (
	TransactionIncome   TransactionType = "income"
	TransactionExpense  TransactionType = "expense"
	TransactionTransfer TransactionType = "transfer"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionIncome, TransactionExpense, TransactionTransfer:
		return true
	}
	return false
}

// Account represents a wallet, card or bank account.
type Account struct {
	// ID is the unique identifier for the account.
	ID string `json:"id"`

	// Name is the display name (e.g., "Main card").
	Name string `json:"name"`

	// Type is a free-form account kind (cash, card, savings, ...).
	Type string `json:"type"`

	// Currency is the ISO code all balance figures are expressed in.
	Currency string `json:"currency"`

	// InitialBalance is the balance the account was created with.
	// CurrentBalance is always InitialBalance plus the deltas of applied transactions.
	InitialBalance float64 `json:"initialBalance"`

	// CurrentBalance is derived by replaying transaction deltas.
	CurrentBalance float64 `json:"currentBalance"`

	IsArchived bool  `json:"isArchived"`
	CreatedAt  int64 `json:"createdAt"`
	UpdatedAt  int64 `json:"updatedAt"`
}

// AccountUpdate is a partial update. Nil fields are left unchanged.
type AccountUpdate struct {
	Name           *string  `json:"name,omitempty"`
	Type           *string  `json:"type,omitempty"`
	InitialBalance *float64 `json:"initialBalance,omitempty"`
	IsArchived     *bool    `json:"isArchived,omitempty"`
}

// Transaction represents a single money movement.
//
// Rates and converted amounts are frozen when the transaction is created or
// edited; later changes to the global rate table never rewrite them.
type Transaction struct {
	ID   string          `json:"id"`
	Type TransactionType `json:"type"`

	// AccountID is the account of an income or expense transaction.
	AccountID string `json:"accountId,omitempty"`

	// FromAccountID and ToAccountID are the two sides of a transfer.
	FromAccountID string `json:"fromAccountId,omitempty"`
	ToAccountID   string `json:"toAccountId,omitempty"`

	// Amount is expressed in Currency. For transfers it is what the source account loses.
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`

	// ToAmount is what the destination of a transfer gains, in ToCurrency.
	ToAmount   float64 `json:"toAmount,omitempty"`
	ToCurrency string  `json:"toCurrency,omitempty"`

	BaseCurrency          string  `json:"baseCurrency"`
	RateUsedToBase        float64 `json:"rateUsedToBase"`
	ConvertedAmountToBase float64 `json:"convertedAmountToBase"`

	CategoryID string `json:"categoryId,omitempty"`
	BudgetID   string `json:"budgetId,omitempty"`

	// DebtID or RelatedDebtID make the transaction a repayment of that debt.
	DebtID        string `json:"debtId,omitempty"`
	RelatedDebtID string `json:"relatedDebtId,omitempty"`

	// FundingDebtID marks the transaction that funded a debt. It never reduces principal.
	FundingDebtID string `json:"fundingDebtId,omitempty"`

	GoalID string `json:"goalId,omitempty"`

	Description string `json:"description,omitempty"`

	// Date is the Unix timestamp the transaction happened at.
	Date int64 `json:"date"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// RepaidDebtID returns the debt this transaction repays, if any.
func (t *Transaction) RepaidDebtID() string {
	if t.DebtID != "" {
		return t.DebtID
	}
	return t.RelatedDebtID
}

// TransactionUpdate is a partial update. Nil fields are left unchanged.
type TransactionUpdate struct {
	Type          *TransactionType `json:"type,omitempty"`
	AccountID     *string          `json:"accountId,omitempty"`
	FromAccountID *string          `json:"fromAccountId,omitempty"`
	ToAccountID   *string          `json:"toAccountId,omitempty"`
	Amount        *float64         `json:"amount,omitempty"`
	Currency      *string          `json:"currency,omitempty"`
	ToAmount      *float64         `json:"toAmount,omitempty"`
	CategoryID    *string          `json:"categoryId,omitempty"`
	BudgetID      *string          `json:"budgetId,omitempty"`
	DebtID        *string          `json:"debtId,omitempty"`
	GoalID        *string          `json:"goalId,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Date          *int64           `json:"date,omitempty"`
}

// Budget is an envelope of money for a category of spending or saving.
// Every derived field is a pure function of the budget's entries.
type Budget struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// TransactionType is income for saving budgets and expense for spending budgets.
	TransactionType TransactionType `json:"transactionType"`

	Currency    string  `json:"currency"`
	LimitAmount float64 `json:"limitAmount"`

	// CategoryIDs lists categories whose transactions are attributed to the budget.
	CategoryIDs []string `json:"categoryIds,omitempty"`

	// AccountID is the account compensating transactions are booked against.
	AccountID string `json:"accountId,omitempty"`

	SpentAmount       float64 `json:"spentAmount"`
	RemainingAmount   float64 `json:"remainingAmount"`
	PercentUsed       float64 `json:"percentUsed"`
	ContributionTotal float64 `json:"contributionTotal"`
	CurrentBalance    float64 `json:"currentBalance"`

	LinkedGoalID string `json:"linkedGoalId,omitempty"`
	IsArchived   bool   `json:"isArchived"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
}

// BudgetUpdate is a partial update. Nil fields are left unchanged.
type BudgetUpdate struct {
	Name         *string  `json:"name,omitempty"`
	LimitAmount  *float64 `json:"limitAmount,omitempty"`
	CategoryIDs  []string `json:"categoryIds,omitempty"`
	AccountID    *string  `json:"accountId,omitempty"`
	LinkedGoalID *string  `json:"linkedGoalId,omitempty"`
	IsArchived   *bool    `json:"isArchived,omitempty"`
}

// BudgetEntry attributes one transaction's converted amount to one budget.
type BudgetEntry struct {
	ID            string          `json:"id"`
	BudgetID      string          `json:"budgetId"`
	TransactionID string          `json:"transactionId"`
	Type          TransactionType `json:"type"`

	// AppliedAmountBudgetCurrency is the transaction amount converted into the budget currency.
	AppliedAmountBudgetCurrency float64 `json:"appliedAmountBudgetCurrency"`
	RateUsedTxnToBudget         float64 `json:"rateUsedTxnToBudget"`
	SnapshottedAt               int64   `json:"snapshottedAt"`
}

// DebtDirection tells who owes whom.
type DebtDirection string

const (
	DebtIOwe      DebtDirection = "i_owe"
	DebtTheyOweMe DebtDirection = "they_owe_me"
)

// DebtStatus is derived from principal and due date.
type DebtStatus string

const (
	DebtActive  DebtStatus = "active"
	DebtPaid    DebtStatus = "paid"
	DebtOverdue DebtStatus = "overdue"
)

// Debt represents money lent or borrowed.
type Debt struct {
	ID        string        `json:"id"`
	Direction DebtDirection `json:"direction"`

	CounterpartyID   string `json:"counterpartyId,omitempty"`
	CounterpartyName string `json:"counterpartyName,omitempty"`
	Description      string `json:"description,omitempty"`

	// PrincipalOriginalAmount and PrincipalOriginalCurrency record the loan as it was made.
	PrincipalOriginalAmount   float64 `json:"principalOriginalAmount"`
	PrincipalOriginalCurrency string  `json:"principalOriginalCurrency"`

	// PrincipalStartAmount is the opening principal in PrincipalCurrency.
	PrincipalStartAmount float64 `json:"principalStartAmount"`

	// PrincipalAmount is the remaining principal, derived from payments, never below 0.
	PrincipalAmount   float64 `json:"principalAmount"`
	PrincipalCurrency string  `json:"principalCurrency"`

	// PrincipalBaseValue is the remaining principal expressed in BaseCurrency.
	PrincipalBaseValue float64 `json:"principalBaseValue"`
	BaseCurrency       string  `json:"baseCurrency"`
	RateOnStart        float64 `json:"rateOnStart"`

	Status DebtStatus `json:"status"`

	StartDate int64 `json:"startDate"`
	// DueDate is a Unix timestamp, 0 when the debt has no due date.
	DueDate int64 `json:"dueDate,omitempty"`

	FundingAccountID     string `json:"fundingAccountId,omitempty"`
	FundingTransactionID string `json:"fundingTransactionId,omitempty"`

	LinkedGoalID   string `json:"linkedGoalId,omitempty"`
	LinkedBudgetID string `json:"linkedBudgetId,omitempty"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// DebtUpdate is a partial update. Nil fields are left unchanged.
type DebtUpdate struct {
	Description     *string  `json:"description,omitempty"`
	DueDate         *int64   `json:"dueDate,omitempty"`
	PrincipalAmount *float64 `json:"principalAmount,omitempty"`
	LinkedGoalID    *string  `json:"linkedGoalId,omitempty"`
	LinkedBudgetID  *string  `json:"linkedBudgetId,omitempty"`
}

// DebtPayment is one repayment of a debt.
type DebtPayment struct {
	ID       string  `json:"id"`
	DebtID   string  `json:"debtId"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`

	RateUsedToDebt        float64 `json:"rateUsedToDebt"`
	RateUsedToBase        float64 `json:"rateUsedToBase"`
	ConvertedAmountToDebt float64 `json:"convertedAmountToDebt"`
	ConvertedAmountToBase float64 `json:"convertedAmountToBase"`

	RelatedTransactionID string `json:"relatedTransactionId,omitempty"`
	Note                 string `json:"note,omitempty"`
	PaidAt               int64  `json:"paidAt"`
	CreatedAt            int64  `json:"createdAt"`
}

// Counterparty is a person or organisation debts are held with.
type Counterparty struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`

	// SearchKey is the normalized display name, unique across counterparties.
	SearchKey string `json:"searchKey"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// FinanceState is a point-in-time copy of every finance collection.
type FinanceState struct {
	Accounts       []Account      `json:"accounts"`
	Transactions   []Transaction  `json:"transactions"`
	Budgets        []Budget       `json:"budgets"`
	BudgetEntries  []BudgetEntry  `json:"budgetEntries"`
	Debts          []Debt         `json:"debts"`
	DebtPayments   []DebtPayment  `json:"debtPayments"`
	Counterparties []Counterparty `json:"counterparties"`
}
