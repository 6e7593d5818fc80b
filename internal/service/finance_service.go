package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/finance"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

type UpdateAccountRequest struct {
	ID     string               `json:"id"`
	Update models.AccountUpdate `json:"update"`
}

type AccountResponse struct {
	Account *models.Account `json:"account"`
}

type UpdateTransactionRequest struct {
	ID     string                   `json:"id"`
	Update models.TransactionUpdate `json:"update"`
}

type TransactionResponse struct {
	Transaction *models.Transaction `json:"transaction"`
}

type UpdateBudgetRequest struct {
	ID     string              `json:"id"`
	Update models.BudgetUpdate `json:"update"`
}

type BudgetResponse struct {
	Budget  *models.Budget       `json:"budget"`
	Entries []models.BudgetEntry `json:"entries,omitempty"`
}

type CreateDebtRequest struct {
	Debt models.Debt `json:"debt"`

	// FundingAmount overrides the amount moved through the funding account.
	FundingAmount float64 `json:"fundingAmount,omitempty"`
}

type UpdateDebtRequest struct {
	ID     string            `json:"id"`
	Update models.DebtUpdate `json:"update"`
}

type DebtResponse struct {
	Debt     *models.Debt         `json:"debt"`
	Payments []models.DebtPayment `json:"payments,omitempty"`
}

type AddDebtPaymentRequest struct {
	DebtID    string  `json:"debtId"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency,omitempty"`
	AccountID string  `json:"accountId,omitempty"`
	Note      string  `json:"note,omitempty"`
	PaidAt    int64   `json:"paidAt,omitempty"`
}

type DebtPaymentResponse struct {
	Payment *models.DebtPayment `json:"payment"`
}

type CounterpartyRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type CounterpartyResponse struct {
	Counterparty *models.Counterparty `json:"counterparty"`
}

type CountResponse struct {
	Count int `json:"count"`
}

type FinanceStateResponse struct {
	State *models.FinanceState `json:"state"`
}

// FinanceService implements leora.v1.FinanceService.
type FinanceService struct {
	store *finance.Store
}

// NewFinanceService creates a new FinanceService backed by store.
func NewFinanceService(store *finance.Store) *FinanceService {
	return &FinanceService{store: store}
}

// NewFinanceServiceHandler builds the HTTP handler of svc and returns the
// path to mount it on.
func NewFinanceServiceHandler(svc *FinanceService, opts ...connect.HandlerOption) (string, http.Handler) {
	p := newProcedures(FinanceServiceName, opts)

	unary(p, "CreateAccount", svc.CreateAccount)
	unary(p, "UpdateAccount", svc.UpdateAccount)
	unary(p, "ArchiveAccount", svc.ArchiveAccount)
	unary(p, "DeleteAccount", svc.DeleteAccount)
	unary(p, "GetAccount", svc.GetAccount)

	unary(p, "CreateTransaction", svc.CreateTransaction)
	unary(p, "UpdateTransaction", svc.UpdateTransaction)
	unary(p, "DeleteTransaction", svc.DeleteTransaction)
	unary(p, "GetTransaction", svc.GetTransaction)

	unary(p, "CreateBudget", svc.CreateBudget)
	unary(p, "UpdateBudget", svc.UpdateBudget)
	unary(p, "ArchiveBudget", svc.ArchiveBudget)
	unary(p, "DeleteBudget", svc.DeleteBudget)
	unary(p, "GetBudget", svc.GetBudget)

	unary(p, "CreateDebt", svc.CreateDebt)
	unary(p, "UpdateDebt", svc.UpdateDebt)
	unary(p, "DeleteDebt", svc.DeleteDebt)
	unary(p, "GetDebt", svc.GetDebt)
	unary(p, "AddDebtPayment", svc.AddDebtPayment)
	unary(p, "DeleteDebtPayment", svc.DeleteDebtPayment)
	unary(p, "RefreshDebtStatuses", svc.RefreshDebtStatuses)

	unary(p, "CreateCounterparty", svc.CreateCounterparty)
	unary(p, "RenameCounterparty", svc.RenameCounterparty)
	unary(p, "DeleteCounterparty", svc.DeleteCounterparty)

	unary(p, "GetState", svc.GetState)

	return p.path(), p.mux
}

func (s *FinanceService) CreateAccount(ctx context.Context, req *models.Account) (*AccountResponse, error) {
	a, err := s.store.CreateAccount(ctx, *req, models.OriginUser)
	if err != nil {
		return nil, err
	}
	slog.Info("Account created", "account_id", a.ID, "currency", a.Currency)
	return &AccountResponse{Account: a}, nil
}

func (s *FinanceService) UpdateAccount(ctx context.Context, req *UpdateAccountRequest) (*AccountResponse, error) {
	a, err := s.store.UpdateAccount(ctx, req.ID, req.Update, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return &AccountResponse{Account: a}, nil
}

func (s *FinanceService) ArchiveAccount(ctx context.Context, req *ArchiveRequest) (*AccountResponse, error) {
	a, err := s.store.ArchiveAccount(ctx, req.ID, req.Archived, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return &AccountResponse{Account: a}, nil
}

func (s *FinanceService) DeleteAccount(ctx context.Context, req *IDRequest) (*Empty, error) {
	if err := s.store.DeleteAccount(ctx, req.ID, models.OriginUser); err != nil {
		return nil, err
	}
	slog.Info("Account deleted", "account_id", req.ID)
	return &Empty{}, nil
}

func (s *FinanceService) GetAccount(_ context.Context, req *IDRequest) (*AccountResponse, error) {
	a, err := s.store.Account(req.ID)
	if err != nil {
		return nil, err
	}
	return &AccountResponse{Account: a}, nil
}

func (s *FinanceService) CreateTransaction(ctx context.Context, req *models.Transaction) (*TransactionResponse, error) {
	tx, err := s.store.CreateTransaction(ctx, *req, models.OriginUser)
	if err != nil {
		return nil, err
	}
	slog.Info("Transaction created", "transaction_id", tx.ID, "type", tx.Type, "amount", tx.Amount, "currency", tx.Currency)
	return &TransactionResponse{Transaction: tx}, nil
}

func (s *FinanceService) UpdateTransaction(ctx context.Context, req *UpdateTransactionRequest) (*TransactionResponse, error) {
	tx, err := s.store.UpdateTransaction(ctx, req.ID, req.Update, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return &TransactionResponse{Transaction: tx}, nil
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, req *IDRequest) (*Empty, error) {
	if err := s.store.DeleteTransaction(ctx, req.ID, models.OriginUser); err != nil {
		return nil, err
	}
	slog.Info("Transaction deleted", "transaction_id", req.ID)
	return &Empty{}, nil
}

func (s *FinanceService) GetTransaction(_ context.Context, req *IDRequest) (*TransactionResponse, error) {
	tx, err := s.store.Transaction(req.ID)
	if err != nil {
		return nil, err
	}
	return &TransactionResponse{Transaction: tx}, nil
}

func (s *FinanceService) CreateBudget(ctx context.Context, req *models.Budget) (*BudgetResponse, error) {
	b, err := s.store.CreateBudget(ctx, *req, models.OriginUser)
	if err != nil {
		return nil, err
	}
	slog.Info("Budget created", "budget_id", b.ID, "limit", b.LimitAmount, "currency", b.Currency)
	return s.budgetResponse(b), nil
}

func (s *FinanceService) UpdateBudget(ctx context.Context, req *UpdateBudgetRequest) (*BudgetResponse, error) {
	b, err := s.store.UpdateBudget(ctx, req.ID, req.Update, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return s.budgetResponse(b), nil
}

func (s *FinanceService) ArchiveBudget(ctx context.Context, req *ArchiveRequest) (*BudgetResponse, error) {
	b, err := s.store.ArchiveBudget(ctx, req.ID, req.Archived, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return s.budgetResponse(b), nil
}

func (s *FinanceService) DeleteBudget(ctx context.Context, req *IDRequest) (*Empty, error) {
	if err := s.store.DeleteBudget(ctx, req.ID, models.OriginUser); err != nil {
		return nil, err
	}
	slog.Info("Budget deleted", "budget_id", req.ID)
	return &Empty{}, nil
}

func (s *FinanceService) GetBudget(_ context.Context, req *IDRequest) (*BudgetResponse, error) {
	b, err := s.store.Budget(req.ID)
	if err != nil {
		return nil, err
	}
	return s.budgetResponse(b), nil
}

func (s *FinanceService) budgetResponse(b *models.Budget) *BudgetResponse {
	return &BudgetResponse{Budget: b, Entries: s.store.BudgetEntries(b.ID)}
}

func (s *FinanceService) CreateDebt(ctx context.Context, req *CreateDebtRequest) (*DebtResponse, error) {
	d, err := s.store.CreateDebt(ctx, finance.DebtInput{Debt: req.Debt, FundingAmount: req.FundingAmount}, models.OriginUser)
	if err != nil {
		return nil, err
	}
	slog.Info("Debt created", "debt_id", d.ID, "direction", d.Direction, "principal", d.PrincipalAmount, "currency", d.PrincipalCurrency)
	return s.debtResponse(d), nil
}

func (s *FinanceService) UpdateDebt(ctx context.Context, req *UpdateDebtRequest) (*DebtResponse, error) {
	d, err := s.store.UpdateDebt(ctx, req.ID, req.Update, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return s.debtResponse(d), nil
}

func (s *FinanceService) DeleteDebt(ctx context.Context, req *IDRequest) (*Empty, error) {
	if err := s.store.DeleteDebt(ctx, req.ID, models.OriginUser); err != nil {
		return nil, err
	}
	slog.Info("Debt deleted", "debt_id", req.ID)
	return &Empty{}, nil
}

func (s *FinanceService) GetDebt(_ context.Context, req *IDRequest) (*DebtResponse, error) {
	d, err := s.store.Debt(req.ID)
	if err != nil {
		return nil, err
	}
	return s.debtResponse(d), nil
}

func (s *FinanceService) debtResponse(d *models.Debt) *DebtResponse {
	return &DebtResponse{Debt: d, Payments: s.store.DebtPayments(d.ID)}
}

func (s *FinanceService) AddDebtPayment(ctx context.Context, req *AddDebtPaymentRequest) (*DebtPaymentResponse, error) {
	p, err := s.store.AddDebtPayment(ctx, finance.PaymentInput{
		DebtID:    req.DebtID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		AccountID: req.AccountID,
		Note:      req.Note,
		PaidAt:    req.PaidAt,
	}, models.OriginUser)
	if err != nil {
		return nil, err
	}
	slog.Info("Debt payment added", "debt_id", p.DebtID, "payment_id", p.ID, "amount", p.Amount)
	return &DebtPaymentResponse{Payment: p}, nil
}

func (s *FinanceService) DeleteDebtPayment(ctx context.Context, req *IDRequest) (*Empty, error) {
	if err := s.store.DeleteDebtPayment(ctx, req.ID, models.OriginUser); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *FinanceService) RefreshDebtStatuses(ctx context.Context, _ *Empty) (*CountResponse, error) {
	return &CountResponse{Count: s.store.RefreshDebtStatuses(ctx, models.OriginUser)}, nil
}

func (s *FinanceService) CreateCounterparty(ctx context.Context, req *CounterpartyRequest) (*CounterpartyResponse, error) {
	c, err := s.store.CreateCounterparty(ctx, req.Name, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return &CounterpartyResponse{Counterparty: c}, nil
}

func (s *FinanceService) RenameCounterparty(ctx context.Context, req *CounterpartyRequest) (*CounterpartyResponse, error) {
	c, err := s.store.RenameCounterparty(ctx, req.ID, req.Name, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return &CounterpartyResponse{Counterparty: c}, nil
}

func (s *FinanceService) DeleteCounterparty(ctx context.Context, req *IDRequest) (*Empty, error) {
	if err := s.store.DeleteCounterparty(ctx, req.ID, models.OriginUser); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

// GetState returns a copy of every finance collection.
func (s *FinanceService) GetState(_ context.Context, _ *Empty) (*FinanceStateResponse, error) {
	return &FinanceStateResponse{State: s.store.State()}, nil
}
