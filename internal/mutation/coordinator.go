// Package mutation executes money-moving operations exactly once per user
// action and owns the invalidation cascade that keeps every cached read
// consistent with what the server just did. The cascade lives in one table;
// no other code is allowed to decide what a mutation invalidates.
package mutation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finch-bank/finchctl/internal/api"
	"github.com/finch-bank/finchctl/internal/domain"
	"github.com/finch-bank/finchctl/internal/gateway"
	"github.com/finch-bank/finchctl/internal/querycache"
)

// Kind names a mutation for the cascade table.
type Kind int

const (
	KindDeposit Kind = iota
	KindWithdraw
	KindTransfer
	KindCrossUserTransfer
	KindInvestmentPurchase
	KindInvestmentRedeem
	KindRiskAssessmentSubmit
	KindAccountCreate
)

func (k Kind) String() string {
	switch k {
	case KindDeposit:
		return "deposit"
	case KindWithdraw:
		return "withdraw"
	case KindTransfer:
		return "transfer"
	case KindCrossUserTransfer:
		return "cross_user_transfer"
	case KindInvestmentPurchase:
		return "investment_purchase"
	case KindInvestmentRedeem:
		return "investment_redeem"
	case KindRiskAssessmentSubmit:
		return "risk_assessment_submit"
	case KindAccountCreate:
		return "account_create"
	default:
		return "unknown"
	}
}

// targets carries the account IDs a mutation touches, for scoping the
// transaction-list invalidation.
type targets struct {
	fromAccountID string
	toAccountID   string
}

// cascadeFor is the one table mapping a mutation kind to the cache families it
// invalidates on success. Keeping this data-driven is what guarantees two
// screens never disagree about a balance after either one moves money.
func cascadeFor(kind Kind, t targets) []querycache.Selector {
	switch kind {
	case KindDeposit, KindWithdraw:
		return []querycache.Selector{
			querycache.FamilyAccounts(),
			querycache.FamilyAccountSummary(),
			querycache.FamilyAccountDetail(t.fromAccountID),
			querycache.FamilyTransactions(t.fromAccountID),
			querycache.FamilyRecentTransactions(),
		}
	case KindTransfer, KindCrossUserTransfer:
		selectors := []querycache.Selector{
			querycache.FamilyAccounts(),
			querycache.FamilyAccountSummary(),
			querycache.FamilyAccountDetail(t.fromAccountID),
			querycache.FamilyTransactions(t.fromAccountID),
			querycache.FamilyRecentTransactions(),
		}
		if t.toAccountID != "" {
			selectors = append(selectors,
				querycache.FamilyAccountDetail(t.toAccountID),
				querycache.FamilyTransactions(t.toAccountID),
			)
		}
		return selectors
	case KindInvestmentPurchase, KindInvestmentRedeem:
		return []querycache.Selector{
			querycache.FamilyAccounts(),
			querycache.FamilyAccountSummary(),
			querycache.FamilyAccountDetail(t.fromAccountID),
			querycache.FamilyHoldings(),
			querycache.FamilyPortfolioSummary(),
			querycache.FamilyInvestmentTransactions(),
		}
	case KindRiskAssessmentSubmit:
		return []querycache.Selector{
			querycache.FamilyRiskAssessment(),
			querycache.FamilyRecommendations(),
		}
	case KindAccountCreate:
		return []querycache.Selector{
			querycache.FamilyAccounts(),
			querycache.FamilyAccountSummary(),
		}
	default:
		return nil
	}
}

// Coordinator serializes mutations per target and runs the cascade.
type Coordinator struct {
	client *api.Client
	cache  *querycache.Cache
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]Kind
}

// NewCoordinator wires the coordinator to the API client and the cache it is
// allowed to invalidate.
func NewCoordinator(client *api.Client, cache *querycache.Cache, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		client:  client,
		cache:   cache,
		logger:  logger,
		pending: make(map[string]Kind),
	}
}

// Pending reports whether a mutation against target is in flight.
func (c *Coordinator) Pending(target string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[target]
	return ok
}

// begin claims every target, rejecting without a network call when another
// mutation against any of them is already pending. Claiming is all or
// nothing: a transfer holds both sides, so neither account can be mutated
// again until it settles.
func (c *Coordinator) begin(kind Kind, claimTargets ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, target := range claimTargets {
		if pendingKind, ok := c.pending[target]; ok {
			c.logger.Debug("mutation rejected, target busy",
				"kind", kind.String(), "target", target, "pending", pendingKind.String())
			return domain.ErrMutationPending
		}
	}
	for _, target := range claimTargets {
		c.pending[target] = kind
	}
	return nil
}

func (c *Coordinator) end(claimTargets ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, target := range claimTargets {
		delete(c.pending, target)
	}
}

// settle runs the cascade on success. Failures invalidate nothing: the
// visible state must keep reflecting the last known-good server truth.
func (c *Coordinator) settle(kind Kind, t targets, err error) {
	if err != nil {
		c.logger.Debug("mutation failed, cache untouched",
			"kind", kind.String(), "error_kind", domain.ErrorKindOf(err).String())
		return
	}
	c.cache.Invalidate(cascadeFor(kind, t)...)
	c.logger.Debug("mutation succeeded, cascade applied", "kind", kind.String())
}

func idempotencyKey() gateway.RequestOption {
	return gateway.WithIdempotencyKey(uuid.NewString())
}

// Deposit moves money into an owned account.
func (c *Coordinator) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	if err := c.begin(KindDeposit, accountID); err != nil {
		return nil, err
	}
	defer c.end(accountID)

	txn, err := c.client.Deposit(ctx, api.DepositRequest{
		AccountID:   accountID,
		Amount:      amount,
		Description: description,
	}, idempotencyKey())
	c.settle(KindDeposit, targets{fromAccountID: accountID}, err)
	if err != nil {
		return nil, err
	}
	c.cache.Write(querycache.KeyTransactionDetail(txn.ID), txn)
	return txn, nil
}

// Withdraw moves money out of an owned account.
func (c *Coordinator) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	if err := c.begin(KindWithdraw, accountID); err != nil {
		return nil, err
	}
	defer c.end(accountID)

	txn, err := c.client.Withdraw(ctx, api.WithdrawRequest{
		AccountID:   accountID,
		Amount:      amount,
		Description: description,
	}, idempotencyKey())
	c.settle(KindWithdraw, targets{fromAccountID: accountID}, err)
	if err != nil {
		return nil, err
	}
	c.cache.Write(querycache.KeyTransactionDetail(txn.ID), txn)
	return txn, nil
}

// Transfer moves money between two owned accounts.
func (c *Coordinator) Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	if err := c.begin(KindTransfer, fromAccountID, toAccountID); err != nil {
		return nil, err
	}
	defer c.end(fromAccountID, toAccountID)

	txn, err := c.client.Transfer(ctx, api.TransferRequest{
		FromAccountID: fromAccountID,
		ToAccountID:   toAccountID,
		Amount:        amount,
		Description:   description,
	}, idempotencyKey())
	c.settle(KindTransfer, targets{fromAccountID: fromAccountID, toAccountID: toAccountID}, err)
	if err != nil {
		return nil, err
	}
	c.cache.Write(querycache.KeyTransactionDetail(txn.ID), txn)
	return txn, nil
}

// CrossUserTransfer moves money to a counterparty identified by a confirmed
// account number. Callers must pass the number held by the account resolver's
// Found state, never the live text field.
func (c *Coordinator) CrossUserTransfer(ctx context.Context, fromAccountID, toAccountNumber string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	// The counterparty is known only by account number here, so that number is
	// what the claim holds.
	if err := c.begin(KindCrossUserTransfer, fromAccountID, toAccountNumber); err != nil {
		return nil, err
	}
	defer c.end(fromAccountID, toAccountNumber)

	txn, err := c.client.TransferByAccountNumber(ctx, api.TransferByAccountNumberRequest{
		FromAccountID:   fromAccountID,
		ToAccountNumber: toAccountNumber,
		Amount:          amount,
		Description:     description,
	}, idempotencyKey())
	// The counterparty account is not known by ID client-side; the cascade
	// covers the sending account and the shared families.
	c.settle(KindCrossUserTransfer, targets{fromAccountID: fromAccountID}, err)
	if err != nil {
		return nil, err
	}
	c.cache.Write(querycache.KeyTransactionDetail(txn.ID), txn)
	return txn, nil
}

// CreateAccount opens a new account and seeds its detail entry with the
// authoritative value the server returned, so the next read does not flash
// stale data.
func (c *Coordinator) CreateAccount(ctx context.Context, accountType domain.AccountType, nickname, currency string) (*domain.Account, error) {
	const target = "account-create"
	if err := c.begin(KindAccountCreate, target); err != nil {
		return nil, err
	}
	defer c.end(target)

	account, err := c.client.CreateAccount(ctx, api.CreateAccountRequest{
		Type:     accountType,
		Nickname: nickname,
		Currency: currency,
	}, idempotencyKey())
	c.settle(KindAccountCreate, targets{}, err)
	if err != nil {
		return nil, err
	}
	c.cache.Write(querycache.KeyAccountDetail(account.ID), account)
	return account, nil
}

// PurchaseInvestment buys into a product, drawing from an account.
func (c *Coordinator) PurchaseInvestment(ctx context.Context, productID, accountID string, amount decimal.Decimal) (*domain.InvestmentTransaction, error) {
	if err := c.begin(KindInvestmentPurchase, accountID); err != nil {
		return nil, err
	}
	defer c.end(accountID)

	txn, err := c.client.PurchaseInvestment(ctx, api.PurchaseRequest{
		ProductID: productID,
		AccountID: accountID,
		Amount:    amount,
	}, idempotencyKey())
	c.settle(KindInvestmentPurchase, targets{fromAccountID: accountID}, err)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// RedeemInvestment sells units of a holding back into an account.
func (c *Coordinator) RedeemInvestment(ctx context.Context, productID, accountID string, units decimal.Decimal) (*domain.InvestmentTransaction, error) {
	if err := c.begin(KindInvestmentRedeem, accountID); err != nil {
		return nil, err
	}
	defer c.end(accountID)

	txn, err := c.client.RedeemInvestment(ctx, api.RedeemRequest{
		ProductID: productID,
		AccountID: accountID,
		Units:     units,
	}, idempotencyKey())
	c.settle(KindInvestmentRedeem, targets{fromAccountID: accountID}, err)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// SubmitRiskAssessment records questionnaire answers and refreshes everything
// derived from the risk profile.
func (c *Coordinator) SubmitRiskAssessment(ctx context.Context, answers map[string]int) (*domain.RiskAssessment, error) {
	const target = "risk-assessment"
	if err := c.begin(KindRiskAssessmentSubmit, target); err != nil {
		return nil, err
	}
	defer c.end(target)

	assessment, err := c.client.SubmitRiskAssessment(ctx, api.RiskAssessmentRequest{Answers: answers}, idempotencyKey())
	c.settle(KindRiskAssessmentSubmit, targets{}, err)
	if err != nil {
		return nil, err
	}
	c.cache.Write(querycache.KeyRiskAssessment(), assessment)
	return assessment, nil
}
