package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType distinguishes the account products the backend offers.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountInvestment AccountType = "investment"
)

// Account is one account owned by the authenticated user.
type Account struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"account_number"`
	Type          AccountType     `json:"account_type"`
	Nickname      string          `json:"nickname"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
}

// AccountSummary is the balance roll-up served by the account-summary read.
type AccountSummary struct {
	TotalBalance     decimal.Decimal `json:"total_balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	AccountCount     int             `json:"account_count"`
	Currency         string          `json:"currency"`
	AsOf             time.Time       `json:"as_of"`
}

// TransactionKind is the ledger-side classification of a transaction.
type TransactionKind string

const (
	TxDeposit     TransactionKind = "deposit"
	TxWithdrawal  TransactionKind = "withdrawal"
	TxTransferIn  TransactionKind = "transfer_in"
	TxTransferOut TransactionKind = "transfer_out"
)

// Transaction is one ledger entry as served by the transaction reads.
type Transaction struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"account_id"`
	Kind            TransactionKind `json:"kind"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	Description     string          `json:"description"`
	CounterpartyRef string          `json:"counterparty_ref,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// InvestmentProduct is one purchasable product from the catalog.
type InvestmentProduct struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	RiskLevel       int             `json:"risk_level"`
	ExpectedReturn  decimal.Decimal `json:"expected_return"`
	MinimumPurchase decimal.Decimal `json:"minimum_purchase"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

// Holding is the user's position in one investment product.
type Holding struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Units        decimal.Decimal `json:"units"`
	CostBasis    decimal.Decimal `json:"cost_basis"`
	MarketValue  decimal.Decimal `json:"market_value"`
	GainLoss     decimal.Decimal `json:"gain_loss"`
	LastValuedAt time.Time       `json:"last_valued_at"`
}

// PortfolioSummary is the investment roll-up across all holdings.
type PortfolioSummary struct {
	TotalValue    decimal.Decimal `json:"total_value"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	TotalGainLoss decimal.Decimal `json:"total_gain_loss"`
	HoldingCount  int             `json:"holding_count"`
	AsOf          time.Time       `json:"as_of"`
}

// InvestmentTransaction is one purchase or redemption record.
type InvestmentTransaction struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Kind        string          `json:"kind"` // "purchase" or "redemption"
	Units       decimal.Decimal `json:"units"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// RiskAssessment is the user's current risk profile.
type RiskAssessment struct {
	ID          string    `json:"id"`
	Score       int       `json:"score"`
	Profile     string    `json:"profile"` // conservative, balanced, aggressive
	CompletedAt time.Time `json:"completed_at"`
}

// Recommendation is one product suggestion derived from the risk profile.
type Recommendation struct {
	Product InvestmentProduct `json:"product"`
	Reason  string            `json:"reason"`
}

// LookupResult is the resolved counterparty of a cross-user transfer. It lives
// only inside the account resolver for the duration of one transfer flow; it
// is never stored in the query cache.
type LookupResult struct {
	AccountNumber    string      `json:"account_number"`
	OwnerDisplayName string      `json:"owner_display_name"`
	AccountType      AccountType `json:"account_type"`
}

// Page is the backend's pagination envelope.
type Page[T any] struct {
	Items       []T  `json:"items"`
	TotalCount  int  `json:"total_count"`
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}
