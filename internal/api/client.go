// Package api holds the typed bindings for every Finch backend endpoint the
// client consumes. All transport concerns (credentials, classification,
// auto-logout) live in the gateway; this layer only names paths and shapes.
package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/finch-bank/finchctl/internal/domain"
	"github.com/finch-bank/finchctl/internal/gateway"
)

// Client wraps the gateway with one method per consumed endpoint.
type Client struct {
	gw *gateway.Gateway
}

// NewClient creates the API binding layer.
func NewClient(gw *gateway.Gateway) *Client {
	return &Client{gw: gw}
}

// ---- authentication ----

type tokenResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a session token. Flagged as a login attempt
// so a rejection is surfaced, never auto-redirected.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	var resp tokenResponse
	err := c.gw.Post(ctx, "/api/v1/auth/login", creds, &resp, gateway.AsLoginAttempt())
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Register creates a user and returns the issued session token.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (string, error) {
	var resp tokenResponse
	err := c.gw.Post(ctx, "/api/v1/auth/register", reg, &resp, gateway.AsLoginAttempt())
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Whoami resolves the identity behind the installed token.
func (c *Client) Whoami(ctx context.Context) (*domain.Identity, error) {
	var identity domain.Identity
	if err := c.gw.Get(ctx, "/api/v1/auth/me", nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

var (
	_ domain.Authenticator  = (*Client)(nil)
	_ domain.IdentityReader = (*Client)(nil)
)

// ---- accounts ----

func (c *Client) Accounts(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := c.gw.Get(ctx, "/api/v1/accounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *Client) AccountSummary(ctx context.Context) (*domain.AccountSummary, error) {
	var summary domain.AccountSummary
	if err := c.gw.Get(ctx, "/api/v1/accounts/summary", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) AccountDetail(ctx context.Context, accountID string) (*domain.Account, error) {
	var account domain.Account
	if err := c.gw.Get(ctx, "/api/v1/accounts/"+accountID, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateAccountRequest opens a new account.
type CreateAccountRequest struct {
	Type     domain.AccountType `json:"account_type"`
	Nickname string             `json:"nickname"`
	Currency string             `json:"currency"`
}

func (c *Client) CreateAccount(ctx context.Context, req CreateAccountRequest, opts ...gateway.RequestOption) (*domain.Account, error) {
	var account domain.Account
	if err := c.gw.Post(ctx, "/api/v1/accounts", req, &account, opts...); err != nil {
		return nil, err
	}
	return &account, nil
}

// LookupAccountNumber resolves a counterparty account by number. Used only by
// the cross-user transfer flow; its result is confirmation-gated and never
// enters the query cache.
func (c *Client) LookupAccountNumber(ctx context.Context, accountNumber string) (*domain.LookupResult, error) {
	query := url.Values{"account_number": {accountNumber}}
	var result domain.LookupResult
	if err := c.gw.Get(ctx, "/api/v1/accounts/lookup", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ---- transactions ----

// DepositRequest moves money into an owned account.
type DepositRequest struct {
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

func (c *Client) Deposit(ctx context.Context, req DepositRequest, opts ...gateway.RequestOption) (*domain.Transaction, error) {
	var txn domain.Transaction
	if err := c.gw.Post(ctx, "/api/v1/transactions/deposit", req, &txn, opts...); err != nil {
		return nil, err
	}
	return &txn, nil
}

// WithdrawRequest moves money out of an owned account.
type WithdrawRequest struct {
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

func (c *Client) Withdraw(ctx context.Context, req WithdrawRequest, opts ...gateway.RequestOption) (*domain.Transaction, error) {
	var txn domain.Transaction
	if err := c.gw.Post(ctx, "/api/v1/transactions/withdraw", req, &txn, opts...); err != nil {
		return nil, err
	}
	return &txn, nil
}

// TransferRequest moves money between two accounts the user owns.
type TransferRequest struct {
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
}

func (c *Client) Transfer(ctx context.Context, req TransferRequest, opts ...gateway.RequestOption) (*domain.Transaction, error) {
	var txn domain.Transaction
	if err := c.gw.Post(ctx, "/api/v1/transactions/transfer", req, &txn, opts...); err != nil {
		return nil, err
	}
	return &txn, nil
}

// TransferByAccountNumberRequest moves money to a counterparty resolved by
// account number, possibly owned by a different user.
type TransferByAccountNumberRequest struct {
	FromAccountID   string          `json:"from_account_id"`
	ToAccountNumber string          `json:"to_account_number"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description,omitempty"`
}

func (c *Client) TransferByAccountNumber(ctx context.Context, req TransferByAccountNumberRequest, opts ...gateway.RequestOption) (*domain.Transaction, error) {
	var txn domain.Transaction
	if err := c.gw.Post(ctx, "/api/v1/transactions/transfer-by-account-number", req, &txn, opts...); err != nil {
		return nil, err
	}
	return &txn, nil
}

func (c *Client) Transactions(ctx context.Context, accountID string, page, pageSize int) (*domain.Page[domain.Transaction], error) {
	query := url.Values{
		"account_id": {accountID},
		"page":       {strconv.Itoa(page)},
		"page_size":  {strconv.Itoa(pageSize)},
	}
	var result domain.Page[domain.Transaction]
	if err := c.gw.Get(ctx, "/api/v1/transactions", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) RecentTransactions(ctx context.Context) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	if err := c.gw.Get(ctx, "/api/v1/transactions/recent", nil, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

func (c *Client) TransactionDetail(ctx context.Context, id string) (*domain.Transaction, error) {
	var txn domain.Transaction
	if err := c.gw.Get(ctx, "/api/v1/transactions/"+id, nil, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// ---- investments ----

func (c *Client) InvestmentProducts(ctx context.Context, page, pageSize int) (*domain.Page[domain.InvestmentProduct], error) {
	query := url.Values{
		"page":      {strconv.Itoa(page)},
		"page_size": {strconv.Itoa(pageSize)},
	}
	var result domain.Page[domain.InvestmentProduct]
	if err := c.gw.Get(ctx, "/api/v1/investments/products", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) InvestmentProductDetail(ctx context.Context, id string) (*domain.InvestmentProduct, error) {
	var product domain.InvestmentProduct
	if err := c.gw.Get(ctx, "/api/v1/investments/products/"+id, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) RiskAssessment(ctx context.Context) (*domain.RiskAssessment, error) {
	var assessment domain.RiskAssessment
	if err := c.gw.Get(ctx, "/api/v1/investments/risk-assessment", nil, &assessment); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// RiskAssessmentRequest submits questionnaire answers.
type RiskAssessmentRequest struct {
	Answers map[string]int `json:"answers"`
}

func (c *Client) SubmitRiskAssessment(ctx context.Context, req RiskAssessmentRequest, opts ...gateway.RequestOption) (*domain.RiskAssessment, error) {
	var assessment domain.RiskAssessment
	if err := c.gw.Post(ctx, "/api/v1/investments/risk-assessment", req, &assessment, opts...); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// PurchaseRequest buys units of a product, drawing from an account.
type PurchaseRequest struct {
	ProductID string          `json:"product_id"`
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
}

func (c *Client) PurchaseInvestment(ctx context.Context, req PurchaseRequest, opts ...gateway.RequestOption) (*domain.InvestmentTransaction, error) {
	var txn domain.InvestmentTransaction
	if err := c.gw.Post(ctx, "/api/v1/investments/purchase", req, &txn, opts...); err != nil {
		return nil, err
	}
	return &txn, nil
}

// RedeemRequest sells units of a holding back into an account.
type RedeemRequest struct {
	ProductID string          `json:"product_id"`
	AccountID string          `json:"account_id"`
	Units     decimal.Decimal `json:"units"`
}

func (c *Client) RedeemInvestment(ctx context.Context, req RedeemRequest, opts ...gateway.RequestOption) (*domain.InvestmentTransaction, error) {
	var txn domain.InvestmentTransaction
	if err := c.gw.Post(ctx, "/api/v1/investments/redeem", req, &txn, opts...); err != nil {
		return nil, err
	}
	return &txn, nil
}

func (c *Client) Holdings(ctx context.Context) ([]domain.Holding, error) {
	var holdings []domain.Holding
	if err := c.gw.Get(ctx, "/api/v1/investments/holdings", nil, &holdings); err != nil {
		return nil, err
	}
	return holdings, nil
}

func (c *Client) PortfolioSummary(ctx context.Context) (*domain.PortfolioSummary, error) {
	var summary domain.PortfolioSummary
	if err := c.gw.Get(ctx, "/api/v1/investments/portfolio", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) InvestmentTransactions(ctx context.Context, page, pageSize int) (*domain.Page[domain.InvestmentTransaction], error) {
	query := url.Values{
		"page":      {strconv.Itoa(page)},
		"page_size": {strconv.Itoa(pageSize)},
	}
	var result domain.Page[domain.InvestmentTransaction]
	if err := c.gw.Get(ctx, "/api/v1/investments/transactions", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Recommendations(ctx context.Context) ([]domain.Recommendation, error) {
	var recs []domain.Recommendation
	if err := c.gw.Get(ctx, "/api/v1/investments/recommendations", nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}
