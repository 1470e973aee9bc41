// Package engine wires the session store, transport gateway, query cache,
// mutation coordinator, and account resolver into the single object the CLI
// consumes. Every read goes through the cache; every mutation goes through
// the coordinator; nothing else touches either.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/finch-bank/finchctl/config"
	"github.com/finch-bank/finchctl/internal/api"
	"github.com/finch-bank/finchctl/internal/domain"
	"github.com/finch-bank/finchctl/internal/gateway"
	"github.com/finch-bank/finchctl/internal/guard"
	"github.com/finch-bank/finchctl/internal/mutation"
	"github.com/finch-bank/finchctl/internal/querycache"
	"github.com/finch-bank/finchctl/internal/resolver"
	"github.com/finch-bank/finchctl/internal/session"
)

// DefaultPageSize is the page size used for paginated reads.
const DefaultPageSize = 20

// Engine is the client-side consistency engine.
type Engine struct {
	Gateway   *gateway.Gateway
	API       *api.Client
	Cache     *querycache.Cache
	Session   *session.Store
	Mutations *mutation.Coordinator
	Guard     *guard.Guard

	window time.Duration
	logger *slog.Logger
}

// New builds the engine from configuration. The session store is the only
// writer of the credential; the gateway's unauthorized hook funnels into it.
func New(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	gw := gateway.New(gateway.Options{
		BaseURL:           cfg.APIBaseURL,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.OutboundRate,
		Logger:            logger,
	})
	client := api.NewClient(gw)
	cache := querycache.New(logger)

	storage, err := session.NewFileTokenStorage(config.AppName, cfg.TokenStoragePath)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(client, client, gw, storage, cache, logger)
	gw.OnUnauthorized(store.HandleUnauthorized)

	return &Engine{
		Gateway:   gw,
		API:       client,
		Cache:     cache,
		Session:   store,
		Mutations: mutation.NewCoordinator(client, cache, logger),
		Guard:     guard.New(),
		window:    cfg.FreshnessWindow,
		logger:    logger,
	}, nil
}

// NewTransferSession starts a fresh counterparty-lookup session for one
// cross-user transfer flow.
func (e *Engine) NewTransferSession() *resolver.Resolver {
	return resolver.New(e.API, e.logger)
}

// CrossUserTransfer submits a transfer to the counterparty confirmed by r.
// It is rejected client-side, without a network call, unless the resolver is
// in its found state; the submitted number is always the resolved one, never
// the live text.
func (e *Engine) CrossUserTransfer(ctx context.Context, r *resolver.Resolver, fromAccountID string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	confirmed, err := r.Confirmed()
	if err != nil {
		return nil, err
	}
	return e.Mutations.CrossUserTransfer(ctx, fromAccountID, confirmed.AccountNumber, amount, description)
}

// ---- cached reads ----

func (e *Engine) Accounts(ctx context.Context) ([]domain.Account, error) {
	return querycache.ReadAs(ctx, e.Cache, querycache.KeyAccounts(), e.window, e.API.Accounts)
}

func (e *Engine) AccountSummary(ctx context.Context) (*domain.AccountSummary, error) {
	return querycache.ReadAs(ctx, e.Cache, querycache.KeyAccountSummary(), e.window, e.API.AccountSummary)
}

func (e *Engine) AccountDetail(ctx context.Context, accountID string) (*domain.Account, error) {
	return querycache.ReadAs(ctx, e.Cache, querycache.KeyAccountDetail(accountID), e.window,
		func(ctx context.Context) (*domain.Account, error) {
			return e.API.AccountDetail(ctx, accountID)
		})
}

func (e *Engine) Transactions(ctx context.Context, accountID string, page int) (*domain.Page[domain.Transaction], error) {
	return querycache.ReadAs(ctx, e.Cache, querycache.KeyTransactions(accountID, page), e.window,
		func(ctx context.Context) (*domain.Page[domain.Transaction], error) {
			return e.API.Transactions(ctx, accountID, page, DefaultPageSize)
		})
}

func (e *Engine) RecentTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return querycache.ReadAs(ctx, e.Cache, querycache.KeyRecentTransactions(), e.window, e.API.RecentTransactions)
}

func (e *Engine) TransactionDetail(ctx context.Context, id string) (*domain.Transaction, error) {
	return querycache.ReadAs(ctx, e.Cache, querycache.KeyTransactionDetail(id), e.window,
		func(ctx context.Context) (*domain.Transaction, error) {
			return e.API.TransactionDetail(ctx, id)
		})
}

func (e *Engine) InvestmentProducts(ctx context.Context, page int) (*domain.Page[domain.InvestmentProduct], error) {
	return querycache.ReadAs(ctx, e.Cache, querycache.KeyProducts(page), e.window,
		func(ctx context.Context) (*domain.Page[domain.InvestmentProduct], error) {
			return e.API.InvestmentProducts(ctx, page, DefaultPageSize)
		})
}

func (e *Engine) InvestmentProductDetail(ctx context.Context, id string) (*domain.InvestmentProduct, error) {
	return querycache.ReadAs(ctx, e.Cache, querycache.KeyProductDetail(id), e.window,
		func(ctx context.Context) (*domain.InvestmentProduct, error) {
			return e.API.InvestmentProductDetail(ctx, id)
		})
}

func (e *Engine) Holdings(ctx context.Context) ([]domain.Holding, error) {
	return querycache.ReadAs(ctx, e.Cache, querycache.KeyHoldings(), e.window, e.API.Holdings)
}

func (e *Engine) PortfolioSummary(ctx context.Context) (*domain.PortfolioSummary, error) {
	return querycache.ReadAs(ctx, e.Cache, querycache.KeyPortfolioSummary(), e.window, e.API.PortfolioSummary)
}

func (e *Engine) InvestmentTransactions(ctx context.Context, page int) (*domain.Page[domain.InvestmentTransaction], error) {
	return querycache.ReadAs(ctx, e.Cache, querycache.KeyInvestmentTransactions(page), e.window,
		func(ctx context.Context) (*domain.Page[domain.InvestmentTransaction], error) {
			return e.API.InvestmentTransactions(ctx, page, DefaultPageSize)
		})
}

func (e *Engine) RiskAssessment(ctx context.Context) (*domain.RiskAssessment, error) {
	return querycache.ReadAs(ctx, e.Cache, querycache.KeyRiskAssessment(), e.window, e.API.RiskAssessment)
}

func (e *Engine) Recommendations(ctx context.Context) ([]domain.Recommendation, error) {
	return querycache.ReadAs(ctx, e.Cache, querycache.KeyRecommendations(), e.window, e.API.Recommendations)
}

// Dashboard is the aggregated landing view.
type Dashboard struct {
	Summary   *domain.AccountSummary
	Accounts  []domain.Account
	Recent    []domain.Transaction
	Portfolio *domain.PortfolioSummary
}

// Dashboard fans out the landing-page reads concurrently. Overlapping reads
// issued elsewhere attach to the same in-flight fetches. With allowStale set,
// entries that already hold a value are served immediately and revalidated in
// the background.
func (e *Engine) Dashboard(ctx context.Context, allowStale bool) (*Dashboard, error) {
	read := func(ctx context.Context, key querycache.Key, fetch querycache.FetchFunc) (any, error) {
		if allowStale {
			return e.Cache.ReadStale(ctx, key, e.window, fetch)
		}
		return e.Cache.Read(ctx, key, e.window, fetch)
	}

	var dash Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := read(ctx, querycache.KeyAccountSummary(), func(ctx context.Context) (any, error) {
			return e.API.AccountSummary(ctx)
		})
		if err != nil {
			return err
		}
		dash.Summary, _ = v.(*domain.AccountSummary)
		return nil
	})
	g.Go(func() error {
		v, err := read(ctx, querycache.KeyAccounts(), func(ctx context.Context) (any, error) {
			return e.API.Accounts(ctx)
		})
		if err != nil {
			return err
		}
		dash.Accounts, _ = v.([]domain.Account)
		return nil
	})
	g.Go(func() error {
		v, err := read(ctx, querycache.KeyRecentTransactions(), func(ctx context.Context) (any, error) {
			return e.API.RecentTransactions(ctx)
		})
		if err != nil {
			return err
		}
		dash.Recent, _ = v.([]domain.Transaction)
		return nil
	})
	g.Go(func() error {
		v, err := read(ctx, querycache.KeyPortfolioSummary(), func(ctx context.Context) (any, error) {
			return e.API.PortfolioSummary(ctx)
		})
		if err != nil {
			return err
		}
		dash.Portfolio, _ = v.(*domain.PortfolioSummary)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &dash, nil
}
