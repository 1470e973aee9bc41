package querycache

import "strconv"

// Key families. Every read in the engine draws its key from this vocabulary;
// the mutation coordinator's cascade table refers to the same names, which is
// what keeps invalidation reviewable in one place.
const (
	famAccounts        = "accounts"
	famAccountSummary  = "account_summary"
	famAccountDetail   = "account_detail"
	famTransactions    = "transactions"
	famRecentTxns      = "recent_transactions"
	famTxnDetail       = "transaction_detail"
	famProducts        = "products"
	famProductDetail   = "product_detail"
	famHoldings        = "holdings"
	famPortfolio       = "portfolio_summary"
	famInvestmentTxns  = "investment_transactions"
	famRiskAssessment  = "risk_assessment"
	famRecommendations = "recommendations"
	famIdentity        = "identity"
)

func KeyAccounts() Key              { return NewKey(famAccounts) }
func KeyAccountSummary() Key        { return NewKey(famAccountSummary) }
func KeyAccountDetail(id string) Key { return NewKey(famAccountDetail, "account="+id) }

func KeyTransactions(accountID string, page int) Key {
	return NewKey(famTransactions, "account="+accountID, "page="+strconv.Itoa(page))
}
func KeyRecentTransactions() Key    { return NewKey(famRecentTxns) }
func KeyTransactionDetail(id string) Key { return NewKey(famTxnDetail, "transaction="+id) }

func KeyProducts(page int) Key      { return NewKey(famProducts, "page="+strconv.Itoa(page)) }
func KeyProductDetail(id string) Key { return NewKey(famProductDetail, "product="+id) }
func KeyHoldings() Key              { return NewKey(famHoldings) }
func KeyPortfolioSummary() Key      { return NewKey(famPortfolio) }
func KeyInvestmentTransactions(page int) Key {
	return NewKey(famInvestmentTxns, "page="+strconv.Itoa(page))
}
func KeyRiskAssessment() Key        { return NewKey(famRiskAssessment) }
func KeyRecommendations() Key       { return NewKey(famRecommendations) }
func KeyIdentity() Key              { return NewKey(famIdentity) }

func FamilyAccounts() Selector       { return Family(famAccounts) }
func FamilyAccountSummary() Selector { return Family(famAccountSummary) }
func FamilyAccountDetail(id string) Selector {
	return Family(famAccountDetail, "account="+id)
}

// FamilyTransactions covers every page of one account's transaction list.
func FamilyTransactions(accountID string) Selector {
	return Family(famTransactions, "account="+accountID)
}

// FamilyAllTransactions covers every transaction-list entry of every account.
func FamilyAllTransactions() Selector    { return Family(famTransactions) }
func FamilyRecentTransactions() Selector { return Family(famRecentTxns) }
func FamilyHoldings() Selector           { return Family(famHoldings) }
func FamilyPortfolioSummary() Selector   { return Family(famPortfolio) }
func FamilyInvestmentTransactions() Selector { return Family(famInvestmentTxns) }
func FamilyRiskAssessment() Selector     { return Family(famRiskAssessment) }
func FamilyRecommendations() Selector    { return Family(famRecommendations) }
