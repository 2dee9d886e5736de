package core

// LoanSummary aggregates a business's loan position. Loans with no
// interest rate cannot contribute to the owed/outstanding totals, so
// they are counted separately instead of polluting the sums with zeros.
type LoanSummary struct {
	TotalLoans       int
	PendingLoans     int
	TotalOwed        Money // across loans with a computable total
	TotalOutstanding Money
	NotComputable    int // loans with no interest rate
}

// DashboardSummary is the compact per-business overview served by the
// summary endpoint.
type DashboardSummary struct {
	BusinessID   int64
	NetCashFlow  Money
	TotalInflow  Money
	TotalOutflow Money
	Records      int
	Loans        LoanSummary
}
