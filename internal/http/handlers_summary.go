package http

import (
	"net/http"

	"rentledger/internal/core"
)

// handleMonthSummary serves GET /api/summary?month=YYYY-MM.
func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	key, err := parseMonthQuery(r, s.now())
	if err != nil {
		errorResponse(ctx, err).Write(w)
		return
	}
	summary, err := s.ledger.MonthSummary(ctx, key)
	if err != nil {
		errorResponse(ctx, err).Write(w)
		return
	}
	NewJSONResponse().JSON(newMonthSummaryView(summary)).Write(w)
}

// handlePartnerBalances serves GET /api/partners over the whole ledger.
func (s *Server) handlePartnerBalances(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	balances, err := s.ledger.PartnerBalances(ctx)
	if err != nil {
		errorResponse(ctx, err).Write(w)
		return
	}
	NewJSONResponse().JSON(newPartnerBalancesView(balances)).Write(w)
}

// handleWithdrawalOverview serves GET /api/withdrawals/overview?month=YYYY-MM.
func (s *Server) handleWithdrawalOverview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	key, err := parseMonthQuery(r, s.now())
	if err != nil {
		errorResponse(ctx, err).Write(w)
		return
	}
	overview, err := s.ledger.WithdrawalOverview(ctx, key)
	if err != nil {
		errorResponse(ctx, err).Write(w)
		return
	}
	NewJSONResponse().JSON(newWithdrawalOverviewView(overview)).Write(w)
}

// handleMonthStep serves the month navigation endpoints.
func (s *Server) handleMonthStep(step int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := core.ParseMonthKey(r.PathValue("key"))
		if err != nil {
			errorResponse(r.Context(), err).Write(w)
			return
		}
		if step > 0 {
			key = key.Next()
		} else {
			key = key.Prev()
		}
		NewJSONResponse().JSON(monthView{Month: key}).Write(w)
	}
}
