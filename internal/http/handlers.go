package http

import (
	"context"
	"net/http"

	"rentledger/internal/core"
	"rentledger/internal/log"
	"rentledger/internal/middleware/auth"
	"rentledger/internal/services"
)

// recordRoutes wires the list/create/update/delete endpoints of one record kind.
type recordRoutes[In, Patch, Rec any] struct {
	kind   string
	path   string
	list   func(ctx context.Context, key core.MonthKey) ([]Rec, error)
	create func(ctx context.Context, in In, actor string) (Rec, error)
	update func(ctx context.Context, id string, p Patch, actor string) (Rec, bool, error)
	remove func(ctx context.Context, id, actor string) (bool, error)
	// meta returns the id and month of a stored record for logging.
	meta func(Rec) (string, core.MonthKey)
}

func incomeRoutes(l *services.LedgerService) recordRoutes[core.NewIncome, core.IncomePatch, core.Income] {
	return recordRoutes[core.NewIncome, core.IncomePatch, core.Income]{
		kind:   "income",
		list:   l.ListIncomes,
		create: l.CreateIncome,
		update: l.UpdateIncome,
		remove: l.DeleteIncome,
		meta:   func(r core.Income) (string, core.MonthKey) { return r.ID, r.MonthKey },
	}
}

func expenseRoutes(l *services.LedgerService) recordRoutes[core.NewExpense, core.ExpensePatch, core.Expense] {
	return recordRoutes[core.NewExpense, core.ExpensePatch, core.Expense]{
		kind:   "expense",
		list:   l.ListExpenses,
		create: l.CreateExpense,
		update: l.UpdateExpense,
		remove: l.DeleteExpense,
		meta:   func(r core.Expense) (string, core.MonthKey) { return r.ID, r.MonthKey },
	}
}

func withdrawalRoutes(l *services.LedgerService) recordRoutes[core.NewWithdrawal, core.WithdrawalPatch, core.Withdrawal] {
	return recordRoutes[core.NewWithdrawal, core.WithdrawalPatch, core.Withdrawal]{
		kind:   "withdrawal",
		list:   l.ListWithdrawals,
		create: l.CreateWithdrawal,
		update: l.UpdateWithdrawal,
		remove: l.DeleteWithdrawal,
		meta:   func(r core.Withdrawal) (string, core.MonthKey) { return r.ID, r.MonthKey },
	}
}

func (rr recordRoutes[In, Patch, Rec]) register(path string, s *Server, api func(string, http.HandlerFunc)) {
	rr.path = path
	api("GET /api/"+path, rr.handleList(s))
	api("POST /api/"+path, rr.handleCreate(s))
	api("PATCH /api/"+path+"/{id}", rr.handleUpdate(s))
	api("DELETE /api/"+path+"/{id}", rr.handleDelete(s))
}

func (rr recordRoutes[In, Patch, Rec]) handleList(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.requestContext(r)
		defer cancel()

		key, err := parseMonthQuery(r, s.now())
		if err != nil {
			errorResponse(ctx, err).Write(w)
			return
		}
		items, err := rr.list(ctx, key)
		if err != nil {
			errorResponse(ctx, err).Write(w)
			return
		}
		if items == nil {
			items = []Rec{}
		}
		NewJSONResponse().JSON(listView[Rec]{Month: key, Count: len(items), Items: items}).Write(w)
	}
}

func (rr recordRoutes[In, Patch, Rec]) handleCreate(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.requestContext(r)
		defer cancel()

		in, err := decodeJSON[In](w, r)
		if err != nil {
			errorResponse(ctx, err).Write(w)
			return
		}
		actor := auth.ActorFromContext(ctx)
		rec, err := rr.create(ctx, in, actor)
		if err != nil {
			errorResponse(ctx, err).Write(w)
			return
		}
		rr.logWrite(ctx, log.OpCreate, rec, actor)
		id, _ := rr.meta(rec)
		NewJSONResponse().
			Status(http.StatusCreated).
			Header("Location", "/api/"+rr.path+"/"+id).
			JSON(rec).
			Write(w)
	}
}

func (rr recordRoutes[In, Patch, Rec]) handleUpdate(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.requestContext(r)
		defer cancel()

		id, err := pathID(r)
		if err != nil {
			errorResponse(ctx, err).Write(w)
			return
		}
		patch, err := decodeJSON[Patch](w, r)
		if err != nil {
			errorResponse(ctx, err).Write(w)
			return
		}
		actor := auth.ActorFromContext(ctx)
		rec, found, err := rr.update(ctx, id, patch, actor)
		if err != nil {
			errorResponse(ctx, err).Write(w)
			return
		}
		if !found {
			NotFoundError(rr.kind + " not found").Write(w)
			return
		}
		rr.logWrite(ctx, log.OpUpdate, rec, actor)
		NewJSONResponse().JSON(rec).Write(w)
	}
}

func (rr recordRoutes[In, Patch, Rec]) handleDelete(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.requestContext(r)
		defer cancel()

		id, err := pathID(r)
		if err != nil {
			errorResponse(ctx, err).Write(w)
			return
		}
		actor := auth.ActorFromContext(ctx)
		removed, err := rr.remove(ctx, id, actor)
		if err != nil {
			errorResponse(ctx, err).Write(w)
			return
		}
		if !removed {
			NotFoundError(rr.kind + " not found").Write(w)
			return
		}
		log.NewStructuredLogger(log.FromContext(ctx)).LogRecordWritten(ctx, log.OpDelete, rr.kind, id, "", actor)
		NewJSONResponse().Status(http.StatusNoContent).Write(w)
	}
}

func (rr recordRoutes[In, Patch, Rec]) logWrite(ctx context.Context, op string, rec Rec, actor string) {
	id, month := rr.meta(rec)
	log.NewStructuredLogger(log.FromContext(ctx)).LogRecordWritten(ctx, op, rr.kind, id, string(month), actor)
}
