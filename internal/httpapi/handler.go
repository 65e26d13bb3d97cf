// Package httpapi exposes the services over a thin JSON HTTP surface.
// It owns the mapping from fault kinds to status codes and the membership
// gates the core services assume have already passed.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Pujan77/expense-tracker-backend/internal/faults"
	"github.com/Pujan77/expense-tracker-backend/internal/models"
	"github.com/Pujan77/expense-tracker-backend/internal/service"
)

// Handler bundles the services behind the HTTP routes.
type Handler struct {
	families    *service.FamilyService
	expenses    *service.ExpenseService
	settlements *service.SettlementService
	budgets     *service.BudgetService
}

// New creates a Handler over the given services.
func New(families *service.FamilyService, expenses *service.ExpenseService,
	settlements *service.SettlementService, budgets *service.BudgetService) *Handler {
	return &Handler{
		families:    families,
		expenses:    expenses,
		settlements: settlements,
		budgets:     budgets,
	}
}

// Register attaches all routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/families", h.createFamily)
	mux.HandleFunc("GET /api/families/{id}", h.getFamily)
	mux.HandleFunc("POST /api/families/{id}/members", h.addMembers)

	mux.HandleFunc("POST /api/families/{id}/expenses", h.createExpense)
	mux.HandleFunc("GET /api/expenses/{id}", h.getExpense)

	mux.HandleFunc("POST /api/families/{id}/settlements", h.computeSettlement)
	mux.HandleFunc("GET /api/families/{id}/settlements", h.listSettlements)
	mux.HandleFunc("GET /api/settlements/{id}", h.getSettlement)
	mux.HandleFunc("POST /api/settlements/{id}/transactions/{index}/settle", h.settleTransaction)
	mux.HandleFunc("POST /api/settlements/{id}/finalize", h.finalizeSettlement)

	mux.HandleFunc("PUT /api/families/{id}/budgets", h.setBudget)
	mux.HandleFunc("GET /api/families/{id}/budgets/status", h.budgetStatus)
}

// actorID returns the caller identity. Authentication happens upstream;
// this layer trusts the identity header the gateway sets.
func actorID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// requireMember ensures the actor belongs to the family.
func (h *Handler) requireMember(w http.ResponseWriter, r *http.Request, familyID string) bool {
	actor := actorID(r)
	if actor == "" {
		writeError(w, errors.New("identity header required"), http.StatusUnauthorized)
		return false
	}
	ok, err := h.families.IsMember(r.Context(), actor, familyID)
	if err != nil {
		writeFault(w, err)
		return false
	}
	if !ok {
		writeError(w, errors.New("you must be a member of this family"), http.StatusForbidden)
		return false
	}
	return true
}

// requireHead ensures the actor is the family head.
func (h *Handler) requireHead(w http.ResponseWriter, r *http.Request, familyID string) bool {
	actor := actorID(r)
	if actor == "" {
		writeError(w, errors.New("identity header required"), http.StatusUnauthorized)
		return false
	}
	ok, err := h.families.IsHead(r.Context(), actor, familyID)
	if err != nil {
		writeFault(w, err)
		return false
	}
	if !ok {
		writeError(w, errors.New("only the family head may do this"), http.StatusForbidden)
		return false
	}
	return true
}

func (h *Handler) createFamily(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, errors.New("identity header required"), http.StatusUnauthorized)
		return
	}

	var req struct {
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}
	if !decode(w, r, &req) {
		return
	}

	family := &models.Family{Name: req.Name, HeadID: actor, Members: req.Members}
	if err := h.families.Create(r.Context(), family); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, familyJSON(family))
}

func (h *Handler) getFamily(w http.ResponseWriter, r *http.Request) {
	familyID := r.PathValue("id")
	if !h.requireMember(w, r, familyID) {
		return
	}
	family, err := h.families.Get(r.Context(), familyID)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, familyJSON(family))
}

func (h *Handler) addMembers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Members []string `json:"members"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.families.AddMembers(r.Context(), actorID(r), r.PathValue("id"), req.Members); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	familyID := r.PathValue("id")
	if !h.requireMember(w, r, familyID) {
		return
	}

	var req struct {
		PayerID     string  `json:"payer_id"`
		Description string  `json:"description"`
		Category    string  `json:"category"`
		Amount      float64 `json:"amount"`
		SpentAt     int64   `json:"spent_at"`
		Shares      []struct {
			UserID string  `json:"user_id"`
			Type   string  `json:"type"`
			Value  float64 `json:"value"`
		} `json:"shares"`
	}
	if !decode(w, r, &req) {
		return
	}

	shares := make([]models.Share, len(req.Shares))
	for i, s := range req.Shares {
		shares[i] = models.Share{UserID: s.UserID, Type: models.ShareType(s.Type), Value: s.Value}
	}
	expense := &models.Expense{
		FamilyID:    familyID,
		PayerID:     req.PayerID,
		Description: req.Description,
		Category:    req.Category,
		Amount:      req.Amount,
		SpentAt:     req.SpentAt,
		Shares:      shares,
	}
	if err := h.expenses.Create(r.Context(), expense); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"expense_id": expense.ID})
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := h.expenses.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFault(w, err)
		return
	}
	if !h.requireMember(w, r, expense.FamilyID) {
		return
	}
	writeJSON(w, http.StatusOK, expenseJSON(expense))
}

func (h *Handler) computeSettlement(w http.ResponseWriter, r *http.Request) {
	familyID := r.PathValue("id")
	if !h.requireHead(w, r, familyID) {
		return
	}

	var req struct {
		PeriodStart int64 `json:"period_start"`
		PeriodEnd   int64 `json:"period_end"`
	}
	if !decode(w, r, &req) {
		return
	}

	record, err := h.settlements.Compute(r.Context(), familyID, models.Period{Start: req.PeriodStart, End: req.PeriodEnd})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, recordJSON(record))
}

func (h *Handler) listSettlements(w http.ResponseWriter, r *http.Request) {
	familyID := r.PathValue("id")
	if !h.requireMember(w, r, familyID) {
		return
	}
	records, err := h.settlements.ListByFamily(r.Context(), familyID)
	if err != nil {
		writeFault(w, err)
		return
	}
	out := make([]any, len(records))
	for i, record := range records {
		out[i] = recordJSON(record)
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlements": out})
}

func (h *Handler) getSettlement(w http.ResponseWriter, r *http.Request) {
	record, err := h.settlements.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFault(w, err)
		return
	}
	if !h.requireMember(w, r, record.FamilyID) {
		return
	}
	writeJSON(w, http.StatusOK, recordJSON(record))
}

func (h *Handler) settleTransaction(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, errors.New("transaction index must be an integer"), http.StatusBadRequest)
		return
	}

	record, err := h.settlements.Get(r.Context(), recordID)
	if err != nil {
		writeFault(w, err)
		return
	}
	if !h.requireMember(w, r, record.FamilyID) {
		return
	}

	record, err = h.settlements.SettleTransaction(r.Context(), recordID, index)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordJSON(record))
}

func (h *Handler) finalizeSettlement(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")

	record, err := h.settlements.Get(r.Context(), recordID)
	if err != nil {
		writeFault(w, err)
		return
	}
	if !h.requireHead(w, r, record.FamilyID) {
		return
	}

	record, err = h.settlements.Finalize(r.Context(), recordID)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordJSON(record))
}

func (h *Handler) setBudget(w http.ResponseWriter, r *http.Request) {
	familyID := r.PathValue("id")
	if !h.requireHead(w, r, familyID) {
		return
	}

	var req struct {
		Category string `json:"category"`
		Month    string `json:"month"`
		Limit    string `json:"limit"`
	}
	if !decode(w, r, &req) {
		return
	}
	limit, err := decimal.NewFromString(req.Limit)
	if err != nil {
		writeError(w, errors.New("limit must be a decimal number"), http.StatusBadRequest)
		return
	}

	budget := &models.Budget{FamilyID: familyID, Category: req.Category, Month: req.Month, Limit: limit}
	if err := h.budgets.Set(r.Context(), budget); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"budget_id": budget.ID})
}

func (h *Handler) budgetStatus(w http.ResponseWriter, r *http.Request) {
	familyID := r.PathValue("id")
	if !h.requireMember(w, r, familyID) {
		return
	}

	status, err := h.budgets.Status(r.Context(), familyID, r.URL.Query().Get("category"), r.URL.Query().Get("month"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":     status.Budget.Month,
		"category":  status.Budget.Category,
		"limit":     status.Budget.Limit.String(),
		"spent":     status.Spent.String(),
		"remaining": status.Remaining.String(),
		"exceeded":  status.Exceeded,
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, errors.New("invalid JSON body"), http.StatusBadRequest)
		return false
	}
	return true
}

// writeFault maps fault kinds to status codes:
// Validation 400, Forbidden 403, NotFound 404, Conflict 409, otherwise 500.
func writeFault(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, faults.ErrValidation):
		writeError(w, err, http.StatusBadRequest)
	case errors.Is(err, faults.ErrForbidden):
		writeError(w, err, http.StatusForbidden)
	case errors.Is(err, faults.ErrNotFound):
		writeError(w, err, http.StatusNotFound)
	case errors.Is(err, faults.ErrConflict):
		writeError(w, err, http.StatusConflict)
	default:
		slog.Error("Unclassified error", "error", err)
		writeError(w, errors.New("internal error"), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, err error, status int) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
