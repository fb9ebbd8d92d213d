package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/guhrizzo/my-wallet/internal/core"
	"github.com/guhrizzo/my-wallet/internal/ledger"
	"github.com/guhrizzo/my-wallet/internal/log"
)

type transactionJSON struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	OccurredAt  string `json:"occurred_at"`
}

type totalsJSON struct {
	IncomeCents  int64  `json:"income_cents"`
	ExpenseCents int64  `json:"expense_cents"`
	BalanceCents int64  `json:"balance_cents"`
	Income       string `json:"income"`
	Expense      string `json:"expense"`
	Balance      string `json:"balance"`
}

type seriesPointJSON struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	NetCents int64  `json:"net_cents"`
	Net      string `json:"net"`
}

type createTransactionRequest struct {
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	// Raw keystrokes from the masked amount field. Used when AmountCents is
	// absent so the server applies the same digits-as-cents rule the client
	// shows while typing.
	AmountDigits string `json:"amount_digits,omitempty"`
	Type         string `json:"type"`
}

func (s *Server) transactionView(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		Description: t.Description,
		AmountCents: t.Amount.Cents,
		Amount:      s.formatter.Display(t.Amount),
		Type:        string(t.Type),
		OccurredAt:  t.OccurredAt.Format(time.RFC3339),
	}
}

func (s *Server) totalsView(totals core.AggregateTotals) totalsJSON {
	return totalsJSON{
		IncomeCents:  totals.Income.Cents,
		ExpenseCents: totals.Expense.Cents,
		BalanceCents: totals.Balance.Cents,
		Income:       s.formatter.Display(totals.Income),
		Expense:      s.formatter.Display(totals.Expense),
		Balance:      s.formatter.Display(totals.Balance),
	}
}

// monthPayload is the full dashboard state for one month: the transaction
// list, the totals cards and the chart series. GET and the live stream emit
// the same shape so the client renders both the same way.
func (s *Server) monthPayload(txs []core.Transaction, year int, month time.Month) map[string]any {
	views := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		views = append(views, s.transactionView(t))
	}

	series := core.MonthlySeries(txs)
	points := make([]seriesPointJSON, 0, len(series))
	for _, p := range series {
		points = append(points, seriesPointJSON{
			Year:     p.Year,
			Month:    int(p.Month),
			NetCents: p.Net.Cents,
			Net:      s.formatter.Format(p.Net),
		})
	}

	return map[string]any{
		"year":         year,
		"month":        int(month),
		"transactions": views,
		"totals":       s.totalsView(core.Sum(txs)),
		"series":       points,
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	claims, err := s.sessionClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Sessão expirada ou inexistente.")
		return
	}

	year, month := parseYearMonth(r)
	txs, err := s.service.ListMonth(r.Context(), claims.Subject, year, month)
	if err != nil {
		s.events.LogError(r.Context(), "Transaction list failed", err, log.ComponentLedger, log.OpList,
			log.NewFields().WithOwner(claims.Subject).WithPeriod(year, int(month)))
		writeError(w, http.StatusInternalServerError, "Erro ao carregar transações.")
		return
	}

	writeJSON(w, http.StatusOK, s.monthPayload(txs, year, month))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	claims, err := s.sessionClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Sessão expirada ou inexistente.")
		return
	}

	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Formato de requisição inválido.")
		return
	}

	amount := core.Money{Cents: req.AmountCents}
	if req.AmountCents == 0 && req.AmountDigits != "" {
		amount = core.ParseDigits(req.AmountDigits)
	}

	tx := core.Transaction{
		OwnerID:     claims.Subject,
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Type:        core.TransactionType(req.Type),
	}
	if err := tx.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}

	created, err := s.service.Create(r.Context(), tx)
	if err != nil {
		s.events.LogError(r.Context(), "Transaction create failed", err, log.ComponentLedger, log.OpCreate,
			log.NewFields().WithOwner(claims.Subject))
		writeError(w, http.StatusInternalServerError, "Erro ao salvar transação.")
		return
	}

	s.events.LogTransactionCreated(r.Context(), created.ID, created.OwnerID,
		created.Description, created.Amount.Cents, string(created.Type))
	writeJSON(w, http.StatusCreated, s.transactionView(created))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	claims, err := s.sessionClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Sessão expirada ou inexistente.")
		return
	}

	id := r.PathValue("id")
	if err := s.service.Delete(r.Context(), claims.Subject, id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Transação não encontrada.")
			return
		}
		s.events.LogError(r.Context(), "Transaction delete failed", err, log.ComponentLedger, log.OpDelete,
			log.NewFields().WithOwner(claims.Subject).WithTransactionID(id))
		writeError(w, http.StatusInternalServerError, "Erro ao excluir transação.")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyDescription):
		return "Informe uma descrição."
	case errors.Is(err, core.ErrInvalidAmount):
		return "Informe um valor maior que zero."
	case errors.Is(err, core.ErrInvalidType):
		return "Tipo de transação inválido."
	default:
		return "Dados inválidos."
	}
}
