package http

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"gastos/internal/core"
	"gastos/internal/ledger"
)

// View types returned by the API. Cents stay cents on the wire; the
// client decides how to render them.
type (
	movementJSON struct {
		ID            int64  `json:"id"`
		CreatedAt     string `json:"createdAt"`
		Month         string `json:"month"`
		AmountCents   int64  `json:"amountCents"`
		Description   string `json:"description"`
		Origin        string `json:"origin"`
		OCRConfidence *int   `json:"ocrConfidence,omitempty"`
	}

	summaryJSON struct {
		Month          string  `json:"month"`
		TotalCents     int64   `json:"totalCents"`
		RemainingCents int64   `json:"remainingCents"`
		Percentage     float64 `json:"percentage"`
		Overspent      bool    `json:"overspent"`
	}

	settingsJSON struct {
		MonthlyAllowanceCents int64 `json:"monthlyAllowanceCents"`
		OCRThreshold          int   `json:"ocrThreshold"`
	}

	monthGroupJSON struct {
		Month     string         `json:"month"`
		Movements []movementJSON `json:"movements"`
	}

	reviewJSON struct {
		AmountCents   int64 `json:"amountCents"`
		Confidence    int   `json:"confidence"`
		AutoApply     bool  `json:"autoApply"`
		LowConfidence bool  `json:"lowConfidence"`
	}

	entryStateJSON struct {
		State string `json:"state"`
	}

	auditEntryJSON struct {
		ID          int64  `json:"id"`
		EventType   string `json:"eventType"`
		MovementID  int64  `json:"movementId"`
		Month       string `json:"month"`
		AmountCents int64  `json:"amountCents"`
		Origin      string `json:"origin"`
		OccurredAt  string `json:"occurredAt"`
	}
)

func toMovementJSON(m core.Movement) movementJSON {
	return movementJSON{
		ID:            m.ID,
		CreatedAt:     m.CreatedAt.UTC().Format(time.RFC3339),
		Month:         string(m.Month),
		AmountCents:   m.Amount.Cents,
		Description:   m.Description,
		Origin:        string(m.Origin),
		OCRConfidence: m.OCRConfidence,
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	sum := s.ledger.Summary()
	writeJSON(w, http.StatusOK, summaryJSON{
		Month:          string(sum.Month),
		TotalCents:     sum.TotalSpent.Cents,
		RemainingCents: sum.Remaining.Cents,
		Percentage:     sum.Percentage,
		Overspent:      sum.Overspent(),
	})
}

func (s *Server) handleMovements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	movements := s.ledger.Movements()
	out := make([]movementJSON, 0, len(movements))
	for _, m := range movements {
		out = append(out, toMovementJSON(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	const key = "history"
	if groups, found := s.historyCache.Get(key); found {
		slog.DebugContext(r.Context(), "History cache hit")
		writeJSON(w, http.StatusOK, groups)
		return
	}

	history := s.ledger.History()
	groups := make([]monthGroupJSON, 0, len(history))
	for _, g := range history {
		mg := monthGroupJSON{Month: string(g.Month), Movements: make([]movementJSON, 0, len(g.Movements))}
		for _, m := range g.Movements {
			mg.Movements = append(mg.Movements, toMovementJSON(m))
		}
		groups = append(groups, mg)
	}

	s.historyCache.Set(key, groups)
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleSelectMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req struct {
		Month string `json:"month"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	month, err := core.ParseMonthKey(req.Month)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    ledger.CodeValidation,
			Message: "invalid month: " + req.Month,
		})
		return
	}

	if err := s.ledger.SelectMonth(r.Context(), month); err != nil {
		writeError(w, err)
		return
	}
	s.handleSummaryAfterWrite(w)
}

// handleEntry starts a new manual entry (POST) or reports the state of
// the current one (GET).
func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, entryStateJSON{State: string(s.ledger.EntryState())})
	case http.MethodPost:
		if err := s.ledger.BeginEntry(); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entryStateJSON{State: string(s.ledger.EntryState())})
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// handleEntryReceipt accepts a raw receipt image and runs it through
// OCR reconciliation for the open entry.
func (s *Server) handleEntryReceipt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	image, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil || len(image) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    ledger.CodeValidation,
			Message: "missing receipt image",
		})
		return
	}

	review, err := s.ledger.CaptureReceipt(r.Context(), image)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reviewJSON{
		AmountCents:   review.AmountCents,
		Confidence:    review.Confidence,
		AutoApply:     review.AutoApply,
		LowConfidence: review.LowConfidence,
	})
}

func (s *Server) handleEntryEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req struct {
		ID int64 `json:"id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	m, err := s.ledger.BeginEdit(req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementJSON(m))
}

func (s *Server) handleEntrySubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req struct {
		Amount      string `json:"amount"`
		Description string `json:"description"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    ledger.CodeValidation,
			Message: "invalid amount: " + req.Amount,
		})
		return
	}

	m, err := s.ledger.SubmitEntry(r.Context(), cents, sanitizeInput(req.Description))
	if err != nil {
		writeError(w, err)
		return
	}

	s.historyCache.Purge()
	writeJSON(w, http.StatusCreated, toMovementJSON(m))
}

func (s *Server) handleEntryCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	s.ledger.CancelEntry()
	writeJSON(w, http.StatusOK, entryStateJSON{State: string(s.ledger.EntryState())})
}

func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req struct {
		ID int64 `json:"id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.ledger.RequestDelete(req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"pendingDelete": req.ID})
}

func (s *Server) handleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	if err := s.ledger.ConfirmDelete(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	s.historyCache.Purge()
	s.handleSummaryAfterWrite(w)
}

func (s *Server) handleDeleteCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	s.ledger.CancelDelete()
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg := s.ledger.Settings()
		writeJSON(w, http.StatusOK, settingsJSON{
			MonthlyAllowanceCents: cfg.MonthlyAllowance.Cents,
			OCRThreshold:          cfg.OCRThreshold,
		})
	case http.MethodPut:
		var req settingsJSON
		if !decodeBody(w, r, &req) {
			return
		}

		next := core.Settings{
			ID:               core.SettingsID,
			MonthlyAllowance: core.Money{Cents: req.MonthlyAllowanceCents},
			OCRThreshold:     req.OCRThreshold,
		}
		if err := s.ledger.UpdateSettings(r.Context(), next); err != nil {
			writeError(w, err)
			return
		}

		s.historyCache.Purge()
		writeJSON(w, http.StatusOK, req)
	default:
		methodNotAllowed(w, "GET, PUT")
	}
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	if s.audit == nil {
		writeJSON(w, http.StatusOK, []auditEntryJSON{})
		return
	}

	entries, err := s.audit.ListAudit(r.Context(), s.auditLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]auditEntryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryJSON{
			ID:          e.ID,
			EventType:   e.EventType,
			MovementID:  e.MovementID,
			Month:       string(e.Month),
			AmountCents: e.AmountCents,
			Origin:      string(e.Origin),
			OccurredAt:  e.OccurredAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSummaryAfterWrite returns the refreshed month summary, the
// payload most clients want right after a mutation.
func (s *Server) handleSummaryAfterWrite(w http.ResponseWriter) {
	sum := s.ledger.Summary()
	writeJSON(w, http.StatusOK, summaryJSON{
		Month:          string(sum.Month),
		TotalCents:     sum.TotalSpent.Cents,
		RemainingCents: sum.Remaining.Cents,
		Percentage:     sum.Percentage,
		Overspent:      sum.Overspent(),
	})
}
