package main

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Simplici0/hagaki/internal/pricing"
)

const maxPriceTableBytes = 1 << 20

type priceTableRevision struct {
	ID        int64  `json:"id"`
	Note      string `json:"note"`
	CreatedAt string `json:"created_at"`
}

type activePriceTable struct {
	Source             string                      `json:"source"`
	PostcardUnitPrice  int                         `json:"postcard_unit_price"`
	InputAssistanceFee int                         `json:"input_assistance_fee"`
	DiscountRates      map[pricing.Discount]string `json:"discount_rates"`
	LeadDays           map[pricing.Plan]int        `json:"lead_days"`
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.auth.SessionsEnabled() {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "admin sessions are disabled: SESSION_SECRET is not set"})
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form"})
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	valid, err := s.auth.ValidateCredentials(r.Context(), email, r.FormValue("password"))
	if err != nil {
		s.logger.Error("validate credentials", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "authentication error"})
		return
	}
	if !valid {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}

	s.auth.SetSessionCookie(w, email)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleActivePriceTable(w http.ResponseWriter, r *http.Request) {
	t := s.engine.Table()
	rates := make(map[pricing.Discount]string, len(t.DiscountRates))
	for d, rate := range t.DiscountRates {
		rates[d] = rate.String()
	}

	writeJSON(w, http.StatusOK, activePriceTable{
		Source:             s.source,
		PostcardUnitPrice:  t.PostcardUnitPrice,
		InputAssistanceFee: t.InputAssistanceFee,
		DiscountRates:      rates,
		LeadDays:           t.LeadDays,
	})
}

func (s *server) handlePriceTablesList(w http.ResponseWriter, r *http.Request) {
	revisions, err := s.tables.List(r.Context())
	if err != nil {
		s.logger.Error("list price tables", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load price tables"})
		return
	}

	out := make([]priceTableRevision, 0, len(revisions))
	for _, rev := range revisions {
		out = append(out, priceTableRevision{ID: rev.ID, Note: rev.Note, CreatedAt: rev.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

// handlePriceTablesImport stores a new revision. The running engine keeps
// its table; the revision is picked up on the next start.
func (s *server) handlePriceTablesImport(w http.ResponseWriter, r *http.Request) {
	document, err := io.ReadAll(io.LimitReader(r.Body, maxPriceTableBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read body"})
		return
	}

	id, err := s.tables.Import(r.Context(), document, r.URL.Query().Get("note"))
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidTable) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
		s.logger.Error("import price table", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to store price table"})
		return
	}

	s.logger.Info("price table revision stored", zap.Int64("id", id))
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}
