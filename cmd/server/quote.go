package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Simplici0/hagaki/internal/format"
	"github.com/Simplici0/hagaki/internal/pricing"
)

const quantityRequiredMessage = "枚数を入力してください"

var errQuantityTooLarge = fmt.Errorf("枚数は%d枚以内で入力してください", pricing.MaxQuantity)

type planQuote struct {
	Plan       pricing.Plan `json:"plan"`
	Price      int          `json:"price"`
	PriceLabel string       `json:"price_label"`
	Completion string       `json:"completion"`
}

type quoteResponse struct {
	Quantity      int              `json:"quantity"`
	Grade         pricing.Grade    `json:"grade"`
	Finish        pricing.Finish   `json:"finish"`
	Discount      pricing.Discount `json:"discount"`
	UnitBasePrice int              `json:"unit_base_price"`
	Plans         []planQuote      `json:"plans"`
}

type confirmResponse struct {
	PlanName          string       `json:"plan_name"`
	Plan              pricing.Plan `json:"plan"`
	Total             int          `json:"total"`
	TotalLabel        string       `json:"total_label"`
	PostcardCostLabel string       `json:"postcard_cost_label"`
	DMDiscountLabel   string       `json:"dm_discount_label"`
	PrintCostLabel    string       `json:"print_cost_label"`
	Completion        string       `json:"completion"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	in, err := parseQuoteForm(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	quote := s.engine.Compute(in)
	finish := pricing.NormalizeFinish(in.Finish)
	today := s.now()

	resp := quoteResponse{
		Quantity:      quote.Quantity,
		Grade:         pricing.NormalizeGrade(in.Grade),
		Finish:        finish,
		Discount:      pricing.NormalizeDiscount(in.Discount),
		UnitBasePrice: quote.UnitBasePrice,
	}
	for _, plan := range pricing.VisiblePlans(finish) {
		price := quote.Price(plan)
		resp.Plans = append(resp.Plans, planQuote{
			Plan:       plan,
			Price:      price,
			PriceLabel: format.Yen(price),
			Completion: s.engine.CompletionDate(string(plan), today),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleQuoteConfirm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form"})
		return
	}

	in, err := parseQuoteForm(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	if in.Quantity == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: quantityRequiredMessage})
		return
	}

	planName := strings.TrimSpace(r.FormValue("plan"))
	plan := pricing.NormalizePlan(planName)
	if finish := pricing.NormalizeFinish(in.Finish); !pricing.PlanOffered(finish, plan) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: fmt.Sprintf("plan %q is not offered for the %s finish", plan, finish)})
		return
	}
	b := s.engine.Compute(in).Breakdown(plan)

	dmLabel := format.Yen(0)
	if b.DMDiscount > 0 {
		dmLabel = format.Yen(-b.DMDiscount)
	}

	s.logger.Info("quote confirmed",
		zap.String("plan", string(plan)),
		zap.Int("quantity", in.Quantity),
		zap.Int("total", b.Total),
	)

	writeJSON(w, http.StatusOK, confirmResponse{
		PlanName:          planName,
		Plan:              plan,
		Total:             b.Total,
		TotalLabel:        format.Yen(b.Total),
		PostcardCostLabel: format.Yen(b.PostcardCost),
		DMDiscountLabel:   dmLabel,
		PrintCostLabel:    format.Yen(b.PrintCost),
		Completion:        s.engine.CompletionDate(planName, s.now()),
	})
}

func (s *server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("plan")
	writeJSON(w, http.StatusOK, map[string]string{
		"plan":       string(pricing.NormalizePlan(label)),
		"completion": s.engine.CompletionDate(label, s.now()),
	})
}

// parseQuoteForm reads quote inputs from the query string or a parsed form.
func parseQuoteForm(r *http.Request) (pricing.RawInput, error) {
	quantity, err := parseQuantity(r.FormValue("quantity"))
	if err != nil {
		return pricing.RawInput{}, err
	}
	return pricing.RawInput{
		Quantity:         quantity,
		Grade:            r.FormValue("grade"),
		Finish:           r.FormValue("finish"),
		Discount:         r.FormValue("discount"),
		BringOwnPostcard: parseCheckbox(r.FormValue("own_stock")),
		DMCoupon:         parseCheckbox(r.FormValue("dm")),
		InputAssistance:  parseCheckbox(r.FormValue("assist")),
	}, nil
}

// parseQuantity reads the leading digits of raw, so "60枚" is 60.
// Anything without leading digits is 0. Orders above pricing.MaxQuantity
// are rejected.
func parseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(raw[:end])
	if err != nil || n > pricing.MaxQuantity {
		return 0, errQuantityTooLarge
	}
	return n, nil
}

func parseCheckbox(raw string) bool {
	if strings.EqualFold(strings.TrimSpace(raw), "on") {
		return true
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
