package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Simplici0/hagaki/internal/auth"
	"github.com/Simplici0/hagaki/internal/db"
	"github.com/Simplici0/hagaki/internal/migrations"
	"github.com/Simplici0/hagaki/internal/pricetables"
	"github.com/Simplici0/hagaki/internal/pricing"
	"github.com/Simplici0/hagaki/internal/seed"
)

const (
	testAdminEmail    = "admin@hagaki.example"
	testAdminPassword = "12345"
)

func newTestServer(t *testing.T) *server {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, err = migrations.Up(ctx, database)
	require.NoError(t, err)
	_, err = seed.Run(ctx, database, seed.Config{AdminEmail: testAdminEmail, AdminPassword: testAdminPassword})
	require.NoError(t, err)

	tables := pricetables.NewStore(database)
	table, rev, err := tables.LoadTable(ctx)
	require.NoError(t, err)

	today := time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)
	return &server{
		engine: pricing.NewEngine(table),
		source: "revision:" + strconv.FormatInt(rev.ID, 10),
		tables: tables,
		auth:   auth.NewService(database, "test-secret"),
		logger: zap.NewNop(),
		now:    func() time.Time { return today },
	}
}

func TestParseQuantity(t *testing.T) {
	tests := map[string]int{
		"":       0,
		"abc":    0,
		"60":     60,
		" 60 ":   60,
		"60枚":    60,
		"-5":     0,
		"1e3":    1,
		"100000": 100000,
	}
	for raw, want := range tests {
		got, err := parseQuantity(raw)
		require.NoError(t, err, "parseQuantity(%q)", raw)
		require.Equal(t, want, got, "parseQuantity(%q)", raw)
	}

	for _, raw := range []string{"100001", "999999999999999999999"} {
		_, err := parseQuantity(raw)
		require.ErrorIs(t, err, errQuantityTooLarge, "parseQuantity(%q)", raw)
	}
}

func TestHandleQuoteRejectsOversizedQuantity(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/quote?quantity=123456789012345678", nil)
	rr := httptest.NewRecorder()
	srv.routes().ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "100000")
}

func TestHandleQuoteConfirmRejectsHiddenPlan(t *testing.T) {
	srv := newTestServer(t)

	for _, plan := range []string{"まるなげプラン", "宛名印刷プラン"} {
		form := url.Values{"quantity": {"20"}, "finish": {"写真仕上げ"}, "plan": {plan}}
		req := httptest.NewRequest(http.MethodPost, "/api/quote/confirm", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		srv.routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusUnprocessableEntity, rr.Code, plan)
		require.Contains(t, rr.Body.String(), "not offered", plan)
	}
}

func TestHandleQuoteReturnsVisiblePlans(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/quote?"+url.Values{
		"quantity": {"60"},
		"grade":    {"スタンダード"},
		"finish":   {"印刷"},
		"discount": {"通常"},
	}.Encode(), nil)
	rr := httptest.NewRecorder()
	srv.routes().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp quoteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	require.Equal(t, 60, resp.Quantity)
	require.Equal(t, pricing.FinishPrint, resp.Finish)
	require.Len(t, resp.Plans, 4)
	require.Equal(t, pricing.PlanSelf, resp.Plans[0].Plan)
	require.Equal(t, 6550+60*85, resp.Plans[0].Price)
	require.Equal(t, "¥11,650", resp.Plans[0].PriceLabel)
	require.Equal(t, pricing.SameDayLabel, resp.Plans[1].Completion)
	require.Equal(t, "10/22 (木)", resp.Plans[3].Completion)
}

func TestHandleQuotePhotoHidesPlans(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/quote?"+url.Values{
		"quantity": {"10"},
		"finish":   {"写真仕上げ"},
	}.Encode(), nil)
	rr := httptest.NewRecorder()
	srv.routes().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp quoteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Plans, 2)
	require.Equal(t, pricing.PlanOmakase, resp.Plans[1].Plan)
}

func TestHandleQuoteConfirmRequiresQuantity(t *testing.T) {
	srv := newTestServer(t)

	form := url.Values{"quantity": {"abc"}, "plan": {"まるなげプラン"}}
	req := httptest.NewRequest(http.MethodPost, "/api/quote/confirm", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	srv.routes().ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), quantityRequiredMessage)
}

func TestHandleQuoteConfirmReturnsBreakdown(t *testing.T) {
	srv := newTestServer(t)

	form := url.Values{
		"quantity": {"20"},
		"grade":    {"スタンダード"},
		"dm":       {"on"},
		"plan":     {"宛名印刷プラン"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/quote/confirm", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	srv.routes().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp confirmResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	require.Equal(t, pricing.PlanFast, resp.Plan)
	require.Equal(t, 4200+20*85-300+1480, resp.Total)
	require.Equal(t, "¥1,700", resp.PostcardCostLabel)
	require.Equal(t, "¥-300", resp.DMDiscountLabel)
	require.Equal(t, "¥5,680", resp.PrintCostLabel)
	require.Equal(t, pricing.SameDayLabel, resp.Completion)
}

func TestHandleCompletion(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/completion?plan="+url.QueryEscape("のんびりおまかせ"), nil)
	rr := httptest.NewRecorder()
	srv.routes().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"plan":"omakase","completion":"10/19 (月)"}`, rr.Body.String())
}
