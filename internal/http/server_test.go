package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gastos/internal/core"
	"gastos/internal/ledger"
	"gastos/internal/store/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()

	st := memory.New()
	if err := st.Settings().Update(context.Background(), core.Settings{
		ID:               core.SettingsID,
		MonthlyAllowance: core.Money{Cents: 20000},
		OCRThreshold:     70,
	}); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	l := ledger.New(st, st.Settings(), nil, nil)
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("load ledger: %v", err)
	}

	srv := NewServer(":0", l, st, 50)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return ts, st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func submitMovement(t *testing.T, base, amount, description string) movementJSON {
	t.Helper()

	resp := postJSON(t, base+"/api/entry", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("begin entry status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, base+"/api/entry/submit", map[string]string{
		"amount":      amount,
		"description": description,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status = %d", resp.StatusCode)
	}
	return decode[movementJSON](t, resp)
}

func TestHealthEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, resp.StatusCode)
		}
	}
}

func TestEntryFlowAndSummary(t *testing.T) {
	ts, _ := newTestServer(t)

	m := submitMovement(t, ts.URL, "80,00", "groceries")
	if m.AmountCents != 8000 {
		t.Fatalf("AmountCents = %d; want 8000", m.AmountCents)
	}
	if m.Origin != "manual" {
		t.Fatalf("Origin = %q; want manual", m.Origin)
	}
	if m.OCRConfidence != nil {
		t.Fatal("manual movement must not carry OCR confidence")
	}

	submitMovement(t, ts.URL, "30.00", "fuel")

	resp, err := http.Get(ts.URL + "/api/summary")
	if err != nil {
		t.Fatalf("GET summary: %v", err)
	}
	sum := decode[summaryJSON](t, resp)
	if sum.TotalCents != 11000 {
		t.Fatalf("TotalCents = %d; want 11000", sum.TotalCents)
	}
	if sum.RemainingCents != 9000 {
		t.Fatalf("RemainingCents = %d; want 9000", sum.RemainingCents)
	}
	if sum.Percentage != 45 {
		t.Fatalf("Percentage = %v; want 45", sum.Percentage)
	}
}

func TestSubmitRejectsBadAmount(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/entry", nil)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/entry/submit", map[string]string{
		"amount":      "abc",
		"description": "broken",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d; want 422", resp.StatusCode)
	}
	body := decode[errorResponse](t, resp)
	if body.Code != ledger.CodeValidation {
		t.Fatalf("Code = %q; want %q", body.Code, ledger.CodeValidation)
	}

	// The entry survives the rejection and can be corrected.
	resp = postJSON(t, ts.URL+"/api/entry/submit", map[string]string{
		"amount":      "12,50",
		"description": "fixed",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("corrected submit status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSubmitWithoutEntryConflicts(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/entry/submit", map[string]string{
		"amount":      "10,00",
		"description": "orphan",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d; want 409", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTwoPhaseDelete(t *testing.T) {
	ts, _ := newTestServer(t)

	m := submitMovement(t, ts.URL, "15,00", "doomed")

	// Cancelled request leaves the movement in place.
	resp := postJSON(t, ts.URL+"/api/movements/delete", map[string]int64{"id": m.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete request status = %d", resp.StatusCode)
	}
	resp.Body.Close()
	resp = postJSON(t, ts.URL+"/api/movements/delete/cancel", nil)
	resp.Body.Close()

	resp, _ = http.Get(ts.URL + "/api/movements")
	if got := decode[[]movementJSON](t, resp); len(got) != 1 {
		t.Fatalf("movements after cancelled delete = %d; want 1", len(got))
	}

	// Confirmed request removes it.
	resp = postJSON(t, ts.URL+"/api/movements/delete", map[string]int64{"id": m.ID})
	resp.Body.Close()
	resp = postJSON(t, ts.URL+"/api/movements/delete/confirm", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete confirm status = %d", resp.StatusCode)
	}
	sum := decode[summaryJSON](t, resp)
	if sum.TotalCents != 0 {
		t.Fatalf("TotalCents after delete = %d; want 0", sum.TotalCents)
	}
}

func TestConfirmWithoutPendingDelete(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/movements/delete/confirm", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d; want 409", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSettingsRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", bytes.NewBufferString(
		`{"monthlyAllowanceCents":50000,"ocrThreshold":85}`))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT settings: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT settings status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/settings")
	if err != nil {
		t.Fatalf("GET settings: %v", err)
	}
	got := decode[settingsJSON](t, resp)
	if got.MonthlyAllowanceCents != 50000 || got.OCRThreshold != 85 {
		t.Fatalf("settings = %+v; want 50000/85", got)
	}
}

func TestSelectMonthRejectsBadKey(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/month", map[string]string{"month": "2026/01"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d; want 422", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHistoryReflectsWrites(t *testing.T) {
	ts, _ := newTestServer(t)

	// Warm the cache with the empty history first.
	resp, _ := http.Get(ts.URL + "/api/history")
	if got := decode[[]monthGroupJSON](t, resp); len(got) != 0 {
		t.Fatalf("history before writes = %d groups; want 0", len(got))
	}

	submitMovement(t, ts.URL, "9,99", "snack")

	// The write must purge the cached response.
	resp, _ = http.Get(ts.URL + "/api/history")
	got := decode[[]monthGroupJSON](t, resp)
	if len(got) != 1 || len(got[0].Movements) != 1 {
		t.Fatalf("history after write = %+v; want one group with one movement", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/entry/submit")
	if err != nil {
		t.Fatalf("GET submit: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d; want 405", resp.StatusCode)
	}
	if allow := resp.Header.Get("Allow"); allow != "POST" {
		t.Fatalf("Allow = %q; want POST", allow)
	}
}
