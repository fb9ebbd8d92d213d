package http

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/guhrizzo/my-wallet/internal/auth"
	"github.com/guhrizzo/my-wallet/internal/feed"
	"github.com/guhrizzo/my-wallet/internal/ledger/memory"
	"github.com/guhrizzo/my-wallet/internal/services"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := memory.New()
	hub := feed.NewHub(store)
	svc := services.NewTransactionService(store, hub, nil)
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	srv := NewServer(Options{
		Addr:       ":0",
		Currency:   "BRL",
		SessionTTL: time.Hour,
	}, svc, hub, memory.NewUserStore(), tokens)
	t.Cleanup(func() { srv.limiter.Stop() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("response has no session cookie")
	return nil
}

func registerUser(t *testing.T, srv *Server, email string) *http.Cookie {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/api/register",
		credentialsRequest{Email: email, Password: "long-enough-pw"}, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rr.Code, rr.Body.String())
	}
	return sessionCookie(t, rr)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "ana@example.com")

	// Duplicate email
	rr := doJSON(t, srv, http.MethodPost, "/api/register",
		credentialsRequest{Email: "ana@example.com", Password: "long-enough-pw"}, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", rr.Code)
	}

	// Wrong password and unknown email produce the same message.
	for _, req := range []credentialsRequest{
		{Email: "ana@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "long-enough-pw"},
	} {
		rr := doJSON(t, srv, http.MethodPost, "/api/login", req, nil)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("login status = %d, want 401", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), msgBadCredentials) {
			t.Fatalf("login body = %s, want %q", rr.Body.String(), msgBadCredentials)
		}
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/login",
		credentialsRequest{Email: "ana@example.com", Password: "long-enough-pw"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rr.Code, rr.Body.String())
	}
	sessionCookie(t, rr)
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		req  credentialsRequest
	}{
		{"missing at sign", credentialsRequest{Email: "not-an-email", Password: "long-enough-pw"}},
		{"empty email", credentialsRequest{Email: "  ", Password: "long-enough-pw"}},
		{"short password", credentialsRequest{Email: "ana@example.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/api/register", tt.req, nil)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rr.Code)
			}
		})
	}
}

func TestSessionEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/api/session", nil, nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "unauthenticated") {
		t.Fatalf("anonymous session = %d %s, want unauthenticated", rr.Code, rr.Body.String())
	}

	cookie := registerUser(t, srv, "ana@example.com")
	rr = doJSON(t, srv, http.MethodGet, "/api/session", nil, cookie)
	var resp struct {
		Status string       `json:"status"`
		User   userResponse `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}
	if resp.Status != "authenticated" || resp.User.Email != "ana@example.com" {
		t.Fatalf("session = %+v, want authenticated ana@example.com", resp)
	}

	// Garbage cookie resolves to unauthenticated, not an error.
	rr = doJSON(t, srv, http.MethodGet, "/api/session", nil,
		&http.Cookie{Name: sessionCookieName, Value: "garbage"})
	if !strings.Contains(rr.Body.String(), "unauthenticated") {
		t.Fatalf("garbage cookie session = %s, want unauthenticated", rr.Body.String())
	}
}

func TestIndexPageSwitchesOnSession(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/", nil, nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "auth-form") {
		t.Fatalf("anonymous index = %d, want login page", rr.Code)
	}

	cookie := registerUser(t, srv, "ana@example.com")
	rr = doJSON(t, srv, http.MethodGet, "/", nil, cookie)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "transaction-form") {
		t.Fatalf("authenticated index = %d, want dashboard page", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "ana@example.com") {
		t.Fatal("dashboard should show the signed-in email")
	}
}

type monthResponse struct {
	Transactions []transactionJSON `json:"transactions"`
	Totals       totalsJSON        `json:"totals"`
	Series       []seriesPointJSON `json:"series"`
}

func TestTransactionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	// Unauthenticated writes are refused.
	rr := doJSON(t, srv, http.MethodPost, "/api/transactions",
		createTransactionRequest{Description: "x", AmountCents: 100, Type: "income"}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create = %d, want 401", rr.Code)
	}

	cookie := registerUser(t, srv, "ana@example.com")

	var firstID string
	for _, tx := range []createTransactionRequest{
		{Description: "Salário", AmountCents: 10000, Type: "income"},
		{Description: "Mercado", AmountCents: 4000, Type: "expense"},
		{Description: "Freela", AmountCents: 1000, Type: "income"},
	} {
		rr := doJSON(t, srv, http.MethodPost, "/api/transactions", tx, cookie)
		if rr.Code != http.StatusCreated {
			t.Fatalf("create %q = %d, body = %s", tx.Description, rr.Code, rr.Body.String())
		}
		if firstID == "" {
			var created transactionJSON
			if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
				t.Fatalf("unmarshal created: %v", err)
			}
			firstID = created.ID
		}
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/transactions", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("list = %d, body = %s", rr.Code, rr.Body.String())
	}
	var month monthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &month); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(month.Transactions) != 3 {
		t.Fatalf("listed %d transactions, want 3", len(month.Transactions))
	}
	if month.Totals.IncomeCents != 11000 || month.Totals.ExpenseCents != 4000 || month.Totals.BalanceCents != 7000 {
		t.Fatalf("totals = %+v, want income 11000 expense 4000 balance 7000", month.Totals)
	}
	if len(month.Series) != 1 || month.Series[0].NetCents != 7000 {
		t.Fatalf("series = %+v, want one bucket with net 7000", month.Series)
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/transactions/"+firstID, nil, cookie)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete = %d, want 204", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodDelete, "/api/transactions/"+firstID, nil, cookie)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("repeat delete = %d, want 404", rr.Code)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(t)
	cookie := registerUser(t, srv, "ana@example.com")

	tests := []struct {
		name string
		req  createTransactionRequest
	}{
		{"blank description", createTransactionRequest{Description: "   ", AmountCents: 100, Type: "income"}},
		{"zero amount", createTransactionRequest{Description: "luz", AmountCents: 0, Type: "expense"}},
		{"negative amount", createTransactionRequest{Description: "luz", AmountCents: -10, Type: "expense"}},
		{"bad type", createTransactionRequest{Description: "luz", AmountCents: 100, Type: "transfer"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/api/transactions", tt.req, cookie)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, body = %s, want 422", rr.Code, rr.Body.String())
			}
		})
	}

	// Nothing was stored.
	rr := doJSON(t, srv, http.MethodGet, "/api/transactions", nil, cookie)
	var month monthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &month); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(month.Transactions) != 0 {
		t.Fatalf("store has %d transactions after rejected creates, want 0", len(month.Transactions))
	}
}

func TestCreateTransactionFromDigits(t *testing.T) {
	srv := newTestServer(t)
	cookie := registerUser(t, srv, "ana@example.com")

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions",
		createTransactionRequest{Description: "aluguel", AmountDigits: "123456", Type: "expense"}, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", rr.Code, rr.Body.String())
	}
	var created transactionJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal created: %v", err)
	}
	if created.AmountCents != 123456 {
		t.Fatalf("amount_cents = %d, want 123456", created.AmountCents)
	}
	if created.Amount != "R$1.234,56" {
		t.Fatalf("amount = %q, want R$1.234,56", created.Amount)
	}
}

func TestStreamRequiresSession(t *testing.T) {
	srv := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/api/stream", nil, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous stream = %d, want 401", rr.Code)
	}
}

// streamLines feeds the SSE body line by line through a channel so reads can
// be bounded by a deadline.
func streamLines(body io.Reader) chan string {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lines := make(chan string, 64)
	go func() {
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()
	return lines
}

// readSnapshot reads SSE lines until one full snapshot event arrives.
func readSnapshot(t *testing.T, lines chan string) monthResponse {
	t.Helper()
	deadline := time.After(5 * time.Second)

	inSnapshot := false
	for {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for snapshot event")
		case line, ok := <-lines:
			if !ok {
				t.Fatal("stream closed before snapshot")
			}
			if line == "event: snapshot" {
				inSnapshot = true
				continue
			}
			if inSnapshot && strings.HasPrefix(line, "data: ") {
				var month monthResponse
				if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &month); err != nil {
					t.Fatalf("unmarshal snapshot: %v", err)
				}
				return month
			}
		}
	}
}

func TestStreamDeliversSnapshots(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	rr := doJSON(t, srv, http.MethodPost, "/api/register",
		credentialsRequest{Email: "ana@example.com", Password: "long-enough-pw"}, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register = %d", rr.Code)
	}
	cookie := sessionCookie(t, rr)

	now := time.Now().UTC()
	req, err := http.NewRequest(http.MethodGet,
		fmt.Sprintf("%s/api/stream?year=%d&month=%d", ts.URL, now.Year(), int(now.Month())), nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream status = %d, want 200", resp.StatusCode)
	}

	lines := streamLines(resp.Body)

	initial := readSnapshot(t, lines)
	if len(initial.Transactions) != 0 {
		t.Fatalf("initial snapshot has %d transactions, want 0", len(initial.Transactions))
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/transactions",
		createTransactionRequest{Description: "Salário", AmountCents: 500000, Type: "income"}, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", rr.Code, rr.Body.String())
	}

	update := readSnapshot(t, lines)
	if len(update.Transactions) != 1 || update.Transactions[0].Description != "Salário" {
		t.Fatalf("update snapshot = %+v, want the created transaction", update.Transactions)
	}
	if update.Totals.BalanceCents != 500000 {
		t.Fatalf("update balance = %d, want 500000", update.Totals.BalanceCents)
	}
}
