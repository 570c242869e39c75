package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"backoffice/internal/app"
	"backoffice/internal/core"
	"backoffice/internal/logger"
)

const testSecret = "test-secret-test-secret-test-secret"

func init() {
	logger.Discard()
}

// stubService implements the calls these tests exercise; anything else panics
// through the nil embedded interface.
type stubService struct {
	app.ApplicationService

	gotPrincipal core.Principal
	gotOrder     *app.OrderRequest
	placeErr     error
}

func (s *stubService) AuthenticateUser(_ context.Context, req app.LoginRequest) (*app.UserSession, error) {
	if req.Username != "acme" || req.Password != "secret-pass" {
		return nil, fmt.Errorf("invalid credentials")
	}
	supplierID := 11
	return &app.UserSession{UserID: 3, Username: "acme", Role: core.RoleSupplier, SupplierID: &supplierID}, nil
}

func (s *stubService) GetUser(_ context.Context, id int) (*core.User, error) {
	return &core.User{ID: id, Username: "acme", Email: "acme@example.com", Role: core.RoleSupplier, IsActive: true}, nil
}

func (s *stubService) ListPurchaseOrders(_ context.Context, p core.Principal, req app.POListRequest) (*core.POPage, error) {
	s.gotPrincipal = p
	return &core.POPage{Page: req.Page, PageSize: req.PageSize}, nil
}

func (s *stubService) PlaceOrder(_ context.Context, p core.Principal, req app.OrderRequest) (*app.OrderResult, error) {
	s.gotPrincipal = p
	s.gotOrder = &req
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	return &app.OrderResult{Order: &core.Order{ID: 1}, Totals: app.OrderTotals{Quantity: 3}}, nil
}

func (s *stubService) GetOrder(_ context.Context, _ core.Principal, id int) (*app.OrderResult, error) {
	return nil, fmt.Errorf("%w: order %d", core.ErrNotFound, id)
}

func newTestServer(svc app.ApplicationService) http.Handler {
	return NewHandler(svc, Options{JWTSecret: testSecret, TokenTTL: time.Hour, RequestBodyLimit: 256})
}

func staffToken(t *testing.T) string {
	t.Helper()
	h := &Handler{opts: Options{JWTSecret: testSecret, TokenTTL: time.Hour}}
	tok, err := h.signToken(&app.UserSession{UserID: 2, Username: "staff", Role: core.RoleStaff})
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}
	return tok
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(&stubService{}), http.MethodGet, "/api/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	srv := newTestServer(&stubService{})

	rec := do(t, srv, http.MethodGet, "/api/orders", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}
	rec = do(t, srv, http.MethodGet, "/api/orders", "", "not-a-jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}

	other := &Handler{opts: Options{JWTSecret: "another-secret", TokenTTL: time.Hour}}
	forged, _ := other.signToken(&app.UserSession{UserID: 1, Username: "admin", Role: core.RoleAdmin})
	rec = do(t, srv, http.MethodGet, "/api/orders", "", forged)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("foreign signature: status = %d, want 401", rec.Code)
	}
}

func TestLogin_CookieCarriesSupplierPrincipal(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(svc)

	rec := do(t, srv, http.MethodPost, "/api/auth/login", `{"username":"acme","password":"secret-pass"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body)
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == authCookie {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("auth cookie = %+v, want an HttpOnly cookie", cookie)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/purchase-orders?page=2&page_size=10", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %s", rec.Code, rec.Body)
	}
	p := svc.gotPrincipal
	if p.Role != core.RoleSupplier || p.SupplierID == nil || *p.SupplierID != 11 {
		t.Errorf("principal = %+v, want supplier 11", p)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	rec := do(t, newTestServer(&stubService{}), http.MethodPost, "/api/auth/login", `{"username":"acme","password":"nope"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestPlaceOrder_InsufficientStockListsShortfalls(t *testing.T) {
	svc := &stubService{placeErr: &core.InsufficientStockError{Shortfalls: []core.StockShortfall{
		{InventoryItemID: 4, ProductName: "Widget", SKU: "W-1", Unit: "piece", Available: 2, Requested: 5, Deficit: 3},
	}}}
	rec := do(t, newTestServer(svc), http.MethodPost, "/api/orders",
		`{"customer":{"name":"Jane"},"lines":[{"inventory_item_id":4,"quantity":5}]}`, staffToken(t))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Code != "INSUFFICIENT_STOCK" || len(resp.Shortfalls) != 1 || resp.Shortfalls[0].Deficit != 3 {
		t.Errorf("response = %+v", resp)
	}
	if svc.gotOrder == nil || svc.gotOrder.Lines[0].Quantity != 5 {
		t.Errorf("order request = %+v", svc.gotOrder)
	}
	if svc.gotPrincipal.Role != core.RoleStaff {
		t.Errorf("principal role = %q, want staff", svc.gotPrincipal.Role)
	}
}

func TestPlaceOrder_Created(t *testing.T) {
	rec := do(t, newTestServer(&stubService{}), http.MethodPost, "/api/orders",
		`{"customer":{"name":"Jane"},"lines":[{"inventory_item_id":4,"quantity":3}]}`, staffToken(t))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var res app.OrderResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Totals.Quantity != 3 {
		t.Errorf("totals = %+v", res.Totals)
	}
}

func TestRequestValidation(t *testing.T) {
	srv := newTestServer(&stubService{})
	tok := staffToken(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed body", http.MethodPost, "/api/orders", `{"customer":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"oversized body", http.MethodPost, "/api/orders", `{"customer":{"name":"` + strings.Repeat("x", 400) + `"}}`, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE"},
		{"non-numeric id", http.MethodGet, "/api/orders/abc", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"bad query int", http.MethodGet, "/api/purchase-orders?page=two", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"missing order", http.MethodGet, "/api/orders/42", "", http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, tt.body, tok)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
			if resp := decodeError(t, rec); resp.Code != tt.code || resp.RequestID == "" {
				t.Errorf("response = %+v, want code %s with request id", resp, tt.code)
			}
		})
	}
}

func TestSchemaEndpoint(t *testing.T) {
	srv := newTestServer(&stubService{})

	rec := do(t, srv, http.MethodGet, "/api/schemas/order", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var schema map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&schema); err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	if _, ok := schema["properties"]; !ok {
		t.Errorf("schema has no properties: %v", schema)
	}

	rec = do(t, srv, http.MethodGet, "/api/schemas/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown schema status = %d, want 404", rec.Code)
	}
}
