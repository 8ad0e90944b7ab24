package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gnoobs75/vacuum/internal/market/application"
	"github.com/gnoobs75/vacuum/internal/market/domain"
	"github.com/gnoobs75/vacuum/pkg/metrics"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := application.NewMarketService(
		domain.DefaultMarketConfig(), domain.NewRand(42), metrics.New("test"), nil, time.Now)
	svc.Start()
	t.Cleanup(svc.Stop)
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	NewMarketHandler(svc, metrics.New("http_test")).RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListItems(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(t, r, http.MethodGet, "/api/v1/market/items", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data []application.ItemView `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != len(domain.SeedCatalog) {
		t.Errorf("items = %d, want %d", len(resp.Data), len(domain.SeedCatalog))
	}
}

func TestListItemsWithFilters(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(t, r, http.MethodGet, "/api/v1/market/items?category=MINERAL&sort=price", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Data []application.ItemView `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	for _, v := range resp.Data {
		if v.Category != "MINERAL" {
			t.Errorf("category filter leaked %s", v.ItemID)
		}
	}

	w = doRequest(t, r, http.MethodGet, "/api/v1/market/items?min_price=abc", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad min_price should 400, got %d", w.Code)
	}
}

func TestGetItemNotFound(t *testing.T) {
	r := newTestRouter(t)
	w := doRequest(t, r, http.MethodGet, "/api/v1/market/items/unobtanium", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestPlaceAndCancelOrder(t *testing.T) {
	r := newTestRouter(t)

	body := `{"owner_id":"player","item_id":"veldspar","side":"BUY","quantity":5,"price":"7.50","balance":"100"}`
	w := doRequest(t, r, http.MethodPost, "/api/v1/market/orders", body)
	if w.Code != http.StatusOK {
		t.Fatalf("place status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data application.PlaceOrderResult `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Order == nil {
		t.Fatal("response should carry the order")
	}

	w = doRequest(t, r, http.MethodDelete, "/api/v1/market/orders/"+resp.Data.Order.OrderID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestPlaceOrderRejections(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{
			"insufficient funds",
			`{"owner_id":"p","item_id":"veldspar","side":"BUY","quantity":100,"price":"10","balance":"5"}`,
			http.StatusBadRequest,
		},
		{
			"unknown item",
			`{"owner_id":"p","item_id":"unobtanium","side":"BUY","quantity":1,"price":"1","balance":"100"}`,
			http.StatusBadRequest,
		},
		{
			"malformed json",
			`{"owner_id":`,
			http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, r, http.MethodPost, "/api/v1/market/orders", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAccessRuleBlocksOrders(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(t, r, http.MethodPut, "/api/v1/market/access",
		`{"faction_id":"pirates","item_id":"veldspar","min_standing":5,"level":"DENIED"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("set access status = %d", w.Code)
	}

	body := `{"owner_id":"outlaw","item_id":"veldspar","side":"BUY","quantity":1,"price":"8","balance":"100","faction_id":"pirates","standing":10}`
	w = doRequest(t, r, http.MethodPost, "/api/v1/market/orders", body)
	if w.Code != http.StatusForbidden {
		t.Errorf("denied faction should 403, got %d", w.Code)
	}

	// 规则缺少派系或商品时拒绝登记
	w = doRequest(t, r, http.MethodPut, "/api/v1/market/access", `{"level":"DENIED"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("rule without faction/item should 400, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := doRequest(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("health = %d", w.Code)
	}
}
