package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shopwise/pkg/api"
	"shopwise/pkg/compare"
	"shopwise/pkg/config"
	"shopwise/pkg/sources/fixture"
)

func setupService(t *testing.T) {
	t.Helper()
	catalog, err := fixture.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog failed: %v", err)
	}
	cfg := &config.Config{LiveSources: false}
	service = compare.New(buildRegistry(cfg, nil), catalog, 3)
}

func TestProblemResponses(t *testing.T) {
	setupService(t)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
		expectedType   string
		expectedDetail string
	}{
		{
			name:           "Unknown route",
			method:         "GET",
			path:           "/stores/spar",
			expectedStatus: http.StatusNotFound,
			expectedType:   "about:blank",
			expectedDetail: "No route for /stores/spar",
		},
		{
			name:           "Invalid Path - Too many parts",
			method:         "GET",
			path:           "/products/iphone15pro/offers",
			expectedStatus: http.StatusBadRequest,
			expectedType:   "about:blank",
			expectedDetail: "Invalid path. Expected /products/{id}",
		},
		{
			name:           "Compare - Wrong method",
			method:         "GET",
			path:           "/compare",
			expectedStatus: http.StatusMethodNotAllowed,
			expectedType:   "about:blank",
			expectedDetail: "Use POST.",
		},
		{
			name:           "Compare - Invalid JSON",
			method:         "POST",
			path:           "/compare",
			body:           "{url:",
			expectedStatus: http.StatusBadRequest,
			expectedType:   "about:blank",
			expectedDetail: "Invalid JSON body",
		},
		{
			name:           "Compare - Missing url",
			method:         "POST",
			path:           "/compare",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedType:   "about:blank",
			expectedDetail: "A product url is required.",
		},
		{
			name:           "Compare - Unsupported Platform",
			method:         "POST",
			path:           "/compare",
			body:           `{"url":"https://www.ebay.com/itm/123"}`,
			expectedStatus: http.StatusBadRequest,
			expectedType:   "about:blank",
			expectedDetail: "Unsupported e-commerce platform. Available: amazon, flipkart, croma",
		},
		{
			name:           "Product - Not found",
			method:         "GET",
			path:           "/products/unknown",
			expectedStatus: http.StatusNotFound,
			expectedType:   "about:blank",
			expectedDetail: "Product not found",
		},
		{
			name:           "Product - Bad option",
			method:         "GET",
			path:           "/products/iphone15pro?retailer=Amazon&option=x",
			expectedStatus: http.StatusBadRequest,
			expectedType:   "about:blank",
			expectedDetail: "Invalid option index: x",
		},
		{
			name:           "Product - Zero-padded option is decimal",
			method:         "GET",
			path:           "/products/iphone15pro?retailer=Flipkart&option=08",
			expectedStatus: http.StatusBadRequest,
			expectedType:   "about:blank",
			expectedDetail: "has 3 options, got index 8",
		},
		{
			name:           "Product - Unknown retailer",
			method:         "GET",
			path:           "/products/iphone15pro?retailer=Walmart",
			expectedStatus: http.StatusBadRequest,
			expectedType:   "about:blank",
			expectedDetail: "no such retailer or payment option",
		},
		{
			name:           "Search - Wrong method",
			method:         "GET",
			path:           "/products/search",
			expectedStatus: http.StatusMethodNotAllowed,
			expectedType:   "about:blank",
			expectedDetail: "Use POST.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))

			rr := httptest.NewRecorder()
			handler := http.HandlerFunc(rootHandler)

			handler.ServeHTTP(rr, req)

			if status := rr.Code; status != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v",
					status, tt.expectedStatus)
			}

			// Check Content-Type
			expectedContentType := "application/problem+json"
			if contentType := rr.Header().Get("Content-Type"); contentType != expectedContentType {
				t.Errorf("handler returned wrong content type: got %v want %v",
					contentType, expectedContentType)
			}

			// Check JSON Body
			var pd api.ProblemDetails
			if err := json.Unmarshal(rr.Body.Bytes(), &pd); err != nil {
				t.Errorf("handler returned invalid JSON: %v. Body: %s", err, rr.Body.String())
			}

			if pd.Status != tt.expectedStatus {
				t.Errorf("JSON status mismatch: got %v want %v", pd.Status, tt.expectedStatus)
			}
			if pd.Type != tt.expectedType {
				t.Errorf("JSON type mismatch: got %v want %v", pd.Type, tt.expectedType)
			}
			if !strings.Contains(pd.Detail, tt.expectedDetail) {
				t.Errorf("JSON detail mismatch: got %q, want substring %q", pd.Detail, tt.expectedDetail)
			}
			if pd.Instance != req.URL.Path {
				t.Errorf("JSON instance mismatch: got %v want %v", pd.Instance, req.URL.Path)
			}
		})
	}
}

func TestCompareHandler(t *testing.T) {
	setupService(t)

	body := `{"url":"https://www.flipkart.com/apple-iphone-15/p/itm6ac6485515ae4"}`
	req := httptest.NewRequest(http.MethodPost, "/compare", strings.NewReader(body))
	rr := httptest.NewRecorder()
	newHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v. Body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if rr.Header().Get(api.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	var resp struct {
		OriginalProduct struct {
			ID       string `json:"id"`
			Platform string `json:"platform"`
		} `json:"originalProduct"`
		Offers []struct {
			Retailer string `json:"retailer"`
			Origin   string `json:"origin"`
		} `json:"offers"`
		AllDeals []json.RawMessage `json:"allDeals"`
		BestDeal struct {
			Retailer string  `json:"retailer"`
			Price    float64 `json:"price"`
			Option   struct {
				Type  string `json:"type"`
				Label string `json:"label"`
			} `json:"option"`
		} `json:"bestDeal"`
		SavingsPercent int `json:"savingsPercent"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v. Body: %s", err, rr.Body.String())
	}

	if resp.OriginalProduct.ID != "itm6ac6485515ae4" || resp.OriginalProduct.Platform != "flipkart" {
		t.Errorf("unexpected originalProduct %+v", resp.OriginalProduct)
	}
	if len(resp.Offers) != 3 || resp.Offers[0].Retailer != "Flipkart" {
		t.Errorf("unexpected offers %+v", resp.Offers)
	}
	for _, o := range resp.Offers {
		if o.Origin != "fixture" {
			t.Errorf("offer %s origin = %q, want fixture", o.Retailer, o.Origin)
		}
	}
	if len(resp.AllDeals) != 8 {
		t.Errorf("got %d deals, want 8", len(resp.AllDeals))
	}
	if resp.BestDeal.Retailer != "Croma" || resp.BestDeal.Price != 13774 || resp.BestDeal.Option.Type != "card" {
		t.Errorf("unexpected bestDeal %+v", resp.BestDeal)
	}
	if resp.SavingsPercent != 17 {
		t.Errorf("savingsPercent = %d, want 17", resp.SavingsPercent)
	}
}

func TestProductHandler(t *testing.T) {
	setupService(t)

	req := httptest.NewRequest(http.MethodGet, "/products/iphone15pro?retailer=Flipkart&option=2", nil)
	rr := httptest.NewRecorder()
	rootHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v. Body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp struct {
		ID             string  `json:"id"`
		Title          string  `json:"title"`
		OriginalPrice  float64 `json:"originalPrice"`
		SavingsPercent int     `json:"savingsPercent"`
		BestDeal       struct {
			Retailer string  `json:"retailer"`
			Price    float64 `json:"price"`
		} `json:"bestDeal"`
		Selected struct {
			Retailer string  `json:"retailer"`
			Price    float64 `json:"price"`
		} `json:"selected"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v. Body: %s", err, rr.Body.String())
	}

	if resp.ID != "iphone15pro" || resp.OriginalPrice != 79999 {
		t.Errorf("unexpected product %+v", resp)
	}
	if resp.BestDeal.Retailer != "Amazon" || resp.BestDeal.Price != 71999 {
		t.Errorf("unexpected bestDeal %+v", resp.BestDeal)
	}
	if resp.SavingsPercent != 10 {
		t.Errorf("savingsPercent = %d, want 10", resp.SavingsPercent)
	}
	if resp.Selected.Retailer != "Flipkart" || resp.Selected.Price != 75599 {
		t.Errorf("unexpected selected %+v", resp.Selected)
	}
}

func TestSearchHandler(t *testing.T) {
	setupService(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"Empty body", "", compare.DefaultLimit},
		{"Numeric limit", `{"keywords":"laptop","limit":5}`, 5},
		{"String limit", `{"keywords":"laptop","limit":"7"}`, 7},
		{"Limit capped", `{"keywords":"laptop","limit":1000}`, compare.MaxLimit},
		{"Zero-padded limit", `{"keywords":"laptop","limit":"010"}`, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/products/search", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			rootHandler(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("handler returned wrong status code: got %v want %v. Body: %s", rr.Code, http.StatusOK, rr.Body.String())
			}

			var resp struct {
				Products []struct {
					ID       string `json:"id"`
					Discount int    `json:"discount"`
				} `json:"products"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if len(resp.Products) != tt.want {
				t.Errorf("got %d products, want %d", len(resp.Products), tt.want)
			}
		})
	}
}

func TestPreflightAndHealth(t *testing.T) {
	setupService(t)
	h := newHandler()

	req := httptest.NewRequest(http.MethodOptions, "/compare", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("preflight status = %v, want %v", rr.Code, http.StatusNoContent)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ok":true`) {
		t.Errorf("healthz = %v %s", rr.Code, rr.Body.String())
	}
}
