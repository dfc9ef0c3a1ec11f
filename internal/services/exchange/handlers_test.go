package exchange

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/thumuadocu/market-api/internal/apperr"
	"github.com/thumuadocu/market-api/internal/utils"
)

type apiClient struct {
	t          *testing.T
	app        *fiber.App
	jwtService *utils.JWTService
}

func newAPIClient(t *testing.T, f *fixture) *apiClient {
	jwtService := utils.NewJWTService("test-secret")
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler})
	NewHandler(f.svc, jwtService).SetupRoutes(app)
	return &apiClient{t: t, app: app, jwtService: jwtService}
}

func (a *apiClient) do(method, path string, actor uuid.UUID, body string) (int, map[string]json.RawMessage) {
	a.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != uuid.Nil {
		token, err := a.jwtService.GenerateToken(actor)
		if err != nil {
			a.t.Fatalf("GenerateToken: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req)
	if err != nil {
		a.t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	payload := map[string]json.RawMessage{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			a.t.Fatalf("decode %q: %v", raw, err)
		}
	}
	return resp.StatusCode, payload
}

type exchangeBody struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

func decodeExchange(t *testing.T, payload map[string]json.RawMessage) exchangeBody {
	t.Helper()
	var e exchangeBody
	if err := json.Unmarshal(payload["exchange"], &e); err != nil {
		t.Fatalf("decode exchange: %v", err)
	}
	return e
}

func TestExchangeHTTPFlow(t *testing.T) {
	f := newFixture()
	api := newAPIClient(t, f)

	body := `{"fromProductId":"` + f.productA.ID.String() + `","toProductId":"` + f.productB.ID.String() + `","message":"swap?"}`
	code, payload := api.do(http.MethodPost, "/api/exchanges/propose", f.u1, body)
	if code != fiber.StatusCreated {
		t.Fatalf("propose status = %d, payload %s", code, payload["error"])
	}
	created := decodeExchange(t, payload)
	if created.Status != "pending" {
		t.Fatalf("status = %s, want pending", created.Status)
	}

	code, _ = api.do(http.MethodPost, "/api/exchanges/propose", f.u1, body)
	if code != fiber.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", code)
	}

	respondPath := "/api/exchanges/" + created.ID.String() + "/respond"

	code, _ = api.do(http.MethodPut, respondPath, f.u1, `{"response":"accepted"}`)
	if code != fiber.StatusForbidden {
		t.Fatalf("proposer accept status = %d, want 403", code)
	}

	code, payload = api.do(http.MethodPut, respondPath, f.u2, `{"response":"accepted","message":"deal"}`)
	if code != fiber.StatusOK {
		t.Fatalf("accept status = %d, payload %s", code, payload["error"])
	}
	if got := decodeExchange(t, payload); got.Status != "accepted" {
		t.Fatalf("status = %s, want accepted", got.Status)
	}

	code, _ = api.do(http.MethodPut, respondPath, f.u2, `{"response":"rejected"}`)
	if code != fiber.StatusBadRequest {
		t.Fatalf("second respond status = %d, want 400", code)
	}

	code, payload = api.do(http.MethodGet, "/api/exchanges/my-offers", f.u2, "")
	if code != fiber.StatusOK {
		t.Fatalf("my-offers status = %d", code)
	}
	var count int
	_ = json.Unmarshal(payload["count"], &count)
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestExchangeHTTPCancel(t *testing.T) {
	f := newFixture()
	api := newAPIClient(t, f)
	e, _ := f.propose(f.productA, f.productB, f.u1)
	path := "/api/exchanges/" + e.ID.String() + "/respond"

	if code, _ := api.do(http.MethodPut, path, f.u2, `{"response":"cancelled"}`); code != fiber.StatusForbidden {
		t.Fatalf("recipient cancel status = %d, want 403", code)
	}

	code, payload := api.do(http.MethodPut, path, f.u1, `{"response":"cancelled"}`)
	if code != fiber.StatusOK {
		t.Fatalf("cancel status = %d", code)
	}
	if got := decodeExchange(t, payload); got.Status != "cancelled" {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}
}

func TestExchangeHTTPValidation(t *testing.T) {
	f := newFixture()
	api := newAPIClient(t, f)
	e, _ := f.propose(f.productA, f.productB, f.u1)

	tests := []struct {
		name     string
		method   string
		path     string
		actor    uuid.UUID
		body     string
		wantCode int
	}{
		{"no token", http.MethodGet, "/api/exchanges/my-offers", uuid.Nil, "", fiber.StatusUnauthorized},
		{"missing ids", http.MethodPost, "/api/exchanges/propose", f.u1, `{"message":"x"}`, fiber.StatusBadRequest},
		{"bad uuid", http.MethodPost, "/api/exchanges/propose", f.u1,
			`{"fromProductId":"nope","toProductId":"` + f.productB.ID.String() + `","message":"x"}`, fiber.StatusBadRequest},
		{"unknown product", http.MethodPost, "/api/exchanges/propose", f.u1,
			`{"fromProductId":"` + uuid.NewString() + `","toProductId":"` + f.productB.ID.String() + `","message":"x"}`, fiber.StatusNotFound},
		{"self exchange", http.MethodPost, "/api/exchanges/propose", f.u1,
			`{"fromProductId":"` + f.productA.ID.String() + `","toProductId":"` + f.productA2.ID.String() + `","message":"x"}`, fiber.StatusBadRequest},
		{"bad decision", http.MethodPut, "/api/exchanges/" + e.ID.String() + "/respond", f.u2, `{"response":"maybe"}`, fiber.StatusBadRequest},
		{"bad exchange id", http.MethodPut, "/api/exchanges/123/respond", f.u2, `{"response":"accepted"}`, fiber.StatusBadRequest},
		{"unknown exchange", http.MethodPut, "/api/exchanges/" + uuid.NewString() + "/respond", f.u2, `{"response":"accepted"}`, fiber.StatusNotFound},
		{"bad type filter", http.MethodGet, "/api/exchanges/my-offers?type=sideways", f.u1, "", fiber.StatusBadRequest},
		{"outsider get", http.MethodGet, "/api/exchanges/" + e.ID.String(), f.u3, "", fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, payload := api.do(tt.method, tt.path, tt.actor, tt.body)
			if code != tt.wantCode {
				t.Errorf("status = %d, want %d (error %s)", code, tt.wantCode, payload["error"])
			}
		})
	}
}

func TestAvailableProductsHTTP(t *testing.T) {
	f := newFixture()
	api := newAPIClient(t, f)

	code, payload := api.do(http.MethodGet, "/api/exchanges/available-products", f.u2, "")
	if code != fiber.StatusOK {
		t.Fatalf("status = %d", code)
	}

	var products []struct {
		ID       uuid.UUID `json:"id"`
		SellerID uuid.UUID `json:"seller_id"`
	}
	if err := json.Unmarshal(payload["products"], &products); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("len = %d, want 2", len(products))
	}
	for _, p := range products {
		if p.SellerID == f.u2 {
			t.Errorf("own product %s listed", p.ID)
		}
	}
}
