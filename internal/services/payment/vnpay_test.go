package payment

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/thumuadocu/market-api/internal/config"
)

func newTestSigner() *Signer {
	s := NewSigner(config.VNPayConfig{
		TmnCode:       "DEMOV210",
		HashSecret:    "SECRETKEY123",
		PayURL:        "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:     "http://localhost:8080/api/payments/return",
		ExpireMinutes: 15,
	})
	s.now = func() time.Time { return time.Date(2026, 3, 1, 1, 30, 0, 0, time.UTC) }
	return s
}

func queryParams(t *testing.T, rawURL string) map[string]string {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	params := map[string]string{}
	for k, v := range u.Query() {
		params[k] = v[0]
	}
	return params
}

func TestCreatePaymentURLParams(t *testing.T) {
	s := newTestSigner()

	raw, err := s.CreatePaymentURL(PaymentRequest{
		OrderID:     "order-1",
		Amount:      150000,
		Description: "Thanh toan don hang #1",
		IPAddr:      "127.0.0.1",
	})
	if err != nil {
		t.Fatalf("CreatePaymentURL: %v", err)
	}
	if !strings.HasPrefix(raw, "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?vnp_Amount=") {
		t.Errorf("url must start with sorted params, got %s", raw)
	}

	params := queryParams(t, raw)
	checks := map[string]string{
		"vnp_Amount":     "15000000",
		"vnp_Command":    "pay",
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     "order-1",
		"vnp_OrderInfo":  "Thanh toan don hang #1",
		"vnp_CreateDate": "20260301083000", // GMT+7
		"vnp_ExpireDate": "20260301084500",
		"vnp_Version":    "2.1.0",
	}
	for k, want := range checks {
		if params[k] != want {
			t.Errorf("%s = %q, want %q", k, params[k], want)
		}
	}
	if len(params[fieldSecureHash]) != 128 {
		t.Errorf("secure hash length = %d, want 128 hex chars", len(params[fieldSecureHash]))
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	s := newTestSigner()
	raw, _ := s.CreatePaymentURL(PaymentRequest{OrderID: "order-1", Amount: 99000, Description: "Mua ao & quan", IPAddr: "10.0.0.1"})

	params := queryParams(t, raw)
	ok, err := s.VerifyParams(params)
	if err != nil || !ok {
		t.Fatalf("VerifyParams = %v, %v; want true", ok, err)
	}

	// Тип хэша не участвует в подписи
	params[fieldSecureHashType] = "HmacSHA512"
	if ok, _ := s.VerifyParams(params); !ok {
		t.Error("vnp_SecureHashType must be ignored")
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	s := newTestSigner()
	raw, _ := s.CreatePaymentURL(PaymentRequest{OrderID: "order-1", Amount: 99000, Description: "Mua ao", IPAddr: "10.0.0.1"})
	original := queryParams(t, raw)

	for key, value := range original {
		for i := range value {
			params := make(map[string]string, len(original))
			for k, v := range original {
				params[k] = v
			}

			flipped := []byte(value)
			if flipped[i] == 'x' {
				flipped[i] = 'y'
			} else {
				flipped[i] = 'x'
			}
			params[key] = string(flipped)

			if ok, _ := s.VerifyParams(params); ok {
				t.Fatalf("tampered %s[%d] still verifies", key, i)
			}
		}
	}
}

func TestVerifyMissingHash(t *testing.T) {
	s := newTestSigner()
	if _, err := s.VerifyParams(map[string]string{"vnp_TxnRef": "1"}); err != ErrMissingSecureHash {
		t.Fatalf("err = %v, want ErrMissingSecureHash", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	raw, _ := newTestSigner().CreatePaymentURL(PaymentRequest{OrderID: "o", Amount: 1000, IPAddr: "1.1.1.1"})

	other := newTestSigner()
	other.hashSecret = "ANOTHER"
	if ok, _ := other.VerifyParams(queryParams(t, raw)); ok {
		t.Fatal("signature from another secret must not verify")
	}
}

func TestCreatePaymentURLValidation(t *testing.T) {
	s := newTestSigner()
	if _, err := s.CreatePaymentURL(PaymentRequest{OrderID: "", Amount: 1000}); err == nil {
		t.Error("expected error for empty order id")
	}
	if _, err := s.CreatePaymentURL(PaymentRequest{OrderID: "o", Amount: 0}); err == nil {
		t.Error("expected error for zero amount")
	}
}

func TestCanonicalQuery(t *testing.T) {
	got := canonicalQuery(map[string]string{
		"vnp_b":   "two words",
		"vnp_a":   "1",
		"vnp_c":   "",
		"foreign": "ignored",
	})
	if want := "vnp_a=1&vnp_b=two+words"; got != want {
		t.Errorf("canonicalQuery = %q, want %q", got, want)
	}
}
