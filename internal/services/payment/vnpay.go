package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/thumuadocu/market-api/internal/config"
)

// Параметры протокола VNPay 2.1.0
const (
	vnpVersion   = "2.1.0"
	vnpCommand   = "pay"
	vnpCurrency  = "VND"
	vnpLocale    = "vn"
	vnpOrderType = "other"
	vnpTimeFmt   = "20060102150405"

	fieldSecureHash     = "vnp_SecureHash"
	fieldSecureHashType = "vnp_SecureHashType"
)

// ErrMissingSecureHash в параметрах ответа шлюза нет подписи
var ErrMissingSecureHash = errors.New("vnp_SecureHash is missing")

// Signer строит и проверяет подписанные URL платёжного шлюза VNPay
type Signer struct {
	tmnCode    string
	hashSecret string
	payURL     string
	returnURL  string
	expireIn   time.Duration
	location   *time.Location
	now        func() time.Time
}

// NewSigner создаёт подписчика из конфигурации шлюза
func NewSigner(cfg config.VNPayConfig) *Signer {
	// Шлюз ожидает время по Ханою (GMT+7)
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		loc = time.FixedZone("ICT", 7*60*60)
	}

	return &Signer{
		tmnCode:    cfg.TmnCode,
		hashSecret: cfg.HashSecret,
		payURL:     cfg.PayURL,
		returnURL:  cfg.ReturnURL,
		expireIn:   time.Duration(cfg.ExpireMinutes) * time.Minute,
		location:   loc,
		now:        time.Now,
	}
}

// PaymentRequest данные для ссылки на оплату
type PaymentRequest struct {
	OrderID     string
	Amount      int64 // в донгах, шлюз получает сумму ×100
	Description string
	IPAddr      string
}

// CreatePaymentURL возвращает ссылку на страницу оплаты с подписью vnp_SecureHash
func (s *Signer) CreatePaymentURL(req PaymentRequest) (string, error) {
	if req.OrderID == "" {
		return "", errors.New("order id is required")
	}
	if req.Amount <= 0 {
		return "", errors.New("amount must be positive")
	}

	created := s.now().In(s.location)
	description := req.Description
	if description == "" {
		description = "Thanh toan don hang " + req.OrderID
	}

	params := map[string]string{
		"vnp_Version":    vnpVersion,
		"vnp_Command":    vnpCommand,
		"vnp_TmnCode":    s.tmnCode,
		"vnp_Locale":     vnpLocale,
		"vnp_CurrCode":   vnpCurrency,
		"vnp_TxnRef":     req.OrderID,
		"vnp_OrderInfo":  description,
		"vnp_OrderType":  vnpOrderType,
		"vnp_Amount":     strconv.FormatInt(req.Amount*100, 10),
		"vnp_ReturnUrl":  s.returnURL,
		"vnp_IpAddr":     req.IPAddr,
		"vnp_CreateDate": created.Format(vnpTimeFmt),
		"vnp_ExpireDate": created.Add(s.expireIn).Format(vnpTimeFmt),
	}

	query := canonicalQuery(params)
	return s.payURL + "?" + query + "&" + fieldSecureHash + "=" + s.sign(query), nil
}

// VerifyParams проверяет подпись параметров, пришедших от шлюза (return URL или IPN)
func (s *Signer) VerifyParams(params map[string]string) (bool, error) {
	received, ok := params[fieldSecureHash]
	if !ok || received == "" {
		return false, ErrMissingSecureHash
	}

	signed := make(map[string]string, len(params))
	for k, v := range params {
		if k == fieldSecureHash || k == fieldSecureHashType {
			continue
		}
		signed[k] = v
	}

	expected := s.sign(canonicalQuery(signed))
	return hmac.Equal([]byte(received), []byte(expected)), nil
}

// sign считает HMAC-SHA512 от строки запроса
func (s *Signer) sign(query string) string {
	mac := hmac.New(sha512.New, []byte(s.hashSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalQuery сортирует vnp_* параметры по ключу и склеивает key=value через &.
// Значения кодируются так же, как на стороне шлюза: пробел превращается в +.
func canonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if strings.HasPrefix(k, "vnp_") && v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+url.QueryEscape(params[k]))
	}
	return strings.Join(parts, "&")
}
