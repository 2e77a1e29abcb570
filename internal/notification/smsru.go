package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	apperrors "github.com/ilKhr/simple-phone-and-email-auth/pkg/errors"
	"github.com/ilKhr/simple-phone-and-email-auth/pkg/httpclient"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
)

const smsRuSendURL = "https://sms.ru/sms/send"

// smsRuErrors maps sms.ru status codes to readable descriptions. Unknown
// codes fall back to the status text from the response.
var smsRuErrors = map[int]string{
	200: "wrong api_id",
	201: "not enough balance",
	202: "wrong recipient",
	203: "message has no text",
	204: "sender name not approved",
	205: "message too long",
	206: "daily message limit reached",
	207: "no route for this number",
	208: "wrong time value",
	209: "number is blacklisted",
	210: "GET used where POST is required",
	211: "unknown method",
	212: "wrong encoding, expected UTF-8",
	220: "service temporarily unavailable",
	230: "daily limit for this number reached",
	231: "minute limit for this number reached",
	232: "day limit for identical messages reached",
}

type smsRuStatus struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	StatusText string `json:"status_text,omitempty"`
	SmsID      string `json:"sms_id,omitempty"`
}

type smsRuResponse struct {
	Status     string                 `json:"status"`
	StatusCode int                    `json:"status_code"`
	Sms        map[string]smsRuStatus `json:"sms"`
	Balance    float64                `json:"balance"`
}

// SMSRuConfig holds sms.ru credentials and mode.
type SMSRuConfig struct {
	APIID string
	// Test requests delivery simulation on the provider side; no real sms
	// goes out and the balance is not charged.
	Test bool
}

// SMSRuSender delivers text messages through the sms.ru HTTP API.
type SMSRuSender struct {
	cfg     SMSRuConfig
	client  *httpclient.CircuitBreakerClient
	logger  *slog.Logger
	baseURL string
}

// NewSMSRuSender creates an sms.ru sender. The circuit breaker on the client
// keeps a dead provider from delaying every send; the resolver falls back to
// the next candidate while the breaker is open.
func NewSMSRuSender(cfg SMSRuConfig, client *httpclient.CircuitBreakerClient, logger *slog.Logger) *SMSRuSender {
	return &SMSRuSender{cfg: cfg, client: client, logger: logger, baseURL: smsRuSendURL}
}

func (s *SMSRuSender) Name() string {
	return "smsru"
}

func (s *SMSRuSender) Send(ctx context.Context, msg domain.SMSMessage) error {
	q := url.Values{}
	q.Set("api_id", s.cfg.APIID)
	q.Set("to", msg.To)
	q.Set("msg", msg.Text)
	q.Set("json", "1")
	if s.cfg.Test {
		q.Set("test", "1")
	}

	resp, err := s.client.Get(ctx, s.baseURL+"?"+q.Encode())
	if err != nil {
		return fmt.Errorf("smsru request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("smsru read response: %w", err)
	}

	var parsed smsRuResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("smsru decode response: %w", err)
	}

	if parsed.Status != "OK" {
		return apperrors.Delivery(fmt.Sprintf("smsru rejected request: %s", s.describe(parsed.StatusCode, "")))
	}

	for number, sms := range parsed.Sms {
		if sms.Status != "OK" {
			return apperrors.Delivery(fmt.Sprintf("smsru rejected message to %s: %s",
				number, s.describe(sms.StatusCode, sms.StatusText)))
		}
		s.logger.InfoContext(ctx, "smsru: sms sent",
			slog.String("to", number),
			slog.String("sms_id", sms.SmsID),
		)
	}

	return nil
}

func (s *SMSRuSender) describe(code int, statusText string) string {
	if desc, ok := smsRuErrors[code]; ok {
		return desc
	}
	if statusText != "" {
		return statusText
	}
	return fmt.Sprintf("status code %d", code)
}
