package notification

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ilKhr/simple-phone-and-email-auth/pkg/errors"
	"github.com/ilKhr/simple-phone-and-email-auth/pkg/httpclient"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
)

func newBreakerClient(name string) *httpclient.CircuitBreakerClient {
	return httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig(name),
		newTestLogger(),
	)
}

func newSMSRuForTest(t *testing.T, handler http.HandlerFunc) *SMSRuSender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewSMSRuSender(SMSRuConfig{APIID: "test-api-id"}, newBreakerClient(t.Name()), newTestLogger())
	s.baseURL = srv.URL
	return s
}

func TestSMSRuSender_Success(t *testing.T) {
	var gotQuery map[string][]string
	s := newSMSRuForTest(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"status":"OK","status_code":100,"sms":{"+79991234567":{"status":"OK","status_code":100,"sms_id":"1-1"}},"balance":42.5}`))
	})

	err := s.Send(context.Background(), domain.SMSMessage{To: "+79991234567", Text: "Your OTP code is: 0042"})

	require.NoError(t, err)
	assert.Equal(t, []string{"test-api-id"}, gotQuery["api_id"])
	assert.Equal(t, []string{"+79991234567"}, gotQuery["to"])
	assert.Equal(t, []string{"Your OTP code is: 0042"}, gotQuery["msg"])
	assert.Equal(t, []string{"1"}, gotQuery["json"])
}

func TestSMSRuSender_TestModeFlag(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"status":"OK","status_code":100,"sms":{},"balance":0}`))
	}))
	t.Cleanup(srv.Close)

	s := NewSMSRuSender(SMSRuConfig{APIID: "id", Test: true}, newBreakerClient(t.Name()), newTestLogger())
	s.baseURL = srv.URL

	require.NoError(t, s.Send(context.Background(), domain.SMSMessage{To: "+79991234567", Text: "hi"}))
	assert.Equal(t, []string{"1"}, gotQuery["test"])
}

func TestSMSRuSender_RequestRejected(t *testing.T) {
	s := newSMSRuForTest(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ERROR","status_code":200,"sms":{},"balance":0}`))
	})

	err := s.Send(context.Background(), domain.SMSMessage{To: "+79991234567", Text: "hi"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDelivery))
	assert.Contains(t, err.Error(), "wrong api_id")
}

func TestSMSRuSender_PerNumberRejection(t *testing.T) {
	s := newSMSRuForTest(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","status_code":100,"sms":{"+79991234567":{"status":"ERROR","status_code":209}},"balance":10}`))
	})

	err := s.Send(context.Background(), domain.SMSMessage{To: "+79991234567", Text: "hi"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDelivery))
	assert.Contains(t, err.Error(), "blacklisted")
}

func TestSMSRuSender_MalformedResponse(t *testing.T) {
	s := newSMSRuForTest(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	err := s.Send(context.Background(), domain.SMSMessage{To: "+79991234567", Text: "hi"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
