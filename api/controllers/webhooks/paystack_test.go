package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primestore/primestore-backend/internal/payments"
	pkgerrors "github.com/primestore/primestore-backend/pkg/errors"
	"github.com/primestore/primestore-backend/pkg/logger"
	"github.com/primestore/primestore-backend/pkg/paystack"
)

const testSecret = "sk_test_secret"

type stubWebhookService struct {
	events []*payments.Event
	err    error
}

func (s *stubWebhookService) HandleWebhookEvent(_ context.Context, event *payments.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

type stubSigner struct{}

func (stubSigner) SigningSecret() string { return testSecret }

func sign(payload []byte) string {
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func postWebhook(t *testing.T, handler http.HandlerFunc, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(paystack.SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPaystackWebhookValidSignature(t *testing.T) {
	t.Parallel()

	svc := &stubWebhookService{}
	handler := PaystackWebhook(svc, stubSigner{}, testLogger())

	body := []byte(`{"event":"charge.success","data":{"reference":"PS-ABC123","status":"success","amount":5100}}`)
	rec := postWebhook(t, handler, body, sign(body))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.events, 1)
	assert.Equal(t, "PS-ABC123", svc.events[0].Data.Reference)
}

func TestPaystackWebhookMissingSignature(t *testing.T) {
	t.Parallel()

	svc := &stubWebhookService{}
	handler := PaystackWebhook(svc, stubSigner{}, testLogger())

	rec := postWebhook(t, handler, []byte(`{}`), "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.events)
}

func TestPaystackWebhookBadSignature(t *testing.T) {
	t.Parallel()

	svc := &stubWebhookService{}
	handler := PaystackWebhook(svc, stubSigner{}, testLogger())

	body := []byte(`{"event":"charge.success","data":{}}`)
	rec := postWebhook(t, handler, body, sign([]byte("different body")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.events)
}

func TestPaystackWebhookMalformedBody(t *testing.T) {
	t.Parallel()

	svc := &stubWebhookService{}
	handler := PaystackWebhook(svc, stubSigner{}, testLogger())

	body := []byte(`{not json`)
	rec := postWebhook(t, handler, body, sign(body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.events)
}

func TestPaystackWebhookServiceFailure(t *testing.T) {
	t.Parallel()

	svc := &stubWebhookService{err: pkgerrors.New(pkgerrors.CodeDependency, "redis unavailable")}
	handler := PaystackWebhook(svc, stubSigner{}, testLogger())

	body := []byte(`{"event":"charge.success","data":{"reference":"PS-ABC123","status":"success","amount":5100}}`)
	rec := postWebhook(t, handler, body, sign(body))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
