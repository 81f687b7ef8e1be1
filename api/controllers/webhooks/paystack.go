package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/primestore/primestore-backend/api/responses"
	"github.com/primestore/primestore-backend/internal/payments"
	pkgerrors "github.com/primestore/primestore-backend/pkg/errors"
	"github.com/primestore/primestore-backend/pkg/logger"
	"github.com/primestore/primestore-backend/pkg/paystack"
)

// PaystackWebhookService consumes signature-verified webhook events.
type PaystackWebhookService interface {
	HandleWebhookEvent(ctx context.Context, event *payments.Event) error
}

type paystackClient interface {
	SigningSecret() string
}

// PaystackWebhook handles payment confirmation deliveries. The signature is
// verified over the raw body before any parsing; a bad or missing signature
// is rejected, everything else is acknowledged so the provider stops
// redelivering, and only infrastructure failures return an error status.
func PaystackWebhook(svc PaystackWebhookService, client paystackClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "paystack client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(paystack.SignatureHeader)
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "paystack signature missing"))
			return
		}
		if !validSignature(payload, signature, client.SigningSecret()) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "paystack signature mismatch"))
			return
		}

		event, err := payments.ParseEvent(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.HandleWebhookEvent(ctx, event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// validSignature checks the HMAC-SHA512 hex digest Paystack computes over
// the raw body with the account secret key.
func validSignature(payload []byte, signature, secret string) bool {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
