package controllers

import (
	"io"
	"net/http"

	"github.com/threepillars/storefront-backend/api/responses"
	"github.com/threepillars/storefront-backend/internal/payments/yoco"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
	"github.com/threepillars/storefront-backend/pkg/logger"
)

const (
	yocoSignatureHeader = "X-Yoco-Signature"
	maxWebhookBody      = 1 << 20
)

// YocoWebhook settles orders from gateway callbacks. The raw body is read
// before any decoding because the signature covers the exact bytes sent.
func YocoWebhook(svc yoco.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading webhook body"))
			return
		}

		if err := svc.HandleWebhook(r.Context(), rawBody, r.Header.Get(yocoSignatureHeader)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "processed"})
	}
}
