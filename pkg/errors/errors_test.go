package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized},
		{code: CodeTenantRequired, status: http.StatusBadRequest},
		{code: CodeProductNotFound, status: http.StatusNotFound, detailsOK: true},
		{code: CodeOutOfStock, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeInsufficientStock, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeCartEmpty, status: http.StatusBadRequest},
		{code: CodeCartNotFound, status: http.StatusNotFound},
		{code: CodeOrderNotFound, status: http.StatusNotFound},
		{code: CodeOrderCannotBeCancelled, status: http.StatusConflict, detailsOK: true},
		{code: CodeGatewayNotConfigured, status: http.StatusBadRequest},
		{code: CodeCourierNotConfigured, status: http.StatusBadRequest},
		{code: CodeWebhookVerification, status: http.StatusUnauthorized},
		{code: CodeAmountMismatch, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeShipmentCreationFailed, status: http.StatusBadGateway, retryable: true, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing quantity")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing quantity" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "quantity"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}

	formatted := Newf(CodeInsufficientStock, "only %d left", 3)
	if formatted.Message() != "only 3 left" {
		t.Fatalf("unexpected formatted message %q", formatted.Message())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsMatchesCodeThroughChain(t *testing.T) {
	inner := New(CodeOrderNotFound, "gone")
	outer := Wrap(CodeOrderNotFound, inner, "lookup")
	if !Is(outer, CodeOrderNotFound) {
		t.Fatalf("Is should match wrapped code")
	}
	if Is(outer, CodeCartNotFound) {
		t.Fatalf("Is matched the wrong code")
	}
	if Is(nil, CodeInternal) {
		t.Fatalf("Is(nil) should be false")
	}
}
