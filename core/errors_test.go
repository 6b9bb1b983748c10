package core

import (
	"errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestNewCredentialError_Envelope(t *testing.T) {
	err := NewCredentialError("token endpoint rejected assertion", map[string]any{"status_code": 401})

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if richErr.Category != goerrors.CategoryAuth {
		t.Fatalf("expected auth category, got %v", richErr.Category)
	}
	if richErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", richErr.Code)
	}
	if richErr.TextCode != ConnectorErrorCredentialsInvalid {
		t.Fatalf("expected credential text code, got %q", richErr.TextCode)
	}
	if !IsCredentialError(err) {
		t.Fatalf("expected IsCredentialError to report true")
	}
}

func TestWrapTransportError_KeepsSource(t *testing.T) {
	source := errors.New("dial tcp: connection refused")
	err := WrapTransportError(source, "execute vendor request", nil)

	if !errors.Is(err, source) {
		t.Fatalf("expected wrapped source in chain")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors envelope")
	}
	if richErr.Category != goerrors.CategoryExternal {
		t.Fatalf("expected external category, got %v", richErr.Category)
	}
	if richErr.TextCode != ConnectorErrorTransportFailed {
		t.Fatalf("expected transport text code, got %q", richErr.TextCode)
	}
}

func TestConnectorErrorMapper_FillsEnvelope(t *testing.T) {
	bare := goerrors.New("search string missing", goerrors.CategoryBadInput)
	mapped := ConnectorErrorMapper(bare)
	if mapped.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", mapped.Code)
	}
	if mapped.TextCode != ConnectorErrorBadInput {
		t.Fatalf("expected bad input text code, got %q", mapped.TextCode)
	}

	if ConnectorErrorMapper(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
