package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes carried on every connector error envelope.
const (
	ConnectorErrorBadInput           = "CONNECTOR_BAD_INPUT"
	ConnectorErrorCredentialsInvalid = "CONNECTOR_CREDENTIALS_INVALID"
	ConnectorErrorVendorFault        = "CONNECTOR_VENDOR_FAULT"
	ConnectorErrorTransportFailed    = "CONNECTOR_TRANSPORT_FAILED"
	ConnectorErrorNotFound           = "CONNECTOR_NOT_FOUND"
	ConnectorErrorInternal           = "CONNECTOR_INTERNAL_ERROR"
)

// NewCredentialError builds the envelope for rejected vendor credentials:
// token endpoint refusals, missing access tokens, and authentication
// faults from the query surface.
func NewCredentialError(message string, metadata map[string]any) error {
	return connectorError(message, goerrors.CategoryAuth, http.StatusUnauthorized, metadata)
}

// NewVendorFaultError builds the envelope for non-authentication faults
// reported by the vendor's query surface.
func NewVendorFaultError(message string, metadata map[string]any) error {
	return connectorError(message, goerrors.CategoryExternal, http.StatusBadGateway, metadata)
}

// NewBadInputError builds the envelope for caller mistakes detected
// before any request leaves the connector.
func NewBadInputError(message string, metadata map[string]any) error {
	return connectorError(message, goerrors.CategoryBadInput, http.StatusBadRequest, metadata)
}

// WrapTransportError builds the envelope for failures reaching or reading
// the vendor, keeping the source error in the chain.
func WrapTransportError(source error, message string, metadata map[string]any) error {
	if source == nil {
		return connectorError(message, goerrors.CategoryExternal, http.StatusBadGateway, metadata)
	}
	err := goerrors.Wrap(source, goerrors.CategoryExternal, message).
		WithCode(http.StatusBadGateway).
		WithTextCode(ConnectorErrorTransportFailed)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// WrapInternalError builds the envelope for connector-side defects such
// as unusable signing keys or codec failures.
func WrapInternalError(source error, message string, metadata map[string]any) error {
	if source == nil {
		return connectorError(message, goerrors.CategoryInternal, http.StatusInternalServerError, metadata)
	}
	err := goerrors.Wrap(source, goerrors.CategoryInternal, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ConnectorErrorInternal)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func connectorError(message string, category goerrors.Category, code int, metadata map[string]any) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(connectorTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// ConnectorErrorMapper normalizes any error into the connector envelope,
// filling in the category-derived status and text code when missing.
func ConnectorErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureConnectorEnvelope(richErr)
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureConnectorEnvelope(mapped)
}

func ensureConnectorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = connectorHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = connectorTextCode(err.Category)
	}
	return err
}

func connectorTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ConnectorErrorBadInput
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ConnectorErrorCredentialsInvalid
	case goerrors.CategoryNotFound:
		return ConnectorErrorNotFound
	case goerrors.CategoryExternal:
		return ConnectorErrorVendorFault
	default:
		return ConnectorErrorInternal
	}
}

func connectorHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsCredentialError reports whether err carries the auth category.
func IsCredentialError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryAuth
}
