package api

import (
	"errors"

	domrepo "PriceGate/internal/domain/repository"
	"PriceGate/internal/usecase"
	xhttp "PriceGate/pkg/http"
)

// toAppError maps usecase and repository errors onto HTTP errors.
func toAppError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, usecase.ErrMissingSymbol), errors.Is(err, usecase.ErrUnknownAssetClass):
		return xhttp.BadRequestError(usecase.ErrMissingSymbol.Error()).WithError(err)
	case errors.Is(err, usecase.ErrVendorNotConfigured):
		return xhttp.InternalError(err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrPriceUnavailable):
		return xhttp.BadGatewayError(usecase.ErrPriceUnavailable.Error()).WithError(err)
	case errors.Is(err, domrepo.ErrNoActiveAssets):
		return xhttp.NotFoundError(domrepo.ErrNoActiveAssets.Error()).WithError(err)
	case errors.Is(err, domrepo.ErrAssetNotFound):
		return xhttp.NotFoundError(domrepo.ErrAssetNotFound.Error()).WithError(err)
	default:
		return xhttp.InternalError(err.Error()).WithError(err)
	}
}
