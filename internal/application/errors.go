package application

import (
	"fmt"
	"net/http"

	"github.com/wms-platform/picking-orchestrator/internal/domain"
	pkgerrors "github.com/wms-platform/picking-orchestrator/pkg/errors"
	"github.com/wms-platform/picking-orchestrator/pkg/resilience"
)

var domainMappings = []pkgerrors.Mapping{
	{Target: domain.ErrNotFound, Build: func(err error) *pkgerrors.AppError {
		return pkgerrors.NewAppError(pkgerrors.CodeNotFound, err.Error(), http.StatusNotFound)
	}},
	{Target: domain.ErrInvalidState, Build: func(err error) *pkgerrors.AppError {
		return pkgerrors.ErrInvalidState(err.Error())
	}},
	{Target: domain.ErrInvalidQuantity, Build: func(err error) *pkgerrors.AppError {
		return pkgerrors.ErrInvalidQuantity(err.Error())
	}},
	{Target: domain.ErrAllocationExhausted, Build: func(err error) *pkgerrors.AppError {
		appErr := pkgerrors.ErrAllocationExhausted("available inventory did not cover every order line")
		if exhausted, ok := domain.AsAllocationExhausted(err); ok {
			for _, s := range exhausted.Shortages {
				appErr.WithDetail(s.OrderID+"/"+s.SKU, fmt.Sprintf("requested %d, allocated %d", s.Requested, s.Allocated))
			}
		}
		return appErr
	}},
	{Target: resilience.ErrCircuitOpen, Build: func(err error) *pkgerrors.AppError {
		return pkgerrors.ErrServiceUnavailable("upstream dependency")
	}},
}

// MapDomainError translates domain sentinels into API errors
func MapDomainError(err error) *pkgerrors.AppError {
	return pkgerrors.MapError(err, domainMappings...)
}

func notFound(resource, id string) error {
	return fmt.Errorf("%w: %s %s", domain.ErrNotFound, resource, id)
}
