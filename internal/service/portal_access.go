package service

import (
	"context"

	"github.com/rentflow/rental-api/internal/auth"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/rentflow/rental-api/internal/scope"
	"go.uber.org/zap"
)

var errStalePortalToken = domain.NewError(domain.KindInvalidToken, "Invalid portal token")

// PortalAccess resolves the contract a verified portal token grants access to.
// The signature and expiry have already been checked by the middleware; this adds
// the checks that need the store.
type PortalAccess struct {
	contractRepo *repository.ContractRepository
	logger       *zap.Logger
}

// NewPortalAccess creates a new portal access resolver
func NewPortalAccess(contractRepo *repository.ContractRepository, logger *zap.Logger) *PortalAccess {
	return &PortalAccess{contractRepo: contractRepo, logger: logger}
}

// Resolve loads the token's contract. A deleted contract is NotFound, a tenant
// mismatch is AccessDenied and a rotated-out token is InvalidToken.
func (p *PortalAccess) Resolve(ctx context.Context) (*domain.Contract, error) {
	portal, ok := auth.PortalFromContext(ctx)
	if !ok {
		return nil, ErrPortalNotAuthenticated
	}

	contract, err := p.contractRepo.GetByID(ctx, portal.ContractID, scope.All())
	if err != nil {
		return nil, lookupError("Contract", err)
	}
	if contract.Tenant == nil || contract.Tenant.NationalID != portal.TenantNationalID {
		p.logger.Warn("Portal token tenant mismatch", zap.String("contract_id", contract.ID.String()))
		return nil, domain.NewError(domain.KindAccessDenied, "Token does not grant access to this contract")
	}
	if contract.PortalTokenVersion != portal.Version {
		return nil, errStalePortalToken
	}
	return contract, nil
}
