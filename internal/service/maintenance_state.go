package service

import (
	"fmt"

	"github.com/rentflow/rental-api/internal/domain"
)

// maintenanceTransitions lists the allowed outbound edges per status
var maintenanceTransitions = map[domain.MaintenanceStatus][]domain.MaintenanceStatus{
	domain.MaintenanceStatusPending:    {domain.MaintenanceStatusInProgress, domain.MaintenanceStatusCancelled},
	domain.MaintenanceStatusInProgress: {domain.MaintenanceStatusCompleted, domain.MaintenanceStatusCancelled},
	domain.MaintenanceStatusCompleted:  {},
	domain.MaintenanceStatusCancelled:  {},
}

// ValidateMaintenanceTransition checks a requested status change. Requesting the
// current status is an AlreadyInState error, not a no-op.
func ValidateMaintenanceTransition(current, requested domain.MaintenanceStatus) error {
	if current == requested {
		return domain.NewError(domain.KindAlreadyInState, fmt.Sprintf("Status is already %s", current))
	}
	for _, next := range maintenanceTransitions[current] {
		if next == requested {
			return nil
		}
	}
	return domain.NewError(domain.KindInvalidTransition,
		fmt.Sprintf("Cannot change status from %s to %s", current, requested))
}

// AllowedMaintenanceTransitions returns the statuses reachable from current
func AllowedMaintenanceTransitions(current domain.MaintenanceStatus) []domain.MaintenanceStatus {
	next := maintenanceTransitions[current]
	out := make([]domain.MaintenanceStatus, len(next))
	copy(out, next)
	return out
}
