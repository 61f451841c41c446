package mapper

import (
	"time"

	"github.com/rentflow/rental-api/internal/domain"
)

const timestampLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		Phone:       user.Phone,
		IsActive:    user.IsActive,
		CreatedAt:   formatTime(user.CreatedAt),
	}
}

// ToEstateDTO converts Estate to EstateDTO
func ToEstateDTO(estate *domain.Estate, propertyCount int) domain.EstateDTO {
	return domain.EstateDTO{
		ID:            estate.ID,
		Name:          estate.Name,
		Address:       estate.Address,
		City:          estate.City,
		PostalCode:    estate.PostalCode,
		ManagerID:     estate.ManagerID,
		OwnerID:       estate.OwnerID,
		PropertyCount: propertyCount,
		CreatedAt:     formatTime(estate.CreatedAt),
		UpdatedAt:     formatTime(estate.UpdatedAt),
	}
}

// ToPropertyDTO converts Property to PropertyDTO
func ToPropertyDTO(property *domain.Property) domain.PropertyDTO {
	return domain.PropertyDTO{
		ID:          property.ID,
		EstateID:    property.EstateID,
		OwnerID:     property.OwnerID,
		ManagerID:   property.ManagerID,
		Title:       property.Title,
		Address:     property.Address,
		City:        property.City,
		UnitNumber:  property.UnitNumber,
		AreaSqm:     property.AreaSqm,
		Rooms:       property.Rooms,
		MonthlyRent: property.MonthlyRent,
		Status:      property.Status,
		Description: property.Description,
		CreatedAt:   formatTime(property.CreatedAt),
		UpdatedAt:   formatTime(property.UpdatedAt),
	}
}

// ToTenantDTO converts Tenant to TenantDTO
func ToTenantDTO(tenant *domain.Tenant) domain.TenantDTO {
	return domain.TenantDTO{
		ID:         tenant.ID,
		NationalID: tenant.NationalID,
		FirstName:  tenant.FirstName,
		LastName:   tenant.LastName,
		FullName:   tenant.FullName(),
		Email:      tenant.Email,
		Phone:      tenant.Phone,
		ManagerID:  tenant.ManagerID,
		CreatedAt:  formatTime(tenant.CreatedAt),
		UpdatedAt:  formatTime(tenant.UpdatedAt),
	}
}

// ToContractDTO converts Contract to ContractDTO. The portal token is only
// included when includeToken is set, i.e. for staff responses.
func ToContractDTO(contract *domain.Contract, now time.Time, includeToken bool) domain.ContractDTO {
	dto := domain.ContractDTO{
		ID:               contract.ID,
		PropertyID:       contract.PropertyID,
		TenantID:         contract.TenantID,
		ManagerID:        contract.ManagerID,
		Price:            contract.Price,
		Deposit:          contract.Deposit,
		StartDate:        formatTime(contract.StartDate),
		EndDate:          formatTime(contract.EndDate),
		PaymentFrequency: contract.PaymentFrequency,
		IsActive:         contract.IsActiveAt(now),
		DocumentURL:      contract.DocumentURL,
		Notes:            contract.Notes,
		CreatedAt:        formatTime(contract.CreatedAt),
		UpdatedAt:        formatTime(contract.UpdatedAt),
	}
	if includeToken {
		dto.TenantPortalToken = contract.TenantPortalToken
	}
	if contract.Property != nil {
		dto.PropertyTitle = contract.Property.Title
	}
	if contract.Tenant != nil {
		dto.TenantName = contract.Tenant.FullName()
	}
	return dto
}

// ToMaintenanceRequestDTO converts MaintenanceRequest to its staff-facing DTO
func ToMaintenanceRequestDTO(req *domain.MaintenanceRequest) domain.MaintenanceRequestDTO {
	images := []string(req.Images)
	if images == nil {
		images = []string{}
	}
	dto := domain.MaintenanceRequestDTO{
		ID:            req.ID,
		ContractID:    req.ContractID,
		TenantID:      req.TenantID,
		Title:         req.Title,
		Description:   req.Description,
		Images:        images,
		Priority:      req.Priority,
		Status:        req.Status,
		InternalNotes: req.InternalNotes,
		ReportedVia:   req.ReportedVia,
		CreatedAt:     formatTime(req.CreatedAt),
		UpdatedAt:     formatTime(req.UpdatedAt),
	}
	if req.ResolvedAt != nil {
		resolved := formatTime(*req.ResolvedAt)
		dto.ResolvedAt = &resolved
	}
	return dto
}

// ToPortalMaintenanceRequestDTO converts MaintenanceRequest for the tenant portal; internal notes are stripped
func ToPortalMaintenanceRequestDTO(req *domain.MaintenanceRequest) domain.MaintenanceRequestDTO {
	dto := ToMaintenanceRequestDTO(req)
	dto.InternalNotes = ""
	return dto
}
