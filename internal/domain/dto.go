package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Auth
// ============================================================================

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expiresAt"`
	User      UserDTO `json:"user"`
}

type CreateUserRequest struct {
	Email       string   `json:"email" validate:"required,email,max=255"`
	DisplayName string   `json:"displayName" validate:"required,max=200"`
	Password    string   `json:"password" validate:"required,min=8,max=72"`
	Role        UserRole `json:"role" validate:"required,oneof=ADMIN PROPERTY_MANAGER PROPERTY_OWNER"`
	Phone       string   `json:"phone,omitempty" validate:"max=50"`
}

type UserDTO struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        UserRole  `json:"role"`
	Phone       string    `json:"phone,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   string    `json:"createdAt"`
}

// ============================================================================
// Estates
// ============================================================================

type CreateEstateRequest struct {
	Name       string     `json:"name" validate:"required,max=200"`
	Address    string     `json:"address,omitempty" validate:"max=500"`
	City       string     `json:"city,omitempty" validate:"max=100"`
	PostalCode string     `json:"postalCode,omitempty" validate:"max=20"`
	ManagerID  *uuid.UUID `json:"managerId,omitempty"`
	OwnerID    *uuid.UUID `json:"ownerId,omitempty"`
}

type UpdateEstateRequest struct {
	Name       string     `json:"name" validate:"required,max=200"`
	Address    string     `json:"address,omitempty" validate:"max=500"`
	City       string     `json:"city,omitempty" validate:"max=100"`
	PostalCode string     `json:"postalCode,omitempty" validate:"max=20"`
	OwnerID    *uuid.UUID `json:"ownerId,omitempty"`
}

type EstateDTO struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Address       string     `json:"address,omitempty"`
	City          string     `json:"city,omitempty"`
	PostalCode    string     `json:"postalCode,omitempty"`
	ManagerID     *uuid.UUID `json:"managerId,omitempty"`
	OwnerID       *uuid.UUID `json:"ownerId,omitempty"`
	PropertyCount int        `json:"propertyCount"`
	CreatedAt     string     `json:"createdAt"`
	UpdatedAt     string     `json:"updatedAt"`
}

// ============================================================================
// Properties
// ============================================================================

type CreatePropertyRequest struct {
	EstateID    *uuid.UUID `json:"estateId,omitempty"`
	OwnerID     uuid.UUID  `json:"ownerId" validate:"required"`
	ManagerID   *uuid.UUID `json:"managerId,omitempty"`
	Title       string     `json:"title" validate:"required,max=200"`
	Address     string     `json:"address" validate:"required,max=500"`
	City        string     `json:"city,omitempty" validate:"max=100"`
	UnitNumber  string     `json:"unitNumber,omitempty" validate:"max=50"`
	AreaSqm     float64    `json:"areaSqm,omitempty" validate:"gte=0"`
	Rooms       int        `json:"rooms,omitempty" validate:"gte=0"`
	MonthlyRent float64    `json:"monthlyRent,omitempty" validate:"gte=0"`
	Description string     `json:"description,omitempty"`
}

type UpdatePropertyRequest struct {
	EstateID    *uuid.UUID     `json:"estateId,omitempty"`
	Title       string         `json:"title" validate:"required,max=200"`
	Address     string         `json:"address" validate:"required,max=500"`
	City        string         `json:"city,omitempty" validate:"max=100"`
	UnitNumber  string         `json:"unitNumber,omitempty" validate:"max=50"`
	AreaSqm     float64        `json:"areaSqm,omitempty" validate:"gte=0"`
	Rooms       int            `json:"rooms,omitempty" validate:"gte=0"`
	MonthlyRent float64        `json:"monthlyRent,omitempty" validate:"gte=0"`
	Description string         `json:"description,omitempty"`
	Status      PropertyStatus `json:"status,omitempty" validate:"omitempty,oneof=AVAILABLE RESERVED"`
}

type PropertyDTO struct {
	ID          uuid.UUID      `json:"id"`
	EstateID    *uuid.UUID     `json:"estateId,omitempty"`
	OwnerID     uuid.UUID      `json:"ownerId"`
	ManagerID   *uuid.UUID     `json:"managerId,omitempty"`
	Title       string         `json:"title"`
	Address     string         `json:"address"`
	City        string         `json:"city,omitempty"`
	UnitNumber  string         `json:"unitNumber,omitempty"`
	AreaSqm     float64        `json:"areaSqm"`
	Rooms       int            `json:"rooms"`
	MonthlyRent float64        `json:"monthlyRent"`
	Status      PropertyStatus `json:"status"`
	Description string         `json:"description,omitempty"`
	CreatedAt   string         `json:"createdAt"`
	UpdatedAt   string         `json:"updatedAt"`
}

// ============================================================================
// Tenants
// ============================================================================

type CreateTenantRequest struct {
	NationalID string `json:"nationalId" validate:"required,max=50"`
	FirstName  string `json:"firstName" validate:"required,max=100"`
	LastName   string `json:"lastName" validate:"required,max=100"`
	Email      string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone      string `json:"phone,omitempty" validate:"max=50"`
}

type UpdateTenantRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone     string `json:"phone,omitempty" validate:"max=50"`
}

type TenantDTO struct {
	ID         uuid.UUID  `json:"id"`
	NationalID string     `json:"nationalId"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	FullName   string     `json:"fullName"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	ManagerID  *uuid.UUID `json:"managerId,omitempty"`
	CreatedAt  string     `json:"createdAt"`
	UpdatedAt  string     `json:"updatedAt"`
}

// ============================================================================
// Contracts
// ============================================================================

type CreateContractRequest struct {
	PropertyID       uuid.UUID        `json:"propertyId" validate:"required"`
	TenantID         uuid.UUID        `json:"tenantId" validate:"required"`
	Price            float64          `json:"price" validate:"gt=0"`
	Deposit          float64          `json:"deposit,omitempty" validate:"gte=0"`
	StartDate        time.Time        `json:"startDate" validate:"required"`
	EndDate          time.Time        `json:"endDate" validate:"required"`
	PaymentFrequency PaymentFrequency `json:"paymentFrequency" validate:"required,oneof=MONTHLY QUARTERLY SEMI_ANNUALLY ANNUALLY"`
	Notes            string           `json:"notes,omitempty"`
}

// UpdateContractRequest carries optional changes; nil fields are left untouched.
// The tenant is fixed for the life of a contract since the portal token is bound to it.
type UpdateContractRequest struct {
	PropertyID       *uuid.UUID        `json:"propertyId,omitempty"`
	Price            *float64          `json:"price,omitempty" validate:"omitempty,gt=0"`
	Deposit          *float64          `json:"deposit,omitempty" validate:"omitempty,gte=0"`
	StartDate        *time.Time        `json:"startDate,omitempty"`
	EndDate          *time.Time        `json:"endDate,omitempty"`
	PaymentFrequency *PaymentFrequency `json:"paymentFrequency,omitempty" validate:"omitempty,oneof=MONTHLY QUARTERLY SEMI_ANNUALLY ANNUALLY"`
	Notes            *string           `json:"notes,omitempty"`
}

type ContractDTO struct {
	ID                uuid.UUID        `json:"id"`
	PropertyID        uuid.UUID        `json:"propertyId"`
	PropertyTitle     string           `json:"propertyTitle,omitempty"`
	TenantID          uuid.UUID        `json:"tenantId"`
	TenantName        string           `json:"tenantName,omitempty"`
	ManagerID         *uuid.UUID       `json:"managerId,omitempty"`
	Price             float64          `json:"price"`
	Deposit           float64          `json:"deposit"`
	StartDate         string           `json:"startDate"`
	EndDate           string           `json:"endDate"`
	PaymentFrequency  PaymentFrequency `json:"paymentFrequency"`
	IsActive          bool             `json:"isActive"`
	TenantPortalToken string           `json:"tenantPortalToken,omitempty"`
	DocumentURL       string           `json:"documentUrl,omitempty"`
	Notes             string           `json:"notes,omitempty"`
	CreatedAt         string           `json:"createdAt"`
	UpdatedAt         string           `json:"updatedAt"`
}

type PortalTokenResponse struct {
	ContractID        uuid.UUID `json:"contractId"`
	TenantPortalToken string    `json:"tenantPortalToken"`
	Version           int       `json:"version"`
}

// ============================================================================
// Maintenance
// ============================================================================

type CreateMaintenanceRequest struct {
	ContractID  uuid.UUID           `json:"contractId" validate:"required"`
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description,omitempty"`
	Images      []string            `json:"images,omitempty" validate:"max=10,dive,url"`
	Priority    MaintenancePriority `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
}

type PortalCreateMaintenanceRequest struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description,omitempty"`
	Images      []string            `json:"images,omitempty" validate:"max=10,dive,url"`
	Priority    MaintenancePriority `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
}

type UpdateMaintenanceRequest struct {
	Status        *MaintenanceStatus `json:"status,omitempty" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
	InternalNotes *string            `json:"internalNotes,omitempty"`
}

type PortalUpdateMaintenanceRequest struct {
	Status MaintenanceStatus `json:"status" validate:"required,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
}

type MaintenanceRequestDTO struct {
	ID            uuid.UUID           `json:"id"`
	ContractID    uuid.UUID           `json:"contractId"`
	TenantID      uuid.UUID           `json:"tenantId"`
	Title         string              `json:"title"`
	Description   string              `json:"description,omitempty"`
	Images        []string            `json:"images"`
	Priority      MaintenancePriority `json:"priority"`
	Status        MaintenanceStatus   `json:"status"`
	InternalNotes string              `json:"internalNotes,omitempty"`
	ReportedVia   string              `json:"reportedVia"`
	ResolvedAt    *string             `json:"resolvedAt,omitempty"`
	CreatedAt     string              `json:"createdAt"`
	UpdatedAt     string              `json:"updatedAt"`
}

// ============================================================================
// Audit
// ============================================================================

// AuditLogDTO is an audit trail entry as returned to admins
type AuditLogDTO struct {
	ID          uuid.UUID       `json:"id"`
	Action      AuditAction     `json:"action"`
	EntityType  string          `json:"entityType"`
	EntityID    *uuid.UUID      `json:"entityId,omitempty"`
	ActorID     string          `json:"actorId,omitempty"`
	ActorEmail  string          `json:"actorEmail,omitempty"`
	ActorRole   string          `json:"actorRole,omitempty"`
	IPAddress   string          `json:"ipAddress,omitempty"`
	RequestID   string          `json:"requestId,omitempty"`
	NewValues   json.RawMessage `json:"newValues" swaggertype:"object"`
	PerformedAt string          `json:"performedAt"`
}

// ============================================================================
// Common
// ============================================================================

// ErrorResponse is kept for simple handler errors outside the typed taxonomy
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// NewPaginatedResponse builds a page envelope and computes the page count
func NewPaginatedResponse(data interface{}, total int64, page, pageSize int) *PaginatedResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
