package domain

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns a new ID when none was set by the caller
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// UserRole represents the role of a staff principal
type UserRole string

const (
	RoleAdmin           UserRole = "ADMIN"
	RolePropertyManager UserRole = "PROPERTY_MANAGER"
	RolePropertyOwner   UserRole = "PROPERTY_OWNER"
)

// IsValid reports whether the role is one of the known staff roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RolePropertyManager, RolePropertyOwner:
		return true
	}
	return false
}

// User is a staff principal: admin, property manager or property owner
type User struct {
	BaseModel
	Email        string   `gorm:"type:varchar(255);not null;uniqueIndex"`
	DisplayName  string   `gorm:"type:varchar(200);not null;column:display_name"`
	PasswordHash string   `gorm:"type:varchar(255);not null;column:password_hash"`
	Role         UserRole `gorm:"type:varchar(50);not null;index"`
	Phone        string   `gorm:"type:varchar(50)"`
	IsActive     bool     `gorm:"not null;default:true;column:is_active"`
	LastLoginAt  *time.Time
}

// Estate groups properties (a building, a complex or a plot)
type Estate struct {
	BaseModel
	Name       string     `gorm:"type:varchar(200);not null;index"`
	Address    string     `gorm:"type:varchar(500)"`
	City       string     `gorm:"type:varchar(100)"`
	PostalCode string     `gorm:"type:varchar(20);column:postal_code"`
	ManagerID  *uuid.UUID `gorm:"type:uuid;column:manager_id;index"`
	OwnerID    *uuid.UUID `gorm:"type:uuid;column:owner_id;index"`
}

// PropertyStatus represents the occupancy status of a property
type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "AVAILABLE"
	PropertyStatusReserved  PropertyStatus = "RESERVED"
	PropertyStatusRented    PropertyStatus = "RENTED"
)

// IsValid checks if the status is a known property status
func (s PropertyStatus) IsValid() bool {
	switch s {
	case PropertyStatusAvailable, PropertyStatusReserved, PropertyStatusRented:
		return true
	}
	return false
}

// Property is a rentable unit. Status is RENTED exactly while an active
// contract references it; RESERVED is only ever set by staff.
type Property struct {
	BaseModel
	EstateID    *uuid.UUID     `gorm:"type:uuid;column:estate_id;index"`
	Estate      *Estate        `gorm:"foreignKey:EstateID"`
	OwnerID     uuid.UUID      `gorm:"type:uuid;not null;column:owner_id;index"`
	Owner       *User          `gorm:"foreignKey:OwnerID"`
	ManagerID   *uuid.UUID     `gorm:"type:uuid;column:manager_id;index"`
	Title       string         `gorm:"type:varchar(200);not null"`
	Address     string         `gorm:"type:varchar(500);not null"`
	City        string         `gorm:"type:varchar(100)"`
	UnitNumber  string         `gorm:"type:varchar(50);column:unit_number"`
	AreaSqm     float64        `gorm:"type:decimal(10,2);column:area_sqm"`
	Rooms       int            `gorm:"not null;default:0"`
	MonthlyRent float64        `gorm:"type:decimal(15,2);column:monthly_rent"`
	Status      PropertyStatus `gorm:"type:varchar(20);not null;default:'AVAILABLE';index"`
	Description string         `gorm:"type:text"`
}

// Tenant is a person renting a property. NationalID is the identity the
// portal token is bound to.
type Tenant struct {
	BaseModel
	NationalID string     `gorm:"type:varchar(50);not null;uniqueIndex;column:national_id"`
	FirstName  string     `gorm:"type:varchar(100);not null;column:first_name"`
	LastName   string     `gorm:"type:varchar(100);not null;column:last_name"`
	Email      string     `gorm:"type:varchar(255)"`
	Phone      string     `gorm:"type:varchar(50)"`
	ManagerID  *uuid.UUID `gorm:"type:uuid;column:manager_id;index"`
}

// FullName returns the tenant's full name
func (t *Tenant) FullName() string {
	return t.FirstName + " " + t.LastName
}

// PaymentFrequency represents how often rent is due
type PaymentFrequency string

const (
	PaymentFrequencyMonthly      PaymentFrequency = "MONTHLY"
	PaymentFrequencyQuarterly    PaymentFrequency = "QUARTERLY"
	PaymentFrequencySemiAnnually PaymentFrequency = "SEMI_ANNUALLY"
	PaymentFrequencyAnnually     PaymentFrequency = "ANNUALLY"
)

// MonthsPerPeriod returns the number of months covered by one payment
func (f PaymentFrequency) MonthsPerPeriod() int {
	switch f {
	case PaymentFrequencyQuarterly:
		return 3
	case PaymentFrequencySemiAnnually:
		return 6
	case PaymentFrequencyAnnually:
		return 12
	default:
		return 1
	}
}

// Contract is a lease of one property to one tenant
type Contract struct {
	BaseModel
	PropertyID         uuid.UUID        `gorm:"type:uuid;not null;column:property_id;index"`
	Property           *Property        `gorm:"foreignKey:PropertyID"`
	TenantID           uuid.UUID        `gorm:"type:uuid;not null;column:tenant_id;index"`
	Tenant             *Tenant          `gorm:"foreignKey:TenantID"`
	ManagerID          *uuid.UUID       `gorm:"type:uuid;column:manager_id;index"`
	Price              float64          `gorm:"type:decimal(15,2);not null"`
	Deposit            float64          `gorm:"type:decimal(15,2);not null;default:0"`
	StartDate          time.Time        `gorm:"not null;column:start_date"`
	EndDate            time.Time        `gorm:"not null;column:end_date;index"`
	PaymentFrequency   PaymentFrequency `gorm:"type:varchar(20);not null;column:payment_frequency"`
	TenantPortalToken  string           `gorm:"type:text;column:tenant_portal_token"`
	PortalTokenVersion int              `gorm:"not null;default:1;column:portal_token_version"`
	DocumentURL        string           `gorm:"type:varchar(500);column:document_url"`
	Notes              string           `gorm:"type:text"`
}

// IsActiveAt reports whether the contract is active at the given instant
func (c *Contract) IsActiveAt(now time.Time) bool {
	return !c.EndDate.Before(now)
}

// MaintenanceStatus represents the lifecycle state of a maintenance request
type MaintenanceStatus string

const (
	MaintenanceStatusPending    MaintenanceStatus = "PENDING"
	MaintenanceStatusInProgress MaintenanceStatus = "IN_PROGRESS"
	MaintenanceStatusCompleted  MaintenanceStatus = "COMPLETED"
	MaintenanceStatusCancelled  MaintenanceStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are possible
func (s MaintenanceStatus) IsTerminal() bool {
	return s == MaintenanceStatusCompleted || s == MaintenanceStatusCancelled
}

// MaintenancePriority represents the urgency of a maintenance request
type MaintenancePriority string

const (
	MaintenancePriorityLow    MaintenancePriority = "LOW"
	MaintenancePriorityMedium MaintenancePriority = "MEDIUM"
	MaintenancePriorityHigh   MaintenancePriority = "HIGH"
	MaintenancePriorityUrgent MaintenancePriority = "URGENT"
)

// ImageList is a list of image URLs stored as a postgres text array
type ImageList []string

func (l ImageList) Value() (driver.Value, error) {
	return pq.StringArray(l).Value()
}

func (l *ImageList) Scan(src interface{}) error {
	return (*pq.StringArray)(l).Scan(src)
}

// GormDataType is the generic type gorm uses while parsing the schema
func (ImageList) GormDataType() string {
	return "text"
}

// GormDBDataType falls back to plain text on dialects without array types
func (ImageList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// MaintenanceRequest is a repair or service request raised against a contract
type MaintenanceRequest struct {
	BaseModel
	ContractID    uuid.UUID           `gorm:"type:uuid;not null;column:contract_id;index"`
	Contract      *Contract           `gorm:"foreignKey:ContractID"`
	TenantID      uuid.UUID           `gorm:"type:uuid;not null;column:tenant_id;index"`
	Title         string              `gorm:"type:varchar(200);not null"`
	Description   string              `gorm:"type:text"`
	Images        ImageList           `gorm:"column:images"`
	Priority      MaintenancePriority `gorm:"type:varchar(20);not null;default:'MEDIUM'"`
	Status        MaintenanceStatus   `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	InternalNotes string              `gorm:"type:text;column:internal_notes"`
	ReportedVia   string              `gorm:"type:varchar(20);not null;default:'staff';column:reported_via"`
	ResolvedAt    *time.Time          `gorm:"column:resolved_at"`
}

// TableName pins the table name for maintenance requests
func (MaintenanceRequest) TableName() string {
	return "maintenance_requests"
}

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionLogin  AuditAction = "login"
	AuditActionRead   AuditAction = "read"
)

// AuditLog is an append-only record of a mutation
type AuditLog struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Action      AuditAction `gorm:"type:varchar(20);not null;index"`
	EntityType  string      `gorm:"type:varchar(50);not null;column:entity_type;index"`
	EntityID    *uuid.UUID  `gorm:"type:uuid;column:entity_id;index"`
	ActorID     string      `gorm:"type:varchar(100);column:actor_id;index"`
	ActorEmail  string      `gorm:"type:varchar(255);column:actor_email"`
	ActorRole   string      `gorm:"type:varchar(50);column:actor_role"`
	IPAddress   string      `gorm:"type:varchar(64);column:ip_address"`
	UserAgent   string      `gorm:"type:varchar(500);column:user_agent"`
	RequestID   string      `gorm:"type:varchar(100);column:request_id"`
	NewValues   string      `gorm:"type:text;column:new_values"`
	PerformedAt time.Time   `gorm:"not null;column:performed_at;index"`
}

// BeforeCreate assigns an ID to new audit entries
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
