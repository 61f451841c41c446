// Package scope maps an actor (role and id) to the slice of each entity kind
// that actor may read or mutate. Predicates are rendered into gorm queries.
package scope

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
	"gorm.io/gorm"
)

// EntityKind identifies the table a predicate applies to
type EntityKind string

const (
	KindProperty    EntityKind = "property"
	KindEstate      EntityKind = "estate"
	KindTenant      EntityKind = "tenant"
	KindContract    EntityKind = "contract"
	KindMaintenance EntityKind = "maintenance"
)

// Predicate is a query restriction derived from an actor
type Predicate struct {
	all   bool
	none  bool
	query string
	args  []interface{}
}

// All matches every record
func All() Predicate { return Predicate{all: true} }

// None matches no record
func None() Predicate { return Predicate{none: true} }

// IsAll reports whether the predicate is unrestricted
func (p Predicate) IsAll() bool { return p.all }

// IsNone reports whether the predicate can never match; callers should
// return an empty result without querying.
func (p Predicate) IsNone() bool { return p.none || (!p.all && p.query == "") }

// Apply adds the predicate to a query
func (p Predicate) Apply(db *gorm.DB) *gorm.DB {
	switch {
	case p.all:
		return db
	case p.IsNone():
		return db.Where("1 = 0")
	default:
		return db.Where(p.query, p.args...)
	}
}

// Resolver builds predicates. It holds no state besides the clock.
type Resolver struct {
	Now func() time.Time
}

// NewResolver returns a resolver using the wall clock
func NewResolver() *Resolver {
	return &Resolver{Now: func() time.Time { return time.Now().UTC() }}
}

func (r *Resolver) now() time.Time {
	if r == nil || r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now()
}

// Filter returns the predicate for the given entity kind and actor. Unknown
// roles and kinds get the match-none predicate, never an error.
func (r *Resolver) Filter(kind EntityKind, role domain.UserRole, actorID uuid.UUID) Predicate {
	switch role {
	case domain.RoleAdmin:
		switch kind {
		case KindProperty, KindEstate, KindTenant, KindContract, KindMaintenance:
			return All()
		}
		return None()
	case domain.RolePropertyManager:
		return managerFilter(kind, actorID)
	case domain.RolePropertyOwner:
		return ownerFilter(kind, actorID, r.now())
	default:
		return None()
	}
}

func managerFilter(kind EntityKind, actorID uuid.UUID) Predicate {
	switch kind {
	case KindProperty:
		return Predicate{query: "properties.manager_id = ?", args: []interface{}{actorID}}
	case KindEstate:
		return Predicate{query: "estates.manager_id = ?", args: []interface{}{actorID}}
	case KindTenant:
		return Predicate{query: "tenants.manager_id = ?", args: []interface{}{actorID}}
	case KindContract:
		return Predicate{query: "contracts.manager_id = ?", args: []interface{}{actorID}}
	case KindMaintenance:
		return Predicate{
			query: "maintenance_requests.contract_id IN (SELECT mc.id FROM contracts mc WHERE mc.manager_id = ?)",
			args:  []interface{}{actorID},
		}
	}
	return None()
}

// Owners have no direct foreign key on contracts, maintenance or tenants, so
// every owner predicate traverses through properties.owner_id.
func ownerFilter(kind EntityKind, actorID uuid.UUID, now time.Time) Predicate {
	switch kind {
	case KindProperty:
		return Predicate{query: "properties.owner_id = ?", args: []interface{}{actorID}}
	case KindEstate:
		return Predicate{
			query: "(estates.owner_id = ? OR estates.id IN (SELECT op.estate_id FROM properties op WHERE op.owner_id = ? AND op.estate_id IS NOT NULL))",
			args:  []interface{}{actorID, actorID},
		}
	case KindContract:
		return Predicate{
			query: "contracts.property_id IN (SELECT op.id FROM properties op WHERE op.owner_id = ?)",
			args:  []interface{}{actorID},
		}
	case KindMaintenance:
		return Predicate{
			query: "maintenance_requests.contract_id IN (SELECT oc.id FROM contracts oc JOIN properties op ON op.id = oc.property_id WHERE op.owner_id = ?)",
			args:  []interface{}{actorID},
		}
	case KindTenant:
		// lapsed tenants drop out of the owner's view once their last lease ends
		return Predicate{
			query: "tenants.id IN (SELECT oc.tenant_id FROM contracts oc JOIN properties op ON op.id = oc.property_id WHERE op.owner_id = ? AND oc.end_date >= ?)",
			args:  []interface{}{actorID, now},
		}
	}
	return None()
}
