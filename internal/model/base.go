package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crm-service/internal/tenant"
)

// BaseEntity is the audit envelope embedded in every persisted record.
// Creation and update stamping happens in the promoted GORM hooks below, so
// no call site can forget it. Rows are never physically removed: IsDeleted
// carries the soft-delete clause machinery (see softdelete.go).
type BaseEntity struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time      `json:"created_at"`
	// autoUpdateTime off: the update hook stamps this, so it stays nil
	// until the first committed update.
	UpdatedAt  *time.Time     `json:"updated_at,omitempty" gorm:"autoUpdateTime:false"`
	CreatedBy  string         `json:"created_by,omitempty" gorm:"type:varchar(100)"`
	UpdatedBy  string         `json:"updated_by,omitempty" gorm:"type:varchar(100)"`
	IsDeleted  SoftDeleteFlag `json:"-" gorm:"index"`
	DeletedAt  *time.Time     `json:"-"`
	DeletedBy  string         `json:"-" gorm:"type:varchar(100)"`
	RowVersion int64          `json:"row_version"`
}

// TenantEntity is the envelope for records owned by a Parent. ParentID is
// stamped from the request's tenant context on create and filtered on every
// read by the tenant scope callback.
type TenantEntity struct {
	BaseEntity
	ParentID uuid.UUID `json:"parent_id" gorm:"type:uuid;index"`
}

// Audited is implemented by every record carrying the audit envelope.
type Audited interface {
	Audit() *BaseEntity
}

// TenantScoped is implemented by records owned by a Parent. The gateway uses
// it to decide which visibility predicates and write hooks apply.
type TenantScoped interface {
	Audited
	TenantKey() *uuid.UUID
}

func (e *BaseEntity) Audit() *BaseEntity { return e }

func (t *TenantEntity) TenantKey() *uuid.UUID { return &t.ParentID }

// BeforeCreate stamps identity and creation audit fields. Caller-supplied
// values for these fields are overwritten.
func (e *BaseEntity) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = tx.NowFunc().UTC()
	e.CreatedBy = tenant.Actor(tx.Statement.Context)
	e.UpdatedAt = nil
	e.UpdatedBy = ""
	e.IsDeleted = false
	e.DeletedAt = nil
	e.DeletedBy = ""
	e.RowVersion = 1
	return nil
}

// BeforeUpdate stamps update audit fields, shields the creation fields from
// modification, and arms the optimistic-concurrency guard: the UPDATE only
// matches the row version that was read, and bumps it on success. A write
// that matches zero rows lost the race (see database.Update).
func (e *BaseEntity) BeforeUpdate(tx *gorm.DB) error {
	current := e.RowVersion
	tx.Statement.AddClause(clause.Where{Exprs: []clause.Expression{
		clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: "row_version"}, Value: current},
	}})
	tx.Statement.SetColumn("row_version", current+1, true)
	tx.Statement.SetColumn("updated_at", tx.NowFunc().UTC(), true)
	tx.Statement.SetColumn("updated_by", tenant.Actor(tx.Statement.Context), true)
	tx.Statement.Omits = append(tx.Statement.Omits, "created_at", "created_by")
	return nil
}

// BeforeCreate forces the owning tenant from the request context. A caller
// cannot plant a record under a foreign Parent by supplying its id.
func (t *TenantEntity) BeforeCreate(tx *gorm.DB) error {
	if err := t.BaseEntity.BeforeCreate(tx); err != nil {
		return err
	}
	if tc, ok := tenant.FromContext(tx.Statement.Context); ok && tc.HasParent() {
		t.ParentID = *tc.ParentID
	}
	return nil
}
