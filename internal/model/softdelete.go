package model

import (
	"database/sql/driver"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"crm-service/internal/tenant"
)

// SoftDeleteFlag marks a row as deleted instead of removing it. The clause
// hooks below plug into GORM's statement builder the same way gorm.DeletedAt
// does: reads only see live rows, updates cannot touch deleted rows, and a
// DELETE is rewritten into an UPDATE that stamps is_deleted, deleted_at and
// deleted_by.
type SoftDeleteFlag bool

// Scan accepts the boolean representations the supported drivers hand back
// (postgres returns bool, sqlite an integer).
func (f *SoftDeleteFlag) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*f = false
	case bool:
		*f = SoftDeleteFlag(v)
	case int64:
		*f = v != 0
	default:
		return fmt.Errorf("unsupported value %v (%T) for soft delete flag", value, value)
	}
	return nil
}

func (f SoftDeleteFlag) Value() (driver.Value, error) {
	return bool(f), nil
}

func (SoftDeleteFlag) QueryClauses(f *schema.Field) []clause.Interface {
	return []clause.Interface{softDeleteQueryClause{field: f}}
}

func (SoftDeleteFlag) UpdateClauses(f *schema.Field) []clause.Interface {
	return []clause.Interface{softDeleteUpdateClause{field: f}}
}

func (SoftDeleteFlag) DeleteClauses(f *schema.Field) []clause.Interface {
	return []clause.Interface{softDeleteDeleteClause{field: f}}
}

type softDeleteQueryClause struct {
	field *schema.Field
}

func (sd softDeleteQueryClause) Name() string                   { return "" }
func (sd softDeleteQueryClause) Build(clause.Builder)           {}
func (sd softDeleteQueryClause) MergeClause(*clause.Clause)     {}
func (sd softDeleteQueryClause) ModifyStatement(stmt *gorm.Statement) {
	if _, ok := stmt.Clauses["soft_delete_enabled"]; ok || stmt.Unscoped {
		return
	}

	// Wrap pre-existing OR conditions so the visibility predicate composes
	// with AND (mirrors gorm's own soft delete handling).
	if c, ok := stmt.Clauses["WHERE"]; ok {
		if where, ok := c.Expression.(clause.Where); ok && len(where.Exprs) >= 1 {
			for _, expr := range where.Exprs {
				if orCond, ok := expr.(clause.OrConditions); ok && len(orCond.Exprs) == 1 {
					where.Exprs = []clause.Expression{clause.And(where.Exprs...)}
					c.Expression = where
					stmt.Clauses["WHERE"] = c
					break
				}
			}
		}
	}

	stmt.AddClause(clause.Where{Exprs: []clause.Expression{
		clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: sd.field.DBName}, Value: false},
	}})
	stmt.Clauses["soft_delete_enabled"] = clause.Clause{}
}

type softDeleteUpdateClause struct {
	field *schema.Field
}

func (sd softDeleteUpdateClause) Name() string               { return "" }
func (sd softDeleteUpdateClause) Build(clause.Builder)       {}
func (sd softDeleteUpdateClause) MergeClause(*clause.Clause) {}
func (sd softDeleteUpdateClause) ModifyStatement(stmt *gorm.Statement) {
	if stmt.SQL.Len() == 0 {
		softDeleteQueryClause(sd).ModifyStatement(stmt)
	}
}

type softDeleteDeleteClause struct {
	field *schema.Field
}

func (sd softDeleteDeleteClause) Name() string               { return "" }
func (sd softDeleteDeleteClause) Build(clause.Builder)       {}
func (sd softDeleteDeleteClause) MergeClause(*clause.Clause) {}

// ModifyStatement turns the pending DELETE into an UPDATE carrying the
// soft-delete stamp. The actor comes from the request context, the same
// resolution the create/update hooks use.
func (sd softDeleteDeleteClause) ModifyStatement(stmt *gorm.Statement) {
	if stmt.SQL.Len() != 0 || stmt.Unscoped {
		return
	}

	now := stmt.DB.NowFunc().UTC()
	actor := tenant.Actor(stmt.Context)

	set := clause.Set{{Column: clause.Column{Name: sd.field.DBName}, Value: true}}
	stmt.SetColumn(sd.field.DBName, true, true)

	if f := stmt.Schema.LookUpField("DeletedAt"); f != nil {
		set = append(set, clause.Assignment{Column: clause.Column{Name: f.DBName}, Value: now})
		stmt.SetColumn(f.DBName, now, true)
	}
	if f := stmt.Schema.LookUpField("DeletedBy"); f != nil {
		set = append(set, clause.Assignment{Column: clause.Column{Name: f.DBName}, Value: actor})
		stmt.SetColumn(f.DBName, actor, true)
	}
	stmt.AddClause(set)

	if stmt.Schema != nil {
		_, queryValues := schema.GetIdentityFieldValuesMap(stmt.Context, stmt.ReflectValue, stmt.Schema.PrimaryFields)
		column, values := schema.ToQueryValues(stmt.Table, stmt.Schema.PrimaryFieldDBNames, queryValues)
		if len(values) > 0 {
			stmt.AddClause(clause.Where{Exprs: []clause.Expression{clause.IN{Column: column, Values: values}}})
		}

		if stmt.ReflectValue.CanAddr() && stmt.Dest != stmt.Model && stmt.Model != nil {
			_, queryValues = schema.GetIdentityFieldValuesMap(stmt.Context, reflect.ValueOf(stmt.Model), stmt.Schema.PrimaryFields)
			column, values = schema.ToQueryValues(stmt.Table, stmt.Schema.PrimaryFieldDBNames, queryValues)
			if len(values) > 0 {
				stmt.AddClause(clause.Where{Exprs: []clause.Expression{clause.IN{Column: column, Values: values}}})
			}
		}
	}

	softDeleteQueryClause(sd).ModifyStatement(stmt)
	stmt.AddClauseIfNotExists(clause.Update{})
	stmt.Build(stmt.DB.Callback().Update().Clauses...)
}
