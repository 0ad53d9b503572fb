package database

import (
	"github.com/huandu/go-sqlbuilder"
)

// TenantColumn scopes every client-owned row to a broker
const TenantColumn = "tenant_id"

// SelectBuilder is a PostgreSQL select builder with tenant scoping
type SelectBuilder struct {
	*sqlbuilder.SelectBuilder
}

func NewSelectBuilder() *SelectBuilder {
	return &SelectBuilder{sqlbuilder.PostgreSQL.NewSelectBuilder()}
}

// ForTenant restricts the query to rows owned by tenantID
func (sb *SelectBuilder) ForTenant(tenantID string) *SelectBuilder {
	sb.Where(sb.Equal(TenantColumn, tenantID))
	return sb
}

// WhereIn adds "column IN (...)" for a list of ids
func (sb *SelectBuilder) WhereIn(column string, ids []string) *SelectBuilder {
	sb.Where(sb.In(column, Args(ids)...))
	return sb
}

type UpdateBuilder struct {
	*sqlbuilder.UpdateBuilder
}

func NewUpdateBuilder() *UpdateBuilder {
	return &UpdateBuilder{sqlbuilder.PostgreSQL.NewUpdateBuilder()}
}

func (ub *UpdateBuilder) ForTenant(tenantID string) *UpdateBuilder {
	ub.Where(ub.Equal(TenantColumn, tenantID))
	return ub
}

func (ub *UpdateBuilder) WhereIn(column string, ids []string) *UpdateBuilder {
	ub.Where(ub.In(column, Args(ids)...))
	return ub
}

type DeleteBuilder struct {
	*sqlbuilder.DeleteBuilder
}

func NewDeleteBuilder() *DeleteBuilder {
	return &DeleteBuilder{sqlbuilder.PostgreSQL.NewDeleteBuilder()}
}

func (db *DeleteBuilder) ForTenant(tenantID string) *DeleteBuilder {
	db.Where(db.Equal(TenantColumn, tenantID))
	return db
}

func (db *DeleteBuilder) WhereIn(column string, ids []string) *DeleteBuilder {
	db.Where(db.In(column, Args(ids)...))
	return db
}

type InsertBuilder struct {
	*sqlbuilder.InsertBuilder
}

func NewInsertBuilder() *InsertBuilder {
	return &InsertBuilder{sqlbuilder.PostgreSQL.NewInsertBuilder()}
}

// Struct maps a db-tagged model to its columns
type Struct struct {
	*sqlbuilder.Struct
}

func NewStruct(v any) *Struct {
	return &Struct{sqlbuilder.NewStruct(v).For(sqlbuilder.PostgreSQL)}
}

// SelectFrom selects every db-tagged field of the model
func (s *Struct) SelectFrom(table string) *SelectBuilder {
	return &SelectBuilder{s.Struct.SelectFrom(table)}
}

// Args widens a typed slice for builder helpers such as In
func Args[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
