// Package store is the persistence collaborator behind the resolvers.
// Records are addressed by kind and integer primary key; attribute names are
// the public field names (e.g. "userId"), never raw column names.
package store

import (
	"context"
	"fmt"
)

// Kind identifies a persisted record type.
type Kind string

const (
	KindUser Kind = "User"
	KindJob  Kind = "Job"
)

// NoLimit disables the result-count limit in FindAll.
const NoLimit = -1

// Record is a persisted entity instance.
type Record interface {
	RecordKind() Kind
	RecordID() int64
	// Attr returns the value of a named attribute.
	Attr(name string) (any, bool)
}

// Filter is an equality predicate on one attribute. A []int64 value matches
// any of the listed keys.
type Filter struct {
	Attr  string
	Value any
}

// Store is the persistence interface consumed by resolvers. Each call is
// atomic on its own; WithTx groups calls into one transaction.
type Store interface {
	Find(ctx context.Context, kind Kind, id int64) (Record, bool, error)
	FindAll(ctx context.Context, kind Kind, filters []Filter, limit int) ([]Record, error)
	Insert(ctx context.Context, kind Kind, fields map[string]any) (Record, error)
	Update(ctx context.Context, kind Kind, id int64, fields map[string]any) (Record, error)
	// Associate links the child job to its parent user.
	Associate(ctx context.Context, parentID, childID int64) error
	WithTx(ctx context.Context, fn func(Store) error) error
}

// NotFoundError reports a referenced record that does not exist.
type NotFoundError struct {
	Kind Kind
	ID   any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Kind, e.ID)
}

func (e *NotFoundError) Code() string { return "NOT_FOUND" }

// PersistenceError wraps a failure reported by the database.
type PersistenceError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Code() string { return "PERSISTENCE_ERROR" }
