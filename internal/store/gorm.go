package store

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	eventbus "github.com/hanpama/jobgraph/internal/eventbus"
	events "github.com/hanpama/jobgraph/internal/events"
)

// GormStore implements Store using GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB returns the underlying handle.
func (s *GormStore) DB() *gorm.DB { return s.db }

// Migrate creates the users and jobs tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&User{}, &Job{})
}

// Find loads one record by primary key. A missing record is not an error.
func (s *GormStore) Find(ctx context.Context, kind Kind, id int64) (Record, bool, error) {
	var rec Record
	found := false
	err := s.observe(ctx, "find", kind, func() error {
		m, err := newRecord(kind)
		if err != nil {
			return err
		}
		res := s.db.WithContext(ctx).Limit(1).Find(m, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		rec, found = m, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return rec, found, nil
}

// FindAll returns every record matching all filters, ordered by id.
// A negative limit means no limit.
func (s *GormStore) FindAll(ctx context.Context, kind Kind, filters []Filter, limit int) ([]Record, error) {
	var out []Record
	err := s.observe(ctx, "find_all", kind, func() error {
		q := s.db.WithContext(ctx)
		for _, f := range filters {
			col, err := column(kind, f.Attr)
			if err != nil {
				return err
			}
			if keys, ok := f.Value.([]int64); ok {
				q = q.Where(col+" IN ?", keys)
				continue
			}
			q = q.Where(col+" = ?", f.Value)
		}
		q = q.Order("id ASC")
		if limit == 0 {
			return nil
		}
		if limit > 0 {
			q = q.Limit(limit)
		}
		switch kind {
		case KindUser:
			var rows []*User
			if err := q.Find(&rows).Error; err != nil {
				return err
			}
			for _, r := range rows {
				out = append(out, r)
			}
		case KindJob:
			var rows []*Job
			if err := q.Find(&rows).Error; err != nil {
				return err
			}
			for _, r := range rows {
				out = append(out, r)
			}
		default:
			_, err := newRecord(kind)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Record{}
	}
	return out, nil
}

// Insert creates a record from the given attributes.
func (s *GormStore) Insert(ctx context.Context, kind Kind, fields map[string]any) (Record, error) {
	var rec Record
	err := s.observe(ctx, "insert", kind, func() error {
		m, err := newRecord(kind)
		if err != nil {
			return err
		}
		for name, v := range fields {
			if err := m.set(name, v); err != nil {
				return err
			}
		}
		if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
			return err
		}
		rec = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Update overwrites the given attributes of an existing record.
func (s *GormStore) Update(ctx context.Context, kind Kind, id int64, fields map[string]any) (Record, error) {
	var rec Record
	err := s.observe(ctx, "update", kind, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			m, err := newRecord(kind)
			if err != nil {
				return err
			}
			if err := tx.First(m, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &NotFoundError{Kind: kind, ID: id}
				}
				return err
			}
			for name, v := range fields {
				if err := m.set(name, v); err != nil {
					return err
				}
			}
			if err := tx.Save(m).Error; err != nil {
				return err
			}
			rec = m
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Associate sets the owner of a job.
func (s *GormStore) Associate(ctx context.Context, parentID, childID int64) error {
	return s.observe(ctx, "associate", KindJob, func() error {
		res := s.db.WithContext(ctx).
			Model(&Job{}).
			Where("id = ?", childID).
			Updates(map[string]any{
				"user_id":    parentID,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Kind: KindJob, ID: childID}
		}
		return nil
	})
}

// WithTx runs fn against a store bound to a single transaction. The
// transaction is rolled back if fn returns an error.
func (s *GormStore) WithTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

var calls atomic.Uint64

// observe publishes store events around op and wraps database failures in
// PersistenceError. NotFoundError passes through unchanged.
func (s *GormStore) observe(ctx context.Context, op string, kind Kind, fn func() error) error {
	call := calls.Add(1)
	start := time.Now()
	eventbus.Publish(ctx, events.StoreStart{Call: call, Op: op, Kind: string(kind)})
	err := fn()
	var nf *NotFoundError
	if err != nil && !errors.As(err, &nf) {
		err = &PersistenceError{Op: op, Kind: kind, Err: err}
	}
	eventbus.Publish(ctx, events.StoreFinish{Call: call, Op: op, Kind: string(kind), Err: err, Duration: time.Since(start)})
	return err
}
