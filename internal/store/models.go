package store

import (
	"fmt"
	"time"
)

// User is a persisted account. Password holds the bcrypt hash only.
type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:255;not null"`
	Email     string `gorm:"size:255;index"`
	Password  string `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Job belongs to at most one user through UserID.
type Job struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	UserID      *int64 `gorm:"index"`
	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (u *User) RecordKind() Kind { return KindUser }
func (u *User) RecordID() int64  { return u.ID }

func (u *User) Attr(name string) (any, bool) {
	switch name {
	case "id":
		return u.ID, true
	case "name":
		return u.Name, true
	case "email":
		return u.Email, true
	case "password":
		return u.Password, true
	case "created_at":
		return u.CreatedAt, true
	case "updated_at":
		return u.UpdatedAt, true
	}
	return nil, false
}

func (u *User) set(name string, v any) error {
	switch name {
	case "name":
		return assignString(&u.Name, name, v)
	case "email":
		return assignString(&u.Email, name, v)
	case "password":
		return assignString(&u.Password, name, v)
	}
	return fmt.Errorf("attribute %q is not writable on %s", name, KindUser)
}

func (j *Job) RecordKind() Kind { return KindJob }
func (j *Job) RecordID() int64  { return j.ID }

func (j *Job) Attr(name string) (any, bool) {
	switch name {
	case "id":
		return j.ID, true
	case "userId":
		if j.UserID == nil {
			return nil, true
		}
		return *j.UserID, true
	case "name":
		return j.Name, true
	case "description":
		return j.Description, true
	case "created_at":
		return j.CreatedAt, true
	case "updated_at":
		return j.UpdatedAt, true
	}
	return nil, false
}

func (j *Job) set(name string, v any) error {
	switch name {
	case "name":
		return assignString(&j.Name, name, v)
	case "description":
		return assignString(&j.Description, name, v)
	case "userId":
		if v == nil {
			j.UserID = nil
			return nil
		}
		id, err := toKey(v)
		if err != nil {
			return fmt.Errorf("attribute %q: %w", name, err)
		}
		j.UserID = &id
		return nil
	}
	return fmt.Errorf("attribute %q is not writable on %s", name, KindJob)
}

type settable interface {
	Record
	set(name string, v any) error
}

func newRecord(kind Kind) (settable, error) {
	switch kind {
	case KindUser:
		return &User{}, nil
	case KindJob:
		return &Job{}, nil
	}
	return nil, fmt.Errorf("unknown record kind %q", kind)
}

// columns maps public attribute names onto table columns. Only listed
// attributes can be filtered on.
var columns = map[Kind]map[string]string{
	KindUser: {
		"id":         "id",
		"name":       "name",
		"email":      "email",
		"created_at": "created_at",
		"updated_at": "updated_at",
	},
	KindJob: {
		"id":          "id",
		"userId":      "user_id",
		"name":        "name",
		"description": "description",
	},
}

func column(kind Kind, attr string) (string, error) {
	col, ok := columns[kind][attr]
	if !ok {
		return "", fmt.Errorf("attribute %q is not filterable on %s", attr, kind)
	}
	return col, nil
}

func assignString(dst *string, name string, v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("attribute %q: expected string, got %T", name, v)
	}
	*dst = s
	return nil
}

func toKey(v any) (int64, error) {
	switch k := v.(type) {
	case int64:
		return k, nil
	case int:
		return int64(k), nil
	case int32:
		return int64(k), nil
	}
	return 0, fmt.Errorf("expected integer key, got %T", v)
}
