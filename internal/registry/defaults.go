package registry

import (
	"github.com/hanpama/jobgraph/internal/binder"
	"github.com/hanpama/jobgraph/internal/entity"
	"github.com/hanpama/jobgraph/internal/resolver"
	"github.com/hanpama/jobgraph/internal/store"
)

// Entity names exposed by the default registry.
const (
	UserEntity = "User"
	JobEntity  = "Job"
)

type config struct {
	hasher resolver.Hasher
}

// Option customizes New.
type Option func(*config)

// WithHasher replaces the bcrypt password hasher.
func WithHasher(h resolver.Hasher) Option {
	return func(c *config) { c.hasher = h }
}

// UserSchema describes the User entity.
func UserSchema() (*entity.EntitySchema, error) {
	es, err := entity.BuildEntitySchema(UserEntity, []entity.FieldDescriptor{
		entity.Describe("id", entity.Int, false, "User id"),
		entity.Describe("name", entity.String, true, "The name of user"),
		entity.Describe("email", entity.String, true, "The email of user"),
		entity.Describe("created_at", entity.String, true, "Creation datetime"),
		entity.Describe("updated_at", entity.String, true, "Updating datetime"),
		entity.Describe("jobs", entity.ListOf(entity.Ref(JobEntity)), true, "Jobs owned by the user"),
	}, store.KindUser)
	if err != nil {
		return nil, err
	}
	return es.WithDescription("A user"), nil
}

// JobSchema describes the Job entity.
func JobSchema() (*entity.EntitySchema, error) {
	es, err := entity.BuildEntitySchema(JobEntity, []entity.FieldDescriptor{
		entity.Describe("id", entity.Int, false, "Job id"),
		entity.Describe("userId", entity.ID, true, "Id of the owning user"),
		entity.Describe("name", entity.String, true, "Job title"),
		entity.Describe("description", entity.String, true, "Job responsibilities"),
	}, store.KindJob)
	if err != nil {
		return nil, err
	}
	return es.WithDescription("A job"), nil
}

// New builds the Ready registry serving users, jobs, CreateUser, CreateJob
// and UpdateUser against st.
func New(st store.Store, opts ...Option) (*Registry, error) {
	cfg := config{hasher: resolver.BcryptHasher{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := NewRegistry()
	for _, build := range []func() (*entity.EntitySchema, error){UserSchema, JobSchema} {
		es, err := build()
		if err != nil {
			return nil, err
		}
		if err := r.RegisterEntity(es); err != nil {
			return nil, err
		}
	}
	if err := r.RegisterRelation(UserEntity, "jobs", resolver.NewHasMany(st, store.KindJob, "userId")); err != nil {
		return nil, err
	}

	ops := []OperationDescriptor{
		{
			Name:        "users",
			Kind:        Query,
			Description: "List users, optionally filtered by id or email.",
			Arguments: []binder.ArgumentSchema{
				binder.Optional("id", entity.Int, "Match this user id"),
				binder.Optional("email", entity.String, "Match this email"),
				binder.Optional("limit", entity.Int, "Return at most this many users"),
			},
			Result:   Result{Entity: UserEntity, List: true},
			Resolver: resolver.NewQuery(st, store.KindUser),
		},
		{
			Name:        "jobs",
			Kind:        Query,
			Description: "List jobs, optionally filtered by id, name or owner.",
			Arguments: []binder.ArgumentSchema{
				binder.Optional("id", entity.Int, "Match this job id"),
				binder.Optional("name", entity.String, "Match this job title"),
				binder.Optional("userId", entity.ID, "Match jobs owned by this user"),
				binder.Optional("limit", entity.Int, "Return at most this many jobs"),
			},
			Result:   Result{Entity: JobEntity, List: true},
			Resolver: resolver.NewQuery(st, store.KindJob, resolver.WithKey("userId")),
		},
		{
			Name:        "CreateUser",
			Kind:        Mutation,
			Description: "Create a user. The password is stored as a bcrypt hash.",
			Arguments: []binder.ArgumentSchema{
				binder.Required("name", entity.String, ""),
				binder.Required("email", entity.String, ""),
				binder.Required("password", entity.String, ""),
			},
			Result:   Result{Entity: UserEntity},
			Resolver: resolver.NewCreate(st, store.KindUser, resolver.WithPasswordHash("password", cfg.hasher)),
		},
		{
			Name:        "CreateJob",
			Kind:        Mutation,
			Description: "Create a job, attached to an existing user when userId is given.",
			Arguments: []binder.ArgumentSchema{
				binder.Optional("userId", entity.ID, ""),
				binder.Required("name", entity.String, ""),
				binder.Required("description", entity.String, ""),
			},
			Result:   Result{Entity: JobEntity},
			Resolver: resolver.NewCreate(st, store.KindJob, resolver.WithOwner("userId", store.KindUser)),
		},
		{
			Name:        "UpdateUser",
			Kind:        Mutation,
			Description: "Overwrite the name and email of a user.",
			Arguments: []binder.ArgumentSchema{
				binder.Required("id", entity.Int, ""),
				binder.Required("name", entity.String, ""),
				binder.Required("email", entity.String, ""),
			},
			Result:   Result{Entity: UserEntity},
			Resolver: resolver.NewUpdate(st, store.KindUser, "id"),
		},
	}
	for _, op := range ops {
		if err := r.Register(op); err != nil {
			return nil, err
		}
	}
	if err := r.Seal(); err != nil {
		return nil, err
	}
	return r, nil
}
