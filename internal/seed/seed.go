// Package seed inserts the demo users and jobs through the registry, so
// seeded passwords are hashed like any other CreateUser call.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hanpama/jobgraph/internal/entity"
	"github.com/hanpama/jobgraph/internal/registry"
)

// User is a seeded account.
type User struct {
	Name, Email, Password string
}

// Job is a seeded job owned by Users[Owner].
type Job struct {
	Owner             int
	Name, Description string
}

// Users and Jobs are the default seed data.
var (
	Users = []User{
		{Name: "kwen", Email: "email@email.com", Password: "123456"},
		{Name: "kwen2", Email: "email2@email.com", Password: "123456"},
	}
	Jobs = []Job{
		{Owner: 0, Name: "前端开发工程师", Description: "前端前端"},
		{Owner: 1, Name: "PHP开发工程师", Description: "PHP"},
	}
)

// Result counts the records created by Run.
type Result struct {
	Users, Jobs int
}

// Run inserts users and jobs that are not present yet. Users are matched by
// email and jobs by owner and name, so running twice creates nothing new.
func Run(ctx context.Context, reg *registry.Registry, logger *slog.Logger, users []User, jobs []Job) (Result, error) {
	var res Result
	ids := make([]int64, len(users))
	for i, u := range users {
		existing, err := reg.Dispatch(ctx, "users", map[string]any{"email": u.Email, "limit": 1})
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		if found := existing.([]*entity.Object); len(found) > 0 {
			ids[i] = found[0].ID
			logger.DebugContext(ctx, "seed user exists", slog.String("email", u.Email), slog.Int64("id", ids[i]))
			continue
		}
		out, err := reg.Dispatch(ctx, "CreateUser", map[string]any{"name": u.Name, "email": u.Email, "password": u.Password})
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		ids[i] = out.(*entity.Object).ID
		res.Users++
		logger.InfoContext(ctx, "seeded user", slog.String("email", u.Email), slog.Int64("id", ids[i]))
	}

	for _, j := range jobs {
		if j.Owner < 0 || j.Owner >= len(ids) {
			return res, fmt.Errorf("seed job %s: owner index %d out of range", j.Name, j.Owner)
		}
		owner := ids[j.Owner]
		existing, err := reg.Dispatch(ctx, "jobs", map[string]any{"userId": owner, "name": j.Name, "limit": 1})
		if err != nil {
			return res, fmt.Errorf("seed job %s: %w", j.Name, err)
		}
		if len(existing.([]*entity.Object)) > 0 {
			continue
		}
		out, err := reg.Dispatch(ctx, "CreateJob", map[string]any{"userId": owner, "name": j.Name, "description": j.Description})
		if err != nil {
			return res, fmt.Errorf("seed job %s: %w", j.Name, err)
		}
		res.Jobs++
		logger.InfoContext(ctx, "seeded job", slog.String("name", j.Name), slog.Int64("id", out.(*entity.Object).ID))
	}
	return res, nil
}
