package seed

import (
	"context"
	"fmt"
	"sort"

	"jengamate/backend/internal/logger"
	"jengamate/backend/internal/utils"

	"cloud.google.com/go/firestore"
)

// Writer replaces whole documents.
type Writer interface {
	Set(ctx context.Context, collection, id string, data any) error
}

// Result counts documents written per collection.
type Result map[string]int

type Seeder struct {
	w    Writer
	logg *logger.Logger
}

func New(w Writer, logg *logger.Logger) *Seeder {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Seeder{w: w, logg: logg}
}

// Run writes every reference document. It stops at the first failed write;
// rerunning is safe because every id is deterministic.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	res := Result{}
	steps := []func(context.Context, Result) error{
		s.commissionTiers,
		s.categories,
		s.systemConfig,
		s.rolePermissions,
	}
	for _, step := range steps {
		if err := step(ctx, res); err != nil {
			return res, err
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		CommissionTiersCollection: res[CommissionTiersCollection],
		CategoriesCollection:      res[CategoriesCollection],
		RolePermissionsCollection: res[RolePermissionsCollection],
	}), "database initialization completed")
	return res, nil
}

func (s *Seeder) put(ctx context.Context, res Result, collection, id string, data any) error {
	if err := s.w.Set(ctx, collection, id, data); err != nil {
		return fmt.Errorf("writing %s/%s: %w", collection, id, err)
	}
	res[collection]++
	s.logg.Debug(s.logg.WithField(ctx, "doc", collection+"/"+id), "seeded")
	return nil
}

func (s *Seeder) commissionTiers(ctx context.Context, res Result) error {
	for _, t := range DefaultCommissionTiers {
		if err := s.put(ctx, res, CommissionTiersCollection, t.DocID(), t); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) categories(ctx context.Context, res Result) error {
	for _, c := range DefaultCategories {
		nameLower := utils.NormalizeNameLower(c.Name)
		slug := utils.Slugify(c.Name)
		doc := map[string]any{
			"name":        c.Name,
			"description": c.Description,
			"nameLower":   nameLower,
			"slug":        slug,
			"keywords":    utils.Keywords(nameLower, slug),
			"isActive":    true,
			"createdAt":   firestore.ServerTimestamp,
			"updatedAt":   firestore.ServerTimestamp,
		}
		if err := s.put(ctx, res, CategoriesCollection, utils.SnakeID(c.Name), doc); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) systemConfig(ctx context.Context, res Result) error {
	doc := defaultSystemConfig()
	doc["last_sync"] = firestore.ServerTimestamp
	return s.put(ctx, res, SystemConfigCollection, AppConfigDoc, doc)
}

func (s *Seeder) rolePermissions(ctx context.Context, res Result) error {
	roles := make([]string, 0, len(DefaultRolePermissions))
	for role := range DefaultRolePermissions {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		if err := s.put(ctx, res, RolePermissionsCollection, role, DefaultRolePermissions[role]); err != nil {
			return err
		}
	}
	return nil
}
