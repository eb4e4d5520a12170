// Package inventory keeps the vehicles a yard currently holds. Only vehicles
// with a checksum-valid VIN are admitted.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/towline/engine/domain"
	"github.com/WessleyAI/towline/engine/vin"
	"github.com/WessleyAI/towline/pkg/repo"
)

const label = "Vehicle"

var (
	ErrDuplicate = errors.New("inventory: vehicle already held")
	ErrNotFound  = errors.New("inventory: vehicle not found")
)

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Make     string
	TenantID string
	Offset   int
	Limit    int
}

// Store is the Neo4j-backed vehicle inventory.
type Store struct {
	repo *repo.Neo4jRepo[domain.Vehicle, string]
	now  func() time.Time
}

// New creates a Store. opts are passed to the underlying repository.
func New(driver neo4j.DriverWithContext, opts ...repo.Neo4jOption[domain.Vehicle, string]) *Store {
	opts = append([]repo.Neo4jOption[domain.Vehicle, string]{repo.WithIDKey[domain.Vehicle, string]("vin")}, opts...)
	return &Store{
		repo: repo.NewNeo4jRepo[domain.Vehicle, string](driver, label, toMap, fromRecord, opts...),
		now:  time.Now,
	}
}

// Init creates the VIN uniqueness constraint.
func (s *Store) Init(ctx context.Context) error {
	return s.repo.EnsureUnique(ctx)
}

// Intake admits v. The VIN is normalised and the make canonicalised before
// validation; the stored vehicle is returned.
func (s *Store) Intake(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	v.VIN = vin.Normalize(v.VIN)
	if mk, ok := domain.CanonicalMake(v.Make); ok {
		v.Make = mk
	}
	if err := domain.ValidateVehicle(v); err != nil {
		return domain.Vehicle{}, err
	}
	if v.ReceivedAt.IsZero() {
		v.ReceivedAt = s.now().UTC()
	}

	held, err := s.repo.Exists(ctx, v.VIN)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("inventory: exists %s: %w", v.VIN, err)
	}
	if held {
		return domain.Vehicle{}, fmt.Errorf("%w: %s", ErrDuplicate, v.VIN)
	}

	out, err := s.repo.Create(ctx, v)
	if errors.Is(err, repo.ErrConflict) {
		return domain.Vehicle{}, fmt.Errorf("%w: %s", ErrDuplicate, v.VIN)
	}
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("inventory: create %s: %w", v.VIN, err)
	}
	return out, nil
}

// Get returns the vehicle held under the given VIN.
func (s *Store) Get(ctx context.Context, raw string) (domain.Vehicle, error) {
	v := vin.Normalize(raw)
	out, err := s.repo.Get(ctx, v)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.Vehicle{}, fmt.Errorf("%w: %s", ErrNotFound, v)
	}
	return out, err
}

// List returns held vehicles ordered by VIN.
func (s *Store) List(ctx context.Context, f Filter) ([]domain.Vehicle, error) {
	where := map[string]any{}
	if f.Make != "" {
		mk := f.Make
		if c, ok := domain.CanonicalMake(mk); ok {
			mk = c
		}
		where["make"] = mk
	}
	if f.TenantID != "" {
		where["tenant_id"] = f.TenantID
	}
	return s.repo.List(ctx, repo.ListOpts{Offset: f.Offset, Limit: f.Limit, Filter: where})
}

// Release removes a vehicle from the inventory.
func (s *Store) Release(ctx context.Context, raw string) error {
	v := vin.Normalize(raw)
	err := s.repo.Delete(ctx, v)
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, v)
	}
	return err
}

func toMap(v domain.Vehicle) map[string]any {
	return map[string]any{
		"vin":         v.VIN,
		"make":        v.Make,
		"model":       v.Model,
		"year":        int64(v.Year),
		"plate":       v.Plate,
		"color":       v.Color,
		"tenant_id":   v.TenantID,
		"received_at": v.ReceivedAt,
	}
}

func fromRecord(rec *neo4j.Record) (domain.Vehicle, error) {
	p, err := repo.NodeProps(rec)
	if err != nil {
		return domain.Vehicle{}, err
	}
	v := domain.Vehicle{
		VIN:      str(p, "vin"),
		Make:     str(p, "make"),
		Model:    str(p, "model"),
		Plate:    str(p, "plate"),
		Color:    str(p, "color"),
		TenantID: str(p, "tenant_id"),
	}
	switch y := p["year"].(type) {
	case int64:
		v.Year = int(y)
	case int:
		v.Year = y
	}
	if t, ok := p["received_at"].(time.Time); ok {
		v.ReceivedAt = t.UTC()
	}
	return v, nil
}

func str(p map[string]any, k string) string {
	s, _ := p[k].(string)
	return s
}
