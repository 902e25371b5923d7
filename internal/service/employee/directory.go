package employee

import (
	"context"
	"fmt"
	"time"

	"github.com/afraexpress/attendance-backend-go/internal/domain/employee"
	"github.com/dgraph-io/ristretto"
)

const defaultDirectoryTTL = 5 * time.Minute

// CachedDirectory is a read-through cache over the employee repository.
// Entries are keyed by both ID and employee code.
type CachedDirectory struct {
	repo  employee.EmployeeRepository
	cache *ristretto.Cache
	ttl   time.Duration
}

func NewCachedDirectory(repo employee.EmployeeRepository, ttl time.Duration) (*CachedDirectory, error) {
	if ttl <= 0 {
		ttl = defaultDirectoryTTL
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 14,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create employee cache: %w", err)
	}

	return &CachedDirectory{repo: repo, cache: cache, ttl: ttl}, nil
}

func cacheKey(idOrCode string) string {
	return "employee:" + idOrCode
}

// FindByID implements employee.EmployeeDirectory.
func (d *CachedDirectory) FindByID(ctx context.Context, id string) (employee.Employee, error) {
	if cached, ok := d.cache.Get(cacheKey(id)); ok {
		if emp, ok := cached.(employee.Employee); ok {
			return emp, nil
		}
	}

	emp, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return employee.Employee{}, err
	}

	d.cache.SetWithTTL(cacheKey(emp.ID), emp, 1, d.ttl)
	d.cache.SetWithTTL(cacheKey(emp.EmployeeCode), emp, 1, d.ttl)
	return emp, nil
}

// FindByFingerprint implements employee.EmployeeDirectory.
func (d *CachedDirectory) FindByFingerprint(ctx context.Context, template string) (employee.Employee, error) {
	return d.repo.GetByFingerprint(ctx, template)
}

// CountActive implements employee.EmployeeDirectory.
func (d *CachedDirectory) CountActive(ctx context.Context) (int64, error) {
	return d.repo.CountActive(ctx)
}

// ListActive implements employee.EmployeeDirectory.
func (d *CachedDirectory) ListActive(ctx context.Context) ([]employee.Employee, error) {
	active := employee.StatusActive
	return d.repo.List(ctx, employee.EmployeeFilter{Status: &active})
}

// Invalidate drops every cached entry for emp. Buffered sets are flushed
// first so an earlier lookup cannot re-insert the entry afterwards.
func (d *CachedDirectory) Invalidate(emp employee.Employee) {
	d.cache.Wait()
	d.cache.Del(cacheKey(emp.ID))
	d.cache.Del(cacheKey(emp.EmployeeCode))
}

func (d *CachedDirectory) Close() {
	d.cache.Close()
}
