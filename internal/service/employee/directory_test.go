package employee

import (
	"context"
	"testing"
	"time"

	"github.com/afraexpress/attendance-backend-go/internal/domain/employee"
	"github.com/afraexpress/attendance-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRepo counts GetByID calls that reach the repository
type countingRepo struct {
	employee.EmployeeRepository
	gets int
}

func (r *countingRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.gets++
	return r.EmployeeRepository.GetByID(ctx, id)
}

func TestCachedDirectory_ReadThrough(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{EmployeeRepository: memory.NewEmployeeRepository()}
	john, err := repo.Create(ctx, employee.Employee{EmployeeCode: "EMP001", Name: "John Doe", Email: "john@afraexpress.com"})
	require.NoError(t, err)

	dir, err := NewCachedDirectory(repo, time.Minute)
	require.NoError(t, err)
	defer dir.Close()

	got, err := dir.FindByID(ctx, "EMP001")
	require.NoError(t, err)
	assert.Equal(t, john.ID, got.ID)
	dir.cache.Wait()

	_, err = dir.FindByID(ctx, "EMP001")
	require.NoError(t, err)
	_, err = dir.FindByID(ctx, john.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.gets)

	dir.Invalidate(john)
	_, err = dir.FindByID(ctx, john.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.gets)
}

func TestCachedDirectory_MissesAreNotCached(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{EmployeeRepository: memory.NewEmployeeRepository()}

	dir, err := NewCachedDirectory(repo, 0)
	require.NoError(t, err)
	defer dir.Close()

	_, err = dir.FindByID(ctx, "EMP001")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = repo.Create(ctx, employee.Employee{EmployeeCode: "EMP001", Email: "john@afraexpress.com"})
	require.NoError(t, err)

	_, err = dir.FindByID(ctx, "EMP001")
	assert.NoError(t, err)
}

func TestCachedDirectory_ActiveViews(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewEmployeeRepository()
	_, err := repo.Create(ctx, employee.Employee{EmployeeCode: "EMP001", Email: "a@afraexpress.com"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, employee.Employee{EmployeeCode: "EMP002", Email: "b@afraexpress.com", Status: employee.StatusTerminated})
	require.NoError(t, err)

	dir, err := NewCachedDirectory(repo, time.Minute)
	require.NoError(t, err)
	defer dir.Close()

	count, err := dir.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	active, err := dir.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "EMP001", active[0].EmployeeCode)
}
