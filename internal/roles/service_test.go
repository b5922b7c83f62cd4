package roles

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gestionpro/gestionpro/internal/shared"
)

type fakeRepo struct {
	roles    map[string]Role
	assigned map[string]int
	nextID   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{roles: make(map[string]Role), assigned: make(map[string]int)}
}

func (r *fakeRepo) List(ctx context.Context, tenantID string) ([]Role, error) {
	var result []Role
	for _, role := range r.roles {
		result = append(result, role)
	}
	return result, nil
}

func (r *fakeRepo) Get(ctx context.Context, tenantID, id string) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (r *fakeRepo) Create(ctx context.Context, role Role) (Role, error) {
	r.nextID++
	role.ID = fmt.Sprintf("role-%d", r.nextID)
	r.roles[role.ID] = role
	return role, nil
}

func (r *fakeRepo) Update(ctx context.Context, role Role) (Role, error) {
	if _, ok := r.roles[role.ID]; !ok {
		return Role{}, shared.ErrNotFound
	}
	r.roles[role.ID] = role
	return role, nil
}

func (r *fakeRepo) Delete(ctx context.Context, tenantID, id string) error {
	if _, ok := r.roles[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.roles, id)
	return nil
}

func (r *fakeRepo) AssignedCount(ctx context.Context, tenantID, id string) (int, error) {
	return r.assigned[id], nil
}

func TestDeleteRefusedWhileAssigned(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	role, err := svc.Create(ctx, "t1", RoleInput{
		Name:        "Seller",
		Permissions: []string{"sales.create"},
		IsActive:    true,
	})
	require.NoError(t, err)

	repo.assigned[role.ID] = 2
	err = svc.Delete(ctx, "t1", role.ID)
	require.ErrorIs(t, err, shared.ErrRoleInUse)
	_, err = svc.Get(ctx, "t1", role.ID)
	require.NoError(t, err)

	repo.assigned[role.ID] = 0
	require.NoError(t, svc.Delete(ctx, "t1", role.ID))
	_, err = svc.Get(ctx, "t1", role.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
