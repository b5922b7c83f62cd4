package users

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gestionpro/gestionpro/internal/shared"
)

type fakeRepo struct {
	profiles map[string]Profile
	hashes   map[string]string
	nextID   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{profiles: make(map[string]Profile), hashes: make(map[string]string)}
}

func (r *fakeRepo) List(ctx context.Context, tenantID string) ([]Profile, error) {
	var result []Profile
	for _, p := range r.profiles {
		result = append(result, p)
	}
	return result, nil
}

func (r *fakeRepo) Get(ctx context.Context, tenantID, id string) (Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) Insert(ctx context.Context, p Profile, passwordHash string) (Profile, error) {
	r.nextID++
	p.ID = fmt.Sprintf("user-%d", r.nextID)
	r.profiles[p.ID] = p
	r.hashes[p.ID] = passwordHash
	return p, nil
}

func (r *fakeRepo) Update(ctx context.Context, p Profile) (Profile, error) {
	if _, ok := r.profiles[p.ID]; !ok {
		return Profile{}, shared.ErrNotFound
	}
	r.profiles[p.ID] = p
	return p, nil
}

func (r *fakeRepo) UpdateConfig(ctx context.Context, tenantID, id string, config map[string]any) error {
	p, ok := r.profiles[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Config = config
	r.profiles[id] = p
	return nil
}

func (r *fakeRepo) SetAvatarURL(ctx context.Context, tenantID, id, url string) error {
	p, ok := r.profiles[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.AvatarURL = url
	r.profiles[id] = p
	return nil
}

type fakeMailer struct {
	emails []string
	temps  []string
}

func (m *fakeMailer) EnqueueInviteEmail(ctx context.Context, tenantID, email, tempPassword string) error {
	m.emails = append(m.emails, email)
	m.temps = append(m.temps, tempPassword)
	return nil
}

func TestInviteHashesTempPasswordAndQueuesEmail(t *testing.T) {
	repo := newFakeRepo()
	mailer := &fakeMailer{}
	svc := NewService(slog.Default(), repo, mailer, nil)

	profile, temp, err := svc.Invite(context.Background(), "t1", InviteInput{
		Email:    "ana@example.com",
		FullName: "Ana García",
		RoleID:   "role-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, temp)
	require.True(t, profile.IsActive)
	require.Equal(t, "role-1", profile.RoleID)

	require.Equal(t, []string{"ana@example.com"}, mailer.emails)
	require.Equal(t, temp, mailer.temps[0])

	hash := repo.hashes[profile.ID]
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(temp)))
}

func TestMergeConfigOverlaysAndDeletes(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(slog.Default(), repo, nil, nil)
	ctx := context.Background()

	profile, _, err := svc.Invite(ctx, "t1", InviteInput{
		Email: "b@example.com", FullName: "Bo", RoleID: "role-1",
	})
	require.NoError(t, err)

	merged, err := svc.MergeConfig(ctx, "t1", profile.ID, map[string]any{
		"theme":    "dark",
		"language": "es",
	})
	require.NoError(t, err)
	require.Equal(t, "dark", merged["theme"])

	merged, err = svc.MergeConfig(ctx, "t1", profile.ID, map[string]any{
		"theme":    nil,
		"language": "en",
	})
	require.NoError(t, err)
	require.NotContains(t, merged, "theme")
	require.Equal(t, "en", merged["language"])
}
