package service

import (
	"context"
	"testing"

	"swiftaza/internal/dto"
	"swiftaza/internal/model"
	"swiftaza/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestSetOverrides_MergeIntoCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.userSvc.Register(ctx, model.KindBuyer, registerReq("Ov", "ov@x.io"))
	require.NoError(t, err)

	resp, err := f.permSvc.SetOverrides(ctx, "ov@x.io", []dto.OverrideItem{
		{Code: "buy101", IsGranted: boolPtr(false)},
		{Code: "adm105", IsGranted: boolPtr(true)},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.CacheSynced)
	assert.True(t, *resp.CacheSynced)
	assert.NotContains(t, resp.Permissions, "buy101")
	assert.Contains(t, resp.Permissions, "adm105")
	assert.Len(t, resp.Overrides, 2)

	rec, err := f.profiles.Get(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.False(t, rec.HasAny("buy101"))
	assert.True(t, rec.HasAny("adm105"))

	// flipping an existing override updates it in place
	resp, err = f.permSvc.SetOverrides(ctx, reg.User.ID, []dto.OverrideItem{{Code: "buy101", IsGranted: boolPtr(true)}})
	require.NoError(t, err)
	assert.Contains(t, resp.Permissions, "buy101")
	assert.Len(t, resp.Overrides, 2)
}

func TestSetOverrides_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, model.KindBuyer, "R", "r@x.io")

	_, err := f.permSvc.SetOverrides(ctx, "r@x.io", nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.permSvc.SetOverrides(ctx, "r@x.io", []dto.OverrideItem{{Code: "x"}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.permSvc.SetOverrides(ctx, "ghost@x.io", []dto.OverrideItem{{Code: "x", IsGranted: boolPtr(true)}})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRemoveOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.userSvc.Register(ctx, model.KindSeller, registerReq("Rm", "rm@x.io"))
	require.NoError(t, err)
	_, err = f.permSvc.SetOverrides(ctx, "rm@x.io", []dto.OverrideItem{{Code: "sel102", IsGranted: boolPtr(false)}})
	require.NoError(t, err)

	resp, err := f.permSvc.RemoveOverride(ctx, "rm@x.io", "sel102")
	require.NoError(t, err)
	assert.Contains(t, resp.Permissions, "sel102")
	assert.Empty(t, resp.Overrides)

	_, err = f.permSvc.RemoveOverride(ctx, "rm@x.io", "sel102")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAssignRole_ReplacesRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.userSvc.Register(ctx, model.KindBuyer, registerReq("Up", "up@x.io"))
	require.NoError(t, err)

	resp, err := f.permSvc.AssignRole(ctx, reg.User.ID, RoleSeller)
	require.NoError(t, err)
	require.Len(t, resp.Roles, 1)
	assert.Equal(t, RoleSeller, resp.Roles[0].Name)
	assert.Equal(t, RoleCatalogue[RoleSeller], resp.Permissions)

	rec, err := f.profiles.Get(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{RoleSeller}, rec.Roles)

	_, err = f.permSvc.AssignRole(ctx, reg.User.ID, "root")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, model.KindBuyer, "Ch", "ch@x.io")
	require.True(t, f.prov.ProvisionRole(ctx, nil, RoleBuyer, RoleCatalogue[RoleBuyer], &u.ID).OK())

	got, err := f.permSvc.Check(ctx, u.ID, "buy104")
	require.NoError(t, err)
	assert.True(t, got.Granted)

	got, err = f.permSvc.Check(ctx, u.ID, "adm104")
	require.NoError(t, err)
	assert.False(t, got.Granted)
}
