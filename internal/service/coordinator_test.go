package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"swiftaza/internal/model"
	"swiftaza/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirror_WritesProjectedRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, model.KindSeller, "Sam Seller", "Sam@Shop.io")
	require.True(t, f.prov.ProvisionRole(ctx, nil, RoleSeller, RoleCatalogue[RoleSeller], &u.ID).OK())

	st := f.coord.Mirror(ctx, u.ID)
	require.True(t, st.Synced)

	rec, err := f.profiles.FindBy(ctx, repository.ByEmail, "sam@shop.io")
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), rec.ID)
	assert.Equal(t, model.KindSeller, rec.Type)
	assert.Equal(t, []string{RoleSeller}, rec.Roles)
	assert.Equal(t, RoleCatalogue[RoleSeller], rec.Permissions)
	assert.Nil(t, rec.WalletID)
}

func TestMirror_KeepsSessionTimestamps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, model.KindBuyer, "Bo", "bo@x.io")
	login := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.True(t, f.coord.Touch(ctx, u.ID, func(r *model.ProfileRecord) { r.LastLogin = &login }).Synced)
	require.True(t, f.coord.Mirror(ctx, u.ID).Synced)

	rec, err := f.profiles.Get(ctx, u.ID.String())
	require.NoError(t, err)
	require.NotNil(t, rec.LastLogin)
	assert.True(t, login.Equal(*rec.LastLogin))
}

func TestMirror_CacheDownReportsDivergence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, model.KindBuyer, "Di", "di@x.io")
	coord := NewCoordinator(f.users, f.roles, f.wallets, failingProfiles{}, f.archive, f.authz)

	st := coord.Mirror(ctx, u.ID)

	assert.False(t, st.Synced)
	assert.ErrorIs(t, st.Err, errCacheDown)
	// relational side is unaffected
	_, err := f.users.FindByID(ctx, u.ID)
	assert.NoError(t, err)
}

func TestDeleteUser_ArchivesAndEvicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, model.KindBuyer, "Gone Girl", "gone@x.io")
	require.True(t, f.prov.ProvisionRole(ctx, nil, RoleBuyer, RoleCatalogue[RoleBuyer], &u.ID).OK())
	w := &model.Wallet{UserID: u.ID, Balance: decimal.RequireFromString("12.5"), PinHash: "h"}
	require.NoError(t, f.wallets.Create(ctx, nil, w))
	require.True(t, f.coord.Mirror(ctx, u.ID).Synced)

	fixed := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	f.coord.now = func() time.Time { return fixed }

	snap, st, err := f.coord.DeleteUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, st.Synced)
	assert.Equal(t, "gone@x.io", snap.Email)
	require.NotNil(t, snap.WalletBalance)
	assert.Equal(t, "12.50", *snap.WalletBalance)

	_, err = f.users.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.profiles.Get(ctx, u.ID.String())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.profiles.FindBy(ctx, repository.ByEmail, "gone@x.io")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	arch, err := f.archive.Get(ctx, u.ID.String())
	require.NoError(t, err)
	assert.True(t, fixed.Equal(arch.DeletedAt))
	assert.Equal(t, []string{RoleBuyer}, arch.Roles)
}

func TestDeleteUser_RelationalFailureTouchesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, model.KindBuyer, "Stay", "stay@x.io")
	require.True(t, f.coord.Mirror(ctx, u.ID).Synced)
	f.db.deleteErr = errors.New("foreign key violation")

	_, _, err := f.coord.DeleteUser(ctx, u.ID)
	require.Error(t, err)

	_, err = f.users.FindByID(ctx, u.ID)
	assert.NoError(t, err)
	_, err = f.profiles.Get(ctx, u.ID.String())
	assert.NoError(t, err)
	_, err = f.archive.Get(ctx, u.ID.String())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteUser_Unknown(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.coord.DeleteUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteUser_CacheDownStillDeletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, model.KindSeller, "Sid", "sid@x.io")
	coord := NewCoordinator(f.users, f.roles, f.wallets, failingProfiles{}, f.archive, f.authz)

	snap, st, err := coord.DeleteUser(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, st.Synced)
	assert.Equal(t, u.ID.String(), snap.ID)

	_, err = f.users.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestResolve_FallsBackToCredentialStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, model.KindBuyer, "Nia", "nia@x.io")

	// not cached yet
	got, err := f.coord.Resolve(ctx, "nia@x.io", "", repository.ByID, repository.ByEmail)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	// cached, wrong kind filter
	require.True(t, f.coord.Mirror(ctx, u.ID).Synced)
	_, err = f.coord.Resolve(ctx, "nia@x.io", model.KindSeller, repository.ByEmail)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err = f.coord.Resolve(ctx, u.ID.String(), model.KindBuyer, repository.ByID)
	require.NoError(t, err)
	assert.Equal(t, "Nia", got.FullName)
}

func TestResolve_CacheDownUsesCredentialStore(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, model.KindManager, "Max", "max@x.io")
	coord := NewCoordinator(f.users, f.roles, f.wallets, failingProfiles{}, f.archive, f.authz)

	got, err := coord.Resolve(context.Background(), "Max", model.KindManager, repository.ByFullName)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestProfile_RebuildsOnMiss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, model.KindBuyer, "Rae", "rae@x.io")

	rec, err := f.coord.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "rae@x.io", rec.Email)

	cached, err := f.profiles.Get(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, rec.ID, cached.ID)
}
