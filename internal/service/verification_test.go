package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"swiftaza/internal/infra"
	"swiftaza/internal/model"
	"swiftaza/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time         { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func withClock(f *fixture) *fakeClock {
	c := &fakeClock{t: time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)}
	f.verify.now = c.now
	return c
}

func TestGenerate_RangeAndReplacement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		code, err := f.verify.Generate(ctx, "a@x.io")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, code, 1001)
		assert.LessOrEqual(t, code, 9999)
	}

	first, _ := f.verify.Generate(ctx, "a@x.io")
	second, _ := f.verify.Generate(ctx, "a@x.io")
	if first != second {
		assert.False(t, f.verify.IsValid(ctx, "a@x.io", first))
	}
	assert.True(t, f.verify.IsValid(ctx, "a@x.io", second))
}

func TestIsValid_ExpiresAtTTL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clock := withClock(f)

	code, err := f.verify.Generate(ctx, "t@x.io")
	require.NoError(t, err)

	clock.advance(59 * time.Second)
	assert.True(t, f.verify.IsValid(ctx, "t@x.io", code))

	clock.advance(time.Second)
	assert.False(t, f.verify.IsValid(ctx, "t@x.io", code))
}

func TestIsValid_UnknownEmailOrWrongCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code, _ := f.verify.Generate(ctx, "k@x.io")

	assert.False(t, f.verify.IsValid(ctx, "nobody@x.io", code))
	wrong := code + 1
	if wrong > 9999 {
		wrong = 1001
	}
	assert.False(t, f.verify.IsValid(ctx, "k@x.io", wrong))
}

func TestCleanup_DropsExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clock := withClock(f)

	_, _ = f.verify.Generate(ctx, "old@x.io")
	clock.advance(30 * time.Second)
	fresh, _ := f.verify.Generate(ctx, "new@x.io")
	clock.advance(31 * time.Second)

	assert.Equal(t, 1, f.verify.Cleanup(ctx))
	assert.True(t, f.verify.IsValid(ctx, "new@x.io", fresh))
}

func TestSendCode_EnqueuesEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clock := withClock(f)

	require.NoError(t, f.verify.SendCode(ctx, "mail@x.io", "Mae"))

	raw, err := f.rdb.LPop(ctx, worker.QueueEmail).Result()
	require.NoError(t, err)
	var job worker.Job
	require.NoError(t, json.Unmarshal([]byte(raw), &job))
	assert.Equal(t, worker.JobTypeEmail, job.Type)

	var p worker.EmailJobPayload
	require.NoError(t, json.Unmarshal(job.Payload, &p))
	assert.Equal(t, "mail@x.io", p.ToEmail)
	assert.Equal(t, verificationSubject, p.Subject)
	assert.Contains(t, p.Body, "Hello Mae")
	require.NotNil(t, p.ExpiresAt)
	assert.True(t, p.ExpiresAt.Equal(clock.t.Add(60*time.Second)))
	assert.False(t, p.Expired(clock.t.Add(59*time.Second)))
	assert.True(t, p.Expired(clock.t.Add(60*time.Second)))
}

func TestVerify_ValidatesAndConsumes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	withClock(f)
	u := f.seedUser(t, model.KindBuyer, "Val", "val@x.io")

	code, err := f.verify.Generate(ctx, "val@x.io")
	require.NoError(t, err)

	st, err := f.verify.Verify(ctx, "VAL@x.io", code)
	require.NoError(t, err)
	assert.True(t, st.Synced)

	got, _ := f.users.FindByID(ctx, u.ID)
	assert.True(t, got.Validated)
	rec, err := f.profiles.Get(ctx, u.ID.String())
	require.NoError(t, err)
	assert.True(t, rec.Validated)
	assert.Equal(t, []string{infra.EventUserVerified}, f.events.types())

	_, err = f.verify.Verify(ctx, "val@x.io", code)
	assert.ErrorIs(t, err, ErrCodeRejected)
}

func TestVerify_ExpiredCodeRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clock := withClock(f)
	u := f.seedUser(t, model.KindSeller, "Late", "late@x.io")

	code, _ := f.verify.Generate(ctx, "late@x.io")
	clock.advance(2 * time.Minute)

	_, err := f.verify.Verify(ctx, "late@x.io", code)
	assert.ErrorIs(t, err, ErrCodeRejected)
	got, _ := f.users.FindByID(ctx, u.ID)
	assert.False(t, got.Validated)
}
