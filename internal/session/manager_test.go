package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anderle/table-reservation/internal/model"
	"github.com/anderle/table-reservation/internal/utils"
)

// fakeStore is an in-memory Store keyed by token hash.
type fakeStore struct {
	nextID  uint64
	byHash  map[string]*model.EmailSession
	revoked map[uint64]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{byHash: map[string]*model.EmailSession{}, revoked: map[uint64]bool{}}
}

func (f *fakeStore) Create(_ context.Context, s model.EmailSession) (uint64, error) {
	f.nextID++
	s.ID = f.nextID
	f.byHash[s.TokenHash] = &s
	return s.ID, nil
}

func (f *fakeStore) FindByTokenHash(_ context.Context, hash string) (*model.EmailSession, error) {
	s, ok := f.byHash[hash]
	if !ok {
		return nil, nil
	}
	copied := *s
	copied.IsRevoked = f.revoked[s.ID]
	return &copied, nil
}

func (f *fakeStore) Revoke(_ context.Context, id uint64) error {
	f.revoked[id] = true
	return nil
}

func TestIssueAndValidate(t *testing.T) {
	store := newFakeStore()
	mgr := New(store, 30*24*time.Hour)

	sess, raw, err := mgr.Issue(context.Background(), "Guest@Example.com ", Client{UserAgent: "ua", IP: "203.0.113.9"})
	require.NoError(t, err)
	assert.NotZero(t, sess.ID)
	assert.Equal(t, "guest@example.com", sess.Email, "email is stored normalized")
	assert.NotEqual(t, raw, sess.TokenHash, "raw token is never stored")
	assert.Equal(t, utils.HashSessionToken(raw), sess.TokenHash)

	email, ok := mgr.Validate(context.Background(), raw)
	require.True(t, ok)
	assert.Equal(t, "guest@example.com", email)
}

func TestValidateUnknownToken(t *testing.T) {
	mgr := New(newFakeStore(), time.Hour)

	_, ok := mgr.Validate(context.Background(), "never-issued")
	assert.False(t, ok)

	_, ok = mgr.Validate(context.Background(), "")
	assert.False(t, ok)
}

func TestValidateExpiredToken(t *testing.T) {
	store := newFakeStore()
	mgr := New(store, time.Hour)

	_, raw, err := mgr.Issue(context.Background(), "guest@example.com", Client{})
	require.NoError(t, err)

	// Move the clock past the session window.
	mgr.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, ok := mgr.Validate(context.Background(), raw)
	assert.False(t, ok, "expired tokens validate exactly like unknown ones")
}

func TestValidateRevokedToken(t *testing.T) {
	store := newFakeStore()
	mgr := New(store, time.Hour)

	sess, raw, err := mgr.Issue(context.Background(), "guest@example.com", Client{})
	require.NoError(t, err)
	require.NoError(t, mgr.Revoke(context.Background(), sess))

	_, ok := mgr.Validate(context.Background(), raw)
	assert.False(t, ok)
}

func TestLookupReturnsRecord(t *testing.T) {
	store := newFakeStore()
	mgr := New(store, 24*time.Hour)

	sess, raw, err := mgr.Issue(context.Background(), "guest@example.com", Client{})
	require.NoError(t, err)

	got, ok := mgr.Lookup(context.Background(), raw)
	require.True(t, ok)
	assert.Equal(t, sess.ID, got.ID)
	assert.WithinDuration(t, sess.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestTokensAreUnique(t *testing.T) {
	store := newFakeStore()
	mgr := New(store, time.Hour)

	_, first, err := mgr.Issue(context.Background(), "a@example.com", Client{})
	require.NoError(t, err)
	_, second, err := mgr.Issue(context.Background(), "a@example.com", Client{})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestMintTruncatesAuditFields(t *testing.T) {
	mgr := New(newFakeStore(), time.Hour)

	longUA := make([]byte, 400)
	for i := range longUA {
		longUA[i] = 'x'
	}
	s, _, err := mgr.Mint("guest@example.com", Client{UserAgent: string(longUA)})
	require.NoError(t, err)
	assert.Len(t, s.UserAgent, 300)
}
