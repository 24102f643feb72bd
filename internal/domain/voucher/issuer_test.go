package voucher

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	byOrder map[string]*Voucher
	byCode  map[string]*Voucher

	// rejections makes the next N Create calls fail with this error.
	rejections int
	rejectWith error

	// misses makes the next N FindByOrderID calls report ErrNotFound even
	// when the voucher exists, simulating a lookup that raced the insert.
	misses int

	creates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byOrder: make(map[string]*Voucher),
		byCode:  make(map[string]*Voucher),
	}
}

func (s *fakeStore) Create(_ context.Context, v *Voucher) error {
	s.creates++
	if s.rejections > 0 {
		s.rejections--
		return s.rejectWith
	}
	if _, ok := s.byCode[v.Code]; ok {
		return ErrCodeTaken
	}
	if _, ok := s.byOrder[v.OrderID]; ok {
		return ErrOrderTaken
	}
	s.byOrder[v.OrderID] = v
	s.byCode[v.Code] = v
	return nil
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*Voucher, error) {
	for _, v := range s.byOrder {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) FindByCode(_ context.Context, code string) (*Voucher, error) {
	v, ok := s.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (s *fakeStore) FindByOrderID(_ context.Context, orderID string) (*Voucher, error) {
	if s.misses > 0 {
		s.misses--
		return nil, ErrNotFound
	}
	v, ok := s.byOrder[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (s *fakeStore) ListCodes(_ context.Context, fn func(code string) error) error {
	for code := range s.byCode {
		if err := fn(code); err != nil {
			return err
		}
	}
	return nil
}

func issueReq(orderID string) IssueRequest {
	return IssueRequest{
		OrderID:    orderID,
		StoreID:    "s1",
		CustomerID: "c1",
		Value:      decimal.RequireFromString("50"),
		Currency:   "USD",
	}
}

func TestIssue_CreatesActiveVoucher(t *testing.T) {
	store := newFakeStore()
	issuer := NewStoreIssuer(store, nil, 24*time.Hour)

	v, err := issuer.Issue(context.Background(), issueReq("o1"))
	require.NoError(t, err)
	assert.Equal(t, "o1", v.OrderID)
	assert.Equal(t, StatusActive, v.Status)
	assert.True(t, ValidCode(v.Code))
	assert.Equal(t, v.ValidFrom.Add(24*time.Hour), v.ValidUntil)
}

func TestIssue_IdempotentByOrder(t *testing.T) {
	store := newFakeStore()
	issuer := NewStoreIssuer(store, nil, 24*time.Hour)

	first, err := issuer.Issue(context.Background(), issueReq("o1"))
	require.NoError(t, err)

	second, err := issuer.Issue(context.Background(), issueReq("o1"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Code, second.Code)
	assert.Len(t, store.byCode, 1)
}

func TestIssue_RetriesOnCodeCollision(t *testing.T) {
	store := newFakeStore()
	store.rejections = 2
	store.rejectWith = ErrCodeTaken
	issuer := NewStoreIssuer(store, nil, 24*time.Hour)

	v, err := issuer.Issue(context.Background(), issueReq("o1"))
	require.NoError(t, err)
	assert.NotEmpty(t, v.Code)
	assert.Equal(t, 3, store.creates)
}

func TestIssue_ExhaustsCollisionBudget(t *testing.T) {
	store := newFakeStore()
	store.rejections = maxCodeAttempts
	store.rejectWith = ErrCodeTaken
	issuer := NewStoreIssuer(store, nil, 24*time.Hour)

	_, err := issuer.Issue(context.Background(), issueReq("o1"))
	require.ErrorIs(t, err, ErrCodeSpaceExhausted)
}

func TestIssue_LostOrderRaceReturnsWinner(t *testing.T) {
	store := newFakeStore()
	issuer := NewStoreIssuer(store, nil, 24*time.Hour)

	winner, err := issuer.Issue(context.Background(), issueReq("o1"))
	require.NoError(t, err)

	// Simulate a racing issuance that passed the idempotency lookup before
	// the winner committed: Create reports the order as taken and the
	// follow-up lookup resolves to the winner's voucher.
	store.misses = 1

	got, err := issuer.Issue(context.Background(), issueReq("o1"))
	require.NoError(t, err)
	assert.Equal(t, winner.ID, got.ID)
}

func TestIssue_RecordsCodeInGuard(t *testing.T) {
	store := newFakeStore()
	guard := NewCodeGuard(1000, 0.001)
	issuer := NewStoreIssuer(store, guard, 24*time.Hour)

	v, err := issuer.Issue(context.Background(), issueReq("o1"))
	require.NoError(t, err)
	assert.True(t, guard.MayExist(v.Code))
}

func TestGuard_WarmLoadsIssuedCodes(t *testing.T) {
	store := newFakeStore()
	issuer := NewStoreIssuer(store, nil, 24*time.Hour)
	v, err := issuer.Issue(context.Background(), issueReq("o1"))
	require.NoError(t, err)

	guard := NewCodeGuard(1000, 0.001)
	require.NoError(t, guard.Warm(context.Background(), store))
	assert.True(t, guard.MayExist(v.Code))
}
