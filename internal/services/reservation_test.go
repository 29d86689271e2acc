package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nawel-dev/nawel/internal/models"
)

type reservationFixture struct {
	svc   *ReservationService
	owner *models.User
	alice *models.User
	bob   *models.User
	carol *models.User
	gift  *models.Gift
}

func newReservationFixture(t *testing.T) *reservationFixture {
	db := newTestDB(t)
	family := createFamily(t, db, "martin")

	owner := createUser(t, db, family.ID, "owner", "x")
	alice := createUser(t, db, family.ID, "alice", "x")
	bob := createUser(t, db, family.ID, "bob", "x")
	carol := createUser(t, db, family.ID, "carol", "x")

	list := createList(t, db, owner.ID)
	gift := createGift(t, db, list.ID, "lego set", 2024)

	return &reservationFixture{
		svc:   NewReservationService(db, testLogger()),
		owner: owner,
		alice: alice,
		bob:   bob,
		carol: carol,
		gift:  gift,
	}
}

func TestReserveOwnGiftForbidden(t *testing.T) {
	f := newReservationFixture(t)

	err := f.svc.Reserve(context.Background(), f.gift.ID, f.owner.ID, "")
	require.ErrorIs(t, err, ErrSelfReservation)

	checkGiftInvariant(t, f.svc.db, f.gift.ID)
	assert.True(t, reloadGift(t, f.svc.db, f.gift.ID).Available)
}

func TestReserveUnknownGift(t *testing.T) {
	f := newReservationFixture(t)

	err := f.svc.Reserve(context.Background(), 9999, f.alice.ID, "")
	require.ErrorIs(t, err, ErrGiftNotFound)
}

func TestReserveAvailableGiftSolo(t *testing.T) {
	f := newReservationFixture(t)

	require.NoError(t, f.svc.Reserve(context.Background(), f.gift.ID, f.alice.ID, "wrapping it myself"))

	gift := reloadGift(t, f.svc.db, f.gift.ID)
	assert.False(t, gift.Available)
	require.NotNil(t, gift.TakenBy)
	assert.Equal(t, f.alice.ID, *gift.TakenBy)
	assert.False(t, gift.IsGroupGift)
	assert.Equal(t, "wrapping it myself", gift.Comment)
	assert.Empty(t, activeParticipants(t, f.svc.db, gift.ID))
	checkGiftInvariant(t, f.svc.db, gift.ID)
}

func TestReserveTwiceBySameUser(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.alice.ID, ""))

	err := f.svc.Reserve(ctx, f.gift.ID, f.alice.ID, "")
	require.ErrorIs(t, err, ErrAlreadyReserved)
}

func TestSecondReserverConvertsToGroup(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.alice.ID, ""))
	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.bob.ID, ""))

	gift := reloadGift(t, f.svc.db, f.gift.ID)
	assert.False(t, gift.Available)
	assert.True(t, gift.IsGroupGift)
	require.NotNil(t, gift.TakenBy)
	assert.Equal(t, f.alice.ID, *gift.TakenBy, "original holder stays in taken_by")

	active := activeParticipants(t, f.svc.db, gift.ID)
	require.Len(t, active, 1, "only the newcomer gets a participation row")
	assert.Equal(t, f.bob.ID, active[0].UserID)
	checkGiftInvariant(t, f.svc.db, gift.ID)
}

func TestThirdReserverJoinsGroup(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.alice.ID, ""))
	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.bob.ID, ""))
	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.carol.ID, ""))

	active := activeParticipants(t, f.svc.db, f.gift.ID)
	require.Len(t, active, 2)
	assert.Equal(t, f.bob.ID, active[0].UserID)
	assert.Equal(t, f.carol.ID, active[1].UserID)

	err := f.svc.Reserve(ctx, f.gift.ID, f.carol.ID, "")
	require.ErrorIs(t, err, ErrAlreadyReserved)
}

func TestReserveGroupIntentGift(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.db.Model(f.gift).Update("is_group_gift", true).Error)

	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.alice.ID, ""))

	gift := reloadGift(t, f.svc.db, f.gift.ID)
	assert.False(t, gift.Available)
	assert.True(t, gift.IsGroupGift, "group intent set at creation survives the first reservation")
	require.NotNil(t, gift.TakenBy)
	assert.Equal(t, f.alice.ID, *gift.TakenBy)

	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.bob.ID, ""))
	require.Len(t, activeParticipants(t, f.svc.db, gift.ID), 1)
	checkGiftInvariant(t, f.svc.db, gift.ID)
}

func TestUnreserveSoloResetsGift(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.alice.ID, "from the wishlist shop"))
	require.NoError(t, f.svc.Unreserve(ctx, f.gift.ID, f.alice.ID))

	gift := reloadGift(t, f.svc.db, f.gift.ID)
	assert.True(t, gift.Available)
	assert.Nil(t, gift.TakenBy)
	assert.False(t, gift.IsGroupGift)
	assert.Empty(t, gift.Comment, "reserver's comment must not outlive the reservation")
	checkGiftInvariant(t, f.svc.db, gift.ID)
}

func TestUnreserveNotReserved(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	err := f.svc.Unreserve(ctx, f.gift.ID, f.alice.ID)
	require.ErrorIs(t, err, ErrNotReserved)

	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.alice.ID, ""))

	err = f.svc.Unreserve(ctx, f.gift.ID, f.bob.ID)
	require.ErrorIs(t, err, ErrNotReserved)
}

func TestGroupFlagStaysWithOneHolderLeft(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.alice.ID, ""))
	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.bob.ID, ""))
	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.carol.ID, ""))

	// Participant leaves: still a group gift with two holders.
	require.NoError(t, f.svc.Unreserve(ctx, f.gift.ID, f.carol.ID))

	gift := reloadGift(t, f.svc.db, f.gift.ID)
	assert.True(t, gift.IsGroupGift)
	assert.False(t, gift.Available)
	require.Len(t, activeParticipants(t, f.svc.db, gift.ID), 1)

	// Original holder leaves: bob alone, flag stays sticky.
	require.NoError(t, f.svc.Unreserve(ctx, f.gift.ID, f.alice.ID))

	gift = reloadGift(t, f.svc.db, f.gift.ID)
	assert.True(t, gift.IsGroupGift)
	assert.False(t, gift.Available)
	assert.Nil(t, gift.TakenBy)
	require.Len(t, activeParticipants(t, f.svc.db, gift.ID), 1)
	checkGiftInvariant(t, f.svc.db, gift.ID)

	// Last holder leaves: full reset.
	require.NoError(t, f.svc.Unreserve(ctx, f.gift.ID, f.bob.ID))

	gift = reloadGift(t, f.svc.db, f.gift.ID)
	assert.True(t, gift.Available)
	assert.Nil(t, gift.TakenBy)
	assert.False(t, gift.IsGroupGift)
	assert.Empty(t, activeParticipants(t, f.svc.db, gift.ID))
	checkGiftInvariant(t, f.svc.db, gift.ID)
}

func TestWithdrawKeepsParticipationHistory(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.alice.ID, ""))
	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.bob.ID, ""))
	require.NoError(t, f.svc.Unreserve(ctx, f.gift.ID, f.bob.ID))
	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.bob.ID, ""))

	var total int64
	require.NoError(t, f.svc.db.Model(&models.GiftParticipation{}).
		Where("gift_id = ? AND user_id = ?", f.gift.ID, f.bob.ID).
		Count(&total).Error)
	assert.EqualValues(t, 2, total, "withdrawal keeps the old row, re-join adds a new one")

	active := activeParticipants(t, f.svc.db, f.gift.ID)
	require.Len(t, active, 1)
	assert.Equal(t, f.bob.ID, active[0].UserID)
}

func TestConcurrentJoinAndFullRelease(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.alice.ID, ""))
	require.NoError(t, f.svc.Reserve(ctx, f.gift.ID, f.bob.ID, ""))

	var wg sync.WaitGroup
	wg.Add(2)

	// Both holders leave while carol tries to get in.
	go func() {
		defer wg.Done()
		_ = f.svc.Unreserve(context.Background(), f.gift.ID, f.bob.ID)
		_ = f.svc.Unreserve(context.Background(), f.gift.ID, f.alice.ID)
	}()

	var joinErr error
	go func() {
		defer wg.Done()
		for {
			joinErr = f.svc.Reserve(context.Background(), f.gift.ID, f.carol.ID, "")
			if !errors.Is(joinErr, ErrReservationConflict) {
				return
			}
		}
	}()
	wg.Wait()

	require.NoError(t, joinErr)

	// Whatever the interleaving, carol is in: either she joined before the
	// last holder left, or she reserved the freed gift solo. The gift must
	// never end up available while her participation is active.
	checkGiftInvariant(t, f.svc.db, f.gift.ID)

	gift := reloadGift(t, f.svc.db, f.gift.ID)
	assert.False(t, gift.Available)

	holder := gift.TakenBy != nil && *gift.TakenBy == f.carol.ID
	active := activeParticipants(t, f.svc.db, f.gift.ID)
	participant := len(active) == 1 && active[0].UserID == f.carol.ID
	assert.True(t, holder || participant, "carol holds the gift one way or the other")
}

func TestConcurrentReserveOnAvailableGift(t *testing.T) {
	f := newReservationFixture(t)

	users := []uint{f.alice.ID, f.bob.ID}

	var wg sync.WaitGroup
	errs := make([]error, len(users))

	for i, userID := range users {
		wg.Add(1)
		go func(i int, userID uint) {
			defer wg.Done()
			for {
				err := f.svc.Reserve(context.Background(), f.gift.ID, userID, "")
				if !errors.Is(err, ErrReservationConflict) {
					errs[i] = err
					return
				}
			}
		}(i, userID)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "reserver %d", i)
	}

	gift := reloadGift(t, f.svc.db, f.gift.ID)
	assert.False(t, gift.Available)
	assert.True(t, gift.IsGroupGift, "both concurrent reservers end up as holders of a group gift")
	require.NotNil(t, gift.TakenBy)

	active := activeParticipants(t, f.svc.db, gift.ID)
	require.Len(t, active, 1)
	assert.NotEqual(t, *gift.TakenBy, active[0].UserID, "solo winner and group joiner are different users")

	holders := map[uint]bool{*gift.TakenBy: true, active[0].UserID: true}
	assert.True(t, holders[f.alice.ID], "alice is a holder")
	assert.True(t, holders[f.bob.ID], "bob is a holder")
	checkGiftInvariant(t, f.svc.db, gift.ID)
}
