package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tea-network/teanet/rsvp"
)

func testRSVP(eventID uuid.UUID, userID uuid.UUID) rsvp.RSVP {
	return rsvp.RSVP{
		ID:        uuid.New(),
		EventID:   eventID,
		UserID:    userID,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestRSVPRoundTrip(t *testing.T) {
	ctx := context.Background()

	t.Run("create get delete", func(t *testing.T) {
		resetTables(ctx)
		event := testEvent()
		require.NoError(t, db.CreateEvent(ctx, event))
		user := testUser()
		require.NoError(t, db.CreateUser(ctx, user))

		r := testRSVP(event.ID, user.ID)
		require.NoError(t, db.CreateRSVP(ctx, r))

		saved, err := db.GetRSVP(ctx, event.ID, user.ID)
		require.NoError(t, err)
		assert.Equal(t, r.ID, saved.ID)

		require.NoError(t, db.DeleteRSVP(ctx, event.ID, user.ID))

		_, err = db.GetRSVP(ctx, event.ID, user.ID)
		require.Error(t, err)
		var rsvpError *rsvp.Error
		require.ErrorAs(t, err, &rsvpError)
		assert.Equal(t, rsvp.REASON_RSVP_DOES_NOT_EXIST, rsvpError.Reason)
	})

	t.Run("duplicate rsvp is rejected", func(t *testing.T) {
		resetTables(ctx)
		event := testEvent()
		require.NoError(t, db.CreateEvent(ctx, event))
		user := testUser()
		require.NoError(t, db.CreateUser(ctx, user))

		require.NoError(t, db.CreateRSVP(ctx, testRSVP(event.ID, user.ID)))

		err := db.CreateRSVP(ctx, testRSVP(event.ID, user.ID))
		require.Error(t, err)
		var rsvpError *rsvp.Error
		require.ErrorAs(t, err, &rsvpError)
		assert.Equal(t, rsvp.REASON_RSVP_ALREADY_EXISTS, rsvpError.Reason)
	})

	t.Run("delete without rsvp", func(t *testing.T) {
		resetTables(ctx)

		err := db.DeleteRSVP(ctx, uuid.New(), uuid.New())
		require.Error(t, err)
		var rsvpError *rsvp.Error
		require.ErrorAs(t, err, &rsvpError)
		assert.Equal(t, rsvp.REASON_RSVP_DOES_NOT_EXIST, rsvpError.Reason)
	})
}

func TestListRSVPsForEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("returns all interest for the event", func(t *testing.T) {
		resetTables(ctx)
		event := testEvent()
		require.NoError(t, db.CreateEvent(ctx, event))
		other := testEvent()
		require.NoError(t, db.CreateEvent(ctx, other))

		for i := 0; i < 3; i++ {
			user := testUser()
			require.NoError(t, db.CreateUser(ctx, user))
			require.NoError(t, db.CreateRSVP(ctx, testRSVP(event.ID, user.ID)))
		}
		bystander := testUser()
		require.NoError(t, db.CreateUser(ctx, bystander))
		require.NoError(t, db.CreateRSVP(ctx, testRSVP(other.ID, bystander.ID)))

		list, err := db.ListRSVPsForEvent(ctx, event.ID)
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})
}
