package handlers

import (
	"testing"
	"time"

	"github.com/arnold/kpigo-api/internal/database"
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimInviteStopsAtMaxUses(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)

	invite := models.Invite{CompanyID: uuid.New(), InviterID: uuid.New(), Role: models.RoleStaff, MaxUses: 1}
	require.NoError(t, db.Create(&invite).Error)

	now := time.Now()
	require.NoError(t, claimInvite(db, invite, now))
	// the caller's copy is stale here, as it would be for a racing request
	assert.ErrorIs(t, claimInvite(db, invite, now), errInviteUsedUp)

	var stored models.Invite
	require.NoError(t, db.First(&stored, "id = ?", invite.ID).Error)
	assert.Equal(t, 1, stored.UsedCount)
}

func TestClaimInviteUnlimitedAndExpired(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)

	unlimited := models.Invite{CompanyID: uuid.New(), InviterID: uuid.New(), Role: models.RoleStaff}
	require.NoError(t, db.Create(&unlimited).Error)
	for i := 0; i < 3; i++ {
		require.NoError(t, claimInvite(db, unlimited, time.Now()))
	}

	past := time.Now().Add(-time.Hour)
	expired := models.Invite{CompanyID: uuid.New(), InviterID: uuid.New(), Role: models.RoleStaff, ExpiresAt: &past}
	require.NoError(t, db.Create(&expired).Error)
	assert.ErrorIs(t, claimInvite(db, expired, time.Now()), errInviteUsedUp)
}
