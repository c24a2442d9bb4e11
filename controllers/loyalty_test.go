package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-backend/config"
	"loyalty-backend/services"
)

func TestLoyaltyController_GetSummary(t *testing.T) {
	mock := setupMockDB(t)
	who := customerCaller()
	mock.ExpectQuery(`SELECT \* FROM "customers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "points_balance", "lifetime_points", "tier"}).
			AddRow(who.id, 800, 1500, "Silver"))

	lc := &LoyaltyController{}
	w := serve(t, who, http.MethodGet, "/loyalty", "/loyalty", nil, lc.GetSummary)

	require.Equal(t, http.StatusOK, w.Code)
	var got services.TierProgress
	decode(t, w, &got)
	assert.Equal(t, 800, got.Points)
	assert.Equal(t, "Silver", got.Tier)
	assert.Equal(t, "Gold", got.NextTier)
	assert.Equal(t, 3500, got.PointsToNextTier)
}

func TestLoyaltyController_GetRewards(t *testing.T) {
	mock := setupMockDB(t)
	who := customerCaller()
	mock.ExpectQuery(`SELECT \* FROM "customers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "points_balance"}).AddRow(who.id, 600))
	mock.ExpectQuery(`SELECT \* FROM "rewards"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "points_cost", "voucher_value", "stock"}).
			AddRow(uuid.New(), "$5 off", 250, "5.00", nil).
			AddRow(uuid.New(), "Car wash", 300, "15.00", 0).
			AddRow(uuid.New(), "$25 off", 1000, "25.00", nil))

	lc := &LoyaltyController{}
	w := serve(t, who, http.MethodGet, "/loyalty/rewards", "/loyalty/rewards", nil, lc.GetRewards)

	require.Equal(t, http.StatusOK, w.Code)
	var got []RewardView
	decode(t, w, &got)
	require.Len(t, got, 3)
	assert.True(t, got[0].Affordable)
	assert.False(t, got[1].Available)
	assert.False(t, got[1].Affordable, "sold out rewards are never affordable")
	assert.False(t, got[2].Affordable)
}

func TestLoyaltyController_Redeem(t *testing.T) {
	rewardID := uuid.New()
	body := map[string]string{"rewardId": rewardID.String()}

	t.Run("not enough points", func(t *testing.T) {
		mock := setupMockDB(t)
		lc := &LoyaltyController{Loyalty: services.NewLoyaltyService(config.DB, nil, time.Hour)}

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "rewards"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "points_cost", "voucher_value", "stock"}).
				AddRow(rewardID, 500, "10.00", nil))
		mock.ExpectExec(`UPDATE "customers" SET "points_balance"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		w := serve(t, customerCaller(), http.MethodPost, "/loyalty/redeem", "/loyalty/redeem", body, lc.Redeem)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Not enough points for this reward", errorMessage(t, w))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown reward", func(t *testing.T) {
		mock := setupMockDB(t)
		lc := &LoyaltyController{Loyalty: services.NewLoyaltyService(config.DB, nil, time.Hour)}

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "rewards"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		w := serve(t, customerCaller(), http.MethodPost, "/loyalty/redeem", "/loyalty/redeem", body, lc.Redeem)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Reward not found", errorMessage(t, w))
	})

	t.Run("invalid body", func(t *testing.T) {
		lc := &LoyaltyController{}
		w := serve(t, customerCaller(), http.MethodPost, "/loyalty/redeem", "/loyalty/redeem", `{"rewardId":"x"}`, lc.Redeem)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
