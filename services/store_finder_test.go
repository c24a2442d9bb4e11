package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-backend/models"
)

func testStores() []models.Store {
	return []models.Store{
		{
			Name: "Downtown", Latitude: 40.7128, Longitude: -74.0060, Rating: 4.2, Bays: 2,
			Services: models.StringList{"oil_change", "tire_rotation"}, Amenities: models.StringList{"wifi"},
			OpeningHours: models.DefaultOpeningHours(),
		},
		{
			Name: "Brooklyn", Latitude: 40.6782, Longitude: -73.9442, Rating: 4.8, Bays: 3,
			Services: models.StringList{"oil_change"}, Amenities: models.StringList{"wifi", "parking"},
			OpeningHours: models.DefaultOpeningHours(),
		},
		{
			Name: "Albany", Latitude: 42.6526, Longitude: -73.7562, Rating: 3.9, Bays: 1,
			Services: models.StringList{"tire_rotation"},
			OpeningHours: models.OpeningHours{
				"monday": {Open: "22:00", Close: "06:00"},
			},
		},
	}
}

func TestHaversineKm(t *testing.T) {
	nyc := GeoPoint{Lat: 40.7128, Lng: -74.0060}
	london := GeoPoint{Lat: 51.5074, Lng: -0.1278}

	assert.InDelta(t, 5570, HaversineKm(nyc, london), 10)
	assert.Equal(t, 0.0, HaversineKm(nyc, nyc))
}

func TestFilterStores(t *testing.T) {
	// A Wednesday at noon UTC.
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	origin := &GeoPoint{Lat: 40.7128, Lng: -74.0060}

	t.Run("sorts by distance when origin is given", func(t *testing.T) {
		res := FilterStores(testStores(), StoreQuery{Origin: origin, Now: now})
		require.Len(t, res, 3)
		assert.Equal(t, "Downtown", res[0].Name)
		assert.Equal(t, "Brooklyn", res[1].Name)
		assert.Equal(t, "Albany", res[2].Name)
		assert.Equal(t, 0.0, *res[0].DistanceKm)
		assert.InDelta(t, 6.5, *res[1].DistanceKm, 0.5)
	})

	t.Run("radius drops far stores", func(t *testing.T) {
		res := FilterStores(testStores(), StoreQuery{Origin: origin, RadiusKm: 50, Now: now})
		assert.Len(t, res, 2)
	})

	t.Run("all requested services must match", func(t *testing.T) {
		res := FilterStores(testStores(), StoreQuery{Services: []string{"oil_change", "TIRE_ROTATION"}, Now: now})
		require.Len(t, res, 1)
		assert.Equal(t, "Downtown", res[0].Name)
		assert.Nil(t, res[0].DistanceKm)
	})

	t.Run("amenity and rating", func(t *testing.T) {
		res := FilterStores(testStores(), StoreQuery{Amenities: []string{"wifi"}, MinRating: 4.5, Now: now})
		require.Len(t, res, 1)
		assert.Equal(t, "Brooklyn", res[0].Name)
	})

	t.Run("open now", func(t *testing.T) {
		res := FilterStores(testStores(), StoreQuery{OpenNow: true, Now: now})
		require.Len(t, res, 2)
		for _, r := range res {
			assert.True(t, r.IsOpen)
		}
	})

	t.Run("rating sort and limit", func(t *testing.T) {
		res := FilterStores(testStores(), StoreQuery{Sort: "rating", Limit: 2, Now: now})
		require.Len(t, res, 2)
		assert.Equal(t, "Brooklyn", res[0].Name)
		assert.Equal(t, "Downtown", res[1].Name)
	})

	t.Run("distance sort without origin falls back to name", func(t *testing.T) {
		res := FilterStores(testStores(), StoreQuery{Sort: "distance", Now: now})
		require.Len(t, res, 3)
		assert.Equal(t, "Albany", res[0].Name)
	})
}

func TestIsOpenAt(t *testing.T) {
	stores := testStores()
	downtown, albany := stores[0], stores[2]

	cases := map[string]struct {
		store    models.Store
		at       time.Time
		expected bool
	}{
		"weekday midday":          {downtown, time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC), true},
		"before opening":          {downtown, time.Date(2024, 5, 15, 8, 59, 0, 0, time.UTC), false},
		"closing time is closed":  {downtown, time.Date(2024, 5, 15, 20, 0, 0, 0, time.UTC), false},
		"sunday marked closed":    {downtown, time.Date(2024, 5, 19, 12, 0, 0, 0, time.UTC), false},
		"overnight monday late":   {albany, time.Date(2024, 5, 13, 23, 0, 0, 0, time.UTC), true},
		"overnight tuesday early": {albany, time.Date(2024, 5, 14, 5, 30, 0, 0, time.UTC), true},
		"overnight after close":   {albany, time.Date(2024, 5, 14, 6, 0, 0, 0, time.UTC), false},
		"no hours for the day":    {albany, time.Date(2024, 5, 15, 23, 0, 0, 0, time.UTC), false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsOpenAt(tc.store, tc.at))
		})
	}
}

func TestIsOpenAtUsesStoreTimezone(t *testing.T) {
	store := testStores()[0]
	store.Timezone = "America/New_York"

	// 14:00 UTC is 10:00 in New York during daylight saving time.
	assert.True(t, IsOpenAt(store, time.Date(2024, 5, 15, 14, 0, 0, 0, time.UTC)))
	// 12:00 UTC is 08:00 in New York.
	assert.False(t, IsOpenAt(store, time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)))
}

func TestFitsOpeningHours(t *testing.T) {
	downtown := testStores()[0]
	assert.True(t, FitsOpeningHours(downtown, time.Date(2024, 5, 15, 19, 30, 0, 0, time.UTC), SlotLength))
	assert.False(t, FitsOpeningHours(downtown, time.Date(2024, 5, 15, 19, 45, 0, 0, time.UTC), SlotLength))
}

func TestAvailableSlots(t *testing.T) {
	store := testStores()[0]
	date := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
	past := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("whole day is 22 slots", func(t *testing.T) {
		slots := AvailableSlots(store, date, nil, past)
		require.Len(t, slots, 22)
		assert.Equal(t, 9, slots[0].Start.Hour())
		assert.Equal(t, 19, slots[21].Start.Hour())
		assert.Equal(t, 30, slots[21].Start.Minute())
		assert.Equal(t, 2, slots[0].Remaining)
	})

	t.Run("full slots are skipped and partial ones counted", func(t *testing.T) {
		nine := time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)
		ten := time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)
		slots := AvailableSlots(store, date, []time.Time{nine, nine, ten}, past)
		require.Len(t, slots, 21)
		assert.Equal(t, 9, slots[0].Start.Hour())
		assert.Equal(t, 30, slots[0].Start.Minute())
		assert.Equal(t, 1, slots[1].Remaining)
	})

	t.Run("past slots are hidden", func(t *testing.T) {
		now := time.Date(2024, 5, 15, 19, 10, 0, 0, time.UTC)
		slots := AvailableSlots(store, date, nil, now)
		require.Len(t, slots, 1)
		assert.Equal(t, 30, slots[0].Start.Minute())
	})

	t.Run("closed day has none", func(t *testing.T) {
		sunday := time.Date(2024, 5, 19, 0, 0, 0, 0, time.UTC)
		assert.Empty(t, AvailableSlots(store, sunday, nil, past))
	})
}

func TestSlotsAlignToOpeningTime(t *testing.T) {
	past := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("quarter past opening", func(t *testing.T) {
		store := models.Store{Bays: 1, OpeningHours: models.OpeningHours{
			"wednesday": {Open: "09:15", Close: "11:15"},
		}}
		date := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
		first := time.Date(2024, 5, 15, 9, 15, 0, 0, time.UTC)

		slots := AvailableSlots(store, date, nil, past)
		require.Len(t, slots, 4)
		assert.True(t, first.Equal(slots[0].Start))
		assert.True(t, IsSlotStart(store, first))
		assert.False(t, IsSlotStart(store, first.Add(15*time.Minute)))
		assert.True(t, IsSlotStart(store, time.Date(2024, 5, 15, 10, 45, 0, 0, time.UTC)))
		assert.False(t, IsSlotStart(store, time.Date(2024, 5, 15, 11, 15, 0, 0, time.UTC)))

		slots = AvailableSlots(store, date, []time.Time{first}, past)
		require.Len(t, slots, 3)
		assert.True(t, first.Add(SlotLength).Equal(slots[0].Start))
	})

	t.Run("kathmandu offset", func(t *testing.T) {
		store := models.Store{Bays: 2, Timezone: "Asia/Kathmandu", OpeningHours: models.OpeningHours{
			"wednesday": {Open: "09:00", Close: "10:00"},
		}}
		loc, err := time.LoadLocation("Asia/Kathmandu")
		require.NoError(t, err)
		date := time.Date(2024, 5, 15, 0, 0, 0, 0, loc)
		opening := time.Date(2024, 5, 15, 3, 15, 0, 0, time.UTC)

		assert.True(t, IsSlotStart(store, opening))
		assert.False(t, IsSlotStart(store, time.Date(2024, 5, 15, 3, 30, 0, 0, time.UTC)))

		slots := AvailableSlots(store, date, []time.Time{opening}, past)
		require.Len(t, slots, 2)
		assert.True(t, opening.Equal(slots[0].Start))
		assert.Equal(t, 1, slots[0].Remaining)
		assert.Equal(t, 2, slots[1].Remaining)
	})
}
