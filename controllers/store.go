package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/services"
	"loyalty-backend/utils"
)

var storeSorts = map[string]bool{"": true, "distance": true, "rating": true, "name": true}

// listParam accepts both repeated params and comma separated values.
func listParam(c *gin.Context, name string) []string {
	var out []string
	for _, raw := range c.QueryArray(name) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func parseFloatParam(c *gin.Context, name string) (float64, bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	return v, true, err
}

func parseStoreQuery(c *gin.Context) (services.StoreQuery, string) {
	q := services.StoreQuery{
		Services:  listParam(c, "service"),
		Amenities: listParam(c, "amenity"),
		Sort:      c.Query("sort"),
		Now:       time.Now(),
	}

	lat, hasLat, err := parseFloatParam(c, "lat")
	if err != nil || (hasLat && (lat < -90 || lat > 90)) {
		return q, "lat must be a latitude"
	}
	lng, hasLng, err := parseFloatParam(c, "lng")
	if err != nil || (hasLng && (lng < -180 || lng > 180)) {
		return q, "lng must be a longitude"
	}
	if hasLat != hasLng {
		return q, "lat and lng must be given together"
	}
	if hasLat {
		q.Origin = &services.GeoPoint{Lat: lat, Lng: lng}
	}

	if q.RadiusKm, _, err = parseFloatParam(c, "radius"); err != nil || q.RadiusKm < 0 {
		return q, "radius must be a positive number"
	}
	if q.MinRating, _, err = parseFloatParam(c, "minRating"); err != nil {
		return q, "minRating must be a number"
	}
	if raw := c.Query("openNow"); raw != "" {
		if q.OpenNow, err = strconv.ParseBool(raw); err != nil {
			return q, "openNow must be true or false"
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if q.Limit, err = strconv.Atoi(raw); err != nil || q.Limit < 0 {
			return q, "limit must be a positive integer"
		}
	}
	if !storeSorts[q.Sort] {
		return q, "Invalid sort: " + q.Sort
	}
	return q, ""
}

// GetStores is the store locator search
func GetStores(c *gin.Context) {
	query, problem := parseStoreQuery(c)
	if problem != "" {
		utils.RespondWithError(c, http.StatusBadRequest, problem)
		return
	}

	db := config.DB.Where("is_active = ?", true)
	if city := c.Query("city"); city != "" {
		db = db.Where("city ILIKE ?", city)
	}

	var stores []models.Store
	if err := db.Find(&stores).Error; err != nil {
		respondDBError(c, err, "store")
		return
	}

	results := services.FilterStores(stores, query)
	c.JSON(http.StatusOK, gin.H{"items": results, "count": len(results)})
}

func loadStore(c *gin.Context) (models.Store, bool) {
	var store models.Store
	storeID, ok := parseIDParam(c, "id", "store")
	if !ok {
		return store, false
	}
	if err := config.DB.Where("id = ? AND is_active = ?", storeID, true).First(&store).Error; err != nil {
		respondDBError(c, err, "store")
		return store, false
	}
	return store, true
}

// GetStore returns a store with its current open status
func GetStore(c *gin.Context) {
	store, ok := loadStore(c)
	if !ok {
		return
	}

	now := time.Now()
	today, _ := services.HoursOn(store, now)
	c.JSON(http.StatusOK, services.StoreResult{
		Store:      store,
		IsOpen:     services.IsOpenAt(store, now),
		TodayHours: today,
	})
}

// GetStoreSlots lists bookable service slots on a day
func GetStoreSlots(c *gin.Context) {
	store, ok := loadStore(c)
	if !ok {
		return
	}

	date, err := utils.ParseDate(c.Query("date"), store.Location())
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if svc := c.Query("service"); svc != "" && !store.Services.Contains(svc) {
		utils.RespondWithError(c, http.StatusBadRequest, "Store does not offer "+svc)
		return
	}

	// Overnight windows can spill into the next day.
	dayStart := utils.BeginningOfDay(date.In(store.Location()))
	var booked []time.Time
	if err := config.DB.Model(&models.Appointment{}).
		Where("store_id = ? AND status IN ? AND scheduled_at >= ? AND scheduled_at < ?", store.ID,
			[]string{models.AppointmentScheduled, models.AppointmentConfirmed},
			dayStart, dayStart.Add(48*time.Hour)).
		Pluck("scheduled_at", &booked).Error; err != nil {
		respondDBError(c, err, "appointment")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"storeId": store.ID,
		"date":    dayStart.Format("2006-01-02"),
		"slots":   services.AvailableSlots(store, dayStart, booked, time.Now()),
	})
}
