package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"loyalty-backend/models"
)

const (
	earthRadiusKm = 6371.0
	SlotLength    = 30 * time.Minute
)

type GeoPoint struct {
	Lat float64
	Lng float64
}

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(a, b GeoPoint) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func roundKm(km float64) float64 {
	return math.Round(km*10) / 10
}

type StoreQuery struct {
	Origin    *GeoPoint
	RadiusKm  float64
	Services  []string
	Amenities []string
	MinRating float64
	OpenNow   bool
	Sort      string // distance, rating, name
	Limit     int
	Now       time.Time
}

type StoreResult struct {
	models.Store
	DistanceKm *float64        `json:"distanceKm,omitempty"`
	IsOpen     bool            `json:"isOpen"`
	TodayHours models.DayHours `json:"todayHours"`
}

type storePredicate func(s models.Store, distance *float64) bool

func (q StoreQuery) predicates() []storePredicate {
	var preds []storePredicate

	if q.Origin != nil && q.RadiusKm > 0 {
		preds = append(preds, func(_ models.Store, d *float64) bool {
			return d != nil && *d <= q.RadiusKm
		})
	}
	for _, svc := range q.Services {
		svc := svc
		preds = append(preds, func(s models.Store, _ *float64) bool { return s.Services.Contains(svc) })
	}
	for _, a := range q.Amenities {
		a := a
		preds = append(preds, func(s models.Store, _ *float64) bool { return s.Amenities.Contains(a) })
	}
	if q.MinRating > 0 {
		preds = append(preds, func(s models.Store, _ *float64) bool { return s.Rating >= q.MinRating })
	}
	if q.OpenNow {
		preds = append(preds, func(s models.Store, _ *float64) bool { return IsOpenAt(s, q.Now) })
	}
	return preds
}

// FilterStores applies the query's predicates in order, then sorts and limits.
func FilterStores(stores []models.Store, q StoreQuery) []StoreResult {
	if q.Now.IsZero() {
		q.Now = time.Now()
	}
	preds := q.predicates()

	results := make([]StoreResult, 0, len(stores))
outer:
	for _, s := range stores {
		var distance *float64
		if q.Origin != nil {
			d := roundKm(HaversineKm(*q.Origin, GeoPoint{Lat: s.Latitude, Lng: s.Longitude}))
			distance = &d
		}
		for _, p := range preds {
			if !p(s, distance) {
				continue outer
			}
		}
		today, _ := HoursOn(s, q.Now)
		results = append(results, StoreResult{
			Store:      s,
			DistanceKm: distance,
			IsOpen:     IsOpenAt(s, q.Now),
			TodayHours: today,
		})
	}

	sortStores(results, q)

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results
}

func sortStores(results []StoreResult, q StoreQuery) {
	mode := q.Sort
	if mode == "" {
		mode = "name"
		if q.Origin != nil {
			mode = "distance"
		}
	}
	if mode == "distance" && q.Origin == nil {
		mode = "name"
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		switch mode {
		case "distance":
			if *a.DistanceKm != *b.DistanceKm {
				return *a.DistanceKm < *b.DistanceKm
			}
		case "rating":
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}

func parseClock(s string) (time.Duration, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}

// HoursOn returns the opening hours for the weekday of t in the store's timezone.
func HoursOn(s models.Store, t time.Time) (models.DayHours, bool) {
	day := strings.ToLower(t.In(s.Location()).Weekday().String())
	h, ok := s.OpeningHours[day]
	return h, ok
}

// openWindow resolves the opening interval that starts on the calendar day of day.
// A closing time at or before the opening time runs past midnight.
func openWindow(s models.Store, day time.Time) (time.Time, time.Time, bool) {
	loc := s.Location()
	day = day.In(loc)

	h, ok := HoursOn(s, day)
	if !ok || h.Closed {
		return time.Time{}, time.Time{}, false
	}
	open, okOpen := parseClock(h.Open)
	closeAt, okClose := parseClock(h.Close)
	if !okOpen || !okClose {
		return time.Time{}, time.Time{}, false
	}

	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	start := midnight.Add(open)
	end := midnight.Add(closeAt)
	if closeAt <= open {
		end = end.Add(24 * time.Hour)
	}
	return start, end, true
}

// IsOpenAt checks today's window and any overnight window carried over from yesterday.
func IsOpenAt(s models.Store, t time.Time) bool {
	for _, day := range []time.Time{t, t.AddDate(0, 0, -1)} {
		start, end, ok := openWindow(s, day)
		if ok && !t.Before(start) && t.Before(end) {
			return true
		}
	}
	return false
}

// FitsOpeningHours reports whether a full slot starting at t ends before closing.
func FitsOpeningHours(s models.Store, t time.Time, length time.Duration) bool {
	for _, day := range []time.Time{t, t.AddDate(0, 0, -1)} {
		start, end, ok := openWindow(s, day)
		if ok && !t.Before(start) && !t.Add(length).After(end) {
			return true
		}
	}
	return false
}

// IsSlotStart reports whether t is one of the slot boundaries counted from the opening time
// of the window that contains it.
func IsSlotStart(s models.Store, t time.Time) bool {
	for _, day := range []time.Time{t, t.AddDate(0, 0, -1)} {
		start, end, ok := openWindow(s, day)
		if !ok || t.Before(start) || t.Add(SlotLength).After(end) {
			continue
		}
		if t.Sub(start)%SlotLength == 0 {
			return true
		}
	}
	return false
}

type Slot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Remaining int       `json:"remaining"`
}

// AvailableSlots lists bookable slots on date, skipping past and full ones.
// booked holds the start times of appointments that still occupy a bay.
func AvailableSlots(s models.Store, date time.Time, booked []time.Time, now time.Time) []Slot {
	start, end, ok := openWindow(s, date)
	if !ok {
		return []Slot{}
	}

	capacity := s.Bays
	if capacity <= 0 {
		capacity = 1
	}

	taken := make(map[int64]int, len(booked))
	for _, b := range booked {
		taken[b.Unix()]++
	}

	slots := []Slot{}
	for t := start; !t.Add(SlotLength).After(end); t = t.Add(SlotLength) {
		if t.Before(now) {
			continue
		}
		remaining := capacity - taken[t.Unix()]
		if remaining <= 0 {
			continue
		}
		slots = append(slots, Slot{Start: t, End: t.Add(SlotLength), Remaining: remaining})
	}
	return slots
}
