package models

// Statistics are the public storefront counters.
type Statistics struct {
	TotalStarsSent     int64 `json:"total_stars_sent"`
	YesterdayStarsSent int64 `json:"yesterday_stars_sent"`
	TodayStarsSent     int64 `json:"today_stars_sent"`
}
