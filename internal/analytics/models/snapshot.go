package models

// DateLayout is the UTC calendar-day key used for time-series buckets.
const DateLayout = "2006-01-02"

// Snapshot is the derived visit breakdown for one alias.
//
// Devices, Referrers and TimeSeries are computed from the visit ledger; totals and
// tags are copied from the alias record.
type Snapshot struct {
	Code           string
	OriginalURL    string
	TotalVisits    int64
	UniqueVisitors int64
	Devices        map[string]int64
	Referrers      map[string]int64
	Tags           []string
	TimeSeries     []DailyCount
}

// DailyCount is the number of visits on one UTC day, not cumulative.
type DailyCount struct {
	Date  string
	Count int64
}

// Window limits the time series to the last Days days before the request date.
// Zero keeps every bucket.
type Window struct {
	Days int
}
