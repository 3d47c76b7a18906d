package calendar

import (
	"math"
	"time"
)

// Tuning holds the query-complexity estimation knobs.
type Tuning struct {
	AvgDailyEvents    float64
	BufferMultiplier  float64
	MaxEstimationDays int
	BasePageSize      int
	MinPageSize       int
	MaxPageSize       int
}

// queryPlan decides between one direct request and the paginated strategy,
// and carries the adapted page size.
type queryPlan struct {
	Days      int
	Estimated int
	Paginate  bool
	PageSize  int64
}

// planQuery estimates result volume for the window and sizes pages
// accordingly. Long windows paginate; short ones go out as one request.
func planQuery(start, end time.Time, t Tuning) queryPlan {
	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	if days < 1 {
		days = 1
	}

	estimated := int(math.Ceil(float64(days) * t.AvgDailyEvents * t.BufferMultiplier))

	paginate := days > 30 || estimated > 200 || days > t.MaxEstimationDays/3

	size := float64(t.BasePageSize)
	switch {
	case estimated < 100:
		// Shrink toward the expected count plus a margin.
		size = math.Min(size, float64(estimated+20))
	case estimated <= 300:
		size *= 1.5
	}
	if days > 60 {
		size *= 0.7
	} else if days < 7 {
		size *= 1.3
	}
	size = math.Max(float64(t.MinPageSize), math.Min(float64(t.MaxPageSize), size))

	return queryPlan{
		Days:      days,
		Estimated: estimated,
		Paginate:  paginate,
		PageSize:  int64(size),
	}
}
