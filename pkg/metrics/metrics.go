// Package metrics computes dashboard aggregates over the conversation
// corpus.
package metrics

import (
	"sort"
	"time"

	"github.com/1acre-in/message-analytics/pkg/corpus"
)

// Overview summarizes the whole corpus.
type Overview struct {
	TotalConversations  int     `json:"total_conversations"`
	TotalMessages       int     `json:"total_messages"`
	AvgDurationDays     float64 `json:"avg_duration_days"`
	ActiveConversations int     `json:"active_conversations"`
}

// OverviewAt computes the overview as of now. A conversation counts as
// active when its last contact falls inside the trailing window.
func OverviewAt(c *corpus.Corpus, now time.Time, activeWindow time.Duration) Overview {
	o := Overview{TotalConversations: c.Len()}
	if c.Len() == 0 {
		return o
	}

	cutoff := now.Add(-activeWindow)
	totalDuration := 0
	for i := 0; i < c.Len(); i++ {
		r := c.Record(i)
		o.TotalMessages += r.MessageCount
		totalDuration += r.DurationDays
		if !r.LastContact.Before(cutoff) {
			o.ActiveConversations++
		}
	}
	o.AvgDurationDays = float64(totalDuration) / float64(c.Len())
	return o
}

// DayCount is one day's conversation count.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// DailyVolume buckets conversations by first-contact date, ascending.
func DailyVolume(c *corpus.Corpus) []DayCount {
	counts := make(map[string]int)
	for i := 0; i < c.Len(); i++ {
		day := c.Record(i).FirstContact.Format("2006-01-02")
		counts[day]++
	}

	out := make([]DayCount, 0, len(counts))
	for day, count := range counts {
		out = append(out, DayCount{Day: day, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// ActivityGrid returns the average message count per weekday and hour
// of first contact. Rows are weekdays with Monday first, columns are
// hours 0-23.
func ActivityGrid(c *corpus.Corpus) [7][24]float64 {
	var sums [7][24]float64
	var counts [7][24]int

	for i := 0; i < c.Len(); i++ {
		r := c.Record(i)
		day := (int(r.FirstContact.Weekday()) + 6) % 7
		hour := r.FirstContact.Hour()
		sums[day][hour] += float64(r.MessageCount)
		counts[day][hour]++
	}

	var grid [7][24]float64
	for d := 0; d < 7; d++ {
		for h := 0; h < 24; h++ {
			if counts[d][h] > 0 {
				grid[d][h] = sums[d][h] / float64(counts[d][h])
			}
		}
	}
	return grid
}

// DurationBuckets counts conversations by lifetime length.
func DurationBuckets(c *corpus.Corpus) map[string]int {
	buckets := map[string]int{
		"1":     0,
		"2-7":   0,
		"8-30":  0,
		"31-90": 0,
		">90":   0,
	}
	for i := 0; i < c.Len(); i++ {
		d := c.Record(i).DurationDays
		switch {
		case d <= 1:
			buckets["1"]++
		case d <= 7:
			buckets["2-7"]++
		case d <= 30:
			buckets["8-30"]++
		case d <= 90:
			buckets["31-90"]++
		default:
			buckets[">90"]++
		}
	}
	return buckets
}
