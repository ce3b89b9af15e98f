package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gmb-scraper/models"
)

type Report struct {
	TotalListings     int
	KeywordsProcessed int
	KeywordsSkipped   int
	KeywordsFailed    int
	WithPhone         int
	WithAddress       int
	AverageRating     float64
	ListingsByKeyword map[string]int
	TopCategories     []CategoryCount
	TopRated          []models.Listing
}

type CategoryCount struct {
	Category string
	Count    int
}

// RunStats are the keyword counters the orchestrator collects.
type RunStats struct {
	Processed int
	Skipped   int
	Failed    int
}

// GenerateReport summarises the result set of one run.
func GenerateReport(listings []models.Listing, stats RunStats) Report {
	report := Report{
		TotalListings:     len(listings),
		KeywordsProcessed: stats.Processed,
		KeywordsSkipped:   stats.Skipped,
		KeywordsFailed:    stats.Failed,
		ListingsByKeyword: make(map[string]int),
	}

	var (
		ratingSum   float64
		ratingCount int
		rated       []models.Listing
		categories  = make(map[string]int)
	)

	for _, l := range listings {
		report.ListingsByKeyword[l.Keyword]++

		if l.Phone != nil {
			report.WithPhone++
		}
		if l.Address != nil {
			report.WithAddress++
		}
		if l.Category != nil {
			categories[strings.TrimSpace(*l.Category)]++
		}
		if l.Rating != nil {
			ratingSum += *l.Rating
			ratingCount++
			rated = append(rated, l)
		}
	}

	if ratingCount > 0 {
		report.AverageRating = ratingSum / float64(ratingCount)
	}

	sort.SliceStable(rated, func(i, j int) bool {
		ri, rj := *rated[i].Rating, *rated[j].Rating
		if ri == rj {
			return reviews(rated[i]) > reviews(rated[j])
		}
		return ri > rj
	})
	if len(rated) > 5 {
		rated = rated[:5]
	}
	report.TopRated = rated

	for c, n := range categories {
		report.TopCategories = append(report.TopCategories, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(report.TopCategories, func(i, j int) bool {
		a, b := report.TopCategories[i], report.TopCategories[j]
		if a.Count == b.Count {
			return a.Category < b.Category
		}
		return a.Count > b.Count
	})
	if len(report.TopCategories) > 5 {
		report.TopCategories = report.TopCategories[:5]
	}

	return report
}

func PrintReport(w io.Writer, report Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "┌──────────────────────────────────────────────────────────────┐")
	fmt.Fprintln(w, "│                       GMB Scrape Summary                     │")
	fmt.Fprintln(w, "├───────────────────────────────┬──────────────────────────────┤")
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "Keywords Processed", report.KeywordsProcessed)
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "Keywords Already Done", report.KeywordsSkipped)
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "Keywords Without Data", report.KeywordsFailed)
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "Total Listings", report.TotalListings)
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "With Phone Number", report.WithPhone)
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "With Address", report.WithAddress)
	fmt.Fprintf(w, "│ %-29s │ %-28.2f │\n", "Average Rating", report.AverageRating)
	fmt.Fprintln(w, "└───────────────────────────────┴──────────────────────────────┘")

	if len(report.ListingsByKeyword) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "┌──────────────────────────────────────────────┬───────────────┐")
		fmt.Fprintln(w, "│ Listings per Keyword                         │ Count         │")
		fmt.Fprintln(w, "├──────────────────────────────────────────────┼───────────────┤")
		keys := make([]string, 0, len(report.ListingsByKeyword))
		for k := range report.ListingsByKeyword {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "│ %-44s │ %-13d │\n", truncateText(k, 44), report.ListingsByKeyword[k])
		}
		fmt.Fprintln(w, "└──────────────────────────────────────────────┴───────────────┘")
	}

	if len(report.TopRated) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "┌─────┬──────────────────────────────────────────────┬──────────┐")
		fmt.Fprintln(w, "│ #   │ Top Rated Businesses                         │ Rating   │")
		fmt.Fprintln(w, "├─────┼──────────────────────────────────────────────┼──────────┤")
		for i, l := range report.TopRated {
			name := ""
			if l.Name != nil {
				name = *l.Name
			}
			fmt.Fprintf(w, "│ %-3d │ %-44s │ %-8.1f │\n", i+1, truncateText(name, 44), *l.Rating)
		}
		fmt.Fprintln(w, "└─────┴──────────────────────────────────────────────┴──────────┘")
	}
}

func reviews(l models.Listing) int {
	if l.ReviewCount == nil {
		return 0
	}
	return *l.ReviewCount
}

func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
