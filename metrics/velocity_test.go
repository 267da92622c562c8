package metrics

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dasinsights/models"
)

func TestAggregateInsufficientInput(t *testing.T) {
	if _, err := Aggregate(nil, []string{"2024-03-01"}, VelocityOptions{}); !errors.Is(err, models.ErrInsufficientSnapshots) {
		t.Errorf("expected ErrInsufficientSnapshots, got %v", err)
	}
	if _, err := Aggregate(nil, []string{"2024-03-01", "2024-03-02"}, VelocityOptions{}); !errors.Is(err, models.ErrInsufficientSnapshots) {
		t.Errorf("expected ErrInsufficientSnapshots for empty pair list, got %v", err)
	}
}

func TestAggregateChangeFrequency(t *testing.T) {
	day1 := makeDay(t, "2024-03-01", map[string][]models.BidderRef{cohortUS: refs("a", "b")})
	day2 := makeDay(t, "2024-03-02", map[string][]models.BidderRef{cohortUS: refs("a", "b")})
	day3 := makeDay(t, "2024-03-03", map[string][]models.BidderRef{cohortUS: refs("a", "c")})

	pairs := []*DayPairChanges{
		Diff(day1, day2, DiffOptions{}),
		Diff(day2, day3, DiffOptions{}),
	}
	dates := []string{"2024-03-01", "2024-03-02", "2024-03-03"}

	report, err := Aggregate(pairs, dates, VelocityOptions{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if report.DayPairs != 2 {
		t.Fatalf("expected 2 day pairs, got %d", report.DayPairs)
	}
	if len(report.TopByListChanges) != 1 {
		t.Fatalf("expected one ranked cohort, got %+v", report.TopByListChanges)
	}
	entry := report.TopByListChanges[0]
	if entry.Cohort != cohortUS {
		t.Errorf("unexpected cohort %q", entry.Cohort)
	}
	if entry.TotalChanges != 1 || entry.ListChanges != 1 || entry.ConfigChanges != 0 {
		t.Errorf("unexpected counters: %+v", entry)
	}
	if entry.PairsObserved != 2 {
		t.Errorf("expected cohort observed in 2 pairs, got %d", entry.PairsObserved)
	}
	if entry.ChangeFrequency != 50 {
		t.Errorf("expected 50%% change frequency, got %v", entry.ChangeFrequency)
	}
	if entry.LastChanged != "2024-03-03" {
		t.Errorf("expected last change on 2024-03-03, got %q", entry.LastChanged)
	}
	if diff := cmp.Diff([]string{"2024-03-02->2024-03-03"}, entry.RecentPairs); diff != "" {
		t.Errorf("recent pairs mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateDefaultWindowCoversFullPeriod(t *testing.T) {
	day1 := makeDay(t, "2024-03-01", map[string][]models.BidderRef{cohortUS: refs("a")})
	day2 := makeDay(t, "2024-03-10", map[string][]models.BidderRef{cohortUS: refs("b")})

	report, err := Aggregate(
		[]*DayPairChanges{Diff(day1, day2, DiffOptions{})},
		[]string{"2024-03-01", "2024-03-10"},
		VelocityOptions{},
	)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	// The default window is anchored at the first snapshot date, regardless
	// of the calendar gap between snapshots.
	if report.WindowDays != 2 {
		t.Errorf("expected window of 2 days, got %d", report.WindowDays)
	}
	if report.WindowEnd != "2024-03-10" || report.WindowStart != "2024-03-01" {
		t.Errorf("unexpected window bounds: %s .. %s", report.WindowStart, report.WindowEnd)
	}
	if report.DayPairs != 1 {
		t.Errorf("expected the single pair to stay in the window, got %d", report.DayPairs)
	}
}

func TestAggregateDefaultWindowKeepsEarlyPairsAcrossGaps(t *testing.T) {
	day1 := makeDay(t, "2024-03-01", map[string][]models.BidderRef{cohortUS: refs("a", "b")})
	day2 := makeDay(t, "2024-03-02", map[string][]models.BidderRef{cohortUS: refs("a", "c")})
	day3 := makeDay(t, "2024-03-10", map[string][]models.BidderRef{cohortUS: refs("a", "c")})

	pairs := []*DayPairChanges{
		Diff(day1, day2, DiffOptions{}),
		Diff(day2, day3, DiffOptions{}),
	}
	dates := []string{"2024-03-01", "2024-03-02", "2024-03-10"}

	report, err := Aggregate(pairs, dates, VelocityOptions{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	// The only change happened on the earliest pair; a sparse date sequence
	// must not push it out of the default window.
	if report.DayPairs != 2 {
		t.Fatalf("expected both pairs in the default window, got %d", report.DayPairs)
	}
	if report.WindowStart != "2024-03-01" || report.WindowEnd != "2024-03-10" {
		t.Errorf("unexpected window bounds: %s .. %s", report.WindowStart, report.WindowEnd)
	}
	if len(report.TopByListChanges) != 1 {
		t.Fatalf("early list change missing from rankings: %+v", report.TopByListChanges)
	}
	entry := report.TopByListChanges[0]
	if entry.TotalChanges != 1 || entry.ListChanges != 1 || entry.PairsObserved != 2 {
		t.Errorf("unexpected counters: %+v", entry)
	}
	if entry.LastChanged != "2024-03-02" {
		t.Errorf("expected last change on 2024-03-02, got %q", entry.LastChanged)
	}
}

func TestAggregateWindowExcludesOldPairs(t *testing.T) {
	day1 := makeDay(t, "2024-03-01", map[string][]models.BidderRef{cohortUS: refs("a")})
	day2 := makeDay(t, "2024-03-02", map[string][]models.BidderRef{cohortUS: refs("b")})
	day3 := makeDay(t, "2024-03-10", map[string][]models.BidderRef{cohortUS: refs("c")})

	pairs := []*DayPairChanges{
		Diff(day1, day2, DiffOptions{}),
		Diff(day2, day3, DiffOptions{}),
	}
	dates := []string{"2024-03-01", "2024-03-02", "2024-03-10"}

	report, err := Aggregate(pairs, dates, VelocityOptions{WindowDays: 3})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	// Window is 2024-03-08..2024-03-10; a pair belongs when its later date
	// falls inside, so only day2->day3 counts.
	if report.DayPairs != 1 {
		t.Fatalf("expected 1 in-window pair, got %d", report.DayPairs)
	}
	entry := report.TopByListChanges[0]
	if entry.TotalChanges != 1 || entry.PairsObserved != 1 {
		t.Errorf("out-of-window pair leaked into the counters: %+v", entry)
	}
	if entry.ChangeFrequency != 100 {
		t.Errorf("expected 100%% frequency inside the window, got %v", entry.ChangeFrequency)
	}
}

func TestAggregateFrequencyNeverExceedsBound(t *testing.T) {
	day1 := makeDay(t, "2024-03-01", map[string][]models.BidderRef{
		cohortUS:             refs("a"),
		"DE|beispiel.de|web": refs("x"),
	})
	day2 := makeDay(t, "2024-03-02", map[string][]models.BidderRef{
		cohortUS:             refs("b"),
		"DE|beispiel.de|web": refs("x"),
	})
	day3 := makeDay(t, "2024-03-03", map[string][]models.BidderRef{
		cohortUS:             refs("c"),
		"DE|beispiel.de|web": refs("x"),
	})

	pairs := []*DayPairChanges{
		Diff(day1, day2, DiffOptions{}),
		Diff(day2, day3, DiffOptions{}),
	}
	report, err := Aggregate(pairs, []string{"2024-03-01", "2024-03-02", "2024-03-03"}, VelocityOptions{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	for _, entry := range report.TopByListChanges {
		bound := 100 * float64(entry.TotalChanges) / float64(report.DayPairs)
		if entry.ChangeFrequency > 100 || entry.ChangeFrequency < bound {
			t.Errorf("frequency %v outside [%v, 100] for %s", entry.ChangeFrequency, bound, entry.Cohort)
		}
	}
}

func TestAggregateRankingTiesBreakByCohortKey(t *testing.T) {
	day1 := makeDay(t, "2024-03-01", map[string][]models.BidderRef{
		"US|b.com|mobile": refs("a"),
		"US|a.com|mobile": refs("a"),
		"US|c.com|mobile": refs("a"),
	})
	day2 := makeDay(t, "2024-03-02", map[string][]models.BidderRef{
		"US|b.com|mobile": refs("b"),
		"US|a.com|mobile": refs("b"),
		"US|c.com|mobile": refs("a"),
	})

	report, err := Aggregate(
		[]*DayPairChanges{Diff(day1, day2, DiffOptions{})},
		[]string{"2024-03-01", "2024-03-02"},
		VelocityOptions{TopN: 1},
	)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(report.TopByListChanges) != 1 {
		t.Fatalf("top_n must bound the table, got %d entries", len(report.TopByListChanges))
	}
	if report.TopByListChanges[0].Cohort != "US|a.com|mobile" {
		t.Errorf("tie must break by cohort key ascending, got %q", report.TopByListChanges[0].Cohort)
	}
	// The unchanged cohort carries zero changes and never ranks.
	for _, entry := range report.TopByListChanges {
		if entry.Cohort == "US|c.com|mobile" {
			t.Errorf("zero-change cohort must not appear in rankings")
		}
	}
}

func TestAggregateConfigAndListTablesAreIndependent(t *testing.T) {
	timeout100 := 100.0
	timeout200 := 200.0
	day1 := makeDay(t, "2024-03-01", map[string][]models.BidderRef{
		"US|lists.com|mobile": refs("a"),
		"US|cfg.com|mobile":   {{ID: "a", Timeout: &timeout100}},
	})
	day2 := makeDay(t, "2024-03-02", map[string][]models.BidderRef{
		"US|lists.com|mobile": refs("b"),
		"US|cfg.com|mobile":   {{ID: "a", Timeout: &timeout200}},
	})

	report, err := Aggregate(
		[]*DayPairChanges{Diff(day1, day2, DiffOptions{})},
		[]string{"2024-03-01", "2024-03-02"},
		VelocityOptions{},
	)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(report.TopByListChanges) != 1 || report.TopByListChanges[0].Cohort != "US|lists.com|mobile" {
		t.Errorf("unexpected list-change table: %+v", report.TopByListChanges)
	}
	if len(report.TopByConfigChanges) != 1 || report.TopByConfigChanges[0].Cohort != "US|cfg.com|mobile" {
		t.Errorf("unexpected config-change table: %+v", report.TopByConfigChanges)
	}
}

func TestAggregateRecentPairsBounded(t *testing.T) {
	dates := []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04", "2024-03-05"}
	days := make([]*DaySnapshot, len(dates))
	for i, date := range dates {
		days[i] = makeDay(t, date, map[string][]models.BidderRef{cohortUS: refs("bidder-" + date)})
	}
	var pairs []*DayPairChanges
	for i := 1; i < len(days); i++ {
		pairs = append(pairs, Diff(days[i-1], days[i], DiffOptions{}))
	}

	report, err := Aggregate(pairs, dates, VelocityOptions{RecentPairs: 2})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	entry := report.TopByListChanges[0]
	want := []string{"2024-03-03->2024-03-04", "2024-03-04->2024-03-05"}
	if diff := cmp.Diff(want, entry.RecentPairs); diff != "" {
		t.Errorf("recent pairs must keep only the newest entries (-want +got):\n%s", diff)
	}
}
