// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

package correction

import (
	"fmt"
	"log"
	"os"

	"github.com/aruidiaz/mapasalud/coords"
	"github.com/aruidiaz/mapasalud/facility"
	"github.com/aruidiaz/mapasalud/spatial"
	"github.com/aruidiaz/mapasalud/utils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Outcome is the terminal state of a facility after a run.
type Outcome int

const (
	// OutcomeValid means the raw coordinates needed no correction.
	OutcomeValid Outcome = iota
	// OutcomeResolved means a correction was adopted (from the table or
	// a fresh geocoding call).
	OutcomeResolved
	// OutcomeStillDefective means the defect could not be resolved; the
	// original coordinates are left untouched.
	OutcomeStillDefective
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeResolved:
		return "resolved"
	case OutcomeStillDefective:
		return "still_defective"
	default:
		return "unknown"
	}
}

// DefaultBudget caps external geocoding calls per run. The quota is
// paid per call, so the stop is a planned condition, not an error.
const DefaultBudget = 100

// Options tunes a Checker run. The zero value selects the Spain
// defaults and the default budget.
type Options struct {
	// Classifier to diagnose raw coordinates; nil selects NewClassifier().
	Classifier *coords.Classifier

	// Budget is the maximum number of geocoding calls in this run.
	// Zero or negative selects DefaultBudget.
	Budget int

	// DryRun skips persisting the correction table.
	DryRun bool
}

// Report aggregates per-classification and per-outcome counts for a
// run. It is the operator's only feedback on how the geocoding budget
// was spent, so it is produced always, not just logged.
type Report struct {
	Total           int                   `json:"total"`
	Defects         map[coords.Defect]int `json:"-"`
	Outcomes        map[Outcome]int       `json:"-"`
	FromStore       int                   `json:"from_store"`
	Geocoded        int                   `json:"geocoded"`
	GeocodeCalls    int                   `json:"geocode_calls"`
	GeocodeFailures int                   `json:"geocode_failures"`
	BudgetExhausted bool                  `json:"budget_exhausted"`
	AnalysisOnly    bool                  `json:"analysis_only"`
}

func newReport() *Report {
	return &Report{
		Defects:  make(map[coords.Defect]int),
		Outcomes: make(map[Outcome]int),
	}
}

// Log prints the aggregate counts the way the operator reads them.
func (r *Report) Log() {
	log.Println("Coordinate check results:")
	log.Printf("  Total facilities: %s", utils.FormatInt(int64(r.Total)))

	for _, d := range coords.Defects {
		log.Printf("  %-14s %s", d.String()+":", utils.FormatInt(int64(r.Defects[d])))
	}

	log.Printf("  Resolved: %s (%s from prior corrections, %s freshly geocoded)",
		utils.FormatInt(int64(r.Outcomes[OutcomeResolved])),
		utils.FormatInt(int64(r.FromStore)),
		utils.FormatInt(int64(r.Geocoded)))
	log.Printf("  Still defective: %s", utils.FormatInt(int64(r.Outcomes[OutcomeStillDefective])))
	log.Printf("  Geocoding calls: %s (%s failed)",
		utils.FormatInt(int64(r.GeocodeCalls)),
		utils.FormatInt(int64(r.GeocodeFailures)))

	if r.BudgetExhausted {
		log.Println("  Geocoding budget exhausted before all defects were attempted")
	}

	if r.AnalysisOnly {
		log.Println("  Analysis-only run: no geocoding backend was configured")
	}
}

// Checker walks the facility table, diagnoses each coordinate pair and
// resolves defects through the correction table first and the geocoding
// backend second. It owns the Store exclusively for the duration of the
// run; processing is strictly sequential so store updates stay ordered.
type Checker struct {
	classifier *coords.Classifier
	store      *Store
	geocoder   Geocoder
	options    Options
}

// NewChecker builds a Checker. geocoder may be nil: the run then only
// analyzes and adopts prior corrections, loudly, without network calls.
func NewChecker(store *Store, geocoder Geocoder, options Options) *Checker {
	classifier := options.Classifier
	if classifier == nil {
		classifier = coords.NewClassifier()
	}

	if options.Budget <= 0 {
		options.Budget = DefaultBudget
	}

	return &Checker{
		classifier: classifier,
		store:      store,
		geocoder:   geocoder,
		options:    options,
	}
}

// Run processes every facility and returns the corrected table (same
// order, input untouched) plus the aggregate report. The correction
// table is persisted exactly once, after the loop, so an interrupted
// run never leaves a partially rewritten file behind.
func (c *Checker) Run(facilities []*facility.Facility) ([]*facility.Facility, *Report, error) {
	report := newReport()
	report.Total = len(facilities)

	if c.geocoder == nil {
		report.AnalysisOnly = true

		log.Println("⚠️  No geocoding backend configured (missing GOOGLE_MAPS_API_KEY)")
		log.Println("⚠️  Running in analysis-only mode: unresolved defects stay defective")
	}

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(facilities),
			progressbar.OptionSetDescription("Checking coordinates"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	budget := c.options.Budget
	corrected := make([]*facility.Facility, 0, len(facilities))

	for _, src := range facilities {
		f := *src // read-only snapshot per run; work on a copy
		outcome := c.process(&f, report, &budget)
		report.Outcomes[outcome]++

		corrected = append(corrected, &f)

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	if c.options.DryRun {
		log.Println("Dry run: correction table not persisted")

		return corrected, report, nil
	}

	if err := c.store.Save(); err != nil {
		return corrected, report, fmt.Errorf("persisting correction table: %w", err)
	}

	return corrected, report, nil
}

// process runs the per-facility state machine and returns its terminal
// state. On OutcomeResolved the facility's coordinates are replaced; in
// every other case they are left exactly as the source had them.
func (c *Checker) process(f *facility.Facility, report *Report, budget *int) Outcome {
	defect := c.classifier.Classify(f.Lat, f.Lng)
	report.Defects[defect]++

	if defect == coords.Valid {
		// No store or network access for healthy rows.
		return OutcomeValid
	}

	// Prior corrections are the primary cost-avoidance path: a name hit
	// here must never spend a geocoding call.
	if prior, ok := c.store.Lookup(f.Name); ok {
		c.adopt(f, defect, prior.Lat, prior.Lng)
		report.FromStore++

		return OutcomeResolved
	}

	if c.geocoder == nil {
		return OutcomeStillDefective
	}

	if *budget <= 0 {
		report.BudgetExhausted = true

		return OutcomeStillDefective
	}

	query := f.GeocodeQuery()
	if query == "" {
		log.Printf("No usable address text for %q (%s), skipping geocoding", f.Name, defect)

		return OutcomeStillDefective
	}

	*budget--
	report.GeocodeCalls++

	result, err := c.geocoder.Geocode(query)
	if err != nil {
		report.GeocodeFailures++
		log.Printf("Geocoding %q failed: %s", f.Name, err)

		if IsQuotaExceededError(err) {
			// Provider-side quota counts as budget spent: stop calling.
			*budget = 0
			report.BudgetExhausted = true
		}

		return OutcomeStillDefective
	}

	c.adopt(f, defect, result.Latitude, result.Longitude)
	c.store.Upsert(f.Name, result.Latitude, result.Longitude)
	report.Geocoded++

	log.Printf("Geocoded %q -> (%f, %f) [%s, %s]",
		f.Name, result.Latitude, result.Longitude, result.Provider, result.Confidence)

	return OutcomeResolved
}

// adopt replaces the facility coordinates with the corrected pair and
// logs how far the fix moved it when the original pair was numeric.
func (c *Checker) adopt(f *facility.Facility, defect coords.Defect, lat, lng float64) {
	if defect == coords.OutOfBounds && f.HasCoordinates() {
		from := &spatial.Point{Lat: *f.Lat, Lng: *f.Lng}
		to := &spatial.Point{Lat: lat, Lng: lng}
		log.Printf("Correction moved %q %.1f km", f.Name, from.HaversineDistance(to)/1000)
	}

	f.Lat = &lat
	f.Lng = &lng
}

// DefectCounts returns the per-classification counts keyed by name,
// for JSON consumers.
func (r *Report) DefectCounts() map[string]int {
	ret := make(map[string]int, len(coords.Defects))
	for _, d := range coords.Defects {
		ret[d.String()] = r.Defects[d]
	}

	return ret
}

// OutcomeCounts returns the per-terminal-state counts keyed by name.
func (r *Report) OutcomeCounts() map[string]int {
	return map[string]int{
		OutcomeValid.String():          r.Outcomes[OutcomeValid],
		OutcomeResolved.String():       r.Outcomes[OutcomeResolved],
		OutcomeStillDefective.String(): r.Outcomes[OutcomeStillDefective],
	}
}
