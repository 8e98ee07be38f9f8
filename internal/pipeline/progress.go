package pipeline

import "time"

// Pipeline steps, in execution order
const (
	StepRead = iota + 1
	StepParse
	StepFilterOptions
	StepValidate
	StepAnalyze
	StepFetchCatalog
	StepEnrich
	StepSaveEnriched
	StepReport
	StepComplete
)

// TotalSteps is the number of progress events a full run emits
const TotalSteps = StepComplete

var stepNames = map[int]string{
	StepRead:          "Reading sales data",
	StepParse:         "Parsing transactions",
	StepFilterOptions: "Collecting filter options",
	StepValidate:      "Validating and filtering",
	StepAnalyze:       "Analyzing sales",
	StepFetchCatalog:  "Fetching product catalog",
	StepEnrich:        "Enriching transactions",
	StepSaveEnriched:  "Saving enriched data",
	StepReport:        "Generating report",
	StepComplete:      "Complete",
}

// StepName returns the display name of a step
func StepName(step int) string {
	return stepNames[step]
}

// ProgressEvent reports that a pipeline step has finished
type ProgressEvent struct {
	Step       int           `json:"step"`
	TotalSteps int           `json:"total_steps"`
	Name       string        `json:"name"`
	Detail     string        `json:"detail"`
	Elapsed    time.Duration `json:"elapsed"`
}

// PercentComplete returns the share of steps done
func (e ProgressEvent) PercentComplete() float64 {
	return float64(e.Step) / float64(e.TotalSteps) * 100
}

// ProgressCallback is called to report pipeline progress
type ProgressCallback func(ProgressEvent)
