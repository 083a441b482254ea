package operations

import "taxipulse/internal/dataprocessing"

// Step identifiers. The processing steps share the stage names used in
// reports and metrics.
const (
	StepIDLoad        = "load"
	StepIDSanitize    = dataprocessing.StageSanitize
	StepIDRouteFilter = dataprocessing.StageRouteFilter
	StepIDEnrich      = dataprocessing.StageEnrich
	StepIDYearFilter  = dataprocessing.StageYearFilter
	StepIDMonthFilter = dataprocessing.StageMonthFilter
)

// Step names
const (
	StepNameLoad        = "Load Extracts"
	StepNameSanitize    = "Sanitize Rows"
	StepNameRouteFilter = "Filter Routes"
	StepNameEnrich      = "Enrich Temporal Features"
	StepNameYearFilter  = "Keep Target Year"
	StepNameMonthFilter = "Keep Target Month"
)

// StepOrder is the mandatory execution order
var StepOrder = []string{
	StepIDLoad,
	StepIDSanitize,
	StepIDRouteFilter,
	StepIDEnrich,
	StepIDYearFilter,
	StepIDMonthFilter,
}
