package models

import (
	"time"

	"github.com/guregu/null/v6"

	"github.com/quantopy-dev/quantopy/returns"
)

// AnalysisSettingsResources lists the period and compounding names the
// service accepts, so callers never have to hardcode them.
type AnalysisSettingsResources struct {
	Periods     map[string]int `json:"periods"`     // name -> periods per year
	Compounding map[string]int `json:"compounding"` // name -> internal code
}

// GetAnalysisSettingsResources returns the analysis settings resources. This
// approach makes sure everything is mapped correctly so uses a shared
// resource.
func GetAnalysisSettingsResources() AnalysisSettingsResources {
	all := []returns.Period{
		returns.Daily,
		returns.Weekly,
		returns.Monthly,
		returns.Quarterly,
		returns.Semiannual,
		returns.Yearly,
	}

	periods := make(map[string]int, len(all))
	for _, p := range all {
		factor, err := p.AnnualizationFactor()
		if err != nil {
			continue
		}
		periods[p.String()] = factor
	}

	compounding := map[string]int{
		returns.Simple.String():     int(returns.Simple),
		returns.Continuous.String(): int(returns.Continuous),
	}

	return AnalysisSettingsResources{
		Periods:     periods,
		Compounding: compounding,
	}
}

// AnalysisRequestSettings selects how a set of return sequences is analyzed.
// Period and Compounding carry the names from the settings resources; an
// empty compounding means simple.
type AnalysisRequestSettings struct {
	Period            string  `json:"period"`
	Compounding       string  `json:"compounding"`
	Alpha             float64 `json:"alpha"`
	IncludeCumulative bool    `json:"includeCumulative"`
	IncludeLogReturns bool    `json:"includeLogReturns"`
}

// ReturnAnalytics is the per-sequence result payload. The shape statistics
// are null when the sequence is too short to support them.
type ReturnAnalytics struct {
	Name           string     `json:"name"`
	Observations   int        `json:"observations"`
	Mean           float64    `json:"mean"`
	Gmean          float64    `json:"gmean"`
	TotalReturn    float64    `json:"totalReturn"`
	Annualized     float64    `json:"annualized"`
	FirstObserved  null.Time  `json:"firstObserved"`
	LastObserved   null.Time  `json:"lastObserved"`
	Skew           null.Float `json:"skew"`
	ExcessKurtosis null.Float `json:"excessKurtosis"`
	JarqueBera     null.Float `json:"jarqueBera"`
	Normal         null.Bool  `json:"normal"`
	Cumulative     []float64  `json:"cumulative,omitempty"`
	LogReturns     []float64  `json:"logReturns,omitempty"`
}

// SeriesAnalyticsRequest analyzes one sequence supplied inline, either as
// returns or as prices. Exactly one of the two must be set.
type SeriesAnalyticsRequest struct {
	Name     string                  `json:"name"`
	Returns  []float64               `json:"returns,omitempty"`
	Prices   []float64               `json:"prices,omitempty"`
	Settings AnalysisRequestSettings `json:"settings"`
}

type NamedSequencePayload struct {
	Name    string    `json:"name"`
	Returns []float64 `json:"returns,omitempty"`
	Prices  []float64 `json:"prices,omitempty"`
}

// TableAnalyticsRequest analyzes several sequences supplied inline as one
// table.
type TableAnalyticsRequest struct {
	Columns  []NamedSequencePayload  `json:"columns"`
	Settings AnalysisRequestSettings `json:"settings"`
}

type TableAnalyticsResponse struct {
	Results []ReturnAnalytics `json:"results"`
}

// AnalysisRequest analyzes stored symbols over an optional date window. The
// date bounds use yyyy-mm-dd.
type AnalysisRequest struct {
	Symbols  []string                `json:"symbols"`
	Start    string                  `json:"start,omitempty"`
	End      string                  `json:"end,omitempty"`
	Settings AnalysisRequestSettings `json:"settings"`
}

type AnalysisResponse struct {
	RunId   int32             `json:"runId"`
	Results []ReturnAnalytics `json:"results"`
}

// GroupAnalysisRequest analyzes every member of a stored group.
type GroupAnalysisRequest struct {
	Start    string                  `json:"start,omitempty"`
	End      string                  `json:"end,omitempty"`
	Settings AnalysisRequestSettings `json:"settings"`
}

type AnalysisRunHistory struct {
	Id           int32       `db:"id"`
	GroupId      null.Int    `db:"group_id"`
	Period       string      `db:"period"`
	Compounding  string      `db:"compounding"`
	SymbolCount  int32       `db:"symbol_count"`
	WindowStart  null.Time   `db:"window_start"`
	WindowEnd    null.Time   `db:"window_end"`
	CreatedAt    time.Time   `db:"created_at"`
	CompletedAt  null.Time   `db:"completed_at"`
	ErrorMessage null.String `db:"error_message"`
}
