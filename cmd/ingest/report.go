package ingest

import (
	ingestpkg "github.com/sig-0/mnrates/ingest"
)

// bankReport is the printed outcome of a single bank crawl
type bankReport struct {
	Error      string `json:"error,omitempty"`
	SaveError  string `json:"save_error,omitempty"`
	Bank       string `json:"bank"`
	Kind       string `json:"kind"`
	Currencies int    `json:"currencies"`
	DurationMS int64  `json:"duration_ms"`
	Saved      bool   `json:"saved"`
}

// runReport is the printed outcome of an ingestion run
type runReport struct {
	Error  string        `json:"error,omitempty"`
	ID     string        `json:"id,omitempty"`
	Date   string        `json:"date"`
	Banks  []*bankReport `json:"banks,omitempty"`
	Failed int           `json:"failed"`
	Saved  int           `json:"saved"`
}

func newRunReport(summary *ingestpkg.RunSummary) *runReport {
	report := &runReport{
		ID:     summary.ID.String(),
		Date:   summary.Date,
		Banks:  make([]*bankReport, 0, len(summary.Results)),
		Failed: summary.Failed(),
		Saved:  summary.Saved(),
	}

	for _, result := range summary.Results {
		bank := &bankReport{
			Bank:       result.Bank,
			Kind:       result.Kind.String(),
			Currencies: len(result.Quotes),
			DurationMS: result.Duration.Milliseconds(),
			Saved:      result.Saved,
		}

		if result.Err != nil {
			bank.Error = result.Err.Error()
		}

		if result.SaveErr != nil {
			bank.SaveError = result.SaveErr.Error()
		}

		report.Banks = append(report.Banks, bank)
	}

	return report
}
