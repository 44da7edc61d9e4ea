package server

import (
	"github.com/sig-0/mnrates/storage/types"
)

type BanksResponse struct {
	Results []string `json:"results"`
}

type SnapshotsResponse struct {
	Results []*types.BankSnapshot `json:"results"`
}

type ScrapeBankResponse struct {
	Quotes types.Quotes `json:"quotes"`
	Bank   string       `json:"bank"`
	Date   string       `json:"date"`
}

type ScrapeResult struct {
	Error      string `json:"error,omitempty"`
	SaveError  string `json:"save_error,omitempty"`
	Bank       string `json:"bank"`
	Kind       string `json:"kind"`
	Currencies int    `json:"currencies"`
	DurationMS int64  `json:"duration_ms"`
	Saved      bool   `json:"saved"`
}

type ScrapeResponse struct {
	ID      string          `json:"id"`
	Date    string          `json:"date"`
	Results []*ScrapeResult `json:"results"`
	Failed  int             `json:"failed"`
	Saved   int             `json:"saved"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
