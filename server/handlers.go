package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sig-0/mnrates/ingest"
	"github.com/sig-0/mnrates/storage/types"
)

const (
	defaultLimit = int32(100)
	maxLimit     = int32(500)
)

var (
	errUnableToFetchRates = errors.New("unable to fetch rates")
	errUnableToFetchBanks = errors.New("unable to fetch banks")
	errUnableToScrape     = errors.New("unable to scrape rates")

	errInvalidLimit  = errors.New("invalid limit")
	errInvalidOffset = errors.New("invalid offset")
	errInvalidDate   = errors.New("invalid date (must be YYYY-MM-DD)")
	errInvalidBank   = errors.New("invalid bank")

	errRatesNotFound = errors.New("rates not found")
	errBankNotFound  = errors.New("bank not found")
)

func (s *Server) Rates(w http.ResponseWriter, r *http.Request) {
	var (
		bankParam   = r.URL.Query().Get("bank")
		dateParam   = r.URL.Query().Get("date")
		limitParam  = r.URL.Query().Get("limit")
		offsetParam = r.URL.Query().Get("offset")
	)

	// Parse the pagination settings
	limit, offset, err := parseLimitOffset(limitParam, offsetParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	q := &types.SnapshotQuery{
		Limit:  limit,
		Offset: offset,
	}

	// Parse the bank and date (optional)
	if v := strings.TrimSpace(bankParam); v != "" {
		q.Bank = &v
	}

	if v := strings.TrimSpace(dateParam); v != "" {
		if _, err := types.ParseDate(v); err != nil {
			writeError(w, http.StatusBadRequest, errInvalidDate)

			return
		}

		q.Date = &v
	}

	page, err := s.storage.Snapshots(r.Context(), q)
	if err != nil {
		s.logger.Debug(
			"unable to fetch rates",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchRates,
		)

		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) LatestRates(w http.ResponseWriter, r *http.Request) {
	snapshots, err := s.storage.LatestSnapshots(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch latest rates",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchRates,
		)

		return
	}

	writeJSON(w, http.StatusOK, &SnapshotsResponse{
		Results: snapshots,
	})
}

func (s *Server) Banks(w http.ResponseWriter, r *http.Request) {
	banks, err := s.storage.ListBanks(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch banks",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchBanks,
		)

		return
	}

	writeJSON(w, http.StatusOK, &BanksResponse{
		Results: banks,
	})
}

func (s *Server) BankRates(w http.ResponseWriter, r *http.Request) {
	var (
		bankParam = strings.TrimSpace(chi.URLParam(r, "bank"))
		dateParam = strings.TrimSpace(chi.URLParam(r, "date"))
	)

	if bankParam == "" {
		writeError(w, http.StatusBadRequest, errInvalidBank)

		return
	}

	if _, err := types.ParseDate(dateParam); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidDate)

		return
	}

	page, err := s.storage.Snapshots(r.Context(), &types.SnapshotQuery{
		Bank:  &bankParam,
		Date:  &dateParam,
		Limit: 1,
	})
	if err != nil {
		s.logger.Debug(
			"unable to fetch bank rates",
			"bank", bankParam,
			"date", dateParam,
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchRates,
		)

		return
	}

	if len(page.Results) == 0 {
		writeError(w, http.StatusNotFound, errRatesNotFound)

		return
	}

	writeJSON(w, http.StatusOK, page.Results[0])
}

// ScrapeBank crawls a single bank on demand. The quotes are not persisted
func (s *Server) ScrapeBank(w http.ResponseWriter, r *http.Request) {
	bank := strings.TrimSpace(chi.URLParam(r, "bank"))

	date, err := s.parseScrapeDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	quotes, err := s.ingestor.RunOne(r.Context(), bank, date)
	if err != nil {
		if errors.Is(err, ingest.ErrUnknownBank) {
			writeError(w, http.StatusNotFound, errBankNotFound)

			return
		}

		s.logger.Warn(
			"unable to scrape bank",
			"bank", bank,
			"date", date,
			"err", err,
		)

		writeError(w, http.StatusBadGateway, errUnableToScrape)

		return
	}

	writeJSON(w, http.StatusOK, &ScrapeBankResponse{
		Quotes: quotes,
		Bank:   bank,
		Date:   date,
	})
}

// Scrape runs a full ingestion on demand, persisting the results
func (s *Server) Scrape(w http.ResponseWriter, r *http.Request) {
	date, err := s.parseScrapeDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	summary, err := s.ingestor.Run(r.Context(), date)
	if err != nil {
		s.logger.Warn(
			"unable to run ingestion",
			"date", date,
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToScrape)

		return
	}

	resp := &ScrapeResponse{
		ID:      summary.ID.String(),
		Date:    summary.Date,
		Results: make([]*ScrapeResult, 0, len(summary.Results)),
		Failed:  summary.Failed(),
		Saved:   summary.Saved(),
	}

	for _, result := range summary.Results {
		item := &ScrapeResult{
			Bank:       result.Bank,
			Kind:       result.Kind.String(),
			Currencies: len(result.Quotes),
			DurationMS: result.Duration.Milliseconds(),
			Saved:      result.Saved,
		}

		if result.Err != nil {
			item.Error = result.Err.Error()
		}

		if result.SaveErr != nil {
			item.SaveError = result.SaveErr.Error()
		}

		resp.Results = append(resp.Results, item)
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseScrapeDate parses the scrape date, defaulting to today
// in the reporting timezone
func (s *Server) parseScrapeDate(dateRaw string) (string, error) {
	v := strings.TrimSpace(dateRaw)
	if v == "" {
		return s.now().In(s.location).Format(types.DateLayout), nil
	}

	if _, err := types.ParseDate(v); err != nil {
		return "", errInvalidDate
	}

	return v, nil
}

func parseLimitOffset(limitRaw, offsetRaw string) (int32, int64, error) {
	limit := defaultLimit

	if v := strings.TrimSpace(limitRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return 0, 0, errInvalidLimit
		}

		limit = int32(n)
	}

	if limit == 0 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	var offset int64

	if v := strings.TrimSpace(offsetRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return 0, 0, errInvalidOffset
		}

		offset = n
	}

	return limit, offset, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := &ErrorResponse{
		Error: err.Error(),
	}

	writeJSON(w, status, resp)
}
