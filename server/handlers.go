package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sig-0/krwrates/storage/types"
)

const (
	minLookbackDays = 1
	maxLookbackDays = 365
)

var (
	errNoSnapshot            = errors.New("no snapshot available")
	errUnableToFetchHistory  = errors.New("unable to fetch history")
	errUnableToRenderPage    = errors.New("unable to render page")
	errInvalidLookbackDays   = errors.New("invalid days")
	errInvalidTargetCurrency = errors.New("invalid target currency")
)

// ratesUnavailableMessage is shown inline when no usable table exists
const ratesUnavailableMessage = "Exchange rates are currently unavailable. Conversions are disabled."

// pageData feeds the calculator page template
type pageData struct {
	SnapshotJSON template.JS
	Currencies   []types.Descriptor
	RateTypes    []types.RateType
	FetchedAt    string
	SourceTime   string
	ErrorMessage string
	RatesOK      bool
}

// CalculatorPage renders the calculator with the current snapshot inlined.
// When no snapshot is available the page still renders, with a safe
// fallback table and a visible error message
func (s *Server) CalculatorPage(w http.ResponseWriter, r *http.Request) {
	var (
		ratesOK      = true
		errorMessage = ""
	)

	snapshot, err := s.storage.LatestSnapshot(r.Context())
	if err != nil || snapshot == nil {
		if err != nil {
			s.logger.Debug(
				"unable to fetch latest snapshot",
				"err", err,
			)
		}

		snapshot = types.FallbackSnapshot(s.currencies, time.Now())
		ratesOK = false
		errorMessage = ratesUnavailableMessage
	}

	artifact := types.NewArtifact(snapshot, s.config.SourceURL, s.config.BuildID, s.currencies)

	inline, err := json.Marshal(artifact)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errUnableToRenderPage)

		return
	}

	data := &pageData{
		SnapshotJSON: template.JS(inline), //nolint:gosec // marshaled server-side data
		Currencies:   s.currencies,
		RateTypes:    types.RateTypes(),
		FetchedAt:    artifact.FetchedAt,
		SourceTime:   snapshot.SourceTime,
		ErrorMessage: errorMessage,
		RatesOK:      ratesOK,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error(
			"unable to render calculator page",
			"err", err,
		)
	}
}

// RatesArtifact serves the latest snapshot in the artifact form consumed
// by static deployments
func (s *Server) RatesArtifact(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.storage.LatestSnapshot(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch latest snapshot",
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errNoSnapshot)

		return
	}

	if snapshot == nil {
		writeError(w, http.StatusNotFound, errNoSnapshot)

		return
	}

	artifact := types.NewArtifact(snapshot, s.config.SourceURL, s.config.BuildID, s.currencies)

	writeJSON(w, http.StatusOK, artifact)
}

// History serves the historical rate series and its lookback summary
func (s *Server) History(w http.ResponseWriter, r *http.Request) {
	var (
		baseParam = chi.URLParam(r, "base")

		targetParam = r.URL.Query().Get("target")
		daysParam   = r.URL.Query().Get("days")
	)

	// Parse the base currency
	base, err := parseCurrencySymbol(baseParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	// Parse the target currency (defaults to the pivot)
	target := types.Pivot

	if v := strings.TrimSpace(targetParam); v != "" {
		target, err = parseCurrencySymbol(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, errInvalidTargetCurrency)

			return
		}
	}

	// Parse the lookback window
	days, err := parseLookbackDays(daysParam, int(s.config.HistoryLookbackDays))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	series, summary, err := s.history.Lookback(r.Context(), base, target, days)
	if err != nil {
		s.logger.Debug(
			"unable to fetch history",
			"base", base,
			"target", target,
			"err", err,
		)

		writeError(w, http.StatusBadGateway, errUnableToFetchHistory)

		return
	}

	resp := &HistoryResponse{
		Base:    base,
		Target:  target,
		Series:  series,
		Summary: summary,
	}

	writeJSON(w, http.StatusOK, resp)
}

func parseLookbackDays(raw string, fallback int) (int, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < minLookbackDays || n > maxLookbackDays {
		return 0, errInvalidLookbackDays
	}

	return n, nil
}

func parseCurrencySymbol(v string) (types.Currency, error) {
	s := strings.ToUpper(strings.TrimSpace(v))
	if len(s) != 3 {
		return "", errors.New("invalid currency (must be 3 letters)")
	}

	for i := 0; i < 3; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return "", errors.New("invalid currency (must be A-Z)")
		}
	}

	return types.Currency(s), nil
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
