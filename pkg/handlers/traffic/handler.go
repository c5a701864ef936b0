package traffic

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/de-tools/flow-atlas/pkg/adapters"
	"github.com/de-tools/flow-atlas/pkg/models/api"
	"github.com/de-tools/flow-atlas/pkg/models/domain"
	"github.com/de-tools/flow-atlas/pkg/models/store"
)

// Reader is the read side of the traffic store used by the API
type Reader interface {
	SumTotalsBetween(ctx context.Context, startDate, endDate string) (int64, error)
	GetDailyTotal(ctx context.Context, date string) (*store.DailyTotalRecord, error)
	ListLocations(ctx context.Context, date string) ([]store.DailyLocationRecord, error)
}

type Handler struct {
	reader Reader
}

func NewHandler(reader Reader) *Handler {
	return &Handler{reader: reader}
}

// GetRangeTotal sums total_in between ?start and ?end (inclusive). end defaults to start.
func (h *Handler) GetRangeTotal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if end == "" {
		end = start
	}
	if !validDate(start) {
		writeError(ctx, w, http.StatusBadRequest, "invalid 'start' date format. Expected format: YYYY-MM-DD")
		return
	}
	if !validDate(end) {
		writeError(ctx, w, http.StatusBadRequest, "invalid 'end' date format. Expected format: YYYY-MM-DD")
		return
	}

	total, err := h.reader.SumTotalsBetween(ctx, start, end)
	if err != nil {
		logger.Error().Err(err).Str("start", start).Str("end", end).Msg("failed to sum totals")
		writeError(ctx, w, http.StatusInternalServerError, "failed to sum totals")
		return
	}

	writeJSON(ctx, w, http.StatusOK, api.RangeTotal{Start: start, End: end, TotalIn: total})
}

func (h *Handler) GetDailyFlow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	date := chi.URLParam(r, "date")
	if !validDate(date) {
		writeError(ctx, w, http.StatusBadRequest, "invalid date format. Expected format: YYYY-MM-DD")
		return
	}

	total, err := h.reader.GetDailyTotal(ctx, date)
	if err != nil {
		logger.Error().Err(err).Str("date", date).Msg("failed to get daily total")
		writeError(ctx, w, http.StatusInternalServerError, "failed to get daily total")
		return
	}
	if total == nil {
		writeError(ctx, w, http.StatusNotFound, "no traffic recorded for "+date)
		return
	}

	locations, err := h.reader.ListLocations(ctx, date)
	if err != nil {
		logger.Error().Err(err).Str("date", date).Msg("failed to list locations")
		writeError(ctx, w, http.StatusInternalServerError, "failed to list locations")
		return
	}

	response := api.DailyFlow{
		Total:     adapters.MapDailyTotalStoreToApi(*total),
		Locations: make([]api.LocationFlow, 0, len(locations)),
	}
	for _, l := range locations {
		response.Locations = append(response.Locations, adapters.MapLocationStoreToApi(l))
	}
	writeJSON(ctx, w, http.StatusOK, response)
}

func validDate(s string) bool {
	_, err := time.Parse(domain.DateLayout, s)
	return err == nil
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	writeJSON(ctx, w, status, api.Error{Error: msg})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(ctx).Error().
			Err(err).
			Msg("failed to encode response")
	}
}
