package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arbitrable-escrow/escrow-api/database/models"
	"github.com/arbitrable-escrow/escrow-api/timeline"
	"github.com/arbitrable-escrow/escrow-api/types"
)

// handleTransactionsGet serves the stored directory listing.
func (s *Server) handleTransactionsGet(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.ParseInt(r.URL.Query().Get("pageSize"), 10, 64)
	if err != nil || pageSize < 1 {
		pageSize = 10
	}

	filter := models.Filter{
		Status:   r.URL.Query().Get("status"),
		Sender:   r.URL.Query().Get("sender"),
		Receiver: r.URL.Query().Get("receiver"),
		Category: r.URL.Query().Get("category"),
	}
	if track, err := parseTrack(r.URL.Query().Get("track")); err == nil {
		filter.Track = string(track)
	}

	result, err := s.db.GetTransactions(r.Context(), filter, page, pageSize)
	if err != nil {
		ERROR(w, http.StatusInternalServerError, err)
		return
	}

	JSON(w, http.StatusOK, result)
}

// handleTransactionGet aggregates one transaction live from the event index
// and the chain, so the detail view never shows stale state.
func (s *Server) handleTransactionGet(w http.ResponseWriter, r *http.Request) {
	track, err := parseTrack(chi.URLParam(r, "track"))
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	agg, ok := s.aggregators[track]
	if !ok {
		ERROR(w, http.StatusBadRequest, fmt.Errorf("no aggregator for track %s", track))
		return
	}

	tx, events, err := agg.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			ERROR(w, http.StatusNotFound, err)
			return
		}
		ERROR(w, http.StatusInternalServerError, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"transaction": tx,
		"events":      events,
		"timeline":    timeline.Build(events, tx),
	})
}

func (s *Server) handleArbitrationCostGet(w http.ResponseWriter, r *http.Request) {
	track, err := parseTrack(chi.URLParam(r, "track"))
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	cost, err := s.reader.ArbitrationCost(r.Context(), track)
	if err != nil {
		ERROR(w, http.StatusInternalServerError, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"track": track,
		"cost":  cost.String(),
	})
}

func parseTrack(raw string) (types.Track, error) {
	switch strings.ToUpper(raw) {
	case "NATIVE", "ETH":
		return types.TrackNative, nil
	case "TOKEN", "ERC20":
		return types.TrackToken, nil
	default:
		return "", fmt.Errorf("unknown track %q: %w", raw, types.ErrValidation)
	}
}
