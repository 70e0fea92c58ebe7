package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/schema"
	"github.com/hupe1980/gramsearch"
	"github.com/hupe1980/gramsearch/codec"
)

// SearchRequest holds the /api/search query parameters.
type SearchRequest struct {
	Query string `schema:"q"`
	Limit int    `schema:"limit"`
}

// SearchResponse is the /api/search body.
type SearchResponse struct {
	Generation uint64      `json:"generation"`
	Count      int         `json:"count"`
	TookMillis int64       `json:"took_ms"`
	Results    []HitResult `json:"results"`
}

// HitResult is one rendered hit.
type HitResult struct {
	Doc         string   `json:"doc"`
	ChannelID   string   `json:"channel_id"`
	ChannelName string   `json:"channel_name"`
	Link        string   `json:"link"`
	Label       string   `json:"label"`
	Positions   []uint32 `json:"positions"`
}

// APIError is the body of every error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := queryDecoder.Decode(&req, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid query parameters")
		return
	}
	if req.Limit < 0 {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "limit must not be negative")
		return
	}
	if req.Limit == 0 {
		req.Limit = s.opts.DefaultLimit
	}

	start := time.Now()
	res, err := s.engine.Search(r.Context(), req.Query)
	if err != nil {
		status, code := statusOf(err)
		s.logger.WarnContext(r.Context(), "search failed",
			"request_id", GetRequestID(r.Context()),
			"query", req.Query,
			"error", err,
		)
		writeError(w, status, code, err.Error())
		return
	}

	hits := s.engine.Hits(res, req.Limit)
	resp := SearchResponse{
		Generation: res.Generation,
		Count:      res.Len(),
		TookMillis: time.Since(start).Milliseconds(),
		Results:    make([]HitResult, 0, len(hits)),
	}
	for _, h := range hits {
		resp.Results = append(resp.Results, HitResult{
			Doc:         h.Doc.String(),
			ChannelID:   h.Channel.ID,
			ChannelName: h.Channel.Name,
			Link:        h.Link(s.opts.Location),
			Label:       h.Label(s.opts.Location),
			Positions:   h.Positions,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, gramsearch.ErrShardFetch):
		return http.StatusBadGateway, "SHARD_FETCH_FAILED"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case gramsearch.IsCorrupt(err):
		return http.StatusInternalServerError, "CORRUPT_INDEX"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := codec.GoJSON{}.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	body, _ := codec.GoJSON{}.Marshal(APIError{Code: code, Message: message})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
