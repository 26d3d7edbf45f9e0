package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/quote"
)

// maxBody is the maximum size of a record in a request body.
const maxBody = 1 << 20

var errDuplicate = errors.New("record already exists")

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Int("status", status).Msg("Request failed")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// intParam reads a positive integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name + " parameter: " + v)
	}
	return n, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if s.news == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("news is not configured"))
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"items":   s.news.Items(limit),
		"updated": s.news.Updated(),
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if s.quotes == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("quotes are not configured"))
		return
	}
	q, err := s.quotes.Quote(r.Context(), chi.URLParam(r, "symbol"))
	switch {
	case errors.Is(err, quote.ErrNoQuote):
		s.writeError(w, http.StatusNotFound, err)
	case err != nil:
		s.writeError(w, http.StatusBadGateway, err)
	default:
		s.writeJSON(w, http.StatusOK, q)
	}
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	if s.quotes == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("quotes are not configured"))
		return
	}
	var symbols []string
	for _, sym := range strings.Split(r.URL.Query().Get("symbols"), ",") {
		if sym = strings.TrimSpace(sym); sym != "" {
			symbols = append(symbols, sym)
		}
	}
	if len(symbols) == 0 {
		s.writeError(w, http.StatusBadRequest, errors.New("symbols parameter is required"))
		return
	}
	quotes, errs := quote.Quotes(r.Context(), s.quotes, symbols)
	failed := make(map[string]string, len(errs))
	for sym, err := range errs {
		failed[sym] = err.Error()
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"quotes": quotes, "errors": failed})
}

// book loads a snapshot of the book.
func (s *Server) book(w http.ResponseWriter) (*tradebook.Book, bool) {
	b, err := tradebook.LoadBook(s.bookFile)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return b, true
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	b, ok := s.book(w)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, tradebook.ComputePositions(b.Trades()))
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	months, err := intParam(r, "months", tradebook.MonthlyStatsWindow)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	b, ok := s.book(w)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, tradebook.ComputeMonthlyStatsWindow(b.Trades(), months))
}

type roundtripView struct {
	tradebook.Roundtrip
	Metrics tradebook.RoundtripMetrics `json:"metrics"`
}

// MarshalJSON adds the metrics to the roundtrip fields.
func (v roundtripView) MarshalJSON() ([]byte, error) {
	rt, err := json.Marshal(v.Roundtrip)
	if err != nil {
		return nil, err
	}
	m, err := json.Marshal(v.Metrics)
	if err != nil {
		return nil, err
	}
	return append(append(rt[:len(rt)-1], `,"metrics":`...), append(m, '}')...), nil
}

func (s *Server) handleRoundtrips(w http.ResponseWriter, r *http.Request) {
	b, ok := s.book(w)
	if !ok {
		return
	}
	rts := b.Roundtrips()
	views := make([]roundtripView, 0, len(rts))
	for _, rt := range rts {
		views = append(views, roundtripView{Roundtrip: rt, Metrics: rt.Metrics()})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"roundtrips":      views,
		"aggregateReturn": tradebook.AggregateReturn(rts),
		"winRate":         tradebook.WinRate(rts),
		"totalPnL":        tradebook.TotalRoundtripPnL(rts),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	b, ok := s.book(w)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, tradebook.NewSummary(b))
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	b, ok := s.book(w)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, b.Records())
}

// decodeRecord reads a record from the request body. A roundtrip without a
// "pnl" field gets its realized P&L computed from its prices.
func decodeRecord(r *http.Request) (tradebook.Record, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return nil, err
	}
	rec, err := tradebook.DecodeRecord(data)
	if err != nil {
		return nil, err
	}
	if rt, ok := rec.(tradebook.Roundtrip); ok {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, err
		}
		if _, given := fields["pnl"]; !given {
			full := tradebook.NewRoundtrip(rt.ID, rt.Date, rt.StockCode, rt.StockName, rt.Quantity, rt.BuyPrice, rt.SellPrice, rt.Memo)
			full.Images = rt.Images
			rec = full
		}
	}
	return rec, nil
}

// edit applies f to the book and saves it.
func (s *Server) edit(f func(b *tradebook.Book) error) error {
	s.bookMu.Lock()
	defer s.bookMu.Unlock()
	b, err := tradebook.LoadBook(s.bookFile)
	if err != nil {
		return err
	}
	if err := f(b); err != nil {
		return err
	}
	return tradebook.SaveBook(s.bookFile, b)
}

func (s *Server) writeEditError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tradebook.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, errDuplicate):
		s.writeError(w, http.StatusConflict, err)
	case errors.Is(err, tradebook.ErrInvalidRecord):
		s.writeError(w, http.StatusUnprocessableEntity, err)
	default:
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeRecord(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := tradebook.ValidateRecord(rec); err != nil {
		s.writeEditError(w, err)
		return
	}
	err = s.edit(func(b *tradebook.Book) error {
		if _, exists := b.Get(rec.RecordID()); exists && rec.RecordID() != "" {
			return fmt.Errorf("%q: %w", rec.RecordID(), errDuplicate)
		}
		rec = b.Append(rec)[0]
		return nil
	})
	if err != nil {
		s.writeEditError(w, err)
		return
	}
	s.log.Info().Str("id", rec.RecordID()).Str("kind", string(rec.What())).Msg("Record created")
	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeRecord(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if id := chi.URLParam(r, "id"); rec.RecordID() != id {
		s.writeError(w, http.StatusBadRequest, errors.New("record id does not match the url"))
		return
	}
	if err := tradebook.ValidateRecord(rec); err != nil {
		s.writeEditError(w, err)
		return
	}
	if err := s.edit(func(b *tradebook.Book) error { return b.Replace(rec) }); err != nil {
		s.writeEditError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.edit(func(b *tradebook.Book) error { return b.Delete(id) }); err != nil {
		s.writeEditError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("store is not configured"))
		return
	}
	notes, err := tradebook.ListNotes(s.store, r.URL.Query().Get("tag"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleDiaries(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("store is not configured"))
		return
	}
	diaries, err := tradebook.ListDiaries(s.store, r.URL.Query().Get("month"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, diaries)
}
