package web

import (
	"encoding/json"
	"net/http"

	"github.com/pfrederiksen/bts-board/internal/dates"
	"github.com/pfrederiksen/bts-board/internal/logger"
	"github.com/pfrederiksen/bts-board/internal/source"
	"github.com/pfrederiksen/bts-board/internal/view"
)

// DatesResponse is the body of /api/dates
type DatesResponse struct {
	Today      string   `json:"today"`
	TodayURL   string   `json:"today_url_date"`
	Candidates []string `json:"candidates"`
}

// handleIndex renders today's predictions
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	today := dates.Today(s.loc, s.now)
	urlDate := dates.FormatForURL(dates.LocaleDate(today))

	panel := view.Load(r.Context(), s.fetcher, view.PanelPredictions, PredictionsTitle,
		s.repo.MustURL(source.KindPredictions, urlDate))

	s.renderPage(w, view.Page{
		Today:      dates.DisplayDate(today),
		Candidates: dates.CandidateDates(today, s.candidates),
		Panels:     []view.Panel{panel},
	})
}

// handlePast renders the results and performance files for ?date=M/D/YYYY
func (s *Server) handlePast(w http.ResponseWriter, r *http.Request) {
	parsed, err := dates.ParseCandidate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "date must be M/D/YYYY", http.StatusBadRequest)
		return
	}
	candidate := dates.LocaleDate(parsed)

	seq := s.beginSelection()
	state, err := view.NewBoard(s.fetcher, s.repo).Select(r.Context(), candidate)
	if err != nil {
		logger.Error("Error selecting date", logger.Fields{"date": candidate}, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if r.Context().Err() != nil {
		logger.Debug("Client left before selection settled", logger.Fields{"date": candidate})
		return
	}
	s.remember(seq, state)

	today := dates.Today(s.loc, s.now)
	s.renderPage(w, view.Page{
		Today:      dates.DisplayDate(today),
		Candidates: dates.CandidateDates(today, s.candidates),
		Selected:   state.Date,
		Panels:     state.Panels(),
	})
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	today := dates.Today(s.loc, s.now)
	writeJSON(w, DatesResponse{
		Today:      dates.DisplayDate(today),
		TodayURL:   dates.FormatForURL(dates.LocaleDate(today)),
		Candidates: dates.CandidateDates(today, s.candidates),
	})
}

// handleState reports the last settled /past selection
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.lastSelection())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, logger.GetMetricsSnapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte("ok\n")); err != nil {
		logger.Error("Error writing health response", nil, err)
	}
}

func (s *Server) renderPage(w http.ResponseWriter, page view.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.Render(w, page); err != nil {
		logger.Error("Error rendering page", nil, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Error("Error encoding response", nil, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
