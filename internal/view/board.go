package view

import (
	"context"
	"errors"
	"sync"

	"github.com/pfrederiksen/bts-board/internal/dates"
	"github.com/pfrederiksen/bts-board/internal/logger"
	"github.com/pfrederiksen/bts-board/internal/source"
	"github.com/pfrederiksen/bts-board/internal/table"
)

// ErrSuperseded is returned by Select when a newer selection replaced it
// before its loads finished
var ErrSuperseded = errors.New("selection superseded by a newer one")

// Panel titles for a past date
const (
	ResultsTitle     = "Results"
	PerformanceTitle = "Model performance"
)

// State is the past-results view for one selected date
type State struct {
	Token       uint64 `json:"token"`
	Date        string `json:"date,omitempty"`
	Results     Panel  `json:"results"`
	Performance Panel  `json:"performance"`
}

// Panels returns the panels in page order
func (s State) Panels() []Panel {
	return []Panel{s.Results, s.Performance}
}

// Settled reports whether no panel is still loading
func (s State) Settled() bool {
	return s.Results.Status != StatusLoading && s.Performance.Status != StatusLoading
}

// Board is the date selection state machine: Idle, then Loading on every
// Select, then Rendered or Error per panel. Only the latest selection may
// write to the state.
type Board struct {
	fetcher Fetcher
	repo    source.Repo

	mu     sync.Mutex
	token  uint64
	cancel context.CancelFunc
	state  State
}

// IdleState is the state before any date is selected
func IdleState() State {
	return State{
		Results:     Panel{ID: PanelResults, Title: ResultsTitle, Status: StatusIdle},
		Performance: Panel{ID: PanelPerformance, Title: PerformanceTitle, Status: StatusIdle},
	}
}

// NewBoard creates an idle board reading files from repo
func NewBoard(f Fetcher, repo source.Repo) *Board {
	return &Board{
		fetcher: f,
		repo:    repo,
		state:   IdleState(),
	}
}

// Select switches the board to candidate (M/D/YYYY) and loads the results
// and performance files concurrently. Any selection still in flight is
// canceled and its late responses are ignored.
//
// Select blocks until both loads finish. It returns the state as this
// selection left it, or the newer state together with ErrSuperseded.
func (b *Board) Select(ctx context.Context, candidate string) (State, error) {
	urlDate := dates.FormatForURL(candidate)
	resultsURL := b.repo.MustURL(source.KindPastResults, urlDate)
	performanceURL := b.repo.MustURL(source.KindModelStats, urlDate)

	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	b.token++
	token := b.token
	b.cancel = cancel
	b.state = State{
		Token:       token,
		Date:        candidate,
		Results:     LoadingPanel(PanelResults, ResultsTitle, resultsURL),
		Performance: LoadingPanel(PanelPerformance, PerformanceTitle, performanceURL),
	}
	b.mu.Unlock()

	logger.Info("Selected date", logger.Fields{
		"date":  candidate,
		"token": token,
	})
	logger.SetGauge("board.token", float64(token))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		b.apply(token, Load(loadCtx, b.fetcher, PanelResults, ResultsTitle, resultsURL))
	}()
	go func() {
		defer wg.Done()
		b.apply(token, Load(loadCtx, b.fetcher, PanelPerformance, PerformanceTitle, performanceURL))
	}()
	wg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.token == token {
		b.cancel = nil
	}
	state := b.state.clone()
	if state.Token != token {
		return state, ErrSuperseded
	}
	return state, nil
}

// apply stores p if token is still the current selection
func (b *Board) apply(token uint64, p Panel) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if token != b.token {
		logger.Debug("Dropped stale panel", logger.Fields{
			"panel":   p.ID,
			"token":   token,
			"current": b.token,
		})
		logger.IncrCounter("board.stale_dropped")
		return
	}

	switch p.ID {
	case PanelResults:
		b.state.Results = p
	case PanelPerformance:
		b.state.Performance = p
	}
}

// Snapshot returns a copy of the current state
func (b *Board) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.clone()
}

// clone copies the state so callers never share table rows with the board
func (s State) clone() State {
	out := s
	out.Results = s.Results.clone()
	out.Performance = s.Performance.clone()
	return out
}

func (p Panel) clone() Panel {
	if p.Table == nil {
		return p
	}
	rows := make([][]string, len(p.Table.Rows))
	for i, row := range p.Table.Rows {
		rows[i] = append([]string(nil), row...)
	}
	out := p
	out.Table = &table.Table{Rows: rows}
	return out
}
