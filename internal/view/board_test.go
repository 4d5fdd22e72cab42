package view

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pfrederiksen/bts-board/internal/source"
)

func testRepo() source.Repo {
	return source.Repo{BaseURL: "http://example.test", Owner: "o", Name: "r", Branch: "master"}
}

func cell(p Panel, row, col int) string {
	if p.Table == nil || row >= len(p.Table.Rows) || col >= len(p.Table.Rows[row]) {
		return ""
	}
	return p.Table.Rows[row][col]
}

func TestNewBoard_Idle(t *testing.T) {
	b := NewBoard(newStubFetcher(), testRepo())

	state := b.Snapshot()
	if state.Results.Status != StatusIdle || state.Performance.Status != StatusIdle {
		t.Errorf("new board not idle: %+v", state)
	}
	if state.Token != 0 || state.Date != "" {
		t.Errorf("new board has a selection: %+v", state)
	}
}

func TestBoard_Select(t *testing.T) {
	f := newStubFetcher().
		body("past_results_07_27_2019", "player,hit\nMookie Betts,1").
		body("performance_07_27_2019", "accuracy\n0.72")
	b := NewBoard(f, testRepo())

	state, err := b.Select(context.Background(), "7/27/2019")
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}

	if state.Date != "7/27/2019" {
		t.Errorf("Date = %q, want 7/27/2019", state.Date)
	}
	if state.Results.Status != StatusRendered || state.Performance.Status != StatusRendered {
		t.Fatalf("panels not rendered: results=%q performance=%q", state.Results.Status, state.Performance.Status)
	}
	if cell(state.Results, 1, 0) != "Mookie Betts" {
		t.Errorf("results cell = %q", cell(state.Results, 1, 0))
	}
	if cell(state.Performance, 1, 0) != "0.72" {
		t.Errorf("performance cell = %q", cell(state.Performance, 1, 0))
	}

	wantResults := "http://example.test/o/r/master/data/past_results/past_results_07_27_2019.csv"
	wantPerformance := "http://example.test/o/r/master/data/model_stats/performance_07_27_2019.csv"
	if state.Results.URL != wantResults {
		t.Errorf("results URL = %q, want %q", state.Results.URL, wantResults)
	}
	if state.Performance.URL != wantPerformance {
		t.Errorf("performance URL = %q, want %q", state.Performance.URL, wantPerformance)
	}
	if !state.Settled() {
		t.Error("state not settled after Select returned")
	}
}

func TestBoard_Select_IndependentFailures(t *testing.T) {
	f := newStubFetcher().
		body("past_results_07_27_2019", "a,b\n1,2").
		fail("performance_07_27_2019", errNetwork)
	b := NewBoard(f, testRepo())

	state, err := b.Select(context.Background(), "7/27/2019")
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}

	if state.Results.Status != StatusRendered {
		t.Errorf("results status = %q, want rendered", state.Results.Status)
	}
	if state.Performance.Status != StatusError {
		t.Errorf("performance status = %q, want error", state.Performance.Status)
	}
	if state.Results.Message != "" {
		t.Errorf("results panel got banner %q from the other panel's failure", state.Results.Message)
	}
}

func TestBoard_Select_ReplacesPreviousTable(t *testing.T) {
	f := newStubFetcher().body("07_27_2019", "a,b\n1,2")
	b := NewBoard(f, testRepo())

	if _, err := b.Select(context.Background(), "7/27/2019"); err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	// 7/26 has no files
	state, err := b.Select(context.Background(), "7/26/2019")
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}

	for _, p := range state.Panels() {
		if p.Table != nil {
			t.Errorf("panel %s kept the previous date's table", p.ID)
		}
		if p.Status != StatusError {
			t.Errorf("panel %s status = %q, want error", p.ID, p.Status)
		}
	}
}

func TestBoard_Select_LatestWins(t *testing.T) {
	tests := []struct {
		name         string
		releaseFirst string // "A" or "B"
	}{
		{"newer finishes first", "B"},
		{"older finishes first", "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStubFetcher().
				body("07_26_2019", "date\nA").
				body("07_27_2019", "date\nB")
			startedA, releaseA := f.hold("past_results_07_26_2019")
			startedB, releaseB := f.hold("past_results_07_27_2019")
			defer releaseA()
			defer releaseB()

			b := NewBoard(f, testRepo())

			var wg sync.WaitGroup
			var errA, errB error
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errA = b.Select(context.Background(), "7/26/2019")
			}()
			<-startedA

			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errB = b.Select(context.Background(), "7/27/2019")
			}()
			<-startedB

			if tt.releaseFirst == "A" {
				releaseA()
				releaseB()
			} else {
				releaseB()
				releaseA()
			}
			wg.Wait()

			if !errors.Is(errA, ErrSuperseded) {
				t.Errorf("older Select() error = %v, want ErrSuperseded", errA)
			}
			if errB != nil {
				t.Errorf("newer Select() error = %v, want nil", errB)
			}

			state := b.Snapshot()
			if state.Date != "7/27/2019" {
				t.Errorf("Date = %q, want 7/27/2019", state.Date)
			}
			for _, p := range state.Panels() {
				if got := cell(p, 1, 0); got != "B" {
					t.Errorf("panel %s shows %q, want B", p.ID, got)
				}
			}
		})
	}
}

// ctxFetcher blocks until its context is canceled
type ctxFetcher struct {
	started chan struct{}
	once    sync.Once
}

func (f *ctxFetcher) Fetch(ctx context.Context, url string) (*source.Document, error) {
	if strings.Contains(url, "07_26_2019") {
		f.once.Do(func() { close(f.started) })
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &source.Document{URL: url, Body: "x\ny"}, nil
}

func TestBoard_Select_CancelsInFlight(t *testing.T) {
	f := &ctxFetcher{started: make(chan struct{})}
	b := NewBoard(f, testRepo())

	done := make(chan error, 1)
	go func() {
		_, err := b.Select(context.Background(), "7/26/2019")
		done <- err
	}()
	<-f.started

	if _, err := b.Select(context.Background(), "7/27/2019"); err != nil {
		t.Fatalf("Select() error: %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("older Select() error = %v, want ErrSuperseded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("older selection was not canceled")
	}

	state := b.Snapshot()
	if state.Results.Status != StatusRendered || state.Performance.Status != StatusRendered {
		t.Errorf("canceled load leaked into state: %+v", state)
	}
}

func TestBoard_Select_Idempotent(t *testing.T) {
	f := newStubFetcher().
		body("past_results_07_27_2019", "a,b\n1,2").
		fail("performance_07_27_2019", errNetwork)
	b := NewBoard(f, testRepo())

	first, err := b.Select(context.Background(), "7/27/2019")
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	second, err := b.Select(context.Background(), "7/27/2019")
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}

	if second.Token <= first.Token {
		t.Errorf("token did not advance: %d then %d", first.Token, second.Token)
	}
	if !reflect.DeepEqual(first.Results, second.Results) {
		t.Errorf("results differ:\n%+v\n%+v", first.Results, second.Results)
	}
	if !reflect.DeepEqual(first.Performance, second.Performance) {
		t.Errorf("performance differs:\n%+v\n%+v", first.Performance, second.Performance)
	}
}

func TestBoard_SnapshotIsCopy(t *testing.T) {
	f := newStubFetcher().body("07_27_2019", "a,b\n1,2")
	b := NewBoard(f, testRepo())

	if _, err := b.Select(context.Background(), "7/27/2019"); err != nil {
		t.Fatalf("Select() error: %v", err)
	}

	snap := b.Snapshot()
	snap.Results.Table.Rows[0][0] = "mutated"

	if cell(b.Snapshot().Results, 0, 0) != "a" {
		t.Error("mutating a snapshot changed the board")
	}
}
