package view

import (
	"context"
	"errors"
	"time"

	"github.com/pfrederiksen/bts-board/internal/logger"
	"github.com/pfrederiksen/bts-board/internal/source"
	"github.com/pfrederiksen/bts-board/internal/table"
)

// NoResultsMessage is shown in place of a table whenever a file could not be
// fetched or parsed
const NoResultsMessage = "Sorry, it doesn't look like there are any results for that date."

// Panel IDs used as DOM ids on the page
const (
	PanelPredictions = "predictions"
	PanelResults     = "results"
	PanelPerformance = "performance"
)

// Status is the render state of a panel
type Status string

const (
	StatusIdle     Status = "idle"
	StatusLoading  Status = "loading"
	StatusRendered Status = "rendered"
	StatusError    Status = "error"
)

// Fetcher downloads one CSV file. *source.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*source.Document, error)
}

// Panel is one table region of the page
type Panel struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Status    Status       `json:"status"`
	URL       string       `json:"url,omitempty"`
	Table     *table.Table `json:"table,omitempty"`
	Message   string       `json:"message,omitempty"`
	Size      int64        `json:"size,omitempty"`
	FetchedAt time.Time    `json:"fetched_at,omitempty"`
}

// LoadingPanel returns a panel waiting for url
func LoadingPanel(id, title, url string) Panel {
	return Panel{ID: id, Title: title, Status: StatusLoading, URL: url}
}

// Load fetches url and parses it into a rendered panel. Every failure
// (transport, 404, empty body, HTML page, parse error) produces the same
// error panel; only the log tells them apart.
func Load(ctx context.Context, f Fetcher, id, title, url string) Panel {
	p := Panel{ID: id, Title: title, URL: url}

	doc, err := f.Fetch(ctx, url)
	if err == nil {
		var tbl *table.Table
		tbl, err = table.Parse(doc.Body)
		if err == nil {
			p.Status = StatusRendered
			p.Table = tbl
			p.Size = doc.Size
			p.FetchedAt = doc.FetchedAt
			logger.IncrCounter("panel.rendered")
			return p
		}
	}

	fields := logger.Fields{
		"panel":  id,
		"url":    url,
		"reason": failureReason(err),
	}
	if errors.Is(err, context.Canceled) {
		logger.Debug("Panel load canceled", fields)
	} else {
		logger.Warn("Panel load failed", fields)
	}
	logger.IncrCounter("panel.errors")

	p.Status = StatusError
	p.Message = NoResultsMessage
	return p
}

// failureReason classifies err for logs
func failureReason(err error) string {
	switch {
	case errors.Is(err, source.ErrNotFound):
		return "not_found"
	case errors.Is(err, source.ErrNoData):
		return "no_data"
	case errors.Is(err, table.ErrEmpty):
		return "empty"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "fetch_error"
	}
}

// HasTable reports whether the panel should show a table
func (p Panel) HasTable() bool {
	return p.Status == StatusRendered && p.Table != nil
}

// HasBanner reports whether the panel should show the warning banner
func (p Panel) HasBanner() bool {
	return p.Status == StatusError
}
