package engine

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/namba3/patrol/internal/domain"
)

// Recency thresholds for the report's per-row color.
const (
	freshThreshold  = time.Hour
	recentThreshold = 24 * time.Hour
)

var (
	freshColor  = color.New(color.FgGreen)
	recentColor = color.New(color.FgYellow)
	staleColor  = color.New(color.FgRed)
)

type reportRow struct {
	id          domain.Id
	lastUpdated domain.Timestamp
	url         domain.Url
}

// renderReport writes a three-column (name, last_updated, url) table to w,
// sorted by last_updated ascending, with targets lacking a last_updated
// filtered out entirely.
func (e *Engine) renderReport(w io.Writer, data map[domain.Id]domain.Data, configs map[domain.Id]domain.Config, now domain.Timestamp) {
	rows := make([]reportRow, 0, len(data))
	for id, d := range data {
		if d.LastUpdated == nil {
			continue
		}
		cfg, ok := configs[id]
		if !ok {
			continue
		}
		rows = append(rows, reportRow{id: id, lastUpdated: *d.LastUpdated, url: cfg.Url})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].lastUpdated.Before(rows[j].lastUpdated)
	})

	for _, row := range rows {
		age := now.Sub(row.lastUpdated).Stdlib()
		c := colorFor(age)
		_, _ = fmt.Fprintln(w, c.Sprintf("%-34s %-19s %s", row.id.String(), row.lastUpdated.String(), row.url.String()))
	}
}

func colorFor(age time.Duration) *color.Color {
	switch {
	case age <= freshThreshold:
		return freshColor
	case age <= recentThreshold:
		return recentColor
	default:
		return staleColor
	}
}
