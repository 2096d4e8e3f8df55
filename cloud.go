package scramble

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"crosswarped.com/scramble/pkg/config"
)

// ErrCloudDisabled is returned by ExportBuildStats when no project is configured.
var ErrCloudDisabled = errors.New("cloud export is not configured")

// buildStatsRow is one BigQuery row. The insert ID makes retried inserts idempotent.
type buildStatsRow struct {
	buildID  string
	exported time.Time
	stats    BuildStats
}

var _ bigquery.ValueSaver = buildStatsRow{}

func (r buildStatsRow) Save() (map[string]bigquery.Value, string, error) {
	return map[string]bigquery.Value{
		"build_id":         r.buildID,
		"exported_at":      r.exported,
		"puzzle":           r.stats.Puzzle,
		"phase":            r.stats.Phase,
		"source":           string(r.stats.Source),
		"states":           r.stats.States,
		"moves":            r.stats.Moves,
		"max_depth":        r.stats.MaxDepth,
		"duration_seconds": r.stats.Duration.Seconds(),
	}, r.buildID + "/" + r.stats.Phase, nil
}

func statsRows(stats []BuildStats, buildID string, now time.Time) []buildStatsRow {
	rows := make([]buildStatsRow, len(stats))
	for i, s := range stats {
		rows[i] = buildStatsRow{buildID: buildID, exported: now, stats: s}
	}
	return rows
}

// ExportBuildStats appends stats to the configured BigQuery table under a fresh build ID, which
// it returns.
func ExportBuildStats(ctx context.Context, cfg config.CloudConfig, stats []BuildStats, opts ...option.ClientOption) (string, error) {
	if !cfg.Enabled() {
		return "", ErrCloudDisabled
	}
	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return "", fmt.Errorf("bigquery.NewClient: %w", err)
	}
	defer client.Close()

	buildID := uuid.NewString()
	inserter := client.Dataset(cfg.Dataset).Table(cfg.Table).Inserter()
	if err := inserter.Put(ctx, statsRows(stats, buildID, time.Now().UTC())); err != nil {
		return "", fmt.Errorf("insert build stats: %w", err)
	}
	return buildID, nil
}
