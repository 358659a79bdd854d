package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"registration-analytics/internal/logger"
	"registration-analytics/internal/model"
	"registration-analytics/pkg/utils"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ExportManager writes tables to files under a run's output directory
type ExportManager struct {
	Format string
	Output *utils.OutputManager
}

// NewExportManager validates format and returns an ExportManager
func NewExportManager(format string, output *utils.OutputManager) (*ExportManager, error) {
	if format != FormatCSV && format != FormatJSON {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	return &ExportManager{Format: format, Output: output}, nil
}

// ExportTables writes every table to <runID>/<name>.<format>. A failed table
// does not stop the others; each outcome is reported in the returned results.
func (em *ExportManager) ExportTables(ctx context.Context, runID string, tables []model.Table) []model.ExportResult {
	log := logger.GetAppLogger().WithFields(logrus.Fields{"run_id": runID, "format": em.Format})

	results := make([]model.ExportResult, 0, len(tables))
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			results = append(results, model.ExportResult{
				Type: em.Format, Path: t.Name, Error: err.Error(), Timestamp: time.Now(),
			})
			continue
		}

		res := em.exportTable(runID, t)
		if res.Success {
			log.WithFields(logrus.Fields{
				"table": t.Name, "rows": res.RecordCount, "bytes": res.Size, "path": res.Path,
			}).Info("Table exported")
		} else {
			log.WithField("table", t.Name).Error("Table export failed: " + res.Error)
		}
		results = append(results, res)
	}
	return results
}

func (em *ExportManager) exportTable(runID string, t model.Table) model.ExportResult {
	result := model.ExportResult{Type: em.Format, Timestamp: time.Now()}

	path, err := em.Output.GetOutputFilePath(runID, t.Name+"."+em.Format)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Path = path
	result.Type = em.Output.GetFileType(path)

	switch em.Format {
	case FormatJSON:
		err = writeJSON(path, t)
	default:
		err = writeCSV(path, t)
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.RecordCount = len(t.Rows)
	if size, err := em.Output.GetFileSize(path); err == nil {
		result.Size = size
	}
	result.Success = true
	return result
}

func writeCSV(path string, t model.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range t.Rows {
		rec := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			rec[i] = formatCell(row[col])
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, t model.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case decimal.Decimal:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
