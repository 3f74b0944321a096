// internal/workers/report_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/ammerola/lending-be/internal/core/ports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var reportHeaders = []string{"ID", "Name", "Description", "Available", "Borrowed", "Owned", "Created", "Updated"}

// ReportProcessor renders the stock report and stores it
type ReportProcessor struct {
	items   ports.ItemRepository
	storage ports.FileStorage
	logger  *slog.Logger
	now     func() time.Time
}

// NewReportProcessor creates a new report processor
func NewReportProcessor(items ports.ItemRepository, storage ports.FileStorage, logger *slog.Logger) *ReportProcessor {
	return &ReportProcessor{
		items:   items,
		storage: storage,
		logger:  logger.With(slog.String("processor", "report")),
		now:     time.Now,
	}
}

// GenerateStockReport handles report:stock tasks
func (p *ReportProcessor) GenerateStockReport(ctx context.Context, t *asynq.Task) error {
	var payload StockReportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	items, err := p.items.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}

	data, err := BuildStockReport(items, p.now())
	if err != nil {
		return err
	}

	key := fmt.Sprintf("reports/stock-%s.xlsx", p.now().UTC().Format("20060102-150405"))
	location, err := p.storage.Upload(ctx, key, data, xlsxContentType)
	if err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}

	if w := t.ResultWriter(); w != nil {
		if _, err := w.Write([]byte(location)); err != nil {
			p.logger.WarnContext(ctx, "failed to write task result", slog.Any("error", err))
		}
	}

	p.logger.InfoContext(ctx, "stock report generated",
		slog.String("location", location),
		slog.Int("items", len(items)),
		slog.String("request_id", payload.RequestID))

	return nil
}

// BuildStockReport renders one sheet with a row per item and a totals row.
func BuildStockReport(items []domain.Item, generatedAt time.Time) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Stock")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range reportHeaders {
		cell := header.AddCell()
		cell.Value = h
		cell.GetStyle().Font.Bold = true
	}

	for _, item := range items {
		row := sheet.AddRow()
		row.AddCell().SetString(item.ID.String())
		row.AddCell().SetString(item.Name)
		row.AddCell().SetString(item.Description)
		row.AddCell().SetInt(item.Quantity)
		row.AddCell().SetInt(item.BorrowedQuantity)
		row.AddCell().SetInt(item.Total())
		row.AddCell().SetString(item.CreatedAt.UTC().Format(time.RFC3339))
		row.AddCell().SetString(item.UpdatedAt.UTC().Format(time.RFC3339))
	}

	summary := domain.Summarize(items)
	totals := sheet.AddRow()
	totals.AddCell().SetString("TOTAL")
	totals.AddCell().SetString(fmt.Sprintf("%d items", summary.ItemCount))
	totals.AddCell().SetString("utilization " + summary.Utilization.StringFixed(4))
	totals.AddCell().SetInt(summary.Available)
	totals.AddCell().SetInt(summary.Borrowed)
	totals.AddCell().SetInt(summary.Owned)
	totals.AddCell().SetString(generatedAt.UTC().Format(time.RFC3339))

	for i := range reportHeaders {
		sheet.SetColWidth(i+1, i+1, 18)
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	return buf.Bytes(), nil
}
