package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/stemhub-africa/stemhub-service/internal/models"
)

const exportSheet = "Pending"

var exportHeaders = []string{"ID", "Title", "Subject", "Owner", "Status", "Submitted"}

// ExportQueue renders every pending item of a type as an xlsx workbook
func (s *reviewService) ExportQueue(ctx context.Context, actor *models.User, contentType models.ContentType) ([]byte, error) {
	if err := requireAdmin(actor, "", "review_queue", "export"); err != nil {
		return nil, err
	}
	contentType, err := normalizeContentType(contentType)
	if err != nil {
		return nil, err
	}

	pending := models.ContentStatusPending
	var items []models.ContentItem
	for offset := 0; ; {
		batch, total, err := s.repo.Content().List(ctx, models.ContentFilters{
			Type:   contentType,
			Status: &pending,
			Limit:  100,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list review queue: %w", err)
		}
		items = append(items, batch...)
		offset += len(batch)
		if len(batch) == 0 || int64(offset) >= total {
			break
		}
	}

	return buildQueueWorkbook(items)
}

func buildQueueWorkbook(items []models.ContentItem) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, item := range items {
		row := []interface{}{item.ID, item.Title, item.Subject, item.Owner, string(item.Status), item.CreatedAt.UTC().Format(time.RFC3339)}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
