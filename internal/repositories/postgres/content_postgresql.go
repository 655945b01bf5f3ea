package postgres

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/repositories"
)

type ContentPostgreSQL struct {
	db *gorm.DB
}

func NewContentPostgreSQL(db *gorm.DB) repositories.ContentRepository {
	return &ContentPostgreSQL{db: db}
}

// ===== CREATE OPERATIONS =====

func (r *ContentPostgreSQL) CreateNote(ctx context.Context, note *models.Note) error {
	return handleDBError(r.db.WithContext(ctx).Create(note).Error, "create note")
}

func (r *ContentPostgreSQL) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	return handleDBError(r.db.WithContext(ctx).Create(quiz).Error, "create quiz")
}

func (r *ContentPostgreSQL) CreatePastPaper(ctx context.Context, paper *models.PastPaper) error {
	return handleDBError(r.db.WithContext(ctx).Create(paper).Error, "create past paper")
}

// ===== QUERY OPERATIONS =====

func (r *ContentPostgreSQL) itemQuery(ctx context.Context, t contentTable) *gorm.DB {
	return r.db.WithContext(ctx).
		Table(t.name).
		Select(fmt.Sprintf("id, title, subject, %s AS owner, status, feedback, reviewed_by, reviewed_at, published_at, created_at", t.ownerColumn))
}

func (r *ContentPostgreSQL) GetItem(ctx context.Context, contentType models.ContentType, id string) (*models.ContentItem, error) {
	t, err := tableFor(contentType)
	if err != nil {
		return nil, err
	}

	var items []models.ContentItem
	if err := r.itemQuery(ctx, t).Where("id = ?", id).Limit(1).Scan(&items).Error; err != nil {
		return nil, handleDBError(err, "get content item")
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("get content item failed: %w", repositories.ErrNotFound)
	}

	item := items[0]
	item.Type = contentType
	return &item, nil
}

// List returns items oldest first so review queues are FIFO, unless
// filters.NewestFirst is set. An empty filters.Type lists every content type.
func (r *ContentPostgreSQL) List(ctx context.Context, filters models.ContentFilters) ([]models.ContentItem, int64, error) {
	if filters.Type == "" {
		return r.listAcrossTypes(ctx, filters)
	}

	t, err := tableFor(filters.Type)
	if err != nil {
		return nil, 0, err
	}

	where := r.db.WithContext(ctx).Table(t.name)
	if filters.Status != nil {
		where = where.Where("status = ?", *filters.Status)
	}
	if filters.Owner != nil {
		where = where.Where(t.ownerColumn+" = ?", *filters.Owner)
	}

	var total int64
	if err := where.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count content")
	}

	query := r.itemQuery(ctx, t)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Owner != nil {
		query = query.Where(t.ownerColumn+" = ?", *filters.Owner)
	}

	var items []models.ContentItem
	if err := applyPagination(query.Order(createdOrder(filters.NewestFirst)), filters.Limit, filters.Offset).Scan(&items).Error; err != nil {
		return nil, 0, handleDBError(err, "list content")
	}
	for i := range items {
		items[i].Type = filters.Type
	}
	return items, total, nil
}

// contentRow carries the content type through a UNION ALL, since ContentItem.Type is not a column
type contentRow struct {
	models.ContentItem
	ContentType models.ContentType
}

// listAcrossTypes orders and paginates all three tables in one query so deep
// pages stay consistent with the total.
func (r *ContentPostgreSQL) listAcrossTypes(ctx context.Context, filters models.ContentFilters) ([]models.ContentItem, int64, error) {
	parts := make([]string, 0, len(models.AllContentTypes))
	var args []interface{}
	for _, contentType := range models.AllContentTypes {
		t := contentTables[contentType]
		part := fmt.Sprintf(
			"SELECT id, title, subject, %s AS owner, status, feedback, reviewed_by, reviewed_at, published_at, created_at, '%s' AS content_type FROM %s WHERE 1 = 1",
			t.ownerColumn, contentType, t.name)
		if filters.Status != nil {
			part += " AND status = ?"
			args = append(args, *filters.Status)
		}
		if filters.Owner != nil {
			part += " AND " + t.ownerColumn + " = ?"
			args = append(args, *filters.Owner)
		}
		parts = append(parts, part)
	}
	union := strings.Join(parts, " UNION ALL ")

	var total int64
	if err := r.db.WithContext(ctx).Raw("SELECT COUNT(*) FROM ("+union+") AS content", args...).Scan(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count content")
	}

	limit, offset := clampPage(filters.Limit, filters.Offset)
	query := fmt.Sprintf("SELECT * FROM (%s) AS content ORDER BY %s LIMIT ? OFFSET ?", union, createdOrder(filters.NewestFirst))

	var rows []contentRow
	if err := r.db.WithContext(ctx).Raw(query, append(args, limit, offset)...).Scan(&rows).Error; err != nil {
		return nil, 0, handleDBError(err, "list content")
	}

	items := make([]models.ContentItem, len(rows))
	for i, row := range rows {
		items[i] = row.ContentItem
		items[i].Type = row.ContentType
	}
	return items, total, nil
}

func (r *ContentPostgreSQL) CountByStatus(ctx context.Context, contentType models.ContentType, owner *string) (models.StatusCounts, error) {
	var counts models.StatusCounts
	t, err := tableFor(contentType)
	if err != nil {
		return counts, err
	}

	query := r.db.WithContext(ctx).Table(t.name).Select("status, COUNT(*) AS count")
	if owner != nil {
		query = query.Where(t.ownerColumn+" = ?", *owner)
	}

	var rows []struct {
		Status models.ContentStatus
		Count  int64
	}
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return counts, handleDBError(err, "count content by status")
	}

	for _, row := range rows {
		switch row.Status {
		case models.ContentStatusPending:
			counts.Pending = row.Count
		case models.ContentStatusPublished:
			counts.Published = row.Count
		case models.ContentStatusRejected:
			counts.Rejected = row.Count
		}
	}
	return counts, nil
}

// ===== REVIEW TRANSITIONS =====

// Transition is a compare-and-swap on status. Zero affected rows means the item
// is gone or another reviewer got there first; a follow-up count tells which.
// The in-memory fakeContentRepo in services tests follows the same contract.
func (r *ContentPostgreSQL) Transition(ctx context.Context, contentType models.ContentType, id string, from models.ContentStatus, update repositories.ReviewUpdate) error {
	t, err := tableFor(contentType)
	if err != nil {
		return err
	}

	values := map[string]interface{}{
		"status":       update.Status,
		"reviewed_by":  update.ReviewedBy,
		"reviewed_at":  update.ReviewedAt,
		"published_at": update.PublishedAt,
		"updated_at":   update.ReviewedAt,
	}
	if update.Feedback != nil {
		values["feedback"] = *update.Feedback
	}

	result := r.db.WithContext(ctx).
		Table(t.name).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if result.Error != nil {
		return handleDBError(result.Error, "transition content")
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var exists int64
	if err := r.db.WithContext(ctx).Table(t.name).Where("id = ?", id).Count(&exists).Error; err != nil {
		return handleDBError(err, "check content exists")
	}
	if exists == 0 {
		return fmt.Errorf("transition content failed: %w", repositories.ErrNotFound)
	}
	return fmt.Errorf("transition content failed: %w", repositories.ErrConflict)
}
