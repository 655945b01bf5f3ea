package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// contentTable describes where a content type lives and which column names its owner
type contentTable struct {
	name        string
	ownerColumn string
}

var contentTables = map[models.ContentType]contentTable{
	models.ContentTypeNote:      {name: "notes", ownerColumn: "created_by"},
	models.ContentTypeQuiz:      {name: "quizzes", ownerColumn: "created_by"},
	models.ContentTypePastPaper: {name: "past_papers", ownerColumn: "uploaded_by"},
}

func tableFor(contentType models.ContentType) (contentTable, error) {
	t, ok := contentTables[contentType]
	if !ok {
		return contentTable{}, fmt.Errorf("unknown content type %q", contentType)
	}
	return t, nil
}

// handleDBError maps gorm errors onto the repository sentinels
func handleDBError(err error, operation string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s failed: %w", operation, repositories.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s failed: %w", operation, repositories.ErrDuplicate)
	}
	return fmt.Errorf("%s failed: %w", operation, err)
}

// applyPagination clamps limit and offset
func applyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	limit, offset = clampPage(limit, offset)
	return query.Limit(limit).Offset(offset)
}

// clampPage bounds the page size; the offset itself is never capped
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func createdOrder(newestFirst bool) string {
	if newestFirst {
		return "created_at DESC, id DESC"
	}
	return "created_at ASC, id ASC"
}
