package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"

	"github.com/stemhub-africa/stemhub-service/internal/cache"
	"github.com/stemhub-africa/stemhub-service/internal/events"
	"github.com/stemhub-africa/stemhub-service/internal/models"
)

func seedPendingNote(f *fixture, id string) {
	f.store.addContent(models.ContentItem{
		ID:      id,
		Type:    models.ContentTypeNote,
		Title:   "Photosynthesis",
		Subject: "biology",
		Owner:   contributorUser.ID,
		Status:  models.ContentStatusPending,
	})
}

func newTestReviewService(f *fixture) ReviewService {
	return NewReviewService(f.repo, f.cache, f.publisher, f.logger, f.validator)
}

func TestRejectRequiresFeedback(t *testing.T) {
	f := newFixture()
	seedPendingNote(f, "n-1")
	svc := newTestReviewService(f)

	for _, feedback := range []string{"", "   ", "\n\t"} {
		_, err := svc.Reject(context.Background(), adminUser, models.ContentTypeNote, "n-1", feedback)
		if !IsValidationError(err) {
			t.Fatalf("feedback %q: expected validation error, got %v", feedback, err)
		}
	}

	if f.store.transitionCalls != 0 {
		t.Errorf("expected no write, got %d transitions", f.store.transitionCalls)
	}
	if item, _ := f.store.item(models.ContentTypeNote, "n-1"); item.Status != models.ContentStatusPending {
		t.Errorf("status changed to %s", item.Status)
	}
}

func TestRejectedFeedbackVisibleToContributor(t *testing.T) {
	f := newFixture()
	seedPendingNote(f, "n-1")
	reviews := newTestReviewService(f)
	content := NewContentService(f.repo, f.cache, nil, f.publisher, f.logger, f.validator)
	ctx := context.Background()

	item, err := reviews.Reject(ctx, adminUser, models.ContentTypeNote, "n-1", "  needs sources ")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if item.Status != models.ContentStatusRejected {
		t.Errorf("status = %s", item.Status)
	}
	if item.ReviewedBy == nil || *item.ReviewedBy != adminUser.ID {
		t.Errorf("reviewed_by = %v", item.ReviewedBy)
	}

	own, err := content.ListOwn(ctx, contributorUser, nil, nil, 1, 20)
	if err != nil {
		t.Fatalf("list own: %v", err)
	}
	if len(own.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(own.Items))
	}
	got := own.Items[0]
	if got.Status != models.ContentStatusRejected || got.Feedback == nil || *got.Feedback != "needs sources" {
		t.Errorf("contributor sees %+v", got)
	}
}

func TestApprovePublishes(t *testing.T) {
	f := newFixture()
	seedPendingNote(f, "n-1")
	svc := newTestReviewService(f)

	item, err := svc.Approve(context.Background(), adminUser, "notes", "n-1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if item.Status != models.ContentStatusPublished || item.PublishedAt == nil {
		t.Errorf("unexpected item %+v", item)
	}

	reviewed := f.publisher.GetEventsByType(events.TypeContentReviewed)
	if len(reviewed) != 1 {
		t.Fatalf("expected 1 content.reviewed event, got %d", len(reviewed))
	}
	data, ok := reviewed[0].Data.(events.ContentReviewedEvent)
	if !ok || data.Status != string(models.ContentStatusPublished) || data.OwnerID != contributorUser.ID {
		t.Errorf("unexpected event data %+v", reviewed[0].Data)
	}
}

func TestReviewOfReviewedItemConflicts(t *testing.T) {
	f := newFixture()
	seedPendingNote(f, "n-1")
	svc := newTestReviewService(f)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, adminUser, models.ContentTypeNote, "n-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := svc.Approve(ctx, adminUser, models.ContentTypeNote, "n-1"); !errors.Is(err, ErrContentAlreadyReviewed) {
		t.Errorf("second approve: expected ErrContentAlreadyReviewed, got %v", err)
	}
	if _, err := svc.Reject(ctx, adminUser, models.ContentTypeNote, "n-1", "too late"); !errors.Is(err, ErrContentAlreadyReviewed) {
		t.Errorf("reject after approve: expected ErrContentAlreadyReviewed, got %v", err)
	}
	if item, _ := f.store.item(models.ContentTypeNote, "n-1"); item.Status != models.ContentStatusPublished || item.Feedback != nil {
		t.Errorf("published item was overwritten: %+v", item)
	}
}

func TestReviewRequiresAdmin(t *testing.T) {
	f := newFixture()
	seedPendingNote(f, "n-1")
	svc := newTestReviewService(f)
	ctx := context.Background()

	for _, actor := range []*models.User{nil, studentUser, contributorUser} {
		if _, err := svc.Approve(ctx, actor, models.ContentTypeNote, "n-1"); !IsPermissionError(err) {
			t.Errorf("approve by %v: expected permission error, got %v", actor, err)
		}
		if _, err := svc.Reject(ctx, actor, models.ContentTypeNote, "n-1", "no"); !IsPermissionError(err) {
			t.Errorf("reject by %v: expected permission error, got %v", actor, err)
		}
		if _, err := svc.ListQueue(ctx, actor, models.ContentTypeNote, 1, 20); !IsPermissionError(err) {
			t.Errorf("list by %v: expected permission error, got %v", actor, err)
		}
	}
	if f.store.transitionCalls != 0 {
		t.Errorf("expected no writes, got %d", f.store.transitionCalls)
	}
}

func TestReviewUnknownTargets(t *testing.T) {
	f := newFixture()
	svc := newTestReviewService(f)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, adminUser, models.ContentTypeNote, "missing"); !errors.Is(err, ErrContentNotFound) {
		t.Errorf("expected ErrContentNotFound, got %v", err)
	}
	if _, err := svc.Approve(ctx, adminUser, "video", "n-1"); !IsValidationError(err) {
		t.Errorf("expected validation error for unknown type, got %v", err)
	}
}

func TestListQueueShowsPendingOnly(t *testing.T) {
	f := newFixture()
	seedPendingNote(f, "n-1")
	seedPendingNote(f, "n-2")
	f.store.addContent(models.ContentItem{ID: "n-3", Type: models.ContentTypeNote, Owner: "x", Status: models.ContentStatusPublished})
	f.store.addContent(models.ContentItem{ID: "q-1", Type: models.ContentTypeQuiz, Owner: "x", Status: models.ContentStatusPending})
	svc := newTestReviewService(f)

	queue, err := svc.ListQueue(context.Background(), adminUser, models.ContentTypeNote, 1, 20)
	if err != nil {
		t.Fatalf("list queue: %v", err)
	}
	if queue.Total != 2 || len(queue.Items) != 2 {
		t.Fatalf("expected 2 pending notes, got total=%d items=%d", queue.Total, len(queue.Items))
	}
	if queue.Items[0].ID != "n-1" {
		t.Errorf("queue not oldest first: %s", queue.Items[0].ID)
	}
}

func TestSummaryIsCachedUntilReview(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := newFixture()
	f.cache = cache.NewCacheManager(client)
	seedPendingNote(f, "n-1")
	svc := newTestReviewService(f)
	ctx := context.Background()

	summary, err := svc.Summary(ctx, adminUser)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Notes != 1 || summary.Total != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	seedPendingNote(f, "n-2")
	summary, _ = svc.Summary(ctx, adminUser)
	if summary.Notes != 1 {
		t.Errorf("expected cached count 1, got %d", summary.Notes)
	}

	if _, err := svc.Approve(ctx, adminUser, models.ContentTypeNote, "n-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	summary, _ = svc.Summary(ctx, adminUser)
	if summary.Notes != 1 || summary.Total != 1 {
		t.Errorf("expected fresh count after review, got %+v", summary)
	}
}

func TestRefreshBacklog(t *testing.T) {
	f := newFixture()
	seedPendingNote(f, "n-1")
	f.store.addContent(models.ContentItem{ID: "p-1", Type: models.ContentTypePastPaper, Owner: "x", Status: models.ContentStatusPending})
	svc := newTestReviewService(f)

	summary, err := svc.RefreshBacklog(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if summary.Notes != 1 || summary.PastPapers != 1 || summary.Quizzes != 0 || summary.Total != 2 {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestExportQueue(t *testing.T) {
	f := newFixture()
	for _, id := range []string{"n-1", "n-2", "n-3"} {
		seedPendingNote(f, id)
	}
	svc := newTestReviewService(f)

	data, err := svc.ExportQueue(context.Background(), adminUser, models.ContentTypeNote)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "ID" || rows[1][0] != "n-1" || rows[1][3] != contributorUser.ID {
		t.Errorf("unexpected rows %v", rows[:2])
	}

	if _, err := svc.ExportQueue(context.Background(), contributorUser, models.ContentTypeNote); !IsPermissionError(err) {
		t.Errorf("expected permission error, got %v", err)
	}
}
