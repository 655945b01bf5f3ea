package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stemhub-africa/stemhub-service/internal/events"
	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/storage"
)

type fakePresigner struct {
	exists bool
}

func (p *fakePresigner) PresignUpload(ctx context.Context, ownerID, fileName string) (string, string, time.Time, error) {
	key := storage.ObjectKey(ownerID, fileName)
	return key, "https://objects.example.test/" + key, time.Now().Add(15 * time.Minute), nil
}

func (p *fakePresigner) Exists(ctx context.Context, key string) (bool, error) {
	return p.exists, nil
}

func newTestContentService(f *fixture, presigner storage.Presigner) ContentService {
	return NewContentService(f.repo, f.cache, presigner, f.publisher, f.logger, f.validator)
}

func TestCreateNote(t *testing.T) {
	f := newFixture()
	svc := newTestContentService(f, nil)
	ctx := context.Background()
	req := &models.NoteCreateRequest{Title: " Cells ", Subject: "biology", Body: "All living things are made of cells."}

	if _, err := svc.CreateNote(ctx, studentUser, req); !IsPermissionError(err) {
		t.Fatalf("student: expected permission error, got %v", err)
	}

	note, err := svc.CreateNote(ctx, contributorUser, req)
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	if note.Status != models.ContentStatusPending || note.CreatedBy != contributorUser.ID || note.Title != "Cells" {
		t.Errorf("unexpected note %+v", note)
	}
	if got := len(f.publisher.GetEventsByType(events.TypeContentSubmitted)); got != 1 {
		t.Errorf("expected 1 content.submitted event, got %d", got)
	}
}

func TestCreateQuizRequiresQuestions(t *testing.T) {
	f := newFixture()
	svc := newTestContentService(f, nil)
	ctx := context.Background()

	for _, questions := range []string{`{}`, `[]`, `"x"`} {
		_, err := svc.CreateQuiz(ctx, contributorUser, &models.QuizCreateRequest{
			Title: "Algebra", Subject: "maths", Questions: json.RawMessage(questions),
		})
		if !IsValidationError(err) {
			t.Errorf("questions %s: expected validation error, got %v", questions, err)
		}
	}

	quiz, err := svc.CreateQuiz(ctx, adminUser, &models.QuizCreateRequest{
		Title: "Algebra", Subject: "maths", Questions: json.RawMessage(`[{"prompt":"2x=4","answer":"2"}]`),
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if quiz.Status != models.ContentStatusPending {
		t.Errorf("status = %s", quiz.Status)
	}
}

func TestCreatePastPaper(t *testing.T) {
	f := newFixture()
	presigner := &fakePresigner{}
	svc := newTestContentService(f, presigner)
	ctx := context.Background()

	req := &models.PastPaperCreateRequest{
		Title: "WASSCE Physics 2024", Subject: "physics", ExamBoard: "WAEC", Year: 2024,
		ObjectKey: storage.ObjectKey("someone-else", "paper.pdf"),
	}
	if _, err := svc.CreatePastPaper(ctx, contributorUser, req); !IsValidationError(err) {
		t.Errorf("foreign key: expected validation error, got %v", err)
	}

	req.ObjectKey = storage.ObjectKey(contributorUser.ID, "paper.pdf")
	if _, err := svc.CreatePastPaper(ctx, contributorUser, req); !IsValidationError(err) {
		t.Errorf("missing upload: expected validation error, got %v", err)
	}

	presigner.exists = true
	paper, err := svc.CreatePastPaper(ctx, contributorUser, req)
	if err != nil {
		t.Fatalf("create past paper: %v", err)
	}
	if paper.UploadedBy != contributorUser.ID || paper.ObjectKey != req.ObjectKey {
		t.Errorf("unexpected paper %+v", paper)
	}
}

func TestUploadURL(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := &models.UploadURLRequest{FileName: "physics 2024.pdf"}

	_, err := newTestContentService(f, nil).UploadURL(ctx, contributorUser, req)
	if _, ok := err.(*BusinessRuleError); !ok {
		t.Errorf("no storage: expected business rule error, got %v", err)
	}

	resp, err := newTestContentService(f, &fakePresigner{}).UploadURL(ctx, contributorUser, req)
	if err != nil {
		t.Fatalf("upload url: %v", err)
	}
	if !storage.OwnsKey(contributorUser.ID, resp.ObjectKey) || resp.UploadURL == "" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestListOwnAndStats(t *testing.T) {
	f := newFixture()
	owner := contributorUser.ID
	f.store.addContent(models.ContentItem{ID: "n-1", Type: models.ContentTypeNote, Owner: owner, Status: models.ContentStatusPublished})
	f.store.addContent(models.ContentItem{ID: "q-1", Type: models.ContentTypeQuiz, Owner: owner, Status: models.ContentStatusPending})
	f.store.addContent(models.ContentItem{ID: "p-1", Type: models.ContentTypePastPaper, Owner: owner, Status: models.ContentStatusRejected})
	f.store.addContent(models.ContentItem{ID: "n-2", Type: models.ContentTypeNote, Owner: "other", Status: models.ContentStatusPending})
	svc := newTestContentService(f, nil)
	ctx := context.Background()

	all, err := svc.ListOwn(ctx, contributorUser, nil, nil, 1, 20)
	if err != nil {
		t.Fatalf("list own: %v", err)
	}
	if all.Total != 3 || len(all.Items) != 3 {
		t.Fatalf("expected 3 own items, got total=%d items=%d", all.Total, len(all.Items))
	}
	if all.Items[0].ID != "p-1" || all.Items[2].ID != "n-1" {
		t.Errorf("expected newest first, got %s..%s", all.Items[0].ID, all.Items[2].ID)
	}

	pending := models.ContentStatusPending
	quizType := models.ContentTypeQuiz
	filtered, err := svc.ListOwn(ctx, contributorUser, &quizType, &pending, 1, 20)
	if err != nil {
		t.Fatalf("list own filtered: %v", err)
	}
	if filtered.Total != 1 || filtered.Items[0].ID != "q-1" {
		t.Errorf("unexpected filtered list %+v", filtered)
	}

	paged, _ := svc.ListOwn(ctx, contributorUser, nil, nil, 2, 2)
	if len(paged.Items) != 1 || paged.Items[0].ID != "n-1" {
		t.Errorf("unexpected second page %+v", paged.Items)
	}

	stats, err := svc.Stats(ctx, contributorUser)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Notes.Published != 1 || stats.Quizzes.Pending != 1 || stats.PastPapers.Rejected != 1 || stats.Total.Total() != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}

	if _, err := svc.Stats(ctx, studentUser); !IsPermissionError(err) {
		t.Errorf("student stats: expected permission error, got %v", err)
	}
}

func TestListOwnPagesNewestFirst(t *testing.T) {
	f := newFixture()
	owner := contributorUser.ID
	for i := 1; i <= 3; i++ {
		feedback := fmt.Sprintf("revision %d needs sources", i)
		f.store.addContent(models.ContentItem{
			ID: fmt.Sprintf("n-%d", i), Type: models.ContentTypeNote, Owner: owner,
			Status: models.ContentStatusRejected, Feedback: &feedback,
		})
	}
	svc := newTestContentService(f, nil)
	ctx := context.Background()

	tests := []struct {
		page int
		want []string
	}{
		{1, []string{"n-3", "n-2"}},
		{2, []string{"n-1"}},
		{3, nil},
	}
	for _, tt := range tests {
		resp, err := svc.ListOwn(ctx, contributorUser, nil, nil, tt.page, 2)
		if err != nil {
			t.Fatalf("page %d: %v", tt.page, err)
		}
		if resp.Total != 3 {
			t.Errorf("page %d: total = %d, want 3", tt.page, resp.Total)
		}
		var got []string
		for _, item := range resp.Items {
			got = append(got, item.ID)
		}
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("page %d: got %v, want %v", tt.page, got, tt.want)
		}
	}

	first, _ := svc.ListOwn(ctx, contributorUser, nil, nil, 1, 2)
	if fb := first.Items[0].Feedback; fb == nil || *fb != "revision 3 needs sources" {
		t.Errorf("newest rejection feedback not visible: %v", fb)
	}

	noteType := models.ContentTypeNote
	typed, _ := svc.ListOwn(ctx, contributorUser, &noteType, nil, 1, 2)
	if len(typed.Items) != 2 || typed.Items[0].ID != "n-3" {
		t.Errorf("typed listing not newest first: %+v", typed.Items)
	}
}

func TestListOwnDeepPagesAcrossTypes(t *testing.T) {
	f := newFixture()
	owner := contributorUser.ID
	const count = 180
	for i := 0; i < count; i++ {
		contentType := models.ContentTypeNote
		if i%6 == 5 {
			contentType = models.ContentTypeQuiz
		}
		f.store.addContent(models.ContentItem{
			ID: fmt.Sprintf("item-%03d", i), Type: contentType, Owner: owner, Status: models.ContentStatusPending,
		})
	}
	svc := newTestContentService(f, nil)
	ctx := context.Background()

	seen := map[string]bool{}
	var previous time.Time
	for page := 1; page <= 2; page++ {
		resp, err := svc.ListOwn(ctx, contributorUser, nil, nil, page, 100)
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if resp.Total != count {
			t.Errorf("page %d: total = %d, want %d", page, resp.Total, count)
		}
		for _, item := range resp.Items {
			if seen[item.ID] {
				t.Errorf("page %d repeats %s", page, item.ID)
			}
			seen[item.ID] = true
			if !previous.IsZero() && !item.CreatedAt.Before(previous) {
				t.Errorf("page %d: %s out of order", page, item.ID)
			}
			previous = item.CreatedAt
		}
	}
	if len(seen) != count {
		t.Errorf("listed %d distinct items across pages, want %d", len(seen), count)
	}

	deep, err := svc.ListOwn(ctx, contributorUser, nil, nil, 9, 20)
	if err != nil {
		t.Fatalf("deep page: %v", err)
	}
	if len(deep.Items) != 20 || deep.Items[0].ID != "item-019" || deep.Items[19].ID != "item-000" {
		t.Errorf("unexpected deep page: %d items, first %v", len(deep.Items), deep.Items)
	}
}

func TestListPublished(t *testing.T) {
	f := newFixture()
	f.store.addContent(models.ContentItem{ID: "n-1", Type: models.ContentTypeNote, Owner: "a", Status: models.ContentStatusPublished})
	f.store.addContent(models.ContentItem{ID: "n-2", Type: models.ContentTypeNote, Owner: "a", Status: models.ContentStatusPending})
	svc := newTestContentService(f, nil)

	list, err := svc.ListPublished(context.Background(), "notes", 1, 20)
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	if list.Total != 1 || list.Items[0].ID != "n-1" {
		t.Errorf("unexpected list %+v", list)
	}
}
