package queue_test

import (
	"context"
	"testing"

	"clipflow/internal/queue"
	"clipflow/internal/testsupport"
)

func TestInsertProcessingAndFetch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	clip, err := store.InsertProcessing(ctx, "clip-1", "https://clips.example/clip-1", "Great Play", "somechannel")
	if err != nil {
		t.Fatalf("InsertProcessing failed: %v", err)
	}
	if clip.ID == 0 {
		t.Fatal("expected row ID to be assigned")
	}
	if clip.Status != queue.StatusProcessing {
		t.Fatalf("expected processing status, got %s", clip.Status)
	}
	if clip.ProcessedAt.IsZero() || clip.CreatedAt.IsZero() {
		t.Fatalf("expected timestamps set: %#v", clip)
	}

	fetched, err := store.GetByClipID(ctx, "clip-1")
	if err != nil {
		t.Fatalf("GetByClipID failed: %v", err)
	}
	if fetched == nil || fetched.Title != "Great Play" || fetched.Broadcaster != "somechannel" {
		t.Fatalf("unexpected fetched clip: %#v", fetched)
	}
}

func TestInsertProcessingRejectsDuplicateClipID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.InsertProcessing(t, store, "clip-dup", "chan")
	if _, err := store.InsertProcessing(ctx, "clip-dup", "u", "t", "chan"); err == nil {
		t.Fatal("expected unique constraint violation for duplicate clip id")
	}
}

func TestGetByClipIDUnknownReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	clip, err := store.GetByClipID(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("GetByClipID failed: %v", err)
	}
	if clip != nil {
		t.Fatalf("expected nil for unknown clip, got %#v", clip)
	}
}

func TestMarkUploaded(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.InsertProcessing(t, store, "clip-up", "chan")

	if err := store.MarkUploaded(ctx, "clip-up", "tt-123", "https://tiktok.example/tt-123"); err != nil {
		t.Fatalf("MarkUploaded failed: %v", err)
	}

	clip, err := store.GetByClipID(ctx, "clip-up")
	if err != nil {
		t.Fatalf("GetByClipID failed: %v", err)
	}
	if clip.Status != queue.StatusUploaded {
		t.Fatalf("expected uploaded status, got %s", clip.Status)
	}
	if clip.TikTokVideoID != "tt-123" || clip.TikTokURL != "https://tiktok.example/tt-123" {
		t.Fatalf("unexpected destination fields: %#v", clip)
	}
	if clip.UploadedAt == nil {
		t.Fatal("expected uploaded_at to be set")
	}
}

func TestMarkFailedStoresMessage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.InsertProcessing(t, store, "clip-fail", "chan")

	if err := store.MarkFailed(ctx, "clip-fail", "ffmpeg exited 1"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	clip, err := store.GetByClipID(ctx, "clip-fail")
	if err != nil {
		t.Fatalf("GetByClipID failed: %v", err)
	}
	if clip.Status != queue.StatusFailed {
		t.Fatalf("expected failed status, got %s", clip.Status)
	}
	if clip.ErrorMessage != "ffmpeg exited 1" {
		t.Fatalf("unexpected error message %q", clip.ErrorMessage)
	}
	if clip.UploadedAt != nil {
		t.Fatal("uploaded_at must stay empty on failure")
	}
}

func TestTransitionsAreMonotonic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.InsertProcessing(t, store, "clip-terminal", "chan")

	if err := store.MarkUploaded(ctx, "clip-terminal", "tt-1", ""); err != nil {
		t.Fatalf("MarkUploaded failed: %v", err)
	}
	if err := store.MarkFailed(ctx, "clip-terminal", "late failure"); err == nil {
		t.Fatal("expected error: uploaded is terminal")
	}
	if err := store.MarkUploaded(ctx, "clip-terminal", "tt-2", ""); err == nil {
		t.Fatal("expected error: no re-uploading")
	}

	clip, err := store.GetByClipID(ctx, "clip-terminal")
	if err != nil {
		t.Fatalf("GetByClipID failed: %v", err)
	}
	if clip.Status != queue.StatusUploaded || clip.TikTokVideoID != "tt-1" {
		t.Fatalf("terminal row mutated: %#v", clip)
	}
}

func TestMarkUploadedWithoutRow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if err := store.MarkUploaded(context.Background(), "ghost", "tt-1", ""); err == nil {
		t.Fatal("expected error when no row exists")
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.InsertProcessing(t, store, "clip-a", "chan")
	testsupport.InsertProcessing(t, store, "clip-b", "chan")
	if err := store.MarkUploaded(ctx, "clip-a", "tt-a", ""); err != nil {
		t.Fatalf("MarkUploaded failed: %v", err)
	}

	uploaded, err := store.List(ctx, queue.StatusUploaded)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(uploaded) != 1 || uploaded[0].ClipID != "clip-a" {
		t.Fatalf("unexpected uploaded list: %#v", uploaded)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(all))
	}
}

func TestHealthCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.InsertProcessing(t, store, "clip-1", "chan")
	testsupport.InsertProcessing(t, store, "clip-2", "chan")
	testsupport.InsertProcessing(t, store, "clip-3", "chan")
	if err := store.MarkUploaded(ctx, "clip-1", "tt-1", ""); err != nil {
		t.Fatalf("MarkUploaded failed: %v", err)
	}
	if err := store.MarkFailed(ctx, "clip-2", "boom"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	summary, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if summary.Total != 3 || summary.Uploaded != 1 || summary.Failed != 1 || summary.Processing != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}

func TestJobRunAudit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if run, err := store.LastJobRun(ctx, "fetch_clips"); err != nil || run != nil {
		t.Fatalf("expected no prior runs, got %#v err=%v", run, err)
	}

	if err := store.RecordJobRun(ctx, "fetch_clips", "run-1", "", 3, 1); err != nil {
		t.Fatalf("RecordJobRun failed: %v", err)
	}
	if err := store.RecordJobRun(ctx, "fetch_clips", "run-2", "channel foo: not found", 0, 2); err != nil {
		t.Fatalf("RecordJobRun failed: %v", err)
	}

	run, err := store.LastJobRun(ctx, "fetch_clips")
	if err != nil {
		t.Fatalf("LastJobRun failed: %v", err)
	}
	if run == nil || run.RunID != "run-2" || run.ErrorCount != 2 {
		t.Fatalf("unexpected last run: %#v", run)
	}
	if run.LastError != "channel foo: not found" {
		t.Fatalf("unexpected last error %q", run.LastError)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := queue.ParseStatus(" Uploaded "); !ok || status != queue.StatusUploaded {
		t.Fatalf("ParseStatus normalized lookup failed: %v %v", status, ok)
	}
	if _, ok := queue.ParseStatus("archived"); ok {
		t.Fatal("expected unknown status to fail")
	}
}

func TestSchemaVersionMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	store.Close()

	// Reopening with a matching version succeeds.
	if reopened, err := queue.Open(cfg); err != nil {
		t.Fatalf("reopen failed: %v", err)
	} else {
		reopened.Close()
	}
}
