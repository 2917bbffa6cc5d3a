package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"clipflow/internal/config"
	"clipflow/internal/logging"
	"clipflow/internal/queue"
	"clipflow/internal/services"
	"clipflow/internal/services/tiktok"
	"clipflow/internal/services/twitch"
	"clipflow/internal/testsupport"
	"clipflow/internal/workflow"
)

type fakeSource struct {
	broadcasters map[string]string
	clips        map[string][]twitch.Clip
	resolveErr   map[string]error
	listErr      map[string]error
}

func (f *fakeSource) ResolveChannel(_ context.Context, login string) (string, error) {
	if err := f.resolveErr[login]; err != nil {
		return "", err
	}
	id, ok := f.broadcasters[login]
	if !ok {
		return "", services.Wrap(services.ErrNotFound, "twitch", "resolve-channel", login, nil)
	}
	return id, nil
}

func (f *fakeSource) ListTopClips(_ context.Context, broadcasterID string, _ int) ([]twitch.Clip, error) {
	if err := f.listErr[broadcasterID]; err != nil {
		return nil, err
	}
	clips, ok := f.clips[broadcasterID]
	if !ok || len(clips) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "twitch", "list-clips", broadcasterID, nil)
	}
	return clips, nil
}

type fakePipeline struct {
	processed []string
	failFor   map[string]error
}

func (f *fakePipeline) Process(_ context.Context, _, clipID string) (string, error) {
	if err := f.failFor[clipID]; err != nil {
		return "", err
	}
	f.processed = append(f.processed, clipID)
	return "/tmp/" + clipID + "_vertical.mp4", nil
}

func newDispatcher(t *testing.T, channels []string, source *fakeSource, pipeline *fakePipeline) (*workflow.Dispatcher, *queue.Store) {
	t.Helper()

	cfg := testsupport.NewConfig(t, func(c *config.Config) {
		c.Scheduler.Channels = channels
	})
	store := testsupport.MustOpenStore(t, cfg)
	publisher := tiktok.NewClient(tiktok.Options{Simulate: true})
	return workflow.NewDispatcher(cfg, store, source, publisher, pipeline, logging.NewNop()), store
}

func clipFixture(id string, views int) twitch.Clip {
	return twitch.Clip{
		ID:              id,
		URL:             "https://clips.example/" + id,
		Title:           "Clip " + id,
		BroadcasterName: "foo",
		ViewCount:       views,
	}
}

func TestRunOnceUploadsUnseenClips(t *testing.T) {
	source := &fakeSource{
		broadcasters: map[string]string{"foo": "b-1"},
		clips: map[string][]twitch.Clip{
			"b-1": {clipFixture("c2", 500), clipFixture("c1", 100)},
		},
	}
	pipeline := &fakePipeline{}
	dispatcher, store := newDispatcher(t, []string{"foo"}, source, pipeline)

	summary, err := dispatcher.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if summary.Uploaded != 2 || summary.Failed != 0 || summary.Skipped != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(pipeline.processed) != 2 || pipeline.processed[0] != "c2" || pipeline.processed[1] != "c1" {
		t.Fatalf("processed order = %v, want [c2 c1]", pipeline.processed)
	}

	seen := map[string]bool{}
	for _, id := range []string{"c1", "c2"} {
		clip, err := store.GetByClipID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByClipID(%s): %v", id, err)
		}
		if clip == nil || clip.Status != queue.StatusUploaded {
			t.Fatalf("clip %s = %+v, want uploaded", id, clip)
		}
		if clip.TikTokVideoID == "" || seen[clip.TikTokVideoID] {
			t.Fatalf("clip %s video id %q not distinct", id, clip.TikTokVideoID)
		}
		seen[clip.TikTokVideoID] = true
	}

	run, err := store.LastJobRun(context.Background(), "poll")
	if err != nil {
		t.Fatalf("LastJobRun: %v", err)
	}
	if run == nil || run.RunID != summary.RunID || run.SuccessCount != 2 {
		t.Fatalf("job run = %+v", run)
	}
}

func TestRunOnceSkipsTrackedClips(t *testing.T) {
	source := &fakeSource{
		broadcasters: map[string]string{"foo": "b-1"},
		clips: map[string][]twitch.Clip{
			"b-1": {clipFixture("c1", 100)},
		},
	}
	pipeline := &fakePipeline{}
	dispatcher, store := newDispatcher(t, []string{"foo"}, source, pipeline)
	testsupport.InsertProcessing(t, store, "c1", "foo")

	summary, err := dispatcher.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if summary.Skipped != 1 || summary.Uploaded != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(pipeline.processed) != 0 {
		t.Fatalf("tracked clip reprocessed: %v", pipeline.processed)
	}
}

func TestRunOnceRecordsClipFailureAndContinues(t *testing.T) {
	source := &fakeSource{
		broadcasters: map[string]string{"foo": "b-1"},
		clips: map[string][]twitch.Clip{
			"b-1": {clipFixture("c1", 500), clipFixture("c2", 100)},
		},
	}
	pipeline := &fakePipeline{
		failFor: map[string]error{
			"c1": services.Wrap(services.ErrExternalTool, "pipeline", "download", "c1", errors.New("exit status 1")),
		},
	}
	dispatcher, store := newDispatcher(t, []string{"foo"}, source, pipeline)

	summary, err := dispatcher.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if summary.Uploaded != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	failed, err := store.GetByClipID(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetByClipID(c1): %v", err)
	}
	if failed == nil || failed.Status != queue.StatusFailed || failed.ErrorMessage == "" {
		t.Fatalf("clip c1 = %+v, want failed with message", failed)
	}

	uploaded, err := store.GetByClipID(context.Background(), "c2")
	if err != nil {
		t.Fatalf("GetByClipID(c2): %v", err)
	}
	if uploaded == nil || uploaded.Status != queue.StatusUploaded {
		t.Fatalf("clip c2 = %+v, want uploaded", uploaded)
	}
}

func TestRunOnceIsolatesChannelFailure(t *testing.T) {
	source := &fakeSource{
		broadcasters: map[string]string{"good": "b-2"},
		clips: map[string][]twitch.Clip{
			"b-2": {clipFixture("c1", 100)},
		},
		resolveErr: map[string]error{
			"broken": services.Wrap(services.ErrNetwork, "twitch", "resolve-channel", "broken", errors.New("status 500")),
		},
	}
	pipeline := &fakePipeline{}
	dispatcher, store := newDispatcher(t, []string{"broken", "good"}, source, pipeline)

	summary, err := dispatcher.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if summary.Uploaded != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	run, err := store.LastJobRun(context.Background(), "poll")
	if err != nil {
		t.Fatalf("LastJobRun: %v", err)
	}
	if run == nil || run.LastError == "" {
		t.Fatalf("job run should record the channel error, got %+v", run)
	}
}

func TestRunOnceTreatsMissingClipsAsEmptyPass(t *testing.T) {
	source := &fakeSource{
		broadcasters: map[string]string{"quiet": "b-3"},
	}
	pipeline := &fakePipeline{}
	dispatcher, store := newDispatcher(t, []string{"quiet"}, source, pipeline)

	summary, err := dispatcher.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if summary.Uploaded != 0 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	run, err := store.LastJobRun(context.Background(), "poll")
	if err != nil {
		t.Fatalf("LastJobRun: %v", err)
	}
	if run == nil || run.LastError != "" {
		t.Fatalf("empty channels are not errors, got %+v", run)
	}
}

func TestRunOnceMarksFailedWhenUploadErrors(t *testing.T) {
	source := &fakeSource{
		broadcasters: map[string]string{"foo": "b-1"},
		clips: map[string][]twitch.Clip{
			"b-1": {clipFixture("c1", 100)},
		},
	}
	pipeline := &fakePipeline{}
	cfg := testsupport.NewConfig(t, func(c *config.Config) {
		c.Scheduler.Channels = []string{"foo"}
	})
	store := testsupport.MustOpenStore(t, cfg)
	publisher := &failingPublisher{}
	dispatcher := workflow.NewDispatcher(cfg, store, source, publisher, pipeline, logging.NewNop())

	summary, err := dispatcher.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	clip, err := store.GetByClipID(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetByClipID: %v", err)
	}
	if clip == nil || clip.Status != queue.StatusFailed {
		t.Fatalf("clip = %+v, want failed", clip)
	}
}

type failingPublisher struct{}

func (f *failingPublisher) UploadVideo(context.Context, string, string, string) (tiktok.Result, error) {
	return tiktok.Result{}, services.Wrap(services.ErrNetwork, "tiktok", "upload", "", fmt.Errorf("status 429"))
}

func (f *failingPublisher) Simulated() bool { return false }
