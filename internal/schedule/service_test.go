package schedule

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/internal/generation"
	"github.com/clipai/backend/internal/memstore"
	"github.com/clipai/backend/internal/models"
	"github.com/clipai/backend/internal/videos"
	"github.com/clipai/backend/pkg/queue"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestService(store *memstore.Store) *Service {
	svc := NewService(store.Schedules(), store.Clips(), nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func createUser(t *testing.T, store *memstore.Store, email string) int64 {
	t.Helper()
	u := &models.User{Name: email, Email: email, Password: "x"}
	if err := store.Users().Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u.ID
}

// generatedClip runs a full generation for a new video and returns its first clip.
func generatedClip(t *testing.T, store *memstore.Store, userID int64) models.Clip {
	t.Helper()
	ctx := context.Background()
	v := &models.Video{UserID: userID, StorageKey: "k", Size: 1}
	if _, err := store.Videos().Create(ctx, v); err != nil {
		t.Fatal(err)
	}
	engine := generation.NewEngine(store.Generation(), generation.NewSimulatedAnalyzer(generation.SimulatedAnalyzerConfig{Seed: 9}), generation.Config{}, nil)
	if err := engine.Generate(ctx, v.ID, userID); err != nil {
		t.Fatal(err)
	}
	list, err := store.Clips().ListByUser(ctx, userID, v.ID)
	if err != nil || len(list) == 0 {
		t.Fatalf("no clips generated: %v", err)
	}
	return list[0]
}

func TestSchedule_Validation(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uid := createUser(t, store, "ann@example.com")
	clip := generatedClip(t, store, uid)
	svc := newTestService(store)

	tests := []struct {
		name string
		in   Input
		want error
	}{
		{"no platforms", Input{ClipID: clip.ID}, apperrors.ErrValidation},
		{"unknown platform", Input{ClipID: clip.ID, Platforms: []string{"myspace"}}, apperrors.ErrValidation},
		{"no clip", Input{Platforms: []string{"tiktok"}}, apperrors.ErrValidation},
		{"missing clip", Input{ClipID: 9999, Platforms: []string{"tiktok"}}, apperrors.ErrNotFound},
		{"caption too long", Input{ClipID: clip.ID, Platforms: []string{"tiktok"}, Caption: strings.Repeat("a", MaxCaptionLength+1)}, apperrors.ErrValidation},
		{"multibyte caption within limit", Input{ClipID: clip.ID, Platforms: []string{"tiktok"}, Caption: strings.Repeat("✨", 1000)}, nil},
		{"multibyte caption at limit", Input{ClipID: clip.ID, Platforms: []string{"tiktok"}, Caption: strings.Repeat("é", MaxCaptionLength)}, nil},
		{"multibyte caption over limit", Input{ClipID: clip.ID, Platforms: []string{"tiktok"}, Caption: strings.Repeat("é", MaxCaptionLength+1)}, apperrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Schedule(ctx, uid, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSchedule_ForeignClipIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ann := createUser(t, store, "ann@example.com")
	bob := createUser(t, store, "bob@example.com")
	clip := generatedClip(t, store, ann)

	_, err := newTestService(store).Schedule(ctx, bob, Input{ClipID: clip.ID, Platforms: []string{"tiktok"}})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

// clipStatusOverride reports every clip with a fixed status.
type clipStatusOverride struct {
	ClipReader
	status models.ClipStatus
}

func (o clipStatusOverride) GetOwned(ctx context.Context, userID, clipID int64) (*models.Clip, error) {
	c, err := o.ClipReader.GetOwned(ctx, userID, clipID)
	if err != nil {
		return nil, err
	}
	c.Status = o.status
	return c, nil
}

func TestSchedule_ClipNotReady(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uid := createUser(t, store, "ann@example.com")
	clip := generatedClip(t, store, uid)
	svc := newTestService(store)
	svc.clips = clipStatusOverride{ClipReader: store.Clips(), status: models.ClipStatusProcessing}

	_, err := svc.Schedule(ctx, uid, Input{ClipID: clip.ID, Platforms: []string{"tiktok"}})
	if !errors.Is(err, apperrors.ErrClipNotReady) {
		t.Fatalf("err = %v, want clip not ready", err)
	}
}

func TestSchedule_NormalizesPlatformsAndKeepsExplicitTime(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uid := createUser(t, store, "ann@example.com")
	clip := generatedClip(t, store, uid)
	at := fixedNow.Add(48 * time.Hour)

	post, err := newTestService(store).Schedule(ctx, uid, Input{
		ClipID:      clip.ID,
		Platforms:   []string{"TikTok", "twitter", "x", "tiktok"},
		ScheduledAt: &at,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(post.Platforms) != 2 || post.Platforms[0] != models.PlatformTikTok || post.Platforms[1] != models.PlatformX {
		t.Fatalf("platforms = %v", post.Platforms)
	}
	if !post.ScheduledAt.Equal(at) {
		t.Fatalf("scheduled_at = %v, want %v", post.ScheduledAt, at)
	}
}

func TestCancel_OwnershipAndState(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ann := createUser(t, store, "ann@example.com")
	bob := createUser(t, store, "bob@example.com")
	clip := generatedClip(t, store, ann)
	svc := newTestService(store)

	post, err := svc.Schedule(ctx, ann, Input{ClipID: clip.ID, Platforms: []string{"youtube"}})
	if err != nil {
		t.Fatal(err)
	}

	_, foreignErr := svc.Cancel(ctx, bob, post.ID)
	_, missingErr := svc.Cancel(ctx, bob, 424242)
	if !errors.Is(foreignErr, apperrors.ErrNotFound) || foreignErr.Error() != missingErr.Error() {
		t.Fatalf("foreign cancel = %v, missing cancel = %v; want identical not found", foreignErr, missingErr)
	}

	got, err := svc.Cancel(ctx, ann, post.ID)
	if err != nil || got.Status != models.PostStatusCanceled {
		t.Fatalf("cancel = %+v, %v", got, err)
	}
	if _, err := svc.Cancel(ctx, ann, post.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("second cancel err = %v, want not found", err)
	}
}

type noopBlobs struct{}

func (noopBlobs) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	_, err := io.Copy(io.Discard, body)
	return key, err
}
func (noopBlobs) URL(context.Context, string) (string, error) { return "", nil }
func (noopBlobs) Delete(context.Context, string) error        { return nil }

type inlineDispatch struct {
	engine *generation.Engine
}

func (d inlineDispatch) EnqueueGeneration(ctx context.Context, p queue.GenerationPayload) error {
	return d.engine.Generate(ctx, p.VideoID, p.UserID)
}

func TestEndToEnd_UploadGenerateScheduleCancel(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uid := createUser(t, store, "ann@example.com")

	engine := generation.NewEngine(store.Generation(), generation.NewSimulatedAnalyzer(generation.SimulatedAnalyzerConfig{
		Duration: 240, ClipLength: 45, MinClips: 6, MaxClips: 6, Seed: 11,
	}), generation.Config{Timeout: time.Second}, nil)
	ingest := videos.NewService(store.Videos(), noopBlobs{}, inlineDispatch{engine: engine}, 0, nil)

	upload := append([]byte("RIFF\x00\x00\x00\x00AVI LIST"), bytes.Repeat([]byte{0}, 2048)...)
	video, err := ingest.Ingest(ctx, uid, videos.Upload{Filename: "talk.avi", Size: int64(len(upload)), Body: bytes.NewReader(upload)})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	clips, _ := store.Clips().ListByUser(ctx, uid, video.ID)
	if len(clips) != 5 {
		t.Fatalf("clips = %d, want 5", len(clips))
	}
	starts := map[float64]bool{}
	var first models.Clip
	for _, c := range clips {
		starts[c.StartTime] = true
		if c.Duration != 45 || c.AIScore < 70 || c.AIScore >= 100 {
			t.Errorf("clip %+v out of range", c)
		}
		if c.StartTime == 0 {
			first = c
		}
	}
	for _, s := range []float64{0, 45, 90, 135, 180} {
		if !starts[s] {
			t.Errorf("missing start %v", s)
		}
	}
	user, _ := store.Users().GetByID(ctx, uid)
	if user.ClipsUsed != len(clips) {
		t.Fatalf("clips_used = %d, want %d", user.ClipsUsed, len(clips))
	}

	svc := newTestService(store)
	post, err := svc.Schedule(ctx, uid, Input{ClipID: first.ID, Platforms: []string{"tiktok", "instagram"}})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if post.Status != models.PostStatusPending || !post.ScheduledAt.Equal(fixedNow) {
		t.Fatalf("post = %+v", post)
	}

	canceled, err := svc.Cancel(ctx, uid, post.ID)
	if err != nil || canceled.Status != models.PostStatusCanceled {
		t.Fatalf("Cancel = %+v, %v", canceled, err)
	}
	if _, err := svc.Cancel(ctx, uid, post.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("second Cancel err = %v, want not found", err)
	}
}
