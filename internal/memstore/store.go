// Package memstore is an in-memory implementation of every repository interface.
// It backs STORE_DRIVER=memory for local runs and is the persistence fake in tests.
// All state lives behind one mutex, so each method is atomic with respect to the others.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/internal/generation"
	"github.com/clipai/backend/internal/models"
)

// Store holds all tables.
type Store struct {
	mu      sync.RWMutex
	now     func() time.Time
	seq     map[string]int64
	users   map[int64]*models.User
	emails  map[string]int64
	videos  map[int64]*models.Video
	jobs    map[int64]*models.GenerationJob // keyed by video id
	clips   map[int64]*models.Clip
	posts   map[int64]*models.ScheduledPost
	records []models.AnalyticsRecord
}

// New creates an empty store.
func New() *Store {
	return &Store{
		now:    func() time.Time { return time.Now().UTC() },
		seq:    make(map[string]int64),
		users:  make(map[int64]*models.User),
		emails: make(map[string]int64),
		videos: make(map[int64]*models.Video),
		jobs:   make(map[int64]*models.GenerationJob),
		clips:  make(map[int64]*models.Clip),
		posts:  make(map[int64]*models.ScheduledPost),
	}
}

// SetClock overrides the time source used for created_at/updated_at.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// Users returns the identity store view.
func (s *Store) Users() *Users { return &Users{s: s} }

// Videos returns the ingest repository view.
func (s *Store) Videos() *Videos { return &Videos{s: s} }

// Generation returns the generation engine and reaper store view.
func (s *Store) Generation() *Generation { return &Generation{s: s} }

// Clips returns the clip repository view.
func (s *Store) Clips() *Clips { return &Clips{s: s} }

// Schedules returns the scheduled post repository view.
func (s *Store) Schedules() *Schedules { return &Schedules{s: s} }

// Analytics returns the analytics repository view.
func (s *Store) Analytics() *Analytics { return &Analytics{s: s} }

// Users is the in-memory identity store.
type Users struct{ s *Store }

// Create inserts u, filling ID, defaults and CreatedAt. Duplicate emails fail with ErrConflict.
func (r *Users) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email := strings.ToLower(u.Email)
	if _, ok := r.s.emails[email]; ok {
		return fmt.Errorf("%w: email already registered", apperrors.ErrConflict)
	}
	u.ID = r.s.nextID("users")
	if u.Plan == "" {
		u.Plan = models.PlanFree
	}
	if u.ClipsLimit == 0 {
		u.ClipsLimit = models.DefaultClipsLimit
	}
	u.CreatedAt = r.s.now()
	cp := *u
	r.s.users[u.ID] = &cp
	r.s.emails[email] = u.ID
	return nil
}

// GetByID returns a user by id.
func (r *Users) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// GetByEmail returns a user by email (case-insensitive).
func (r *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	id, ok := r.s.emails[strings.ToLower(email)]
	r.s.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Videos is the in-memory ingest repository.
type Videos struct{ s *Store }

// Create inserts v in uploaded state together with its queued generation job.
func (r *Videos) Create(_ context.Context, v *models.Video) (*models.GenerationJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[v.UserID]; !ok {
		return nil, apperrors.ErrNotFound
	}
	now := r.s.now()
	v.ID = r.s.nextID("videos")
	v.Status = models.VideoStatusUploaded
	v.Duration = nil
	v.CreatedAt, v.UpdatedAt = now, now
	cp := *v
	r.s.videos[v.ID] = &cp

	job := &models.GenerationJob{
		ID:           r.s.nextID("generation_jobs"),
		VideoID:      v.ID,
		UserID:       v.UserID,
		Status:       models.JobStatusQueued,
		CreatedAt:    now,
		DispatchedAt: now,
	}
	r.s.jobs[v.ID] = job
	out := *job
	return &out, nil
}

// ListByUser returns the user's videos, newest first.
func (r *Videos) ListByUser(_ context.Context, userID int64) ([]models.Video, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []models.Video
	for _, v := range r.s.videos {
		if v.UserID == userID {
			list = append(list, *v)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

// GetOwned returns a video only if userID owns it.
func (r *Videos) GetOwned(_ context.Context, userID, videoID int64) (*models.Video, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.videos[videoID]
	if !ok || v.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

// Quota returns the user's clips_used and clips_limit.
func (r *Videos) Quota(_ context.Context, userID int64) (used, limit int, err error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[userID]
	if !ok {
		return 0, 0, apperrors.ErrNotFound
	}
	return u.ClipsUsed, u.ClipsLimit, nil
}

// Job returns the generation job for a video.
func (r *Videos) Job(_ context.Context, videoID int64) (*models.GenerationJob, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	j, ok := r.s.jobs[videoID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

// Generation is the in-memory generation store.
type Generation struct{ s *Store }

var _ generation.Store = (*Generation)(nil)

// ClaimVideo implements generation.Store.
func (r *Generation) ClaimVideo(_ context.Context, videoID, userID int64) (*models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.videos[videoID]
	if !ok || v.UserID != userID || v.Status != models.VideoStatusUploaded {
		return nil, nil
	}
	now := r.s.now()
	v.Status = models.VideoStatusProcessing
	v.UpdatedAt = now
	if j, ok := r.s.jobs[videoID]; ok {
		j.Status = models.JobStatusRunning
		j.Attempts++
		j.StartedAt = &now
	}
	cp := *v
	return &cp, nil
}

// GetUser implements generation.Store.
func (r *Generation) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return r.s.Users().GetByID(ctx, userID)
}

// CompleteGeneration implements generation.Store.
func (r *Generation) CompleteGeneration(_ context.Context, c generation.Completion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.videos[c.VideoID]
	if !ok || v.UserID != c.UserID || v.Status != models.VideoStatusProcessing {
		return fmt.Errorf("%w: video %d is no longer processing", apperrors.ErrConflict, c.VideoID)
	}
	u, ok := r.s.users[c.UserID]
	if !ok {
		return apperrors.ErrNotFound
	}
	now := r.s.now()
	for _, cl := range c.Clips {
		cl.ID = r.s.nextID("clips")
		cl.CreatedAt = now
		cp := cl
		r.s.clips[cp.ID] = &cp
	}
	d := c.Duration
	v.Duration = &d
	v.Status = models.VideoStatusReady
	v.FailureReason = ""
	v.UpdatedAt = now
	u.ClipsUsed += len(c.Clips)
	if j, ok := r.s.jobs[c.VideoID]; ok {
		j.Status = models.JobStatusSucceeded
		j.Error = ""
		j.FinishedAt = &now
	}
	return nil
}

// FailGeneration implements generation.Store.
func (r *Generation) FailGeneration(_ context.Context, videoID int64, reason string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.failLocked(videoID, reason, models.VideoStatusUploaded, models.VideoStatusProcessing)
	return nil
}

func (r *Generation) failLocked(videoID int64, reason string, from ...models.VideoStatus) {
	now := r.s.now()
	if v, ok := r.s.videos[videoID]; ok {
		for _, st := range from {
			if v.Status == st {
				v.Status = models.VideoStatusFailed
				v.FailureReason = reason
				v.UpdatedAt = now
				break
			}
		}
	}
	if j, ok := r.s.jobs[videoID]; ok && (j.Status == models.JobStatusQueued || j.Status == models.JobStatusRunning) {
		j.Status = models.JobStatusFailed
		j.Error = reason
		j.FinishedAt = &now
	}
}

// ListQueuedBefore returns queued jobs last dispatched before cutoff, oldest dispatch first.
func (r *Generation) ListQueuedBefore(_ context.Context, cutoff time.Time, limit int) ([]models.GenerationJob, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []models.GenerationJob
	for _, j := range r.s.jobs {
		if j.Status == models.JobStatusQueued && j.DispatchedAt.Before(cutoff) {
			list = append(list, *j)
		}
	}
	sort.Slice(list, func(i, k int) bool {
		if !list[i].DispatchedAt.Equal(list[k].DispatchedAt) {
			return list[i].DispatchedAt.Before(list[k].DispatchedAt)
		}
		return list[i].ID < list[k].ID
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// MarkDispatched stamps a queued job's dispatch time.
func (r *Generation) MarkDispatched(_ context.Context, jobID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, j := range r.s.jobs {
		if j.ID == jobID && j.Status == models.JobStatusQueued {
			j.DispatchedAt = r.s.now()
		}
	}
	return nil
}

// FailRunningBefore fails running jobs started before cutoff and their processing videos.
func (r *Generation) FailRunningBefore(_ context.Context, cutoff time.Time, reason string) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []int64
	for videoID, j := range r.s.jobs {
		if j.Status == models.JobStatusRunning && j.StartedAt != nil && j.StartedAt.Before(cutoff) {
			ids = append(ids, videoID)
		}
	}
	sort.Slice(ids, func(i, k int) bool { return ids[i] < ids[k] })
	for _, id := range ids {
		r.failLocked(id, reason, models.VideoStatusProcessing)
	}
	return ids, nil
}

// Clips is the in-memory clip repository.
type Clips struct{ s *Store }

// ListByUser returns the user's clips. With videoID > 0 it filters by video and orders by score
// (highest first); otherwise newest first.
func (r *Clips) ListByUser(_ context.Context, userID, videoID int64) ([]models.Clip, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []models.Clip
	for _, c := range r.s.clips {
		if c.UserID != userID || (videoID > 0 && c.VideoID != videoID) {
			continue
		}
		list = append(list, *c)
	}
	if videoID > 0 {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].AIScore != list[j].AIScore {
				return list[i].AIScore > list[j].AIScore
			}
			return list[i].ID < list[j].ID
		})
	} else {
		sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	}
	return list, nil
}

// GetOwned returns a clip only if userID owns it.
func (r *Clips) GetOwned(_ context.Context, userID, clipID int64) (*models.Clip, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.clips[clipID]
	if !ok || c.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// Schedules is the in-memory scheduled post repository.
type Schedules struct{ s *Store }

// Create inserts p, filling ID and timestamps.
func (r *Schedules) Create(_ context.Context, p *models.ScheduledPost) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	p.ID = r.s.nextID("scheduled_posts")
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	cp.Platforms = append([]models.Platform(nil), p.Platforms...)
	r.s.posts[p.ID] = &cp
	return nil
}

// ListByUser returns the user's posts ordered by scheduled_at.
func (r *Schedules) ListByUser(_ context.Context, userID int64) ([]models.ScheduledPost, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []models.ScheduledPost
	for _, p := range r.s.posts {
		if p.UserID == userID {
			cp := *p
			cp.Platforms = append([]models.Platform(nil), p.Platforms...)
			list = append(list, cp)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].ScheduledAt.Equal(list[j].ScheduledAt) {
			return list[i].ScheduledAt.Before(list[j].ScheduledAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// Cancel moves a pending post owned by userID to canceled. Anything else is ErrNotFound.
func (r *Schedules) Cancel(_ context.Context, userID, postID int64) (*models.ScheduledPost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[postID]
	if !ok || p.UserID != userID || p.Status != models.PostStatusPending {
		return nil, apperrors.ErrNotFound
	}
	p.Status = models.PostStatusCanceled
	p.UpdatedAt = r.s.now()
	cp := *p
	cp.Platforms = append([]models.Platform(nil), p.Platforms...)
	return &cp, nil
}

// Analytics is the in-memory analytics repository.
type Analytics struct{ s *Store }

// Create appends rec if its clip is owned by rec.UserID; otherwise ErrNotFound.
func (r *Analytics) Create(_ context.Context, rec *models.AnalyticsRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clips[rec.ClipID]
	if !ok || c.UserID != rec.UserID {
		return apperrors.ErrNotFound
	}
	rec.ID = r.s.nextID("analytics")
	rec.CreatedAt = r.s.now()
	r.s.records = append(r.s.records, *rec)
	return nil
}

// Summary sums all records owned by userID.
func (r *Analytics) Summary(_ context.Context, userID int64) (models.AnalyticsSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var sum models.AnalyticsSummary
	for _, rec := range r.s.records {
		if rec.UserID != userID {
			continue
		}
		sum.TotalViews += rec.Views
		sum.TotalLikes += rec.Likes
		sum.TotalComments += rec.Comments
		sum.TotalShares += rec.Shares
		sum.TotalPosts++
	}
	return sum, nil
}

// ByPlatform sums records owned by userID per platform, ordered by platform name.
func (r *Analytics) ByPlatform(_ context.Context, userID int64) ([]models.PlatformBreakdown, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	byPlatform := make(map[models.Platform]*models.PlatformBreakdown)
	for _, rec := range r.s.records {
		if rec.UserID != userID {
			continue
		}
		b, ok := byPlatform[rec.Platform]
		if !ok {
			b = &models.PlatformBreakdown{Platform: rec.Platform}
			byPlatform[rec.Platform] = b
		}
		b.Views += rec.Views
		b.Likes += rec.Likes
		b.Comments += rec.Comments
		b.Shares += rec.Shares
		b.Records++
	}
	list := make([]models.PlatformBreakdown, 0, len(byPlatform))
	for _, b := range byPlatform {
		list = append(list, *b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Platform < list[j].Platform })
	return list, nil
}
