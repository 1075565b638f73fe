package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/greenloop/internal/domain/entity"
	repo "github.com/oksasatya/greenloop/internal/domain/repository"
	"github.com/oksasatya/greenloop/internal/vectorbridge"
	"github.com/oksasatya/greenloop/pkg/helpers"
)

var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	helpers.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

// memStore backs the in-memory repositories; every write advances the clock
// by a second so "newest first" is deterministic.
type memStore struct {
	mu      sync.Mutex
	seq     int
	users   map[string]*entity.User
	actions map[string]entity.Action
	swaps   map[string]entity.Swap

	failActionReads error
	failSwapReads   error
	progressWrites  int
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[string]*entity.User{},
		actions: map[string]entity.Action{},
		swaps:   map[string]entity.Swap{},
	}
}

func (s *memStore) next(prefix string) (string, time.Time) {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq), baseTime.Add(time.Duration(s.seq) * time.Second)
}

func (s *memStore) addUser(name string) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, now := s.next("user")
	u := &entity.User{ID: id, Email: id + "@example.com", Name: name, Level: entity.LevelSeed,
		Settings: entity.DefaultSettings(), CreatedAt: now, UpdatedAt: now}
	s.users[id] = u
	cp := *u
	return &cp
}

func (s *memStore) user(id string) entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

// corrupt overwrites the cached aggregate behind the services' back.
func (s *memStore) corrupt(id string, total int, lvl entity.Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id].TotalXP = total
	s.users[id].Level = lvl
}

func (s *memStore) ledgerSum(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := 0
	for _, a := range s.actions {
		if a.UserID == userID {
			sum += a.XPGained
		}
	}
	for _, sw := range s.swaps {
		if sw.UserID == userID {
			sum += sw.XP
		}
	}
	return sum
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	id, now := r.s.next("user")
	u.ID, u.CreatedAt, u.UpdatedAt = id, now, now
	if u.Name == "" {
		u.Name = entity.DefaultUserName
	}
	if u.Level == "" {
		u.Level = entity.LevelSeed
	}
	cp := *u
	r.s.users[id] = &cp
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r memUsers) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok {
		return repo.ErrNotFound
	}
	cur.Name, cur.AvatarURL, cur.Location, cur.Settings = u.Name, u.AvatarURL, u.Location, u.Settings
	return nil
}

func (r memUsers) UpdateProgress(_ context.Context, id string, fn repo.ProgressMutator) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *cur
	if err := fn(&cp); err != nil {
		return nil, err
	}
	if cp.TotalXP < 0 {
		return nil, errors.New("negative total")
	}
	r.s.users[id] = &cp
	r.s.progressWrites++
	out := cp
	return &out, nil
}

func (r memUsers) Leaderboard(_ context.Context, limit int) ([]entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.User
	for _, u := range r.s.users {
		if u.Settings.Enabled("showOnLeaderboard") {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalXP > out[j].TotalXP })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memActions struct{ s *memStore }

func (r memActions) Create(_ context.Context, a *entity.Action) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[a.UserID]; !ok {
		return repo.ErrNotFound
	}
	a.ID, a.CreatedAt = r.s.next("action")
	r.s.actions[a.ID] = *a
	return nil
}

func (r memActions) GetForUser(_ context.Context, id, userID string) (*entity.Action, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.actions[id]
	if !ok || a.UserID != userID {
		return nil, repo.ErrNotFound
	}
	return &a, nil
}

func (r memActions) DeleteForUser(_ context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.actions[id]
	if !ok || a.UserID != userID {
		return repo.ErrNotFound
	}
	delete(r.s.actions, id)
	return nil
}

func (r memActions) list(userID string, limit int, keep func(entity.Action) bool) ([]entity.Action, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failActionReads != nil {
		return nil, r.s.failActionReads
	}
	out := []entity.Action{}
	for _, a := range r.s.actions {
		if a.UserID == userID && keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memActions) ListRecent(_ context.Context, userID string, limit int) ([]entity.Action, error) {
	return r.list(userID, limit, func(entity.Action) bool { return true })
}

func (r memActions) ListWithImages(_ context.Context, userID string, limit int) ([]entity.Action, error) {
	return r.list(userID, limit, func(a entity.Action) bool { return a.Details.ImageURL != "" })
}

func (r memActions) Totals(_ context.Context, userID string) (repo.ActionTotals, error) {
	all, err := r.list(userID, 0, func(entity.Action) bool { return true })
	if err != nil {
		return repo.ActionTotals{}, err
	}
	t := repo.ActionTotals{Count: len(all)}
	for _, a := range all {
		t.XP += a.XPGained
	}
	return t, nil
}

func (r memActions) ActiveDays(_ context.Context, userID string, since time.Time) ([]time.Time, error) {
	all, err := r.list(userID, 0, func(a entity.Action) bool { return !a.CreatedAt.Before(since) })
	if err != nil {
		return nil, err
	}
	days := make([]time.Time, 0, len(all))
	for _, a := range all {
		days = append(days, a.CreatedAt)
	}
	return days, nil
}

type memSwaps struct{ s *memStore }

func (r memSwaps) Create(_ context.Context, sw *entity.Swap) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[sw.UserID]; !ok {
		return repo.ErrNotFound
	}
	sw.ID, sw.CreatedAt = r.s.next("swap")
	r.s.swaps[sw.ID] = *sw
	return nil
}

func (r memSwaps) ListRecent(_ context.Context, userID string, limit int) ([]entity.Swap, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failSwapReads != nil {
		return nil, r.s.failSwapReads
	}
	out := []entity.Swap{}
	for _, sw := range r.s.swaps {
		if sw.UserID == userID {
			out = append(out, sw)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memSwaps) Totals(ctx context.Context, userID string) (repo.SwapTotals, error) {
	all, err := r.ListRecent(ctx, userID, 0)
	if err != nil {
		return repo.SwapTotals{}, err
	}
	t := repo.SwapTotals{Count: len(all)}
	for _, sw := range all {
		t.XP += sw.XP
		t.CO2Saved += sw.CO2Saved
		t.PlasticSaved += sw.PlasticSaved
	}
	return t, nil
}

func (r memSwaps) ActiveDays(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	all, err := r.ListRecent(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	var days []time.Time
	for _, sw := range all {
		if !sw.CreatedAt.Before(since) {
			days = append(days, sw.CreatedAt)
		}
	}
	return days, nil
}

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []MemoryJob
}

func (d *recordingDispatcher) Dispatch(job MemoryJob) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
}

func (d *recordingDispatcher) all() []MemoryJob {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]MemoryJob(nil), d.jobs...)
}

type recordingNotifier struct {
	mu     sync.Mutex
	levels []entity.Level
}

func (n *recordingNotifier) LevelUp(u *entity.User, _ entity.Level) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.levels = append(n.levels, u.Level)
}

type fakeEmbedder struct {
	vec   []float32
	err   error
	delay time.Duration
}

func (e fakeEmbedder) Embed(ctx context.Context, _ string) ([]float32, error) {
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.vec, nil
}

type fakeVectors struct {
	mu       sync.Mutex
	hits     []vectorbridge.Hit
	upserts  map[string]map[string]any
	filters  []map[string]string
	upsertOK bool
}

func (v *fakeVectors) Search(_ context.Context, _ []float32, topK int, filter map[string]string) []vectorbridge.Hit {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters = append(v.filters, filter)
	if len(v.hits) > topK {
		return v.hits[:topK]
	}
	return v.hits
}

func (v *fakeVectors) Upsert(_ context.Context, id string, _ []float32, payload map[string]any) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.upserts == nil {
		v.upserts = map[string]map[string]any{}
	}
	v.upserts[id] = payload
	return v.upsertOK
}

type fakeIndex struct {
	mu      sync.Mutex
	indexed []string
}

func (x *fakeIndex) IndexUser(_ context.Context, u *entity.User) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.indexed = append(x.indexed, u.ID)
	return nil
}

func (x *fakeIndex) SearchUsers(context.Context, string, int) ([]map[string]any, error) {
	return []map[string]any{{"name": "Ada"}}, nil
}
