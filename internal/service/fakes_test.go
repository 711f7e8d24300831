package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory implementations of the repository interfaces, mirroring the
// semantics of the Mongo repositories.

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// clock hands out strictly increasing timestamps so creation order is stable.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *clock) next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// --- users ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]domain.User
	clock *clock
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]domain.User{}, clock: newClock()}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	now := r.clock.next()
	user.CreatedAt, user.UpdatedAt = now, now
	user.Profile.CreatedAt, user.Profile.UpdatedAt = now, now
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) find(match func(domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *fakeUserRepo) UpdateAccount(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, u := range r.users {
		if id != user.ID && u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	stored.Email, stored.FirstName, stored.LastName = user.Email, user.FirstName, user.LastName
	r.users[user.ID] = stored
	return nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, userID primitive.ObjectID, profile domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	profile.CreatedAt = stored.Profile.CreatedAt
	stored.Profile = profile
	r.users[userID] = stored
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// --- exercise types ---

type fakeExerciseTypeRepo struct {
	mu    sync.Mutex
	types map[primitive.ObjectID]domain.ExerciseType
}

func newFakeExerciseTypeRepo() *fakeExerciseTypeRepo {
	return &fakeExerciseTypeRepo{types: map[primitive.ObjectID]domain.ExerciseType{}}
}

func (r *fakeExerciseTypeRepo) Create(_ context.Context, et *domain.ExerciseType) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	et.ID = primitive.NewObjectID()
	r.types[et.ID] = *et
	return et.ID, nil
}

func (r *fakeExerciseTypeRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ExerciseType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	et, ok := r.types[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &et, nil
}

func (r *fakeExerciseTypeRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.ExerciseType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[primitive.ObjectID]domain.ExerciseType{}
	for _, id := range ids {
		if et, ok := r.types[id]; ok {
			out[id] = et
		}
	}
	return out, nil
}

func (r *fakeExerciseTypeRepo) List(_ context.Context, filter repository.ExerciseTypeFilter) ([]domain.ExerciseType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.ExerciseType{}
	for _, et := range r.types {
		if filter.Category != "" && et.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !containsFold(et.Name, filter.Search) &&
			!containsFold(et.Description, filter.Search) && !containsFold(string(et.Category), filter.Search) {
			continue
		}
		out = append(out, et)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeExerciseTypeRepo) Update(_ context.Context, et *domain.ExerciseType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[et.ID]; !ok {
		return repository.ErrNotFound
	}
	r.types[et.ID] = *et
	return nil
}

func (r *fakeExerciseTypeRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.types, id)
	return nil
}

// --- activities ---

type fakeActivityRepo struct {
	mu         sync.Mutex
	activities map[primitive.ObjectID]domain.Activity
	clock      *clock
	sumCalls   int
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{activities: map[primitive.ObjectID]domain.Activity{}, clock: newClock()}
}

func (r *fakeActivityRepo) Create(_ context.Context, a *domain.Activity) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = primitive.NewObjectID()
	now := r.clock.next()
	a.CreatedAt, a.UpdatedAt = now, now
	r.activities[a.ID] = *a
	return a.ID, nil
}

func (r *fakeActivityRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.activities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *fakeActivityRepo) ListByUser(_ context.Context, userID primitive.ObjectID, filter repository.ActivityFilter) ([]domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var typeSet map[primitive.ObjectID]bool
	if filter.ExerciseTypeIDs != nil {
		typeSet = map[primitive.ObjectID]bool{}
		for _, id := range filter.ExerciseTypeIDs {
			typeSet[id] = true
		}
	}

	out := []domain.Activity{}
	for _, a := range r.activities {
		if a.UserID != userID {
			continue
		}
		if typeSet != nil && !typeSet[a.ExerciseTypeID] {
			continue
		}
		if filter.Date != nil {
			if !a.Date.Equal(domain.CalendarDay(*filter.Date)) {
				continue
			}
		} else {
			if filter.StartDate != nil && a.Date.Before(domain.CalendarDay(*filter.StartDate)) {
				continue
			}
			if filter.EndDate != nil && a.Date.After(domain.CalendarDay(*filter.EndDate)) {
				continue
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeActivityRepo) Update(_ context.Context, a *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.activities[a.ID]
	if !ok || stored.UserID != a.UserID {
		return repository.ErrNotFound
	}
	a.UpdatedAt = r.clock.next()
	r.activities[a.ID] = *a
	return nil
}

func (r *fakeActivityRepo) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.activities[id]
	if !ok || stored.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.activities, id)
	return nil
}

func (r *fakeActivityRepo) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, a := range r.activities {
		if a.UserID == userID {
			delete(r.activities, id)
		}
	}
	return nil
}

func (r *fakeActivityRepo) SumPointsByUsers(_ context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sumCalls++
	wanted := map[primitive.ObjectID]bool{}
	for _, id := range userIDs {
		wanted[id] = true
	}
	out := map[primitive.ObjectID]int{}
	for _, a := range r.activities {
		if wanted[a.UserID] {
			out[a.UserID] += a.PointsValue()
		}
	}
	return out, nil
}

func (r *fakeActivityRepo) TotalsByExerciseType(_ context.Context, userID primitive.ObjectID, since time.Time) ([]repository.ActivityTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byType := map[primitive.ObjectID]*repository.ActivityTotals{}
	for _, a := range r.activities {
		if a.UserID != userID || a.Date.Before(since) {
			continue
		}
		t, ok := byType[a.ExerciseTypeID]
		if !ok {
			t = &repository.ActivityTotals{ExerciseTypeID: a.ExerciseTypeID}
			byType[a.ExerciseTypeID] = t
		}
		t.Count++
		t.CaloriesBurned += a.CaloriesValue()
		t.Points += a.PointsValue()
		t.DurationMinutes += a.DurationMinutes
	}
	out := make([]repository.ActivityTotals, 0, len(byType))
	for _, t := range byType {
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeActivityRepo) CountByExerciseType(_ context.Context, exerciseTypeID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.activities {
		if a.ExerciseTypeID == exerciseTypeID {
			n++
		}
	}
	return n, nil
}

// --- teams ---

type fakeTeamRepo struct {
	mu    sync.Mutex
	teams map[primitive.ObjectID]domain.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: map[primitive.ObjectID]domain.Team{}}
}

func (r *fakeTeamRepo) Create(_ context.Context, team *domain.Team) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team.ID = primitive.NewObjectID()
	r.teams[team.ID] = *team
	return team.ID, nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *fakeTeamRepo) ListVisible(_ context.Context, memberTeamIDs []primitive.ObjectID, search string) ([]domain.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member := map[primitive.ObjectID]bool{}
	for _, id := range memberTeamIDs {
		member[id] = true
	}
	out := []domain.Team{}
	for _, t := range r.teams {
		if t.IsPrivate && !member[t.ID] {
			continue
		}
		if search != "" && !containsFold(t.Name, search) && !containsFold(t.Description, search) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeTeamRepo) Update(_ context.Context, team *domain.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[team.ID]; !ok {
		return repository.ErrNotFound
	}
	r.teams[team.ID] = *team
	return nil
}

func (r *fakeTeamRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.teams, id)
	return nil
}

func (r *fakeTeamRepo) CountByCreator(_ context.Context, userID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.teams {
		if t.CreatedBy != nil && *t.CreatedBy == userID {
			n++
		}
	}
	return n, nil
}

// --- memberships ---

type fakeMembershipRepo struct {
	mu          sync.Mutex
	memberships []domain.TeamMembership
	clock       *clock
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{clock: newClock()}
}

func (r *fakeMembershipRepo) Create(_ context.Context, m *domain.TeamMembership) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.memberships {
		if existing.UserID == m.UserID && existing.TeamID == m.TeamID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	m.ID = primitive.NewObjectID()
	m.JoinedAt = r.clock.next()
	r.memberships = append(r.memberships, *m)
	return m.ID, nil
}

func (r *fakeMembershipRepo) Get(_ context.Context, teamID, userID primitive.ObjectID) (*domain.TeamMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.memberships {
		if m.TeamID == teamID && m.UserID == userID {
			found := m
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeMembershipRepo) filter(keep func(domain.TeamMembership) bool) []domain.TeamMembership {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.TeamMembership{}
	for _, m := range r.memberships {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func (r *fakeMembershipRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.TeamMembership, error) {
	return r.filter(func(m domain.TeamMembership) bool { return m.UserID == userID }), nil
}

func (r *fakeMembershipRepo) ListByTeam(_ context.Context, teamID primitive.ObjectID) ([]domain.TeamMembership, error) {
	return r.filter(func(m domain.TeamMembership) bool { return m.TeamID == teamID }), nil
}

func (r *fakeMembershipRepo) ListByTeams(_ context.Context, teamIDs []primitive.ObjectID) ([]domain.TeamMembership, error) {
	wanted := map[primitive.ObjectID]bool{}
	for _, id := range teamIDs {
		wanted[id] = true
	}
	return r.filter(func(m domain.TeamMembership) bool { return wanted[m.TeamID] }), nil
}

func (r *fakeMembershipRepo) UpdateRole(_ context.Context, teamID, userID primitive.ObjectID, role domain.TeamRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.memberships {
		if r.memberships[i].TeamID == teamID && r.memberships[i].UserID == userID {
			r.memberships[i].Role = role
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeMembershipRepo) remove(match func(domain.TeamMembership) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.memberships[:0]
	removed := 0
	for _, m := range r.memberships {
		if match(m) {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	r.memberships = kept
	return removed
}

func (r *fakeMembershipRepo) Delete(_ context.Context, teamID, userID primitive.ObjectID) error {
	if r.remove(func(m domain.TeamMembership) bool { return m.TeamID == teamID && m.UserID == userID }) == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *fakeMembershipRepo) DeleteByTeam(_ context.Context, teamID primitive.ObjectID) error {
	r.remove(func(m domain.TeamMembership) bool { return m.TeamID == teamID })
	return nil
}

func (r *fakeMembershipRepo) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	r.remove(func(m domain.TeamMembership) bool { return m.UserID == userID })
	return nil
}

// --- workout plans ---

type fakePlanRepo struct {
	mu    sync.Mutex
	plans map[primitive.ObjectID]domain.WorkoutPlan
	clock *clock
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: map[primitive.ObjectID]domain.WorkoutPlan{}, clock: newClock()}
}

func clonePlan(p domain.WorkoutPlan) domain.WorkoutPlan {
	p.Exercises = append([]domain.PlanExercise(nil), p.Exercises...)
	return p
}

func (r *fakePlanRepo) Create(_ context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan.ID = primitive.NewObjectID()
	now := r.clock.next()
	plan.CreatedAt, plan.UpdatedAt = now, now
	if plan.Exercises == nil {
		plan.Exercises = []domain.PlanExercise{}
	}
	r.plans[plan.ID] = clonePlan(*plan)
	return plan.ID, nil
}

func (r *fakePlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p = clonePlan(p)
	return &p, nil
}

func (r *fakePlanRepo) ListByUser(_ context.Context, userID primitive.ObjectID, search string) ([]domain.WorkoutPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.WorkoutPlan{}
	for _, p := range r.plans {
		if p.UserID != userID {
			continue
		}
		if search != "" && !containsFold(p.Name, search) && !containsFold(p.Description, search) {
			continue
		}
		out = append(out, clonePlan(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakePlanRepo) Update(_ context.Context, plan *domain.WorkoutPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.plans[plan.ID]
	if !ok || stored.UserID != plan.UserID {
		return repository.ErrNotFound
	}
	r.plans[plan.ID] = clonePlan(*plan)
	return nil
}

func (r *fakePlanRepo) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.plans[id]
	if !ok || stored.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *fakePlanRepo) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.plans {
		if p.UserID == userID {
			delete(r.plans, id)
		}
	}
	return nil
}

func (r *fakePlanRepo) CountByExerciseType(_ context.Context, exerciseTypeID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.plans {
		for _, pe := range p.Exercises {
			if pe.ExerciseTypeID == exerciseTypeID {
				n++
				break
			}
		}
	}
	return n, nil
}

// --- storage ---

type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
}

func (s *fakeStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/put/" + objectKey, nil
}

func (s *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test/get/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, objectKey)
	return nil
}

// --- fixture ---

type fixture struct {
	users       *fakeUserRepo
	types       *fakeExerciseTypeRepo
	activities  *fakeActivityRepo
	teams       *fakeTeamRepo
	memberships *fakeMembershipRepo
	plans       *fakePlanRepo
	storage     *fakeStorage
}

func newFixture() *fixture {
	return &fixture{
		users:       newFakeUserRepo(),
		types:       newFakeExerciseTypeRepo(),
		activities:  newFakeActivityRepo(),
		teams:       newFakeTeamRepo(),
		memberships: newFakeMembershipRepo(),
		plans:       newFakePlanRepo(),
		storage:     &fakeStorage{},
	}
}

func (f *fixture) addUser(username string) primitive.ObjectID {
	u := &domain.User{Username: username, Email: username + "@octofit.test", Role: domain.RoleAthlete}
	id, err := f.users.Create(context.Background(), u)
	if err != nil {
		panic(err)
	}
	return id
}

func (f *fixture) addType(name string, category domain.Category, difficulty domain.Difficulty, caloriesPerHour int) primitive.ObjectID {
	et := &domain.ExerciseType{Name: name, Category: category, Difficulty: difficulty, CaloriesPerHour: caloriesPerHour}
	id, err := f.types.Create(context.Background(), et)
	if err != nil {
		panic(err)
	}
	return id
}
