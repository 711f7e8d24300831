package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/metrics"
	"octofit/tracker-api/internal/repository"
	"octofit/tracker-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	athleteID = primitive.NewObjectID()
	curatorID = primitive.NewObjectID()
)

// stubAuth accepts two fixed tokens.
type stubAuth struct {
	service.AuthService
}

func (stubAuth) ParseToken(token string) (*service.TokenClaims, error) {
	switch token {
	case "athlete-token":
		return &service.TokenClaims{UserID: athleteID.Hex(), Role: domain.RoleAthlete}, nil
	case "curator-token":
		return &service.TokenClaims{UserID: curatorID.Hex(), Role: domain.RoleCurator}, nil
	}
	return nil, errors.New("signature is invalid")
}

type stubActivities struct {
	service.ActivityService
	logged []service.LogActivityInput
	err    error
}

func (s *stubActivities) LogActivity(_ context.Context, userID primitive.ObjectID, in service.LogActivityInput) (*domain.Activity, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.logged = append(s.logged, in)
	calories, points := 300, 300
	return &domain.Activity{
		ID:              primitive.NewObjectID(),
		UserID:          userID,
		ExerciseTypeID:  in.ExerciseTypeID,
		DurationMinutes: in.DurationMinutes,
		CaloriesBurned:  &calories,
		Points:          &points,
	}, nil
}

func (s *stubActivities) ListActivities(_ context.Context, _ primitive.ObjectID, filter service.ActivityListFilter) ([]domain.Activity, error) {
	if filter.StartDate == nil {
		return nil, fmt.Errorf("%w: startDate expected", domain.ErrValidation)
	}
	return []domain.Activity{}, nil
}

type stubTeams struct {
	service.TeamService
	boards map[primitive.ObjectID]*service.TeamScoreboard
}

func (s *stubTeams) GetTeamScoreboard(_ context.Context, _ primitive.ObjectID, teamID primitive.ObjectID) (*service.TeamScoreboard, error) {
	board, ok := s.boards[teamID]
	if !ok {
		return nil, fmt.Errorf("%w: team %s", domain.ErrNotFound, teamID.Hex())
	}
	return board, nil
}

type stubExerciseTypes struct {
	service.ExerciseTypeService
	created int
}

func (s *stubExerciseTypes) CreateExerciseType(_ context.Context, in service.ExerciseTypeInput) (*service.ExerciseTypeDetails, error) {
	if !in.Difficulty.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDifficulty, string(in.Difficulty))
	}
	s.created++
	return &service.ExerciseTypeDetails{ExerciseType: domain.ExerciseType{ID: primitive.NewObjectID(), Name: in.Name}}, nil
}

func (s *stubExerciseTypes) ListExerciseTypes(context.Context, repository.ExerciseTypeFilter) ([]service.ExerciseTypeDetails, error) {
	return []service.ExerciseTypeDetails{}, nil
}

type testServer struct {
	router        *gin.Engine
	metrics       *metrics.Manager
	activities    *stubActivities
	teams         *stubTeams
	exerciseTypes *stubExerciseTypes
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m, reg := metrics.NewTestManagerAndRegistry()
	ts := &testServer{
		router:        gin.New(),
		metrics:       m,
		activities:    &stubActivities{},
		teams:         &stubTeams{boards: map[primitive.ObjectID]*service.TeamScoreboard{}},
		exerciseTypes: &stubExerciseTypes{},
	}
	SetupRoutes(ts.router, Services{
		Auth:          stubAuth{},
		Activities:    ts.activities,
		Teams:         ts.teams,
		ExerciseTypes: ts.exerciseTypes,
	}, m, reg)
	return ts
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: duration", domain.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: \"expert\"", domain.ErrUnknownDifficulty), http.StatusBadRequest},
		{service.ErrAuthenticationFailed, http.StatusUnauthorized},
		{fmt.Errorf("%w: plan", domain.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: team", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: member", domain.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: type", domain.ErrMissingReference), http.StatusUnprocessableEntity},
		{service.ErrUploadsDisabled, http.StatusServiceUnavailable},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/activities?startDate=2024-06-01", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authorization header is missing", errorMessage(t, rec))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activities", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/activities?startDate=2024-06-01", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/activities?startDate=2024-06-01", "athlete-token", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoleMiddleware_CatalogWritesNeedCurator(t *testing.T) {
	ts := newTestServer(t)
	body := gin.H{"name": "Rowing", "category": "cardio", "difficulty": "intermediate", "caloriesPerHour": 500}

	rec := ts.do(http.MethodPost, "/api/v1/exercise-types", "athlete-token", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, ts.exerciseTypes.created)

	rec = ts.do(http.MethodGet, "/api/v1/exercise-types", "athlete-token", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/api/v1/exercise-types", "curator-token", body)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, ts.exerciseTypes.created)

	body["difficulty"] = "expert"
	rec = ts.do(http.MethodPost, "/api/v1/exercise-types", "curator-token", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "unknown difficulty")
}

func TestLogActivityHandler(t *testing.T) {
	ts := newTestServer(t)
	typeID := primitive.NewObjectID()

	rec := ts.do(http.MethodPost, "/api/v1/activities", "athlete-token", gin.H{"exerciseTypeId": "not-hex", "durationMinutes": 30})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/v1/activities", "athlete-token", gin.H{
		"exerciseTypeId": typeID.Hex(), "durationMinutes": 30, "date": "15/06/2024",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/v1/activities", "athlete-token", gin.H{
		"exerciseTypeId": typeID.Hex(), "durationMinutes": 30, "date": "2024-06-15", "calories": nil,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var activity domain.Activity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &activity))
	assert.Equal(t, athleteID, activity.UserID)
	require.NotNil(t, activity.Points)
	assert.Equal(t, 300, *activity.Points)

	require.Len(t, ts.activities.logged, 1)
	logged := ts.activities.logged[0]
	assert.Nil(t, logged.CaloriesBurned)
	assert.Nil(t, logged.Points)
	require.NotNil(t, logged.Date)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), *logged.Date)

	ts.activities.err = fmt.Errorf("%w: exercise type %s", domain.ErrNotFound, typeID.Hex())
	rec = ts.do(http.MethodPost, "/api/v1/activities", "athlete-token", gin.H{"exerciseTypeId": typeID.Hex(), "durationMinutes": 30})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListActivitiesHandler_BadDate(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/activities?startDate=yesterday", "athlete-token", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "startDate")
}

func TestTeamScoreHandler(t *testing.T) {
	ts := newTestServer(t)
	teamID := primitive.NewObjectID()
	ts.teams.boards[teamID] = &service.TeamScoreboard{
		TeamID:      teamID,
		TotalPoints: 750,
		Members: []domain.MemberScore{
			{UserID: primitive.NewObjectID(), Points: 450},
			{UserID: primitive.NewObjectID(), Points: 300},
		},
	}

	rec := ts.do(http.MethodGet, "/api/v1/teams/"+teamID.Hex()+"/score", "athlete-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var board service.TeamScoreboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	assert.Equal(t, 750, board.TotalPoints)
	assert.Len(t, board.Members, 2)

	rec = ts.do(http.MethodGet, "/api/v1/teams/"+primitive.NewObjectID().Hex()+"/score", "athlete-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/teams/xyz/score", "athlete-token", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPingAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rec.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.CounterRequests.WithLabelValues(http.MethodGet, "200")))

	ts.do(http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.CounterRequests.WithLabelValues(http.MethodGet, "401")))

	rec = ts.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "octofit_test_request")
}

func TestPanicRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.NewTestManager()
	router := gin.New()
	router.Use(PanicRecovery(m))
	router.GET("/boom", func(*gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterHandlerPanics))
}
