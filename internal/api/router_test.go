package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/liftlog/internal/api/handlers"
	"github.com/your-org/liftlog/internal/auth"
	"github.com/your-org/liftlog/internal/queue"
	"github.com/your-org/liftlog/internal/ranking"
	"github.com/your-org/liftlog/internal/storage"
	"github.com/your-org/liftlog/internal/submission"
	"github.com/your-org/liftlog/pkg/dto"
)

const (
	testSecret   = "test-secret"
	testAPIKey   = "hook-key"
	testPassword = "lift-heavy"
)

type fakePresigner struct{}

func (fakePresigner) PresignVideoUpload(_ context.Context, name string) (string, error) {
	return "https://storage.test/videos/" + name + "?sig=1", nil
}

func (fakePresigner) PresignThumbnailUpload(_ context.Context, name string) (string, error) {
	return "https://storage.test/thumbnails/" + name + "?sig=1", nil
}

type testServer struct {
	router *gin.Engine
	store  *storage.MemoryStore
	events []queue.PersonalBest
}

func newTestServer(t *testing.T, checks map[string]handlers.Check) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{store: storage.NewMemoryStore()}
	publisher := queue.NewLocalPublisher(func(evt queue.PersonalBest) {
		ts.events = append(ts.events, evt)
	})

	ts.router = NewRouter(RouterConfig{
		APIKey:         testAPIKey,
		JWTSecret:      testSecret,
		UploadPassword: testPassword,
		Store:          ts.store,
		Presigner:      fakePresigner{},
		Submissions:    submission.NewService(ts.store, ranking.NewAggregator(ts.store), publisher),
		Projector:      ranking.NewProjector(ts.store),
		Checks:         checks,
	})
	return ts
}

func token(t *testing.T, uid, name string) string {
	t.Helper()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name: name,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (ts *testServer) do(t *testing.T, method, path, bearer string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func requireError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	resp := decode[dto.ErrorResponse](t, w)
	assert.Equal(t, code, resp.Error)
	assert.NotEmpty(t, resp.Message)
}

func ptr(f float64) *float64 { return &f }

func submit(lift string, kg float64, filename string) dto.SaveSubmissionRequest {
	return dto.SaveSubmissionRequest{
		Filename:    filename,
		Title:       lift + " attempt",
		LiftType:    lift,
		Sex:         "M",
		WeightClass: ptr(93),
		WeightKg:    ptr(kg),
	}
}

func TestSystemEndpoints(t *testing.T) {
	ts := newTestServer(t, map[string]handlers.Check{
		"store": func(context.Context) error { return nil },
		"nats":  func(context.Context) error { return errors.New("connection refused") },
	})

	w := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	w = ts.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmissionFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	tok := token(t, "lifter42", "Sam")

	w := ts.do(t, http.MethodPost, "/v1/hooks/users", "", dto.UserHookRequest{UID: "lifter42", DisplayName: "Sam"}, "X-API-Key", testAPIKey)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	lifts := []struct {
		lift  string
		kg    float64
		file  string
		total float64
	}{
		{"SQUAT", 180, "lifter42-1000.mp4", 180},
		{"BENCH", 120, "lifter42-2000.mp4", 300},
		{"DEADLIFT", 220, "lifter42-3000.mp4", 520},
	}
	for _, l := range lifts {
		w := ts.do(t, http.MethodPost, "/v1/submissions", tok, submit(l.lift, l.kg, l.file))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := decode[dto.SaveSubmissionResponse](t, w)
		assert.True(t, resp.IsPB)
		assert.Equal(t, l.total, resp.TotalKg)
		assert.True(t, strings.HasPrefix(resp.Message, "New personal best!"))
	}
	require.Len(t, ts.events, 3)
	assert.Equal(t, "Sam", ts.events[2].Name)

	// A lighter squat is saved but is not a personal best.
	w = ts.do(t, http.MethodPost, "/v1/submissions", tok, submit("SQUAT", 170, "lifter42-4000.mp4"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[dto.SaveSubmissionResponse](t, w)
	assert.False(t, resp.IsPB)
	assert.Equal(t, "Video data saved successfully", resp.Message)
	assert.Equal(t, 520.0, resp.TotalKg)

	w = ts.do(t, http.MethodGet, "/v1/leaderboard?sex=m", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	board := decode[dto.LeaderboardResponse](t, w)
	require.Equal(t, 1, board.Total)
	assert.Equal(t, "Sam", board.Rows[0].Name)
	assert.Equal(t, 520.0, board.Rows[0].TotalKg)
	assert.Equal(t, "lifter42-3000.mp4", board.Rows[0].Video.Deadlift)

	w = ts.do(t, http.MethodGet, "/v1/leaderboard?sex=F", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[dto.LeaderboardResponse](t, w).Total)

	w = ts.do(t, http.MethodGet, "/v1/users/me", tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := decode[dto.ProfileResponse](t, w)
	assert.Equal(t, 520.0, me.TotalKg)
	assert.Equal(t, "M", me.Sex)

	w = ts.do(t, http.MethodGet, "/v1/videos?limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[dto.VideoListResponse](t, w)
	assert.Equal(t, 2, list.Total)

	w = ts.do(t, http.MethodGet, "/v1/videos/lifter42-3000", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	video := decode[dto.VideoResponse](t, w)
	assert.True(t, video.IsPB)
	assert.Equal(t, "Sam", video.UserDisplayName)
	assert.Equal(t, "processing", video.Status)
	assert.False(t, video.Date.IsZero())

	w = ts.do(t, http.MethodPut, "/v1/videos/lifter42-3000/thumbnail", tok, dto.SaveThumbnailRequest{Thumbnail: "lifter42-3000.jpg"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestSubmissionErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	tok := token(t, "lifter42", "")

	w := ts.do(t, http.MethodPost, "/v1/submissions", "", submit("SQUAT", 100, "lifter42-1.mp4"))
	requireError(t, w, http.StatusPreconditionFailed, "failed-precondition")

	w = ts.do(t, http.MethodPost, "/v1/submissions", "not-a-jwt", submit("SQUAT", 100, "lifter42-1.mp4"))
	requireError(t, w, http.StatusUnauthorized, "unauthenticated")

	w = ts.do(t, http.MethodPost, "/v1/submissions", tok, submit("CURL", 100, "lifter42-1.mp4"))
	requireError(t, w, http.StatusBadRequest, "invalid-argument")

	w = ts.do(t, http.MethodPost, "/v1/submissions", tok, submit("SQUAT", -5, "lifter42-1.mp4"))
	requireError(t, w, http.StatusBadRequest, "invalid-argument")

	w = ts.do(t, http.MethodPost, "/v1/submissions", tok, submit("SQUAT", 100, "someone-1.mp4"))
	requireError(t, w, http.StatusForbidden, "permission-denied")

	w = ts.do(t, http.MethodPost, "/v1/submissions", tok, submit("SQUAT", 100, "lifter42-1.mp4"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, "/v1/submissions", tok, submit("SQUAT", 110, "lifter42-1.mp4"))
	requireError(t, w, http.StatusBadRequest, "invalid-argument")

	w = ts.do(t, http.MethodPut, "/v1/videos/missing-1/thumbnail", tok, dto.SaveThumbnailRequest{Thumbnail: "x.jpg"})
	requireError(t, w, http.StatusNotFound, "not-found")

	other := token(t, "other", "")
	w = ts.do(t, http.MethodPut, "/v1/videos/lifter42-1/thumbnail", other, dto.SaveThumbnailRequest{Thumbnail: "x.jpg"})
	requireError(t, w, http.StatusForbidden, "permission-denied")
}

func TestUploadURLs(t *testing.T) {
	ts := newTestServer(t, nil)
	tok := token(t, "lifter42", "")

	w := ts.do(t, http.MethodPost, "/v1/uploads/video", tok, dto.UploadURLRequest{FileExtension: "MP4", Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[dto.UploadURLResponse](t, w)
	assert.Regexp(t, `^lifter42-\d+\.mp4$`, resp.FileName)
	assert.Contains(t, resp.URL, "/videos/"+resp.FileName)

	w = ts.do(t, http.MethodPost, "/v1/uploads/thumbnail", tok, dto.UploadURLRequest{FileExtension: "jpg", Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, decode[dto.UploadURLResponse](t, w).URL, "/thumbnails/")

	w = ts.do(t, http.MethodPost, "/v1/uploads/video", tok, dto.UploadURLRequest{FileExtension: "mp4", Password: "wrong"})
	requireError(t, w, http.StatusForbidden, "permission-denied")

	w = ts.do(t, http.MethodPost, "/v1/uploads/video", tok, dto.UploadURLRequest{FileExtension: "../mp4", Password: testPassword})
	requireError(t, w, http.StatusBadRequest, "invalid-argument")

	w = ts.do(t, http.MethodPost, "/v1/uploads/video", "", dto.UploadURLRequest{FileExtension: "mp4", Password: testPassword})
	requireError(t, w, http.StatusPreconditionFailed, "failed-precondition")
}

func TestUploadThenSubmitWithDottedUID(t *testing.T) {
	ts := newTestServer(t, nil)
	tok := token(t, "john.doe", "John")

	w := ts.do(t, http.MethodPost, "/v1/uploads/video", tok, dto.UploadURLRequest{FileExtension: "mp4", Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	upload := decode[dto.UploadURLResponse](t, w)
	assert.Regexp(t, `^john\.doe-\d+\.mp4$`, upload.FileName)

	w = ts.do(t, http.MethodPost, "/v1/submissions", tok, submit("BENCH", 100, upload.FileName))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[dto.SaveSubmissionResponse](t, w)
	assert.True(t, resp.IsPB)
	assert.Equal(t, strings.TrimSuffix(upload.FileName, ".mp4"), resp.VideoID)
}

func TestIdentityHook(t *testing.T) {
	ts := newTestServer(t, nil)
	body := dto.UserHookRequest{UID: "new-user", Email: "new@example.com"}

	w := ts.do(t, http.MethodPost, "/v1/hooks/users", "", body)
	requireError(t, w, http.StatusUnauthorized, "unauthenticated")

	w = ts.do(t, http.MethodPost, "/v1/hooks/users", "", body, "X-API-Key", "nope")
	requireError(t, w, http.StatusForbidden, "permission-denied")

	w = ts.do(t, http.MethodPost, "/v1/hooks/users", "", dto.UserHookRequest{}, "X-API-Key", testAPIKey)
	requireError(t, w, http.StatusBadRequest, "invalid-argument")

	w = ts.do(t, http.MethodPost, "/v1/hooks/users", "", body, "X-API-Key", testAPIKey)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	p, err := ts.store.GetProfile(context.Background(), "new-user")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "new@example.com", p.Email)
	assert.Zero(t, p.PersonalBests.Squat.WeightKg)
}

func TestReadValidation(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/v1/leaderboard?sex=X", "", nil)
	requireError(t, w, http.StatusBadRequest, "invalid-argument")

	w = ts.do(t, http.MethodGet, "/v1/leaderboard?top_n=ten", "", nil)
	requireError(t, w, http.StatusBadRequest, "invalid-argument")

	w = ts.do(t, http.MethodGet, "/v1/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rows":[],"total":0}`, w.Body.String())

	w = ts.do(t, http.MethodGet, "/v1/videos?limit=0", "", nil)
	requireError(t, w, http.StatusBadRequest, "invalid-argument")

	w = ts.do(t, http.MethodGet, "/v1/videos/nope-1", "", nil)
	requireError(t, w, http.StatusNotFound, "not-found")

	w = ts.do(t, http.MethodGet, "/v1/users/me", token(t, "ghost", ""), nil)
	requireError(t, w, http.StatusNotFound, "not-found")
}
