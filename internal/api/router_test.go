package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/green-credits/config"
	"github.com/d60-Lab/green-credits/internal/api"
	"github.com/d60-Lab/green-credits/internal/api/middleware"
	"github.com/d60-Lab/green-credits/internal/app"
	"github.com/d60-Lab/green-credits/internal/model"
	"github.com/d60-Lab/green-credits/internal/seed"
	"github.com/d60-Lab/green-credits/internal/testutil"
)

var now = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	cfg    *config.Config
	router *gin.Engine
	app    *app.App
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := &config.Config{
		Server:     config.ServerConfig{Mode: gin.TestMode},
		Storage:    config.StorageConfig{Backend: "local", LocalDir: t.TempDir(), PublicPrefix: "/uploads", UploadTimeout: time.Second},
		Similarity: config.SimilarityConfig{Backend: "memory", Capacity: 100},
		Review:     config.ReviewConfig{ApproveThreshold: 2, RejectThreshold: 2, TierMultiplier: 1.5},
		Multiplier: config.MultiplierConfig{QuizBonus: 1.2, Duration: 24 * time.Hour},
		Indexer:    config.IndexerConfig{BatchSize: 10, Concurrency: 1, MaxAttempts: 3},
		JWT:        config.JWTConfig{Secret: "test-secret", Issuer: "green-credits"},
		RateLimit:  config.RateLimitConfig{SubmitPerSecond: 100, SubmitBurst: 100},
	}
	for _, m := range mutate {
		m(cfg)
	}

	db := testutil.OpenDB(t)
	a, err := app.New(context.Background(), cfg, db, app.Deps{Clock: clockwork.NewFakeClockAt(now)})
	require.NoError(t, err)
	require.NoError(t, seed.Run(context.Background(), a.SeedRepos()))

	return &testServer{t: t, cfg: cfg, router: api.SetupRouter(cfg, a.Handler()), app: a}
}

func (s *testServer) token(userID string, role model.Role) string {
	tok, err := middleware.IssueToken(s.cfg.JWT, userID, role, time.Hour)
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func (s *testServer) submit(token, code, desc string, amount string, file []byte) (*httptest.ResponseRecorder, envelope) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("action_code", code)
	_ = mw.WriteField("description", desc)
	_ = mw.WriteField("occurred_at", now.Add(-time.Hour).Format(time.RFC3339))
	if amount != "" {
		_ = mw.WriteField("amount", amount)
	}
	if file != nil {
		fw, err := mw.CreateFormFile("evidence", "ride.jpg")
		require.NoError(s.t, err)
		_, _ = fw.Write(file)
	}
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/claims", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req, token)
}

func (s *testServer) postJSON(path, token string, payload any) (*httptest.ResponseRecorder, envelope) {
	b, err := json.Marshal(payload)
	require.NoError(s.t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, token)
}

func (s *testServer) get(path, token string) (*httptest.ResponseRecorder, envelope) {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil), token)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.get("/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.get("/api/v1/wallet", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.get("/api/v1/wallet", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other, err := middleware.IssueToken(config.JWTConfig{Secret: "other", Issuer: "green-credits"}, seed.DemoUserID, model.RoleUser, time.Hour)
	require.NoError(t, err)
	w, _ = s.get("/api/v1/wallet", other)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClaimLifecycle(t *testing.T) {
	s := newTestServer(t)
	student := s.token(seed.DemoUserID, model.RoleUser)
	r1 := s.token(seed.DemoReviewer1ID, model.RoleReviewer)
	r2 := s.token(seed.DemoReviewer2ID, model.RoleReviewer)

	w, env := s.get("/api/v1/action-types", student)
	require.Equal(t, http.StatusOK, w.Code)
	var types []model.ActionType
	require.NoError(t, json.Unmarshal(env.Data, &types))
	assert.Len(t, types, len(seed.ActionTypes()))

	w, env = s.submit(student, "BIKE_TO_CAMPUS", "bought a bike pump", "5", []byte("jpeg-bytes"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var claim model.Claim
	require.NoError(t, json.Unmarshal(env.Data, &claim))
	assert.Equal(t, model.ClaimStatusPending, claim.Status)
	require.NotNil(t, claim.EvidenceURL)

	w, _ = s.submit(student, "BIKE_TO_CAMPUS", "bought a bike pump", "5", []byte("jpeg-bytes"))
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.submit(student, "TELEPORT", "beamed in", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// students cannot see the queue or vote
	w, _ = s.get("/api/v1/review/queue", student)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.postJSON("/api/v1/claims/"+claim.ID+"/votes", student, map[string]any{"approve": true})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.get("/api/v1/review/queue", r1)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.postJSON("/api/v1/claims/"+claim.ID+"/votes", r1, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "approve is required")

	w, _ = s.postJSON("/api/v1/claims/"+claim.ID+"/votes", r1, map[string]any{"approve": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = s.postJSON("/api/v1/claims/"+claim.ID+"/votes", r1, map[string]any{"approve": true})
	assert.Equal(t, http.StatusConflict, w.Code)
	w, _ = s.postJSON("/api/v1/claims/"+claim.ID+"/votes", r2, map[string]any{"approve": true, "reason": "ok"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = s.get("/api/v1/claims/"+claim.ID, student)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &claim))
	assert.Equal(t, model.ClaimStatusApproved, claim.Status)
	assert.Equal(t, model.TierT2, claim.Tier)
	require.NotNil(t, claim.CreditsAwarded)
	assert.Equal(t, int64(90), *claim.CreditsAwarded)

	// other students cannot read it
	w, _ = s.get("/api/v1/claims/"+claim.ID, s.token("someone-else", model.RoleUser))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.get("/api/v1/wallet", student)
	require.Equal(t, http.StatusOK, w.Code)
	var wallet struct {
		Balance   int64 `json:"balance"`
		Statement []struct {
			Amount      int64  `json:"amount"`
			Description string `json:"description"`
		} `json:"statement"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &wallet))
	assert.Equal(t, int64(90), wallet.Balance)
	require.Len(t, wallet.Statement, 1)
	assert.Contains(t, wallet.Statement[0].Description, "Approved: Bike to Campus")
}

func TestRedeemAndQuiz(t *testing.T) {
	s := newTestServer(t)
	student := s.token(seed.DemoUserID, model.RoleUser)

	w, env := s.get("/api/v1/rewards", student)
	require.Equal(t, http.StatusOK, w.Code)
	var rewards []model.Reward
	require.NoError(t, json.Unmarshal(env.Data, &rewards))
	require.NotEmpty(t, rewards)

	w, _ = s.postJSON("/api/v1/rewards/"+rewards[0].ID+"/redeem", student, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	quiz := seed.Quizzes()[0]
	answers := []int{}
	for _, q := range quiz.Questions.Data() {
		answers = append(answers, q.CorrectIndex)
	}
	w, _ = s.postJSON("/api/v1/quizzes/"+quiz.ID+"/attempts", student, map[string]any{"answers": answers})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = s.get("/api/v1/multiplier", student)
	require.Equal(t, http.StatusOK, w.Code)
	var m struct {
		Multiplier float64 `json:"multiplier"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &m))
	assert.Equal(t, 1.2, m.Multiplier)

	w, _ = s.postJSON("/api/v1/quizzes/unknown/attempts", student, map[string]any{"answers": []int{0}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitRateLimited(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.RateLimit = config.RateLimitConfig{SubmitPerSecond: 0.001, SubmitBurst: 2}
	})
	student := s.token(seed.DemoUserID, model.RoleUser)

	for i, want := range []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests} {
		w, _ := s.submit(student, "RECYCLING", "sorted bottles batch "+string(rune('a'+i)), "", nil)
		assert.Equal(t, want, w.Code, "request %d", i)
	}

	// limits are per user
	w, _ := s.submit(s.token(seed.DemoAdminID, model.RoleAdmin), "RECYCLING", "admin recycling", "", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
}
