package handlers

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"superteam-earn/internal/auth"
	"superteam-earn/internal/cache"
	"superteam-earn/internal/jobs"
	"superteam-earn/internal/middleware"
	"superteam-earn/internal/models"
	"superteam-earn/internal/repository"
	"superteam-earn/internal/services"
	"superteam-earn/internal/testutil"
)

const (
	testLoginMessage = "Sign in to Earn"
	testCronSecret   = "cron-secret"
	testSumsubSecret = "sumsub-secret"
)

func init() {
	gin.SetMode(gin.TestMode)
	auth.InitJWT("handler-test-secret")
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	auth   *services.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewTestDB(t)
	mem := cache.NewMemoryCache()

	credits := services.NewCreditService(db, 3)
	authService := services.NewAuthService(db, credits, 10)
	emails := services.NewEmailService(db, nil, "Earn <hello@earn.test>", "", 5, 0)
	prices := services.NewPriceService(mem, "http://127.0.0.1:0", "http://127.0.0.1:0", time.Minute)
	listings := services.NewListingService(db, repository.NewListingRepository(db), prices, emails, mem, 2, "https://earn.test")
	payments := services.NewPaymentService(nil, nil, false)
	kyc := services.NewKYCService(db)

	h := &Handlers{
		Auth:       NewAuthHandler(authService, auth.NewNonceStore(mem), testLoginMessage),
		User:       NewUserHandler(services.NewUserService(db)),
		Listing:    NewListingHandler(listings),
		Submission: NewSubmissionHandler(services.NewSubmissionService(db, payments)),
		Sponsor:    NewSponsorHandler(services.NewSponsorService(db), payments),
		Grant:      NewGrantHandler(services.NewGrantService(db)),
		Comment:    NewCommentHandler(services.NewCommentService(db)),
		PoW:        NewPoWHandler(services.NewPoWService(db)),
		Credit:     NewCreditHandler(credits),
		Referral:   NewReferralHandler(services.NewReferralService(db, "https://earn.test")),
		Email:      NewEmailHandler(emails),
		KYC:        NewKYCHandler(kyc),
		Cron:       NewCronHandler(jobs.NewScheduler(listings, credits, kyc)),
		Admin:      NewAdminHandler(services.NewAdminService(db, credits, listings)),
	}

	router := gin.New()
	h.Register(router, Secrets{Cron: testCronSecret, Sumsub: testSumsubSecret})
	return &testServer{router: router, db: db, auth: authService}
}

// login registers a fresh user and returns it with a session token
func (s *testServer) login(t *testing.T) (*models.User, string) {
	t.Helper()
	user, _, err := s.auth.ProcessWalletLogin(context.Background(), uuid.NewString(), "")
	require.NoError(t, err)
	token, err := auth.GenerateToken(user.ID, user.WalletAddress)
	require.NoError(t, err)
	return user, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// publishBounty creates a sponsor for token's user and publishes a bounty
func (s *testServer) publishBounty(t *testing.T, token string) map[string]interface{} {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/sponsors", token, gin.H{"name": "Sponsor " + uuid.NewString()[:8]})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	deadline := time.Now().UTC().Add(72 * time.Hour)
	w = s.do(t, http.MethodPost, "/api/sponsor/listings", token, gin.H{
		"title":    "Write a thread",
		"type":     "bounty",
		"token":    "USDC",
		"deadline": deadline,
		"rewards":  gin.H{"first": 500, "second": 250},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	listing := decode(t, w)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/sponsor/listings/%s/publish", listing["id"]), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)
}

// nonce fetches a login nonce for wallet and returns it with the message to sign
func (s *testServer) nonce(t *testing.T, wallet string) (string, string) {
	t.Helper()
	w := s.do(t, http.MethodGet, "/auth/nonce?wallet="+wallet, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	nonce, _ := body["nonce"].(string)
	message, _ := body["message"].(string)
	require.NotEmpty(t, nonce)
	return nonce, message
}

func TestWalletLogin(t *testing.T) {
	s := newTestServer(t)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	wallet := base58.Encode(pub)

	nonce, message := s.nonce(t, wallet)
	assert.Equal(t, auth.LoginMessage(testLoginMessage, nonce), message)
	signature := base58.Encode(ed25519.Sign(priv, []byte(message)))

	login := gin.H{"wallet_address": wallet, "signature": signature, "nonce": nonce}
	w := s.do(t, http.MethodPost, "/auth/wallet", "", login)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["created"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	w = s.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, wallet, me["wallet_address"])

	// a captured signature cannot be replayed
	w = s.do(t, http.MethodPost, "/auth/wallet", "", login)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_nonce", decode(t, w)["error"])

	nonce, message = s.nonce(t, wallet)
	signature = base58.Encode(ed25519.Sign(priv, []byte(message)))
	w = s.do(t, http.MethodPost, "/auth/wallet", "", gin.H{"wallet_address": wallet, "signature": signature, "nonce": nonce})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["created"])
}

func TestWalletLoginRejectsBadSignature(t *testing.T) {
	s := newTestServer(t)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	_, otherPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	wallet := base58.Encode(pub)

	nonce, message := s.nonce(t, wallet)
	forged := base58.Encode(ed25519.Sign(otherPriv, []byte(message)))
	w := s.do(t, http.MethodPost, "/auth/wallet", "", gin.H{"wallet_address": wallet, "signature": forged, "nonce": nonce})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_signature", decode(t, w)["error"])

	// the static message alone is no longer accepted
	static := base58.Encode(ed25519.Sign(priv, []byte(testLoginMessage)))
	w = s.do(t, http.MethodPost, "/auth/wallet", "", gin.H{"wallet_address": wallet, "signature": static, "nonce": nonce})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// a nonce that was never issued is refused even with a valid signature
	unissued := uuid.NewString()
	signed := base58.Encode(ed25519.Sign(priv, []byte(auth.LoginMessage(testLoginMessage, unissued))))
	w = s.do(t, http.MethodPost, "/auth/wallet", "", gin.H{"wallet_address": wallet, "signature": signed, "nonce": unissued})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_nonce", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/auth/wallet", "", gin.H{"wallet_address": "short", "signature": forged, "nonce": nonce})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/auth/nonce?wallet=short", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/auth/wallet", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/credits", "/api/user/profile", "/api/submissions/mine", "/api/sponsor/listings", "/auth/me"} {
		w := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := s.do(t, http.MethodGet, "/api/credits", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListingLifecycle(t *testing.T) {
	s := newTestServer(t)
	_, sponsorToken := s.login(t)

	listing := s.publishBounty(t, sponsorToken)
	assert.Equal(t, true, listing["is_published"])
	slug := listing["slug"].(string)

	w := s.do(t, http.MethodGet, "/api/listings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = s.do(t, http.MethodGet, "/api/listings/"+slug, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, listing["id"], decode(t, w)["id"])

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/sponsor/listings/%s", listing["id"]), sponsorToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "listing_published", decode(t, w)["error"])

	_, otherToken := s.login(t)
	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/sponsor/listings/%s/announce", listing["id"]), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListingWithoutSponsor(t *testing.T) {
	s := newTestServer(t)
	_, token := s.login(t)

	w := s.do(t, http.MethodPost, "/api/sponsor/listings", token, gin.H{"title": "No sponsor", "rewards": gin.H{"first": 10}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "sponsor_required", decode(t, w)["error"])

	w = s.do(t, http.MethodPut, "/api/sponsor/listings/not-a-uuid", token, gin.H{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmissionFlow(t *testing.T) {
	s := newTestServer(t)
	_, sponsorToken := s.login(t)
	listing := s.publishBounty(t, sponsorToken)
	_, talentToken := s.login(t)

	w := s.do(t, http.MethodPost, "/api/submissions", talentToken, gin.H{
		"listing_id": listing["id"],
		"link":       "https://x.com/talent/status/1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	submission := decode(t, w)

	w = s.do(t, http.MethodPost, "/api/submissions", talentToken, gin.H{
		"listing_id": listing["id"],
		"link":       "https://x.com/talent/status/2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_submission", decode(t, w)["error"])

	w = s.do(t, http.MethodGet, "/api/credits", talentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["balance"])

	w = s.do(t, http.MethodGet, "/api/submissions/mine", talentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["submissions"], 1)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/sponsor/listings/%s/submissions", listing["id"]), talentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	winnerPath := fmt.Sprintf("/api/sponsor/submissions/%s/winner", submission["id"])
	w = s.do(t, http.MethodPost, winnerPath, sponsorToken, gin.H{"position": "tenth"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_position", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, winnerPath, sponsorToken, gin.H{"position": "first"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["is_winner"])

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/sponsor/listings/%s/announce", listing["id"]), sponsorToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "incomplete_winners", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/sponsor/submissions/%s/paid", submission["id"]), sponsorToken, gin.H{"tx_hash": "abc"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_winner", decode(t, w)["error"])
}

func TestFeaturedAvailabilityRoute(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/featured/availability", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 0, body["used"])
	assert.EqualValues(t, 2, body["total"])
	assert.Equal(t, true, body["available"])
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	admin, token := s.login(t)
	target, _ := s.login(t)

	w := s.do(t, http.MethodGet, "/api/admin/stats", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, s.db.Model(admin).Update("role", models.UserRoleGod).Error)

	w = s.do(t, http.MethodGet, "/api/admin/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["total_users"])

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/admin/users/%s/credits", target.ID), token, gin.H{"change": 2, "reason": "support"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/admin/users/%s/role", admin.ID), token, gin.H{"role": "USER"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/admin/logs", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["logs"], 1)
}

func TestCronRoute(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/cron/"+jobs.DeadlineSweep, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	sig := middleware.Sign(testCronSecret, nil)
	w = s.do(t, http.MethodPost, "/api/cron/"+jobs.DeadlineSweep, "", nil, middleware.CronSignatureHeader, sig)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 0, decode(t, w)["affected"])

	w = s.do(t, http.MethodPost, "/api/cron/reindex", "", nil, middleware.CronSignatureHeader, sig)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown_job", decode(t, w)["error"])
}

func TestSumsubWebhook(t *testing.T) {
	s := newTestServer(t)
	user, token := s.login(t)

	payload, err := json.Marshal(gin.H{
		"type":           services.SumsubApplicantReviewed,
		"applicantId":    "app-1",
		"externalUserId": user.ID.String(),
		"reviewStatus":   "completed",
		"reviewResult":   gin.H{"reviewAnswer": services.SumsubAnswerGreen},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/sumsub", bytes.NewReader(payload))
	req.Header.Set(middleware.SumsubDigestHeader, middleware.Sign(testSumsubSecret, payload))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/user/kyc", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["verified"])

	req = httptest.NewRequest(http.MethodPost, "/api/webhooks/sumsub", bytes.NewReader(payload))
	req.Header.Set(middleware.SumsubDigestHeader, middleware.Sign("other", payload))
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnsubscribe(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/email/unsubscribe", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/email/unsubscribe", "", gin.H{"email": "Talent@Example.com"})
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, s.db.Model(&models.UnsubscribedEmail{}).Where("email = ?", "talent@example.com").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: listing", services.ErrNotFound), http.StatusNotFound, "not_found"},
		{services.ErrInsufficientCredits, http.StatusForbidden, "insufficient_credits"},
		{fmt.Errorf("%w: bad ask", services.ErrInvalidInput), http.StatusBadRequest, "invalid_input"},
		{jobs.ErrUnknownJob, http.StatusNotFound, "unknown_job"},
		{fmt.Errorf("connection reset"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		respondError(c, tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Equal(t, tc.code, decode(t, w)["error"])
	}
}
