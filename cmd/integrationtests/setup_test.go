package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"quickbidz-storefront/internal/account"
	"quickbidz-storefront/internal/backend"
	"quickbidz-storefront/internal/bidding"
	"quickbidz-storefront/internal/catalog"
	"quickbidz-storefront/internal/querycache"
	"quickbidz-storefront/internal/server"
	"quickbidz-storefront/internal/tokenstore"
	"quickbidz-storefront/internal/upload"
	"quickbidz-storefront/services/storefront/handler"
	"quickbidz-storefront/services/storefront/pages"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testEmail    = "bidder@example.com"
	testPassword = "correct horse"
)

// fakeBackend stands in for the auction backend. It counts the reads the
// storefront is expected to cache.
type fakeBackend struct {
	server      *httptest.Server
	token       string
	listHits    atomic.Int32
	bidRequests atomic.Int32
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)

	fb := &fakeBackend{token: token}

	r := gin.New()
	authed := func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer "+fb.token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Next()
	}

	r.POST("/auth/login", func(c *gin.Context) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = c.ShouldBindJSON(&body)
		if body.Email != testEmail || body.Password != testPassword {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"accessToken":  fb.token,
			"refreshToken": "refresh",
			"user":         gin.H{"id": "user-1", "email": testEmail, "username": "bidder"},
		})
	})
	r.GET("/auth/me", authed, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": "user-1", "email": testEmail, "username": "bidder"})
	})
	r.GET("/auctions/getAll", func(c *gin.Context) {
		fb.listHits.Add(1)
		writeBrotli(c, `{"auctions":[{"id":"a1","title":"Vintage camera","currentPrice":120,"status":"ACTIVE"}],"totalPages":1}`)
	})
	r.GET("/auctions/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "title": "Vintage camera", "currentPrice": 120, "status": "ACTIVE"})
	})
	r.PATCH("/auctions/:id", authed, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "title": "Renamed"})
	})
	r.POST("/bids", authed, func(c *gin.Context) {
		fb.bidRequests.Add(1)
		var body map[string]any
		_ = c.ShouldBindJSON(&body)
		c.JSON(http.StatusCreated, gin.H{"id": "b1", "auctionId": body["auctionId"], "amount": body["amount"]})
	})

	fb.server = httptest.NewServer(r)
	t.Cleanup(fb.server.Close)
	return fb
}

// writeBrotli answers with a br-encoded body, the way the production
// backend compresses list responses.
func writeBrotli(c *gin.Context, body string) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write([]byte(body)); err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if err := w.Close(); err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Encoding", "br")
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

// SetupTestRouter initializes the full storefront router against a fake backend.
func SetupTestRouter(t *testing.T) (*gin.Engine, *fakeBackend) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fb := newFakeBackend(t)

	api := backend.NewClient(fb.server.URL, 5*time.Second)
	cache := querycache.New(querycache.NewMemoryStore(), time.Minute)
	cipher, err := tokenstore.NewCipher(testSecret)
	require.NoError(t, err)
	tokens := tokenstore.NewStore(cipher, tokenstore.CookieOptions{})

	catalogSvc := catalog.NewService(api, cache)
	bidSvc := bidding.NewService(api, cache)
	accountSvc := account.NewService(api)
	uploader := upload.NewUploader(api, upload.DefaultOptions())

	tmpl, err := pages.Templates(time.Now)
	require.NoError(t, err)

	router := server.SetupRouter(server.RouterDeps{
		API: handler.NewAPIHandler(handler.APIDeps{
			Gateway:  catalogSvc,
			Bids:     bidSvc,
			Accounts: accountSvc,
			Uploader: uploader,
			Tokens:   tokens,
		}),
		Pages: pages.NewPageHandler(pages.PageDeps{
			Catalog:  catalogSvc,
			Bids:     bidSvc,
			Accounts: accountSvc,
			Uploader: uploader,
			Tokens:   tokens,
		}),
		Tokens:    tokens,
		Templates: tmpl,
	})
	return router, fb
}

// ExecuteRequest executes an HTTP request and returns the response recorder.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	case []byte:
		reqBody = v
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any, cookies ...*http.Cookie) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	w := ExecuteRequest(t, router, method, url, body, cookies...)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return resp, w
}

// Login signs in through the API and returns the session cookie.
func Login(t *testing.T, router *gin.Engine) *http.Cookie {
	t.Helper()
	_, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    testEmail,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == tokenstore.DefaultCookieName {
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}
