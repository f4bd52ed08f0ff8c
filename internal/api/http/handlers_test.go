package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/adilkhash/url-shortener/internal/config"
	"github.com/adilkhash/url-shortener/internal/database"
	"github.com/adilkhash/url-shortener/internal/models"
	"github.com/adilkhash/url-shortener/internal/service"
	"github.com/adilkhash/url-shortener/pkg/response"
)

type MockURLService struct {
	mock.Mock
}

func (s *MockURLService) CreateURL(ctx context.Context, originalURL, customCode string, expiresAt *time.Time) (*models.URL, error) {
	args := s.Called(ctx, originalURL, customCode, expiresAt)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (s *MockURLService) ResolveShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	args := s.Called(ctx, shortCode)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (s *MockURLService) GetURLStats(ctx context.Context, shortCode string) (*models.URL, error) {
	args := s.Called(ctx, shortCode)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (s *MockURLService) DeactivateURL(ctx context.Context, id int64) (bool, error) {
	args := s.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (s *MockURLService) CleanupExpiredURLs(ctx context.Context) (int64, error) {
	args := s.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type HandlersTestSuite struct {
	suite.Suite
	logger     *httplog.Logger
	urlSvcMock *MockURLService
	server     *httptest.Server
	e          *httpexpect.Expect
}

func (suite *HandlersTestSuite) SetupSuite() {
	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
}

func (suite *HandlersTestSuite) SetupSubTest() {
	cfg := &config.Config{
		BaseURL:      "http://sho.rt",
		MaxURLLength: 2048,
	}

	suite.urlSvcMock = new(MockURLService)
	router := NewRouter(suite.logger, suite.urlSvcMock, cfg)
	suite.server = httptest.NewServer(router)
	suite.e = httpexpect.WithConfig(httpexpect.Config{
		BaseURL:  suite.server.URL,
		Reporter: httpexpect.NewAssertReporter(suite.T()),
		Client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	})
}

func (suite *HandlersTestSuite) TearDownSubTest() {
	suite.urlSvcMock.AssertExpectations(suite.T())
	suite.server.Close()
}

func (suite *HandlersTestSuite) TestPing() {
	const path = "/api/v1/ping"

	suite.Run("success", func() {
		suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			Text().IsEqual("pong\n")
	})
}

func (suite *HandlersTestSuite) TestCreateURL() {
	const path = "/api/v1/urls"

	suite.Run("empty request body", func() {
		suite.e.POST(path).
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.EmptyRequestBodyResponse.Message)
	})

	suite.Run("invalid request body", func() {
		suite.e.POST(path).
			WithJSON("invalid body").
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.BadRequestResponse.Message)
	})

	suite.Run("missing original url", func() {
		suite.e.POST(path).
			WithJSON(map[string]string{"custom_code": "abc123"}).
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			ContainsKey("details")
	})

	suite.Run("invalid url", func() {
		suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "not-a-url"}).
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.InvalidURLResponse.Message)
	})

	suite.Run("url too long", func() {
		longURL := "https://example.com/" + strings.Repeat("a", 2048)

		suite.e.POST(path).
			WithJSON(map[string]string{"original_url": longURL}).
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.URLTooLongResponse.Message)
	})

	suite.Run("invalid custom code", func() {
		suite.e.POST(path).
			WithJSON(map[string]string{
				"original_url": "https://example.com",
				"custom_code":  "a!",
			}).
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.InvalidShortCodeResponse.Message)
	})

	suite.Run("duplicate custom code", func() {
		suite.urlSvcMock.
			On("CreateURL", mock.Anything, "https://example.com", "abc123", (*time.Time)(nil)).
			Once().
			Return(nil, database.ErrShortCodeExists)

		suite.e.POST(path).
			WithJSON(map[string]string{
				"original_url": "https://example.com",
				"custom_code":  "abc123",
			}).
			Expect().
			Status(http.StatusConflict).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.DuplicateShortCodeResponse.Message)
	})

	suite.Run("server error", func() {
		suite.urlSvcMock.
			On("CreateURL", mock.Anything, "https://example.com", "", (*time.Time)(nil)).
			Once().
			Return(nil, errors.New("unknown error"))

		suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com"}).
			Expect().
			Status(http.StatusInternalServerError).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ServerErrorResponse.Message)
	})

	suite.Run("success", func() {
		createdAt := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

		suite.urlSvcMock.
			On("CreateURL", mock.Anything, "https://example.com", "", (*time.Time)(nil)).
			Once().
			Return(&models.URL{
				ID:          1,
				OriginalURL: "https://example.com",
				ShortCode:   "x1Y2z3",
				CreatedAt:   createdAt,
				IsActive:    true,
			}, nil)

		suite.e.POST(path).
			WithJSON(map[string]string{"original_url": "https://example.com"}).
			Expect().
			Status(http.StatusCreated).
			HasContentType("application/json").
			JSON().Object().
			HasValue("id", 1).
			HasValue("original_url", "https://example.com").
			HasValue("short_code", "x1Y2z3").
			HasValue("short_url", "http://sho.rt/x1Y2z3").
			HasValue("click_count", 0).
			HasValue("is_active", true).
			HasValue("expires_at", nil)
	})
}

func (suite *HandlersTestSuite) TestRedirect() {
	const path = "/%s"

	suite.Run("malformed short code", func() {
		suite.e.GET(fmt.Sprintf(path, "a!")).
			Expect().
			Status(http.StatusNotFound).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ResourceNotFoundResponse.Message)
	})

	suite.Run("not found", func() {
		suite.urlSvcMock.
			On("ResolveShortCode", mock.Anything, "abc123").
			Once().
			Return(nil, database.ErrURLNotFound)

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusNotFound).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ResourceNotFoundResponse.Message)
	})

	suite.Run("expired", func() {
		suite.urlSvcMock.
			On("ResolveShortCode", mock.Anything, "abc123").
			Once().
			Return(nil, service.ErrURLExpired)

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusNotFound).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.URLExpiredResponse.Message)
	})

	suite.Run("server error", func() {
		suite.urlSvcMock.
			On("ResolveShortCode", mock.Anything, "abc123").
			Once().
			Return(nil, errors.New("unknown error"))

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusInternalServerError).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ServerErrorResponse.Message)
	})

	suite.Run("success", func() {
		suite.urlSvcMock.
			On("ResolveShortCode", mock.Anything, "abc123").
			Once().
			Return(&models.URL{
				ID:          1,
				OriginalURL: "https://example.com",
				ShortCode:   "abc123",
				ClickCount:  1,
				IsActive:    true,
			}, nil)

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusMovedPermanently).
			Header("Location").IsEqual("https://example.com")
	})
}

func (suite *HandlersTestSuite) TestGetURLStats() {
	const path = "/api/v1/urls/%s/stats"

	suite.Run("malformed short code", func() {
		suite.e.GET(fmt.Sprintf(path, "a!")).
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.InvalidShortCodeResponse.Message)
	})

	suite.Run("not found", func() {
		suite.urlSvcMock.
			On("GetURLStats", mock.Anything, "abc123").
			Once().
			Return(nil, database.ErrURLNotFound)

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusNotFound).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ResourceNotFoundResponse.Message)
	})

	suite.Run("server error", func() {
		suite.urlSvcMock.
			On("GetURLStats", mock.Anything, "abc123").
			Once().
			Return(nil, errors.New("unknown error"))

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusInternalServerError).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ServerErrorResponse.Message)
	})

	suite.Run("success", func() {
		expiresAt := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)

		suite.urlSvcMock.
			On("GetURLStats", mock.Anything, "abc123").
			Once().
			Return(&models.URL{
				ID:          1,
				OriginalURL: "https://example.com",
				ShortCode:   "abc123",
				ClickCount:  42,
				ExpiresAt:   &expiresAt,
				IsActive:    true,
			}, nil)

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusOK).
			HasContentType("application/json").
			JSON().Object().
			HasValue("short_code", "abc123").
			HasValue("short_url", "http://sho.rt/abc123").
			HasValue("click_count", 42).
			HasValue("is_active", true).
			ContainsKey("expires_at")
	})
}

func (suite *HandlersTestSuite) TestDeactivateURL() {
	const path = "/api/v1/urls/%s"

	suite.Run("invalid id", func() {
		suite.e.DELETE(fmt.Sprintf(path, "not-a-number")).
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.BadRequestResponse.Message)
	})

	suite.Run("server error", func() {
		suite.urlSvcMock.
			On("DeactivateURL", mock.Anything, int64(1)).
			Once().
			Return(false, errors.New("unknown error"))

		suite.e.DELETE(fmt.Sprintf(path, "1")).
			Expect().
			Status(http.StatusInternalServerError).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ServerErrorResponse.Message)
	})

	suite.Run("already inactive", func() {
		suite.urlSvcMock.
			On("DeactivateURL", mock.Anything, int64(1)).
			Once().
			Return(false, nil)

		suite.e.DELETE(fmt.Sprintf(path, "1")).
			Expect().
			Status(http.StatusOK).
			HasContentType("application/json").
			JSON().Object().
			HasValue("deactivated", false)
	})

	suite.Run("success", func() {
		suite.urlSvcMock.
			On("DeactivateURL", mock.Anything, int64(1)).
			Once().
			Return(true, nil)

		suite.e.DELETE(fmt.Sprintf(path, "1")).
			Expect().
			Status(http.StatusOK).
			HasContentType("application/json").
			JSON().Object().
			HasValue("deactivated", true)
	})
}

func (suite *HandlersTestSuite) TestCleanupExpiredURLs() {
	const path = "/api/v1/urls/cleanup"

	suite.Run("server error", func() {
		suite.urlSvcMock.
			On("CleanupExpiredURLs", mock.Anything).
			Once().
			Return(int64(0), errors.New("unknown error"))

		suite.e.POST(path).
			Expect().
			Status(http.StatusInternalServerError).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ServerErrorResponse.Message)
	})

	suite.Run("success", func() {
		suite.urlSvcMock.
			On("CleanupExpiredURLs", mock.Anything).
			Once().
			Return(int64(3), nil)

		suite.e.POST(path).
			Expect().
			Status(http.StatusOK).
			HasContentType("application/json").
			JSON().Object().
			HasValue("deactivated", 3)
	})
}

func TestAPI(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
