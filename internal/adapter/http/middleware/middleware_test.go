package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"loja_checkout/internal/domain/entities"
	mock_interfaces "loja_checkout/internal/usecase/interfaces/mocks"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

func authRouter(t *testing.T, resolver *mock_interfaces.MockIBuyerResolver) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.Use(RequestID(), BuyerAuth(resolver))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, Buyer(c).ID)
	})
	return r
}

func TestBuyerAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		header string
		setup  func(m *mock_interfaces.MockIBuyerResolver)
		status int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer  ", status: http.StatusUnauthorized},
		{
			name:   "unknown session",
			header: "Bearer tok",
			setup: func(m *mock_interfaces.MockIBuyerResolver) {
				m.EXPECT().ResolveBySessionToken(gomock.Any(), "tok").Return(nil, nil)
			},
			status: http.StatusUnauthorized,
		},
		{
			name:   "resolver failure",
			header: "Bearer tok",
			setup: func(m *mock_interfaces.MockIBuyerResolver) {
				m.EXPECT().ResolveBySessionToken(gomock.Any(), "tok").Return(nil, errors.New("db"))
			},
			status: http.StatusInternalServerError,
		},
		{
			name:   "valid session",
			header: "bearer tok",
			setup: func(m *mock_interfaces.MockIBuyerResolver) {
				m.EXPECT().ResolveBySessionToken(gomock.Any(), "tok").Return(&entities.Buyer{ID: "buyer-1"}, nil)
			},
			status: http.StatusOK,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			resolver := mock_interfaces.NewMockIBuyerResolver(ctrl)
			if tc.setup != nil {
				tc.setup(resolver)
			}

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			authRouter(t, resolver).ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, w.Code, w.Body.String())
			}
			if tc.status == http.StatusOK && w.Body.String() != "buyer-1" {
				t.Fatalf("unexpected body: %s", w.Body.String())
			}
			if w.Header().Get(HeaderRequestID) == "" {
				t.Fatalf("expected request id header")
			}
		})
	}
}

func TestRequestID_EchoesCallerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != "req-42" || w.Header().Get(HeaderRequestID) != "req-42" {
		t.Fatalf("expected req-42, got body=%s header=%s", w.Body.String(), w.Header().Get(HeaderRequestID))
	}
}
