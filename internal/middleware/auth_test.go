package middleware_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nikhilgadge18/TexttoImage/internal/middleware"
	"github.com/nikhilgadge18/TexttoImage/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mock UserResolver --- //

type MockUserResolver struct {
	mock.Mock
}

func (m *MockUserResolver) CurrentUser(ctx context.Context, tokenString string) (*models.User, error) {
	args := m.Called(ctx, tokenString)
	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- Tests --- //

func TestGetUserFromContext(t *testing.T) {
	user := &models.User{ID: 1, Username: "alice"}

	tests := []struct {
		name         string
		ctx          context.Context
		expectedUser *models.User
		expectedOK   bool
	}{
		{
			name:         "Контекст с пользователем",
			ctx:          context.WithValue(context.Background(), middleware.UserKey, user),
			expectedUser: user,
			expectedOK:   true,
		},
		{
			name:       "Пустой контекст",
			ctx:        context.Background(),
			expectedOK: false,
		},
		{
			name:       "Значение неверного типа",
			ctx:        context.WithValue(context.Background(), middleware.UserKey, "not-a-user"),
			expectedOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := middleware.GetUserFromContext(tt.ctx)
			assert.Equal(t, tt.expectedUser, got)
			assert.Equal(t, tt.expectedOK, ok)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name          string
		header        string
		expectedToken string
		expectedOK    bool
	}{
		{name: "Валидный заголовок", header: "Bearer abc.def.ghi", expectedToken: "abc.def.ghi", expectedOK: true},
		{name: "Схема в нижнем регистре", header: "bearer abc.def.ghi", expectedToken: "abc.def.ghi", expectedOK: true},
		{name: "Нет заголовка", header: "", expectedOK: false},
		{name: "Неверная схема", header: "Basic dXNlcjpwYXNz", expectedOK: false},
		{name: "Только схема", header: "Bearer", expectedOK: false},
		{name: "Лишние части", header: "Bearer a b", expectedOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			tokenString, ok := middleware.BearerToken(req)
			assert.Equal(t, tt.expectedToken, tokenString)
			assert.Equal(t, tt.expectedOK, ok)
		})
	}
}

func TestAuthenticator(t *testing.T) {
	user := &models.User{ID: 1, Username: "alice"}

	tests := []struct {
		name           string
		header         string
		mockSetup      func(resolver *MockUserResolver)
		expectedStatus int
		expectUser     bool
	}{
		{
			name:   "Валидный токен",
			header: "Bearer good-token",
			mockSetup: func(resolver *MockUserResolver) {
				resolver.On("CurrentUser", mock.Anything, "good-token").
					Return(user, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectUser:     true,
		},
		{
			name:           "Нет заголовка Authorization",
			header:         "",
			mockSetup:      func(_ *MockUserResolver) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Неверный формат заголовка",
			header:         "Token abc",
			mockSetup:      func(_ *MockUserResolver) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "Отказ резолвера",
			header: "Bearer bad-token",
			mockSetup: func(resolver *MockUserResolver) {
				resolver.On("CurrentUser", mock.Anything, "bad-token").
					Return(nil, errors.New("невалидный токен")).Once()
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(MockUserResolver)
			tt.mockSetup(resolver)

			var gotUser *models.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = middleware.GetUserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			middleware.Authenticator(resolver)(next).ServeHTTP(rr, req)

			resp := rr.Result()
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectUser {
				assert.Equal(t, user, gotUser)
			} else {
				// Все причины отказа дают один ответ: 401, заголовок
				// WWW-Authenticate и единое сообщение
				assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.JSONEq(t, `{"detail":"Could not validate credentials"}`, string(body))
			}

			resolver.AssertExpectations(t)
		})
	}
}
