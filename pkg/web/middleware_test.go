package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockVerifier is a mock implementation of the TokenVerifier interface for testing purposes.
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, tokenString string) (jwt.Token, error) {
	args := m.Called(ctx, tokenString)

	var token jwt.Token
	if args.Get(0) != nil {
		token = args.Get(0).(jwt.Token)
	}
	return token, args.Error(1)
}

func TestBearerAuthMiddleware(t *testing.T) {
	// given

	// Create a mock of a valid JWT token carrying a role claim
	mockValidToken, err := jwt.NewBuilder().
		Subject("user-123").
		Issuer("test-issuer").
		Claim("role", "pharmacy").
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour)).
		Build()
	require.NoError(t, err)

	mockTokenNoSubject, err := jwt.NewBuilder().
		Issuer("test-issuer").
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour)).
		Build()
	require.NoError(t, err)

	testCases := []struct {
		name               string
		authHeader         string                // Authorization header to simulate the request
		setupMock          func(m *MockVerifier) // Function to set up our mock
		expectedStatusCode int
		shouldCallNext     bool   // Whether the next handler should be called
		expectedUserID     string // userID expected in the context
		expectedRole       string // role expected in the context
	}{
		{
			name:       "Success - valid bearer token",
			authHeader: "Bearer valid-token",
			setupMock: func(m *MockVerifier) {
				m.On("Verify", mock.Anything, "valid-token").Return(mockValidToken, nil)
			},
			expectedStatusCode: http.StatusOK,
			shouldCallNext:     true,
			expectedUserID:     "user-123",
			expectedRole:       "pharmacy",
		},
		{
			name:       "Failure - no auth header",
			authHeader: "",
			setupMock: func(m *MockVerifier) { // Nothing to set up, Verify should not be called
			},
			expectedStatusCode: http.StatusUnauthorized,
			shouldCallNext:     false,
		},
		{
			name:       "Failure - not a bearer token",
			authHeader: "Basic some-credentials",
			setupMock: func(m *MockVerifier) { // Nothing to set up, Verify should not be called
			},
			expectedStatusCode: http.StatusUnauthorized,
			shouldCallNext:     false,
		},
		{
			name:       "Failure - verifier returns error",
			authHeader: "Bearer invalid-token",
			setupMock: func(m *MockVerifier) {
				// Simulate an error from the verifier
				m.On("Verify", mock.Anything, "invalid-token").Return(nil, errors.New("signature is invalid"))
			},
			expectedStatusCode: http.StatusUnauthorized,
			shouldCallNext:     false,
		},
		{
			name:       "Failure - token without subject",
			authHeader: "Bearer subjectless-token",
			setupMock: func(m *MockVerifier) {
				m.On("Verify", mock.Anything, "subjectless-token").Return(mockTokenNoSubject, nil)
			},
			expectedStatusCode: http.StatusUnauthorized,
			shouldCallNext:     false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockVerifier := new(MockVerifier)
			tc.setupMock(mockVerifier)
			// Create the auth middleware with the mock verifier
			authMiddleware := BearerAuthMiddleware(mockVerifier)

			// nextHandlerCalled - a flag to check if the next handler was called
			nextHandlerCalled := false
			// This is the next handler that should be called if the auth middleware passes
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextHandlerCalled = true
				// Check if the userID and role are in the context
				userID, ok := r.Context().Value(UserIDKey).(string)
				assert.True(t, ok, "userID should be in context")
				assert.Equal(t, tc.expectedUserID, userID, "userID in context is incorrect")
				role, ok := r.Context().Value(RoleKey).(string)
				assert.True(t, ok, "role should be in context")
				assert.Equal(t, tc.expectedRole, role, "role in context is incorrect")
				w.WriteHeader(http.StatusOK)
			})

			// Create the test handler with the auth middleware that wraps the next handler
			// If the auth middleware fails, this handler should not be called
			// and the status code should be 401 Unauthorized
			testHandler := authMiddleware(nextHandler)

			// create a request with the auth header if provided
			req := httptest.NewRequest("GET", "/", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rr := httptest.NewRecorder()

			// when
			testHandler.ServeHTTP(rr, req)

			// then
			assert.Equal(t, tc.expectedStatusCode, rr.Code, "HTTP status code is wrong")
			assert.Equal(t, tc.shouldCallNext, nextHandlerCalled, "Next handler call status is wrong")

			// Check if all expected calls on the mock were made
			mockVerifier.AssertExpectations(t)
		})
	}
}

func TestHeaderAuthMiddleware(t *testing.T) {
	testCases := []struct {
		name               string
		userIDHeader       string
		roleHeader         string
		expectedStatusCode int
		shouldCallNext     bool
	}{
		{
			name:               "Success - user id and role headers",
			userIDHeader:       "user-123",
			roleHeader:         "patient",
			expectedStatusCode: http.StatusOK,
			shouldCallNext:     true,
		},
		{
			name:               "Success - user id header only",
			userIDHeader:       "user-123",
			expectedStatusCode: http.StatusOK,
			shouldCallNext:     true,
		},
		{
			name:               "Failure - missing user id header",
			expectedStatusCode: http.StatusUnauthorized,
			shouldCallNext:     false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			nextHandlerCalled := false
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextHandlerCalled = true
				userID, ok := r.Context().Value(UserIDKey).(string)
				assert.True(t, ok, "userID should be in context")
				assert.Equal(t, tc.userIDHeader, userID)
				role, _ := r.Context().Value(RoleKey).(string)
				assert.Equal(t, tc.roleHeader, role)
				w.WriteHeader(http.StatusOK)
			})

			testHandler := HeaderAuthMiddleware(nextHandler)

			req := httptest.NewRequest("GET", "/", nil)
			if tc.userIDHeader != "" {
				req.Header.Set(XUserId, tc.userIDHeader)
			}
			if tc.roleHeader != "" {
				req.Header.Set(XUserRole, tc.roleHeader)
			}
			rr := httptest.NewRecorder()

			testHandler.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code, "HTTP status code is wrong")
			assert.Equal(t, tc.shouldCallNext, nextHandlerCalled, "Next handler call status is wrong")
		})
	}
}
