package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Samrat740/sleep-apnea-screening/internal/domain"
	"github.com/Samrat740/sleep-apnea-screening/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) AnalyzeECG(ctx context.Context, sessionID uuid.UUID, fileName string, content []byte) (*domain.EcgAnalysis, error) {
	args := m.Called(ctx, sessionID, fileName, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EcgAnalysis), args.Error(1)
}

func (m *MockService) AssessRisk(ctx context.Context, sessionID uuid.UUID, profile domain.HealthProfile) (*domain.RiskResult, error) {
	args := m.Called(ctx, sessionID, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RiskResult), args.Error(1)
}

func (m *MockService) SessionState(ctx context.Context, sessionID uuid.UUID) (*domain.SessionState, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionState), args.Error(1)
}

func (m *MockService) WakeServer(ctx context.Context, sessionID uuid.UUID) (*domain.SessionState, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionState), args.Error(1)
}

func (m *MockService) UpstreamState() domain.ServerState {
	args := m.Called()
	return args.Get(0).(domain.ServerState)
}

func (m *MockService) CheckSessionStore(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newTestServer(svc *MockService) *HTTPServer {
	logger, _ := zap.NewDevelopment()
	return NewHTTPServer(":8080", svc, 1<<20, []string{"*"}, logger)
}

func multipartBody(t *testing.T, field, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func TestHTTPServer_HealthCheck(t *testing.T) {
	mockService := new(MockService)
	server := newTestServer(mockService)

	mockService.On("CheckSessionStore", mock.Anything).Return(nil)
	mockService.On("UpstreamState").Return(domain.ServerWaking)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	server.healthCheck(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.Contains(t, w.Body.String(), "waking")
	mockService.AssertExpectations(t)
}

func TestHTTPServer_HealthCheck_StoreDown(t *testing.T) {
	mockService := new(MockService)
	server := newTestServer(mockService)

	mockService.On("CheckSessionStore", mock.Anything).Return(errors.New("db down"))

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	server.healthCheck(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHTTPServer_GetSession_IssuesCookie(t *testing.T) {
	mockService := new(MockService)
	server := newTestServer(mockService)

	var seen uuid.UUID
	mockService.On("SessionState", mock.Anything, mock.AnythingOfType("uuid.UUID")).
		Run(func(args mock.Arguments) {
			seen = args.Get(1).(uuid.UUID)
		}).
		Return(&domain.SessionState{ServerState: domain.ServerIdle, ShowWakePrompt: true}, nil)

	req := httptest.NewRequest("GET", "/api/v1/session", nil)
	w := httptest.NewRecorder()

	server.server.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Zero(t, cookie.MaxAge)

	var state domain.SessionState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, cookie.Value, seen.String())
	assert.True(t, state.ShowWakePrompt)
	assert.Equal(t, domain.ServerIdle, state.ServerState)
}

func TestHTTPServer_GetSession_ReusesCookie(t *testing.T) {
	mockService := new(MockService)
	server := newTestServer(mockService)
	sessionID := uuid.New()

	mockService.On("SessionState", mock.Anything, sessionID).
		Return(&domain.SessionState{SessionID: sessionID.String(), ServerState: domain.ServerOnline}, nil)

	req := httptest.NewRequest("GET", "/api/v1/session", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID.String()})
	w := httptest.NewRecorder()

	server.server.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, sessionCookie(w))
	assert.Contains(t, w.Body.String(), `"server_state":"online"`)
	mockService.AssertExpectations(t)
}

func TestHTTPServer_WakeServer(t *testing.T) {
	mockService := new(MockService)
	server := newTestServer(mockService)
	sessionID := uuid.New()

	mockService.On("WakeServer", mock.Anything, sessionID).
		Return(&domain.SessionState{SessionID: sessionID.String(), ServerState: domain.ServerWaking}, nil)

	req := httptest.NewRequest("POST", "/api/v1/server/wake", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID.String()})
	w := httptest.NewRecorder()

	server.server.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"server_state":"waking"`)
	mockService.AssertExpectations(t)
}

func TestHTTPServer_AssessRisk(t *testing.T) {
	mockService := new(MockService)
	server := newTestServer(mockService)

	expectedProfile := domain.HealthProfile{
		Age: 55, Gender: domain.GenderMale, Height: 170, Weight: 90,
		Snoring: true, Observed: true,
	}
	expected := &domain.RiskResult{
		Score:     11,
		Level:     domain.RiskHigh,
		BMI:       31.14,
		Message:   domain.RiskMessage(domain.RiskHigh),
		NextSteps: domain.RiskNextSteps(domain.RiskHigh),
	}

	mockService.On("AssessRisk", mock.Anything, mock.AnythingOfType("uuid.UUID"), expectedProfile).
		Return(expected, nil)

	body := `{"age":55,"gender":"Male","height":170,"weight":90,"snoring":true,"tired":false,"observed":true,"bp":false}`
	req := httptest.NewRequest("POST", "/api/v1/risk", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	server.server.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response domain.RiskResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 11, response.Score)
	assert.Equal(t, domain.RiskHigh, response.Level)
	assert.Len(t, response.NextSteps, 3)
	mockService.AssertExpectations(t)
}

func TestHTTPServer_AssessRisk_BadRequests(t *testing.T) {
	mockService := new(MockService)
	server := newTestServer(mockService)

	mockService.On("AssessRisk", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: age must be positive", domain.ErrInvalidProfile))

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"age":`},
		{"invalid profile", `{"age":0,"gender":"Male","height":170,"weight":70}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/risk", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			server.server.Handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHTTPServer_AnalyzeECG(t *testing.T) {
	mockService := new(MockService)
	server := newTestServer(mockService)

	content := "ECG\n1.0\nabc\n2.5\n\n3.0"
	expected := &domain.EcgAnalysis{
		FileName:    "night.csv",
		Series:      domain.EcgSeries{{Index: 0, Value: 1.0}, {Index: 1, Value: 2.5}, {Index: 2, Value: 3.0}},
		SkippedRows: 1,
		Prediction:  domain.FailedPrediction(),
	}

	mockService.On("AnalyzeECG", mock.Anything, mock.AnythingOfType("uuid.UUID"), "night.csv", []byte(content)).
		Return(expected, nil)

	body, contentType := multipartBody(t, "file", "night.csv", content)
	req := httptest.NewRequest("POST", "/api/v1/ecg", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	server.server.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response domain.EcgAnalysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, expected.Series, response.Series)
	assert.Equal(t, "Error", response.Prediction.Label)
	mockService.AssertExpectations(t)
}

func TestHTTPServer_AnalyzeECG_MissingFile(t *testing.T) {
	mockService := new(MockService)
	server := newTestServer(mockService)

	body, contentType := multipartBody(t, "upload", "night.csv", "1\n2")
	req := httptest.NewRequest("POST", "/api/v1/ecg", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	server.server.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "AnalyzeECG", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHTTPServer_AnalyzeECG_TooLarge(t *testing.T) {
	mockService := new(MockService)
	logger, _ := zap.NewDevelopment()
	server := NewHTTPServer(":8080", mockService, 64, []string{"*"}, logger)

	body, contentType := multipartBody(t, "file", "big.csv", strings.Repeat("0.123\n", 100))
	req := httptest.NewRequest("POST", "/api/v1/ecg", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	server.server.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHTTPServer_AnalyzeECG_InProgress(t *testing.T) {
	mockService := new(MockService)
	server := newTestServer(mockService)

	mockService.On("AnalyzeECG", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, service.ErrAnalysisInProgress)

	body, contentType := multipartBody(t, "file", "night.csv", "1")
	req := httptest.NewRequest("POST", "/api/v1/ecg", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	server.server.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHTTPServer_CORSPreflight(t *testing.T) {
	mockService := new(MockService)
	server := newTestServer(mockService)

	req := httptest.NewRequest("OPTIONS", "/api/v1/risk", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()

	server.server.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
