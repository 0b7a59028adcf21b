package http

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepoint/backend/internal/domain"
	"github.com/carepoint/backend/internal/lesion"
	"github.com/carepoint/backend/internal/logger"
	"github.com/carepoint/backend/internal/matcher"
	"github.com/carepoint/backend/internal/repository/memory"
	"github.com/carepoint/backend/internal/service"
)

// ==========================
// Test Helper Functions
// ==========================

type testApp struct {
	app      *fiber.App
	analysis *service.AnalysisService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log := logger.NewTestLogger(t)
	repo := memory.NewRepository()
	thresholds := service.NewThresholdService(repo, nil, log)
	analysis := service.NewAnalysisService(lesion.NewScorer(), thresholds, nil, repo, service.AnalysisOptions{FailOpen: true}, log)
	t.Cleanup(analysis.WaitBackground)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	SetupRoutes(app, Services{
		Recommendations: service.NewRecommendationService(matcher.New(matcher.WithRand(rand.New(rand.NewSource(3)))), 0, log),
		Analysis:        analysis,
		Thresholds:      thresholds,
		Accounts:        service.NewAccountService(repo, log),
		Requests:        service.NewRequestService(repo, nil, log),
		Repo:            repo,
		Version:         "test",
	})
	return &testApp{app: app, analysis: analysis}
}

func (a *testApp) do(t *testing.T, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp.StatusCode, body
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, target string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", "lesion.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func checkerboardPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, lesion.SampleSize, lesion.SampleSize))
	for y := 0; y < lesion.SampleSize; y++ {
		for x := 0; x < lesion.SampleSize; x++ {
			c := color.RGBA{0, 0, 0, 255}
			if (x/8+y/8)%2 == 0 {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func dataOf(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "data is not an object: %v", body)
	return d
}

// ==========================
// Tests
// ==========================

func TestHealthCheck(t *testing.T) {
	a := newTestApp(t)

	status, body := a.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestApp(t)

	resp, err := a.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "go_goroutines")
}

func TestRecommend(t *testing.T) {
	a := newTestApp(t)

	status, body := a.do(t, jsonRequest(http.MethodPost, "/api/v1/recommendations", `{"symptoms":"palpitations and cough","location":"Austin TX"}`))
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, []interface{}{"Cardiology", "Pulmonology"}, body["specialties"])
	doctors := body["doctors"].([]interface{})
	assert.Len(t, doctors, 4)
	first := doctors[0].(map[string]interface{})
	assert.Contains(t, first["address"], "Austin")
	assert.Contains(t, first["distance"], "miles")
}

func TestRecommend_ValidationErrors(t *testing.T) {
	a := newTestApp(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"missing symptoms", `{"location":"Austin"}`},
		{"wrong type", `{"symptoms": 42}`},
		{"not json", `symptoms=cough`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := a.do(t, jsonRequest(http.MethodPost, "/api/v1/recommendations", tt.body))
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "INVALID_INPUT", body["code"])
		})
	}
}

func TestGetSpecialties(t *testing.T) {
	a := newTestApp(t)

	status, body := a.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/specialties", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["data"], "Family Medicine")
}

func TestDetect_Multipart(t *testing.T) {
	a := newTestApp(t)

	status, body := a.do(t, multipartRequest(t, "/api/v1/detections/skin-cancer", checkerboardPNG(t)))
	require.Equal(t, http.StatusOK, status)

	d := dataOf(t, body)
	assert.Equal(t, "Malignant", d["prediction"])
	assert.Equal(t, "skin-cancer", d["mode"])
	assert.InDelta(t, 0.8, d["confidence"], 1e-9)

	a.analysis.WaitBackground()
	status, body = a.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/detections?limit=5", nil))
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])
}

func TestDetect_JSONBase64(t *testing.T) {
	a := newTestApp(t)
	payload := `{"image":"data:image/png;base64,` + base64.StdEncoding.EncodeToString(checkerboardPNG(t)) + `"}`

	status, body := a.do(t, jsonRequest(http.MethodPost, "/api/v1/detections/eczema", payload))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Eczema", dataOf(t, body)["prediction"])
}

func TestDetect_Errors(t *testing.T) {
	a := newTestApp(t)

	status, body := a.do(t, multipartRequest(t, "/api/v1/detections/acne", checkerboardPNG(t)))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", body["code"])

	status, body = a.do(t, multipartRequest(t, "/api/v1/detections/eczema", []byte("not an image")))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "PREPROCESSING_FAILED", body["code"])

	status, body = a.do(t, jsonRequest(http.MethodPost, "/api/v1/detections/eczema", `{"image":"%%%"}`))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", body["code"])

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detections/eczema", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	status, _ = a.do(t, req)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAnalyze(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader(checkerboardPNG(t)))
	req.Header.Set("Content-Type", "image/png")
	status, body := a.do(t, req)
	require.Equal(t, http.StatusOK, status)

	results := body["data"].([]interface{})
	require.Len(t, results, 2)
	assert.Equal(t, "skin-cancer", results[0].(map[string]interface{})["mode"])
	assert.Equal(t, "eczema", results[1].(map[string]interface{})["mode"])
}

func TestClassify_FallbackWithoutClassifier(t *testing.T) {
	a := newTestApp(t)

	status, body := a.do(t, multipartRequest(t, "/api/v1/classify/skin-cancer", checkerboardPNG(t)))
	require.Equal(t, http.StatusOK, status)

	d := dataOf(t, body)
	assert.Equal(t, "Benign", d["prediction"])
	assert.Equal(t, true, d["degraded"])
	assert.NotEmpty(t, body["message"])
}

func TestThresholds(t *testing.T) {
	a := newTestApp(t)

	status, body := a.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/thresholds", nil))
	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, domain.DefaultThresholds.Asymmetry, dataOf(t, body)["asymmetry"], 1e-9)

	status, body = a.do(t, jsonRequest(http.MethodPut, "/api/v1/thresholds", `{"asymmetry":-1,"border":2,"color":0.5,"diameter":1.5}`))
	require.Equal(t, http.StatusOK, status)
	d := dataOf(t, body)
	assert.EqualValues(t, 0, d["asymmetry"])
	assert.EqualValues(t, 1, d["border"])
	assert.EqualValues(t, 0.5, d["color"])
	assert.EqualValues(t, 1, d["diameter"])

	status, body = a.do(t, jsonRequest(http.MethodPut, "/api/v1/thresholds", `{"asymmetry":0.1}`))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", body["code"])

	status, body = a.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/thresholds", nil))
	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, domain.DefaultThresholds.Diameter, dataOf(t, body)["diameter"], 1e-9)
}

func TestAccountsAndRequestsFlow(t *testing.T) {
	a := newTestApp(t)

	status, body := a.do(t, jsonRequest(http.MethodPost, "/api/v1/accounts", `{"email":"doc@example.com","password":"secret1","user_type":"doctor"}`))
	require.Equal(t, http.StatusCreated, status)
	doctorID := dataOf(t, body)["id"].(string)
	_, hasHash := dataOf(t, body)["PasswordHash"]
	assert.False(t, hasHash)

	status, body = a.do(t, jsonRequest(http.MethodPost, "/api/v1/accounts", `{"email":"doc@example.com","password":"secret1"}`))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", body["code"])

	status, _ = a.do(t, jsonRequest(http.MethodPost, "/api/v1/accounts", `{"email":"x@example.com","password":"secret1","user_type":"admin"}`))
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = a.do(t, jsonRequest(http.MethodPost, "/api/v1/accounts", `{"email":"pat@example.com","password":"secret1"}`))
	require.Equal(t, http.StatusCreated, status)
	patientID := dataOf(t, body)["id"].(string)

	status, body = a.do(t, jsonRequest(http.MethodPost, "/api/v1/accounts/login", `{"email":"pat@example.com","password":"secret1"}`))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, patientID, dataOf(t, body)["id"])

	status, body = a.do(t, jsonRequest(http.MethodPost, "/api/v1/accounts/login", `{"email":"pat@example.com","password":"nope"}`))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTHENTICATION_FAILED", body["code"])

	status, body = a.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/doctors", nil))
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])

	status, body = a.do(t, jsonRequest(http.MethodPost, "/api/v1/requests",
		`{"user_id":"`+patientID+`","user_email":"pat@example.com","description":"mole looks different"}`))
	require.Equal(t, http.StatusCreated, status)
	created := dataOf(t, body)
	assert.Equal(t, "assigned", created["status"])
	assert.Equal(t, doctorID, created["doctor_id"])

	status, body = a.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/users/"+patientID+"/requests", nil))
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])

	status, body = a.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/doctors/"+doctorID+"/requests", nil))
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])

	status, body = a.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/doctors/"+doctorID+"/notifications", nil))
	require.Equal(t, http.StatusOK, status)
	notes := body["data"].([]interface{})
	require.Len(t, notes, 1)
	note := notes[0].(map[string]interface{})
	assert.Equal(t, "New service request from pat@example.com", note["message"])

	status, _ = a.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/doctors/"+doctorID+"/notifications/"+note["id"].(string)+"/read", nil))
	assert.Equal(t, http.StatusOK, status)

	status, body = a.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/doctors/"+doctorID+"/notifications/missing/read", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])
}
