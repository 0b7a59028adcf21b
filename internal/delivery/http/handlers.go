package http

import (
	"encoding/base64"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/carepoint/backend/internal/apperror"
	"github.com/carepoint/backend/internal/domain"
	"github.com/carepoint/backend/internal/service"
)

// Handler contains all HTTP handlers
type Handler struct {
	recommendations *service.RecommendationService
	analysis        *service.AnalysisService
	thresholds      *service.ThresholdService
	accounts        *service.AccountService
	requests        *service.RequestService
	repo            service.DataRepository
	version         string
}

// NewHandler creates a new handler
func NewHandler(svcs Services) *Handler {
	version := svcs.Version
	if version == "" {
		version = "1.0.0"
	}
	return &Handler{
		recommendations: svcs.Recommendations,
		analysis:        svcs.Analysis,
		thresholds:      svcs.Thresholds,
		accounts:        svcs.Accounts,
		requests:        svcs.Requests,
		repo:            svcs.Repo,
		version:         version,
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	database := "ok"
	if err := h.repo.Health(c.UserContext()); err != nil {
		status = "degraded"
		database = err.Error()
	}

	return c.JSON(fiber.Map{
		"status":   status,
		"service":  "carepoint-backend",
		"version":  h.version,
		"database": database,
	})
}

// ==========================
// Recommendations
// ==========================

// Recommend matches symptoms to specialties and synthesizes doctors
func (h *Handler) Recommend(c *fiber.Ctx) error {
	if err := validateBody(recommendationSchema, c.Body()); err != nil {
		return err
	}

	var query domain.SymptomQuery
	if err := c.BodyParser(&query); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.recommendations.Recommend(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetSpecialties lists every specialty a recommendation can contain
func (h *Handler) GetSpecialties(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.recommendations.Specialties(),
	})
}

// ==========================
// Detection
// ==========================

// Detect scores an uploaded image with the local heuristics
func (h *Handler) Detect(c *fiber.Ctx) error {
	mode, err := parseMode(c)
	if err != nil {
		return err
	}
	data, err := readImage(c)
	if err != nil {
		return err
	}

	res, err := h.analysis.Detect(c.UserContext(), mode, data)
	if err != nil {
		return err
	}
	return c.JSON(domain.DetectionResponse{Data: res, Success: true})
}

// Analyze scores one upload in every mode
func (h *Handler) Analyze(c *fiber.Ctx) error {
	data, err := readImage(c)
	if err != nil {
		return err
	}

	results, err := h.analysis.AnalyzeBoth(c.UserContext(), data)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    results,
	})
}

// Classify sends an uploaded image to the remote classifier
func (h *Handler) Classify(c *fiber.Ctx) error {
	mode, err := parseMode(c)
	if err != nil {
		return err
	}
	data, err := readImage(c)
	if err != nil {
		return err
	}

	res, err := h.analysis.Classify(c.UserContext(), mode, data)
	if err != nil {
		return err
	}

	resp := domain.DetectionResponse{Data: res, Success: true}
	if res.Degraded {
		resp.Message = "Classifier unavailable, returning default result"
	}
	return c.JSON(resp)
}

// ListDetections returns recent detection results
func (h *Handler) ListDetections(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", service.DefaultHistoryLimit)

	data, err := h.analysis.History(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

// ==========================
// Thresholds
// ==========================

func (h *Handler) GetThresholds(c *fiber.Ctx) error {
	cfg, err := h.thresholds.Get(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": cfg})
}

// SetThresholds stores a new configuration; out-of-range values are clamped
func (h *Handler) SetThresholds(c *fiber.Ctx) error {
	if err := validateBody(thresholdsSchema, c.Body()); err != nil {
		return err
	}

	var cfg domain.ThresholdConfig
	if err := c.BodyParser(&cfg); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	stored, err := h.thresholds.Set(c.UserContext(), cfg)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": stored})
}

func (h *Handler) ResetThresholds(c *fiber.Ctx) error {
	cfg, err := h.thresholds.Reset(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": cfg})
}

// ==========================
// Accounts
// ==========================

func (h *Handler) Register(c *fiber.Ctx) error {
	if err := validateBody(registerSchema, c.Body()); err != nil {
		return err
	}

	var in service.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	account, err := h.accounts.Register(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": account})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	if err := validateBody(loginSchema, c.Body()); err != nil {
		return err
	}

	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	account, err := h.accounts.Authenticate(c.UserContext(), in.Email, in.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": account})
}

func (h *Handler) ListDoctors(c *fiber.Ctx) error {
	doctors, err := h.accounts.ListDoctors(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": doctors, "count": len(doctors)})
}

// ==========================
// Service requests
// ==========================

func (h *Handler) CreateRequest(c *fiber.Ctx) error {
	if err := validateBody(requestSchema, c.Body()); err != nil {
		return err
	}

	var in service.CreateRequestInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	req, err := h.requests.CreateRequest(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": req})
}

func (h *Handler) ListUserRequests(c *fiber.Ctx) error {
	data, err := h.requests.ListUserRequests(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": data, "count": len(data)})
}

func (h *Handler) ListDoctorRequests(c *fiber.Ctx) error {
	data, err := h.requests.ListDoctorRequests(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": data, "count": len(data)})
}

func (h *Handler) ListNotifications(c *fiber.Ctx) error {
	data, err := h.requests.DoctorNotifications(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": data, "count": len(data)})
}

func (h *Handler) MarkNotificationRead(c *fiber.Ctx) error {
	if err := h.requests.MarkNotificationRead(c.UserContext(), c.Params("id"), c.Params("nid")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// ==========================
// Helpers
// ==========================

func parseMode(c *fiber.Ctx) (domain.Mode, error) {
	mode := domain.Mode(c.Params("mode"))
	if !mode.Valid() {
		return "", apperror.NewInputError("mode must be skin-cancer or eczema")
	}
	return mode, nil
}

// readImage takes the upload from a multipart "image" field, a JSON body
// {"image": "<base64 or data URL>"}, or a raw image/* body.
func readImage(c *fiber.Ctx) ([]byte, error) {
	contentType := strings.ToLower(c.Get(fiber.HeaderContentType))

	switch {
	case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		fh, err := c.FormFile("image")
		if err != nil {
			return nil, apperror.NewInputError("multipart field 'image' is required")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, apperror.NewInputError("cannot open uploaded image")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, apperror.NewInputError("cannot read uploaded image")
		}
		return data, nil

	case strings.HasPrefix(contentType, fiber.MIMEApplicationJSON):
		if err := validateBody(imageSchema, c.Body()); err != nil {
			return nil, err
		}
		var in struct {
			Image string `json:"image"`
		}
		if err := c.BodyParser(&in); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		return decodeBase64Image(in.Image)

	case strings.HasPrefix(contentType, "image/"):
		return append([]byte(nil), c.Body()...), nil
	}

	return nil, apperror.NewInputError("expected a multipart, JSON or image/* body")
}

func decodeBase64Image(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ",")
		if idx < 0 {
			return nil, apperror.NewInputError("malformed data URL")
		}
		s = s[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, apperror.NewInputError("image is not valid base64")
	}
	if len(data) == 0 {
		return nil, apperror.NewInputError("image is empty")
	}
	return data, nil
}
