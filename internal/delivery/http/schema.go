package http

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/carepoint/backend/internal/apperror"
)

var (
	recommendationSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"symptoms": {"type": "string", "maxLength": 5000},
			"location": {"type": "string", "maxLength": 500}
		},
		"required": ["symptoms"]
	}`)

	thresholdsSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"asymmetry": {"type": "number"},
			"border": {"type": "number"},
			"color": {"type": "number"},
			"diameter": {"type": "number"}
		},
		"required": ["asymmetry", "border", "color", "diameter"]
	}`)

	registerSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"email": {"type": "string", "minLength": 3},
			"password": {"type": "string"},
			"user_type": {"type": "string", "enum": ["user", "doctor"]},
			"phone": {"type": "string"}
		},
		"required": ["email", "password"]
	}`)

	loginSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"email": {"type": "string"},
			"password": {"type": "string"}
		},
		"required": ["email", "password"]
	}`)

	requestSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"user_email": {"type": "string"},
			"description": {"type": "string", "minLength": 1}
		},
		"required": ["user_id", "description"]
	}`)

	imageSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"image": {"type": "string", "minLength": 1}
		},
		"required": ["image"]
	}`)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid request schema: %v", err))
	}
	return s
}

// validateBody checks a JSON request body against schema.
func validateBody(schema *gojsonschema.Schema, body []byte) error {
	if len(body) == 0 {
		return apperror.NewInputError("request body is required")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return apperror.NewInputError(fmt.Sprintf("request body is not valid JSON: %v", err))
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return apperror.NewInputError(strings.Join(msgs, "; "))
	}
	return nil
}
