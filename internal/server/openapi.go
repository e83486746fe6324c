package server

import (
	"encoding/json"
	"net/http"

	"github.com/goccy/go-yaml"
)

// OpenAPI document paths.
const (
	openAPIJSONPath = "/api-docs/openapi.json"
	openAPIYAMLPath = "/api-docs/openapi.yaml"
)

// OpenAPIDocument returns the OpenAPI 3.0 description of the HTTP API.
func OpenAPIDocument(version string) map[string]interface{} {
	errorResponse := func(description, code string) map[string]interface{} {
		return map[string]interface{}{
			"description": description,
			"content": map[string]interface{}{
				"application/json": map[string]interface{}{
					"schema": map[string]interface{}{"$ref": "#/components/schemas/ErrorResponse"},
					"example": map[string]interface{}{
						"error": description,
						"code":  code,
					},
				},
			},
		}
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":       "Web Image Intensity Calculator API",
			"description": "Upload an image and receive the average pixel intensity on a 0-255 scale.",
			"version":     version,
		},
		"tags": []map[string]interface{}{
			{"name": "Image Processing", "description": "Image intensity calculation"},
			{"name": "Health", "description": "Service liveness"},
		},
		"paths": map[string]interface{}{
			"/calculate-intensity": map[string]interface{}{
				"post": map[string]interface{}{
					"tags":        []string{"Image Processing"},
					"summary":     "Calculate the average intensity of an image",
					"description": "Accepts JPEG, PNG, GIF, WEBP, BMP or TIFF. Intensity is the mean of (R+G+B)/3 over all pixels; alpha is ignored.",
					"operationId": "calculateIntensity",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"multipart/form-data": map[string]interface{}{
								"schema": map[string]interface{}{
									"type":     "object",
									"required": []string{imageField},
									"properties": map[string]interface{}{
										imageField: map[string]interface{}{
											"type":        "string",
											"format":      "binary",
											"description": "Image file to analyze",
										},
									},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Average intensity calculated",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{"$ref": "#/components/schemas/IntensityResponse"},
								},
							},
						},
						"400": errorResponse("no image data provided", CodeMissingInput),
						"413": errorResponse("upload exceeds the size limit", CodePayloadTooLarge),
						"422": errorResponse("unsupported image format", CodeUnsupportedFormat),
						"500": errorResponse("internal error while processing image", CodeInternal),
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"tags":        []string{"Health"},
					"summary":     "Liveness check",
					"operationId": "health",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Service is running",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]interface{}{"type": "string", "example": "OK"},
								},
							},
						},
					},
				},
			},
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"IntensityResponse": map[string]interface{}{
					"type":     "object",
					"required": []string{"average_intensity", "message"},
					"properties": map[string]interface{}{
						"average_intensity": map[string]interface{}{
							"type":        "number",
							"format":      "double",
							"minimum":     0,
							"maximum":     255,
							"description": "Average intensity, two decimal places",
							"example":     150.00,
						},
						"message": map[string]interface{}{
							"type":    "string",
							"example": "Average intensity calculated: 150.00",
						},
					},
				},
				"ErrorResponse": map[string]interface{}{
					"type":     "object",
					"required": []string{"error", "code"},
					"properties": map[string]interface{}{
						"error": map[string]interface{}{
							"type":        "string",
							"description": "Human-readable message",
						},
						"code": map[string]interface{}{
							"type": "string",
							"enum": []string{
								CodeMissingInput, CodeInvalidRequest, CodePayloadTooLarge,
								CodeUnsupportedFormat, CodeCorruptImage, CodeInternal,
							},
						},
					},
				},
			},
		},
	}
}

func (s *Server) handleOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	data, err := json.MarshalIndent(OpenAPIDocument(s.version), "", "  ")
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode OpenAPI document")
		encodeError(r.Context(), err, w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}

func (s *Server) handleOpenAPIYAML(w http.ResponseWriter, r *http.Request) {
	data, err := yaml.Marshal(OpenAPIDocument(s.version))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode OpenAPI document")
		encodeError(r.Context(), err, w)
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}
