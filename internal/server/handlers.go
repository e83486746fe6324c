package server

import (
	"html/template"
	"net/http"
)

// swaggerUIVersion is the swagger-ui-dist release loaded by the docs page.
const swaggerUIVersion = "5.9.0"

var swaggerPage = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Web Image Intensity Calculator API</title>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@{{.Version}}/swagger-ui.css" />
    <style>
        html { box-sizing: border-box; overflow-y: scroll; }
        *, *:before, *:after { box-sizing: inherit; }
        body { margin: 0; background: #fafafa; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@{{.Version}}/swagger-ui-bundle.js"></script>
    <script src="https://unpkg.com/swagger-ui-dist@{{.Version}}/swagger-ui-standalone-preset.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: {{.DocumentURL}},
                dom_id: '#swagger-ui',
                deepLinking: true,
                presets: [SwaggerUIBundle.presets.apis, SwaggerUIStandalonePreset],
                plugins: [SwaggerUIBundle.plugins.DownloadUrl],
                layout: "StandaloneLayout"
            });
        };
    </script>
</body>
</html>
`))

// handleHealth answers liveness probes with a plain "OK".
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleSwaggerUI serves an HTML page that renders the OpenAPI document.
func (s *Server) handleSwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := swaggerPage.Execute(w, map[string]string{
		"Version":     swaggerUIVersion,
		"DocumentURL": openAPIJSONPath,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to render Swagger UI")
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error: "no route for " + r.URL.Path,
		Code:  CodeNotFound,
	})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Error: r.Method + " is not allowed on " + r.URL.Path,
		Code:  CodeMethodNotAllowed,
	})
}
