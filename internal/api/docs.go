package api

import "github.com/swaggo/swag"

// docTemplate is served at /swagger/doc.json. Schemas are left to the
// handler annotations; this lists the routes so the UI has something to show
// without a generated docs package.
const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/health": {"get": {"tags": ["system"], "summary": "Service health", "responses": {"200": {"description": "OK"}, "503": {"description": "Database unavailable"}}}},
        "/metrics": {"get": {"tags": ["system"], "summary": "Runtime counters", "responses": {"200": {"description": "OK"}}}},
        "/privacy/policy": {"get": {"tags": ["privacy"], "summary": "Data retention policy", "responses": {"200": {"description": "OK"}}}},
        "/questions/templates": {"get": {"tags": ["questions"], "summary": "The fixed question flow", "responses": {"200": {"description": "OK"}}}},
        "/sessions": {"post": {"tags": ["sessions"], "summary": "Start a session", "responses": {"201": {"description": "Created"}, "400": {"description": "Consent missing"}}}},
        "/sessions/{id}": {
            "get": {"tags": ["sessions"], "summary": "Get a session", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "delete": {"tags": ["sessions"], "summary": "Delete all data of a session", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "Deleted"}, "404": {"description": "Not found"}}}
        },
        "/sessions/{id}/bootstrap-questions": {"post": {"tags": ["sessions"], "summary": "Attach the question flow", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"201": {"description": "Created"}, "409": {"description": "Already attached"}}}},
        "/sessions/{id}/questions": {"get": {"tags": ["sessions"], "summary": "List questions", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}},
        "/sessions/{id}/answers": {"post": {"tags": ["sessions"], "summary": "Store an answer with its signals", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"201": {"description": "Created"}, "400": {"description": "Invalid answer"}, "409": {"description": "Session completed"}}}},
        "/sessions/{id}/calculate-score": {"post": {"tags": ["sessions"], "summary": "Score a session", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}},
        "/sessions/{id}/score": {"get": {"tags": ["sessions"], "summary": "Last calculated score", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not scored yet"}}}},
        "/sessions/{id}/questions/{questionId}/consistency": {"get": {"tags": ["sessions"], "summary": "Cross-answer consistency of one question", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "questionId", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}},
        "/nlp/analyze": {"post": {"tags": ["nlp"], "summary": "Text analysis of one answer", "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid request"}}}},
        "/nlp/consistency": {"post": {"tags": ["nlp"], "summary": "Consistency of several answers", "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid request"}}}},
        "/nlp/emotion": {"post": {"tags": ["nlp"], "summary": "Emotion and face stress agreement", "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid request"}}}},
        "/ws/metrics": {"get": {"tags": ["realtime"], "summary": "WebSocket for live face and voice metrics", "responses": {"101": {"description": "Switching protocols"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          Version,
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Inconsistency Meter API",
	Description:      "Heuristic behavioral inconsistency scoring. Scores indicate inconsistency between signals, they are not evidence of deception.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
