// Package docs holds the OpenAPI document served by swaggerkit, regenerate with swag init
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.0.3",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "paths": {
        "/rank": {
            "get": {
                "tags": ["Rank"],
                "summary": "Trending repositories for a period",
                "parameters": [
                    {"name": "period", "in": "query", "schema": {"type": "string", "enum": ["daily", "weekly", "monthly"]}}
                ],
                "responses": {"200": {"description": "ok"}, "400": {"description": "invalid period"}, "503": {"description": "upstream unavailable"}}
            }
        },
        "/analysis/jobs/{id}": {
            "get": {
                "tags": ["Analysis"],
                "summary": "Analysis job with its result",
                "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}],
                "responses": {"200": {"description": "ok"}, "404": {"description": "unknown job"}}
            }
        },
        "/analysis/apps/{appId}/jobs": {
            "get": {
                "tags": ["Analysis"],
                "summary": "Newest analysis jobs of a catalog entry",
                "parameters": [
                    {"name": "appId", "in": "path", "required": true, "schema": {"type": "string"}},
                    {"name": "limit", "in": "query", "schema": {"type": "integer", "minimum": 1, "maximum": 100}}
                ],
                "responses": {"200": {"description": "ok"}, "400": {"description": "bad limit"}}
            }
        },
        "/analysis/sweeps": {
            "post": {
                "tags": ["Analysis"],
                "summary": "Start an orchestrator sweep in the background",
                "responses": {"202": {"description": "started"}, "409": {"description": "a sweep is already running"}}
            }
        },
        "/webhooks/repository": {
            "post": {
                "tags": ["Webhooks"],
                "summary": "Apply a repository snapshot pushed by the metadata service",
                "parameters": [
                    {"name": "X-Stackscout-Signature", "in": "header", "required": true, "schema": {"type": "string"}},
                    {"name": "X-Stackscout-Timestamp", "in": "header", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {"200": {"description": "applied"}, "400": {"description": "malformed payload"}, "401": {"description": "bad signature or stale timestamp"}}
            }
        },
        "/meta/health": {"get": {"tags": ["Meta"], "summary": "Liveness and uptime", "responses": {"200": {"description": "ok"}}}},
        "/meta/ready": {"get": {"tags": ["Meta"], "summary": "Readiness, 503 when a required dependency is down", "responses": {"200": {"description": "ready or degraded"}, "503": {"description": "postgres unreachable"}}}},
        "/meta/version": {"get": {"tags": ["Meta"], "summary": "Build info", "responses": {"200": {"description": "ok"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	BasePath:         "/api/v1",
	Title:            "Stackscout API",
	Description:      "Trending repository harvest, stack analysis and snapshot webhooks",
	InfoInstanceName: "api",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
