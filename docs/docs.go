// Package docs registers the OpenAPI document served under /swagger/.
// Regenerate with: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"tags": ["Health"], "summary": "Liveness probe", "responses": {"200": {"description": "Application is alive"}}}
        },
        "/readyz": {
            "get": {"tags": ["Health"], "summary": "Readiness probe", "responses": {"200": {"description": "Ready"}, "503": {"description": "Database unavailable"}}}
        },
        "/api/auth/login": {
            "post": {"tags": ["Auth"], "summary": "User login", "responses": {"200": {"description": "Tokens"}, "401": {"description": "Invalid credentials"}, "403": {"description": "Account not activated"}}}
        },
        "/api/auth/refresh": {
            "post": {"tags": ["Auth"], "summary": "Refresh tokens", "responses": {"200": {"description": "Tokens"}, "401": {"description": "Invalid refresh token"}}}
        },
        "/api/activate/{key}": {
            "get": {"tags": ["Auth"], "summary": "Activate account", "parameters": [{"type": "string", "name": "key", "in": "path", "required": true}], "responses": {"302": {"description": "Redirect"}, "404": {"description": "Unknown key"}}}
        },
        "/api/providers": {
            "get": {"tags": ["Providers"], "summary": "List providers", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Page of providers"}}},
            "post": {"tags": ["Providers"], "summary": "Create provider", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Validation failed"}, "409": {"description": "User already has a provider"}}}
        },
        "/api/providers/create_provider/": {
            "post": {"tags": ["Providers"], "summary": "Register provider", "responses": {"201": {"description": "Created"}, "400": {"description": "Validation failed"}, "409": {"description": "Email already registered"}, "429": {"description": "Too many requests"}}}
        },
        "/api/providers/{id}": {
            "get": {"tags": ["Providers"], "summary": "Get provider", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Provider"}, "404": {"description": "Not found"}}}
        },
        "/api/providertypes": {
            "get": {"tags": ["Provider types"], "summary": "List provider types", "responses": {"200": {"description": "Provider types"}}}
        },
        "/api/servicetypes": {
            "get": {"tags": ["Service types"], "summary": "List service types", "responses": {"200": {"description": "Service types"}}}
        },
        "/api/serviceareas": {
            "get": {"tags": ["Service areas"], "summary": "List service areas", "responses": {"200": {"description": "Page of service areas"}}},
            "post": {"tags": ["Service areas"], "summary": "Create service area", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "403": {"description": "Staff only"}}}
        },
        "/api/serviceareas/{id}": {
            "get": {"tags": ["Service areas"], "summary": "Get service area", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Service area"}, "404": {"description": "Not found"}}}
        },
        "/api/services": {
            "get": {"tags": ["Services"], "summary": "List services", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Page of services"}}},
            "post": {"tags": ["Services"], "summary": "Create service", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "403": {"description": "Forbidden"}}}
        },
        "/api/services/search": {
            "get": {"tags": ["Services"], "summary": "Search services", "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}], "responses": {"200": {"description": "Matching services"}}}
        },
        "/api/services/{id}/approve": {
            "post": {"tags": ["Services"], "summary": "Approve service", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Approved"}, "409": {"description": "Service is not a draft"}}}
        },
        "/api/services/{id}/reject": {
            "post": {"tags": ["Services"], "summary": "Reject service", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Rejected"}, "409": {"description": "Service is not a draft"}}}
        },
        "/api/users": {
            "get": {"tags": ["Users"], "summary": "List users", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Page of users"}}}
        },
        "/api/users/me": {
            "get": {"tags": ["Users"], "summary": "Current user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "User"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "\"Bearer <jwt>\" or \"Token <api token>\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Service Info API",
	Description:      "Directory of humanitarian service providers, their services and service areas.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
