// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with `swag init -g cmd/main.go` after changing handler annotations.
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
        "/health": {"get": {"tags": ["system"], "summary": "Health check", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/auth/sign-up": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Sign up", "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}},
        "/auth/sign-in": {"post": {"tags": ["auth"], "summary": "Sign in", "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}], "responses": {"200": {"description": "token"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}},
        "/api/v1/state": {"get": {"security": [{"BearerAuth": []}], "tags": ["device"], "summary": "Get live state", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/api/v1/control/{command}": {"post": {"security": [{"BearerAuth": []}], "tags": ["device"], "summary": "Switch an actuator", "parameters": [{"in": "path", "name": "command", "required": true, "type": "string", "enum": ["pump_in", "pump_out", "master_pump", "feeder"]}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ControlRequest"}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "502": {"description": "Bad Gateway"}}}},
        "/api/v1/device/refresh": {"post": {"security": [{"BearerAuth": []}], "tags": ["device"], "summary": "Poll the device now", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}, "502": {"description": "Bad Gateway"}}}},
        "/api/v1/device/test": {"post": {"security": [{"BearerAuth": []}], "tags": ["device"], "summary": "Test device connection", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "502": {"description": "Bad Gateway"}}}},
        "/api/v1/automation/status": {"get": {"security": [{"BearerAuth": []}], "tags": ["automation"], "summary": "Automation status", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/settings/automation": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["settings"], "summary": "Get automation settings", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["settings"], "summary": "Update automation settings", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["settings"], "summary": "Reset automation settings to defaults", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/settings/device": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["settings"], "summary": "Get device settings", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["settings"], "summary": "Update device settings", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["settings"], "summary": "Reset device settings to defaults", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/history/automation": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["history"], "summary": "List automation history", "parameters": [{"in": "query", "name": "from", "type": "string"}, {"in": "query", "name": "to", "type": "string"}, {"in": "query", "name": "type", "type": "string"}], "responses": {"200": {"description": "count, events"}, "400": {"description": "Bad Request"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["history"], "summary": "Clear automation history", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/history/sensors": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["history"], "summary": "List sensor history", "responses": {"200": {"description": "count, entries"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["history"], "summary": "Clear sensor history", "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "handlers.authCredentials": {"type": "object", "required": ["username", "password"], "properties": {"username": {"type": "string"}, "password": {"type": "string"}}},
        "handlers.ControlRequest": {"type": "object", "required": ["on"], "properties": {"on": {"type": "boolean", "example": true}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "aquastream API",
	Description:      "Aquarium controller backend: live telemetry, actuator control, automation settings and history.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
