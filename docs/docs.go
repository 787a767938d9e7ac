// Package docs registers the OpenAPI document served at /docs.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {"name": "DriveMate"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/": {
            "get": {
                "tags": ["meta"],
                "summary": "API root info",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Health check",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/health/db": {
            "get": {
                "tags": ["health"],
                "summary": "Store health check",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object"}}
                }
            }
        },
        "/health/cache": {
            "get": {
                "tags": ["health"],
                "summary": "Cache health check",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/api/v1/events": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["events"],
                "summary": "Ingest a document change event",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{
                    "name": "event", "in": "body", "required": true,
                    "schema": {"$ref": "#/definitions/notifications.Envelope"}
                }],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/api/v1/reminders/sweep": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["reminders"],
                "summary": "Run the lesson reminder sweep",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "at", "in": "query", "description": "Sweep instant (RFC3339)"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/api/v1/push/test": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["push"],
                "summary": "Send a test push",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{
                    "name": "push", "in": "body", "required": true,
                    "schema": {"$ref": "#/definitions/handler.TestPushRequest"}
                }],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "notifications.Envelope": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "collection": {"type": "string"},
                "op": {"type": "string"},
                "doc_id": {"type": "string"},
                "parent_id": {"type": "string"},
                "old": {"type": "object"},
                "new": {"type": "object"}
            }
        },
        "handler.TestPushRequest": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "title": {"type": "string"},
                "body": {"type": "string"},
                "silent": {"type": "boolean"},
                "data": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "respond.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "detail": {"type": "string"}
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "DriveMate Notify API",
	Description:      "Push notification engine for the DriveMate driving-school app: health, metrics, event ingress and admin operations.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
