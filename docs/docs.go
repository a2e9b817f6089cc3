// Package docs registers the OpenAPI description served at /swagger/*.
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
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {
                        "description": "Login credentials",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.loginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"SessionCookie": []}],
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"SessionCookie": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Principal"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/deliveries": {
            "post": {
                "security": [{"SessionCookie": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["deliveries"],
                "summary": "Create a delivery",
                "parameters": [
                    {
                        "description": "Delivery details",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.createDeliveryRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Delivery"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/deliveries/{display_id}": {
            "get": {
                "security": [{"SessionCookie": []}],
                "produces": ["application/json"],
                "tags": ["deliveries"],
                "summary": "Get a delivery by display id",
                "parameters": [
                    {"type": "string", "description": "Display id (e.g. 2501170004)", "name": "display_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Delivery"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"SessionCookie": []}],
                "tags": ["deliveries"],
                "summary": "Delete a delivery",
                "parameters": [
                    {"type": "string", "description": "Display id", "name": "display_id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/deliveries/{display_id}/status": {
            "patch": {
                "security": [{"SessionCookie": []}],
                "description": "Staff may only update deliveries that are unassigned or assigned to them.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["deliveries"],
                "summary": "Update a delivery's status",
                "parameters": [
                    {"type": "string", "description": "Display id", "name": "display_id", "in": "path", "required": true},
                    {
                        "description": "New status",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.updateStatusRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Delivery"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/audit": {
            "get": {
                "security": [{"SessionCookie": []}],
                "description": "Newest first. action and username are case-insensitive substring filters; date_to is inclusive.",
                "produces": ["application/json"],
                "tags": ["audit"],
                "summary": "Browse the audit trail",
                "parameters": [
                    {"type": "string", "description": "Action filter", "name": "action", "in": "query"},
                    {"type": "string", "description": "Username filter", "name": "username", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "date_from", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "date_to", "in": "query"},
                    {"type": "integer", "description": "Page (1-based)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (default 50)", "name": "per_page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/audit/export": {
            "get": {
                "security": [{"SessionCookie": []}],
                "produces": ["text/csv"],
                "tags": ["audit"],
                "summary": "Export the audit trail as CSV",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/deliveries/unassigned": {
            "get": {
                "security": [{"SessionCookie": []}],
                "description": "The 20 newest deliveries without a delivery person.",
                "produces": ["application/json"],
                "tags": ["deliveries"],
                "summary": "List unassigned deliveries",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/deliveries/export/{period}": {
            "get": {
                "security": [{"SessionCookie": []}],
                "produces": ["text/csv"],
                "tags": ["deliveries"],
                "summary": "Export deliveries as CSV",
                "parameters": [
                    {"type": "string", "description": "daily, weekly, monthly, yearly or all", "name": "period", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/users": {
            "get": {
                "security": [{"SessionCookie": []}],
                "description": "Active accounts first, then by username. Password hashes are never returned.",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List user accounts",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Principal": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "username": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "staff", "user"]}
            }
        },
        "domain.Delivery": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "display_id": {"type": "string"},
                "sender_name": {"type": "string"},
                "sender_phone": {"type": "string"},
                "recipient_name": {"type": "string"},
                "recipient_phone": {"type": "string"},
                "recipient_address": {"type": "string"},
                "delivery_person": {"type": "string"},
                "goods_type": {"type": "string"},
                "quantity": {"type": "integer"},
                "amount": {"type": "number"},
                "expenses": {"type": "number"},
                "payment_by": {"type": "string"},
                "status": {"type": "string", "enum": ["Pending", "In Transit", "Delivered"]},
                "created_at": {"type": "string"},
                "created_by": {"type": "string"}
            }
        },
        "handler.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.loginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.Principal"}
            }
        },
        "handler.createDeliveryRequest": {
            "type": "object",
            "required": ["sender_name", "sender_phone", "recipient_name", "recipient_phone", "recipient_address", "goods_type"],
            "properties": {
                "sender_name": {"type": "string"},
                "sender_phone": {"type": "string"},
                "recipient_name": {"type": "string"},
                "recipient_phone": {"type": "string"},
                "recipient_address": {"type": "string"},
                "goods_type": {"type": "string"},
                "quantity": {"type": "integer"},
                "amount": {"type": "number"},
                "payment_by": {"type": "string"},
                "status": {"type": "string", "enum": ["Pending", "In Transit", "Delivered"]}
            }
        },
        "handler.updateStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["Pending", "In Transit", "Delivered"]},
                "delivery_person": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "SessionCookie": {"type": "apiKey", "name": "opsdesk_session", "in": "cookie"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Ops Dashboard API",
	Description:      "Sessions, role checks, delivery records and the audit trail of the delivery operations dashboard.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
