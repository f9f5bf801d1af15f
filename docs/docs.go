// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with `swag init -g cmd/api/main.go -o docs` after changing handler annotations.
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
        "/auth/me": {"get": {"tags": ["Auth"], "summary": "Get current user", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.UserDTO"}}}}},
        "/users": {
            "get": {"tags": ["Users"], "summary": "List users", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Users"], "summary": "Create user", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.UserDTO"}}}}
        },
        "/users/{id}": {
            "get": {"tags": ["Users"], "summary": "Get user", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.UserDTO"}}}},
            "put": {"tags": ["Users"], "summary": "Update user profile", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.UserDTO"}}}},
            "delete": {"tags": ["Users"], "summary": "Delete user", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "transferUserId", "in": "query"}], "responses": {"204": {"description": "No Content"}}}
        },
        "/users/{id}/role": {"put": {"tags": ["Users"], "summary": "Change user role", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.UserDTO"}}}}},
        "/users/{id}/active": {"put": {"tags": ["Users"], "summary": "Activate or deactivate user", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.UserDTO"}}}}},
        "/contacts": {
            "get": {"tags": ["Contacts"], "summary": "List contacts", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Contacts"], "summary": "Create contact", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/contacts/{id}": {
            "get": {"tags": ["Contacts"], "summary": "Get contact", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Contacts"], "summary": "Update contact", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Contacts"], "summary": "Delete contact", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/leads": {
            "get": {"tags": ["Leads"], "summary": "List leads", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Leads"], "summary": "Create lead", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/leads/{id}": {
            "get": {"tags": ["Leads"], "summary": "Get lead", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Leads"], "summary": "Update lead", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Leads"], "summary": "Delete lead", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/leads/{id}/convert": {"post": {"tags": ["Leads"], "summary": "Convert lead to deal", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}}}},
        "/deals": {
            "get": {"tags": ["Deals"], "summary": "List deals", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Deals"], "summary": "Create deal", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/deals/{id}": {
            "get": {"tags": ["Deals"], "summary": "Get deal", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Deals"], "summary": "Update deal", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Deals"], "summary": "Delete deal", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/deals/{id}/stage": {"post": {"tags": ["Deals"], "summary": "Move deal stage", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/deals/{id}/history": {"get": {"tags": ["Deals"], "summary": "Get deal stage history", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/activities": {
            "get": {"tags": ["Activities"], "summary": "List activities", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Activities"], "summary": "Create activity", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/activities/{id}": {
            "get": {"tags": ["Activities"], "summary": "Get activity", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Activities"], "summary": "Update activity", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "patch": {"tags": ["Activities"], "summary": "Set activity completion", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Activities"], "summary": "Delete activity", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/reports/pipeline": {"get": {"tags": ["Reports"], "summary": "Pipeline summary", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/reports/activities": {"get": {"tags": ["Reports"], "summary": "Activity statistics", "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "responses": {"200": {"description": "OK"}}}}
    },
    "definitions": {
        "domain.UserDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["ADMIN", "MANAGER", "REP", "READ_ONLY"]},
                "isActive": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "x-api-key", "in": "header"},
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Straye CRM API",
	Description:      "Contacts, leads, deal pipeline and activities with role-based access.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
