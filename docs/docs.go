// Package docs holds the Swagger document served at /swagger. Keep it in
// sync with the godoc annotations on the handlers.
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
        "/admin/poems": {
            "get": {
                "description": "Returns every stored poem with its deletion key and serve counters.\nA weak ETag changes whenever a poem is added, removed or served.",
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Dump all poems",
                "operationId": "adminListPoems",
                "parameters": [
                    {"type": "string", "description": "Moderation token", "name": "X-Admin-Token", "in": "header", "required": true},
                    {"type": "integer", "description": "1-based page number", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size; omit for everything", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.AdminPoemsResponse"}},
                    "304": {"description": "Not modified"},
                    "401": {"description": "Missing token", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "403": {"description": "Wrong token", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/poems/recent": {
            "get": {
                "description": "Returns the recently served poems, oldest first, with deletion keys.",
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List recently shown poems",
                "operationId": "adminRecentPoems",
                "parameters": [
                    {"type": "string", "description": "Moderation token", "name": "X-Admin-Token", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.AdminPoemsResponse"}},
                    "401": {"description": "Missing token", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "403": {"description": "Wrong token", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/commands": {
            "post": {
                "description": "Executes a bot command as if it was typed in chat. Either set \"command\" and \"text\",\nor leave \"command\" empty and put a raw line such as \"!haiku with=frog\" in \"text\".",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Commands"],
                "summary": "Run a chat command",
                "operationId": "runCommand",
                "parameters": [
                    {"type": "string", "description": "Caller nick when not in the body", "name": "X-Nick", "in": "header"},
                    {"description": "Command", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/chat.Message"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CommandResponse"}},
                    "400": {"description": "Bad request or unknown command", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "403": {"description": "Moderator command from a non-moderator", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/poems/{type}": {
            "post": {
                "description": "Stores a poem and returns its one-time deletion key. Lines are separated by \"/\".\nSupports idempotency via the Idempotency-Key header (same nick and key → same result).\nA keyed submission must send its nick in X-Nick; a body nick that differs from X-Nick is rejected.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Poems"],
                "summary": "Submit a poem",
                "operationId": "submitPoem",
                "parameters": [
                    {"enum": ["haiku", "tanka", "limerick"], "type": "string", "description": "Poem type", "name": "type", "in": "path", "required": true},
                    {"type": "string", "description": "Submitter nick; required with Idempotency-Key", "name": "X-Nick", "in": "header"},
                    {"type": "string", "description": "Idempotency key for safe retries", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Poem payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SubmitPoemRequest"}}
                ],
                "responses": {
                    "200": {"description": "Replayed submission", "schema": {"$ref": "#/definitions/handlers.SubmitPoemResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.SubmitPoemResponse"}},
                    "400": {"description": "Bad request, nick mismatch or wrong line count", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Unknown poem type", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/poems/{type}/random": {
            "get": {
                "description": "Picks uniformly among the five least recently served poems of the type,\noptionally filtered by a case-sensitive substring and/or the submitter.",
                "produces": ["application/json"],
                "tags": ["Poems"],
                "summary": "Fetch a random poem",
                "operationId": "randomPoem",
                "parameters": [
                    {"enum": ["haiku", "tanka", "limerick"], "type": "string", "description": "Poem type", "name": "type", "in": "path", "required": true},
                    {"type": "string", "description": "Substring the content must contain", "name": "with", "in": "query"},
                    {"type": "string", "description": "Exact submitter nick", "name": "by", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RandomPoemResponse"}},
                    "404": {"description": "Unknown type or no matching poem", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/poems/{type}/{key}": {
            "delete": {
                "description": "Removes the poem of the given type whose deletion key matches. The key is the only credential.",
                "tags": ["Poems"],
                "summary": "Delete a poem by its deletion key",
                "operationId": "deletePoem",
                "parameters": [
                    {"enum": ["haiku", "tanka", "limerick"], "type": "string", "description": "Poem type", "name": "type", "in": "path", "required": true},
                    {"type": "string", "description": "Deletion key", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "No poem with that key", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "chat.Message": {
            "type": "object",
            "required": ["nick"],
            "properties": {
                "channel": {"type": "string"},
                "command": {"type": "string"},
                "nick": {"type": "string"},
                "text": {"type": "string"},
                "user": {"type": "string"}
            }
        },
        "chat.Reply": {
            "type": "object",
            "properties": {
                "private": {"type": "boolean"},
                "target": {"type": "string"},
                "text": {"type": "string"}
            }
        },
        "domain.Poem": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "id": {"type": "string"},
                "last_served": {"type": "string"},
                "poem_type": {"type": "string"},
                "submitted_by": {"type": "string"},
                "submitted_time": {"type": "string"},
                "times_served": {"type": "integer"}
            }
        },
        "handlers.AdminPoem": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "deletion_key": {"type": "string", "example": "QwErTyUiOpAsDfGh"},
                "display": {"type": "string"},
                "id": {"type": "string"},
                "last_served": {"type": "string"},
                "poem_type": {"type": "string"},
                "submitted_by": {"type": "string"},
                "submitted_time": {"type": "string"},
                "times_served": {"type": "integer"}
            }
        },
        "handlers.AdminPoemsResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "page": {"$ref": "#/definitions/utils.Page"},
                "poems": {"type": "array", "items": {"$ref": "#/definitions/handlers.AdminPoem"}}
            }
        },
        "handlers.CommandResponse": {
            "type": "object",
            "properties": {
                "replies": {"type": "array", "items": {"$ref": "#/definitions/chat.Reply"}}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "not_found"},
                "message": {"type": "string", "example": "No matching haiku found. Submit one!"},
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"}
            }
        },
        "handlers.RandomPoemResponse": {
            "type": "object",
            "properties": {
                "poem": {"$ref": "#/definitions/domain.Poem"},
                "text": {"type": "string"}
            }
        },
        "handlers.SubmitPoemRequest": {
            "type": "object",
            "required": ["content"],
            "properties": {
                "content": {"type": "string", "example": "an old silent pond/a frog jumps into the pond/splash! silence again"},
                "nick": {"type": "string", "example": "alice"}
            }
        },
        "handlers.SubmitPoemResponse": {
            "type": "object",
            "properties": {
                "deletion_key": {"type": "string", "example": "QwErTyUiOpAsDfGh"},
                "id": {"type": "string", "example": "7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab"}
            }
        },
        "utils.Page": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Poem Bot API",
	Description:      "Chat poem bot: submit, fetch and delete haiku, tanka and limericks.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
