// Package docs registers the OpenAPI document served under /swagger/.
// Regenerate with: swag init -g internal/platform/httpserver/server.go -d .,contexts/creative-works/work-governance -o internal/platform/httpserver/docs
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
        "/v1/authors": {
            "get": {"produces": ["application/json"], "tags": ["work-governance"], "summary": "List every registered author", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.ListAuthorsResponse"}}}},
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["work-governance"], "summary": "Register the caller as an author",
                "parameters": [{"description": "Author payload", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.CreateAuthorRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/httptransport.AuthorResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}}}
        },
        "/v1/authors/me": {
            "patch": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["work-governance"], "summary": "Update the caller's author record",
                "parameters": [{"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.UpdateAuthorRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.AuthorResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}}}
        },
        "/v1/authors/{author_id}": {
            "get": {"produces": ["application/json"], "tags": ["work-governance"], "summary": "Get one author",
                "parameters": [{"type": "string", "description": "Author id", "name": "author_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.AuthorResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}}},
            "delete": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["work-governance"], "summary": "Delete an author record",
                "parameters": [{"type": "string", "description": "Author id", "name": "author_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.ActionResponse"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}}}
        },
        "/v1/authors/{author_id}/works": {
            "get": {"produces": ["application/json"], "tags": ["work-governance"], "summary": "List an author's works",
                "parameters": [{"type": "string", "description": "Author id", "name": "author_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.ListWorksResponse"}}}}
        },
        "/v1/works": {
            "get": {"produces": ["application/json"], "tags": ["work-governance"], "summary": "List every work", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.ListWorksResponse"}}}},
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["work-governance"], "summary": "Publish a work",
                "parameters": [{"description": "Work payload", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.CreateWorkRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/httptransport.WorkResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}}}
        },
        "/v1/works/{work_id}": {
            "get": {"produces": ["application/json"], "tags": ["work-governance"], "summary": "Get one work",
                "parameters": [{"type": "string", "description": "Work id", "name": "work_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.WorkResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}}},
            "patch": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["work-governance"], "summary": "Update a work",
                "parameters": [{"type": "string", "description": "Work id", "name": "work_id", "in": "path", "required": true}, {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.UpdateWorkRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.WorkResponse"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}}},
            "delete": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["work-governance"], "summary": "Delete a work",
                "parameters": [{"type": "string", "description": "Work id", "name": "work_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.ActionResponse"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}}}
        },
        "/v1/works/{work_id}/ratings": {
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["work-governance"], "summary": "Rate a work from 0 to 5",
                "parameters": [{"type": "string", "description": "Work id", "name": "work_id", "in": "path", "required": true}, {"description": "Rating", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.RateWorkRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.RateWorkResponse"}}}}
        },
        "/v1/works/{work_id}/collaborators": {
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["work-governance"], "summary": "Add collaborators to a work",
                "parameters": [{"type": "string", "description": "Work id", "name": "work_id", "in": "path", "required": true}, {"description": "Proposed collaborators", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.AddCollaboratorsRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.ActionResponse"}}}}
        },
        "/v1/works/{work_id}/reports": {
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["work-governance"], "summary": "Report a work for infringement",
                "parameters": [{"type": "string", "description": "Work id", "name": "work_id", "in": "path", "required": true}, {"description": "Report", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.ReportInfringementRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.ActionResponse"}}}}
        },
        "/v1/works/{work_id}/distributions": {
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["work-governance"], "summary": "Split an attached payment between a work's participants",
                "parameters": [{"type": "string", "description": "Idempotency key", "name": "Idempotency-Key", "in": "header", "required": true}, {"type": "integer", "description": "Attached payment", "name": "X-Attached-Amount", "in": "header", "required": true}, {"type": "string", "description": "Work id", "name": "work_id", "in": "path", "required": true}, {"description": "Distribution", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.DistributeFundsRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.DistributionResponse"}}}}
        },
        "/v1/works/{work_id}/access": {
            "post": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["work-governance"], "summary": "Buy access to a work's content",
                "parameters": [{"type": "string", "description": "Idempotency key", "name": "Idempotency-Key", "in": "header", "required": true}, {"type": "integer", "description": "Attached payment, must equal the work fee", "name": "X-Attached-Amount", "in": "header", "required": true}, {"type": "string", "description": "Work id", "name": "work_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.AccessResponse"}}}}
        },
        "/v1/works/{work_id}/votes": {
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["work-governance"], "summary": "Vote in a work's open round",
                "parameters": [{"type": "string", "description": "Idempotency key", "name": "Idempotency-Key", "in": "header", "required": true}, {"type": "integer", "description": "Attached vote fee", "name": "X-Attached-Amount", "in": "header", "required": true}, {"type": "string", "description": "Work id", "name": "work_id", "in": "path", "required": true}, {"description": "Decision", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.VoteRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.VoteResponse"}}}}
        },
        "/v1/stats": {
            "get": {"produces": ["application/json"], "tags": ["work-governance"], "summary": "Count authors and works", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.StatsResponse"}}}}
        }
    },
    "definitions": {
        "httptransport.ErrorResponse": {"type": "object", "properties": {"code": {"type": "string"}, "message": {"type": "string"}}},
        "httptransport.CreateAuthorRequest": {"type": "object", "properties": {"name": {"type": "string"}, "age": {"type": "integer"}}},
        "httptransport.UpdateAuthorRequest": {"type": "object", "properties": {"name": {"type": "string"}, "age": {"type": "integer"}}},
        "httptransport.AuthorResponse": {"type": "object", "properties": {"item": {"type": "object"}}},
        "httptransport.ListAuthorsResponse": {"type": "object", "properties": {"items": {"type": "array", "items": {"type": "object"}}}},
        "httptransport.RatioDTO": {"type": "object", "properties": {"account_id": {"type": "string"}, "percentage": {"type": "integer"}}},
        "httptransport.CreateWorkRequest": {"type": "object", "properties": {"title": {"type": "string"}, "content": {"type": "string"}, "collaborators": {"type": "array", "items": {"type": "string"}}, "fee": {"type": "integer"}, "ratios": {"type": "array", "items": {"$ref": "#/definitions/httptransport.RatioDTO"}}}},
        "httptransport.UpdateWorkRequest": {"type": "object", "properties": {"title": {"type": "string"}, "content": {"type": "string"}, "fee": {"type": "integer"}, "average_rating": {"type": "number"}, "ratios": {"type": "array", "items": {"$ref": "#/definitions/httptransport.RatioDTO"}}}},
        "httptransport.WorkResponse": {"type": "object", "properties": {"item": {"type": "object"}}},
        "httptransport.ListWorksResponse": {"type": "object", "properties": {"items": {"type": "array", "items": {"type": "object"}}}},
        "httptransport.RateWorkRequest": {"type": "object", "properties": {"rating": {"type": "integer"}}},
        "httptransport.RateWorkResponse": {"type": "object"},
        "httptransport.AddCollaboratorsRequest": {"type": "object", "properties": {"collaborators": {"type": "array", "items": {"type": "string"}}}},
        "httptransport.ReportInfringementRequest": {"type": "object", "properties": {"reason": {"type": "string"}}},
        "httptransport.ActionResponse": {"type": "object", "properties": {"work_id": {"type": "string"}, "ok": {"type": "boolean"}}},
        "httptransport.DistributeFundsRequest": {"type": "object", "properties": {"total_amount": {"type": "integer"}, "ratios": {"type": "array", "items": {"$ref": "#/definitions/httptransport.RatioDTO"}}}},
        "httptransport.DistributionResponse": {"type": "object"},
        "httptransport.AccessResponse": {"type": "object"},
        "httptransport.VoteRequest": {"type": "object", "properties": {"decision": {"type": "boolean"}}},
        "httptransport.VoteResponse": {"type": "object"},
        "httptransport.StatsResponse": {"type": "object", "properties": {"authors": {"type": "integer"}, "works": {"type": "integer"}}}
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
	Title:            "Atelier Work Governance API",
	Description:      "Authors, works, ratings, consensus-gated changes and fund distribution.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
