package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Scholarship Intake API",
        "description": "Bulk and interactive scholarship application ingestion",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Applications", "description": "Application intake and suitability scoring"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/applications": {
            "post": {
                "tags": ["Applications"],
                "summary": "Submit a single application",
                "consumes": ["application/x-www-form-urlencoded", "multipart/form-data"],
                "parameters": [
                    {"name": "full_name", "in": "formData", "type": "string"},
                    {"name": "email_address", "in": "formData", "type": "string"},
                    {"name": "date_of_birth", "in": "formData", "type": "string"},
                    {"name": "scholarship_id", "in": "formData", "type": "integer"},
                    {"name": "academic_level", "in": "formData", "type": "string"},
                    {"name": "gpa", "in": "formData", "type": "string"},
                    {"name": "motivation_statement", "in": "formData", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SubmitResponse"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/FailureResponse"}},
                    "409": {"description": "Duplicate or capacity reached", "schema": {"$ref": "#/definitions/FailureResponse"}}
                }
            }
        },
        "/applications/bulk": {
            "post": {
                "tags": ["Applications"],
                "summary": "Bulk upload applications from CSV",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true},
                    {"name": "scholarship_id", "in": "formData", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Batch summary", "schema": {"$ref": "#/definitions/BulkResponse"}},
                    "400": {"description": "Pre-flight failure", "schema": {"$ref": "#/definitions/FailureResponse"}}
                }
            }
        },
        "/applications/bulk/template": {
            "get": {
                "tags": ["Applications"],
                "summary": "Download the bulk upload CSV template",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV template"}
                }
            }
        }
    },
    "definitions": {
        "RowOutcome": {
            "type": "object",
            "properties": {
                "row": {"type": "integer"},
                "status": {"type": "string", "enum": ["inserted", "duplicate", "error"]},
                "message": {"type": "string"},
                "email": {"type": "string"},
                "scholarship_id": {"type": "integer"}
            }
        },
        "BatchSummary": {
            "type": "object",
            "properties": {
                "inserted": {"type": "integer"},
                "duplicates": {"type": "integer"},
                "errors": {"type": "integer"},
                "rows": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/RowOutcome"}
                }
            }
        },
        "BreakdownItem": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "points": {"type": "integer"}
            }
        },
        "SubmitResult": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "suitability_percent": {"type": "integer"},
                "suitability_breakdown": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/BreakdownItem"}
                }
            }
        },
        "SubmitResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"$ref": "#/definitions/SubmitResult"}
            }
        },
        "BulkResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "summary": {"$ref": "#/definitions/BatchSummary"}
            }
        },
        "FailureResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "code": {"type": "string"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
