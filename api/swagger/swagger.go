package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "TNMS API",
        "description": "Training nomination management service",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and token lifecycle"},
        {"name": "Sessions", "description": "Training session scheduling and lifecycle"},
        {"name": "Nominations", "description": "Nomination batch membership"},
        {"name": "Join", "description": "QR self-enrollment"}
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
                    "200": {"description": "Ready"},
                    "503": {"description": "Dependencies unavailable"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Tokens issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "Tokens refreshed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid refresh token"}
                }
            }
        },
        "/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List training sessions",
                "parameters": [
                    {"name": "program", "in": "query", "type": "string"},
                    {"name": "trainer", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["FORMING", "SCHEDULED", "COMPLETED"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Sessions with batch context", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sessions"],
                "summary": "Schedule a training session",
                "description": "Creates a FORMING nomination batch and its session in one transaction.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Session created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Program not found"}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Get a training session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Session detail", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/sessions/{id}/lock": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Lock a session's enrollment list",
                "description": "Moves the batch from FORMING to SCHEDULED. Re-locking a SCHEDULED batch succeeds without effect.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Batch scheduled"},
                    "404": {"description": "Session or batch not found"},
                    "409": {"description": "Batch already completed"}
                }
            }
        },
        "/sessions/{id}/roster": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Get a session's enrollment roster",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Roster entries", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/roster/export": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Export a session's roster",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "produces": ["text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "Roster file"}
                }
            }
        },
        "/nominations": {
            "get": {
                "tags": ["Nominations"],
                "summary": "List nominations",
                "parameters": [
                    {"name": "programId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["PENDING", "BATCHED"]},
                    {"name": "approval", "in": "query", "type": "string", "enum": ["PENDING", "APPROVED", "REJECTED"]},
                    {"name": "unbatched", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Nomination list", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/nominations/pending": {
            "get": {
                "tags": ["Nominations"],
                "summary": "List the nomination waitlist",
                "parameters": [
                    {"name": "programId", "in": "query", "type": "string"},
                    {"name": "approval", "in": "query", "type": "string", "enum": ["PENDING", "APPROVED", "REJECTED"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Unbatched nominations", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/nominations/{id}/batch": {
            "delete": {
                "tags": ["Nominations"],
                "summary": "Remove a nomination from its batch",
                "description": "Returns the nomination to the waitlist and clears its approval state.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "409": {"description": "Batch is locked"}
                }
            }
        },
        "/batches/{id}/nominations": {
            "post": {
                "tags": ["Nominations"],
                "summary": "Add nominations to a batch",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddToBatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-nomination outcome", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Batch is locked"}
                }
            }
        },
        "/join/{batchId}": {
            "post": {
                "tags": ["Join"],
                "summary": "Self-enroll by employee ID",
                "parameters": [
                    {"name": "batchId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/JoinRequest"}}
                ],
                "responses": {
                    "201": {"description": "Enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown employee or batch"},
                    "409": {"description": "Already enrolled"}
                }
            }
        },
        "/join/{batchId}/register": {
            "post": {
                "tags": ["Join"],
                "summary": "Register an unknown employee and enroll",
                "parameters": [
                    {"name": "batchId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Registered and enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already enrolled"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateSessionRequest": {
            "type": "object",
            "required": ["program_name", "trainer_name", "start_date", "end_date", "location"],
            "properties": {
                "program_name": {"type": "string"},
                "trainer_name": {"type": "string"},
                "start_date": {"type": "string", "format": "date-time"},
                "end_date": {"type": "string", "format": "date-time"},
                "location": {"type": "string"},
                "topics": {"type": "string"}
            }
        },
        "AddToBatchRequest": {
            "type": "object",
            "required": ["nomination_ids"],
            "properties": {
                "nomination_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "JoinRequest": {
            "type": "object",
            "required": ["emp_id"],
            "properties": {
                "emp_id": {"type": "string"}
            }
        },
        "RegisterRequest": {
            "type": "object",
            "required": ["emp_id", "name", "email", "department"],
            "properties": {
                "emp_id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "department": {"type": "string"},
                "manager_name": {"type": "string"},
                "manager_email": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"}
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
