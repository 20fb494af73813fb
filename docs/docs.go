// Package docs registers the OpenAPI description of the mistyd HTTP API with
// swag, so http-swagger can serve it at /swagger/doc.json.
//
// Keep the template in step with the @-annotations on the handlers in
// internal/transport/http.
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
        "/stt": {
            "post": {
                "description": "Accepts a multipart form with the recording in field \"file\", or the raw audio bytes as the request body.",
                "consumes": ["multipart/form-data", "audio/wav", "audio/ogg"],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Submit audio for transcription and answering",
                "parameters": [
                    {"type": "file", "description": "Audio recording", "name": "file", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.SubmitResponse"}},
                    "400": {"description": "Missing or empty audio", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "413": {"description": "Upload too large", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/status/{id}": {
            "get": {
                "description": "Returns the job record. Poll until status is \"done\" or \"error\".",
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Get a job",
                "parameters": [
                    {"type": "string", "description": "Job ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/job.Record"}},
                    "404": {"description": "Job not found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "List jobs",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dispatch.JobList"}}
                }
            }
        },
        "/events": {
            "get": {
                "description": "Returns buffered job events with a sequence number greater than \"since\".",
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Poll job events",
                "parameters": [
                    {"type": "integer", "description": "Last sequence number seen", "name": "since", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/job.Event"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/ask": {
            "post": {
                "description": "Runs the question through the prompt engine synchronously, skipping speech-to-text.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["assistant"],
                "summary": "Ask a text question",
                "parameters": [
                    {"description": "Question", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.AskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dispatch.Answer"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/test": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["assistant"],
                "summary": "Connectivity check",
                "parameters": [
                    {"description": "Message", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.EchoRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.EchoResponse"}}
                }
            }
        },
        "/action": {
            "post": {
                "description": "The robot announces \"Performing <action>\".",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["robot"],
                "summary": "Perform a manual robot action",
                "parameters": [
                    {"description": "Action", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.ActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ActionResponse"}},
                    "400": {"description": "No action provided", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.SubmitResponse": {
            "type": "object",
            "properties": {
                "job_id": {"type": "string", "example": "6f1c2a4e-8a1b-4f5e-9d2c-3b7a1e0c9f42"},
                "status": {"type": "string", "example": "received"}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "boolean", "example": true},
                "message": {"type": "string", "example": "Job not found"}
            }
        },
        "http.AskRequest": {
            "type": "object",
            "properties": {
                "question": {"type": "string", "example": "explain recursion with example"}
            }
        },
        "http.EchoRequest": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "hello"}
            }
        },
        "http.EchoResponse": {
            "type": "object",
            "properties": {
                "reply": {"type": "string", "example": "Server received: hello"}
            }
        },
        "http.ActionRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string", "example": "wave"}
            }
        },
        "http.ActionResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"}
            }
        },
        "job.Record": {
            "type": "object",
            "properties": {
                "job_id": {"type": "string"},
                "status": {"type": "string", "enum": ["received", "transcribing", "thinking", "done", "error"]},
                "text": {"type": "string"},
                "language": {"type": "string"},
                "response": {"type": "string"},
                "error": {"type": "string"},
                "warning": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "job.Summary": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "received": {"type": "integer"},
                "transcribing": {"type": "integer"},
                "thinking": {"type": "integer"},
                "done": {"type": "integer"},
                "error": {"type": "integer"}
            }
        },
        "job.Event": {
            "type": "object",
            "properties": {
                "seq": {"type": "integer"},
                "timestamp": {"type": "string", "format": "date-time"},
                "job_id": {"type": "string"},
                "type": {"type": "string", "enum": ["status", "result", "error"]},
                "status": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "dispatch.JobList": {
            "type": "object",
            "properties": {
                "summary": {"$ref": "#/definitions/job.Summary"},
                "jobs": {"type": "array", "items": {"$ref": "#/definitions/job.Record"}}
            }
        },
        "dispatch.Answer": {
            "type": "object",
            "properties": {
                "question": {"type": "string"},
                "directives": {"type": "array", "items": {"type": "string"}},
                "response": {"type": "string"},
                "fallback": {"type": "boolean"},
                "warning": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "mistyd API",
	Description:      "Voice assistant backend for the Misty robot: speech-to-text, LLM answers and job tracking.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
