package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Section Scheduler API",
        "description": "Weekly classroom scheduling for course sections",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Schedule", "description": "Scheduling runs and the stored timetable"}
    ],
    "paths": {
        "/schedule/run": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Run the section scheduler",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/RunScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "Run finished, success=false when sections stay unscheduled", "schema": {"$ref": "#/definitions/RunReportEnvelope"}},
                    "400": {"description": "Invalid policy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Another run is in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Catalog has no sections", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/runs": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Queue a scheduling run",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/RunScheduleRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Run queue is full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/runs/latest": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Latest run report",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RunReportEnvelope"}},
                    "404": {"description": "No run yet", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Stored timetable ordered by day and start time",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/status": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Whether a schedule is stored",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/export": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Download the timetable",
                "produces": ["text/csv", "application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download", "schema": {"type": "file"}},
                    "400": {"description": "Unknown format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RunScheduleRequest": {
            "type": "object",
            "properties": {
                "policy": {"type": "string", "enum": ["commit-as-you-go", "atomic"]}
            }
        },
        "Assignment": {
            "type": "object",
            "properties": {
                "sectionId": {"type": "integer"},
                "classroomId": {"type": "integer"},
                "professorId": {"type": "integer"},
                "day": {"type": "string"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"}
            }
        },
        "UnscheduledSection": {
            "type": "object",
            "properties": {
                "sectionId": {"type": "integer"},
                "reason": {"type": "string"}
            }
        },
        "RunReport": {
            "type": "object",
            "properties": {
                "runId": {"type": "string"},
                "success": {"type": "boolean"},
                "policy": {"type": "string"},
                "sectionCount": {"type": "integer"},
                "assignments": {"type": "array", "items": {"$ref": "#/definitions/Assignment"}},
                "unscheduled": {"type": "array", "items": {"$ref": "#/definitions/UnscheduledSection"}},
                "commitFailures": {"type": "integer"},
                "rolledBack": {"type": "boolean"},
                "startedAt": {"type": "string", "format": "date-time"},
                "finishedAt": {"type": "string", "format": "date-time"}
            }
        },
        "RunReportEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/RunReport"},
                "error": {"$ref": "#/definitions/APIError"}
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
                "meta": {"type": "object"}
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
