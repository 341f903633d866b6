package swagger

import (
	"strings"

	"github.com/swaggo/swag"
)

const basePathToken = "{{API_PREFIX}}"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Class Timetable API",
        "description": "Builds conflict-free weekly class timetables from course section catalogs.",
        "version": "1.0.0"
    },
    "basePath": "{{API_PREFIX}}",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetables", "description": "Generation, retrieval and export of timetables"},
        {"name": "Observability", "description": "Metrics snapshots"}
    ],
    "paths": {
        "/timetables/feasibility": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Check every course against the time restrictions without searching",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "Feasibility report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate and store a conflict-free timetable",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "VALIDATION_ERROR", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "SCHEDULE_INFEASIBLE or SCHEDULE_NOT_FOUND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "SEARCH_ABORTED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get a stored timetable with its weekly view",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timetables"],
                "summary": "Discard a stored timetable",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/export": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Download a stored timetable",
                "produces": ["application/json", "text/csv", "application/pdf", "text/calendar"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "pdf", "ics"], "default": "json"}
                ],
                "responses": {
                    "200": {"description": "File download", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cache/timetables": {
            "delete": {
                "tags": ["Timetables"],
                "summary": "Drop every memoized solver result",
                "responses": {
                    "204": {"description": "Flushed"},
                    "500": {"description": "Cache unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "Solver, cache and HTTP counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Session": {
            "type": "object",
            "required": ["courseReferenceNumber", "meetingScheduleType", "beginTime", "endTime", "daysOfWeek"],
            "properties": {
                "courseReferenceNumber": {"type": "string"},
                "meetingScheduleType": {"type": "string", "enum": ["LEC", "LAB", "TUT"]},
                "beginTime": {"type": "string", "example": "0940"},
                "endTime": {"type": "string", "example": "1100"},
                "daysOfWeek": {"type": "array", "items": {"type": "string", "enum": ["Monday", "Tuesday", "Wednesday", "Thursday", "Friday"]}},
                "room": {"type": "string"},
                "building": {"type": "string"},
                "campus": {"type": "string"},
                "displayName": {"type": "string"}
            }
        },
        "TimeRestrictions": {
            "type": "object",
            "properties": {
                "mondayStart": {"type": "string", "example": "0900"},
                "mondayEnd": {"type": "string", "example": "1700"},
                "tuesdayStart": {"type": "string"},
                "tuesdayEnd": {"type": "string"},
                "wednesdayStart": {"type": "string"},
                "wednesdayEnd": {"type": "string"},
                "thursdayStart": {"type": "string"},
                "thursdayEnd": {"type": "string"},
                "fridayStart": {"type": "string"},
                "fridayEnd": {"type": "string"}
            }
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "required": ["courses"],
            "properties": {
                "courses": {
                    "type": "object",
                    "description": "Course code to offered sessions; key order sets search order",
                    "additionalProperties": {"type": "array", "items": {"$ref": "#/definitions/Session"}}
                },
                "restrictions": {"$ref": "#/definitions/TimeRestrictions"},
                "mode": {"type": "string", "enum": ["first", "exhaustive"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
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

type swaggerDoc struct {
	basePath string
}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return strings.Replace(docTemplate, basePathToken, s.basePath, 1)
}

// Register publishes the document with routes rooted at apiPrefix.
func Register(apiPrefix string) {
	if apiPrefix == "" {
		apiPrefix = "/"
	}
	swag.Register(swag.Name, &swaggerDoc{basePath: apiPrefix})
}
