package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Classroom API",
        "description": "Tutoring backend behind the messaging-bot gateway",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Gateway token exchange"},
        {"name": "Teachers", "description": "Teacher accounts"},
        {"name": "Students", "description": "Roster management"},
        {"name": "Groups", "description": "Groups and membership"},
        {"name": "Homeworks", "description": "Homework catalog"},
        {"name": "Assignments", "description": "Assignment fan-out and status"},
        {"name": "Submissions", "description": "Submission lifecycle"},
        {"name": "Billing", "description": "Payments and subscriptions"},
        {"name": "Lessons", "description": "Lesson scheduling"},
        {"name": "Parents", "description": "Parent accounts and reports"}
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
        "/auth/token": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a messaging identity for a JWT (gateway key required)",
                "parameters": [
                    {"name": "X-Gateway-Key", "in": "header", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers": {
            "post": {
                "tags": ["Teachers"],
                "summary": "Register a teacher",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterTeacherRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/me": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Acting teacher profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/me/subscription": {
            "get": {
                "tags": ["Billing"],
                "summary": "Current plan, quotas and usage",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List the roster with balances",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Add a student to the roster",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Plan limit exceeded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get one student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/attach": {
            "post": {
                "tags": ["Students"],
                "summary": "Attach a messaging identity to a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AttachStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/groups": {
            "get": {
                "tags": ["Groups"],
                "summary": "List groups with member counts",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Groups"],
                "summary": "Create a group",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateGroupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Plan limit exceeded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/groups/{id}/members": {
            "get": {
                "tags": ["Groups"],
                "summary": "List group members",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/groups/{id}/members/{studentId}": {
            "put": {
                "tags": ["Groups"],
                "summary": "Add a student to a group",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "studentId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "No content"},
                    "409": {"description": "Already a member", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Groups"],
                "summary": "Remove a student from a group",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "studentId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "No content"},
                    "404": {"description": "Not a member", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/homeworks": {
            "get": {
                "tags": ["Homeworks"],
                "summary": "List homeworks",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "library", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Homeworks"],
                "summary": "Author a homework template",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateHomeworkRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/homeworks/{id}": {
            "get": {
                "tags": ["Homeworks"],
                "summary": "Get one homework",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List assignments",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign a homework to a student or group",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignHomeworkRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Empty target", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/{id}/submissions": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Per-student status of an assignment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions": {
            "get": {
                "tags": ["Submissions"],
                "summary": "List the acting student's submissions",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions/{id}/file": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Hand in a submission",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "file", "in": "formData", "type": "file"},
                    {"name": "content", "in": "formData", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Deadline passed or already submitted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions/{id}/grade": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Grade a submission",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions/{id}/download-token": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Issue a signed download link for an uploaded file",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions/download": {
            "get": {
                "tags": ["Submissions"],
                "summary": "Download an uploaded file via a signed token",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "401": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payments": {
            "get": {
                "tags": ["Billing"],
                "summary": "List recorded payments",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Billing"],
                "summary": "Record a lesson-balance payment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordPaymentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payments/export": {
            "get": {
                "tags": ["Billing"],
                "summary": "Export the payment ledger as CSV",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV attachment"}
                }
            }
        },
        "/billing/subscription": {
            "post": {
                "tags": ["Billing"],
                "summary": "Start a PRO subscription purchase",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/billing/subscription/confirm": {
            "post": {
                "tags": ["Billing"],
                "summary": "Apply a confirmed subscription payment (gateway key required)",
                "parameters": [
                    {"name": "X-Gateway-Key", "in": "header", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConfirmSubscriptionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already confirmed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lessons": {
            "get": {
                "tags": ["Lessons"],
                "summary": "List upcoming lessons",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Lessons"],
                "summary": "Schedule a lesson",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleLessonRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lessons/{id}": {
            "delete": {
                "tags": ["Lessons"],
                "summary": "Cancel a scheduled lesson",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "No content"}
                }
            }
        },
        "/parents": {
            "post": {
                "tags": ["Parents"],
                "summary": "Register a parent account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterParentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/children": {
            "get": {
                "tags": ["Parents"],
                "summary": "List linked children",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Parents"],
                "summary": "Link a child to the acting parent",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LinkChildRequest"}}
                ],
                "responses": {
                    "204": {"description": "No content"}
                }
            }
        },
        "/children/report": {
            "get": {
                "tags": ["Parents"],
                "summary": "Progress report across linked children",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/children/report/pdf": {
            "get": {
                "tags": ["Parents"],
                "summary": "Progress report rendered as PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF attachment"}
                }
            }
        }
    },
    "definitions": {
        "TokenRequest": {
            "type": "object",
            "properties": {
                "external_id": {"type": "string"},
                "role": {"type": "string", "enum": ["teacher", "student", "parent"]}
            },
            "required": ["external_id", "role"]
        },
        "RegisterTeacherRequest": {
            "type": "object",
            "properties": {
                "external_id": {"type": "string"},
                "name": {"type": "string"}
            },
            "required": ["external_id", "name"]
        },
        "CreateStudentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "external_id": {"type": "string"},
                "price_per_lesson": {"type": "integer"}
            },
            "required": ["name"]
        },
        "AttachStudentRequest": {
            "type": "object",
            "properties": {
                "external_id": {"type": "string"}
            },
            "required": ["external_id"]
        },
        "CreateGroupRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"}
            },
            "required": ["title"]
        },
        "CreateHomeworkRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"},
                "max_score": {"type": "integer"},
                "save_to_library": {"type": "boolean"}
            },
            "required": ["title"]
        },
        "AssignHomeworkRequest": {
            "type": "object",
            "properties": {
                "homework_id": {"type": "string"},
                "target_type": {"type": "string", "enum": ["student", "group"]},
                "target_id": {"type": "string"},
                "deadline": {"type": "string", "format": "date-time"}
            },
            "required": ["homework_id", "target_type", "target_id"]
        },
        "GradeRequest": {
            "type": "object",
            "properties": {
                "score": {"type": "integer"},
                "comment": {"type": "string"}
            },
            "required": ["score"]
        },
        "RecordPaymentRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "amount": {"type": "integer"},
                "lessons_added": {"type": "integer"},
                "comment": {"type": "string"}
            },
            "required": ["student_id", "amount", "lessons_added"]
        },
        "ConfirmSubscriptionRequest": {
            "type": "object",
            "properties": {
                "provider_payment_id": {"type": "string"}
            },
            "required": ["provider_payment_id"]
        },
        "ScheduleLessonRequest": {
            "type": "object",
            "properties": {
                "topic": {"type": "string"},
                "start_time": {"type": "string", "format": "date-time"},
                "group_id": {"type": "string"},
                "student_id": {"type": "string"}
            },
            "required": ["topic", "start_time"]
        },
        "RegisterParentRequest": {
            "type": "object",
            "properties": {
                "external_id": {"type": "string"},
                "name": {"type": "string"}
            },
            "required": ["external_id", "name"]
        },
        "LinkChildRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"}
            },
            "required": ["student_id"]
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
