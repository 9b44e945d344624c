package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CED Enrollment API",
        "description": "Payment-to-enrollment bridge: checkout links, payment webhooks and LMS enrollment",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Checkout", "description": "Payment link creation"},
        {"name": "Webhooks", "description": "Payment provider event intake"},
        {"name": "Enrollments", "description": "Direct student enrollment"},
        {"name": "Courses", "description": "Course catalog"},
        {"name": "Directory", "description": "LMS directory probes"}
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
        "/checkout": {
            "post": {
                "tags": ["Checkout"],
                "summary": "Create a one-time payment link",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckoutRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Provider unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/checkout/subscription": {
            "post": {
                "tags": ["Checkout"],
                "summary": "Create a recurring subscription link",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckoutRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Provider unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/webhooks/payments": {
            "post": {
                "tags": ["Webhooks"],
                "summary": "Receive a payment provider event",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProviderEvent"}}
                ],
                "responses": {
                    "200": {"description": "Event acknowledged"},
                    "400": {"description": "Malformed event"},
                    "502": {"description": "Enrollment failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a student directly",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Enrollment failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List the course catalog",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/courses/{name}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Get the offerings behind a course",
                "parameters": [
                    {"name": "name", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Unknown course", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/directory/token": {
            "get": {
                "tags": ["Directory"],
                "summary": "Probe LMS token acquisition",
                "responses": {
                    "200": {"description": "OK"},
                    "502": {"description": "Directory unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CheckoutRequest": {
            "type": "object",
            "required": ["nome", "whatsapp", "cursos"],
            "properties": {
                "nome": {"type": "string"},
                "email": {"type": "string"},
                "whatsapp": {"type": "string"},
                "cursos": {"type": "array", "items": {"type": "string"}}
            }
        },
        "EnrollmentRequest": {
            "type": "object",
            "required": ["nome", "whatsapp", "cursos"],
            "properties": {
                "nome": {"type": "string"},
                "email": {"type": "string"},
                "whatsapp": {"type": "string"},
                "cursos": {"type": "array", "items": {"type": "string"}},
                "transaction_id": {"type": "string"}
            }
        },
        "ProviderEvent": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "action": {"type": "string"},
                "data": {
                    "type": "object",
                    "properties": {
                        "id": {"type": "string"}
                    }
                }
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
