package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Beasiswa API",
        "description": "Scholarship program management for senior high school students",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, tokens and password management"},
        {"name": "Students", "description": "Student accounts and profiles"},
        {"name": "Programs", "description": "Scholarship programs and document requirements"},
        {"name": "Applications", "description": "Application lifecycle and status workflow"},
        {"name": "Documents", "description": "Document uploads and reviews"},
        {"name": "ServiceReports", "description": "Community service reporting"},
        {"name": "Disbursements", "description": "Payouts and report exports"},
        {"name": "Notifications", "description": "In-app student notifications"},
        {"name": "Dashboard", "description": "Cached admin statistics"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid refresh token"}
                }
            }
        },
        "/students/register": {
            "post": {
                "tags": ["Students"],
                "summary": "Register a student account",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List student profiles",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/programs": {
            "get": {
                "tags": ["Programs"],
                "summary": "List scholarship programs",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Programs"],
                "summary": "Create scholarship program",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/programs/{id}/requirements": {
            "post": {
                "tags": ["Programs"],
                "summary": "Add a document requirement",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/applications": {
            "get": {
                "tags": ["Applications"],
                "summary": "List applications",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Applications"],
                "summary": "Start a draft application",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Duplicate application"}
                }
            }
        },
        "/applications/{id}/submit": {
            "post": {
                "tags": ["Applications"],
                "summary": "Submit a draft application",
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Not in draft"}
                }
            }
        },
        "/applications/{id}/status": {
            "patch": {
                "tags": ["Applications"],
                "summary": "Update application status",
                "responses": {
                    "200": {"description": "OK"},
                    "422": {"description": "Unknown status"}
                }
            }
        },
        "/applications/{id}/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "List documents for an application",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Documents"],
                "summary": "Upload a document",
                "consumes": ["multipart/form-data"],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/documents/{id}/review": {
            "patch": {
                "tags": ["Documents"],
                "summary": "Review a document upload",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Missing rejection reason"}
                }
            }
        },
        "/documents/{id}/download-url": {
            "get": {
                "tags": ["Documents"],
                "summary": "Issue a signed download token",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/documents/download": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download an uploaded document",
                "responses": {
                    "200": {"description": "File"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/applications/{id}/service-reports": {
            "post": {
                "tags": ["ServiceReports"],
                "summary": "Submit community service days",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Quota exceeded"}
                }
            }
        },
        "/applications/{id}/service-progress": {
            "get": {
                "tags": ["ServiceReports"],
                "summary": "Get service quota progress",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/service-reports/{id}/review": {
            "patch": {
                "tags": ["ServiceReports"],
                "summary": "Review a service report",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/service-reports/bulk-review": {
            "post": {
                "tags": ["ServiceReports"],
                "summary": "Review several reports with one decision",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/disbursements": {
            "get": {
                "tags": ["Disbursements"],
                "summary": "List disbursements",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Disbursements"],
                "summary": "Create a disbursement",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Application not eligible"}
                }
            }
        },
        "/disbursements/{id}/status": {
            "patch": {
                "tags": ["Disbursements"],
                "summary": "Update disbursement status",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/disbursements/export": {
            "post": {
                "tags": ["Disbursements"],
                "summary": "Queue a disbursement export",
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/disbursements/export/{id}": {
            "get": {
                "tags": ["Disbursements"],
                "summary": "Get export job status",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/disbursements/export/download": {
            "get": {
                "tags": ["Disbursements"],
                "summary": "Download a finished export",
                "responses": {
                    "200": {"description": "File"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List notifications",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/dashboard/stats": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Admin dashboard statistics",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
