package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness probe",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "{status, timestamp, uptime}"}
                }
            }
        },
        "/health/detailed": {
            "get": {
                "tags": ["health"],
                "summary": "Store, redis and SMTP status",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "All dependencies reachable"},
                    "503": {"description": "A dependency is down"}
                }
            }
        },
        "/projects": {
            "get": {
                "tags": ["projects"],
                "summary": "List projects",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Projects, system projects first"}}
            },
            "post": {
                "tags": ["projects"],
                "summary": "Create a new project",
                "consumes": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateProjectRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created project"},
                    "400": {"description": "Invalid input"}
                }
            }
        },
        "/projects/{id}": {
            "patch": {
                "tags": ["projects"],
                "summary": "Rename a project or change its icon",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateProjectRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Updated project"},
                    "403": {"description": "System project"},
                    "404": {"description": "Project not found"}
                }
            },
            "delete": {
                "tags": ["projects"],
                "summary": "Delete a project and all of its tasks",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "{id, tasksRemoved}"},
                    "403": {"description": "System project"},
                    "404": {"description": "Project not found"}
                }
            }
        },
        "/tasks": {
            "get": {
                "tags": ["tasks"],
                "summary": "List tasks",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "projectId", "type": "string"}
                ],
                "responses": {"200": {"description": "Tasks by order"}}
            },
            "post": {
                "tags": ["tasks"],
                "summary": "Create a task",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {"$ref": "#/definitions/Task"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created task"},
                    "400": {"description": "Invalid input"}
                }
            }
        },
        "/tasks/{id}": {
            "get": {
                "tags": ["tasks"],
                "summary": "Get task by ID",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Task"},
                    "404": {"description": "Task not found"}
                }
            },
            "patch": {
                "tags": ["tasks"],
                "summary": "Partially update a task",
                "description": "Absent fields are left untouched, null clears nullable fields",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {"$ref": "#/definitions/Task"}
                    }
                ],
                "responses": {
                    "200": {"description": "Updated task"},
                    "400": {"description": "Invalid input"},
                    "404": {"description": "Task not found"}
                }
            },
            "delete": {
                "tags": ["tasks"],
                "summary": "Delete a task",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "{id}"},
                    "404": {"description": "Task not found"}
                }
            }
        },
        "/tasks/sync": {
            "post": {
                "tags": ["tasks"],
                "summary": "Replace every task",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "{tasksCount, remindersCount}"},
                    "400": {"description": "Invalid task"}
                }
            }
        },
        "/tasks/reorder": {
            "post": {
                "tags": ["tasks"],
                "summary": "Move a task within its project",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Project tasks in their new order"},
                    "400": {"description": "Index out of range"}
                }
            }
        },
        "/smtp/settings": {
            "get": {
                "tags": ["settings"],
                "summary": "Current SMTP settings without the password",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Settings"}}
            },
            "post": {
                "tags": ["settings"],
                "summary": "Save SMTP settings and test the connection",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {"$ref": "#/definitions/SmtpSettingsRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "{configured, testResult}"},
                    "400": {"description": "Invalid input"}
                }
            }
        },
        "/smtp/test": {
            "post": {
                "tags": ["settings"],
                "summary": "Verify the SMTP connection",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "{success, error}"}}
            }
        },
        "/smtp/test-email": {
            "post": {
                "tags": ["settings"],
                "summary": "Send a sample reminder",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Sent"},
                    "400": {"description": "No recipient"},
                    "502": {"description": "SMTP failure"}
                }
            }
        },
        "/reminders": {
            "get": {
                "tags": ["reminders"],
                "summary": "List pending reminders",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Unsent reminders"}}
            }
        },
        "/reminders/send/{taskId}": {
            "post": {
                "tags": ["reminders"],
                "summary": "Send a task reminder now",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "taskId", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Sent"},
                    "400": {"description": "Reminder disabled or no recipient"},
                    "404": {"description": "Task not found"},
                    "502": {"description": "SMTP failure"}
                }
            }
        },
        "/reminders/sweep": {
            "post": {
                "tags": ["reminders"],
                "summary": "Run a reminder sweep now",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "{due, sent, failed, skipped, orphaned}"},
                    "409": {"description": "Sweep already running"}
                }
            }
        }
    },
    "definitions": {
        "CreateProjectRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "example": "Work"},
                "icon": {"type": "string", "example": "briefcase"}
            }
        },
        "Task": {
            "type": "object",
            "required": ["title", "projectId"],
            "properties": {
                "title": {"type": "string", "example": "Pay rent"},
                "projectId": {"type": "string"},
                "completed": {"type": "boolean"},
                "order": {"type": "integer"},
                "dueDate": {"type": "integer", "description": "epoch milliseconds"},
                "priority": {"type": "string", "enum": ["low", "medium", "high"]},
                "reminderEnabled": {"type": "boolean"},
                "reminderTime": {"type": "integer", "description": "epoch milliseconds"},
                "userEmail": {"type": "string", "example": "me@example.com"}
            }
        },
        "SmtpSettingsRequest": {
            "type": "object",
            "required": ["host", "port", "user", "pass"],
            "properties": {
                "host": {"type": "string", "example": "smtp.gmail.com"},
                "port": {"type": "integer", "example": 587},
                "user": {"type": "string", "example": "me@example.com"},
                "pass": {"type": "string"},
                "fromEmail": {"type": "string"},
                "toEmail": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type 'Bearer' followed by a space and the API token"
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3001",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "Todo Reminder API",
	Description:      "Projects, tasks and email reminders for a personal todo list",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
