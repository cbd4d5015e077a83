// Package docs holds the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@example.com"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Show the status of server",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new account",
                "parameters": [
                    {"description": "Account details", "name": "account", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Account"}},
                    "400": {"description": "Invalid request body", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "409": {"description": "Username already registered", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Credentials", "name": "credentials", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.LoginResponse"}},
                    "401": {"description": "Invalid username or password", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/accounts/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Show the authenticated account",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Account"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "404": {"description": "Account not found", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/transactions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "List transaction history",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Transaction"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/transactions/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Get a transaction",
                "parameters": [
                    {"type": "integer", "description": "Transaction ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Transaction"}},
                    "403": {"description": "Transaction does not involve the caller", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "404": {"description": "Transaction not found", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/transactions/transfer": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Transfer money to another account",
                "parameters": [
                    {"description": "Recipient and amount", "name": "transfer", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.TransferRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.TransactionResponse"}},
                    "400": {"description": "Invalid amount, self-transfer or insufficient funds", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "404": {"description": "Sender or recipient account not found", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/transactions/deposit": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Deposit money",
                "parameters": [
                    {"description": "Amount to deposit", "name": "deposit", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.DepositRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.TransactionResponse"}},
                    "400": {"description": "Invalid amount", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/api/transactions/revert": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Revert a transfer",
                "parameters": [
                    {"description": "Transaction to revert", "name": "revert", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.RevertRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.RevertResponse"}},
                    "400": {"description": "Not a transfer, or receiver cannot fund the reversal", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "403": {"description": "Caller is not the original sender", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "404": {"description": "Transaction not found", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "409": {"description": "Transaction already reverted", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        }
    },
    "definitions": {
        "common.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "model.Account": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "username": {"type": "string"},
                "balance": {"type": "string", "example": "100.00"},
                "createdAt": {"type": "string"}
            }
        },
        "model.Transaction": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "senderId": {"type": "integer"},
                "receiverId": {"type": "integer"},
                "type": {"type": "string", "enum": ["DEPOSIT", "TRANSFER", "REVERT"]},
                "amount": {"type": "string", "example": "50.00"},
                "isReversed": {"type": "boolean"},
                "revertsTransactionId": {"type": "integer"},
                "createdAt": {"type": "string"}
            }
        },
        "model.RegisterRequest": {
            "type": "object",
            "required": ["name", "username", "password"],
            "properties": {
                "name": {"type": "string"},
                "username": {"type": "string"},
                "password": {"type": "string", "minLength": 6}
            }
        },
        "model.LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "model.LoginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"}
            }
        },
        "model.TransferRequest": {
            "type": "object",
            "required": ["recipientId", "amount"],
            "properties": {
                "recipientId": {"type": "integer"},
                "amount": {"type": "string", "example": "50.00"}
            }
        },
        "model.DepositRequest": {
            "type": "object",
            "required": ["amount"],
            "properties": {
                "amount": {"type": "string", "example": "40.00"}
            }
        },
        "model.RevertRequest": {
            "type": "object",
            "required": ["transactionId"],
            "properties": {
                "transactionId": {"type": "integer"}
            }
        },
        "model.TransactionResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "transaction": {"$ref": "#/definitions/model.Transaction"}
            }
        },
        "model.RevertResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "revertTransaction": {"$ref": "#/definitions/model.Transaction"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Go-Ledger API",
	Description:      "Account balances and an auditable, reversible transaction ledger.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
