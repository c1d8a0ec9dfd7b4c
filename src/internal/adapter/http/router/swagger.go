package router

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func registerSwaggerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/", http.StatusMovedPermanently)
	})

	mux.HandleFunc("GET /swagger/{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, swaggerHTML, "/swagger/openapi.json")
	})

	mux.HandleFunc("GET /swagger/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(openAPI))
	})
}

func writeBody(w http.ResponseWriter, payload any) {
	_ = json.NewEncoder(w).Encode(payload)
}

const swaggerHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Bank Ledger API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      window.ui = SwaggerUIBundle({
        url: "%s",
        dom_id: "#swagger-ui"
      });
    };
  </script>
</body>
</html>`

const openAPI = `{
  "openapi": "3.0.3",
  "info": {
    "title": "Bank Ledger API",
    "version": "1.0.0"
  },
  "paths": {
    "/transactions": {
      "post": {
        "summary": "Transfer funds between two customers",
        "security": [{ "BasicAuth": [] }],
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": { "$ref": "#/components/schemas/TransferRequest" }
            }
          }
        },
        "responses": {
          "200": { "$ref": "#/components/responses/Transaction" },
          "400": { "$ref": "#/components/responses/Error" },
          "401": { "$ref": "#/components/responses/Error" },
          "404": { "$ref": "#/components/responses/Error" },
          "422": { "$ref": "#/components/responses/Error" },
          "500": { "$ref": "#/components/responses/Error" }
        }
      },
      "get": {
        "summary": "List the most recent ledger entries across all accounts, newest first",
        "security": [{ "BasicAuth": [] }],
        "parameters": [
          {
            "name": "limit",
            "in": "query",
            "required": false,
            "schema": { "type": "integer", "minimum": 1, "maximum": 500, "default": 100 }
          }
        ],
        "responses": {
          "200": { "$ref": "#/components/responses/TransactionList" },
          "400": { "$ref": "#/components/responses/Error" }
        }
      }
    },
    "/transactions/{transactionId}": {
      "get": {
        "summary": "Get a ledger entry",
        "security": [{ "BasicAuth": [] }],
        "parameters": [
          {
            "name": "transactionId",
            "in": "path",
            "required": true,
            "schema": { "type": "string", "example": "TXN_000001" }
          }
        ],
        "responses": {
          "200": { "$ref": "#/components/responses/Transaction" },
          "404": { "$ref": "#/components/responses/Error" }
        }
      }
    },
    "/accounts/{accountNumber}/transactions": {
      "get": {
        "summary": "List ledger entries for an account, newest first",
        "security": [{ "BasicAuth": [] }],
        "parameters": [
          {
            "name": "accountNumber",
            "in": "path",
            "required": true,
            "schema": { "type": "string", "example": "1000000001" }
          }
        ],
        "responses": {
          "200": { "$ref": "#/components/responses/TransactionList" },
          "404": { "$ref": "#/components/responses/Error" }
        }
      }
    },
    "/healthz": {
      "get": {
        "summary": "Liveness and database reachability",
        "responses": {
          "200": { "description": "Service is up" },
          "503": { "description": "Database unreachable" }
        }
      }
    },
    "/metrics": {
      "get": {
        "summary": "Prometheus metrics",
        "responses": {
          "200": { "description": "Prometheus text exposition" }
        }
      }
    }
  },
  "components": {
    "securitySchemes": {
      "BasicAuth": {
        "type": "http",
        "scheme": "basic"
      }
    },
    "responses": {
      "Transaction": {
        "description": "Ledger entry",
        "content": {
          "application/json": {
            "schema": {
              "type": "object",
              "properties": {
                "success": { "type": "boolean" },
                "message": { "type": "string" },
                "data": { "$ref": "#/components/schemas/Transaction" }
              }
            }
          }
        }
      },
      "TransactionList": {
        "description": "Ledger entries",
        "content": {
          "application/json": {
            "schema": {
              "type": "object",
              "properties": {
                "success": { "type": "boolean" },
                "message": { "type": "string" },
                "data": {
                  "type": "array",
                  "items": { "$ref": "#/components/schemas/Transaction" }
                }
              }
            }
          }
        }
      },
      "Error": {
        "description": "Failure",
        "content": {
          "application/json": {
            "schema": { "$ref": "#/components/schemas/ErrorResponse" }
          }
        }
      }
    },
    "schemas": {
      "TransferRequest": {
        "type": "object",
        "required": ["senderAccountNumber", "senderPin", "receiverAccountNumber", "amount", "transactionMode"],
        "properties": {
          "senderAccountNumber": { "type": "string", "example": "1000000001" },
          "senderPin": { "type": "string", "example": "1234" },
          "receiverAccountNumber": { "type": "string", "example": "2000000002" },
          "amount": { "type": "number", "example": 250.5 },
          "transactionMode": {
            "type": "string",
            "enum": ["DEBIT", "UPI", "CREDIT CARD", "CASH", "TRANSFER", "NEFT", "IMPS", "RTGS"]
          },
          "description": { "type": "string", "maxLength": 255 }
        }
      },
      "Transaction": {
        "type": "object",
        "properties": {
          "transactionId": { "type": "string", "example": "TXN_000001" },
          "accountId": { "type": "string", "example": "ACC_000001" },
          "amount": { "type": "string", "example": "250.5" },
          "type": { "type": "string", "enum": ["DEBITED", "CREDITED"] },
          "timestamp": { "type": "string", "format": "date-time" },
          "mode": { "type": "string" },
          "senderAccountNumber": { "type": "string" },
          "receiverAccountNumber": { "type": "string" },
          "description": { "type": "string" }
        }
      },
      "ErrorResponse": {
        "type": "object",
        "properties": {
          "success": { "type": "boolean", "example": false },
          "message": { "type": "string" },
          "requestId": { "type": "string", "format": "uuid" },
          "errors": {
            "type": "array",
            "items": {
              "type": "string",
              "example": "INSUFFICIENT_FUNDS"
            }
          }
        }
      }
    }
  }
}`
