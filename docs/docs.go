// Package docs holds the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go
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
		"/": {
			"get": {
				"tags": [
					"pages"
				],
				"summary": "Landing redirect",
				"produces": [
					"application/json"
				],
				"responses": {
					"307": {
						"description": "Temporary Redirect"
					}
				}
			}
		},
		"/auth": {
			"get": {
				"tags": [
					"pages"
				],
				"summary": "Login page",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.shellView"
						}
					},
					"307": {
						"description": "Temporary Redirect"
					}
				}
			}
		},
		"/dashboard": {
			"get": {
				"tags": [
					"pages"
				],
				"summary": "User dashboard",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.shellView"
						}
					},
					"307": {
						"description": "Temporary Redirect"
					}
				}
			}
		},
		"/dashboard/profile": {
			"get": {
				"tags": [
					"pages"
				],
				"summary": "Profile page",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.shellView"
						}
					},
					"307": {
						"description": "Temporary Redirect"
					}
				}
			}
		},
		"/admin": {
			"get": {
				"tags": [
					"pages"
				],
				"summary": "Admin dashboard",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.shellView"
						}
					},
					"307": {
						"description": "Temporary Redirect"
					}
				}
			}
		},
		"/admin/users": {
			"get": {
				"tags": [
					"pages"
				],
				"summary": "Users page",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.shellView"
						}
					},
					"307": {
						"description": "Temporary Redirect"
					}
				}
			}
		},
		"/admin/activity": {
			"get": {
				"tags": [
					"pages"
				],
				"summary": "Activity log page",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.shellView"
						}
					},
					"307": {
						"description": "Temporary Redirect"
					}
				}
			}
		},
		"/admin/settings": {
			"get": {
				"tags": [
					"pages"
				],
				"summary": "Settings page",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.shellView"
						}
					},
					"307": {
						"description": "Temporary Redirect"
					}
				}
			}
		},
		"/api/auth/sign-in": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Sign in",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.signInRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.authResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					}
				}
			}
		},
		"/api/auth/sign-up": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Sign up",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.signUpRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.authResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					}
				}
			}
		},
		"/api/auth/sign-out": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Sign out",
				"produces": [
					"application/json"
				],
				"responses": {
					"204": {
						"description": "No Content"
					}
				}
			}
		},
		"/api/auth/password-reset": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Request a password reset",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.passwordResetRequest"
						}
					}
				],
				"responses": {
					"202": {
						"description": "Accepted"
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					}
				}
			}
		},
		"/api/profile": {
			"get": {
				"tags": [
					"profile"
				],
				"summary": "Get profile",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.Profile"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					}
				}
			},
			"patch": {
				"tags": [
					"profile"
				],
				"summary": "Update profile",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.updateProfileRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.Profile"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					}
				}
			}
		},
		"/api/profile/password": {
			"put": {
				"tags": [
					"profile"
				],
				"summary": "Change password",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.updatePasswordRequest"
						}
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					}
				}
			}
		},
		"/api/activities": {
			"get": {
				"tags": [
					"activities"
				],
				"summary": "Own activity trail",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "At most 5",
						"name": "limit",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.activityListResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					}
				}
			},
			"post": {
				"tags": [
					"activities"
				],
				"summary": "Record activity",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.appendActivityRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.Activity"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					}
				}
			}
		},
		"/api/activities/prune": {
			"post": {
				"tags": [
					"activities"
				],
				"summary": "Prune own trail",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.pruneRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.pruneResponse"
						}
					}
				}
			}
		},
		"/api/activity-types": {
			"get": {
				"tags": [
					"activities"
				],
				"summary": "Activity types",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/domain.ActivityStyle"
							}
						}
					}
				}
			}
		},
		"/api/admin/activities": {
			"get": {
				"tags": [
					"admin"
				],
				"summary": "All activities",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Default 500, at most 1000",
						"name": "limit",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.activityListResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					}
				}
			}
		},
		"/api/admin/users": {
			"get": {
				"tags": [
					"admin"
				],
				"summary": "List users",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Page, from 1",
						"name": "page",
						"in": "query",
						"required": false
					},
					{
						"type": "integer",
						"description": "Page size",
						"name": "per_page",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					}
				}
			}
		},
		"/api/admin/users/{id}/balance": {
			"post": {
				"tags": [
					"admin"
				],
				"summary": "Adjust balance",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "User ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.adjustBalanceRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.User"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					}
				}
			}
		},
		"/api/prices": {
			"get": {
				"tags": [
					"prices"
				],
				"summary": "Daily prices",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Ticker symbol",
						"name": "ticker",
						"in": "query",
						"required": true
					},
					{
						"type": "string",
						"description": "YYYY-MM-DD",
						"name": "start",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "YYYY-MM-DD",
						"name": "end",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "compact or full",
						"name": "output_size",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.PriceSeries"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					},
					"429": {
						"description": "Too Many Requests",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					},
					"502": {
						"description": "Bad Gateway",
						"schema": {
							"$ref": "#/definitions/handler.errorBody"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"domain.User": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"user_metadata": {
					"type": "object",
					"additionalProperties": true
				},
				"created_at": {
					"type": "string"
				},
				"last_sign_in_at": {
					"type": "string"
				}
			}
		},
		"domain.Profile": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"full_name": {
					"type": "string"
				},
				"phone": {
					"type": "string"
				},
				"avatar_url": {
					"type": "string"
				},
				"role": {
					"type": "string"
				}
			}
		},
		"domain.Activity": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"user_id": {
					"type": "string"
				},
				"type": {
					"type": "string"
				},
				"message": {
					"type": "string"
				},
				"timestamp": {
					"type": "string"
				},
				"user_name": {
					"type": "string"
				}
			}
		},
		"domain.ActivityStyle": {
			"type": "object",
			"properties": {
				"type": {
					"type": "string"
				},
				"label": {
					"type": "string"
				},
				"icon": {
					"type": "string"
				},
				"colors": {
					"type": "object",
					"properties": {
						"bg": {
							"type": "string"
						},
						"text": {
							"type": "string"
						},
						"border": {
							"type": "string"
						}
					}
				}
			}
		},
		"domain.PricePoint": {
			"type": "object",
			"properties": {
				"date": {
					"type": "string"
				},
				"price": {
					"type": "number"
				},
				"open": {
					"type": "number"
				},
				"high": {
					"type": "number"
				},
				"low": {
					"type": "number"
				},
				"close": {
					"type": "number"
				},
				"volume": {
					"type": "number"
				}
			}
		},
		"domain.PriceSeries": {
			"type": "object",
			"properties": {
				"symbol": {
					"type": "string"
				},
				"last_refreshed": {
					"type": "string"
				},
				"time_zone": {
					"type": "string"
				},
				"data": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.PricePoint"
					}
				}
			}
		},
		"domain.NavItem": {
			"type": "object",
			"properties": {
				"path": {
					"type": "string"
				},
				"title": {
					"type": "string"
				},
				"icon": {
					"type": "string"
				},
				"disabled": {
					"type": "boolean"
				}
			}
		},
		"handler.errorBody": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				}
			}
		},
		"handler.activityListResponse": {
			"type": "object",
			"properties": {
				"data": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.Activity"
					}
				},
				"error": {
					"type": "string"
				}
			}
		},
		"handler.signInRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"handler.signUpRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				},
				"confirm_password": {
					"type": "string"
				},
				"redirect_to": {
					"type": "string"
				}
			}
		},
		"handler.passwordResetRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"redirect_to": {
					"type": "string"
				}
			}
		},
		"handler.authResponse": {
			"type": "object",
			"properties": {
				"user": {
					"$ref": "#/definitions/domain.User"
				},
				"role": {
					"type": "string"
				},
				"redirect": {
					"type": "string"
				},
				"confirmation_required": {
					"type": "boolean"
				}
			}
		},
		"handler.updateProfileRequest": {
			"type": "object",
			"properties": {
				"full_name": {
					"type": "string"
				},
				"phone": {
					"type": "string"
				},
				"avatar_url": {
					"type": "string"
				}
			}
		},
		"handler.updatePasswordRequest": {
			"type": "object",
			"properties": {
				"new_password": {
					"type": "string"
				},
				"confirm_password": {
					"type": "string"
				}
			}
		},
		"handler.appendActivityRequest": {
			"type": "object",
			"properties": {
				"type": {
					"type": "string"
				},
				"message": {
					"type": "string"
				}
			}
		},
		"handler.pruneRequest": {
			"type": "object",
			"properties": {
				"keep_count": {
					"type": "integer"
				}
			}
		},
		"handler.pruneResponse": {
			"type": "object",
			"properties": {
				"deleted": {
					"type": "integer"
				}
			}
		},
		"handler.adjustBalanceRequest": {
			"type": "object",
			"properties": {
				"balance": {
					"type": "number"
				}
			}
		},
		"handler.shellView": {
			"type": "object",
			"properties": {
				"user": {
					"$ref": "#/definitions/domain.User"
				},
				"role": {
					"type": "string"
				},
				"title": {
					"type": "string"
				},
				"navigation": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.NavItem"
					}
				},
				"page": {
					"type": "object"
				}
			}
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tradedesk Dashboard API",
	Description:      "Role-aware trading dashboard: session gate, page shells, activity trail and price charts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
