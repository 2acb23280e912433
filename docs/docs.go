// Package docs is generated by swag init from the godoc annotations in
// internal/controller. Regenerate with `swag init` after changing a handler.
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
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["认证"],
                "summary": "登录",
                "parameters": [
                    {
                        "description": "登录信息",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "成功", "schema": {"$ref": "#/definitions/util.Response"}},
                    "401": {"description": "用户不存在或未激活", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["认证"],
                "summary": "当前用户",
                "responses": {
                    "200": {"description": "成功", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/questions": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["题目"],
                "summary": "题目列表",
                "parameters": [
                    {"type": "boolean", "default": false, "name": "approved_only", "in": "query"},
                    {"type": "integer", "name": "document_id", "in": "query"},
                    {"type": "string", "name": "difficulty", "in": "query"},
                    {"type": "integer", "default": 100, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "成功", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/tests": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["测试"],
                "summary": "测试列表",
                "parameters": [
                    {"type": "boolean", "default": true, "name": "active_only", "in": "query"},
                    {"type": "integer", "default": 100, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "成功", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        }
    },
    "definitions": {
        "service.LoginRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {
                "email": {"type": "string"}
            }
        },
        "util.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "message": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Testgen 后端 API",
	Description:      "题库、测试与答题记录管理服务。",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
