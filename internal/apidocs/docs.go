// Package apidocs registers the OpenAPI document served under /swagger when
// built with -tags=swagger. Regenerate with swag init.
package apidocs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
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
                "summary": "Liveness greeting",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/models": {
            "get": {
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "List models found in the artifact directory",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Model lifecycle status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        },
        "/completions": {
            "post": {
                "description": "Runs the prompt through \"do\" and returns an OpenAI-style text completion.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["completions"],
                "summary": "Follow an instruction",
                "parameters": [
                    {"description": "Prompt", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.CompletionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/openai.CompletionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/chat/completions": {
            "post": {
                "description": "Renders the messages to the chat grammar, runs \"chat\" and returns an OpenAI-style chat completion.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["completions"],
                "summary": "Next assistant message",
                "parameters": [
                    {"description": "Conversation", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/openai.ChatCompletionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.HealthResponse": {
            "type": "object",
            "properties": {"message": {"type": "string", "example": "Hello World"}}
        },
        "types.ModelInfo": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "lamini-flan-t5-248m"},
                "quantization": {"type": "string", "example": "int8"},
                "params": {"type": "integer", "example": 248000000},
                "prompt_fmt": {"type": "string", "example": "{instruction}"},
                "architecture": {"type": "string", "example": "encoder-decoder"},
                "license": {"type": "string", "example": "apache-2.0"},
                "weights": {"type": "string", "example": "model.gguf"},
                "path": {"type": "string", "example": "/models/lamini-flan-t5-248m"},
                "size_gb": {"type": "number", "example": 0.248}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"$ref": "#/definitions/types.ModelInfo"}},
                "current": {"type": "string", "example": "lamini-flan-t5-248m"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "example": "ready"},
                "model": {"$ref": "#/definitions/types.ModelInfo"},
                "lazy": {"type": "boolean", "example": false},
                "config": {"type": "object", "additionalProperties": true},
                "last_error": {"type": "string"},
                "loads_total": {"type": "integer", "example": 1},
                "uptime_seconds": {"type": "integer", "example": 3600},
                "server_time_unix": {"type": "integer", "example": 1700000000}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid JSON body"},
                "code": {"type": "integer", "example": 400}
            }
        },
        "types.CompletionRequest": {
            "type": "object",
            "properties": {
                "model": {"type": "string", "example": "lamini-flan-t5-248m"},
                "prompt": {"type": "string", "example": "Pick the sport from the list: baseball, texas, chemistry"}
            }
        },
        "types.ChatMessage": {
            "type": "object",
            "properties": {
                "role": {"type": "string", "example": "user"},
                "content": {"type": "string", "example": "What is the capital of Germany?"}
            }
        },
        "types.ChatRequest": {
            "type": "object",
            "properties": {
                "model": {"type": "string"},
                "messages": {"type": "array", "items": {"$ref": "#/definitions/types.ChatMessage"}}
            }
        },
        "openai.Usage": {
            "type": "object",
            "properties": {
                "prompt_tokens": {"type": "integer"},
                "completion_tokens": {"type": "integer"},
                "total_tokens": {"type": "integer"}
            }
        },
        "openai.CompletionChoice": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "index": {"type": "integer"},
                "finish_reason": {"type": "string"}
            }
        },
        "openai.CompletionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "object": {"type": "string", "example": "text_completion"},
                "created": {"type": "integer"},
                "model": {"type": "string"},
                "choices": {"type": "array", "items": {"$ref": "#/definitions/openai.CompletionChoice"}},
                "usage": {"$ref": "#/definitions/openai.Usage"}
            }
        },
        "openai.ChatCompletionMessage": {
            "type": "object",
            "properties": {
                "role": {"type": "string", "example": "assistant"},
                "content": {"type": "string"}
            }
        },
        "openai.ChatCompletionChoice": {
            "type": "object",
            "properties": {
                "index": {"type": "integer"},
                "message": {"$ref": "#/definitions/openai.ChatCompletionMessage"},
                "finish_reason": {"type": "string"}
            }
        },
        "openai.ChatCompletionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "object": {"type": "string", "example": "chat.completion"},
                "created": {"type": "integer"},
                "model": {"type": "string"},
                "choices": {"type": "array", "items": {"$ref": "#/definitions/openai.ChatCompletionChoice"}},
                "usage": {"$ref": "#/definitions/openai.Usage"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "lmapi API",
	Description:      "OpenAI-style HTTP API over small instruction-following language models.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
