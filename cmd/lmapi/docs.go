package main

// General API documentation for swaggo. Run `swag init -g cmd/lmapi/docs.go -o internal/apidocs` to regenerate docs.
//
// @title           lmapi API
// @version         1.0
// @description     OpenAI-style HTTP API over small instruction-following language models.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
