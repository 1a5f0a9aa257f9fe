package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           bananapics API
// @version         1.0
// @description     HTTP API for the image generation feed engine.
//
// @contact.name   bananapics maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
