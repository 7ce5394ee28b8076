// Package docs registers the generated OpenAPI spec with swaggo so
// httpSwagger can serve it at /swagger/. Regenerate with `swag init` after
// changing any handler's swag annotations; this file is the checked-in
// output of that step.
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
            "url": "https://github.com/yujitsuchiya/catchup-feed"
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
        "/recommend": {
            "get": {
                "description": "Returns the cached recommendation result for a clicked article, falling back to a synchronous read-through compute on a cold cache.",
                "produces": ["application/json"],
                "summary": "Recommend related articles",
                "responses": {
                    "200": { "description": "OK" }
                }
            }
        },
        "/recommend-cached": {
            "get": {
                "description": "Returns the cached recommendation result only; never computes synchronously.",
                "produces": ["application/json"],
                "summary": "Recommend related articles (cache-only)",
                "responses": {
                    "200": { "description": "OK" },
                    "404": { "description": "cache miss" }
                }
            }
        },
        "/admin/summary/run": {
            "post": {
                "description": "Triggers an out-of-band batch summarization pass over articles missing a summary.",
                "produces": ["application/json"],
                "summary": "Run the summarizer batch job",
                "responses": {
                    "200": { "description": "OK" },
                    "409": { "description": "already running" }
                }
            }
        },
        "/admin/reindex/run": {
            "post": {
                "description": "Triggers a full TF-IDF vectorizer refit and vector store reindex.",
                "produces": ["application/json"],
                "summary": "Run the reindex job",
                "responses": {
                    "200": { "description": "OK" },
                    "409": { "description": "already running" }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Catchup Feed API",
	Description:      "RSS/Atom feed ingestion, recommendation, and summarization API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
