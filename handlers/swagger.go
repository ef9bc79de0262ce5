package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves the OpenAPI description of the catalog API.
// - GET /swagger/index.html  -> Swagger UI page loading doc.json
// - GET /swagger/doc.json    -> OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>restocatalog - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "restocatalog", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "Address": {"type":"object","properties":{"street":{"type":"string","maxLength":50},"number":{"type":"string"},"city":{"type":"string","maxLength":100},"regionCode":{"type":"string","minLength":2,"maxLength":2},"postalCode":{"type":"string","minLength":8,"maxLength":8}}},
      "RestaurantInput": {"type":"object","properties":{"name":{"type":"string"},"cuisine":{"type":"integer","enum":[1,2,3,4,5]},"address":{"$ref":"#/components/schemas/Address"}}},
      "Rating": {"type":"object","properties":{"stars":{"type":"integer","minimum":1,"maximum":5},"comment":{"type":"string","maxLength":100}}},
      "Errors": {"type":"object","properties":{"errors":{"type":"array","items":{"type":"string"}}}}
    }
  },
  "paths": {
    "/restaurants": {
      "get": { "summary": "List restaurants", "responses": { "200": { "description": "restaurant list" } } },
      "post": { "summary": "Create a restaurant", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/RestaurantInput"}}}}, "responses": { "201": { "description": "created" }, "400": { "description": "validation failed", "content": {"application/json": {"schema": {"$ref":"#/components/schemas/Errors"}}} } } },
      "put": { "summary": "Replace a restaurant (id in body)", "responses": { "200": { "description": "replaced" }, "400": { "description": "validation failed or no document was modified" }, "404": { "description": "not found" } } }
    },
    "/restaurants/{id}": {
      "get": { "summary": "Get a restaurant", "responses": { "200": { "description": "restaurant" }, "404": { "description": "not found" }, "422": { "description": "stored document cannot be decoded" } } },
      "patch": { "summary": "Change the cuisine only", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"cuisine":{"type":"integer"}}}}}}, "responses": { "200": { "description": "updated" }, "400": { "description": "no document was modified" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a restaurant and its ratings", "responses": { "200": { "description": "deleted counts" }, "404": { "description": "not found" } } }
    },
    "/restaurants/{id}/ratings": {
      "post": { "summary": "Rate a restaurant", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Rating"}}}}, "responses": { "201": { "description": "rated" }, "400": { "description": "validation failed" }, "404": { "description": "not found" } } }
    },
    "/restaurants/by-name/{name}": {
      "get": { "summary": "Case-insensitive name substring search", "responses": { "200": { "description": "restaurant list" } } }
    },
    "/restaurants/search": {
      "get": { "summary": "Free-text search on the name", "parameters": [{"name":"text","in":"query","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "restaurant list by relevance" } } }
    },
    "/top3": { "get": { "summary": "Top 3 restaurants by average stars", "responses": { "200": { "description": "ranking" } } } },
    "/top3-lookup": { "get": { "summary": "Top 3 restaurants using a single joined query", "responses": { "200": { "description": "ranking" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
