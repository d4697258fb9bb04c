// Package docs registers the OpenAPI document served at /openapi.json.
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
        "/astronomy": {
            "post": {
                "description": "Renders tonight's sky for the caller's approximate location.",
                "produces": ["application/json"],
                "tags": ["Astronomy"],
                "summary": "Star chart",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/fishy": {
            "post": {
                "description": "Lists fish commonly found near a coordinate, or near the default location when none is given.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Fish"],
                "summary": "Local fish species",
                "parameters": [
                    {"description": "optional latitude and longitude", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/request.Coordinate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Reports which capabilities are configured and artifact store statistics.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/identify": {
            "post": {
                "description": "Names the animal, bird or plant in an uploaded image.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Identify"],
                "summary": "Identify wildlife in a photo",
                "parameters": [
                    {"type": "file", "description": "photo", "name": "image", "in": "formData", "required": true},
                    {"type": "string", "description": "animal, bird or flora", "name": "id_type", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        },
        "/plan_trip": {
            "post": {
                "description": "Finds adventure spots around a coordinate and renders them on a map.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Trip"],
                "summary": "Plan a trip",
                "parameters": [
                    {"description": "latitude, longitude and optional radius_miles", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/request.PlanTrip"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/trip.PlanResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "httptransport.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"type": "string"},
                "details": {}
            }
        },
        "trip.PlanResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "map_url": {"type": "string"},
                "data": {},
                "error": {"type": "string"},
                "details": {}
            }
        },
        "request.Coordinate": {
            "type": "object",
            "properties": {
                "latitude": {"type": "number"},
                "longitude": {"type": "number"}
            }
        },
        "request.PlanTrip": {
            "type": "object",
            "properties": {
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "radius_miles": {"type": "number", "default": 15}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:5001",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Adventure Server API",
	Description:      "Trip maps, wildlife identification, local fish and star charts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
