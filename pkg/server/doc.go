// Package server exposes the layout pipeline over HTTP.
//
// # Endpoints
//
//	POST   /v1/layouts                        compute and store a layout
//	GET    /v1/layouts                        list stored layouts, newest first
//	GET    /v1/layouts/{id}                   fetch a stored snapshot
//	GET    /v1/layouts/{id}/render/{format}   render a stored snapshot
//	DELETE /v1/layouts/{id}                   delete a stored snapshot
//	GET    /healthz                           liveness and build info
//
// A POST body is a [pipeline.Options] document. Setting "previous" to the ID
// of a stored layout continues from it, so with column lock enabled items
// keep their columns across requests:
//
//	{"width": 1200, "attributes": {"columnlock": ""}, "previous": "5f0c...",
//	 "items": [{"id": "a", "height": 180}, {"id": "b", "height": 240}]}
//
// Errors are JSON objects with a machine-readable code:
//
//	{"code": "INVALID_ITEM", "message": "duplicate item id \"a\""}
//
// Every response carries an X-Request-ID header; incoming IDs are kept.
//
// [pipeline.Options]: github.com/matzehuels/masonry/pkg/pipeline.Options
package server
