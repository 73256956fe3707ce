// Package httpserver is the HTTP delivery surface: photo streaming,
// album and gallery ZIP exports, public signed-URL manifests, uploads,
// and the supporting middleware.
//
// Tenancy is resolved once per request, from the X-Tenant header or the
// first host label, and passed explicitly from there on. Asset routes
// stream; nothing is buffered beyond the single in-flight derivative.
package httpserver
