// Package http implements the HTTP handlers of the dashboard. Handlers are
// thin: they parse and validate request parameters, call the dashboard or
// health service and render JSON, images, exports or the HTML page. Every
// failure is reported through the shared RFC 7807 error handler.
package http
