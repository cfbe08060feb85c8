/*
Package messages implements the flash-notification framework used by the
cloudbrowse presentation layer.

A Message carries a severity Level, optional free-text extra tags, and a body.
Messages produced while handling a request are stashed in a session-keyed,
SQLite-backed Store and consumed ("popped") on the next page render, where the
templating layer groups them by (level, tags) for display.
*/
package messages
