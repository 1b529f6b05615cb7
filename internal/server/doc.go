// package server exposes the playback engine to local collaborators (the
// playback UI and remote-control surfaces) over a small HTTP API.
package server
