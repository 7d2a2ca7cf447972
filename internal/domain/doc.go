// Package domain contains the core business concepts for the audio-converter service.
// Keep this package free of transport (HTTP) and infrastructure (ffmpeg/Redis) concerns.
package domain
