// Package tiktok implements the publish client for finished vertical videos.
//
// Simulate mode performs all local work but fakes the network publish step,
// which keeps the rest of the system exercisable without platform approval.
// Live mode does a multipart upload to a deployment-configured endpoint and
// optionally a second publish call when the upload yields a media id.
package tiktok
