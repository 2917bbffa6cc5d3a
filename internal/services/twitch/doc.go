// Package twitch implements the source platform client: app authentication
// via the client-credentials grant, login-to-broadcaster-id resolution, and
// fetching a channel's most recent clips ranked by view count.
package twitch
