// Command clipflow polls Twitch channels for popular clips, converts them to
// captioned vertical videos, and publishes them to TikTok.
package main
