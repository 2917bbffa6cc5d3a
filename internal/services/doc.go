// Package services defines the error taxonomy shared by platform clients and
// pipeline stages. Sentinel errors classify failures (not found,
// configuration, external tool, network) so the dispatcher can store a
// meaningful reason on a clip row without inspecting concrete types.
package services
