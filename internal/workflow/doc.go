// Package workflow coordinates one polling pass end to end, from channel
// resolution through clip processing to upload bookkeeping.
package workflow
