// Package utils provides conversion helpers for loosely typed payloads, such as
// discovery responses where numbers may arrive as JSON numbers or strings.
package utils
