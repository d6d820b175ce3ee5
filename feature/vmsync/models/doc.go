// Package models holds the discovery payload, persisted inventory rows and the
// result shapes produced by the vmsync feature.
package models
