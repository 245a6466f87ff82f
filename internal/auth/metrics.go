// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package auth

// MetricsRecorder receives authentication outcomes for metrics export.
// Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	RecordRegistration(status string)
	RecordLogin(status string)
	RecordTokenCheck(result string)
}

// Label values passed to MetricsRecorder.
const (
	StatusOK            = "ok"
	StatusInvalid       = "invalid"
	StatusDuplicate     = "duplicate"
	StatusNotFound      = "not_found"
	StatusWrongPassword = "wrong_password"
	StatusExpired       = "expired"
	StatusError         = "error"
)

// nopMetrics discards all events. Used when no recorder is configured.
type nopMetrics struct{}

func (nopMetrics) RecordRegistration(string) {}
func (nopMetrics) RecordLogin(string)        {}
func (nopMetrics) RecordTokenCheck(string)   {}
