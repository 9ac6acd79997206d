// Package contract exposes the use-case request and response shapes to the
// outer surfaces (CLI, TUI, HTTP) without importing the application layer.
package contract

import "github.com/alexanderramin/pathways/internal/app"

type DashboardRequest = app.DashboardRequest

func NewDashboardRequest(userID string) DashboardRequest {
	return app.DashboardRequest{UserID: userID}
}

type DashboardResponse = app.DashboardResponse

type PathwayCard = app.PathwayCard

type ConfigKeyMigration = app.ConfigKeyMigration

type ToggleRequest = app.ToggleRequest

type ToggleResult = app.ToggleResult

type VisibilityRequest = app.VisibilityRequest

type RenameRequest = app.RenameRequest

type ReorderRequest = app.ReorderRequest

type AddCustomRequest = app.AddCustomRequest

type DeleteCustomRequest = app.DeleteCustomRequest

// ErrorCode is the machine-readable error class returned by the HTTP API.
type ErrorCode string

const (
	ErrCodeValidation    ErrorCode = "VALIDATION"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeBusy          ErrorCode = "BUSY"
	ErrCodeCrossCategory ErrorCode = "CROSS_CATEGORY"
	ErrCodeRemoteWrite   ErrorCode = "REMOTE_WRITE"
	ErrCodeInternal      ErrorCode = "INTERNAL"
)

// Error is the JSON error envelope.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}
