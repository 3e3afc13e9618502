package core

// error_messages.go maps technical errors to user-facing messages with codes
// that users can quote to support.
//
// # Error Codes Reference
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Action: Split the file or remove unused columns
//	          Patterns: "file too large"
//
//	FILE002 - Invalid CSV: File is not a valid CSV
//	          Action: Export the table as comma-separated values
//	          Patterns: "invalid csv"
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a CSV file to clean
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The uploaded file has no header row
//	          Action: Please upload a CSV file with a header and data rows
//	          Patterns: "empty file"
//
//	FILE006 - Wrong type: The uploaded file is not a CSV
//	          Action: Upload a .csv file
//	          Patterns: "not a csv file"
//
// # Cleaning Errors (CLN001-CLN099)
//
//	CLN001 - Missing columns: Required stats columns are missing
//	         Action: Export the full standard stats table
//	         Patterns: "missing required columns"
//
//	CLN002 - Unsupported format: Output format is not supported
//	         Action: Use json, csv or xlsx
//	         Patterns: "unsupported format"
//
// Diagnostic codes (CLN1xx-CLN9xx) are not errors; see diagnostics.go.
//
// # Run History Errors (STO001-STO099)
//
//	STO001 - Run not found: No run with this id
//	         Action: Check the run id; old runs are pruned
//	         Patterns: "run not found"
//
//	STO002 - Store unavailable: Run history could not be reached
//	         Action: Please try again in a few moments
//	         Patterns: "connection refused", "connect postgres", "open sqlite"
//
// # Clean Request Errors (UPL001-UPL099)
//
//	UPL001 - System busy: Too many cleans in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent cleans"
//
//	UPL002 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	UPL003 - Request timeout: Cleaning took too long
//	         Action: Try a smaller file or try again later
//	         Patterns: "clean timed out", "context deadline exceeded"
//
// # Request Errors (VAL001-VAL099)
//
//	VAL001 - Invalid parameter: A request parameter has an invalid value
//	         Action: Check the query parameters
//	         Patterns: "invalid parameter"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file or remove unused columns",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Export the table as comma-separated values",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to clean",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file has no header row",
			Action:  "Please upload a CSV file with a header and data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "not a csv file",
		msg: UserMessage{
			Message: "The uploaded file is not a CSV",
			Action:  "Upload a .csv file",
			Code:    "FILE006",
		},
	},

	// Cleaning errors
	{
		pattern: "missing required columns",
		msg: UserMessage{
			Message: "Required stats columns are missing",
			Action:  "Export the full standard stats table",
			Code:    "CLN001",
		},
	},
	{
		pattern: "unsupported format",
		msg: UserMessage{
			Message: "Output format is not supported",
			Action:  "Use json, csv or xlsx",
			Code:    "CLN002",
		},
	},

	// Run history errors
	{
		pattern: "run not found",
		msg: UserMessage{
			Message: "No run with this id",
			Action:  "Check the run id; old runs are pruned",
			Code:    "STO001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Run history could not be reached",
			Action:  "Please try again in a few moments",
			Code:    "STO002",
		},
	},
	{
		pattern: "connect postgres",
		msg: UserMessage{
			Message: "Run history could not be reached",
			Action:  "Please try again in a few moments",
			Code:    "STO002",
		},
	},
	{
		pattern: "open sqlite",
		msg: UserMessage{
			Message: "Run history could not be reached",
			Action:  "Please try again in a few moments",
			Code:    "STO002",
		},
	},

	// Clean request errors
	{
		pattern: "too many concurrent cleans",
		msg: UserMessage{
			Message: "System is busy cleaning other files",
			Action:  "Please wait a moment and try again",
			Code:    "UPL001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "clean timed out",
		msg: UserMessage{
			Message: "Cleaning took too long",
			Action:  "Try a smaller file or try again later",
			Code:    "UPL003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Cleaning took too long",
			Action:  "Try a smaller file or try again later",
			Code:    "UPL003",
		},
	},

	// Request errors
	{
		pattern: "invalid parameter",
		msg: UserMessage{
			Message: "A request parameter has an invalid value",
			Action:  "Check the query parameters",
			Code:    "VAL001",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000). Support staff
// should check the logs for the original error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. If no
// pattern matches, the ERR000 fallback is returned.
//
//	msg := MapError(ErrTooManyCleans)
//	// msg.Code == "UPL001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with its user message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
