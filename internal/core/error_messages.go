package core

// error_messages.go maps technical errors to messages a catalog operator
// can act on. Each message carries a code to quote to support.
//
// # Catalog Errors (CAT001-CAT099)
//
//	CAT001 - Column mismatch: the export is missing one of the required columns
//	         (cse_prod, cve_prod, desc_prod, existencias, cve_image, verificado)
//	CAT002 - Empty export: the file has no header row
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Sheet download failed (network, DNS, TLS)
//	SRC002 - Sheet host answered with an error status
//	SRC003 - No sheet URL configured
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File exceeds the size limit
//	FILE002 - Not a readable .xlsx workbook
//	FILE003 - File could not be read
//	FILE004 - No file in the request
//	FILE005 - Workbook has no sheets
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - All import slots busy
//	IMP002 - Request cancelled
//	IMP003 - Request timed out
//
// # Store Errors (STO001-STO099)
//
//	STO001 - Snapshot not found
//	STO002 - Snapshot storage unavailable
//
// # Rate Limiting
//
//	RATE001 - Too many requests
//
// # Default
//
//	ERR000 - Anything else; check the logs for the technical error.
//
// Matching tries errors.Is against a sentinel first, then a
// case-insensitive substring of the error text. The first entry that
// matches wins, so specific entries come before general ones.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/csv"
	"github.com/JonMunkholm/catalog/internal/source"
	"github.com/JonMunkholm/catalog/internal/store"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

// errorPattern matches an error by sentinel (is) or by text (pattern).
type errorPattern struct {
	is      error
	pattern string
	msg     UserMessage
}

var (
	msgColumnMismatch = UserMessage{
		Message: "The export does not have the expected columns",
		Action:  "Make sure the header row has cse_prod, cve_prod, desc_prod, existencias, cve_image and verificado",
		Code:    "CAT001",
	}
	msgEmptyInput = UserMessage{
		Message: "The export is empty",
		Action:  "Upload a file with a header row and product rows",
		Code:    "CAT002",
	}
	msgNotFound = UserMessage{
		Message: "No catalog snapshot found",
		Action:  "Run a refresh or import a file first",
		Code:    "STO001",
	}
	msgStore = UserMessage{
		Message: "Catalog storage is unavailable",
		Action:  "Please try again in a few moments",
		Code:    "STO002",
	}
	msgTooLarge = UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Remove unused sheets or columns and try again",
		Code:    "FILE001",
	}
	msgSourceFetch = UserMessage{
		Message: "Could not download the catalog sheet",
		Action:  "Check that the sheet is published and reachable, then try again",
		Code:    "SRC001",
	}
)

var errorPatterns = []errorPattern{
	// Catalog build
	{is: catalog.ErrColumnMismatch, pattern: "column mismatch", msg: msgColumnMismatch},
	{is: catalog.ErrEmptyInput, pattern: "no header row", msg: msgEmptyInput},

	// Store lookups come before the generic context errors a store may wrap.
	{is: store.ErrNotFound, pattern: "snapshot not found", msg: msgNotFound},

	// Size limit applies to both uploads and downloads.
	{is: csv.ErrTooLarge, pattern: "file too large", msg: msgTooLarge},

	// Source
	{
		is:      source.ErrNoURL,
		pattern: "source url not configured",
		msg: UserMessage{
			Message: "No catalog sheet is configured",
			Action:  "Set CATALOG_SHEET_URL or import a file instead",
			Code:    "SRC003",
		},
	},
	{
		pattern: "returned http",
		msg: UserMessage{
			Message: "The catalog sheet host returned an error",
			Action:  "Check that the sheet is still published to the web",
			Code:    "SRC002",
		},
	},
	{pattern: "source fetch failed", msg: msgSourceFetch},

	// Files
	{
		is:      source.ErrNoSheets,
		pattern: "workbook has no sheets",
		msg: UserMessage{
			Message: "The workbook has no sheets",
			Action:  "Export the catalog sheet again",
			Code:    "FILE005",
		},
	},
	{
		pattern: "invalid xlsx",
		msg: UserMessage{
			Message: "File is not a valid Excel workbook",
			Action:  "Save the file as .xlsx or export it as CSV",
			Code:    "FILE002",
		},
	},
	{
		pattern: "read csv",
		msg: UserMessage{
			Message: "The file could not be read",
			Action:  "Try uploading the file again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or Excel file to upload",
			Code:    "FILE004",
		},
	},

	// Import
	{
		is:      ErrTooManyImports,
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP001",
		},
	},

	// Store failures
	{pattern: "save snapshot", msg: msgStore},
	{pattern: "load snapshot", msg: msgStore},
	{pattern: "list snapshots", msg: msgStore},
	{pattern: "decode catalog", msg: msgStore},

	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "IMP002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "IMP003",
		},
	},

	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. A nil
// error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if ep.is != nil && errors.Is(err, ep.is) {
			return ep.msg
		}
		if ep.pattern != "" && strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (for logs) with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
