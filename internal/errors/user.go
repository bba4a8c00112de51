package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to user-facing messages.
// Order matters: the first entry whose sentinel matches via errors.Is wins,
// so specific errors come before the generic ones they wrap.
//
//nolint:gochecknoglobals // Pre-built mapping
var errorInfoEntries = []errorEntry{
	// ===================
	// Lifecycle
	// ===================
	{
		err: ErrInvalidTransition,
		info: ErrorInfo{
			Message: "The task cannot move to that status from its current status.",
			Action:  "Run 'docflow task show <id>' to see the current status.",
		},
	},
	{
		err: ErrCompletionPrecondition,
		info: ErrorInfo{
			Message: "The task is not ready to be completed.",
			Action:  "Upload a signed copy for every generated document, then retry.",
		},
	},
	{
		err: ErrGenerationInProgress,
		info: ErrorInfo{
			Message: "Documents for this task are already being generated.",
			Action:  "Wait for the running generation to finish before retrying.",
		},
	},
	{
		err: ErrVersionConflict,
		info: ErrorInfo{
			Message: "The record was changed by someone else.",
			Action:  "Reload the record and apply your change again.",
		},
	},

	// ===================
	// Generation
	// ===================
	{
		err: ErrTotalGeneration,
		info: ErrorInfo{
			Message: "No document could be generated for this task.",
			Action:  "Check the generation errors, fix the templates or fields, then run 'docflow task retry'.",
		},
	},
	{
		err: ErrPartialGeneration,
		info: ErrorInfo{
			Message: "Some documents could not be generated.",
			Action:  "The generated documents are usable. Run 'docflow task retry' to regenerate all of them.",
		},
	},

	// ===================
	// Lookup & input
	// ===================
	{
		err: ErrTaskNotFound,
		info: ErrorInfo{
			Message: "Task not found.",
			Action:  "Run 'docflow task list' to see existing tasks.",
		},
	},
	{
		err: ErrTemplateNotFound,
		info: ErrorInfo{Message: "Template not found."},
	},
	{
		err: ErrClientNotFound,
		info: ErrorInfo{Message: "Client not found."},
	},
	{
		err: ErrServiceNotFound,
		info: ErrorInfo{Message: "Service not found."},
	},
	{
		err: ErrValidation,
		info: ErrorInfo{
			Message: "The input is invalid.",
			Action:  "Review the listed fields and try again.",
		},
	},

	// ===================
	// Storage & migration
	// ===================
	{
		err: ErrStorage,
		info: ErrorInfo{
			Message: "A storage operation failed.",
			Action:  "Check the storage configuration and connectivity.",
		},
	},
	{
		err: ErrLockTimeout,
		info: ErrorInfo{
			Message: "Timed out waiting for a record lock.",
			Action:  "Another docflow process may be using the record. Try again shortly.",
		},
	},
	{
		err: ErrMigrationConflict,
		info: ErrorInfo{
			Message: "The rename decisions are ambiguous.",
			Action:  "Map each removed field to at most one added field and each added field from at most one removed field.",
		},
	},
	{
		err: ErrMigrationFailed,
		info: ErrorInfo{
			Message: "No template in the plan could be migrated.",
			Action:  "Fix the reported template errors and run 'docflow schema apply' again.",
		},
	},

	// ===================
	// Misc
	// ===================
	{
		err: ErrInvalidOutputFormat,
		info: ErrorInfo{
			Message: "Unknown output format.",
			Action:  "Use --output text or --output json.",
		},
	},
	{
		err: ErrInvalidArgument,
		info: ErrorInfo{
			Message: "An invalid argument was provided.",
			Action:  "Check the command help for valid arguments.",
		},
	},
}

// getErrorInfo looks up the ErrorInfo for a given error, falling back to
// the error's own message.
func getErrorInfo(err error) ErrorInfo {
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}
	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve or work around the issue.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
