package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error message constants for the import-reorder application
const (
	// File processing errors
	ErrMsgFailedToReadFile    = "failed to read file"
	ErrMsgFailedToReorderFile = "failed to reorder file"
	ErrMsgFailedToWriteFile   = "failed to write file"
	ErrMsgFailedToStatFile    = "failed to stat file"
	ErrMsgFailedToReadList    = "failed to read change list"
	ErrMsgTooManyLinks        = "too many levels of symbolic links"

	// Configuration errors
	ErrMsgFailedToLoadDefaults  = "failed to load default config"
	ErrMsgFailedToLoadConfig    = "failed to load config file"
	ErrMsgFailedToLoadEnv       = "failed to load environment config"
	ErrMsgFailedToDecodeConfig  = "failed to decode config"
	ErrMsgInvalidConfig         = "invalid config"
	ErrMsgFailedToGetWorkingDir = "failed to get current working directory"

	// Skip reasons
	SkipMsgFileType    = "file type not handled"
	SkipMsgIgnored     = "path matches ignore pattern"
	SkipMsgNotRegular  = "not a regular file"
	SkipMsgMissing     = "no such file"
	SkipMsgStatFailure = "stat failed"
	SkipMsgCancelled   = "cancelled before processing"

	// Info/warning messages
	InfoMsgProcessedFile   = "Processed"
	InfoMsgWouldProcess    = "Would process"
	InfoMsgUnchangedFile   = "Unchanged"
	InfoMsgSkippingFile    = "SKIPPING"
	InfoMsgErrorProcessing = "Error processing file"
	InfoMsgSummary         = "Reorder finished"
	InfoMsgNoInput         = "No paths given and stdin is a terminal; pipe a change list or pass paths."
)

// Parse error reasons
const (
	ReasonTruncated           = "statement is not terminated"
	ReasonUnbalancedBraces    = "unbalanced braces in destructuring clause"
	ReasonUnterminatedComment = "block comment is never closed"
)

// ErrParse is matched by every ParseError via errors.Is
var ErrParse = errors.New("parse error")

// ParseError reports a statement the reorderer could not make sense of
type ParseError struct {
	Index     int    // statement position in the import region
	Statement string // offending statement text
	Reason    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: statement %d %q: %s", ErrParse, e.Index, snippet(e.Statement), e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// NewParseError builds a ParseError for the statement at index
func NewParseError(index int, statement, reason string) *ParseError {
	return &ParseError{Index: index, Statement: statement, Reason: reason}
}

// snippet shortens long statements for messages
func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const max = 60
	if r := []rune(s); len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}
