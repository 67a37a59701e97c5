package summarize

import "errors"

var (
	ErrEmptyDocument   = errors.New("EMPTY_DOCUMENT")
	ErrLLMError        = errors.New("LLM_ERROR")
	ErrSummaryNotFound = errors.New("SUMMARY_NOT_FOUND")
)
