package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session id is unknown or has been ended.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrCourseNotFound indicates the question pool for a course could not be loaded.
	ErrCourseNotFound = errors.New("course not found")
	// ErrInvalidCount is returned when the requested question count is not an integer in [1, pool size].
	ErrInvalidCount = errors.New("invalid question count")
	// ErrAnswerKeyMismatch indicates a question whose answer letter matches none of its non-blank options.
	ErrAnswerKeyMismatch = errors.New("answer key does not match any option")
	// ErrDuplicateQuestion indicates two questions sharing an id within one course pool.
	ErrDuplicateQuestion = errors.New("duplicate question id in pool")
	// ErrUnknownQuestion indicates a question id outside the session's selection.
	ErrUnknownQuestion = errors.New("question not in session")
	// ErrInvalidAnswer indicates a letter that the question does not offer.
	ErrInvalidAnswer = errors.New("answer letter not offered")
	// ErrAlreadySubmitted is returned by any mutation of a submitted session.
	ErrAlreadySubmitted = errors.New("quiz session already submitted")

	// ErrEmptyMessage is returned when a chat message is blank after trimming.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrSendInProgress rejects a send while another one is in flight on the same conversation.
	ErrSendInProgress = errors.New("send already in progress")
	// ErrSendFailed wraps a collaborator failure on send; the draft has been restored.
	ErrSendFailed = errors.New("send failed")
	// ErrHistoryDiverged means the last authoritative message is missing from the fetched history.
	ErrHistoryDiverged = errors.New("message history diverged")
	// ErrConversationClosed is returned by operations on a closed conversation.
	ErrConversationClosed = errors.New("conversation closed")
)
