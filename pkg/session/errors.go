package session

import "errors"

var (
	// ErrNotFound is returned when a session is absent or has expired.
	// Callers must treat it as "session expired", not as a coding error.
	ErrNotFound = errors.New("session not found or expired")

	// ErrSessionFinished is returned for operations on a finished session.
	ErrSessionFinished = errors.New("session already finished")

	// ErrAlreadyRecording is returned when a recording is already in
	// progress for the session.
	ErrAlreadyRecording = errors.New("recording already in progress")

	// ErrNotRecording is returned when frames are appended outside the
	// recording state.
	ErrNotRecording = errors.New("session is not recording")
)
