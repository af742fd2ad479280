package util

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailRegistered   = errors.New("email already registered")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrAccountDisabled   = errors.New("account disabled")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrContentNotFound   = errors.New("content not found")
	ErrPlanNotFound      = errors.New("plan not found")
	ErrCardNotFound      = errors.New("card not found")
	ErrSessionNotFound   = errors.New("review session not found")
	ErrSessionEnded      = errors.New("review session already ended")
	ErrUnknownGoal       = errors.New("unknown goal")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrSentimentDisabled = errors.New("sentiment analysis is not configured")
	ErrUnsupportedMedia  = errors.New("unsupported media type")
)
