package services

import "errors"

// Dashboard service errors
var (
	ErrUnknownChartGroup = errors.New("unknown chart group")
	ErrInvalidQuarter    = errors.New("invalid quarter label")
	ErrInvalidRange      = errors.New("quarter range end precedes start")
)
