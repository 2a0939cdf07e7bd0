package repository

import "errors"

var (
	ErrPermitNotFound = errors.New("permit not found")
	ErrClientNotFound = errors.New("client not found")
	ErrClassNotFound  = errors.New("automation class not found")
	ErrInvalidInput   = errors.New("invalid input parameters")
	ErrInvalidRules   = errors.New("invalid rule configuration")
)
