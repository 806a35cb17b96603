package censor

import "fmt"

var (
	// ErrConfig reports a censor built with settings it cannot honour, such as an unknown mode.
	ErrConfig = fmt.Errorf("invalid censor configuration")
	// ErrDataNotFound reports that no word list was given and the bundled default is missing.
	ErrDataNotFound = fmt.Errorf("default word list not found")
	// ErrInvalidPattern reports a word-list entry that does not compile in regex mode.
	ErrInvalidPattern = fmt.Errorf("invalid pattern")
)
