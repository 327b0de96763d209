/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import "errors"

var (
	ErrNoPairs      = errors.New("at least one pairing key is required")
	ErrEmptyKey     = errors.New("pairing key must not be empty")
	ErrDuplicateKey = errors.New("pairing key is used more than once")
)
