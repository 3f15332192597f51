package sptransport

import "errors"

var (
	// ErrLibraryClosed 库已关闭
	ErrLibraryClosed = errors.New("library closed")
)
