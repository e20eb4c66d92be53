package service

import (
	"errors"
	"fmt"
)

var (
	ErrTweetNotFound        = errors.New("tweet not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrFollowSelf           = errors.New("cannot follow self")
	ErrEmptyContent         = errors.New("content must not be empty")
	ErrInvalidFileType      = errors.New("invalid file type")
	ErrFileTooLarge         = errors.New("file too large")
)

// fileTypeError 保留用户可读的提示，同时可被 errors.Is(err, ErrInvalidFileType) 识别
type fileTypeError struct{ fileType string }

func (e fileTypeError) Error() string {
	return fmt.Sprintf("The file type %q is not a recognized format.", e.fileType)
}

func (e fileTypeError) Is(target error) bool { return target == ErrInvalidFileType }

// InvalidFileType 构造文件类型错误
func InvalidFileType(fileType string) error { return fileTypeError{fileType: fileType} }

// IsValidation 判断是否为调用方输入错误
func IsValidation(err error) bool {
	return errors.Is(err, ErrFollowSelf) ||
		errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrInvalidFileType) ||
		errors.Is(err, ErrFileTooLarge)
}

// IsNotFound 判断是否为资源不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTweetNotFound) ||
		errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrNotificationNotFound)
}
