package models

import (
	"errors"
	"fmt"
)

// ErrorKind — код ошибки из таксономии загрузчика. Сам код реализует error,
// поэтому с ним работает errors.Is.
type ErrorKind int

const (
	ErrTempDir  ErrorKind = 100
	ErrInput    ErrorKind = 101
	ErrOutput   ErrorKind = 102
	ErrMove     ErrorKind = 103
	ErrType     ErrorKind = 104
	ErrSecurity ErrorKind = 105
	ErrUnknown  ErrorKind = 111
)

var kindMessages = map[ErrorKind]string{
	ErrTempDir:  "Failed to open temp directory.",
	ErrInput:    "Failed to open input stream.",
	ErrOutput:   "Failed to open output stream.",
	ErrMove:     "Failed to move uploaded file.",
	ErrType:     "File type not allowed.",
	ErrSecurity: "File didn't pass security check.",
	ErrUnknown:  "Failed due to unknown error.",
}

// ErrNotFound возвращается реестром, если загрузка не зарегистрирована.
var ErrNotFound = errors.New("upload not found")

// Code возвращает код для ответа клиенту; неизвестные коды сводятся к ErrUnknown.
func (k ErrorKind) Code() int {
	if _, ok := kindMessages[k]; !ok {
		return int(ErrUnknown)
	}
	return int(k)
}

// Message возвращает человекочитаемое описание кода.
func (k ErrorKind) Message() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return kindMessages[ErrUnknown]
}

func (k ErrorKind) Error() string {
	return k.Message()
}

// Error — ошибка операции загрузки с кодом таксономии и исходной причиной.
type Error struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

// NewError собирает ошибку операции op над path.
func NewError(kind ErrorKind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.Message()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is позволяет сравнивать ошибку с кодом: errors.Is(err, models.ErrMove).
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// KindOf извлекает код из цепочки ошибок; всё постороннее считается ErrUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return 0
	}

	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}

	var k ErrorKind
	if errors.As(err, &k) {
		return k
	}

	return ErrUnknown
}
