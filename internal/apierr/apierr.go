// Package apierr enumerates the relayer's error taxonomy and the codes the
// public API mirrors them to on the wire.
package apierr

import "fmt"

// Code identifies an error kind on the {code,data,message} response envelope.
// Zero is reserved for success; every relayer-raised error uses a distinct
// non-zero code.
type Code int

const (
	CodeSuccess Code = 0

	CodeValidateError Code = iota + 100
	CodeRepeatedTransaction
	CodeChainIDNotFound
	CodeAccountNotFoundInDatabase
	CodeUnsupportedTransaction
	CodeGetGasPriceError
	CodeGetMinimumGasFeeFailed
	CodeDatabaseError
	CodeTransactionChannelError
	CodeTransactionNotFound
	CodeTransactionFailed
	CodeUnknown
)

var names = map[Code]string{
	CodeValidateError:             "ValidateError",
	CodeRepeatedTransaction:       "RepeatedTransaction",
	CodeChainIDNotFound:           "ChainIdNotFound",
	CodeAccountNotFoundInDatabase: "AccountNotFoundInDatabase",
	CodeUnsupportedTransaction:    "UnsupportedTransaction",
	CodeGetGasPriceError:          "GetGasPriceError",
	CodeGetMinimumGasFeeFailed:    "GetMinimumGasFeeFailed",
	CodeDatabaseError:             "DatabaseError",
	CodeTransactionChannelError:   "TransactionChannelError",
	CodeTransactionNotFound:       "TransactionNotFound",
	CodeTransactionFailed:         "TransactionFailed",
	CodeUnknown:                   "Unknown",
}

// Error is a relayer error carrying the taxonomy code surfaced in the
// response envelope's "code" field alongside the human message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code.String(), e.Message)
}

func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "Unknown"
}

// New builds an *Error for the given code and formatted message.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a taxonomy code to an existing error's message.
func Wrap(code Code, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: err.Error()}
}
