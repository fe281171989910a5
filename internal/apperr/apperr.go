// Package apperr описывает ошибки бизнес-правил и ошибки хранилища,
// общие для всех сервисов бэк-офиса.
package apperr

import (
	"errors"
	"fmt"
)

// Code содержит стабильный машиночитаемый код нарушенного правила.
type Code string

// ValidationError описывает ошибку, вызванную некорректными данными вызывающей стороны.
// Сравнивается по указателю, поэтому сервисы возвращают экспортируемые значения как есть.
type ValidationError struct {
	Code    Code
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidation(code Code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// Ошибки клиентов.
var (
	ErrCustomerMissing           = newValidation("CUSTOMER_MISSING", "no customer was supplied")
	ErrCustomerIDMissing         = newValidation("CUSTOMER_ID_MISSING", "no customer id was supplied")
	ErrCustomerFirstNameMissing  = newValidation("CUSTOMER_FIRST_NAME_MISSING", "no first name was supplied")
	ErrCustomerLastNameMissing   = newValidation("CUSTOMER_LAST_NAME_MISSING", "no last name was supplied")
	ErrCustomerStreetMissing     = newValidation("CUSTOMER_STREET_MISSING", "no street was supplied")
	ErrCustomerPostalCodeMissing = newValidation("CUSTOMER_POSTAL_CODE_MISSING", "no postal code was supplied")
	ErrCustomerCityMissing       = newValidation("CUSTOMER_CITY_MISSING", "no city was supplied")
	ErrCustomerIDPreset          = newValidation("CUSTOMER_ID_PRESET", "the customer id is generated and must not be supplied")
	ErrCustomerStatusPreset      = newValidation("CUSTOMER_STATUS_PRESET", "the customer is enrolled automatically, status must not be supplied")
	ErrCustomerAlreadyExists     = newValidation("CUSTOMER_ALREADY_EXISTS", "a customer with this name and address already exists")
	ErrCustomerNotFound          = newValidation("CUSTOMER_NOT_FOUND", "the customer was not found")
	ErrCustomerAlreadyUnenrolled = newValidation("CUSTOMER_ALREADY_UNENROLLED", "the customer is unenrolled")
	ErrCustomerHasOpenAccounts   = newValidation("CUSTOMER_HAS_OPEN_ACCOUNTS", "the customer still has open accounts")
)

// Ошибки счетов.
var (
	ErrAccountMissing               = newValidation("ACCOUNT_MISSING", "no account was supplied")
	ErrAccountNumberFieldMissing    = newValidation("ACCOUNT_NUMBER_FIELD_MISSING", "no account number was supplied")
	ErrAccountNumberEmpty           = newValidation("ACCOUNT_NUMBER_EMPTY", "the account number is empty")
	ErrAccountNumberBadFormat       = newValidation("ACCOUNT_NUMBER_BAD_FORMAT", "the account number format is invalid")
	ErrAccountNumberInvalidChecksum = newValidation("ACCOUNT_NUMBER_INVALID_CHECKSUM", "the account number is not a valid account number")
	ErrAccountAlreadyExists         = newValidation("ACCOUNT_ALREADY_EXISTS", "the account number is already in use")
	ErrAccountNotFound              = newValidation("ACCOUNT_NOT_FOUND", "no account was found")
	ErrAccountAlreadyClosed         = newValidation("ACCOUNT_ALREADY_CLOSED", "the account has already been closed")
	ErrAccountBalanceMustBeZero     = newValidation("ACCOUNT_BALANCE_MUST_BE_ZERO", "the balance must be zero")
	ErrAccountMustBeOpen            = newValidation("ACCOUNT_MUST_BE_OPEN", "the account is opened automatically, status must not be supplied")
	ErrAccountAmountMissing         = newValidation("ACCOUNT_AMOUNT_MISSING", "no amount was supplied")
	ErrAccountAmountMustBePositive  = newValidation("ACCOUNT_AMOUNT_MUST_BE_POSITIVE", "the amount must be positive")
	ErrAccountAmountTooLarge        = newValidation("ACCOUNT_AMOUNT_TOO_LARGE", "the amount exceeds the balance")
	ErrAccountAmountInvalid         = newValidation("ACCOUNT_AMOUNT_INVALID", "the amount must be a number, optionally with a decimal point")
)

// StorageError оборачивает любую ошибку хранилища. Такие ошибки не исправляются
// вызывающей стороной и не повторяются сервисами.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage оборачивает ошибку репозитория операцией op. Для nil возвращает nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsValidation сообщает, является ли err нарушением бизнес-правила.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStorage сообщает, произошла ли err в хранилище.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// CodeOf возвращает код нарушенного правила или пустую строку.
func CodeOf(err error) Code {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}
