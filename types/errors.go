package types

import "errors"

// Error taxonomy shared by the engine. Callers discriminate with errors.Is;
// every failure is terminal (no automatic retries anywhere in the engine).
var (
	// ErrNotFound - the requested transaction id is absent from the event index
	ErrNotFound = errors.New("transaction not found")

	// ErrInvalidAmount - empty, non-numeric, non-positive or over-precise amount
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrValidation - malformed address, timeout or other pre-flight parameter
	ErrValidation = errors.New("invalid parameters")

	// ErrUnauthorized - caller is not the party allowed to perform the action
	ErrUnauthorized = errors.New("caller not authorized for this action")

	// ErrUploadFailed - a metadata store write failed
	ErrUploadFailed = errors.New("metadata upload failed")

	// ErrChainRejected - a write was submitted but rejected or reverted
	ErrChainRejected = errors.New("transaction rejected on chain")

	// ErrInsufficientFunds - pre-flight balance check failed, no write submitted
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrInsufficientAllowance - allowance too low and could not be raised
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrNoContractCode - a configured contract address holds no code
	ErrNoContractCode = errors.New("no contract code at address")
)
