package ledger

import "errors"

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrResourceMismatch    = errors.New("resource mismatch")
	ErrResourceNotFound    = errors.New("resource not found")
	ErrNonFungibleNotFound = errors.New("non fungible not found")
	ErrNonFungibleExists   = errors.New("non fungible already exists")
	ErrVaultNotFound       = errors.New("vault not found")
	ErrComponentNotFound   = errors.New("component not found")
	ErrBucketNotEmpty      = errors.New("bucket not empty")
	ErrMetadataLocked      = errors.New("metadata locked")
	ErrAlreadyCommitted    = errors.New("transaction already committed")
)
