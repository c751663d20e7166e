package common

import "errors"

// Error kinds shared by the vault packages. Callers match them with errors.Is;
// every producer wraps them with the address, number or step that failed.
var (
	ErrInvalidMnemonic      = errors.New("invalid mnemonic")
	ErrUnsupportedAlgorithm = errors.New("unsupported crypto algorithm")
	ErrInvalidDerivation    = errors.New("invalid derivation path")
	ErrDecryptionFailed     = errors.New("decryption failed")
	ErrMalformedBackup      = errors.New("malformed backup")
	ErrSchemaValidation     = errors.New("backup payload schema validation failed")
	ErrKeypairMissing       = errors.New("keypair missing after construction")
	ErrPasswordRequired     = errors.New("password required")
	ErrRecordNotFound       = errors.New("wallet record not found")
	ErrNumberInUse          = errors.New("wallet number already in use")
	ErrEmptyMessage         = errors.New("empty message")
	ErrEmptySignature       = errors.New("empty signature")
	ErrDirectoryIO          = errors.New("wallet directory I/O error")

	ErrWalletNotReady     = errors.New("wallet is not ready")
	ErrAlreadyConstructed = errors.New("wallet already constructed")
	ErrWalletForgotten    = errors.New("wallet secret material has been wiped")
)
