package shared

import "errors"

// Error is a typed engine failure carrying a stable machine-readable code.
// Values are sentinels; match with errors.Is.
type Error struct {
	code string
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Code() string { return e.code }

var (
	ErrInvalidCurveParameters  = &Error{"INVALID_CURVE_PARAMETERS", "invalid curve parameters"}
	ErrInvalidSupply           = &Error{"INVALID_SUPPLY", "initial supply must be greater than zero"}
	ErrInsufficientCreationFee = &Error{"INSUFFICIENT_CREATION_FEE", "creation fee below required amount"}
	ErrZeroAmount              = &Error{"ZERO_AMOUNT", "amount must be greater than zero"}
	ErrSlippageExceeded        = &Error{"SLIPPAGE_EXCEEDED", "output below slippage bound"}
	ErrInsufficientLiquidity   = &Error{"INSUFFICIENT_LIQUIDITY", "insufficient liquidity"}
	ErrAssetAlreadyLaunched    = &Error{"ASSET_ALREADY_LAUNCHED", "asset already launched"}
	ErrArithmeticOverflow      = &Error{"ARITHMETIC_OVERFLOW", "arithmetic overflow"}
	ErrDivisionByZero          = &Error{"DIVISION_BY_ZERO", "division by zero"}
	ErrExternalMigrationFailed = &Error{"EXTERNAL_MIGRATION_FAILED", "external pool migration failed"}

	ErrUnknownCurve        = &Error{"UNKNOWN_CURVE", "curve not registered"}
	ErrUnknownAsset        = &Error{"UNKNOWN_ASSET", "asset not found"}
	ErrCurveInUse          = &Error{"CURVE_IN_USE", "curve still referenced by assets"}
	ErrMigrationNotPending = &Error{"MIGRATION_NOT_PENDING", "no pending migration for asset"}
)

// ErrorCode extracts the stable code from an engine error chain, or "INTERNAL"
// when the chain carries no typed engine error.
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return "INTERNAL"
}
