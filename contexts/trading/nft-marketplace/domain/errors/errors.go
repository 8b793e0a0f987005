package errors

import "errors"

var (
	ErrPriceMustBeAboveZero      = errors.New("listing price must be above zero")
	ErrNotOwner                  = errors.New("caller is not the asset owner")
	ErrNotApprovedForMarketplace = errors.New("marketplace is not approved to transfer the asset")
	ErrAlreadyListed             = errors.New("asset is already listed")
	ErrNotListed                 = errors.New("asset is not listed")
	ErrPriceNotMet               = errors.New("payment does not meet the listing price")
	ErrNoEarnings                = errors.New("no withdrawable earnings")
	ErrTransferFailed            = errors.New("value transfer failed")
	ErrInvalidRequest            = errors.New("invalid marketplace request")
	ErrInvalidListFilter         = errors.New("invalid listing filter")
	ErrRepositoryInvariantBroke  = errors.New("repository invariant violated")
)
