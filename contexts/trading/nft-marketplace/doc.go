// Package nftmarketplace implements the trading listing and escrow
// state machine: sellers list approved tokens, buyers settle purchases,
// and proceeds accrue to a pull-payment earnings ledger.
//
// The module keeps domain/application logic decoupled from runtime/platform
// concerns through ports and adapter composition.
package nftmarketplace
