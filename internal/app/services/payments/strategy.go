// Package payments dispatches payment requests to per-method strategies.
// Each strategy validates its own required fields and stamps the note
// recorded on the payment row; validation happens before any state mutates.
package payments

import (
	"github.com/pawmart/petstore/internal/app/domain/order"
	"github.com/pawmart/petstore/internal/errors"
)

// Request carries the type-specific fields of a payment attempt.
type Request struct {
	PaymentType order.PaymentType `json:"payment_type"`
	CardNumber  string            `json:"card_number,omitempty"`
	PaypalID    string            `json:"paypal_id,omitempty"`
	WalletType  order.WalletType  `json:"wallet_type,omitempty"`
	WalletID    string            `json:"wallet_id,omitempty"`
}

// Strategy handles one payment method. Process validates the request and
// returns the note stamped on the payment record.
type Strategy interface {
	Process(req Request) (note string, err error)
}

// Factory resolves strategies by payment type.
type Factory struct {
	strategies map[order.PaymentType]Strategy
}

// NewFactory builds the default strategy table.
func NewFactory() *Factory {
	return &Factory{strategies: map[order.PaymentType]Strategy{
		order.PaymentCreditCard: CreditCard{},
		order.PaymentDebitCard:  DebitCard{},
		order.PaymentPayPal:     PayPal{},
		order.PaymentEWallet:    NewEWallet(),
	}}
}

// Resolve returns the strategy for the payment type.
func (f *Factory) Resolve(t order.PaymentType) (Strategy, error) {
	s, ok := f.strategies[t]
	if !ok {
		return nil, errors.Invalid("unsupported payment type %q", t)
	}
	return s, nil
}

// CreditCard requires a card number.
type CreditCard struct{}

func (CreditCard) Process(req Request) (string, error) {
	if req.CardNumber == "" {
		return "", errors.Invalid("card number is required for credit card payments")
	}
	return "CREDIT_CARD - " + maskCard(req.CardNumber), nil
}

// DebitCard requires a card number.
type DebitCard struct{}

func (DebitCard) Process(req Request) (string, error) {
	if req.CardNumber == "" {
		return "", errors.Invalid("card number is required for debit card payments")
	}
	return "DEBIT_CARD - " + maskCard(req.CardNumber), nil
}

// PayPal requires an account id.
type PayPal struct{}

func (PayPal) Process(req Request) (string, error) {
	if req.PaypalID == "" {
		return "", errors.Invalid("paypal id is required for paypal payments")
	}
	return "PAYPAL - " + req.PaypalID, nil
}

// EWallet sub-dispatches by wallet type through a nested strategy table.
type EWallet struct {
	wallets map[order.WalletType]walletStrategy
}

type walletStrategy interface {
	process(walletID string) (string, error)
}

// NewEWallet builds the e-wallet sub-strategy table.
func NewEWallet() EWallet {
	return EWallet{wallets: map[order.WalletType]walletStrategy{
		order.WalletGrabPay:  grabPay{},
		order.WalletBoostPay: boostPay{},
		order.WalletTouchNGo: touchNGo{},
	}}
}

func (e EWallet) Process(req Request) (string, error) {
	if req.WalletType == "" {
		return "", errors.Invalid("wallet type is required for e-wallet payments")
	}
	if req.WalletID == "" {
		return "", errors.Invalid("wallet id is required for e-wallet payments")
	}
	w, ok := e.wallets[req.WalletType]
	if !ok {
		return "", errors.Invalid("unsupported wallet type %q", req.WalletType)
	}
	return w.process(req.WalletID)
}

type grabPay struct{}

func (grabPay) process(walletID string) (string, error) {
	return "GRABPAY - " + walletID, nil
}

type boostPay struct{}

func (boostPay) process(walletID string) (string, error) {
	return "BOOSTPAY - " + walletID, nil
}

type touchNGo struct{}

func (touchNGo) process(walletID string) (string, error) {
	return "TOUCHNGO - " + walletID, nil
}

// maskCard keeps only the last four digits of a card number.
func maskCard(number string) string {
	if len(number) <= 4 {
		return number
	}
	return "****" + number[len(number)-4:]
}
