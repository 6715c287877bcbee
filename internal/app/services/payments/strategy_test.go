package payments

import (
	"testing"

	"github.com/pawmart/petstore/internal/app/domain/order"
)

func TestFactoryResolvesKnownTypes(t *testing.T) {
	f := NewFactory()
	for _, pt := range []order.PaymentType{order.PaymentCreditCard, order.PaymentDebitCard, order.PaymentPayPal, order.PaymentEWallet} {
		if _, err := f.Resolve(pt); err != nil {
			t.Fatalf("resolve %s: %v", pt, err)
		}
	}
	if _, err := f.Resolve("BITCOIN"); err == nil {
		t.Fatalf("expected unsupported payment type error")
	}
}

func TestCardStrategies(t *testing.T) {
	cases := []struct {
		strategy Strategy
		want     string
	}{
		{CreditCard{}, "CREDIT_CARD - ****1111"},
		{DebitCard{}, "DEBIT_CARD - ****1111"},
	}
	for _, tc := range cases {
		if _, err := tc.strategy.Process(Request{}); err == nil {
			t.Fatalf("%T: expected missing card number to fail", tc.strategy)
		}
		note, err := tc.strategy.Process(Request{CardNumber: "4111111111111111"})
		if err != nil {
			t.Fatalf("%T: %v", tc.strategy, err)
		}
		if note != tc.want {
			t.Fatalf("%T: note %q, want %q", tc.strategy, note, tc.want)
		}
	}
}

func TestPayPalStrategy(t *testing.T) {
	if _, err := (PayPal{}).Process(Request{}); err == nil {
		t.Fatalf("expected missing paypal id to fail")
	}
	note, err := (PayPal{}).Process(Request{PaypalID: "buyer@paypal.com"})
	if err != nil {
		t.Fatalf("paypal: %v", err)
	}
	if note != "PAYPAL - buyer@paypal.com" {
		t.Fatalf("unexpected note %q", note)
	}
}

func TestEWalletDispatch(t *testing.T) {
	e := NewEWallet()

	cases := []struct {
		wallet order.WalletType
		want   string
	}{
		{order.WalletGrabPay, "GRABPAY - w-1"},
		{order.WalletBoostPay, "BOOSTPAY - w-1"},
		{order.WalletTouchNGo, "TOUCHNGO - w-1"},
	}
	for _, tc := range cases {
		note, err := e.Process(Request{WalletType: tc.wallet, WalletID: "w-1"})
		if err != nil {
			t.Fatalf("%s: %v", tc.wallet, err)
		}
		if note != tc.want {
			t.Fatalf("%s: note %q, want %q", tc.wallet, note, tc.want)
		}
	}

	if _, err := e.Process(Request{WalletID: "w-1"}); err == nil {
		t.Fatalf("expected missing wallet type to fail")
	}
	if _, err := e.Process(Request{WalletType: order.WalletGrabPay}); err == nil {
		t.Fatalf("expected missing wallet id to fail")
	}
	if _, err := e.Process(Request{WalletType: "APPLEPAY", WalletID: "w-1"}); err == nil {
		t.Fatalf("expected unsupported wallet type to fail")
	}
}
