package policy_test

import (
	"errors"
	"testing"

	"github.com/xraph/vault/policy"
	"github.com/xraph/vault/types"
)

func TestCheckDepositBounds(t *testing.T) {
	p, err := policy.New(true, true, 10, 1000)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		amount  types.Amount
		wantErr error
	}{
		{"below min", 9, policy.ErrOutOfBounds},
		{"exactly min", 10, nil},
		{"mid range", 500, nil},
		{"exactly max", 1000, nil},
		{"above max", 1001, policy.ErrOutOfBounds},
		{"zero", 0, policy.ErrOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := p.CheckDeposit(tt.amount); !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGates(t *testing.T) {
	p := policy.Default()

	if err := p.CheckDeposit(1); err != nil {
		t.Fatalf("default deposit check: %v", err)
	}
	if err := p.CheckWithdrawal(); err != nil {
		t.Fatalf("default withdrawal check: %v", err)
	}

	p.SetDepositsEnabled(false)
	if err := p.CheckDeposit(1); !errors.Is(err, policy.ErrDisabled) {
		t.Errorf("disabled deposit: got %v", err)
	}

	p.SetWithdrawalsEnabled(false)
	if err := p.CheckWithdrawal(); !errors.Is(err, policy.ErrDisabled) {
		t.Errorf("disabled withdrawal: got %v", err)
	}

	p.SetDepositsEnabled(true)
	p.SetWithdrawalsEnabled(true)
	if err := p.CheckDeposit(1); err != nil {
		t.Errorf("re-enabled deposit: %v", err)
	}
	if err := p.CheckWithdrawal(); err != nil {
		t.Errorf("re-enabled withdrawal: %v", err)
	}
}

func TestSetLimits(t *testing.T) {
	p := policy.Default()

	if err := p.SetLimits(100, 50); !errors.Is(err, policy.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	// Previous bounds remain in effect after a rejected update.
	if err := p.CheckDeposit(1); err != nil {
		t.Errorf("bounds changed on failed update: %v", err)
	}

	if err := p.SetLimits(50, 100); err != nil {
		t.Fatal(err)
	}
	snap := p.Snapshot()
	if snap.MinDeposit != 50 || snap.MaxDeposit != 100 {
		t.Errorf("snapshot limits: got [%v, %v]", snap.MinDeposit, snap.MaxDeposit)
	}

	if _, err := policy.New(true, true, 5, 4); !errors.Is(err, policy.ErrInvalidRange) {
		t.Errorf("New with inverted range: got %v", err)
	}
}
