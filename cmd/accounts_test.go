package cmd

import (
	"testing"
)

func TestAccounts_List(t *testing.T) {
	backend := setupCmdTest(t)
	signIn(t)

	rootCmd.SetArgs([]string{"accounts"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("accounts failed: %v", err)
	}

	if got := backend.callCount("GET /api/v1/accounts"); got != 1 {
		t.Errorf("expected 1 accounts call, got %d", got)
	}
}

func TestDeposit_Succeeds(t *testing.T) {
	backend := setupCmdTest(t)
	signIn(t)

	rootCmd.SetArgs([]string{"deposit", "acc-1", "50"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	if got := backend.callCount("POST /api/v1/transactions/deposit"); got != 1 {
		t.Errorf("expected 1 deposit call, got %d", got)
	}
}

func TestDeposit_RejectsBadAmount(t *testing.T) {
	backend := setupCmdTest(t)
	signIn(t)

	for _, amount := range []string{"abc", "-5", "0"} {
		rootCmd.SetArgs([]string{"deposit", "acc-1", amount})
		if err := rootCmd.Execute(); err == nil {
			t.Errorf("expected deposit of %q to be rejected", amount)
		}
	}

	if got := backend.callCount("POST /api/v1/transactions/deposit"); got != 0 {
		t.Errorf("bad amounts must not reach the network, got %d calls", got)
	}
}
