package ledger

import (
	"testing"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileDetectsAndFixesDrift(t *testing.T) {
	svc, gdb, rec := newTestService(t)
	alice := createUser(t, gdb, "alice")
	bob := createUser(t, gdb, "bob")
	cash := createAccount(t, svc, alice, "Cash", "100")
	other := createAccount(t, svc, bob, "Cash", "10")
	addTxn(t, svc, alice, cash, "25", domain.TypeDebit)

	// out-of-band write
	require.NoError(t, gdb.Model(&domain.Account{}).Where("id = ?", cash).Update("balance", dec("60")).Error)

	report, err := svc.Reconcile(ctx, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	require.Len(t, report.Drifts, 1)
	drift := report.Drifts[0]
	assert.Equal(t, cash, drift.AccountID)
	assert.Equal(t, alice, drift.UserID)
	assert.True(t, drift.Stored.Equal(dec("60")))
	assert.True(t, drift.Expected.Equal(dec("75")))
	assert.True(t, drift.Delta.Equal(dec("15")))
	assert.False(t, drift.Fixed)
	requireBalance(t, gdb, cash, "60")

	report, err = svc.Reconcile(ctx, alice, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	require.Len(t, report.Drifts, 1)
	assert.True(t, report.Drifts[0].Fixed)
	requireBalance(t, gdb, cash, "75")
	requireBalance(t, gdb, other, "10")

	report, err = svc.Reconcile(ctx, 0, false)
	require.NoError(t, err)
	assert.Empty(t, report.Drifts)

	var drifts int
	for _, ev := range rec.Events() {
		if ev.Type == events.AccountDrift {
			drifts++
		}
	}
	assert.Equal(t, 2, drifts)
}

func TestReconcileReportsOrphans(t *testing.T) {
	svc, gdb, _ := newTestService(t)
	userID := createUser(t, gdb, "alice")
	cash := createAccount(t, svc, userID, "Cash", "100")
	txn := addTxn(t, svc, userID, cash, "5", domain.TypeCredit)
	require.NoError(t, gdb.Delete(&domain.Account{}, "id = ?", cash).Error)

	report, err := svc.Reconcile(ctx, userID, false)
	require.NoError(t, err)
	assert.Zero(t, report.Checked)
	require.Len(t, report.Orphans, 1)
	assert.Equal(t, txn.ID, report.Orphans[0].ID)
}
