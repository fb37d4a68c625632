package logic

import (
	"errors"
	"testing"

	"github.com/0xjesus/bachata-connect-api/internal/model"
)

func TestGetBalanceDerivedFromCompletedEntries(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "carla")
	ledger := NewLedgerLogic(db)

	fundUser(t, db, user.ID, "500.00")
	fundUser(t, db, user.ID, "250.50")

	// PENDING 不计入余额
	if _, err := ledger.RecordTransaction(RecordTransactionInput{
		UserID: user.ID,
		Type:   model.TransactionTypeWithdrawalCrypto,
		Status: model.TransactionStatusPending,
		Amount: dec("-100.00"),
	}); err != nil {
		t.Fatalf("record pending entry: %v", err)
	}

	// FAILED 也不计入
	if _, err := ledger.RecordTransaction(RecordTransactionInput{
		UserID: user.ID,
		Type:   model.TransactionTypeWithdrawalCrypto,
		Status: model.TransactionStatusFailed,
		Amount: dec("-50.00"),
	}); err != nil {
		t.Fatalf("record failed entry: %v", err)
	}

	balance := mustBalance(t, db, user.ID)
	if !balance.Equal(dec("750.50")) {
		t.Fatalf("expected balance 750.50, got %s", balance.String())
	}
}

func TestGetBalanceZeroForNewUser(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "nuevo")

	balance := mustBalance(t, db, user.ID)
	if !balance.IsZero() {
		t.Fatalf("expected exact zero for user without entries, got %s", balance.String())
	}
}

func TestRecordTransactionRejectsZeroAmount(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "carla")

	_, err := NewLedgerLogic(db).RecordTransaction(RecordTransactionInput{
		UserID: user.ID,
		Type:   model.TransactionTypeDeposit,
		Amount: dec("0"),
	})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestRecordTransactionRejectsUnknownType(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "carla")

	_, err := NewLedgerLogic(db).RecordTransaction(RecordTransactionInput{
		UserID: user.ID,
		Type:   model.TransactionType("BONUS"),
		Amount: dec("10.00"),
	})
	if !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestListHistoryPagination(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "carla")

	for i := 0; i < 15; i++ {
		fundUser(t, db, user.ID, "10.00")
	}

	page1, total, err := NewLedgerLogic(db).ListHistory(user.ID, 10, 0)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if total != 15 {
		t.Fatalf("expected total 15, got %d", total)
	}
	if len(page1) != 10 {
		t.Fatalf("expected 10 entries on first page, got %d", len(page1))
	}

	page2, _, err := NewLedgerLogic(db).ListHistory(user.ID, 10, 10)
	if err != nil {
		t.Fatalf("list history page 2: %v", err)
	}
	if len(page2) != 5 {
		t.Fatalf("expected 5 entries on second page, got %d", len(page2))
	}

	// 倒序：第一页不应包含比第二页更老的条目
	if page1[0].ID < page2[0].ID {
		t.Fatalf("expected newest entries first, got %d before %d", page1[0].ID, page2[0].ID)
	}
}

func TestProcessDepositCreditsUserByClabe(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "carla")

	transaction, err := NewLedgerLogic(db).ProcessDeposit(DepositPayload{
		ExternalID: "juno-tx-001",
		Amount:     dec("1500.00"),
		Clabe:      *user.FundingClabe,
		Raw:        model.Metas{"id": "juno-tx-001"},
	})
	if err != nil {
		t.Fatalf("process deposit: %v", err)
	}
	if transaction.UserID != user.ID {
		t.Fatalf("expected deposit credited to user %d, got %d", user.ID, transaction.UserID)
	}
	if transaction.Type != model.TransactionTypeDeposit {
		t.Fatalf("expected DEPOSIT entry, got %s", transaction.Type)
	}

	balance := mustBalance(t, db, user.ID)
	if !balance.Equal(dec("1500.00")) {
		t.Fatalf("expected balance 1500.00, got %s", balance.String())
	}
}

func TestProcessDepositIdempotentOnExternalRef(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "carla")
	ledger := NewLedgerLogic(db)

	payload := DepositPayload{
		ExternalID: "juno-tx-dup",
		Amount:     dec("800.00"),
		Clabe:      *user.FundingClabe,
	}

	first, err := ledger.ProcessDeposit(payload)
	if err != nil {
		t.Fatalf("first deposit: %v", err)
	}
	second, err := ledger.ProcessDeposit(payload)
	if err != nil {
		t.Fatalf("duplicate deposit: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected duplicate webhook to return existing entry %d, got %d", first.ID, second.ID)
	}

	if n := countTransactions(t, db, "external_ref = ?", "juno-tx-dup"); n != 1 {
		t.Fatalf("expected exactly 1 ledger entry, got %d", n)
	}
	balance := mustBalance(t, db, user.ID)
	if !balance.Equal(dec("800.00")) {
		t.Fatalf("expected balance 800.00 after duplicate webhook, got %s", balance.String())
	}
}

func TestProcessDepositUnknownClabe(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "carla")

	_, err := NewLedgerLogic(db).ProcessDeposit(DepositPayload{
		ExternalID: "juno-tx-err",
		Amount:     dec("100.00"),
		Clabe:      "710180000099999999",
	})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFinancialStats(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "carla")
	ledger := NewLedgerLogic(db)

	fundUser(t, db, user.ID, "1000.00")
	if _, err := ledger.RecordTransaction(RecordTransactionInput{
		UserID: user.ID,
		Type:   model.TransactionTypeWithdrawalCrypto,
		Status: model.TransactionStatusCompleted,
		Amount: dec("-300.00"),
	}); err != nil {
		t.Fatalf("record withdrawal: %v", err)
	}

	stats, err := ledger.GetFinancialStats(user.ID)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.TotalTransactions != 2 {
		t.Fatalf("expected 2 transactions, got %d", stats.TotalTransactions)
	}
	if !stats.TotalDeposited.Equal(dec("1000.00")) {
		t.Fatalf("expected deposited 1000.00, got %s", stats.TotalDeposited.String())
	}
	if !stats.TotalWithdrawn.Equal(dec("300.00")) {
		t.Fatalf("expected withdrawn 300.00, got %s", stats.TotalWithdrawn.String())
	}
	if stats.LastTransaction == nil {
		t.Fatal("expected last transaction timestamp")
	}
}
