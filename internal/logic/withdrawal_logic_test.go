package logic

import (
	"context"
	"errors"
	"testing"

	"github.com/0xjesus/bachata-connect-api/internal/gateway"
	"github.com/0xjesus/bachata-connect-api/internal/model"
	"gorm.io/gorm"
)

const testAddress = "0x52908400098527886E0F7030069857D2E4169EE7"

type fakeRail struct {
	result  *gateway.WithdrawalResult
	err     error
	calls   int
	lastReq gateway.WithdrawalRequest
}

func (f *fakeRail) CreateCryptoWithdrawal(ctx context.Context, req gateway.WithdrawalRequest) (*gateway.WithdrawalResult, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeRail) CreateMockDeposit(ctx context.Context, req gateway.MockDepositRequest) (*gateway.MockDepositResult, error) {
	return nil, errors.New("not implemented")
}

func seedAddress(t *testing.T, db *gorm.DB, userID uint) *model.CryptoAddress {
	t.Helper()

	address, err := NewCryptoAddressLogic(db).CreateAddress(userID, CreateAddressInput{
		Address:    testAddress,
		Blockchain: "ARBITRUM",
		Label:      "mi wallet",
		IsDefault:  true,
	})
	if err != nil {
		t.Fatalf("seed address: %v", err)
	}
	return address
}

func TestWithdrawSuccess(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "carla")
	fundUser(t, db, user.ID, "500.00")
	address := seedAddress(t, db, user.ID)

	rail := &fakeRail{result: &gateway.WithdrawalResult{
		ProviderID: "juno-wd-123",
		Payload:    map[string]interface{}{"id": "juno-wd-123"},
	}}
	logic := NewWithdrawalLogic(db, rail)

	withdrawal, err := logic.Withdraw(context.Background(), user.ID, WithdrawInput{
		AddressID: address.ID,
		Amount:    dec("200.00"),
	})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if rail.calls != 1 {
		t.Fatalf("expected exactly 1 rail call, got %d", rail.calls)
	}
	if withdrawal.Status != model.WithdrawalStatusCompleted {
		t.Fatalf("expected COMPLETED withdrawal, got %s", withdrawal.Status)
	}
	if withdrawal.ProviderID == nil || *withdrawal.ProviderID != "juno-wd-123" {
		t.Fatalf("expected provider id juno-wd-123, got %v", withdrawal.ProviderID)
	}

	// 发给通道的幂等键必须和落库的一致
	var stored model.CryptoWithdrawal
	if err := db.First(&stored, withdrawal.ID).Error; err != nil {
		t.Fatalf("reload withdrawal: %v", err)
	}
	if stored.IdempotencyKey == nil || *stored.IdempotencyKey == "" {
		t.Fatal("expected idempotency key persisted on withdrawal row")
	}
	if rail.lastReq.IdempotencyKey != *stored.IdempotencyKey {
		t.Fatalf("idempotency key sent to rail %q does not match stored %q",
			rail.lastReq.IdempotencyKey, *stored.IdempotencyKey)
	}

	if b := mustBalance(t, db, user.ID); !b.Equal(dec("300.00")) {
		t.Fatalf("expected balance 300.00, got %s", b.String())
	}

	var entry model.Transaction
	err = db.Where("user_id = ? AND type = ?", user.ID, model.TransactionTypeWithdrawalCrypto).First(&entry).Error
	if err != nil {
		t.Fatalf("find ledger entry: %v", err)
	}
	if entry.Status != model.TransactionStatusCompleted {
		t.Fatalf("expected COMPLETED ledger entry, got %s", entry.Status)
	}
	if !entry.Amount.Equal(dec("-200.00")) {
		t.Fatalf("expected ledger amount -200.00, got %s", entry.Amount.String())
	}
}

func TestWithdrawRailFailureReleasesFunds(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "carla")
	fundUser(t, db, user.ID, "500.00")
	address := seedAddress(t, db, user.ID)

	rail := &fakeRail{err: errors.New("juno unavailable")}
	logic := NewWithdrawalLogic(db, rail)

	_, err := logic.Withdraw(context.Background(), user.ID, WithdrawInput{
		AddressID: address.ID,
		Amount:    dec("200.00"),
	})
	if !errors.Is(err, ErrExternalRail) {
		t.Fatalf("expected ErrExternalRail, got %v", err)
	}

	// 失败的条目不计入余额，资金立即释放
	if b := mustBalance(t, db, user.ID); !b.Equal(dec("500.00")) {
		t.Fatalf("expected balance 500.00 after rail failure, got %s", b.String())
	}

	var entry model.Transaction
	err = db.Where("user_id = ? AND type = ?", user.ID, model.TransactionTypeWithdrawalCrypto).First(&entry).Error
	if err != nil {
		t.Fatalf("find ledger entry: %v", err)
	}
	if entry.Status != model.TransactionStatusFailed {
		t.Fatalf("expected FAILED ledger entry, got %s", entry.Status)
	}

	var withdrawal model.CryptoWithdrawal
	if err := db.Where("user_id = ?", user.ID).First(&withdrawal).Error; err != nil {
		t.Fatalf("find withdrawal: %v", err)
	}
	if withdrawal.Status != model.WithdrawalStatusFailed {
		t.Fatalf("expected FAILED withdrawal, got %s", withdrawal.Status)
	}
	if withdrawal.FailureReason == "" {
		t.Fatal("expected failure reason to be recorded")
	}
}

func TestWithdrawPendingReservationBlocksOverdraw(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "carla")
	fundUser(t, db, user.ID, "500.00")
	address := seedAddress(t, db, user.ID)

	// 一笔尚未终结的 PENDING 提现占住 300
	if _, err := NewLedgerLogic(db).RecordTransaction(RecordTransactionInput{
		UserID: user.ID,
		Type:   model.TransactionTypeWithdrawalCrypto,
		Status: model.TransactionStatusPending,
		Amount: dec("-300.00"),
	}); err != nil {
		t.Fatalf("seed pending entry: %v", err)
	}

	rail := &fakeRail{result: &gateway.WithdrawalResult{ProviderID: "x"}}
	_, err := NewWithdrawalLogic(db, rail).Withdraw(context.Background(), user.ID, WithdrawInput{
		AddressID: address.ID,
		Amount:    dec("300.00"),
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance against reserved funds, got %v", err)
	}
	if rail.calls != 0 {
		t.Fatalf("expected no rail call on rejected withdrawal, got %d", rail.calls)
	}
}

func TestWithdrawValidation(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "carla")
	fundUser(t, db, user.ID, "500.00")
	address := seedAddress(t, db, user.ID)
	logic := NewWithdrawalLogic(db, &fakeRail{})

	if _, err := logic.Withdraw(context.Background(), user.ID, WithdrawInput{
		AddressID: address.ID,
		Amount:    dec("-5.00"),
	}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative amount: expected ErrInvalidAmount, got %v", err)
	}

	if _, err := logic.Withdraw(context.Background(), user.ID, WithdrawInput{
		AddressID: 9999,
		Amount:    dec("50.00"),
	}); !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("missing address: expected ErrAddressNotFound, got %v", err)
	}

	// 别人的地址不可用
	other := seedUser(t, db, "other")
	fundUser(t, db, other.ID, "100.00")
	if _, err := logic.Withdraw(context.Background(), other.ID, WithdrawInput{
		AddressID: address.ID,
		Amount:    dec("50.00"),
	}); !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("foreign address: expected ErrAddressNotFound, got %v", err)
	}
}
