package logic

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/0xjesus/bachata-connect-api/internal/database"
	"github.com/0xjesus/bachata-connect-api/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()

	clabe := fmt.Sprintf("7101800000%08d", time.Now().UnixNano()%100000000)
	user := model.User{
		Nicename:     name,
		Email:        fmt.Sprintf("%s-%s@test.local", name, uuid.NewString()[:8]),
		FundingClabe: &clabe,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return &user
}

func fundUser(t *testing.T, db *gorm.DB, userID uint, amount string) {
	t.Helper()

	ref := uuid.NewString()
	_, err := NewLedgerLogic(db).RecordTransaction(RecordTransactionInput{
		UserID:      userID,
		Type:        model.TransactionTypeDeposit,
		Status:      model.TransactionStatusCompleted,
		Amount:      dec(amount),
		Description: "test deposit",
		ExternalRef: &ref,
	})
	if err != nil {
		t.Fatalf("fund user %d: %v", userID, err)
	}
}

func seedEvent(t *testing.T, db *gorm.DB, hostID uint, target, feePct string) *model.Event {
	t.Helper()

	event := model.Event{
		Title:             "Noche de Bachata",
		PublicSlug:        "noche-de-bachata-" + uuid.NewString()[:6],
		TargetAmount:      dec(target),
		CurrentAmount:     decimal.Zero,
		HostFeePercentage: dec(feePct),
		FundingDeadline:   time.Now().Add(48 * time.Hour),
		Status:            model.EventStatusFunding,
		HostID:            hostID,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return &event
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func mustBalance(t *testing.T, db *gorm.DB, userID uint) decimal.Decimal {
	t.Helper()

	balance, err := NewLedgerLogic(db).GetBalance(userID)
	if err != nil {
		t.Fatalf("get balance for user %d: %v", userID, err)
	}
	return balance
}

func countTransactions(t *testing.T, db *gorm.DB, query string, args ...interface{}) int64 {
	t.Helper()

	var count int64
	if err := db.Model(&model.Transaction{}).Where(query, args...).Count(&count).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return count
}
