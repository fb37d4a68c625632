package logic

import (
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// RunTx 在一个串行化事务内执行 fn
// 所有"先读余额/状态再写账本"的操作都必须走这里，
// 串行化失败翻译为 ErrConcurrencyConflict，调用方可整体重试
func RunTx(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	err := db.Transaction(fn, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil && isSerializationFailure(err) {
		return fmt.Errorf("%w: %v", ErrConcurrencyConflict, err)
	}
	return err
}

// isSerializationFailure 识别串行化冲突
// postgres: SQLSTATE 40001（serialization_failure）/ 40P01（deadlock_detected）
// sqlite（测试库）: database is locked / database table is locked
func isSerializationFailure(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 40001") ||
		strings.Contains(msg, "SQLSTATE 40P01") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
