package logic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/0xjesus/bachata-connect-api/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// CryptoAddressLogic 提现地址簿业务逻辑
type CryptoAddressLogic struct {
	db *gorm.DB
}

// NewCryptoAddressLogic 创建提现地址簿业务逻辑
func NewCryptoAddressLogic(db *gorm.DB) *CryptoAddressLogic {
	return &CryptoAddressLogic{db: db}
}

// CreateAddressInput 新增地址入参
type CreateAddressInput struct {
	Address    string
	Blockchain string
	Label      string
	IsDefault  bool
}

// CreateAddress 给用户登记一个链上收款地址
func (c *CryptoAddressLogic) CreateAddress(userID uint, in CreateAddressInput) (*model.CryptoAddress, error) {
	if in.Address == "" || in.Label == "" {
		return nil, fmt.Errorf("%w: 地址和标签不能为空", ErrValidation)
	}
	if !common.IsHexAddress(in.Address) {
		return nil, fmt.Errorf("%w: 非法的以太坊地址格式", ErrValidation)
	}
	if in.Blockchain == "" {
		in.Blockchain = "ARBITRUM"
	}

	normalized := strings.ToLower(in.Address)

	var result model.CryptoAddress
	err := RunTx(c.db, func(tx *gorm.DB) error {
		var existing model.CryptoAddress
		err := tx.Where("user_id = ? AND address = ?", userID, normalized).First(&existing).Error
		if err == nil {
			return fmt.Errorf("%w: 该地址已登记", ErrValidation)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// 新默认地址要先取消旧默认
		if in.IsDefault {
			if err := tx.Model(&model.CryptoAddress{}).
				Where("user_id = ?", userID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}

		result = model.CryptoAddress{
			UserID:     userID,
			Address:    normalized,
			Blockchain: strings.ToUpper(in.Blockchain),
			Label:      in.Label,
			IsDefault:  in.IsDefault,
			Status:     model.CryptoAddressStatusActive,
		}
		return tx.Create(&result).Error
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ListAddresses 返回用户的有效地址，默认地址排前
func (c *CryptoAddressLogic) ListAddresses(userID uint) ([]model.CryptoAddress, error) {
	var addresses []model.CryptoAddress
	if err := c.db.Where("user_id = ? AND status = ?", userID, model.CryptoAddressStatusActive).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("获取地址列表失败: %w", err)
	}
	return addresses, nil
}

// DeleteAddress 删除用户自己的地址
func (c *CryptoAddressLogic) DeleteAddress(addressID, userID uint) error {
	var address model.CryptoAddress
	err := c.db.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAddressNotFound
		}
		return err
	}
	return c.db.Delete(&address).Error
}
