package logic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/0xjesus/bachata-connect-api/internal/model"
	"gorm.io/gorm"
)

// EventUpdateLogic 活动动态业务逻辑
// 发起人发动态，任何登录用户可以评论，删除权限归作者或发起人
type EventUpdateLogic struct {
	db *gorm.DB
}

// NewEventUpdateLogic 创建活动动态业务逻辑
func NewEventUpdateLogic(db *gorm.DB) *EventUpdateLogic {
	return &EventUpdateLogic{db: db}
}

// PostUpdate 在活动页发布一条动态，仅发起人可发
func (l *EventUpdateLogic) PostUpdate(eventID, authorID uint, content string) (*model.EventUpdate, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: 动态内容不能为空", ErrValidation)
	}

	var event model.Event
	if err := l.db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if event.HostID != authorID {
		return nil, fmt.Errorf("%w: 只有发起人可以发布动态", ErrUnauthorized)
	}

	update := model.EventUpdate{
		EventID:  eventID,
		AuthorID: authorID,
		Content:  content,
	}
	if err := l.db.Create(&update).Error; err != nil {
		return nil, err
	}
	return &update, nil
}

// ListUpdates 返回活动的全部动态，新的在前，附带评论数
func (l *EventUpdateLogic) ListUpdates(eventID uint) ([]model.EventUpdate, error) {
	var event model.Event
	if err := l.db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return l.listForEvent(event.ID)
}

// ListUpdatesBySlug 公开活动页按 slug 拉动态列表
func (l *EventUpdateLogic) ListUpdatesBySlug(slug string) ([]model.EventUpdate, error) {
	var event model.Event
	if err := l.db.Where("public_slug = ?", slug).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return l.listForEvent(event.ID)
}

func (l *EventUpdateLogic) listForEvent(eventID uint) ([]model.EventUpdate, error) {
	var updates []model.EventUpdate
	err := l.db.Where("event_id = ?", eventID).
		Preload("Author").
		Order("created_at DESC").
		Find(&updates).Error
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return updates, nil
	}

	ids := make([]uint, len(updates))
	for i, u := range updates {
		ids[i] = u.ID
	}

	type countRow struct {
		UpdateID uint
		Count    int64
	}
	var rows []countRow
	err = l.db.Model(&model.UpdateComment{}).
		Select("update_id, COUNT(*) AS count").
		Where("update_id IN ?", ids).
		Group("update_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.UpdateID] = row.Count
	}
	for i := range updates {
		updates[i].CommentCount = counts[updates[i].ID]
	}
	return updates, nil
}

// EditUpdate 修改动态内容，仅作者本人可改
func (l *EventUpdateLogic) EditUpdate(updateID, userID uint, content string) (*model.EventUpdate, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: 动态内容不能为空", ErrValidation)
	}

	var update model.EventUpdate
	if err := l.db.First(&update, updateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUpdateNotFound
		}
		return nil, err
	}
	if update.AuthorID != userID {
		return nil, fmt.Errorf("%w: 只能修改自己的动态", ErrUnauthorized)
	}

	if err := l.db.Model(&update).Update("content", content).Error; err != nil {
		return nil, err
	}
	return &update, nil
}

// DeleteUpdate 删除动态及其全部评论，作者或活动发起人可删
func (l *EventUpdateLogic) DeleteUpdate(updateID, userID uint) error {
	var update model.EventUpdate
	if err := l.db.First(&update, updateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUpdateNotFound
		}
		return err
	}

	var event model.Event
	if err := l.db.First(&event, update.EventID).Error; err != nil {
		return err
	}
	if update.AuthorID != userID && event.HostID != userID {
		return fmt.Errorf("%w: 只有作者或发起人可以删除动态", ErrUnauthorized)
	}

	// 先删评论再删动态，保持原子
	return RunTx(l.db, func(tx *gorm.DB) error {
		if err := tx.Where("update_id = ?", update.ID).Delete(&model.UpdateComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&update).Error
	})
}

// AddComment 在动态下发表评论，任何登录用户可发
func (l *EventUpdateLogic) AddComment(updateID, authorID uint, content string) (*model.UpdateComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: 评论内容不能为空", ErrValidation)
	}

	var update model.EventUpdate
	if err := l.db.First(&update, updateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUpdateNotFound
		}
		return nil, err
	}

	comment := model.UpdateComment{
		UpdateID: updateID,
		AuthorID: authorID,
		Content:  content,
	}
	if err := l.db.Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListComments 返回动态下的全部评论，旧的在前
func (l *EventUpdateLogic) ListComments(updateID uint) ([]model.UpdateComment, error) {
	var update model.EventUpdate
	if err := l.db.First(&update, updateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUpdateNotFound
		}
		return nil, err
	}

	var comments []model.UpdateComment
	err := l.db.Where("update_id = ?", updateID).
		Preload("Author").
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// DeleteComment 删除评论，作者或活动发起人可删
func (l *EventUpdateLogic) DeleteComment(commentID, userID uint) error {
	var comment model.UpdateComment
	if err := l.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	var update model.EventUpdate
	if err := l.db.First(&update, comment.UpdateID).Error; err != nil {
		return err
	}
	var event model.Event
	if err := l.db.First(&event, update.EventID).Error; err != nil {
		return err
	}

	if comment.AuthorID != userID && event.HostID != userID {
		return fmt.Errorf("%w: 只有作者或发起人可以删除评论", ErrUnauthorized)
	}
	return l.db.Delete(&comment).Error
}
