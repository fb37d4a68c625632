package handler

import (
	"net/http"

	"github.com/0xjesus/bachata-connect-api/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type EventUpdateHandler struct {
	updateLogic *logic.EventUpdateLogic
}

func NewEventUpdateHandler(db *gorm.DB) *EventUpdateHandler {
	return &EventUpdateHandler{
		updateLogic: logic.NewEventUpdateLogic(db),
	}
}

type updateContentRequest struct {
	Content string `json:"content"`
}

// PostUpdate 发起人在活动页发布动态
func (h *EventUpdateHandler) PostUpdate(c *gin.Context) {
	eventID, err := parseID(c, "id")
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的路径ID")
		return
	}

	var req updateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	update, err := h.updateLogic.PostUpdate(eventID, currentUserID(c), req.Content)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "动态发布成功", gin.H{"update": update})
}

// GetUpdates 获取活动的动态列表，和公开活动页一样按 slug 访问
func (h *EventUpdateHandler) GetUpdates(c *gin.Context) {
	updates, err := h.updateLogic.ListUpdatesBySlug(c.Param("slug"))
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取动态列表成功", gin.H{"updates": updates})
}

// EditUpdate 作者修改自己的动态
func (h *EventUpdateHandler) EditUpdate(c *gin.Context) {
	updateID, err := parseID(c, "id")
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的路径ID")
		return
	}

	var req updateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	update, err := h.updateLogic.EditUpdate(updateID, currentUserID(c), req.Content)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "动态修改成功", gin.H{"update": update})
}

// DeleteUpdate 删除动态及其评论
func (h *EventUpdateHandler) DeleteUpdate(c *gin.Context) {
	updateID, err := parseID(c, "id")
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的路径ID")
		return
	}

	if err := h.updateLogic.DeleteUpdate(updateID, currentUserID(c)); err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "动态删除成功", nil)
}

// AddComment 在动态下发表评论
func (h *EventUpdateHandler) AddComment(c *gin.Context) {
	updateID, err := parseID(c, "id")
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的路径ID")
		return
	}

	var req updateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	comment, err := h.updateLogic.AddComment(updateID, currentUserID(c), req.Content)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "评论发布成功", gin.H{"comment": comment})
}

// GetComments 获取动态下的评论列表
func (h *EventUpdateHandler) GetComments(c *gin.Context) {
	updateID, err := parseID(c, "id")
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的路径ID")
		return
	}

	comments, err := h.updateLogic.ListComments(updateID)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取评论列表成功", gin.H{"comments": comments})
}

// DeleteComment 删除评论
func (h *EventUpdateHandler) DeleteComment(c *gin.Context) {
	commentID, err := parseID(c, "id")
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的路径ID")
		return
	}

	if err := h.updateLogic.DeleteComment(commentID, currentUserID(c)); err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "评论删除成功", nil)
}
