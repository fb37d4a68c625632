package logic

import "errors"

// 业务错误，调用方用 errors.Is 判断后原样返回给上层
// 除 ErrConcurrencyConflict 外都不应重试
var (
	// 输入校验
	ErrInvalidAmount = errors.New("金额必须大于0")
	ErrInvalidType   = errors.New("无效的账本条目类型")
	ErrValidation    = errors.New("参数校验失败")

	// 资源不存在
	ErrUserNotFound    = errors.New("用户不存在")
	ErrEventNotFound   = errors.New("活动不存在")
	ErrAddressNotFound = errors.New("提现地址不存在或已停用")
	ErrUpdateNotFound  = errors.New("活动动态不存在")
	ErrCommentNotFound = errors.New("评论不存在")

	// 业务规则
	ErrInsufficientBalance       = errors.New("余额不足")
	ErrAlreadyParticipating      = errors.New("已参与该活动")
	ErrUnauthorized              = errors.New("无权限执行该操作")
	ErrNotAcceptingContributions = errors.New("活动不在凑款中，无法参与")
	ErrInvalidStateTransition    = errors.New("非法的活动状态流转")
	ErrGoalNotMet                = errors.New("凑款目标尚未达成")

	// 外部支付通道调用失败，本地账本未写入
	ErrExternalRail = errors.New("外部支付通道调用失败")

	// 事务串行化冲突，整个操作可安全重试
	ErrConcurrencyConflict = errors.New("并发冲突，请重试")
)
