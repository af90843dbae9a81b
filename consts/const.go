package consts

// 通用错误码
const (
	CodeSuccess = 0 // 成功
)

// 客户端错误 (1xxxx)
const (
	CodeParamError       = 10001 // 参数验证失败
	CodeBodyError        = 10002 // 请求体格式错误
	CodeResourceNotFound = 10003 // 资源不存在
	CodeMethodNotAllowed = 10004 // 请求方法不允许
	CodeTooManyRequests  = 10005 // 请求过于频繁
	CodeTimeoutError     = 10006 // 请求处理超时
)

// 认证错误 (2xxxx)
const (
	CodeUnauthorized   = 20001 // 未认证
	CodeInvalidToken   = 20002 // Token 无效
	CodeTokenExpired   = 20003 // Token 已过期
	CodePermissionDeny = 20004 // 权限不足
)

// 用户模块错误 (11xxx)
const (
	CodeUserNotFound     = 11001 // 用户不存在
	CodeUserAlreadyExist = 11002 // 用户已存在
	CodePasswordError    = 11003 // 密码错误
	CodeUserBlocked      = 11004 // 已被对方拉黑
	CodeNotBlocked       = 11005 // 不存在拉黑关系
)

// 连接模块错误 (12xxx)
const (
	CodeConnectionNotFound  = 12001 // 连接不存在
	CodeInvalidDuration     = 12002 // 连接时长只能为1天或3天
	CodeSelfConnection      = 12003 // 不能与自己建立连接
	CodeSelfBusy            = 12004 // 你已有进行中的连接
	CodePeerBusy            = 12005 // 对方已有进行中的连接
	CodeConnectionNotParty  = 12006 // 不是该连接的参与方
	CodeConnectionNotTarget = 12007 // 只有接收方可以处理该连接
	CodeConnectionNotOwner  = 12008 // 只有发起方可以取消该连接
	CodeConnectionNotPend   = 12009 // 连接不在待处理状态
	CodeConnectionNotActive = 12010 // 连接不在生效期
	CodeConnectionExpired   = 12011 // 连接已过期
	CodePaymentRejected     = 12012 // 支付校验未通过
)

// 消息模块错误 (13xxx)
const (
	CodeMessageNotFound  = 13001 // 消息不存在
	CodeDailyLimit       = 13002 // 今日消息已发送
	CodeMessageTooLong   = 13003 // 消息内容超长
	CodeMessageNotTarget = 13004 // 只有接收方可以标记已读
)

// 足迹模块错误 (14xxx)
const (
	CodeTraceNotFound   = 14001 // 足迹不存在
	CodeTraceFreeUsed   = 14002 // 今日免费次数已用完
	CodeTraceCooldown   = 14003 // 冷却时间未到
	CodeTraceTooLong    = 14004 // 足迹内容超长
	CodeTraceNotAuthor  = 14005 // 只有作者可以删除足迹
	CodeAlreadyReported = 14006 // 已举报过该足迹
	CodeInvalidTier     = 14007 // 通行证档位不合法
	CodeInvalidToneTag  = 14008 // 语气标签不合法
	CodeInvalidLocation = 14009 // 坐标不合法
)

// 服务端错误 (3xxxx)
const (
	CodeInternalError      = 30001 // 服务器内部错误
	CodeServiceUnavailable = 30002 // 服务暂不可用
)

// CodeMessage 错误消息映射
var CodeMessage = map[int32]string{
	CodeSuccess: "success",

	// 客户端错误
	CodeParamError:       "参数验证失败",
	CodeBodyError:        "请求体格式错误",
	CodeResourceNotFound: "资源不存在",
	CodeMethodNotAllowed: "请求方法不允许",
	CodeTooManyRequests:  "请求过于频繁",
	CodeTimeoutError:     "请求处理超时",

	// 认证错误
	CodeUnauthorized:   "未认证",
	CodeInvalidToken:   "Token 无效",
	CodeTokenExpired:   "Token 已过期",
	CodePermissionDeny: "权限不足",

	// 用户模块
	CodeUserNotFound:     "用户不存在",
	CodeUserAlreadyExist: "用户已存在",
	CodePasswordError:    "密码错误",
	CodeUserBlocked:      "已被对方拉黑",
	CodeNotBlocked:       "不存在拉黑关系",

	// 连接模块
	CodeConnectionNotFound:  "连接不存在",
	CodeInvalidDuration:     "连接时长只能为1天或3天",
	CodeSelfConnection:      "不能与自己建立连接",
	CodeSelfBusy:            "你已有进行中的连接",
	CodePeerBusy:            "对方已有进行中的连接",
	CodeConnectionNotParty:  "不是该连接的参与方",
	CodeConnectionNotTarget: "只有接收方可以处理该连接",
	CodeConnectionNotOwner:  "只有发起方可以取消该连接",
	CodeConnectionNotPend:   "连接不在待处理状态",
	CodeConnectionNotActive: "连接不在生效期",
	CodeConnectionExpired:   "连接已过期",
	CodePaymentRejected:     "支付校验未通过",

	// 消息模块
	CodeMessageNotFound:  "消息不存在",
	CodeDailyLimit:       "今日消息已发送",
	CodeMessageTooLong:   "消息内容超长",
	CodeMessageNotTarget: "只有接收方可以标记已读",

	// 足迹模块
	CodeTraceNotFound:   "足迹不存在",
	CodeTraceFreeUsed:   "今日免费次数已用完",
	CodeTraceCooldown:   "冷却时间未到",
	CodeTraceTooLong:    "足迹内容超长",
	CodeTraceNotAuthor:  "只有作者可以删除足迹",
	CodeAlreadyReported: "已举报过该足迹",
	CodeInvalidTier:     "通行证档位不合法",
	CodeInvalidToneTag:  "语气标签不合法",
	CodeInvalidLocation: "坐标不合法",

	// 服务端错误
	CodeInternalError:      "服务器内部错误",
	CodeServiceUnavailable: "服务暂不可用",
}

// GetMessage 根据错误码获取错误消息
func GetMessage(code int32) string {
	if msg, ok := CodeMessage[code]; ok {
		return msg
	}
	return "未知错误"
}

// IsNonServerError 判断是否为业务错误（非服务端内部错误）
// 业务错误由客户端输入或状态机前置条件导致，直接透传给客户端，不记录错误日志
func IsNonServerError(code int32) bool {
	return code > 0 && code < 30000
}
