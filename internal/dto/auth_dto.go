package dto

// ==================== 认证相关 DTO ====================

// RegisterRequest 注册请求 DTO
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`            // 邮箱（必填）
	Password string `json:"password" binding:"required,min=6,max=20"`  // 密码（必填）
	Nickname string `json:"nickname" binding:"omitempty,min=2,max=20"` // 昵称（可选，默认取邮箱前缀）
}

// RegisterResponse 注册响应 DTO
type RegisterResponse struct {
	UserUUID string `json:"userUuid"` // 用户UUID
	Email    string `json:"email"`    // 邮箱
	Nickname string `json:"nickname"` // 昵称
}

// LoginRequest 登录请求 DTO
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`           // 邮箱
	Password string `json:"password" binding:"required,min=6,max=20"` // 密码
}

// LoginResponse 登录响应 DTO
type LoginResponse struct {
	AccessToken string       `json:"accessToken"` // 访问令牌
	TokenType   string       `json:"tokenType"`   // 令牌类型
	ExpiresIn   int64        `json:"expiresIn"`   // 过期时间(秒)
	UserInfo    *UserSummary `json:"userInfo"`    // 用户摘要
}
