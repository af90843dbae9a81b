package service

import (
	"context"

	"LocusServer/internal/dto"
)

// ==================== 认证服务接口 ====================

// IAuthService 认证服务接口
// 职责：用户注册、登录、令牌签发
type IAuthService interface {
	// Register 用户注册
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)

	// Login 用户登录
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

// ==================== 连接服务接口 ====================

// IConnectionService 消息模式连接服务接口
// 职责：连接生命周期（发起/接受/拒绝/拉黑/取消/查询）与拉黑管理
type IConnectionService interface {
	// Request 发起连接请求
	Request(ctx context.Context, userUUID string, req *dto.RequestConnectionRequest) (*dto.ConnectionInfo, error)

	// Accept 接收方接受连接
	Accept(ctx context.Context, userUUID, connectionUUID string) (*dto.ConnectionInfo, error)

	// Reject 接收方拒绝连接
	Reject(ctx context.Context, userUUID, connectionUUID string) error

	// Block 接收方拒绝并拉黑发起方
	Block(ctx context.Context, userUUID, connectionUUID string) error

	// Cancel 发起方取消待处理连接
	Cancel(ctx context.Context, userUUID, connectionUUID string) error

	// GetCurrent 查询当前进行中连接（带今日可发送标记）
	GetCurrent(ctx context.Context, userUUID string) (*dto.GetCurrentConnectionResponse, error)

	// BlockUser 手动拉黑指定用户（独立于连接处理，幂等）
	BlockUser(ctx context.Context, userUUID, peerUUID string) error

	// Unblock 取消拉黑
	Unblock(ctx context.Context, userUUID, peerUUID string) error

	// ListBlocks 获取拉黑列表
	ListBlocks(ctx context.Context, userUUID string, req *dto.GetBlockListRequest) (*dto.GetBlockListResponse, error)
}

// ==================== 消息服务接口 ====================

// IMessageService 每日消息服务接口
type IMessageService interface {
	// Send 发送消息（每连接每发送者每自然日一条）
	Send(ctx context.Context, userUUID string, req *dto.SendMessageRequest) (*dto.MessageInfo, error)

	// MarkRead 接收方标记已读（幂等），返回标记后的消息
	MarkRead(ctx context.Context, userUUID, messageUUID string) (*dto.MessageInfo, error)

	// GetTodayReceived 获取今日收到的消息
	GetTodayReceived(ctx context.Context, userUUID string) (*dto.GetTodayMessageResponse, error)
}

// ==================== 足迹服务接口 ====================

// ITraceService 足迹服务接口
// 职责：写入许可判定、写入、查询、点赞、举报、删除、通行证支付
type ITraceService interface {
	// ResolvePermission 判定当前写入许可
	ResolvePermission(ctx context.Context, userUUID string) (*dto.TracePermissionResponse, error)

	// Write 写足迹（内部重新判定许可）
	Write(ctx context.Context, userUUID string, req *dto.WriteTraceRequest) (*dto.TraceItem, error)

	// List 查询所在网格单元的足迹列表
	List(ctx context.Context, userUUID string, req *dto.ListTraceRequest) (*dto.ListTraceResponse, error)

	// Like 点赞（幂等）
	Like(ctx context.Context, userUUID, traceUUID string) (*dto.LikeTraceResponse, error)

	// Unlike 取消点赞（幂等）
	Unlike(ctx context.Context, userUUID, traceUUID string) (*dto.LikeTraceResponse, error)

	// Report 举报
	Report(ctx context.Context, userUUID, traceUUID string, req *dto.ReportTraceRequest) (*dto.ReportTraceResponse, error)

	// Delete 作者删除足迹
	Delete(ctx context.Context, userUUID, traceUUID string) error

	// MockPayment 通行证支付（经支付校验端口）
	MockPayment(ctx context.Context, userUUID string, req *dto.MockPaymentRequest) (*dto.MockPaymentResponse, error)
}
