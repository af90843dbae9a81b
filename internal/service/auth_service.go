package service

import (
	"context"
	"errors"
	"strings"

	"LocusServer/consts"
	"LocusServer/internal/dto"
	"LocusServer/internal/repository"
	"LocusServer/internal/utils"
	"LocusServer/model"
	"LocusServer/pkg/errs"
	"LocusServer/pkg/logger"
	"LocusServer/pkg/util"

	"golang.org/x/crypto/bcrypt"
)

// authServiceImpl 认证服务实现
type authServiceImpl struct {
	userRepo repository.IUserRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(userRepo repository.IUserRepository) IAuthService {
	return &authServiceImpl{
		userRepo: userRepo,
	}
}

// Register 用户注册
// 业务流程：
//  1. 邮箱占用快速预检（唯一索引兜底并发竞争）
//  2. 密码哈希化
//  3. 创建用户并返回用户信息
//
// 错误码映射：
//   - CodeUserAlreadyExist: 邮箱已注册
//   - CodeInternalError: 系统内部错误
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	logger.Info(ctx, "用户注册请求",
		logger.String("email", req.Email),
		logger.String("nickname", req.Nickname),
	)

	// 1. 邮箱占用快速预检，省掉冲突场景下的哈希开销
	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, errs.Internal(err)
	}
	if exists {
		return nil, errs.New(consts.CodeUserAlreadyExist)
	}

	// 2. 密码哈希化
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error(ctx, "生成密码哈希失败",
			logger.ErrorField("error", err),
		)
		return nil, errs.Internal(err)
	}

	// 昵称缺省取邮箱前缀
	nickname := req.Nickname
	if nickname == "" {
		nickname = strings.SplitN(req.Email, "@", 2)[0]
	}

	user := &model.UserInfo{
		Uuid:            util.NewID(),
		Nickname:        nickname,
		Email:           req.Email,
		Password:        string(hashedPassword),
		ReportInfluence: 1.0,
	}

	// 3. 向数据库中插入，并发注册的邮箱重复由唯一索引拦截
	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, errs.New(consts.CodeUserAlreadyExist)
		}
		logger.Error(ctx, "创建用户失败",
			logger.ErrorField("error", err),
		)
		return nil, errs.Internal(err)
	}

	return &dto.RegisterResponse{
		UserUUID: created.Uuid,
		Email:    created.Email,
		Nickname: created.Nickname,
	}, nil
}

// Login 用户登录
// 业务流程：
//  1. 根据邮箱查询用户
//  2. 校验密码
//  3. 签发访问令牌
//
// 错误码映射：
//   - CodeUserNotFound: 用户不存在
//   - CodePasswordError: 密码错误
//   - CodeInternalError: 系统内部错误
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	logger.Info(ctx, "用户登录请求",
		logger.String("email", utils.MaskEmail(req.Email)),
	)

	// 1. 根据邮箱查询用户
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, errs.New(consts.CodeUserNotFound)
		}
		logger.Error(ctx, "查询用户失败",
			logger.ErrorField("error", err),
		)
		return nil, errs.Internal(err)
	}

	// 2. 校验密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errs.New(consts.CodePasswordError)
	}

	// 3. 签发访问令牌
	accessToken, err := utils.GenerateToken(user.Uuid)
	if err != nil {
		logger.Error(ctx, "生成访问令牌失败",
			logger.ErrorField("error", err),
		)
		return nil, errs.Internal(err)
	}

	logger.Info(ctx, "用户登录成功",
		logger.String("user_uuid", user.Uuid),
	)

	return &dto.LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(utils.TokenTTL().Seconds()),
		UserInfo:    dto.ConvertUserSummaryFromModel(user),
	}, nil
}
