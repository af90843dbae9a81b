package service

import (
	"context"
	"testing"

	"LocusServer/consts"
	"LocusServer/internal/dto"
	"LocusServer/internal/repository"
	"LocusServer/internal/utils"
	"LocusServer/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthServiceRegister(t *testing.T) {
	initServiceTestLogger()

	t.Run("duplicate_email_precheck", func(t *testing.T) {
		createCalled := false
		userRepo := &fakeUserRepository{
			existsByEmailFn: func(_ context.Context, _ string) (bool, error) {
				return true, nil
			},
			createFn: func(_ context.Context, user *model.UserInfo) (*model.UserInfo, error) {
				createCalled = true
				return user, nil
			},
		}
		svc := NewAuthService(userRepo)

		resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
			Email:    "a@example.com",
			Password: "secret12",
		})
		require.Nil(t, resp)
		requireBizCode(t, err, consts.CodeUserAlreadyExist)
		assert.False(t, createCalled)
	})

	t.Run("duplicate_email", func(t *testing.T) {
		userRepo := &fakeUserRepository{
			createFn: func(_ context.Context, _ *model.UserInfo) (*model.UserInfo, error) {
				return nil, repository.ErrDuplicateKey
			},
		}
		svc := NewAuthService(userRepo)

		resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
			Email:    "a@example.com",
			Password: "secret12",
		})
		require.Nil(t, resp)
		requireBizCode(t, err, consts.CodeUserAlreadyExist)
	})

	t.Run("nickname_defaults_to_email_prefix", func(t *testing.T) {
		var gotUser *model.UserInfo
		userRepo := &fakeUserRepository{
			createFn: func(_ context.Context, user *model.UserInfo) (*model.UserInfo, error) {
				gotUser = user
				return user, nil
			},
		}
		svc := NewAuthService(userRepo)

		resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
			Email:    "walker@example.com",
			Password: "secret12",
		})
		require.NoError(t, err)
		require.NotNil(t, gotUser)

		assert.Equal(t, "walker", resp.Nickname)
		assert.NotEmpty(t, gotUser.Uuid)
		assert.Equal(t, 1.0, gotUser.ReportInfluence)
		// 密码须以哈希形式存储
		assert.NotEqual(t, "secret12", gotUser.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(gotUser.Password), []byte("secret12")))
	})

	t.Run("explicit_nickname_kept", func(t *testing.T) {
		userRepo := &fakeUserRepository{
			createFn: func(_ context.Context, user *model.UserInfo) (*model.UserInfo, error) {
				return user, nil
			},
		}
		svc := NewAuthService(userRepo)

		resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
			Email:    "walker@example.com",
			Password: "secret12",
			Nickname: "夜行者",
		})
		require.NoError(t, err)
		assert.Equal(t, "夜行者", resp.Nickname)
	})
}

func TestAuthServiceLogin(t *testing.T) {
	initServiceTestLogger()

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret12"), bcrypt.MinCost)
	require.NoError(t, err)

	registered := &model.UserInfo{
		Uuid:     "u1",
		Nickname: "walker",
		Email:    "walker@example.com",
		Password: string(hashed),
	}

	t.Run("user_not_found", func(t *testing.T) {
		userRepo := &fakeUserRepository{
			getByEmailFn: func(_ context.Context, _ string) (*model.UserInfo, error) {
				return nil, repository.ErrRecordNotFound
			},
		}
		svc := NewAuthService(userRepo)

		resp, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "x@example.com", Password: "secret12"})
		require.Nil(t, resp)
		requireBizCode(t, err, consts.CodeUserNotFound)
	})

	t.Run("wrong_password", func(t *testing.T) {
		userRepo := &fakeUserRepository{
			getByEmailFn: func(_ context.Context, _ string) (*model.UserInfo, error) {
				return registered, nil
			},
		}
		svc := NewAuthService(userRepo)

		resp, err := svc.Login(context.Background(), &dto.LoginRequest{Email: registered.Email, Password: "wrong-pass"})
		require.Nil(t, resp)
		requireBizCode(t, err, consts.CodePasswordError)
	})

	t.Run("success_issues_bearer_token", func(t *testing.T) {
		userRepo := &fakeUserRepository{
			getByEmailFn: func(_ context.Context, _ string) (*model.UserInfo, error) {
				return registered, nil
			},
		}
		svc := NewAuthService(userRepo)

		resp, err := svc.Login(context.Background(), &dto.LoginRequest{Email: registered.Email, Password: "secret12"})
		require.NoError(t, err)
		require.NotNil(t, resp)

		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, int64(utils.TokenTTL().Seconds()), resp.ExpiresIn)
		require.NotNil(t, resp.UserInfo)
		assert.Equal(t, "u1", resp.UserInfo.UUID)

		claims, err := utils.ParseToken(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserUUID)
	})
}
