package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"LocusServer/consts"
	"LocusServer/internal/dto"
	"LocusServer/pkg/errs"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnectionHTTPService struct {
	requestFn    func(context.Context, string, *dto.RequestConnectionRequest) (*dto.ConnectionInfo, error)
	acceptFn     func(context.Context, string, string) (*dto.ConnectionInfo, error)
	rejectFn     func(context.Context, string, string) error
	blockFn      func(context.Context, string, string) error
	cancelFn     func(context.Context, string, string) error
	getCurrentFn func(context.Context, string) (*dto.GetCurrentConnectionResponse, error)
	blockUserFn  func(context.Context, string, string) error
	unblockFn    func(context.Context, string, string) error
	listBlocksFn func(context.Context, string, *dto.GetBlockListRequest) (*dto.GetBlockListResponse, error)
}

func (f *fakeConnectionHTTPService) Request(ctx context.Context, userUUID string, req *dto.RequestConnectionRequest) (*dto.ConnectionInfo, error) {
	if f.requestFn == nil {
		return &dto.ConnectionInfo{}, nil
	}
	return f.requestFn(ctx, userUUID, req)
}

func (f *fakeConnectionHTTPService) Accept(ctx context.Context, userUUID, connectionUUID string) (*dto.ConnectionInfo, error) {
	if f.acceptFn == nil {
		return &dto.ConnectionInfo{}, nil
	}
	return f.acceptFn(ctx, userUUID, connectionUUID)
}

func (f *fakeConnectionHTTPService) Reject(ctx context.Context, userUUID, connectionUUID string) error {
	if f.rejectFn == nil {
		return nil
	}
	return f.rejectFn(ctx, userUUID, connectionUUID)
}

func (f *fakeConnectionHTTPService) Block(ctx context.Context, userUUID, connectionUUID string) error {
	if f.blockFn == nil {
		return nil
	}
	return f.blockFn(ctx, userUUID, connectionUUID)
}

func (f *fakeConnectionHTTPService) Cancel(ctx context.Context, userUUID, connectionUUID string) error {
	if f.cancelFn == nil {
		return nil
	}
	return f.cancelFn(ctx, userUUID, connectionUUID)
}

func (f *fakeConnectionHTTPService) GetCurrent(ctx context.Context, userUUID string) (*dto.GetCurrentConnectionResponse, error) {
	if f.getCurrentFn == nil {
		return &dto.GetCurrentConnectionResponse{}, nil
	}
	return f.getCurrentFn(ctx, userUUID)
}

func (f *fakeConnectionHTTPService) BlockUser(ctx context.Context, userUUID, peerUUID string) error {
	if f.blockUserFn == nil {
		return nil
	}
	return f.blockUserFn(ctx, userUUID, peerUUID)
}

func (f *fakeConnectionHTTPService) Unblock(ctx context.Context, userUUID, peerUUID string) error {
	if f.unblockFn == nil {
		return nil
	}
	return f.unblockFn(ctx, userUUID, peerUUID)
}

func (f *fakeConnectionHTTPService) ListBlocks(ctx context.Context, userUUID string, req *dto.GetBlockListRequest) (*dto.GetBlockListResponse, error) {
	if f.listBlocksFn == nil {
		return &dto.GetBlockListResponse{}, nil
	}
	return f.listBlocksFn(ctx, userUUID, req)
}

func TestConnectionHandlerRequest(t *testing.T) {
	initHandlerTestLogger()

	t.Run("bind_json_failed", func(t *testing.T) {
		called := false
		h := NewConnectionHandler(&fakeConnectionHTTPService{
			requestFn: func(_ context.Context, _ string, _ *dto.RequestConnectionRequest) (*dto.ConnectionInfo, error) {
				called = true
				return &dto.ConnectionInfo{}, nil
			},
		})

		c, w := newAuthedTestContext(t, http.MethodPost, "/api/v1/connection/request", "{")
		h.Request(c)

		assert.Equal(t, int32(consts.CodeParamError), decodeResultBody(t, w).Code)
		assert.False(t, called)
	})

	t.Run("success", func(t *testing.T) {
		h := NewConnectionHandler(&fakeConnectionHTTPService{
			requestFn: func(_ context.Context, userUUID string, req *dto.RequestConnectionRequest) (*dto.ConnectionInfo, error) {
				require.Equal(t, "u1", userUUID)
				require.Equal(t, "u2", req.RecipientUUID)
				require.Equal(t, int8(3), req.DurationDays)
				return &dto.ConnectionInfo{UUID: "c1"}, nil
			},
		})

		c, w := newAuthedTestContext(t, http.MethodPost, "/api/v1/connection/request",
			`{"recipientUuid":"u2","durationDays":3,"paymentToken":"tok-1"}`)
		h.Request(c)

		body := decodeResultBody(t, w)
		assert.Equal(t, int32(consts.CodeSuccess), body.Code)

		var info dto.ConnectionInfo
		require.NoError(t, json.Unmarshal(body.Data, &info))
		assert.Equal(t, "c1", info.UUID)
	})

	t.Run("busy_error_passthrough", func(t *testing.T) {
		h := NewConnectionHandler(&fakeConnectionHTTPService{
			requestFn: func(_ context.Context, _ string, _ *dto.RequestConnectionRequest) (*dto.ConnectionInfo, error) {
				return nil, errs.New(consts.CodePeerBusy)
			},
		})

		c, w := newAuthedTestContext(t, http.MethodPost, "/api/v1/connection/request",
			`{"recipientUuid":"u2","durationDays":1}`)
		h.Request(c)

		assert.Equal(t, int32(consts.CodePeerBusy), decodeResultBody(t, w).Code)
	})

	t.Run("internal_error", func(t *testing.T) {
		h := NewConnectionHandler(&fakeConnectionHTTPService{
			requestFn: func(_ context.Context, _ string, _ *dto.RequestConnectionRequest) (*dto.ConnectionInfo, error) {
				return nil, errors.New("db down")
			},
		})

		c, w := newAuthedTestContext(t, http.MethodPost, "/api/v1/connection/request",
			`{"recipientUuid":"u2","durationDays":1}`)
		h.Request(c)

		assert.Equal(t, int32(consts.CodeInternalError), decodeResultBody(t, w).Code)
	})
}

func TestConnectionHandlerAccept(t *testing.T) {
	initHandlerTestLogger()

	t.Run("missing_path_param", func(t *testing.T) {
		h := NewConnectionHandler(&fakeConnectionHTTPService{})

		c, w := newAuthedTestContext(t, http.MethodPost, "/api/v1/connection//accept", "")
		h.Accept(c)

		assert.Equal(t, int32(consts.CodeParamError), decodeResultBody(t, w).Code)
	})

	t.Run("success", func(t *testing.T) {
		h := NewConnectionHandler(&fakeConnectionHTTPService{
			acceptFn: func(_ context.Context, userUUID, connectionUUID string) (*dto.ConnectionInfo, error) {
				require.Equal(t, "u1", userUUID)
				require.Equal(t, "c1", connectionUUID)
				return &dto.ConnectionInfo{UUID: "c1", Status: 1}, nil
			},
		})

		c, w := newAuthedTestContext(t, http.MethodPost, "/api/v1/connection/c1/accept", "")
		c.Params = gin.Params{{Key: "uuid", Value: "c1"}}
		h.Accept(c)

		assert.Equal(t, int32(consts.CodeSuccess), decodeResultBody(t, w).Code)
	})

	t.Run("not_pending_passthrough", func(t *testing.T) {
		h := NewConnectionHandler(&fakeConnectionHTTPService{
			acceptFn: func(_ context.Context, _, _ string) (*dto.ConnectionInfo, error) {
				return nil, errs.New(consts.CodeConnectionNotPend)
			},
		})

		c, w := newAuthedTestContext(t, http.MethodPost, "/api/v1/connection/c1/accept", "")
		c.Params = gin.Params{{Key: "uuid", Value: "c1"}}
		h.Accept(c)

		assert.Equal(t, int32(consts.CodeConnectionNotPend), decodeResultBody(t, w).Code)
	})
}

func TestConnectionHandlerGetCurrent(t *testing.T) {
	initHandlerTestLogger()

	t.Run("empty_when_no_connection", func(t *testing.T) {
		h := NewConnectionHandler(&fakeConnectionHTTPService{
			getCurrentFn: func(_ context.Context, _ string) (*dto.GetCurrentConnectionResponse, error) {
				return &dto.GetCurrentConnectionResponse{}, nil
			},
		})

		c, w := newAuthedTestContext(t, http.MethodGet, "/api/v1/connection/current", "")
		h.GetCurrent(c)

		body := decodeResultBody(t, w)
		assert.Equal(t, int32(consts.CodeSuccess), body.Code)

		var resp dto.GetCurrentConnectionResponse
		require.NoError(t, json.Unmarshal(body.Data, &resp))
		assert.Nil(t, resp.Connection)
		assert.False(t, resp.CanSendToday)
	})
}
