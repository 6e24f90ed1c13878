package emulator

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/oshokin/shooter-remote/internal/domain/shooter"
	"github.com/oshokin/shooter-remote/internal/logger"
)

var (
	// errUnsupportedMessage is reported for unknown msg_id values.
	errUnsupportedMessage = errors.New("unsupported message")
	// errEnableRequired is reported for EnableVideo without Enable.
	errEnableRequired = errors.New("field Enable is required")
)

// fallbackReply is sent when a reply cannot be encoded.
const fallbackReply = `{"msg_type":"Response","msg_result":false,"msg_error":"internal error"}`

// Handle answers one request frame with one reply frame.
// Every failure is reported in the reply; the REP socket must always answer.
func (s *service) Handle(ctx context.Context, payload []byte) []byte {
	req, err := domain.DecodeRequest(payload)
	if err != nil {
		logger.WarnKV(ctx, "Rejected request", "error", err)

		resp := &domain.Response{Type: domain.MessageTypeResponse}
		if req != nil {
			resp = domain.NewResponse(req)
		}

		return encode(ctx, resp.Fail(err.Error()))
	}

	logger.DebugKV(ctx, "Request received", "msg_id", req.ID, "msg_seq_num", req.SeqNum, "camera_key", req.CameraKey)

	return encode(ctx, s.dispatch(ctx, req))
}

// dispatch runs the command named by msg_id.
func (s *service) dispatch(ctx context.Context, req *domain.Request) *domain.Response {
	resp := domain.NewResponse(req)

	switch req.ID {
	case domain.MessageGetCamera:
		resp.CameraInfo = s.Cameras()
	case domain.MessageEnableVideo:
		if req.Enable == nil {
			return resp.Fail(errEnableRequired.Error())
		}

		if _, err := s.SetRecording(ctx, req.CameraKey, req.EnableValue()); err != nil {
			return resp.Fail(err.Error())
		}
	case domain.MessageDownload:
		if _, err := s.Download(ctx, req.CameraKey, req.DownloadPath); err != nil {
			return resp.Fail(err.Error())
		}
	default:
		return resp.Fail(fmt.Sprintf("%v: %q", errUnsupportedMessage, req.ID))
	}

	return resp
}

// encode renders resp, falling back to a fixed failure reply.
func encode(ctx context.Context, resp *domain.Response) []byte {
	data, err := domain.EncodeResponse(resp)
	if err != nil {
		logger.ErrorKV(ctx, "Unable to encode reply", "error", err)

		return []byte(fallbackReply)
	}

	return data
}
