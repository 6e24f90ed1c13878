package shooter

import (
	"context"
	"fmt"

	domain "github.com/oshokin/shooter-remote/internal/domain/shooter"
	"github.com/oshokin/shooter-remote/internal/logger"
)

// Exchanger sends one request frame and blocks for its reply.
type Exchanger interface {
	Exchange(ctx context.Context, payload []byte) ([]byte, error)
}

// Client issues camera-control commands over a single connection.
type Client struct {
	// conn carries the request/reply exchanges.
	conn Exchanger
	// seq is the last msg_seq_num used.
	seq uint64
}

// NewClient wraps conn. Calls must not be made concurrently.
func NewClient(conn Exchanger) *Client {
	return &Client{
		conn: conn,
	}
}

// GetCameraInfo lists every connected camera.
func (c *Client) GetCameraInfo(ctx context.Context) (*domain.Response, error) {
	return c.call(ctx, domain.NewGetCameraRequest(c.nextSeq()))
}

// StartRecording enables video recording on the camera.
func (c *Client) StartRecording(ctx context.Context, cameraKey string) (*domain.Response, error) {
	return c.call(ctx, domain.NewEnableVideoRequest(c.nextSeq(), cameraKey, true))
}

// StopRecording disables video recording on the camera.
func (c *Client) StopRecording(ctx context.Context, cameraKey string) (*domain.Response, error) {
	return c.call(ctx, domain.NewEnableVideoRequest(c.nextSeq(), cameraKey, false))
}

// DownloadVideo downloads every file of the camera into path.
// The directory must exist on the application side.
func (c *Client) DownloadVideo(ctx context.Context, cameraKey, path string) (*domain.Response, error) {
	return c.call(ctx, domain.NewDownloadRequest(c.nextSeq(), cameraKey, path))
}

// nextSeq returns a fresh sequence number, starting at 1.
func (c *Client) nextSeq() uint64 {
	c.seq++

	return c.seq
}

// call encodes req, exchanges it and decodes the reply.
func (c *Client) call(ctx context.Context, req domain.Request) (*domain.Response, error) {
	payload, err := domain.EncodeRequest(&req)
	if err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Sending request", "msg_id", req.ID, "msg_seq_num", req.SeqNum, "payload", string(payload))

	reply, err := c.conn.Exchange(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("%s #%d: %w", req.ID, req.SeqNum, err)
	}

	resp, err := domain.DecodeResponse(reply)
	if err != nil {
		return nil, fmt.Errorf("%s #%d: %w", req.ID, req.SeqNum, err)
	}

	logger.DebugKV(ctx, "Received reply", "msg_id", req.ID, "msg_result", resp.Result, "msg_error", resp.Error)

	return resp, nil
}
