package shooter

// MessageType values of the msg_type field.
const (
	MessageTypeRequest  = "Request"
	MessageTypeResponse = "Response"
)

// MessageID values of the msg_id field.
const (
	MessageGetCamera   = "GetCamera"
	MessageEnableVideo = "EnableVideo"
	MessageDownload    = "Download"
)

// CameraSelection values.
const (
	SelectAll    = "All"
	SelectSingle = "Single"
)

// PhotoSelectionAll asks a download for every file held by the camera.
const PhotoSelectionAll = "All"

// Request is a single command sent to the camera-control application.
// Fields a command does not use are left empty and omitted from the wire.
type Request struct {
	Type            string `json:"msg_type"`
	ID              string `json:"msg_id"`
	SeqNum          uint64 `json:"msg_seq_num"`
	CameraSelection string `json:"CameraSelection,omitempty"`
	CameraKey       string `json:"CameraKey,omitempty"`
	Enable          *bool  `json:"Enable,omitempty"`
	PhotoSelection  string `json:"PhotoSelection,omitempty"`
	DownloadPath    string `json:"DownloadPath,omitempty"`
}

// NewGetCameraRequest asks for every connected camera.
func NewGetCameraRequest(seq uint64) Request {
	return Request{
		Type:            MessageTypeRequest,
		ID:              MessageGetCamera,
		SeqNum:          seq,
		CameraSelection: SelectAll,
	}
}

// NewEnableVideoRequest starts (enable=true) or stops video recording on one camera.
func NewEnableVideoRequest(seq uint64, cameraKey string, enable bool) Request {
	return Request{
		Type:            MessageTypeRequest,
		ID:              MessageEnableVideo,
		SeqNum:          seq,
		CameraSelection: SelectSingle,
		CameraKey:       cameraKey,
		Enable:          &enable,
	}
}

// NewDownloadRequest downloads every file of one camera into path.
func NewDownloadRequest(seq uint64, cameraKey, path string) Request {
	return Request{
		Type:            MessageTypeRequest,
		ID:              MessageDownload,
		SeqNum:          seq,
		CameraSelection: SelectSingle,
		CameraKey:       cameraKey,
		PhotoSelection:  PhotoSelectionAll,
		DownloadPath:    path,
	}
}

// EnableValue reports the Enable flag, false when absent.
func (r *Request) EnableValue() bool {
	return r.Enable != nil && *r.Enable
}

// CameraInfo describes one connected camera.
type CameraInfo struct {
	CameraKey string `json:"CameraKey"`
}

// Response is the reply to a Request.
type Response struct {
	Type       string       `json:"msg_type,omitempty"`
	ID         string       `json:"msg_id,omitempty"`
	SeqNum     uint64       `json:"msg_seq_num,omitempty"`
	Result     bool         `json:"msg_result"`
	Error      string       `json:"msg_error,omitempty"`
	CameraInfo []CameraInfo `json:"CameraInfo,omitempty"`
}

// Succeeded reports whether the command was accepted. Nil is a failure.
func (r *Response) Succeeded() bool {
	return r != nil && r.Result
}

// FirstCameraKey returns the key of the first listed camera.
func (r *Response) FirstCameraKey() (string, bool) {
	if r == nil || len(r.CameraInfo) == 0 {
		return "", false
	}

	return r.CameraInfo[0].CameraKey, true
}

// NewResponse builds a successful reply echoing the request identity.
func NewResponse(req *Request) *Response {
	return &Response{
		Type:   MessageTypeResponse,
		ID:     req.ID,
		SeqNum: req.SeqNum,
		Result: true,
	}
}

// Fail marks the reply as failed with message.
func (r *Response) Fail(message string) *Response {
	r.Result = false
	r.Error = message
	r.CameraInfo = nil

	return r
}
