package errno

// code=0 请求成功
// code=4xx 客户端请求错误
// code=5xx 服务器端错误
// code=2xxxx 业务处理错误码

type Errno struct {
	Code    int
	Message string
}

// Error 实现error接口
func (e *Errno) Error() string {
	return e.Message
}

var (
	OK = &Errno{Code: 200, Message: "Success"}

	ErrParameterInvalid = &Errno{Code: 400, Message: "Invalid parameter %s"}
	ErrInvalidParam     = &Errno{Code: 400, Message: "Invalid parameter"}
	ErrUnauthorized     = &Errno{Code: 401, Message: "Unauthorized"}
	ErrForbidden        = &Errno{Code: 403, Message: "Forbidden"}
	ErrNotFound         = &Errno{Code: 404, Message: "Not found"}

	ErrInternalServer = &Errno{Code: 500, Message: "Internal server error"}
	ErrDatabase       = &Errno{Code: 501, Message: "Database error"}
	ErrUpstream       = &Errno{Code: 502, Message: "Upstream service error"}
	ErrUnknown        = &Errno{Code: 510, Message: "Unknown error"}

	// 业务错误码
	ErrMissingParam      = &Errno{Code: 20001, Message: "Missing required parameter"}
	ErrContentNotFound   = &Errno{Code: 20002, Message: "Content not found"}
	ErrVideoNotReady     = &Errno{Code: 20003, Message: "Video is not ready"}
	ErrNoVideo           = &Errno{Code: 20004, Message: "Content has no video"}
	ErrCDNNotConfigured  = &Errno{Code: 20005, Message: "CDN provider credential is not configured"}
	ErrAccessDenied      = &Errno{Code: 20006, Message: "Access denied"}
	ErrQueueFull         = &Errno{Code: 20012, Message: "Task queue is full"}
	ErrSourceRequired    = &Errno{Code: 20016, Message: "Source path is required"}
	ErrContentIDRequired = &Errno{Code: 20017, Message: "Content ID is required"}
	ErrTranscodeFailed   = &Errno{Code: 20023, Message: "Transcode failed"}
)
