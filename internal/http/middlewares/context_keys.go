package middlewares

const (
	CtxRequestID   = "request_id"
	CtxAccessToken = "auth.access_token"
)
