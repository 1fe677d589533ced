package utils

// ctxKey is unexported to prevent collisions.
type ctxKey string

// CtxKeyRequestID carries the per-request correlation id set by the router.
const CtxKeyRequestID ctxKey = "requestID"
