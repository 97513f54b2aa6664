package response

// 业务码，随错误响应原样返回给调用方
const (
	CodeOK            = "OK"
	CodeInvalidParams = "INVALID_PARAMS"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeNotYetOpen    = "NOT_YET_OPEN"
	CodeAlreadyIssued = "ALREADY_ISSUED"
	CodeOutOfStock    = "OUT_OF_STOCK"
	CodeBatchNotFound = "BATCH_NOT_FOUND"
	CodeBatchExpired  = "BATCH_EXPIRED"
	CodeCouponMissing = "COUPON_NOT_FOUND"
	CodeInternal      = "INTERNAL_ERROR"
)
