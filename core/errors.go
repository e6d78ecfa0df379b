package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），Web 层按代码映射 HTTP 状态
//
// 错误分级：
//   - USER_NOT_FOUND：请求用户不存在，单次调用的硬失败（404 语义）
//   - INVALID_STRATEGY：策略不可识别（400 语义，受部署策略控制）
//   - UNAVAILABLE：存储不可用，向上传播、核心不重试
//   - NOT_FOUND：次级实体缺失，召回阶段跳过并记录，不致命
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "USER_NOT_FOUND"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "service"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound        = "NOT_FOUND"        // 次级资源不存在
	ErrorCodeUserNotFound    = "USER_NOT_FOUND"   // 请求用户不存在
	ErrorCodeInvalidStrategy = "INVALID_STRATEGY" // 策略不可识别
	ErrorCodeUnavailable     = "UNAVAILABLE"      // 存储/服务不可用
	ErrorCodeInvalidInput    = "INVALID_INPUT"    // 输入无效
	ErrorCodeInternalError   = "INTERNAL_ERROR"   // 内部错误
)

// 模块名称常量
const (
	ModuleStore   = "store"
	ModuleRecall  = "recall"
	ModuleRank    = "rank"
	ModuleService = "service"
)

// 预定义错误

var (
	// ErrStoreNotFound 表示 key/实体不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrUserNotFound 表示请求的用户不存在（对该次请求致命）
	ErrUserNotFound = NewDomainError(ModuleService, ErrorCodeUserNotFound, "service: user not found")

	// ErrContentNotFound 表示请求的内容不存在
	ErrContentNotFound = NewDomainError(ModuleService, ErrorCodeNotFound, "service: content not found")

	// ErrInvalidStrategy 表示策略不在 hybrid/collaborative/content_based 之内
	ErrInvalidStrategy = NewDomainError(ModuleService, ErrorCodeInvalidStrategy, "service: invalid strategy")

	// ErrRepositoryUnavailable 表示底层存储暂不可用；重试策略属于调用方
	ErrRepositoryUnavailable = NewDomainError(ModuleStore, ErrorCodeUnavailable, "store: repository unavailable")
)

func codeIs(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return codeIs(err, ErrorCodeNotFound) }

// IsUserNotFound 检查错误是否为 USER_NOT_FOUND
func IsUserNotFound(err error) bool { return codeIs(err, ErrorCodeUserNotFound) }

// IsInvalidStrategy 检查错误是否为 INVALID_STRATEGY
func IsInvalidStrategy(err error) bool { return codeIs(err, ErrorCodeInvalidStrategy) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return codeIs(err, ErrorCodeUnavailable) }
