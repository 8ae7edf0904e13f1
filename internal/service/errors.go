package service

// Kind 业务错误分类，决定返回给客户端的状态码
type Kind int

const (
	KindInvalid Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
)

// Error 业务错误，Message 可以直接展示给用户
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// 用户相关错误
var (
	ErrUsernameTaken      = newError(KindInvalid, "用户名已存在")
	ErrEmailTaken         = newError(KindInvalid, "邮箱已被注册")
	ErrAccountExists      = newError(KindInvalid, "用户名或邮箱已存在")
	ErrInvalidCredentials = newError(KindUnauthorized, "用户名或密码错误")
	ErrAccountDisabled    = newError(KindUnauthorized, "账户已被禁用")
	ErrUserNotFound       = newError(KindNotFound, "用户不存在")
	ErrWrongPassword      = newError(KindInvalid, "原密码错误")
	ErrNoUpdatableFields  = newError(KindInvalid, "没有可更新的字段")
	ErrInvalidStatus      = newError(KindInvalid, "无效的用户状态")
)

// 内容相关错误
var (
	ErrArticleNotFound  = newError(KindNotFound, "文章不存在")
	ErrArticleNotOwned  = newError(KindNotFound, "文章不存在或无权限操作")
	ErrCategoryNotFound = newError(KindNotFound, "分类不存在")
	ErrCategoryInvalid  = newError(KindInvalid, "所选分类不存在")
	ErrCategoryExists   = newError(KindInvalid, "分类名称已存在")
	ErrCategoryInUse    = newError(KindInvalid, "该分类下还有文章，无法删除")
	ErrTagNotFound      = newError(KindNotFound, "标签不存在")
	ErrTagInvalid       = newError(KindInvalid, "包含不存在的标签")
	ErrTagExists        = newError(KindInvalid, "标签名称已存在")
)

// 上传相关错误
var (
	ErrFileTooLarge    = newError(KindInvalid, "文件大小超过限制")
	ErrFileTypeInvalid = newError(KindInvalid, "只允许上传图片文件")
	ErrFileEmpty       = newError(KindInvalid, "请选择要上传的文件")
)
