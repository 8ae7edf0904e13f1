package validator

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	registerOnce    sync.Once
)

// 错误信息模板
var msgMap = map[string]string{
	"required": "不能为空",
	"min":      "不能小于%v",
	"max":      "不能大于%v",
	"email":    "必须是有效的邮箱地址",
	"url":      "必须是有效的网址",
	"oneof":    "必须是[%v]中的一个",
	"gt":       "必须大于%v",
	"gte":      "必须大于等于%v",
	"lt":       "必须小于%v",
	"lte":      "必须小于等于%v",
	"hexcolor": "必须是有效的十六进制颜色",
	"username": "只能包含字母、数字和下划线，长度为3-20位",
}

// 字段中文名
var fieldMap = map[string]string{
	"Username":    "用户名",
	"Email":       "邮箱",
	"Password":    "密码",
	"Identifier":  "用户名或邮箱",
	"Nickname":    "昵称",
	"Bio":         "个人简介",
	"OldPassword": "原密码",
	"NewPassword": "新密码",
	"Title":       "标题",
	"Content":     "内容",
	"Summary":     "摘要",
	"Status":      "状态",
	"Name":        "名称",
	"Description": "描述",
	"Color":       "颜色",
	"SortOrder":   "排序",
	"Page":        "页码",
	"PageSize":    "每页数量",
	"Limit":       "数量",
}

// Register 向 gin 的校验引擎注册自定义规则，可重复调用
func Register() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
				return ValidUsername(fl.Field().String())
			})
		}
	})
}

// ValidUsername 用户名只允许字母、数字、下划线，3-20位
func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// Message 把绑定错误转换成给用户看的提示
func Message(err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		return FormatValidationError(errs)
	}
	return "请求参数格式错误"
}

// FormatValidationError 只返回第一个字段的错误
func FormatValidationError(errs validator.ValidationErrors) string {
	firstErr := errs[0]

	fieldName := fieldMap[firstErr.Field()]
	if fieldName == "" {
		fieldName = firstErr.Field()
	}

	msgTemplate := msgMap[firstErr.Tag()]
	if msgTemplate == "" {
		return fieldName + "验证失败"
	}
	if firstErr.Param() != "" {
		return fieldName + fmt.Sprintf(msgTemplate, firstErr.Param())
	}
	return fieldName + msgTemplate
}
