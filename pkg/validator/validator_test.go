package validator

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidUsername(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"alice", "bob_42", "ABC", "a_b_c_d_e_f_g_h_i_j_"} {
		assert.True(t, ValidUsername(ok), ok)
	}
	for _, bad := range []string{"", "ab", "has space", "emoji😀", "dash-name", "abcdefghijklmnopqrstu"} {
		assert.False(t, ValidUsername(bad), bad)
	}
}

type registration struct {
	Username string `binding:"required,username"`
	Email    string `binding:"required,email"`
	Password string `binding:"required,min=6"`
}

func TestRegisterAndMessage(t *testing.T) {
	Register()
	Register()

	err := binding.Validator.ValidateStruct(&registration{Username: "a b", Email: "a@x.com", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, "用户名只能包含字母、数字和下划线，长度为3-20位", Message(err))

	err = binding.Validator.ValidateStruct(&registration{Username: "alice", Email: "a@x.com", Password: "123"})
	require.Error(t, err)
	assert.Equal(t, "密码不能小于6", Message(err))

	err = binding.Validator.ValidateStruct(&registration{Username: "alice", Email: "nope", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, "邮箱必须是有效的邮箱地址", Message(err))

	assert.NoError(t, binding.Validator.ValidateStruct(&registration{Username: "alice", Email: "a@x.com", Password: "secret1"}))
}

func TestMessageFallback(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "请求参数格式错误", Message(errors.New("unexpected EOF")))
}
