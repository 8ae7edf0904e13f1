package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/yidong-blog/blog-api/internal/model"
	"github.com/yidong-blog/blog-api/internal/service"
	"github.com/yidong-blog/blog-api/pkg/validator"
	"golang.org/x/term"
)

// userCmd 用户管理命令
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "用户管理命令",
	Long:  `用户管理相关的命令，包括创建管理员、列出用户、重置密码等`,
}

// createAdminCmd 创建管理员用户命令
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "创建管理员用户",
	Long:  `交互式创建管理员用户`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(cmd.Context(), createAdminUser)
	},
}

// listUsersCmd 列出用户命令
var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "列出用户",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(cmd.Context(), listUsers)
	},
}

// resetPasswordCmd 重置用户密码命令
var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password [username]",
	Short: "重置用户密码",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(cmd.Context(), func(ctx context.Context, users *service.UserService) error {
			return resetUserPassword(ctx, users, args[0])
		})
	},
}

// updateUserStatusCmd 更新用户状态命令
var updateUserStatusCmd = &cobra.Command{
	Use:   "update-status [username] [status]",
	Short: "更新用户状态",
	Long:  `更新用户状态 (active / inactive / banned)`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(cmd.Context(), func(ctx context.Context, users *service.UserService) error {
			user, err := findUser(ctx, users, args[0])
			if err != nil {
				return err
			}
			if err := users.UpdateStatus(ctx, user.ID, args[1]); err != nil {
				return err
			}
			fmt.Printf("用户 %s 状态已更新为 %s\n", user.Username, args[1])
			return nil
		})
	},
}

func init() {
	userCmd.AddCommand(createAdminCmd)
	userCmd.AddCommand(listUsersCmd)
	userCmd.AddCommand(resetPasswordCmd)
	userCmd.AddCommand(updateUserStatusCmd)
	rootCmd.AddCommand(userCmd)
}

func withUsers(ctx context.Context, fn func(context.Context, *service.UserService) error) error {
	sys, err := initializeSystem(ctx, false)
	if err != nil {
		return err
	}
	defer sys.Close()

	return fn(ctx, service.NewUserService(sys.db, sys.cfg.Auth))
}

// createAdminUser 创建管理员用户
func createAdminUser(ctx context.Context, users *service.UserService) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("请输入管理员用户名: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if !validator.ValidUsername(username) {
		return errors.New("用户名只能包含字母、数字、下划线，长度3-20位")
	}

	fmt.Print("请输入管理员邮箱: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	password, err := readNewPassword("请输入管理员密码: ")
	if err != nil {
		return err
	}

	user, err := users.CreateAdmin(ctx, username, email, password)
	if err != nil {
		return fmt.Errorf("创建管理员用户失败: %w", err)
	}

	fmt.Printf("管理员用户创建成功！\n")
	fmt.Printf("用户名: %s\n", user.Username)
	fmt.Printf("邮箱: %s\n", user.Email)
	return nil
}

// listUsers 列出用户
func listUsers(ctx context.Context, users *service.UserService) error {
	list, total, err := users.List(ctx, 1, 50)
	if err != nil {
		return fmt.Errorf("查询用户列表失败: %w", err)
	}

	fmt.Printf("%-5s %-20s %-30s %-8s %-10s %-18s %-18s\n",
		"ID", "用户名", "邮箱", "角色", "状态", "创建时间", "最后登录")
	fmt.Println(strings.Repeat("-", 110))

	for _, user := range list {
		lastLogin := "从未登录"
		if user.LastLoginAt != nil {
			lastLogin = user.LastLoginAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("%-5d %-20s %-30s %-8s %-10s %-18s %-18s\n",
			user.ID, user.Username, user.Email, user.Role, user.Status,
			user.CreatedAt.Format("2006-01-02 15:04"), lastLogin)
	}
	fmt.Printf("共 %d 个用户\n", total)
	return nil
}

// resetUserPassword 重置用户密码
func resetUserPassword(ctx context.Context, users *service.UserService, username string) error {
	user, err := findUser(ctx, users, username)
	if err != nil {
		return err
	}

	password, err := readNewPassword("请输入新密码: ")
	if err != nil {
		return err
	}
	if err := users.ResetPassword(ctx, user.ID, password); err != nil {
		return fmt.Errorf("重置密码失败: %w", err)
	}

	fmt.Printf("用户 %s 的密码已重置\n", user.Username)
	return nil
}

func findUser(ctx context.Context, users *service.UserService, identifier string) (*model.User, error) {
	user, err := users.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("查找用户 %s 失败: %w", identifier, err)
	}
	return user, nil
}

// readNewPassword 读取两次密码并校验一致
func readNewPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("读取密码失败: %w", err)
	}

	fmt.Print("请再次输入密码: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("读取确认密码失败: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("两次输入的密码不一致")
	}
	if n := len(first); n < 6 || n > 72 {
		return "", errors.New("密码长度必须在6-72位之间")
	}
	return string(first), nil
}
