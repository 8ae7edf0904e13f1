package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yidong-blog/blog-api/internal/service"
)

// databaseCmd 数据库管理命令
var databaseCmd = &cobra.Command{
	Use:   "db",
	Short: "数据库管理命令",
	Long:  `数据库管理相关的命令，包括建表和同步搜索索引`,
}

// initDBCmd 建表
var initDBCmd = &cobra.Command{
	Use:   "init",
	Short: "创建或迁移数据库表",
	RunE: func(cmd *cobra.Command, args []string) error {
		sys, err := initializeSystem(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer sys.Close()

		fmt.Println("数据库表已就绪")
		return nil
	},
}

// syncESCmd 同步已发布文章到ES
var syncESCmd = &cobra.Command{
	Use:   "sync-es",
	Short: "同步已发布文章到Elasticsearch",
	RunE: func(cmd *cobra.Command, args []string) error {
		sys, err := initializeSystem(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer sys.Close()

		if sys.es == nil {
			return errors.New("未启用 elasticsearch")
		}

		searcher := service.NewArticleSearchService(sys.es, sys.cfg.Elasticsearch.Index)
		n, err := searcher.SyncAll(cmd.Context(), sys.db)
		if err != nil {
			return fmt.Errorf("同步失败: %w", err)
		}
		fmt.Printf("已同步 %d 篇文章\n", n)
		return nil
	},
}

func init() {
	databaseCmd.AddCommand(initDBCmd)
	databaseCmd.AddCommand(syncESCmd)
	rootCmd.AddCommand(databaseCmd)
}
