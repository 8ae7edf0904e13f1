package idgen

import (
	"fmt"
	"time"

	sf "github.com/bwmarrin/snowflake"
)

// Generator 封装雪花算法节点
type Generator struct {
	node *sf.Node
}

// New 创建ID生成器
// startTime: 起始时间，格式："2006-01-02"
// machineID: 机器ID (0-1023)
func New(startTime string, machineID int64) (*Generator, error) {
	st, err := time.Parse("2006-01-02", startTime)
	if err != nil {
		return nil, fmt.Errorf("解析雪花起始时间失败: %w", err)
	}

	// Epoch 是包级变量，需要在创建节点前设置
	sf.Epoch = st.UnixNano() / int64(time.Millisecond)

	node, err := sf.NewNode(machineID)
	if err != nil {
		return nil, fmt.Errorf("创建雪花节点失败: %w", err)
	}
	return &Generator{node: node}, nil
}

// Next 生成唯一ID
func (g *Generator) Next() int64 {
	return g.node.Generate().Int64()
}

// NextString 生成字符串形式的唯一ID
func (g *Generator) NextString() string {
	return g.node.Generate().String()
}
