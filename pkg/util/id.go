package util

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	idNode *snowflake.Node
	idOnce sync.Once
)

// InitIDNode 初始化雪花 ID 节点（进程启动时调用一次）。
// nodeID 取值范围 0-1023，多实例部署时需保证互不相同。
func InitIDNode(nodeID int64) error {
	var err error
	idOnce.Do(func() {
		idNode, err = snowflake.NewNode(nodeID)
	})
	return err
}

// NewID 生成业务实体 uuid（十进制雪花 ID 字符串，最长 19 位，适配 char(20) 列）。
// 节点未初始化时退化为节点 0，保证单测无需初始化流程。
func NewID() string {
	if idNode == nil {
		if err := InitIDNode(0); err != nil {
			// snowflake.NewNode 只在 nodeID 越界时出错，0 不会走到这里
			panic(fmt.Sprintf("snowflake init: %v", err))
		}
	}
	return idNode.Generate().String()
}
