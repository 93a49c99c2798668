package redis

import (
	"fmt"
	"strconv"
	"time"
)

// 未读消息计数相关常量
const (
	UnreadCountKeyPrefix = "mc:unread:" // 未读消息计数key前缀
	unreadCountTTL       = 24 * time.Hour
)

// IncrementUnreadCount 增加用户未读消息计数
func IncrementUnreadCount(userID uint) error {
	if client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}

	key := fmt.Sprintf("%s%d", UnreadCountKeyPrefix, userID)

	// 使用Redis INCR命令原子性增加计数
	err := client.Incr(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("增加未读消息计数失败: %w", err)
	}

	// 设置TTL，过期后走数据库回源重建
	err = client.Expire(ctx, key, unreadCountTTL).Err()
	if err != nil {
		return fmt.Errorf("设置未读消息计数TTL失败: %w", err)
	}

	return nil
}

// DecrementUnreadCount 减少用户未读消息计数
func DecrementUnreadCount(userID uint) error {
	if client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}

	key := fmt.Sprintf("%s%d", UnreadCountKeyPrefix, userID)

	// 使用Redis DECR命令原子性减少计数
	err := client.Decr(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("减少未读消息计数失败: %w", err)
	}

	// 如果计数为0或负数，删除key
	count, err := client.Get(ctx, key).Int64()
	if err == nil && count <= 0 {
		client.Del(ctx, key)
	}

	return nil
}

// GetUnreadCount 获取用户未读消息计数
func GetUnreadCount(userID uint) (int64, error) {
	if client == nil {
		return 0, fmt.Errorf("redis客户端未初始化")
	}

	key := fmt.Sprintf("%s%d", UnreadCountKeyPrefix, userID)

	// 从Redis获取计数
	result, err := client.Get(ctx, key).Result()
	if err != nil {
		// 如果key不存在，返回-1表示需要从数据库获取
		if err.Error() == "redis: nil" {
			return -1, nil
		}
		return 0, fmt.Errorf("获取未读消息计数失败: %w", err)
	}

	// 转换为int64
	count, err := strconv.ParseInt(result, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("解析未读消息计数失败: %w", err)
	}

	return count, nil
}

// SetUnreadCount 设置用户未读消息计数（用于初始化或数据库回源后同步）
func SetUnreadCount(userID uint, count int64) error {
	if client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}

	key := fmt.Sprintf("%s%d", UnreadCountKeyPrefix, userID)

	// 设置计数
	err := client.Set(ctx, key, count, unreadCountTTL).Err()
	if err != nil {
		return fmt.Errorf("设置未读消息计数失败: %w", err)
	}

	return nil
}

// ResetUnreadCount 重置用户未读消息计数为0
func ResetUnreadCount(userID uint) error {
	if client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}

	key := fmt.Sprintf("%s%d", UnreadCountKeyPrefix, userID)

	// 删除key，相当于重置为0
	err := client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("重置未读消息计数失败: %w", err)
	}

	return nil
}
