package coupon

import (
	"fmt"
	"time"

	"github.com/coupon-next/internal/constants"
)

// TodayCode 生成当天的批次编码（yyMMdd 数字）
func TodayCode(now time.Time) int {
	return (now.Year()%100)*10000 + int(now.Month())*100 + now.Day()
}

// EndOfDay 当天最后一刻（23:59:59）
func EndOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
}

// UntilEndOfDay 距离当天结束的剩余时长，作为准入状态 key 的 TTL
func UntilEndOfDay(now time.Time) time.Duration {
	remain := EndOfDay(now).Sub(now)
	if remain < time.Second {
		// 临界请求也给 key 留出最短生存时间，避免 EXPIRE 0 直接删键
		return time.Second
	}
	return remain
}

// DedupKey 用户领取去重 key
func DedupKey(userID uint, batchCode int) string {
	return fmt.Sprintf("%s:%d:%d", constants.KeyIssuedPrefix, userID, batchCode)
}

// CountKey 批次计数器 key
func CountKey(batchCode int) string {
	return fmt.Sprintf("%s:%d", constants.KeyCountPrefix, batchCode)
}
