package service

import "fmt"

// milestones 触发特殊消息的连续天数，升序
var milestones = []int{3, 7, 14, 21, 30, 50, 100}

// countdownWindow 距下一个里程碑不超过3天时改用倒计时消息
const countdownWindow = 3

// exactMessages 特定天数的专属消息
var exactMessages = map[int]string{
	1:   "🌱 好的开始！今天是连续学习的第1天",
	2:   "🔥 连续2天了，保持住！",
	3:   "⚡ 连续3天，习惯正在养成",
	5:   "💪 连续5天，状态越来越好",
	7:   "🎉 连续7天！完整的一周达成",
	14:  "🚀 连续14天，两周不间断",
	21:  "🏆 连续21天，习惯已经形成",
	30:  "👑 连续30天！整整一个月",
	50:  "🌟 连续50天，半百里程碑",
	100: "💯 连续100天！百日坚持，了不起",
}

// genericMessages 兜底的通用激励消息，随机挑选
var genericMessages = []string{
	"每一天的坚持都算数，继续！",
	"学习是唯一的财富，因为它可以被分享而不会减少。",
	"今天也别忘了学一点！",
	"Consistency is the key to learning.",
}

// MotivationalMessage 按当前连续天数生成激励消息。
// 匹配顺序：专属消息 → 里程碑倒计时 → 按天数分档 → 随机通用消息。
// 随机分支走注入的随机源，保证测试可控。
func (s *StreakService) MotivationalMessage(currentStreak int) string {
	if msg, ok := exactMessages[currentStreak]; ok {
		return msg
	}

	if next := nextMilestone(currentStreak); next > 0 {
		if remaining := next - currentStreak; remaining <= countdownWindow {
			return fmt.Sprintf("🎯 还差%d天就到%d天里程碑了，加油！", remaining, next)
		}
	}

	switch {
	case currentStreak >= 50:
		return fmt.Sprintf("🌟 连续%d天，你已经是学习达人了", currentStreak)
	case currentStreak >= 30:
		return fmt.Sprintf("👑 连续%d天，坚持得非常出色", currentStreak)
	case currentStreak >= 14:
		return fmt.Sprintf("🚀 连续%d天，势头很猛", currentStreak)
	case currentStreak >= 7:
		return fmt.Sprintf("🔥 连续%d天，超过一周了", currentStreak)
	case currentStreak >= 3:
		return fmt.Sprintf("⚡ 连续%d天，继续保持", currentStreak)
	}

	return genericMessages[s.intn(len(genericMessages))]
}

// nextMilestone 严格大于当前天数的最小里程碑，没有时返回0
func nextMilestone(currentStreak int) int {
	for _, m := range milestones {
		if m > currentStreak {
			return m
		}
	}
	return 0
}
