package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newMessageService(intn func(int) int) *StreakService {
	s := NewStreakService(newFakeStore(), newFakeCache(), &fakeNotifier{})
	if intn != nil {
		s.intn = intn
	}
	return s
}

func TestMotivationalMessageExactMilestones(t *testing.T) {
	s := newMessageService(nil)

	for _, streak := range []int{1, 2, 3, 5, 7, 14, 21, 30, 50, 100} {
		assert.Equal(t, exactMessages[streak], s.MotivationalMessage(streak), "streak %d", streak)
	}
}

func TestMotivationalMessageCountdown(t *testing.T) {
	s := newMessageService(nil)

	// 27天：距30天里程碑还差3天
	assert.Equal(t, "🎯 还差3天就到30天里程碑了，加油！", s.MotivationalMessage(27))
	// 29天：还差1天
	assert.Equal(t, "🎯 还差1天就到30天里程碑了，加油！", s.MotivationalMessage(29))
	// 48天：距50天还差2天
	assert.Equal(t, "🎯 还差2天就到50天里程碑了，加油！", s.MotivationalMessage(48))
}

func TestMotivationalMessageBands(t *testing.T) {
	s := newMessageService(nil)

	// 10天：距14天差4天，超出倒计时窗口，落入≥7档
	assert.Equal(t, fmt.Sprintf("🔥 连续%d天，超过一周了", 10), s.MotivationalMessage(10))
	// 25天：距30天差5天，落入≥14档
	assert.Equal(t, fmt.Sprintf("🚀 连续%d天，势头很猛", 25), s.MotivationalMessage(25))
	// 40天：落入≥30档
	assert.Equal(t, fmt.Sprintf("👑 连续%d天，坚持得非常出色", 40), s.MotivationalMessage(40))
	// 60天：落入≥50档
	assert.Equal(t, fmt.Sprintf("🌟 连续%d天，你已经是学习达人了", 60), s.MotivationalMessage(60))
	// 超过最大里程碑后没有倒计时，只剩分档
	assert.Equal(t, fmt.Sprintf("🌟 连续%d天，你已经是学习达人了", 120), s.MotivationalMessage(120))
}

func TestMotivationalMessageGenericIsDeterministicUnderTest(t *testing.T) {
	picked := 0
	s := newMessageService(func(n int) int {
		picked = n
		return 1
	})

	// 0天不命中专属消息，落到里程碑3的倒计时
	assert.Equal(t, "🎯 还差3天就到3天里程碑了，加油！", s.MotivationalMessage(0))
	assert.Zero(t, picked, "随机分支不应被触发")

	// 直接验证随机分支走注入的随机源
	msg := genericMessages[s.intn(len(genericMessages))]
	assert.Equal(t, genericMessages[1], msg)
}

func TestProgressFor(t *testing.T) {
	assert.Equal(t, 0, ProgressFor(0))
	assert.Equal(t, 43, ProgressFor(3))  // round(3/7*100)
	assert.Equal(t, 90, ProgressFor(27)) // round(27/30*100)
	assert.Equal(t, 100, ProgressFor(100))
	assert.Equal(t, 100, ProgressFor(250))
}

func TestNextMilestone(t *testing.T) {
	assert.Equal(t, 3, nextMilestone(0))
	assert.Equal(t, 7, nextMilestone(3))
	assert.Equal(t, 100, nextMilestone(99))
	assert.Equal(t, 0, nextMilestone(100))
}
