package controller

import (
	"strconv"

	"learning_streak_backend/internal/service"
	"learning_streak_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StreakController struct {
	StreakService *service.StreakService
}

func NewStreakController(streakService *service.StreakService) *StreakController {
	return &StreakController{StreakService: streakService}
}

// CheckIn godoc
// @Summary 每日签到
// @Description 推进当前用户今天的连续学习状态，同一天重复调用幂等
// @Tags 连续学习
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.StreakStats}
// @Router /api/streak/checkin [post]
func (c *StreakController) CheckIn(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	stats := c.StreakService.CheckIn(ctx.Request.Context(), claims.UserID)
	util.Success(ctx, stats)
}

// ActivityRequest 学习活动上报
// swagger:model ActivityRequest
type ActivityRequest struct {
	DurationSeconds int `json:"durationSeconds"`
}

// RecordActivity godoc
// @Summary 上报学习活动
// @Description 推进连续状态并把学习时长累加到今天，负数时长按0处理
// @Tags 连续学习
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body ActivityRequest true "学习时长（秒）"
// @Success 200 {object} util.Response{data=service.StreakStats}
// @Router /api/streak/activity [post]
func (c *StreakController) RecordActivity(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ActivityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	stats := c.StreakService.RecordActivity(ctx.Request.Context(), claims.UserID, req.DurationSeconds)
	util.Success(ctx, stats)
}

// GetStats godoc
// @Summary 获取连续学习状态
// @Description 只读快照，不触发状态转移
// @Tags 连续学习
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.StreakStats}
// @Router /api/streak/stats [get]
func (c *StreakController) GetStats(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	util.Success(ctx, c.StreakService.Stats(ctx.Request.Context(), claims.UserID))
}

// GetMessage godoc
// @Summary 获取激励消息
// @Description 按当前连续天数生成激励消息
// @Tags 连续学习
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/streak/message [get]
func (c *StreakController) GetMessage(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	stats := c.StreakService.Stats(ctx.Request.Context(), claims.UserID)
	util.Success(ctx, gin.H{
		"message": c.StreakService.MotivationalMessage(stats.CurrentStreak),
	})
}

// GetWeeklyPattern godoc
// @Summary 最近一周学习情况
// @Description 最近7个日历日（含今天）每天的学习时长与课程数，从旧到新
// @Tags 连续学习
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.DayPattern}
// @Router /api/streak/weekly [get]
func (c *StreakController) GetWeeklyPattern(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	util.Success(ctx, c.StreakService.WeeklyPattern(ctx.Request.Context(), claims.UserID))
}

// GetProgress godoc
// @Summary 里程碑进度
// @Description 距下一个连续天数里程碑的进度百分比
// @Tags 连续学习
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/streak/progress [get]
func (c *StreakController) GetProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	util.Success(ctx, gin.H{
		"progress": c.StreakService.StreakProgress(ctx.Request.Context(), claims.UserID),
	})
}

// GetToday godoc
// @Summary 今天的学习情况
// @Description 今天是否已计入连续，以及今天的活动条目
// @Tags 连续学习
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/streak/today [get]
func (c *StreakController) GetToday(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	reqCtx := ctx.Request.Context()
	util.Success(ctx, gin.H{
		"learned":  c.StreakService.HasLearnedToday(reqCtx, claims.UserID),
		"activity": c.StreakService.TodaysActivity(reqCtx, claims.UserID),
	})
}

// Reset godoc
// @Summary 重置连续学习记录
// @Description 用全新记录替换当前记录（管理员权限）
// @Tags 连续学习
// @Produce json
// @Security ApiKeyAuth
// @Param userId path int true "用户ID"
// @Success 200 {object} util.Response{data=service.StreakStats}
// @Router /api/admin/streak/{userId} [delete]
func (c *StreakController) Reset(ctx *gin.Context) {
	userID, err := parseUintParam(ctx, "userId")
	if err != nil {
		util.BadRequest(ctx, "无效的用户ID")
		return
	}

	util.Success(ctx, c.StreakService.Reset(ctx.Request.Context(), userID))
}

// parseUintParam 解析路径中的无符号整型参数
func parseUintParam(ctx *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	return uint(value), err
}
