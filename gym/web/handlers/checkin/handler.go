package checkin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"wolfgym.com/wolfgym/core"
	gym "wolfgym.com/wolfgym/gym/core"
	"wolfgym.com/wolfgym/gym/model"
	"wolfgym.com/wolfgym/gym/schedule"
	common "wolfgym.com/wolfgym/gym/web/common"
	"wolfgym.com/wolfgym/realtime"
	"wolfgym.com/wolfgym/utils"
	web "wolfgym.com/wolfgym/web/common"
)

type Endpoint struct {
	base        common.Handler
	schedule    *schedule.Schedule
	broadcaster *realtime.Broadcaster
}

func Register(r *gin.RouterGroup, dm *core.DatabaseManager, sched *schedule.Schedule, bc *realtime.Broadcaster) {
	endpoint := &Endpoint{base: common.Handler{Dm: dm}, schedule: sched, broadcaster: bc}
	r.POST("/check-in", endpoint.CheckIn)
	r.POST("/check-out", endpoint.CheckOut)
}

type CheckRequestDTO struct {
	Phone  *string `json:"phone,omitempty"`
	UserID *string `json:"userId,omitempty"`
}

// resolveUser turns the request into a user id: explicit id wins, otherwise
// the phone is normalized and looked up.
func (ep *Endpoint) resolveUser(db *gorm.DB, req CheckRequestDTO) (string, int, string) {
	if req.UserID != nil && *req.UserID != "" {
		return *req.UserID, 0, ""
	}
	if req.Phone == nil || *req.Phone == "" {
		return "", http.StatusBadRequest, "Either phone or userId is required"
	}

	userID, err := gym.FindUserIDByPhone(db, *req.Phone)
	switch {
	case errors.Is(err, gym.ErrInvalidPhone):
		return "", http.StatusBadRequest, "Invalid phone number"
	case errors.Is(err, gym.ErrUserNotFound):
		return "", http.StatusNotFound, "No member matches that phone number"
	case err != nil:
		return "", http.StatusInternalServerError, err.Error()
	}
	return userID, 0, ""
}

func (ep *Endpoint) CheckIn(c *gin.Context) {
	var req CheckRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	db := ep.base.DB(c)
	userID, status, msg := ep.resolveUser(db, req)
	if status != 0 {
		c.JSON(status, web.NewErrorResponse(msg))
		return
	}

	now := utils.LimaNow()
	rec, err := gym.CheckIn(db, ep.schedule, now, userID)
	switch {
	case errors.Is(err, gym.ErrAlreadyCheckedIn):
		c.JSON(http.StatusConflict, web.NewErrorResponse("Member already has an open session"))
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	event := ep.buildEvent(db, "checkin", userID, rec, nil)
	ep.broadcaster.Broadcast(realtime.DefaultRoom, event)

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{
		"record": rec,
		"event":  event,
	}))
}

func (ep *Endpoint) CheckOut(c *gin.Context) {
	var req CheckRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	db := ep.base.DB(c)
	userID, status, msg := ep.resolveUser(db, req)
	if status != 0 {
		c.JSON(status, web.NewErrorResponse(msg))
		return
	}

	now := utils.LimaNow()
	rec, err := gym.CheckOut(db, now, userID)
	switch {
	case errors.Is(err, gym.ErrNoOpenSession):
		c.JSON(http.StatusConflict, web.NewErrorResponse("Member has no open session today"))
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	event := ep.buildEvent(db, "checkout", userID, rec, rec.DurationMins)
	ep.broadcaster.Broadcast(realtime.DefaultRoom, event)

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{
		"record": rec,
		"event":  event,
	}))
}

// buildEvent assembles the kiosk display payload. Profile lookups are
// best-effort; a missing profile still yields a usable event.
func (ep *Endpoint) buildEvent(db *gorm.DB, action, userID string, rec *model.AttendanceRecord, minutesOpen *int) gin.H {
	event := gin.H{
		"type":      "attendance",
		"action":    action,
		"userId":    userID,
		"recordId":  rec.ID,
		"timestamp": utils.LimaNow(),
	}
	if minutesOpen != nil {
		event["minutesOpen"] = *minutesOpen
	}

	info, err := gym.GetProfileInfo(db, utils.LimaNow(), userID)
	if err != nil {
		return event
	}
	event["fullName"] = info.FullName
	event["avatar"] = info.AvatarURL
	event["daysLeft"] = info.DaysLeft
	event["totalDebt"] = info.Total
	return event
}
