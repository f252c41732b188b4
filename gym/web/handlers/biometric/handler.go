package biometric

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wolfgym.com/wolfgym/biometric"
	"wolfgym.com/wolfgym/core"
	gym "wolfgym.com/wolfgym/gym/core"
	"wolfgym.com/wolfgym/gym/model"
	"wolfgym.com/wolfgym/gym/schedule"
	common "wolfgym.com/wolfgym/gym/web/common"
	"wolfgym.com/wolfgym/realtime"
	"wolfgym.com/wolfgym/utils"
	web "wolfgym.com/wolfgym/web/common"
)

// registrationSamples is how many captures enrollment takes when the caller
// does not supply templates.
const registrationSamples = 3

type Endpoint struct {
	base        common.Handler
	device      *biometric.Client
	schedule    *schedule.Schedule
	broadcaster *realtime.Broadcaster
}

func Register(r *gin.RouterGroup, dm *core.DatabaseManager, device *biometric.Client, sched *schedule.Schedule, bc *realtime.Broadcaster) {
	endpoint := &Endpoint{base: common.Handler{Dm: dm}, device: device, schedule: sched, broadcaster: bc}
	r.POST("/biometric/capture", endpoint.Capture)
	r.POST("/biometric/identify", endpoint.Identify)
	r.POST("/biometric/register/:id", endpoint.Enroll)
	r.POST("/biometric/verify/:id", endpoint.Verify)
	r.GET("/biometric/status/:id", endpoint.Status)
	r.DELETE("/biometric/:id", endpoint.Delete)
}

func deviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, biometric.ErrDeviceUnavailable):
		c.JSON(http.StatusServiceUnavailable, web.NewErrorResponse("Fingerprint reader is not reachable"))
	case errors.Is(err, biometric.ErrCaptureFailed):
		c.JSON(http.StatusBadGateway, web.NewErrorResponse("Fingerprint capture failed"))
	default:
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
	}
}

func (ep *Endpoint) Capture(c *gin.Context) {
	template, err := ep.device.Capture(c.Request.Context())
	if errors.Is(err, biometric.ErrNoFinger) {
		c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{"captured": false}))
		return
	}
	if err != nil {
		deviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{
		"captured": true,
		"template": template,
	}))
}

type IdentifyRequestDTO struct {
	Template *string `json:"template,omitempty"`
}

// Identify is the kiosk loop: capture (unless a template is supplied), run the
// 1:N search, gate on membership expiry and check the member in. A missed read
// or a non-match is a normal outcome, not an error.
func (ep *Endpoint) Identify(c *gin.Context) {
	// The kiosk polls with an empty body; binding failures just mean no
	// template was supplied.
	var req IdentifyRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		req = IdentifyRequestDTO{}
	}

	ctx := c.Request.Context()

	template := ""
	if req.Template != nil {
		template = *req.Template
	} else {
		captured, err := ep.device.Capture(ctx)
		if errors.Is(err, biometric.ErrNoFinger) {
			c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{"match": false}))
			return
		}
		if err != nil {
			deviceError(c, err)
			return
		}
		template = captured
	}

	result, err := ep.device.Identify(ctx, template)
	if err != nil {
		deviceError(c, err)
		return
	}
	if !result.Match {
		c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{"match": false}))
		return
	}

	db := ep.base.DB(c)
	now := utils.LimaNow()

	info, err := gym.GetProfileInfo(db, now, result.UserID)
	if errors.Is(err, gym.ErrUserNotFound) {
		// Template matched but the account is gone; treat as a non-match.
		c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{"match": false}))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	if info.EndDate != nil && info.EndDate.Before(now) {
		c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{
			"match":    false,
			"expired":  true,
			"fullName": info.FullName,
			"message":  "Membership has expired",
		}))
		return
	}

	rec, err := gym.CheckIn(db, ep.schedule, now, result.UserID)
	if errors.Is(err, gym.ErrAlreadyCheckedIn) {
		c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{
			"match":            true,
			"alreadyCheckedIn": true,
			"profile":          info,
		}))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	ep.broadcaster.Broadcast(realtime.DefaultRoom, gin.H{
		"type":      "attendance",
		"action":    "checkin",
		"userId":    result.UserID,
		"recordId":  rec.ID,
		"fullName":  info.FullName,
		"avatar":    info.AvatarURL,
		"daysLeft":  info.DaysLeft,
		"totalDebt": info.Total,
		"timestamp": now,
	})

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{
		"match":   true,
		"score":   result.Score,
		"profile": info,
		"record":  rec,
	}))
}

type EnrollRequestDTO struct {
	Templates []string `json:"templates,omitempty"`
}

// Enroll registers a member's fingerprint. When the caller supplies no
// templates, the reader is sampled three times; enrollment replaces any
// previous template.
func (ep *Endpoint) Enroll(c *gin.Context) {
	userID := c.Param("id")

	var req EnrollRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		req = EnrollRequestDTO{}
	}

	ctx := c.Request.Context()

	templates := req.Templates
	if len(templates) == 0 {
		for i := 0; i < registrationSamples; i++ {
			template, err := ep.device.Capture(ctx)
			if err != nil {
				deviceError(c, err)
				return
			}
			templates = append(templates, template)
		}
	}

	if err := ep.device.Register(ctx, userID, templates...); err != nil {
		deviceError(c, err)
		return
	}

	db := ep.base.DB(c)
	fp := model.Fingerprint{UserID: userID, Samples: len(templates)}
	if err := db.Save(&fp).Error; err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{
		"userId":  userID,
		"samples": len(templates),
	}))
}

// Verify captures a fresh sample and runs the 1:1 comparison against the
// member's stored template.
func (ep *Endpoint) Verify(c *gin.Context) {
	userID := c.Param("id")
	ctx := c.Request.Context()

	template, err := ep.device.Capture(ctx)
	if err != nil {
		deviceError(c, err)
		return
	}

	result, err := ep.device.Verify(ctx, userID, template)
	if err != nil {
		deviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{
		"match": result.Match,
		"score": result.Score,
	}))
}

func (ep *Endpoint) Status(c *gin.Context) {
	userID := c.Param("id")

	enrolled, err := ep.device.Status(c.Request.Context(), userID)
	if err != nil {
		deviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{
		"userId":   userID,
		"enrolled": enrolled,
	}))
}

func (ep *Endpoint) Delete(c *gin.Context) {
	userID := c.Param("id")

	db := ep.base.DB(c)
	res := db.Delete(&model.Fingerprint{}, "user_id = ?", userID)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(res.Error.Error()))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, web.NewErrorResponse("No fingerprint registered for that member"))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{}))
}
