package debts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"wolfgym.com/wolfgym/core"
	gym "wolfgym.com/wolfgym/gym/core"
	"wolfgym.com/wolfgym/gym/model"
	common "wolfgym.com/wolfgym/gym/web/common"
	"wolfgym.com/wolfgym/utils"
	web "wolfgym.com/wolfgym/web/common"
)

type Endpoint struct {
	base common.Handler
}

func Register(r *gin.RouterGroup, dm *core.DatabaseManager) {
	endpoint := &Endpoint{base: common.Handler{Dm: dm}}
	r.GET("/debts/:profileId", endpoint.Breakdown)
}

// RegisterMaintenance mounts the sweep endpoints. They go on a separate group
// so the scheduler worker can reach them with the internal-call header.
func RegisterMaintenance(r *gin.RouterGroup, dm *core.DatabaseManager) {
	endpoint := &Endpoint{base: common.Handler{Dm: dm}}
	r.POST("/debts/cleanup", endpoint.CleanupDaily)
	r.DELETE("/debts/cleanup", endpoint.CleanupWeekly)
}

func (ep *Endpoint) Breakdown(c *gin.Context) {
	profileID := c.Param("profileId")

	db := ep.base.DB(c)

	var profile model.ClientProfile
	err := db.First(&profile, "profile_id = ?", profileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, web.NewErrorResponse("Profile not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	breakdown, err := gym.ComputeDebt(db, &profile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(breakdown))
}

func (ep *Endpoint) CleanupDaily(c *gin.Context) {
	db := ep.base.DB(c)

	moved, err := gym.CleanupDailyDebts(db, utils.LimaNow())
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{"archived": moved}))
}

func (ep *Endpoint) CleanupWeekly(c *gin.Context) {
	preserve, _ := strconv.ParseBool(c.DefaultQuery("preserve", "false"))

	db := ep.base.DB(c)

	deleted, err := gym.CleanupWeeklyHistory(db, utils.LimaNow(), preserve)
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{
		"deleted":   deleted,
		"preserved": preserve,
	}))
}
