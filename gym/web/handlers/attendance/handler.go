package attendance

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
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
	r.GET("/attendance", endpoint.List)
	r.GET("/attendance/export", endpoint.Export)
	r.PATCH("/attendance/:id", endpoint.Update)
	r.DELETE("/attendance/:id", endpoint.Delete)
	r.POST("/admin/auto-close", endpoint.AutoClose)
}

// AttendanceRow is a record joined with the member display fields the admin
// table shows.
type AttendanceRow struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Username     string     `json:"username"`
	CheckInTime  time.Time  `json:"checkInTime"`
	CheckOutTime *time.Time `json:"checkOutTime"`
	DurationMins *int       `json:"durationMins"`
	Type         *string    `json:"type"`
}

func (ep *Endpoint) query(db *gorm.DB, c *gin.Context) *gorm.DB {
	q := db.Table("attendance").
		Select(`attendance.id, attendance.user_id, attendance.check_in_time,
			attendance.check_out_time, attendance.duration_mins, attendance.type,
			users.first_name, users.last_name, users.username`).
		Joins("LEFT JOIN users ON users.id = attendance.user_id").
		Order("attendance.check_in_time DESC")

	if date := c.Query("date"); date != "" {
		day, err := time.ParseInLocation("2006-01-02", date, utils.LimaTZ)
		if err == nil {
			start, end := utils.DayWindow(day)
			q = q.Where("attendance.check_in_time >= ? AND attendance.check_in_time < ?", start, end)
		}
	}
	if userID := c.Query("userId"); userID != "" {
		q = q.Where("attendance.user_id = ?", userID)
	}
	return q
}

func (ep *Endpoint) List(c *gin.Context) {
	db := ep.base.DB(c)

	var total int64
	if err := ep.query(db, c).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	var rows []AttendanceRow
	if err := ep.query(db, c).Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSearchResponse(rows, total))
}

type AttendanceUpdateDTO struct {
	CheckInTime  *time.Time `json:"checkInTime,omitempty"`
	CheckOutTime *time.Time `json:"checkOutTime,omitempty"`
	DurationMins *int       `json:"durationMins,omitempty"`
	Type         *string    `json:"type,omitempty"`
}

func (ep *Endpoint) Update(c *gin.Context) {
	id := c.Param("id")

	var updateDTO AttendanceUpdateDTO
	if err := c.ShouldBindJSON(&updateDTO); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	db := ep.base.DB(c)

	var rec model.AttendanceRecord
	if err := db.First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, web.NewErrorResponse("Attendance record not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	updates := map[string]interface{}{}
	if updateDTO.CheckInTime != nil {
		updates["check_in_time"] = *updateDTO.CheckInTime
	}
	if updateDTO.CheckOutTime != nil {
		updates["check_out_time"] = *updateDTO.CheckOutTime
		// An admin closing the record by hand releases the open marker.
		updates["open_day"] = nil
	}
	if updateDTO.DurationMins != nil {
		updates["duration_mins"] = *updateDTO.DurationMins
	}
	if updateDTO.Type != nil {
		updates["type"] = *updateDTO.Type
	}
	if len(updates) == 0 {
		c.JSON(http.StatusOK, web.NewSuccessResponse(rec))
		return
	}

	if err := db.Model(&rec).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}
	if err := db.First(&rec, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(rec))
}

func (ep *Endpoint) Delete(c *gin.Context) {
	id := c.Param("id")

	db := ep.base.DB(c)
	res := db.Delete(&model.AttendanceRecord{}, "id = ?", id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(res.Error.Error()))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, web.NewErrorResponse("Attendance record not found"))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{}))
}

func (ep *Endpoint) AutoClose(c *gin.Context) {
	db := ep.base.DB(c)

	closed, err := gym.CloseOpenRecords(db, utils.LimaNow())
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{"closed": closed}))
}

func exportRow(row AttendanceRow) []interface{} {
	values := []interface{}{
		row.FirstName + " " + row.LastName,
		row.Username,
		row.CheckInTime.In(utils.LimaTZ).Format("2006-01-02 15:04"),
		"",
		"",
		"",
	}
	if row.CheckOutTime != nil {
		values[3] = row.CheckOutTime.In(utils.LimaTZ).Format("2006-01-02 15:04")
	}
	if row.DurationMins != nil {
		values[4] = *row.DurationMins
	}
	if row.Type != nil {
		values[5] = *row.Type
	}
	return values
}

func (ep *Endpoint) Export(c *gin.Context) {
	db := ep.base.DB(c)

	var rows []AttendanceRow
	if err := ep.query(db, c).Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{"Member", "Username", "Check in", "Check out", "Minutes", "Session"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, values := range utils.Map(rows, exportRow) {
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	filename := fmt.Sprintf("attendance-%s.xlsx", utils.LimaNow().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}
