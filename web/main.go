package main

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"wolfgym.com/wolfgym/biometric"
	"wolfgym.com/wolfgym/core"
	"wolfgym.com/wolfgym/gym/schedule"
	"wolfgym.com/wolfgym/gym/web/handlers/attendance"
	biohandlers "wolfgym.com/wolfgym/gym/web/handlers/biometric"
	"wolfgym.com/wolfgym/gym/web/handlers/checkin"
	"wolfgym.com/wolfgym/gym/web/handlers/debts"
	"wolfgym.com/wolfgym/gym/web/handlers/stream"
	"wolfgym.com/wolfgym/realtime"
	"wolfgym.com/wolfgym/web/middlewares"
)

func main() {
	r := gin.Default()

	dsn := os.Getenv("DSN")
	fmt.Printf("using DSN: %s\n", dsn)
	dm, err := core.New(dsn, 10)
	if err != nil {
		log.Fatal(err)
	}
	defer dm.Close()

	base64Secret := os.Getenv("WOLFGYM_SIGNING_SECRET")
	jwtSecret, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		log.Fatal("Failed to decode JWT secret:", err)
	}
	internalSecret := os.Getenv("WOLFGYM_INTERNAL_SECRET")

	sched, err := schedule.Load(os.Getenv("SCHEDULE_PATH"))
	if err != nil {
		log.Fatal("Failed to load schedule:", err)
	}

	device := biometric.NewClient(
		os.Getenv("BIOMETRIC_CAPTURE_URL"),
		os.Getenv("BIOMETRIC_STORE_URL"),
	)

	broadcaster := realtime.NewBroadcaster()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Kiosk surface: the front-desk tablet talks to these without a session.
	kiosk := r.Group("/api")
	{
		checkin.Register(kiosk, dm, sched, broadcaster)
		biohandlers.Register(kiosk, dm, device, sched, broadcaster)
		stream.Register(kiosk, broadcaster)
	}

	// Maintenance surface: session or the worker's internal-call header.
	maintenance := r.Group("/api")
	maintenance.Use(middlewares.InternalOrAuthenticated(jwtSecret, internalSecret))
	{
		debts.RegisterMaintenance(maintenance, dm)
	}

	// Admin surface.
	protected := r.Group("/api")
	protected.Use(middlewares.Authentication(jwtSecret), middlewares.RequireAdmin())
	{
		attendance.Register(protected, dm)
		debts.Register(protected, dm)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}
	r.Run(":" + port)
}
