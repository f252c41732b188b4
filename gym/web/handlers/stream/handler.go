package stream

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wolfgym.com/wolfgym/realtime"
	"wolfgym.com/wolfgym/utils"
	web "wolfgym.com/wolfgym/web/common"
)

// keepAliveInterval is how often an idle stream gets a comment line so proxies
// do not cut the connection.
const keepAliveInterval = 15 * time.Second

type Endpoint struct {
	broadcaster *realtime.Broadcaster
}

func Register(r *gin.RouterGroup, bc *realtime.Broadcaster) {
	endpoint := &Endpoint{broadcaster: bc}
	r.GET("/stream", endpoint.Stream)
	r.GET("/stream/stats", endpoint.Stats)
	r.POST("/commands", endpoint.SendCommand)
	r.GET("/commands", endpoint.Stream)
}

// Stream is the SSE endpoint. Each event goes out as a single data line;
// subscribers joining mid-stream only see events broadcast after they join.
func (ep *Endpoint) Stream(c *gin.Context) {
	room := c.DefaultQuery("room", realtime.DefaultRoom)

	sub := ep.broadcaster.Subscribe(room)
	defer ep.broadcaster.Unsubscribe(sub)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-sub.C:
			if !ok {
				return false
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			return true
		case <-keepAlive.C:
			fmt.Fprint(w, ":\n\n")
			return true
		case <-ctx.Done():
			return false
		}
	})
}

type CommandDTO struct {
	Action string `json:"action" binding:"required"`
	Room   string `json:"room,omitempty"`
}

// SendCommand pushes an operator command (refresh, announce, lock) to every
// kiosk subscribed to the room.
func (ep *Endpoint) SendCommand(c *gin.Context) {
	var cmd CommandDTO
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	room := cmd.Room
	if room == "" {
		room = realtime.DefaultRoom
	}

	ep.broadcaster.Broadcast(room, gin.H{
		"type":      "command",
		"action":    cmd.Action,
		"timestamp": utils.LimaNow(),
	})

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{"room": room, "action": cmd.Action}))
}

func (ep *Endpoint) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{
		"rooms": ep.broadcaster.Stats(),
	}))
}
