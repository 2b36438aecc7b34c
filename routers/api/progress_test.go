package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// 客户端断开后处理函数必须退出，不能因为批次没有进度就一直挂着
func TestBatchProgressWebSocket_ClientDisconnect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	handlerDone := make(chan struct{})
	r.GET("/batches/:batch_id/progress/ws", func(c *gin.Context) {
		BatchProgressWebSocket(c)
		close(handlerDone)
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	// 进度存储里没有这个批次的任何快照
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/batches/no-such-batch/progress/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	conn.Close()

	select {
	case <-handlerDone:
	case <-time.After(3 * time.Second):
		t.Fatal("handler still running after client disconnect")
	}
}
