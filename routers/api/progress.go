package api

import (
	"net/http"
	"time"

	"PromoVideo-server/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 进度推送在无进度更新时的最长存活时间
const progressIdleTimeout = 10 * time.Minute

// 批次进度 WebSocket 推送：订阅进度存储，变化时推送，批次完成后关闭。
// 进度由编排器在每个条目落定时写入，这里只读。
func BatchProgressWebSocket(c *gin.Context) {
	batchID := c.Param("batch_id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "WebSocket升级失败"})
		return
	}
	defer conn.Close()

	// 读协程只为感知客户端断开，收到的消息直接丢弃
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// 先推一次当前进度（可能还没开始）
	snap, ok := service.ProgressStore.Get(batchID)
	if ok {
		_ = conn.WriteJSON(snap)
		if snap.Done {
			return
		}
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	idle := time.NewTimer(progressIdleTimeout)
	defer idle.Stop()

	prev := snap
	for {
		select {
		case <-clientGone:
			return
		case <-idle.C:
			// 批次迟迟没有进度，不让被遗忘的连接一直挂着
			return
		case <-ticker.C:
			cur, ok := service.ProgressStore.Get(batchID)
			if !ok {
				continue
			}
			if cur != prev {
				if err := conn.WriteJSON(cur); err != nil {
					return
				}
				prev = cur
				idle.Reset(progressIdleTimeout)
			}
			if cur.Done {
				return
			}
		}
	}
}
