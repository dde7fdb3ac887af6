package monitor

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

/*
该文件包含训练监控器的HTTP服务
提供状态查询、损失历史查询和websocket实时损失推送
*/

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GetStatusHandler 查询当前训练状态
func GetStatusHandler(m *Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, m.GetStatus())
	}
}

// GetLossHandler 查询完整的损失历史
func GetLossHandler(m *Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, m.GetHistory())
	}
}

// WsHandler 升级为websocket连接，先回放历史再实时推送
// 每个连接配一个丢弃式读循环，以便及时处理客户端的关闭帧
func WsHandler(m *Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("websocket升级失败: %v", err)})
			return
		}
		m.addClient(conn)

		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					m.removeClient(conn)
					return
				}
			}
		}()
	}
}

// SetupRouter 创建路由并注册监控接口
func SetupRouter(m *Monitor) *gin.Engine {
	router := gin.Default()
	router.GET("/status", GetStatusHandler(m))
	router.GET("/loss", GetLossHandler(m))
	router.GET("/ws", WsHandler(m))
	return router
}

// Start 启动监控HTTP服务器，阻塞运行，通常放在单独的goroutine里
func (m *Monitor) Start(port string) error {
	fmt.Printf("训练监控器启动，运行ID %s，监听端口 %s\n", m.RunID, port)
	return SetupRouter(m).Run(":" + port)
}
