package monitor

import (
	"sync"

	"LayerNet/pkg/network"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

/*
该文件包含训练监控器的状态管理
监控器只观察训练过程，不参与层内核的数值契约
*/

// Status 当前训练状态
type Status struct {
	RunID            string  `json:"run_id"`
	Epoch            int     `json:"epoch"`
	TotalEpochs      int     `json:"total_epochs"`
	CurrentLoss      float64 `json:"current_loss"`
	FeedforwardCount int     `json:"feedforward_count"`
	BackpropCount    int     `json:"backprop_count"`
}

// LossRecord 一轮训练的损失记录
type LossRecord struct {
	Epoch int     `json:"epoch"`
	Loss  float64 `json:"loss"`
}

// Monitor 训练监控器，维护损失历史并向websocket客户端推送
type Monitor struct {
	RunID string

	nn          *network.FrankeNet
	totalEpochs int

	mu      sync.Mutex
	status  Status
	history []LossRecord
	clients map[*websocket.Conn]bool
}

// NewMonitor 创建新的训练监控器实例
func NewMonitor(nn *network.FrankeNet, totalEpochs int) *Monitor {
	runID := uuid.New().String()
	return &Monitor{
		RunID:       runID,
		nn:          nn,
		totalEpochs: totalEpochs,
		status: Status{
			RunID:       runID,
			TotalEpochs: totalEpochs,
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// ReportEpoch 记录一轮训练的损失并推送给所有已连接的客户端
// 签名与训练循环的 onEpoch 回调一致
func (m *Monitor) ReportEpoch(epoch int, loss float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record := LossRecord{Epoch: epoch, Loss: loss}
	m.history = append(m.history, record)

	// 汇总各层的诊断计数器
	ff, bp := 0, 0
	for _, layer := range m.nn.Layers {
		ff += layer.FeedforwardCount
		bp += layer.BackpropCount
	}
	m.status.Epoch = epoch
	m.status.CurrentLoss = loss
	m.status.FeedforwardCount = ff
	m.status.BackpropCount = bp

	// 推送失败的连接直接清理掉
	for conn := range m.clients {
		if err := conn.WriteJSON(record); err != nil {
			conn.Close()
			delete(m.clients, conn)
		}
	}
}

// GetStatus 获取当前训练状态
func (m *Monitor) GetStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// GetHistory 获取完整的损失历史
func (m *Monitor) GetHistory() []LossRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LossRecord, len(m.history))
	copy(out, m.history)
	return out
}

// addClient 注册一个websocket客户端并回放已有的损失历史
func (m *Monitor) addClient(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.history {
		if err := conn.WriteJSON(record); err != nil {
			conn.Close()
			return
		}
	}
	m.clients[conn] = true
}

// removeClient 注销并关闭一个websocket客户端
func (m *Monitor) removeClient(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[conn]; ok {
		conn.Close()
		delete(m.clients, conn)
	}
}
