package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"message-center/pkg/inboxclient"
)

// -------------------- 系统监控 --------------------

type SystemStats struct {
	Timestamp   time.Time
	MemoryUsage float64
	MemoryTotal uint64
	MemoryUsed  uint64
	Goroutines  int
}

type Monitor struct {
	stats    []SystemStats
	interval time.Duration
	stopChan chan struct{}
}

func NewMonitor(interval time.Duration) *Monitor {
	return &Monitor{
		stats:    make([]SystemStats, 0, 512),
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func getMemoryUsage() (usagePercent float64, total, used uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	total = m.Sys
	used = m.Alloc
	if total > 0 {
		usagePercent = float64(used) / float64(total) * 100
	}
	return
}

func (m *Monitor) collectStats() SystemStats {
	memUsage, memTotal, memUsed := getMemoryUsage()
	stats := SystemStats{
		Timestamp:   time.Now(),
		MemoryUsage: memUsage,
		MemoryTotal: memTotal,
		MemoryUsed:  memUsed,
		Goroutines:  runtime.NumGoroutine(),
	}
	m.stats = append(m.stats, stats)
	return stats
}

func (m *Monitor) Start() {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.printStats(m.collectStats())
			case <-m.stopChan:
				return
			}
		}
	}()
}

func (m *Monitor) Stop() { close(m.stopChan) }

func (m *Monitor) printStats(s SystemStats) {
	fmt.Printf("[%s] 内存: %.1f%% (%.1fMB/%.1fMB) | Goroutines: %d\n",
		s.Timestamp.Format("15:04:05"), s.MemoryUsage,
		float64(s.MemoryUsed)/1024/1024, float64(s.MemoryTotal)/1024/1024,
		s.Goroutines,
	)
}

func (m *Monitor) GenerateReport() {
	if len(m.stats) == 0 {
		fmt.Println("没有监控数据")
		return
	}
	var sumMem float64
	var sumGo int
	var maxMem float64
	var maxGo int
	for _, s := range m.stats {
		sumMem += s.MemoryUsage
		sumGo += s.Goroutines
		if s.MemoryUsage > maxMem {
			maxMem = s.MemoryUsage
		}
		if s.Goroutines > maxGo {
			maxGo = s.Goroutines
		}
	}
	n := float64(len(m.stats))
	fmt.Println("\n=== 系统监控报告 ===")
	fmt.Printf("持续: %v\n", m.stats[len(m.stats)-1].Timestamp.Sub(m.stats[0].Timestamp))
	fmt.Printf("平均内存: %.1f%%, 峰值内存: %.1f%%\n", sumMem/n, maxMem)
	fmt.Printf("平均Goroutine: %d, 峰值Goroutine: %d\n", int(float64(sumGo)/n+0.5), maxGo)
}

func (m *Monitor) SaveToFile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	_, _ = f.WriteString("Timestamp,MemoryUsage,MemoryTotal,MemoryUsed,Goroutines\n")
	for _, s := range m.stats {
		line := fmt.Sprintf("%s,%.2f,%d,%d,%d\n",
			s.Timestamp.Format("2006-01-02 15:04:05"), s.MemoryUsage,
			s.MemoryTotal, s.MemoryUsed, s.Goroutines,
		)
		_, _ = f.WriteString(line)
	}
	return nil
}

// -------------------- 消息API并发压测 --------------------

type APITestStats struct {
	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	AverageLatency     time.Duration
	MaxLatency         time.Duration
	MinLatency         time.Duration
	mu                 sync.Mutex
}

func (s *APITestStats) Add(success bool, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TotalRequests++
	if success {
		s.SuccessfulRequests++
		if s.AverageLatency == 0 {
			s.AverageLatency = latency
			s.MaxLatency = latency
			s.MinLatency = latency
		} else {
			s.AverageLatency = (s.AverageLatency + latency) / 2
			if latency > s.MaxLatency {
				s.MaxLatency = latency
			}
			if latency < s.MinLatency {
				s.MinLatency = latency
			}
		}
	} else {
		s.FailedRequests++
	}
}

func timed(stats *APITestStats, fn func() error) {
	start := time.Now()
	err := fn()
	stats.Add(err == nil, time.Since(start))
}

// setupUsers 注册一对压测账号（客服+客户），已存在时改走登录
func setupUsers(ctx context.Context, base string, run int64) (staff, customer *inboxclient.Client, staffID uint, err error) {
	staff = inboxclient.New(base)
	customer = inboxclient.New(base)

	staffEmail := fmt.Sprintf("bench-staff-%d@example.com", run)
	customerEmail := fmt.Sprintf("bench-customer-%d@example.com", run)

	staffUser, err := staff.Register(ctx, "Bench Staff", staffEmail, "bench-pass-123", "admin")
	if err != nil {
		staffUser, err = staff.Login(ctx, staffEmail, "bench-pass-123")
		if err != nil {
			return nil, nil, 0, fmt.Errorf("staff login failed: %w", err)
		}
	}

	if _, err := customer.Register(ctx, "Bench Customer", customerEmail, "bench-pass-123", "customer"); err != nil {
		if _, err := customer.Login(ctx, customerEmail, "bench-pass-123"); err != nil {
			return nil, nil, 0, fmt.Errorf("customer login failed: %w", err)
		}
	}

	return staff, customer, staffUser.ID, nil
}

// runMessageBench 并发跑完整消息流程：客户发信、客服列表、客服查未读
func runMessageBench(ctx context.Context, base string, concurrency, perGoroutine int) {
	fmt.Println("\n=== 消息API并发测试开始 ===")
	fmt.Printf("目标: %s 并发: %d 每协程轮次: %d\n", base, concurrency, perGoroutine)

	staff, customer, staffID, err := setupUsers(ctx, base, time.Now().UnixNano())
	if err != nil {
		fmt.Println("压测账号准备失败:", err)
		return
	}

	stats := &APITestStats{}
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				timed(stats, func() error {
					_, err := customer.SendMessage(ctx, inboxclient.SendMessageRequest{
						ReceiverID: staffID,
						Subject:    fmt.Sprintf("压测消息 %d-%d", id, j),
						Content:    "concurrency benchmark payload",
					})
					return err
				})
				timed(stats, func() error {
					_, err := staff.ListMessages(ctx, "inbox")
					return err
				})
				timed(stats, func() error {
					_, err := staff.UnreadCount(ctx)
					return err
				})
				time.Sleep(5 * time.Millisecond)
			}
		}(i)
	}

	wg.Wait()

	took := time.Since(start)
	fmt.Println("\n=== 消息API测试结果 ===")
	fmt.Printf("耗时: %v\n", took)
	fmt.Printf("总请求: %d 成功: %d 失败: %d\n", stats.TotalRequests, stats.SuccessfulRequests, stats.FailedRequests)
	fmt.Printf("延迟 平均: %v 最大: %v 最小: %v\n", stats.AverageLatency, stats.MaxLatency, stats.MinLatency)
	if took > 0 {
		qps := float64(stats.SuccessfulRequests) / took.Seconds()
		fmt.Printf("QPS: %.2f\n", qps)
	}
	if stats.TotalRequests > 0 {
		rate := float64(stats.SuccessfulRequests) / float64(stats.TotalRequests) * 100
		fmt.Printf("成功率: %.2f%%\n", rate)
	}
}

// -------------------- 入口 --------------------

func main() {
	// 解析命令行参数
	var concurrency, perGoroutine, monitorSeconds int

	if len(os.Args) > 1 {
		if val, err := strconv.Atoi(os.Args[1]); err == nil {
			concurrency = val
		} else {
			concurrency = 5
		}
	} else {
		concurrency = 5
	}

	if len(os.Args) > 2 {
		if val, err := strconv.Atoi(os.Args[2]); err == nil {
			perGoroutine = val
		} else {
			perGoroutine = 10
		}
	} else {
		perGoroutine = 10
	}

	if len(os.Args) > 3 {
		if val, err := strconv.Atoi(os.Args[3]); err == nil {
			monitorSeconds = val
		} else {
			monitorSeconds = 20
		}
	} else {
		monitorSeconds = 20
	}

	baseURL := "http://localhost:8080"
	if v := os.Getenv("BENCH_BASE_URL"); v != "" {
		baseURL = v
	}

	fmt.Println("=== 消息中心并发与监控测试 ===")
	fmt.Printf("开始时间: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Printf("目标: %s 并发: %d 每协程轮次: %d 监控: %ds\n", baseURL, concurrency, perGoroutine, monitorSeconds)

	mon := NewMonitor(1 * time.Second)
	mon.Start()
	go func() {
		time.Sleep(time.Duration(monitorSeconds) * time.Second)
		mon.Stop()
	}()

	runMessageBench(context.Background(), baseURL, concurrency, perGoroutine)

	// 等待监控结束
	time.Sleep(time.Duration(monitorSeconds+1) * time.Second)
	mon.GenerateReport()
	if err := mon.SaveToFile("system_monitor.csv"); err != nil {
		fmt.Println("保存监控数据失败:", err)
	} else {
		fmt.Println("监控数据已保存: system_monitor.csv")
	}

	fmt.Println("\n=== 测试完成 ===")
}
