package workers

import (
	"chat-direct/contract"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// HeartbeatWorker periodically logs process health (RSS, CPU, OS status)
// together with the current number of online users. It gives operators a
// pulse without any external monitoring dependency.
type HeartbeatWorker struct {
	log      *slog.Logger
	presence contract.IPresence
	interval time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, presence contract.IPresence, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, presence: presence, interval: interval}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			w.log.Info("heartbeat",
				"pid", os.Getpid(),
				"pid_status", status,
				"ram_bytes", rss,
				"cpu_percent", cpu,
				"online_users", len(w.presence.AllOnline()),
			)
		}
	}
}

// selfStats retrieves technical metrics (Memory, CPU, and OS status) for the
// given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}
	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
