package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"github.com/tidechat/tidechat/internal/domain/model"
	"github.com/urfave/cli/v2"
)

// statsCmd renders a live terminal dashboard off the server's stats
// endpoint: online users, delivery counters, uptime.
func statsCmd() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Live dashboard for a running chat server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Base URL of the server",
				Value: "http://localhost:8080",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Poll interval",
				Value: 2 * time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			return runStatsDashboard(c.String("addr"), c.Duration("interval"))
		},
	}
}

func runStatsDashboard(addr string, interval time.Duration) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("init terminal ui: %w", err)
	}
	defer ui.Close()

	summary := widgets.NewParagraph()
	summary.Title = " tidechat "
	summary.SetRect(0, 0, 60, 7)

	online := widgets.NewList()
	online.Title = " online users "
	online.SetRect(0, 7, 60, 22)

	client := &http.Client{Timeout: 5 * time.Second}
	refresh := func() {
		stats, err := fetchStats(client, addr)
		if err != nil {
			summary.Text = fmt.Sprintf("unreachable: %v", err)
			online.Rows = nil
		} else {
			summary.Text = fmt.Sprintf(
				"online:    %d\ndelivered: %d\ndropped:   %d\nuptime:    %s",
				stats.OnlineUsers, stats.Delivered, stats.Dropped,
				stats.Uptime.Round(time.Second),
			)
			online.Rows = stats.OnlineIDs
		}
		ui.Render(summary, online)
	}

	refresh()

	events := ui.PollEvents()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case e := <-events:
			switch e.ID {
			case "q", "<C-c>":
				return nil
			case "<Resize>":
				ui.Clear()
				refresh()
			}
		case <-ticker.C:
			refresh()
		}
	}
}

func fetchStats(client *http.Client, addr string) (*model.HubStats, error) {
	resp, err := client.Get(addr + "/api/stats")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var stats model.HubStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
