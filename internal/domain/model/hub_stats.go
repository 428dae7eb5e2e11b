package model

import "time"

// HubStats is a point-in-time snapshot of the presence registry, exposed on
// the stats endpoint and rendered by the `stats` dashboard.
type HubStats struct {
	OnlineUsers int           `json:"online_users"`
	OnlineIDs   []string      `json:"online_ids,omitempty"`
	Delivered   uint64        `json:"delivered"`
	Dropped     uint64        `json:"dropped"`
	Uptime      time.Duration `json:"uptime"`
}
