package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cuemby/maintsync/pkg/types"
)

// rpcRequest is a JSON-RPC 2.0 request envelope
type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int64       `json:"id"`
}

// rpcResponse is a JSON-RPC 2.0 response envelope
type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	ID     int64           `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// flexString decodes a JSON string or number into a string. Zabbix returns
// identifiers as strings but some versions and proxies emit numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// flexInt decodes a JSON number or numeric string into an int64
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return fmt.Errorf("expected integer, got %q", string(s))
	}
	*f = flexInt(n)
	return nil
}

type hostRef struct {
	HostID flexString `json:"hostid"`
}

type wireHost struct {
	HostID flexString  `json:"hostid"`
	Host   string      `json:"host"`
	Tags   []types.Tag `json:"tags"`
}

func (h wireHost) toHost() types.Host {
	tags := make([]types.Tag, 0, len(h.Tags))
	for _, t := range h.Tags {
		tags = append(tags, types.Tag{Tag: t.Tag, Value: t.Value})
	}
	return types.Host{ID: string(h.HostID), Name: h.Host, Tags: tags}
}

type wireMaintenance struct {
	MaintenanceID   flexString `json:"maintenanceid"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	ActiveSince     flexInt    `json:"active_since"`
	ActiveTill      flexInt    `json:"active_till"`
	MaintenanceType flexInt    `json:"maintenance_type"`
	Hosts           []hostRef  `json:"hosts"`
}

func (m wireMaintenance) toWindow() *types.MaintenanceWindow {
	hostIDs := make([]string, 0, len(m.Hosts))
	for _, h := range m.Hosts {
		hostIDs = append(hostIDs, string(h.HostID))
	}
	return &types.MaintenanceWindow{
		ID:          string(m.MaintenanceID),
		Name:        m.Name,
		Description: m.Description,
		HostIDs:     hostIDs,
		ActiveSince: time.Unix(int64(m.ActiveSince), 0),
		ActiveTill:  time.Unix(int64(m.ActiveTill), 0),
		Type:        types.MaintenanceType(m.MaintenanceType),
	}
}

// timePeriod is a one-shot maintenance period
type timePeriod struct {
	Period         int64  `json:"period"`
	TimePeriodType string `json:"timeperiod_type"`
}

// oneTimeOnly is the Zabbix timeperiod_type for a single contiguous period
const oneTimeOnly = "0"

// maintenanceParams are the fields sent by maintenance.create and
// maintenance.update
type maintenanceParams struct {
	MaintenanceID   string       `json:"maintenanceid,omitempty"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	Hosts           []hostRef    `json:"hosts"`
	ActiveSince     int64        `json:"active_since"`
	ActiveTill      int64        `json:"active_till"`
	MaintenanceType int          `json:"maintenance_type"`
	TimePeriods     []timePeriod `json:"timeperiods"`
}

func newMaintenanceParams(w *types.MaintenanceWindow) maintenanceParams {
	hosts := make([]hostRef, 0, len(w.HostIDs))
	for _, id := range w.HostIDs {
		hosts = append(hosts, hostRef{HostID: flexString(id)})
	}
	since := w.ActiveSince.Unix()
	till := w.ActiveTill.Unix()
	return maintenanceParams{
		MaintenanceID:   w.ID,
		Name:            w.Name,
		Description:     w.Description,
		Hosts:           hosts,
		ActiveSince:     since,
		ActiveTill:      till,
		MaintenanceType: int(w.Type),
		TimePeriods: []timePeriod{
			{Period: till - since, TimePeriodType: oneTimeOnly},
		},
	}
}
