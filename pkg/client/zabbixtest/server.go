// Package zabbixtest provides an in-memory Zabbix JSON-RPC server for tests.
package zabbixtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/maintsync/pkg/types"
)

const token = "0424bd59b807674191e7d77572075f33"

// Server fakes the subset of the Zabbix API maintsync uses
type Server struct {
	*httptest.Server

	Username string
	Password string

	mu       sync.Mutex
	hosts    map[string]*types.Host
	windows  map[string]*types.MaintenanceWindow
	nextID   int
	calls    []string
	failures map[string]int
	apiErrs  map[string]string
}

// NewServer starts a server accepting user "Admin" with password "zabbix".
// It is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		Username: "Admin",
		Password: "zabbix",
		hosts:    make(map[string]*types.Host),
		windows:  make(map[string]*types.MaintenanceWindow),
		nextID:   100,
		failures: make(map[string]int),
		apiErrs:  make(map[string]string),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// APIURL returns the JSON-RPC endpoint
func (s *Server) APIURL() string {
	return s.URL + "/api_jsonrpc.php"
}

// AddHost registers a host with the given tags
func (s *Server) AddHost(id, name string, tags ...types.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosts[id] = &types.Host{ID: id, Name: name, Tags: append([]types.Tag{}, tags...)}
}

// RemoveHost deletes a host, leaving its windows in place
func (s *Server) RemoveHost(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hosts, id)
}

// SetTags replaces a host's tags as an operator would
func (s *Server) SetTags(id string, tags ...types.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.hosts[id]; ok {
		h.Tags = append([]types.Tag{}, tags...)
	}
}

// AddWindow registers an existing maintenance window and returns its ID
func (s *Server) AddWindow(w types.MaintenanceWindow) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == "" {
		w.ID = s.allocateID()
	}
	s.windows[w.ID] = &w
	return w.ID
}

// Host returns a copy of a host
func (s *Server) Host(id string) (types.Host, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hosts[id]
	if !ok {
		return types.Host{}, false
	}
	cp := *h
	cp.Tags = append([]types.Tag{}, h.Tags...)
	return cp, true
}

// Window returns a copy of a maintenance window
func (s *Server) Window(id string) (types.MaintenanceWindow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[id]
	if !ok {
		return types.MaintenanceWindow{}, false
	}
	return *w, true
}

// Windows returns the number of maintenance windows
func (s *Server) Windows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Calls returns the methods called so far, in order
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.calls...)
}

// MutatingCalls counts calls that change server state
func (s *Server) MutatingCalls() int {
	n := 0
	for _, c := range s.Calls() {
		switch c {
		case "host.update", "maintenance.create", "maintenance.update", "maintenance.delete":
			n++
		}
	}
	return n
}

// ResetCalls clears the call log
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// FailWithStatus makes method respond with an HTTP status
func (s *Server) FailWithStatus(method string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = status
}

// FailWithError makes method respond with a JSON-RPC error
func (s *Server) FailWithError(method, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiErrs[method] = message
}

// ClearFailures removes every injected failure
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]int)
	s.apiErrs = make(map[string]string)
}

func (s *Server) allocateID() string {
	s.nextID++
	return strconv.Itoa(s.nextID)
}

type request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     int64           `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, req.Method)

	if status, ok := s.failures[req.Method]; ok {
		w.WriteHeader(status)
		return
	}
	if msg, ok := s.apiErrs[req.Method]; ok {
		writeJSON(w, req.ID, nil, &rpcError{Code: -32500, Message: "Application error.", Data: msg})
		return
	}

	if req.Method != "user.login" && r.Header.Get("Authorization") != "Bearer "+token {
		writeJSON(w, req.ID, nil, &rpcError{Code: -32602, Message: "Invalid params.", Data: "Not authorised."})
		return
	}

	result, rerr := s.dispatch(req)
	writeJSON(w, req.ID, result, rerr)
}

func writeJSON(w http.ResponseWriter, id int64, result interface{}, rerr *rpcError) {
	resp := map[string]interface{}{"jsonrpc": "2.0", "id": id}
	if rerr != nil {
		resp["error"] = rerr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func invalidParams(err error) *rpcError {
	return &rpcError{Code: -32602, Message: "Invalid params.", Data: err.Error()}
}

func (s *Server) dispatch(req request) (interface{}, *rpcError) {
	switch req.Method {
	case "user.login":
		var p struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, invalidParams(err)
		}
		if p.Username != s.Username || p.Password != s.Password {
			return nil, &rpcError{Code: -32602, Message: "Invalid params.", Data: "Incorrect user name or password or account is temporarily blocked."}
		}
		return token, nil

	case "user.logout":
		return true, nil

	case "host.get":
		return s.hostGet(req.Params)

	case "host.update":
		var p struct {
			HostID string      `json:"hostid"`
			Tags   []types.Tag `json:"tags"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, invalidParams(err)
		}
		h, ok := s.hosts[p.HostID]
		if !ok {
			return nil, invalidParams(fmt.Errorf("no permissions to referred object or it does not exist"))
		}
		if p.Tags == nil {
			return nil, invalidParams(fmt.Errorf("tags must be an array"))
		}
		h.Tags = p.Tags
		return map[string][]string{"hostids": {p.HostID}}, nil

	case "maintenance.create", "maintenance.update":
		return s.maintenanceSave(req)

	case "maintenance.delete":
		var ids []string
		if err := json.Unmarshal(req.Params, &ids); err != nil {
			return nil, invalidParams(err)
		}
		for _, id := range ids {
			if _, ok := s.windows[id]; !ok {
				return nil, invalidParams(fmt.Errorf("no permissions to referred object or it does not exist"))
			}
		}
		for _, id := range ids {
			delete(s.windows, id)
		}
		return map[string][]string{"maintenanceids": ids}, nil

	case "maintenance.get":
		return s.maintenanceGet(), nil

	default:
		return nil, &rpcError{Code: -32601, Message: "Method not found.", Data: req.Method}
	}
}

func (s *Server) hostGet(raw json.RawMessage) (interface{}, *rpcError) {
	var p struct {
		HostIDs []string `json:"hostids"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, invalidParams(err)
	}

	ids := p.HostIDs
	if ids == nil {
		for id := range s.hosts {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	}

	out := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		h, ok := s.hosts[id]
		if !ok {
			continue
		}
		tags := make([]map[string]string, 0, len(h.Tags))
		for _, t := range h.Tags {
			tags = append(tags, map[string]string{"tag": t.Tag, "value": t.Value, "automatic": "0"})
		}
		out = append(out, map[string]interface{}{"hostid": h.ID, "host": h.Name, "tags": tags})
	}
	return out, nil
}

func (s *Server) maintenanceSave(req request) (interface{}, *rpcError) {
	var p struct {
		MaintenanceID   string `json:"maintenanceid"`
		Name            string `json:"name"`
		Description     string `json:"description"`
		ActiveSince     int64  `json:"active_since"`
		ActiveTill      int64  `json:"active_till"`
		MaintenanceType int    `json:"maintenance_type"`
		Hosts           []struct {
			HostID string `json:"hostid"`
		} `json:"hosts"`
		TimePeriods []struct {
			Period         int64  `json:"period"`
			TimePeriodType string `json:"timeperiod_type"`
		} `json:"timeperiods"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return nil, invalidParams(err)
	}
	if len(p.TimePeriods) != 1 || p.TimePeriods[0].TimePeriodType != "0" {
		return nil, invalidParams(fmt.Errorf("expected one one-time period"))
	}
	if p.TimePeriods[0].Period != p.ActiveTill-p.ActiveSince {
		return nil, invalidParams(fmt.Errorf("period does not match active range"))
	}

	id := p.MaintenanceID
	if req.Method == "maintenance.create" {
		for _, w := range s.windows {
			if w.Name == p.Name {
				return nil, invalidParams(fmt.Errorf("maintenance %q already exists", p.Name))
			}
		}
		id = s.allocateID()
	} else if _, ok := s.windows[id]; !ok {
		return nil, invalidParams(fmt.Errorf("no permissions to referred object or it does not exist"))
	}

	hostIDs := make([]string, 0, len(p.Hosts))
	for _, h := range p.Hosts {
		hostIDs = append(hostIDs, h.HostID)
	}
	s.windows[id] = &types.MaintenanceWindow{
		ID:          id,
		Name:        p.Name,
		Description: p.Description,
		HostIDs:     hostIDs,
		ActiveSince: time.Unix(p.ActiveSince, 0),
		ActiveTill:  time.Unix(p.ActiveTill, 0),
		Type:        types.MaintenanceType(p.MaintenanceType),
	}
	return map[string][]string{"maintenanceids": {id}}, nil
}

func (s *Server) maintenanceGet() interface{} {
	ids := make([]string, 0, len(s.windows))
	for id := range s.windows {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		w := s.windows[id]
		hosts := make([]map[string]string, 0, len(w.HostIDs))
		for _, hid := range w.HostIDs {
			name := ""
			if h, ok := s.hosts[hid]; ok {
				name = h.Name
			}
			hosts = append(hosts, map[string]string{"hostid": hid, "host": name})
		}
		out = append(out, map[string]interface{}{
			"maintenanceid":    w.ID,
			"name":             w.Name,
			"description":      w.Description,
			"active_since":     strconv.FormatInt(w.ActiveSince.Unix(), 10),
			"active_till":      strconv.FormatInt(w.ActiveTill.Unix(), 10),
			"maintenance_type": strconv.Itoa(int(w.Type)),
			"hosts":            hosts,
		})
	}
	return out
}
