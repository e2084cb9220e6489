package checks

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/novacheck/novacheck/internal/compute"
	"github.com/novacheck/novacheck/internal/config"
)

// fakeCloud is an in-memory compute and block storage API. Servers and
// volumes advance through a queue of statuses, one step per GET, so the
// waiters see realistic intermediate states without real delays.
type fakeCloud struct {
	t *testing.T

	mu      sync.Mutex
	servers map[string]*fakeServer
	volumes map[string]*fakeVolume
	nextID  int

	consoleURL string // returned by os-getSerialConsole

	// acceptMigration makes os-migrateLive succeed instead of rejecting
	// the host, modeling a cloud that fails to validate the target.
	acceptMigration bool

	// actions records every action name posted, in order.
	actions []string
}

type fakeServer struct {
	ID     string
	Name   string
	Flavor string
	// queue of statuses returned by successive GETs; the last entry
	// repeats once reached.
	queue []string
}

type fakeVolume struct {
	ID    string
	Name  string
	Size  int
	queue []string
}

func newFakeCloud(t *testing.T) (*fakeCloud, *httptest.Server) {
	t.Helper()
	fc := &fakeCloud{
		t:       t,
		servers: make(map[string]*fakeServer),
		volumes: make(map[string]*fakeVolume),
	}
	server := httptest.NewServer(fc)
	t.Cleanup(server.Close)
	return fc, server
}

// newTestEnv wires an Env at the fake cloud with waiter timings shrunk to
// milliseconds.
func newTestEnv(t *testing.T, fc *fakeCloud, api *httptest.Server) *Env {
	t.Helper()

	cfg := config.Default()
	cfg.Compute.Endpoint = api.URL
	cfg.Compute.Token = "test-token"
	cfg.Compute.ImageRef = "image-uuid"
	cfg.Compute.FlavorRef = "1"
	cfg.Compute.FlavorRefAlt = "2"
	cfg.Volume.Endpoint = api.URL
	cfg.Features.Resize = true
	cfg.Features.LiveMigration = true
	cfg.Features.SerialConsole = true

	client := compute.NewClient(api.URL, "test-token")
	client.BuildTimeout = 2 * time.Second
	client.BuildInterval = time.Millisecond
	client.Limiter = nil
	client.MaxRetries = 0

	volumes := compute.NewClient(api.URL, "test-token")
	volumes.BuildTimeout = 2 * time.Second
	volumes.BuildInterval = time.Millisecond
	volumes.Limiter = nil
	volumes.MaxRetries = 0

	return &Env{
		Config: cfg,
		Provisioner: &compute.Provisioner{
			Compute: client,
			Volumes: volumes,
			Config:  cfg,
		},
	}
}

func (fc *fakeCloud) newID(prefix string) string {
	fc.nextID++
	return fmt.Sprintf("%s-%04d", prefix, fc.nextID)
}

// advance returns the current status and steps the queue forward.
func advance(queue *[]string) string {
	status := (*queue)[0]
	if len(*queue) > 1 {
		*queue = (*queue)[1:]
	}
	return status
}

func (fc *fakeCloud) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Auth-Token") != "test-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/")
	parts := strings.Split(path, "/")

	fc.mu.Lock()
	defer fc.mu.Unlock()

	switch {
	case r.Method == "POST" && path == "servers":
		fc.handleCreateServer(w, r)
	case r.Method == "GET" && path == "servers/detail":
		fc.handleListServers(w)
	case r.Method == "GET" && len(parts) == 2 && parts[0] == "servers":
		fc.handleGetServer(w, parts[1])
	case r.Method == "DELETE" && len(parts) == 2 && parts[0] == "servers":
		fc.handleDeleteServer(w, parts[1])
	case r.Method == "POST" && len(parts) == 3 && parts[0] == "servers" && parts[2] == "action":
		fc.handleAction(w, r, parts[1])
	case r.Method == "POST" && path == "volumes":
		fc.handleCreateVolume(w, r)
	case r.Method == "GET" && len(parts) == 2 && parts[0] == "volumes":
		fc.handleGetVolume(w, parts[1])
	case r.Method == "DELETE" && len(parts) == 2 && parts[0] == "volumes":
		delete(fc.volumes, parts[1])
		w.WriteHeader(http.StatusNoContent)
	default:
		fc.t.Errorf("fake cloud: unexpected %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, `{"itemNotFound":{"message":"Instance could not be found.","code":404}}`)
}

func badRequest(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusBadRequest)
	fmt.Fprintf(w, `{"badRequest":{"message":%q,"code":400}}`, message)
}

func (fc *fakeCloud) handleCreateServer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Server struct {
			Name                 string                       `json:"name"`
			ImageRef             string                       `json:"imageRef"`
			FlavorRef            string                       `json:"flavorRef"`
			BlockDeviceMappingV2 []compute.BlockDeviceMapping `json:"block_device_mapping_v2"`
		} `json:"server"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	// Volume-backed boots carry an empty imageRef and a mapping instead.
	if body.Server.ImageRef == "" && len(body.Server.BlockDeviceMappingV2) == 0 {
		badRequest(w, "missing imageRef")
		return
	}
	for _, bdm := range body.Server.BlockDeviceMappingV2 {
		if _, ok := fc.volumes[bdm.UUID]; !ok {
			badRequest(w, "mapped volume does not exist")
			return
		}
	}

	srv := &fakeServer{
		ID:     fc.newID("server"),
		Name:   body.Server.Name,
		Flavor: body.Server.FlavorRef,
		queue:  []string{"BUILD", "ACTIVE"},
	}
	fc.servers[srv.ID] = srv

	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintf(w, `{"server":{"id":%q,"adminPass":"fake"}}`, srv.ID)
}

func (fc *fakeCloud) serverDoc(srv *fakeServer, status string) string {
	return fmt.Sprintf(`{"id":%q,"name":%q,"status":%q,"OS-EXT-STS:task_state":null,"flavor":{"id":%q}}`,
		srv.ID, srv.Name, status, srv.Flavor)
}

func (fc *fakeCloud) handleGetServer(w http.ResponseWriter, id string) {
	srv, ok := fc.servers[id]
	if !ok {
		notFound(w)
		return
	}
	status := advance(&srv.queue)
	fmt.Fprintf(w, `{"server":%s}`, fc.serverDoc(srv, status))
}

func (fc *fakeCloud) handleListServers(w http.ResponseWriter) {
	docs := make([]string, 0, len(fc.servers))
	for _, srv := range fc.servers {
		docs = append(docs, fc.serverDoc(srv, srv.queue[len(srv.queue)-1]))
	}
	fmt.Fprintf(w, `{"servers":[%s]}`, strings.Join(docs, ","))
}

func (fc *fakeCloud) handleDeleteServer(w http.ResponseWriter, id string) {
	if _, ok := fc.servers[id]; !ok {
		notFound(w)
		return
	}
	delete(fc.servers, id)
	w.WriteHeader(http.StatusNoContent)
}

func (fc *fakeCloud) handleAction(w http.ResponseWriter, r *http.Request, id string) {
	srv, ok := fc.servers[id]
	if !ok {
		notFound(w)
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "malformed action body")
		return
	}

	for action, params := range body {
		fc.actions = append(fc.actions, action)
		switch action {
		case "resize":
			var p struct {
				FlavorRef string `json:"flavorRef"`
			}
			json.Unmarshal(params, &p)
			srv.Flavor = p.FlavorRef
			srv.queue = []string{"RESIZE", "VERIFY_RESIZE"}
		case "confirmResize", "resume", "unshelve":
			srv.queue = []string{"ACTIVE"}
		case "revertResize":
			srv.queue = []string{"ACTIVE"}
		case "suspend":
			srv.queue = []string{"SUSPENDED"}
		case "shelve":
			// Automatic offloading off: the server parks in SHELVED.
			srv.queue = []string{"SHELVED"}
		case "shelveOffload":
			srv.queue = []string{"SHELVED_OFFLOADED"}
		case "os-migrateLive":
			var p struct {
				Host *string `json:"host"`
			}
			json.Unmarshal(params, &p)
			if p.Host != nil && !fc.acceptMigration {
				badRequest(w, fmt.Sprintf("Compute host %s could not be found.", *p.Host))
				return
			}
			srv.queue = []string{"MIGRATING", "ACTIVE"}
		case "os-getSerialConsole":
			fmt.Fprintf(w, `{"console":{"type":"serial","url":%q}}`, fc.consoleURL)
			return
		default:
			fc.t.Errorf("fake cloud: unexpected action %q", action)
			badRequest(w, "unknown action")
			return
		}
	}
	w.WriteHeader(http.StatusAccepted)
}

func (fc *fakeCloud) handleCreateVolume(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Volume struct {
			Name     string `json:"name"`
			Size     int    `json:"size"`
			ImageRef string `json:"imageRef"`
		} `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if body.Volume.ImageRef == "" {
		badRequest(w, "bootable volume needs an imageRef")
		return
	}

	vol := &fakeVolume{
		ID:    fc.newID("volume"),
		Name:  body.Volume.Name,
		Size:  body.Volume.Size,
		queue: []string{"creating", "available"},
	}
	fc.volumes[vol.ID] = vol

	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintf(w, `{"volume":{"id":%q,"name":%q,"size":%d,"status":"creating"}}`,
		vol.ID, vol.Name, vol.Size)
}

func (fc *fakeCloud) handleGetVolume(w http.ResponseWriter, id string) {
	vol, ok := fc.volumes[id]
	if !ok {
		notFound(w)
		return
	}
	status := advance(&vol.queue)
	fmt.Fprintf(w, `{"volume":{"id":%q,"name":%q,"size":%d,"status":%q}}`,
		vol.ID, vol.Name, vol.Size, status)
}

// serverCount reports how many servers currently exist in the fake cloud.
func (fc *fakeCloud) serverCount() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.servers)
}

// actionLog returns the actions posted so far.
func (fc *fakeCloud) actionLog() []string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	out := make([]string, len(fc.actions))
	copy(out, fc.actions)
	return out
}
