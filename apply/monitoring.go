package apply

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/avolokh/apply-core/api"
	"github.com/avolokh/apply-core/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// groupStatus is the operator-facing apply-state snapshot of one group.
type groupStatus struct {
	Group    uint64         `json:"group"`
	InMemory api.ApplyState `json:"inMemory"`
	OnDisk   api.ApplyState `json:"onDisk"`
	Dirty    bool           `json:"dirty"`
	Aborted  bool           `json:"aborted"`
}

type hooksStatus struct {
	Hooks           map[api.Hook]bool `json:"hooks"`
	SuppressedAdmin map[string]bool   `json:"suppressedAdmin"`
}

var knownHooks = map[api.Hook]bool{
	api.HookSuppressNormalApply:      true,
	api.HookSuppressEmptyObservation: true,
	api.HookForceAlwaysPersist:       true,
	api.HookSuppressCompactPersist:   true,
}

var adminKindsByName = map[string]api.AdminKind{
	api.AdminCompactLog.String():     api.AdminCompactLog,
	api.AdminComputeHash.String():    api.AdminComputeHash,
	api.AdminVerifyHash.String():     api.AdminVerifyHash,
	api.AdminTransferLeader.String(): api.AdminTransferLeader,
	api.AdminChangePeer.String():     api.AdminChangePeer,
	api.AdminOther.String():          api.AdminOther,
}

// startMonitoringServer exposes apply-state snapshots and hook toggles over
// HTTP. Disabled when no address is configured.
func (c *Coordinator) startMonitoringServer() {
	if c.cfg.MonitoringAddr == "" {
		return
	}

	c.logger.Info("starting monitoring server", "addr", c.cfg.MonitoringAddr)

	c.monitoringServer = &http.Server{
		Addr:    c.cfg.MonitoringAddr,
		Handler: c.monitoringRouter(),
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.monitoringServer.ListenAndServe(); err != http.ErrServerClosed {
			c.logger.Error("monitoring server failed", logger.ErrAttr(err))
		}
	}()
}

func (c *Coordinator) monitoringRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/groups", c.handleListGroups)
	r.Get("/groups/{groupID}/apply-state", c.handleGroupState)
	r.Get("/hooks", c.handleListHooks)
	r.Put("/hooks/{name}", c.handleSetHook)
	r.Put("/admin-suppression/{kind}", c.handleSetAdminSuppression)

	return r
}

func (c *Coordinator) handleListGroups(w http.ResponseWriter, r *http.Request) {
	var statuses []groupStatus
	c.store.groups.Range(func(id uint64, g *groupState) bool {
		statuses = append(statuses, c.statusOf(id, g))
		return true
	})
	writeJSON(w, c, statuses)
}

func (c *Coordinator) handleGroupState(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "groupID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid group id", http.StatusBadRequest)
		return
	}

	g, ok := c.store.groups.Load(id)
	if !ok {
		http.Error(w, "unknown group", http.StatusNotFound)
		return
	}
	writeJSON(w, c, c.statusOf(id, g))
}

func (c *Coordinator) statusOf(id uint64, g *groupState) groupStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	inMem, onDisk := g.snapshot()
	return groupStatus{
		Group:    id,
		InMemory: inMem,
		OnDisk:   onDisk,
		Dirty:    g.dirty > 0,
		Aborted:  g.aborted,
	}
}

func (c *Coordinator) handleListHooks(w http.ResponseWriter, r *http.Request) {
	hooks, suppressed := c.hooks.Snapshot()

	st := hooksStatus{
		Hooks:           make(map[api.Hook]bool, len(knownHooks)),
		SuppressedAdmin: make(map[string]bool, len(suppressed)),
	}
	for h := range knownHooks {
		st.Hooks[h] = hooks[h]
	}
	for k, v := range suppressed {
		st.SuppressedAdmin[k.String()] = v
	}
	writeJSON(w, c, st)
}

func (c *Coordinator) handleSetHook(w http.ResponseWriter, r *http.Request) {
	name := api.Hook(chi.URLParam(r, "name"))
	if !knownHooks[name] {
		http.Error(w, "unknown hook", http.StatusNotFound)
		return
	}

	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	c.SetHook(name, body.Enabled)
	w.WriteHeader(http.StatusNoContent)
}

func (c *Coordinator) handleSetAdminSuppression(w http.ResponseWriter, r *http.Request) {
	kind, ok := adminKindsByName[chi.URLParam(r, "kind")]
	if !ok {
		http.Error(w, "unknown admin kind", http.StatusNotFound)
		return
	}

	var body struct {
		Suppressed bool `json:"suppressed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	c.SetAdminSuppressed(kind, body.Suppressed)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, c *Coordinator, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		c.logger.Warn("failed to encode monitoring response", logger.ErrAttr(err))
		http.Error(w, "encoding failed", http.StatusInternalServerError)
	}
}
