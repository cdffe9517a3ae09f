package apply

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/avolokh/apply-core/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitoringEndpoints(t *testing.T) {
	c, _ := newTestCoordinator(t, nil)

	applyPuts(t, c, 1, 1, 1, 5)
	applyPuts(t, c, 2, 1, 1, 3)

	srv := httptest.NewServer(c.monitoringRouter())
	defer srv.Close()

	t.Run("list groups", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/groups")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var statuses []groupStatus
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&statuses))
		require.Len(t, statuses, 2)
		assert.Equal(t, uint64(1), statuses[0].Group)
		assert.Equal(t, uint64(5), statuses[0].InMemory.AppliedIndex)
		assert.True(t, statuses[0].Dirty)
	})

	t.Run("single group state", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/groups/2/apply-state")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var st groupStatus
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
		assert.Equal(t, uint64(2), st.Group)
		assert.Equal(t, uint64(3), st.InMemory.AppliedIndex)
		assert.Equal(t, api.ApplyState{}, st.OnDisk)
		assert.False(t, st.Aborted)
	})

	t.Run("unknown group", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/groups/99/apply-state")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("bad group id", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/groups/notanumber/apply-state")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("toggle hook over http", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPut,
			srv.URL+"/hooks/"+string(api.HookSuppressNormalApply),
			strings.NewReader(`{"enabled":true}`))
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.True(t, c.HookEnabled(api.HookSuppressNormalApply))

		listResp, err := http.Get(srv.URL + "/hooks")
		require.NoError(t, err)
		defer listResp.Body.Close()

		var st hooksStatus
		require.NoError(t, json.NewDecoder(listResp.Body).Decode(&st))
		assert.True(t, st.Hooks[api.HookSuppressNormalApply])
		assert.False(t, st.Hooks[api.HookForceAlwaysPersist])
	})

	t.Run("unknown hook name", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPut,
			srv.URL+"/hooks/no-such-hook", strings.NewReader(`{"enabled":true}`))
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("toggle admin suppression over http", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPut,
			srv.URL+"/admin-suppression/compact-log",
			strings.NewReader(`{"suppressed":true}`))
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		_, err = c.Apply(1, api.NewCompactLog(1, 6, 3, 1))
		require.NoError(t, err)
		inMem, _ := c.ApplyStateOf(1)
		assert.Equal(t, uint64(0), inMem.TruncatedIndex, "suppressed over http means the handler never ran")
	})

	t.Run("malformed body", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPut,
			srv.URL+"/hooks/"+string(api.HookForceAlwaysPersist),
			strings.NewReader(`{`))
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
