// Package control exposes a small HTTP surface for watching and retuning a
// running session: GET /status for counters, POST /station to retag the
// data stream without restarting the carrier.
package control

import (
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"sync"

	"github.com/chzchzchz/mpxgen/rds"
)

// Status is one snapshot of session counters.
type Status struct {
	State     string `json:"state"`
	Frames    uint64 `json:"frames"`
	Underruns uint64 `json:"underruns"`
	Clips     uint64 `json:"clips"`
	Groups    uint64 `json:"groups"`
	PS        string `json:"ps"`
	RT        string `json:"rt"`
}

type httpHandler struct {
	status    func() Status
	updater   *rds.Updater
	indexTmpl *template.Template

	mu      sync.Mutex
	station rds.Station
}

const indexTmplStr = `<!DOCTYPE html>
<html>
<head><title>mpxgen</title></head>
<body>
<h1>mpxgen</h1>
<ul>
<li>State: {{.State}}</li>
<li>Frames: {{.Frames}}</li>
<li>Underruns: {{.Underruns}}</li>
<li>Clipped samples: {{.Clips}}</li>
<li>Groups sent: {{.Groups}}</li>
<li>PS: {{.PS}}</li>
<li>RT: {{.RT}}</li>
</ul>
</body>
</html>
`

// stationPatch is a partial station update; absent fields keep their value.
type stationPatch struct {
	PS  *string `json:"ps"`
	RT  *string `json:"rt"`
	PTY *uint8  `json:"pty"`
	TA  *bool   `json:"ta"`
	MS  *bool   `json:"ms"`
}

func (h *httpHandler) handleStatus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.status())
}

func (h *httpHandler) handleStation(w http.ResponseWriter, r *http.Request) {
	var patch stationPatch
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.station
	if patch.PS != nil {
		st.PS = *patch.PS
	}
	if patch.RT != nil {
		st.RT = *patch.RT
	}
	if patch.PTY != nil {
		st.PTY = *patch.PTY
	}
	if patch.TA != nil {
		st.TA = *patch.TA
	}
	if patch.MS != nil {
		st.MS = *patch.MS
	}
	if err := h.updater.Post(st); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.station = st
	w.WriteHeader(http.StatusNoContent)
}

func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/status":
		h.handleStatus(w)
	case r.Method == http.MethodPost && r.URL.Path == "/station":
		h.handleStation(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/":
		if err := h.indexTmpl.Execute(w, h.status()); err != nil {
			io.WriteString(w, err.Error())
		}
	case r.URL.Path == "/status" || r.URL.Path == "/station" || r.URL.Path == "/":
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

// NewHandler wires the control surface to a status snapshotter and the
// station updater. station is the baseline patched by POST /station.
func NewHandler(status func() Status, updater *rds.Updater, station rds.Station) http.Handler {
	return &httpHandler{
		status:    status,
		updater:   updater,
		indexTmpl: template.Must(template.New("index").Parse(indexTmplStr)),
		station:   station,
	}
}

// ServeHttp blocks serving the control surface on addr.
func ServeHttp(addr string, h http.Handler) error {
	return http.ListenAndServe(addr, h)
}
