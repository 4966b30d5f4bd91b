package web

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sasetz/psip-switch/internal/core/domain"
	"github.com/sasetz/psip-switch/internal/core/storage"
)

// streamInterval is the live status-stream's push cadence.
const streamInterval = 500 * time.Millisecond

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamView is a JSON-safe projection of storage.Snapshot: domain.MAC and
// domain.StatKey are not valid encoding/json map keys (arrays and structs
// aren't string, integer or TextMarshaler), so the snapshot's maps are
// flattened into slices the same way the REST /interface and /stats
// handlers already do.
type streamView struct {
	Device     deviceView    `json:"device"`
	Interfaces []interfaceView `json:"interfaces"`
	MACTable   []macEntryView  `json:"mac_table"`
	Stats      []statView      `json:"stats"`
	Sessions   int             `json:"sessions"`
	SentSet    int             `json:"sent_set"`
}

type macEntryView struct {
	Address     string `json:"address"`
	InterfaceID int    `json:"interface_id"`
}

func toStreamView(snap storage.Snapshot) streamView {
	ifaces := append([]domain.InterfaceRecord(nil), snap.Interfaces...)
	sort.Slice(ifaces, func(i, j int) bool { return ifaces[i].ID.OSName < ifaces[j].ID.OSName })

	ifaceIndex := make(map[domain.InterfaceID]int, len(ifaces))
	views := make([]interfaceView, 0, len(ifaces))
	for i, rec := range ifaces {
		ifaceIndex[rec.ID] = i
		views = append(views, toInterfaceView(i, &rec))
	}

	macViews := make([]macEntryView, 0, len(snap.MACTable))
	for addr, entry := range snap.MACTable {
		macViews = append(macViews, macEntryView{Address: addr.String(), InterfaceID: ifaceIndex[entry.Interface]})
	}

	statViews := make([]statView, 0, len(snap.Stats))
	for key, v := range snap.Stats {
		statViews = append(statViews, statView{
			Protocol:    string(key.Protocol),
			InterfaceID: ifaceIndex[key.Interface],
			Input:       v.InputCount,
			Output:      v.OutputCount,
		})
	}

	return streamView{
		Device: deviceView{
			Hostname:       snap.Device.Hostname,
			TimeoutSeconds: int(snap.Device.DefaultMACTimeout / time.Second),
		},
		Interfaces: views,
		MACTable:   macViews,
		Stats:      statViews,
		Sessions:   snap.Sessions,
		SentSet:    snap.SentSet,
	}
}

// handleStream answers GET /stream?token=..., pushing a storage snapshot
// every streamInterval until the client disconnects. Each connection gets
// its own read-loop goroutine to detect the disconnect and its own
// ticker-driven push, rather than a single shared broadcast set, since every
// client renders an independent snapshot.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	g := s.handle.Acquire()
	ok := s.authn.Authenticate(g.Aggregate(), "Bearer "+r.URL.Query().Get("token"))
	g.Release()
	if !ok {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			g := s.handle.Acquire()
			snap := g.Aggregate().Snapshot()
			g.Release()

			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			data, err := json.Marshal(toStreamView(snap))
			if err != nil {
				s.log.Error("stream marshal failed", "error", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}
