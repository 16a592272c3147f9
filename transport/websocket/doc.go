// Package websocket pushes puzzle snapshots to browsers.
//
// A Hub keeps one room per session ID. Clients join with
// GET /ws?session=<id> and then only listen: every mutating API call
// broadcasts the new controller.Snapshot to the room as a Message with
// event "state_update". Wins and recorded scores are sent as separate
// "win" and "score" events.
//
// The client map is owned by the Run goroutine. Broadcasts are queued on a
// buffered channel and dropped, with a log line, when the queue is full so
// that HTTP handlers never wait on slow sockets. A client whose own send
// buffer is full is disconnected.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
