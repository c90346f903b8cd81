package websocket

import (
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
)

// ServeWs admits conn into hub and runs its pumps. It returns when the
// connection is closed and neither pump touches conn any more; the caller
// may recycle conn after that.
func ServeWs(hub *Hub, conn Transport, handler MessageHandler, remoteAddr string) {
	client := hub.NewClient(conn, remoteAddr)

	if err := hub.Admit(hub.Context(), client); err != nil {
		code := websocket.CloseInternalServerErr
		reason := "initialization failed"
		if errors.Is(err, ErrTooManyConnections) {
			code = websocket.CloseTryAgainLater
			reason = "too many connections"
		} else {
			hub.logger.Error("Hub", "Client initialization failed", map[string]interface{}{
				"client_id": client.id,
				"error":     err,
			})
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
		client.terminate()
		return
	}

	go client.writePump()
	client.readPump(hub.Context(), handler)
	<-client.writerDone
}
