package line

import (
	"net/url"

	"golang.org/x/net/websocket"
)

// wsConn sends every packet as one binary websocket message.
type wsConn websocket.Conn

func (c *wsConn) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(c), &pkt)
	return
}

func (c *wsConn) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(c), pkt)
}

func (c *wsConn) Close() error {
	return (*websocket.Conn)(c).Close()
}

// Websocket wraps an established websocket connection as a Line.
func Websocket(conn *websocket.Conn) Line {
	return FromPackets((*wsConn)(conn))
}

func openWebsocket(u *url.URL) (Line, error) {
	origin := "http://" + u.Host + "/"
	if u.Scheme == "wss" {
		origin = "https://" + u.Host + "/"
	}
	conn, err := websocket.Dial(u.String(), "", origin)
	if err != nil {
		return nil, err
	}
	return Websocket(conn), nil
}
