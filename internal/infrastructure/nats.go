package infrastructure

import (
	"time"

	"github.com/nats-io/nats.go"
)

func connectNats(addr string) (*nats.Conn, error) {
	return nats.Connect(addr,
		nats.Timeout(5*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
}
