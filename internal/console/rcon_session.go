package console

import (
	"context"
	"gamewarden/internal/structures"
	"time"

	"github.com/gorcon/rcon"
)

type rconSession struct {
	conn *rcon.Conn
}

// DialRCON opens a Source RCON connection to a Minecraft server.
func DialRCON(ctx context.Context, conf structures.ServerConfig) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := timeout(conf)
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left > 0 && left < d {
			d = left
		}
	}
	conn, err := rcon.Dial(conf.Address, conf.Password, rcon.SetDialTimeout(d), rcon.SetDeadline(timeout(conf)))
	if err != nil {
		return nil, err
	}
	return &rconSession{conn: conn}, nil
}

func (s *rconSession) Query(ctx context.Context, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.conn.Execute(command)
}

func (s *rconSession) Close() error {
	return s.conn.Close()
}
