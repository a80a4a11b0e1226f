package testutil

import (
	"github.com/alicebob/miniredis/v2"
)

type RedisServer struct {
	server *miniredis.Miniredis
}

func NewRedisServer() *RedisServer {
	server, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	return &RedisServer{
		server: server,
	}
}

func (s *RedisServer) Addr() string {
	return s.server.Addr()
}

// FlushAll clears every database between tests.
func (s *RedisServer) FlushAll() {
	s.server.FlushAll()
}

// SetError makes every subsequent command fail with msg.
// Pass an empty string to clear it.
func (s *RedisServer) SetError(msg string) {
	s.server.SetError(msg)
}

func (s *RedisServer) Close() {
	s.server.Close()
}
