package catalog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// respServer speaks enough of the redis protocol for GET/SET/MGET.
type respServer struct {
	ln   net.Listener
	mu   sync.Mutex
	data map[string]string
	ttls map[string]string
}

func newRESPServer(t *testing.T) *respServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &respServer{ln: ln, data: map[string]string{}, ttls: map[string]string{}}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *respServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *respServer) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		if _, err := io.WriteString(conn, s.exec(args)); err != nil {
			return
		}
	}
}

func (s *respServer) exec(args []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch strings.ToUpper(args[0]) {
	case "PING":
		return "+PONG\r\n"
	case "SET":
		s.data[args[1]] = args[2]
		if len(args) > 4 {
			s.ttls[args[1]] = strings.ToUpper(args[3]) + " " + args[4]
		}
		return "+OK\r\n"
	case "MGET":
		var b strings.Builder
		fmt.Fprintf(&b, "*%d\r\n", len(args)-1)
		for _, k := range args[1:] {
			if v, ok := s.data[k]; ok {
				fmt.Fprintf(&b, "$%d\r\n%s\r\n", len(v), v)
			} else {
				b.WriteString("$-1\r\n")
			}
		}
		return b.String()
	default:
		return "-ERR unknown command '" + args[0] + "'\r\n"
	}
}

func readCommand(r *bufio.Reader) ([]string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(line, "*") {
		return nil, fmt.Errorf("unexpected %q", line)
	}
	n, err := strconv.Atoi(strings.TrimSpace(line[1:]))
	if err != nil {
		return nil, err
	}
	args := make([]string, n)
	for i := range args {
		head, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimSpace(head[1:]))
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args[i] = string(buf[:size])
	}
	return args, nil
}

func (s *respServer) client(t *testing.T) *redis.Client {
	t.Helper()
	c := redis.NewClient(&redis.Options{Addr: s.ln.Addr().String(), Protocol: 2, DisableIdentity: true})
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRedisDetailsCacheMissThenHit(t *testing.T) {
	srv := newRESPServer(t)
	cache := NewRedisDetailsCache(srv.client(t), time.Minute)
	ctx := context.Background()

	got, err := cache.GetMany(ctx, []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected all misses, got %v", got)
	}

	if err := cache.SetMany(ctx, []Details{{Name: "Widget", ID: "p1"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err = cache.GetMany(ctx, []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || got["p1"] != (Details{Name: "Widget", ID: "p1"}) {
		t.Fatalf("unexpected details %v", got)
	}

	srv.mu.Lock()
	ttl := srv.ttls[detailsKeyPrefix+"p1"]
	srv.mu.Unlock()
	if ttl != "EX 60" {
		t.Fatalf("entry stored with ttl %q", ttl)
	}
}

func TestRedisDetailsCacheSkipsUnreadableEntries(t *testing.T) {
	srv := newRESPServer(t)
	srv.mu.Lock()
	srv.data[detailsKeyPrefix+"p1"] = "not json"
	srv.data[detailsKeyPrefix+"p2"] = `{"name":"Cap","id":"p2"}`
	srv.mu.Unlock()
	cache := NewRedisDetailsCache(srv.client(t), time.Minute)

	got, err := cache.GetMany(context.Background(), []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, ok := got["p1"]; ok || got["p2"].Name != "Cap" {
		t.Fatalf("unexpected details %v", got)
	}
}

func TestRedisDetailsCacheReportsConnectionErrors(t *testing.T) {
	srv := newRESPServer(t)
	c := srv.client(t)
	srv.ln.Close()

	cache := NewRedisDetailsCache(c, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := cache.GetMany(ctx, []string{"p1"}); err == nil {
		t.Fatalf("expected an error from an unreachable redis")
	}
}
