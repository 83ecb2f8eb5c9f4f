package repository

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// zsetServer speaks enough RESP2 for the sorted-set commands used by
// RedisFavorites. HELLO is refused so clients fall back to RESP2.
type zsetServer struct {
	ln   net.Listener
	mu   sync.Mutex
	sets map[string]map[string]float64
}

func startZSetServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &zsetServer{ln: ln, sets: make(map[string]map[string]float64)}
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return ln.Addr().String()
}

func (s *zsetServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *zsetServer) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		s.exec(w, args)
		if err := w.Flush(); err != nil {
			return
		}
	}
}

func readCommand(r *bufio.Reader) ([]string, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(line, "*") {
		return nil, fmt.Errorf("unexpected %q", line)
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil {
		return nil, err
	}
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		head, err := readLine(r)
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimPrefix(head, "$"))
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *zsetServer) exec(w *bufio.Writer, args []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(args) == 0 {
		w.WriteString("-ERR empty command\r\n")
		return
	}
	switch strings.ToUpper(args[0]) {
	case "PING":
		w.WriteString("+PONG\r\n")
	case "ZADD":
		// ZADD key NX score member
		if len(args) != 5 || strings.ToUpper(args[2]) != "NX" {
			w.WriteString("-ERR syntax error\r\n")
			return
		}
		score, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			w.WriteString("-ERR value is not a valid float\r\n")
			return
		}
		set := s.sets[args[1]]
		if set == nil {
			set = make(map[string]float64)
			s.sets[args[1]] = set
		}
		if _, ok := set[args[4]]; ok {
			w.WriteString(":0\r\n")
			return
		}
		set[args[4]] = score
		w.WriteString(":1\r\n")
	case "ZRANGE":
		if len(args) < 2 {
			w.WriteString("-ERR wrong number of arguments\r\n")
			return
		}
		set := s.sets[args[1]]
		members := make([]string, 0, len(set))
		for m := range set {
			members = append(members, m)
		}
		sort.Slice(members, func(i, j int) bool {
			if set[members[i]] != set[members[j]] {
				return set[members[i]] < set[members[j]]
			}
			return members[i] < members[j]
		})
		fmt.Fprintf(w, "*%d\r\n", len(members))
		for _, m := range members {
			fmt.Fprintf(w, "$%d\r\n%s\r\n", len(m), m)
		}
	case "ZREM":
		if len(args) < 3 {
			w.WriteString("-ERR wrong number of arguments\r\n")
			return
		}
		removed := 0
		for _, m := range args[2:] {
			if _, ok := s.sets[args[1]][m]; ok {
				delete(s.sets[args[1]], m)
				removed++
			}
		}
		fmt.Fprintf(w, ":%d\r\n", removed)
	case "ZCARD":
		if len(args) != 2 {
			w.WriteString("-ERR wrong number of arguments\r\n")
			return
		}
		fmt.Fprintf(w, ":%d\r\n", len(s.sets[args[1]]))
	case "ZSCORE":
		if len(args) != 3 {
			w.WriteString("-ERR wrong number of arguments\r\n")
			return
		}
		score, ok := s.sets[args[1]][args[2]]
		if !ok {
			w.WriteString("$-1\r\n")
			return
		}
		v := strconv.FormatFloat(score, 'f', -1, 64)
		fmt.Fprintf(w, "$%d\r\n%s\r\n", len(v), v)
	default:
		fmt.Fprintf(w, "-ERR unknown command '%s'\r\n", args[0])
	}
}
