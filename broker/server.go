// Server exposes the Broker over the client RPC surface (§6): a
// request/reply protocol over a stream transport, {cmd,data} -> {ok,msg,
// data}. Grounded on aistore's dependence on github.com/valyala/fasthttp —
// aistore's own HTTP surface is net/http, but fasthttp is the pack's
// highest-throughput HTTP stack and fits the Broker's "many small
// request/reply calls, concurrently" profile (§5) better than stdlib
// net/http's per-request goroutine+allocation model.
package broker

import (
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/olitheolix/azrael-sub000/cmn"
	"github.com/olitheolix/azrael-sub000/cmn/cos"
)

// Envelope is the client request body: {cmd, data}.
type Envelope struct {
	Cmd  string          `json:"cmd"`
	Data json.RawMessage `json:"data"`
}

// Reply is the client response body: {ok, msg, data}.
type Reply struct {
	OK   bool        `json:"ok"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// Server serves the Broker's operations over fasthttp at a single path; cmd
// selects the operation (§6 "The command set is exactly the Broker
// operations in §4.1").
type Server struct {
	b    *Broker
	addr string

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewServer(b *Broker, port int) *Server {
	return &Server{
		b:    b,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
		addr: ":" + strconv.Itoa(port),
	}
}

// exitSpeed draws one factory exit-speed sample. fasthttp dispatches every
// request on its own goroutine (§5 "the Broker accepts requests
// concurrently"), and *rand.Rand is not itself safe for concurrent use, so
// every draw goes through this one lock rather than each handler touching
// s.rng directly.
func (s *Server) exitSpeed(min, max float64) float64 {
	if max <= min {
		return min
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return min + s.rng.Float64()*(max-min)
}

// ListenAndServe blocks serving the client RPC surface until the process is
// asked to stop; errors here are fatal init errors (§7: "a fatal error...
// aborts the process with a non-zero exit code").
func (s *Server) ListenAndServe() error {
	return fasthttp.ListenAndServe(s.addr, s.handle)
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	var env Envelope
	if err := cos.Unmarshal(ctx.PostBody(), &env); err != nil {
		writeReply(ctx, Reply{OK: false, Msg: "malformed envelope: " + err.Error()})
		return
	}

	data, err := s.dispatch(env)
	if err != nil {
		writeReply(ctx, Reply{OK: false, Msg: err.Error()})
		return
	}
	writeReply(ctx, Reply{OK: true, Msg: "", Data: data})
}

func writeReply(ctx *fasthttp.RequestCtx, r Reply) {
	ctx.SetContentType("application/json")
	ctx.SetBody(cos.MustMarshal(r))
}

func (s *Server) dispatch(env Envelope) (interface{}, error) {
	fn, ok := operations[env.Cmd]
	if !ok {
		return nil, cmn.Errorf(cmn.KindBadInput, "dispatch", "unknown command %q", env.Cmd)
	}
	return fn(s, env.Data)
}
