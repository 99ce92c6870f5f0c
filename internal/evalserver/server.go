// Package evalserver exposes the interpreter over a WebSocket endpoint so
// distributed search workers can farm program evaluations out to a pool.
// Each connection carries a stream of JSON eval requests and answers.
package evalserver

import (
	"bytes"
	"log"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"slasha/internal/dis"
	"slasha/internal/instruction"
	"slasha/internal/interp"
	"slasha/internal/lexer"
	"slasha/internal/memcore"
	"slasha/internal/runlog"
)

// Request is one program evaluation.
type Request struct {
	Source       string    `json:"source"`
	Input        []float64 `json:"input"`
	Seed         int64     `json:"seed"`
	MaxRuntimeMS int64     `json:"max_runtime_ms"`
	MaxLoopDepth int       `json:"max_loop_depth"`
	DataSize     int       `json:"data_size"`
	LabelSize    int       `json:"label_size"`
	NumNumeric   uint32    `json:"num_numeric"`
}

// Response reports the run's outputs and aggregate counters. Printed holds
// whatever the program wrote interactively when it ran without an input
// buffer; with a buffer, outputs arrive in Output instead.
type Response struct {
	Output             []float64 `json:"output"`
	Printed            string    `json:"printed,omitempty"`
	Failed             bool      `json:"failed"`
	Error              string    `json:"error,omitempty"`
	Ops                uint64    `json:"ops"`
	Invops             uint64    `json:"invops"`
	InputsBeforeOutput uint64    `json:"inputs_bf_output"`
}

// Server evaluates Slash/A programs for WebSocket clients. Evaluations are
// serialized: the legacy ran2 stream is process-wide state, and two
// interleaved runs would perturb each other's deviates.
type Server struct {
	upgrader websocket.Upgrader
	store    *runlog.Store // optional
	mu       sync.Mutex
}

// New returns a server. store may be nil to skip run logging.
func New(store *runlog.Store) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		store: store,
	}
}

// ServeHTTP upgrades the connection and answers eval requests until the
// client hangs up.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("evalserver: upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("evalserver: read: %v", err)
			}
			return
		}

		resp := s.Eval(&req)
		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("evalserver: write: %v", err)
			return
		}
	}
}

// Eval assembles and runs one request.
func (s *Server) Eval(req *Request) Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.DataSize <= 0 {
		req.DataSize = 10
	}
	if req.LabelSize <= 0 {
		req.LabelSize = 10
	}
	if req.NumNumeric == 0 {
		req.NumNumeric = 256
	}
	if req.MaxLoopDepth == 0 {
		req.MaxLoopDepth = -1
	}

	set := instruction.NewSet()
	dis.InsertNumeric(set, req.NumNumeric)
	dis.InsertFull(set)
	set.Insert(newDist()) // host extension, registered after the built-ins

	prog, err := lexer.Assemble(req.Source, set)
	if err != nil {
		return Response{Error: err.Error()}
	}

	input := req.Input
	if input == nil {
		input = []float64{}
	}
	output := []float64{}
	core := memcore.NewCore(req.DataSize, req.LabelSize, &input, &output)

	// With no input buffer the program talks to dis.Stdin/Stdout; point
	// them at capture buffers for the duration of this eval. Safe under
	// s.mu since nothing else is running.
	var printed bytes.Buffer
	savedIn, savedOut, savedPrompt := dis.Stdin, dis.Stdout, dis.PromptInput
	dis.Stdin, dis.Stdout, dis.PromptInput = strings.NewReader(""), &printed, false

	start := time.Now()
	failed := interp.RunByteCode(set, core, prog, req.Seed,
		time.Duration(req.MaxRuntimeMS)*time.Millisecond, req.MaxLoopDepth)
	elapsed := time.Since(start)

	dis.Stdin, dis.Stdout, dis.PromptInput = savedIn, savedOut, savedPrompt

	if s.store != nil {
		rec := runlog.Record{
			Source:             req.Source,
			Seed:               req.Seed,
			Failed:             failed,
			Ops:                set.TotalOps(),
			Invops:             set.TotalInvops(),
			Inputs:             set.TotalInputs(),
			Outputs:            set.TotalOutputs(),
			InputsBeforeOutput: set.TotalInputsBeforeOutput(),
			Duration:           elapsed,
		}
		if err := s.store.Append(&rec); err != nil {
			log.Printf("evalserver: run log: %v", err)
		}
	}

	return Response{
		Output:             output,
		Printed:            printed.String(),
		Failed:             failed,
		Ops:                set.TotalOps(),
		Invops:             set.TotalInvops(),
		InputsBeforeOutput: set.TotalInputsBeforeOutput(),
	}
}

// newDist is a user-defined instruction: F becomes the distance from the
// origin of the point (F, D[I]). It carries the non-built-in flag and the
// same guarded-access discipline as the rest of the set.
func newDist() *instruction.Instruction {
	return &instruction.Instruction{
		Name: "dist",
		Exec: func(in *instruction.Instruction, core *memcore.Core, _ *instruction.Set) error {
			in.CountOp()
			if core.I < uint64(len(core.D)) && core.DSaved[core.I] {
				f := core.F()
				d := core.D[core.I]
				if !core.SetF(math.Sqrt(f*f + d*d)) {
					in.CountInvop()
				}
			} else {
				in.CountInvop()
			}
			return nil
		},
	}
}
