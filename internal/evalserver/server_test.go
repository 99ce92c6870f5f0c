package evalserver

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func TestEval(t *testing.T) {
	s := New(nil)

	t.Run("buffered output", func(t *testing.T) {
		resp := s.Eval(&Request{
			Source: "7/itof/output/.",
			Input:  []float64{0},
			Seed:   -2237,
		})
		if resp.Error != "" {
			t.Fatalf("error: %s", resp.Error)
		}
		if len(resp.Output) != 1 || resp.Output[0] != 7 {
			t.Errorf("output = %v, want [7]", resp.Output)
		}
		if resp.Failed {
			t.Error("run reported failed")
		}
	})

	t.Run("interactive output is captured", func(t *testing.T) {
		resp := s.Eval(&Request{
			Source: "7/itof/output/.",
			Seed:   -2237,
		})
		if !strings.Contains(resp.Printed, "Output #1: 7") {
			t.Errorf("printed = %q, want it to contain %q", resp.Printed, "Output #1: 7")
		}
	})

	t.Run("assembly error is reported", func(t *testing.T) {
		resp := s.Eval(&Request{Source: "bogus/."})
		if resp.Error == "" {
			t.Error("no error for unknown instruction")
		}
	})

	t.Run("dist extension", func(t *testing.T) {
		// D[0] = 3, F = 4: distance from origin is 5.
		resp := s.Eval(&Request{
			Source: "3/itof/0/save/4/itof/0/dist/output/.",
			Input:  []float64{0},
			Seed:   -2237,
		})
		if resp.Error != "" {
			t.Fatalf("error: %s", resp.Error)
		}
		if len(resp.Output) != 1 || resp.Output[0] != 5 {
			t.Errorf("output = %v, want [5]", resp.Output)
		}
	})

	t.Run("depth limit fails the run", func(t *testing.T) {
		resp := s.Eval(&Request{
			Source:       "1/loop/1/loop/nop/endloop/endloop/.",
			Input:        []float64{0},
			MaxLoopDepth: 1,
		})
		if !resp.Failed {
			t.Error("depth overflow not reported")
		}
	})
}

func TestServeWebSocket(t *testing.T) {
	srv := httptest.NewServer(New(nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// Two requests over one connection.
	for i, want := range []float64{7, 9} {
		req := Request{Source: "7/itof/output/.", Input: []float64{0}, Seed: -2237}
		if i == 1 {
			req.Source = "9/itof/output/."
		}
		if err := conn.WriteJSON(&req); err != nil {
			t.Fatal(err)
		}
		var resp Response
		if err := conn.ReadJSON(&resp); err != nil {
			t.Fatal(err)
		}
		if resp.Error != "" {
			t.Fatalf("error: %s", resp.Error)
		}
		if len(resp.Output) != 1 || resp.Output[0] != want {
			t.Errorf("request %d: output = %v, want [%v]", i, resp.Output, want)
		}
	}
}
