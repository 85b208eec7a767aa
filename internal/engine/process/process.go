// Package process implements engine.Evaluator over an external engine
// process.
//
// Programs are rendered to Q# and exchanged as JSON lines on the process's
// standard input and output. Each request is one line:
//
//	{"op":"eval","code":"..."}
//	{"op":"dump"}
//	{"op":"reset","code":"ResetAll(...);"}
//
// and is answered by one line: {"ok":true,"result":...} for eval,
// {"ok":true,"qubits":n,"amplitudes":[{"index":"5","re":0.6,"im":0}]} for
// dump, {"ok":false,"error":"..."} on failure. Big integers travel as
// decimal strings.
package process

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/exec"
	"sync"

	"github.com/agbru/qarithcheck/internal/engine"
	"github.com/agbru/qarithcheck/internal/engine/qsharp"
	"github.com/agbru/qarithcheck/internal/logging"
)

// ErrBroken is returned once the stream is out of sync, after a canceled
// request or a transport failure.
var ErrBroken = errors.New("engine process stream is broken")

// maxLine bounds one response line; state dumps of wide registers are long.
const maxLine = 64 << 20

type request struct {
	Op   string `json:"op"`
	Code string `json:"code,omitempty"`
}

type amplitude struct {
	Index string  `json:"index"`
	Re    float64 `json:"re"`
	Im    float64 `json:"im"`
}

type response struct {
	OK         bool            `json:"ok"`
	Error      string          `json:"error,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Qubits     int             `json:"qubits,omitempty"`
	Amplitudes []amplitude     `json:"amplitudes,omitempty"`
}

// Evaluator talks to one engine process. It is safe for concurrent use, but
// requests are serialized.
type Evaluator struct {
	mu        sync.Mutex
	w         io.Writer
	r         *bufio.Reader
	renderer  *qsharp.Renderer
	logger    logging.Logger
	allocated []engine.Register
	broken    bool

	cmd    *exec.Cmd
	stdin  io.Closer
	env    []string
	stderr io.Writer
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRenderer sets the Q# renderer.
func WithRenderer(r *qsharp.Renderer) Option {
	return func(e *Evaluator) { e.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// WithEnv appends environment variables for a started process.
func WithEnv(kv ...string) Option {
	return func(e *Evaluator) { e.env = append(e.env, kv...) }
}

// WithStderr forwards the started process's standard error to w.
func WithStderr(w io.Writer) Option {
	return func(e *Evaluator) { e.stderr = w }
}

// NewEvaluator returns an Evaluator writing requests to w and reading
// responses from r.
func NewEvaluator(r io.Reader, w io.Writer, opts ...Option) *Evaluator {
	e := &Evaluator{
		w:        w,
		r:        bufio.NewReaderSize(r, 64<<10),
		renderer: qsharp.NewRenderer(),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches name with args and returns an Evaluator over its standard
// streams. The process is killed when ctx is canceled; Close stops it
// gracefully.
func Start(ctx context.Context, name string, args []string, opts ...Option) (*Evaluator, error) {
	e := NewEvaluator(bytes.NewReader(nil), io.Discard, opts...)
	cmd := exec.CommandContext(ctx, name, args...)
	if len(e.env) > 0 {
		cmd.Env = append(os.Environ(), e.env...)
	}
	cmd.Stderr = e.stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %q: %w", name, err)
	}
	e.cmd, e.stdin, e.w = cmd, stdin, stdin
	e.r = bufio.NewReaderSize(stdout, 64<<10)
	e.logger.Debug("engine started", logging.String("command", name), logging.Int("pid", cmd.Process.Pid))
	return e, nil
}

// Close stops a started process: it closes its input and waits for it to
// exit. It is a no-op for evaluators built with NewEvaluator.
func (e *Evaluator) Close() error {
	if e.cmd == nil {
		return nil
	}
	e.mu.Lock()
	e.broken = true
	e.mu.Unlock()
	if err := e.stdin.Close(); err != nil {
		return err
	}
	return e.cmd.Wait()
}

// Evaluate renders p, runs it in the engine and decodes one value per
// Measure and Call statement.
func (e *Evaluator) Evaluate(ctx context.Context, p engine.Program) (engine.Result, error) {
	snip, err := e.renderer.Render(p)
	if err != nil {
		return engine.Result{}, err
	}
	// A failed snippet may still have allocated some of its registers.
	e.mu.Lock()
	e.allocated = append(e.allocated, snip.Registers...)
	e.mu.Unlock()
	resp, err := e.roundTrip(ctx, request{Op: "eval", Code: snip.Code})
	if err != nil {
		return engine.Result{}, err
	}
	return decodeResult(resp.Result, snip.Outputs)
}

// DumpState reads the engine state.
func (e *Evaluator) DumpState(ctx context.Context) (engine.StateDump, error) {
	resp, err := e.roundTrip(ctx, request{Op: "dump"})
	if err != nil {
		return engine.StateDump{}, err
	}
	dump := engine.StateDump{Qubits: resp.Qubits, Entries: make([]engine.BasisAmplitude, 0, len(resp.Amplitudes))}
	for _, a := range resp.Amplitudes {
		idx, ok := new(big.Int).SetString(a.Index, 10)
		if !ok || idx.Sign() < 0 {
			return engine.StateDump{}, fmt.Errorf("malformed basis index %q", a.Index)
		}
		dump.Entries = append(dump.Entries, engine.BasisAmplitude{Index: idx, Amplitude: complex(a.Re, a.Im)})
	}
	return dump, nil
}

// Reset releases every register allocated since the previous reset.
func (e *Evaluator) Reset(ctx context.Context) error {
	e.mu.Lock()
	code := qsharp.Release(e.allocated)
	e.mu.Unlock()
	if _, err := e.roundTrip(ctx, request{Op: "reset", Code: code}); err != nil {
		return err
	}
	e.mu.Lock()
	e.allocated = nil
	e.mu.Unlock()
	return nil
}

type reply struct {
	resp response
	err  error
}

// roundTrip sends req and waits for its response or for ctx. A request
// abandoned on cancellation leaves the stream out of sync, so the evaluator
// refuses further requests.
func (e *Evaluator) roundTrip(ctx context.Context, req request) (response, error) {
	e.mu.Lock()
	if e.broken {
		e.mu.Unlock()
		return response{}, ErrBroken
	}
	if err := ctx.Err(); err != nil {
		e.mu.Unlock()
		return response{}, err
	}

	done := make(chan reply, 1)
	go func() {
		resp, err := e.exchange(req)
		done <- reply{resp, err}
	}()

	select {
	case <-ctx.Done():
		e.broken = true
		e.mu.Unlock()
		e.logger.Error("engine request abandoned", ctx.Err(), logging.String("op", req.Op))
		return response{}, ctx.Err()
	case r := <-done:
		var transport *transportError
		if errors.As(r.err, &transport) {
			e.broken = true
		}
		e.mu.Unlock()
		if r.err != nil {
			return response{}, r.err
		}
		if !r.resp.OK {
			return response{}, fmt.Errorf("engine %s: %s", req.Op, r.resp.Error)
		}
		return r.resp, nil
	}
}

type transportError struct{ err error }

func (t *transportError) Error() string { return "engine transport: " + t.err.Error() }
func (t *transportError) Unwrap() error { return t.err }

func (e *Evaluator) exchange(req request) (response, error) {
	line, err := json.Marshal(req)
	if err != nil {
		return response{}, err
	}
	e.logger.Debug("engine request", logging.String("op", req.Op), logging.Int("bytes", len(line)))
	if _, err := e.w.Write(append(line, '\n')); err != nil {
		return response{}, &transportError{err}
	}
	raw, err := readLine(e.r)
	if err != nil {
		return response{}, &transportError{err}
	}
	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return response{}, &transportError{fmt.Errorf("malformed response %q: %w", truncate(raw), err)}
	}
	return resp, nil
}

func readLine(r *bufio.Reader) ([]byte, error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		buf = append(buf, chunk...)
		if len(buf) > maxLine {
			return nil, fmt.Errorf("response exceeds %d bytes", maxLine)
		}
		switch {
		case err == nil:
			return bytes.TrimSpace(buf), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && len(bytes.TrimSpace(buf)) > 0:
			return bytes.TrimSpace(buf), nil
		default:
			return nil, err
		}
	}
}

func truncate(b []byte) string {
	if len(b) > 80 {
		return string(b[:80]) + "..."
	}
	return string(b)
}

// decodeResult maps the final expression value to one engine value per
// output. Several outputs arrive as a JSON array.
func decodeResult(raw json.RawMessage, outputs int) (engine.Result, error) {
	if outputs == 0 {
		return engine.Result{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return engine.Result{}, fmt.Errorf("malformed result: %w", err)
	}
	if outputs == 1 {
		val, err := decodeValue(v)
		if err != nil {
			return engine.Result{}, err
		}
		return engine.Result{Outputs: []engine.Value{val}}, nil
	}
	items, ok := v.([]any)
	if !ok || len(items) != outputs {
		return engine.Result{}, fmt.Errorf("expected %d results, got %s", outputs, truncate(raw))
	}
	res := engine.Result{Outputs: make([]engine.Value, len(items))}
	for i, it := range items {
		val, err := decodeValue(it)
		if err != nil {
			return engine.Result{}, fmt.Errorf("result %d: %w", i, err)
		}
		res.Outputs[i] = val
	}
	return res, nil
}

func decodeValue(v any) (engine.Value, error) {
	switch v := v.(type) {
	case bool:
		return engine.BoolValue(v), nil
	case json.Number:
		return parseInt(v.String())
	case string:
		return parseInt(v)
	case []any:
		items := make([]engine.Value, len(v))
		for i, it := range v {
			val, err := decodeValue(it)
			if err != nil {
				return engine.Value{}, err
			}
			items[i] = val
		}
		return engine.TupleValue(items...), nil
	default:
		return engine.Value{}, fmt.Errorf("unsupported result value %v", v)
	}
}

func parseInt(s string) (engine.Value, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return engine.Value{}, fmt.Errorf("malformed integer %q", s)
	}
	return engine.IntValue(n), nil
}
