package process

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// fakeEngine interprets the classical subset of the rendered Q#: register
// allocation, XOR writes, Arith.Add and measurements. It answers dumps with
// the single basis state in the Q# index convention.
type fakeEngine struct {
	order  []string
	widths map[string]int
	values map[string]*big.Int
	resets []string
}

var (
	reUse     = regexp.MustCompile(`^use (\w+) = Qubit\[(\d+)\];$`)
	reXor     = regexp.MustCompile(`^ApplyXorInPlaceL\((\d+)L, (\w+)\);$`)
	reAdd     = regexp.MustCompile(`^Arith\.Add\((\w+), (\w+)\);$`)
	reMeasure = regexp.MustCompile(`^let (\w+) = TestUtils\.MeasureBigInt\((\w+)\);$`)
	reTuple   = regexp.MustCompile(`^\((.*)\)$`)
	reName    = regexp.MustCompile(`^r\d+$`)
)

func newFakeEngine() *fakeEngine {
	return &fakeEngine{widths: map[string]int{}, values: map[string]*big.Int{}}
}

func (f *fakeEngine) serve(in io.Reader, out io.Writer) {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	enc := json.NewEncoder(out)
	for sc.Scan() {
		var req request
		if err := json.Unmarshal(sc.Bytes(), &req); err != nil {
			_ = enc.Encode(map[string]any{"ok": false, "error": err.Error()})
			continue
		}
		switch req.Op {
		case "eval":
			if strings.Contains(req.Code, "Hang") {
				time.Sleep(time.Hour)
			}
			if strings.Contains(req.Code, "Garbage") {
				fmt.Fprintln(out, "not json")
				continue
			}
			result, err := f.eval(req.Code)
			if err != nil {
				_ = enc.Encode(map[string]any{"ok": false, "error": err.Error()})
				continue
			}
			_ = enc.Encode(map[string]any{"ok": true, "result": result})
		case "dump":
			_ = enc.Encode(f.dump())
		case "reset":
			f.resets = append(f.resets, req.Code)
			f.order = nil
			f.widths = map[string]int{}
			f.values = map[string]*big.Int{}
			_ = enc.Encode(map[string]any{"ok": true})
		default:
			_ = enc.Encode(map[string]any{"ok": false, "error": "unknown op " + req.Op})
		}
	}
}

func (f *fakeEngine) eval(code string) (any, error) {
	results := map[string]string{}
	var final any
	for _, line := range strings.Split(strings.TrimSpace(code), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case reUse.MatchString(line):
			m := reUse.FindStringSubmatch(line)
			w, _ := strconv.Atoi(m[2])
			f.order = append(f.order, m[1])
			f.widths[m[1]] = w
			f.values[m[1]] = new(big.Int)
		case reXor.MatchString(line):
			m := reXor.FindStringSubmatch(line)
			v, _ := new(big.Int).SetString(m[1], 10)
			f.values[m[2]].Xor(f.values[m[2]], v)
		case reAdd.MatchString(line):
			m := reAdd.FindStringSubmatch(line)
			y := f.values[m[2]]
			y.Add(y, f.values[m[1]])
			y.Mod(y, new(big.Int).Lsh(big.NewInt(1), uint(f.widths[m[2]])))
		case reMeasure.MatchString(line):
			m := reMeasure.FindStringSubmatch(line)
			results[m[1]] = f.values[m[2]].String()
		case reTuple.MatchString(line):
			var items []string
			for _, name := range strings.Split(reTuple.FindStringSubmatch(line)[1], ", ") {
				items = append(items, results[name])
			}
			final = items
		case reName.MatchString(line):
			final = results[line]
		default:
			return nil, fmt.Errorf("unsupported line %q", line)
		}
	}
	return final, nil
}

func (f *fakeEngine) dump() map[string]any {
	total := 0
	for _, name := range f.order {
		total += f.widths[name]
	}
	idx := new(big.Int)
	start := 0
	for _, name := range f.order {
		v := f.values[name]
		for i := 0; i < f.widths[name]; i++ {
			if v.Bit(i) == 1 {
				idx.SetBit(idx, total-1-(start+i), 1)
			}
		}
		start += f.widths[name]
	}
	return map[string]any{
		"ok":         true,
		"qubits":     total,
		"amplitudes": []map[string]any{{"index": idx.String(), "re": 1.0, "im": 0.0}},
	}
}
