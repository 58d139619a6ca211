// Package monitoring turns a machine into a web server so that external
// tools can inspect and control the fetch-decode-execute-store cycle.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
	"github.com/tliron/commonlog"

	"github.com/sarchlab/minicpu/asm"
	"github.com/sarchlab/minicpu/isa"
	"github.com/sarchlab/minicpu/machine"
)

// Monitor can turn a machine into a server and allows external inspection and
// controlling of the execution.
type Monitor struct {
	machine    *machine.Machine
	portNumber int
	logger     commonlog.Logger

	machineLock sync.Mutex

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		logger: commonlog.GetLogger("minicpu.monitor"),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterMachine registers the machine to be monitored.
func (m *Monitor) RegisterMachine(mach *machine.Machine) {
	m.machine = mach
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the HTTP handler that serves the monitoring API.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/state", m.state).Methods(http.MethodGet)
	r.HandleFunc("/api/step", m.step).Methods(http.MethodPost)
	r.HandleFunc("/api/steps", m.steps).Methods(http.MethodPost)
	r.HandleFunc("/api/run", m.run).Methods(http.MethodPost)
	r.HandleFunc("/api/reset", m.reset).Methods(http.MethodPost)
	r.HandleFunc("/api/program", m.loadProgram).Methods(http.MethodPost)
	r.HandleFunc("/api/encoding", m.encoding).Methods(http.MethodGet)
	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts the monitor as a web server with a custom port if
// wanted. It returns the address the server listens on.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber >= 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", err
	}

	addr := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.logger.Infof("monitoring machine with %s", addr)

	go func() {
		serveErr := http.Serve(listener, m.Handler())
		if serveErr != nil {
			m.logger.Errorf("monitor server stopped: %s", serveErr)
		}
	}()

	return addr, nil
}

func (m *Monitor) state(w http.ResponseWriter, _ *http.Request) {
	m.machineLock.Lock()
	snapshot := m.machine.State()
	m.machineLock.Unlock()

	m.writeJSON(w, snapshot)
}

type stepRsp struct {
	More  bool `json:"more"`
	Cycle int  `json:"cycle"`
}

func (m *Monitor) step(w http.ResponseWriter, _ *http.Request) {
	m.machineLock.Lock()
	more := m.machine.Step()
	cycle := m.machine.State().Cycle
	m.machineLock.Unlock()

	m.writeJSON(w, stepRsp{More: more, Cycle: cycle})
}

func (m *Monitor) steps(w http.ResponseWriter, r *http.Request) {
	nStr := r.URL.Query().Get("n")
	if nStr == "" {
		nStr = "1"
	}

	n, err := strconv.Atoi(nStr)
	if err != nil || n < 1 {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "invalid step count %q", nStr)
		return
	}

	m.machineLock.Lock()
	more := true
	for i := 0; i < n && more; i++ {
		more = m.machine.Step()
	}
	cycle := m.machine.State().Cycle
	m.machineLock.Unlock()

	m.writeJSON(w, stepRsp{More: more, Cycle: cycle})
}

func (m *Monitor) run(w http.ResponseWriter, _ *http.Request) {
	m.machineLock.Lock()
	total := uint64(len(m.machine.Program()) * 4)
	m.machineLock.Unlock()

	bar := m.CreateProgressBar("run", total)

	go func() {
		defer m.CompleteProgressBar(bar)

		for {
			m.machineLock.Lock()
			more := m.machine.Step()
			m.machineLock.Unlock()

			if !more {
				return
			}

			bar.IncrementFinished(1)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}

func (m *Monitor) reset(w http.ResponseWriter, _ *http.Request) {
	m.machineLock.Lock()
	m.machine.Reset()
	m.machineLock.Unlock()

	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) loadProgram(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	program, err := asm.Parse(bytes.NewReader(body))
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprintf(w, "cannot parse program: %s", err)
		return
	}

	m.machineLock.Lock()
	m.machine.LoadProgram(program)
	m.machineLock.Unlock()

	m.logger.Infof("loaded program with %d instructions", len(program))

	m.writeJSON(w, map[string]int{"instructions": len(program)})
}

type encodingRsp struct {
	Instruction string `json:"instruction"`
	Encoding    string `json:"encoding"`
}

func (m *Monitor) encoding(w http.ResponseWriter, _ *http.Request) {
	m.machineLock.Lock()
	program := m.machine.Program()
	m.machineLock.Unlock()

	rsp := make([]encodingRsp, 0, len(program))
	for _, inst := range program {
		rsp = append(rsp, encodingRsp{
			Instruction: inst.String(),
			Encoding:    isa.Encode(inst),
		})
	}

	m.writeJSON(w, rsp)
}

// components returns the named parts of the machine that can be inspected
// through the component endpoints.
func (m *Monitor) components() map[string]any {
	return map[string]any{
		"machine":   m.machine,
		"registers": m.machine.Registers(),
		"memory":    m.machine.Memory(),
		"cache":     m.machine.Caches(),
		"bus":       m.machine.Bus(),
		"kernel":    m.machine.Kernel(),
	}
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	names := []string{"machine", "registers", "memory", "cache", "bus", "kernel"}
	m.writeJSON(w, names)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	component, found := m.components()[name]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("Component not found"))
		return
	}

	m.machineLock.Lock()
	defer m.machineLock.Unlock()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(2)
	err := serializer.Serialize(w)
	if err != nil {
		m.logger.Errorf("cannot serialize component %s: %s", name, err)
	}
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.writeJSON(w, m.progressBars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		m.serverError(w, err)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		m.serverError(w, err)
		return
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		m.serverError(w, err)
		return
	}

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		m.serverError(w, err)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		m.serverError(w, err)
		return
	}

	m.writeJSON(w, prof)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		m.logger.Errorf("cannot write response: %s", err)
	}
}

func (m *Monitor) serverError(w http.ResponseWriter, err error) {
	m.logger.Errorf("monitor request failed: %s", err)
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, "Error: %s", err)
}
