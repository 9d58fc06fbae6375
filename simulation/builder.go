package simulation

import (
	"github.com/rs/xid"

	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/datarecording"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/monitoring"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/sim"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	recordOn       bool
	outputFileName string
}

// MakeBuilder creates a new builder. Monitoring is on and data recording is
// off by default.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
	}
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithDataRecording turns on the data recorder.
func (b Builder) WithDataRecording() Builder {
	b.recordOn = true
	return b
}

// WithOutputFileName sets the target of the data recorder and turns it on.
// A name starting with clickhouse:// selects a ClickHouse server.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.recordOn = true
	b.outputFileName = filename

	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
}

// Build builds the simulation. It fails if the data recorder cannot be
// opened.
func (b Builder) Build() (*Simulation, error) {
	b.parametersMustBeValid()

	s := &Simulation{
		id:            xid.New().String(),
		engine:        sim.NewSerialEngine(),
		compNameIndex: make(map[string]int),
	}

	if b.recordOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "mesisim_" + s.id
		}

		recorder, err := datarecording.Open(outputPath)
		if err != nil {
			return nil, err
		}

		s.dataRecorder = recorder
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor().WithPortNumber(b.monitorPort)
		s.monitor.RegisterEngine(s.engine)
		s.monitor.StartServer()
	}

	return s, nil
}
