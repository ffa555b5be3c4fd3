// Command enb is the composition root for the LTE FDD eNodeB core: it
// wires configuration, the parameter database, the user registry, the
// message bus, radio/PHY/MAC, the protocol-layer routers, the control
// and debug sockets, and the metrics server, then runs until signaled.
// Grounded on nf/amf/cmd/main.go's flag/config/logger/signal-driven
// shutdown shape.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bwojtowicz/lte-fdd-enb/internal/config"
	"github.com/bwojtowicz/lte-fdd-enb/internal/diag"
	"github.com/bwojtowicz/lte-fdd-enb/internal/layers"
	"github.com/bwojtowicz/lte-fdd-enb/internal/mac"
	"github.com/bwojtowicz/lte-fdd-enb/internal/metrics"
	"github.com/bwojtowicz/lte-fdd-enb/internal/msgbus"
	"github.com/bwojtowicz/lte-fdd-enb/internal/paramdb"
	"github.com/bwojtowicz/lte-fdd-enb/internal/phy"
	"github.com/bwojtowicz/lte-fdd-enb/internal/radio"
	"github.com/bwojtowicz/lte-fdd-enb/internal/registry"
	"github.com/bwojtowicz/lte-fdd-enb/internal/wire"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config/enb.yaml", "path to configuration file")
	flag.Parse()

	logger := createLogger("info")
	defer logger.Sync()

	logger.Info("starting eNodeB", zap.String("version", Version), zap.String("build_time", BuildTime))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	logger.Info("configuration loaded",
		zap.String("instance_id", cfg.ENB.InstanceID),
		zap.String("radio_type", cfg.Radio.Type),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := msgbus.New(logger)
	reg := registry.New(logger)
	defer reg.Close()

	var dev radio.Device
	switch cfg.Radio.Type {
	case "udp_loop":
		dev, err = radio.NewUDPLoopbackDevice("127.0.0.1:0", cfg.Radio.UDPLoopAddr)
		if err != nil {
			logger.Fatal("failed to create udp-loopback radio device", zap.Error(err))
		}
	case "no_rf":
		dev = radio.NewNoRFDevice()
	default:
		logger.Fatal("radio type not supported in this build", zap.String("type", cfg.Radio.Type))
	}

	db := paramdb.New(nil, logger)
	sysInfoForMAC := db.Subscribe(1)
	sysInfoForPHY := db.Subscribe(1)

	m := mac.New(reg, sysInfoForMAC, bus, logger)
	p := phy.New(phy.NoopDSP{}, sysInfoForPHY, bus, logger)
	r := radio.New(dev, p, p, mac.NRbDefault, logger)

	layers.NewRLC(bus, reg, logger)
	layers.NewPDCP(bus, reg, logger)
	layers.NewRRC(bus, reg, logger)
	layers.NewMME(bus, reg, logger)

	if cfg.Observability.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Observability.Metrics.Port, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
		defer metricsServer.Stop(context.Background())
		metrics.SetENBUp(true)
		defer metrics.SetENBUp(false)
	}

	if cfg.PCAP.Enabled {
		pcapSink, err := diag.OpenPCAPSink(cfg.PCAP.Path)
		if err != nil {
			logger.Error("failed to open pcap sink", zap.Error(err))
		} else {
			defer pcapSink.Close()
			m.SetCapture(func(tti uint32, rnti uint16, tb []byte) {
				lteCtx := wire.MACLTEContext{Direction: wire.DirectionDownlink, RNTIType: wire.RNTIC, RNTI: rnti, SubFN: uint16(tti % 10)}
				if err := pcapSink.WriteMACPDU(lteCtx, tb); err != nil {
					logger.Debug("pcap write failed", zap.Error(err))
				}
			})
		}
	}

	var debugSink *diag.DebugSink
	if cfg.Debug.Enabled {
		debugSink = diag.NewDebugSink(fmt.Sprintf("%s:%d", cfg.Debug.BindAddress, cfg.Debug.Port), logger)
		if err := debugSink.Start(ctx); err != nil {
			logger.Error("failed to start debug socket", zap.Error(err))
		} else {
			defer debugSink.Stop()
		}
	}

	if cfg.Control.Enabled {
		controlSrv := diag.NewControlServer(fmt.Sprintf("%s:%d", cfg.Control.BindAddress, cfg.Control.Port),
			newControlDispatcher(db), logger)
		if err := controlSrv.Start(ctx); err != nil {
			logger.Error("failed to start control socket", zap.Error(err))
		} else {
			defer controlSrv.Stop()
		}
	}

	db.SetStarted(true)
	if _, err := db.ConstructSysInfo(ctx); err != nil {
		logger.Error("failed to construct initial system information", zap.Error(err))
	}

	if err := r.Start(ctx); err != nil {
		logger.Fatal("failed to start radio", zap.Error(err))
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	logger.Info("shutdown signal received", zap.String("signal", sig.String()))

	cancel()
	if err := r.Stop(); err != nil {
		logger.Error("failed to stop radio cleanly", zap.Error(err))
	}
	bus.Shutdown()
	logger.Info("eNodeB shutdown complete")
}

// controlParams maps the control socket's read/write command names to
// their paramdb.Param, covering the subset of parameters that are
// plain int64 values. Grounded on LTE_fdd_enb_interface.cc's
// handle_read/handle_write dispatch over the same cnfg_db parameters.
var controlParams = map[string]paramdb.Param{
	"freq_band":   paramdb.FreqBand,
	"dl_earfcn":   paramdb.DLEarfcn,
	"ul_earfcn":   paramdb.ULEarfcn,
	"n_rb_dl":     paramdb.NRbDl,
	"n_rb_ul":     paramdb.NRbUl,
	"n_ant":       paramdb.NAnt,
	"n_id_cell":   paramdb.NIDCell,
	"cell_id":     paramdb.CellID,
	"enable_pcap": paramdb.EnablePCAP,
}

// newControlDispatcher builds the control socket's command table: "read
// <param>", "write <param> <value>", and "help". Command framing/dispatch
// and this read/write subset are in scope; richer command semantics are
// out of scope per the control-socket boundary note.
func newControlDispatcher(db *paramdb.DB) diag.CommandHandler {
	return func(line string) string {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return ""
		}

		switch fields[0] {
		case "help":
			return "commands: read <param>, write <param> <value>, help"

		case "read":
			if len(fields) != 2 {
				return "usage: read <param>"
			}
			p, ok := controlParams[fields[1]]
			if !ok {
				return fmt.Sprintf("unknown param: %s", fields[1])
			}
			v, err := db.GetInt64(p)
			if err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			return fmt.Sprintf("%s = %d", fields[1], v)

		case "write":
			if len(fields) != 3 {
				return "usage: write <param> <value>"
			}
			p, ok := controlParams[fields[1]]
			if !ok {
				return fmt.Sprintf("unknown param: %s", fields[1])
			}
			v, err := strconv.ParseInt(fields[2], 10, 64)
			if err != nil {
				return fmt.Sprintf("invalid value: %s", fields[2])
			}
			if err := db.SetInt64(p, v); err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			return fmt.Sprintf("%s = %d", fields[1], v)

		default:
			return fmt.Sprintf("unrecognized command: %q (type help)", line)
		}
	}
}

func createLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	return logger
}
