package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"soc_dvfs/board"
	"soc_dvfs/capapi"
	"soc_dvfs/config"
	"soc_dvfs/device/regulator"
	"soc_dvfs/device/smbus"
	"soc_dvfs/device/thermal"
	"soc_dvfs/dvfs"
	"soc_dvfs/log"
	"soc_dvfs/metrics"
	"soc_dvfs/util"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Initialize the rails and serve the cap interface",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, configPath)
		if err != nil {
			return err
		}
		log.SetDebug(cfg.Debug)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	b, err := board.Lookup(cfg.Board)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	opts := []dvfs.Option{dvfs.WithMetrics(metrics.New(reg))}
	if cfg.GPULimit {
		opts = append(opts, dvfs.WithGPULimit())
	}
	if cfg.DisableCPU {
		opts = append(opts, dvfs.WithRailDisabled(b.CPURail))
	}
	if cfg.DisableCore {
		opts = append(opts, dvfs.WithRailDisabled(b.CoreRail))
	}
	if !cfg.Simulate {
		regOpts, closeAll, err := openRegulators(b, cfg.Regulators)
		if err != nil {
			return err
		}
		defer closeAll()
		opts = append(opts, regOpts...)
	}

	e, err := dvfs.New(b, board.SimulatedClocks(b), cfg.Silicon.Silicon, opts...)
	if err != nil {
		return err
	}
	rep, err := e.Initialize()
	if err != nil {
		return err
	}
	log.Infof("DVFS: %s cpu %d mV (table %s), core %d mV", b.Name,
		rep.CPUNominalMV, rep.CPUTable, rep.CoreNominalMV)
	for _, d := range e.Domains() {
		if !d.Enabled {
			log.Warnf("DVFS: %s is not scaled", d.Name)
			continue
		}
		log.Debugf("DVFS: %s on %s max %s", d.Name, d.Rail, util.FormatHz(d.MaxRate))
	}
	if cfg.Silicon.CurrentAge > 0 {
		e.AgeCPU(cfg.Silicon.CurrentAge)
	}

	ctl, err := capapi.NewServer(cfg.Listen, capapi.NewHandler(e, b.Name))
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Listen, err)
	}
	log.Infof("Control interface on %s", ctl.Addr())

	httpSrv := &http.Server{
		Addr:              cfg.MetricsListen,
		Handler:           newRouter(e, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(ctl.Serve)
	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if mon, err := newMonitor(cfg.Thermal, e); err != nil {
		log.Errorf("THERMAL: monitor disabled: %v", err)
	} else if mon != nil {
		g.Go(func() error { return mon.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := ctl.Shutdown(sctx)
		if herr := httpSrv.Shutdown(sctx); err == nil {
			err = herr
		}
		return err
	})

	err = g.Wait()
	log.Infof("=============== dvfsd stop after %s ===============", util.FormatDuration(time.Since(util.UpSince)))
	return err
}

func openRegulators(b *dvfs.Board, cfgs []config.RegulatorConfig) ([]dvfs.Option, func(), error) {
	var opts []dvfs.Option
	var conns []*smbus.Conn
	closeAll := func() {
		for _, c := range conns {
			c.Close()
		}
	}
	specs := map[string]dvfs.RailSpec{}
	for _, s := range b.Rails {
		specs[s.Name] = s
	}

	for _, rc := range cfgs {
		spec, ok := specs[rc.Rail]
		if !ok {
			closeAll()
			return nil, nil, fmt.Errorf("regulator for unknown rail %s", rc.Rail)
		}
		conn, err := smbus.Open(rc.Bus, uint8(rc.Addr))
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("rail %s: %w", rc.Rail, err)
		}
		conns = append(conns, conn)
		conn.SetPEC(rc.PEC)

		var popts []regulator.Option
		if rc.SettleUS > 0 {
			popts = append(popts, regulator.WithSettle(time.Duration(rc.SettleUS)*time.Microsecond))
		}
		if rc.EnableGPIO > 0 {
			popts = append(popts, regulator.WithEnablePin(regulator.NewEnablePin(rc.EnableGPIO, false)))
		}
		p, err := regulator.NewPMBus(rc.Rail, conn, spec.MinMV, spec.MaxMV, popts...)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		opts = append(opts, dvfs.WithRegulator(rc.Rail, p))
	}
	return opts, closeAll, nil
}

// newMonitor returns nil when no thermal source is configured.
func newMonitor(tc config.ThermalConfig, e *dvfs.Engine) (*thermal.Monitor, error) {
	var s thermal.Sensor
	switch tc.Mode {
	case config.ThermalSysfs:
		z, err := thermal.OpenSysfsZone(tc.Zone, tc.ColdMilliC)
		if err != nil {
			return nil, err
		}
		s = z
	case config.ThermalGPIO:
		a, err := thermal.OpenAlertLine(tc.Chip, tc.Line)
		if err != nil {
			return nil, err
		}
		s = a
	default:
		return nil, nil
	}
	return thermal.NewMonitor(s, e, tc.Interval, tc.Cores), nil
}
