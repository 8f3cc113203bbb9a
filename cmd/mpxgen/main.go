package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/chzchzchz/mpxgen/audio"
	"github.com/chzchzchz/mpxgen/audio/wav"
	"github.com/chzchzchz/mpxgen/control"
	"github.com/chzchzchz/mpxgen/mpx"
	"github.com/chzchzchz/mpxgen/rds"
	"github.com/chzchzchz/mpxgen/stream"
)

var rootCmd = &cobra.Command{
	Use:           "mpxgen",
	Short:         "FM stereo composite baseband generator with RDS.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	verbose     bool
	sampleRate  int
	stationPath string
	piStr       string
	psName      string
	radiotext   string
	audioPath   string
	outputPath  string
	loopAudio   bool
	toneHz      float64
	toneDB      float64
	deviceName  string
	httpAddr    string
	rds2On      bool
	logoPath    string
	levelPilot  float64
	levelRDS    float64
	levelRDS2   float64
	gainDB      float64
	durationSec float64
	bitDepth    int
	fftBins     int
)

// configError marks failures in flags or input files, before any audio moves.
type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

func addSessionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&sampleRate, "fs", 192000, "Working sample rate in Hz")
	f.StringVarP(&stationPath, "station", "s", "", "Station YAML file")
	f.StringVar(&piStr, "pi", "", "Program identification code (hex), overrides station file")
	f.StringVar(&psName, "ps", "", "Program service name, overrides station file")
	f.StringVar(&radiotext, "rt", "", "Radiotext, overrides station file")
	f.StringVarP(&audioPath, "input", "i", "", "Stereo program WAV file; test tone if empty")
	f.BoolVar(&loopAudio, "loop", false, "Restart the program file at EOF")
	f.Float64Var(&toneHz, "tone", audio.DefaultToneHz, "Test tone frequency in Hz")
	f.Float64Var(&toneDB, "tone-db", audio.DefaultToneDB, "Test tone level in dBFS")
	f.BoolVar(&rds2On, "rds2", false, "Enable the 66.5/76/85.5 kHz sideband carriers")
	f.StringVar(&logoPath, "logo", "", "Station logo image for the sideband streams")
	f.Float64Var(&levelPilot, "level-pilot", mpx.DefaultPilotLevel, "Pilot injection")
	f.Float64Var(&levelRDS, "level-rds", mpx.DefaultRDSLevel, "Data subcarrier injection")
	f.Float64Var(&levelRDS2, "level-rds2", mpx.DefaultRDS2Level, "Per-sideband injection")
	f.Float64Var(&gainDB, "level-mpx", 0, "Overall composite level in dB relative to full scale")
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	cobra.OnInitialize(func() {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	})

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "Stream the composite to a sound device",
		RunE:  func(cmd *cobra.Command, args []string) error { return play(cmd.Context()) },
	}
	addSessionFlags(playCmd)
	playCmd.Flags().StringVarP(&deviceName, "device", "d", "", "Output device name substring")
	playCmd.Flags().StringVar(&httpAddr, "http", "", "Control surface listen address")
	rootCmd.AddCommand(playCmd)

	tofileCmd := &cobra.Command{
		Use:   "tofile",
		Short: "Render the composite to a WAV file",
		RunE:  func(cmd *cobra.Command, args []string) error { return tofile() },
	}
	addSessionFlags(tofileCmd)
	tofileCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination WAV file")
	tofileCmd.Flags().Float64Var(&durationSec, "duration", 0, "Seconds to render; to program end if 0")
	tofileCmd.Flags().IntVar(&bitDepth, "depth", 16, "PCM bit depth, 16 or 24")
	rootCmd.AddCommand(tofileCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "devices",
		Short: "List sound output devices",
		RunE:  func(cmd *cobra.Command, args []string) error { return devices() },
	})

	spectrumCmd := &cobra.Command{
		Use:   "spectrum in.wav",
		Short: "Report per-band power of a composite recording",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return spectrum(args[0]) },
	}
	spectrumCmd.Flags().IntVar(&fftBins, "bins", 8192, "FFT window length")
	rootCmd.AddCommand(spectrumCmd)
}

func buildStation() (*rds.Station, error) {
	st := &rds.Station{
		PI: 0x1000,
		PS: "MPXGEN",
		RT: "mpxgen composite generator",
	}
	if stationPath != "" {
		var err error
		if st, err = rds.LoadStationFile(stationPath); err != nil {
			return nil, err
		}
	}
	if piStr != "" {
		pi, err := rds.ParsePI(piStr)
		if err != nil {
			return nil, err
		}
		st.PI = pi
	}
	if psName != "" {
		st.PS = psName
	}
	if radiotext != "" {
		st.RT = radiotext
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return st, nil
}

type session struct {
	gen     *mpx.Generator
	bits    *rds.BitSource
	updater *rds.Updater
	station rds.Station
	src     audio.Source
	engine  *stream.Engine
}

func buildSession() (*session, error) {
	st, err := buildStation()
	if err != nil {
		return nil, configError{err}
	}

	updater := &rds.Updater{}
	bits := rds.NewBitSource(rds.GroupChunks{Source: rds.NewGroupBuilder(*st, updater)})

	var rds2Bits []mpx.BitReader
	if rds2On {
		var logo *rds.LogoFrame
		if logoPath != "" {
			if logo, err = rds.LoadLogo(logoPath); err != nil {
				return nil, configError{err}
			}
		}
		for range mpx.RDS2Harmonics {
			frame := logo
			if logo != nil {
				// Each sideband walks the frame at its own pace.
				lf := *logo
				frame = &lf
			}
			s := rds.NewRDS2Stream(*st, frame, nil)
			rds2Bits = append(rds2Bits, rds.NewBitSource(s))
		}
	}

	cfg := mpx.Config{
		SampleRate: sampleRate,
		Levels: mpx.Levels{
			Pilot:  levelPilot,
			RDS:    levelRDS,
			RDS2:   levelRDS2,
			GainDB: gainDB,
		},
		RDS2: rds2On,
	}
	gen, err := mpx.NewGenerator(cfg, bits, rds2Bits)
	if err != nil {
		return nil, configError{err}
	}

	var src audio.Source
	if audioPath != "" {
		if src, err = audio.OpenWAV(audioPath, sampleRate, loopAudio); err != nil {
			return nil, configError{err}
		}
	} else {
		src = audio.NewToneSource(sampleRate, toneHz, toneDB)
	}

	return &session{
		gen:     gen,
		bits:    bits,
		updater: updater,
		station: *st,
		src:     src,
		engine:  stream.NewEngine(gen, src, bits.AtBoundary),
	}, nil
}

func (s *session) status() control.Status {
	return control.Status{
		State:     s.engine.State().String(),
		Frames:    s.gen.Frames(),
		Underruns: s.engine.Underruns(),
		Clips:     s.gen.Clips(),
		Groups:    s.bits.Chunks(),
		PS:        s.station.PS,
		RT:        s.station.RT,
	}
}

func play(ctx context.Context) error {
	s, err := buildSession()
	if err != nil {
		return err
	}
	defer s.src.Close()

	sink, err := stream.OpenDevice(s.engine, deviceName, sampleRate)
	if err != nil {
		return err
	}
	defer sink.Close()

	if httpAddr != "" {
		h := control.NewHandler(s.status, s.updater, s.station)
		go func() {
			log.Info("control surface", "addr", httpAddr)
			if err := control.ServeHttp(httpAddr, h); err != nil {
				log.Error("control surface", "err", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sink.Start(); err != nil {
		return errors.Wrap(err, "start stream")
	}
	log.Info("playing",
		"rate", sampleRate,
		"pi", fmt.Sprintf("0x%04X", s.station.PI),
		"ps", s.station.PS,
		"rds2", rds2On)
	return s.engine.Run(ctx)
}

func tofile() error {
	if outputPath == "" {
		return configError{errors.New("need an output file")}
	}
	if audioPath == "" && durationSec <= 0 {
		return configError{errors.New("the test tone never ends; give a duration")}
	}
	if loopAudio && durationSec <= 0 {
		return configError{errors.New("a looped program never ends; give a duration")}
	}
	s, err := buildSession()
	if err != nil {
		return err
	}
	defer s.src.Close()

	sink, err := stream.CreateWAV(outputPath, sampleRate, bitDepth)
	if err != nil {
		return err
	}
	maxFrames := uint64(durationSec * float64(sampleRate))
	written, err := sink.Render(s.engine, maxFrames)
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.Info("rendered", "path", outputPath, "frames", written,
		"groups", s.bits.Chunks(), "clips", s.gen.Clips())
	return nil
}

func devices() error {
	devs, err := stream.ListDevices()
	if err != nil {
		return err
	}
	for _, d := range devs {
		fmt.Printf("%3d  %-40s %-12s %d ch, %.0f Hz\n",
			d.Index, d.Name, d.HostAPI, d.MaxOutputChannels, d.DefaultSampleRate)
	}
	return nil
}

func spectrum(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return configError{err}
	}
	defer f.Close()
	rd, err := wav.NewReader(f)
	if err != nil {
		return configError{err}
	}
	if rd.Channels() != 1 {
		return configError{errors.Errorf("%q is not a mono composite recording", path)}
	}

	sp := mpx.NewSpectrum(rd.SampleRate(), fftBins)
	buf := make([]float64, sp.Bins())
	for {
		n, err := rd.ReadFloats(buf)
		if n == sp.Bins() {
			sp.Accumulate(buf)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	for _, b := range sp.Report() {
		fmt.Printf("%-12s %7.1f..%7.1f kHz  %6.1f dB\n",
			b.Name, b.LowHz/1000, b.HighHz/1000, b.DB)
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error(err.Error())
		var cfgErr configError
		var stErr *rds.ConfigError
		if errors.As(err, &cfgErr) || errors.As(err, &stErr) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}
