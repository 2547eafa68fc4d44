// Command mixrender renders a mixing scene offline to a wav file.
//
// Usage:
//
//	mixrender -scene scene.yaml
//	mixrender -scene scene.yaml -o out.wav -start 12.5 -meter
//	mixrender -scene scene.yaml -spectrum -v
//	mixrender -scene scene.yaml -eq
//
// A scene places wav, mp3 or ogg files on mixer channels and configures
// reverb aux buses:
//
//	sample_rate: 48000
//	channels: 2
//	block_size: 1024
//	output: mix.wav
//	tail: 2
//	resample_quality: very-high
//	inputs:
//	  - file: vocals.wav
//	    channel: 1
//	    start: 0.5
//	    fade_in: 0.05
//	    params:
//	      pre_gain: -3
//	      pan: -0.2
//	      send_bus: 3
//	      send: -12
//	buses:
//	  - id: 3
//	    preset: church
//	    wet: -6
//
// Inputs recorded at another sample rate are resampled to the scene rate.
//
// With -start the render begins mid-scene; the mixer is pre-rolled for
// its warm-up duration first so envelopes and delays have settled.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/cwbudde/algo-mixer/mixer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "mixrender:", err)
		os.Exit(1)
	}
}

type options struct {
	scene    string
	output   string
	start    float64
	meter    bool
	spectrum bool
	eq       bool
	verbose  bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("mixrender", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.scene, "scene", "", "scene file (YAML)")
	fs.StringVar(&o.output, "o", "", "output wav file (overrides the scene)")
	fs.Float64Var(&o.start, "start", 0, "render from this position in seconds")
	fs.BoolVar(&o.meter, "meter", false, "print peak and rms levels per channel and bus")
	fs.BoolVar(&o.spectrum, "spectrum", false, "print the strongest spectral peaks of the output")
	fs.BoolVar(&o.eq, "eq", false, "print each channel's shelf response at octave bands")
	fs.BoolVar(&o.verbose, "v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.scene == "" {
		fs.Usage()
		return o, errors.New("missing -scene")
	}
	if o.start < 0 {
		return o, fmt.Errorf("negative -start %v", o.start)
	}
	return o, nil
}

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	log := newLogger(stderr, o.verbose)

	scene, err := LoadSceneFile(o.scene)
	if err != nil {
		return err
	}
	if o.output != "" {
		scene.Output = o.output
	}

	began := time.Now()
	clips, err := loadClips(ctx, log, scene, filepath.Dir(o.scene))
	if err != nil {
		return err
	}

	preRoll := 0.0
	if o.start > 0 {
		if preRoll, err = warmUp(scene); err != nil {
			return err
		}
	}

	var opts []mixer.Option
	opts = append(opts, mixer.WithLogger(log))
	var levels *meter
	if o.meter {
		levels = newMeter()
		opts = append(opts, mixer.WithObserver(levels))
	}

	r, err := newRenderer(log, mixer.New(opts...), scene, clips)
	if err != nil {
		return err
	}
	if f, ok := stderr.(*os.File); ok && !o.verbose && term.IsTerminal(int(f.Fd())) {
		r.progress = progressLine(f)
	}

	sr := scene.SampleRate
	pcm, err := r.render(ctx, int(o.start*sr), int(preRoll*sr))
	if r.progress != nil {
		fmt.Fprintln(stderr)
	}
	if err != nil {
		return err
	}

	if err := writeWAV(scene.Output, int(sr), scene.Channels, pcm); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"output":   scene.Output,
		"seconds":  float64(len(pcm)/scene.Channels) / sr,
		"pre_roll": preRoll,
		"elapsed":  time.Since(began).Round(time.Millisecond),
	}).Info("render complete")

	if levels != nil {
		if err := levels.Report(stdout); err != nil {
			return err
		}
	}
	if o.eq {
		if err := writeEQ(stdout, scene); err != nil {
			return err
		}
	}
	if o.spectrum {
		return writeSpectrum(stdout, pcm, scene.Channels, sr)
	}
	return nil
}

// progressLine returns a callback redrawing a percentage on w.
func progressLine(w io.Writer) func(done, total int) {
	last := -1
	return func(done, total int) {
		if total <= 0 {
			return
		}
		pct := done * 100 / total
		if pct == last {
			return
		}
		last = pct
		fmt.Fprintf(w, "\rrendering %3d%%", pct)
	}
}
