// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/pbnjay/memory"

	"github.com/mlnoga/fovlight/internal/codebook"
	"github.com/mlnoga/fovlight/internal/frag"
	"github.com/mlnoga/fovlight/internal/hist"
	"github.com/mlnoga/fovlight/internal/rest"
	"github.com/mlnoga/fovlight/internal/restore"
	"github.com/mlnoga/fovlight/internal/store"
)

const version = "0.1.0"

var totalMiBs = memory.TotalMemory() / 1024 / 1024

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var org       = flag.String("org", "organization.yml", "load data organization (codebooks, channels, z positions) from YAML `file`")
var params    = flag.String("params", "", "load restoration parameters from JSON `file`, blank for defaults")
var aligned   = flag.String("aligned", "aligned", "read aligned images from `directory`")
var out       = flag.String("out", "analysis", "write analysis results to `directory`")
var task      = flag.String("task", "restore", "analysis task `name` used as result storage key")
var logF      = flag.String("log", "", "also save log output to `file`")

var fragments  = flag.Int("fragments", 1, "number of imaging fields (fragments) to process")
var maxThreads = flag.Int("maxThreads", 0, "maximum number of parallel fragments, 0=number of CPUs")
var fragMiB    = flag.Int("fragMiB", 2048, "estimated memory per fragment in MiB, caps parallelism at 70% of physical memory")

var stacks   = flag.Bool("stacks", false, "also write processed image stack archives per fragment")
var quantile = flag.Float64("quantile", 0.99, "intensity quantile reported per bit for initial scale factors")

var serve = flag.String("serve", "", "run as REST server on the given `address` instead of batch processing, e.g. :8080")

var showLegal = flag.Bool("legal", false, "show licensing terms and exit")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			`fovlight %s: restores fluorescence images for multiplexed barcode decoding

Removes smooth background illumination and partially inverts optical blur with
Lucy-Richardson deconvolution, then accumulates per-bit intensity histograms
across all imaging fields for channel scale estimation.

Usage: %s [options]

Options:
`, version, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showLegal {
		fmt.Print(legal)
		return
	}

	logWriter := io.Writer(os.Stdout)
	if *logF != "" {
		file, err := os.Create(*logF)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating log file: %s\n", err.Error())
			os.Exit(1)
		}
		defer file.Close()
		buffered := bufio.NewWriter(file)
		defer buffered.Flush()
		logWriter = io.MultiWriter(os.Stdout, buffered)
	}
	logWriter = frag.NewSyncWriter(logWriter) // fragment workers log in parallel

	if *cpuprofile != "" {
		file, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating cpu profile: %s\n", err.Error())
			os.Exit(1)
		}
		defer file.Close()
		if err := pprof.StartCPUProfile(file); err != nil {
			fmt.Fprintf(os.Stderr, "error starting cpu profile: %s\n", err.Error())
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if err := run(logWriter); err != nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
		os.Exit(1)
	}

	if *memprofile != "" {
		file, err := os.Create(*memprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating memory profile: %s\n", err.Error())
			os.Exit(1)
		}
		defer file.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(file); err != nil {
			fmt.Fprintf(os.Stderr, "error writing memory profile: %s\n", err.Error())
		}
	}
}

func run(logWriter io.Writer) error {
	fmt.Fprintf(logWriter, "fovlight %s with %d CPUs and %d MiB physical memory\n",
		version, runtime.GOMAXPROCS(0), totalMiBs)

	organization, err := codebook.Load(*org)
	if err != nil {
		return err
	}

	p := restore.Params{}
	if *params != "" {
		if p, err = restore.LoadParams(*params); err != nil {
			return err
		}
	}
	pipe, err := restore.NewPipeline(p)
	if err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "restoring with highpass sigma %g, PSF sigma %g size %d, %d iterations\n",
		pipe.Params.HighpassSigma, pipe.Params.DeconSigma, pipe.Params.DeconFilterSize, pipe.Params.DeconIterations)

	proc, err := frag.NewProcessor(pipe, organization,
		frag.NewDirSource(*aligned), store.NewDiskStore(*out), *task, logWriter)
	if err != nil {
		return err
	}

	fragmentList := make([]int, *fragments)
	for i := range fragmentList {
		fragmentList[i] = i
	}
	threads := frag.MaxFragmentThreads(*maxThreads, *fragMiB)

	if *serve != "" {
		fmt.Fprintf(logWriter, "serving %d fragments on %s with up to %d in parallel\n",
			len(fragmentList), *serve, threads)
		server := &rest.Server{Proc: proc, Fragments: fragmentList, MaxThreads: threads}
		return server.Run(*serve)
	}

	fmt.Fprintf(logWriter, "processing %d fragments with up to %d in parallel\n",
		len(fragmentList), threads)
	if err := frag.RunFragments(fragmentList, threads, proc.ProcessFragment); err != nil {
		return err
	}

	if *stacks {
		if err := frag.RunFragments(fragmentList, threads, func(fragment int) error {
			return proc.WriteProcessedStack(fragment, nil, *out)
		}); err != nil {
			return err
		}
	}

	aggregate, err := proc.AggregatePixelHistogram(fragmentList)
	if err != nil {
		return err
	}
	factors := hist.InitialScaleFactors(aggregate, *quantile)
	for bit, name := range proc.Codebook().BitNames() {
		fmt.Fprintf(logWriter, "bit %-8s: %12d pixels, %.4g%% intensity quantile %8.1f\n",
			name, aggregate.RowSum(bit), *quantile*100, factors[bit])
	}
	return nil
}
